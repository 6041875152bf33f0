// triecache是trie节点缓存的命令行工具，用于基准测试和检查缓存行为。
package main

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	dataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for the leveldb store (memory store if empty)",
	}
	dataCacheFlag = &cli.BoolFlag{
		Name:  "datacache",
		Usage: "Enable the per-root value cache",
	}
	cacheFlag = &cli.IntFlag{
		Name:  "cache",
		Usage: "Megabytes of memory allocated to the clean node cache",
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
)

var app = &cli.App{
	Name:  "triecache",
	Usage: "inspect and benchmark the shared trie node cache",
	Flags: []cli.Flag{
		configFileFlag,
		dataDirFlag,
		dataCacheFlag,
		cacheFlag,
		verbosityFlag,
	},
	Before: setupLogging,
	Commands: []*cli.Command{
		benchCommand,
		inspectCommand,
		dumpConfigCommand,
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging把默认日志器换成终端处理器，只有stderr是终端时才输出颜色。
func setupLogging(ctx *cli.Context) error {
	useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	handler := log.NewTerminalHandlerWithLevel(colorable.NewColorableStderr(), log.FromLegacyLevel(ctx.Int(verbosityFlag.Name)), useColor)
	log.SetDefault(log.NewLogger(handler))
	return nil
}
