package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/naoina/toml"
	"github.com/urfave/cli/v2"
)

// 这些设置确保TOML键使用与Go结构体字段相同的名称。
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

type cacheConfig struct {
	DataCache    bool   // 是否开启按根划分的值缓存
	CleanCacheMB int    // trie.Database干净节点缓存大小
	Journal      string `toml:",omitempty"` // 干净节点缓存的日志目录
}

type benchConfig struct {
	Keys    int
	Readers int
}

type config struct {
	DataDir string `toml:",omitempty"`
	Cache   cacheConfig
	Bench   benchConfig
}

var defaultConfig = config{
	Cache: cacheConfig{
		DataCache:    true,
		CleanCacheMB: 16,
	},
	Bench: benchConfig{
		Keys:    1024,
		Readers: 8,
	},
}

var dumpConfigCommand = &cli.Command{
	Name:   "dumpconfig",
	Usage:  "Show configuration values",
	Action: dumpConfig,
}

func loadConfig(file string, cfg *config) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// 为行错误补上文件名
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig加载配置文件，再用命令行标志覆盖其中的值。
func makeConfig(ctx *cli.Context) (config, error) {
	cfg := defaultConfig
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if ctx.IsSet(dataDirFlag.Name) {
		cfg.DataDir = ctx.String(dataDirFlag.Name)
	}
	if ctx.IsSet(dataCacheFlag.Name) {
		cfg.Cache.DataCache = ctx.Bool(dataCacheFlag.Name)
	}
	if ctx.IsSet(cacheFlag.Name) {
		cfg.Cache.CleanCacheMB = ctx.Int(cacheFlag.Name)
	}
	if ctx.IsSet(keysFlag.Name) {
		cfg.Bench.Keys = ctx.Int(keysFlag.Name)
	}
	if ctx.IsSet(readersFlag.Name) {
		cfg.Bench.Readers = ctx.Int(readersFlag.Name)
	}
	return cfg, nil
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}
