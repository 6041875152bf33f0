package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/olekukonko/tablewriter"
	"github.com/radiation-octopus/octopus-triecache/entity"
	"github.com/radiation-octopus/octopus-triecache/entity/rawdb"
	"github.com/radiation-octopus/octopus-triecache/trie"
	"github.com/radiation-octopus/octopus-triecache/triecache"
	"github.com/radiation-octopus/octopus-triecache/typedb"
	"github.com/urfave/cli/v2"
)

var rootFlag = &cli.StringFlag{
	Name:     "root",
	Usage:    "Hex encoded trie root",
	Required: true,
}

var inspectCommand = &cli.Command{
	Name:      "inspect",
	Usage:     "Summarise the node store, then resolve a trie root through the cache and look up keys",
	ArgsUsage: "<hexkey> [<hexkey>...]",
	Flags:     []cli.Flag{rootFlag},
	Action:    inspect,
}

func inspect(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.DataDir == "" {
		return errors.New("inspect needs a --datadir")
	}
	enc, err := hexutil.Decode(ctx.String(rootFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid root: %v", err)
	}
	root := entity.BytesToHash(enc)

	store, err := openStore(cfg, true)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := rawdb.InspectStore(store)
	if err != nil {
		return err
	}
	storeTable := tablewriter.NewWriter(os.Stdout)
	storeTable.SetHeader([]string{"Category", "Items", "Size"})
	storeTable.AppendBulk([][]string{
		{"Trie nodes", strconv.Itoa(stats.Nodes), stats.NodeSize.String()},
		{"Preimages", strconv.Itoa(stats.Preimages), stats.ImageSize.String()},
		{"Unknown", strconv.Itoa(stats.Unknown), stats.OtherSize.String()},
	})
	storeTable.Render()

	if stater, ok := store.(typedb.Stater); ok {
		if out, err := stater.Stat("leveldb.stats"); err == nil {
			fmt.Println(out)
		}
	}

	tdb := openTrieDatabase(cfg, store)
	shared := triecache.NewSharedCache(cfg.Cache.DataCache)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Value"})

	err = shared.WithLocal(func(local *triecache.LocalCache) error {
		view := local.ReadView(root)
		defer view.Release()

		tr, err := trie.NewWithCache(root, tdb, view)
		if err != nil {
			return err
		}
		if n, ok := view.GetNode(root); ok {
			fmt.Println(trie.NodeString(n))
		}
		for _, arg := range ctx.Args().Slice() {
			key, err := hexutil.Decode(arg)
			if err != nil {
				return fmt.Errorf("invalid key %q: %v", arg, err)
			}
			value, err := tr.TryGet(key)
			if err != nil {
				return err
			}
			if value == nil {
				table.Append([]string{arg, "<absent>"})
			} else {
				table.Append([]string{arg, hexutil.Encode(value)})
			}
		}
		log.Info("Resolved trie root", "root", root, "local", local.Len())
		return nil
	})
	if err != nil {
		return err
	}
	table.Render()
	log.Info("Shared cache", "nodes", shared.NodeCount(), "roots", shared.RootCount())
	return nil
}
