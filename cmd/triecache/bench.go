package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/olekukonko/tablewriter"
	"github.com/radiation-octopus/octopus-triecache/crypto"
	"github.com/radiation-octopus/octopus-triecache/entity"
	"github.com/radiation-octopus/octopus-triecache/trie"
	"github.com/radiation-octopus/octopus-triecache/triecache"
	"github.com/radiation-octopus/octopus-triecache/typedb"
	"github.com/radiation-octopus/octopus-triecache/typedb/leveldb"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var (
	keysFlag = &cli.IntFlag{
		Name:  "keys",
		Usage: "Number of keys inserted into the benchmark trie",
	}
	readersFlag = &cli.IntFlag{
		Name:  "readers",
		Usage: "Number of concurrent readers",
	}
)

var benchCommand = &cli.Command{
	Name:   "bench",
	Usage:  "Build a trie through the cache and read it back concurrently",
	Flags:  []cli.Flag{keysFlag, readersFlag},
	Action: bench,
}

// countingStore统计落到磁盘存储上的读取次数。
type countingStore struct {
	typedb.KeyValueStore
	reads atomic.Int64
}

func (s *countingStore) Get(key []byte) ([]byte, error) {
	s.reads.Add(1)
	return s.KeyValueStore.Get(key)
}

// openStore打开datadir下的leveldb，datadir为空时使用内存存储。
func openStore(cfg config, readonly bool) (typedb.KeyValueStore, error) {
	if cfg.DataDir == "" {
		return leveldb.NewMemory("triecache/")
	}
	return leveldb.New(filepath.Join(cfg.DataDir, "nodes"), cfg.Cache.CleanCacheMB, 0, "triecache/", readonly)
}

func openTrieDatabase(cfg config, store typedb.KeyValueStore) *trie.Database {
	return trie.NewDatabaseWithConfig(store, &trie.Config{
		Cache:   cfg.Cache.CleanCacheMB,
		Journal: cfg.Cache.Journal,
	})
}

func benchKeys(n int) [][]byte {
	keys := make([][]byte, n)
	for i := range keys {
		var enc [8]byte
		binary.BigEndian.PutUint64(enc[:], uint64(i))
		keys[i] = crypto.Keccak256(enc[:])
	}
	return keys
}

func benchValue(key []byte) []byte {
	return append([]byte("value-"), key[:8]...)
}

func bench(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, false)
	if err != nil {
		return err
	}
	defer store.Close()

	counter := &countingStore{KeyValueStore: store}
	tdb := openTrieDatabase(cfg, counter)
	shared := triecache.NewSharedCache(cfg.Cache.DataCache)
	keys := benchKeys(cfg.Bench.Keys)

	start := time.Now()
	root, err := buildTrie(tdb, shared, keys)
	if err != nil {
		return err
	}
	log.Info("Built benchmark trie", "root", root, "keys", len(keys), "elapsed", common.PrettyDuration(time.Since(start)))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Pass", "Disk reads", "Shared nodes", "Roots", "Elapsed"})

	passes := []struct {
		name   string
		shared *triecache.SharedCache
	}{
		{"cold", triecache.NewSharedCache(cfg.Cache.DataCache)},
		{"warm", shared},
		{"warm", shared},
	}
	for _, pass := range passes {
		before := counter.reads.Load()
		start := time.Now()
		if err := readConcurrently(tdb, pass.shared, root, keys, cfg.Bench.Readers); err != nil {
			return err
		}
		table.Append([]string{
			pass.name,
			strconv.FormatInt(counter.reads.Load()-before, 10),
			strconv.Itoa(pass.shared.NodeCount()),
			strconv.Itoa(pass.shared.RootCount()),
			common.PrettyDuration(time.Since(start)).String(),
		})
	}
	table.Render()

	stats := tdb.CleanStats()
	log.Info("Clean node cache", "entries", stats.EntriesCount, "bytes", common.StorageSize(stats.BytesSize))
	if cfg.Cache.Journal != "" {
		return tdb.SaveCache(cfg.Cache.Journal)
	}
	return nil
}

// buildTrie通过写View插入所有键，提交到磁盘后把值表合并到新根下。
func buildTrie(tdb *trie.Database, shared *triecache.SharedCache, keys [][]byte) (root entity.Hash, err error) {
	err = shared.WithLocal(func(local *triecache.LocalCache) error {
		view := local.WriteView()
		defer view.Release()

		tr, err := trie.NewWithCache(trie.EmptyRoot(), tdb, view)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := tr.TryUpdate(key, benchValue(key)); err != nil {
				return err
			}
		}
		if root, _, err = tr.Commit(); err != nil {
			return err
		}
		dirty, preimages := tdb.Size()
		log.Debug("Committed benchmark trie to memory", "root", root, "dirty", dirty, "preimages", preimages)
		if err := tdb.Commit(root, false); err != nil {
			return err
		}
		view.MergeInto(shared, root)
		return nil
	})
	return root, err
}

// readConcurrently启动readers个goroutine，每个都通过自己的读View读出全部键并校验值。
func readConcurrently(tdb *trie.Database, shared *triecache.SharedCache, root entity.Hash, keys [][]byte, readers int) error {
	if readers < 1 {
		readers = 1
	}
	var g errgroup.Group
	for i := 0; i < readers; i++ {
		offset := i * len(keys) / readers
		g.Go(func() error {
			return shared.WithLocal(func(local *triecache.LocalCache) error {
				view := local.ReadView(root)
				defer view.Release()

				tr, err := trie.NewWithCache(root, tdb, view)
				if err != nil {
					return err
				}
				for j := range keys {
					key := keys[(offset+j)%len(keys)]
					value, err := tr.TryGet(key)
					if err != nil {
						return err
					}
					if !bytes.Equal(value, benchValue(key)) {
						return fmt.Errorf("value mismatch for key %x: have %x", key, value)
					}
				}
				return nil
			})
		})
	}
	return g.Wait()
}
