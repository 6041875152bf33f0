package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/radiation-octopus/octopus-triecache/triecache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.toml")
	data := `DataDir = "/tmp/nodes"

[Cache]
DataCache = false
CleanCacheMB = 64

[Bench]
Readers = 2
`
	require.NoError(t, os.WriteFile(file, []byte(data), 0644))

	cfg := defaultConfig
	require.NoError(t, loadConfig(file, &cfg))
	assert.Equal(t, "/tmp/nodes", cfg.DataDir)
	assert.False(t, cfg.Cache.DataCache)
	assert.Equal(t, 64, cfg.Cache.CleanCacheMB)
	assert.Equal(t, 2, cfg.Bench.Readers)
	assert.Equal(t, defaultConfig.Bench.Keys, cfg.Bench.Keys)
}

func TestLoadConfigUnknownField(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(file, []byte("[Cache]\nSize = 1\n"), 0644))

	cfg := defaultConfig
	assert.Error(t, loadConfig(file, &cfg))
}

func TestBuildAndReadTrie(t *testing.T) {
	cfg := defaultConfig
	cfg.Cache.CleanCacheMB = 0
	store, err := openStore(cfg, false)
	require.NoError(t, err)
	defer store.Close()

	counter := &countingStore{KeyValueStore: store}
	tdb := openTrieDatabase(cfg, counter)
	shared := triecache.NewSharedCache(cfg.Cache.DataCache)
	keys := benchKeys(64)

	root, err := buildTrie(tdb, shared, keys)
	require.NoError(t, err)
	assert.NotZero(t, shared.NodeCount())
	assert.Equal(t, 1, shared.RootCount())

	// 构建时提交的节点和值都已进入共享缓存，读取不会访问磁盘
	require.NoError(t, readConcurrently(tdb, shared, root, keys, 4))
	assert.Zero(t, counter.reads.Load())

	cold := triecache.NewSharedCache(cfg.Cache.DataCache)
	require.NoError(t, readConcurrently(tdb, cold, root, keys, 4))
	assert.NotZero(t, counter.reads.Load())
	assert.Equal(t, shared.NodeCount(), cold.NodeCount())
}
