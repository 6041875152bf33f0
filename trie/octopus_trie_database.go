package trie

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	lru "github.com/hashicorp/golang-lru"
	"github.com/radiation-octopus/octopus-triecache/entity"
	"github.com/radiation-octopus/octopus-triecache/entity/rawdb"
	"github.com/radiation-octopus/octopus-triecache/typedb"
)

var (
	memcacheCleanHitMeter   = metrics.NewRegisteredMeter("trie/memcache/clean/hit", nil)
	memcacheCleanMissMeter  = metrics.NewRegisteredMeter("trie/memcache/clean/miss", nil)
	memcacheCleanReadMeter  = metrics.NewRegisteredMeter("trie/memcache/clean/read", nil)
	memcacheCleanWriteMeter = metrics.NewRegisteredMeter("trie/memcache/clean/write", nil)

	memcacheDirtyHitMeter   = metrics.NewRegisteredMeter("trie/memcache/dirty/hit", nil)
	memcacheDirtyMissMeter  = metrics.NewRegisteredMeter("trie/memcache/dirty/miss", nil)
	memcacheDirtyWriteMeter = metrics.NewRegisteredMeter("trie/memcache/dirty/write", nil)

	memcacheCommitTimeTimer  = metrics.NewRegisteredTimer("trie/memcache/commit/time", nil)
	memcacheCommitNodesMeter = metrics.NewRegisteredMeter("trie/memcache/commit/nodes", nil)
	memcacheCommitSizeMeter  = metrics.NewRegisteredMeter("trie/memcache/commit/size", nil)
)

var (
	// errNodeNotFound在内存和磁盘中都找不到trie节点时返回。
	errNodeNotFound = errors.New("not found")

	// errPreimagesDisabled在未开启前映像记录时查询前映像返回。
	errPreimagesDisabled = errors.New("preimages disabled")
)

// preimageCacheSize是内存中保留的前映像条目数上限。
const preimageCacheSize = 16 * 1024

// Config定义数据库的所有必要选项。
type Config struct {
	Cache     int    // 用于在内存中缓存trie节点的内存余量（MB）
	Journal   string // 节点重新启动后的清除缓存日志
	Preimages bool   // 标记是否记录trie键的前映像
}

// Database是trie和磁盘数据库之间的中间写入层。
// 提交的trie节点先累积在内存中，调用Commit时才写入磁盘。
// 注意Database的变异方法（insert、Commit）不是线程安全的，但单独的节点读取是线程安全的。
type Database struct {
	diskdb typedb.KeyValueStore // 成熟trie节点的持久存储

	cleans      *fastcache.Cache            // 干净节点RLP的GC友好内存缓存
	dirties     map[entity.Hash]*cachedNode // 尚未写入磁盘的trie节点
	dirtiesSize common.StorageSize          // 脏节点缓存的存储大小

	preimages     *lru.Cache             // 安全trie键的前映像（读缓存）
	pending       map[entity.Hash][]byte // 尚未写入磁盘的前映像
	preimagesSize common.StorageSize     // 待写前映像的存储大小

	lock sync.RWMutex
}

// cachedNode是一个尚未写入磁盘的trie节点。
type cachedNode struct {
	blob     []byte        // 节点的RLP编码
	children []entity.Hash // 该节点引用的哈希子节点
}

// NewDatabase创建一个没有读缓存的trie数据库，所有数据检索都会访问底层磁盘数据库。
func NewDatabase(diskdb typedb.KeyValueStore) *Database {
	return NewDatabaseWithConfig(diskdb, nil)
}

// NewDatabaseWithConfig创建一个trie数据库，它同时充当从磁盘加载的节点的读缓存。
func NewDatabaseWithConfig(diskdb typedb.KeyValueStore, config *Config) *Database {
	var cleans *fastcache.Cache
	if config != nil && config.Cache > 0 {
		if config.Journal == "" {
			cleans = fastcache.New(config.Cache * 1024 * 1024)
		} else {
			cleans = fastcache.LoadFromFileOrNew(config.Journal, config.Cache*1024*1024)
		}
	}
	db := &Database{
		diskdb:  diskdb,
		cleans:  cleans,
		dirties: make(map[entity.Hash]*cachedNode),
	}
	if config == nil || config.Preimages {
		db.preimages, _ = lru.New(preimageCacheSize)
		db.pending = make(map[entity.Hash][]byte)
	}
	return db
}

// Node从内存中检索编码的trie节点。内存中没有时查询持久数据库。
func (db *Database) Node(hash entity.Hash) ([]byte, error) {
	// 检索元根是没有意义的
	if hash == (entity.Hash{}) {
		return nil, errNodeNotFound
	}
	if db.cleans != nil {
		if enc := db.cleans.Get(nil, hash[:]); enc != nil {
			memcacheCleanHitMeter.Mark(1)
			memcacheCleanReadMeter.Mark(int64(len(enc)))
			return enc, nil
		}
	}
	db.lock.RLock()
	dirty := db.dirties[hash]
	db.lock.RUnlock()

	if dirty != nil {
		memcacheDirtyHitMeter.Mark(1)
		return dirty.blob, nil
	}
	memcacheDirtyMissMeter.Mark(1)

	enc := rawdb.ReadTrieNode(db.diskdb, hash)
	if len(enc) != 0 {
		if db.cleans != nil {
			db.cleans.Set(hash[:], enc)
			memcacheCleanMissMeter.Mark(1)
			memcacheCleanWriteMeter.Mark(int64(len(enc)))
		}
		return enc, nil
	}
	return nil, errNodeNotFound
}

// node检索并解码trie节点。
func (db *Database) node(hash entity.Hash) (node, error) {
	enc, err := db.Node(hash)
	if err != nil {
		return nil, err
	}
	return decodeNode(hash[:], enc)
}

// insert将折叠的trie节点插入内存数据库。blob为节点的RLP编码。
func (db *Database) insert(hash entity.Hash, blob []byte, n node) {
	db.lock.Lock()
	defer db.lock.Unlock()

	if _, ok := db.dirties[hash]; ok {
		return
	}
	memcacheDirtyWriteMeter.Mark(int64(len(blob)))

	entry := &cachedNode{blob: blob}
	forGatherChildren(n, func(child entity.Hash) {
		entry.children = append(entry.children, child)
	})
	db.dirties[hash] = entry
	db.dirtiesSize += common.StorageSize(entity.HashLength + len(blob))
}

// insertPreimage记录安全trie键的前映像。调用方必须持有数据库的锁。
func (db *Database) insertPreimage(hash entity.Hash, preimage []byte) {
	if db.preimages == nil {
		return
	}
	if db.preimages.Contains(hash) {
		return
	}
	db.preimages.Add(hash, preimage)
	db.pending[hash] = preimage
	db.preimagesSize += common.StorageSize(entity.HashLength + len(preimage))
}

// Preimage检索哈希键的前映像。
func (db *Database) Preimage(hash entity.Hash) ([]byte, error) {
	if db.preimages == nil {
		return nil, errPreimagesDisabled
	}
	if preimage, ok := db.preimages.Get(hash); ok {
		return preimage.([]byte), nil
	}
	preimage := rawdb.ReadPreimage(db.diskdb, hash)
	if len(preimage) == 0 {
		return nil, errNodeNotFound
	}
	db.preimages.Add(hash, preimage)
	return preimage, nil
}

// Commit把root可达的所有脏节点写入磁盘，并移入干净缓存。
// 作为副作用，也会写入到目前为止积累的所有前映像。
// 注意该方法是一个非同步的变异器，不能与其他变异同时调用。
func (db *Database) Commit(root entity.Hash, report bool) error {
	start := time.Now()
	batch := db.diskdb.NewBatch()

	// 前映像单独成批写入，避免回放到干净缓存
	db.lock.Lock()
	if len(db.pending) > 0 {
		rawdb.WritePreimages(batch, db.pending)
		if err := batch.Write(); err != nil {
			db.lock.Unlock()
			return err
		}
		batch.Reset()
		db.pending, db.preimagesSize = make(map[entity.Hash][]byte), 0
	}
	nodes, storage := len(db.dirties), db.dirtiesSize
	db.lock.Unlock()

	uncacher := &cleaner{db}
	if err := db.commit(root, batch, uncacher); err != nil {
		log.Error("Failed to commit trie from trie database", "err", err)
		return err
	}
	if err := batch.Write(); err != nil {
		log.Error("Failed to write trie to disk", "err", err)
		return err
	}
	db.lock.Lock()
	defer db.lock.Unlock()

	batch.Replay(uncacher)
	batch.Reset()

	memcacheCommitTimeTimer.Update(time.Since(start))
	memcacheCommitSizeMeter.Mark(int64(storage - db.dirtiesSize))
	memcacheCommitNodesMeter.Mark(int64(nodes - len(db.dirties)))

	logger := log.Debug
	if report {
		logger = log.Info
	}
	logger("Persisted trie from memory database", "nodes", nodes-len(db.dirties), "size", storage-db.dirtiesSize, "time", time.Since(start),
		"livenodes", len(db.dirties), "livesize", db.dirtiesSize)
	return nil
}

// commit先提交子节点再提交父节点。
func (db *Database) commit(hash entity.Hash, batch typedb.Batch, uncacher *cleaner) error {
	// 不在内存中的节点是以前提交过的
	db.lock.RLock()
	node, ok := db.dirties[hash]
	db.lock.RUnlock()
	if !ok {
		return nil
	}
	for _, child := range node.children {
		if err := db.commit(child, batch, uncacher); err != nil {
			return err
		}
	}
	rawdb.WriteTrieNode(batch, hash, node.blob)
	if batch.ValueSize() >= typedb.IdealBatchSize {
		if err := batch.Write(); err != nil {
			return err
		}
		db.lock.Lock()
		batch.Replay(uncacher)
		batch.Reset()
		db.lock.Unlock()
	}
	return nil
}

// Size返回持久数据库层前面的内存缓存的当前存储大小，以及待写前映像的大小。
func (db *Database) Size() (common.StorageSize, common.StorageSize) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	return db.dirtiesSize, db.preimagesSize
}

// CleanStats返回干净缓存的统计信息，没有干净缓存时返回零值。
func (db *Database) CleanStats() fastcache.Stats {
	var stats fastcache.Stats
	if db.cleans != nil {
		db.cleans.UpdateStats(&stats)
	}
	return stats
}

// SaveCache原子地把干净缓存保存到给定目录。
func (db *Database) SaveCache(dir string) error {
	if db.cleans == nil {
		return nil
	}
	log.Info("Writing clean trie cache to disk", "path", dir, "threads", runtime.GOMAXPROCS(0))

	start := time.Now()
	if err := db.cleans.SaveToFileConcurrent(dir, runtime.GOMAXPROCS(0)); err != nil {
		log.Error("Failed to persist clean trie cache", "error", err)
		return err
	}
	log.Info("Persisted the clean trie cache", "path", dir, "elapsed", common.PrettyDuration(time.Since(start)))
	return nil
}

// cleaner是一个批处理回放器，把已写入磁盘的节点从脏缓存移到干净缓存。
// 两阶段提交保证节点从内存移到磁盘期间始终可读。
type cleaner struct {
	db *Database
}

func (c *cleaner) Put(key []byte, rlp []byte) error {
	hash := entity.BytesToHash(key)

	node, ok := c.db.dirties[hash]
	if !ok {
		return nil
	}
	delete(c.db.dirties, hash)
	c.db.dirtiesSize -= common.StorageSize(entity.HashLength + len(node.blob))

	// 移入干净缓存，避免立即重新加载
	if c.db.cleans != nil {
		c.db.cleans.Set(hash[:], rlp)
		memcacheCleanWriteMeter.Mark(int64(len(rlp)))
	}
	return nil
}

func (c *cleaner) Delete(key []byte) error {
	panic("not implemented")
}

// forGatherChildren遍历折叠节点，对所有hashNode子节点调用回调。
func forGatherChildren(n node, onChild func(hash entity.Hash)) {
	switch n := n.(type) {
	case *shortNode:
		forGatherChildren(n.Val, onChild)
	case *fullNode:
		for i := 0; i < 16; i++ {
			forGatherChildren(n.Children[i], onChild)
		}
	case hashNode:
		onChild(entity.BytesToHash(n))
	case valueNode, nil:
	default:
		panic(fmt.Sprintf("unknown node type: %T", n))
	}
}
