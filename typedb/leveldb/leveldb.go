// Package leveldb实现了基于goleveldb的持久化键值数据库，用作trie节点的磁盘存储。
package leveldb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/radiation-octopus/octopus-triecache/typedb"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	// minCache是分配给leveldb读写缓存的最小内存量，以MB为单位，一分为二。
	minCache = 16

	// minHandles是要分配给打开的数据库文件的最小文件句柄数。
	minHandles = 16
)

// Database是一个持久的键值存储。除了基本的数据存储功能外，它还支持按二进制字母顺序对键空间进行批写入和迭代。
type Database struct {
	db *leveldb.DB // LevelDB实例

	log log.Logger // 跟踪数据库路径的配置记录器
}

// New返回一个包装的LevelDB对象。命名空间是日志报告用于区分数据库的前缀。
func New(file string, cache int, handles int, namespace string, readonly bool) (*Database, error) {
	return NewCustom(file, namespace, func(options *opt.Options) {
		// 确保我们有一些最小的缓存和文件保证
		if cache < minCache {
			cache = minCache
		}
		if handles < minHandles {
			handles = minHandles
		}
		// 设置默认选项
		options.OpenFilesCacheCapacity = handles
		options.BlockCacheCapacity = cache / 2 * opt.MiB
		options.WriteBuffer = cache / 4 * opt.MiB // 其中两个在内部使用
		if readonly {
			options.ReadOnly = true
		}
	})
}

// NewCustom返回一个包装的LevelDB对象。自定义函数允许调用者修改leveldb选项。
func NewCustom(file string, namespace string, customize func(options *opt.Options)) (*Database, error) {
	options := configureOptions(customize)
	logger := log.New("database", file, "namespace", namespace)
	usedCache := options.GetBlockCacheCapacity() + options.GetWriteBuffer()*2
	logCtx := []interface{}{"cache", common.StorageSize(usedCache), "handles", options.GetOpenFilesCacheCapacity()}
	if options.ReadOnly {
		logCtx = append(logCtx, "readonly", "true")
	}
	logger.Info("Allocated cache and file handles", logCtx...)

	// 打开数据库并恢复任何潜在的损坏
	db, err := leveldb.OpenFile(file, options)
	if _, corrupted := err.(*errors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(file, nil)
	}
	if err != nil {
		return nil, err
	}
	return &Database{
		db:  db,
		log: logger,
	}, nil
}

// NewMemory返回一个由内存存储支持的LevelDB对象，用于测试和不需要持久化的场景。
func NewMemory(namespace string) (*Database, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), configureOptions(nil))
	if err != nil {
		return nil, err
	}
	return &Database{
		db:  db,
		log: log.New("database", "<memory>", "namespace", namespace),
	}, nil
}

// configureOptions设置一些默认选项，然后运行提供的setter。
func configureOptions(customizeFn func(*opt.Options)) *opt.Options {
	// 设置默认选项
	options := &opt.Options{
		Filter:                 filter.NewBloomFilter(10),
		DisableSeeksCompaction: true,
	}
	// 允许调用者对选项进行自定义修改
	if customizeFn != nil {
		customizeFn(options)
	}
	return options
}

// Close将所有挂起的数据刷新到磁盘，并关闭对底层键值存储的所有io访问。
func (db *Database) Close() error {
	if err := db.db.Close(); err != nil {
		db.log.Error("Failed to close database", "err", err)
		return err
	}
	return nil
}

// Has检索键值存储中是否存在键。
func (db *Database) Has(key []byte) (bool, error) {
	return db.db.Has(key, nil)
}

// Get检索给定的键（如果它存在于键值存储中）。
func (db *Database) Get(key []byte) ([]byte, error) {
	dat, err := db.db.Get(key, nil)
	if err != nil {
		return nil, err
	}
	return dat, nil
}

// Put将给定值插入键值存储区。
func (db *Database) Put(key []byte, value []byte) error {
	return db.db.Put(key, value, nil)
}

// Delete从键值存储中删除键。
func (db *Database) Delete(key []byte) error {
	return db.db.Delete(key, nil)
}

// NewBatch创建一个只写键值存储，该存储缓冲对其主机数据库的更改，直到调用最终写入。
func (db *Database) NewBatch() typedb.Batch {
	return &batch{
		db: db.db,
		b:  new(leveldb.Batch),
	}
}

// NewIterator在具有特定键前缀的数据库内容子集上创建一个二进制字母迭代器，从特定的初始键开始（如果不存在，则在其之后）。
func (db *Database) NewIterator(prefix []byte, start []byte) typedb.Iterator {
	return db.db.NewIterator(bytesPrefixRange(prefix, start), nil)
}

// Stat返回数据库的特定内部统计信息。
func (db *Database) Stat(property string) (string, error) {
	return db.db.GetProperty(property)
}

// batch是一个只写的leveldb批处理，在调用write时将更改提交到其主机数据库。批处理不能同时使用。
type batch struct {
	db   *leveldb.DB
	b    *leveldb.Batch
	size int
}

// Put将给定值插入批中，以便稍后提交。
func (b *batch) Put(key, value []byte) error {
	b.b.Put(key, value)
	b.size += len(key) + len(value)
	return nil
}

// Delete将删除密钥插入批处理中，以便稍后提交。
func (b *batch) Delete(key []byte) error {
	b.b.Delete(key)
	b.size += len(key)
	return nil
}

// ValueSize检索排队等待写入的数据量。
func (b *batch) ValueSize() int {
	return b.size
}

// Write将所有累积数据刷新到磁盘。
func (b *batch) Write() error {
	return b.db.Write(b.b, nil)
}

// Reset重置批以供重用。
func (b *batch) Reset() {
	b.b.Reset()
	b.size = 0
}

// Replay重播批处理内容。
func (b *batch) Replay(w typedb.KeyValueWriter) error {
	return b.b.Replay(&replayer{writer: w})
}

// replayer是一个小包装器，用于实现正确的replay方法。
type replayer struct {
	writer  typedb.KeyValueWriter
	failure error
}

// Put将给定值插入键值数据存储。
func (r *replayer) Put(key, value []byte) {
	// 如果重播已失败，请停止执行ops
	if r.failure != nil {
		return
	}
	r.failure = r.writer.Put(key, value)
}

// Delete从键值数据存储中删除键。
func (r *replayer) Delete(key []byte) {
	// 如果重播已失败，请停止执行ops
	if r.failure != nil {
		return
	}
	r.failure = r.writer.Delete(key)
}

// bytesPrefixRange返回满足以下条件的键范围
// -给定前缀，以及
// -给定的寻道位置
func bytesPrefixRange(prefix, start []byte) *util.Range {
	r := util.BytesPrefix(prefix)
	r.Start = append(r.Start, start...)
	return r
}
