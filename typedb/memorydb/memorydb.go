// Package memorydb实现了由内存映射支持的键值数据库，主要用于测试和临时trie存储。
package memorydb

import (
	"bytes"
	"errors"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/radiation-octopus/octopus-triecache/typedb"
)

var (
	// errMemorydbClosed在数据库关闭后访问时返回。
	errMemorydbClosed = errors.New("database closed")

	// errMemorydbNotFound在键不存在时返回。
	errMemorydbNotFound = errors.New("not found")
)

// Database是短暂的内存键值存储，键按字符串保存。
type Database struct {
	db   map[string][]byte
	lock sync.RWMutex
}

func New() *Database {
	return &Database{db: make(map[string][]byte)}
}

// Close丢弃所有数据，之后的访问返回errMemorydbClosed。
func (db *Database) Close() error {
	db.lock.Lock()
	defer db.lock.Unlock()

	db.db = nil
	return nil
}

func (db *Database) Has(key []byte) (bool, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.db == nil {
		return false, errMemorydbClosed
	}
	_, ok := db.db[string(key)]
	return ok, nil
}

func (db *Database) Get(key []byte) ([]byte, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.db == nil {
		return nil, errMemorydbClosed
	}
	entry, ok := db.db[string(key)]
	if !ok {
		return nil, errMemorydbNotFound
	}
	return common.CopyBytes(entry), nil
}

func (db *Database) Put(key []byte, value []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.db == nil {
		return errMemorydbClosed
	}
	return mapWriter(db.db).Put(key, common.CopyBytes(value))
}

func (db *Database) Delete(key []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.db == nil {
		return errMemorydbClosed
	}
	return mapWriter(db.db).Delete(key)
}

// Len返回存储的条目数。
func (db *Database) Len() int {
	db.lock.RLock()
	defer db.lock.RUnlock()

	return len(db.db)
}

func (db *Database) NewBatch() typedb.Batch {
	return &batch{db: db}
}

// NewIterator在创建时对匹配prefix且不小于prefix+start的条目做快照，按键升序遍历。
func (db *Database) NewIterator(prefix []byte, start []byte) typedb.Iterator {
	db.lock.RLock()
	defer db.lock.RUnlock()

	from := append(common.CopyBytes(prefix), start...)
	var entries []op
	for key, value := range db.db {
		k := []byte(key)
		if bytes.HasPrefix(k, prefix) && bytes.Compare(k, from) >= 0 {
			entries = append(entries, op{key: k, value: value})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].key, entries[j].key) < 0
	})
	return &iterator{entries: entries, pos: -1}
}

// mapWriter直接写入底层映射，调用方负责加锁。
type mapWriter map[string][]byte

func (m mapWriter) Put(key, value []byte) error {
	m[string(key)] = value
	return nil
}

func (m mapWriter) Delete(key []byte) error {
	delete(m, string(key))
	return nil
}

// op是排队的写入或删除，迭代器快照也复用它保存键值对。
type op struct {
	key, value []byte
	del        bool
}

// batch在内存中排队写入，Write时一次性应用到数据库。
type batch struct {
	db   *Database
	ops  []op
	size int
}

func (b *batch) Put(key, value []byte) error {
	b.ops = append(b.ops, op{key: common.CopyBytes(key), value: common.CopyBytes(value)})
	b.size += len(key) + len(value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.ops = append(b.ops, op{key: common.CopyBytes(key), del: true})
	b.size += len(key)
	return nil
}

func (b *batch) ValueSize() int {
	return b.size
}

func (b *batch) Write() error {
	b.db.lock.Lock()
	defer b.db.lock.Unlock()

	if b.db.db == nil {
		return errMemorydbClosed
	}
	return b.Replay(mapWriter(b.db.db))
}

func (b *batch) Reset() {
	b.ops, b.size = b.ops[:0], 0
}

func (b *batch) Replay(w typedb.KeyValueWriter) error {
	for _, o := range b.ops {
		var err error
		if o.del {
			err = w.Delete(o.key)
		} else {
			err = w.Put(o.key, o.value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// iterator遍历创建时的快照，pos为-1表示尚未开始。
type iterator struct {
	entries []op
	pos     int
}

func (it *iterator) Next() bool {
	if it.pos+1 >= len(it.entries) {
		it.pos = len(it.entries)
		return false
	}
	it.pos++
	return true
}

func (it *iterator) Error() error { return nil }

func (it *iterator) Key() []byte {
	if it.pos < 0 || it.pos >= len(it.entries) {
		return nil
	}
	return it.entries[it.pos].key
}

func (it *iterator) Value() []byte {
	if it.pos < 0 || it.pos >= len(it.entries) {
		return nil
	}
	return it.entries[it.pos].value
}

func (it *iterator) Release() {
	it.entries, it.pos = nil, -1
}
