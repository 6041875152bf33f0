// Package triecache实现trie节点的两级缓存。
//
// SharedCache在整个进程内共享，按哈希保存已解码的trie节点，并可选地按根保存键到值的映射。
// 每个trie操作从SharedCache派生一个LocalCache，新获取或新创建的节点先进入LocalCache的私有层，
// LocalCache释放时整体并入共享层。trie通过View访问这两层。
package triecache

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/radiation-octopus/octopus-triecache/entity"
	"github.com/radiation-octopus/octopus-triecache/trie"
)

// SharedCache是进程级的trie节点缓存。节点一经插入便不会被删除或替换，
// 同一哈希的节点内容总是相同的。缓存没有容量上限。
type SharedCache struct {
	lock  sync.RWMutex
	nodes map[entity.Hash]trie.Node

	data *dataCache // 未开启数据缓存时为nil
}

// dataCache按根保存键到值的映射。
type dataCache struct {
	lock  sync.RWMutex // 只保护roots索引
	roots map[entity.Hash]*rootTable
}

// rootTable是一个根下的值表，只增不减。value为nil表示键已确认不存在。
type rootTable struct {
	lock   sync.Mutex
	values map[string][]byte
}

// NewSharedCache创建空的共享缓存。enableDataCache决定是否开启按根的值缓存。
func NewSharedCache(enableDataCache bool) *SharedCache {
	s := &SharedCache{
		nodes: make(map[entity.Hash]trie.Node),
	}
	if enableDataCache {
		s.data = &dataCache{roots: make(map[entity.Hash]*rootTable)}
	}
	return s
}

// LocalCache派生一个引用本共享缓存的LocalCache。
func (s *SharedCache) LocalCache() *LocalCache {
	return newLocalCache(s)
}

// WithLocal派生一个LocalCache并执行fn。无论fn正常返回、返回错误还是panic，LocalCache都会被释放。
func (s *SharedCache) WithLocal(fn func(local *LocalCache) error) error {
	local := s.LocalCache()
	defer local.Release()
	return fn(local)
}

// DataCacheEnabled返回是否开启了值缓存。
func (s *SharedCache) DataCacheEnabled() bool {
	return s.data != nil
}

// NodeCount返回共享层中的节点数。
func (s *SharedCache) NodeCount() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.nodes)
}

// RootCount返回已有值表的根的数量。
func (s *SharedCache) RootCount() int {
	if s.data == nil {
		return 0
	}
	s.data.lock.RLock()
	defer s.data.lock.RUnlock()

	return len(s.data.roots)
}

// Value查看root的值表中key的记录，不会创建值表。
// 同一个goroutine持有root的读View时调用会死锁。
func (s *SharedCache) Value(root entity.Hash, key []byte) ([]byte, bool) {
	if s.data == nil {
		return nil, false
	}
	table := s.data.table(root, false)
	if table == nil {
		return nil, false
	}
	table.lock.Lock()
	defer table.lock.Unlock()

	value, ok := table.values[string(key)]
	return value, ok
}

// SetValue直接向root的值表写入一条记录，值表不存在时创建。value为nil表示键不存在。
// 未开启数据缓存时什么都不做。
func (s *SharedCache) SetValue(root entity.Hash, key, value []byte) {
	if s.data == nil {
		return
	}
	table := s.data.table(root, true)
	table.lock.Lock()
	defer table.lock.Unlock()

	table.values[string(key)] = common.CopyBytes(value)
}

// node在共享层中查找节点。读锁只在本次查找期间持有。
func (s *SharedCache) node(hash entity.Hash) (trie.Node, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	n, ok := s.nodes[hash]
	return n, ok
}

// insertNodes在写锁下把一批节点并入共享层，已存在的哈希保持不变。
func (s *SharedCache) insertNodes(nodes map[entity.Hash]trie.Node) {
	if len(nodes) == 0 {
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	before := len(s.nodes)
	for hash, n := range nodes {
		if _, ok := s.nodes[hash]; !ok {
			s.nodes[hash] = n
		}
	}
	sharedNodesCounter.Inc(int64(len(s.nodes) - before))
}

// table返回root的值表。create为true时，不存在的值表会被创建。
func (d *dataCache) table(root entity.Hash, create bool) *rootTable {
	d.lock.RLock()
	table := d.roots[root]
	d.lock.RUnlock()
	if table != nil || !create {
		return table
	}
	d.lock.Lock()
	defer d.lock.Unlock()

	if table = d.roots[root]; table == nil {
		table = &rootTable{values: make(map[string][]byte)}
		d.roots[root] = table
		sharedRootsCounter.Inc(1)
	}
	return table
}
