package triecache

import (
	"sync"

	"github.com/radiation-octopus/octopus-triecache/entity"
	"github.com/radiation-octopus/octopus-triecache/trie"
)

// LocalCache是单个trie操作的私有节点层。操作期间获取或创建的节点只对本操作可见，
// Release时全部并入SharedCache。
// 同一个LocalCache可以被多个View并发使用。
type LocalCache struct {
	shared *SharedCache

	lock     sync.Mutex
	nodes    map[entity.Hash]trie.Node
	released bool

	once sync.Once
}

func newLocalCache(shared *SharedCache) *LocalCache {
	return &LocalCache{
		shared: shared,
		nodes:  make(map[entity.Hash]trie.Node),
	}
}

// ReadView返回用于读取root的View。节点先查共享层再查私有层。
// 开启了值缓存时，View持有root值表的独占锁直到Release，同一根的其他读View会等待。
func (l *LocalCache) ReadView(root entity.Hash) *View {
	l.checkLive()
	if l.shared.data == nil {
		return newView(l, disabledData{})
	}
	table := l.shared.data.table(root, true)
	table.lock.Lock()
	return newView(l, &rootData{root: root, table: table})
}

// WriteView返回用于修改trie的View。新根还不知道，值缓存总是从空的私有表开始，
// 需要调用MergeInto才会进入共享层。
func (l *LocalCache) WriteView() *View {
	l.checkLive()
	return newView(l, &freshData{values: make(map[string][]byte)})
}

// Release把私有层的所有节点并入共享层并清空私有层。只有第一次调用生效。
// 无论操作成功与否都应调用，通常使用defer。
// 同一个goroutine中，本LocalCache派生的View应先于Release释放。
func (l *LocalCache) Release() {
	l.once.Do(func() {
		l.lock.Lock()
		nodes := l.nodes
		l.nodes, l.released = nil, true
		l.lock.Unlock()

		l.shared.insertNodes(nodes)
		mergeNodesMeter.Mark(int64(len(nodes)))
		logger.Trace("Merged local trie node cache", "nodes", len(nodes))
	})
}

// Len返回私有层中的节点数。
func (l *LocalCache) Len() int {
	l.lock.Lock()
	defer l.lock.Unlock()

	return len(l.nodes)
}

func (l *LocalCache) checkLive() {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.released {
		panic("triecache: view derived from released local cache")
	}
}

func (l *LocalCache) node(hash entity.Hash) (trie.Node, bool) {
	l.lock.Lock()
	defer l.lock.Unlock()

	n, ok := l.nodes[hash]
	return n, ok
}

// insert把节点放入私有层。LocalCache已释放时直接并入共享层。
func (l *LocalCache) insert(hash entity.Hash, n trie.Node) {
	l.lock.Lock()
	if !l.released {
		l.nodes[hash] = n
		l.lock.Unlock()
		return
	}
	l.lock.Unlock()
	l.shared.insertNodes(map[entity.Hash]trie.Node{hash: n})
}
