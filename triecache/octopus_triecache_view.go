package triecache

import (
	"github.com/radiation-octopus/octopus-triecache/entity"
	"github.com/radiation-octopus/octopus-triecache/trie"
)

// View是trie在一次遍历或变异中使用的缓存视图，组合了共享层、LocalCache的私有层和一种值缓存模式。
// View实现trie.Cache，不能并发使用，用完必须Release（写View也可以用MergeInto结束）。
type View struct {
	local    *LocalCache
	data     dataMode
	released bool
}

var _ trie.Cache = (*View)(nil)

func newView(local *LocalCache, data dataMode) *View {
	return &View{local: local, data: data}
}

// GetOrInsertNode依次查找共享层和私有层，都未命中时调用fetch，成功后把结果放入私有层。
// fetch的错误原样返回，失败时不缓存任何内容。
func (v *View) GetOrInsertNode(hash entity.Hash, fetch func() (trie.Node, error)) (trie.Node, error) {
	if n, ok := v.local.shared.node(hash); ok {
		nodeSharedHitMeter.Mark(1)
		return n, nil
	}
	if n, ok := v.local.node(hash); ok {
		nodeLocalHitMeter.Mark(1)
		return n, nil
	}
	nodeMissMeter.Mark(1)
	n, err := fetch()
	if err != nil {
		return nil, err
	}
	v.local.insert(hash, n)
	return n, nil
}

// InsertNode把新创建的节点放入私有层。
func (v *View) InsertNode(hash entity.Hash, n trie.Node) {
	nodeInsertMeter.Mark(1)
	logger.Trace("Cached new trie node", "hash", hash)
	v.local.insert(hash, n)
}

// GetNode依次查找共享层和私有层，不会触发获取。
func (v *View) GetNode(hash entity.Hash) (trie.Node, bool) {
	if n, ok := v.local.shared.node(hash); ok {
		return n, true
	}
	return v.local.node(hash)
}

// LookupValue返回值缓存中key的记录。ok为true且value为nil表示键已确认不存在。
func (v *View) LookupValue(key []byte) ([]byte, bool) {
	value, ok := v.data.lookup(key)
	if _, disabled := v.data.(disabledData); !disabled {
		if ok {
			dataHitMeter.Mark(1)
		} else {
			dataMissMeter.Mark(1)
		}
	}
	return value, ok
}

// CacheValue在值缓存中记录key的值，nil表示键不存在。
func (v *View) CacheValue(key, value []byte) {
	if _, disabled := v.data.(disabledData); disabled {
		return
	}
	dataRecordMeter.Mark(1)
	logger.Trace("Cached trie value", "key", key, "absent", value == nil)
	v.data.record(key, value)
}

// CacheWrite记录trie变异后的值。写View记入私有表，等待MergeInto。
// 读View的根不会改变，第一次变异后View就放开根的值表，之后不再使用值缓存。
func (v *View) CacheWrite(key, value []byte) {
	switch data := v.data.(type) {
	case *freshData:
		dataRecordMeter.Mark(1)
		logger.Trace("Cached written trie value", "key", key, "deleted", value == nil)
		data.record(key, value)
	case *rootData:
		dataDetachMeter.Mark(1)
		logger.Trace("Detached mutated read view from value cache", "root", data.root)
		data.release()
		v.data = disabledData{}
	}
}

// MergeInto把写View的私有值表并入shared中newRoot的值表，然后释放View。
// 只对WriteView派生的View有效，其他View只会被释放。shared未开启值缓存时私有值表被丢弃。
func (v *View) MergeInto(shared *SharedCache, newRoot entity.Hash) {
	if v.released {
		return
	}
	if fresh, ok := v.data.(*freshData); ok {
		merged := fresh.mergeInto(shared, newRoot)
		mergeValuesMeter.Mark(int64(merged))
		logger.Trace("Merged trie values", "root", newRoot, "values", merged)
	}
	v.Release()
}

// Release释放View。读View解锁其根的值表，写View丢弃未合并的私有值表。重复调用无效。
func (v *View) Release() {
	if v.released {
		return
	}
	v.released = true
	v.data.release()
	v.data = disabledData{}
}
