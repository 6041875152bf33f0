package trie

import "github.com/radiation-octopus/octopus-triecache/entity"

// Cache是trie在遍历和变异时调用的节点/值缓存。
// 节点部分按哈希缓存已解码的节点；值部分按键缓存最终值，只在一个确定的根下有效。
// Cache的实现必须把value为nil的记录视为“已查询且不存在”。
type Cache interface {
	// GetOrInsertNode返回hash对应的节点，缓存未命中时调用fetch并缓存其结果。
	// fetch失败时原样返回错误，不缓存任何内容。
	GetOrInsertNode(hash entity.Hash, fetch func() (Node, error)) (Node, error)

	// InsertNode缓存新构造的节点。
	InsertNode(hash entity.Hash, n Node)

	// GetNode只查询缓存，不会触发获取。
	GetNode(hash entity.Hash) (Node, bool)

	// LookupValue返回键的缓存值。ok为true且value为nil表示键已确认不存在。
	LookupValue(key []byte) (value []byte, ok bool)

	// CacheValue记录读取得到的值，nil表示键不存在。值属于trie当前的根。
	CacheValue(key, value []byte)

	// CacheWrite记录变异后键的新值，nil表示键已删除。
	// 变异之后trie不再对应原来的根，绑定到已知根的值缓存不能记录这些值。
	CacheWrite(key, value []byte)
}
