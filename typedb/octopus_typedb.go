package typedb

import (
	"io"
)

// KeyValueReader包装了支持数据存储的Has和Get方法。
type KeyValueReader interface {
	// Has检索键值数据存储中是否存在键。
	Has(key []byte) (bool, error)

	// Get检索给定的键（如果它存在于键值数据存储中）。
	Get(key []byte) ([]byte, error)
}

// KeyValueWriter包装了支持数据存储的Put和Delete方法。
type KeyValueWriter interface {
	// Put将给定值插入键值数据存储。
	Put(key []byte, value []byte) error

	// Delete从键值数据存储中删除键。
	Delete(key []byte) error
}

// KeyValueStore包含允许处理支持trie节点存储的不同键值数据存储所需的所有方法。
type KeyValueStore interface {
	KeyValueReader
	KeyValueWriter
	Batcher
	Iteratee
	io.Closer
}

// Stater包装了支持数据存储的Stat方法。
type Stater interface {
	// Stat返回数据库的特定内部统计信息。
	Stat(property string) (string, error)
}
