package rawdb

import (
	"github.com/ethereum/go-ethereum/log"
	"github.com/radiation-octopus/octopus-triecache/entity"
	"github.com/radiation-octopus/octopus-triecache/typedb"
)

// ReadTrieNode检索所提供哈希的trie节点。
func ReadTrieNode(db typedb.KeyValueReader, hash entity.Hash) []byte {
	data, _ := db.Get(hash.Bytes())
	return data
}

// HasTrieNode检查所提供哈希的trie节点是否存在。
func HasTrieNode(db typedb.KeyValueReader, hash entity.Hash) bool {
	ok, _ := db.Has(hash.Bytes())
	return ok
}

// WriteTrieNode写入提供的trie节点数据库。
func WriteTrieNode(db typedb.KeyValueWriter, hash entity.Hash, node []byte) {
	if err := db.Put(hash.Bytes(), node); err != nil {
		log.Crit("Failed to store trie node", "err", err)
	}
}

// DeleteTrieNode删除指定的trie节点。
func DeleteTrieNode(db typedb.KeyValueWriter, hash entity.Hash) {
	if err := db.Delete(hash.Bytes()); err != nil {
		log.Crit("Failed to delete trie node", "err", err)
	}
}
