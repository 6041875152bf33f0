package rawdb

import "github.com/radiation-octopus/octopus-triecache/entity"

// trie节点直接以哈希为键存储，其余数据使用以下前缀。
var (
	PreimagePrefix = []byte("secure-key-") // PreimagePrefix + hash -> preimage
)

// preimageKey = PreimagePrefix + hash
func preimageKey(hash entity.Hash) []byte {
	return append(append([]byte{}, PreimagePrefix...), hash.Bytes()...)
}
