package rawdb

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/radiation-octopus/octopus-triecache/crypto"
	"github.com/radiation-octopus/octopus-triecache/entity"
	"github.com/radiation-octopus/octopus-triecache/typedb/memorydb"
	"github.com/stretchr/testify/assert"
)

func TestTrieNodeAccessors(t *testing.T) {
	db := memorydb.New()
	blob := []byte{0xc2, 0x01, 0x02}
	hash := crypto.Keccak256Hash(blob)

	assert.False(t, HasTrieNode(db, hash))
	assert.Nil(t, ReadTrieNode(db, hash))

	WriteTrieNode(db, hash, blob)
	assert.True(t, HasTrieNode(db, hash))
	assert.Equal(t, blob, ReadTrieNode(db, hash))

	DeleteTrieNode(db, hash)
	assert.False(t, HasTrieNode(db, hash))
}

func TestPreimageAccessors(t *testing.T) {
	db := memorydb.New()
	key := []byte("account")
	hash := crypto.Keccak256Hash(key)

	assert.Nil(t, ReadPreimage(db, hash))
	WritePreimages(db, map[entity.Hash][]byte{hash: key})
	assert.Equal(t, key, ReadPreimage(db, hash))

	// 前映像和trie节点使用不同的键空间
	assert.False(t, HasTrieNode(db, hash))
}

func TestInspectStore(t *testing.T) {
	db := memorydb.New()
	for _, blob := range [][]byte{{0xc2, 0x01, 0x02}, {0xc2, 0x03, 0x04}} {
		WriteTrieNode(db, crypto.Keccak256Hash(blob), blob)
	}
	WritePreimages(db, map[entity.Hash][]byte{crypto.Keccak256Hash([]byte("k")): []byte("k")})
	db.Put([]byte("other"), []byte("x"))

	stats, err := InspectStore(db)
	assert.NoError(t, err)
	assert.Equal(t, 2, stats.Nodes)
	assert.Equal(t, 1, stats.Preimages)
	assert.Equal(t, 1, stats.Unknown)
	assert.Equal(t, common.StorageSize(2*(32+3)), stats.NodeSize)
	assert.Equal(t, common.StorageSize(len(PreimagePrefix)+32+1), stats.ImageSize)
	assert.Equal(t, common.StorageSize(len("other")+1), stats.OtherSize)
}
