package crypto

import (
	"hash"
	"sync"

	"github.com/radiation-octopus/octopus-triecache/entity"
	"golang.org/x/crypto/sha3"
)

// KeccakState包裹sha3。状态除了通常的散列方法外，它还支持读取以从散列状态获取可变数量的数据。Read比Sum快，因为它不复制内部状态，但也修改内部状态。
type KeccakState interface {
	hash.Hash
	Read([]byte) (int, error)
}

// hasherPool为Keccak256Hash保存LegacyKeccak256哈希器。
var hasherPool = sync.Pool{
	New: func() interface{} { return sha3.NewLegacyKeccak256() },
}

// NewKeccakState创建新的KeccakState
func NewKeccakState() KeccakState {
	return sha3.NewLegacyKeccak256().(KeccakState)
}

// Keccak256计算并返回输入数据的Keccak256哈希。
func Keccak256(data ...[]byte) []byte {
	b := make([]byte, 32)
	d := NewKeccakState()
	for _, b := range data {
		d.Write(b)
	}
	d.Read(b)
	return b
}

// Keccak256Hash计算并返回输入数据的Keccak256哈希，将其转换为内部哈希数据结构。
func Keccak256Hash(data ...[]byte) (h entity.Hash) {
	d := hasherPool.Get().(KeccakState)
	defer hasherPool.Put(d)

	d.Reset()
	for _, b := range data {
		d.Write(b)
	}
	d.Read(h[:])
	return h
}
