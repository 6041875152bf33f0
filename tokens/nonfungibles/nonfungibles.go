// Package nonfungibles定义非同质化资产的读取、修改和转移能力接口，
// 以及在实现不支持某项能力时默认拒绝的行为。
package nonfungibles

import (
	"errors"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

var (
	// ErrUnsupported表示实现不支持该操作。
	ErrUnsupported = errors.New("operation not supported")

	// ErrUnknownItem表示资产不存在。
	ErrUnknownItem = errors.New("unknown item")

	// ErrItemExists表示资产已经存在。
	ErrItemExists = errors.New("item already exists")

	// ErrNotTransferable表示资产当前不能转移。
	ErrNotTransferable = errors.New("item not transferable")
)

// AccountID标识资产的持有者。
type AccountID [32]byte

// BytesToAccountID把b转换为AccountID，b过长时取后32字节。
func BytesToAccountID(b []byte) AccountID {
	var a AccountID
	if len(b) > len(a) {
		b = b[len(b)-len(a):]
	}
	copy(a[len(a)-len(b):], b)
	return a
}

func (a AccountID) String() string { return hexutil.Encode(a[:]) }

// Inspect提供资产的只读访问。class标识资产类别，instance标识类别中的单个资产。
type Inspect interface {
	// Owner返回资产的持有者，资产不存在时ok为false。
	Owner(class, instance *uint256.Int) (owner AccountID, ok bool)

	// Items返回who在class中持有的所有资产。
	Items(class *uint256.Int, who AccountID) []*uint256.Int

	// Attribute返回资产属性key的值。
	Attribute(class, instance *uint256.Int, key []byte) ([]byte, bool)

	// CanTransfer返回资产当前是否可以转移。
	CanTransfer(class, instance *uint256.Int) bool
}

// Mutate提供资产的创建、销毁和属性修改。
type Mutate interface {
	Inspect

	MintInto(class, instance *uint256.Int, who AccountID) error
	BurnFrom(class, instance *uint256.Int) error
	SetAttribute(class, instance *uint256.Int, key, value []byte) error
}

// Transfer提供资产的转移。
type Transfer interface {
	Inspect

	Transfer(class, instance *uint256.Int, destination AccountID) error
}

// Unsupported提供可选能力的默认实现：没有属性，总是可以转移，所有修改返回ErrUnsupported。
// 实现只需嵌入Unsupported并覆盖自己支持的方法。
type Unsupported struct{}

func (Unsupported) Attribute(class, instance *uint256.Int, key []byte) ([]byte, bool) {
	return nil, false
}

func (Unsupported) CanTransfer(class, instance *uint256.Int) bool { return true }

func (Unsupported) MintInto(class, instance *uint256.Int, who AccountID) error {
	return ErrUnsupported
}

func (Unsupported) BurnFrom(class, instance *uint256.Int) error { return ErrUnsupported }

func (Unsupported) SetAttribute(class, instance *uint256.Int, key, value []byte) error {
	return ErrUnsupported
}

// TypedAttribute以RLP编码key，读取属性并把值解码为V。属性不存在或无法解码时ok为false。
func TypedAttribute[V any](in Inspect, class, instance *uint256.Int, key interface{}) (value V, ok bool) {
	enc, err := rlp.EncodeToBytes(key)
	if err != nil {
		return value, false
	}
	raw, ok := in.Attribute(class, instance, enc)
	if !ok {
		return value, false
	}
	if err := rlp.DecodeBytes(raw, &value); err != nil {
		return value, false
	}
	return value, true
}

// SetTypedAttribute以RLP编码key和value后设置属性。
func SetTypedAttribute(m Mutate, class, instance *uint256.Int, key, value interface{}) error {
	k, err := rlp.EncodeToBytes(key)
	if err != nil {
		return err
	}
	v, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.SetAttribute(class, instance, k, v)
}
