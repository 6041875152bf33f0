package nonfungibles

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = BytesToAccountID([]byte{0xa1})
	bob   = BytesToAccountID([]byte{0xb0})
	class = uint256.NewInt(7)
)

// singleItem只支持Inspect的必需方法，其余能力都来自Unsupported。
type singleItem struct {
	Unsupported
	owner AccountID
}

func (s singleItem) Owner(class, instance *uint256.Int) (AccountID, bool) {
	return s.owner, instance.IsZero()
}

func (s singleItem) Items(class *uint256.Int, who AccountID) []*uint256.Int {
	if who == s.owner {
		return []*uint256.Int{new(uint256.Int)}
	}
	return nil
}

func TestUnsupportedDefaults(t *testing.T) {
	var m Mutate = singleItem{owner: alice}
	id := new(uint256.Int)

	owner, ok := m.Owner(class, id)
	assert.True(t, ok)
	assert.Equal(t, alice, owner)

	_, ok = m.Attribute(class, id, []byte("name"))
	assert.False(t, ok)
	assert.True(t, m.CanTransfer(class, id))

	assert.ErrorIs(t, m.MintInto(class, uint256.NewInt(1), bob), ErrUnsupported)
	assert.ErrorIs(t, m.BurnFrom(class, id), ErrUnsupported)
	assert.ErrorIs(t, m.SetAttribute(class, id, []byte("k"), []byte("v")), ErrUnsupported)
	assert.ErrorIs(t, SetTypedAttribute(m, class, id, "name", "x"), ErrUnsupported)

	_, ok = TypedAttribute[string](m, class, id, "name")
	assert.False(t, ok)
}

func TestRegistryLifecycle(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.MintInto(class, uint256.NewInt(2), alice))
	require.NoError(t, reg.MintInto(class, uint256.NewInt(1), alice))
	assert.ErrorIs(t, reg.MintInto(class, uint256.NewInt(1), bob), ErrItemExists)

	items := reg.Items(class, alice)
	require.Len(t, items, 2)
	assert.Equal(t, uint64(1), items[0].Uint64())
	assert.Equal(t, uint64(2), items[1].Uint64())
	assert.Empty(t, reg.Items(uint256.NewInt(8), alice))

	require.NoError(t, reg.Transfer(class, uint256.NewInt(1), bob))
	owner, ok := reg.Owner(class, uint256.NewInt(1))
	assert.True(t, ok)
	assert.Equal(t, bob, owner)

	require.NoError(t, reg.SetTransferable(class, uint256.NewInt(1), false))
	assert.False(t, reg.CanTransfer(class, uint256.NewInt(1)))
	assert.ErrorIs(t, reg.Transfer(class, uint256.NewInt(1), alice), ErrNotTransferable)

	require.NoError(t, reg.BurnFrom(class, uint256.NewInt(1)))
	_, ok = reg.Owner(class, uint256.NewInt(1))
	assert.False(t, ok)
	assert.ErrorIs(t, reg.BurnFrom(class, uint256.NewInt(1)), ErrUnknownItem)
	assert.ErrorIs(t, reg.Transfer(class, uint256.NewInt(1), alice), ErrUnknownItem)
	assert.False(t, reg.CanTransfer(class, uint256.NewInt(1)))
}

func TestTypedAttributes(t *testing.T) {
	reg := NewRegistry()
	id := uint256.NewInt(3)
	require.NoError(t, reg.MintInto(class, id, alice))

	require.NoError(t, SetTypedAttribute(reg, class, id, "level", uint64(42)))
	level, ok := TypedAttribute[uint64](reg, class, id, "level")
	assert.True(t, ok)
	assert.Equal(t, uint64(42), level)

	// 类型不匹配时解码失败
	_, ok = TypedAttribute[[]uint64](reg, class, id, "level")
	assert.False(t, ok)

	_, ok = TypedAttribute[uint64](reg, class, id, "missing")
	assert.False(t, ok)
	assert.ErrorIs(t, SetTypedAttribute(reg, class, uint256.NewInt(99), "level", uint64(1)), ErrUnknownItem)
}

func TestReadOnlyView(t *testing.T) {
	reg := NewRegistry()
	id := uint256.NewInt(5)
	require.NoError(t, reg.MintInto(class, id, alice))
	require.NoError(t, reg.SetAttribute(class, id, []byte("k"), []byte("v")))

	view := reg.ReadOnly()
	owner, ok := view.Owner(class, id)
	assert.True(t, ok)
	assert.Equal(t, alice, owner)
	value, ok := view.Attribute(class, id, []byte("k"))
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), value)
	assert.Len(t, view.Items(class, alice), 1)

	assert.ErrorIs(t, view.MintInto(class, uint256.NewInt(6), bob), ErrUnsupported)
	assert.ErrorIs(t, view.SetAttribute(class, id, []byte("k"), []byte("w")), ErrUnsupported)
	assert.ErrorIs(t, view.BurnFrom(class, id), ErrUnsupported)

	require.NoError(t, reg.SetTransferable(class, id, false))
	assert.False(t, view.CanTransfer(class, id))
}

func TestAccountIDString(t *testing.T) {
	assert.Equal(t, "0x00000000000000000000000000000000000000000000000000000000000000a1", alice.String())
	long := make([]byte, 40)
	long[39] = 0xff
	assert.Equal(t, byte(0xff), BytesToAccountID(long)[31])
}
