package trie

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHexCompact(t *testing.T) {
	tests := []struct{ hex, compact []byte }{
		// 空键，带终止符和不带终止符
		{hex: []byte{}, compact: []byte{0x00}},
		{hex: []byte{16}, compact: []byte{0x20}},
		// 奇数长度，无终止符
		{hex: []byte{1, 2, 3, 4, 5}, compact: []byte{0x11, 0x23, 0x45}},
		// 偶数长度，无终止符
		{hex: []byte{0, 1, 2, 3, 4, 5}, compact: []byte{0x00, 0x01, 0x23, 0x45}},
		// 奇数长度，带终止符
		{hex: []byte{15, 1, 12, 11, 8, 16}, compact: []byte{0x3f, 0x1c, 0xb8}},
		// 偶数长度，带终止符
		{hex: []byte{0, 15, 1, 12, 11, 8, 16}, compact: []byte{0x20, 0x0f, 0x1c, 0xb8}},
	}
	for _, test := range tests {
		assert.Equal(t, test.compact, hexToCompact(test.hex), "hexToCompact(%x)", test.hex)
		assert.Equal(t, test.hex, compactToHex(test.compact), "compactToHex(%x)", test.compact)
	}
}

func TestHexKeybytes(t *testing.T) {
	tests := []struct{ key, hexIn, hexOut []byte }{
		{key: []byte{}, hexIn: []byte{16}, hexOut: []byte{16}},
		{key: []byte{}, hexIn: []byte{}, hexOut: []byte{16}},
		{
			key:    []byte{0x12, 0x34, 0x56},
			hexIn:  []byte{1, 2, 3, 4, 5, 6, 16},
			hexOut: []byte{1, 2, 3, 4, 5, 6, 16},
		},
		{
			key:    []byte{0x12, 0x34, 0x5},
			hexIn:  []byte{1, 2, 3, 4, 0, 5, 16},
			hexOut: []byte{1, 2, 3, 4, 0, 5, 16},
		},
	}
	for _, test := range tests {
		if h := keybytesToHex(test.key); !bytes.Equal(h, test.hexOut) {
			t.Errorf("keybytesToHex(%x) -> %x, want %x", test.key, h, test.hexOut)
		}
		if k := hexToKeybytes(test.hexIn); !bytes.Equal(k, test.key) {
			t.Errorf("hexToKeybytes(%x) -> %x, want %x", test.hexIn, k, test.key)
		}
	}
}

func TestPrefixLen(t *testing.T) {
	assert.Equal(t, 0, prefixLen(nil, []byte{1}))
	assert.Equal(t, 2, prefixLen([]byte{1, 2, 3}, []byte{1, 2, 4}))
	assert.Equal(t, 2, prefixLen([]byte{1, 2}, []byte{1, 2, 4}))
}
