package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytesToHash(t *testing.T) {
	tests := []struct {
		in   []byte
		want Hash
	}{
		{nil, Hash{}},
		{[]byte{0x01}, Hash{31: 0x01}},
		{append(make([]byte, 40), 0xff), Hash{31: 0xff}},
	}
	for i, tt := range tests {
		assert.Equal(t, tt.want, BytesToHash(tt.in), "test %d", i)
	}
}

func TestHexToHash(t *testing.T) {
	h := HexToHash("0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")
	assert.Equal(t, "0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421", h.Hex())
	assert.Equal(t, h, HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421"))

	var parsed Hash
	assert.NoError(t, parsed.UnmarshalText([]byte(h.Hex())))
	assert.Equal(t, h, parsed)
}
