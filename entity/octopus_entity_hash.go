package entity

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// 定义hash长度byte
const HashLength = 32

// 定义hash字节类型。trie节点和trie根都以其内容的Keccak256哈希标识。
type Hash [HashLength]byte

// BytesToHash将b设置为哈希。如果b大于len（h），b将从左侧裁剪。
func BytesToHash(b []byte) Hash {
	var hash Hash
	hash.SetBytes(b)
	return hash
}

// HexToHash将s的字节表示形式设置为哈希。如果b大于len（h），b将从左侧裁剪。
func HexToHash(s string) Hash { return BytesToHash(FromHex(s)) }

// Bytes获取基础哈希的字节表示形式。
func (h Hash) Bytes() []byte { return h[:] }

// 十六进制将哈希转换为十六进制字符串。
func (h Hash) Hex() string { return hexutil.Encode(h[:]) }

// TerminalString实现log.TerminalStringer，在日志记录期间格式化控制台输出的字符串。
func (h Hash) TerminalString() string {
	return fmt.Sprintf("%x..%x", h[:3], h[29:])
}

// String实现了stringer接口，在完全登录到文件时，记录器也会使用它。
func (h Hash) String() string {
	return h.Hex()
}

// UnmarshalText以十六进制语法解析哈希。
func (h *Hash) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("Hash", input, h[:])
}

// MarshalText返回h的十六进制表示形式。
func (h Hash) MarshalText() ([]byte, error) {
	return hexutil.Bytes(h[:]).MarshalText()
}

// SetBytes将哈希值设置为b。如果b大于len（h），则b将从左侧裁剪。
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// FromHex返回由十六进制字符串s表示的字节。s可以以“0x”作为前缀。
func FromHex(s string) []byte {
	if has0xPrefix(s) {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, _ := hexutil.Decode("0x" + s)
	return b
}

func has0xPrefix(str string) bool {
	return len(str) >= 2 && str[0] == '0' && (str[1] == 'x' || str[1] == 'X')
}
