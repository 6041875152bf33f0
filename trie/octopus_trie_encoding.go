package trie

// trie的键有三种编码形式：
//   keybytes：原始键字节，API的输入形式。
//   hex：每个半字节占一个字节，值节点的键以终止符0x10结尾。内存中的节点使用此形式。
//   compact：黄皮书中的“十六进制前缀编码”，首字节高半字节存放奇数和终止符标志。磁盘上的节点使用此形式。

const terminatorNibble = 16

// keybytesToHex把键字节展开为半字节序列，并追加终止符。
func keybytesToHex(str []byte) []byte {
	nibbles := make([]byte, len(str)*2+1)
	for i, b := range str {
		nibbles[i*2] = b >> 4
		nibbles[i*2+1] = b & 0x0f
	}
	nibbles[len(nibbles)-1] = terminatorNibble
	return nibbles
}

// hexToKeybytes把半字节序列收拢为键字节。只能用于偶数长度的键。
func hexToKeybytes(hex []byte) []byte {
	if hasTerm(hex) {
		hex = hex[:len(hex)-1]
	}
	if len(hex)&1 != 0 {
		panic("can't convert hex key of odd length")
	}
	key := make([]byte, len(hex)/2)
	decodeNibbles(hex, key)
	return key
}

func hexToCompact(hex []byte) []byte {
	var flags byte
	if hasTerm(hex) {
		flags = 1 << 5
		hex = hex[:len(hex)-1]
	}
	buf := make([]byte, len(hex)/2+1)
	if len(hex)&1 == 1 {
		flags |= 1<<4 | hex[0] // 奇数：第一个半字节放入标志字节
		hex = hex[1:]
	}
	buf[0] = flags
	decodeNibbles(hex, buf[1:])
	return buf
}

func compactToHex(compact []byte) []byte {
	if len(compact) == 0 {
		return compact
	}
	base := keybytesToHex(compact)
	// 没有终止符标志时去掉keybytesToHex追加的终止符
	if base[0] < 2 {
		base = base[:len(base)-1]
	}
	// 偶数长度跳过两个标志半字节，奇数长度只跳过一个
	chop := 2 - base[0]&1
	return base[chop:]
}

func decodeNibbles(nibbles []byte, bytes []byte) {
	for bi, ni := 0, 0; ni < len(nibbles); bi, ni = bi+1, ni+2 {
		bytes[bi] = nibbles[ni]<<4 | nibbles[ni+1]
	}
}

// prefixLen返回a和b公共前缀的长度。
func prefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// hasTerm判断十六进制键是否带终止符。
func hasTerm(s []byte) bool {
	return len(s) > 0 && s[len(s)-1] == terminatorNibble
}
