package trie

import (
	"errors"
	"fmt"
	"sync"

	"github.com/radiation-octopus/octopus-triecache/entity"
)

// committer把脏节点折叠为哈希节点并写入Database。
// 挂载了缓存时，每个提交的节点以解码形式插入缓存，提交路径上的叶值也一并记录。
type committer struct {
	cache Cache
}

var committerPool = sync.Pool{
	New: func() interface{} {
		return &committer{}
	},
}

func newCommitter(cache Cache) *committer {
	c := committerPool.Get().(*committer)
	c.cache = cache
	return c
}

func returnCommitterToPool(c *committer) {
	c.cache = nil
	committerPool.Put(c)
}

// Commit将节点向下折叠为哈希节点并将其插入数据库
func (c *committer) Commit(n node, db *Database) (hashNode, int, error) {
	if db == nil {
		return nil, 0, errors.New("no db provided")
	}
	h, committed, err := c.commit(nil, n, db)
	if err != nil {
		return nil, 0, err
	}
	return h.(hashNode), committed, nil
}

// commit先提交子节点，再提交父节点，path为节点的十六进制路径。
func (c *committer) commit(path []byte, n node, db *Database) (node, int, error) {
	// 干净的路径直接使用缓存的哈希
	hash, dirty := n.cache()
	if hash != nil && !dirty {
		return hash, 0, nil
	}
	switch cn := n.(type) {
	case *shortNode:
		collapsed := cn.copy()

		// 子节点只可能是fullNode、hashNode或valueNode
		var childCommitted int
		switch child := cn.Val.(type) {
		case *fullNode:
			childV, committed, err := c.commit(append(path, cn.Key...), child, db)
			if err != nil {
				return nil, 0, err
			}
			collapsed.Val, childCommitted = childV, committed
		case valueNode:
			c.recordValue(append(path, cn.Key...), child)
		}
		collapsed.Key = hexToCompact(cn.Key)
		hashedNode := c.store(collapsed, db)
		if hn, ok := hashedNode.(hashNode); ok {
			return hn, childCommitted + 1, nil
		}
		return collapsed, childCommitted, nil
	case *fullNode:
		hashedKids, childCommitted, err := c.commitChildren(path, cn, db)
		if err != nil {
			return nil, 0, err
		}
		collapsed := cn.copy()
		collapsed.Children = hashedKids

		hashedNode := c.store(collapsed, db)
		if hn, ok := hashedNode.(hashNode); ok {
			return hn, childCommitted + 1, nil
		}
		return collapsed, childCommitted, nil
	case hashNode:
		return cn, 0, nil
	default:
		// nil和valueNode不会被单独提交
		panic(fmt.Sprintf("%T: invalid node: %v", n, n))
	}
}

// commitChildren提交fullNode的子节点
func (c *committer) commitChildren(path []byte, n *fullNode, db *Database) ([17]node, int, error) {
	var (
		committed int
		children  [17]node
	)
	for i := 0; i < 16; i++ {
		child := n.Children[i]
		if child == nil {
			continue
		}
		// [0,15]范围内的子节点不可能是valueNode
		if hn, ok := child.(hashNode); ok {
			children[i] = hn
			continue
		}
		// 返回的节点可能是嵌入节点，类型不一定是hashNode
		hashed, childCommitted, err := c.commit(append(path, byte(i)), child, db)
		if err != nil {
			return children, 0, err
		}
		children[i] = hashed
		committed += childCommitted
	}
	if v, ok := n.Children[16].(valueNode); ok {
		children[16] = v
		c.recordValue(path, v)
	}
	return children, committed, nil
}

// store把带哈希的节点写入数据库和缓存，嵌入节点原样返回。
func (c *committer) store(n node, db *Database) node {
	hash, _ := n.cache()
	if hash == nil {
		// 小于32字节的节点嵌入在父节点中
		return n
	}
	var (
		key  = entity.BytesToHash(hash)
		blob = nodeToBytes(n)
	)
	db.insert(key, blob, n)
	if c.cache != nil {
		c.cache.InsertNode(key, mustDecodeNode(hash, blob))
	}
	return hash
}

// recordValue把提交路径上的叶值记录到缓存。
func (c *committer) recordValue(path []byte, value valueNode) {
	if c.cache == nil {
		return
	}
	nibbles := len(path)
	if hasTerm(path) {
		nibbles--
	}
	if nibbles&1 != 0 {
		return
	}
	c.cache.CacheWrite(hexToKeybytes(path), value)
}
