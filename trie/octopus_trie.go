package trie

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/radiation-octopus/octopus-triecache/entity"
)

// emptyRoot是空trie的已知根哈希。
var emptyRoot = entity.HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

// EmptyRoot返回空trie的根哈希。
func EmptyRoot() entity.Hash { return emptyRoot }

// Trie是Merkle Patricia Trie。零值是没有数据库的空trie。
// 使用New创建位于数据库之上的trie。Trie不是并发安全的。
type Trie struct {
	db    *Database
	root  node
	cache Cache // 可选的节点/值缓存

	// 自上次哈希以来插入的叶数，用于决定是否并行哈希
	unhashed int

	// tracer记录自上次提交以来新增和删除的trie节点路径
	tracer *tracer
}

// New使用db中已有的根节点创建trie。
// 如果root是零哈希或空trie的哈希，trie最初为空。
// 否则若db中不存在root，返回MissingNodeError。
func New(root entity.Hash, db *Database) (*Trie, error) {
	return NewWithCache(root, db, nil)
}

// NewWithCache与New相同，但节点解析和值查询都经过cache。cache可以为nil。
func NewWithCache(root entity.Hash, db *Database, cache Cache) (*Trie, error) {
	if db == nil {
		panic("trie.New called without a database")
	}
	trie := &Trie{
		db:     db,
		cache:  cache,
		tracer: newTracer(),
	}
	if root != (entity.Hash{}) && root != emptyRoot {
		rootnode, err := trie.resolveHash(root[:], nil)
		if err != nil {
			return nil, err
		}
		trie.root = rootnode
	}
	return trie, nil
}

// NewEmpty创建一个空trie。
func NewEmpty(db *Database) *Trie {
	tr, _ := New(entity.Hash{}, db)
	return tr
}

// Copy返回Trie的副本，两者共享同一个缓存。
func (t *Trie) Copy() *Trie {
	return &Trie{
		db:       t.db,
		root:     t.root,
		cache:    t.cache,
		unhashed: t.unhashed,
		tracer:   t.tracer.copy(),
	}
}

// Get返回键的值。调用者不得修改返回的字节。
func (t *Trie) Get(key []byte) []byte {
	res, err := t.TryGet(key)
	if err != nil {
		log.Error("Unhandled trie error in Trie.Get", "err", err)
	}
	return res
}

// TryGet返回存储在trie中的键的值。调用者不得修改值字节。
// 如果在数据库中找不到节点，返回MissingNodeError。
// 挂载了缓存时，先查询值缓存，未命中再遍历，并把结果（包括不存在）记录回缓存。
func (t *Trie) TryGet(key []byte) ([]byte, error) {
	if t.cache != nil {
		if value, ok := t.cache.LookupValue(key); ok {
			return value, nil
		}
	}
	value, newroot, didResolve, err := t.tryGet(t.root, keybytesToHex(key), 0)
	if err != nil {
		return nil, err
	}
	if didResolve {
		t.root = newroot
	}
	if t.cache != nil {
		t.cache.CacheValue(key, value)
	}
	return value, nil
}

func (t *Trie) tryGet(origNode node, key []byte, pos int) (value []byte, newnode node, didResolve bool, err error) {
	switch n := (origNode).(type) {
	case nil:
		return nil, nil, false, nil
	case valueNode:
		return n, n, false, nil
	case *shortNode:
		if len(key)-pos < len(n.Key) || !bytes.Equal(n.Key, key[pos:pos+len(n.Key)]) {
			// trie中没有该键
			return nil, n, false, nil
		}
		value, newnode, didResolve, err = t.tryGet(n.Val, key, pos+len(n.Key))
		if err == nil && didResolve {
			n = n.copy()
			n.Val = newnode
		}
		return value, n, didResolve, err
	case *fullNode:
		value, newnode, didResolve, err = t.tryGet(n.Children[key[pos]], key, pos+1)
		if err == nil && didResolve {
			n = n.copy()
			n.Children[key[pos]] = newnode
		}
		return value, n, didResolve, err
	case hashNode:
		child, err := t.resolveHash(n, key[:pos])
		if err != nil {
			return nil, n, true, err
		}
		value, newnode, _, err := t.tryGet(child, key, pos)
		return value, newnode, true, err
	default:
		panic(fmt.Sprintf("%T: invalid node: %v", origNode, origNode))
	}
}

// Update将键与值关联。value长度为零时删除键。
func (t *Trie) Update(key, value []byte) {
	if err := t.TryUpdate(key, value); err != nil {
		log.Error("Unhandled trie error in Trie.Update", "err", err)
	}
}

// TryUpdate将键与trie中的值相关联。对Get的后续调用将返回值。
// 如果值的长度为零，则会从trie中删除任何现有值。
// 值字节存储在trie中时，调用者不得修改它们。如果在数据库中找不到节点，则返回MissingNodeError。
func (t *Trie) TryUpdate(key, value []byte) error {
	t.unhashed++
	k := keybytesToHex(key)
	if len(value) != 0 {
		_, n, err := t.insert(t.root, nil, k, valueNode(value))
		if err != nil {
			return err
		}
		t.root = n
	} else {
		_, n, err := t.delete(t.root, nil, k)
		if err != nil {
			return err
		}
		t.root = n
		value = nil
	}
	if t.cache != nil {
		t.cache.CacheWrite(key, value)
	}
	return nil
}

func (t *Trie) insert(n node, prefix, key []byte, value node) (bool, node, error) {
	if len(key) == 0 {
		if v, ok := n.(valueNode); ok {
			return !bytes.Equal(v, value.(valueNode)), value, nil
		}
		return true, value, nil
	}
	switch n := n.(type) {
	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		// 整个键匹配时保留这个shortNode，只更新值
		if matchlen == len(n.Key) {
			dirty, nn, err := t.insert(n.Val, append(prefix, key[:matchlen]...), key[matchlen:], value)
			if !dirty || err != nil {
				return false, n, err
			}
			return true, &shortNode{n.Key, nn, t.newFlag()}, nil
		}
		// 否则在不同的位置分支
		branch := &fullNode{flags: t.newFlag()}
		var err error
		_, branch.Children[n.Key[matchlen]], err = t.insert(nil, append(prefix, n.Key[:matchlen+1]...), n.Key[matchlen+1:], n.Val)
		if err != nil {
			return false, nil, err
		}
		_, branch.Children[key[matchlen]], err = t.insert(nil, append(prefix, key[:matchlen+1]...), key[matchlen+1:], value)
		if err != nil {
			return false, nil, err
		}
		if matchlen == 0 {
			return true, branch, nil
		}
		// 新分支作为原shortNode的子节点创建
		t.tracer.onInsert(append(prefix, key[:matchlen]...))
		return true, &shortNode{key[:matchlen], branch, t.newFlag()}, nil

	case *fullNode:
		dirty, nn, err := t.insert(n.Children[key[0]], append(prefix, key[0]), key[1:], value)
		if !dirty || err != nil {
			return false, n, err
		}
		n = n.copy()
		n.flags = t.newFlag()
		n.Children[key[0]] = nn
		return true, n, nil

	case nil:
		// valueNode总是嵌入在父节点中，不需要跟踪
		t.tracer.onInsert(prefix)
		return true, &shortNode{key, value, t.newFlag()}, nil

	case hashNode:
		// 遇到尚未加载的部分，加载后再插入
		rn, err := t.resolveHash(n, prefix)
		if err != nil {
			return false, nil, err
		}
		dirty, nn, err := t.insert(rn, prefix, key, value)
		if !dirty || err != nil {
			return false, rn, err
		}
		return true, nn, nil

	default:
		panic(fmt.Sprintf("%T: invalid node: %v", n, n))
	}
}

// Delete删除键。
func (t *Trie) Delete(key []byte) {
	if err := t.TryDelete(key); err != nil {
		log.Error("Unhandled trie error in Trie.Delete", "err", err)
	}
}

// TryDelete从trie中删除键。如果在数据库中找不到节点，则返回MissingNodeError。
func (t *Trie) TryDelete(key []byte) error {
	t.unhashed++
	k := keybytesToHex(key)
	_, n, err := t.delete(t.root, nil, k)
	if err != nil {
		return err
	}
	t.root = n
	if t.cache != nil {
		t.cache.CacheWrite(key, nil)
	}
	return nil
}

// delete返回删除键之后的新根，并把沿途的节点向上化简为最小形式。
func (t *Trie) delete(n node, prefix, key []byte) (bool, node, error) {
	switch n := n.(type) {
	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		if matchlen < len(n.Key) {
			return false, n, nil
		}
		if matchlen == len(key) {
			t.tracer.onDelete(prefix)
			return true, nil, nil
		}
		// 键比n.Key长，从子节点中删除剩余的后缀。子节点不可能为nil。
		dirty, child, err := t.delete(n.Val, append(prefix, key[:len(n.Key)]...), key[len(n.Key):])
		if !dirty || err != nil {
			return false, n, err
		}
		switch child := child.(type) {
		case *shortNode:
			// 子shortNode并入父节点。使用concat而不是append，n.Key可能被其他节点共享。
			t.tracer.onDelete(append(prefix, n.Key...))
			return true, &shortNode{concat(n.Key, child.Key...), child.Val, t.newFlag()}, nil
		default:
			return true, &shortNode{n.Key, child, t.newFlag()}, nil
		}

	case *fullNode:
		dirty, nn, err := t.delete(n.Children[key[0]], append(prefix, key[0]), key[1:])
		if !dirty || err != nil {
			return false, n, err
		}
		n = n.copy()
		n.flags = t.newFlag()
		n.Children[key[0]] = nn

		if nn != nil {
			return true, n, nil
		}
		// 检查还剩几个子节点。只剩一个时把fullNode化简为shortNode。
		// pos为唯一子节点的位置，至少两个时为-2。
		pos := -1
		for i, cld := range &n.Children {
			if cld != nil {
				if pos == -1 {
					pos = i
				} else {
					pos = -2
					break
				}
			}
		}
		if pos >= 0 {
			if pos != 16 {
				// 剩下的子节点若是shortNode，就把丢失的半字节拼到它的键前面替换n
				cnode, err := t.resolve(n.Children[pos], prefix)
				if err != nil {
					return false, nil, err
				}
				if cnode, ok := cnode.(*shortNode); ok {
					t.tracer.onDelete(append(prefix, byte(pos)))
					k := append([]byte{byte(pos)}, cnode.Key...)
					return true, &shortNode{k, cnode.Val, t.newFlag()}, nil
				}
			}
			return true, &shortNode{[]byte{byte(pos)}, n.Children[pos], t.newFlag()}, nil
		}
		return true, n, nil

	case valueNode:
		return true, nil, nil

	case nil:
		return false, nil, nil

	case hashNode:
		rn, err := t.resolveHash(n, prefix)
		if err != nil {
			return false, nil, err
		}
		dirty, nn, err := t.delete(rn, prefix, key)
		if !dirty || err != nil {
			return false, rn, err
		}
		return true, nn, nil

	default:
		panic(fmt.Sprintf("%T: invalid node: %v (%v)", n, n, key))
	}
}

func concat(s1 []byte, s2 ...byte) []byte {
	r := make([]byte, len(s1)+len(s2))
	copy(r, s1)
	copy(r[len(s1):], s2)
	return r
}

func (t *Trie) resolve(n node, prefix []byte) (node, error) {
	if n, ok := n.(hashNode); ok {
		return t.resolveHash(n, prefix)
	}
	return n, nil
}

// resolveHash加载hashNode。挂载了缓存时经由缓存获取，未命中才读取数据库。
func (t *Trie) resolveHash(n hashNode, prefix []byte) (node, error) {
	hash := entity.BytesToHash(n)
	fetch := func() (Node, error) {
		resolved, err := t.db.node(hash)
		if err != nil {
			return nil, &MissingNodeError{NodeHash: hash, Path: common.CopyBytes(prefix), err: err}
		}
		return resolved, nil
	}
	if t.cache != nil {
		return t.cache.GetOrInsertNode(hash, fetch)
	}
	return fetch()
}

func (t *Trie) newFlag() nodeFlag {
	return nodeFlag{dirty: true}
}

// Hash返回trie的根哈希。它不会写入数据库，没有数据库时也可以使用。
func (t *Trie) Hash() entity.Hash {
	hash, cached := t.hashRoot()
	t.root = cached
	return entity.BytesToHash(hash.(hashNode))
}

func (t *Trie) hashRoot() (node, node) {
	if t.root == nil {
		return hashNode(emptyRoot.Bytes()), nil
	}
	// 变更数低于100时单线程哈希
	h := newHasher(t.unhashed >= 100)
	defer returnHasherToPool(h)
	hashed, cached := h.hash(t.root, true)
	t.unhashed = 0
	return hashed, cached
}

// Commit把所有脏节点写入trie的内存数据库，返回新的根哈希和提交的节点数。
// 挂载了缓存时，提交的节点也以解码形式插入缓存。
func (t *Trie) Commit() (entity.Hash, int, error) {
	if t.db == nil {
		panic("commit called on trie with nil database")
	}
	defer t.tracer.reset()

	if t.root == nil {
		return emptyRoot, 0, nil
	}
	// 先计算所有脏节点的哈希，下面假定所有节点都已哈希
	rootHash := t.Hash()

	// 只读过的trie无需提交，用根哈希替换根节点以丢弃已解析的节点
	if hashedNode, dirty := t.root.cache(); !dirty {
		t.root = hashedNode
		return rootHash, 0, nil
	}
	inserted, deleted := t.tracer.insertList(), t.tracer.deleteList()
	tracerInsertMeter.Mark(int64(len(inserted)))
	tracerDeleteMeter.Mark(int64(len(deleted)))
	if len(deleted) > 0 {
		log.Trace("Trie nodes orphaned by commit", "root", rootHash, "inserted", len(inserted), "deleted", len(deleted), "first", hexutil.Encode(deleted[0]))
	}
	c := newCommitter(t.cache)
	defer returnCommitterToPool(c)

	newRoot, committed, err := c.Commit(t.root, t.db)
	if err != nil {
		return entity.Hash{}, 0, err
	}
	t.root = newRoot
	return rootHash, committed, nil
}

// MissingNodeError在trie函数（TryGet、TryUpdate、TryDelete）找不到trie节点时返回。
// 它包含检索丢失节点所需的信息。
type MissingNodeError struct {
	NodeHash entity.Hash // 缺少节点的哈希
	Path     []byte      // 缺少节点的十六进制编码路径
	err      error       // 缺少trie节点的具体错误
}

// Unwrap返回缺少trie节点的具体错误。
func (err *MissingNodeError) Unwrap() error {
	return err.err
}

func (err *MissingNodeError) Error() string {
	return fmt.Sprintf("missing trie node %x (path %x) %v", err.NodeHash, err.Path, err.err)
}
