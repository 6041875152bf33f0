package trie

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/radiation-octopus/octopus-triecache/entity"
)

// SecureTrie包装一个trie，所有键在访问前先做Keccak256哈希，使键的分布均匀。
// 键的前映像在提交时记录到数据库，可以通过GetKey找回。
// SecureTrie不是并发安全的。
type SecureTrie struct {
	trie             Trie
	hashKeyBuf       [entity.HashLength]byte
	secKeyCache      map[string][]byte
	secKeyCacheOwner *SecureTrie // 指向自身，不匹配时替换键缓存
}

// NewSecure在db之上创建安全trie，root的含义与New相同。cache可以为nil。
func NewSecure(root entity.Hash, db *Database, cache Cache) (*SecureTrie, error) {
	if db == nil {
		panic("trie.NewSecure called without a database")
	}
	trie, err := NewWithCache(root, db, cache)
	if err != nil {
		return nil, err
	}
	return &SecureTrie{trie: *trie}, nil
}

// Get返回键的值。调用者不得修改返回的字节。
func (t *SecureTrie) Get(key []byte) []byte {
	res, err := t.TryGet(key)
	if err != nil {
		log.Error("Unhandled trie error in SecureTrie.Get", "err", err)
	}
	return res
}

// TryGet返回键的值。如果在数据库中找不到节点，则返回MissingNodeError。
func (t *SecureTrie) TryGet(key []byte) ([]byte, error) {
	return t.trie.TryGet(t.hashKey(key))
}

// Update将键与值关联，value长度为零时删除键。
func (t *SecureTrie) Update(key, value []byte) {
	if err := t.TryUpdate(key, value); err != nil {
		log.Error("Unhandled trie error in SecureTrie.Update", "err", err)
	}
}

// TryUpdate将键与值关联，value长度为零时删除键。
func (t *SecureTrie) TryUpdate(key, value []byte) error {
	hk := t.hashKey(key)
	if err := t.trie.TryUpdate(hk, value); err != nil {
		return err
	}
	t.getSecKeyCache()[string(hk)] = common.CopyBytes(key)
	return nil
}

// Delete删除键。
func (t *SecureTrie) Delete(key []byte) {
	if err := t.TryDelete(key); err != nil {
		log.Error("Unhandled trie error in SecureTrie.Delete", "err", err)
	}
}

// TryDelete删除键。如果在数据库中找不到节点，则返回MissingNodeError。
func (t *SecureTrie) TryDelete(key []byte) error {
	hk := t.hashKey(key)
	delete(t.getSecKeyCache(), string(hk))
	return t.trie.TryDelete(hk)
}

// GetKey返回哈希键的前映像，找不到时返回nil。
func (t *SecureTrie) GetKey(shaKey []byte) []byte {
	if key, ok := t.getSecKeyCache()[string(shaKey)]; ok {
		return key
	}
	key, err := t.trie.db.Preimage(entity.BytesToHash(shaKey))
	if err != nil {
		return nil
	}
	return key
}

// Commit把所有节点和键的前映像写入trie的数据库。
func (t *SecureTrie) Commit() (entity.Hash, int, error) {
	if len(t.getSecKeyCache()) > 0 {
		if t.trie.db.preimages != nil {
			t.trie.db.lock.Lock()
			for hk, key := range t.secKeyCache {
				t.trie.db.insertPreimage(entity.BytesToHash([]byte(hk)), key)
			}
			t.trie.db.lock.Unlock()
		}
		t.secKeyCache = make(map[string][]byte)
	}
	return t.trie.Commit()
}

// Hash返回根哈希，不写入数据库。
func (t *SecureTrie) Hash() entity.Hash {
	return t.trie.Hash()
}

// Copy返回SecureTrie的副本。
func (t *SecureTrie) Copy() *SecureTrie {
	return &SecureTrie{
		trie:        *t.trie.Copy(),
		secKeyCache: t.secKeyCache,
	}
}

// hashKey以临时缓冲区返回键的哈希。下次调用hashKey后返回值失效。
func (t *SecureTrie) hashKey(key []byte) []byte {
	h := newHasher(false)
	h.sha.Reset()
	h.sha.Write(key)
	h.sha.Read(t.hashKeyBuf[:])
	returnHasherToPool(h)
	return t.hashKeyBuf[:]
}

// getSecKeyCache返回当前的键缓存。当前安全trie是别人的副本时，创建新的缓存。
func (t *SecureTrie) getSecKeyCache() map[string][]byte {
	if t != t.secKeyCacheOwner {
		t.secKeyCacheOwner = t
		t.secKeyCache = make(map[string][]byte)
	}
	return t.secKeyCache
}
