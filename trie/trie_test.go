package trie

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/radiation-octopus/octopus-triecache/crypto"
	"github.com/radiation-octopus/octopus-triecache/entity"
	"github.com/radiation-octopus/octopus-triecache/typedb/memorydb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyTrie(t *testing.T) {
	trie := NewEmpty(NewDatabase(memorydb.New()))
	assert.Equal(t, emptyRoot, trie.Hash())
	assert.Equal(t, crypto.Keccak256Hash([]byte{0x80}), trie.Hash())
}

func TestNull(t *testing.T) {
	trie := NewEmpty(NewDatabase(memorydb.New()))
	key := make([]byte, 32)
	value := []byte("test")
	trie.Update(key, value)
	assert.Equal(t, value, trie.Get(key))
}

func TestMissingRoot(t *testing.T) {
	root := entity.HexToHash("0beec7b5ea3f0fdbc95d0dd47f3c5bc275da8a33")
	trie, err := New(root, NewDatabase(memorydb.New()))
	assert.Nil(t, trie)

	var missing *MissingNodeError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, root, missing.NodeHash)
	assert.ErrorIs(t, err, errNodeNotFound)
}

func TestMissingNodeDisk(t *testing.T)    { testMissingNode(t, false) }
func TestMissingNodeMemonly(t *testing.T) { testMissingNode(t, true) }

func testMissingNode(t *testing.T, memonly bool) {
	diskdb := memorydb.New()
	triedb := NewDatabase(diskdb)

	trie := NewEmpty(triedb)
	updateString(trie, "120000", "qwerqwerqwerqwerqwerqwerqwerqwer")
	updateString(trie, "123456", "asdfasdfasdfasdfasdfasdfasdfasdf")
	root, _, err := trie.Commit()
	require.NoError(t, err)
	if !memonly {
		require.NoError(t, triedb.Commit(root, true))
	}

	trie, _ = New(root, triedb)
	_, err = trie.TryGet([]byte("120000"))
	assert.NoError(t, err)
	trie, _ = New(root, triedb)
	_, err = trie.TryGet([]byte("120099"))
	assert.NoError(t, err)
	trie, _ = New(root, triedb)
	_, err = trie.TryGet([]byte("123456"))
	assert.NoError(t, err)
	trie, _ = New(root, triedb)
	assert.NoError(t, trie.TryUpdate([]byte("120099"), []byte("zxcvzxcvzxcvzxcvzxcvzxcvzxcvzxcv")))
	trie, _ = New(root, triedb)
	assert.NoError(t, trie.TryDelete([]byte("123456")))

	hash := entity.HexToHash("0xe1d943cc8f061a0c0b98162830b970395ac9315654824bf21b73b891365262f9")
	if memonly {
		delete(triedb.dirties, hash)
	} else {
		diskdb.Delete(hash[:])
	}

	var missing *MissingNodeError
	trie, _ = New(root, triedb)
	_, err = trie.TryGet([]byte("120000"))
	assert.ErrorAs(t, err, &missing)
	trie, _ = New(root, triedb)
	_, err = trie.TryGet([]byte("120099"))
	assert.ErrorAs(t, err, &missing)
	trie, _ = New(root, triedb)
	_, err = trie.TryGet([]byte("123456"))
	assert.NoError(t, err)
	trie, _ = New(root, triedb)
	err = trie.TryUpdate([]byte("120099"), []byte("zxcv"))
	assert.ErrorAs(t, err, &missing)
	trie, _ = New(root, triedb)
	err = trie.TryDelete([]byte("123456"))
	assert.ErrorAs(t, err, &missing)
}

func TestInsert(t *testing.T) {
	trie := NewEmpty(NewDatabase(memorydb.New()))

	updateString(trie, "doe", "reindeer")
	updateString(trie, "dog", "puppy")
	updateString(trie, "dogglesworth", "cat")

	exp := entity.HexToHash("8aad789dff2f538bca5d8ea56e8abe10f4c7ba3a5dea95fea4cd6e7c3a1168d3")
	assert.Equal(t, exp, trie.Hash())

	trie = NewEmpty(NewDatabase(memorydb.New()))
	updateString(trie, "A", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	exp = entity.HexToHash("d23786fb4a010da3ce639d66d5e904a11dbc02746d1ce25029e53290cabf28ab")
	root, _, err := trie.Commit()
	require.NoError(t, err)
	assert.Equal(t, exp, root)
}

func TestGet(t *testing.T) {
	trie := NewEmpty(NewDatabase(memorydb.New()))
	updateString(trie, "doe", "reindeer")
	updateString(trie, "dog", "puppy")
	updateString(trie, "dogglesworth", "cat")

	for i := 0; i < 2; i++ {
		assert.Equal(t, []byte("puppy"), getString(trie, "dog"))
		assert.Nil(t, getString(trie, "unknown"))
		if i == 1 {
			return
		}
		trie.Commit()
	}
}

func TestDelete(t *testing.T) {
	trie := NewEmpty(NewDatabase(memorydb.New()))
	vals := []struct{ k, v string }{
		{"do", "verb"},
		{"ether", "wookiedoo"},
		{"horse", "stallion"},
		{"shaman", "horse"},
		{"doge", "coin"},
		{"ether", ""},
		{"dog", "puppy"},
		{"shaman", ""},
	}
	for _, val := range vals {
		if val.v != "" {
			updateString(trie, val.k, val.v)
		} else {
			deleteString(trie, val.k)
		}
	}
	exp := entity.HexToHash("5991bb8c6514148a29db676a14ac506cd2cd5775ace63c30a4fe457715e9ac84")
	assert.Equal(t, exp, trie.Hash())
}

func TestEmptyValues(t *testing.T) {
	trie := NewEmpty(NewDatabase(memorydb.New()))
	vals := []struct{ k, v string }{
		{"do", "verb"},
		{"ether", "wookiedoo"},
		{"horse", "stallion"},
		{"shaman", "horse"},
		{"doge", "coin"},
		{"ether", ""},
		{"dog", "puppy"},
		{"shaman", ""},
	}
	for _, val := range vals {
		updateString(trie, val.k, val.v)
	}
	exp := entity.HexToHash("5991bb8c6514148a29db676a14ac506cd2cd5775ace63c30a4fe457715e9ac84")
	assert.Equal(t, exp, trie.Hash())
}

func TestReplication(t *testing.T) {
	triedb := NewDatabase(memorydb.New())
	trie := NewEmpty(triedb)
	vals := []struct{ k, v string }{
		{"do", "verb"},
		{"ether", "wookiedoo"},
		{"horse", "stallion"},
		{"shaman", "horse"},
		{"doge", "coin"},
		{"dog", "puppy"},
		{"somethingveryoddindeedthis is", "myothernodedata"},
	}
	for _, val := range vals {
		updateString(trie, val.k, val.v)
	}
	exp, _, err := trie.Commit()
	require.NoError(t, err)

	// 从数据库重新打开，所有值都可以读到
	trie2, err := New(exp, triedb)
	require.NoError(t, err)
	for _, kv := range vals {
		assert.Equal(t, kv.v, string(getString(trie2, kv.k)), "key %q", kv.k)
	}
	hash, _, err := trie2.Commit()
	require.NoError(t, err)
	assert.Equal(t, exp, hash)

	// 对副本执行相同的删除
	vals2 := []struct{ k, v string }{
		{"do", "verb"},
		{"ether", "wookiedoo"},
		{"horse", "stallion"},
		{"shaman", "horse"},
		{"doge", "coin"},
		{"ether", ""},
		{"dog", "puppy"},
		{"shaman", ""},
	}
	for _, val := range vals2 {
		updateString(trie2, val.k, val.v)
	}
	assert.NotEqual(t, exp, trie2.Hash())
}

func TestCopyIsIndependent(t *testing.T) {
	trie := NewEmpty(NewDatabase(memorydb.New()))
	updateString(trie, "doe", "reindeer")
	cpy := trie.Copy()
	updateString(cpy, "dog", "puppy")

	assert.Nil(t, getString(trie, "dog"))
	assert.Equal(t, []byte("puppy"), getString(cpy, "dog"))
	assert.NotEqual(t, trie.Hash(), cpy.Hash())
}

func TestCommitPersistsToDisk(t *testing.T) {
	diskdb := memorydb.New()
	triedb := NewDatabase(diskdb)
	trie := NewEmpty(triedb)
	for i := byte(0); i < 64; i++ {
		trie.Update([]byte{i, i + 1, i + 2}, []byte("a value long enough to be hashed on its own....."))
	}
	root, committed, err := trie.Commit()
	require.NoError(t, err)
	assert.Greater(t, committed, 0)

	dirty, _ := triedb.Size()
	assert.Greater(t, float64(dirty), 0.0)
	assert.Equal(t, 0, diskdb.Len())

	require.NoError(t, triedb.Commit(root, false))
	dirty, _ = triedb.Size()
	assert.Equal(t, 0.0, float64(dirty))
	assert.Equal(t, committed, diskdb.Len())

	trie, err = New(root, triedb)
	require.NoError(t, err)
	for i := byte(0); i < 64; i++ {
		assert.NotNil(t, trie.Get([]byte{i, i + 1, i + 2}))
	}
}

func TestCleanCacheJournal(t *testing.T) {
	diskdb := memorydb.New()
	journal := filepath.Join(t.TempDir(), "triecache")
	triedb := NewDatabaseWithConfig(diskdb, &Config{Cache: 1, Journal: journal})

	trie := NewEmpty(triedb)
	updateString(trie, "doe", "reindeer........................")
	updateString(trie, "dog", "puppy...........................")
	root, _, err := trie.Commit()
	require.NoError(t, err)
	require.NoError(t, triedb.Commit(root, false))
	assert.NotZero(t, triedb.CleanStats().EntriesCount)

	require.NoError(t, triedb.SaveCache(journal))

	// 重新加载日志，干净缓存命中时不需要访问磁盘
	reloaded := NewDatabaseWithConfig(memorydb.New(), &Config{Cache: 1, Journal: journal})
	enc, err := reloaded.Node(root)
	require.NoError(t, err)
	want, err := triedb.Node(root)
	require.NoError(t, err)
	assert.Equal(t, want, enc)
}

func TestSecureTrieGetKey(t *testing.T) {
	triedb := NewDatabase(memorydb.New())
	trie, err := NewSecure(entity.Hash{}, triedb, nil)
	require.NoError(t, err)

	key := []byte("foo")
	value := []byte("bar")
	trie.Update(key, value)

	assert.Equal(t, value, trie.Get(key))
	hashed := crypto.Keccak256(key)
	assert.Equal(t, key, trie.GetKey(hashed))

	root, _, err := trie.Commit()
	require.NoError(t, err)
	require.NoError(t, triedb.Commit(root, false))

	// 提交后前映像来自数据库
	reopened, err := NewSecure(root, triedb, nil)
	require.NoError(t, err)
	assert.Equal(t, key, reopened.GetKey(hashed))
	assert.Equal(t, value, reopened.Get(key))

	reopened.Delete(key)
	assert.Equal(t, emptyRoot, reopened.Hash())
}

func TestDecodeNodeErrors(t *testing.T) {
	_, err := DecodeNode(entity.Hash{}, nil)
	assert.Error(t, err)

	// 三个元素的列表既不是shortNode也不是fullNode
	_, err = DecodeNode(entity.Hash{}, []byte{0xc3, 0x01, 0x02, 0x03})
	assert.Error(t, err)

	// 子节点引用长度错误
	_, err = DecodeNode(entity.Hash{}, []byte{0xc4, 0x81, 0x01, 0x82, 0x01, 0x02})
	assert.Error(t, err)

	// fullNode的第一个子节点是长度为2的字符串
	buf := append([]byte{0xd3, 0x82, 0xaa, 0xbb}, bytes.Repeat([]byte{0x80}, 16)...)
	_, err = DecodeNode(entity.Hash{}, buf)
	var decErr *decodeError
	require.True(t, errors.As(err, &decErr))
	assert.Contains(t, err.Error(), "decode path: [0]<-full")
}

func getString(trie *Trie, k string) []byte {
	return trie.Get([]byte(k))
}

func updateString(trie *Trie, k, v string) {
	trie.Update([]byte(k), []byte(v))
}

func deleteString(trie *Trie, k string) {
	trie.Delete([]byte(k))
}
