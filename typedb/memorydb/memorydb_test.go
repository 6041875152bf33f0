package memorydb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDBPutGet(t *testing.T) {
	db := New()

	ok, err := db.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = db.Get([]byte("k"))
	assert.Equal(t, errMemorydbNotFound, err)

	value := []byte("v")
	require.NoError(t, db.Put([]byte("k"), value))
	value[0] = 'x' // 存储的是副本

	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, db.Delete([]byte("k")))
	ok, _ = db.Has([]byte("k"))
	assert.False(t, ok)
}

func TestMemoryDBBatch(t *testing.T) {
	db := New()
	require.NoError(t, db.Put([]byte("gone"), []byte("soon")))

	b := db.NewBatch()
	require.NoError(t, b.Put([]byte("a"), []byte("1")))
	require.NoError(t, b.Put([]byte("b"), []byte("22")))
	require.NoError(t, b.Delete([]byte("gone")))
	assert.Equal(t, 1+1+1+2+4, b.ValueSize())

	// 写入之前没有任何可见内容
	ok, _ := db.Has([]byte("a"))
	assert.False(t, ok)

	require.NoError(t, b.Write())
	assert.Equal(t, 2, db.Len())

	replica := New()
	require.NoError(t, b.Replay(replica))
	got, err := replica.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("22"), got)

	b.Reset()
	assert.Zero(t, b.ValueSize())
}

func TestMemoryDBIterator(t *testing.T) {
	db := New()
	for _, k := range []string{"p-3", "p-1", "q-1", "p-2"} {
		require.NoError(t, db.Put([]byte(k), []byte(k)))
	}
	it := db.NewIterator([]byte("p-"), []byte("2"))
	defer it.Release()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
		assert.Equal(t, it.Key(), it.Value())
	}
	require.NoError(t, it.Error())
	assert.Equal(t, []string{"p-2", "p-3"}, keys)
	assert.False(t, it.Next())
}

func TestMemoryDBClosed(t *testing.T) {
	db := New()
	require.NoError(t, db.Close())

	_, err := db.Get([]byte("k"))
	assert.Equal(t, errMemorydbClosed, err)
	assert.Equal(t, errMemorydbClosed, db.Put([]byte("k"), nil))
}
