package trie

import (
	mapset "github.com/deckarep/golang-set"
	"github.com/ethereum/go-ethereum/metrics"
)

var (
	tracerInsertMeter = metrics.NewRegisteredMeter("trie/tracer/insert", nil)
	tracerDeleteMeter = metrics.NewRegisteredMeter("trie/tracer/delete", nil)
)

// tracer跟踪trie节点的变化。
// trie操作中有些节点会从trie中移除，而hasher和committer都不会捕获这些节点。
// tracer记录所有插入和删除，最终得到所有被移除的节点路径。valueNode永远不会被跟踪。
// tracer不是线程安全的。
type tracer struct {
	insert mapset.Set
	delete mapset.Set
}

func newTracer() *tracer {
	return &tracer{
		insert: mapset.NewThreadUnsafeSet(),
		delete: mapset.NewThreadUnsafeSet(),
	}
}

// onInsert记录新插入的节点路径。先删除后插入的节点视为未变化。
func (t *tracer) onInsert(path []byte) {
	if t == nil {
		return
	}
	key := string(path)
	if t.delete.Contains(key) {
		t.delete.Remove(key)
		return
	}
	t.insert.Add(key)
}

// onDelete记录被删除的节点路径。先插入后删除的节点视为未变化。
func (t *tracer) onDelete(path []byte) {
	if t == nil {
		return
	}
	key := string(path)
	if t.insert.Contains(key) {
		t.insert.Remove(key)
		return
	}
	t.delete.Add(key)
}

// insertList返回插入的节点路径。
func (t *tracer) insertList() [][]byte {
	if t == nil {
		return nil
	}
	return toPaths(t.insert)
}

// deleteList返回删除的节点路径。
func (t *tracer) deleteList() [][]byte {
	if t == nil {
		return nil
	}
	return toPaths(t.delete)
}

func (t *tracer) reset() {
	if t == nil {
		return
	}
	t.insert.Clear()
	t.delete.Clear()
}

// copy返回深度复制的跟踪器。
func (t *tracer) copy() *tracer {
	if t == nil {
		return nil
	}
	return &tracer{
		insert: t.insert.Clone(),
		delete: t.delete.Clone(),
	}
}

func toPaths(set mapset.Set) [][]byte {
	paths := make([][]byte, 0, set.Cardinality())
	for _, elem := range set.ToSlice() {
		paths = append(paths, []byte(elem.(string)))
	}
	return paths
}
