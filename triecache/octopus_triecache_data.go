package triecache

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/radiation-octopus/octopus-triecache/entity"
)

// dataMode是View的值缓存模式，只有disabledData、freshData和rootData三种实现。
type dataMode interface {
	lookup(key []byte) ([]byte, bool)
	record(key, value []byte)
	release()
}

// disabledData在未开启值缓存时使用，所有操作都是空操作。
type disabledData struct{}

func (disabledData) lookup([]byte) ([]byte, bool) { return nil, false }
func (disabledData) record([]byte, []byte)        {}
func (disabledData) release()                     {}

// freshData是尚未绑定根的私有值表，用于写操作。
type freshData struct {
	values map[string][]byte
}

func (d *freshData) lookup(key []byte) ([]byte, bool) {
	value, ok := d.values[string(key)]
	return value, ok
}

func (d *freshData) record(key, value []byte) {
	d.values[string(key)] = common.CopyBytes(value)
}

func (d *freshData) release() {
	d.values = nil
}

// mergeInto用私有表扩展共享层中newRoot的值表，已有记录被覆盖而不是整体替换。
func (d *freshData) mergeInto(shared *SharedCache, newRoot entity.Hash) int {
	if shared.data == nil || len(d.values) == 0 {
		return 0
	}
	table := shared.data.table(newRoot, true)
	table.lock.Lock()
	defer table.lock.Unlock()

	for key, value := range d.values {
		table.values[key] = value
	}
	return len(d.values)
}

// rootData是共享层中某个根的值表，View存续期间持有其锁。
type rootData struct {
	root  entity.Hash
	table *rootTable
}

func (d *rootData) lookup(key []byte) ([]byte, bool) {
	value, ok := d.table.values[string(key)]
	return value, ok
}

func (d *rootData) record(key, value []byte) {
	d.table.values[string(key)] = common.CopyBytes(value)
}

func (d *rootData) release() {
	d.table.lock.Unlock()
}
