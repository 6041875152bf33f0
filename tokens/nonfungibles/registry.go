package nonfungibles

import (
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

type itemKey struct {
	class    uint256.Int
	instance uint256.Int
}

func newItemKey(class, instance *uint256.Int) itemKey {
	return itemKey{class: *class, instance: *instance}
}

type item struct {
	owner  AccountID
	attrs  map[string][]byte
	locked bool
}

// Registry是线程安全的内存资产登记表，实现Mutate和Transfer。
type Registry struct {
	lock  sync.RWMutex
	items map[itemKey]*item
}

var (
	_ Mutate   = (*Registry)(nil)
	_ Transfer = (*Registry)(nil)
)

func NewRegistry() *Registry {
	return &Registry{items: make(map[itemKey]*item)}
}

func (r *Registry) Owner(class, instance *uint256.Int) (AccountID, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	it, ok := r.items[newItemKey(class, instance)]
	if !ok {
		return AccountID{}, false
	}
	return it.owner, true
}

// Items按instance升序返回who在class中持有的资产。
func (r *Registry) Items(class *uint256.Int, who AccountID) []*uint256.Int {
	r.lock.RLock()
	defer r.lock.RUnlock()

	var ids []*uint256.Int
	for key, it := range r.items {
		if key.class.Eq(class) && it.owner == who {
			ids = append(ids, new(uint256.Int).Set(&key.instance))
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Lt(ids[j]) })
	return ids
}

func (r *Registry) Attribute(class, instance *uint256.Int, key []byte) ([]byte, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	it, ok := r.items[newItemKey(class, instance)]
	if !ok {
		return nil, false
	}
	value, ok := it.attrs[string(key)]
	return value, ok
}

func (r *Registry) CanTransfer(class, instance *uint256.Int) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()

	it, ok := r.items[newItemKey(class, instance)]
	return ok && !it.locked
}

func (r *Registry) MintInto(class, instance *uint256.Int, who AccountID) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	key := newItemKey(class, instance)
	if _, ok := r.items[key]; ok {
		return ErrItemExists
	}
	r.items[key] = &item{owner: who, attrs: make(map[string][]byte)}
	log.Trace("Minted item", "class", class, "instance", instance, "owner", who)
	return nil
}

func (r *Registry) BurnFrom(class, instance *uint256.Int) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	key := newItemKey(class, instance)
	if _, ok := r.items[key]; !ok {
		return ErrUnknownItem
	}
	delete(r.items, key)
	log.Trace("Burned item", "class", class, "instance", instance)
	return nil
}

func (r *Registry) SetAttribute(class, instance *uint256.Int, key, value []byte) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	it, ok := r.items[newItemKey(class, instance)]
	if !ok {
		return ErrUnknownItem
	}
	it.attrs[string(key)] = append([]byte{}, value...)
	return nil
}

func (r *Registry) Transfer(class, instance *uint256.Int, destination AccountID) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	it, ok := r.items[newItemKey(class, instance)]
	if !ok {
		return ErrUnknownItem
	}
	if it.locked {
		return ErrNotTransferable
	}
	log.Trace("Transferred item", "class", class, "instance", instance, "from", it.owner, "to", destination)
	it.owner = destination
	return nil
}

// SetTransferable锁定或解锁资产的转移。
func (r *Registry) SetTransferable(class, instance *uint256.Int, transferable bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	it, ok := r.items[newItemKey(class, instance)]
	if !ok {
		return ErrUnknownItem
	}
	it.locked = !transferable
	return nil
}

// ReadOnly返回登记表的只读视图，所有修改返回ErrUnsupported。
func (r *Registry) ReadOnly() Mutate {
	return readOnly{reg: r}
}

type readOnly struct {
	Unsupported
	reg *Registry
}

func (v readOnly) Owner(class, instance *uint256.Int) (AccountID, bool) {
	return v.reg.Owner(class, instance)
}

func (v readOnly) Items(class *uint256.Int, who AccountID) []*uint256.Int {
	return v.reg.Items(class, who)
}

func (v readOnly) Attribute(class, instance *uint256.Int, key []byte) ([]byte, bool) {
	return v.reg.Attribute(class, instance, key)
}

func (v readOnly) CanTransfer(class, instance *uint256.Int) bool {
	return v.reg.CanTransfer(class, instance)
}
