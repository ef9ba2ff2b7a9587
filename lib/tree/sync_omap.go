package tree

import (
	"iter"
	"sync"

	"github.com/benz9527/xomap/lib/infra"
)

var (
	_ OrderedMap[uint8, struct{}]    = (*omapDelegator[uint8, struct{}])(nil)
	_ omapUnwrapper[uint8, struct{}] = (*omapDelegator[uint8, struct{}])(nil)
)

// omapDelegator serializes one call at a time on the wrapped map.
// Readers share the read lock, writers hold the write lock.
// The iterators yield a snapshot taken under the read lock, so the
// action is free to mutate the map.
type omapDelegator[K infra.OrderedKey, V any] struct {
	rwmu *sync.RWMutex
	impl OrderedMap[K, V]
}

func NewSyncOrderedMap[K infra.OrderedKey, V any](impl OrderedMap[K, V]) OrderedMap[K, V] {
	if d, ok := impl.(*omapDelegator[K, V]); ok {
		return d
	}
	return &omapDelegator[K, V]{
		rwmu: &sync.RWMutex{},
		impl: impl,
	}
}

func (m *omapDelegator[K, V]) Policy() RebalancePolicy { return m.impl.Policy() }

func (m *omapDelegator[K, V]) Len() int64 {
	m.rwmu.RLock()
	defer m.rwmu.RUnlock()
	return m.impl.Len()
}

func (m *omapDelegator[K, V]) IsEmpty() bool {
	m.rwmu.RLock()
	defer m.rwmu.RUnlock()
	return m.impl.IsEmpty()
}

func (m *omapDelegator[K, V]) Put(key K, val V) {
	m.rwmu.Lock()
	defer m.rwmu.Unlock()
	m.impl.Put(key, val)
}

func (m *omapDelegator[K, V]) Get(key K) (V, error) {
	m.rwmu.RLock()
	defer m.rwmu.RUnlock()
	return m.impl.Get(key)
}

func (m *omapDelegator[K, V]) Contains(key K) bool {
	m.rwmu.RLock()
	defer m.rwmu.RUnlock()
	return m.impl.Contains(key)
}

func (m *omapDelegator[K, V]) Delete(key K) (Element[K, V], error) {
	m.rwmu.Lock()
	defer m.rwmu.Unlock()
	return m.impl.Delete(key)
}

func (m *omapDelegator[K, V]) DeleteMin() (Element[K, V], error) {
	m.rwmu.Lock()
	defer m.rwmu.Unlock()
	return m.impl.DeleteMin()
}

func (m *omapDelegator[K, V]) DeleteMax() (Element[K, V], error) {
	m.rwmu.Lock()
	defer m.rwmu.Unlock()
	return m.impl.DeleteMax()
}

func (m *omapDelegator[K, V]) Min() (K, error) {
	m.rwmu.RLock()
	defer m.rwmu.RUnlock()
	return m.impl.Min()
}

func (m *omapDelegator[K, V]) Max() (K, error) {
	m.rwmu.RLock()
	defer m.rwmu.RUnlock()
	return m.impl.Max()
}

func (m *omapDelegator[K, V]) snapshot(seq func(OrderedMap[K, V]) iter.Seq2[K, V]) []element[K, V] {
	m.rwmu.RLock()
	defer m.rwmu.RUnlock()
	items := make([]element[K, V], 0, m.impl.Len())
	for key, val := range seq(m.impl) {
		items = append(items, element[K, V]{key: key, val: val})
	}
	return items
}

func (m *omapDelegator[K, V]) snapshotSeq(seq func(OrderedMap[K, V]) iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, item := range m.snapshot(seq) {
			if !yield(item.key, item.val) {
				return
			}
		}
	}
}

func (m *omapDelegator[K, V]) All() iter.Seq2[K, V] {
	return m.snapshotSeq(OrderedMap[K, V].All)
}

func (m *omapDelegator[K, V]) Backward() iter.Seq2[K, V] {
	return m.snapshotSeq(OrderedMap[K, V].Backward)
}

func (m *omapDelegator[K, V]) PreOrder() iter.Seq2[K, V] {
	return m.snapshotSeq(OrderedMap[K, V].PreOrder)
}

func (m *omapDelegator[K, V]) PostOrder() iter.Seq2[K, V] {
	return m.snapshotSeq(OrderedMap[K, V].PostOrder)
}

func (m *omapDelegator[K, V]) Foreach(action func(idx int64, key K, val V) bool) {
	for i, item := range m.snapshot(OrderedMap[K, V].All) {
		if !action(int64(i), item.key, item.val) {
			return
		}
	}
}

func (m *omapDelegator[K, V]) Release() {
	m.rwmu.Lock()
	defer m.rwmu.Unlock()
	m.impl.Release()
}

// unwrap hands the wrapped map to the validators under the read lock.
func (m *omapDelegator[K, V]) unwrap() (OrderedMap[K, V], func()) {
	m.rwmu.RLock()
	return m.impl, m.rwmu.RUnlock
}
