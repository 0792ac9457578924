package util

import "sync"

// LazyMap is a typed sync.Map whose values can be produced on first access.
// Concurrent callers of LoadOrLazyStore observe exactly one initialization
// per key.
type LazyMap[K, V any] struct {
	m sync.Map
}

type entry[V any] struct {
	value      V
	initialize func() V
	once       sync.Once
}

func (e *entry[V]) get() V {
	if e.initialize != nil {
		e.once.Do(func() {
			e.value = e.initialize()
			e.initialize = nil
		})
	}
	return e.value
}

func (m *LazyMap[K, V]) Load(key K) (V, bool) {
	actual, loaded := m.m.Load(key)
	if !loaded {
		var zero V
		return zero, false
	}
	return actual.(*entry[V]).get(), true
}

func (m *LazyMap[K, V]) Store(key K, value V) {
	m.m.Store(key, &entry[V]{value: value})
}

func (m *LazyMap[K, V]) LoadOrStore(key K, value V) (V, bool) {
	actual, loaded := m.m.LoadOrStore(key, &entry[V]{value: value})
	return actual.(*entry[V]).get(), loaded
}

// LoadOrLazyStore returns the value for key, running initialize at most once
// when the key is absent. The boolean reports whether the key already existed.
func (m *LazyMap[K, V]) LoadOrLazyStore(key K, initialize func() V) (V, bool) {
	actual, loaded := m.m.Load(key)
	if loaded {
		return actual.(*entry[V]).get(), true
	}
	e := &entry[V]{initialize: initialize}
	actual, loaded = m.m.LoadOrStore(key, e)
	return actual.(*entry[V]).get(), loaded
}

func (m *LazyMap[K, V]) Range(f func(key K, value V) bool) {
	m.m.Range(func(key, value any) bool {
		return f(key.(K), value.(*entry[V]).get())
	})
}
