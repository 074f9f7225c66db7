// Package store defines the reactive store capability the router writes its
// state into, and an in-memory implementation.
//
// The router depends only on the Store interface. Paths are dotted strings
// such as "ui.route.view"; values are whatever the caller stores.
package store

import (
	"sync"
)

// Store is a path-addressed reactive store.
type Store interface {
	// Get returns the value at path, or nil if unset.
	Get(path string) any

	// Set stores value at path and notifies subscribers of path.
	Set(path string, value any)

	// Subscribe registers fn to be called with the new value whenever path
	// is set. The returned function removes the subscription.
	Subscribe(path string, fn func(value any)) (unsubscribe func())
}

type subscriber struct {
	id uint64
	fn func(any)
}

// Memory is a thread-safe in-memory Store.
//
// Subscribers run synchronously on the goroutine that called Set, after the
// store's lock is released, in subscription order. Every Set notifies, even
// when the value is unchanged.
type Memory struct {
	mu     sync.RWMutex
	values map[string]any
	subs   map[string][]subscriber
	nextID uint64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		values: make(map[string]any),
		subs:   make(map[string][]subscriber),
	}
}

// Get implements Store.
func (m *Memory) Get(path string) any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[path]
}

// Set implements Store.
func (m *Memory) Set(path string, value any) {
	m.mu.Lock()
	if value == nil {
		delete(m.values, path)
	} else {
		m.values[path] = value
	}
	subs := make([]subscriber, len(m.subs[path]))
	copy(subs, m.subs[path])
	m.mu.Unlock()

	for _, s := range subs {
		s.fn(value)
	}
}

// Subscribe implements Store.
func (m *Memory) Subscribe(path string, fn func(value any)) func() {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.subs[path] = append(m.subs[path], subscriber{id: id, fn: fn})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			subs := m.subs[path]
			for i, s := range subs {
				if s.id == id {
					m.subs[path] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
			if len(m.subs[path]) == 0 {
				delete(m.subs, path)
			}
		})
	}
}

// Subscribers returns the number of subscriptions on path.
func (m *Memory) Subscribers(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs[path])
}

// Snapshot returns a copy of every stored value.
func (m *Memory) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]any, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}
