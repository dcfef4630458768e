package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Stats is a snapshot of cache usage counters
type Stats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// Memory is an in-process response cache with a single fixed ttl.
// Expired entries are removed lazily when a Get finds them; there is no
// background sweep.
type Memory[V any] struct {
	mtx     sync.Mutex
	ttl     time.Duration
	entries map[string]entry[V]
	hits    uint64
	misses  uint64
	now     func() time.Time
}

// NewMemory creates a cache whose entries expire ttl after they were stored
func NewMemory[V any](ttl time.Duration) *Memory[V] {
	return &Memory[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

// Get returns the value stored for key. An entry older than ttl is treated
// as absent and removed.
func (m *Memory[V]) Get(key string) (V, bool) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	var zero V
	ent, ok := m.entries[key]
	if !ok {
		m.misses++
		return zero, false
	}

	if m.now().Sub(ent.storedAt) > m.ttl {
		delete(m.entries, key)
		m.misses++
		return zero, false
	}

	m.hits++
	return ent.value, true
}

// Set inserts or replaces the value for key and resets its age
func (m *Memory[V]) Set(key string, value V) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.entries[key] = entry[V]{
		value:    value,
		storedAt: m.now(),
	}
}

// Clear removes every entry
func (m *Memory[V]) Clear() {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	clear(m.entries)
}

// Len returns the number of stored entries, expired ones not yet evicted included
func (m *Memory[V]) Len() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return len(m.entries)
}

// Stats returns the current entry count with hit and miss counters
func (m *Memory[V]) Stats() Stats {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return Stats{
		Entries: len(m.entries),
		Hits:    m.hits,
		Misses:  m.misses,
	}
}
