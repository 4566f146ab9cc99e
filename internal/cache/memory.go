package cache

import "sync"

// MemoryStore is a mutex-guarded map implementing Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[Key]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[Key]Entry)}
}

func (m *MemoryStore) Get(key Key) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	return e, ok
}

func (m *MemoryStore) Put(e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.Key] = e
}

func (m *MemoryStore) Delete(key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *MemoryStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[Key]Entry)
}

// Len returns the number of entries.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
