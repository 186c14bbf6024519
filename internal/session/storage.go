package session

import (
	"context"
	"sync"
)

// Storage is the client-readable key/value store. Values are scoped by a
// namespace that identifies one browser.
type Storage interface {
	GetItem(ctx context.Context, namespace, key string) (string, bool, error)
	SetItem(ctx context.Context, namespace, key, value string) error
	RemoveItem(ctx context.Context, namespace, key string) error
}

// MemoryStorage is an in-process Storage. Contents are lost on restart.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]map[string]string)}
}

func (m *MemoryStorage) GetItem(_ context.Context, namespace, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[namespace][key]
	return v, ok, nil
}

func (m *MemoryStorage) SetItem(_ context.Context, namespace, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.items[namespace]
	if !ok {
		ns = make(map[string]string)
		m.items[namespace] = ns
	}
	ns[key] = value
	return nil
}

func (m *MemoryStorage) RemoveItem(_ context.Context, namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items[namespace], key)
	if len(m.items[namespace]) == 0 {
		delete(m.items, namespace)
	}
	return nil
}
