package credstore

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore keeps the session in process memory. It is the store used in
// tests and by short-lived tooling that should not persist credentials.
type MemoryStore struct {
	mu      sync.RWMutex
	session Session
}

// NewMemoryStore returns a store seeded with s.
func NewMemoryStore(s Session) *MemoryStore {
	return &MemoryStore{session: s}
}

func (m *MemoryStore) Get(_ context.Context) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session, nil
}

func (m *MemoryStore) Set(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = Session{}
	return nil
}

// MemoryBackend is an in-process Backend.
type MemoryBackend struct {
	mu   sync.Mutex
	data map[string]map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]map[string][]byte)}
}

func (b *MemoryBackend) Load(_ context.Context, namespace string) (map[string][]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return maps.Clone(b.data[namespace]), nil
}

func (b *MemoryBackend) Replace(_ context.Context, namespace string, values map[string][]byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[namespace] = maps.Clone(values)
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, namespace string, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		delete(b.data[namespace], k)
	}
	if len(b.data[namespace]) == 0 {
		delete(b.data, namespace)
	}
	return nil
}
