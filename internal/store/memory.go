package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps objects in a map. Used for dry runs and tests; it also
// counts calls so idempotence can be asserted.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	ExistsCalls int
	PutCalls    int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, &TransportError{Op: "exists", Key: key, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExistsCalls++
	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return &TransportError{Op: "put", Key: key, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Op: "get", Key: key, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Op: "list", Key: prefix, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Keys returns every stored key, sorted.
func (m *MemoryStore) Keys() []string {
	keys, _ := m.List(context.Background(), "")
	return keys
}
