package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// ContentStore is content-addressable artifact storage: Put returns the id
// derived from the bytes themselves, so storing the same document twice
// yields the same id and one stored object.
type ContentStore interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, id string) ([]byte, error)
}

// contentID is the hex SHA-256 of the stored bytes.
func contentID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// MemoryStore is an in-process ContentStore for tests and single-node use.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ ContentStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Put stores the bytes under their content id.
func (m *MemoryStore) Put(_ context.Context, data []byte) (string, error) {
	id := contentID(data)
	copied := make([]byte, len(data))
	copy(copied, data)

	m.mu.Lock()
	m.objects[id] = copied
	m.mu.Unlock()
	return id, nil
}

// Get returns the stored bytes for the id.
func (m *MemoryStore) Get(_ context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	data, ok := m.objects[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("artifact %s not found", id)
	}
	return data, nil
}
