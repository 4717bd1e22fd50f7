package mocks

import (
	"context"
	"sync"

	"github.com/user/panorama/pkg/ports"
)

// ObjectStore keeps uploaded objects in memory.
type ObjectStore struct {
	mu      sync.Mutex
	Objects map[string][]byte

	PutFunc func(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// NewObjectStore creates an empty ObjectStore.
func NewObjectStore() *ObjectStore {
	return &ObjectStore{Objects: make(map[string][]byte)}
}

func (m *ObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, key, data, contentType)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[key] = data
	return "mem://" + key, nil
}

// Get returns an uploaded object.
func (m *ObjectStore) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.Objects[key]
	return data, ok
}

var _ ports.ObjectStore = (*ObjectStore)(nil)
