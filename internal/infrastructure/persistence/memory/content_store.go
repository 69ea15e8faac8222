package memory

import (
	"context"
	"sync"

	"github.com/turtacn/dataguard/pkg/errors"
)

// ContentStore is an in-memory document store. It doubles as a BlobStore.
type ContentStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewContentStore creates an empty store.
func NewContentStore() *ContentStore {
	return &ContentStore{files: make(map[string][]byte)}
}

func (s *ContentStore) Read(ctx context.Context, documentID string) ([]byte, error) {
	return s.Get(ctx, documentID)
}

func (s *ContentStore) Write(ctx context.Context, documentID string, content []byte) error {
	return s.Put(ctx, documentID, content)
}

func (s *ContentStore) Put(ctx context.Context, key string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = append([]byte(nil), content...)
	return nil
}

func (s *ContentStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.files[key]
	if !ok {
		return nil, errors.NotFound("content", key)
	}
	return append([]byte(nil), b...), nil
}

// Delete removes stored content; tests use it to simulate out-of-band removal.
func (s *ContentStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key)
}

//Personal.AI order the ending
