package frame

import (
	"sync"

	"github.com/scailab/stagekit/pkg/errors"
)

// Store is the key/value frame store the stages share with the Training
// Engine. Puts are idempotent; callers never reuse a key across writers, so
// no locking beyond the store's own put semantics is required.
type Store interface {
	// Put publishes a frame under a key, replacing any previous value.
	Put(key string, f *Frame) error

	// Get returns the frame published under a key.
	Get(key string) (*Frame, error)
}

// MemStore is an in-process Store backed by a map.
type MemStore struct {
	mu     sync.RWMutex
	frames map[string]*Frame
}

// NewMemStore creates an empty in-process store.
func NewMemStore() *MemStore {
	return &MemStore{frames: make(map[string]*Frame)}
}

// Put implements Store.
func (s *MemStore) Put(key string, f *Frame) error {
	if key == "" {
		return errors.NewValueError("MemStore.Put", "empty key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames[key] = f
	return nil
}

// Get implements Store.
func (s *MemStore) Get(key string) (*Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.frames[key]
	if !ok {
		return nil, errors.Newf("frame '%s' not found in store", key)
	}
	return f, nil
}

// Len returns the number of frames currently published.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.frames)
}
