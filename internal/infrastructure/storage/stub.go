package storage

import (
	"context"
	"errors"
	"sync"

	attachmentapp "github.com/yunmao/backend/internal/application/attachment"
)

var _ attachmentapp.ObjectStorage = (*MemoryObjectStorage)(nil)

// MemoryObjectStorage is an in-process object index used when storage is
// disabled and in tests. With AcceptAll set every key is reported present.
type MemoryObjectStorage struct {
	mu        sync.RWMutex
	keys      map[string]struct{}
	AcceptAll bool
}

// NewMemoryObjectStorage creates an empty MemoryObjectStorage
func NewMemoryObjectStorage(keys ...string) *MemoryObjectStorage {
	s := &MemoryObjectStorage{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		s.keys[k] = struct{}{}
	}
	return s
}

// Put records a key as present
func (s *MemoryObjectStorage) Put(storageKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[storageKey] = struct{}{}
}

// Remove forgets a key
func (s *MemoryObjectStorage) Remove(storageKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, storageKey)
}

// ObjectExists reports whether the key was recorded
func (s *MemoryObjectStorage) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}
	if s.AcceptAll {
		return true, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[storageKey]
	return ok, nil
}
