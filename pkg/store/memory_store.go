package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and examples.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string]memoryFile
	now   func() time.Time
}

type memoryFile struct {
	data []byte
	meta Meta
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: map[string]memoryFile{}, now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, path string) ([]byte, Meta, bool, error) {
	s.mu.RLock()
	file, ok := s.files[path]
	s.mu.RUnlock()
	if !ok {
		return nil, Meta{}, false, nil
	}
	return append([]byte(nil), file.data...), file.meta, true, nil
}

func (s *MemoryStore) Save(_ context.Context, path string, data []byte, expect string) (Meta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if expect != "" {
		if current, ok := s.files[path]; ok && current.meta.ETag != expect {
			return current.meta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, expect, current.meta.ETag)
		}
	}
	meta := Meta{ETag: ETag(data), UpdatedAt: s.now()}
	s.files[path] = memoryFile{data: append([]byte(nil), data...), meta: meta}
	return meta, nil
}

// Paths lists stored paths in order.
func (s *MemoryStore) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.files))
	for path := range s.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
