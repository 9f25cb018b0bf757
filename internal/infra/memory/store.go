package memory

import (
	"context"
	"sync"

	"github.com/yaroph/connect/internal/domain"
)

// Store is an in-memory document store, used in tests and as a scratch
// backend.
type Store struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewStore() *Store {
	return &Store{docs: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *Store) Set(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.docs[key] = stored
	return nil
}

type image struct {
	data        []byte
	contentType string
}

// ImageStore keeps image payloads in memory.
type ImageStore struct {
	mu     sync.RWMutex
	images map[string]image
}

func NewImageStore() *ImageStore {
	return &ImageStore{images: make(map[string]image)}
}

func (s *ImageStore) Put(_ context.Context, filename string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.images[filename] = image{data: stored, contentType: contentType}
	return nil
}

func (s *ImageStore) Fetch(_ context.Context, filename string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[filename]
	if !ok {
		return nil, "", domain.ErrImageNotFound
	}
	out := make([]byte, len(img.data))
	copy(out, img.data)
	return out, img.contentType, nil
}
