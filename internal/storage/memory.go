package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// MemoryStore keeps objects in process memory. Objects are served by the
// server's /media route.
type MemoryStore struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	contentType string
	data        []byte
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{baseURL: baseURL, objects: make(map[string]memoryObject)}
}

func (s *MemoryStore) Put(_ context.Context, publicID, contentType string, data []byte) (Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.objects[publicID]; ok {
		return s.object(publicID, existing), nil
	}
	obj := memoryObject{contentType: contentType, data: bytes.Clone(data)}
	s.objects[publicID] = obj
	return s.object(publicID, obj), nil
}

func (s *MemoryStore) Open(_ context.Context, publicID string) (io.ReadCloser, Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[publicID]
	if !ok {
		return nil, Object{}, ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(obj.data)), s.object(publicID, obj), nil
}

func (s *MemoryStore) Delete(_ context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[publicID]; !ok {
		return ErrNotExist
	}
	delete(s.objects, publicID)
	return nil
}

func (s *MemoryStore) URL(publicID string) string {
	return mediaURL(s.baseURL, publicID)
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *MemoryStore) object(publicID string, obj memoryObject) Object {
	return Object{
		PublicID:    publicID,
		URL:         s.URL(publicID),
		ContentType: obj.contentType,
		Size:        int64(len(obj.data)),
	}
}
