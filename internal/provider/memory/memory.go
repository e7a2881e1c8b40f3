// Package memory holds in-memory collaborator implementations used in
// tests and when the service runs without postgres/redis.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/comexdesk/broker-portal/internal/domain"
	"github.com/comexdesk/broker-portal/internal/provider"
)

// ProfileStore keeps profile records in a map.
type ProfileStore struct {
	mu      sync.RWMutex
	records map[string]domain.ProfileRecord
}

// NewProfileStore builds an empty store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{records: make(map[string]domain.ProfileRecord)}
}

func (s *ProfileStore) Get(ctx context.Context, principalID string) (*domain.ProfileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[principalID]
	if !ok {
		return nil, provider.ErrNotFound
	}
	return &record, nil
}

func (s *ProfileStore) Upsert(ctx context.Context, principalID string, record *domain.ProfileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *record
	now := time.Now()
	if existing, ok := s.records[principalID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.records[principalID] = stored
	return nil
}

func (s *ProfileStore) SetDeleted(ctx context.Context, principalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[principalID]
	if !ok {
		return provider.ErrNotFound
	}
	record.Deleted = true
	record.UpdatedAt = time.Now()
	s.records[principalID] = record
	return nil
}

// ObjectStore keeps attachment payloads in a map.
type ObjectStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewObjectStore builds an empty store.
func NewObjectStore() *ObjectStore {
	return &ObjectStore{objects: make(map[string][]byte)}
}

// Put stores the payload and returns the key as its public locator.
func (s *ObjectStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[key] = stored
	return key, nil
}

func (s *ObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, provider.ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}
