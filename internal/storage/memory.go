package storage

import (
	"context"
	"sync"

	"haulcheck/internal/domain"
	"haulcheck/pkg/platform/sentinel"
)

// InMemoryEntityStore keeps transporter records in memory. The production
// entity catalog lives in the marketplace backend; this store backs tests and
// single-node runs and intentionally favors clarity over performance.
type InMemoryEntityStore struct {
	mu       sync.RWMutex
	entities map[string]domain.Entity
}

func NewInMemoryEntityStore() *InMemoryEntityStore {
	return &InMemoryEntityStore{entities: make(map[string]domain.Entity)}
}

func (s *InMemoryEntityStore) Save(_ context.Context, entity domain.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[entity.ID] = entity
	return nil
}

func (s *InMemoryEntityStore) Find(_ context.Context, entityID string) (*domain.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entity, ok := s.entities[entityID]; ok {
		found := entity
		return &found, nil
	}
	return nil, sentinel.ErrNotFound
}
