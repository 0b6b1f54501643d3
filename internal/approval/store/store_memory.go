package store

import (
	"context"
	"sync"

	"haulcheck/internal/approval"
	"haulcheck/pkg/platform/sentinel"
)

// Memory keeps aggregates in a map. It favors clarity over performance and
// is the default store for tests and single-node runs.
type Memory struct {
	mu         sync.RWMutex
	aggregates map[string]*approval.Aggregate
}

func NewMemory() *Memory {
	return &Memory{aggregates: make(map[string]*approval.Aggregate)}
}

func (s *Memory) Find(_ context.Context, entityID string) (*approval.Aggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if agg, ok := s.aggregates[entityID]; ok {
		return agg.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) Save(_ context.Context, aggregate *approval.Aggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aggregates[aggregate.EntityID] = aggregate.Clone()
	return nil
}
