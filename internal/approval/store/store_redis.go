package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"haulcheck/internal/approval"
	"haulcheck/pkg/platform/sentinel"
)

const aggregateKeyPrefix = "approval:entity:"

// Redis persists aggregates as JSON values. Recommended for distributed
// deployments where several instances share approval state.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisOption func(*Redis)

// WithTTL bounds how long an aggregate snapshot lives without updates. Zero
// means no expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *Redis) {
		s.ttl = ttl
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	s := &Redis{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Redis) Find(ctx context.Context, entityID string) (*approval.Aggregate, error) {
	raw, err := s.client.Get(ctx, aggregateKeyPrefix+entityID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find aggregate: %w", err)
	}

	var agg approval.Aggregate
	if err := json.Unmarshal(raw, &agg); err != nil {
		return nil, fmt.Errorf("decode aggregate: %w", err)
	}
	return &agg, nil
}

func (s *Redis) Save(ctx context.Context, aggregate *approval.Aggregate) error {
	raw, err := json.Marshal(aggregate)
	if err != nil {
		return fmt.Errorf("encode aggregate: %w", err)
	}
	if err := s.client.Set(ctx, aggregateKeyPrefix+aggregate.EntityID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save aggregate: %w", err)
	}
	return nil
}
