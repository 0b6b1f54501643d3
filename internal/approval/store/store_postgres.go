package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"haulcheck/internal/approval"
	"haulcheck/internal/domain"
	"haulcheck/pkg/platform/sentinel"
	"haulcheck/pkg/platform/tx"
)

// Postgres persists aggregates in PostgreSQL. Slots are stored as jsonb:
// the slot set is small and always read and written as a unit through the
// state machine, so a normalized layout buys nothing here.
//
// Schema:
//
//	CREATE TABLE approval_aggregates (
//	    entity_id  TEXT PRIMARY KEY,
//	    status     TEXT NOT NULL,
//	    slots      JSONB NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// conn joins an ambient transaction when the caller carries one in ctx.
func (s *Postgres) conn(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *Postgres) Find(ctx context.Context, entityID string) (*approval.Aggregate, error) {
	agg := approval.Aggregate{EntityID: entityID}
	var rawSlots []byte

	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT status, slots, created_at, updated_at FROM approval_aggregates WHERE entity_id = $1`,
		entityID,
	)
	if err := row.Scan(&agg.Status, &rawSlots, &agg.CreatedAt, &agg.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find aggregate: %w", err)
	}

	agg.Slots = make(map[domain.DocumentKind]approval.DocumentSlot)
	if err := json.Unmarshal(rawSlots, &agg.Slots); err != nil {
		return nil, fmt.Errorf("decode slots: %w", err)
	}
	return &agg, nil
}

func (s *Postgres) Save(ctx context.Context, aggregate *approval.Aggregate) error {
	rawSlots, err := json.Marshal(aggregate.Slots)
	if err != nil {
		return fmt.Errorf("encode slots: %w", err)
	}

	_, err = s.conn(ctx).ExecContext(ctx,
		`INSERT INTO approval_aggregates (entity_id, status, slots, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (entity_id) DO UPDATE
		 SET status = EXCLUDED.status, slots = EXCLUDED.slots, updated_at = EXCLUDED.updated_at`,
		aggregate.EntityID, aggregate.Status, rawSlots, aggregate.CreatedAt, aggregate.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save aggregate: %w", err)
	}
	return nil
}
