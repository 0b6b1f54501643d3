package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haulcheck/internal/approval"
	"haulcheck/internal/domain"
	"haulcheck/pkg/platform/sentinel"
)

func TestMemory_FindUnknownEntity(t *testing.T) {
	s := NewMemory()
	_, err := s.Find(context.Background(), "trk-unknown")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemory_SaveAndFind(t *testing.T) {
	s := NewMemory()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	agg := approval.NewAggregate("trk-1", now)
	slot := agg.Slots[domain.KindDriverLicense]
	slot.Status = domain.SlotApproved
	slot.Score = 95
	agg.Slots[domain.KindDriverLicense] = slot
	require.NoError(t, s.Save(context.Background(), agg))

	found, err := s.Find(context.Background(), "trk-1")
	require.NoError(t, err)
	assert.Equal(t, agg.EntityID, found.EntityID)
	assert.Equal(t, domain.SlotApproved, found.Slots[domain.KindDriverLicense].Status)
	assert.Equal(t, 95, found.Slots[domain.KindDriverLicense].Score)
}

func TestMemory_IsolatesCallersFromStoredState(t *testing.T) {
	s := NewMemory()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	agg := approval.NewAggregate("trk-1", now)
	require.NoError(t, s.Save(context.Background(), agg))

	// Mutating either the saved value or a found copy must not leak into the
	// store.
	agg.Slots[domain.KindInsurance] = approval.DocumentSlot{Status: domain.SlotRejected}

	found, err := s.Find(context.Background(), "trk-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SlotUnsubmitted, found.Slots[domain.KindInsurance].Status)

	found.Status = domain.AggregateRejected
	again, err := s.Find(context.Background(), "trk-1")
	require.NoError(t, err)
	assert.Equal(t, domain.AggregateInReview, again.Status)
}
