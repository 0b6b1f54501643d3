package approval

import (
	"time"

	"haulcheck/internal/domain"
)

// DocumentSlot is the approval state for one document kind of one entity.
type DocumentSlot struct {
	Status          domain.SlotStatus    `json:"status"`
	LastDecision    domain.DecisionStatus `json:"last_decision,omitempty"`
	Score           int                  `json:"score"`
	ExpiresAt       *time.Time           `json:"expires_at,omitempty"`
	RejectionReason string               `json:"rejection_reason,omitempty"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// Aggregate is the per-entity approval record: one slot per document kind
// plus the overall status. It is mutated only through the state machine.
type Aggregate struct {
	EntityID  string                                `json:"entity_id"`
	Status    domain.AggregateStatus                `json:"status"`
	Slots     map[domain.DocumentKind]DocumentSlot  `json:"slots"`
	CreatedAt time.Time                             `json:"created_at"`
	UpdatedAt time.Time                             `json:"updated_at"`
}

// NewAggregate creates the initial aggregate for an entity: all slots
// unsubmitted, overall status in review.
func NewAggregate(entityID string, now time.Time) *Aggregate {
	slots := make(map[domain.DocumentKind]DocumentSlot, len(domain.AllKinds()))
	for _, kind := range domain.AllKinds() {
		slots[kind] = DocumentSlot{Status: domain.SlotUnsubmitted, UpdatedAt: now}
	}
	return &Aggregate{
		EntityID:  entityID,
		Status:    domain.AggregateInReview,
		Slots:     slots,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (a *Aggregate) Clone() *Aggregate {
	if a == nil {
		return nil
	}
	out := *a
	out.Slots = make(map[domain.DocumentKind]DocumentSlot, len(a.Slots))
	for k, slot := range a.Slots {
		if slot.ExpiresAt != nil {
			exp := *slot.ExpiresAt
			slot.ExpiresAt = &exp
		}
		out.Slots[k] = slot
	}
	return &out
}

// allApproved reports whether every document kind has an approved slot.
func (a *Aggregate) allApproved() bool {
	for _, kind := range domain.AllKinds() {
		if a.Slots[kind].Status != domain.SlotApproved {
			return false
		}
	}
	return true
}

// Transition describes what a decision application actually changed. The
// caller uses StatusChanged to dispatch notifications edge-triggered:
// idempotent re-application reports no change and must not re-notify.
type Transition struct {
	SlotChanged   bool
	StatusChanged bool
	Previous      domain.AggregateStatus
	Current       domain.AggregateStatus
}
