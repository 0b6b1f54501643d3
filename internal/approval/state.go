package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"haulcheck/internal/domain"
	"haulcheck/pkg/platform/sentinel"
)

// Store persists approval aggregates, keyed by entity ID. Implementations
// return sentinel.ErrNotFound for unknown entities.
type Store interface {
	Find(ctx context.Context, entityID string) (*Aggregate, error)
	Save(ctx context.Context, aggregate *Aggregate) error
}

// Default validity windows recorded on approval, per document kind.
var defaultValidity = map[domain.DocumentKind]time.Duration{
	domain.KindDriverLicense: 5 * 365 * 24 * time.Hour,
	domain.KindInsurance:     365 * 24 * time.Hour,
	domain.KindNationalID:    0, // national IDs do not expire here
}

// StateMachine owns all mutations of approval aggregates. Concurrent
// decisions for the same entity are serialized through a per-entity lock so
// the short-circuit-on-rejection invariant holds; different entities are
// independent.
type StateMachine struct {
	store    Store
	logger   *slog.Logger
	validity map[domain.DocumentKind]time.Duration
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type Option func(*StateMachine)

func WithLogger(logger *slog.Logger) Option {
	return func(m *StateMachine) {
		m.logger = logger
	}
}

// WithValidity overrides the approval validity window for a kind. A zero
// duration means approvals of that kind never expire.
func WithValidity(kind domain.DocumentKind, window time.Duration) Option {
	return func(m *StateMachine) {
		m.validity[kind] = window
	}
}

func withClock(now func() time.Time) Option {
	return func(m *StateMachine) {
		m.now = now
	}
}

func NewStateMachine(store Store, opts ...Option) (*StateMachine, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	m := &StateMachine{
		store:    store,
		validity: make(map[domain.DocumentKind]time.Duration, len(defaultValidity)),
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
	for kind, window := range defaultValidity {
		m.validity[kind] = window
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Get returns a copy of the entity's aggregate.
func (m *StateMachine) Get(ctx context.Context, entityID string) (*Aggregate, error) {
	agg, err := m.store.Find(ctx, entityID)
	if err != nil {
		return nil, err
	}
	return agg.Clone(), nil
}

// ApplyDecision applies one decision to the entity's slot for the given kind
// and returns the updated aggregate plus what actually changed.
//
// Transition table:
//   - AutoApprove: slot becomes Approved (with expiry per kind policy); when
//     all slots are approved the aggregate flips to Approved in the same
//     update.
//   - AutoReject: slot becomes Rejected; the aggregate becomes Rejected
//     immediately regardless of the other slots.
//   - ManualReview: slot becomes PendingReview; the aggregate is untouched.
//
// Once the aggregate is terminal, re-applying the decision a terminal slot
// already holds is an idempotent no-op, other slots still record late-arriving
// results for bookkeeping without reverting the aggregate status, and any
// other mutation of a terminal slot fails with sentinel.ErrIllegalTransition.
func (m *StateMachine) ApplyDecision(ctx context.Context, entityID string, kind domain.DocumentKind, decision domain.Decision, score int) (*Aggregate, Transition, error) {
	if entityID == "" {
		return nil, Transition{}, fmt.Errorf("%w: entity id is required", sentinel.ErrInvalidInput)
	}
	if _, err := domain.ParseDocumentKind(kind.String()); err != nil {
		return nil, Transition{}, fmt.Errorf("%w: %v", sentinel.ErrInvalidInput, err)
	}

	lock := m.entityLock(entityID)
	lock.Lock()
	defer lock.Unlock()

	now := m.now()

	agg, err := m.store.Find(ctx, entityID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		// The aggregate is created on the first submitted document.
		agg = NewAggregate(entityID, now)
	case err != nil:
		return nil, Transition{}, fmt.Errorf("find aggregate: %w", err)
	}

	tr := Transition{Previous: agg.Status, Current: agg.Status}
	slot := agg.Slots[kind]

	next, changed, err := m.nextSlot(agg.Status, slot, decision, score, kind, now)
	if err != nil {
		return nil, Transition{}, err
	}
	if !changed {
		// Idempotent re-application: same observable result, no save, no
		// notification-eligible change.
		return agg.Clone(), tr, nil
	}

	agg.Slots[kind] = next
	agg.UpdatedAt = now
	tr.SlotChanged = true

	if !agg.Status.Terminal() {
		switch {
		case next.Status == domain.SlotRejected:
			agg.Status = domain.AggregateRejected
		case next.Status == domain.SlotApproved && agg.allApproved():
			agg.Status = domain.AggregateApproved
		}
	}
	tr.Current = agg.Status
	tr.StatusChanged = tr.Current != tr.Previous

	if err := m.store.Save(ctx, agg); err != nil {
		return nil, Transition{}, fmt.Errorf("save aggregate: %w", err)
	}

	if m.logger != nil {
		m.logger.InfoContext(ctx, "decision applied",
			"entity_id", entityID,
			"kind", kind.String(),
			"decision", string(decision.Status),
			"score", score,
			"slot_status", string(next.Status),
			"aggregate_status", string(agg.Status),
			"status_changed", tr.StatusChanged,
		)
	}

	return agg.Clone(), tr, nil
}

// nextSlot computes the slot's next state, or reports no change for
// idempotent re-application, or rejects illegal mutations.
func (m *StateMachine) nextSlot(aggStatus domain.AggregateStatus, slot DocumentSlot, decision domain.Decision, score int, kind domain.DocumentKind, now time.Time) (DocumentSlot, bool, error) {
	target := slotStatusFor(decision.Status)

	if slot.Status.Terminal() {
		if slot.Status == target {
			return slot, false, nil
		}
		if aggStatus.Terminal() {
			// Reversing a terminal slot under a terminal aggregate needs the
			// explicit administrative reopen.
			return DocumentSlot{}, false, fmt.Errorf("%w: slot %s is %s while entity is %s",
				sentinel.ErrIllegalTransition, kind, slot.Status, aggStatus)
		}
		// Aggregate still open (e.g. after a reopen): re-submission may move
		// the slot again.
	}

	next := DocumentSlot{
		Status:       target,
		LastDecision: decision.Status,
		Score:        score,
		UpdatedAt:    now,
	}
	switch decision.Status {
	case domain.DecisionAutoApprove:
		if window := m.validity[kind]; window > 0 {
			exp := now.Add(window)
			next.ExpiresAt = &exp
		}
	case domain.DecisionAutoReject:
		next.RejectionReason = decision.Reason
	}
	return next, true, nil
}

func slotStatusFor(status domain.DecisionStatus) domain.SlotStatus {
	switch status {
	case domain.DecisionAutoApprove:
		return domain.SlotApproved
	case domain.DecisionAutoReject:
		return domain.SlotRejected
	default:
		return domain.SlotPendingReview
	}
}

// Reopen resets a terminal aggregate back to InReview so an entity can
// re-apply. Slots keep their recorded history; a re-submitted document moves
// its slot through the normal transition table. This is an administrative
// operation, not part of the automated flow.
func (m *StateMachine) Reopen(ctx context.Context, entityID string) (*Aggregate, Transition, error) {
	lock := m.entityLock(entityID)
	lock.Lock()
	defer lock.Unlock()

	agg, err := m.store.Find(ctx, entityID)
	if err != nil {
		return nil, Transition{}, err
	}

	tr := Transition{Previous: agg.Status, Current: agg.Status}
	if !agg.Status.Terminal() {
		return agg.Clone(), tr, nil
	}

	agg.Status = domain.AggregateInReview
	agg.UpdatedAt = m.now()
	if err := m.store.Save(ctx, agg); err != nil {
		return nil, Transition{}, fmt.Errorf("save aggregate: %w", err)
	}
	tr.Current = agg.Status
	tr.StatusChanged = true

	if m.logger != nil {
		m.logger.InfoContext(ctx, "entity reopened", "entity_id", entityID, "previous_status", string(tr.Previous))
	}

	return agg.Clone(), tr, nil
}

func (m *StateMachine) entityLock(entityID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lock, ok := m.locks[entityID]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	m.locks[entityID] = lock
	return lock
}
