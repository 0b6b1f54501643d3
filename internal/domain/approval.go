package domain

// SlotStatus is the per-document-type approval state for one entity.
type SlotStatus string

const (
	SlotUnsubmitted   SlotStatus = "unsubmitted"
	SlotPendingReview SlotStatus = "pending_review"
	SlotApproved      SlotStatus = "approved"
	SlotRejected      SlotStatus = "rejected"
)

// Terminal reports whether the slot has reached a final state.
func (s SlotStatus) Terminal() bool {
	return s == SlotApproved || s == SlotRejected
}

// AggregateStatus is the overall approval state for one entity.
type AggregateStatus string

const (
	AggregateInReview AggregateStatus = "in_review"
	AggregateApproved AggregateStatus = "approved"
	AggregateRejected AggregateStatus = "rejected"
)

// Terminal reports whether the aggregate has reached a final state.
func (s AggregateStatus) Terminal() bool {
	return s == AggregateApproved || s == AggregateRejected
}
