package audit

import (
	"time"

	"haulcheck/internal/domain"
)

// Actor identifies who caused a decision application.
const (
	ActorEngine   = "engine"
	ActorReviewer = "reviewer"
	ActorAdmin    = "admin"
)

// Event records one applied decision for auditability.
type Event struct {
	VerificationID  string
	EntityID        string
	Kind            domain.DocumentKind
	Decision        domain.DecisionStatus
	Score           int
	AggregateStatus domain.AggregateStatus
	Actor           string
	Timestamp       time.Time
}
