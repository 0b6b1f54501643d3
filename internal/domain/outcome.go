package domain

import "time"

// VerificationOutcome is the full result of verifying one document
// submission: both raw signals, the blended confidence score, the decision,
// and the entity's aggregate status after the decision was applied.
type VerificationOutcome struct {
	VerificationID  string
	EntityID        string
	Kind            DocumentKind
	Extraction      ExtractionResult
	Verdict         VerifierVerdict
	Score           int
	Decision        Decision
	Note            string
	AggregateStatus AggregateStatus
	EvaluatedAt     time.Time
}
