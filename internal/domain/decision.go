package domain

// DecisionStatus enumerates the possible automated decisions for one
// document submission.
type DecisionStatus string

const (
	DecisionAutoApprove  DecisionStatus = "auto_approve"
	DecisionAutoReject   DecisionStatus = "auto_reject"
	DecisionManualReview DecisionStatus = "manual_review"
)

// Decision is the tagged outcome of the decision policy. Reason is set for
// rejections and for manual decisions entered by a reviewer.
type Decision struct {
	Status DecisionStatus
	Reason string
}

// AutoApprove builds an approval decision.
func AutoApprove() Decision {
	return Decision{Status: DecisionAutoApprove}
}

// AutoReject builds a rejection decision with the given reason.
func AutoReject(reason string) Decision {
	return Decision{Status: DecisionAutoReject, Reason: reason}
}

// ManualReview builds a manual-review decision.
func ManualReview() Decision {
	return Decision{Status: DecisionManualReview}
}
