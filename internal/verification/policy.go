package verification

import "haulcheck/internal/domain"

// RejectReasonHighConfidence is recorded when a negative verdict is backed by
// enough corroborating signal to auto-reject.
const RejectReasonHighConfidence = "verification failed with high confidence"

// Decide applies the kind-specific decision policy to a confidence score and
// a verifier verdict. Pure and total: every input maps to one of the three
// decision variants, never an error.
//
// Auto-reject needs both a negative verdict and high confidence in the
// supporting signals; an OCR hiccup on a legitimate document must not reject
// it. Auto-approve likewise needs a positive verdict plus enough
// corroboration. Everything else, including any verifier failure, goes to
// manual review.
func Decide(kind domain.DocumentKind, score int, verdict domain.VerifierVerdict) domain.Decision {
	policy, ok := kindPolicies[kind]
	if !ok {
		return domain.ManualReview()
	}

	if !verdict.Success {
		// A transient verifier failure asserts nothing either way.
		return domain.ManualReview()
	}
	if !verdict.Valid && score >= policy.rejectFloor {
		return domain.AutoReject(RejectReasonHighConfidence)
	}
	if verdict.Valid && score >= policy.approveFloor {
		return domain.AutoApprove()
	}
	return domain.ManualReview()
}

// Floors exposes the decision floors for a kind; used by operational
// endpoints and tests.
func Floors(kind domain.DocumentKind) (rejectFloor, approveFloor int, ok bool) {
	policy, found := kindPolicies[kind]
	if !found {
		return 0, 0, false
	}
	return policy.rejectFloor, policy.approveFloor, true
}
