package verifier

import (
	"context"
	"time"

	"haulcheck/internal/domain"
)

// Mock returns deterministic verdicts with a configurable latency to mimic
// real-world provider calls. Used for local development and tests.
type Mock struct {
	Latency time.Duration
	Valid   bool
}

func (m Mock) Verify(_ context.Context, kind domain.DocumentKind, identifyingFields map[string]string) (domain.VerifierVerdict, error) {
	time.Sleep(m.Latency)
	return domain.VerifierVerdict{
		Kind:    kind,
		Valid:   m.Valid,
		Success: true,
		Payload: map[string]any{"provider": "mock", "fields_checked": len(identifyingFields)},
	}, nil
}
