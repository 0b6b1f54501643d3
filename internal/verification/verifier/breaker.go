package verifier

import (
	"context"
	"fmt"
	"sync"

	"haulcheck/internal/domain"
	"haulcheck/pkg/platform/sentinel"
)

const (
	defaultFailureThreshold = 5
	defaultSuccessThreshold = 2
)

// Breaker wraps a verifier with a circuit breaker. After a run of consecutive
// provider failures it stops calling out and fails fast; probe calls are
// still let through, and a run of successes closes the circuit again.
//
// Fast-failures surface as errors, which the orchestrator folds into
// success=false verdicts, so a dead provider degrades to manual review
// instead of stalling every verification on its timeout.
type Breaker struct {
	next verifier

	mu        sync.Mutex
	open      bool
	failures  int // consecutive failures while closed
	successes int // consecutive probe successes while open
	rejected  int // fast-failed calls since opening, gates probes

	failureThreshold int
	successThreshold int
}

// verifier mirrors the IdentityVerifier port; redeclared locally to keep this
// package free of an import cycle with its consumer.
type verifier interface {
	Verify(ctx context.Context, kind domain.DocumentKind, identifyingFields map[string]string) (domain.VerifierVerdict, error)
}

type BreakerOption func(*Breaker)

// WithFailureThreshold sets how many consecutive failures open the circuit.
func WithFailureThreshold(n int) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets how many consecutive successes close it again.
func WithSuccessThreshold(n int) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

func NewBreaker(next verifier, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		next:             next,
		failureThreshold: defaultFailureThreshold,
		successThreshold: defaultSuccessThreshold,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open reports whether the circuit is currently open.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// Reset force-closes the circuit and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
	b.failures = 0
	b.successes = 0
	b.rejected = 0
}

func (b *Breaker) Verify(ctx context.Context, kind domain.DocumentKind, identifyingFields map[string]string) (domain.VerifierVerdict, error) {
	if !b.allow() {
		return domain.VerifierVerdict{Kind: kind}, fmt.Errorf("%w: verifier circuit open", sentinel.ErrUnavailable)
	}

	verdict, err := b.next.Verify(ctx, kind, identifyingFields)
	b.record(err == nil)
	return verdict, err
}

// allow admits every call while closed and one probe per opening while open.
// Probing keeps recovery detection simple without a separate half-open timer.
func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return true
	}
	// Let one call through for every failureThreshold fast-failed: enough to
	// notice recovery, few enough to shield a struggling provider.
	b.rejected++
	return b.rejected%b.failureThreshold == 0
}

func (b *Breaker) record(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ok {
		b.failures = 0
		if !b.open {
			return
		}
		b.successes++
		if b.successes >= b.successThreshold {
			b.open = false
			b.successes = 0
			b.rejected = 0
		}
		return
	}

	b.successes = 0
	if b.open {
		return
	}
	b.failures++
	if b.failures >= b.failureThreshold {
		b.open = true
		b.failures = 0
		b.rejected = 0
	}
}
