package verification

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"haulcheck/internal/approval"
	"haulcheck/internal/audit"
	"haulcheck/internal/domain"
	"haulcheck/internal/verification/metrics"
	"haulcheck/pkg/platform/sentinel"
)

// NoteManualFallback is reported when neither signal could be gathered. This
// is an expected, policy-covered path, not an exceptional one.
const NoteManualFallback = "unable to automatically verify; routed to manual review"

const defaultSignalTimeout = 10 * time.Second

// Request identifies one document submission to verify.
type Request struct {
	EntityID    string
	Kind        domain.DocumentKind
	DocumentRef string
}

// Result pairs the verification outcome with the updated aggregate and the
// transition that the decision caused. Callers dispatch notifications only
// when Transition.StatusChanged.
type Result struct {
	Outcome    domain.VerificationOutcome
	Aggregate  *approval.Aggregate
	Transition approval.Transition
}

// Service is the composition root for single-document verification: it runs
// extractor and verifier concurrently, blends their signals into a confidence
// score, decides, and applies the decision to the approval state machine
// exactly once.
type Service struct {
	extractor DocumentExtractor
	verifier  IdentityVerifier
	entities  EntityStore
	approvals *approval.StateMachine

	auditor       *audit.Publisher
	metrics       *metrics.Metrics
	logger        *slog.Logger
	tracer        trace.Tracer
	signalTimeout time.Duration
}

type ServiceOption func(*Service)

func WithAudit(auditor *audit.Publisher) ServiceOption {
	return func(s *Service) {
		s.auditor = auditor
	}
}

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithSignalTimeout bounds each extractor/verifier call. Exceeding it is
// folded into success=false, not an error.
func WithSignalTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.signalTimeout = d
		}
	}
}

func NewService(
	extractor DocumentExtractor,
	verifier IdentityVerifier,
	entities EntityStore,
	approvals *approval.StateMachine,
	opts ...ServiceOption,
) (*Service, error) {
	if extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("verifier is required")
	}
	if entities == nil {
		return nil, fmt.Errorf("entity store is required")
	}
	if approvals == nil {
		return nil, fmt.Errorf("approval state machine is required")
	}

	svc := &Service{
		extractor:     extractor,
		verifier:      verifier,
		entities:      entities,
		approvals:     approvals,
		tracer:        otel.Tracer("haulcheck/verification"),
		signalTimeout: defaultSignalTimeout,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Verify runs the full pipeline for one document submission.
//
// The two external calls are independent and run concurrently; a failure or
// timeout in either is captured as a success=false signal, never as an error,
// because the decision policy handles partial failure by falling to manual
// review. Hard errors are limited to a malformed document reference
// (sentinel.ErrInvalidInput) and an unknown entity (sentinel.ErrNotFound).
// If ctx is cancelled before both signals resolve, no aggregate mutation
// happens.
func (s *Service) Verify(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "verification.verify", trace.WithAttributes(
		attribute.String("entity_id", req.EntityID),
		attribute.String("document_kind", req.Kind.String()),
	))
	defer span.End()

	if err := validateDocumentRef(req.DocumentRef); err != nil {
		return nil, err
	}
	if _, err := domain.ParseDocumentKind(req.Kind.String()); err != nil {
		return nil, fmt.Errorf("%w: %v", sentinel.ErrInvalidInput, err)
	}

	entity, err := s.entities.Find(ctx, req.EntityID)
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", req.EntityID, err)
	}

	extraction, verdict := s.gatherSignals(ctx, entity, req)

	// A cancelled verify never applies a decision.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	score := Score(req.Kind, extraction, verdict)
	decision := Decide(req.Kind, score, verdict)

	note := ""
	if !extraction.Success && !verdict.Success {
		note = NoteManualFallback
	}

	aggregate, transition, err := s.approvals.ApplyDecision(ctx, req.EntityID, req.Kind, decision, score)
	if err != nil {
		return nil, err
	}

	outcome := domain.VerificationOutcome{
		VerificationID:  uuid.NewString(),
		EntityID:        req.EntityID,
		Kind:            req.Kind,
		Extraction:      extraction,
		Verdict:         verdict,
		Score:           score,
		Decision:        decision,
		Note:            note,
		AggregateStatus: aggregate.Status,
		EvaluatedAt:     time.Now(),
	}

	span.SetAttributes(
		attribute.Int("confidence_score", score),
		attribute.String("decision", string(decision.Status)),
		attribute.String("aggregate_status", string(aggregate.Status)),
	)
	s.metrics.IncrementDecision(req.Kind.String(), string(decision.Status))
	s.metrics.ObserveVerifyLatency(time.Since(start))

	if s.auditor != nil && transition.SlotChanged {
		s.auditor.Emit(ctx, audit.Event{
			VerificationID:  outcome.VerificationID,
			EntityID:        req.EntityID,
			Kind:            req.Kind,
			Decision:        decision.Status,
			Score:           score,
			AggregateStatus: aggregate.Status,
			Actor:           audit.ActorEngine,
		})
	}

	return &Result{Outcome: outcome, Aggregate: aggregate, Transition: transition}, nil
}

// gatherSignals issues the extractor and verifier calls concurrently, each
// under its own timeout. Failures are folded into success=false results.
func (s *Service) gatherSignals(ctx context.Context, entity *domain.Entity, req Request) (domain.ExtractionResult, domain.VerifierVerdict) {
	extraction := domain.ExtractionResult{Kind: req.Kind}
	verdict := domain.VerifierVerdict{Kind: req.Kind}

	g := &errgroup.Group{}

	g.Go(func() error {
		cctx, cancel := context.WithTimeout(ctx, s.signalTimeout)
		defer cancel()

		start := time.Now()
		res, err := s.extractor.Extract(cctx, req.DocumentRef, req.Kind)
		s.metrics.ObserveSignalLatency("extractor", time.Since(start))
		if err != nil {
			s.logWarn(ctx, "extraction failed", req, err)
			return nil
		}
		extraction = res
		return nil
	})

	g.Go(func() error {
		cctx, cancel := context.WithTimeout(ctx, s.signalTimeout)
		defer cancel()

		start := time.Now()
		res, err := s.verifier.Verify(cctx, req.Kind, entity.IdentifyingFields)
		s.metrics.ObserveSignalLatency("verifier", time.Since(start))
		if err != nil {
			s.logWarn(ctx, "verifier call failed", req, err)
			return nil
		}
		verdict = res
		return nil
	})

	// Goroutines never return errors; failures become success=false signals.
	_ = g.Wait()

	return extraction, verdict
}

func (s *Service) logWarn(ctx context.Context, msg string, req Request, err error) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg,
			"entity_id", req.EntityID,
			"kind", req.Kind.String(),
			"error", err.Error(),
		)
	}
}

// validateDocumentRef rejects references that cannot possibly resolve: the
// engine expects an absolute URL pointing at the stored document image.
func validateDocumentRef(ref string) error {
	if ref == "" {
		return fmt.Errorf("%w: document reference is required", sentinel.ErrInvalidInput)
	}
	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: malformed document reference %q", sentinel.ErrInvalidInput, ref)
	}
	return nil
}
