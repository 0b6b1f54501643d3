package verification

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"haulcheck/internal/domain"
)

const defaultBatchWorkers = 4

// BatchItem is the per-request result of a batch run: either a Result or the
// hard error that request hit. Order matches the input slice.
type BatchItem struct {
	Request Request
	Result  *Result
	Err     error
}

// Report aggregates a batch run for operational visibility.
type Report struct {
	Approved      int
	Rejected      int
	PendingReview int
	HardFailed    int
}

// Coordinator runs the verification pipeline across a batch of requests with
// bounded parallelism, isolating failures between independent requests.
type Coordinator struct {
	svc     *Service
	workers int
	logger  *slog.Logger
}

type CoordinatorOption func(*Coordinator)

// WithWorkers sets the fan-out bound. Kept small by default to respect the
// external verifier's rate limits.
func WithWorkers(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n > 0 {
			c.workers = n
		}
	}
}

func WithBatchLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

func NewCoordinator(svc *Service, opts ...CoordinatorOption) (*Coordinator, error) {
	if svc == nil {
		return nil, fmt.Errorf("verification service is required")
	}
	c := &Coordinator{svc: svc, workers: defaultBatchWorkers}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// VerifyBatch processes every request through the orchestrator. One request's
// hard error is captured on its item and does not abort the rest; results
// preserve input order.
func (c *Coordinator) VerifyBatch(ctx context.Context, requests []Request) []BatchItem {
	items := make([]BatchItem, len(requests))

	g := &errgroup.Group{}
	g.SetLimit(c.workers)

	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			result, err := c.svc.Verify(ctx, req)
			items[i] = BatchItem{Request: req, Result: result, Err: err}

			c.svc.metrics.IncrementBatchItem(batchResultLabel(err))
			if err != nil && c.logger != nil {
				c.logger.WarnContext(ctx, "batch item failed",
					"entity_id", req.EntityID,
					"kind", req.Kind.String(),
					"error", err.Error(),
				)
			}
			return nil
		})
	}

	// Item errors are captured per slot; Wait only synchronizes.
	_ = g.Wait()

	return items
}

func batchResultLabel(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}

// Summarize derives the operational report from a batch run.
func Summarize(items []BatchItem) Report {
	var report Report
	for _, item := range items {
		if item.Err != nil {
			report.HardFailed++
			continue
		}
		switch item.Result.Outcome.Decision.Status {
		case domain.DecisionAutoApprove:
			report.Approved++
		case domain.DecisionAutoReject:
			report.Rejected++
		default:
			report.PendingReview++
		}
	}
	return report
}
