package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher hands audit events to the background worker without blocking the
// verification path. When the inbox is full the event is dropped with a
// warning; the audit trail is best-effort, the decision itself is already
// persisted in the aggregate.
type Publisher struct {
	inbox  chan<- Event
	logger *slog.Logger
}

func NewPublisher(inbox chan<- Event, logger *slog.Logger) *Publisher {
	return &Publisher{inbox: inbox, logger: logger}
}

func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit inbox full, event dropped",
				"entity_id", event.EntityID,
				"verification_id", event.VerificationID,
			)
		}
	}
}
