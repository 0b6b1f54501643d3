package verification

import (
	"context"

	"haulcheck/internal/domain"
)

// DocumentExtractor wraps the external OCR capability. A document that simply
// lacks expected fields yields Success=false (or a partial field set), not an
// error; errors are reserved for infrastructure failures and are folded into
// Success=false by the orchestrator.
type DocumentExtractor interface {
	Extract(ctx context.Context, documentRef string, kind domain.DocumentKind) (domain.ExtractionResult, error)
}

// IdentityVerifier wraps the third-party identity/license verification API.
// Network and provider errors surface as Success=false verdicts.
type IdentityVerifier interface {
	Verify(ctx context.Context, kind domain.DocumentKind, identifyingFields map[string]string) (domain.VerifierVerdict, error)
}

// EntityStore supplies the entity's identifying fields to the orchestrator.
// Implementations return sentinel.ErrNotFound for unknown entities.
type EntityStore interface {
	Find(ctx context.Context, entityID string) (*domain.Entity, error)
}
