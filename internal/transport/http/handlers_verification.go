package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"haulcheck/internal/approval"
	"haulcheck/internal/audit"
	"haulcheck/internal/domain"
	"haulcheck/internal/events"
	"haulcheck/internal/verification"
	"haulcheck/pkg/platform/sentinel"
)

// Review actions accepted by the manual-review endpoint. Each maps to an
// explicit document kind and decision; the reject action carries its kind in
// the request body.
const (
	ActionApproveDL        = "approve-dl"
	ActionApproveInsurance = "approve-insurance"
	ActionApproveID        = "approve-id"
	ActionReject           = "reject"
)

// Handler exposes the verification engine over HTTP. Status-change events
// are published here, edge-triggered on the transitions the engine reports.
type Handler struct {
	verifier  *verification.Service
	batch     *verification.Coordinator
	approvals *approval.StateMachine
	events    events.Publisher
	auditor   *audit.Publisher
	logger    *slog.Logger
}

func NewHandler(
	verifier *verification.Service,
	batch *verification.Coordinator,
	approvals *approval.StateMachine,
	publisher events.Publisher,
	auditor *audit.Publisher,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		verifier:  verifier,
		batch:     batch,
		approvals: approvals,
		events:    publisher,
		auditor:   auditor,
		logger:    logger,
	}
}

type verifyRequest struct {
	EntityID    string `json:"entity_id"`
	Kind        string `json:"kind"`
	DocumentRef string `json:"document_ref"`
}

type verifyResponse struct {
	VerificationID  string         `json:"verification_id"`
	EntityID        string         `json:"entity_id"`
	Kind            string         `json:"kind"`
	Score           int            `json:"score"`
	Decision        string         `json:"decision"`
	Reason          string         `json:"reason,omitempty"`
	Note            string         `json:"note,omitempty"`
	AggregateStatus string         `json:"aggregate_status"`
	ExtractedFields map[string]string `json:"extracted_fields,omitempty"`
	EvaluatedAt     time.Time      `json:"evaluated_at"`
}

func toVerifyResponse(outcome domain.VerificationOutcome) verifyResponse {
	return verifyResponse{
		VerificationID:  outcome.VerificationID,
		EntityID:        outcome.EntityID,
		Kind:            outcome.Kind.String(),
		Score:           outcome.Score,
		Decision:        string(outcome.Decision.Status),
		Reason:          outcome.Decision.Reason,
		Note:            outcome.Note,
		AggregateStatus: string(outcome.AggregateStatus),
		ExtractedFields: outcome.Extraction.Fields,
		EvaluatedAt:     outcome.EvaluatedAt,
	}
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", sentinel.ErrInvalidInput))
		return
	}
	kind, err := domain.ParseDocumentKind(req.Kind)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", sentinel.ErrInvalidInput, err))
		return
	}

	result, err := h.verifier.Verify(ctx, verification.Request{
		EntityID:    req.EntityID,
		Kind:        kind,
		DocumentRef: req.DocumentRef,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "verification failed",
			"entity_id", req.EntityID,
			"kind", req.Kind,
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}

	h.publishTransition(ctx, result.Outcome.EntityID, result.Transition, kind, result.Outcome.Decision.Status)
	writeJSON(w, http.StatusOK, toVerifyResponse(result.Outcome))
}

type batchRequest struct {
	Requests []verifyRequest `json:"requests"`
}

type batchItemResponse struct {
	EntityID string          `json:"entity_id"`
	Kind     string          `json:"kind"`
	Outcome  *verifyResponse `json:"outcome,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type batchResponse struct {
	Items  []batchItemResponse `json:"items"`
	Report verification.Report `json:"report"`
}

func (h *Handler) handleVerifyBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", sentinel.ErrInvalidInput))
		return
	}

	// Kinds are passed through unparsed: a bad kind fails its own item inside
	// the coordinator and must not reject the whole batch.
	requests := make([]verification.Request, len(req.Requests))
	for i, item := range req.Requests {
		requests[i] = verification.Request{
			EntityID:    item.EntityID,
			Kind:        domain.DocumentKind(item.Kind),
			DocumentRef: item.DocumentRef,
		}
	}

	items := h.batch.VerifyBatch(ctx, requests)

	resp := batchResponse{
		Items:  make([]batchItemResponse, len(items)),
		Report: verification.Summarize(items),
	}
	for i, item := range items {
		out := batchItemResponse{
			EntityID: item.Request.EntityID,
			Kind:     item.Request.Kind.String(),
		}
		if item.Err != nil {
			out.Error = item.Err.Error()
		} else {
			response := toVerifyResponse(item.Result.Outcome)
			out.Outcome = &response
			h.publishTransition(ctx, item.Request.EntityID, item.Result.Transition, item.Request.Kind, item.Result.Outcome.Decision.Status)
		}
		resp.Items[i] = out
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetApproval(w http.ResponseWriter, r *http.Request) {
	aggregate, err := h.approvals.Get(r.Context(), chi.URLParam(r, "entityID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, aggregate)
}

type reviewRequest struct {
	Action string `json:"action"`
	Kind   string `json:"kind,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// handleReviewAction applies a human reviewer's resolution of a pending
// manual review through the same state machine path as automated decisions.
func (h *Handler) handleReviewAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entityID := chi.URLParam(r, "entityID")

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", sentinel.ErrInvalidInput))
		return
	}

	kind, decision, err := mapReviewAction(req)
	if err != nil {
		writeError(w, err)
		return
	}

	// Manual resolutions keep the slot's last recorded confidence score.
	current, err := h.approvals.Get(ctx, entityID)
	if err != nil {
		writeError(w, err)
		return
	}
	score := current.Slots[kind].Score

	aggregate, transition, err := h.approvals.ApplyDecision(ctx, entityID, kind, decision, score)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.auditor != nil && transition.SlotChanged {
		h.auditor.Emit(ctx, audit.Event{
			EntityID:        entityID,
			Kind:            kind,
			Decision:        decision.Status,
			Score:           score,
			AggregateStatus: aggregate.Status,
			Actor:           audit.ActorReviewer,
		})
	}
	h.publishTransition(ctx, entityID, transition, kind, decision.Status)

	writeJSON(w, http.StatusOK, aggregate)
}

func mapReviewAction(req reviewRequest) (domain.DocumentKind, domain.Decision, error) {
	switch req.Action {
	case ActionApproveDL:
		return domain.KindDriverLicense, manualApproval(), nil
	case ActionApproveInsurance:
		return domain.KindInsurance, manualApproval(), nil
	case ActionApproveID:
		return domain.KindNationalID, manualApproval(), nil
	case ActionReject:
		kind, err := domain.ParseDocumentKind(req.Kind)
		if err != nil {
			return "", domain.Decision{}, fmt.Errorf("%w: %v", sentinel.ErrInvalidInput, err)
		}
		reason := req.Reason
		if reason == "" {
			reason = "rejected by reviewer"
		}
		return kind, domain.AutoReject(reason), nil
	default:
		return "", domain.Decision{}, fmt.Errorf("%w: unknown review action %q", sentinel.ErrInvalidInput, req.Action)
	}
}

func manualApproval() domain.Decision {
	return domain.Decision{Status: domain.DecisionAutoApprove, Reason: "approved by reviewer"}
}

// handleReopen resets a terminal aggregate back to in-review so the entity
// can re-apply. Administrative operation.
func (h *Handler) handleReopen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entityID := chi.URLParam(r, "entityID")

	aggregate, transition, err := h.approvals.Reopen(ctx, entityID)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.auditor != nil && transition.StatusChanged {
		h.auditor.Emit(ctx, audit.Event{
			EntityID:        entityID,
			AggregateStatus: aggregate.Status,
			Actor:           audit.ActorAdmin,
		})
	}
	h.publishTransition(ctx, entityID, transition, "", "")

	writeJSON(w, http.StatusOK, aggregate)
}

// publishTransition emits a status-change event only when the aggregate
// status actually moved.
func (h *Handler) publishTransition(ctx context.Context, entityID string, tr approval.Transition, kind domain.DocumentKind, decision domain.DecisionStatus) {
	if !tr.StatusChanged || h.events == nil {
		return
	}
	err := h.events.PublishStatusChange(ctx, events.StatusEvent{
		EntityID: entityID,
		Previous: tr.Previous,
		Current:  tr.Current,
		Kind:     kind,
		Decision: decision,
		At:       time.Now(),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "status event publish failed",
			"entity_id", entityID,
			"error", err.Error(),
		)
	}
}
