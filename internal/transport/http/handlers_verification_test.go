package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"haulcheck/internal/approval"
	approvalstore "haulcheck/internal/approval/store"
	"haulcheck/internal/domain"
	"haulcheck/internal/events"
	"haulcheck/internal/storage"
	"haulcheck/internal/verification"
	"haulcheck/pkg/testutil"
)

type stubExtractor struct {
	result domain.ExtractionResult
}

func (s stubExtractor) Extract(_ context.Context, _ string, kind domain.DocumentKind) (domain.ExtractionResult, error) {
	res := s.result
	res.Kind = kind
	return res, nil
}

type stubVerifier struct {
	valid bool
}

func (s stubVerifier) Verify(_ context.Context, kind domain.DocumentKind, _ map[string]string) (domain.VerifierVerdict, error) {
	return domain.VerifierVerdict{Kind: kind, Valid: s.valid, Success: true}, nil
}

// capturePublisher records published status events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []events.StatusEvent
}

func (p *capturePublisher) PublishStatusChange(_ context.Context, event events.StatusEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) Close() {}

func (p *capturePublisher) published() []events.StatusEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.StatusEvent{}, p.events...)
}

type HandlerSuite struct {
	suite.Suite

	approvals *approval.StateMachine
	publisher *capturePublisher
	router    http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.buildStack(stubVerifier{valid: true})
}

// buildStack wires the full HTTP stack with a scripted verifier verdict.
func (s *HandlerSuite) buildStack(verifier verification.IdentityVerifier) {
	approvals, err := approval.NewStateMachine(approvalstore.NewMemory())
	s.Require().NoError(err)
	s.approvals = approvals

	entities := storage.NewInMemoryEntityStore()
	s.Require().NoError(entities.Save(context.Background(), domain.Entity{
		ID:                "trk-1",
		Name:              "Asha Transport",
		IdentifyingFields: map[string]string{"licence_number": "KA01 2034567890"},
	}))

	fields := map[string]string{
		verification.FieldLicenceNumber: "KA01 2034567890",
		verification.FieldPolicyNumber:  "3001/A-998877/00",
		verification.FieldIDNumber:      "4444 5555 6666",
		verification.FieldName:          "ASHA KUMARI",
		verification.FieldDateOfBirth:   "14/02/1991",
		verification.FieldValidTill:     "13/02/2031",
		verification.FieldInsurer:       "ACME GENERAL",
	}
	svc, err := verification.NewService(
		stubExtractor{result: domain.ExtractionResult{Fields: fields, Success: true}},
		verifier,
		entities,
		approvals,
	)
	s.Require().NoError(err)

	batch, err := verification.NewCoordinator(svc)
	s.Require().NoError(err)

	s.publisher = &capturePublisher{}
	handler := NewHandler(svc, batch, approvals, s.publisher, nil, slog.Default())
	s.router = NewRouter(handler)
}

func (s *HandlerSuite) verifyBody(kind string) map[string]string {
	return map[string]string{
		"entity_id":    "trk-1",
		"kind":         kind,
		"document_ref": "https://docs.example.com/trk-1/doc.jpg",
	}
}

func (s *HandlerSuite) TestVerifyEndpoint() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/verifications", s.verifyBody("driver_license"))
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
	s.Equal("auto_approve", (*resp)["decision"])
	s.Equal(float64(100), (*resp)["score"])
	s.Equal("in_review", (*resp)["aggregate_status"])
	s.NotEmpty((*resp)["verification_id"])

	s.Empty(s.publisher.published(), "a single approval must not publish a status change")
}

func (s *HandlerSuite) TestVerifyEndpoint_Validation() {
	s.Run("malformed body", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/v1/verifications", "{not json")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("unknown kind", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/verifications", s.verifyBody("passport"))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("bad document ref", func() {
		body := s.verifyBody("driver_license")
		body["document_ref"] = "doc.jpg"
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/verifications", body)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("unknown entity", func() {
		body := s.verifyBody("driver_license")
		body["entity_id"] = "trk-missing"
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/verifications", body)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})
}

func (s *HandlerSuite) TestVerifyEndpoint_PublishesOnStatusFlip() {
	for _, kind := range []string{"driver_license", "insurance", "national_id"} {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/verifications", s.verifyBody(kind))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
	}

	published := s.publisher.published()
	s.Require().Len(published, 1, "only the final approval flips the aggregate")
	s.Equal(domain.AggregateInReview, published[0].Previous)
	s.Equal(domain.AggregateApproved, published[0].Current)
	s.Equal("trk-1", published[0].EntityID)
}

func (s *HandlerSuite) TestVerifyEndpoint_RejectionPublishesOnce() {
	s.buildStack(stubVerifier{valid: false})

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/verifications", s.verifyBody("insurance"))
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)

	resp := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
	s.Equal("auto_reject", (*resp)["decision"])
	s.Equal("rejected", (*resp)["aggregate_status"])

	// Re-submitting the same document is idempotent and must not re-notify.
	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/verifications", s.verifyBody("insurance")))
	testutil.AssertStatusOK(s.T(), rr)

	published := s.publisher.published()
	s.Require().Len(published, 1)
	s.Equal(domain.AggregateRejected, published[0].Current)
}

func (s *HandlerSuite) TestBatchEndpoint() {
	body := map[string]any{
		"requests": []map[string]string{
			s.verifyBody("driver_license"),
			{"entity_id": "trk-1", "kind": "passport", "document_ref": "https://docs.example.com/x.jpg"},
			s.verifyBody("insurance"),
		},
	}
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/verifications/batch", body)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)

	resp := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
	items := (*resp)["items"].([]any)
	s.Require().Len(items, 3)

	first := items[0].(map[string]any)
	s.Equal("driver_license", first["kind"])
	s.NotNil(first["outcome"])

	// The bad kind fails its own item only.
	second := items[1].(map[string]any)
	s.NotEmpty(second["error"])
	s.Nil(second["outcome"])

	third := items[2].(map[string]any)
	s.NotNil(third["outcome"])

	report := (*resp)["report"].(map[string]any)
	s.Equal(float64(2), report["Approved"])
	s.Equal(float64(1), report["HardFailed"])
}

func (s *HandlerSuite) TestGetApproval() {
	s.Run("before any submission", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/v1/entities/trk-1/approval")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})

	s.Run("after a submission", func() {
		verify := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/verifications", s.verifyBody("driver_license"))
		testutil.AssertStatusOK(s.T(), testutil.DoRequest(s.router, verify))

		req := testutil.NewRequest(s.T(), http.MethodGet, "/v1/entities/trk-1/approval")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "entity_id", "trk-1")
		testutil.AssertJSONContains(s.T(), rr, "status", "in_review")
	})
}

func (s *HandlerSuite) TestReviewActions() {
	// Route a document to manual review first.
	s.buildStack(stubVerifier{valid: false})
	_, _, err := s.approvals.ApplyDecision(context.Background(), "trk-1", domain.KindDriverLicense, domain.ManualReview(), 55)
	s.Require().NoError(err)

	s.Run("unknown action", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/entities/trk-1/review", map[string]string{"action": "escalate"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("reject requires a known kind", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/entities/trk-1/review", map[string]string{"action": "reject", "kind": "passport"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("reviewer approves the pending licence", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/entities/trk-1/review", map[string]string{"action": ActionApproveDL})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)

		agg, err := s.approvals.Get(context.Background(), "trk-1")
		s.Require().NoError(err)
		s.Equal(domain.SlotApproved, agg.Slots[domain.KindDriverLicense].Status)
		s.Equal(55, agg.Slots[domain.KindDriverLicense].Score, "manual approval keeps the recorded score")
	})

	s.Run("reviewer rejects the insurance slot", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/entities/trk-1/review", map[string]string{
			"action": "reject",
			"kind":   "insurance",
			"reason": "policy document forged",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "status", "rejected")

		agg, err := s.approvals.Get(context.Background(), "trk-1")
		s.Require().NoError(err)
		s.Equal("policy document forged", agg.Slots[domain.KindInsurance].RejectionReason)
	})
}

func (s *HandlerSuite) TestReopenEndpoint() {
	_, _, err := s.approvals.ApplyDecision(context.Background(), "trk-1", domain.KindInsurance, domain.AutoReject("policy lapsed"), 85)
	s.Require().NoError(err)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/entities/trk-1/reopen", nil)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "status", "in_review")

	published := s.publisher.published()
	s.Require().Len(published, 1)
	s.Equal(domain.AggregateRejected, published[0].Previous)
	s.Equal(domain.AggregateInReview, published[0].Current)

	s.Run("reopening a non-terminal entity changes nothing", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/entities/trk-1/reopen", nil))
		testutil.AssertStatusOK(s.T(), rr)
		s.Len(s.publisher.published(), 1)
	})

	s.Run("reopening an unknown entity is a 404", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/entities/trk-none/reopen", nil))
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})
}
