package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"haulcheck/pkg/testutil"
)

func TestRouter_OperationalEndpoints(t *testing.T) {
	router := NewRouter(NewHandler(nil, nil, nil, nil, nil, nil))

	testutil.Given(t, "the HTTP router", func(t *testing.T) {
		testutil.When(t, "calling GET /healthz", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))

			testutil.Then(t, "it reports healthy", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
			})
		})

		testutil.When(t, "calling GET /metrics", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))

			testutil.Then(t, "it serves the Prometheus registry", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				assert.NotEmpty(t, testutil.ReadBody(t, rr))
			})
		})

		testutil.When(t, "calling an unknown route", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/v2/nothing"))

			testutil.Then(t, "it responds not found", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusNotFound)
			})
		})
	})
}
