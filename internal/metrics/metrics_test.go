package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareRecordsRoutePatternAndCode(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/items/{id}", "418"))
	beforeOK := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/ok", "200"))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/2", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.Equal(t, before+2, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/items/{id}", "418")))
	assert.Equal(t, beforeOK+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/ok", "200")))
	assert.Positive(t, testutil.CollectAndCount(httpRequestDuration))
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(uploadsTotal.WithLabelValues("accepted", ".png"))
	UploadsTotal("accepted", ".png")
	assert.Equal(t, before+1, testutil.ToFloat64(uploadsTotal.WithLabelValues("accepted", ".png")))

	before = testutil.ToFloat64(providerRequestsTotal.WithLabelValues("gemini", "content_blocked"))
	ProviderRequestsTotal("gemini", "content_blocked")
	assert.Equal(t, before+1, testutil.ToFloat64(providerRequestsTotal.WithLabelValues("gemini", "content_blocked")))

	before = testutil.ToFloat64(stagedCleanupTotal.WithLabelValues("removed"))
	StagedCleanupTotal("removed")
	assert.Equal(t, before+1, testutil.ToFloat64(stagedCleanupTotal.WithLabelValues("removed")))
}
