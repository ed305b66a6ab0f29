package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	namespace = "captioner"

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Number of received uploads by validation status",
		},
		[]string{"status", "file_format"},
	)

	uploadSizeBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_size_bytes",
			Help:      "Size of accepted uploads",
			Buckets:   prometheus.ExponentialBuckets(16<<10, 4, 7),
		},
		[]string{"file_format"},
	)

	providerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Number of caption provider calls by outcome",
		},
		[]string{"provider", "outcome"},
	)

	providerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Caption provider call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"provider", "outcome"},
	)

	stagedCleanupTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "staged_cleanup_total",
			Help:      "Staged file deletions by result",
		},
		[]string{"result"},
	)
)

func HttpRequestsTotal(method, path, code string) {
	httpRequestsTotal.With(prometheus.Labels{
		"method": method,
		"path":   path,
		"code":   code,
	}).Inc()
}

func HttpRequestDuration(method, path string, duration time.Duration) {
	httpRequestDuration.With(prometheus.Labels{
		"method": method,
		"path":   path,
	}).Observe(duration.Seconds())
}

func UploadsTotal(status, fileFormat string) {
	uploadsTotal.With(prometheus.Labels{
		"status":      status,
		"file_format": fileFormat,
	}).Inc()
}

func UploadSize(fileFormat string, size int64) {
	uploadSizeBytes.With(prometheus.Labels{
		"file_format": fileFormat,
	}).Observe(float64(size))
}

func ProviderRequestsTotal(provider, outcome string) {
	providerRequestsTotal.With(prometheus.Labels{
		"provider": provider,
		"outcome":  outcome,
	}).Inc()
}

func ProviderRequestDuration(provider, outcome string, duration time.Duration) {
	providerRequestDuration.With(prometheus.Labels{
		"provider": provider,
		"outcome":  outcome,
	}).Observe(duration.Seconds())
}

func StagedCleanupTotal(result string) {
	stagedCleanupTotal.With(prometheus.Labels{
		"result": result,
	}).Inc()
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		path := routePattern(r)
		HttpRequestsTotal(r.Method, path, strconv.Itoa(ww.status))
		HttpRequestDuration(r.Method, path, duration)
	})
}

// routePattern keeps label cardinality bounded (e.g. /swagger/*).
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

type statusResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
