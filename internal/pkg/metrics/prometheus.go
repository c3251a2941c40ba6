package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "altseo"

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Quota gate metrics
	quotaDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quota",
			Name:      "decisions_total",
			Help:      "Quota gate decisions by plan and outcome",
		},
		[]string{"plan", "outcome"},
	)

	quotaIncrementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quota",
			Name:      "increments_total",
			Help:      "Usage counter increments by status",
		},
		[]string{"status"},
	)

	planCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quota",
			Name:      "plan_cache_lookups_total",
			Help:      "Plan cache lookups by result",
		},
		[]string{"result"},
	)

	// Webhook metrics
	webhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "events_total",
			Help:      "Subscription webhook events by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// AI metrics
	aiGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "generations_total",
			Help:      "Alt text generations by status",
		},
		[]string{"status"},
	)

	aiGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "generation_duration_seconds",
			Help:      "Duration of alt text generation calls in seconds",
			Buckets:   []float64{.25, .5, 1, 2, 5, 10, 20, 30},
		},
	)

	// Upload and storage metrics
	uploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "size_bytes",
			Help:      "Size of accepted uploads in bytes",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 4, 8),
		},
	)

	uploadRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "rejections_total",
			Help:      "Uploads rejected by the validators, by stage",
		},
		[]string{"stage"},
	)

	storageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Object storage operations by backend, operation and status",
		},
		[]string{"backend", "op", "status"},
	)

	// Retention metrics
	retentionPrunedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retention",
			Name:      "pruned_rows_total",
			Help:      "Rows removed by the retention job, by table",
		},
		[]string{"table"},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "table"},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}

		status := strconv.Itoa(wrapped.statusCode)
		duration := time.Since(start).Seconds()

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(duration)
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordQuotaDecision records an allow/deny decision of the quota gate
func RecordQuotaDecision(plan, outcome string) {
	quotaDecisionsTotal.WithLabelValues(plan, outcome).Inc()
}

// RecordQuotaIncrement records a usage counter increment
func RecordQuotaIncrement(status string) {
	quotaIncrementsTotal.WithLabelValues(status).Inc()
}

// RecordPlanCacheLookup records a plan cache hit or miss
func RecordPlanCacheLookup(hit bool) {
	if hit {
		planCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	planCacheLookups.WithLabelValues("miss").Inc()
}

// RecordWebhookEvent records a dispatched subscription event
func RecordWebhookEvent(kind, outcome string) {
	webhookEventsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordAIGeneration records an alt text generation call
func RecordAIGeneration(status string, duration time.Duration) {
	aiGenerationsTotal.WithLabelValues(status).Inc()
	aiGenerationDuration.Observe(duration.Seconds())
}

// RecordUpload records the size of an accepted upload
func RecordUpload(size int64) {
	uploadBytes.Observe(float64(size))
}

// RecordUploadRejection records an upload rejected at the given validation stage
func RecordUploadRejection(stage string) {
	uploadRejectionsTotal.WithLabelValues(stage).Inc()
}

// RecordStorageOperation records an object storage call
func RecordStorageOperation(backend, op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	storageOperationsTotal.WithLabelValues(backend, op, status).Inc()
}

// RecordRetentionPruned records rows removed by the retention job
func RecordRetentionPruned(table string, rows int64) {
	retentionPrunedTotal.WithLabelValues(table).Add(float64(rows))
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation, table string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}
