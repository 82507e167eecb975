package prometheus

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/schradermade/hvac-ai-sub002/pkg/config"
)

var (
	// Ingestion metrics
	IngestCounter          *prometheus.CounterVec
	IdempotentReplayCount  prometheus.Counter
	IngestConflictCounter  prometheus.Counter
	ValidationErrorCounter *prometheus.CounterVec

	// Chat/orchestration metrics
	ChatRequestCounter    prometheus.Counter
	ChatDurationHistogram prometheus.Histogram
	EvidenceCountHist     prometheus.Histogram

	// Retrieval metrics
	VectorQueryCounter    prometheus.Counter
	VectorFallbackCounter prometheus.Counter
	VectorErrorCounter    prometheus.Counter

	// Reindex metrics
	ReindexCounter     *prometheus.CounterVec
	ReindexJobsTouched *prometheus.CounterVec

	// Request metrics
	RequestCounter           *prometheus.CounterVec
	RequestDurationHistogram *prometheus.HistogramVec

	// Namespace prefix for metrics
	namespace string

	initOnce sync.Once
)

// InitMetrics initializes all Prometheus metrics. Registration happens once
// per process; repeated calls (e.g. from tests) are no-ops.
func InitMetrics(cfg *config.Config) {
	initOnce.Do(func() { register(cfg) })
}

func register(cfg *config.Config) {
	namespace = cfg.Metrics.Prefix

	IngestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_total",
			Help:      "Total number of ingested records by entity type",
		},
		[]string{"entity"},
	)

	IdempotentReplayCount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_idempotent_replay_total",
		Help:      "Total number of note creations answered from an idempotency-key replay",
	})

	IngestConflictCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_conflict_total",
		Help:      "Total number of idempotency-key write conflicts that were not clean replays",
	})

	ValidationErrorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_validation_error_total",
			Help:      "Total number of ingestion validation failures by entity type",
		},
		[]string{"entity"},
	)

	ChatRequestCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_request_total",
		Help:      "Total number of chat requests handled",
	})

	ChatDurationHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "chat_duration_seconds",
		Help:      "End-to-end duration of chat requests in seconds",
		Buckets:   prometheus.DefBuckets,
	})

	EvidenceCountHist = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "chat_evidence_items",
		Help:      "Number of evidence items supplied to the model per chat request",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
	})

	VectorQueryCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vector_query_total",
		Help:      "Total number of vector retrieval queries",
	})

	VectorFallbackCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vector_fallback_total",
		Help:      "Total number of vector queries that used the unfiltered fallback path",
	})

	VectorErrorCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vector_error_total",
		Help:      "Total number of vector retrievals degraded to empty results by provider errors",
	})

	ReindexCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reindex_total",
			Help:      "Total number of reindex operations by scope and outcome",
		},
		[]string{"scope", "outcome"},
	)

	ReindexJobsTouched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reindex_jobs_touched_total",
			Help:      "Total number of job index rows recomputed by scope",
		},
		[]string{"scope"},
	)

	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestDurationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
}

// Middleware creates an Echo middleware function that records HTTP request metrics
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := strconv.Itoa(c.Response().Status)
			method := c.Request().Method
			path := c.Path()

			RequestCounter.WithLabelValues(method, path, status).Inc()
			RequestDurationHistogram.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
