package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIMetrics collects the request-level and retrieval-level series for the
// HTTP front end. Each instance owns its registry so tests can run side by
// side without duplicate-registration panics.
type APIMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	ragRequestsTotal     *prometheus.CounterVec
	ragRetrievalHitTotal prometheus.Counter
	ragNoContextTotal    prometheus.Counter
	ragRetrievedChunks   prometheus.Histogram
	ragConfidence        prometheus.Histogram
	ragDuration          prometheus.Histogram
}

func NewAPIMetrics(service string) *APIMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintel",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docintel",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "docintel",
			Subsystem:   "http",
			Name:        "in_flight_requests",
			Help:        "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	ragRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "docintel",
			Subsystem:   "rag",
			Name:        "requests_total",
			Help:        "Total answered retrieval queries by persona.",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"persona"},
	)
	ragRetrievalHitTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "docintel",
			Subsystem:   "rag",
			Name:        "retrieval_hit_total",
			Help:        "Total queries with at least one retrieved source.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	ragNoContextTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "docintel",
			Subsystem:   "rag",
			Name:        "no_context_total",
			Help:        "Total queries answered without retrieved sources.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	ragRetrievedChunks := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "docintel",
			Subsystem:   "rag",
			Name:        "retrieved_chunks",
			Help:        "Distribution of retrieved chunks per answered query.",
			Buckets:     []float64{0, 1, 2, 3, 5, 8, 13, 21},
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	ragConfidence := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "docintel",
			Subsystem:   "rag",
			Name:        "answer_confidence",
			Help:        "Distribution of answer confidence scores.",
			Buckets:     []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	ragDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "docintel",
			Subsystem:   "rag",
			Name:        "duration_seconds",
			Help:        "End-to-end query duration in seconds.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: prometheus.Labels{"service": service},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		ragRequestsTotal,
		ragRetrievalHitTotal,
		ragNoContextTotal,
		ragRetrievedChunks,
		ragConfidence,
		ragDuration,
	)

	return &APIMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		ragRequestsTotal:     ragRequestsTotal,
		ragRetrievalHitTotal: ragRetrievalHitTotal,
		ragNoContextTotal:    ragNoContextTotal,
		ragRetrievedChunks:   ragRetrievedChunks,
		ragConfidence:        ragConfidence,
		ragDuration:          ragDuration,
	}
}

func (m *APIMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Middleware records the request counters around the wrapped handler.
func (m *APIMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(service, r.Method, path, strconv.Itoa(recorder.statusCode)).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses id-bearing paths so the label set stays bounded.
func normalizePath(path string) string {
	if strings.HasPrefix(path, "/v1/documents/") {
		return "/v1/documents/{document_id}"
	}
	return path
}

// RecordQuery tracks one answered retrieval query.
func (m *APIMetrics) RecordQuery(persona string, sourceCount int, confidence float64, duration time.Duration) {
	if persona == "" {
		persona = "plain"
	}
	m.ragRequestsTotal.WithLabelValues(persona).Inc()
	m.ragRetrievedChunks.Observe(float64(sourceCount))
	m.ragConfidence.Observe(confidence)
	m.ragDuration.Observe(duration.Seconds())

	if sourceCount > 0 {
		m.ragRetrievalHitTotal.Inc()
		return
	}
	m.ragNoContextTotal.Inc()
}
