package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	retrievalTotal         *prometheus.CounterVec
	retrievalDuration      *prometheus.HistogramVec
	retrievalEvidenceItems *prometheus.HistogramVec
	retrievalConfidence    *prometheus.HistogramVec
	branchFailuresTotal    *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexora",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nexora",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nexora",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	retrievalTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexora",
			Subsystem: "retrieval",
			Name:      "requests_total",
			Help:      "Total retrieval requests by outcome.",
		},
		[]string{"service", "outcome"},
	)
	retrievalDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nexora",
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "End-to-end retrieval duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	retrievalEvidenceItems := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nexora",
			Subsystem: "retrieval",
			Name:      "evidence_items",
			Help:      "Distribution of merged evidence items per request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
		},
		[]string{"service"},
	)
	retrievalConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nexora",
			Subsystem: "retrieval",
			Name:      "confidence",
			Help:      "Distribution of answer confidence scores.",
			Buckets:   []float64{0, 33, 50, 70, 85, 95},
		},
		[]string{"service"},
	)
	branchFailuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexora",
			Subsystem: "retrieval",
			Name:      "branch_failures_total",
			Help:      "Total failed retrieval branches by branch name.",
		},
		[]string{"service", "branch"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		retrievalTotal,
		retrievalDuration,
		retrievalEvidenceItems,
		retrievalConfidence,
		branchFailuresTotal,
	)

	return &HTTPServerMetrics{
		registry:               registry,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		retrievalTotal:         retrievalTotal,
		retrievalDuration:      retrievalDuration,
		retrievalEvidenceItems: retrievalEvidenceItems,
		retrievalConfidence:    retrievalConfidence,
		branchFailuresTotal:    branchFailuresTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

// RecordRetrieval observes one completed retrieval request. Outcome is
// "answered" or "not_found".
func (m *HTTPServerMetrics) RecordRetrieval(service, outcome string, evidenceItems, confidence int, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.retrievalTotal.WithLabelValues(service, outcome).Inc()
	m.retrievalDuration.WithLabelValues(service).Observe(duration.Seconds())
	m.retrievalEvidenceItems.WithLabelValues(service).Observe(float64(evidenceItems))
	m.retrievalConfidence.WithLabelValues(service).Observe(float64(confidence))
}

func (m *HTTPServerMetrics) RecordBranchFailure(service, branch string) {
	if branch == "" {
		branch = "unknown"
	}
	m.branchFailuresTotal.WithLabelValues(service, branch).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
