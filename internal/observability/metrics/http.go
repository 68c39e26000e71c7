package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	chatAnswersTotal  *prometheus.CounterVec
	chatOutcomesTotal *prometheus.CounterVec
	chatBestScore     *prometheus.HistogramVec
	chatSources       *prometheus.HistogramVec
	chatDuration      *prometheus.HistogramVec

	reindexRunsTotal    *prometheus.CounterVec
	reindexRecordsTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "faq",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "faq",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "faq",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chatAnswersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "faq",
			Subsystem: "chat",
			Name:      "answers_total",
			Help:      "Answered chat requests by mode, confidence and generation path.",
		},
		[]string{"service", "mode", "confidence", "path"},
	)
	chatOutcomesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "faq",
			Subsystem: "chat",
			Name:      "rejections_total",
			Help:      "Chat requests rejected before answering, by reason.",
		},
		[]string{"service", "reason"},
	)
	chatBestScore := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "faq",
			Subsystem: "chat",
			Name:      "best_score",
			Help:      "Similarity score of the best candidate per answered request.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.75, 0.8, 0.9, 1},
		},
		[]string{"service"},
	)
	chatSources := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "faq",
			Subsystem: "chat",
			Name:      "sources",
			Help:      "Candidates returned per answered request.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	chatDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "faq",
			Subsystem: "chat",
			Name:      "duration_seconds",
			Help:      "Chat orchestration duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "mode"},
	)
	reindexRunsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "faq",
			Subsystem: "reindex",
			Name:      "runs_total",
			Help:      "Reindex runs by source and status.",
		},
		[]string{"service", "source", "status"},
	)
	reindexRecordsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "faq",
			Subsystem: "reindex",
			Name:      "records_total",
			Help:      "Records handled by reindex runs, upserted or skipped.",
		},
		[]string{"service", "source", "result"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		chatAnswersTotal,
		chatOutcomesTotal,
		chatBestScore,
		chatSources,
		chatDuration,
		reindexRunsTotal,
		reindexRecordsTotal,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		chatAnswersTotal:    chatAnswersTotal,
		chatOutcomesTotal:   chatOutcomesTotal,
		chatBestScore:       chatBestScore,
		chatSources:         chatSources,
		chatDuration:        chatDuration,
		reindexRunsTotal:    reindexRunsTotal,
		reindexRecordsTotal: reindexRecordsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		path := routeLabel(r.URL.Path)
		m.requestTotal.WithLabelValues(service, r.Method, path, strconv.Itoa(recorder.statusCode)).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// routeLabel keeps label cardinality bounded to the known routes.
func routeLabel(path string) string {
	switch path {
	case "/chat", "/reindex", "/health", "/metrics":
		return path
	default:
		return "other"
	}
}

// RecordChatAnswer records one answered chat request. generated and degraded
// describe the generation path: echo, generated or degraded.
func (m *HTTPServerMetrics) RecordChatAnswer(
	service, mode, confidence string,
	generated, degraded bool,
	bestScore float64,
	sources int,
	duration time.Duration,
) {
	path := "echo"
	switch {
	case degraded:
		path = "degraded"
	case generated:
		path = "generated"
	}
	if confidence == "" {
		confidence = "unknown"
	}
	m.chatAnswersTotal.WithLabelValues(service, mode, confidence, path).Inc()
	m.chatBestScore.WithLabelValues(service).Observe(bestScore)
	m.chatSources.WithLabelValues(service).Observe(float64(sources))
	m.chatDuration.WithLabelValues(service, mode).Observe(duration.Seconds())
}

// RecordChatRejection counts requests that ended without an answer, such as
// role_not_mapped or no_results.
func (m *HTTPServerMetrics) RecordChatRejection(service, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.chatOutcomesTotal.WithLabelValues(service, reason).Inc()
}

func (m *HTTPServerMetrics) RecordReindex(service, source string, upserts, skipped int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	if source == "" {
		source = "unknown"
	}
	m.reindexRunsTotal.WithLabelValues(service, source, status).Inc()
	if upserts > 0 {
		m.reindexRecordsTotal.WithLabelValues(service, source, "upserted").Add(float64(upserts))
	}
	if skipped > 0 {
		m.reindexRecordsTotal.WithLabelValues(service, source, "skipped").Add(float64(skipped))
	}
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
