package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of a Lumos service. All methods
// are safe on a nil receiver so components can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	eventsIngested    prometheus.Counter
	ingestErrors      prometheus.Counter
	malformedPayloads prometheus.Counter
	ingestQueueDepth  prometheus.Gauge
	reportsTotal      *prometheus.CounterVec
	reportDuration    prometheus.Histogram
}

// NewMetrics creates the collectors on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lumos_http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lumos_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		eventsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumos_motion_events_ingested_total",
			Help: "Motion events written to the event store.",
		}),
		ingestErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumos_motion_ingest_errors_total",
			Help: "Motion events that could not be written or were dropped.",
		}),
		malformedPayloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumos_motion_malformed_payloads_total",
			Help: "Motion messages whose device payload could not be parsed.",
		}),
		ingestQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lumos_motion_ingest_queue_depth",
			Help: "Motion events waiting for the store writer.",
		}),
		reportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lumos_metrics_reports_total",
			Help: "Metrics reports built, by outcome (ok, fallback).",
		}, []string{"outcome"}),
		reportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lumos_metrics_report_duration_seconds",
			Help:    "Histogram of metrics report build durations.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.eventsIngested,
		m.ingestErrors,
		m.malformedPayloads,
		m.ingestQueueDepth,
		m.reportsTotal,
		m.reportDuration,
	)

	return m
}

// Registry returns the registry backing these metrics
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records request count and latency for route
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) EventIngested() {
	if m == nil {
		return
	}
	m.eventsIngested.Inc()
}

func (m *Metrics) IngestError() {
	if m == nil {
		return
	}
	m.ingestErrors.Inc()
}

func (m *Metrics) MalformedPayload() {
	if m == nil {
		return
	}
	m.malformedPayloads.Inc()
}

func (m *Metrics) QueueDepth(n int) {
	if m == nil {
		return
	}
	m.ingestQueueDepth.Set(float64(n))
}

// ReportBuilt records one metrics report; fallback marks a default report
func (m *Metrics) ReportBuilt(duration time.Duration, fallback bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if fallback {
		outcome = "fallback"
	}
	m.reportsTotal.WithLabelValues(outcome).Inc()
	m.reportDuration.Observe(duration.Seconds())
}
