package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/dataguard/pkg/constants"
)

// Metrics manages the Prometheus metrics on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	Commits             *prometheus.CounterVec
	CommitLatency       *prometheus.HistogramVec
	TamperDetections    *prometheus.CounterVec
	AccessEvaluations   *prometheus.CounterVec
	ScoringLatency      prometheus.Histogram
	Alerts              *prometheus.CounterVec
	RetrainRuns         *prometheus.CounterVec
	RetrainDuration     prometheus.Histogram
	TrainingSamples     prometheus.Gauge
	IntegrityScans      prometheus.Counter
	ScannedDocuments    prometheus.Gauge
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the metrics and registers them, together with the Go runtime and
// process collectors, on a fresh registry.
func NewMetrics() *Metrics {
	ns := constants.MetricsNamespace
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "document_commits_total",
			Help: "Total number of document commits by outcome.",
		}, []string{"outcome"}),
		CommitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Name: "document_commit_duration_seconds",
			Help:    "Latency of document commits.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		TamperDetections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "tamper_detections_total",
			Help: "Total number of detected out-of-band modifications by source.",
		}, []string{"source"}),
		AccessEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "access_evaluations_total",
			Help: "Total number of scored access events.",
		}, []string{"action", "severity", "low_confidence"}),
		ScoringLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Name: "access_scoring_duration_seconds",
			Help:    "Latency of access event scoring.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "alerts_total",
			Help: "Alert ledger transitions by type and result.",
		}, []string{"type", "result"}),
		RetrainRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "model_retrain_runs_total",
			Help: "Total number of model training runs.",
		}, []string{"result"}),
		RetrainDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Name: "model_retrain_duration_seconds",
			Help:    "Duration of model training runs.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		TrainingSamples: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: "model_training_samples",
			Help: "Number of events the current model was trained on.",
		}),
		IntegrityScans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "integrity_scans_total",
			Help: "Total number of background integrity scan passes.",
		}),
		ScannedDocuments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: "integrity_scan_documents",
			Help: "Number of documents checked by the last integrity scan.",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "http_requests_total",
			Help: "Total number of requests to the operations endpoint.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Name: "http_request_duration_seconds",
			Help:    "Latency of requests to the operations endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Commits, m.CommitLatency, m.TamperDetections,
		m.AccessEvaluations, m.ScoringLatency, m.Alerts,
		m.RetrainRuns, m.RetrainDuration, m.TrainingSamples,
		m.IntegrityScans, m.ScannedDocuments,
		m.HTTPRequestsTotal, m.HTTPRequestDuration,
	)
	return m
}

// Registry exposes the registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordCommit records metrics for a document commit.
func (m *Metrics) RecordCommit(outcome string, duration time.Duration) {
	m.Commits.WithLabelValues(outcome).Inc()
	m.CommitLatency.WithLabelValues(outcome).Observe(duration.Seconds())
}

//Personal.AI order the ending
