// Package monitoring provides adapters to connect the domain's metrics and logging interfaces with
// concrete implementations: Prometheus, zap and OpenTelemetry.
package monitoring

import (
	"strconv"
	"time"

	"github.com/turtacn/dataguard/internal/domain/service"
	"github.com/turtacn/dataguard/pkg/errors"
)

var _ service.Metrics = (*MetricsAdapter)(nil)

// MetricsAdapter implements the domain's service.Metrics interface, sending metrics to a Prometheus backend.
// MetricsAdapter 实现了域的 service.Metrics 接口，将指标发送到 Prometheus 后端。
type MetricsAdapter struct {
	metrics *Metrics
}

// NewMetricsAdapter creates a new adapter that wraps a concrete Prometheus Metrics object.
// NewMetricsAdapter 创建一个包装具体 Prometheus Metrics 对象的新适配器。
func NewMetricsAdapter(metrics *Metrics) *MetricsAdapter {
	return &MetricsAdapter{metrics: metrics}
}

// RecordCommit delegates the call to the underlying Prometheus Metrics object.
func (a *MetricsAdapter) RecordCommit(outcome string, duration time.Duration) {
	a.metrics.RecordCommit(outcome, duration)
}

func (a *MetricsAdapter) RecordTamper(source string) {
	a.metrics.TamperDetections.WithLabelValues(source).Inc()
}

// RecordAccessEvaluation counts the event and observes its scoring latency.
// RecordAccessEvaluation 统计访问评分次数并记录评分耗时。
func (a *MetricsAdapter) RecordAccessEvaluation(action, severity string, lowConfidence bool, duration time.Duration) {
	a.metrics.AccessEvaluations.WithLabelValues(action, severity, strconv.FormatBool(lowConfidence)).Inc()
	a.metrics.ScoringLatency.Observe(duration.Seconds())
}

func (a *MetricsAdapter) RecordAlert(alertType, result string) {
	a.metrics.Alerts.WithLabelValues(alertType, result).Inc()
}

// RecordRetrain keeps the sample gauge at the size of the model in use, so a
// failed run leaves it untouched.
func (a *MetricsAdapter) RecordRetrain(samples int, duration time.Duration, err error) {
	a.metrics.RetrainDuration.Observe(duration.Seconds())
	switch {
	case errors.IsModelNotReady(err):
		a.metrics.RetrainRuns.WithLabelValues("skipped").Inc()
		return
	case err != nil:
		a.metrics.RetrainRuns.WithLabelValues("error").Inc()
		return
	}
	a.metrics.RetrainRuns.WithLabelValues("trained").Inc()
	a.metrics.TrainingSamples.Set(float64(samples))
}

func (a *MetricsAdapter) RecordIntegrityScan(documents, tampered int, duration time.Duration) {
	a.metrics.IntegrityScans.Inc()
	a.metrics.ScannedDocuments.Set(float64(documents))
}

//Personal.AI order the ending
