// Package service holds the pure domain services of the engine and the ports they need.
package service

import (
	"time"
)

// Metrics defines the interface for collecting business metrics.
// This abstraction allows the application layer to remain independent of the specific monitoring implementation (e.g., Prometheus).
// Metrics 定义了收集业务指标的接口。
// 这种抽象使应用层能够独立于具体的监控实现（例如 Prometheus）。
type Metrics interface {
	// RecordCommit records one document commit; outcome is created, noop, tampered or error.
	// RecordCommit 记录一次文档提交。
	RecordCommit(outcome string, duration time.Duration)

	// RecordTamper records a tamper detection and where it was found (commit or scan).
	// RecordTamper 记录一次篡改检测及其来源。
	RecordTamper(source string)

	// RecordAccessEvaluation records one scored access event.
	// RecordAccessEvaluation 记录一次访问评分。
	RecordAccessEvaluation(action, severity string, lowConfidence bool, duration time.Duration)

	// RecordAlert records a ledger transition; result is raised, deduplicated or resolved.
	// RecordAlert 记录告警账本的状态变化。
	RecordAlert(alertType, result string)

	// RecordRetrain records a training run.
	// RecordRetrain 记录一次模型训练。
	RecordRetrain(samples int, duration time.Duration, err error)

	// RecordIntegrityScan records a background scan pass.
	// RecordIntegrityScan 记录一次后台完整性扫描。
	RecordIntegrityScan(documents, tampered int, duration time.Duration)
}

// NoopMetrics satisfies Metrics and records nothing.
type NoopMetrics struct{}

func (NoopMetrics) RecordCommit(string, time.Duration) {}
func (NoopMetrics) RecordTamper(string) {}
func (NoopMetrics) RecordAccessEvaluation(string, string, bool, time.Duration) {}
func (NoopMetrics) RecordAlert(string, string) {}
func (NoopMetrics) RecordRetrain(int, time.Duration, error) {}
func (NoopMetrics) RecordIntegrityScan(int, int, time.Duration) {}

//Personal.AI order the ending
