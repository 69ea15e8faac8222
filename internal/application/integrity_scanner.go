package application

import (
	"context"
	"time"

	"github.com/turtacn/dataguard/internal/domain/service"
	"github.com/turtacn/dataguard/pkg/constants"
	"github.com/turtacn/dataguard/pkg/logger"
)

// ScanReport summarizes one integrity scan.
type ScanReport struct {
	Documents int           `json:"documents"`
	Tampered  []string      `json:"tampered"`
	Failed    []string      `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// IntegrityScanner periodically re-verifies every document so out-of-band changes are
// found even when nobody writes the document again.
type IntegrityScanner struct {
	engine   *Engine
	interval time.Duration
	metrics  service.Metrics
	log      logger.Logger
}

// NewIntegrityScanner creates a scanner.
func NewIntegrityScanner(engine *Engine, interval time.Duration, metrics service.Metrics, log logger.Logger) *IntegrityScanner {
	if interval <= 0 {
		interval = constants.DefaultIntegrityScanInterval
	}
	if metrics == nil {
		metrics = service.NoopMetrics{}
	}
	return &IntegrityScanner{
		engine:   engine,
		interval: interval,
		metrics:  metrics,
		log:      log.WithComponent("IntegrityScanner"),
	}
}

// Run scans on every tick until ctx is done.
func (s *IntegrityScanner) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Scan(ctx); err != nil && ctx.Err() == nil {
				s.log.Error(ctx, "integrity scan failed", err)
			}
		}
	}
}

// Scan verifies every known document once. A failure on one document is logged and
// does not stop the scan.
func (s *IntegrityScanner) Scan(ctx context.Context) (*ScanReport, error) {
	start := time.Now()
	docs, err := s.engine.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	report := &ScanReport{Documents: len(docs), Tampered: []string{}, Failed: []string{}}
	for _, doc := range docs {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		result, err := s.engine.VerifyDocument(ctx, doc.ID)
		if err != nil {
			report.Failed = append(report.Failed, doc.ID)
			s.log.Error(ctx, "document verification failed", err, logger.String("document_id", doc.ID))
			continue
		}
		if result.TamperDetected {
			report.Tampered = append(report.Tampered, doc.ID)
		}
	}
	report.Duration = time.Since(start)

	s.metrics.RecordIntegrityScan(report.Documents, len(report.Tampered), report.Duration)
	s.log.Info(ctx, "integrity scan finished",
		logger.Int("documents", report.Documents),
		logger.Int("tampered", len(report.Tampered)),
		logger.Int("failed", len(report.Failed)),
		logger.Duration("duration", report.Duration),
	)
	return report, nil
}

//Personal.AI order the ending
