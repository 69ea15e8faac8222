// Package application wires the domain services into the engine that callers talk to.
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/dataguard/internal/config"
	"github.com/turtacn/dataguard/internal/domain/anomaly"
	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/internal/domain/repository"
	"github.com/turtacn/dataguard/internal/domain/service"
	"github.com/turtacn/dataguard/pkg/constants"
	"github.com/turtacn/dataguard/pkg/errors"
	"github.com/turtacn/dataguard/pkg/logger"
)

const tracerName = "github.com/turtacn/dataguard/internal/application"

// Dependencies are the ports the engine consumes.
type Dependencies struct {
	Versions     repository.VersionRepository
	Documents    repository.DocumentRepository
	Events       repository.AccessEventRepository
	Alerts       repository.AlertRepository
	Contents     repository.ContentStore
	Blobs        repository.BlobStore
	Deduplicator service.Deduplicator
	Publisher    service.AlertPublisher
	Snapshots    anomaly.SnapshotStore // optional
	Clock        service.Clock
	Metrics      service.Metrics
	Logger       logger.Logger
}

// CommitRequest is a write of new document content through the engine.
type CommitRequest struct {
	DocumentID string
	Department string
	Content    []byte
	AuthorID   string
}

// AccessRequest is one access attempt reported by the access-control layer.
type AccessRequest struct {
	UserID     string
	Department string
	Action     constants.AccessAction
	DocumentID string
	Outcome    constants.AccessOutcome
	Timestamp  time.Time // zero means now
}

// AccessResult is the verdict on one access attempt.
type AccessResult struct {
	Event         *models.AccessEvent    `json:"event"`
	RiskScore     float64                `json:"risk_score"`
	Severity      constants.Severity     `json:"severity"`
	LowConfidence bool                   `json:"low_confidence"`
	Behavioral    models.BehavioralScore `json:"behavioral"`
	AlertCreated  bool                   `json:"alert_created"`
	Alert         *models.Alert          `json:"alert,omitempty"`
}

// RetrainResult describes one training run.
type RetrainResult struct {
	Trained   bool      `json:"trained"`
	Samples   int       `json:"samples"`
	TrainedAt time.Time `json:"trained_at,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// Engine is the document integrity and access-anomaly engine.
type Engine struct {
	versions   *VersionStore
	ledger     *AlertLedger
	reporter   *RiskReporter
	retrainer  *Retrainer
	versionDB  repository.VersionRepository
	documents  repository.DocumentRepository
	events     repository.AccessEventRepository
	snapshots  anomaly.SnapshotStore
	extractor  *service.FeatureExtractor
	scorer     *anomaly.Scorer
	aggregator *service.RiskAggregator
	trainCfg   anomaly.TrainConfig
	trainGroup singleflight.Group

	historyWindow time.Duration
	trainWindow   int

	clock   service.Clock
	metrics service.Metrics
	tracer  trace.Tracer
	log     logger.Logger
}

// NewEngine builds an engine from cfg and deps.
func NewEngine(cfg *config.Config, deps Dependencies) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapError(err, constants.ErrCodeInvalidArgument, "invalid engine config")
	}
	if deps.Clock == nil {
		deps.Clock = service.SystemClock{}
	}
	if deps.Metrics == nil {
		deps.Metrics = service.NoopMetrics{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoopLogger()
	}

	aggregator := service.NewRiskAggregator(cfg.Engine.CrossDepartmentFloor)
	e := &Engine{
		versionDB: deps.Versions,
		documents: deps.Documents,
		events:    deps.Events,
		snapshots: deps.Snapshots,
		extractor: service.NewFeatureExtractor(service.FeatureExtractorConfig{
			Location:     cfg.Engine.Location(),
			Departments:  cfg.Engine.Departments,
			RateWindow:   cfg.Engine.RateWindow,
			MaxRateRatio: cfg.Engine.MaxRateRatio,
		}),
		scorer: anomaly.NewScorer(anomaly.ScorerConfig{
			MinTrainingEvents:  cfg.Anomaly.MinTrainingEvents,
			MinUserHistory:     cfg.Anomaly.MinUserHistory,
			LowConfidenceScore: cfg.Anomaly.LowConfidenceScore,
		}),
		aggregator:    aggregator,
		trainCfg:      trainConfig(cfg.Anomaly),
		historyWindow: cfg.Engine.HistoryWindow,
		trainWindow:   cfg.Anomaly.TrainingWindowEvents,
		clock:         deps.Clock,
		metrics:       deps.Metrics,
		tracer:        otel.Tracer(tracerName),
		log:           deps.Logger.WithComponent("Engine"),
	}
	e.versions = NewVersionStore(deps.Versions, deps.Documents, deps.Contents, deps.Blobs,
		aggregator, deps.Clock, deps.Metrics, cfg.Engine.HighImpactChangePct, deps.Logger)
	e.ledger = NewAlertLedger(deps.Alerts, deps.Deduplicator, deps.Publisher,
		deps.Clock, deps.Metrics, cfg.Alerts.DedupWindow, deps.Logger)
	e.reporter = NewRiskReporter(deps.Events, deps.Alerts, deps.Documents, deps.Clock, cfg.Engine.HistoryWindow)
	e.retrainer = NewRetrainer(e, cfg.Anomaly.RetrainInterval, cfg.Anomaly.RetrainEveryEvents, deps.Logger)
	return e, nil
}

func trainConfig(c config.AnomalyConfig) anomaly.TrainConfig {
	return anomaly.TrainConfig{
		MinSamples:      c.MinTrainingEvents,
		Trees:           c.Isolation.Trees,
		SampleSize:      c.Isolation.SampleSize,
		IsolationSeed:   c.Isolation.Seed,
		K:               c.Clustering.K,
		MaxIterations:   c.Clustering.MaxIterations,
		ClusterSeed:     c.Clustering.Seed,
		IsolationWeight: c.IsolationWeight,
		ClusterWeight:   c.ClusterWeight,
	}
}

// Retrainer returns the background retrain worker.
func (e *Engine) Retrainer() *Retrainer { return e.retrainer }

// Ledger returns the alert ledger.
func (e *Engine) Ledger() *AlertLedger { return e.ledger }

// Scorer returns the behavioural scorer.
func (e *Engine) Scorer() *anomaly.Scorer { return e.scorer }

// ================================================================================
// Integrity path
// ================================================================================

// CommitDocument records new content for a document, detecting tampering of the
// currently stored content first.
func (e *Engine) CommitDocument(ctx context.Context, req CommitRequest) (result *CommitResult, err error) {
	ctx, span := e.startSpan(ctx, "Engine.CommitDocument", attribute.String("document.id", req.DocumentID))
	defer func() { endSpan(span, err) }()
	ctx = context.WithValue(ctx, constants.ContextKeyDocumentID, req.DocumentID)
	start := time.Now()

	result, err = e.versions.Commit(ctx, req.DocumentID, req.Department, req.Content, req.AuthorID)
	if err != nil {
		e.metrics.RecordCommit("error", time.Since(start))
		e.logFailure(ctx, "commit failed", err, logger.String("document_id", req.DocumentID))
		return nil, err
	}

	outcome := "committed"
	switch {
	case result.NoOp:
		outcome = "noop"
	case result.TamperDetected:
		outcome = "tampered"
	case result.Version.Sequence == 1:
		outcome = "created"
	}
	e.metrics.RecordCommit(outcome, time.Since(start))
	span.SetAttributes(attribute.String("commit.outcome", outcome))

	if result.TamperDetected && result.Assessment.ShouldAlert {
		alert, err := e.raiseTamper(ctx, req.DocumentID, result.Assessment)
		if err != nil {
			return nil, err
		}
		result.Alert = alert
	}
	return result, nil
}

// VerifyDocument checks the stored content of a document against its version chain.
func (e *Engine) VerifyDocument(ctx context.Context, documentID string) (result *VerifyResult, err error) {
	ctx, span := e.startSpan(ctx, "Engine.VerifyDocument", attribute.String("document.id", documentID))
	defer func() { endSpan(span, err) }()
	ctx = context.WithValue(ctx, constants.ContextKeyDocumentID, documentID)

	result, err = e.versions.Verify(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if result.TamperDetected && result.Assessment.ShouldAlert {
		alert, err := e.raiseTamper(ctx, documentID, result.Assessment)
		if err != nil {
			return nil, err
		}
		result.Alert = alert
	}
	return result, nil
}

func (e *Engine) raiseTamper(ctx context.Context, documentID string, a models.RiskAssessment) (*models.Alert, error) {
	alert, _, err := e.ledger.Raise(ctx, models.AlertDraft{
		Type:        a.AlertType,
		DocumentID:  documentID,
		RiskScore:   a.FinalScore,
		Description: a.Reason,
	})
	return alert, err
}

// ListVersions returns the version chain of a document, oldest first.
func (e *Engine) ListVersions(ctx context.Context, documentID string) ([]*models.Version, error) {
	versions, err := e.versionDB.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, errors.Storage("list versions", err)
	}
	if len(versions) == 0 {
		return nil, errors.NotFound("document", documentID)
	}
	return versions, nil
}

// ListDocuments returns every document head.
func (e *Engine) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	docs, err := e.documents.List(ctx)
	if err != nil {
		return nil, errors.Storage("list documents", err)
	}
	return docs, nil
}

// GetDiff compares two versions of the same document.
func (e *Engine) GetDiff(ctx context.Context, oldVersionID, newVersionID uuid.UUID) (result *models.DiffResult, err error) {
	ctx, span := e.startSpan(ctx, "Engine.GetDiff")
	defer func() { endSpan(span, err) }()

	oldV, err := e.findVersion(ctx, oldVersionID)
	if err != nil {
		return nil, err
	}
	newV, err := e.findVersion(ctx, newVersionID)
	if err != nil {
		return nil, err
	}
	if oldV.DocumentID != newV.DocumentID {
		return nil, errors.InvalidArgument(fmt.Sprintf("versions belong to different documents: %s and %s", oldV.DocumentID, newV.DocumentID))
	}

	oldContent, err := e.versions.Content(ctx, oldV)
	if err != nil {
		return nil, err
	}
	newContent, err := e.versions.Content(ctx, newV)
	if err != nil {
		return nil, err
	}
	lines, stats := service.NewDiffEngine().Diff(oldContent, newContent)
	return &models.DiffResult{
		OldVersionID: oldVersionID,
		NewVersionID: newVersionID,
		Lines:        lines,
		Stats:        stats,
	}, nil
}

func (e *Engine) findVersion(ctx context.Context, id uuid.UUID) (*models.Version, error) {
	v, err := e.versionDB.FindByID(ctx, id)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, err
		}
		return nil, errors.Storage("load version", err)
	}
	return v, nil
}

// ================================================================================
// Behavioural path
// ================================================================================

// EvaluateAccess scores one access attempt, records it and raises an alert when warranted.
// A missing model never fails the call; the result is marked low-confidence instead.
func (e *Engine) EvaluateAccess(ctx context.Context, req AccessRequest) (result *AccessResult, err error) {
	ctx, span := e.startSpan(ctx, "Engine.EvaluateAccess",
		attribute.String("user.id", req.UserID),
		attribute.String("access.action", string(req.Action)),
	)
	defer func() { endSpan(span, err) }()
	ctx = context.WithValue(ctx, constants.ContextKeyUserID, req.UserID)
	start := time.Now()

	if err := validateAccess(req); err != nil {
		return nil, err
	}
	at := req.Timestamp
	if at.IsZero() {
		at = e.clock.Now()
	}

	event := models.NewAccessEvent(req.UserID, req.Department, req.Action, req.Outcome, at)
	if req.DocumentID != "" {
		department, err := e.documentDepartment(ctx, req.DocumentID)
		if err != nil {
			return nil, err
		}
		event.WithDocument(req.DocumentID, department)
	}

	history, err := e.events.ListByUser(ctx, req.UserID, at.Add(-e.historyWindow))
	if err != nil {
		return nil, errors.Storage("load user history", err)
	}
	prior := 0
	for _, h := range history {
		if h.Timestamp.Before(at) {
			prior++
		}
	}

	behavioral := e.scorer.Score(e.extractor.Extract(event, history), prior)
	assessment := e.aggregator.Assess(models.RiskInput{
		CrossDepartmentViolation: service.IsCrossDepartmentViolation(event),
		BehavioralScore:          behavioral.Score,
		LowConfidence:            behavioral.LowConfidence,
		Action:                   event.Action,
	})
	event.ApplyAssessment(assessment)

	if err := e.events.Save(ctx, event); err != nil {
		return nil, errors.Storage("save access event", err)
	}

	result = &AccessResult{
		Event:         event,
		RiskScore:     assessment.FinalScore,
		Severity:      assessment.Severity,
		LowConfidence: assessment.LowConfidence,
		Behavioral:    behavioral,
	}
	if assessment.ShouldAlert {
		alert, created, err := e.ledger.Raise(ctx, models.AlertDraft{
			Type:        assessment.AlertType,
			UserID:      event.UserID,
			DocumentID:  event.DocumentID,
			RiskScore:   assessment.FinalScore,
			Description: fmt.Sprintf("%s: %s by %s (%s)", assessment.Reason, event.Action, event.UserID, event.Department),
		})
		if err != nil {
			return nil, err
		}
		result.Alert = alert
		result.AlertCreated = created
	}

	e.metrics.RecordAccessEvaluation(string(event.Action), string(event.Severity), event.LowConfidence, time.Since(start))
	span.SetAttributes(
		attribute.Float64("risk.score", assessment.FinalScore),
		attribute.String("risk.severity", string(assessment.Severity)),
	)
	e.retrainer.Observe()
	return result, nil
}

func validateAccess(req AccessRequest) error {
	switch {
	case req.UserID == "":
		return errors.InvalidArgument("user id is required")
	case !req.Action.IsValid():
		return errors.InvalidArgument(fmt.Sprintf("unknown action %q", req.Action))
	case !req.Outcome.IsValid():
		return errors.InvalidArgument(fmt.Sprintf("unknown outcome %q", req.Outcome))
	}
	return nil
}

// documentDepartment resolves the owner of a document; unknown documents have none.
func (e *Engine) documentDepartment(ctx context.Context, documentID string) (string, error) {
	doc, err := e.documents.Get(ctx, documentID)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return "", nil
		}
		return "", errors.Storage("load document", err)
	}
	return doc.Department, nil
}

// Retrain fits a new model snapshot from the most recent access events and swaps it in.
// Concurrent calls share one training run.
func (e *Engine) Retrain(ctx context.Context) (*RetrainResult, error) {
	v, err, _ := e.trainGroup.Do("retrain", func() (interface{}, error) {
		return e.retrain(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*RetrainResult), nil
}

func (e *Engine) retrain(ctx context.Context) (result *RetrainResult, err error) {
	ctx, span := e.startSpan(ctx, "Engine.Retrain")
	defer func() { endSpan(span, err) }()
	start := time.Now()

	events, err := e.events.Recent(ctx, e.trainWindow)
	if err != nil {
		return nil, errors.Storage("load training events", err)
	}
	// Each event is encoded against the same user's earlier events only.
	vectors := make([][]float64, len(events))
	prior := make(map[string][]*models.AccessEvent)
	for i, ev := range events {
		vectors[i] = e.extractor.Extract(ev, prior[ev.UserID])
		prior[ev.UserID] = append(prior[ev.UserID], ev)
	}

	snapshot, err := anomaly.Train(vectors, e.trainCfg, e.clock.Now())
	if err != nil {
		e.metrics.RecordRetrain(len(vectors), time.Since(start), err)
		if errors.IsModelNotReady(err) {
			e.log.Info(ctx, "not enough events to train", logger.Int("samples", len(vectors)))
			return &RetrainResult{Samples: len(vectors), Reason: err.Error()}, nil
		}
		return nil, err
	}

	e.scorer.Swap(snapshot)
	e.metrics.RecordRetrain(snapshot.Samples, time.Since(start), nil)
	if e.snapshots != nil {
		if err := e.snapshots.SaveSnapshot(ctx, snapshot); err != nil {
			e.log.Error(ctx, "failed to persist model snapshot", err)
		}
	}
	e.log.Info(ctx, "model retrained",
		logger.Int("samples", snapshot.Samples),
		logger.Duration("duration", time.Since(start)),
	)
	return &RetrainResult{Trained: true, Samples: snapshot.Samples, TrainedAt: snapshot.TrainedAt}, nil
}

// WarmStart installs the last persisted snapshot, if any.
func (e *Engine) WarmStart(ctx context.Context) (bool, error) {
	if e.snapshots == nil {
		return false, nil
	}
	snapshot, err := e.snapshots.LoadSnapshot(ctx)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return false, nil
		}
		return false, errors.Storage("load model snapshot", err)
	}
	e.scorer.Swap(snapshot)
	e.log.Info(ctx, "model snapshot restored",
		logger.Int("samples", snapshot.Samples),
		logger.Time("trained_at", snapshot.TrainedAt),
	)
	return true, nil
}

// ================================================================================
// Alerts and reports
// ================================================================================

// ListAlerts returns alerts matching filter, newest first.
func (e *Engine) ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	return e.ledger.List(ctx, filter)
}

// ResolveAlert closes an alert. An id that does not parse names no alert.
func (e *Engine) ResolveAlert(ctx context.Context, id, resolvedBy string) (alert *models.Alert, err error) {
	ctx, span := e.startSpan(ctx, "Engine.ResolveAlert", attribute.String("alert.id", id))
	defer func() { endSpan(span, err) }()

	alertID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.NotFound("alert", id)
	}
	return e.ledger.Resolve(ctx, alertID, resolvedBy)
}

// UserRiskReport builds the behaviour profile of one user.
func (e *Engine) UserRiskReport(ctx context.Context, userID string) (*models.UserRiskReport, error) {
	if userID == "" {
		return nil, errors.InvalidArgument("user id is required")
	}
	return e.reporter.UserReport(ctx, userID)
}

// CrossDepartmentSummary aggregates cross-department accesses over the last days.
func (e *Engine) CrossDepartmentSummary(ctx context.Context, days int) ([]models.CrossDepartmentStat, error) {
	if days <= 0 {
		return nil, errors.InvalidArgument("days must be positive")
	}
	return e.reporter.CrossDepartment(ctx, days)
}

// Summary returns the administrator overview.
func (e *Engine) Summary(ctx context.Context) (*models.Summary, error) {
	return e.reporter.Summary(ctx)
}

// ================================================================================
// Helpers
// ================================================================================

func (e *Engine) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (e *Engine) logFailure(ctx context.Context, msg string, err error, fields ...logger.Field) {
	if errors.ShouldLogError(err) {
		e.log.Error(ctx, msg, err, fields...)
		return
	}
	e.log.Warn(ctx, msg, append(fields, logger.String("error", err.Error()))...)
}

//Personal.AI order the ending
