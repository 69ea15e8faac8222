package application

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/internal/domain/repository"
	"github.com/turtacn/dataguard/internal/domain/service"
	"github.com/turtacn/dataguard/pkg/constants"
	"github.com/turtacn/dataguard/pkg/errors"
	"github.com/turtacn/dataguard/pkg/logger"
)

// AlertLedger is the insert-only alert feed. Repeated alerts for the same subject within
// the dedup window collapse onto the open alert already in the feed.
type AlertLedger struct {
	repo      repository.AlertRepository
	dedup     service.Deduplicator
	publisher service.AlertPublisher
	clock     service.Clock
	metrics   service.Metrics
	window    atomic.Int64
	locks     *keyedMutex
	log       logger.Logger
}

// A lost claim means another writer is mid-raise; these bound how long Raise waits for
// that writer's alert to become visible.
const (
	claimRecheckAttempts = 3
	claimRecheckInterval = 50 * time.Millisecond
)

// NewAlertLedger creates an AlertLedger. A nil publisher disables fan-out.
func NewAlertLedger(
	repo repository.AlertRepository,
	dedup service.Deduplicator,
	publisher service.AlertPublisher,
	clock service.Clock,
	metrics service.Metrics,
	window time.Duration,
	log logger.Logger,
) *AlertLedger {
	if publisher == nil {
		publisher = service.NoopAlertPublisher{}
	}
	l := &AlertLedger{
		repo:      repo,
		dedup:     dedup,
		publisher: publisher,
		clock:     clock,
		metrics:   metrics,
		locks:     newKeyedMutex(),
		log:       log.WithComponent("AlertLedger"),
	}
	l.SetWindow(window)
	return l
}

// SetWindow changes the dedup window for alerts raised from now on.
func (l *AlertLedger) SetWindow(window time.Duration) {
	if window < 0 {
		window = 0
	}
	l.window.Store(int64(window))
}

// Window returns the current dedup window.
func (l *AlertLedger) Window() time.Duration {
	return time.Duration(l.window.Load())
}

// Raise records draft as a new open alert unless an open alert with the same dedup key
// and at least the draft's severity was raised inside the window. created reports which
// of the two happened. A draft that outranks the open alert is recorded as a new alert,
// which then becomes the open alert for the key.
//
// The repository decides; the Deduplicator only guards against another replica that has
// claimed the key and not yet stored its alert.
func (l *AlertLedger) Raise(ctx context.Context, draft models.AlertDraft) (*models.Alert, bool, error) {
	key := draft.DedupKey()
	window := l.Window()
	if window <= 0 {
		return l.create(ctx, draft, nil)
	}

	unlock := l.locks.Lock(key)
	defer unlock()

	claimed, err := l.dedup.Claim(ctx, key, window)
	if err != nil {
		// A broken dedup backend must not hide alerts.
		l.log.Warn(ctx, "dedup claim failed, falling back to the alert store", logger.String("dedup_key", key), logger.String("error", err.Error()))
		claimed = true
	}

	existing, err := l.openWithin(ctx, key, window)
	if err != nil {
		return nil, false, err
	}
	if existing == nil && !claimed {
		existing, err = l.awaitOpen(ctx, key, window)
		if err != nil {
			return nil, false, err
		}
	}
	if existing == nil {
		return l.create(ctx, draft, nil)
	}

	if constants.SeverityFor(draft.RiskScore).Rank() <= existing.Severity.Rank() {
		l.metrics.RecordAlert(string(draft.Type), "deduplicated")
		l.log.Debug(ctx, "alert deduplicated", logger.String("dedup_key", key), logger.String("alert_id", existing.ID.String()))
		return existing, false, nil
	}
	return l.create(ctx, draft, existing)
}

// openWithin returns the open alert for key raised inside window, or nil.
func (l *AlertLedger) openWithin(ctx context.Context, key string, window time.Duration) (*models.Alert, error) {
	existing, err := l.repo.FindOpenByDedupKey(ctx, key)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, errors.Storage("find open alert", err)
	}
	if l.clock.Now().Sub(existing.Timestamp) >= window {
		return nil, nil
	}
	return existing, nil
}

// awaitOpen polls the store briefly after a lost claim, giving the holder time to commit
// its alert. It returns nil when nothing shows up.
func (l *AlertLedger) awaitOpen(ctx context.Context, key string, window time.Duration) (*models.Alert, error) {
	for i := 0; i < claimRecheckAttempts; i++ {
		timer := time.NewTimer(claimRecheckInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		existing, err := l.openWithin(ctx, key, window)
		if err != nil || existing != nil {
			return existing, err
		}
	}
	return nil, nil
}

func (l *AlertLedger) create(ctx context.Context, draft models.AlertDraft, supersedes *models.Alert) (*models.Alert, bool, error) {
	alert := models.NewAlert(draft, l.clock.Now())
	if err := l.repo.Create(ctx, alert); err != nil {
		return nil, false, errors.Storage("create alert", err)
	}
	l.publish(ctx, alert)

	fields := []logger.Field{
		logger.String("alert_id", alert.ID.String()),
		logger.String("type", string(alert.Type)),
		logger.String("severity", string(alert.Severity)),
		logger.Float64("risk_score", alert.RiskScore),
	}
	if supersedes != nil {
		l.metrics.RecordAlert(string(alert.Type), "escalated")
		fields = append(fields, logger.String("supersedes", supersedes.ID.String()))
		l.log.Info(ctx, "alert escalated", fields...)
		return alert, true, nil
	}
	l.metrics.RecordAlert(string(alert.Type), "raised")
	l.log.Info(ctx, "alert raised", fields...)
	return alert, true, nil
}

// Resolve closes the alert. Resolving an already resolved alert changes nothing and
// returns it as stored; the first resolver wins.
func (l *AlertLedger) Resolve(ctx context.Context, id uuid.UUID, by string) (*models.Alert, error) {
	if by == "" {
		return nil, errors.InvalidArgument("resolver is required")
	}
	updated, err := l.repo.Resolve(ctx, id, by, l.clock.Now())
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, err
		}
		return nil, errors.Storage("resolve alert", err)
	}
	alert, err := l.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !updated {
		return alert, nil
	}

	if err := l.dedup.Release(ctx, alert.DedupKey); err != nil {
		l.log.Warn(ctx, "dedup release failed", logger.String("dedup_key", alert.DedupKey), logger.String("error", err.Error()))
	}
	l.publish(ctx, alert)
	l.metrics.RecordAlert(string(alert.Type), "resolved")
	l.log.Info(ctx, "alert resolved", logger.String("alert_id", id.String()), logger.String("resolved_by", by))
	return alert, nil
}

// Get returns one alert.
func (l *AlertLedger) Get(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	alert, err := l.repo.FindByID(ctx, id)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, err
		}
		return nil, errors.Storage("load alert", err)
	}
	return alert, nil
}

// List returns alerts matching filter, newest first.
func (l *AlertLedger) List(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	alerts, err := l.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.Storage("list alerts", err)
	}
	return alerts, nil
}

func (l *AlertLedger) publish(ctx context.Context, alert *models.Alert) {
	if err := l.publisher.PublishAlert(ctx, alert); err != nil {
		l.log.Error(ctx, "failed to publish alert", err, logger.String("alert_id", alert.ID.String()))
	}
}

//Personal.AI order the ending
