package application_test

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/dataguard/internal/application"
	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/internal/domain/service"
	"github.com/turtacn/dataguard/internal/infrastructure/persistence/memory"
	"github.com/turtacn/dataguard/pkg/constants"
	"github.com/turtacn/dataguard/pkg/errors"
	"github.com/turtacn/dataguard/pkg/logger"
)

type MockDeduplicator struct {
	mock.Mock
}

func (m *MockDeduplicator) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockDeduplicator) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockAlertPublisher struct {
	mock.Mock
}

func (m *MockAlertPublisher) PublishAlert(ctx context.Context, alert *models.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

type recordingMetrics struct {
	service.NoopMetrics
	alerts []string
}

func (r *recordingMetrics) RecordAlert(alertType, result string) {
	r.alerts = append(r.alerts, alertType+":"+result)
}

var leakDraft = models.AlertDraft{
	Type:        constants.AlertTypeDataLeakAttempt,
	UserID:      "eve",
	DocumentID:  "ledger.xlsx",
	RiskScore:   0.85,
	Description: "cross-department download",
}

func TestAlertLedger_PublishesRaiseAndResolve(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: base}
	publisher := new(MockAlertPublisher)
	metrics := &recordingMetrics{}
	ledger := application.NewAlertLedger(memory.NewAlertRepository(), memory.NewDeduplicator(time.Minute),
		publisher, clock, metrics, 10*time.Minute, logger.NewNoopLogger())

	publisher.On("PublishAlert", ctx, mock.MatchedBy(func(a *models.Alert) bool { return a.IsOpen() })).Return(nil).Once()
	publisher.On("PublishAlert", ctx, mock.MatchedBy(func(a *models.Alert) bool { return !a.IsOpen() })).
		Return(stderrors.New("broker down")).Once()

	alert, created, err := ledger.Raise(ctx, leakDraft)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, constants.SeverityHigh, alert.Severity)
	assert.Equal(t, "data-leak-attempt|eve|ledger.xlsx", alert.DedupKey)

	dup, created, err := ledger.Raise(ctx, leakDraft)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, alert.ID, dup.ID)

	// a publish failure never fails the resolution
	resolved, err := ledger.Resolve(ctx, alert.ID, "admin")
	require.NoError(t, err)
	assert.False(t, resolved.IsOpen())

	publisher.AssertExpectations(t)
	assert.Equal(t, []string{
		"data-leak-attempt:raised",
		"data-leak-attempt:deduplicated",
		"data-leak-attempt:resolved",
	}, metrics.alerts)
}

func TestAlertLedger_DedupBackendFailureFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	dedup := new(MockDeduplicator)
	dedup.On("Claim", ctx, leakDraft.DedupKey(), 10*time.Minute).Return(false, stderrors.New("redis unavailable"))

	ledger := application.NewAlertLedger(memory.NewAlertRepository(), dedup, nil,
		&fakeClock{now: base}, service.NoopMetrics{}, 10*time.Minute, logger.NewNoopLogger())

	first, created, err := ledger.Raise(ctx, leakDraft)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := ledger.Raise(ctx, leakDraft)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	dedup.AssertExpectations(t)
}

func TestAlertLedger_HigherSeverityIsNotSuppressed(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: base}
	repo := memory.NewAlertRepository()
	metrics := &recordingMetrics{}
	ledger := application.NewAlertLedger(repo, memory.NewDeduplicator(time.Minute), nil,
		clock, metrics, 10*time.Minute, logger.NewNoopLogger())

	medium := models.AlertDraft{
		Type:       constants.AlertTypeAnomalousBehavior,
		UserID:     "u1",
		DocumentID: "payroll.xlsx",
		RiskScore:  0.54,
	}
	first, created, err := ledger.Raise(ctx, medium)
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, constants.SeverityMedium, first.Severity)

	clock.Advance(2 * time.Minute)
	high := medium
	high.RiskScore = 0.84
	escalated, created, err := ledger.Raise(ctx, high)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, escalated.ID)
	assert.Equal(t, constants.SeverityHigh, escalated.Severity)
	assert.InDelta(t, 0.84, escalated.RiskScore, 1e-9)

	// the escalated alert is now the one later noise collapses onto
	clock.Advance(time.Minute)
	again, created, err := ledger.Raise(ctx, medium)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, escalated.ID, again.ID)

	forU1, err := ledger.List(ctx, models.AlertFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, forU1, 2)
	assert.Equal(t, []string{
		"anomalous-behavior:raised",
		"anomalous-behavior:escalated",
		"anomalous-behavior:deduplicated",
	}, metrics.alerts)
}

func TestAlertLedger_StoreDecidesAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: base}
	repo := memory.NewAlertRepository()
	newLedger := func() *application.AlertLedger {
		// every ledger gets a fresh in-process cache, as after a restart or a one-shot CLI run
		return application.NewAlertLedger(repo, memory.NewDeduplicator(time.Minute), nil,
			clock, service.NoopMetrics{}, 10*time.Minute, logger.NewNoopLogger())
	}

	first, created, err := newLedger().Raise(ctx, leakDraft)
	require.NoError(t, err)
	require.True(t, created)

	clock.Advance(time.Minute)
	dup, created, err := newLedger().Raise(ctx, leakDraft)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, dup.ID)

	// outside the window the open alert no longer absorbs repeats
	clock.Advance(10 * time.Minute)
	later, created, err := newLedger().Raise(ctx, leakDraft)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, later.ID)
}

func TestAlertLedger_ConcurrentRaiseCreatesOneAlert(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAlertRepository()
	ledger := application.NewAlertLedger(repo, memory.NewDeduplicator(time.Minute), nil,
		&fakeClock{now: base}, service.NoopMetrics{}, 10*time.Minute, logger.NewNoopLogger())

	const callers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = make(map[string]struct{})
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			alert, ok, err := ledger.Raise(ctx, leakDraft)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if ok {
				created++
			}
			ids[alert.ID.String()] = struct{}{}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Len(t, ids, 1)
	all, err := repo.List(ctx, models.AlertFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

// lateAlertRepository hides stored alerts from the first lookups, like a store that has
// not yet seen another writer's insert.
type lateAlertRepository struct {
	*memory.AlertRepository
	hidden int
}

func (r *lateAlertRepository) FindOpenByDedupKey(ctx context.Context, key string) (*models.Alert, error) {
	if r.hidden > 0 {
		r.hidden--
		return nil, errors.NotFound("alert", key)
	}
	return r.AlertRepository.FindOpenByDedupKey(ctx, key)
}

func TestAlertLedger_LostClaimWaitsForHolder(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: base}
	repo := &lateAlertRepository{AlertRepository: memory.NewAlertRepository(), hidden: 1}
	holder := models.NewAlert(leakDraft, base)
	require.NoError(t, repo.Create(ctx, holder))

	dedup := new(MockDeduplicator)
	dedup.On("Claim", ctx, leakDraft.DedupKey(), 10*time.Minute).Return(false, nil)
	ledger := application.NewAlertLedger(repo, dedup, nil,
		clock, service.NoopMetrics{}, 10*time.Minute, logger.NewNoopLogger())

	got, created, err := ledger.Raise(ctx, leakDraft)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, holder.ID, got.ID)
	dedup.AssertExpectations(t)
}

func TestAlertLedger_ZeroWindowDisablesDedup(t *testing.T) {
	ctx := context.Background()
	ledger := application.NewAlertLedger(memory.NewAlertRepository(), memory.NewDeduplicator(time.Minute), nil,
		&fakeClock{now: base}, service.NoopMetrics{}, 0, logger.NewNoopLogger())

	_, created, err := ledger.Raise(ctx, leakDraft)
	require.NoError(t, err)
	assert.True(t, created)
	_, created, err = ledger.Raise(ctx, leakDraft)
	require.NoError(t, err)
	assert.True(t, created)

	ledger.SetWindow(time.Hour)
	assert.Equal(t, time.Hour, ledger.Window())
}

func TestAlertLedger_ResolveRequiresResolver(t *testing.T) {
	ctx := context.Background()
	ledger := application.NewAlertLedger(memory.NewAlertRepository(), memory.NewDeduplicator(time.Minute), nil,
		&fakeClock{now: base}, service.NoopMetrics{}, time.Minute, logger.NewNoopLogger())
	alert, _, err := ledger.Raise(ctx, leakDraft)
	require.NoError(t, err)

	_, err = ledger.Resolve(ctx, alert.ID, "")
	assert.Error(t, err)

	got, err := ledger.Get(ctx, alert.ID)
	require.NoError(t, err)
	assert.True(t, got.IsOpen())
}
