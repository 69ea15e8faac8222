package application_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/dataguard/internal/application"
	"github.com/turtacn/dataguard/internal/config"
	"github.com/turtacn/dataguard/internal/infrastructure/persistence/memory"
	"github.com/turtacn/dataguard/pkg/logger"
)

var base = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	engine    *application.Engine
	clock     *fakeClock
	versions  *memory.VersionRepository
	documents *memory.DocumentRepository
	events    *memory.AccessEventRepository
	alerts    *memory.AlertRepository
	contents  *memory.ContentStore
	blobs     *memory.ContentStore
	snapshots *memory.SnapshotStore
}

func newFixture(t *testing.T, tune ...func(*config.Config)) *fixture {
	t.Helper()
	cfg := config.Default()
	for _, fn := range tune {
		fn(cfg)
	}

	f := &fixture{
		clock:     &fakeClock{now: base},
		versions:  memory.NewVersionRepository(),
		documents: memory.NewDocumentRepository(),
		events:    memory.NewAccessEventRepository(),
		alerts:    memory.NewAlertRepository(),
		contents:  memory.NewContentStore(),
		blobs:     memory.NewContentStore(),
		snapshots: memory.NewSnapshotStore(),
	}
	engine, err := application.NewEngine(cfg, application.Dependencies{
		Versions:     f.versions,
		Documents:    f.documents,
		Events:       f.events,
		Alerts:       f.alerts,
		Contents:     f.contents,
		Blobs:        f.blobs,
		Deduplicator: memory.NewDeduplicator(time.Minute),
		Snapshots:    f.snapshots,
		Clock:        f.clock,
		Logger:       logger.NewNoopLogger(),
	})
	require.NoError(t, err)
	f.engine = engine
	return f
}

// smallModel keeps training fast in tests.
func smallModel(cfg *config.Config) {
	cfg.Anomaly.MinTrainingEvents = 20
	cfg.Anomaly.Isolation.Trees = 30
	cfg.Anomaly.Isolation.SampleSize = 64
	cfg.Anomaly.Clustering.MaxIterations = 20
}
