package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/dataguard/internal/application"
	"github.com/turtacn/dataguard/internal/config"
	"github.com/turtacn/dataguard/internal/domain/anomaly"
	"github.com/turtacn/dataguard/internal/infrastructure/persistence/memory"
	"github.com/turtacn/dataguard/internal/infrastructure/storage"
	"github.com/turtacn/dataguard/pkg/constants"
	"github.com/turtacn/dataguard/pkg/errors"
	"github.com/turtacn/dataguard/pkg/logger"
)

func newStore(t *testing.T) (afero.Fs, *storage.FileStore) {
	t.Helper()
	fs := afero.NewMemMapFs()
	store, err := storage.NewFileStore(fs, "/var/lib/dataguard")
	require.NoError(t, err)
	return fs, store
}

func TestFileStore_Content(t *testing.T) {
	ctx := context.Background()
	fs, store := newStore(t)

	_, err := store.Read(ctx, "reports/q1.txt")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	require.NoError(t, store.Write(ctx, "reports/q1.txt", []byte("v1")))
	require.NoError(t, store.Write(ctx, "reports/q1.txt", []byte("v2")))
	got, err := store.Read(ctx, "reports/q1.txt")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))

	// ids with separators stay a single file under documents/
	ok, err := afero.Exists(fs, "/var/lib/dataguard/documents/reports%2Fq1.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := afero.ReadDir(fs, "/var/lib/dataguard/documents")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestFileStore_DocumentPathsStayInsideDocuments(t *testing.T) {
	ctx := context.Background()
	fs, store := newStore(t)
	documents := "/var/lib/dataguard/documents"

	for _, id := range []string{"..", ".", ""} {
		assert.ErrorIs(t, store.Write(ctx, id, []byte("x")), errors.ErrInvalidArgument, id)
		_, err := store.Read(ctx, id)
		assert.ErrorIs(t, err, errors.ErrInvalidArgument, id)
	}
	for _, id := range []string{"..", ".", "../model", ".hidden", "a/../../b"} {
		assert.Equal(t, documents, filepath.Dir(store.DocumentPath(id)), id)
	}

	require.NoError(t, store.Write(ctx, "../model", []byte("x")))
	require.NoError(t, store.Write(ctx, ".hidden", []byte("y")))
	root, err := fs.Stat("/var/lib/dataguard")
	require.NoError(t, err)
	assert.True(t, root.IsDir())
	model, err := fs.Stat("/var/lib/dataguard/model")
	require.NoError(t, err)
	assert.True(t, model.IsDir())

	got, err := store.Read(ctx, "../model")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)
}

func TestFileStore_Blobs(t *testing.T) {
	ctx := context.Background()
	_, store := newStore(t)

	_, err := store.Get(ctx, "abcdef")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	require.NoError(t, store.Put(ctx, "abcdef", []byte("snapshot")))
	require.NoError(t, store.Put(ctx, "abcdef", []byte("snapshot")))
	got, err := store.Get(ctx, "abcdef")
	require.NoError(t, err)
	assert.Equal(t, "snapshot", string(got))
}

func TestFileStore_ModelSnapshot(t *testing.T) {
	ctx := context.Background()
	_, store := newStore(t)

	_, err := store.LoadSnapshot(ctx)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	vectors := make([][]float64, 20)
	for i := range vectors {
		vectors[i] = []float64{float64(i % 5), float64(i % 3), 1}
	}
	snap, err := anomaly.Train(vectors, anomaly.TrainConfig{MinSamples: 10, Trees: 10, SampleSize: 16, K: 2, MaxIterations: 10}, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, store.SaveSnapshot(ctx, snap))

	loaded, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.TrainedAt, loaded.TrainedAt)
}

// An edit made directly on disk is caught by the next verification.
func TestFileStore_OutOfBandEditDetected(t *testing.T) {
	ctx := context.Background()
	fs, store := newStore(t)

	engine, err := application.NewEngine(config.Default(), application.Dependencies{
		Versions:     memory.NewVersionRepository(),
		Documents:    memory.NewDocumentRepository(),
		Events:       memory.NewAccessEventRepository(),
		Alerts:       memory.NewAlertRepository(),
		Contents:     store,
		Blobs:        store,
		Deduplicator: memory.NewDeduplicator(time.Minute),
		Snapshots:    store,
		Logger:       logger.NewNoopLogger(),
	})
	require.NoError(t, err)

	_, err = engine.CommitDocument(ctx, application.CommitRequest{
		DocumentID: "budget.xlsx", Department: "Finance", Content: []byte("a\nb\nc"), AuthorID: "alice",
	})
	require.NoError(t, err)

	clean, err := engine.VerifyDocument(ctx, "budget.xlsx")
	require.NoError(t, err)
	assert.False(t, clean.TamperDetected)

	require.NoError(t, afero.WriteFile(fs, store.DocumentPath("budget.xlsx"), []byte("a\nX\nc"), 0o644))

	res, err := engine.VerifyDocument(ctx, "budget.xlsx")
	require.NoError(t, err)
	require.True(t, res.TamperDetected)
	require.NotNil(t, res.Alert)
	assert.Equal(t, constants.AlertTypeTampering, res.Alert.Type)
	assert.Equal(t, constants.OriginExternalDetected, res.TamperVersion.Origin)

	// the altered bytes were captured as a blob
	captured, err := store.Get(ctx, res.TamperVersion.ContentRef)
	require.NoError(t, err)
	assert.Equal(t, "a\nX\nc", string(captured))
}

//Personal.AI order the ending
