//go:build integration

package storage_test

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/dataguard/internal/config"
	"github.com/turtacn/dataguard/internal/domain/anomaly"
	"github.com/turtacn/dataguard/internal/infrastructure/storage"
	"github.com/turtacn/dataguard/pkg/errors"
	"github.com/turtacn/dataguard/pkg/logger"
)

func TestMinioStore(t *testing.T) {
	if os.Getenv("SKIP_DOCKER_TESTS") == "true" {
		t.Skip("Skipping Docker-dependent tests")
	}

	pool, err := dockertest.NewPool("")
	require.NoError(t, err)
	pool.MaxWait = 2 * time.Minute

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "minio/minio",
		Tag:        "latest",
		Cmd:        []string{"server", "/data"},
		Env: []string{
			"MINIO_ROOT_USER=dataguard",
			"MINIO_ROOT_PASSWORD=dataguard-secret",
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	endpoint := resource.GetHostPort("9000/tcp")
	require.NoError(t, pool.Retry(func() error {
		resp, err := http.Get("http://" + endpoint + "/minio/health/live")
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return errors.InvalidArgument("minio not ready")
		}
		return nil
	}))

	ctx := context.Background()
	store, err := storage.NewMinioStore(ctx, &config.MinioConfig{
		Endpoint:  endpoint,
		Region:    "us-east-1",
		Bucket:    "dataguard-test",
		AccessKey: "dataguard",
		SecretKey: "dataguard-secret",
	}, logger.NewNoopLogger())
	require.NoError(t, err)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	require.NoError(t, store.Put(ctx, "d1", []byte("hello")))
	got, err := store.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	_, err = store.LoadSnapshot(ctx)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	vectors := make([][]float64, 20)
	for i := range vectors {
		vectors[i] = []float64{float64(i % 4), float64(i % 7)}
	}
	snap, err := anomaly.Train(vectors, anomaly.TrainConfig{MinSamples: 10, Trees: 5, SampleSize: 8, K: 2, MaxIterations: 5}, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, store.SaveSnapshot(ctx, snap))
	loaded, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.Samples, loaded.Samples)
}

//Personal.AI order the ending
