package redis

import (
	"context"
	stderrors "errors"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/dataguard/internal/domain/anomaly"
	"github.com/turtacn/dataguard/pkg/errors"
)

const snapshotKey = "model:snapshot"

// SnapshotStore persists the latest trained model so a restarted replica warm-starts from it.
type SnapshotStore struct {
	conn *RedisConnection
}

func NewSnapshotStore(conn *RedisConnection) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

func (s *SnapshotStore) LoadSnapshot(ctx context.Context) (*anomaly.Snapshot, error) {
	data, err := s.conn.client.Get(ctx, s.conn.Key(snapshotKey)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, errors.NotFound("model snapshot", "latest")
	}
	if err != nil {
		return nil, errors.Storage("load model snapshot", err)
	}
	return anomaly.UnmarshalSnapshot(data)
}

func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snapshot *anomaly.Snapshot) error {
	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}
	if err := s.conn.client.Set(ctx, s.conn.Key(snapshotKey), data, 0).Err(); err != nil {
		return errors.Storage("save model snapshot", err)
	}
	return nil
}

//Personal.AI order the ending
