package memory

import (
	"context"
	"sync"

	"github.com/turtacn/dataguard/internal/domain/anomaly"
	"github.com/turtacn/dataguard/pkg/errors"
)

// SnapshotStore keeps the last model snapshot in its serialized form, so a load
// returns an independent copy exactly as a remote store would.
type SnapshotStore struct {
	mu   sync.RWMutex
	data []byte
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

func (s *SnapshotStore) LoadSnapshot(ctx context.Context) (*anomaly.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil, errors.NotFound("model snapshot", "latest")
	}
	return anomaly.UnmarshalSnapshot(s.data)
}

func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snapshot *anomaly.Snapshot) error {
	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}

//Personal.AI order the ending
