package anomaly

import (
	"context"
	"sync/atomic"

	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/pkg/errors"
)

// SnapshotStore persists trained snapshots so a restarted engine starts warm.
type SnapshotStore interface {
	// LoadSnapshot returns a NotFound error when nothing has been stored yet.
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error
}

// ScorerConfig holds the confidence rules applied at scoring time.
type ScorerConfig struct {
	MinTrainingEvents  int
	MinUserHistory     int
	LowConfidenceScore float64
}

// Scorer serves behavioural scores from the current snapshot. Readers always see either
// the previous or the next complete snapshot.
type Scorer struct {
	cfg     ScorerConfig
	current atomic.Pointer[Snapshot]
}

// NewScorer creates a Scorer without a model; it answers low-confidence until the first Swap.
func NewScorer(cfg ScorerConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Swap installs a new snapshot and returns the one it replaced.
func (s *Scorer) Swap(snapshot *Snapshot) *Snapshot {
	return s.current.Swap(snapshot)
}

// Snapshot returns the snapshot currently serving scores, or nil.
func (s *Scorer) Snapshot() *Snapshot {
	return s.current.Load()
}

func (s *Scorer) ready() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, errors.ModelNotReady("no model trained yet")
	}
	if snap.Samples < s.cfg.MinTrainingEvents {
		return nil, errors.ModelNotReady("model trained on too few events")
	}
	return snap, nil
}

// Score rates vector. priorUserEvents is the number of earlier events of the acting user;
// below MinUserHistory the score is computed but marked low-confidence.
func (s *Scorer) Score(vector []float64, priorUserEvents int) models.BehavioralScore {
	snap, err := s.ready()
	if err != nil {
		return models.BehavioralScore{Score: s.cfg.LowConfidenceScore, LowConfidence: true}
	}
	combined, iso, clu := snap.Score(vector)
	return models.BehavioralScore{
		Score:         combined,
		Isolation:     iso,
		Cluster:       clu,
		LowConfidence: priorUserEvents < s.cfg.MinUserHistory,
	}
}

//Personal.AI order the ending
