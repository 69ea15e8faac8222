package anomaly

import (
	"encoding/json"
	"math/rand"
	"time"

	"github.com/turtacn/dataguard/pkg/constants"
	"github.com/turtacn/dataguard/pkg/errors"
)

// TrainConfig parameterizes one training run.
type TrainConfig struct {
	MinSamples      int
	Trees           int
	SampleSize      int
	IsolationSeed   int64
	K               int
	MaxIterations   int
	ClusterSeed     int64
	IsolationWeight float64
	ClusterWeight   float64
}

// DefaultTrainConfig mirrors the configuration defaults.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		MinSamples:      50,
		Trees:           100,
		SampleSize:      256,
		IsolationSeed:   42,
		K:               3,
		MaxIterations:   100,
		ClusterSeed:     42,
		IsolationWeight: 0.5,
		ClusterWeight:   0.5,
	}
}

// Snapshot is a fully trained, immutable model set. Nothing mutates a Snapshot after Train returns.
type Snapshot struct {
	TrainedAt       time.Time        `json:"trained_at"`
	Samples         int              `json:"samples"`
	Dimensions      int              `json:"dimensions"`
	Scaler          *StandardScaler  `json:"scaler"`
	Isolation       *IsolationForest `json:"isolation"`
	Clustering      *KMeans          `json:"clustering"`
	IsolationWeight float64          `json:"isolation_weight"`
	ClusterWeight   float64          `json:"cluster_weight"`
}

// Train fits both detectors on vectors. Fewer than cfg.MinSamples vectors is a ModelNotReady error.
func Train(vectors [][]float64, cfg TrainConfig, now time.Time) (*Snapshot, error) {
	if cfg.MinSamples < 2 {
		cfg.MinSamples = 2
	}
	if len(vectors) < cfg.MinSamples {
		return nil, errors.ModelNotReady("not enough training events").
			WithMetadata("samples", len(vectors)).
			WithMetadata("required", cfg.MinSamples)
	}
	dim := len(vectors[0])
	for _, v := range vectors {
		if len(v) != dim {
			return nil, errors.InvalidArgument("training vectors differ in width")
		}
	}

	scaler := FitScaler(vectors)
	scaled := scaler.TransformAll(vectors)

	return &Snapshot{
		TrainedAt:       now,
		Samples:         len(vectors),
		Dimensions:      dim,
		Scaler:          scaler,
		Isolation:       FitIsolationForest(scaled, cfg.Trees, cfg.SampleSize, rand.New(rand.NewSource(cfg.IsolationSeed))),
		Clustering:      FitKMeans(scaled, cfg.K, cfg.MaxIterations, rand.New(rand.NewSource(cfg.ClusterSeed))),
		IsolationWeight: cfg.IsolationWeight,
		ClusterWeight:   cfg.ClusterWeight,
	}, nil
}

// Detectors returns the snapshot's models in combination order.
func (s *Snapshot) Detectors() []Detector {
	return []Detector{s.Isolation, s.Clustering}
}

// Score returns the normalized isolation and cluster scores of x and their weighted average.
func (s *Snapshot) Score(x []float64) (combined, isolation, cluster float64) {
	z := s.Scaler.Transform(x)
	isolation = s.Isolation.Score(z)
	cluster = s.Clustering.Score(z)

	wI, wK := s.IsolationWeight, s.ClusterWeight
	if wI+wK <= 0 {
		wI, wK = 1, 1
	}
	combined = (wI*isolation + wK*cluster) / (wI + wK)
	return combined, isolation, cluster
}

// Marshal encodes the snapshot for a SnapshotStore.
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSnapshot decodes a stored snapshot.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.WrapError(err, constants.ErrCodeInternal, "decode model snapshot")
	}
	if s.Scaler == nil || s.Isolation == nil || s.Clustering == nil {
		return nil, errors.ModelNotReady("stored snapshot is incomplete")
	}
	return &s, nil
}

//Personal.AI order the ending
