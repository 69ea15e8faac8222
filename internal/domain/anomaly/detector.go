package anomaly

import "math"

// Detector is one of the closed set of behavioural models.
type Detector interface {
	// Name identifies the variant in logs and metrics.
	Name() string
	// Raw returns the un-normalized anomaly score of a standardized vector; higher is more anomalous.
	Raw(x []float64) float64
	// Score returns Raw min-max normalized against the training population, in [0,1].
	Score(x []float64) float64
}

// MinMax rescales raw scores against the range observed on the training population.
type MinMax struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func fitMinMax(scores []float64) MinMax {
	if len(scores) == 0 {
		return MinMax{}
	}
	m := MinMax{Min: scores[0], Max: scores[0]}
	for _, s := range scores[1:] {
		m.Min = math.Min(m.Min, s)
		m.Max = math.Max(m.Max, s)
	}
	return m
}

// Normalize maps raw into [0,1]. With a degenerate range, anything above it is maximal.
func (m MinMax) Normalize(raw float64) float64 {
	span := m.Max - m.Min
	if span < 1e-12 {
		if raw > m.Max+1e-12 {
			return 1
		}
		return 0
	}
	v := (raw - m.Min) / span
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

//Personal.AI order the ending
