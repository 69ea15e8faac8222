// Package anomaly implements the unsupervised behavioural models: an isolation forest and
// a k-means cluster-distance detector over standardized feature vectors. Trained state is
// an immutable Snapshot that the Scorer swaps atomically.
package anomaly

import "math"

// StandardScaler standardizes each feature to zero mean and unit variance.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler learns per-feature mean and population standard deviation.
// Constant features get a standard deviation of 1 so they map to 0.
func FitScaler(data [][]float64) *StandardScaler {
	if len(data) == 0 {
		return &StandardScaler{}
	}
	dim := len(data[0])
	s := &StandardScaler{Mean: make([]float64, dim), Std: make([]float64, dim)}
	n := float64(len(data))
	for _, row := range data {
		for j := 0; j < dim; j++ {
			s.Mean[j] += row[j]
		}
	}
	for j := range s.Mean {
		s.Mean[j] /= n
	}
	for _, row := range data {
		for j := 0; j < dim; j++ {
			d := row[j] - s.Mean[j]
			s.Std[j] += d * d
		}
	}
	for j := range s.Std {
		s.Std[j] = math.Sqrt(s.Std[j] / n)
		if s.Std[j] < 1e-12 {
			s.Std[j] = 1
		}
	}
	return s
}

// Transform returns the standardized copy of x.
func (s *StandardScaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for j := range x {
		if j >= len(s.Mean) {
			out[j] = x[j]
			continue
		}
		out[j] = (x[j] - s.Mean[j]) / s.Std[j]
	}
	return out
}

// TransformAll standardizes every row.
func (s *StandardScaler) TransformAll(data [][]float64) [][]float64 {
	out := make([][]float64, len(data))
	for i, row := range data {
		out[i] = s.Transform(row)
	}
	return out
}

//Personal.AI order the ending
