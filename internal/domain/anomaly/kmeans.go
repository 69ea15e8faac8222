package anomaly

import (
	"math"
	"math/rand"
)

// KMeans scores points by their distance to the nearest learned centroid.
type KMeans struct {
	Centroids [][]float64 `json:"centroids"`
	Norm      MinMax      `json:"norm"`
}

// FitKMeans runs Lloyd's algorithm from a k-means++ seeding.
func FitKMeans(data [][]float64, k, maxIterations int, rng *rand.Rand) *KMeans {
	if k > len(data) {
		k = len(data)
	}
	m := &KMeans{Centroids: seedPlusPlus(data, k, rng)}

	assign := make([]int, len(data))
	for i := range assign {
		assign[i] = -1
	}
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, x := range data {
			c, _ := m.nearest(x)
			if c != assign[i] {
				assign[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}
		m.recenter(data, assign)
	}

	raw := make([]float64, len(data))
	for i, x := range data {
		raw[i] = m.Raw(x)
	}
	m.Norm = fitMinMax(raw)
	return m
}

func seedPlusPlus(data [][]float64, k int, rng *rand.Rand) [][]float64 {
	if k == 0 {
		return nil
	}
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(data[rng.Intn(len(data))]))

	dist := make([]float64, len(data))
	for len(centroids) < k {
		var total float64
		for i, x := range data {
			d := math.Inf(1)
			for _, c := range centroids {
				d = math.Min(d, euclidean(x, c))
			}
			dist[i] = d * d
			total += dist[i]
		}
		if total == 0 {
			centroids = append(centroids, clone(data[rng.Intn(len(data))]))
			continue
		}
		target := rng.Float64() * total
		idx := len(data) - 1
		for i, d := range dist {
			target -= d
			if target <= 0 {
				idx = i
				break
			}
		}
		centroids = append(centroids, clone(data[idx]))
	}
	return centroids
}

// recenter moves each centroid to the mean of its members. Empty clusters keep their centroid.
func (m *KMeans) recenter(data [][]float64, assign []int) {
	dim := len(data[0])
	sums := make([][]float64, len(m.Centroids))
	counts := make([]int, len(m.Centroids))
	for i := range sums {
		sums[i] = make([]float64, dim)
	}
	for i, x := range data {
		c := assign[i]
		counts[c]++
		for j := range x {
			sums[c][j] += x[j]
		}
	}
	for c := range m.Centroids {
		if counts[c] == 0 {
			continue
		}
		for j := range sums[c] {
			m.Centroids[c][j] = sums[c][j] / float64(counts[c])
		}
	}
}

func (m *KMeans) nearest(x []float64) (int, float64) {
	best, bestDist := 0, math.Inf(1)
	for i, c := range m.Centroids {
		if d := euclidean(x, c); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

func (m *KMeans) Name() string { return "kmeans" }

// Raw is the Euclidean distance to the nearest centroid.
func (m *KMeans) Raw(x []float64) float64 {
	if len(m.Centroids) == 0 {
		return 0
	}
	_, d := m.nearest(x)
	return d
}

func (m *KMeans) Score(x []float64) float64 {
	return m.Norm.Normalize(m.Raw(x))
}

func clone(x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	return out
}

//Personal.AI order the ending
