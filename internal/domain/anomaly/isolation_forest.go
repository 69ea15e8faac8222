package anomaly

import (
	"math"
	"math/rand"
)

const eulerGamma = 0.5772156649015329

// IsolationForest scores points by how quickly random axis-aligned splits isolate them.
type IsolationForest struct {
	Trees      []*isoNode `json:"trees"`
	SampleSize int        `json:"sample_size"`
	Norm       MinMax     `json:"norm"`
}

type isoNode struct {
	Feature int      `json:"f"`
	Split   float64  `json:"s"`
	Size    int      `json:"n,omitempty"` // set on leaves only
	Left    *isoNode `json:"l,omitempty"`
	Right   *isoNode `json:"r,omitempty"`
}

func (n *isoNode) isLeaf() bool { return n.Left == nil && n.Right == nil }

// FitIsolationForest grows trees trees on random subsamples of data and calibrates the
// normalizer on the training population.
func FitIsolationForest(data [][]float64, trees, sampleSize int, rng *rand.Rand) *IsolationForest {
	if sampleSize > len(data) {
		sampleSize = len(data)
	}
	f := &IsolationForest{SampleSize: sampleSize, Trees: make([]*isoNode, 0, trees)}
	limit := int(math.Ceil(math.Log2(float64(sampleSize))))

	for t := 0; t < trees; t++ {
		perm := rng.Perm(len(data))[:sampleSize]
		sample := make([][]float64, sampleSize)
		for i, idx := range perm {
			sample[i] = data[idx]
		}
		f.Trees = append(f.Trees, growTree(sample, 0, limit, rng))
	}

	raw := make([]float64, len(data))
	for i, x := range data {
		raw[i] = f.Raw(x)
	}
	f.Norm = fitMinMax(raw)
	return f
}

func growTree(points [][]float64, depth, limit int, rng *rand.Rand) *isoNode {
	if depth >= limit || len(points) <= 1 {
		return &isoNode{Size: len(points)}
	}

	// split only on features that still vary inside this node
	dim := len(points[0])
	var candidates []int
	lo := make([]float64, dim)
	hi := make([]float64, dim)
	for j := 0; j < dim; j++ {
		lo[j], hi[j] = points[0][j], points[0][j]
		for _, p := range points[1:] {
			lo[j] = math.Min(lo[j], p[j])
			hi[j] = math.Max(hi[j], p[j])
		}
		if hi[j] > lo[j] {
			candidates = append(candidates, j)
		}
	}
	if len(candidates) == 0 {
		return &isoNode{Size: len(points)}
	}

	feature := candidates[rng.Intn(len(candidates))]
	split := lo[feature] + rng.Float64()*(hi[feature]-lo[feature])

	var left, right [][]float64
	for _, p := range points {
		if p[feature] < split {
			left = append(left, p)
		} else {
			right = append(right, p)
		}
	}
	return &isoNode{
		Feature: feature,
		Split:   split,
		Left:    growTree(left, depth+1, limit, rng),
		Right:   growTree(right, depth+1, limit, rng),
	}
}

// averagePathLength is c(n), the mean path length of an unsuccessful BST search.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
}

func pathLength(x []float64, n *isoNode, depth int) float64 {
	for !n.isLeaf() {
		if x[n.Feature] < n.Split {
			n = n.Left
		} else {
			n = n.Right
		}
		depth++
	}
	return float64(depth) + averagePathLength(n.Size)
}

func (f *IsolationForest) Name() string { return "isolation_forest" }

// Raw returns 2^(-E[h(x)]/c(sampleSize)), in (0,1]; values near 1 are anomalies.
func (f *IsolationForest) Raw(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var total float64
	for _, t := range f.Trees {
		total += pathLength(x, t, 0)
	}
	mean := total / float64(len(f.Trees))
	c := averagePathLength(f.SampleSize)
	if c == 0 {
		return 0
	}
	return math.Pow(2, -mean/c)
}

func (f *IsolationForest) Score(x []float64) float64 {
	return f.Norm.Normalize(f.Raw(x))
}

//Personal.AI order the ending
