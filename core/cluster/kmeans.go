package cluster

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultMaxIterations bounds Lloyd iterations when KMeans.MaxIterations is unset.
const DefaultMaxIterations = 300

// KMeans implements Lloyd's relocation algorithm with deterministic
// farthest-point seeding.
type KMeans struct {
	MaxIterations int
	// Tolerance stops the iteration once no centroid moves further than this
	// Euclidean distance.
	Tolerance float64
}

// Partition implements Partitioner.
func (km KMeans) Partition(vectors [][]float64, k int) (Result, error) {
	if k < 1 {
		return Result{}, fmt.Errorf("cluster count must be positive, got %d", k)
	}
	if len(vectors) < k {
		return Result{}, fmt.Errorf("%w: %d vectors for %d clusters", ErrTooFewVectors, len(vectors), k)
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return Result{}, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}
	maxIter := km.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	centroids := seed(vectors, k)
	assign := make([]int, len(vectors))
	for i := range assign {
		assign[i] = -1
	}
	iter := 0
	for iter < maxIter {
		iter++
		if !assignNearest(vectors, centroids, assign) {
			break
		}
		next := means(vectors, assign, centroids)
		var shift float64
		for c := range next {
			shift = math.Max(shift, floats.Distance(centroids[c], next[c], 2))
		}
		centroids = next
		if shift <= km.Tolerance {
			break
		}
	}

	var inertia float64
	for i, v := range vectors {
		inertia += sqDist(v, centroids[assign[i]])
	}
	return Result{Centroids: centroids, Assignment: assign, Inertia: inertia, Iterations: iter}, nil
}

// seed picks the vector closest to the global mean, then repeatedly the vector
// farthest from all chosen centroids.
func seed(vectors [][]float64, k int) [][]float64 {
	dim := len(vectors[0])
	mean := make([]float64, dim)
	for _, v := range vectors {
		floats.Add(mean, v)
	}
	floats.Scale(1/float64(len(vectors)), mean)

	first, best := 0, math.Inf(1)
	for i, v := range vectors {
		if d := sqDist(v, mean); d < best {
			first, best = i, d
		}
	}
	centroids := [][]float64{clone(vectors[first])}
	nearest := make([]float64, len(vectors))
	for i, v := range vectors {
		nearest[i] = sqDist(v, centroids[0])
	}
	for len(centroids) < k {
		pick, far := 0, -1.0
		for i, d := range nearest {
			if d > far {
				pick, far = i, d
			}
		}
		c := clone(vectors[pick])
		centroids = append(centroids, c)
		for i, v := range vectors {
			nearest[i] = math.Min(nearest[i], sqDist(v, c))
		}
	}
	return centroids
}

// assignNearest updates assign in place and reports whether anything changed.
func assignNearest(vectors, centroids [][]float64, assign []int) bool {
	changed := false
	for i, v := range vectors {
		best, bestD := 0, math.Inf(1)
		for c, cen := range centroids {
			if d := sqDist(v, cen); d < bestD {
				best, bestD = c, d
			}
		}
		if assign[i] != best {
			assign[i] = best
			changed = true
		}
	}
	return changed
}

// means recomputes centroids; an empty cluster keeps its previous centroid.
func means(vectors [][]float64, assign []int, prev [][]float64) [][]float64 {
	dim := len(vectors[0])
	sums := make([][]float64, len(prev))
	counts := make([]int, len(prev))
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, v := range vectors {
		floats.Add(sums[assign[i]], v)
		counts[assign[i]]++
	}
	for c := range sums {
		if counts[c] == 0 {
			copy(sums[c], prev[c])
			continue
		}
		floats.Scale(1/float64(counts[c]), sums[c])
	}
	return sums
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
