package cluster

import "errors"

// ErrTooFewVectors is returned when there are fewer vectors than clusters.
var ErrTooFewVectors = errors.New("fewer vectors than clusters")

// Partitioner splits vectors into k clusters.
type Partitioner interface {
	Partition(vectors [][]float64, k int) (Result, error)
}

// Result describes a partition. Assignment[i] is the cluster of vectors[i].
type Result struct {
	Centroids  [][]float64
	Assignment []int
	// Inertia is the within-cluster sum of squared distances.
	Inertia    float64
	Iterations int
}

// Sizes returns the number of members of each cluster.
func (r Result) Sizes() []int {
	sizes := make([]int, len(r.Centroids))
	for _, c := range r.Assignment {
		if c >= 0 && c < len(sizes) {
			sizes[c]++
		}
	}
	return sizes
}

// Members returns the vector indices of cluster c in ascending order.
func (r Result) Members(c int) []int {
	var out []int
	for i, a := range r.Assignment {
		if a == c {
			out = append(out, i)
		}
	}
	return out
}
