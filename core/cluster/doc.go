// Package cluster partitions fixed-length vectors into groups that minimise
// the within-cluster sum of squared distances. The default KMeans
// implementation is fully deterministic: seeding and tie-breaks always favour
// the lowest vector or centroid index, so identical input yields identical
// output.
package cluster
