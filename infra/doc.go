// Package infra groups the adapters around the bidding core: CSV profile
// loading, run stores, metrics sinks, schedule publishing, market price
// downloads and error monitoring. They implement interfaces declared under
// core/ and never import each other's internals.
package infra
