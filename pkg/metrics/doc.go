// Package metrics defines and registers the daemon's Prometheus collectors.
//
// All metrics are package-level prometheus.Collector values registered at
// init(); Handler exposes them via promhttp for a scrape endpoint, and Timer
// is a small helper for recording histogram observations around an
// operation.
package metrics
