// Package metricstore holds a bounded, time-windowed buffer of telemetry
// points per cluster and metric name, with a periodic eviction sweep.
package metricstore

import (
	"sync"
	"time"
)

// Point is one observed metric reading for a host at a point in time.
// Normalized-CPU values are stored in percent; callers convert
// fractional [0,1] readings before calling Append.
type Point struct {
	Hostname  string
	Timestamp time.Time
	Value     float64
}

type clusterMetrics struct {
	mu     sync.Mutex
	points map[string][]Point // metricName -> ordered points
}

// Store is a per-cluster, per-metric bounded buffer of data points. The
// zero value is not usable; construct with New.
type Store struct {
	mu       sync.RWMutex
	clusters map[string]*clusterMetrics
}

// New returns an empty Store.
func New() *Store {
	return &Store{clusters: make(map[string]*clusterMetrics)}
}

func (s *Store) clusterEntry(clusterKey string) *clusterMetrics {
	s.mu.RLock()
	c, ok := s.clusters[clusterKey]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clusters[clusterKey]; ok {
		return c
	}
	c = &clusterMetrics{points: make(map[string][]Point)}
	s.clusters[clusterKey] = c
	return c
}

// Append records a point for clusterKey/metricName. The scheduler serializes
// writes per cluster; each cluster's point slices are additionally guarded by
// that cluster's own mutex.
func (s *Store) Append(clusterKey, metricName string, p Point) {
	c := s.clusterEntry(clusterKey)
	c.mu.Lock()
	c.points[metricName] = append(c.points[metricName], p)
	c.mu.Unlock()
}

// Recent returns the points recorded for clusterKey/metricName. The
// returned slice is a view; callers must not mutate it.
func (s *Store) Recent(clusterKey, metricName string) []Point {
	s.mu.RLock()
	c, ok := s.clusters[clusterKey]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.points[metricName]
}

// EvictOlderThan removes points with Timestamp before cutoff across every
// cluster and metric. Empty metric slices and empty cluster entries are
// pruned so the map never grows past what is currently retained.
func (s *Store) EvictOlderThan(cutoff time.Time) {
	s.mu.RLock()
	clusters := make([]*clusterMetrics, 0, len(s.clusters))
	keys := make([]string, 0, len(s.clusters))
	for k, c := range s.clusters {
		clusters = append(clusters, c)
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	var emptyKeys []string
	for i, c := range clusters {
		c.mu.Lock()
		for metric, points := range c.points {
			kept := points[:0:0]
			for _, p := range points {
				if !p.Timestamp.Before(cutoff) {
					kept = append(kept, p)
				}
			}
			if len(kept) == 0 {
				delete(c.points, metric)
			} else {
				c.points[metric] = kept
			}
		}
		empty := len(c.points) == 0
		c.mu.Unlock()
		if empty {
			emptyKeys = append(emptyKeys, keys[i])
		}
	}

	if len(emptyKeys) == 0 {
		return
	}
	s.mu.Lock()
	for _, k := range emptyKeys {
		if c, ok := s.clusters[k]; ok {
			c.mu.Lock()
			stillEmpty := len(c.points) == 0
			c.mu.Unlock()
			if stillEmpty {
				delete(s.clusters, k)
			}
		}
	}
	s.mu.Unlock()
}

// PointCount returns the total number of retained points across every
// cluster and metric, used for the metric_store_points gauge.
func (s *Store) PointCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, c := range s.clusters {
		c.mu.Lock()
		for _, points := range c.points {
			total += len(points)
		}
		c.mu.Unlock()
	}
	return total
}

// NormalizedCPUToPercent converts a fractional [0,1] CPU reading to percent.
// Values already expressed in percent (outside [0,1]) pass through
// unchanged; Atlas measurement APIs vary on this by metric name.
func NormalizedCPUToPercent(raw float64) float64 {
	if raw >= 0 && raw <= 1 {
		return raw * 100
	}
	return raw
}
