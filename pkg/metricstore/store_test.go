package metricstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndRecent(t *testing.T) {
	s := New()
	now := time.Now()

	s.Append("proj/cluster0", "SYSTEM_NORMALIZED_CPU_USER", Point{Hostname: "h1", Timestamp: now, Value: 95.0})
	s.Append("proj/cluster0", "SYSTEM_NORMALIZED_CPU_USER", Point{Hostname: "h1", Timestamp: now.Add(time.Minute), Value: 93.0})

	points := s.Recent("proj/cluster0", "SYSTEM_NORMALIZED_CPU_USER")
	require.Len(t, points, 2)
	assert.Equal(t, 95.0, points[0].Value)
}

func TestRecent_UnknownClusterReturnsNil(t *testing.T) {
	s := New()
	assert.Nil(t, s.Recent("nope/nope", "metric"))
}

func TestEvictOlderThan(t *testing.T) {
	s := New()
	now := time.Now()

	s.Append("proj/cluster0", "m", Point{Timestamp: now.Add(-2 * time.Hour), Value: 1})
	s.Append("proj/cluster0", "m", Point{Timestamp: now.Add(-30 * time.Minute), Value: 2})
	s.Append("proj/cluster0", "m", Point{Timestamp: now, Value: 3})

	s.EvictOlderThan(now.Add(-time.Hour))

	points := s.Recent("proj/cluster0", "m")
	require.Len(t, points, 2)
	assert.Equal(t, 2.0, points[0].Value)
	assert.Equal(t, 3.0, points[1].Value)
}

func TestEvictOlderThan_PrunesEmptyClusterEntries(t *testing.T) {
	s := New()
	now := time.Now()
	s.Append("proj/cluster0", "m", Point{Timestamp: now.Add(-2 * time.Hour), Value: 1})

	s.EvictOlderThan(now)

	assert.Equal(t, 0, s.PointCount())
	assert.Nil(t, s.Recent("proj/cluster0", "m"))
}

func TestPointCount(t *testing.T) {
	s := New()
	now := time.Now()
	s.Append("proj/c0", "m1", Point{Timestamp: now, Value: 1})
	s.Append("proj/c0", "m2", Point{Timestamp: now, Value: 2})
	s.Append("proj/c1", "m1", Point{Timestamp: now, Value: 3})

	assert.Equal(t, 3, s.PointCount())
}

func TestNormalizedCPUToPercent(t *testing.T) {
	assert.Equal(t, 95.0, NormalizedCPUToPercent(0.95))
	assert.Equal(t, 95.0, NormalizedCPUToPercent(95.0))
	assert.Equal(t, 0.0, NormalizedCPUToPercent(0))
	assert.Equal(t, 100.0, NormalizedCPUToPercent(1))
}
