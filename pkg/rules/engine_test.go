package rules

import (
	"math"
	"testing"
	"time"

	"github.com/atlasfleet/autoscaler/pkg/metricstore"
	"github.com/atlasfleet/autoscaler/pkg/topology"
	"github.com/stretchr/testify/assert"
)

func cpuRule() Rule {
	return Rule{
		Name:       "cpu-scale-up",
		MetricName: "SYSTEM_NORMALIZED_CPU_USER",
		Condition:  GT,
		Threshold:  90.0,
		Duration:   5 * time.Minute,
		Direction:  topology.Up,
		NodeType:   topology.Electable,
		Cooldown:   30 * time.Minute,
		ShardScope: topology.AllShardsScope(),
	}
}

func TestEvaluate_EmptyPointsNoTrigger(t *testing.T) {
	assert.Equal(t, NoTrigger, Evaluate(nil, cpuRule(), time.Now()))
}

func TestEvaluate_AnyBreachingPointTriggers(t *testing.T) {
	now := time.Now()
	points := []metricstore.Point{
		{Hostname: "h1", Timestamp: now.Add(-4 * time.Minute), Value: 95.0},
		{Hostname: "h1", Timestamp: now.Add(-3 * time.Minute), Value: 93.0},
	}
	assert.Equal(t, Trigger, Evaluate(points, cpuRule(), now))
}

func TestEvaluate_NoPointInWindow(t *testing.T) {
	now := time.Now()
	points := []metricstore.Point{
		{Timestamp: now.Add(-10 * time.Minute), Value: 95.0},
	}
	assert.Equal(t, NoTrigger, Evaluate(points, cpuRule(), now))
}

func TestEvaluate_NoPointBreaches(t *testing.T) {
	now := time.Now()
	points := []metricstore.Point{
		{Timestamp: now.Add(-time.Minute), Value: 50.0},
	}
	assert.Equal(t, NoTrigger, Evaluate(points, cpuRule(), now))
}

func TestEvaluate_NaNIgnored(t *testing.T) {
	now := time.Now()
	points := []metricstore.Point{
		{Timestamp: now.Add(-time.Minute), Value: math.NaN()},
	}
	assert.Equal(t, NoTrigger, Evaluate(points, cpuRule(), now))
}

func TestComparator_Evaluate(t *testing.T) {
	tests := []struct {
		c    Comparator
		a, b float64
		want bool
	}{
		{GT, 5, 3, true},
		{GT, 3, 5, false},
		{LT, 3, 5, true},
		{GTE, 5, 5, true},
		{LTE, 5, 5, true},
		{GT, 5, 5, false},
		{LT, 5, 5, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.c.Evaluate(tt.a, tt.b))
	}
}

func TestComparator_InverseSymmetry(t *testing.T) {
	// GT and LTE are inverses, as are GTE and LT: for non-NaN inputs each
	// pair strictly negates, equality included.
	a, b := 5.0, 3.0
	assert.Equal(t, GT.Evaluate(a, b), !LTE.Evaluate(a, b))
	assert.Equal(t, LT.Evaluate(a, b), !GTE.Evaluate(a, b))
}
