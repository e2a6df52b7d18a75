package rules

import (
	"time"

	"github.com/atlasfleet/autoscaler/pkg/topology"
)

// Comparator is the relation a rule checks a metric value against its
// threshold with.
type Comparator string

const (
	GT  Comparator = "GT"
	LT  Comparator = "LT"
	GTE Comparator = "GTE"
	LTE Comparator = "LTE"
)

// Evaluate applies the comparator to a, b. The package-level Evaluate skips
// NaN point values before reaching here; a NaN threshold makes every
// comparator return false.
func (c Comparator) Evaluate(a, b float64) bool {
	switch c {
	case GT:
		return a > b
	case LT:
		return a < b
	case GTE:
		return a >= b
	case LTE:
		return a <= b
	default:
		return false
	}
}

// Rule is an immutable scaling decision input.
type Rule struct {
	Name       string
	MetricName string
	Condition  Comparator
	Threshold  float64
	Duration   time.Duration
	Direction  topology.Direction
	NodeType   topology.Role
	Cooldown   time.Duration
	ShardScope topology.ShardScope
}

// Verdict is the outcome of evaluating one rule against a metric window.
type Verdict string

const (
	Trigger   Verdict = "TRIGGER"
	NoTrigger Verdict = "NO_TRIGGER"
)
