// Package rules implements the pure-function rule engine: given a window of
// recent metric points and a rule, decide TRIGGER or NO_TRIGGER.
package rules

import (
	"math"
	"time"

	"github.com/atlasfleet/autoscaler/pkg/metricstore"
)

// Evaluate returns TRIGGER if any point in points with Timestamp after
// now-rule.Duration satisfies rule.Condition against rule.Threshold.
//
// This is deliberately "any breaching point", not "sustained for the whole
// window" — the rule's Duration field reads like it should mean sustained
// breach, but the observed behavior only requires one point. Preserved as
// documented, not corrected; see the package-level note in doc.go.
func Evaluate(points []metricstore.Point, rule Rule, now time.Time) Verdict {
	if len(points) == 0 {
		return NoTrigger
	}

	window := now.Add(-rule.Duration)
	for _, p := range points {
		if !p.Timestamp.After(window) {
			continue
		}
		if math.IsNaN(p.Value) {
			continue
		}
		if rule.Condition.Evaluate(p.Value, rule.Threshold) {
			return Trigger
		}
	}
	return NoTrigger
}
