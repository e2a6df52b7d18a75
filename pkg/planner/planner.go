// Package planner combines a triggered rule's intent with cluster-wide
// scaling policy to produce a target topology and commit payload.
package planner

import (
	"fmt"

	"github.com/atlasfleet/autoscaler/pkg/atlasclient"
	"github.com/atlasfleet/autoscaler/pkg/rules"
	"github.com/atlasfleet/autoscaler/pkg/topology"
)

// Policy is the subset of AutoscalerConfig the planner needs.
type Policy struct {
	ScaleAllShardsInUnison bool
	AllowPerShardScaling   bool
}

// Plan is the result of resolving one rule's intent against current
// topology and policy.
type Plan struct {
	Target   topology.ClusterTopology
	Changed  bool
	Warnings []string
	Payload  topology.PatchPayload
}

// resolveScope implements the effective-scope resolution from the scaling
// policy: a per-rule SHARD_INDEX scope widens to ALL_SHARDS when the
// cluster forbids per-shard scaling, or when the config forces unison
// scaling across all rules.
func resolveScope(rule rules.Rule, policy Policy) (topology.ShardScope, []string) {
	if rule.ShardScope.AllShards || policy.ScaleAllShardsInUnison {
		return topology.AllShardsScope(), nil
	}
	if !policy.AllowPerShardScaling {
		return topology.AllShardsScope(), []string{
			fmt.Sprintf("rule %q requested per-shard scope %s but allowPerShardScaling is false; widening to ALL_SHARDS", rule.Name, rule.ShardScope),
		}
	}
	return rule.ShardScope, nil
}

// Build projects current topology per rule's direction/nodeType, resolved
// through policy, and evaluates whether the result is a real change worth
// committing. A no-op (every role unchanged — most commonly a tier-ladder
// boundary) yields Changed=false and callers must suppress the commit. An
// off-ladder current tier, or a shard count mismatch after projection,
// returns a *atlasclient.ValidationError and the caller must suppress the
// action rather than commit an inconsistent topology.
func Build(current topology.ClusterTopology, rule rules.Rule, policy Policy) (Plan, error) {
	if reason, ok := offLadderRole(current); ok {
		return Plan{}, &atlasclient.ValidationError{Reason: reason}
	}

	scope, warnings := resolveScope(rule, policy)

	target := topology.Project(current, rule.Direction, rule.NodeType, scope)

	if current.ShardCount() != target.ShardCount() {
		// Defensive only: Project never changes shard count by construction.
		return Plan{}, &atlasclient.ValidationError{
			Reason: fmt.Sprintf("shard count mismatch after projection: %d != %d", current.ShardCount(), target.ShardCount()),
		}
	}

	changed := !topology.Equal(current, target)

	return Plan{
		Target:   target,
		Changed:  changed,
		Warnings: warnings,
		Payload:  topology.BuildPatchPayload(target),
	}, nil
}

func offLadderRole(t topology.ClusterTopology) (string, bool) {
	for _, shard := range t.Shards {
		for role, spec := range shard.Roles {
			if !spec.Present {
				continue
			}
			if !topology.OnLadder(spec.InstanceSize) {
				return fmt.Sprintf("shard %s role %s has off-ladder instance size %q", shard.ShardID, role, spec.InstanceSize), true
			}
		}
	}
	return "", false
}
