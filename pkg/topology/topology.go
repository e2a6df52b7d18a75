// Package topology models a cluster's mutable shard/role topology and the
// scaling projection used to move it one tier at a time.
package topology

import "fmt"

// Role is a node's function within a shard.
type Role string

const (
	Electable Role = "ELECTABLE"
	Analytics Role = "ANALYTICS"
	ReadOnly  Role = "READ_ONLY"
)

// RoleSpec describes one role's instance size and node count on a shard.
// Present is false when the role is absent on this shard (nodeCount == 0
// with no configured size).
type RoleSpec struct {
	InstanceSize Tier
	NodeCount    int
	Present      bool
}

// ShardTopology is one shard's node composition, addressed positionally.
type ShardTopology struct {
	ShardID string
	Roles   map[Role]RoleSpec
}

// ClusterTopology is one cluster's full mutable topology as observed on a
// single monitoring tick.
type ClusterTopology struct {
	ClusterName  string
	Provider     string
	Region       string
	StateName    string
	ClusterType  string
	Shards       []ShardTopology
}

// IsIdle reports whether the cluster was observed in the IDLE state, the
// only state in which the scheduler is permitted to mutate it.
func (c ClusterTopology) IsIdle() bool {
	return c.StateName == "IDLE"
}

// ShardCount returns the number of shards in the topology.
func (c ClusterTopology) ShardCount() int {
	return len(c.Shards)
}

// RoleAt returns the RoleSpec for role on the shard at index i.
func (c ClusterTopology) RoleAt(i int, role Role) (RoleSpec, bool) {
	if i < 0 || i >= len(c.Shards) {
		return RoleSpec{}, false
	}
	spec, ok := c.Shards[i].Roles[role]
	return spec, ok
}

// Clone returns a deep copy of the topology so projections never mutate
// their source.
func (c ClusterTopology) Clone() ClusterTopology {
	shards := make([]ShardTopology, len(c.Shards))
	for i, s := range c.Shards {
		roles := make(map[Role]RoleSpec, len(s.Roles))
		for r, spec := range s.Roles {
			roles[r] = spec
		}
		shards[i] = ShardTopology{ShardID: s.ShardID, Roles: roles}
	}
	return ClusterTopology{
		ClusterName: c.ClusterName,
		Provider:    c.Provider,
		Region:      c.Region,
		StateName:   c.StateName,
		ClusterType: c.ClusterType,
		Shards:      shards,
	}
}

// ShardScope selects which shards a scaling action applies to.
type ShardScope struct {
	AllShards bool
	ShardIdx  int // meaningful only when AllShards is false
}

func (s ShardScope) String() string {
	if s.AllShards {
		return "ALL_SHARDS"
	}
	return fmt.Sprintf("SHARD_INDEX(%d)", s.ShardIdx)
}

// AllShardsScope is the ShardScope matching every shard.
func AllShardsScope() ShardScope { return ShardScope{AllShards: true} }

// ShardIndexScope is the ShardScope matching a single shard by position.
func ShardIndexScope(i int) ShardScope { return ShardScope{ShardIdx: i} }

func (s ShardScope) appliesTo(i int) bool {
	return s.AllShards || s.ShardIdx == i
}

// Project returns a new ClusterTopology with role's instance size moved one
// tier in dir, on every shard matched by scope. Node counts, role presence,
// shard count, provider and region are preserved. The source topology is
// never mutated.
func Project(current ClusterTopology, dir Direction, role Role, scope ShardScope) ClusterTopology {
	target := current.Clone()
	for i := range target.Shards {
		if !scope.appliesTo(i) {
			continue
		}
		spec, ok := target.Shards[i].Roles[role]
		if !ok || !spec.Present {
			continue
		}
		spec.InstanceSize = Step(spec.InstanceSize, dir)
		target.Shards[i].Roles[role] = spec
	}
	return target
}

// Equal reports whether two topologies have identical shard roles (size,
// count, presence) on every shard, ignoring cluster metadata.
func Equal(a, b ClusterTopology) bool {
	if len(a.Shards) != len(b.Shards) {
		return false
	}
	for i := range a.Shards {
		sa, sb := a.Shards[i], b.Shards[i]
		if len(sa.Roles) != len(sb.Roles) {
			return false
		}
		for role, specA := range sa.Roles {
			specB, ok := sb.Roles[role]
			if !ok || specA != specB {
				return false
			}
		}
	}
	return true
}
