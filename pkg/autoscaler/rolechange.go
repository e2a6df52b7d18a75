package autoscaler

import (
	"fmt"
	"strings"

	"github.com/atlasfleet/autoscaler/pkg/topology"
)

// RoleChange describes one shard/role instance-size move, used to render a
// single log line shared by dry-run and commit paths.
type RoleChange struct {
	Shard string
	Role  topology.Role
	From  topology.Tier
	To    topology.Tier
}

func (c RoleChange) String() string {
	return fmt.Sprintf("%s %s %s→%s", c.Shard, strings.ToLower(string(c.Role)), c.From, c.To)
}

// diffTopology returns one RoleChange per shard/role whose instance size
// differs between current and target.
func diffTopology(current, target topology.ClusterTopology) []RoleChange {
	var changes []RoleChange
	for i, shard := range current.Shards {
		if i >= len(target.Shards) {
			continue
		}
		for role, spec := range shard.Roles {
			targetSpec, ok := target.Shards[i].Roles[role]
			if !ok || !spec.Present || !targetSpec.Present {
				continue
			}
			if spec.InstanceSize != targetSpec.InstanceSize {
				changes = append(changes, RoleChange{
					Shard: shard.ShardID,
					Role:  role,
					From:  spec.InstanceSize,
					To:    targetSpec.InstanceSize,
				})
			}
		}
	}
	return changes
}
