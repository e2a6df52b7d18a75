package topology

import (
	"fmt"
	"strings"
)

// instanceSpecsDoc mirrors one of electableSpecs/analyticsSpecs/readOnlySpecs
// on the Atlas cluster description.
type instanceSpecsDoc struct {
	InstanceSize string `json:"instanceSize,omitempty"`
	NodeCount    int    `json:"nodeCount"`
}

// regionConfigDoc mirrors one entry of replicationSpecs[*].regionConfigs.
type regionConfigDoc struct {
	ProviderName    string            `json:"providerName"`
	RegionName      string            `json:"regionName"`
	Priority        int               `json:"priority"`
	ElectableSpecs  *instanceSpecsDoc `json:"electableSpecs,omitempty"`
	AnalyticsSpecs  *instanceSpecsDoc `json:"analyticsSpecs,omitempty"`
	ReadOnlySpecs   *instanceSpecsDoc `json:"readOnlySpecs,omitempty"`
}

// replicationSpecDoc mirrors one shard's entry in replicationSpecs.
type replicationSpecDoc struct {
	ZoneName      string            `json:"zoneName,omitempty"`
	RegionConfigs []regionConfigDoc `json:"regionConfigs"`
}

// ClusterDescription is the subset of the Atlas GET cluster response this
// package needs in order to parse a ClusterTopology.
type ClusterDescription struct {
	Name               string               `json:"name"`
	StateName          string               `json:"stateName"`
	ClusterType        string               `json:"clusterType"`
	ConnectionStrings  ConnectionStringsDoc `json:"connectionStrings"`
	ReplicationSpecs   []replicationSpecDoc `json:"replicationSpecs"`
}

// ConnectionStringsDoc mirrors the connectionStrings block of a cluster
// description; only the standard (non-SRV) string is used for hostname
// extraction.
type ConnectionStringsDoc struct {
	Standard string `json:"standard"`
}

// ParseClusterDescription builds a ClusterTopology from a raw cluster
// description. Region configs beyond index 0 are ignored: the cluster is
// treated as single-region for scaling purposes. A role whose specs block
// is missing or has no instanceSize is left absent on the resulting
// ShardTopology. A missing nodeCount decodes as 0 and does not by itself
// make the role absent.
func ParseClusterDescription(doc ClusterDescription) (ClusterTopology, error) {
	if len(doc.ReplicationSpecs) == 0 {
		return ClusterTopology{}, fmt.Errorf("topology: cluster %q has no replicationSpecs", doc.Name)
	}

	shards := make([]ShardTopology, len(doc.ReplicationSpecs))
	var provider, region string

	for i, rs := range doc.ReplicationSpecs {
		if len(rs.RegionConfigs) == 0 {
			return ClusterTopology{}, fmt.Errorf("topology: cluster %q shard %d has no regionConfigs", doc.Name, i)
		}
		rc := rs.RegionConfigs[0]
		if i == 0 {
			provider, region = rc.ProviderName, rc.RegionName
		}

		roles := make(map[Role]RoleSpec, 3)
		roles[Electable] = specFrom(rc.ElectableSpecs)
		roles[Analytics] = specFrom(rc.AnalyticsSpecs)
		roles[ReadOnly] = specFrom(rc.ReadOnlySpecs)

		shards[i] = ShardTopology{
			ShardID: fmt.Sprintf("shard-%d", i),
			Roles:   roles,
		}
	}

	return ClusterTopology{
		ClusterName: doc.Name,
		Provider:    provider,
		Region:      region,
		StateName:   doc.StateName,
		ClusterType: doc.ClusterType,
		Shards:      shards,
	}, nil
}

func specFrom(doc *instanceSpecsDoc) RoleSpec {
	if doc == nil || doc.InstanceSize == "" {
		return RoleSpec{}
	}
	return RoleSpec{
		InstanceSize: Tier(doc.InstanceSize),
		NodeCount:    doc.NodeCount,
		Present:      true,
	}
}

// BuildPatchPayload emits the PATCH body that replaces a cluster's full
// replicationSpecs list with target's shard roles. clusterType is "SHARDED"
// when target has more than one shard, else "REPLICASET". Roles absent on a
// shard are emitted with nodeCount 0 and the electable instance size as a
// placeholder, per the control plane's documented handling of zero-count
// roles.
func BuildPatchPayload(target ClusterTopology) PatchPayload {
	clusterType := "REPLICASET"
	if target.ShardCount() > 1 {
		clusterType = "SHARDED"
	}

	placeholder := target.Shards[0].Roles[Electable].InstanceSize

	specs := make([]replicationSpecDoc, len(target.Shards))
	for i, shard := range target.Shards {
		specs[i] = replicationSpecDoc{
			RegionConfigs: []regionConfigDoc{
				{
					ProviderName:   strings.ToUpper(target.Provider),
					RegionName:     strings.ToUpper(target.Region),
					Priority:       7,
					ElectableSpecs: specDoc(shard.Roles[Electable], placeholder),
					AnalyticsSpecs: specDoc(shard.Roles[Analytics], placeholder),
					ReadOnlySpecs:  specDoc(shard.Roles[ReadOnly], placeholder),
				},
			},
		}
	}

	return PatchPayload{
		ClusterType:      clusterType,
		ReplicationSpecs: specs,
	}
}

func specDoc(spec RoleSpec, placeholder Tier) *instanceSpecsDoc {
	if !spec.Present && spec.NodeCount == 0 {
		size := placeholder
		return &instanceSpecsDoc{InstanceSize: string(size), NodeCount: 0}
	}
	return &instanceSpecsDoc{InstanceSize: string(spec.InstanceSize), NodeCount: spec.NodeCount}
}

// PatchPayload is the body of a cluster-topology update request.
type PatchPayload struct {
	ClusterType      string               `json:"clusterType"`
	ReplicationSpecs []replicationSpecDoc `json:"replicationSpecs"`
}

// ExtractHostnames parses the standard connection string into the set of
// hostnames belonging to this cluster: host:port pairs separated by commas,
// with the port and any trailing query string stripped.
func ExtractHostnames(standard string) ([]string, error) {
	if standard == "" {
		return nil, fmt.Errorf("topology: empty connection string")
	}
	// mongodb://host1:27017,host2:27017,host3:27017/?param=value
	withoutScheme := standard
	if idx := strings.Index(withoutScheme, "://"); idx >= 0 {
		withoutScheme = withoutScheme[idx+3:]
	}
	if idx := strings.Index(withoutScheme, "/"); idx >= 0 {
		withoutScheme = withoutScheme[:idx]
	}

	parts := strings.Split(withoutScheme, ",")
	hosts := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if idx := strings.LastIndex(p, ":"); idx >= 0 {
			p = p[:idx]
		}
		hosts = append(hosts, p)
	}
	if len(hosts) == 0 {
		return nil, fmt.Errorf("topology: no hostnames found in connection string %q", standard)
	}
	return hosts, nil
}
