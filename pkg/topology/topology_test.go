package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func electableShard(id string, size Tier, count int) ShardTopology {
	return ShardTopology{
		ShardID: id,
		Roles: map[Role]RoleSpec{
			Electable: {InstanceSize: size, NodeCount: count, Present: true},
		},
	}
}

func TestStep(t *testing.T) {
	tests := []struct {
		name string
		tier Tier
		dir  Direction
		want Tier
	}{
		{"mid up", "M30", Up, "M40"},
		{"mid down", "M30", Down, "M20"},
		{"top boundary clamps", "M700", Up, "M700"},
		{"bottom boundary clamps", "M0", Down, "M0"},
		{"off-ladder no-op", "M999", Up, "M999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Step(tt.tier, tt.dir))
		})
	}
}

func TestProject_PreservesShardCount(t *testing.T) {
	current := ClusterTopology{
		ClusterName: "c1",
		Provider:    "AWS",
		Region:      "US_EAST_1",
		Shards: []ShardTopology{
			electableShard("shard-0", "M30", 3),
			electableShard("shard-1", "M30", 3),
		},
	}

	for _, dir := range []Direction{Up, Down} {
		target := Project(current, dir, Electable, AllShardsScope())
		assert.Equal(t, current.ShardCount(), target.ShardCount())
	}
}

func TestProject_UpThenDownIsIdentity_AwayFromBoundary(t *testing.T) {
	current := ClusterTopology{
		ClusterName: "c1",
		Shards: []ShardTopology{
			electableShard("shard-0", "M30", 3),
		},
	}

	up := Project(current, Up, Electable, AllShardsScope())
	roundTrip := Project(up, Down, Electable, AllShardsScope())

	assert.True(t, Equal(current, roundTrip))
}

func TestProject_BoundaryIsNoOp(t *testing.T) {
	current := ClusterTopology{
		ClusterName: "c1",
		Shards:      []ShardTopology{electableShard("shard-0", "M700", 3)},
	}

	target := Project(current, Up, Electable, AllShardsScope())
	assert.True(t, Equal(current, target))
}

func TestProject_SingleShardScope(t *testing.T) {
	current := ClusterTopology{
		ClusterName: "c1",
		Shards: []ShardTopology{
			electableShard("shard-0", "M30", 3),
			electableShard("shard-1", "M30", 3),
		},
	}

	target := Project(current, Up, Electable, ShardIndexScope(1))

	shard0, _ := target.RoleAt(0, Electable)
	shard1, _ := target.RoleAt(1, Electable)
	assert.Equal(t, Tier("M30"), shard0.InstanceSize)
	assert.Equal(t, Tier("M40"), shard1.InstanceSize)
}

func TestProject_DoesNotMutateSource(t *testing.T) {
	current := ClusterTopology{
		ClusterName: "c1",
		Shards:      []ShardTopology{electableShard("shard-0", "M30", 3)},
	}

	_ = Project(current, Up, Electable, AllShardsScope())

	spec, _ := current.RoleAt(0, Electable)
	assert.Equal(t, Tier("M30"), spec.InstanceSize)
}

func TestProject_AbsentRoleUnaffected(t *testing.T) {
	current := ClusterTopology{
		ClusterName: "c1",
		Shards: []ShardTopology{
			{
				ShardID: "shard-0",
				Roles: map[Role]RoleSpec{
					Electable: {InstanceSize: "M30", NodeCount: 3, Present: true},
					Analytics: {}, // absent
				},
			},
		},
	}

	target := Project(current, Up, Analytics, AllShardsScope())
	spec, ok := target.RoleAt(0, Analytics)
	require.True(t, ok)
	assert.False(t, spec.Present)
}

func TestParseClusterDescription_RoundTripsShapeOnNoOpScaling(t *testing.T) {
	doc := ClusterDescription{
		Name:        "Cluster0",
		StateName:   "IDLE",
		ClusterType: "REPLICASET",
		ReplicationSpecs: []replicationSpecDoc{
			{
				RegionConfigs: []regionConfigDoc{
					{
						ProviderName: "AWS",
						RegionName:   "US_EAST_1",
						ElectableSpecs: &instanceSpecsDoc{InstanceSize: "M30", NodeCount: 3},
					},
				},
			},
		},
	}

	parsed, err := ParseClusterDescription(doc)
	require.NoError(t, err)

	payload := BuildPatchPayload(parsed)
	require.Len(t, payload.ReplicationSpecs, 1)
	rc := payload.ReplicationSpecs[0].RegionConfigs[0]
	assert.Equal(t, "AWS", rc.ProviderName)
	assert.Equal(t, "US_EAST_1", rc.RegionName)
	assert.Equal(t, 7, rc.Priority)
	assert.Equal(t, "M30", rc.ElectableSpecs.InstanceSize)
	assert.Equal(t, 3, rc.ElectableSpecs.NodeCount)
}

func TestParseClusterDescription_MissingRoleLeftAbsent(t *testing.T) {
	doc := ClusterDescription{
		Name:      "Cluster0",
		StateName: "IDLE",
		ReplicationSpecs: []replicationSpecDoc{
			{
				RegionConfigs: []regionConfigDoc{
					{
						ProviderName:   "GCP",
						RegionName:     "us-east1",
						ElectableSpecs: &instanceSpecsDoc{InstanceSize: "M20", NodeCount: 3},
					},
				},
			},
		},
	}

	parsed, err := ParseClusterDescription(doc)
	require.NoError(t, err)

	spec, ok := parsed.RoleAt(0, Analytics)
	require.True(t, ok)
	assert.False(t, spec.Present)
}

func TestBuildPatchPayload_ClusterTypeReflectsShardCount(t *testing.T) {
	single := ClusterTopology{Shards: []ShardTopology{electableShard("shard-0", "M30", 3)}, Provider: "aws", Region: "us-east-1"}
	sharded := ClusterTopology{
		Shards: []ShardTopology{
			electableShard("shard-0", "M30", 3),
			electableShard("shard-1", "M30", 3),
		},
		Provider: "aws",
		Region:   "us-east-1",
	}

	assert.Equal(t, "REPLICASET", BuildPatchPayload(single).ClusterType)
	assert.Equal(t, "SHARDED", BuildPatchPayload(sharded).ClusterType)
}

func TestExtractHostnames(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{
			name:  "three hosts with ports",
			input: "mongodb://host1.mongodb.net:27017,host2.mongodb.net:27017,host3.mongodb.net:27017/?replicaSet=rs0",
			want:  []string{"host1.mongodb.net", "host2.mongodb.net", "host3.mongodb.net"},
		},
		{
			name:  "single host no trailing slash",
			input: "mongodb://host1.mongodb.net:27017",
			want:  []string{"host1.mongodb.net"},
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractHostnames(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
