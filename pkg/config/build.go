package config

import (
	"strings"
	"time"

	"github.com/atlasfleet/autoscaler/pkg/rules"
	"github.com/atlasfleet/autoscaler/pkg/topology"
)

// cpuMetric and memoryMetric are the Atlas measurement names the built-in
// rules evaluate.
const (
	cpuMetric    = "SYSTEM_NORMALIZED_CPU_USER"
	memoryMetric = "SYSTEM_MEMORY_PERCENT_USED"
)

// Build resolves a RawOptions into an AutoscalerConfig: it expands the
// enable*/threshold/duration fields into concrete rules.Rule values in a
// fixed order (CPU up, CPU down, memory up), each using defaultNodeType and
// scaleCooldown as its node type and cooldown.
func Build(opts RawOptions) AutoscalerConfig {
	nodeType := topology.Role(strings.ToUpper(opts.DefaultNodeType))
	cooldown := time.Duration(opts.ScaleCooldown) * time.Minute

	var ruleSet []rules.Rule

	if opts.EnableCPUScaleUp {
		ruleSet = append(ruleSet, rules.Rule{
			Name:       "cpu-scale-up",
			MetricName: cpuMetric,
			Condition:  rules.GT,
			Threshold:  opts.CPUScaleUpThreshold,
			Duration:   time.Duration(opts.CPUScaleUpDuration) * time.Minute,
			Direction:  topology.Up,
			NodeType:   nodeType,
			Cooldown:   cooldown,
			ShardScope: topology.AllShardsScope(),
		})
	}
	if opts.EnableCPUScaleDown {
		ruleSet = append(ruleSet, rules.Rule{
			Name:       "cpu-scale-down",
			MetricName: cpuMetric,
			Condition:  rules.LT,
			Threshold:  opts.CPUScaleDownThreshold,
			Duration:   time.Duration(opts.CPUScaleDownDuration) * time.Minute,
			Direction:  topology.Down,
			NodeType:   nodeType,
			Cooldown:   cooldown,
			ShardScope: topology.AllShardsScope(),
		})
	}
	if opts.EnableMemoryScaleUp {
		ruleSet = append(ruleSet, rules.Rule{
			Name:       "memory-scale-up",
			MetricName: memoryMetric,
			Condition:  rules.GT,
			Threshold:  opts.MemoryScaleUpThreshold,
			Duration:   time.Duration(opts.MemoryScaleUpDuration) * time.Minute,
			Direction:  topology.Up,
			NodeType:   nodeType,
			Cooldown:   cooldown,
			ShardScope: topology.AllShardsScope(),
		})
	}

	projectNames := make(map[string]struct{})
	for _, name := range strings.Split(opts.IncludeProjectNames, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			projectNames[name] = struct{}{}
		}
	}

	return AutoscalerConfig{
		APIPublicKey:           opts.APIPublicKey,
		APIPrivateKey:          opts.APIPrivateKey,
		ProjectNames:           projectNames,
		Rules:                  ruleSet,
		MonitoringInterval:     time.Duration(opts.MonitoringInterval) * time.Second,
		DryRun:                 opts.DryRun,
		ScaleAllShardsInUnison: opts.ScaleAllShardsInUnison,
		AllowPerShardScaling:   opts.AllowPerShardScaling,
		DefaultNodeType:        nodeType,
	}
}
