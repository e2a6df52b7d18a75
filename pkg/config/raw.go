package config

// RawOptions mirrors the recognized properties-file / YAML keys the
// operator CLI supplies, before they are resolved into rules.Rule values
// and an AutoscalerConfig.
type RawOptions struct {
	APIPublicKey  string `yaml:"apiPublicKey"`
	APIPrivateKey string `yaml:"apiPrivateKey"`

	IncludeProjectNames string `yaml:"includeProjectNames"`

	MonitoringInterval int  `yaml:"monitoringInterval"`
	DryRun             bool `yaml:"dryRun"`

	CPUScaleUpThreshold    float64 `yaml:"cpuScaleUpThreshold"`
	CPUScaleUpDuration     int     `yaml:"cpuScaleUpDuration"`
	CPUScaleDownThreshold  float64 `yaml:"cpuScaleDownThreshold"`
	CPUScaleDownDuration   int     `yaml:"cpuScaleDownDuration"`
	EnableCPUScaleUp       bool    `yaml:"enableCpuScaleUp"`
	EnableCPUScaleDown     bool    `yaml:"enableCpuScaleDown"`

	MemoryScaleUpThreshold float64 `yaml:"memoryScaleUpThreshold"`
	MemoryScaleUpDuration  int     `yaml:"memoryScaleUpDuration"`
	EnableMemoryScaleUp    bool    `yaml:"enableMemoryScaleUp"`

	ScaleCooldown int `yaml:"scaleCooldown"`

	ScaleAllShardsInUnison bool   `yaml:"scaleAllShardsInUnison"`
	AllowPerShardScaling   bool   `yaml:"allowPerShardScaling"`
	DefaultNodeType        string `yaml:"defaultNodeType"`
}

// DefaultRawOptions returns the operator-facing defaults used when a key is
// absent from the supplied file.
func DefaultRawOptions() RawOptions {
	return RawOptions{
		MonitoringInterval:    300,
		CPUScaleUpThreshold:   90,
		CPUScaleUpDuration:    5,
		CPUScaleDownThreshold: 20,
		CPUScaleDownDuration:  30,
		ScaleCooldown:         30,
		DefaultNodeType:       "ELECTABLE",
	}
}
