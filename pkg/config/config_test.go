package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProperties(t *testing.T) {
	input := `
# comment line
apiPublicKey=pub-123
apiPrivateKey=priv-456
includeProjectNames=proj-a,proj-b
monitoringInterval=120
dryRun=true
cpuScaleUpThreshold=85.5
cpuScaleUpDuration=10
enableCpuScaleUp=true
scaleCooldown=45
scaleAllShardsInUnison=true
defaultNodeType=ANALYTICS
unknownKey=ignored
`
	opts, err := LoadProperties(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "pub-123", opts.APIPublicKey)
	assert.Equal(t, "priv-456", opts.APIPrivateKey)
	assert.Equal(t, "proj-a,proj-b", opts.IncludeProjectNames)
	assert.Equal(t, 120, opts.MonitoringInterval)
	assert.True(t, opts.DryRun)
	assert.Equal(t, 85.5, opts.CPUScaleUpThreshold)
	assert.Equal(t, 10, opts.CPUScaleUpDuration)
	assert.True(t, opts.EnableCPUScaleUp)
	assert.Equal(t, 45, opts.ScaleCooldown)
	assert.True(t, opts.ScaleAllShardsInUnison)
	assert.Equal(t, "ANALYTICS", opts.DefaultNodeType)
}

func TestLoadProperties_MalformedLine(t *testing.T) {
	_, err := LoadProperties(strings.NewReader("not-a-key-value-line"))
	assert.Error(t, err)
}

func TestLoadProperties_DefaultsApplyWhenKeyAbsent(t *testing.T) {
	opts, err := LoadProperties(strings.NewReader("apiPublicKey=x\napiPrivateKey=y\n"))
	require.NoError(t, err)
	assert.Equal(t, 300, opts.MonitoringInterval)
	assert.Equal(t, "ELECTABLE", opts.DefaultNodeType)
}

func TestLoadYAML(t *testing.T) {
	input := `
apiPublicKey: pub-123
apiPrivateKey: priv-456
monitoringInterval: 60
enableCpuScaleUp: true
cpuScaleUpThreshold: 92
`
	opts, err := LoadYAML(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "pub-123", opts.APIPublicKey)
	assert.Equal(t, 60, opts.MonitoringInterval)
	assert.True(t, opts.EnableCPUScaleUp)
	assert.Equal(t, 92.0, opts.CPUScaleUpThreshold)
}

func TestBuild_EnabledRulesOnly(t *testing.T) {
	opts := DefaultRawOptions()
	opts.EnableCPUScaleUp = true
	opts.EnableMemoryScaleUp = false
	opts.ScaleCooldown = 30

	cfg := Build(opts)

	require.Len(t, cfg.Rules, 1)
	assert.Equal(t, "cpu-scale-up", cfg.Rules[0].Name)
	assert.Equal(t, 30*60, int(cfg.Rules[0].Cooldown.Seconds()))
}

func TestBuild_ProjectNamesParsed(t *testing.T) {
	opts := DefaultRawOptions()
	opts.IncludeProjectNames = " proj-a ,proj-b,"

	cfg := Build(opts)

	assert.True(t, cfg.IncludesProject("proj-a"))
	assert.True(t, cfg.IncludesProject("proj-b"))
	assert.False(t, cfg.IncludesProject("proj-c"))
}

func TestIncludesProject_EmptyFilterIncludesEverything(t *testing.T) {
	cfg := AutoscalerConfig{}
	assert.True(t, cfg.IncludesProject("anything"))
}

func TestValidate(t *testing.T) {
	cfg := Build(DefaultRawOptions())
	cfg.APIPublicKey = "pub"
	cfg.APIPrivateKey = "priv"
	cfg.Rules = nil
	assert.Error(t, cfg.Validate())

	cfgOpts := DefaultRawOptions()
	cfgOpts.APIPublicKey = "pub"
	cfgOpts.APIPrivateKey = "priv"
	cfgOpts.EnableCPUScaleUp = true
	valid := Build(cfgOpts)
	assert.NoError(t, valid.Validate())
}
