// Package config loads the autoscaler's operator-supplied configuration
// from a properties file or a YAML file into an AutoscalerConfig.
package config

import (
	"fmt"
	"time"

	"github.com/atlasfleet/autoscaler/pkg/rules"
	"github.com/atlasfleet/autoscaler/pkg/topology"
)

// AutoscalerConfig is the daemon's immutable, fully-resolved configuration.
type AutoscalerConfig struct {
	APIPublicKey  string
	APIPrivateKey string

	ProjectNames map[string]struct{}
	Rules        []rules.Rule

	MonitoringInterval time.Duration
	DryRun             bool

	ScaleAllShardsInUnison bool
	AllowPerShardScaling   bool
	DefaultNodeType        topology.Role
}

// IncludesProject reports whether name is in the configured project filter.
// An empty filter includes every project.
func (c AutoscalerConfig) IncludesProject(name string) bool {
	if len(c.ProjectNames) == 0 {
		return true
	}
	_, ok := c.ProjectNames[name]
	return ok
}

// Validate checks the resolved config for the misconfigurations that should
// cause the daemon to exit with code 1 before starting its control loop.
func (c AutoscalerConfig) Validate() error {
	if c.APIPublicKey == "" || c.APIPrivateKey == "" {
		return fmt.Errorf("config: apiPublicKey and apiPrivateKey are required")
	}
	if c.MonitoringInterval <= 0 {
		return fmt.Errorf("config: monitoringInterval must be positive")
	}
	if len(c.Rules) == 0 {
		return fmt.Errorf("config: at least one scaling rule must be enabled")
	}
	return nil
}
