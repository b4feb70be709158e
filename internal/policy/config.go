package policy

import "github.com/pankaj-dahiya-devops/compliance-proxy/internal/mappings"

// PolicyConfig is the per-project dp.yaml file.
type PolicyConfig struct {
	Version     int                    `yaml:"version"`
	Run         RunConfig              `yaml:"run"`
	Checks      map[string]CheckConfig `yaml:"checks"`
	Mappings    mappings.Paths         `yaml:"mappings"`
	Enforcement EnforcementConfig      `yaml:"enforcement"`
}

// RunConfig holds run defaults. Command-line flags take precedence.
type RunConfig struct {
	Regions     []string `yaml:"regions,omitempty"`
	AllRegions  bool     `yaml:"all_regions,omitempty"`
	Checks      []string `yaml:"checks,omitempty"`
	SkipChecks  []string `yaml:"skip_checks,omitempty"`
	MinSeverity string   `yaml:"min_severity,omitempty"`
	Workers     int      `yaml:"workers,omitempty"`
	Parallel    *bool    `yaml:"parallel,omitempty"`
}

// CheckConfig toggles a single catalog check.
type CheckConfig struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

// EnforcementConfig decides the exit status of dp aws audit compliance.
type EnforcementConfig struct {
	// FailOnSeverity makes the run fail when any FAIL result has this
	// severity or higher. Empty disables enforcement.
	FailOnSeverity string `yaml:"fail_on_severity,omitempty"`
}
