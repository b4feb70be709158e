// Package config reads the per-user dp settings file. Project-level run
// settings live in internal/policy.
package config

// Config mirrors $XDG_CONFIG_HOME/devops-proxy/config.yaml. A missing file
// yields the zero Config.
type Config struct {
	AWS AWSConfig `yaml:"aws" json:"aws"`
	Log LogConfig `yaml:"log" json:"log"`
}

// AWSConfig supplies connector defaults for commands run without --profile
// or --home-region.
type AWSConfig struct {
	DefaultProfile string `yaml:"default_profile" json:"default_profile"`
	DefaultRegion  string `yaml:"default_region" json:"default_region"`
}

// LogConfig configures the structured logger on stderr. --log-level
// overrides Level.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Empty means warn.
	Level string `yaml:"level" json:"level"`

	// Format is "text" (default) or "json".
	Format string `yaml:"format" json:"format"`
}

// Loader reads and validates a Config.
type Loader interface {
	Load() (*Config, error)

	// ConfigPath is the file Load reads.
	ConfigPath() string
}
