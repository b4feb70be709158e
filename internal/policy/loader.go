package policy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the policy file name looked up in the working directory.
const DefaultFile = "dp.yaml"

// LoadPolicy reads and parses the policy file at path. Mapping override paths
// are resolved relative to the directory holding the policy file.
func LoadPolicy(path string) (*PolicyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg PolicyConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.Version != 1 {
		return nil, errors.New("unsupported policy version")
	}

	if cfg.Checks == nil {
		cfg.Checks = make(map[string]CheckConfig)
	}

	dir := filepath.Dir(path)
	cfg.Mappings.Generic = relativeTo(dir, cfg.Mappings.Generic)
	cfg.Mappings.NIST80053 = relativeTo(dir, cfg.Mappings.NIST80053)
	cfg.Mappings.NIST800171 = relativeTo(dir, cfg.Mappings.NIST800171)

	return &cfg, nil
}

// FindPolicy returns the path of dp.yaml in dir, or "" when there is none.
func FindPolicy(dir string) string {
	p := filepath.Join(dir, DefaultFile)
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func relativeTo(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
