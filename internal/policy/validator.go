package policy

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

// Validate checks cfg for semantic correctness and returns all validation errors
// found. An empty slice means the config is valid.
//
// Checks performed:
//   - version must be 1
//   - run.regions entries must be non-empty
//   - run.checks and run.skip_checks glob patterns must be well formed
//   - run.min_severity must be a valid severity value if set
//   - run.workers must not be negative
//   - checks.<ID> must name a check in catalogIDs
//   - enforcement.fail_on_severity must be a valid severity value if set
//
// All errors are collected before returning; Validate never stops at the first error.
func Validate(cfg *PolicyConfig, catalogIDs []string) []error {
	if cfg == nil {
		return []error{fmt.Errorf("policy config is nil")}
	}

	knownIDs := make(map[string]struct{}, len(catalogIDs))
	for _, id := range catalogIDs {
		knownIDs[id] = struct{}{}
	}

	var errs []error

	if cfg.Version != 1 {
		errs = append(errs, fmt.Errorf("version: unsupported value %d; must be 1", cfg.Version))
	}

	for i, r := range cfg.Run.Regions {
		if strings.TrimSpace(r) == "" {
			errs = append(errs, fmt.Errorf("run.regions[%d]: empty region name", i))
		}
	}
	errs = append(errs, validatePatterns("run.checks", cfg.Run.Checks)...)
	errs = append(errs, validatePatterns("run.skip_checks", cfg.Run.SkipChecks)...)
	if cfg.Run.MinSeverity != "" {
		if _, err := models.ParseSeverity(cfg.Run.MinSeverity); err != nil {
			errs = append(errs, fmt.Errorf("run.min_severity: %w", err))
		}
	}
	if cfg.Run.Workers < 0 {
		errs = append(errs, fmt.Errorf("run.workers: must not be negative, got %d", cfg.Run.Workers))
	}

	for id := range cfg.Checks {
		if _, ok := knownIDs[id]; !ok {
			errs = append(errs, fmt.Errorf("checks.%s: unknown check ID", id))
		}
	}

	if cfg.Enforcement.FailOnSeverity != "" {
		if _, err := models.ParseSeverity(cfg.Enforcement.FailOnSeverity); err != nil {
			errs = append(errs, fmt.Errorf("enforcement.fail_on_severity: %w", err))
		}
	}

	return errs
}

func validatePatterns(field string, patterns []string) []error {
	var errs []error
	for i, p := range patterns {
		switch {
		case strings.TrimSpace(p) == "":
			errs = append(errs, fmt.Errorf("%s[%d]: empty check ID", field, i))
		case !doublestar.ValidatePattern(p):
			errs = append(errs, fmt.Errorf("%s[%d]: invalid pattern %q", field, i, p))
		}
	}
	return errs
}
