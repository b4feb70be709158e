package policy

import (
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

// ShouldFail reports whether any FAIL result has a severity at or above the
// configured enforcement.fail_on_severity threshold.
//
// It returns false when:
//   - cfg is nil (no policy loaded)
//   - fail_on_severity is empty or an unrecognised value
//   - results is empty
//
// ERROR and SKIPPED results never trip enforcement.
func ShouldFail(results []models.CheckResult, cfg *PolicyConfig) bool {
	if cfg == nil || cfg.Enforcement.FailOnSeverity == "" {
		return false
	}
	threshold, err := models.ParseSeverity(cfg.Enforcement.FailOnSeverity)
	if err != nil {
		return false
	}
	for _, r := range results {
		if r.Status == models.StatusFail && r.Severity.Rank() >= threshold.Rank() {
			return true
		}
	}
	return false
}
