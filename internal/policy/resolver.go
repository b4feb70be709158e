package policy

import (
	"sort"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

// ApplyToRequest fills the fields of req that the caller left unset from the
// policy run defaults. Checks disabled under checks.<ID> are always appended
// to the skip list, as are run.skip_checks entries.
//
// Region selection is taken from the policy only when req names no regions
// and does not ask for all regions.
func ApplyToRequest(cfg *PolicyConfig, req *models.RunRequest) {
	if cfg == nil || req == nil {
		return
	}

	run := cfg.Run
	if len(req.Regions) == 0 && !req.AllRegions {
		req.Regions = append([]string(nil), run.Regions...)
		req.AllRegions = run.AllRegions
	}
	if len(req.Checks) == 0 {
		req.Checks = append([]string(nil), run.Checks...)
	}
	if req.MinSeverity == "" {
		req.MinSeverity = run.MinSeverity
	}
	if req.Workers == 0 {
		req.Workers = run.Workers
	}
	if req.Parallel == nil && run.Parallel != nil {
		p := *run.Parallel
		req.Parallel = &p
	}

	req.SkipChecks = append(req.SkipChecks, run.SkipChecks...)
	req.SkipChecks = append(req.SkipChecks, DisabledChecks(cfg)...)
}

// DisabledChecks returns the sorted IDs of checks with enabled: false.
func DisabledChecks(cfg *PolicyConfig) []string {
	if cfg == nil {
		return nil
	}
	var ids []string
	for id, c := range cfg.Checks {
		if c.Enabled != nil && !*c.Enabled {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
