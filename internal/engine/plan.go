package engine

import (
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/checks"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

// task is one (check, region) unit of work.
type task struct {
	check  checks.Check
	region string
}

// planTasks builds the task list in catalog order:
//  1. allow-list (all checks when empty; unknown IDs match nothing)
//  2. deny-list (wins over the allow-list)
//  3. expansion: PER_REGION once per region, GLOBAL once labelled regions[0]
//  4. severity floor
//
// regions must be validated and non-empty. Duplicate regions are collapsed.
func planTasks(catalog *checks.Catalog, regions []string, opts RunOptions) []task {
	regions = dedupe(regions)
	floor := opts.minRank()

	var tasks []task
	for _, chk := range catalog.All() {
		id := chk.ID()
		if len(opts.Checks) > 0 && !matchAny(opts.Checks, id) {
			continue
		}
		if matchAny(opts.SkipChecks, id) {
			continue
		}
		if chk.Severity().Rank() < floor {
			continue
		}
		if chk.Scope() == models.ScopeGlobal {
			tasks = append(tasks, task{check: chk, region: regions[0]})
			continue
		}
		for _, r := range regions {
			tasks = append(tasks, task{check: chk, region: r})
		}
	}
	return tasks
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
