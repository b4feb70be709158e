package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

// DefaultWorkers is the worker pool size used when RunOptions.Workers is 0.
const DefaultWorkers = 10

// ErrInvalidOptions is the sentinel wrapped by every ValidationError.
var ErrInvalidOptions = errors.New("invalid run options")

// ValidationError lists every problem found in a set of options. It is
// returned before any task is scheduled.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidOptions, strings.Join(e.Problems, "; "))
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidOptions).
func (e *ValidationError) Unwrap() error { return ErrInvalidOptions }

// RunOptions configures task-set construction and execution for one run.
type RunOptions struct {
	// Checks restricts the run to these check IDs. Entries containing glob
	// metacharacters (*, ?, [) match catalog IDs with doublestar semantics.
	// Empty means every check in the catalog.
	Checks []string

	// SkipChecks removes matching checks. Deny wins over allow.
	SkipChecks []string

	// MinSeverity drops checks whose severity ranks below it. Empty means no
	// severity filter. Matching is case-insensitive.
	MinSeverity string

	// Workers is the size of the worker pool. 0 selects DefaultWorkers and 1
	// runs tasks sequentially in dispatch order.
	Workers int
}

// Validate checks the options and returns a *ValidationError collecting every
// problem, or nil.
func (o RunOptions) Validate() error {
	problems := o.problems()
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

func (o RunOptions) problems() []string {
	var problems []string
	if o.Workers < 0 {
		problems = append(problems, fmt.Sprintf("workers: must be at least 1, got %d", o.Workers))
	}
	if o.MinSeverity != "" {
		if _, err := models.ParseSeverity(o.MinSeverity); err != nil {
			problems = append(problems, fmt.Sprintf("min_severity: %v", err))
		}
	}
	for _, p := range o.Checks {
		if !isGlob(p) || doublestar.ValidatePattern(p) {
			continue
		}
		problems = append(problems, fmt.Sprintf("checks: malformed pattern %q", p))
	}
	for _, p := range o.SkipChecks {
		if !isGlob(p) || doublestar.ValidatePattern(p) {
			continue
		}
		problems = append(problems, fmt.Sprintf("skip_checks: malformed pattern %q", p))
	}
	return problems
}

// validate combines option problems with problems in the region list.
func validate(regions []string, o RunOptions) error {
	problems := o.problems()
	if len(regions) == 0 {
		problems = append(problems, "regions: at least one region is required")
	}
	for i, r := range regions {
		if strings.TrimSpace(r) == "" {
			problems = append(problems, fmt.Sprintf("regions[%d]: empty region name", i))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

// workers returns the effective pool size.
func (o RunOptions) workers() int {
	if o.Workers == 0 {
		return DefaultWorkers
	}
	return o.Workers
}

// minRank returns the severity rank below which checks are dropped; 0 keeps
// everything. Call only after validation.
func (o RunOptions) minRank() int {
	if o.MinSeverity == "" {
		return 0
	}
	sev, _ := models.ParseSeverity(o.MinSeverity)
	return sev.Rank()
}

func isGlob(p string) bool {
	return strings.ContainsAny(p, "*?[")
}

// matchAny reports whether id matches any entry in patterns. Plain entries
// compare exactly; glob entries use doublestar.
func matchAny(patterns []string, id string) bool {
	for _, p := range patterns {
		if !isGlob(p) {
			if p == id {
				return true
			}
			continue
		}
		if ok, err := doublestar.Match(p, id); err == nil && ok {
			return true
		}
	}
	return false
}
