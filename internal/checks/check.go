package checks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
	awssecurity "github.com/pankaj-dahiya-devops/compliance-proxy/internal/providers/aws/security"
)

// ErrClientUnavailable is returned by a check whose ClientSet lacks the
// service client it needs.
var ErrClientUnavailable = errors.New("aws client unavailable")

// CheckContext carries everything a check needs to evaluate one task: the
// account being audited, the region the task is labelled with, and the SDK
// clients scoped to that region. GLOBAL checks receive the clients for the
// first requested region.
type CheckContext struct {
	// AccountID is the AWS account being evaluated.
	AccountID string

	// Region is the region label of the task.
	Region string

	// Clients holds the region-scoped service clients. Shared read-only
	// between all tasks of the same region.
	Clients *awssecurity.ClientSet
}

// Check is a single compliance check. Checks must be stateless and safe to
// call concurrently from several workers.
type Check interface {
	// ID returns the unique, stable identifier (e.g. "SG_OPEN_SSH").
	ID() string

	// Name returns a short human-readable check name.
	Name() string

	// Severity is the static severity attached to every result of this check.
	Severity() models.Severity

	// Scope tells the executor whether to run the check once per region or
	// once per run.
	Scope() models.Scope

	// Execute performs the check and returns exactly one outcome. A returned
	// error is recorded as an ERROR result by the executor.
	Execute(ctx context.Context, cc CheckContext) (models.CheckOutcome, error)
}

// ---------------------------------------------------------------------------
// Outcome helpers shared by the built-in checks
// ---------------------------------------------------------------------------

func pass(msg string) models.CheckOutcome {
	return models.CheckOutcome{Status: models.StatusPass, Message: msg}
}

func fail(msg, resourceID string) models.CheckOutcome {
	return models.CheckOutcome{Status: models.StatusFail, Message: msg, ResourceID: resourceID}
}

func skipped(msg string) models.CheckOutcome {
	return models.CheckOutcome{Status: models.StatusSkipped, Message: msg}
}

// maxListed caps how many offending resources are spelled out in a message.
const maxListed = 5

// offenders builds the FAIL outcome for a check that found one or more
// non-compliant resources. ids are sorted so the outcome is deterministic;
// the resource id column carries every offender, the message only the first
// few.
func offenders(noun string, ids []string) models.CheckOutcome {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	listed := sorted
	suffix := ""
	if len(listed) > maxListed {
		listed = listed[:maxListed]
		suffix = fmt.Sprintf(" and %d more", len(sorted)-maxListed)
	}
	msg := fmt.Sprintf("%d %s: %s%s", len(sorted), noun, strings.Join(listed, ", "), suffix)
	return fail(msg, strings.Join(sorted, ","))
}

// clients returns cc.Clients or ErrClientUnavailable when it is nil.
func clients(cc CheckContext) (*awssecurity.ClientSet, error) {
	if cc.Clients == nil {
		return nil, fmt.Errorf("region %s: %w", cc.Region, ErrClientUnavailable)
	}
	return cc.Clients, nil
}
