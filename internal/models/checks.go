package models

import (
	"fmt"
	"strings"
	"time"
)

// Severity represents the impact level of a check.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// severityRank orders severities from least to most severe.
var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the ordinal of s (LOW=1 … CRITICAL=4), or 0 for an unknown value.
func (s Severity) Rank() int {
	return severityRank[s]
}

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// ParseSeverity converts a case-insensitive severity string into a Severity.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToUpper(strings.TrimSpace(s)))
	if !sev.Valid() {
		return "", fmt.Errorf("invalid severity %q; valid values: CRITICAL, HIGH, MEDIUM, LOW", s)
	}
	return sev, nil
}

// Scope controls how many times a check runs per audit.
type Scope string

const (
	// ScopePerRegion checks run once for every audited region.
	ScopePerRegion Scope = "PER_REGION"
	// ScopeGlobal checks run exactly once regardless of region count.
	ScopeGlobal Scope = "GLOBAL"
)

// CheckStatus is the verdict of a single check execution.
type CheckStatus string

const (
	StatusPass    CheckStatus = "PASS"
	StatusFail    CheckStatus = "FAIL"
	StatusError   CheckStatus = "ERROR"
	StatusSkipped CheckStatus = "SKIPPED"
)

// CheckOutcome is what a check body returns for one (check, region) task.
// Status must be PASS, FAIL, or SKIPPED; ERROR is assigned by the engine when
// the body returns an error or panics.
type CheckOutcome struct {
	Status     CheckStatus
	Message    string
	ResourceID string
}

// CheckResult is produced once per executed (check, region) task.
// It is the atomic output unit of the execution engine and is never mutated
// after creation.
type CheckResult struct {
	CheckID    string      `json:"check_id"`
	CheckName  string      `json:"check_name"`
	Region     string      `json:"region"`
	Status     CheckStatus `json:"status"`
	Severity   Severity    `json:"severity"`
	Message    string      `json:"message"`
	ResourceID string      `json:"resource_id,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}
