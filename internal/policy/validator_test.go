package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/policy"
)

// knownChecks is a fixed check ID set used by all validator tests.
var knownChecks = []string{"CHECK_A", "CHECK_B", "CHECK_C"}

func boolPtr(b bool) *bool { return &b }

// ── happy path ────────────────────────────────────────────────────────────────

func TestValidate_ValidMinimalConfig(t *testing.T) {
	errs := policy.Validate(&policy.PolicyConfig{Version: 1}, knownChecks)
	assert.Empty(t, errs)
}

func TestValidate_ValidFullConfig(t *testing.T) {
	cfg := &policy.PolicyConfig{
		Version: 1,
		Run: policy.RunConfig{
			Regions:     []string{"us-east-1"},
			Checks:      []string{"CHECK_*"},
			SkipChecks:  []string{"CHECK_C"},
			MinSeverity: "medium",
			Workers:     4,
			Parallel:    boolPtr(true),
		},
		Checks: map[string]policy.CheckConfig{
			"CHECK_A": {Enabled: boolPtr(false)},
			"CHECK_B": {},
		},
		Enforcement: policy.EnforcementConfig{FailOnSeverity: "high"},
	}
	assert.Empty(t, policy.Validate(cfg, knownChecks))
}

func TestValidate_SeverityCaseInsensitive(t *testing.T) {
	for _, sev := range []string{"critical", "CRITICAL", "High", "medium", "LOW"} {
		cfg := &policy.PolicyConfig{
			Version:     1,
			Run:         policy.RunConfig{MinSeverity: sev},
			Enforcement: policy.EnforcementConfig{FailOnSeverity: sev},
		}
		assert.Empty(t, policy.Validate(cfg, knownChecks), "severity %q", sev)
	}
}

// ── error collection ─────────────────────────────────────────────────────────

func TestValidate_NilConfig(t *testing.T) {
	assert.Len(t, policy.Validate(nil, knownChecks), 1)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &policy.PolicyConfig{
		Version: 3,
		Run: policy.RunConfig{
			Regions:     []string{"us-east-1", " "},
			Checks:      []string{"CHECK_[A"},
			SkipChecks:  []string{""},
			MinSeverity: "INFO",
			Workers:     -1,
		},
		Checks: map[string]policy.CheckConfig{
			"NOT_A_CHECK": {Enabled: boolPtr(false)},
		},
		Enforcement: policy.EnforcementConfig{FailOnSeverity: "urgent"},
	}
	errs := policy.Validate(cfg, knownChecks)

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	assert.Len(t, errs, 8, "got %v", msgs)
	for _, field := range []string{
		"version", "run.regions[1]", "run.checks[0]", "run.skip_checks[0]",
		"run.min_severity", "run.workers", "checks.NOT_A_CHECK", "enforcement.fail_on_severity",
	} {
		found := false
		for _, m := range msgs {
			if len(m) >= len(field) && m[:len(field)] == field {
				found = true
				break
			}
		}
		assert.True(t, found, "missing error for %s in %v", field, msgs)
	}
}
