package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
	awssecurity "github.com/pankaj-dahiya-devops/compliance-proxy/internal/providers/aws/security"
)

// Password policy thresholds follow the CIS AWS Foundations benchmark.
const (
	minPasswordLength         = 14
	minPasswordReusePrevented = 24
)

func iamClient(cc CheckContext) (awssecurity.IAMClient, error) {
	cs, err := clients(cc)
	if err != nil {
		return nil, err
	}
	if cs.IAM == nil {
		return nil, fmt.Errorf("iam: %w", ErrClientUnavailable)
	}
	return cs.IAM, nil
}

// RootAccessKeyCheck fails when the root account has active access keys.
// Root keys cannot be scoped down and bypass every IAM policy.
type RootAccessKeyCheck struct{}

func (RootAccessKeyCheck) ID() string                { return "ROOT_ACCESS_KEY" }
func (RootAccessKeyCheck) Name() string              { return "Root Account Access Keys Present" }
func (RootAccessKeyCheck) Severity() models.Severity { return models.SeverityCritical }
func (RootAccessKeyCheck) Scope() models.Scope       { return models.ScopeGlobal }

func (c RootAccessKeyCheck) Execute(ctx context.Context, cc CheckContext) (models.CheckOutcome, error) {
	client, err := iamClient(cc)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	info, err := awssecurity.CollectRootAccountInfo(ctx, client)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	if info.HasAccessKeys {
		msg := fmt.Sprintf("The root account has %d active access key(s).", info.AccessKeyCount)
		if info.SigningCertificates > 0 {
			msg += fmt.Sprintf(" It also has %d signing certificate(s).", info.SigningCertificates)
		}
		return fail(msg, "root:"+cc.AccountID), nil
	}
	return pass("The root account has no access keys."), nil
}

// RootMFADisabledCheck fails when MFA is not enabled on the root account.
type RootMFADisabledCheck struct{}

func (RootMFADisabledCheck) ID() string                { return "ROOT_MFA_DISABLED" }
func (RootMFADisabledCheck) Name() string              { return "Root Account MFA Disabled" }
func (RootMFADisabledCheck) Severity() models.Severity { return models.SeverityCritical }
func (RootMFADisabledCheck) Scope() models.Scope       { return models.ScopeGlobal }

func (c RootMFADisabledCheck) Execute(ctx context.Context, cc CheckContext) (models.CheckOutcome, error) {
	client, err := iamClient(cc)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	info, err := awssecurity.CollectRootAccountInfo(ctx, client)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	if !info.MFAEnabled {
		return fail("MFA is not enabled on the root account.", "root:"+cc.AccountID), nil
	}
	return pass("MFA is enabled on the root account."), nil
}

// IAMUserNoMFACheck fails when any IAM user with console access has no MFA
// device. API-only users (no login profile) are not expected to use MFA.
type IAMUserNoMFACheck struct{}

func (IAMUserNoMFACheck) ID() string                { return "IAM_USER_NO_MFA" }
func (IAMUserNoMFACheck) Name() string              { return "IAM Console User Without MFA" }
func (IAMUserNoMFACheck) Severity() models.Severity { return models.SeverityMedium }
func (IAMUserNoMFACheck) Scope() models.Scope       { return models.ScopeGlobal }

func (c IAMUserNoMFACheck) Execute(ctx context.Context, cc CheckContext) (models.CheckOutcome, error) {
	client, err := iamClient(cc)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	users, err := awssecurity.CollectIAMUsers(ctx, client)
	if err != nil {
		return models.CheckOutcome{}, err
	}

	var bad []string
	console := 0
	for _, u := range users {
		if !u.HasLoginProfile {
			continue
		}
		console++
		if !u.MFAEnabled {
			bad = append(bad, u.UserName)
		}
	}
	if len(bad) > 0 {
		return offenders("console users without MFA", bad), nil
	}
	if console == 0 {
		return pass("No IAM users have console access."), nil
	}
	return pass(fmt.Sprintf("All %d console users have MFA enabled.", console)), nil
}

// PasswordPolicyWeakCheck fails when the account has no password policy or
// the policy falls short of the benchmark thresholds.
type PasswordPolicyWeakCheck struct{}

func (PasswordPolicyWeakCheck) ID() string                { return "IAM_PASSWORD_POLICY_WEAK" }
func (PasswordPolicyWeakCheck) Name() string              { return "Weak IAM Password Policy" }
func (PasswordPolicyWeakCheck) Severity() models.Severity { return models.SeverityMedium }
func (PasswordPolicyWeakCheck) Scope() models.Scope       { return models.ScopeGlobal }

func (c PasswordPolicyWeakCheck) Execute(ctx context.Context, cc CheckContext) (models.CheckOutcome, error) {
	client, err := iamClient(cc)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	policy, err := awssecurity.CollectPasswordPolicy(ctx, client)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	if !policy.Present {
		return fail("No account password policy is configured.", "password-policy:"+cc.AccountID), nil
	}
	if gaps := passwordPolicyGaps(policy); len(gaps) > 0 {
		return fail("Password policy is weak: "+strings.Join(gaps, "; ")+".", "password-policy:"+cc.AccountID), nil
	}
	return pass("Password policy meets the required strength."), nil
}

// passwordPolicyGaps lists every requirement p does not meet, in a fixed order.
func passwordPolicyGaps(p models.AWSPasswordPolicy) []string {
	var gaps []string
	if p.MinimumLength < minPasswordLength {
		gaps = append(gaps, fmt.Sprintf("minimum length %d < %d", p.MinimumLength, minPasswordLength))
	}
	if !p.RequireSymbols {
		gaps = append(gaps, "symbols not required")
	}
	if !p.RequireNumbers {
		gaps = append(gaps, "numbers not required")
	}
	if !p.RequireUppercase {
		gaps = append(gaps, "uppercase not required")
	}
	if !p.RequireLowercase {
		gaps = append(gaps, "lowercase not required")
	}
	if p.PasswordReusePrevention < minPasswordReusePrevented {
		gaps = append(gaps, fmt.Sprintf("reuse prevention %d < %d", p.PasswordReusePrevention, minPasswordReusePrevented))
	}
	return gaps
}
