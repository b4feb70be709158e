package checks

import (
	"context"
	"fmt"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
	awssecurity "github.com/pankaj-dahiya-devops/compliance-proxy/internal/providers/aws/security"
)

// CloudTrailNotMultiRegionCheck fails when the account has no multi-region
// trail. A single-region trail leaves API activity in other regions
// unrecorded.
type CloudTrailNotMultiRegionCheck struct{}

func (CloudTrailNotMultiRegionCheck) ID() string                { return "CLOUDTRAIL_NOT_MULTI_REGION" }
func (CloudTrailNotMultiRegionCheck) Name() string              { return "CloudTrail Not Multi-Region" }
func (CloudTrailNotMultiRegionCheck) Severity() models.Severity { return models.SeverityHigh }
func (CloudTrailNotMultiRegionCheck) Scope() models.Scope       { return models.ScopeGlobal }

func (c CloudTrailNotMultiRegionCheck) Execute(ctx context.Context, cc CheckContext) (models.CheckOutcome, error) {
	cs, err := clients(cc)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	if cs.CloudTrail == nil {
		return models.CheckOutcome{}, fmt.Errorf("cloudtrail: %w", ErrClientUnavailable)
	}
	status, err := awssecurity.CollectCloudTrailStatus(ctx, cs.CloudTrail)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	switch {
	case status.TrailCount == 0:
		return fail("No CloudTrail trails are configured.", "cloudtrail:"+cc.AccountID), nil
	case !status.HasMultiRegionTrail:
		return fail(fmt.Sprintf("None of %d trails is multi-region.", status.TrailCount), "cloudtrail:"+cc.AccountID), nil
	}
	return pass("A multi-region CloudTrail trail is configured."), nil
}

// GuardDutyDisabledCheck fails when the region has no enabled GuardDuty
// detector.
type GuardDutyDisabledCheck struct{}

func (GuardDutyDisabledCheck) ID() string                { return "GUARDDUTY_DISABLED" }
func (GuardDutyDisabledCheck) Name() string              { return "GuardDuty Disabled" }
func (GuardDutyDisabledCheck) Severity() models.Severity { return models.SeverityHigh }
func (GuardDutyDisabledCheck) Scope() models.Scope       { return models.ScopePerRegion }

func (c GuardDutyDisabledCheck) Execute(ctx context.Context, cc CheckContext) (models.CheckOutcome, error) {
	cs, err := clients(cc)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	if cs.GuardDuty == nil {
		return models.CheckOutcome{}, fmt.Errorf("guardduty: %w", ErrClientUnavailable)
	}
	status, err := awssecurity.CollectGuardDutyStatus(ctx, cs.GuardDuty, cc.Region)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	if !status.Enabled {
		resource := "guardduty:" + cc.Region
		if status.DetectorID != "" {
			resource = status.DetectorID
		}
		return fail(fmt.Sprintf("GuardDuty is not enabled in %s.", cc.Region), resource), nil
	}
	return pass(fmt.Sprintf("GuardDuty detector %s is enabled.", status.DetectorID)), nil
}

// ConfigDisabledCheck fails when AWS Config is not recording in the region.
type ConfigDisabledCheck struct{}

func (ConfigDisabledCheck) ID() string                { return "AWS_CONFIG_DISABLED" }
func (ConfigDisabledCheck) Name() string              { return "AWS Config Disabled" }
func (ConfigDisabledCheck) Severity() models.Severity { return models.SeverityMedium }
func (ConfigDisabledCheck) Scope() models.Scope       { return models.ScopePerRegion }

func (c ConfigDisabledCheck) Execute(ctx context.Context, cc CheckContext) (models.CheckOutcome, error) {
	cs, err := clients(cc)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	if cs.Config == nil {
		return models.CheckOutcome{}, fmt.Errorf("config: %w", ErrClientUnavailable)
	}
	status, err := awssecurity.CollectConfigStatus(ctx, cs.Config, cc.Region)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	if !status.Enabled {
		msg := fmt.Sprintf("AWS Config has no recorder in %s.", cc.Region)
		if status.RecorderCount > 0 {
			msg = fmt.Sprintf("AWS Config recorder in %s is not recording.", cc.Region)
		}
		return fail(msg, "config-recorder:"+cc.Region), nil
	}
	return pass(fmt.Sprintf("AWS Config is recording in %s.", cc.Region)), nil
}

// CloudWatchNoAlarmsCheck fails when the region has no CloudWatch alarms at
// all, which means nothing alerts on security-relevant metric filters.
type CloudWatchNoAlarmsCheck struct{}

func (CloudWatchNoAlarmsCheck) ID() string                { return "CLOUDWATCH_NO_ALARMS" }
func (CloudWatchNoAlarmsCheck) Name() string              { return "No CloudWatch Alarms" }
func (CloudWatchNoAlarmsCheck) Severity() models.Severity { return models.SeverityLow }
func (CloudWatchNoAlarmsCheck) Scope() models.Scope       { return models.ScopePerRegion }

func (c CloudWatchNoAlarmsCheck) Execute(ctx context.Context, cc CheckContext) (models.CheckOutcome, error) {
	cs, err := clients(cc)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	if cs.CloudWatch == nil {
		return models.CheckOutcome{}, fmt.Errorf("cloudwatch: %w", ErrClientUnavailable)
	}
	n, err := awssecurity.CountAlarms(ctx, cs.CloudWatch, cc.Region)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	if n == 0 {
		return fail(fmt.Sprintf("No CloudWatch alarms are defined in %s.", cc.Region), "cloudwatch:"+cc.Region), nil
	}
	return pass(fmt.Sprintf("%d CloudWatch alarms are defined in %s.", n, cc.Region)), nil
}
