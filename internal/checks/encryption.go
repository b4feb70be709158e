package checks

import (
	"context"
	"fmt"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
	awssecurity "github.com/pankaj-dahiya-devops/compliance-proxy/internal/providers/aws/security"
)

// EBSUnencryptedCheck fails when any EBS volume in the region is unencrypted.
type EBSUnencryptedCheck struct{}

func (EBSUnencryptedCheck) ID() string                { return "EBS_UNENCRYPTED" }
func (EBSUnencryptedCheck) Name() string              { return "Unencrypted EBS Volume" }
func (EBSUnencryptedCheck) Severity() models.Severity { return models.SeverityHigh }
func (EBSUnencryptedCheck) Scope() models.Scope       { return models.ScopePerRegion }

func (c EBSUnencryptedCheck) Execute(ctx context.Context, cc CheckContext) (models.CheckOutcome, error) {
	cs, err := clients(cc)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	if cs.EC2 == nil {
		return models.CheckOutcome{}, fmt.Errorf("ec2: %w", ErrClientUnavailable)
	}
	volumes, err := awssecurity.CollectEBSVolumes(ctx, cs.EC2, cc.Region)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	if len(volumes) == 0 {
		return skipped(fmt.Sprintf("No EBS volumes in %s.", cc.Region)), nil
	}
	var bare []string
	for _, v := range volumes {
		if !v.Encrypted {
			bare = append(bare, v.VolumeID)
		}
	}
	if len(bare) > 0 {
		return offenders("unencrypted EBS volumes", bare), nil
	}
	return pass(fmt.Sprintf("All %d EBS volumes in %s are encrypted.", len(volumes), cc.Region)), nil
}

// EBSDefaultEncryptionDisabledCheck fails when EBS encryption by default is
// off for the region.
type EBSDefaultEncryptionDisabledCheck struct{}

func (EBSDefaultEncryptionDisabledCheck) ID() string { return "EBS_DEFAULT_ENCRYPTION_DISABLED" }
func (EBSDefaultEncryptionDisabledCheck) Name() string {
	return "EBS Encryption By Default Disabled"
}
func (EBSDefaultEncryptionDisabledCheck) Severity() models.Severity { return models.SeverityMedium }
func (EBSDefaultEncryptionDisabledCheck) Scope() models.Scope       { return models.ScopePerRegion }

func (c EBSDefaultEncryptionDisabledCheck) Execute(ctx context.Context, cc CheckContext) (models.CheckOutcome, error) {
	cs, err := clients(cc)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	if cs.EC2 == nil {
		return models.CheckOutcome{}, fmt.Errorf("ec2: %w", ErrClientUnavailable)
	}
	enabled, err := awssecurity.CollectEBSDefaultEncryption(ctx, cs.EC2, cc.Region)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	if !enabled {
		return fail(fmt.Sprintf("EBS encryption by default is disabled in %s.", cc.Region), "ebs-default-encryption:"+cc.Region), nil
	}
	return pass(fmt.Sprintf("EBS encryption by default is enabled in %s.", cc.Region)), nil
}

// RDSUnencryptedCheck fails when any RDS instance in the region has
// unencrypted storage.
type RDSUnencryptedCheck struct{}

func (RDSUnencryptedCheck) ID() string                { return "RDS_UNENCRYPTED" }
func (RDSUnencryptedCheck) Name() string              { return "Unencrypted RDS Instance" }
func (RDSUnencryptedCheck) Severity() models.Severity { return models.SeverityHigh }
func (RDSUnencryptedCheck) Scope() models.Scope       { return models.ScopePerRegion }

func (c RDSUnencryptedCheck) Execute(ctx context.Context, cc CheckContext) (models.CheckOutcome, error) {
	cs, err := clients(cc)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	if cs.RDS == nil {
		return models.CheckOutcome{}, fmt.Errorf("rds: %w", ErrClientUnavailable)
	}
	instances, err := awssecurity.CollectRDSInstances(ctx, cs.RDS, cc.Region)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	if len(instances) == 0 {
		return skipped(fmt.Sprintf("No RDS instances in %s.", cc.Region)), nil
	}
	var bare []string
	for _, inst := range instances {
		if !inst.StorageEncrypted {
			bare = append(bare, inst.DBInstanceID)
		}
	}
	if len(bare) > 0 {
		return offenders("RDS instances with unencrypted storage", bare), nil
	}
	return pass(fmt.Sprintf("All %d RDS instances in %s are encrypted.", len(instances), cc.Region)), nil
}
