// Package aws provides the built-in AWS compliance check pack.
//
// Convention: every check pack lives in internal/checkpacks/<provider>/pack.go
// and exposes a single New() func returning []checks.Check. New checks are
// added to the slice returned by New() and given a row in each framework
// mapping table.
package aws

import "github.com/pankaj-dahiya-devops/compliance-proxy/internal/checks"

// New returns the default AWS check pack in catalog order.
func New() []checks.Check {
	return []checks.Check{
		checks.RootAccessKeyCheck{},                // CRITICAL: root access keys present
		checks.RootMFADisabledCheck{},              // CRITICAL: root account without MFA
		checks.IAMUserNoMFACheck{},                 // MEDIUM:   console user without MFA
		checks.PasswordPolicyWeakCheck{},           // MEDIUM:   password policy below benchmark
		checks.S3PublicBucketCheck{},               // HIGH:     bucket policy is public
		checks.S3DefaultEncryptionMissingCheck{},   // MEDIUM:   bucket without default SSE
		checks.CloudTrailNotMultiRegionCheck{},     // HIGH:     no multi-region trail
		checks.GuardDutyDisabledCheck{},            // HIGH:     no enabled detector
		checks.ConfigDisabledCheck{},               // MEDIUM:   config recorder off
		checks.CloudWatchNoAlarmsCheck{},           // LOW:      no alarms defined
		checks.SecurityGroupOpenSSHCheck{},         // HIGH:     SSH/RDP open to the internet
		checks.EBSUnencryptedCheck{},               // HIGH:     unencrypted volume
		checks.EBSDefaultEncryptionDisabledCheck{}, // MEDIUM:   EBS encryption by default off
		checks.RDSUnencryptedCheck{},               // HIGH:     unencrypted DB storage
		checks.ELBHTTPListenerCheck{},              // MEDIUM:   internet-facing plain HTTP
	}
}

// Catalog builds the default catalog from New().
func Catalog() *checks.Catalog {
	return checks.NewCatalog(New()...)
}
