package models

// The types in this file are the normalised views of AWS resources that the
// collectors in internal/providers/aws/security return and that the checks
// judge. They carry only the attributes a check needs.

// AWSS3Bucket represents an S3 bucket and its security attributes.
// Public is true when GetBucketPolicyStatus reports IsPublic == true.
// Buckets without a bucket policy have Public == false.
type AWSS3Bucket struct {
	Name                     string `json:"name"`
	Public                   bool   `json:"public"`
	DefaultEncryptionEnabled bool   `json:"default_encryption_enabled"`
}

// AWSSecurityGroupRule represents a single inbound rule in an EC2 security group.
type AWSSecurityGroupRule struct {
	GroupID  string `json:"group_id"`
	FromPort int    `json:"from_port"`
	ToPort   int    `json:"to_port"`
	CIDR     string `json:"cidr"`
	Region   string `json:"region"`
}

// AWSIAMUser represents an IAM user and its relevant security attributes.
// API-only users have HasLoginProfile == false and are not expected to use MFA.
type AWSIAMUser struct {
	UserName        string `json:"user_name"`
	MFAEnabled      bool   `json:"mfa_enabled"`
	HasLoginProfile bool   `json:"has_login_profile"`
}

// AWSRootAccountInfo captures security attributes of the AWS root account.
type AWSRootAccountInfo struct {
	HasAccessKeys       bool `json:"has_access_keys"`
	AccessKeyCount      int  `json:"access_key_count"`
	SigningCertificates int  `json:"signing_certificates"`
	MFAEnabled          bool `json:"mfa_enabled"`
}

// AWSPasswordPolicy is the account password policy. Present is false when the
// account has no custom policy configured.
type AWSPasswordPolicy struct {
	Present                 bool `json:"present"`
	MinimumLength           int  `json:"minimum_length"`
	RequireSymbols          bool `json:"require_symbols"`
	RequireNumbers          bool `json:"require_numbers"`
	RequireUppercase        bool `json:"require_uppercase"`
	RequireLowercase        bool `json:"require_lowercase"`
	MaxPasswordAge          int  `json:"max_password_age"`
	PasswordReusePrevention int  `json:"password_reuse_prevention"`
}

// AWSCloudTrailStatus holds the CloudTrail configuration for an AWS account.
type AWSCloudTrailStatus struct {
	TrailCount          int  `json:"trail_count"`
	HasMultiRegionTrail bool `json:"has_multi_region_trail"`
}

// AWSGuardDutyStatus holds the GuardDuty detector status for a single region.
type AWSGuardDutyStatus struct {
	Region     string `json:"region"`
	DetectorID string `json:"detector_id,omitempty"`
	Enabled    bool   `json:"enabled"`
}

// AWSConfigStatus holds the AWS Config recorder status for a single region.
type AWSConfigStatus struct {
	Region        string `json:"region"`
	RecorderCount int    `json:"recorder_count"`
	Enabled       bool   `json:"enabled"`
}

// AWSEBSVolume is an EBS volume with its encryption flag.
type AWSEBSVolume struct {
	VolumeID  string `json:"volume_id"`
	Region    string `json:"region"`
	Encrypted bool   `json:"encrypted"`
}

// AWSRDSInstance is an RDS database instance with its storage encryption flag.
type AWSRDSInstance struct {
	DBInstanceID     string `json:"db_instance_id"`
	Region           string `json:"region"`
	Engine           string `json:"engine"`
	StorageEncrypted bool   `json:"storage_encrypted"`
}

// AWSLoadBalancerListener is one listener attached to an ELBv2 load balancer.
type AWSLoadBalancerListener struct {
	LoadBalancerName string `json:"load_balancer_name"`
	LoadBalancerARN  string `json:"load_balancer_arn"`
	Scheme           string `json:"scheme"`
	Protocol         string `json:"protocol"`
	Port             int    `json:"port"`
	Region           string `json:"region"`
}
