package awssecurity

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	cloudtrailsvc "github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	cloudwatchsvc "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	configsvc "github.com/aws/aws-sdk-go-v2/service/configservice"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	elbv2svc "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	guardduty "github.com/aws/aws-sdk-go-v2/service/guardduty"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	rdssvc "github.com/aws/aws-sdk-go-v2/service/rds"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client is the narrow S3 interface used by the S3 checks.
type S3Client interface {
	ListBuckets(ctx context.Context, params *s3svc.ListBucketsInput, optFns ...func(*s3svc.Options)) (*s3svc.ListBucketsOutput, error)
	GetBucketPolicyStatus(ctx context.Context, params *s3svc.GetBucketPolicyStatusInput, optFns ...func(*s3svc.Options)) (*s3svc.GetBucketPolicyStatusOutput, error)
	GetBucketEncryption(ctx context.Context, params *s3svc.GetBucketEncryptionInput, optFns ...func(*s3svc.Options)) (*s3svc.GetBucketEncryptionOutput, error)
}

// EC2Client is the narrow EC2 interface used for security group and EBS
// checks. DescribeVolumes satisfies ec2.DescribeVolumesAPIClient so the SDK
// paginator can be used directly.
type EC2Client interface {
	DescribeSecurityGroups(ctx context.Context, params *ec2svc.DescribeSecurityGroupsInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeSecurityGroupsOutput, error)
	DescribeVolumes(ctx context.Context, params *ec2svc.DescribeVolumesInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeVolumesOutput, error)
	GetEbsEncryptionByDefault(ctx context.Context, params *ec2svc.GetEbsEncryptionByDefaultInput, optFns ...func(*ec2svc.Options)) (*ec2svc.GetEbsEncryptionByDefaultOutput, error)
}

// IAMClient is the narrow IAM interface used for user and account-level
// checks. It embeds ListUsersAPIClient so the SDK paginator can be used.
type IAMClient interface {
	iamsvc.ListUsersAPIClient
	ListMFADevices(ctx context.Context, params *iamsvc.ListMFADevicesInput, optFns ...func(*iamsvc.Options)) (*iamsvc.ListMFADevicesOutput, error)
	GetLoginProfile(ctx context.Context, params *iamsvc.GetLoginProfileInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetLoginProfileOutput, error)
	GetAccountSummary(ctx context.Context, params *iamsvc.GetAccountSummaryInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetAccountSummaryOutput, error)
	GetAccountPasswordPolicy(ctx context.Context, params *iamsvc.GetAccountPasswordPolicyInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetAccountPasswordPolicyOutput, error)
}

// CloudTrailClient is the narrow CloudTrail interface for trail configuration.
type CloudTrailClient interface {
	DescribeTrails(ctx context.Context, params *cloudtrailsvc.DescribeTrailsInput, optFns ...func(*cloudtrailsvc.Options)) (*cloudtrailsvc.DescribeTrailsOutput, error)
}

// GuardDutyClient is the narrow GuardDuty interface for detector status.
type GuardDutyClient interface {
	ListDetectors(ctx context.Context, params *guardduty.ListDetectorsInput, optFns ...func(*guardduty.Options)) (*guardduty.ListDetectorsOutput, error)
	GetDetector(ctx context.Context, params *guardduty.GetDetectorInput, optFns ...func(*guardduty.Options)) (*guardduty.GetDetectorOutput, error)
}

// ConfigClient is the narrow AWS Config interface for recorder status.
type ConfigClient interface {
	DescribeConfigurationRecorderStatus(ctx context.Context, params *configsvc.DescribeConfigurationRecorderStatusInput, optFns ...func(*configsvc.Options)) (*configsvc.DescribeConfigurationRecorderStatusOutput, error)
}

// RDSClient covers the RDS operations used by the encryption checks.
// Satisfies rds.DescribeDBInstancesAPIClient for the SDK paginator.
type RDSClient interface {
	DescribeDBInstances(ctx context.Context, params *rdssvc.DescribeDBInstancesInput, optFns ...func(*rdssvc.Options)) (*rdssvc.DescribeDBInstancesOutput, error)
}

// ELBv2Client covers the load balancer and listener lookups.
type ELBv2Client interface {
	DescribeLoadBalancers(ctx context.Context, params *elbv2svc.DescribeLoadBalancersInput, optFns ...func(*elbv2svc.Options)) (*elbv2svc.DescribeLoadBalancersOutput, error)
	DescribeListeners(ctx context.Context, params *elbv2svc.DescribeListenersInput, optFns ...func(*elbv2svc.Options)) (*elbv2svc.DescribeListenersOutput, error)
}

// CloudWatchClient covers the alarm inventory used by the monitoring check.
// Satisfies cloudwatch.DescribeAlarmsAPIClient for the SDK paginator.
type CloudWatchClient interface {
	DescribeAlarms(ctx context.Context, params *cloudwatchsvc.DescribeAlarmsInput, optFns ...func(*cloudwatchsvc.Options)) (*cloudwatchsvc.DescribeAlarmsOutput, error)
}

// ClientSet bundles every AWS service client a check may use, scoped to one
// region. All fields are interfaces so tests can substitute fakes.
type ClientSet struct {
	S3         S3Client
	EC2        EC2Client
	IAM        IAMClient
	CloudTrail CloudTrailClient
	GuardDuty  GuardDutyClient
	Config     ConfigClient
	RDS        RDSClient
	ELBv2      ELBv2Client
	CloudWatch CloudWatchClient
}

// ClientFactory creates a ClientSet from a region-scoped AWS config.
// Injection point: tests replace this with a function returning fake clients.
type ClientFactory func(cfg aws.Config) *ClientSet

// NewClientSet is the production ClientFactory. SDK clients are safe for
// concurrent use, so one ClientSet per region is shared by all workers.
func NewClientSet(cfg aws.Config) *ClientSet {
	return &ClientSet{
		S3:         s3svc.NewFromConfig(cfg),
		EC2:        ec2svc.NewFromConfig(cfg),
		IAM:        iamsvc.NewFromConfig(cfg),
		CloudTrail: cloudtrailsvc.NewFromConfig(cfg),
		GuardDuty:  guardduty.NewFromConfig(cfg),
		Config:     configsvc.NewFromConfig(cfg),
		RDS:        rdssvc.NewFromConfig(cfg),
		ELBv2:      elbv2svc.NewFromConfig(cfg),
		CloudWatch: cloudwatchsvc.NewFromConfig(cfg),
	}
}
