package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Connector is a credential-backed handle on one AWS account. It is the only
// AWS-facing dependency of the execution engine and is shared read-only by
// every worker, so implementations must be safe for concurrent use.
//
// Implementations must use the AWS SDK v2 only. Never call the aws CLI.
type Connector interface {
	// AccountID returns the AWS account id resolved when the connector was built.
	AccountID() string

	// HomeRegion is the region the connector was constructed for.
	HomeRegion() string

	// ListRegions returns every region enabled (opted in) for the account.
	ListRegions(ctx context.Context) ([]string, error)

	// ConfigForRegion returns a copy of the SDK config scoped to region.
	// Use it to construct region-scoped service clients.
	ConfigForRegion(region string) aws.Config
}

// ConnectorFactory builds a Connector from caller-supplied credentials.
// Construction must fail fast with a descriptive error when the credentials
// are invalid or the provider is unreachable.
type ConnectorFactory func(ctx context.Context, creds Credentials) (Connector, error)

// Credentials selects how the connector authenticates.
// Static keys take precedence over Profile; when both are empty the SDK's
// default credential chain is used.
type Credentials struct {
	AccessKey    string
	SecretKey    string
	SessionToken string

	// Profile is a named profile from ~/.aws/config or ~/.aws/credentials.
	Profile string

	// Region is the home region. Defaults to us-east-1.
	Region string
}

// STSClient resolves the caller's account id.
type STSClient interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// EC2RegionClient lists the regions enabled for the account.
type EC2RegionClient interface {
	DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
}

// AccountClients are the account-level clients an AWSConnector calls while it
// is being built and when it discovers regions. Check clients live in
// awssecurity.ClientSet and are built per region.
type AccountClients struct {
	STS STSClient
	EC2 EC2RegionClient
}

// AccountClientFactory builds AccountClients from the home-region config.
// Tests pass a factory returning stubs.
type AccountClientFactory func(cfg aws.Config) *AccountClients

// NewAccountClients is the production AccountClientFactory.
func NewAccountClients(cfg aws.Config) *AccountClients {
	return &AccountClients{
		STS: sts.NewFromConfig(cfg),
		EC2: ec2.NewFromConfig(cfg),
	}
}
