package common

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// DefaultRegion is the home region used when none is configured.
const DefaultRegion = "us-east-1"

// AWSConnector is the production Connector. It holds a fully loaded SDK
// configuration and the account id resolved through STS at construction.
// All fields are set once in NewConnector and never mutated, which makes the
// connector safe to share across workers.
type AWSConnector struct {
	accountID string
	profile   string
	cfg       aws.Config
	clients   *AccountClients
}

// NewConnector is the production ConnectorFactory backed by the real AWS SDK.
func NewConnector(ctx context.Context, creds Credentials) (Connector, error) {
	return NewConnectorWithFactory(NewAccountClients)(ctx, creds)
}

// NewConnectorWithFactory returns a ConnectorFactory that uses f to create
// its STS and EC2 clients. Pass a mock factory in tests.
func NewConnectorWithFactory(f AccountClientFactory) ConnectorFactory {
	return func(ctx context.Context, creds Credentials) (Connector, error) {
		cfg, err := loadConfig(ctx, creds)
		if err != nil {
			return nil, err
		}

		clients := f(cfg)

		accountID, err := resolveAccountID(ctx, clients.STS)
		if err != nil {
			return nil, fmt.Errorf("resolve account ID for profile %q: %w", profileDisplayName(creds.Profile), err)
		}

		return &AWSConnector{
			accountID: accountID,
			profile:   profileDisplayName(creds.Profile),
			cfg:       cfg,
			clients:   clients,
		}, nil
	}
}

// ---------------------------------------------------------------------------
// Connector implementation
// ---------------------------------------------------------------------------

// AccountID implements Connector.
func (c *AWSConnector) AccountID() string { return c.accountID }

// HomeRegion implements Connector.
func (c *AWSConnector) HomeRegion() string { return c.cfg.Region }

// Profile returns the display name of the profile the connector was built from.
func (c *AWSConnector) Profile() string { return c.profile }

// ListRegions returns all AWS regions that are enabled (opted-in) for the
// account. It uses EC2 DescribeRegions, which is a global call and works
// correctly regardless of the client's home region.
func (c *AWSConnector) ListRegions(ctx context.Context) ([]string, error) {
	out, err := c.clients.EC2.DescribeRegions(ctx, &ec2.DescribeRegionsInput{
		// AllRegions false (default) returns only regions the account has
		// opted into; it excludes disabled / not-subscribed regions.
		AllRegions: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("describe regions for account %s: %w", c.accountID, err)
	}

	regions := make([]string, 0, len(out.Regions))
	for _, r := range out.Regions {
		if r.RegionName != nil {
			regions = append(regions, *r.RegionName)
		}
	}
	return regions, nil
}

// ConfigForRegion returns a copy of the connector's config with Region set.
// aws.Config is a value type, so callers cannot mutate the shared config.
func (c *AWSConnector) ConfigForRegion(region string) aws.Config {
	regional := c.cfg
	regional.Region = region
	return regional
}

// ---------------------------------------------------------------------------
// Package-private helpers
// ---------------------------------------------------------------------------

// loadConfig builds the SDK configuration for creds. Static keys take
// precedence over a named profile.
func loadConfig(ctx context.Context, creds Credentials) (aws.Config, error) {
	region := creds.Region
	if region == "" {
		region = DefaultRegion
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	switch {
	case creds.AccessKey != "" || creds.SecretKey != "":
		if creds.AccessKey == "" || creds.SecretKey == "" {
			return aws.Config{}, fmt.Errorf("static credentials require both an access key and a secret key")
		}
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKey, creds.SecretKey, creds.SessionToken),
		))
	case creds.Profile != "":
		opts = append(opts, awsconfig.WithSharedConfigProfile(creds.Profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS profile %q: %w", profileDisplayName(creds.Profile), err)
	}
	return cfg, nil
}

// profileDisplayName returns a human-readable profile identifier. An empty
// string (the default profile) is shown as "default".
func profileDisplayName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}

// resolveAccountID calls STS GetCallerIdentity to retrieve the numeric AWS
// account ID for the credentials currently loaded in stsClient.
func resolveAccountID(ctx context.Context, stsClient STSClient) (string, error) {
	out, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("STS GetCallerIdentity: %w", err)
	}
	if out.Account == nil {
		return "", fmt.Errorf("STS GetCallerIdentity returned nil account")
	}
	return aws.ToString(out.Account), nil
}

// DiscoverProfiles reads ~/.aws/credentials and ~/.aws/config and returns
// the deduplicated list of all profile names found.
func DiscoverProfiles() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return discoverProfileNames(home)
}

// discoverProfileNames reads the shared credentials and config files under
// home. "default" is always normalised to the string "default".
func discoverProfileNames(home string) ([]string, error) {
	// ~/.aws/credentials: section headers are the bare profile name.
	credProfiles, err := parseProfilesFromFile(
		filepath.Join(home, ".aws", "credentials"),
		false,
	)
	if err != nil {
		return nil, err
	}

	// ~/.aws/config: non-default profiles are prefixed with "profile ".
	cfgProfiles, err := parseProfilesFromFile(
		filepath.Join(home, ".aws", "config"),
		true,
	)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var all []string
	for _, name := range append(credProfiles, cfgProfiles...) {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		all = append(all, name)
	}
	return all, nil
}

// parseProfilesFromFile scans path for INI section headers ([...]) and
// returns the profile name from each header.
//
// When stripProfilePrefix is true, the "profile " prefix used in
// ~/.aws/config is removed (e.g. "[profile staging]" becomes "staging").
//
// If the file does not exist, nil is returned without an error.
func parseProfilesFromFile(path string, stripProfilePrefix bool) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var profiles []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
			continue
		}

		name := line[1 : len(line)-1]
		if stripProfilePrefix && name != "default" {
			name = strings.TrimPrefix(name, "profile ")
		}
		profiles = append(profiles, strings.TrimSpace(name))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return profiles, nil
}
