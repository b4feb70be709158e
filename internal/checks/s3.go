package checks

import (
	"context"
	"fmt"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
	awssecurity "github.com/pankaj-dahiya-devops/compliance-proxy/internal/providers/aws/security"
)

func s3Client(cc CheckContext) (awssecurity.S3Client, error) {
	cs, err := clients(cc)
	if err != nil {
		return nil, err
	}
	if cs.S3 == nil {
		return nil, fmt.Errorf("s3: %w", ErrClientUnavailable)
	}
	return cs.S3, nil
}

// S3PublicBucketCheck fails when any bucket policy makes a bucket public.
type S3PublicBucketCheck struct{}

func (S3PublicBucketCheck) ID() string                { return "S3_PUBLIC_BUCKET" }
func (S3PublicBucketCheck) Name() string              { return "Public S3 Bucket" }
func (S3PublicBucketCheck) Severity() models.Severity { return models.SeverityHigh }
func (S3PublicBucketCheck) Scope() models.Scope       { return models.ScopeGlobal }

func (c S3PublicBucketCheck) Execute(ctx context.Context, cc CheckContext) (models.CheckOutcome, error) {
	client, err := s3Client(cc)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	buckets, err := awssecurity.CollectS3Buckets(ctx, client, awssecurity.S3CollectOptions{PolicyStatus: true})
	if err != nil {
		return models.CheckOutcome{}, err
	}
	if len(buckets) == 0 {
		return skipped("No S3 buckets in the account."), nil
	}
	var public []string
	for _, b := range buckets {
		if b.Public {
			public = append(public, b.Name)
		}
	}
	if len(public) > 0 {
		return offenders("public buckets", public), nil
	}
	return pass(fmt.Sprintf("None of %d buckets is public.", len(buckets))), nil
}

// S3DefaultEncryptionMissingCheck fails when a bucket has no default
// server-side encryption configuration.
type S3DefaultEncryptionMissingCheck struct{}

func (S3DefaultEncryptionMissingCheck) ID() string                { return "S3_DEFAULT_ENCRYPTION_MISSING" }
func (S3DefaultEncryptionMissingCheck) Name() string              { return "S3 Bucket Without Default Encryption" }
func (S3DefaultEncryptionMissingCheck) Severity() models.Severity { return models.SeverityMedium }
func (S3DefaultEncryptionMissingCheck) Scope() models.Scope       { return models.ScopeGlobal }

func (c S3DefaultEncryptionMissingCheck) Execute(ctx context.Context, cc CheckContext) (models.CheckOutcome, error) {
	client, err := s3Client(cc)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	buckets, err := awssecurity.CollectS3Buckets(ctx, client, awssecurity.S3CollectOptions{Encryption: true})
	if err != nil {
		return models.CheckOutcome{}, err
	}
	if len(buckets) == 0 {
		return skipped("No S3 buckets in the account."), nil
	}
	var bare []string
	for _, b := range buckets {
		if !b.DefaultEncryptionEnabled {
			bare = append(bare, b.Name)
		}
	}
	if len(bare) > 0 {
		return offenders("buckets without default encryption", bare), nil
	}
	return pass(fmt.Sprintf("All %d buckets have default encryption.", len(buckets))), nil
}
