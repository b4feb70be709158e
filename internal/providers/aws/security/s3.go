package awssecurity

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

// S3CollectOptions selects which per-bucket attributes CollectS3Buckets
// resolves. Each attribute costs one API call per bucket, so checks only ask
// for what they judge.
type S3CollectOptions struct {
	PolicyStatus bool
	Encryption   bool
}

// CollectS3Buckets lists all S3 buckets in the account and resolves the
// requested attributes for each one.
func CollectS3Buckets(ctx context.Context, client S3Client, opts S3CollectOptions) ([]models.AWSS3Bucket, error) {
	out, err := client.ListBuckets(ctx, &s3svc.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("list S3 buckets: %w", err)
	}

	buckets := make([]models.AWSS3Bucket, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		bucket := models.AWSS3Bucket{Name: aws.ToString(b.Name)}
		if opts.PolicyStatus {
			if bucket.Public, err = isBucketPublic(ctx, client, bucket.Name); err != nil {
				return nil, err
			}
		}
		if opts.Encryption {
			if bucket.DefaultEncryptionEnabled, err = isBucketEncryptionEnabled(ctx, client, bucket.Name); err != nil {
				return nil, err
			}
		}
		buckets = append(buckets, bucket)
	}
	return buckets, nil
}

// isBucketPublic reports whether GetBucketPolicyStatus says the bucket policy
// is public. A bucket without a policy (NoSuchBucketPolicy) is not public.
func isBucketPublic(ctx context.Context, client S3Client, name string) (bool, error) {
	out, err := client.GetBucketPolicyStatus(ctx, &s3svc.GetBucketPolicyStatusInput{
		Bucket: aws.String(name),
	})
	if err != nil {
		if hasErrorCode(err, "NoSuchBucketPolicy") {
			return false, nil
		}
		return false, fmt.Errorf("get policy status for bucket %s: %w", name, err)
	}
	if out.PolicyStatus == nil {
		return false, nil
	}
	return aws.ToBool(out.PolicyStatus.IsPublic), nil
}

// isBucketEncryptionEnabled reports whether the bucket has a default
// server-side encryption configuration.
func isBucketEncryptionEnabled(ctx context.Context, client S3Client, name string) (bool, error) {
	out, err := client.GetBucketEncryption(ctx, &s3svc.GetBucketEncryptionInput{
		Bucket: aws.String(name),
	})
	if err != nil {
		if hasErrorCode(err, "ServerSideEncryptionConfigurationNotFoundError") {
			return false, nil
		}
		return false, fmt.Errorf("get encryption for bucket %s: %w", name, err)
	}
	cfg := out.ServerSideEncryptionConfiguration
	return cfg != nil && len(cfg.Rules) > 0, nil
}
