package awssecurity

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	cloudtrailsvc "github.com/aws/aws-sdk-go-v2/service/cloudtrail"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

// CollectCloudTrailStatus calls DescribeTrails to determine whether at least
// one multi-region trail exists for the account. IncludeShadowTrails is false
// so only trails owned by this account are returned (not shadow copies).
func CollectCloudTrailStatus(ctx context.Context, client CloudTrailClient) (models.AWSCloudTrailStatus, error) {
	out, err := client.DescribeTrails(ctx, &cloudtrailsvc.DescribeTrailsInput{
		IncludeShadowTrails: aws.Bool(false),
	})
	if err != nil {
		return models.AWSCloudTrailStatus{}, fmt.Errorf("describe trails: %w", err)
	}

	status := models.AWSCloudTrailStatus{TrailCount: len(out.TrailList)}
	for _, trail := range out.TrailList {
		if aws.ToBool(trail.IsMultiRegionTrail) {
			status.HasMultiRegionTrail = true
			break
		}
	}
	return status, nil
}
