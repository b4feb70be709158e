package awssecurity

import (
	"context"
	"fmt"

	configsvc "github.com/aws/aws-sdk-go-v2/service/configservice"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

// CollectConfigStatus checks whether AWS Config has an active configuration
// recorder in the client's region. Enabled is true when at least one
// recorder is actively recording.
func CollectConfigStatus(ctx context.Context, client ConfigClient, region string) (models.AWSConfigStatus, error) {
	out, err := client.DescribeConfigurationRecorderStatus(ctx, &configsvc.DescribeConfigurationRecorderStatusInput{})
	if err != nil {
		return models.AWSConfigStatus{Region: region}, fmt.Errorf("describe config recorder status in %s: %w", region, err)
	}

	status := models.AWSConfigStatus{
		Region:        region,
		RecorderCount: len(out.ConfigurationRecordersStatus),
	}
	for _, rs := range out.ConfigurationRecordersStatus {
		if rs.Recording {
			status.Enabled = true
			break
		}
	}
	return status, nil
}
