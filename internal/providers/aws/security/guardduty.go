package awssecurity

import (
	"context"
	"fmt"

	guardduty "github.com/aws/aws-sdk-go-v2/service/guardduty"
	guarddutytype "github.com/aws/aws-sdk-go-v2/service/guardduty/types"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

// CollectGuardDutyStatus checks whether GuardDuty has an enabled detector in
// the client's region. It first lists detectors; if none exist, GuardDuty is
// not enabled. Otherwise GetDetector verifies the first detector is ENABLED.
func CollectGuardDutyStatus(ctx context.Context, client GuardDutyClient, region string) (models.AWSGuardDutyStatus, error) {
	status := models.AWSGuardDutyStatus{Region: region}

	listOut, err := client.ListDetectors(ctx, &guardduty.ListDetectorsInput{})
	if err != nil {
		return status, fmt.Errorf("list GuardDuty detectors in %s: %w", region, err)
	}
	if len(listOut.DetectorIds) == 0 {
		return status, nil
	}

	status.DetectorID = listOut.DetectorIds[0]
	detOut, err := client.GetDetector(ctx, &guardduty.GetDetectorInput{
		DetectorId: &listOut.DetectorIds[0],
	})
	if err != nil {
		return status, fmt.Errorf("get GuardDuty detector %s in %s: %w", status.DetectorID, region, err)
	}

	status.Enabled = detOut.Status == guarddutytype.DetectorStatusEnabled
	return status, nil
}
