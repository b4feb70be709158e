package awssecurity

import (
	"context"
	"fmt"

	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

// Keys of the IAM GetAccountSummary map that describe the root user.
const (
	summaryRootAccessKeys   = "AccountAccessKeysPresent"
	summaryRootSigningCerts = "AccountSigningCertificatesPresent"
	summaryRootMFA          = "AccountMFAEnabled"
)

// CollectRootAccountInfo derives the root user's credential posture from the
// IAM account summary. Absent keys count as zero, which IAM also returns for
// accounts that never configured the feature.
func CollectRootAccountInfo(ctx context.Context, client IAMClient) (models.AWSRootAccountInfo, error) {
	out, err := client.GetAccountSummary(ctx, &iamsvc.GetAccountSummaryInput{})
	if err != nil {
		return models.AWSRootAccountInfo{}, fmt.Errorf("get IAM account summary: %w", err)
	}
	keys := int(out.SummaryMap[summaryRootAccessKeys])
	return models.AWSRootAccountInfo{
		HasAccessKeys:       keys > 0,
		AccessKeyCount:      keys,
		SigningCertificates: int(out.SummaryMap[summaryRootSigningCerts]),
		MFAEnabled:          out.SummaryMap[summaryRootMFA] > 0,
	}, nil
}
