package awssecurity

import (
	"context"
	"fmt"

	cloudwatchsvc "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
)

// CountAlarms returns the number of metric and composite CloudWatch alarms
// defined in the client's region.
func CountAlarms(ctx context.Context, client CloudWatchClient, region string) (int, error) {
	paginator := cloudwatchsvc.NewDescribeAlarmsPaginator(client, &cloudwatchsvc.DescribeAlarmsInput{})

	count := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("describe alarms in %s: %w", region, err)
		}
		count += len(page.MetricAlarms) + len(page.CompositeAlarms)
	}
	return count, nil
}
