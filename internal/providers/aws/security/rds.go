package awssecurity

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	rdssvc "github.com/aws/aws-sdk-go-v2/service/rds"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

// CollectRDSInstances pages through all RDS database instances in the
// client's region.
func CollectRDSInstances(ctx context.Context, client RDSClient, region string) ([]models.AWSRDSInstance, error) {
	paginator := rdssvc.NewDescribeDBInstancesPaginator(client, &rdssvc.DescribeDBInstancesInput{})

	var instances []models.AWSRDSInstance
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe DB instances in %s: %w", region, err)
		}
		for _, db := range page.DBInstances {
			instances = append(instances, models.AWSRDSInstance{
				DBInstanceID:     aws.ToString(db.DBInstanceIdentifier),
				Region:           region,
				Engine:           aws.ToString(db.Engine),
				StorageEncrypted: aws.ToBool(db.StorageEncrypted),
			})
		}
	}
	return instances, nil
}
