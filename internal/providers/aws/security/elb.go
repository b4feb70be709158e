package awssecurity

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	elbv2svc "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

// CollectLoadBalancerListeners pages through all ELBv2 load balancers in the
// client's region and returns every listener attached to them.
//
// Classic ELB (v1) is not collected.
func CollectLoadBalancerListeners(ctx context.Context, client ELBv2Client, region string) ([]models.AWSLoadBalancerListener, error) {
	paginator := elbv2svc.NewDescribeLoadBalancersPaginator(client, &elbv2svc.DescribeLoadBalancersInput{})

	var listeners []models.AWSLoadBalancerListener
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe load balancers in %s: %w", region, err)
		}
		for _, lb := range page.LoadBalancers {
			arn := aws.ToString(lb.LoadBalancerArn)
			name := aws.ToString(lb.LoadBalancerName)

			lp := elbv2svc.NewDescribeListenersPaginator(client, &elbv2svc.DescribeListenersInput{
				LoadBalancerArn: aws.String(arn),
			})
			for lp.HasMorePages() {
				lpage, err := lp.NextPage(ctx)
				if err != nil {
					return nil, fmt.Errorf("describe listeners for %s in %s: %w", name, region, err)
				}
				for _, l := range lpage.Listeners {
					listeners = append(listeners, models.AWSLoadBalancerListener{
						LoadBalancerName: name,
						LoadBalancerARN:  arn,
						Scheme:           string(lb.Scheme),
						Protocol:         string(l.Protocol),
						Port:             int(aws.ToInt32(l.Port)),
						Region:           region,
					})
				}
			}
		}
	}
	return listeners, nil
}
