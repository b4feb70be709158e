package awssecurity

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

// CollectSecurityGroupRules pages through all EC2 security groups in the
// client's region and returns one AWSSecurityGroupRule per inbound IP range.
// Both IPv4 and IPv6 CIDR ranges are included.
//
// Rules with IpProtocol "-1" (all traffic) carry no port bounds in the API
// and are normalised to the full 0-65535 range.
func CollectSecurityGroupRules(ctx context.Context, client EC2Client, region string) ([]models.AWSSecurityGroupRule, error) {
	paginator := ec2svc.NewDescribeSecurityGroupsPaginator(client, &ec2svc.DescribeSecurityGroupsInput{})

	var rules []models.AWSSecurityGroupRule
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe security groups in %s: %w", region, err)
		}
		for _, sg := range page.SecurityGroups {
			groupID := aws.ToString(sg.GroupId)
			for _, perm := range sg.IpPermissions {
				from, to := permissionPorts(perm)
				for _, ipRange := range perm.IpRanges {
					rules = append(rules, models.AWSSecurityGroupRule{
						GroupID:  groupID,
						FromPort: from,
						ToPort:   to,
						CIDR:     aws.ToString(ipRange.CidrIp),
						Region:   region,
					})
				}
				for _, ipv6Range := range perm.Ipv6Ranges {
					rules = append(rules, models.AWSSecurityGroupRule{
						GroupID:  groupID,
						FromPort: from,
						ToPort:   to,
						CIDR:     aws.ToString(ipv6Range.CidrIpv6),
						Region:   region,
					})
				}
			}
		}
	}
	return rules, nil
}

func permissionPorts(perm ec2types.IpPermission) (int, int) {
	if aws.ToString(perm.IpProtocol) == "-1" {
		return 0, 65535
	}
	from := int(aws.ToInt32(perm.FromPort))
	to := from
	if perm.ToPort != nil {
		to = int(aws.ToInt32(perm.ToPort))
	}
	return from, to
}

// CollectEBSVolumes pages through all EBS volumes in the client's region.
func CollectEBSVolumes(ctx context.Context, client EC2Client, region string) ([]models.AWSEBSVolume, error) {
	paginator := ec2svc.NewDescribeVolumesPaginator(client, &ec2svc.DescribeVolumesInput{})

	var volumes []models.AWSEBSVolume
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe volumes in %s: %w", region, err)
		}
		for _, v := range page.Volumes {
			volumes = append(volumes, models.AWSEBSVolume{
				VolumeID:  aws.ToString(v.VolumeId),
				Region:    region,
				Encrypted: aws.ToBool(v.Encrypted),
			})
		}
	}
	return volumes, nil
}

// CollectEBSDefaultEncryption reports whether new EBS volumes in the
// client's region are encrypted by default.
func CollectEBSDefaultEncryption(ctx context.Context, client EC2Client, region string) (bool, error) {
	out, err := client.GetEbsEncryptionByDefault(ctx, &ec2svc.GetEbsEncryptionByDefaultInput{})
	if err != nil {
		return false, fmt.Errorf("get EBS default encryption in %s: %w", region, err)
	}
	return aws.ToBool(out.EbsEncryptionByDefault), nil
}
