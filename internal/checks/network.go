package checks

import (
	"context"
	"fmt"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
	awssecurity "github.com/pankaj-dahiya-devops/compliance-proxy/internal/providers/aws/security"
)

const (
	sshPort = 22
	rdpPort = 3389
)

// SecurityGroupOpenSSHCheck fails when any security group allows inbound SSH
// (22) or RDP (3389) from the public internet (0.0.0.0/0 or ::/0). Port
// ranges that cover either port count as open.
type SecurityGroupOpenSSHCheck struct{}

func (SecurityGroupOpenSSHCheck) ID() string                { return "SG_OPEN_SSH" }
func (SecurityGroupOpenSSHCheck) Name() string              { return "Security Group With Open Remote Admin Access" }
func (SecurityGroupOpenSSHCheck) Severity() models.Severity { return models.SeverityHigh }
func (SecurityGroupOpenSSHCheck) Scope() models.Scope       { return models.ScopePerRegion }

func (c SecurityGroupOpenSSHCheck) Execute(ctx context.Context, cc CheckContext) (models.CheckOutcome, error) {
	cs, err := clients(cc)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	if cs.EC2 == nil {
		return models.CheckOutcome{}, fmt.Errorf("ec2: %w", ErrClientUnavailable)
	}
	rules, err := awssecurity.CollectSecurityGroupRules(ctx, cs.EC2, cc.Region)
	if err != nil {
		return models.CheckOutcome{}, err
	}

	// One entry per security group regardless of how many open rules it has.
	seen := make(map[string]bool)
	var open []string
	for _, r := range rules {
		if r.CIDR != "0.0.0.0/0" && r.CIDR != "::/0" {
			continue
		}
		if !coversPort(r, sshPort) && !coversPort(r, rdpPort) {
			continue
		}
		if seen[r.GroupID] {
			continue
		}
		seen[r.GroupID] = true
		open = append(open, r.GroupID)
	}
	if len(open) > 0 {
		return offenders("security groups expose SSH/RDP to the internet", open), nil
	}
	return pass(fmt.Sprintf("No security group in %s exposes SSH/RDP to the internet.", cc.Region)), nil
}

func coversPort(r models.AWSSecurityGroupRule, port int) bool {
	return r.FromPort <= port && port <= r.ToPort
}

// ELBHTTPListenerCheck fails when an internet-facing load balancer accepts
// plain HTTP. Internal load balancers are not judged.
type ELBHTTPListenerCheck struct{}

func (ELBHTTPListenerCheck) ID() string                { return "ELB_HTTP_LISTENER" }
func (ELBHTTPListenerCheck) Name() string              { return "Load Balancer With Plain HTTP Listener" }
func (ELBHTTPListenerCheck) Severity() models.Severity { return models.SeverityMedium }
func (ELBHTTPListenerCheck) Scope() models.Scope       { return models.ScopePerRegion }

func (c ELBHTTPListenerCheck) Execute(ctx context.Context, cc CheckContext) (models.CheckOutcome, error) {
	cs, err := clients(cc)
	if err != nil {
		return models.CheckOutcome{}, err
	}
	if cs.ELBv2 == nil {
		return models.CheckOutcome{}, fmt.Errorf("elbv2: %w", ErrClientUnavailable)
	}
	listeners, err := awssecurity.CollectLoadBalancerListeners(ctx, cs.ELBv2, cc.Region)
	if err != nil {
		return models.CheckOutcome{}, err
	}

	seen := make(map[string]bool)
	var plain []string
	public := 0
	for _, l := range listeners {
		if l.Scheme != "internet-facing" {
			continue
		}
		public++
		if l.Protocol != "HTTP" || seen[l.LoadBalancerName] {
			continue
		}
		seen[l.LoadBalancerName] = true
		plain = append(plain, l.LoadBalancerName)
	}
	if len(plain) > 0 {
		return offenders("internet-facing load balancers accept plain HTTP", plain), nil
	}
	if public == 0 {
		return skipped(fmt.Sprintf("No internet-facing load balancer listeners in %s.", cc.Region)), nil
	}
	return pass(fmt.Sprintf("All %d internet-facing listeners in %s use TLS.", public, cc.Region)), nil
}
