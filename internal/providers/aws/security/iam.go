package awssecurity

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

// CollectIAMUsers returns all IAM users in the account together with whether
// MFA is enabled and whether the user has a console login profile.
// The ListUsers paginator handles accounts with many users.
func CollectIAMUsers(ctx context.Context, client IAMClient) ([]models.AWSIAMUser, error) {
	paginator := iamsvc.NewListUsersPaginator(client, &iamsvc.ListUsersInput{})
	var users []models.AWSIAMUser
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list IAM users: %w", err)
		}
		for _, u := range page.Users {
			userName := aws.ToString(u.UserName)
			mfa, err := userHasMFA(ctx, client, userName)
			if err != nil {
				return nil, err
			}
			login, err := userHasLoginProfile(ctx, client, userName)
			if err != nil {
				return nil, err
			}
			users = append(users, models.AWSIAMUser{
				UserName:        userName,
				MFAEnabled:      mfa,
				HasLoginProfile: login,
			})
		}
	}
	return users, nil
}

// userHasMFA reports whether the user has at least one MFA device registered.
func userHasMFA(ctx context.Context, client IAMClient, userName string) (bool, error) {
	out, err := client.ListMFADevices(ctx, &iamsvc.ListMFADevicesInput{
		UserName: aws.String(userName),
	})
	if err != nil {
		return false, fmt.Errorf("list MFA devices for %s: %w", userName, err)
	}
	return len(out.MFADevices) > 0, nil
}

// userHasLoginProfile reports whether the user has a console password.
// GetLoginProfile returns NoSuchEntity when no login profile exists.
func userHasLoginProfile(ctx context.Context, client IAMClient, userName string) (bool, error) {
	_, err := client.GetLoginProfile(ctx, &iamsvc.GetLoginProfileInput{
		UserName: aws.String(userName),
	})
	if err != nil {
		if hasErrorCode(err, "NoSuchEntity") {
			return false, nil
		}
		return false, fmt.Errorf("get login profile for %s: %w", userName, err)
	}
	return true, nil
}

// CollectPasswordPolicy returns the account password policy. An account
// without a custom policy (NoSuchEntity) yields Present == false.
func CollectPasswordPolicy(ctx context.Context, client IAMClient) (models.AWSPasswordPolicy, error) {
	out, err := client.GetAccountPasswordPolicy(ctx, &iamsvc.GetAccountPasswordPolicyInput{})
	if err != nil {
		if hasErrorCode(err, "NoSuchEntity") {
			return models.AWSPasswordPolicy{}, nil
		}
		return models.AWSPasswordPolicy{}, fmt.Errorf("get account password policy: %w", err)
	}
	p := out.PasswordPolicy
	if p == nil {
		return models.AWSPasswordPolicy{}, nil
	}
	return models.AWSPasswordPolicy{
		Present:                 true,
		MinimumLength:           int(aws.ToInt32(p.MinimumPasswordLength)),
		RequireSymbols:          p.RequireSymbols,
		RequireNumbers:          p.RequireNumbers,
		RequireUppercase:        p.RequireUppercaseCharacters,
		RequireLowercase:        p.RequireLowercaseCharacters,
		MaxPasswordAge:          int(aws.ToInt32(p.MaxPasswordAge)),
		PasswordReusePrevention: int(aws.ToInt32(p.PasswordReusePrevention)),
	}, nil
}
