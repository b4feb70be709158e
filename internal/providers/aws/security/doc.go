// Package awssecurity holds the AWS SDK side of the compliance checks: narrow
// per-service client interfaces, the region-scoped ClientSet, and collectors
// that turn raw SDK responses into the normalised types in internal/models.
//
// Collectors never judge compliance. They return an error for any API failure
// except the documented "not configured" error codes, which are translated
// into the zero state (no policy, no encryption configuration, and so on).
package awssecurity

import (
	"errors"

	"github.com/aws/smithy-go"
)

// hasErrorCode reports whether err is an AWS API error whose code is one of codes.
func hasErrorCode(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, c := range codes {
		if apiErr.ErrorCode() == c {
			return true
		}
	}
	return false
}
