package hcloud

import (
	"errors"
	"net/http"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/quantserver/internal/metrics"
)

// isResourceLocked checks if an error indicates a resource is locked.
// Locked resources typically occur while a snapshot is being taken.
// These errors are retryable.
func isResourceLocked(err error) bool {
	return isHCloudErrorCode(err,
		hcloud.ErrorCodeLocked,         // Item is locked (action running)
		hcloud.ErrorCodeConflict,       // Resource changed during request
		hcloud.ErrorCodeResourceLocked, // Resource locked (contact support)
		hcloud.ErrorCodeResourceUnavailable,
	)
}

// isInvalidParameter checks if an error indicates invalid parameters.
// These errors are fatal and should not be retried.
func isInvalidParameter(err error) bool {
	return isHCloudErrorCode(err,
		hcloud.ErrorCodeNotFound,
		hcloud.ErrorCodeInvalidInput,
		hcloud.ErrorCodeInvalidServerType,
	)
}

// isHCloudErrorCode checks if the error is an hcloud API error with one of the given codes.
func isHCloudErrorCode(err error, codes ...hcloud.ErrorCode) bool {
	if err == nil {
		return false
	}

	var hcloudErr hcloud.Error
	if errors.As(err, &hcloudErr) {
		for _, code := range codes {
			if hcloudErr.Code == code {
				return true
			}
		}
	}
	return false
}

// isClientError reports whether a failed call must not be repeated. Locked
// resources and rate limits answer with 4xx but clear up on their own.
func isClientError(resp *hcloud.Response, err error) bool {
	if isResourceLocked(err) || isHCloudErrorCode(err, hcloud.ErrorCodeRateLimitExceeded) {
		return false
	}
	if isInvalidParameter(err) || isHCloudErrorCode(err, hcloud.ErrorCodeUnauthorized, hcloud.ErrorCodeForbidden) {
		return true
	}
	status := statusCode(resp)
	return status >= 400 && status < 500
}

func statusCode(resp *hcloud.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}

// resultOf maps a call outcome to a metrics result label.
func resultOf(resp *hcloud.Response, err error) string {
	if err == nil {
		return metrics.ResultSuccess
	}
	status := statusCode(resp)
	switch {
	case status == 0:
		var hcloudErr hcloud.Error
		if errors.As(err, &hcloudErr) {
			return metrics.ResultError
		}
		return metrics.ResultNetworkError
	case status >= http.StatusInternalServerError:
		return metrics.ResultServerError
	case status >= http.StatusBadRequest:
		return metrics.ResultClientError
	default:
		return metrics.ResultError
	}
}
