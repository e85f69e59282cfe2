package hcloud

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/quantserver/internal/metrics"
)

func response(status int) *hcloud.Response {
	return &hcloud.Response{Response: &http.Response{StatusCode: status}}
}

func TestIsResourceLocked(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("something went wrong"), false},
		{"locked", hcloud.Error{Code: hcloud.ErrorCodeLocked, Message: "resource is locked"}, true},
		{"conflict", hcloud.Error{Code: hcloud.ErrorCodeConflict, Message: "conflict occurred"}, true},
		{"resource locked", hcloud.Error{Code: hcloud.ErrorCodeResourceLocked}, true},
		{"resource unavailable", hcloud.Error{Code: hcloud.ErrorCodeResourceUnavailable}, true},
		{"wrapped locked", fmt.Errorf("delete: %w", hcloud.Error{Code: hcloud.ErrorCodeLocked}), true},
		{"not found", hcloud.Error{Code: hcloud.ErrorCodeNotFound, Message: "not found"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isResourceLocked(tt.err); got != tt.expected {
				t.Errorf("isResourceLocked(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestIsInvalidParameter(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"not found", hcloud.Error{Code: hcloud.ErrorCodeNotFound}, true},
		{"invalid input", hcloud.Error{Code: hcloud.ErrorCodeInvalidInput}, true},
		{"invalid server type", hcloud.Error{Code: hcloud.ErrorCodeInvalidServerType}, true},
		{"locked", hcloud.Error{Code: hcloud.ErrorCodeLocked}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isInvalidParameter(tt.err); got != tt.expected {
				t.Errorf("isInvalidParameter(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestIsClientError(t *testing.T) {
	tests := []struct {
		name     string
		resp     *hcloud.Response
		err      error
		expected bool
	}{
		{"invalid input without response", nil, hcloud.Error{Code: hcloud.ErrorCodeInvalidInput}, true},
		{"unauthorized", nil, hcloud.Error{Code: hcloud.ErrorCodeUnauthorized}, true},
		{"plain 403", response(http.StatusForbidden), errors.New("forbidden"), true},
		{"locked 423", response(http.StatusLocked), hcloud.Error{Code: hcloud.ErrorCodeLocked}, false},
		{"rate limited 429", response(http.StatusTooManyRequests), hcloud.Error{Code: hcloud.ErrorCodeRateLimitExceeded}, false},
		{"conflict 409", response(http.StatusConflict), hcloud.Error{Code: hcloud.ErrorCodeConflict}, false},
		{"plain 409 without code", response(http.StatusConflict), errors.New("conflict"), true},
		{"unlisted code without response", nil, hcloud.Error{Code: hcloud.ErrorCode("uniqueness_error")}, false},
		{"server error", response(http.StatusInternalServerError), errors.New("boom"), false},
		{"network error", nil, errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isClientError(tt.resp, tt.err); got != tt.expected {
				t.Errorf("isClientError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestResultOf(t *testing.T) {
	tests := []struct {
		name     string
		resp     *hcloud.Response
		err      error
		expected string
	}{
		{"success", response(http.StatusOK), nil, metrics.ResultSuccess},
		{"client error", response(http.StatusNotFound), errors.New("x"), metrics.ResultClientError},
		{"server error", response(http.StatusBadGateway), errors.New("x"), metrics.ResultServerError},
		{"network error", nil, errors.New("dial tcp"), metrics.ResultNetworkError},
		{"api error without response", nil, hcloud.Error{Code: hcloud.ErrorCodeConflict}, metrics.ResultError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resultOf(tt.resp, tt.err); got != tt.expected {
				t.Errorf("resultOf() = %q, want %q", got, tt.expected)
			}
		})
	}
}
