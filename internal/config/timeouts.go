package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable poll, deadline and retry values.
// These values can be customized via environment variables.
type Timeouts struct {
	InstanceActive   time.Duration // Deadline for a new instance to become active and running
	InstancePoll     time.Duration // Interval between instance status polls
	SnapshotComplete time.Duration // Deadline for a snapshot to complete
	SnapshotPoll     time.Duration // Interval between snapshot status polls
	HTTPRequest      time.Duration // Timeout of a single API request
	RetryMaxAttempts int           // Attempts for idempotent API calls (GET/DELETE)
	RetryBaseDelay   time.Duration // Linear backoff base: attempt × base
	MetricsPush      time.Duration // Timeout for pushing metrics
	ManifestUpload   time.Duration // Timeout for the manifest upload
}

// DefaultTimeouts returns the built-in values.
func DefaultTimeouts() *Timeouts {
	return &Timeouts{
		InstanceActive:   600 * time.Second,
		InstancePoll:     20 * time.Second,
		SnapshotComplete: 3600 * time.Second,
		SnapshotPoll:     30 * time.Second,
		HTTPRequest:      30 * time.Second,
		RetryMaxAttempts: 3,
		RetryBaseDelay:   10 * time.Second,
		MetricsPush:      10 * time.Second,
		ManifestUpload:   30 * time.Second,
	}
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - QUANT_TIMEOUT_INSTANCE_ACTIVE (default: 10m)
//   - QUANT_POLL_INSTANCE (default: 20s)
//   - QUANT_TIMEOUT_SNAPSHOT_COMPLETE (default: 1h)
//   - QUANT_POLL_SNAPSHOT (default: 30s)
//   - QUANT_TIMEOUT_HTTP_REQUEST (default: 30s)
//   - QUANT_RETRY_MAX_ATTEMPTS (default: 3)
//   - QUANT_RETRY_BASE_DELAY (default: 10s)
//   - QUANT_TIMEOUT_METRICS_PUSH (default: 10s)
//   - QUANT_TIMEOUT_MANIFEST_UPLOAD (default: 30s)
func LoadTimeouts() *Timeouts {
	d := DefaultTimeouts()
	return &Timeouts{
		InstanceActive:   parseDuration("QUANT_TIMEOUT_INSTANCE_ACTIVE", d.InstanceActive),
		InstancePoll:     parseDuration("QUANT_POLL_INSTANCE", d.InstancePoll),
		SnapshotComplete: parseDuration("QUANT_TIMEOUT_SNAPSHOT_COMPLETE", d.SnapshotComplete),
		SnapshotPoll:     parseDuration("QUANT_POLL_SNAPSHOT", d.SnapshotPoll),
		HTTPRequest:      parseDuration("QUANT_TIMEOUT_HTTP_REQUEST", d.HTTPRequest),
		RetryMaxAttempts: parseInt("QUANT_RETRY_MAX_ATTEMPTS", d.RetryMaxAttempts),
		RetryBaseDelay:   parseDuration("QUANT_RETRY_BASE_DELAY", d.RetryBaseDelay),
		MetricsPush:      parseDuration("QUANT_TIMEOUT_METRICS_PUSH", d.MetricsPush),
		ManifestUpload:   parseDuration("QUANT_TIMEOUT_MANIFEST_UPLOAD", d.ManifestUpload),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
