package config

import (
	"testing"
	"time"
)

func TestLoadTimeouts_Defaults(t *testing.T) {
	timeouts := LoadTimeouts()

	if timeouts.InstanceActive != 600*time.Second {
		t.Errorf("Expected InstanceActive default 600s, got %v", timeouts.InstanceActive)
	}
	if timeouts.InstancePoll != 20*time.Second {
		t.Errorf("Expected InstancePoll default 20s, got %v", timeouts.InstancePoll)
	}
	if timeouts.SnapshotComplete != 3600*time.Second {
		t.Errorf("Expected SnapshotComplete default 3600s, got %v", timeouts.SnapshotComplete)
	}
	if timeouts.SnapshotPoll != 30*time.Second {
		t.Errorf("Expected SnapshotPoll default 30s, got %v", timeouts.SnapshotPoll)
	}
	if timeouts.RetryMaxAttempts != 3 {
		t.Errorf("Expected RetryMaxAttempts default 3, got %d", timeouts.RetryMaxAttempts)
	}
	if timeouts.RetryBaseDelay != 10*time.Second {
		t.Errorf("Expected RetryBaseDelay default 10s, got %v", timeouts.RetryBaseDelay)
	}
}

func TestLoadTimeouts_CustomValues(t *testing.T) {
	t.Setenv("QUANT_TIMEOUT_INSTANCE_ACTIVE", "15m")
	t.Setenv("QUANT_POLL_SNAPSHOT", "5s")
	t.Setenv("QUANT_RETRY_MAX_ATTEMPTS", "7")

	timeouts := LoadTimeouts()

	if timeouts.InstanceActive != 15*time.Minute {
		t.Errorf("Expected InstanceActive 15m, got %v", timeouts.InstanceActive)
	}
	if timeouts.SnapshotPoll != 5*time.Second {
		t.Errorf("Expected SnapshotPoll 5s, got %v", timeouts.SnapshotPoll)
	}
	if timeouts.RetryMaxAttempts != 7 {
		t.Errorf("Expected RetryMaxAttempts 7, got %d", timeouts.RetryMaxAttempts)
	}
}

func TestLoadTimeouts_InvalidValues(t *testing.T) {
	t.Setenv("QUANT_POLL_INSTANCE", "soon")
	t.Setenv("QUANT_RETRY_MAX_ATTEMPTS", "many")

	timeouts := LoadTimeouts()

	if timeouts.InstancePoll != 20*time.Second {
		t.Errorf("Expected default InstancePoll for invalid value, got %v", timeouts.InstancePoll)
	}
	if timeouts.RetryMaxAttempts != 3 {
		t.Errorf("Expected default RetryMaxAttempts for invalid value, got %d", timeouts.RetryMaxAttempts)
	}
}
