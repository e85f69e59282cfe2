package config

import (
	"fmt"
	"strings"
)

// Validate checks the settings every action needs.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderVultr:
		if c.API.Key == "" {
			return fmt.Errorf("api key is required (set VULTR_API_KEY)")
		}
		if c.API.URL == "" {
			return fmt.Errorf("api url is required")
		}
	case ProviderHetzner:
		if c.API.HCloudToken == "" {
			return fmt.Errorf("hcloud token is required (set HCLOUD_TOKEN)")
		}
	default:
		return fmt.Errorf("unsupported provider %q (supported: %s, %s)", c.Provider, ProviderVultr, ProviderHetzner)
	}

	if strings.TrimSpace(c.Label) == "" {
		return fmt.Errorf("label is required")
	}
	if strings.TrimSpace(c.BackupPrefix) == "" {
		return fmt.Errorf("backup prefix is required")
	}

	if err := c.validateRetention(); err != nil {
		return fmt.Errorf("retention validation failed: %w", err)
	}

	if c.Manifest.Enabled() && (c.Manifest.AccessKey == "") != (c.Manifest.SecretKey == "") {
		return fmt.Errorf("manifest access key and secret key must both be set or both be empty")
	}

	return nil
}

// ValidateStart checks the additional settings needed to create an instance.
func (c *Config) ValidateStart() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.BaseSnapshotID == "" {
		return fmt.Errorf("base snapshot id is required (set VULTR_SNAPSHOT_ID)")
	}
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}
	if c.Plan == "" {
		return fmt.Errorf("plan is required")
	}
	if c.Bootstrap.TailscaleAuthKey == "" {
		return fmt.Errorf("tailscale auth key is required (set TS_AUTH_KEY)")
	}
	return nil
}

func (c *Config) validateRetention() error {
	if c.Retention.RetainDays < 0 {
		return fmt.Errorf("retain_days must be >= 0, got %d", c.Retention.RetainDays)
	}
	if c.Retention.MaxCount < 1 {
		return fmt.Errorf("max_count must be >= 1, got %d", c.Retention.MaxCount)
	}
	return nil
}
