package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the complete runtime configuration.
type Config struct {
	// Provider selects the cloud backend: "vultr" or "hetzner".
	Provider string `mapstructure:"provider" yaml:"provider"`
	// Label identifies the managed instance.
	Label string `mapstructure:"label" yaml:"label"`
	// BackupPrefix is the description prefix of backup snapshots.
	BackupPrefix string `mapstructure:"backup_prefix" yaml:"backup_prefix"`
	// BaseSnapshotID is booted when no backup snapshot exists.
	BaseSnapshotID string `mapstructure:"base_snapshot_id" yaml:"base_snapshot_id"`
	Region         string `mapstructure:"region" yaml:"region"`
	Plan           string `mapstructure:"plan" yaml:"plan"`

	API       APIConfig       `mapstructure:"api" yaml:"api"`
	Retention RetentionConfig `mapstructure:"retention" yaml:"retention"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap" yaml:"bootstrap"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Manifest  ManifestConfig  `mapstructure:"manifest" yaml:"manifest"`

	Timeouts *Timeouts `mapstructure:"-" yaml:"-"`
}

// APIConfig holds provider credentials and endpoints.
type APIConfig struct {
	// URL overrides the Vultr API base URL.
	URL string `mapstructure:"url" yaml:"url"`
	// Key is the Vultr API key.
	Key string `mapstructure:"key" yaml:"key"`
	// HCloudToken is the Hetzner Cloud API token.
	HCloudToken string `mapstructure:"hcloud_token" yaml:"hcloud_token"`
}

// RetentionConfig controls backup snapshot pruning.
type RetentionConfig struct {
	// RetainDays is the maximum age in days of non-newest backups.
	RetainDays int `mapstructure:"retain_days" yaml:"retain_days"`
	// MaxCount is the maximum number of backups kept.
	MaxCount int `mapstructure:"max_count" yaml:"max_count"`
}

// BootstrapConfig feeds the first-boot script.
type BootstrapConfig struct {
	TailscaleAuthKey string `mapstructure:"tailscale_auth_key" yaml:"tailscale_auth_key"`
	RepoDir          string `mapstructure:"repo_dir" yaml:"repo_dir"`
	ServiceName      string `mapstructure:"service_name" yaml:"service_name"`
	Entrypoint       string `mapstructure:"entrypoint" yaml:"entrypoint"`
}

// MetricsConfig controls metric export. Metrics are only pushed when
// PushgatewayURL is set.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url" yaml:"pushgateway_url"`
	Job            string `mapstructure:"job" yaml:"job"`
}

// ManifestConfig controls the S3 backup manifest. Disabled when Bucket is empty.
type ManifestConfig struct {
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	Region    string `mapstructure:"region" yaml:"region"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
}

// Enabled reports whether a manifest bucket is configured.
func (m ManifestConfig) Enabled() bool {
	return m.Bucket != ""
}

// envBindings maps config keys to their environment variables. The first
// variable that is set wins.
var envBindings = map[string][]string{
	"provider":                     {"QUANT_PROVIDER"},
	"label":                        {"QUANT_LABEL"},
	"backup_prefix":                {"QUANT_BACKUP_PREFIX"},
	"base_snapshot_id":             {"VULTR_SNAPSHOT_ID", "QUANT_BASE_SNAPSHOT_ID"},
	"region":                       {"VULTR_REGION", "QUANT_REGION"},
	"plan":                         {"VULTR_PLAN", "QUANT_PLAN"},
	"api.url":                      {"QUANT_API_URL"},
	"api.key":                      {"VULTR_API_KEY"},
	"api.hcloud_token":             {"HCLOUD_TOKEN"},
	"retention.retain_days":        {"VULTR_SNAPSHOT_RETAIN_DAYS", "QUANT_RETAIN_DAYS"},
	"retention.max_count":          {"VULTR_SNAPSHOT_MAX_COUNT", "QUANT_MAX_COUNT"},
	"bootstrap.tailscale_auth_key": {"TS_AUTH_KEY"},
	"bootstrap.repo_dir":           {"QUANT_REPO_DIR"},
	"bootstrap.service_name":       {"QUANT_SERVICE_NAME"},
	"bootstrap.entrypoint":         {"QUANT_ENTRYPOINT"},
	"metrics.pushgateway_url":      {"QUANT_PUSHGATEWAY_URL"},
	"metrics.job":                  {"QUANT_METRICS_JOB"},
	"manifest.bucket":              {"QUANT_MANIFEST_BUCKET"},
	"manifest.prefix":              {"QUANT_MANIFEST_PREFIX"},
	"manifest.endpoint":            {"QUANT_MANIFEST_ENDPOINT"},
	"manifest.region":              {"QUANT_MANIFEST_REGION"},
	"manifest.access_key":          {"QUANT_MANIFEST_ACCESS_KEY"},
	"manifest.secret_key":          {"QUANT_MANIFEST_SECRET_KEY"},
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Provider:     ProviderVultr,
		Label:        DefaultLabel,
		BackupPrefix: DefaultBackupPrefix,
		Region:       DefaultRegion,
		Plan:         DefaultPlan,
		API: APIConfig{
			URL: DefaultVultrURL,
		},
		Retention: RetentionConfig{
			RetainDays: DefaultRetainDays,
			MaxCount:   DefaultMaxCount,
		},
		Bootstrap: BootstrapConfig{
			RepoDir:     DefaultRepoDir,
			ServiceName: DefaultServiceName,
			Entrypoint:  DefaultEntrypoint,
		},
		Metrics: MetricsConfig{
			Job: DefaultMetricsJob,
		},
		Manifest: ManifestConfig{
			Prefix: "manifests",
			Region: "us-east-1",
		},
		Timeouts: DefaultTimeouts(),
	}
}

// setDefaults registers default values with v.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("provider", d.Provider)
	v.SetDefault("label", d.Label)
	v.SetDefault("backup_prefix", d.BackupPrefix)
	v.SetDefault("base_snapshot_id", d.BaseSnapshotID)
	v.SetDefault("region", d.Region)
	v.SetDefault("plan", d.Plan)
	v.SetDefault("api.url", d.API.URL)
	v.SetDefault("api.key", d.API.Key)
	v.SetDefault("api.hcloud_token", d.API.HCloudToken)
	v.SetDefault("retention.retain_days", d.Retention.RetainDays)
	v.SetDefault("retention.max_count", d.Retention.MaxCount)
	v.SetDefault("bootstrap.tailscale_auth_key", d.Bootstrap.TailscaleAuthKey)
	v.SetDefault("bootstrap.repo_dir", d.Bootstrap.RepoDir)
	v.SetDefault("bootstrap.service_name", d.Bootstrap.ServiceName)
	v.SetDefault("bootstrap.entrypoint", d.Bootstrap.Entrypoint)
	v.SetDefault("metrics.pushgateway_url", d.Metrics.PushgatewayURL)
	v.SetDefault("metrics.job", d.Metrics.Job)
	v.SetDefault("manifest.bucket", d.Manifest.Bucket)
	v.SetDefault("manifest.prefix", d.Manifest.Prefix)
	v.SetDefault("manifest.endpoint", d.Manifest.Endpoint)
	v.SetDefault("manifest.region", d.Manifest.Region)
	v.SetDefault("manifest.access_key", d.Manifest.AccessKey)
	v.SetDefault("manifest.secret_key", d.Manifest.SecretKey)
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and the environment. It does not validate.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.Timeouts = LoadTimeouts()
	return cfg, nil
}

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	out.API.Key = mask(c.API.Key)
	out.API.HCloudToken = mask(c.API.HCloudToken)
	out.Bootstrap.TailscaleAuthKey = mask(c.Bootstrap.TailscaleAuthKey)
	out.Manifest.AccessKey = mask(c.Manifest.AccessKey)
	out.Manifest.SecretKey = mask(c.Manifest.SecretKey)
	return &out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
