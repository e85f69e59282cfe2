package config

// Supported providers.
const (
	ProviderVultr   = "vultr"
	ProviderHetzner = "hetzner"
)

// Defaults for the managed server.
const (
	DefaultLabel        = "Quant-Trading-Server"
	DefaultBackupPrefix = "Quant-Backup"
	DefaultRegion       = "ewr"
	DefaultPlan         = "vc2-2c-4gb"
	DefaultVultrURL     = "https://api.vultr.com/v2"
	DefaultRetainDays   = 3
	DefaultMaxCount     = 3
	DefaultMetricsJob   = "quantserver"
	DefaultRepoDir      = "/root/algo-trading"
	DefaultServiceName  = "quant-trading"
	DefaultEntrypoint   = "go.py"
)
