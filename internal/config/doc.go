// Package config loads the immutable runtime configuration.
//
// Configuration is layered with viper: built-in defaults, then an optional
// YAML file, then environment variables. The environment names used by the
// original operator scripts (VULTR_API_KEY, VULTR_SNAPSHOT_ID, TS_AUTH_KEY,
// ...) are bound explicitly so existing cron setups keep working.
//
// Poll intervals, deadlines and the HTTP retry budget live in [Timeouts] and
// are read from QUANT_* environment variables only.
//
// A [Config] is built once per process and passed by pointer to every
// component; nothing mutates it after [Load] returns.
package config
