// Package config loads the daemon configuration from the environment into
// one explicit value constructed at startup. There is no package-level
// configuration state; the loaded Config is passed to every component that
// needs it.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Mode is the operating mode selected by which intervals are configured.
type Mode int

const (
	// ModeSingleRun performs one full pass and terminates.
	ModeSingleRun Mode = iota
	// ModeSimpleLoop runs a full pass at a fixed interval forever.
	ModeSimpleLoop
	// ModeCombined runs quick checks at a short interval with periodic
	// full passes.
	ModeCombined
)

// defaultFullSyncInterval applies in combined mode when only the quick
// check interval is configured.
const defaultFullSyncInterval = time.Hour

// Config is the full configuration surface of the daemon.
type Config struct {
	// Proxmox API access.
	PVEHost        string
	PVEUser        string
	PVETokenName   string
	PVETokenSecret string
	PVEVerifySSL   bool

	// NetBox API access.
	NetBoxURL    string
	NetBoxToken  string
	ClusterID    int
	APIDelay     time.Duration
	RetryTotal   int
	RetryBackoff float64

	// Sync behavior.
	SyncVMs            bool
	SyncLXC            bool
	FullSyncInterval   time.Duration // 0 = not configured
	QuickCheckInterval time.Duration // 0 = not configured
	VMRole             string
	LXCRole            string
	DryRun             bool
	EnableCleanup      bool

	// Metrics endpoint.
	EnableMetrics bool
	MetricsPort   int

	LogLevel string
}

// Load reads the configuration from the environment. Missing required
// variables are reported together in a single error so operators can fix
// them in one go.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PVE_API_VERIFY_SSL", false)
	v.SetDefault("NB_CLUSTER_ID", 1)
	v.SetDefault("NB_API_DELAY_SECONDS", 0.2)
	v.SetDefault("NB_API_RETRY_TOTAL", 5)
	v.SetDefault("NB_API_RETRY_BACKOFF", 1.0)
	v.SetDefault("SYNC_VMS", true)
	v.SetDefault("SYNC_LXC", true)
	v.SetDefault("DRY_RUN", false)
	v.SetDefault("ENABLE_CLEANUP", false)
	v.SetDefault("ENABLE_METRICS", false)
	v.SetDefault("METRICS_PORT", 9090)
	v.SetDefault("LOG_LEVEL", "info")

	var missing []string
	for _, key := range []string{
		"PVE_API_HOST", "PVE_API_USER", "PVE_API_TOKEN", "PVE_API_SECRET",
		"NB_API_URL", "NB_API_TOKEN",
	} {
		if v.GetString(key) == "" {
			missing = append(missing, key+" is required")
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("configuration errors:\n  - %s", strings.Join(missing, "\n  - "))
	}

	cfg := &Config{
		PVEHost:            v.GetString("PVE_API_HOST"),
		PVEUser:            v.GetString("PVE_API_USER"),
		PVETokenName:       v.GetString("PVE_API_TOKEN"),
		PVETokenSecret:     v.GetString("PVE_API_SECRET"),
		PVEVerifySSL:       v.GetBool("PVE_API_VERIFY_SSL"),
		NetBoxURL:          v.GetString("NB_API_URL"),
		NetBoxToken:        v.GetString("NB_API_TOKEN"),
		ClusterID:          v.GetInt("NB_CLUSTER_ID"),
		APIDelay:           secondsDuration(v.GetFloat64("NB_API_DELAY_SECONDS")),
		RetryTotal:         v.GetInt("NB_API_RETRY_TOTAL"),
		RetryBackoff:       v.GetFloat64("NB_API_RETRY_BACKOFF"),
		SyncVMs:            v.GetBool("SYNC_VMS"),
		SyncLXC:            v.GetBool("SYNC_LXC"),
		FullSyncInterval:   secondsDuration(v.GetFloat64("SYNC_INTERVAL_SECONDS")),
		QuickCheckInterval: secondsDuration(v.GetFloat64("QUICK_CHECK_INTERVAL_SECONDS")),
		VMRole:             v.GetString("VM_ROLE"),
		LXCRole:            v.GetString("LXC_ROLE"),
		DryRun:             v.GetBool("DRY_RUN"),
		EnableCleanup:      v.GetBool("ENABLE_CLEANUP"),
		EnableMetrics:      v.GetBool("ENABLE_METRICS"),
		MetricsPort:        v.GetInt("METRICS_PORT"),
		LogLevel:           v.GetString("LOG_LEVEL"),
	}
	return cfg, nil
}

func secondsDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// Mode derives the operating mode from the configured intervals: a quick
// check interval selects combined mode regardless of the full interval, a
// full interval alone selects the simple loop, neither selects single-run.
func (c *Config) Mode() Mode {
	switch {
	case c.QuickCheckInterval > 0:
		return ModeCombined
	case c.FullSyncInterval > 0:
		return ModeSimpleLoop
	default:
		return ModeSingleRun
	}
}

// EffectiveFullSyncInterval is the full-pass interval for combined mode,
// defaulting to one hour when only the quick interval is configured.
func (c *Config) EffectiveFullSyncInterval() time.Duration {
	if c.FullSyncInterval > 0 {
		return c.FullSyncInterval
	}
	return defaultFullSyncInterval
}
