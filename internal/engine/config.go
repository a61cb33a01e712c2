package engine

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultIdleThresholdMinutes = 5
	DefaultCheckpointInterval   = 5 * time.Minute
	DefaultStoreTimeout         = 5 * time.Second
	DefaultAppName              = "Work session"

	// IdleAppName labels sessions created from attributed idle time.
	IdleAppName = "Idle time"
	// ManualAppName is the default app name of hand-entered sessions.
	ManualAppName = "Manual entry"

	idleThresholdSetting = "idle_threshold"
)

// Config holds tracking engine configuration.
type Config struct {
	IdleThresholdMinutes int
	CheckpointInterval   time.Duration
	StoreTimeout         time.Duration
	AppName              string
}

// DefaultConfig returns the engine config, reading from viper when available.
func DefaultConfig() Config {
	cfg := Config{
		IdleThresholdMinutes: viper.GetInt("tracking.idle_threshold_minutes"),
		CheckpointInterval:   viper.GetDuration("tracking.checkpoint_interval"),
		StoreTimeout:         viper.GetDuration("store.timeout"),
		AppName:              viper.GetString("sampler.app_name"),
	}
	return cfg.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.IdleThresholdMinutes <= 0 {
		c.IdleThresholdMinutes = DefaultIdleThresholdMinutes
	}
	if c.CheckpointInterval <= 0 {
		c.CheckpointInterval = DefaultCheckpointInterval
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = DefaultStoreTimeout
	}
	if c.AppName == "" {
		c.AppName = DefaultAppName
	}
	return c
}
