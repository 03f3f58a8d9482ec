// Package config loads application configuration from file and
// environment.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Capture   CaptureConfig   `mapstructure:"capture"`
	Session   SessionConfig   `mapstructure:"session"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Estimator EstimatorConfig `mapstructure:"estimator"`
	SMS       SMSConfig       `mapstructure:"sms"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port          string `mapstructure:"port"`
	SigningSecret string `mapstructure:"signing_secret"`
}

type StorageConfig struct {
	DBPath           string        `mapstructure:"db_path"`
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval"`
}

// CaptureConfig describes the external radio-capture subprocess.
type CaptureConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// SessionConfig is the default cook setup used when no session is restored.
type SessionConfig struct {
	MeatType    string        `mapstructure:"meat_type"`
	WeightLbs   float64       `mapstructure:"weight_lbs"`
	TargetPitF  float64       `mapstructure:"target_pit_f"`
	TargetMeatF float64       `mapstructure:"target_meat_f"`
	Retention   time.Duration `mapstructure:"retention"`
}

type AlertsConfig struct {
	Cooldown       time.Duration `mapstructure:"cooldown"`
	DeclineWindow  time.Duration `mapstructure:"decline_window"`
	DeclineRateF   float64       `mapstructure:"decline_rate_f"`
	ActionLookback time.Duration `mapstructure:"action_lookback"`
}

type EstimatorConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Window     time.Duration `mapstructure:"window"`
	MinSamples int           `mapstructure:"min_samples"`
	Interval   time.Duration `mapstructure:"interval"`
	FitBudget  time.Duration `mapstructure:"fit_budget"`
}

type SMSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Phone   string `mapstructure:"phone"`
	Key     string `mapstructure:"key"`
	URL     string `mapstructure:"url"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from path with environment overrides
// (PITWATCH_*).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)
	v.SetEnvPrefix("PITWATCH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")

	v.SetDefault("storage.db_path", "pitwatch.db")
	v.SetDefault("storage.snapshot_interval", "1m")

	v.SetDefault("capture.command", "rtl_433")
	v.SetDefault("capture.args", []string{"-F", "json"})

	v.SetDefault("session.meat_type", "brisket")
	v.SetDefault("session.weight_lbs", 12.0)
	v.SetDefault("session.target_pit_f", 225.0)
	v.SetDefault("session.target_meat_f", 203.0)
	v.SetDefault("session.retention", "6h")

	v.SetDefault("alerts.cooldown", "15m")
	v.SetDefault("alerts.decline_window", "10m")
	v.SetDefault("alerts.decline_rate_f", 30.0)
	v.SetDefault("alerts.action_lookback", "10m")

	v.SetDefault("estimator.enabled", true)
	v.SetDefault("estimator.window", "1h")
	v.SetDefault("estimator.min_samples", 5)
	v.SetDefault("estimator.interval", "1m")
	v.SetDefault("estimator.fit_budget", "2s")

	v.SetDefault("sms.enabled", false)
	v.SetDefault("sms.key", "textbelt")

	v.SetDefault("logging.level", "info")
}

// Validate checks the values that would otherwise fail deep inside the
// pipeline.
func (c *Config) Validate() error {
	if c.Session.TargetPitF <= 0 {
		return fmt.Errorf("session.target_pit_f must be positive")
	}
	if c.Session.TargetMeatF <= 0 {
		return fmt.Errorf("session.target_meat_f must be positive")
	}
	if c.Session.Retention < time.Hour {
		return fmt.Errorf("session.retention must be at least 1h")
	}
	if c.Alerts.Cooldown <= 0 {
		return fmt.Errorf("alerts.cooldown must be positive")
	}
	if c.Estimator.MinSamples < 3 {
		return fmt.Errorf("estimator.min_samples must be at least 3")
	}
	if c.SMS.Enabled && c.SMS.Phone == "" {
		return fmt.Errorf("sms.phone is required when sms is enabled")
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	return nil
}
