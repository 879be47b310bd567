package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

/* Config é um pacote auxiliar. Poderia ser uma lib externa */

type Config struct {
	ReceiverAddr           string  `mapstructure:"RECEIVER_ADDR"`
	OpsPort                string  `mapstructure:"OPS_PORT"`
	ScenarioFile           string  `mapstructure:"SCENARIO_FILE"`
	Scenario               string  `mapstructure:"SCENARIO"`
	WebhookSecret          string  `mapstructure:"WEBHOOK_SECRET"`
	DeliveryTimeoutSeconds int     `mapstructure:"DELIVERY_TIMEOUT_SECONDS"`
	MetricsWindowSeconds   int     `mapstructure:"METRICS_WINDOW_SECONDS"`
	AlertThreshold         float64 `mapstructure:"ALERT_THRESHOLD"`
}

func GetConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("toml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	viper.SetDefault("RECEIVER_ADDR", "127.0.0.1:0")
	viper.SetDefault("OPS_PORT", "9090")
	viper.SetDefault("SCENARIO_FILE", "scenarios.yaml")
	viper.SetDefault("SCENARIO", "")
	viper.SetDefault("WEBHOOK_SECRET", "")
	viper.SetDefault("DELIVERY_TIMEOUT_SECONDS", 30)
	viper.SetDefault("METRICS_WINDOW_SECONDS", 300)
	viper.SetDefault("ALERT_THRESHOLD", 0.10)

	// The config file is optional; env vars and defaults cover everything
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	return &config, nil
}

// DeliveryTimeout returns the per-attempt HTTP timeout
func (c *Config) DeliveryTimeout() time.Duration {
	return time.Duration(c.DeliveryTimeoutSeconds) * time.Second
}

// MetricsWindow returns the rolling metrics window width
func (c *Config) MetricsWindow() time.Duration {
	return time.Duration(c.MetricsWindowSeconds) * time.Second
}
