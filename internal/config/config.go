// Package config loads the application configuration from config.yaml,
// falling back to sensible defaults when the file is absent.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration
type Config struct {
	App struct {
		Name string `mapstructure:"name"`
	} `mapstructure:"app"`

	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`

	Scheduler struct {
		PollInterval time.Duration `mapstructure:"poll_interval"`
	} `mapstructure:"scheduler"`

	Reports struct {
		OutputDir string `mapstructure:"output_dir"`
	} `mapstructure:"reports"`

	Email struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		From     string `mapstructure:"from"`
	} `mapstructure:"email"`

	// NATS is optional; an empty URL disables event publishing.
	NATS struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"nats"`
}

// Load reads config.yaml from the working directory or ./config
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("app.name", "reportflow")
	viper.SetDefault("database.path", "data/reportflow.db")
	viper.SetDefault("scheduler.poll_interval", time.Hour)
	viper.SetDefault("reports.output_dir", "data/exports/scheduled")
	viper.SetDefault("email.port", 587)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}
