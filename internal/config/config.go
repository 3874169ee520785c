// Package config loads and validates the mitostat configuration.
// Configuration comes from a YAML file with MITOSTAT_-prefixed environment
// variable overrides. All numeric classification thresholds live here so a
// run is fully reproducible from its config file.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Review   ReviewConfig   `mapstructure:"review"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Report   ReportConfig   `mapstructure:"report"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AnalysisConfig holds the interval and classification parameters.
type AnalysisConfig struct {
	WindowSize            int     `mapstructure:"window_size"`            // frames per analysis interval
	OnsetFrame            int     `mapstructure:"onset_frame"`            // treatment onset; 1 = no treatment
	HighThreshold         float64 `mapstructure:"high_threshold"`         // occupancy fraction for automatic stationary
	LowThreshold          float64 `mapstructure:"low_threshold"`          // occupancy fraction below which moving is decisive
	MultiplicityThreshold float64 `mapstructure:"multiplicity_threshold"` // share of evaluated frames with >1 in-window object
	GapThreshold          int     `mapstructure:"gap_threshold"`          // consecutive unoccupied frames before a gap warning
}

// ReviewConfig holds the human-confirmation configuration.
type ReviewConfig struct {
	Mode     string         `mapstructure:"mode"` // "terminal", "telegram", or "auto"
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig holds the Telegram confirmation channel configuration.
type TelegramConfig struct {
	BotToken     string        `mapstructure:"bot_token"`
	ChatID       string        `mapstructure:"chat_id"`
	ReplyTimeout time.Duration `mapstructure:"reply_timeout"` // no reply within this window = no answer
}

// StorageConfig holds the result database configuration.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// ReportConfig holds the HTML trace report configuration.
type ReportConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	OutputPath string `mapstructure:"output_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("MITOSTAT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Analysis defaults
	v.SetDefault("analysis.window_size", 450)
	v.SetDefault("analysis.onset_frame", 1)
	v.SetDefault("analysis.high_threshold", 0.9)
	v.SetDefault("analysis.low_threshold", 0.7)
	v.SetDefault("analysis.multiplicity_threshold", 0.5)
	v.SetDefault("analysis.gap_threshold", 30)

	// Review defaults
	v.SetDefault("review.mode", "terminal")
	v.SetDefault("review.telegram.reply_timeout", "2m")

	// Storage defaults
	v.SetDefault("storage.db_path", "./data/mitostat.db")

	// Report defaults
	v.SetDefault("report.enabled", false)
	v.SetDefault("report.output_path", "./data/report.html")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid.
func (c *Config) Validate() error {
	// Validate Analysis config
	if c.Analysis.WindowSize < 1 {
		return fmt.Errorf("analysis.window_size must be at least 1")
	}
	if c.Analysis.OnsetFrame < 1 {
		return fmt.Errorf("analysis.onset_frame must be at least 1")
	}
	if c.Analysis.HighThreshold <= 0.0 || c.Analysis.HighThreshold >= 1.0 {
		return fmt.Errorf("analysis.high_threshold must be between 0.0 and 1.0 exclusive")
	}
	if c.Analysis.LowThreshold <= 0.0 || c.Analysis.LowThreshold >= 1.0 {
		return fmt.Errorf("analysis.low_threshold must be between 0.0 and 1.0 exclusive")
	}
	if c.Analysis.LowThreshold >= c.Analysis.HighThreshold {
		return fmt.Errorf("analysis.low_threshold must be below analysis.high_threshold")
	}
	if c.Analysis.MultiplicityThreshold < 0.0 || c.Analysis.MultiplicityThreshold > 1.0 {
		return fmt.Errorf("analysis.multiplicity_threshold must be between 0.0 and 1.0")
	}
	if c.Analysis.GapThreshold < 1 {
		return fmt.Errorf("analysis.gap_threshold must be at least 1")
	}

	// Validate Review config
	switch c.Review.Mode {
	case "terminal", "auto":
	case "telegram":
		if c.Review.Telegram.BotToken == "" {
			return fmt.Errorf("review.telegram.bot_token is required when review mode is telegram")
		}
		if c.Review.Telegram.ChatID == "" {
			return fmt.Errorf("review.telegram.chat_id is required when review mode is telegram")
		}
		if c.Review.Telegram.ReplyTimeout < time.Second {
			return fmt.Errorf("review.telegram.reply_timeout must be at least 1 second")
		}
	default:
		return fmt.Errorf("review.mode must be one of: terminal, telegram, auto")
	}

	// Validate Storage config
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}

	// Validate Report config
	if c.Report.Enabled && c.Report.OutputPath == "" {
		return fmt.Errorf("report.output_path is required when the report is enabled")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
