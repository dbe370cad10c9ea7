package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Tutorial TutorialConfig `mapstructure:"tutorial"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DataConfig holds the location of the food-composition CSV
type DataConfig struct {
	Source     string        `mapstructure:"source"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// TutorialConfig holds walkthrough behavior and display configuration
type TutorialConfig struct {
	Strict         bool   `mapstructure:"strict"`
	FloatPrecision int    `mapstructure:"float_precision"`
	TableStyle     string `mapstructure:"table_style"`
	HideTypes      bool   `mapstructure:"hide_types"`
	HeadRows       int    `mapstructure:"head_rows"`
}

// TelegramConfig holds Telegram report delivery configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds run archive configuration
type StorageConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	FilePath string `mapstructure:"file_path"`
	MaxRuns  int    `mapstructure:"max_runs"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EnvPrefix is prepended to environment overrides, e.g. NUTRIFRAME_DATA_SOURCE.
const EnvPrefix = "NUTRIFRAME"

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Data defaults
	v.SetDefault("data.source", "./testdata/swiss-food.csv")
	v.SetDefault("data.timeout", "30s")
	v.SetDefault("data.max_retries", 3)

	// Tutorial defaults
	v.SetDefault("tutorial.strict", true)
	v.SetDefault("tutorial.float_precision", 2)
	v.SetDefault("tutorial.table_style", "markdown")
	v.SetDefault("tutorial.hide_types", true)
	v.SetDefault("tutorial.head_rows", 5)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Storage defaults
	v.SetDefault("storage.enabled", true)
	v.SetDefault("storage.file_path", "./data/nutriframe-runs.json")
	v.SetDefault("storage.max_runs", 50)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Data config
	if c.Data.Source == "" {
		return fmt.Errorf("data.source is required")
	}
	if c.Data.Timeout < 1*time.Second {
		return fmt.Errorf("data.timeout must be at least 1 second")
	}
	if c.Data.MaxRetries < 0 {
		return fmt.Errorf("data.max_retries must be non-negative")
	}

	// Validate Tutorial config
	if c.Tutorial.FloatPrecision < 0 || c.Tutorial.FloatPrecision > 12 {
		return fmt.Errorf("tutorial.float_precision must be between 0 and 12")
	}
	validStyles := map[string]bool{"markdown": true, "ascii": true}
	if !validStyles[c.Tutorial.TableStyle] {
		return fmt.Errorf("tutorial.table_style must be one of: markdown, ascii")
	}
	if c.Tutorial.HeadRows < 1 {
		return fmt.Errorf("tutorial.head_rows must be at least 1")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
		if c.Telegram.MaxRetries < 1 {
			return fmt.Errorf("telegram.max_retries must be at least 1")
		}
		if c.Telegram.RetryDelayBase <= 0 {
			return fmt.Errorf("telegram.retry_delay_base must be positive")
		}
	}

	// Validate Storage config
	if c.Storage.Enabled {
		if c.Storage.FilePath == "" {
			return fmt.Errorf("storage.file_path is required when storage is enabled")
		}
		if c.Storage.MaxRuns < 1 {
			return fmt.Errorf("storage.max_runs must be at least 1")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true, "logfmt": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text, logfmt")
	}

	return nil
}
