// Package config loads application configuration from file and environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Version is the application version, overridable at build time.
var Version = "1.0.0"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Radarr   ServiceConfig  `mapstructure:"radarr"`
	Sonarr   ServiceConfig  `mapstructure:"sonarr"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Upgrade  UpgradeConfig  `mapstructure:"upgrade"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Settings SettingsConfig `mapstructure:"settings"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// AuthConfig holds the shared-secret token and the optional caller
// allow-list (IP addresses or CIDR ranges). An empty token makes the
// service refuse all authenticated calls.
type AuthConfig struct {
	Token      string   `mapstructure:"token"`
	AllowedIPs []string `mapstructure:"allowed_ips"`
}

// ServiceConfig holds the connection settings for one catalog service.
type ServiceConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	APIKey  string `mapstructure:"api_key"`
}

// HTTPConfig tunes the shared HTTP layer of the catalog clients.
type HTTPConfig struct {
	TimeoutSeconds      int     `mapstructure:"timeout_seconds"`
	MaxRetries          int     `mapstructure:"max_retries"`
	BackoffSeconds      float64 `mapstructure:"backoff_seconds"`
	MaxParallelRequests int     `mapstructure:"max_parallel_requests"`
}

// Timeout returns the per-call HTTP timeout.
func (c *HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Backoff returns the base retry backoff delay.
func (c *HTTPConfig) Backoff() time.Duration {
	return time.Duration(c.BackoffSeconds * float64(time.Second))
}

// UpgradeConfig holds engine-level settings.
type UpgradeConfig struct {
	TagLabel string `mapstructure:"tag_label"`
	APIPath  string `mapstructure:"api_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// SettingsConfig locates the persisted runtime settings file.
type SettingsConfig struct {
	Path string `mapstructure:"path"`
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/config")
	}

	v.SetEnvPrefix("POLISHRR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults + env vars
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("auth.token", "")
	v.SetDefault("auth.allowed_ips", []string{})

	v.SetDefault("radarr.enabled", false)
	v.SetDefault("radarr.url", "")
	v.SetDefault("radarr.api_key", "")

	v.SetDefault("sonarr.enabled", false)
	v.SetDefault("sonarr.url", "")
	v.SetDefault("sonarr.api_key", "")

	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_seconds", 0.5)
	v.SetDefault("http.max_parallel_requests", 8)

	v.SetDefault("upgrade.tag_label", "upgrade-cf")
	v.SetDefault("upgrade.api_path", "/api/v3")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.compress", true)

	v.SetDefault("settings.path", "./data/settings.json")
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
