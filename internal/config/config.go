package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Cache  CacheConfig  `yaml:"cache"`
	Canvas CanvasConfig `yaml:"canvas"`
	UI     UIConfig     `yaml:"ui"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port int `yaml:"port"`
}

// CacheConfig contains cache-related configuration
type CacheConfig struct {
	Folder string `yaml:"folder"`
	TTL    string `yaml:"ttl"`
}

// CanvasConfig contains Canvas API configuration
type CanvasConfig struct {
	RequestTimeout string `yaml:"request_timeout"`
}

// UIConfig contains browser UI configuration
type UIConfig struct {
	CourseDisplayLimit int `yaml:"course_display_limit"`
}

// Credentials are the Canvas connection parameters entered by the
// operator. They can be pre-filled from the environment but are never
// read from the config file.
type Credentials struct {
	Domain    string
	Token     string
	AccountID string
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	// Set defaults
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Cache.Folder == "" {
		config.Cache.Folder = ".canvas_cache"
	}
	if config.Cache.TTL == "" {
		config.Cache.TTL = "24h"
	}
	if config.Canvas.RequestTimeout == "" {
		config.Canvas.RequestTimeout = "30s"
	}
	if config.UI.CourseDisplayLimit == 0 {
		config.UI.CourseDisplayLimit = 5
	}

	return &config, nil
}

// GetCacheTTL parses and returns the cache TTL duration
func (c *Config) GetCacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.Cache.TTL)
}

// GetRequestTimeout parses and returns the Canvas request timeout
func (c *Config) GetRequestTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Canvas.RequestTimeout)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Cache.Folder == "" {
		return fmt.Errorf("cache folder is required")
	}

	if ttl, err := c.GetCacheTTL(); err != nil {
		return fmt.Errorf("invalid cache TTL format: %w", err)
	} else if ttl <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %s", c.Cache.TTL)
	}

	if timeout, err := c.GetRequestTimeout(); err != nil {
		return fmt.Errorf("invalid request timeout format: %w", err)
	} else if timeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got: %s", c.Canvas.RequestTimeout)
	}

	if c.UI.CourseDisplayLimit <= 0 {
		return fmt.Errorf("course display limit must be positive, got: %d", c.UI.CourseDisplayLimit)
	}

	return nil
}

// CredentialsFromEnv returns credentials pre-filled from the
// environment (typically populated from a .env file by the entrypoint).
func CredentialsFromEnv() Credentials {
	return Credentials{
		Domain:    os.Getenv("CANVAS_DOMAIN"),
		Token:     os.Getenv("CANVAS_TOKEN"),
		AccountID: os.Getenv("CANVAS_ACCOUNT_ID"),
	}
}
