package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ligustah/podslurp/internal/feed"
	"github.com/ligustah/podslurp/internal/progress"
	"gopkg.in/yaml.v3"
)

// Config defines configuration for podslurp.
type Config struct {
	FeedURL     string      `yaml:"feed_url"`
	DownloadDir string      `yaml:"download_dir"`
	StorageURL  string      `yaml:"storage_url"`
	Extension   string      `yaml:"extension"`
	ChunkSize   int         `yaml:"chunk_size"`
	Wait        WaitConfig  `yaml:"wait"`
	RateLimit   int64       `yaml:"rate_limit"`
	UserAgent   string      `yaml:"user_agent"`
	HTTP        HTTPConfig  `yaml:"http"`
	Retry       RetryConfig `yaml:"retry"`
}

// WaitConfig defines the polite pause between batches.
type WaitConfig struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

// HTTPConfig defines HTTP transport behavior.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// RetryConfig defines retry behavior.
type RetryConfig struct {
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		FeedURL:     feed.DefaultURL,
		DownloadDir: "downloads",
		Extension:   ".mp3",
		ChunkSize:   5,
		Wait: WaitConfig{
			Min: 2 * time.Second,
			Max: 5 * time.Second,
		},
		UserAgent: "podslurp/1.0",
		Retry: RetryConfig{
			Attempts:   3,
			Backoff:    time.Second,
			MaxBackoff: 30 * time.Second,
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string sizes and durations.
type yamlConfig struct {
	FeedURL     string          `yaml:"feed_url"`
	DownloadDir string          `yaml:"download_dir"`
	StorageURL  string          `yaml:"storage_url"`
	Extension   string          `yaml:"extension"`
	ChunkSize   int             `yaml:"chunk_size"`
	Wait        yamlWaitConfig  `yaml:"wait"`
	RateLimit   string          `yaml:"rate_limit"`
	UserAgent   string          `yaml:"user_agent"`
	HTTP        yamlHTTPConfig  `yaml:"http"`
	Retry       yamlRetryConfig `yaml:"retry"`
}

type yamlWaitConfig struct {
	Min string `yaml:"min"`
	Max string `yaml:"max"`
}

type yamlHTTPConfig struct {
	Timeout string `yaml:"timeout"`
}

type yamlRetryConfig struct {
	Attempts   int    `yaml:"attempts"`
	Backoff    string `yaml:"backoff"`
	MaxBackoff string `yaml:"max_backoff"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.FeedURL != "" {
		cfg.FeedURL = yc.FeedURL
	}
	if yc.DownloadDir != "" {
		cfg.DownloadDir = yc.DownloadDir
	}
	if yc.StorageURL != "" {
		cfg.StorageURL = yc.StorageURL
	}
	if yc.Extension != "" {
		cfg.Extension = yc.Extension
	}
	if yc.ChunkSize != 0 {
		cfg.ChunkSize = yc.ChunkSize
	}
	if yc.Wait.Min != "" {
		d, err := time.ParseDuration(yc.Wait.Min)
		if err != nil {
			return Config{}, fmt.Errorf("parse wait.min: %w", err)
		}
		cfg.Wait.Min = d
	}
	if yc.Wait.Max != "" {
		d, err := time.ParseDuration(yc.Wait.Max)
		if err != nil {
			return Config{}, fmt.Errorf("parse wait.max: %w", err)
		}
		cfg.Wait.Max = d
	}
	if yc.RateLimit != "" {
		size, err := progress.ParseBytes(yc.RateLimit)
		if err != nil {
			return Config{}, fmt.Errorf("parse rate_limit: %w", err)
		}
		cfg.RateLimit = size
	}
	if yc.UserAgent != "" {
		cfg.UserAgent = yc.UserAgent
	}
	if yc.HTTP.Timeout != "" {
		d, err := time.ParseDuration(yc.HTTP.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse http.timeout: %w", err)
		}
		cfg.HTTP.Timeout = d
	}
	if yc.Retry.Attempts != 0 {
		cfg.Retry.Attempts = yc.Retry.Attempts
	}
	if yc.Retry.Backoff != "" {
		d, err := time.ParseDuration(yc.Retry.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.backoff: %w", err)
		}
		cfg.Retry.Backoff = d
	}
	if yc.Retry.MaxBackoff != "" {
		d, err := time.ParseDuration(yc.Retry.MaxBackoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.max_backoff: %w", err)
		}
		cfg.Retry.MaxBackoff = d
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the PODSLURP_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("PODSLURP_FEED_URL"); v != "" {
		c.FeedURL = v
	}
	if v := os.Getenv("PODSLURP_DOWNLOAD_DIR"); v != "" {
		c.DownloadDir = v
	}
	if v := os.Getenv("PODSLURP_STORAGE_URL"); v != "" {
		c.StorageURL = v
	}
	if v := os.Getenv("PODSLURP_EXTENSION"); v != "" {
		c.Extension = v
	}
	if v := os.Getenv("PODSLURP_CHUNK_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse PODSLURP_CHUNK_SIZE: %w", err)
		}
		c.ChunkSize = n
	}
	if v := os.Getenv("PODSLURP_WAIT_MIN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse PODSLURP_WAIT_MIN: %w", err)
		}
		c.Wait.Min = d
	}
	if v := os.Getenv("PODSLURP_WAIT_MAX"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse PODSLURP_WAIT_MAX: %w", err)
		}
		c.Wait.Max = d
	}
	if v := os.Getenv("PODSLURP_RATE_LIMIT"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse PODSLURP_RATE_LIMIT: %w", err)
		}
		c.RateLimit = size
	}
	if v := os.Getenv("PODSLURP_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv("PODSLURP_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse PODSLURP_HTTP_TIMEOUT: %w", err)
		}
		c.HTTP.Timeout = d
	}
	if v := os.Getenv("PODSLURP_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse PODSLURP_RETRY_ATTEMPTS: %w", err)
		}
		c.Retry.Attempts = n
	}
	if v := os.Getenv("PODSLURP_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse PODSLURP_RETRY_BACKOFF: %w", err)
		}
		c.Retry.Backoff = d
	}
	if v := os.Getenv("PODSLURP_RETRY_MAX_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse PODSLURP_RETRY_MAX_BACKOFF: %w", err)
		}
		c.Retry.MaxBackoff = d
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.FeedURL == "" {
		return errors.New("config: feed_url is required")
	}
	if c.DownloadDir == "" && c.StorageURL == "" {
		return errors.New("config: download_dir or storage_url is required")
	}
	if c.Extension == "" {
		return errors.New("config: extension is required")
	}
	if c.ChunkSize <= 0 {
		return errors.New("config: chunk_size must be positive")
	}
	if c.Wait.Min < 0 || c.Wait.Max < 0 {
		return errors.New("config: wait durations must not be negative")
	}
	if c.Wait.Min > c.Wait.Max {
		return errors.New("config: wait.min must not exceed wait.max")
	}
	if c.RateLimit < 0 {
		return errors.New("config: rate_limit must not be negative")
	}
	if c.Retry.Attempts < 0 {
		return errors.New("config: retry.attempts must not be negative")
	}
	return nil
}

// Load builds the effective configuration: defaults, then the YAML file named
// by PODSLURP_CONFIG (if set), then PODSLURP_* environment variables.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("PODSLURP_CONFIG"); path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = fileCfg
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
