package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/folio/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Log       LogConfig                 `mapstructure:"log"`
	Fetch     FetchConfig               `mapstructure:"fetch"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Cache     CacheConfig               `mapstructure:"cache"`
	Archive   ArchiveConfig             `mapstructure:"archive"`
	LLM       LLMConfig                 `mapstructure:"llm"`
	Metrics   MetricsConfig             `mapstructure:"metrics"`
	Funds     []core.FundMetadata       `mapstructure:"funds"`
}

type LogConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"` // debug, info, warn, error; empty keeps the mode default
}

// FetchConfig holds waterfall timing and HTTP retry settings.
type FetchConfig struct {
	AttemptTimeout    time.Duration `mapstructure:"attempt_timeout"`
	InterAttemptDelay time.Duration `mapstructure:"inter_attempt_delay"`
	InterFundDelay    time.Duration `mapstructure:"inter_fund_delay"`
	MaxRetries        int           `mapstructure:"max_retries"`
	BackoffBase       time.Duration `mapstructure:"backoff_base"`
	Concurrency       int           `mapstructure:"concurrency"`
	UserAgent         string        `mapstructure:"user_agent"`
}

// ProviderConfig overrides catalog defaults for one provider.
type ProviderConfig struct {
	Enabled       *bool   `mapstructure:"enabled"`
	BaseURL       string  `mapstructure:"base_url"`
	APIKey        string  `mapstructure:"api_key"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
}

// IsEnabled treats an unset flag as enabled.
func (p ProviderConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

type CacheConfig struct {
	DSN        string `mapstructure:"dsn"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "", "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type LLMConfig struct {
	Provider string       `mapstructure:"provider"`
	Claude   ClaudeConfig `mapstructure:"claude"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file on top of Defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v, Defaults())

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("fetch.attempt_timeout", d.Fetch.AttemptTimeout)
	v.SetDefault("fetch.inter_attempt_delay", d.Fetch.InterAttemptDelay)
	v.SetDefault("fetch.inter_fund_delay", d.Fetch.InterFundDelay)
	v.SetDefault("fetch.max_retries", d.Fetch.MaxRetries)
	v.SetDefault("fetch.backoff_base", d.Fetch.BackoffBase)
	v.SetDefault("fetch.concurrency", d.Fetch.Concurrency)
	v.SetDefault("fetch.user_agent", d.Fetch.UserAgent)
	v.SetDefault("cache.dsn", d.Cache.DSN)
	v.SetDefault("cache.max_age_days", d.Cache.MaxAgeDays)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Fetch: FetchConfig{
			AttemptTimeout:    10 * time.Second,
			InterAttemptDelay: 500 * time.Millisecond,
			InterFundDelay:    100 * time.Millisecond,
			MaxRetries:        2,
			BackoffBase:       500 * time.Millisecond,
			Concurrency:       1,
			UserAgent:         "Mozilla/5.0 (compatible; folio/1.0)",
		},
		Providers: map[string]ProviderConfig{},
		Cache: CacheConfig{
			DSN:        "folio.db",
			MaxAgeDays: 7,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
			Path:    "/metrics",
		},
	}
}

// Provider returns the settings for a named provider, zero value if absent.
func (c *Config) Provider(name string) ProviderConfig {
	if c.Providers == nil {
		return ProviderConfig{}
	}
	return c.Providers[name]
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	f := c.Fetch
	if f.AttemptTimeout <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("attempt_timeout must be positive, got %s", f.AttemptTimeout))
	}
	if f.InterAttemptDelay < 0 || f.InterFundDelay < 0 || f.BackoffBase < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("delays cannot be negative"))
	}
	if f.MaxRetries < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_retries cannot be negative, got %d", f.MaxRetries))
	}
	if f.Concurrency < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("concurrency must be at least 1, got %d", f.Concurrency))
	}

	for name, p := range c.Providers {
		if p.RatePerSecond < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("providers.%s.rate_per_second cannot be negative", name))
		}
	}

	switch c.Archive.Type {
	case "":
	case "localfs":
		if c.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive path required for localfs"))
		}
	case "s3":
		if c.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive s3 bucket required"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown archive type: %s", c.Archive.Type))
	}

	// LLM validation - if provider set, check config exists
	switch c.LLM.Provider {
	case "":
	case "claude":
		if c.LLM.Claude.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("claude api_key required when provider is claude"))
		}
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("openai api_key required when provider is openai"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown llm provider: %s", c.LLM.Provider))
	}

	return nil
}
