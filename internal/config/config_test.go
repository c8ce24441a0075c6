package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/newthinker/folio/internal/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func TestLoad_FromFile(t *testing.T) {
	cfgPath := writeConfig(t, `
fetch:
  attempt_timeout: 5s
  concurrency: 2

providers:
  fmp:
    api_key: "abc"
    rate_per_second: 2
  aic:
    enabled: false

cache:
  dsn: "/tmp/folio-test.db"

funds:
  - symbol: IWRD
    name: iShares MSCI World UCITS ETF
    isin: IE00B4L5Y983
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Fetch.AttemptTimeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", cfg.Fetch.AttemptTimeout)
	}
	if cfg.Fetch.InterAttemptDelay != 500*time.Millisecond {
		t.Errorf("expected default inter-attempt delay, got %s", cfg.Fetch.InterAttemptDelay)
	}
	if cfg.Fetch.Concurrency != 2 {
		t.Errorf("expected concurrency 2, got %d", cfg.Fetch.Concurrency)
	}
	if cfg.Provider("fmp").APIKey != "abc" {
		t.Errorf("expected fmp api key, got %q", cfg.Provider("fmp").APIKey)
	}
	if cfg.Provider("aic").IsEnabled() {
		t.Error("expected aic disabled")
	}
	if !cfg.Provider("ft").IsEnabled() {
		t.Error("expected unconfigured provider enabled")
	}
	if len(cfg.Funds) != 1 || cfg.Funds[0].ISIN != "IE00B4L5Y983" {
		t.Errorf("unexpected funds: %+v", cfg.Funds)
	}
	if cfg.Cache.MaxAgeDays != 7 {
		t.Errorf("expected default max_age_days 7, got %d", cfg.Cache.MaxAgeDays)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("FOLIO_TEST_FMP_KEY", "from-env")
	cfgPath := writeConfig(t, `
providers:
  fmp:
    api_key: "${FOLIO_TEST_FMP_KEY}"
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Provider("fmp").APIKey != "from-env" {
		t.Errorf("expected expanded key, got %q", cfg.Provider("fmp").APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Fetch.AttemptTimeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %s", cfg.Fetch.AttemptTimeout)
	}
	if cfg.Fetch.InterAttemptDelay != 500*time.Millisecond {
		t.Errorf("expected default inter_attempt_delay 500ms, got %s", cfg.Fetch.InterAttemptDelay)
	}
	if cfg.Fetch.InterFundDelay != 100*time.Millisecond {
		t.Errorf("expected default inter_fund_delay 100ms, got %s", cfg.Fetch.InterFundDelay)
	}
	if cfg.Cache.MaxAgeDays != 7 {
		t.Errorf("expected default max_age_days 7, got %d", cfg.Cache.MaxAgeDays)
	}
	if cfg.Fetch.MaxRetries != 2 {
		t.Errorf("expected default max_retries 2, got %d", cfg.Fetch.MaxRetries)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr *core.Error
	}{
		{"valid", func(c *Config) {}, nil},
		{"zero timeout", func(c *Config) { c.Fetch.AttemptTimeout = 0 }, core.ErrConfigInvalid},
		{"negative retries", func(c *Config) { c.Fetch.MaxRetries = -1 }, core.ErrConfigInvalid},
		{"zero concurrency", func(c *Config) { c.Fetch.Concurrency = 0 }, core.ErrConfigInvalid},
		{"negative rate", func(c *Config) {
			c.Providers["yahoo"] = ProviderConfig{RatePerSecond: -1}
		}, core.ErrConfigInvalid},
		{"localfs without path", func(c *Config) { c.Archive.Type = "localfs" }, core.ErrConfigMissing},
		{"s3 without bucket", func(c *Config) { c.Archive.Type = "s3" }, core.ErrConfigMissing},
		{"unknown archive", func(c *Config) { c.Archive.Type = "ftp" }, core.ErrConfigInvalid},
		{"claude without key", func(c *Config) { c.LLM.Provider = "claude" }, core.ErrConfigMissing},
		{"openai with key", func(c *Config) {
			c.LLM.Provider = "openai"
			c.LLM.OpenAI.APIKey = "k"
		}, nil},
		{"unknown llm", func(c *Config) { c.LLM.Provider = "mystery" }, core.ErrConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
