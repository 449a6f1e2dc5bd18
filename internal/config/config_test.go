package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		SearchAPI: SearchAPIConfig{BaseURL: "http://localhost:9000"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"invalid port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"unknown log level", func(c *Config) { c.Logging.Level = "chatty" }, "logging.level"},
		{"missing base url", func(c *Config) { c.SearchAPI.BaseURL = "" }, "search_api.base_url"},
		{"negative rate limit", func(c *Config) { c.SearchAPI.RateLimit = -1 }, "search_api.rate_limit"},
		{"unknown priority", func(c *Config) { c.Engine.PageCaps = map[string]int{"P9": 1} }, "unknown priority"},
		{"negative page cap", func(c *Config) { c.Engine.PageCaps = map[string]int{"P2": -1} }, "engine.page_caps.P2"},
		{"unknown ttl type", func(c *Config) { c.Cache.TTLs = map[string]int{"vin": 5} }, "unknown criterion type"},
		{"redis without addrs", func(c *Config) { c.Cache.Redis.Enabled = true }, "cache.redis.addrs"},
		{"unknown provider", func(c *Config) { c.Analysis.Provider = "gemini" }, "analysis.provider"},
		{"provider without model", func(c *Config) { c.Analysis.Provider = "anthropic" }, "analysis.model"},
		{"failure ratio above one", func(c *Config) { c.Analysis.Breaker.FailureRatio = 1.5 }, "failure_ratio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.SearchAPI.TimeoutSec != 20 {
		t.Errorf("expected TimeoutSec=20, got %d", cfg.SearchAPI.TimeoutSec)
	}
	if cfg.Engine.Concurrency != 5 {
		t.Errorf("expected Concurrency=5, got %d", cfg.Engine.Concurrency)
	}
	if cfg.Engine.EarlyTerminationThreshold != 3 {
		t.Errorf("expected EarlyTerminationThreshold=3, got %d", cfg.Engine.EarlyTerminationThreshold)
	}
	if cfg.Engine.PageTimeoutSec != 20 {
		t.Errorf("expected PageTimeoutSec=20, got %d", cfg.Engine.PageTimeoutSec)
	}
	if cfg.Cache.Capacity != 500 {
		t.Errorf("expected Capacity=500, got %d", cfg.Cache.Capacity)
	}
	if cfg.Analysis.TimeoutSec != 30 {
		t.Errorf("expected analysis TimeoutSec=30, got %d", cfg.Analysis.TimeoutSec)
	}
	if cfg.Analysis.Breaker.FailureRatio != 0.6 {
		t.Errorf("expected FailureRatio=0.6, got %g", cfg.Analysis.Breaker.FailureRatio)
	}
	if cfg.Analysis.Enabled() {
		t.Error("analysis enabled without a provider")
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{Port: 9090, ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Engine: EngineConfig{Concurrency: 2, PageSize: 25},
		Cache:  CacheConfig{Capacity: 50},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected Port=9090, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Engine.Concurrency != 2 || cfg.Engine.PageSize != 25 {
		t.Errorf("engine overridden: %+v", cfg.Engine)
	}
	if cfg.Cache.Capacity != 50 {
		t.Errorf("expected Capacity=50, got %d", cfg.Cache.Capacity)
	}
}

func TestLoadFile_ExpandsEnv(t *testing.T) {
	t.Setenv("INVESTIGO_TEST_TOKEN", "s3cret")

	path := filepath.Join(t.TempDir(), "test.yaml")
	yaml := `
search_api:
  base_url: ${INVESTIGO_TEST_URL:-http://backend:9000}
  token: ${INVESTIGO_TEST_TOKEN}
engine:
  page_caps:
    P1: 4
analysis:
  provider: openai
  model: gpt-4o-mini
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.SearchAPI.BaseURL != "http://backend:9000" {
		t.Errorf("base_url = %q", cfg.SearchAPI.BaseURL)
	}
	if cfg.SearchAPI.Token != "s3cret" {
		t.Errorf("token = %q", cfg.SearchAPI.Token)
	}
	if cfg.Engine.PageCaps["P1"] != 4 {
		t.Errorf("page_caps = %v", cfg.Engine.PageCaps)
	}
	if !cfg.Analysis.Enabled() {
		t.Error("analysis should be enabled")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("INVESTIGO_SET", "value")

	got := string(expandEnvVars([]byte("a=${INVESTIGO_SET} b=${INVESTIGO_UNSET:-fallback} c=${INVESTIGO_UNSET}")))
	if got != "a=value b=fallback c=" {
		t.Errorf("expandEnvVars = %q", got)
	}
}
