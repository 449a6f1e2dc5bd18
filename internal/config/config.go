package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/investigo/internal/logger"
)

// Config holds the investigo configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	SearchAPI SearchAPIConfig `yaml:"search_api"`
	Engine    EngineConfig    `yaml:"engine"`
	Cache     CacheConfig     `yaml:"cache"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// SearchAPIConfig holds the record search backend settings.
type SearchAPIConfig struct {
	BaseURL          string  `yaml:"base_url"`
	Token            string  `yaml:"token"`
	TimeoutSec       int     `yaml:"timeout_sec"`
	RateLimit        float64 `yaml:"rate_limit"` // requests per second, 0 = unlimited
	Burst            int     `yaml:"burst"`
	MaxRetries       int     `yaml:"max_retries"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms"`
}

// EngineConfig tunes the fetch and cross-reference pipeline.
type EngineConfig struct {
	Concurrency               int            `yaml:"concurrency"`
	EarlyTerminationThreshold int            `yaml:"early_termination_threshold"`
	DisableEarlyTermination   bool           `yaml:"disable_early_termination"`
	PageSize                  int            `yaml:"page_size"`
	PageTimeoutSec            int            `yaml:"page_timeout_sec"`
	PageCaps                  map[string]int `yaml:"page_caps"` // keyed P1..P5
	StrictFilters             bool           `yaml:"strict_filters"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	Capacity int            `yaml:"capacity"`
	TTLs     map[string]int `yaml:"ttl_minutes"` // keyed by criterion type
	Redis    RedisConfig    `yaml:"redis"`
}

// RedisConfig holds the optional shared cache tier.
type RedisConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// AnalysisConfig holds the optional analysis backend settings.
type AnalysisConfig struct {
	Provider    string        `yaml:"provider"` // "", openai, anthropic
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float32       `yaml:"temperature"`
	TimeoutSec  int           `yaml:"timeout_sec"`
	SampleSize  int           `yaml:"sample_size"`
	TopNodes    int           `yaml:"top_nodes"`
	Breaker     BreakerConfig `yaml:"breaker"`
}

// BreakerConfig holds circuit breaker settings for the analysis backend.
type BreakerConfig struct {
	MaxRequests  uint32  `yaml:"max_requests"`
	IntervalSec  int     `yaml:"interval_sec"`
	TimeoutSec   int     `yaml:"timeout_sec"`
	MinRequests  uint32  `yaml:"min_requests"`
	FailureRatio float64 `yaml:"failure_ratio"`
}

// Enabled reports whether an analysis provider is configured.
func (a AnalysisConfig) Enabled() bool {
	return a.Provider != ""
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// a search can take many paginated backend calls plus analysis
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.SearchAPI.TimeoutSec <= 0 {
		c.SearchAPI.TimeoutSec = 20
	}
	if c.SearchAPI.MaxRetries < 0 {
		c.SearchAPI.MaxRetries = 0
	}
	if c.SearchAPI.InitialBackoffMs <= 0 {
		c.SearchAPI.InitialBackoffMs = 250
	}
	if c.SearchAPI.MaxBackoffMs <= 0 {
		c.SearchAPI.MaxBackoffMs = 5000
	}

	if c.Engine.Concurrency <= 0 {
		c.Engine.Concurrency = 5
	}
	if c.Engine.EarlyTerminationThreshold <= 0 {
		c.Engine.EarlyTerminationThreshold = 3
	}
	if c.Engine.PageSize <= 0 {
		c.Engine.PageSize = 50
	}
	if c.Engine.PageTimeoutSec <= 0 {
		c.Engine.PageTimeoutSec = 20
	}

	if c.Cache.Capacity == 0 {
		c.Cache.Capacity = 500
	}
	if c.Cache.Redis.ReadinessTimeout <= 0 {
		c.Cache.Redis.ReadinessTimeout = 10
	}

	if c.Analysis.MaxTokens <= 0 {
		c.Analysis.MaxTokens = 1024
	}
	if c.Analysis.TimeoutSec <= 0 {
		c.Analysis.TimeoutSec = 30
	}
	if c.Analysis.SampleSize <= 0 {
		c.Analysis.SampleSize = 10
	}
	if c.Analysis.TopNodes <= 0 {
		c.Analysis.TopNodes = 10
	}
	b := &c.Analysis.Breaker
	if b.MaxRequests == 0 {
		b.MaxRequests = 1
	}
	if b.IntervalSec <= 0 {
		b.IntervalSec = 60
	}
	if b.TimeoutSec <= 0 {
		b.TimeoutSec = 30
	}
	if b.MinRequests == 0 {
		b.MinRequests = 3
	}
	if b.FailureRatio <= 0 {
		b.FailureRatio = 0.6
	}
}

var (
	priorityKey = regexp.MustCompile(`^P[1-5]$`)
	cacheTypes  = map[string]bool{
		"phone": true, "email": true, "government_id": true, "account": true,
		"name": true, "company": true, "location": true, "keyword": true,
	}
)

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Logging.Level != "" {
		if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("logging.level: %w", err)
		}
	}
	if c.SearchAPI.BaseURL == "" {
		return fmt.Errorf("search_api.base_url is required")
	}
	if c.SearchAPI.RateLimit < 0 {
		return fmt.Errorf("search_api.rate_limit must not be negative, got %g", c.SearchAPI.RateLimit)
	}
	for k, v := range c.Engine.PageCaps {
		if !priorityKey.MatchString(k) {
			return fmt.Errorf("engine.page_caps: unknown priority %q (want P1..P5)", k)
		}
		if v < 0 {
			return fmt.Errorf("engine.page_caps.%s must not be negative, got %d", k, v)
		}
	}
	if c.Cache.Capacity < 0 {
		return fmt.Errorf("cache.capacity must not be negative, got %d", c.Cache.Capacity)
	}
	for k, v := range c.Cache.TTLs {
		if !cacheTypes[k] {
			return fmt.Errorf("cache.ttl_minutes: unknown criterion type %q", k)
		}
		if v < 0 {
			return fmt.Errorf("cache.ttl_minutes.%s must not be negative, got %d", k, v)
		}
	}
	if c.Cache.Redis.Enabled && len(c.Cache.Redis.Addrs) == 0 {
		return fmt.Errorf("cache.redis.addrs is required when redis is enabled")
	}

	switch c.Analysis.Provider {
	case "":
		// rule-based insights only
	case "openai", "anthropic":
		if c.Analysis.Model == "" {
			return fmt.Errorf("analysis.model is required for provider %q", c.Analysis.Provider)
		}
	default:
		return fmt.Errorf("analysis.provider must be \"openai\" or \"anthropic\", got %q", c.Analysis.Provider)
	}
	if r := c.Analysis.Breaker.FailureRatio; r > 1 {
		return fmt.Errorf("analysis.breaker.failure_ratio must be in (0, 1], got %g", r)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
