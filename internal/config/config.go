// Package config loads the gateway configuration from a YAML file and
// applies environment overrides on top. A missing file is not an error;
// the service runs on defaults plus environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    string `yaml:"port"`
	Prefork bool   `yaml:"prefork"`
	// Dev skips signal handling so Ctrl-C kills the process immediately
	// during local iteration.
	Dev bool `yaml:"dev"`
}

type LoggerConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// RateLimitConfig drives the chart-path limiter. PerMinute 0 disables
// limiting entirely. Keys are privileged bypass keys baked into the
// config; PostgresDSN optionally adds a reloadable key table on top.
type RateLimitConfig struct {
	PerMinute      int           `yaml:"per_minute"`
	Keys           []string      `yaml:"keys"`
	PostgresDSN    string        `yaml:"postgres_dsn"`
	KeyReloadEvery time.Duration `yaml:"-"`
}

type CacheConfig struct {
	ChartCacheEnabled bool          `yaml:"chart_cache_enabled"`
	ChartCacheTTL     time.Duration `yaml:"-"`
	RedisHost         string        `yaml:"redis_host"`
	RedisRateDB       int           `yaml:"redis_rate_db"`
	RedisChartDB      int           `yaml:"redis_chart_db"`
}

type ChartConfig struct {
	ScriptURL       string `yaml:"script_url"`
	ChromePath      string `yaml:"chrome_path"`
	ChromeNoSandbox bool   `yaml:"chrome_no_sandbox"`
	ChromePoolSize  int    `yaml:"chrome_pool_size"`
	UserDataDir     string `yaml:"user_data_dir"`
	TimeoutSecs     int    `yaml:"timeout_secs"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logger    LoggerConfig    `yaml:"logger"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache"`
	Chart     ChartConfig     `yaml:"chart"`
}

// Durations arrive as strings ("1m", "30s") and go through
// time.ParseDuration, which yaml cannot do on its own.

func (r *RateLimitConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		PerMinute      int      `yaml:"per_minute"`
		Keys           []string `yaml:"keys"`
		PostgresDSN    string   `yaml:"postgres_dsn"`
		KeyReloadEvery string   `yaml:"key_reload_every"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	r.PerMinute = raw.PerMinute
	r.Keys = raw.Keys
	r.PostgresDSN = raw.PostgresDSN
	if raw.KeyReloadEvery != "" {
		d, err := time.ParseDuration(raw.KeyReloadEvery)
		if err != nil {
			return fmt.Errorf("rate_limit.key_reload_every: %w", err)
		}
		r.KeyReloadEvery = d
	}
	return nil
}

func (c *CacheConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		ChartCacheEnabled bool   `yaml:"chart_cache_enabled"`
		ChartCacheTTL     string `yaml:"chart_cache_ttl"`
		RedisHost         string `yaml:"redis_host"`
		RedisRateDB       int    `yaml:"redis_rate_db"`
		RedisChartDB      int    `yaml:"redis_chart_db"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	c.ChartCacheEnabled = raw.ChartCacheEnabled
	c.RedisHost = raw.RedisHost
	c.RedisRateDB = raw.RedisRateDB
	c.RedisChartDB = raw.RedisChartDB
	if raw.ChartCacheTTL != "" {
		d, err := time.ParseDuration(raw.ChartCacheTTL)
		if err != nil {
			return fmt.Errorf("cache.chart_cache_ttl: %w", err)
		}
		c.ChartCacheTTL = d
	}
	return nil
}

// LoadFrom reads and validates the file at path. Invalid configuration is
// a programming or deployment error, so it panics rather than limping on.
func LoadFrom(path string) Config {
	b, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("config: read %s: %v", path, err))
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		panic(fmt.Sprintf("config: parse %s: %v", path, err))
	}
	cfg.applyDefaults()
	cfg.validate()
	return cfg
}

// Load resolves the config path from CONFIG_PATH (default config.yaml),
// falls back to pure defaults when no file exists, then applies
// environment overrides: PORT and RATE_LIMIT_PER_MIN.
func Load() Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	var cfg Config
	if _, err := os.Stat(path); err == nil {
		cfg = LoadFrom(path)
	} else {
		cfg.applyDefaults()
	}
	cfg.applyEnv()
	cfg.validate()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = ":3400"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.MaxSizeMB == 0 {
		c.Logger.MaxSizeMB = 10
	}
	if c.Logger.MaxBackups == 0 {
		c.Logger.MaxBackups = 3
	}
	if c.Logger.MaxAgeDays == 0 {
		c.Logger.MaxAgeDays = 28
	}
	if c.RateLimit.KeyReloadEvery == 0 {
		c.RateLimit.KeyReloadEvery = time.Minute
	}
	if c.Cache.ChartCacheTTL == 0 {
		c.Cache.ChartCacheTTL = time.Minute
	}
	if c.Chart.ScriptURL == "" {
		c.Chart.ScriptURL = "https://cdn.jsdelivr.net/npm/chart.js@2.9.4/dist/Chart.min.js"
	}
	if c.Chart.TimeoutSecs == 0 {
		c.Chart.TimeoutSecs = 30
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			c.Server.Port = ":" + v
		}
	}
	if v := os.Getenv("RATE_LIMIT_PER_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateLimit.PerMinute = n
		}
	}
}

func (c *Config) validate() {
	if c.RateLimit.PerMinute < 0 {
		panic(fmt.Sprintf("config: rate_limit.per_minute must not be negative, got %d", c.RateLimit.PerMinute))
	}
	if c.RateLimit.KeyReloadEvery <= 0 {
		panic(fmt.Sprintf("config: rate_limit.key_reload_every must be positive, got %s", c.RateLimit.KeyReloadEvery))
	}
	if c.Cache.ChartCacheTTL <= 0 {
		panic(fmt.Sprintf("config: cache.chart_cache_ttl must be positive, got %s", c.Cache.ChartCacheTTL))
	}
	if c.Chart.ChromePoolSize < 0 {
		panic(fmt.Sprintf("config: chart.chrome_pool_size must not be negative, got %d", c.Chart.ChromePoolSize))
	}
	if c.Chart.TimeoutSecs <= 0 {
		panic(fmt.Sprintf("config: chart.timeout_secs must be positive, got %d", c.Chart.TimeoutSecs))
	}
}
