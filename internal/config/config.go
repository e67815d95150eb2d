// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional on-disk overlay. Every field an environment
// variable can also set; env wins when both are present.
type FileConfig struct {
	LogLevel string `yaml:"logLevel,omitempty"`

	HTTPAddr string `yaml:"httpAddr,omitempty"`

	Storage StorageConfig `yaml:"storage,omitempty"`
	Pools   PoolsConfig   `yaml:"pools,omitempty"`
	Naming  NamingConfig  `yaml:"naming,omitempty"`

	RedisAddr   string `yaml:"redisAddr,omitempty"`
	SessionDB   string `yaml:"sessionDb,omitempty"`
	TracingOn   *bool  `yaml:"tracingEnabled,omitempty"`
	ServiceName string `yaml:"serviceName,omitempty"`
}

// StorageConfig holds the defaults for the storage-client layer.
type StorageConfig struct {
	GateInterval    time.Duration `yaml:"gateInterval,omitempty"`
	CacheTTL        time.Duration `yaml:"cacheTtl,omitempty"`
	CacheCapacity   int           `yaml:"cacheCapacity,omitempty"`
	RateLimitSleep  time.Duration `yaml:"rateLimitSleep,omitempty"`
	MaxRetries      int           `yaml:"maxRetries,omitempty"`
	RetryBaseDelay  time.Duration `yaml:"retryBaseDelay,omitempty"`
	CopyPollMax     time.Duration `yaml:"copyPollMax,omitempty"`
	CopyPollEvery   time.Duration `yaml:"copyPollEvery,omitempty"`
	ConnectTimeout  time.Duration `yaml:"connectTimeout,omitempty"`
	ReadWriteTimeout time.Duration `yaml:"readWriteTimeout,omitempty"`
	MaxConnsPerHost int           `yaml:"maxConnsPerHost,omitempty"`
}

// PoolsConfig holds the materializer's bounded-concurrency pool sizes.
type PoolsConfig struct {
	TargetUploadConcurrency int `yaml:"targetUploadConcurrency,omitempty"`
	RefreshConcurrency      int `yaml:"refreshConcurrency,omitempty"`
}

// NamingConfig holds naming defaults.
type NamingConfig struct {
	DefaultLanguage string `yaml:"defaultLanguage,omitempty"` // "zh" or "en"
}

// Config is the fully-resolved configuration used at runtime.
type Config struct {
	LogLevel string
	HTTPAddr string

	Storage StorageConfig
	Pools   PoolsConfig
	Naming  NamingConfig

	RedisAddr   string
	SessionDB   string
	TracingOn   bool
	ServiceName string
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		LogLevel: "info",
		HTTPAddr: ":8080",
		Storage: StorageConfig{
			GateInterval:     0,
			CacheTTL:         300 * time.Second,
			CacheCapacity:    100,
			RateLimitSleep:   5 * time.Second,
			MaxRetries:       3,
			RetryBaseDelay:   1 * time.Second,
			CopyPollMax:      30 * time.Second,
			CopyPollEvery:    500 * time.Millisecond,
			ConnectTimeout:   10 * time.Second,
			ReadWriteTimeout: 30 * time.Second,
			MaxConnsPerHost:  32,
		},
		Pools: PoolsConfig{
			TargetUploadConcurrency: 16,
			RefreshConcurrency:      4,
		},
		Naming: NamingConfig{
			DefaultLanguage: "zh",
		},
		ServiceName: "strmorg",
	}
}

// Load builds a Config starting from Default(), applying an optional YAML
// file at path (if non-empty and present), then applying environment
// variable overrides — env always wins, file is the base.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.HTTPAddr != "" {
		cfg.HTTPAddr = fc.HTTPAddr
	}
	if fc.Storage.GateInterval > 0 {
		cfg.Storage.GateInterval = fc.Storage.GateInterval
	}
	if fc.Storage.CacheTTL > 0 {
		cfg.Storage.CacheTTL = fc.Storage.CacheTTL
	}
	if fc.Storage.CacheCapacity > 0 {
		cfg.Storage.CacheCapacity = fc.Storage.CacheCapacity
	}
	if fc.Storage.MaxRetries > 0 {
		cfg.Storage.MaxRetries = fc.Storage.MaxRetries
	}
	if fc.Pools.TargetUploadConcurrency > 0 {
		cfg.Pools.TargetUploadConcurrency = fc.Pools.TargetUploadConcurrency
	}
	if fc.Pools.RefreshConcurrency > 0 {
		cfg.Pools.RefreshConcurrency = fc.Pools.RefreshConcurrency
	}
	if fc.Naming.DefaultLanguage != "" {
		cfg.Naming.DefaultLanguage = fc.Naming.DefaultLanguage
	}
	if fc.RedisAddr != "" {
		cfg.RedisAddr = fc.RedisAddr
	}
	if fc.SessionDB != "" {
		cfg.SessionDB = fc.SessionDB
	}
	if fc.TracingOn != nil {
		cfg.TracingOn = *fc.TracingOn
	}
	if fc.ServiceName != "" {
		cfg.ServiceName = fc.ServiceName
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.LogLevel = ParseString("STRMORG_LOG_LEVEL", cfg.LogLevel)
	cfg.HTTPAddr = ParseString("STRMORG_HTTP_ADDR", cfg.HTTPAddr)

	cfg.Storage.GateInterval = ParseDuration("STRMORG_STORAGE_GATE_INTERVAL", cfg.Storage.GateInterval)
	cfg.Storage.CacheTTL = ParseDuration("STRMORG_STORAGE_CACHE_TTL", cfg.Storage.CacheTTL)
	cfg.Storage.CacheCapacity = ParseInt("STRMORG_STORAGE_CACHE_CAPACITY", cfg.Storage.CacheCapacity)
	cfg.Storage.RateLimitSleep = ParseDuration("STRMORG_STORAGE_RATE_LIMIT_SLEEP", cfg.Storage.RateLimitSleep)
	cfg.Storage.MaxRetries = ParseInt("STRMORG_STORAGE_MAX_RETRIES", cfg.Storage.MaxRetries)
	cfg.Storage.RetryBaseDelay = ParseDuration("STRMORG_STORAGE_RETRY_BASE_DELAY", cfg.Storage.RetryBaseDelay)
	cfg.Storage.CopyPollMax = ParseDuration("STRMORG_STORAGE_COPY_POLL_MAX", cfg.Storage.CopyPollMax)
	cfg.Storage.CopyPollEvery = ParseDuration("STRMORG_STORAGE_COPY_POLL_EVERY", cfg.Storage.CopyPollEvery)
	cfg.Storage.MaxConnsPerHost = ParseInt("STRMORG_STORAGE_MAX_CONNS_PER_HOST", cfg.Storage.MaxConnsPerHost)

	cfg.Pools.TargetUploadConcurrency = ParseInt("STRMORG_POOL_TARGET_UPLOAD", cfg.Pools.TargetUploadConcurrency)
	cfg.Pools.RefreshConcurrency = ParseInt("STRMORG_POOL_REFRESH", cfg.Pools.RefreshConcurrency)

	cfg.Naming.DefaultLanguage = ParseString("STRMORG_NAMING_LANGUAGE", cfg.Naming.DefaultLanguage)

	cfg.RedisAddr = ParseString("STRMORG_REDIS_ADDR", cfg.RedisAddr)
	cfg.SessionDB = ParseString("STRMORG_SESSION_DB", cfg.SessionDB)
	cfg.TracingOn = ParseBool("STRMORG_TRACING_ENABLED", cfg.TracingOn)
	cfg.ServiceName = ParseString("STRMORG_SERVICE_NAME", cfg.ServiceName)
}
