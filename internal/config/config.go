package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Reasoning ReasoningConfig `yaml:"reasoning" mapstructure:"reasoning"`
	Capture   CaptureConfig   `yaml:"capture" mapstructure:"capture"`
	Blobstore BlobstoreConfig `yaml:"blobstore" mapstructure:"blobstore"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Critic    CriticConfig    `yaml:"critic" mapstructure:"critic"`
	Queue     QueueConfig     `yaml:"queue" mapstructure:"queue"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the SQLite store backing the cache and job queue.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ReasoningConfig holds reasoning-service (Anthropic) settings.
type ReasoningConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// CaptureConfig holds screenshot-sidecar settings.
type CaptureConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// BlobstoreConfig holds S3-compatible object storage settings.
type BlobstoreConfig struct {
	Endpoint        string `yaml:"endpoint" mapstructure:"endpoint"`
	Region          string `yaml:"region" mapstructure:"region"`
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	AccessKeyID     string `yaml:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" mapstructure:"secret_access_key"`
	PublicBaseURL   string `yaml:"public_base_url" mapstructure:"public_base_url"`
	UsePathStyle    bool   `yaml:"use_path_style" mapstructure:"use_path_style"`
}

// CacheConfig configures the preview cache.
type CacheConfig struct {
	TTLHours int `yaml:"ttl_hours" mapstructure:"ttl_hours"`
	// Version prefixes every cache key; bump it to invalidate all
	// previews after a pipeline behavior change.
	Version string `yaml:"version" mapstructure:"version"`
}

// PipelineConfig configures tier behavior and collector fan-out.
type PipelineConfig struct {
	Tier1TimeoutSecs  int     `yaml:"tier1_timeout_secs" mapstructure:"tier1_timeout_secs"`
	Tier2TimeoutSecs  int     `yaml:"tier2_timeout_secs" mapstructure:"tier2_timeout_secs"`
	Tier3TimeoutSecs  int     `yaml:"tier3_timeout_secs" mapstructure:"tier3_timeout_secs"`
	Tier4TimeoutSecs  int     `yaml:"tier4_timeout_secs" mapstructure:"tier4_timeout_secs"`
	Tier1MinConf      float64 `yaml:"tier1_min_conf" mapstructure:"tier1_min_conf"`
	Tier2MinConf      float64 `yaml:"tier2_min_conf" mapstructure:"tier2_min_conf"`
	Tier3MinConf      float64 `yaml:"tier3_min_conf" mapstructure:"tier3_min_conf"`
	CollectorPoolSize int     `yaml:"collector_pool_size" mapstructure:"collector_pool_size"`
	TierOverridesPath string  `yaml:"tier_overrides_path" mapstructure:"tier_overrides_path"`
}

// CriticConfig configures the critique/improvement loop.
type CriticConfig struct {
	QualityThreshold float64 `yaml:"quality_threshold" mapstructure:"quality_threshold"`
	MaxIterations    int     `yaml:"max_iterations" mapstructure:"max_iterations"`
}

// QueueConfig configures the async job workers.
type QueueConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PREVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "preview.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("queue.workers", 3)
	v.SetDefault("cache.ttl_hours", 48)
	v.SetDefault("cache.version", "v1")
	v.SetDefault("reasoning.model", "claude-haiku-4-5-20251001")
	v.SetDefault("reasoning.max_tokens", 1024)
	v.SetDefault("reasoning.timeout_secs", 45)
	v.SetDefault("reasoning.rate_per_sec", 2.0)
	v.SetDefault("capture.base_url", "http://localhost:3300")
	v.SetDefault("capture.timeout_secs", 30)
	v.SetDefault("pipeline.tier1_timeout_secs", 45)
	v.SetDefault("pipeline.tier2_timeout_secs", 30)
	v.SetDefault("pipeline.tier3_timeout_secs", 15)
	v.SetDefault("pipeline.tier4_timeout_secs", 5)
	v.SetDefault("pipeline.tier1_min_conf", 0.7)
	v.SetDefault("pipeline.tier2_min_conf", 0.5)
	v.SetDefault("pipeline.tier3_min_conf", 0.3)
	v.SetDefault("pipeline.collector_pool_size", 3)
	v.SetDefault("critic.quality_threshold", 0.80)
	v.SetDefault("critic.max_iterations", 2)
	v.SetDefault("blobstore.region", "us-east-1")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
