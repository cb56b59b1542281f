package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Scraper    ScraperConfig    `yaml:"scraper" mapstructure:"scraper"`
	Reputation ReputationConfig `yaml:"reputation" mapstructure:"reputation"`
	Commission CommissionConfig `yaml:"commission" mapstructure:"commission"`
	Candidates CandidatesConfig `yaml:"candidates" mapstructure:"candidates"`
	Lookup     LookupConfig     `yaml:"lookup" mapstructure:"lookup"`
	Ranking    RankingConfig    `yaml:"ranking" mapstructure:"ranking"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ScraperConfig configures the product scraper service.
type ScraperConfig struct {
	PrimaryURL  string `yaml:"primary_url" mapstructure:"primary_url"`
	FallbackURL string `yaml:"fallback_url" mapstructure:"fallback_url"`
}

// ReputationConfig configures merchant reputation aggregators.
type ReputationConfig struct {
	PrimaryURL   string `yaml:"primary_url" mapstructure:"primary_url"`
	SecondaryURL string `yaml:"secondary_url" mapstructure:"secondary_url"`
}

// CommissionConfig configures the affiliate program terms database.
type CommissionConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// CandidatesConfig configures the alternative candidate feed.
type CandidatesConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Limit   int    `yaml:"limit" mapstructure:"limit"`
}

// LookupConfig configures shared HTTP lookup behavior.
type LookupConfig struct {
	UserAgent     string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries    int    `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSecond int    `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst     int    `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// Timeout returns the lookup timeout as a duration.
func (l LookupConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSecs) * time.Second
}

// RankingConfig configures alternative ranking.
type RankingConfig struct {
	// WeightsFile optionally overrides the compiled-in mode weight
	// tables with a YAML file.
	WeightsFile string `yaml:"weights_file" mapstructure:"weights_file"`
	BucketSize  int    `yaml:"bucket_size" mapstructure:"bucket_size"`
}

// PipelineConfig configures analysis behavior.
type PipelineConfig struct {
	AnalyzeTimeoutSecs int `yaml:"analyze_timeout_secs" mapstructure:"analyze_timeout_secs"`
}

// ServerConfig configures the HTTP API server.
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
	v.SetEnvPrefix("VERIFIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "verifier.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("lookup.user_agent", "verifier/1.0")
	v.SetDefault("lookup.timeout_secs", 30)
	v.SetDefault("lookup.max_retries", 3)
	v.SetDefault("lookup.rate_per_second", 10)
	v.SetDefault("lookup.rate_burst", 10)
	v.SetDefault("candidates.limit", 40)
	v.SetDefault("ranking.bucket_size", 3)
	v.SetDefault("pipeline.analyze_timeout_secs", 120)

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
