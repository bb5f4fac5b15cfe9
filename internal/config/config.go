package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/registry-etl/internal/extract"
)

// Config holds the full application configuration.
type Config struct {
	Registry RegistryConfig `yaml:"registry" mapstructure:"registry"`
	Enrich   EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Match    MatchConfig    `yaml:"match" mapstructure:"match"`
	Classify ClassifyConfig `yaml:"classify" mapstructure:"classify"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// RegistryConfig configures the extraction phase.
type RegistryConfig struct {
	TargetCompanies int              `yaml:"target_companies" mapstructure:"target_companies"`
	DataGovBase     string           `yaml:"datagov_base" mapstructure:"datagov_base"`
	PageSize        int              `yaml:"page_size" mapstructure:"page_size"`
	WorkDir         string           `yaml:"work_dir" mapstructure:"work_dir"`
	Sources         []extract.Source `yaml:"sources" mapstructure:"sources"`
}

// EnrichConfig configures the website enrichment phase.
type EnrichConfig struct {
	Enabled           bool    `yaml:"enabled" mapstructure:"enabled"`
	Workers           int     `yaml:"workers" mapstructure:"workers"`
	BatchSize         int     `yaml:"batch_size" mapstructure:"batch_size"`
	MaxRecords        int     `yaml:"max_records" mapstructure:"max_records"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	DelayMillis       int     `yaml:"delay_millis" mapstructure:"delay_millis"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// MatchConfig configures entity resolution.
type MatchConfig struct {
	Threshold    float64 `yaml:"threshold" mapstructure:"threshold"`
	DisableFuzzy bool    `yaml:"disable_fuzzy" mapstructure:"disable_fuzzy"`
}

// ClassifyConfig configures industry classification.
type ClassifyConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the webhook server.
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
	v.SetEnvPrefix("SGETL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("registry.target_companies", 10000)
	v.SetDefault("registry.datagov_base", "https://data.gov.sg")
	v.SetDefault("registry.page_size", 100)
	v.SetDefault("registry.work_dir", "/tmp/registry-etl")
	v.SetDefault("enrich.enabled", true)
	v.SetDefault("enrich.workers", 4)
	v.SetDefault("enrich.batch_size", 100)
	v.SetDefault("enrich.max_records", 200)
	v.SetDefault("enrich.timeout_secs", 60)
	v.SetDefault("enrich.delay_millis", 500)
	v.SetDefault("enrich.requests_per_second", 2)
	v.SetDefault("enrich.user_agent", "registry-etl/1.0")
	v.SetDefault("match.threshold", 85)
	v.SetDefault("classify.enabled", false)
	v.SetDefault("classify.model", "claude-haiku-4-5-20251001")
	v.SetDefault("classify.max_tokens", 64)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "registry.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
