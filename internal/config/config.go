// Package config loads application configuration from config.yaml and the
// environment, and wires the global logger.
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
	Reduce ReduceConfig `yaml:"reduce" mapstructure:"reduce"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// ReduceConfig configures the dataset reduction pipeline.
type ReduceConfig struct {
	Sources        []string `yaml:"sources" mapstructure:"sources"`
	OutDir         string   `yaml:"out_dir" mapstructure:"out_dir"`
	CutoffDate     string   `yaml:"cutoff_date" mapstructure:"cutoff_date"`
	SampleQuantile float64  `yaml:"sample_quantile" mapstructure:"sample_quantile"`
	Seed           int64    `yaml:"seed" mapstructure:"seed"`
}

// Cutoff parses the configured cutoff date. An empty value disables the
// end-date filter and the store's default floor.
func (c ReduceConfig) Cutoff() (time.Time, error) {
	if c.CutoffDate == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", c.CutoffDate)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "config: parse cutoff_date %q", c.CutoffDate)
	}
	return t.UTC(), nil
}

// StoreConfig configures the query store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the dashboard API server.
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
	v.SetEnvPrefix("CONTRACTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key needs one, even if zero-valued: AutomaticEnv only
	// surfaces env vars for keys viper already knows about.
	v.SetDefault("reduce.sources", []string(nil))
	v.SetDefault("reduce.out_dir", ".")
	v.SetDefault("reduce.cutoff_date", "2025-02-01")
	v.SetDefault("reduce.sample_quantile", 0.8)
	v.SetDefault("reduce.seed", 0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "contracts.db")
	v.SetDefault("store.database_url", "")
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
