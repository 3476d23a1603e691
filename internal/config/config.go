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
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Ingest IngestConfig `yaml:"ingest" mapstructure:"ingest"`
	Join   JoinConfig   `yaml:"join" mapstructure:"join"`
	Render RenderConfig `yaml:"render" mapstructure:"render"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// IngestConfig configures input locations and the output package directory.
type IngestConfig struct {
	ListingsPath      string `yaml:"listings_path" mapstructure:"listings_path"`
	NeighborhoodsPath string `yaml:"neighborhoods_path" mapstructure:"neighborhoods_path"`
	OutDir            string `yaml:"out_dir" mapstructure:"out_dir"`
}

// JoinConfig configures the spatial join and aggregation phase.
type JoinConfig struct {
	FillPolicy string `yaml:"fill_policy" mapstructure:"fill_policy"` // "mean" or "zero"
}

// RenderConfig configures choropleth output.
type RenderConfig struct {
	Width   int    `yaml:"width" mapstructure:"width"`
	Classes int    `yaml:"classes" mapstructure:"classes"`
	Palette string `yaml:"palette" mapstructure:"palette"`
	Title   string `yaml:"title" mapstructure:"title"`
}

// ServerConfig configures the HTTP read surface.
type ServerConfig struct {
	Port      int     `yaml:"port" mapstructure:"port"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second, 0 = unlimited
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
	v.SetEnvPrefix("GEOATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "geoatlas.db")
	v.SetDefault("ingest.listings_path", "data/listings.csv.gz")
	v.SetDefault("ingest.neighborhoods_path", "data/neighborhoods.csv")
	v.SetDefault("ingest.out_dir", "out")
	v.SetDefault("join.fill_policy", "mean")
	v.SetDefault("render.width", 960)
	v.SetDefault("render.classes", 5)
	v.SetDefault("render.palette", "ylorrd")
	v.SetDefault("render.title", "Median listing price by neighborhood")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 20)
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

	if cfg.Join.FillPolicy != "mean" && cfg.Join.FillPolicy != "zero" {
		return nil, eris.Errorf("config: unknown fill policy %q", cfg.Join.FillPolicy)
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
