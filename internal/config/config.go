package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/impactorviz/impactor-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Raster RasterConfig `yaml:"raster" mapstructure:"raster"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	NeoWs  NeoWsConfig  `yaml:"neows" mapstructure:"neows"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Run    RunConfig    `yaml:"run" mapstructure:"run"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// RasterConfig locates the population raster and describes how to read it.
type RasterConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
	// Proj4 overrides the raster's coordinate system when the file
	// itself does not carry one. Empty means WGS84 lon/lat.
	Proj4    string `yaml:"proj4" mapstructure:"proj4"`
	Variable string `yaml:"variable" mapstructure:"variable"`
}

// StoreConfig configures the run database backend.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// NeoWsConfig holds NASA NeoWs API settings.
type NeoWsConfig struct {
	Key      string  `yaml:"key" mapstructure:"key"`
	BaseURL  string  `yaml:"base_url" mapstructure:"base_url"`
	RateRPS  float64 `yaml:"rate_rps" mapstructure:"rate_rps"`
	MaxPages int     `yaml:"max_pages" mapstructure:"max_pages"`
}

// FetchConfig configures raster downloads.
type FetchConfig struct {
	URL         string `yaml:"url" mapstructure:"url"`
	Dir         string `yaml:"dir" mapstructure:"dir"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retries     int    `yaml:"retries" mapstructure:"retries"`
}

// RunConfig configures scenario batch evaluation.
type RunConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("IMPACTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "impactor.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("run.max_concurrent", 4)
	v.SetDefault("neows.key", "DEMO_KEY")
	v.SetDefault("neows.base_url", "https://api.nasa.gov/neo/rest/v1")
	v.SetDefault("neows.rate_rps", 0.25)
	v.SetDefault("neows.max_pages", 3)
	v.SetDefault("fetch.dir", "data")
	v.SetDefault("fetch.timeout_secs", 120)
	v.SetDefault("fetch.retries", 3)

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

// Validate checks the configuration needed for the given mode. Modes
// map to command families so each command only demands what it uses.
func (c *Config) Validate(mode string) error {
	var problems []string

	requireRaster := func() {
		if c.Raster.Path == "" {
			problems = append(problems, "raster.path is required")
		}
	}
	requireStore := func() {
		switch c.Store.Driver {
		case "sqlite", "postgres":
			if c.Store.DatabaseURL == "" {
				problems = append(problems, "store.database_url is required")
			}
		default:
			problems = append(problems, "store.driver must be sqlite or postgres")
		}
	}

	switch mode {
	case "exposure":
		requireRaster()
	case "scenario":
		requireRaster()
		requireStore()
		if c.Run.MaxConcurrent < 1 || c.Run.MaxConcurrent > 64 {
			problems = append(problems, "run.max_concurrent must be between 1 and 64")
		}
	case "runs":
		requireStore()
	case "neo":
		if c.NeoWs.Key == "" {
			problems = append(problems, "neows.key is required")
		}
	case "fetch":
		if c.Fetch.URL == "" {
			problems = append(problems, "fetch.url is required")
		}
	case "serve":
		requireRaster()
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
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
