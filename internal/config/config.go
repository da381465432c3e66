package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/address-classifier/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Google    GoogleConfig    `yaml:"google" mapstructure:"google"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Policy    PolicyConfig    `yaml:"policy" mapstructure:"policy"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// GoogleConfig configures the place-lookup provider and the lookup shape.
type GoogleConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RadiusM     int    `yaml:"radius_m" mapstructure:"radius_m"`
	MaxNearby   int    `yaml:"max_nearby" mapstructure:"max_nearby"`
	AltNameScan int    `yaml:"alt_name_scan" mapstructure:"alt_name_scan"`
}

// Timeout returns the per-call timeout.
func (g GoogleConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSecs) * time.Second
}

// AnthropicConfig configures the reasoning service.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Model       string `yaml:"model" mapstructure:"model"`
	MaxTokens   int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the reasoning call timeout.
func (a AnthropicConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// PolicyConfig points at an external decision policy. Empty uses the embedded one.
type PolicyConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// Store drivers.
const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StoreConfig configures the classification history store.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// PoolConfig returns the Postgres pool sizing.
func (s StoreConfig) PoolConfig() *store.PoolConfig {
	return &store.PoolConfig{MaxConns: s.MaxConns, MinConns: s.MinConns}
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// BatchConfig configures the batch command.
type BatchConfig struct {
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
	RPS         float64 `yaml:"rps" mapstructure:"rps"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Mode names what a command needs from the configuration.
type Mode string

const (
	ModeClassify Mode = "classify" // place lookups and reasoning
	ModeContext  Mode = "context"  // place lookups only
	ModeBatch    Mode = "batch"    // classify, many at once
	ModeServe    Mode = "serve"    // classify behind HTTP
	ModeHistory  Mode = "history"  // store only
)

// Validate checks that cfg has what mode needs.
func (c *Config) Validate(mode Mode) error {
	var errs []string

	needPlaces := mode == ModeClassify || mode == ModeContext || mode == ModeBatch || mode == ModeServe
	needReasoning := mode == ModeClassify || mode == ModeBatch || mode == ModeServe

	switch mode {
	case ModeClassify, ModeContext, ModeBatch, ModeServe, ModeHistory:
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if needPlaces && c.Google.Key == "" {
		errs = append(errs, "google.key is required")
	}
	if needReasoning && c.Anthropic.Key == "" {
		errs = append(errs, "anthropic.key is required")
	}
	if needPlaces && (c.Google.RadiusM < 1 || c.Google.RadiusM > 70) {
		errs = append(errs, "google.radius_m must be between 1 and 70")
	}

	switch c.Store.Driver {
	case "", DriverNone:
		if mode == ModeHistory {
			errs = append(errs, "store.driver must be sqlite or postgres")
		}
	case DriverSQLite, DriverPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	default:
		errs = append(errs, "store.driver must be one of none, sqlite, postgres")
	}

	if mode == ModeServe && c.Server.Port <= 0 {
		errs = append(errs, "server.port must be > 0")
	}
	if mode == ModeBatch {
		if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 50 {
			errs = append(errs, "batch.concurrency must be between 1 and 50")
		}
		if c.Batch.RPS < 0 {
			errs = append(errs, "batch.rps must be >= 0")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CLASSIFIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys without a default are invisible to AutomaticEnv on
	// Unmarshal, so secrets get empty defaults.
	v.SetDefault("google.key", "")
	v.SetDefault("google.base_url", "https://maps.googleapis.com/maps/api/place")
	v.SetDefault("google.timeout_secs", 10)
	v.SetDefault("google.radius_m", 50)
	v.SetDefault("google.max_nearby", 25)
	v.SetDefault("google.alt_name_scan", 5)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 512)
	v.SetDefault("anthropic.timeout_secs", 30)
	v.SetDefault("policy.path", "")
	v.SetDefault("store.driver", DriverNone)
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("batch.rps", 5.0)
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
