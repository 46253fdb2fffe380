package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names the environment variable pointing at a YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{"config.yaml", "/etc/transfer-engine/config.yaml"}

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig    `koanf:"http"`
	Graph   GraphConfig   `koanf:"graph"`
	Logging LoggingConfig `koanf:"logging"`
	Market  MarketConfig  `koanf:"market"`
	Engine  EngineConfig  `koanf:"engine"`
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	MetricsEnabled  bool          `koanf:"metrics_enabled"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
	RateLimit       int           `koanf:"rate_limit" validate:"min=0"`
	RateWindow      time.Duration `koanf:"rate_window"`
}

// GraphConfig describes connectivity to the Neo4j device registry.
type GraphConfig struct {
	URI            string `koanf:"uri"`
	Database       string `koanf:"database"`
	Username       string `koanf:"username"`
	Password       string `koanf:"password"`
	MaxConnections int    `koanf:"max_connections" validate:"min=1"`
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format        string `koanf:"format" validate:"oneof=json console text"`
	IncludeCaller bool   `koanf:"include_caller"`
}

// MarketConfig selects and tunes the market data source.
type MarketConfig struct {
	Source          string        `koanf:"source" validate:"oneof=simulated http"`
	URL             string        `koanf:"url" validate:"omitempty,url"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	RequestsPerSec  float64       `koanf:"requests_per_sec" validate:"min=0"`
	Burst           int           `koanf:"burst" validate:"min=0"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
	CacheTTL        time.Duration `koanf:"cache_ttl" validate:"min=0"`
}

// EngineConfig tunes the decision engine.
type EngineConfig struct {
	Workers       int `koanf:"workers" validate:"min=1,max=256"`
	IngestWorkers int `koanf:"ingest_workers" validate:"min=1,max=256"`
}

func defaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       100,
			RateWindow:      time.Minute,
		},
		Graph: GraphConfig{
			MaxConnections: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Market: MarketConfig{
			Source:          "simulated",
			Timeout:         3 * time.Second,
			RequestsPerSec:  10,
			Burst:           5,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
			CacheTTL:        5 * time.Minute,
		},
		Engine: EngineConfig{
			Workers:       8,
			IngestWorkers: 4,
		},
	}
}

// envMappings maps environment variables onto koanf paths. Variables not
// listed here are ignored.
var envMappings = map[string]string{
	"server_host":             "http.host",
	"server_port":             "http.port",
	"server_read_timeout":     "http.read_timeout",
	"server_write_timeout":    "http.write_timeout",
	"server_idle_timeout":     "http.idle_timeout",
	"server_shutdown_timeout": "http.shutdown_timeout",
	"server_metrics_enabled":  "http.metrics_enabled",
	"server_allowed_origins":  "http.allowed_origins",
	"server_rate_limit":       "http.rate_limit",
	"server_rate_window":      "http.rate_window",

	"graph_uri":             "graph.uri",
	"graph_database":        "graph.database",
	"graph_username":        "graph.username",
	"graph_password":        "graph.password",
	"graph_max_connections": "graph.max_connections",

	"log_level":          "logging.level",
	"log_format":         "logging.format",
	"log_include_caller": "logging.include_caller",

	"market_source":           "market.source",
	"market_url":              "market.url",
	"market_timeout":          "market.timeout",
	"market_requests_per_sec": "market.requests_per_sec",
	"market_burst":            "market.burst",
	"market_breaker_failures": "market.breaker_failures",
	"market_breaker_timeout":  "market.breaker_timeout",
	"market_cache_ttl":        "market.cache_ttl",

	"engine_workers":        "engine.workers",
	"engine_ingest_workers": "engine.ingest_workers",
}

var sliceConfigPaths = []string{"http.allowed_origins"}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Load layers built-in defaults, an optional YAML file and environment
// variables, in increasing order of precedence, then validates the result.
func Load() (Config, error) {
	return load(findConfigFile())
}

func load(configPath string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if err := splitSliceFields(k); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks field constraints declared in struct tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	if c.Market.Source == "http" && c.Market.URL == "" {
		return errors.New("market.url is required when market.source is http")
	}
	return nil
}

// Address renders host:port for the HTTP listener.
func (h HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// splitSliceFields turns comma-separated environment values into slices.
func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}
