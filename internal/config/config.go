package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Aggregator AggregatorConfig `mapstructure:"aggregator"`
	TMDB       TMDBConfig       `mapstructure:"tmdb"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Discovery  DiscoveryConfig  `mapstructure:"discovery"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// AggregatorConfig holds settings for the backend aggregation API.
type AggregatorConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

// TMDBConfig holds settings for the direct TMDB client, used for the
// Popular fallback and similar-movie lookups.
type TMDBConfig struct {
	APIKey       string  `mapstructure:"api_key"`
	BaseURL      string  `mapstructure:"base_url"`
	ImageBaseURL string  `mapstructure:"image_base_url"`
	Language     string  `mapstructure:"language"`
	Region       string  `mapstructure:"region"`
	Timeout      int     `mapstructure:"timeout"`             // seconds
	RequestsPerS float64 `mapstructure:"requests_per_second"` // rate limit
	Burst        int     `mapstructure:"requests_burst"`      // rate limit burst
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Path   string `mapstructure:"path"`
}

// DiscoveryConfig holds the tunables of the discovery engine.
type DiscoveryConfig struct {
	MinBatch          int `mapstructure:"min_batch"`           // minimum items per backfill batch
	GuardLimit        int `mapstructure:"guard_limit"`         // max backfill iterations
	RecommendLimit    int `mapstructure:"recommend_limit"`     // ranked recommendation cap
	CacheTTLMinutes   int `mapstructure:"cache_ttl_minutes"`   // popular/similar cache TTL
	SessionTTLMinutes int `mapstructure:"session_ttl_minutes"` // idle session eviction
}

// Default returns a Config with default values.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.cinescout")
	}

	v.SetEnvPrefix("CINESCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Build-time embedded key as a last resort
	if cfg.TMDB.APIKey == "" {
		cfg.TMDB.APIKey = EmbeddedTMDBKey
	}

	return cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("aggregator.base_url", "http://127.0.0.1:8000/api")
	v.SetDefault("aggregator.timeout", 10)

	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.image_base_url", "https://image.tmdb.org/t/p")
	v.SetDefault("tmdb.language", "ko-KR")
	v.SetDefault("tmdb.region", "KR")
	v.SetDefault("tmdb.timeout", 10)
	v.SetDefault("tmdb.requests_per_second", 4.0)
	v.SetDefault("tmdb.requests_burst", 8)

	v.SetDefault("database.path", "./data/cinescout.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.path", "")

	v.SetDefault("discovery.min_batch", 4)
	v.SetDefault("discovery.guard_limit", 6)
	v.SetDefault("discovery.recommend_limit", 40)
	v.SetDefault("discovery.cache_ttl_minutes", 30)
	v.SetDefault("discovery.session_ttl_minutes", 60)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
