package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the quarry agent.
type Config struct {
	General    GeneralConfig    `mapstructure:"general"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Search     SearchConfig     `mapstructure:"search"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Pacing     PacingConfig     `mapstructure:"pacing"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug         bool   `mapstructure:"debug"`
	LogLevel      string `mapstructure:"log_level"`
	MaxIterations int    `mapstructure:"max_iterations"`
}

// LLMConfig contains the planning-service (LLM) settings.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // openai, none
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SearchConfig contains web search settings.
type SearchConfig struct {
	Provider         string `mapstructure:"provider"` // duckduckgo, brave, serper
	BraveAPIKey      string `mapstructure:"brave_api_key"`
	SerperAPIKey     string `mapstructure:"serper_api_key"`
	MaxHitsPerQuery  int    `mapstructure:"max_hits_per_query"`
	QueriesPerRound  int    `mapstructure:"queries_per_round"`
	EnhancedPerQuery int    `mapstructure:"enhanced_per_query"`
	DemoFallback     bool   `mapstructure:"demo_fallback"`
}

// FetchConfig contains page fetch settings.
type FetchConfig struct {
	Backend  string        `mapstructure:"backend"` // http, chromedp
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxChars int           `mapstructure:"max_chars"`
}

// PacingConfig controls the courtesy delays between external calls.
// Zero values disable pacing, which is what tests use.
type PacingConfig struct {
	SearchDelayMin time.Duration `mapstructure:"search_delay_min"`
	SearchDelayMax time.Duration `mapstructure:"search_delay_max"`
	FetchDelayMin  time.Duration `mapstructure:"fetch_delay_min"`
	FetchDelayMax  time.Duration `mapstructure:"fetch_delay_max"`
}

// CheckpointConfig contains run snapshot persistence settings.
type CheckpointConfig struct {
	Backend    string      `mapstructure:"backend"` // none, sqlite, redis
	SQLitePath string      `mapstructure:"sqlite_path"`
	Redis      RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// TelemetryConfig contains metrics settings.
type TelemetryConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MetricsPort int  `mapstructure:"metrics_port"`
}

// LoadConfig loads configuration from file and environment variables.
// path may be empty, in which case defaults plus env vars apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("quarry")
		v.SetConfigType("json")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("QUARRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	overrideFromEnv(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("general.debug", false)
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.max_iterations", 5)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.timeout", "30s")

	v.SetDefault("search.provider", "duckduckgo")
	v.SetDefault("search.max_hits_per_query", 5)
	v.SetDefault("search.queries_per_round", 3)
	v.SetDefault("search.enhanced_per_query", 2)
	v.SetDefault("search.demo_fallback", false)

	v.SetDefault("fetch.backend", "http")
	v.SetDefault("fetch.timeout", "15s")
	v.SetDefault("fetch.max_chars", 20000)

	v.SetDefault("pacing.search_delay_min", "2s")
	v.SetDefault("pacing.search_delay_max", "4s")
	v.SetDefault("pacing.fetch_delay_min", "1s")
	v.SetDefault("pacing.fetch_delay_max", "2s")

	v.SetDefault("checkpoint.backend", "none")
	v.SetDefault("checkpoint.sqlite_path", "./quarry.db")
	v.SetDefault("checkpoint.redis.addr", "localhost:6379")
	v.SetDefault("checkpoint.redis.db", 0)
	v.SetDefault("checkpoint.redis.ttl", "168h")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.metrics_port", 9090)
}

// overrideFromEnv overrides configuration with well-known environment variables.
func overrideFromEnv(v *viper.Viper) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		v.Set("llm.api_key", apiKey)
	}
	if apiKey := os.Getenv("BRAVE_SEARCH_KEY"); apiKey != "" {
		v.Set("search.brave_api_key", apiKey)
	}
	if apiKey := os.Getenv("SERPER_API_KEY"); apiKey != "" {
		v.Set("search.serper_api_key", apiKey)
	}
	if host := os.Getenv("REDIS_HOST"); host != "" {
		addr := host
		if port := os.Getenv("REDIS_PORT"); port != "" {
			if _, err := strconv.Atoi(port); err == nil {
				addr = host + ":" + port
			}
		} else {
			addr = host + ":6379"
		}
		v.Set("checkpoint.redis.addr", addr)
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		v.Set("checkpoint.redis.password", password)
	}
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if config.General.MaxIterations <= 0 {
		return fmt.Errorf("general.max_iterations must be positive")
	}
	if config.Search.QueriesPerRound <= 0 {
		return fmt.Errorf("search.queries_per_round must be positive")
	}
	if config.Search.MaxHitsPerQuery <= 0 {
		return fmt.Errorf("search.max_hits_per_query must be positive")
	}
	if config.Search.EnhancedPerQuery <= 0 {
		return fmt.Errorf("search.enhanced_per_query must be positive")
	}
	switch config.Search.Provider {
	case "duckduckgo":
	case "brave":
		if config.Search.BraveAPIKey == "" {
			return fmt.Errorf("search.brave_api_key required for brave provider")
		}
	case "serper":
		if config.Search.SerperAPIKey == "" {
			return fmt.Errorf("search.serper_api_key required for serper provider")
		}
	default:
		return fmt.Errorf("unknown search provider %q", config.Search.Provider)
	}
	switch config.Checkpoint.Backend {
	case "none", "sqlite", "redis":
	default:
		return fmt.Errorf("unknown checkpoint backend %q", config.Checkpoint.Backend)
	}
	if p := config.Pacing; p.SearchDelayMax < p.SearchDelayMin || p.FetchDelayMax < p.FetchDelayMin {
		return fmt.Errorf("pacing delay max must be >= min")
	}
	return nil
}
