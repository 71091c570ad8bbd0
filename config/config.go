package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds comparator configuration.
type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	Fetch   FetchConfig    `mapstructure:"fetch"`
	Extract ExtractConfig  `mapstructure:"extract"`
	Results ResultsConfig  `mapstructure:"results"`
	Sources []SourceConfig `mapstructure:"sources"`
	Verbose bool           `mapstructure:"verbose"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// FetchConfig bounds outbound traffic to the sources.
type FetchConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxPerHost     int           `mapstructure:"max_per_host"`
	RatePerSecond  float64       `mapstructure:"rate_per_second"`
	RateBurst      int           `mapstructure:"rate_burst"`
	UserAgent      string        `mapstructure:"user_agent"`
	CacheSize      int           `mapstructure:"cache_size"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
}

// ExtractConfig holds the per-source extraction limits.
type ExtractConfig struct {
	PrimaryMax       int      `mapstructure:"primary_max"`
	FallbackMax      int      `mapstructure:"fallback_max"`
	FallbackMinPrice float64  `mapstructure:"fallback_min_price"`
	FallbackHints    []string `mapstructure:"fallback_hints"`
	AncestorDepth    int      `mapstructure:"ancestor_depth"`
	StockStatus      string   `mapstructure:"stock_status"`
}

// ResultsConfig controls how empty comparisons are reported.
type ResultsConfig struct {
	PlaceholderOnEmpty bool `mapstructure:"placeholder_on_empty"`
}

// DefaultConfig returns defaults matching the stock deployment.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "5000",
			Environment:    "development",
			AllowedOrigins: []string{"*"},
		},
		Fetch: FetchConfig{
			Timeout:        30 * time.Second,
			MaxConnections: 10,
			MaxPerHost:     2,
			RatePerSecond:  2,
			RateBurst:      4,
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			CacheSize:      128,
			CacheTTL:       30 * time.Second,
		},
		Extract: ExtractConfig{
			PrimaryMax:       5,
			FallbackMax:      3,
			FallbackMinPrice: 10,
			FallbackHints:    []string{"price", "cost", "amount"},
			AncestorDepth:    3,
			StockStatus:      "In Stock",
		},
		Results: ResultsConfig{
			PlaceholderOnEmpty: false,
		},
		Sources: DefaultSources(),
	}
}

// Load reads configuration from defaults, an optional YAML file and
// PRICECOMPARE_* environment variables, in increasing precedence.
// An empty path searches the standard locations for config.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/pricecompare/")
	}

	v.SetEnvPrefix("PRICECOMPARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("verbose", d.Verbose)

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.environment", d.Server.Environment)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)

	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.max_connections", d.Fetch.MaxConnections)
	v.SetDefault("fetch.max_per_host", d.Fetch.MaxPerHost)
	v.SetDefault("fetch.rate_per_second", d.Fetch.RatePerSecond)
	v.SetDefault("fetch.rate_burst", d.Fetch.RateBurst)
	v.SetDefault("fetch.user_agent", d.Fetch.UserAgent)
	v.SetDefault("fetch.cache_size", d.Fetch.CacheSize)
	v.SetDefault("fetch.cache_ttl", d.Fetch.CacheTTL)

	v.SetDefault("extract.primary_max", d.Extract.PrimaryMax)
	v.SetDefault("extract.fallback_max", d.Extract.FallbackMax)
	v.SetDefault("extract.fallback_min_price", d.Extract.FallbackMinPrice)
	v.SetDefault("extract.fallback_hints", d.Extract.FallbackHints)
	v.SetDefault("extract.ancestor_depth", d.Extract.AncestorDepth)
	v.SetDefault("extract.stock_status", d.Extract.StockStatus)

	v.SetDefault("results.placeholder_on_empty", d.Results.PlaceholderOnEmpty)

	sources := make([]map[string]interface{}, 0, len(d.Sources))
	for _, src := range d.Sources {
		sources = append(sources, src.asMap())
	}
	v.SetDefault("sources", sources)
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Port) == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.Fetch.MaxConnections <= 0 {
		return fmt.Errorf("max connections must be positive")
	}
	if c.Fetch.MaxPerHost <= 0 {
		return fmt.Errorf("max per host must be positive")
	}
	if c.Fetch.MaxPerHost > c.Fetch.MaxConnections {
		return fmt.Errorf("max per host (%d) cannot exceed max connections (%d)", c.Fetch.MaxPerHost, c.Fetch.MaxConnections)
	}
	if c.Fetch.RatePerSecond < 0 {
		return fmt.Errorf("rate per second cannot be negative")
	}
	if c.Fetch.RatePerSecond > 0 && c.Fetch.RateBurst <= 0 {
		return fmt.Errorf("rate burst must be positive when rate limiting is enabled")
	}
	if c.Fetch.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.Fetch.CacheSize < 0 {
		return fmt.Errorf("cache size cannot be negative")
	}
	if c.Fetch.CacheSize > 0 && c.Fetch.CacheTTL <= 0 {
		return fmt.Errorf("cache ttl must be positive when the cache is enabled")
	}
	if c.Extract.PrimaryMax <= 0 {
		return fmt.Errorf("primary max must be positive")
	}
	if c.Extract.FallbackMax <= 0 {
		return fmt.Errorf("fallback max must be positive")
	}
	if c.Extract.FallbackMinPrice < 0 {
		return fmt.Errorf("fallback min price cannot be negative")
	}
	if len(c.Extract.FallbackHints) == 0 {
		return fmt.Errorf("fallback hints cannot be empty")
	}
	if c.Extract.AncestorDepth < 0 {
		return fmt.Errorf("ancestor depth cannot be negative")
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}

	seen := make(map[string]struct{}, len(c.Sources))
	for i := range c.Sources {
		if err := c.Sources[i].Validate(); err != nil {
			return fmt.Errorf("source %d: %w", i, err)
		}
		name := strings.ToLower(c.Sources[i].Name)
		if _, ok := seen[name]; ok {
			return fmt.Errorf("duplicate source name %q", c.Sources[i].Name)
		}
		seen[name] = struct{}{}
	}

	return nil
}
