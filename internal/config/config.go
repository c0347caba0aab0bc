package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	Env string `mapstructure:"ZTG_ENV"`

	Chain    ChainConfig    `mapstructure:",squash"`
	Metadata MetadataConfig `mapstructure:",squash"`
	Markets  MarketsConfig  `mapstructure:",squash"`
	Cache    CacheConfig    `mapstructure:",squash"`
	HTTP     HTTPConfig     `mapstructure:",squash"`
}

type ChainConfig struct {
	Endpoint   string `mapstructure:"ZTG_ENDPOINT"`
	SS58Prefix uint16 `mapstructure:"ZTG_SS58_PREFIX"`
	Seed       string `mapstructure:"ZTG_SEED"` // only needed by signing commands
}

type MetadataConfig struct {
	IPFSURL string  `mapstructure:"ZTG_IPFS_URL"`
	RPS     float64 `mapstructure:"ZTG_METADATA_RPS"`
	Burst   int     `mapstructure:"ZTG_METADATA_BURST"`
}

type MarketsConfig struct {
	Concurrency  int           `mapstructure:"ZTG_MARKET_CONCURRENCY"`
	WarmInterval time.Duration `mapstructure:"ZTG_MARKET_WARM_INTERVAL"` // 0 disables the gateway's cache warmer
}

type CacheConfig struct {
	Backend  string        `mapstructure:"ZTG_CACHE_BACKEND"` // "none", "memory", "redis"
	RedisURL string        `mapstructure:"ZTG_REDIS_URL"`
	TTL      time.Duration `mapstructure:"ZTG_CACHE_TTL"`
}

type HTTPConfig struct {
	Addr               string   `mapstructure:"ZTG_HTTP_ADDR"`
	CORSAllowedOrigins []string `mapstructure:"ZTG_CORS_ALLOWED_ORIGINS"`
	RateLimitRPM       int      `mapstructure:"ZTG_RATE_LIMIT_RPM"`
}

func loadDotEnvFiles() {
	candidates := []string{
		".env",
		filepath.Join("..", ".env"),
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".zeitgeist", ".env"))
	}

	seen := make(map[string]struct{})
	for _, path := range candidates {
		abs := path
		if resolved, err := filepath.Abs(path); err == nil {
			abs = resolved
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}

		if _, err := os.Stat(path); err == nil {
			_ = gotenv.Load(path) // variables already set in the environment win
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ZTG_ENV", "dev")
	v.SetDefault("ZTG_ENDPOINT", "wss://bp-rpc.zeitgeist.pm")
	v.SetDefault("ZTG_SS58_PREFIX", 73)
	v.SetDefault("ZTG_SEED", "")
	v.SetDefault("ZTG_IPFS_URL", "http://localhost:5001")
	v.SetDefault("ZTG_METADATA_RPS", 20.0)
	v.SetDefault("ZTG_METADATA_BURST", 10)
	v.SetDefault("ZTG_MARKET_CONCURRENCY", 8)
	v.SetDefault("ZTG_MARKET_WARM_INTERVAL", "0s")
	v.SetDefault("ZTG_CACHE_BACKEND", "none")
	v.SetDefault("ZTG_REDIS_URL", "redis://127.0.0.1:6379/0")
	v.SetDefault("ZTG_CACHE_TTL", "24h")
	v.SetDefault("ZTG_HTTP_ADDR", ":8080")
	v.SetDefault("ZTG_CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("ZTG_RATE_LIMIT_RPM", 120)
}

// Load reads .env files and ZTG_* environment variables on top of the defaults.
func Load() (*Config, error) {
	loadDotEnvFiles()

	v := viper.New()
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// Comma-separated list
	if origins := v.GetString("ZTG_CORS_ALLOWED_ORIGINS"); origins != "" {
		v.Set("ZTG_CORS_ALLOWED_ORIGINS", splitList(origins))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) validate() error {
	if c.Chain.Endpoint == "" {
		return fmt.Errorf("ZTG_ENDPOINT is required")
	}
	u, err := url.Parse(c.Chain.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid ZTG_ENDPOINT %q: %w", c.Chain.Endpoint, err)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return fmt.Errorf("invalid ZTG_ENDPOINT %q (scheme must be ws, wss, http or https)", c.Chain.Endpoint)
	}

	if c.Metadata.RPS <= 0 {
		return fmt.Errorf("ZTG_METADATA_RPS must be positive")
	}
	if c.Metadata.Burst < 1 {
		return fmt.Errorf("ZTG_METADATA_BURST must be at least 1")
	}
	if c.Markets.Concurrency < 1 {
		return fmt.Errorf("ZTG_MARKET_CONCURRENCY must be at least 1")
	}
	if c.Markets.WarmInterval < 0 {
		return fmt.Errorf("ZTG_MARKET_WARM_INTERVAL must not be negative")
	}

	switch c.Cache.Backend {
	case "none", "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("ZTG_REDIS_URL is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("invalid ZTG_CACHE_BACKEND %q (must be none, memory, or redis)", c.Cache.Backend)
	}
	return nil
}

// Validate re-checks the config after command-line flags were applied.
func (c *Config) Validate() error {
	return c.validate()
}

func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

// CacheEnabled reports whether fetched metadata blobs are cached.
func (c *Config) CacheEnabled() bool {
	return c.Cache.Backend != "none"
}
