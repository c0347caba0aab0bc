package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.Equal(t, "wss://bp-rpc.zeitgeist.pm", cfg.Chain.Endpoint)
	assert.Equal(t, uint16(73), cfg.Chain.SS58Prefix)
	assert.Equal(t, "http://localhost:5001", cfg.Metadata.IPFSURL)
	assert.Equal(t, 8, cfg.Markets.Concurrency)
	assert.Zero(t, cfg.Markets.WarmInterval)
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.False(t, cfg.CacheEnabled())
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.CORSAllowedOrigins)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ZTG_ENV", "prod")
	t.Setenv("ZTG_ENDPOINT", "ws://127.0.0.1:9944")
	t.Setenv("ZTG_SS58_PREFIX", "42")
	t.Setenv("ZTG_CACHE_BACKEND", "Redis")
	t.Setenv("ZTG_CORS_ALLOWED_ORIGINS", "https://app.zeitgeist.pm, https://a.example ,")
	t.Setenv("ZTG_MARKET_CONCURRENCY", "2")
	t.Setenv("ZTG_MARKET_WARM_INTERVAL", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, "ws://127.0.0.1:9944", cfg.Chain.Endpoint)
	assert.Equal(t, uint16(42), cfg.Chain.SS58Prefix)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, 2, cfg.Markets.Concurrency)
	assert.Equal(t, 5*time.Minute, cfg.Markets.WarmInterval)
	assert.Equal(t, []string{"https://app.zeitgeist.pm", "https://a.example"}, cfg.HTTP.CORSAllowedOrigins)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Env:      "dev",
			Chain:    ChainConfig{Endpoint: "wss://bp-rpc.zeitgeist.pm", SS58Prefix: 73},
			Metadata: MetadataConfig{IPFSURL: "http://localhost:5001", RPS: 1, Burst: 1},
			Markets:  MarketsConfig{Concurrency: 1},
			Cache:    CacheConfig{Backend: "none"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"missing endpoint", func(c *Config) { c.Chain.Endpoint = "" }, "ZTG_ENDPOINT is required"},
		{"bad scheme", func(c *Config) { c.Chain.Endpoint = "ftp://node" }, "scheme must be"},
		{"zero rps", func(c *Config) { c.Metadata.RPS = 0 }, "ZTG_METADATA_RPS"},
		{"zero burst", func(c *Config) { c.Metadata.Burst = 0 }, "ZTG_METADATA_BURST"},
		{"zero concurrency", func(c *Config) { c.Markets.Concurrency = 0 }, "ZTG_MARKET_CONCURRENCY"},
		{"negative warm interval", func(c *Config) { c.Markets.WarmInterval = -time.Second }, "ZTG_MARKET_WARM_INTERVAL"},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }, "ZTG_CACHE_BACKEND"},
		{"redis without url", func(c *Config) { c.Cache.Backend = "redis" }, "ZTG_REDIS_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
