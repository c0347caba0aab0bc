package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zeitgeistpm/zeitgeist-go/internal/metrics"
	"github.com/zeitgeistpm/zeitgeist-go/pkg/kv"
	_ "github.com/zeitgeistpm/zeitgeist-go/pkg/kv/memory"
	_ "github.com/zeitgeistpm/zeitgeist-go/pkg/kv/redis"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned by Get when the key holds nothing.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a namespaced byte cache over a kv.Store that records hit/miss metrics.
type Cache struct {
	kvStore   kv.Store
	namespace string
	ttl       time.Duration

	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
}

// NewCache opens the kv backend named in cfg. A redis backend that is down falls
// back to memory inside pkg/kv.
func NewCache(cfg kv.Config, namespace string, ttl time.Duration, logger *zap.SugaredLogger, m *metrics.Metrics) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Infow
	}

	kvStore, err := kv.NewStoreFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s cache: %w", cfg.Backend, err)
	}
	return NewCacheWithStore(kvStore, namespace, ttl, logger, m), nil
}

// NewCacheWithStore wraps an already opened store.
func NewCacheWithStore(kvStore kv.Store, namespace string, ttl time.Duration, logger *zap.SugaredLogger, m *metrics.Metrics) *Cache {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Cache{
		kvStore:   kvStore,
		namespace: namespace,
		ttl:       ttl,
		logger:    logger,
		metrics:   m,
	}
}

func (c *Cache) key(k string) string {
	return c.namespace + ":" + k
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.kvStore.Get(ctx, c.key(key))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			c.metrics.RecordCacheMiss(ctx, c.namespace)
			return nil, ErrCacheMiss
		}
		c.logger.Errorw("Cache get error", "key", c.key(key), "error", err)
		return nil, fmt.Errorf("cache get error: %w", err)
	}
	c.metrics.RecordCacheHit(ctx, c.namespace)
	return data, nil
}

// Set stores value under key with the cache's default TTL (0 keeps it forever).
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	var ttl []time.Duration
	if c.ttl > 0 {
		ttl = append(ttl, c.ttl)
	}
	if err := c.kvStore.Set(ctx, c.key(key), value, ttl...); err != nil {
		c.logger.Errorw("Cache set error", "key", c.key(key), "error", err)
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if _, err := c.kvStore.Del(ctx, full...); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.kvStore.Ping(ctx)
}

func (c *Cache) Close() error {
	return c.kvStore.Close()
}
