package contentstore

import (
	"context"
	"errors"

	"github.com/zeitgeistpm/zeitgeist-go/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cached is a read-through cache in front of a Store. Blobs are addressed by
// their content, so a cached entry can never go stale. Cache failures are
// logged and bypassed. Concurrent misses for the same locator share one origin fetch.
type Cached struct {
	inner    Store
	cache    *store.Cache
	inflight singleflight.Group
	logger   *zap.SugaredLogger
}

func NewCached(inner Store, cache *store.Cache, logger *zap.SugaredLogger) *Cached {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Cached{inner: inner, cache: cache, logger: logger}
}

func (c *Cached) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if locator == "" {
		return nil, ErrEmptyLocator
	}

	data, err := c.cache.Get(ctx, locator)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, store.ErrCacheMiss) {
		c.logger.Warnw("Content cache unavailable, fetching from origin", "cid", locator, "error", err)
	}

	// The shared fetch outlives a cancelled waiter; the origin client carries its own timeout.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.inflight.DoChan(locator, func() (interface{}, error) {
		data, err := c.inner.Fetch(flightCtx, locator)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Set(flightCtx, locator, data); err != nil {
			c.logger.Warnw("Failed to cache content", "cid", locator, "error", err)
		}
		return data, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		blob := res.Val.([]byte)
		if res.Shared {
			blob = append([]byte(nil), blob...)
		}
		return blob, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Put publishes through to the inner store and primes the cache with the result.
func (c *Cached) Put(ctx context.Context, data []byte) (string, error) {
	cid, err := c.inner.Put(ctx, data)
	if err != nil {
		return "", err
	}
	if err := c.cache.Set(ctx, cid, data); err != nil {
		c.logger.Warnw("Failed to cache content", "cid", cid, "error", err)
	}
	return cid, nil
}

var _ Store = (*Cached)(nil)
