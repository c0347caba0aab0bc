package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeitgeistpm/zeitgeist-go/pkg/kv"
	memkv "github.com/zeitgeistpm/zeitgeist-go/pkg/kv/memory"
	"go.uber.org/zap"
)

func TestCache_GetSetDelete(t *testing.T) {
	mem := memkv.New(0)
	cache := NewCacheWithStore(mem, "ipfs", time.Minute, zap.NewNop().Sugar(), nil)
	defer cache.Close()

	ctx := context.Background()
	_, err := cache.Get(ctx, "QmA")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "QmA", []byte("blob")))

	got, err := cache.Get(ctx, "QmA")
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), got)

	// keys are namespaced in the backend
	raw, err := mem.Get(ctx, "ipfs:QmA")
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), raw)
	ttl, err := mem.TTL(ctx, "ipfs:QmA")
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, cache.Delete(ctx, "QmA"))
	_, err = cache.Get(ctx, "QmA")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCache_ZeroTTLKeepsForever(t *testing.T) {
	mem := memkv.New(0)
	cache := NewCacheWithStore(mem, "ipfs", 0, nil, nil)
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "QmB", []byte("x")))
	ttl, err := mem.TTL(ctx, "ipfs:QmB")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl)
}

func TestNewCache_MemoryBackend(t *testing.T) {
	cache, err := NewCache(kv.Config{Backend: kv.BackendMemory}, "ipfs", time.Hour, nil, nil)
	require.NoError(t, err)
	defer cache.Close()
	assert.NoError(t, cache.Ping(context.Background()))
}

func TestNewCache_UnknownBackend(t *testing.T) {
	_, err := NewCache(kv.Config{Backend: "memcached"}, "ipfs", time.Hour, nil, nil)
	assert.Error(t, err)
}
