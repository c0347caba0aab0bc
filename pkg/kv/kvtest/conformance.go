// Package kvtest provides conformance tests for kv.Store implementations
package kvtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeitgeistpm/zeitgeist-go/pkg/kv"
)

// StoreFactory creates a fresh Store instance for testing
type StoreFactory func(t *testing.T) kv.Store

// RunConformanceTests runs all conformance tests against a Store implementation
func RunConformanceTests(t *testing.T, factory StoreFactory) {
	tests := []struct {
		name string
		test func(t *testing.T, store kv.Store)
	}{
		{"SetGet", testSetGet},
		{"GetNonExistent", testGetNonExistent},
		{"Overwrite", testOverwrite},
		{"Del", testDel},
		{"Exists", testExists},
		{"SetWithTTL", testSetWithTTL},
		{"Expire", testExpire},
		{"TTL", testTTL},
		{"HealthCheck", testHealthCheck},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()
			// Shared backends may still hold keys from an earlier run
			_, _ = store.Del(context.Background(), "kvtest:a", "kvtest:b", "kvtest:c")
			tt.test(t, store)
		})
	}
}

func testSetGet(t *testing.T, store kv.Store) {
	ctx := context.Background()
	value := []byte(`{"title":"Election","categories":["A","B"]}`)

	require.NoError(t, store.Set(ctx, "kvtest:a", value))

	got, err := store.Get(ctx, "kvtest:a")
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

func testGetNonExistent(t *testing.T, store kv.Store) {
	_, err := store.Get(context.Background(), "kvtest:a")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func testOverwrite(t *testing.T, store kv.Store) {
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "kvtest:a", []byte("one"), time.Minute))
	require.NoError(t, store.Set(ctx, "kvtest:a", []byte("two")))

	got, err := store.Get(ctx, "kvtest:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)

	ttl, err := store.TTL(ctx, "kvtest:a")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl, "a plain Set clears the previous expiry")
}

func testDel(t *testing.T, store kv.Store) {
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "kvtest:a", []byte("1")))
	require.NoError(t, store.Set(ctx, "kvtest:b", []byte("2")))

	n, err := store.Del(ctx, "kvtest:a", "kvtest:b", "kvtest:c")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = store.Get(ctx, "kvtest:a")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func testExists(t *testing.T, store kv.Store) {
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "kvtest:a", []byte("1")))

	n, err := store.Exists(ctx, "kvtest:a", "kvtest:b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func testSetWithTTL(t *testing.T, store kv.Store) {
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "kvtest:a", []byte("short"), 100*time.Millisecond))

	_, err := store.Get(ctx, "kvtest:a")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := store.Get(ctx, "kvtest:a")
		return err == kv.ErrNotFound
	}, 2*time.Second, 20*time.Millisecond)
}

func testExpire(t *testing.T, store kv.Store) {
	ctx := context.Background()

	ok, err := store.Expire(ctx, "kvtest:a", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "expire on a missing key")

	require.NoError(t, store.Set(ctx, "kvtest:a", []byte("v")))
	ok, err = store.Expire(ctx, "kvtest:a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ttl, err := store.TTL(ctx, "kvtest:a")
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)
	assert.LessOrEqual(t, ttl, time.Minute)
}

func testTTL(t *testing.T, store kv.Store) {
	ctx := context.Background()

	_, err := store.TTL(ctx, "kvtest:a")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, store.Set(ctx, "kvtest:a", []byte("v")))
	ttl, err := store.TTL(ctx, "kvtest:a")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl)
}

func testHealthCheck(t *testing.T, store kv.Store) {
	assert.NoError(t, store.Ping(context.Background()))
}
