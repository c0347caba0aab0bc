package redis

import (
	"context"
	"errors"
	"os"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeitgeistpm/zeitgeist-go/pkg/kv"
	"github.com/zeitgeistpm/zeitgeist-go/pkg/kv/kvtest"
)

func TestRedisStore(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set, skipping Redis tests")
	}

	factory := func(t *testing.T) kv.Store {
		store, err := New(redisURL)
		require.NoError(t, err)
		require.NoError(t, store.Ping(context.Background()))
		return store
	}

	kvtest.RunConformanceTests(t, factory)
}

func TestNew_AcceptsBareAddress(t *testing.T) {
	store, err := New("127.0.0.1:6390")
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, "127.0.0.1:6390", store.client.Options().Addr)
}

func TestIsConnectionError(t *testing.T) {
	assert.False(t, IsConnectionError(nil))
	assert.False(t, IsConnectionError(goredis.Nil))
	assert.False(t, IsConnectionError(context.Canceled))
	assert.True(t, IsConnectionError(errors.New("dial tcp 127.0.0.1:6390: connect: connection refused")))
	assert.False(t, IsConnectionError(errors.New("WRONGTYPE Operation against a key")))
}

func TestUnreachableRedisIsBackendUnavailable(t *testing.T) {
	store, err := New("redis://127.0.0.1:1/0")
	require.NoError(t, err)
	defer store.Close()

	err = store.Ping(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, kv.ErrBackendUnavailable)
}
