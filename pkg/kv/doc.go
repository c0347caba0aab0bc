// Package kv provides a small key-value store abstraction with in-memory
// and Redis-backed implementations. It backs the read-through cache of
// content-addressed metadata blobs.
//
// Example usage:
//
//	store, err := kv.NewStoreFromConfig(kv.Config{
//		Backend:  kv.BackendRedis,
//		RedisURL: "redis://localhost:6379/0",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.Set(ctx, "ipfs:Qm...", blob, 24*time.Hour)
//	value, err := store.Get(ctx, "ipfs:Qm...")
//	if errors.Is(err, kv.ErrNotFound) {
//		// fetch from the origin
//	}
//
// A Redis store that cannot be reached at startup, or that drops later, is
// transparently replaced by an in-memory store until Redis answers pings again.
// Backends register themselves from init, so callers blank-import
// pkg/kv/memory and pkg/kv/redis.
package kv
