package kv

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// LogFunc is a function type for structured logging. A zap SugaredLogger's
// Infow satisfies it.
type LogFunc func(msg string, keysAndValues ...interface{})

// FailoverStore serves from primary while it is healthy and switches to fallback
// when primary reports ErrBackendUnavailable. A background probe promotes primary
// again once it answers pings.
type FailoverStore struct {
	primary       Store
	fallback      Store
	active        atomic.Value // Store
	probeInterval time.Duration
	logger        LogFunc

	mu        sync.Mutex
	probing   bool
	closed    chan struct{}
	closeOnce sync.Once
	probeStop chan struct{}
	probeDone chan struct{}
	promote   chan struct{}
}

// NewFailoverStore creates a failover store that starts on primary.
func NewFailoverStore(primary, fallback Store, probeInterval time.Duration, logger LogFunc) *FailoverStore {
	fs := newFailoverStore(primary, fallback, probeInterval, logger)
	fs.active.Store(primary)
	go fs.handlePromotions()
	return fs
}

// NewFailoverStoreWithFallbackActive creates a failover store that starts on fallback
// and probes primary for recovery.
func NewFailoverStoreWithFallbackActive(primary, fallback Store, probeInterval time.Duration, logger LogFunc) *FailoverStore {
	fs := newFailoverStore(primary, fallback, probeInterval, logger)
	fs.active.Store(fallback)
	fs.startProbing()
	go fs.handlePromotions()
	return fs
}

func newFailoverStore(primary, fallback Store, probeInterval time.Duration, logger LogFunc) *FailoverStore {
	if logger == nil {
		logger = func(string, ...interface{}) {}
	}
	return &FailoverStore{
		primary:       primary,
		fallback:      fallback,
		probeInterval: probeInterval,
		logger:        logger,
		closed:        make(chan struct{}),
		promote:       make(chan struct{}, 1),
	}
}

func (fs *FailoverStore) activeStore() Store {
	return fs.active.Load().(Store)
}

func (fs *FailoverStore) demoteToFallback() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.activeStore() == fs.fallback {
		return
	}
	fs.active.Store(fs.fallback)
	fs.logger("Failing over to in-memory store", "reason", "primary_unavailable")
	fs.startProbingUnsafe()
}

func (fs *FailoverStore) handlePromotions() {
	for {
		select {
		case <-fs.closed:
			return
		case <-fs.promote:
			if fs.activeStore() == fs.primary {
				continue
			}
			fs.active.Store(fs.primary)
			fs.logger("Recovered to primary store", "reason", "primary_healthy")
			fs.stopProbing()
		}
	}
}

func (fs *FailoverStore) signalPromotion() {
	select {
	case fs.promote <- struct{}{}:
	default:
		// promotion already pending
	}
}

// startProbingUnsafe must be called with mu held.
func (fs *FailoverStore) startProbingUnsafe() {
	if fs.probing {
		return
	}
	fs.probing = true
	fs.probeStop = make(chan struct{})
	fs.probeDone = make(chan struct{})
	go fs.probeLoop(fs.probeStop, fs.probeDone)
}

func (fs *FailoverStore) startProbing() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.startProbingUnsafe()
}

func (fs *FailoverStore) stopProbing() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.stopProbingUnsafe()
}

// stopProbingUnsafe must be called with mu held.
func (fs *FailoverStore) stopProbingUnsafe() {
	if !fs.probing {
		return
	}
	close(fs.probeStop)
	<-fs.probeDone
	fs.probing = false
}

func (fs *FailoverStore) probeLoop(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(fs.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-fs.closed:
			return
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), fs.probeInterval/2)
			err := fs.primary.Ping(ctx)
			cancel()
			if err == nil {
				fs.signalPromotion()
				// keep ticking until handlePromotions stops us
			}
		}
	}
}

// do runs fn on the active store and retries once on fallback when primary is unavailable.
func do[T any](fs *FailoverStore, fn func(Store) (T, error)) (T, error) {
	store := fs.activeStore()
	result, err := fn(store)

	if store == fs.primary && errors.Is(err, ErrBackendUnavailable) {
		fs.demoteToFallback()
		if fallback := fs.activeStore(); fallback != store {
			return fn(fallback)
		}
	}
	return result, err
}

func (fs *FailoverStore) Set(ctx context.Context, key string, value []byte, ttl ...time.Duration) error {
	_, err := do(fs, func(s Store) (struct{}, error) {
		return struct{}{}, s.Set(ctx, key, value, ttl...)
	})
	return err
}

func (fs *FailoverStore) Get(ctx context.Context, key string) ([]byte, error) {
	return do(fs, func(s Store) ([]byte, error) {
		return s.Get(ctx, key)
	})
}

func (fs *FailoverStore) Del(ctx context.Context, keys ...string) (int64, error) {
	return do(fs, func(s Store) (int64, error) {
		return s.Del(ctx, keys...)
	})
}

func (fs *FailoverStore) Exists(ctx context.Context, keys ...string) (int64, error) {
	return do(fs, func(s Store) (int64, error) {
		return s.Exists(ctx, keys...)
	})
}

func (fs *FailoverStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return do(fs, func(s Store) (bool, error) {
		return s.Expire(ctx, key, ttl)
	})
}

func (fs *FailoverStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return do(fs, func(s Store) (time.Duration, error) {
		return s.TTL(ctx, key)
	})
}

// Ping checks the active store.
func (fs *FailoverStore) Ping(ctx context.Context) error {
	return fs.activeStore().Ping(ctx)
}

// ActiveBackend reports "primary" or "fallback".
func (fs *FailoverStore) ActiveBackend() string {
	if fs.activeStore() == fs.primary {
		return "primary"
	}
	return "fallback"
}

// Close stops background probing and closes both stores.
func (fs *FailoverStore) Close() error {
	fs.closeOnce.Do(func() { close(fs.closed) })

	fs.mu.Lock()
	fs.stopProbingUnsafe()
	fs.mu.Unlock()

	return errors.Join(fs.primary.Close(), fs.fallback.Close())
}

var _ Store = (*FailoverStore)(nil)
