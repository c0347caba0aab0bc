// Package jobs holds background loops run next to the HTTP gateway.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zeitgeistpm/zeitgeist-go/internal/markets"
	"go.uber.org/zap"
)

// MarketLister is the part of markets.Service the warmer drives.
type MarketLister interface {
	ListAll(ctx context.Context) ([]*markets.Market, error)
}

type MarketWarmerConfig struct {
	Interval time.Duration // time between walks
	Timeout  time.Duration // bound on one walk, defaults to Interval
}

// MarketWarmer periodically assembles every market so their metadata blobs sit in
// the content cache before the first gateway request asks for them.
type MarketWarmer struct {
	lister MarketLister
	logger *zap.SugaredLogger
	config MarketWarmerConfig

	mu        sync.RWMutex
	lastCount int
	lastRun   time.Time
	lastErr   error
	cancelCtx context.CancelFunc
}

func NewMarketWarmer(lister MarketLister, logger *zap.SugaredLogger, config MarketWarmerConfig) *MarketWarmer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if config.Timeout <= 0 {
		config.Timeout = config.Interval
	}
	return &MarketWarmer{
		lister: lister,
		logger: logger,
		config: config,
	}
}

// Start runs one walk immediately and then one per interval until ctx is done.
func (w *MarketWarmer) Start(ctx context.Context) error {
	if w.config.Interval <= 0 {
		return errors.New("market warmer interval must be positive")
	}
	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancelCtx = cancel
	w.mu.Unlock()

	w.logger.Infow("Starting market warmer", "interval", w.config.Interval)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Infow("Market warmer stopping due to context cancellation")
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

func (w *MarketWarmer) Stop() {
	w.mu.RLock()
	cancel := w.cancelCtx
	w.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

// RunOnce walks every market once. Failures are logged and kept for Status.
func (w *MarketWarmer) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()

	start := time.Now()
	list, err := w.lister.ListAll(ctx)

	w.mu.Lock()
	w.lastRun = start
	w.lastErr = err
	if err == nil {
		w.lastCount = len(list)
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Warnw("Market warm-up failed", "error", err, "duration", time.Since(start))
		return
	}
	w.logger.Infow("Market warm-up complete", "markets", len(list), "duration", time.Since(start))
}

// Status reports the outcome of the latest walk.
func (w *MarketWarmer) Status() (count int, at time.Time, err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastCount, w.lastRun, w.lastErr
}
