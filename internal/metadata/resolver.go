package metadata

import (
	"context"
	"fmt"

	"github.com/zeitgeistpm/zeitgeist-go/internal/contentstore"
	"github.com/zeitgeistpm/zeitgeist-go/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Resolver turns a market's metadata locator into a Document. Resolution never
// fails: an empty locator, a store error or an unreadable document all yield
// the sentinel document.
type Resolver struct {
	store   contentstore.Store
	limiter *rate.Limiter
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
}

// NewResolver builds a resolver over store. A nil limiter leaves fetches unpaced.
func NewResolver(store contentstore.Store, limiter *rate.Limiter, logger *zap.SugaredLogger, m *metrics.Metrics) *Resolver {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Resolver{
		store:   store,
		limiter: limiter,
		logger:  logger,
		metrics: m,
	}
}

// Resolve fetches and parses the document at locator.
func (r *Resolver) Resolve(ctx context.Context, locator string) Document {
	if locator == "" {
		r.metrics.RecordMetadataResolution(ctx, metrics.OutcomeEmpty)
		return Sentinel()
	}

	if err := r.limiter.Wait(ctx); err != nil {
		r.logger.Warnw("Metadata fetch not attempted", "cid", locator, "error", err)
		r.metrics.RecordMetadataResolution(ctx, metrics.OutcomeSentinel)
		return Sentinel()
	}

	raw, err := r.store.Fetch(ctx, locator)
	if err != nil {
		r.logger.Warnw("Failed to fetch market metadata", "cid", locator, "error", err)
		r.metrics.RecordMetadataResolution(ctx, metrics.OutcomeSentinel)
		return Sentinel()
	}

	doc, enc := Parse(raw)
	if enc == EncodingLegacy {
		r.logger.Debugw("Market metadata uses the legacy text format", "cid", locator)
		r.metrics.RecordMetadataResolution(ctx, metrics.OutcomeLegacy)
	} else {
		r.metrics.RecordMetadataResolution(ctx, metrics.OutcomeJSON)
	}
	return doc
}

// Publish stores doc as JSON and returns its locator.
func (r *Resolver) Publish(ctx context.Context, doc Document) (string, error) {
	data, err := doc.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	locator, err := r.store.Put(ctx, data)
	if err != nil {
		return "", fmt.Errorf("failed to publish metadata: %w", err)
	}
	return locator, nil
}
