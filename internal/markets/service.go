package markets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zeitgeistpm/zeitgeist-go/internal/metadata"
	"github.com/zeitgeistpm/zeitgeist-go/internal/metrics"
	"github.com/zeitgeistpm/zeitgeist-go/internal/onchain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MetadataStore resolves and publishes market metadata documents.
type MetadataStore interface {
	Resolve(ctx context.Context, locator string) metadata.Document
	Publish(ctx context.Context, doc metadata.Document) (string, error)
}

type Config struct {
	// Concurrency bounds the assemblies ListAll runs at once.
	Concurrency int
	SS58Prefix  uint16
}

// Service reads markets from chain storage and creates new ones.
type Service struct {
	chain     onchain.MarketReader
	submitter onchain.Submitter
	metadata  MetadataStore
	cfg       Config

	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
}

// NewService builds a market service. submitter may be nil for read-only use.
func NewService(chain onchain.MarketReader, submitter onchain.Submitter, md MetadataStore, cfg Config, logger *zap.SugaredLogger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.SS58Prefix == 0 {
		cfg.SS58Prefix = onchain.ZeitgeistSS58Prefix
	}
	return &Service{
		chain:     chain,
		submitter: submitter,
		metadata:  md,
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
	}
}

// Assemble reads market id and its metadata. It does one storage read and at most
// one metadata fetch, and never retries.
func (s *Service) Assemble(ctx context.Context, id onchain.MarketID) (*Market, error) {
	start := time.Now()
	m, err := s.assemble(ctx, id)

	result := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	s.metrics.RecordMarketAssembly(ctx, result, time.Since(start))
	return m, err
}

func (s *Service) assemble(ctx context.Context, id onchain.MarketID) (*Market, error) {
	raw, ok, err := s.chain.Market(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read market %d: %w", id, err)
	}
	if !ok {
		return nil, fmt.Errorf("market %d: %w", id, ErrNotFound)
	}

	locator := raw.MetadataLocator()
	doc := s.metadata.Resolve(ctx, locator)

	assets, err := DeriveAssets(id, raw.MarketType)
	if err != nil {
		return nil, err
	}

	return &Market{
		MarketID:       id,
		Creator:        onchain.EncodeAddress(raw.Creator[:], s.cfg.SS58Prefix),
		Creation:       raw.Creation,
		CreatorFee:     raw.CreatorFee,
		Oracle:         onchain.EncodeAddress(raw.Oracle[:], s.cfg.SS58Prefix),
		End:            raw.End,
		MarketType:     raw.MarketType,
		Status:         raw.Status,
		MetadataString: locator,
		Title:          doc.Title,
		Description:    doc.Description,
		Categories:     doc.Categories,
		OutcomeAssets:  assets,
	}, nil
}

// ListAllIDs returns the id of every market in storage, in storage key order.
func (s *Service) ListAllIDs(ctx context.Context) ([]onchain.MarketID, error) {
	keys, err := s.chain.MarketKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list markets: %w", err)
	}

	ids := make([]onchain.MarketID, 0, len(keys))
	for _, key := range keys {
		id, err := onchain.DecodeMarketID(onchain.MarketKeySuffix(key))
		if err != nil {
			return nil, fmt.Errorf("failed to decode market key %s: %w", key, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ListAll assembles every market. Assemblies run concurrently up to the configured
// limit; the first failure cancels the rest and fails the call. Results keep the
// order of ListAllIDs.
func (s *Service) ListAll(ctx context.Context) ([]*Market, error) {
	ids, err := s.ListAllIDs(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Debugw("Assembling markets", "count", len(ids), "concurrency", s.cfg.Concurrency)

	out := make([]*Market, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			m, err := s.Assemble(gctx, id)
			if err != nil {
				return err
			}
			out[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Errorw("Failed to assemble markets", "error", err)
		return nil, err
	}
	return out, nil
}
