package markets

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/zeitgeistpm/zeitgeist-go/internal/metadata"
	"github.com/zeitgeistpm/zeitgeist-go/internal/onchain"
)

// DefaultCategories are used when a new market names none.
var DefaultCategories = []string{"Yes", "No"}

type CreateMarketParams struct {
	Title       string
	Description string
	Oracle      string // SS58 address
	End         onchain.MarketEnd
	Creation    onchain.MarketCreation
	Categories  []string
}

func (p *CreateMarketParams) validate() error {
	if p.Oracle == "" {
		return errors.New("oracle is required")
	}
	if p.End.Value == 0 {
		return errors.New("market end is required")
	}
	if len(p.Categories) == 0 {
		p.Categories = append([]string(nil), DefaultCategories...)
	}
	if len(p.Categories) < 2 {
		return fmt.Errorf("a categorical market needs at least 2 categories, got %d", len(p.Categories))
	}
	if len(p.Categories) > 0xffff {
		return fmt.Errorf("too many categories: %d", len(p.Categories))
	}
	return nil
}

// CreateMarket publishes the market's metadata document and submits a categorical
// market creation signed by signer. It returns the new market id in decimal once the
// extrinsic is in a block, or "" when the block reports ExtrinsicFailed.
// onStatus, when set, additionally sees every status update of the extrinsic.
func (s *Service) CreateMarket(ctx context.Context, signer onchain.Signer, params CreateMarketParams, onStatus onchain.StatusFunc) (string, error) {
	if s.submitter == nil {
		return "", ErrReadOnly
	}
	if err := params.validate(); err != nil {
		return "", fmt.Errorf("invalid market: %w", err)
	}
	oracle, err := onchain.AccountIDFromAddress(params.Oracle)
	if err != nil {
		return "", fmt.Errorf("invalid oracle: %w", err)
	}

	locator, err := s.metadata.Publish(ctx, metadata.Document{
		Title:       params.Title,
		Description: params.Description,
		Categories:  params.Categories,
	})
	if err != nil {
		return "", err
	}
	s.logger.Infow("Published market metadata", "cid", locator, "title", params.Title)

	var (
		mu       sync.Mutex
		marketID string
		settled  bool
		inBlock  bool
		eventErr error
	)
	watch := func(update onchain.TxUpdate, unsubscribe func()) {
		if onStatus != nil {
			onStatus(update, unsubscribe)
		}
		if !update.Status.IsInBlock {
			return
		}

		mu.Lock()
		defer mu.Unlock()
		inBlock = true
		if update.EventsErr != nil {
			eventErr = update.EventsErr
		}
		for _, ev := range update.Events {
			if settled {
				break
			}
			switch ev.Method() {
			case onchain.EventMarketCreated:
				marketID, settled = ev.FieldString(0), true
			case onchain.EventExtrinsicFailed:
				s.logger.Warnw("Market creation failed on chain", "event", ev.Name)
				marketID, settled = "", true
			}
		}
		unsubscribe()
	}

	err = s.submitter.SubmitAndWatch(ctx, signer, watch, onchain.CallCreateCategoricalMarket,
		oracle,
		params.End,
		types.NewBytes([]byte(locator)),
		params.Creation,
		types.NewU16(uint16(len(params.Categories))),
	)
	if err != nil {
		s.metrics.RecordExtrinsic(ctx, onchain.CallCreateCategoricalMarket, "error")
		return "", err
	}

	mu.Lock()
	defer mu.Unlock()
	switch {
	case settled && marketID != "":
		s.metrics.RecordExtrinsic(ctx, onchain.CallCreateCategoricalMarket, "created")
		s.logger.Infow("Market created", "marketId", marketID, "cid", locator)
		return marketID, nil
	case settled:
		s.metrics.RecordExtrinsic(ctx, onchain.CallCreateCategoricalMarket, "failed")
		return "", nil
	case eventErr != nil:
		return "", fmt.Errorf("failed to read market creation events: %w", eventErr)
	case inBlock:
		return "", errors.New("block holds neither MarketCreated nor ExtrinsicFailed")
	default:
		return "", ErrNotIncluded
	}
}
