// Package shares reads outcome share balances and moves shares and wrapped
// native currency between accounts.
package shares

import (
	"context"
	"errors"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/shopspring/decimal"
	"github.com/zeitgeistpm/zeitgeist-go/internal/metrics"
	"github.com/zeitgeistpm/zeitgeist-go/internal/onchain"
	"go.uber.org/zap"
)

// Outcome indices of a binary market.
const (
	InvalidIndex uint16 = 0
	YesIndex     uint16 = 1
	NoIndex      uint16 = 2
)

var ErrReadOnly = errors.New("shares service has no extrinsic submitter")

// Balance is the free and reserved amount an account holds of one share.
type Balance struct {
	Free     decimal.Decimal `json:"free"`
	Reserved decimal.Decimal `json:"reserved"`
}

type Service struct {
	chain     onchain.ShareReader
	submitter onchain.Submitter
	logger    *zap.SugaredLogger
	metrics   *metrics.Metrics
}

// NewService builds a shares service. submitter may be nil for read-only use.
func NewService(chain onchain.ShareReader, submitter onchain.Submitter, logger *zap.SugaredLogger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{chain: chain, submitter: submitter, logger: logger, metrics: m}
}

// ShareID asks the node for the share of outcome index of market id.
func (s *Service) ShareID(ctx context.Context, id onchain.MarketID, index uint16) (onchain.ShareID, error) {
	return s.chain.ShareID(ctx, id, index)
}

func (s *Service) InvalidShareID(ctx context.Context, id onchain.MarketID) (onchain.ShareID, error) {
	return s.ShareID(ctx, id, InvalidIndex)
}

func (s *Service) YesShareID(ctx context.Context, id onchain.MarketID) (onchain.ShareID, error) {
	return s.ShareID(ctx, id, YesIndex)
}

func (s *Service) NoShareID(ctx context.Context, id onchain.MarketID) (onchain.ShareID, error) {
	return s.ShareID(ctx, id, NoIndex)
}

// NativeShareID is the share the native currency is wrapped into.
func (s *Service) NativeShareID() onchain.ShareID {
	return onchain.NativeShareID
}

// Balance returns both balances of account in an outcome share.
func (s *Service) Balance(ctx context.Context, id onchain.MarketID, index uint16, account string) (*Balance, error) {
	who, err := onchain.AccountIDFromAddress(account)
	if err != nil {
		return nil, err
	}
	share, err := s.chain.ShareID(ctx, id, index)
	if err != nil {
		return nil, err
	}
	acc, err := s.chain.ShareAccount(ctx, share, who)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance of %s: %w", account, err)
	}
	return &Balance{
		Free:     onchain.U128ToDecimal(acc.Free),
		Reserved: onchain.U128ToDecimal(acc.Reserved),
	}, nil
}

// BalanceOf returns the free balance of account in an outcome share.
func (s *Service) BalanceOf(ctx context.Context, id onchain.MarketID, index uint16, account string) (decimal.Decimal, error) {
	b, err := s.Balance(ctx, id, index, account)
	if err != nil {
		return decimal.Zero, err
	}
	return b.Free, nil
}

// ReservedBalanceOf returns the reserved balance of account in an outcome share.
func (s *Service) ReservedBalanceOf(ctx context.Context, id onchain.MarketID, index uint16, account string) (decimal.Decimal, error) {
	b, err := s.Balance(ctx, id, index, account)
	if err != nil {
		return decimal.Zero, err
	}
	return b.Reserved, nil
}

// TotalSupply returns the issued amount of an outcome share.
func (s *Service) TotalSupply(ctx context.Context, id onchain.MarketID, index uint16) (decimal.Decimal, error) {
	share, err := s.chain.ShareID(ctx, id, index)
	if err != nil {
		return decimal.Zero, err
	}
	supply, err := s.chain.ShareTotalSupply(ctx, share)
	if err != nil {
		return decimal.Zero, err
	}
	return onchain.U128ToDecimal(supply), nil
}

// WrapNativeCurrency moves amount of the signer's native balance into the native share.
// It returns the extrinsic hash without waiting for inclusion.
func (s *Service) WrapNativeCurrency(ctx context.Context, signer onchain.Signer, amount decimal.Decimal) (types.Hash, error) {
	return s.submitAmount(ctx, signer, onchain.CallWrapNativeCurrency, amount)
}

// UnwrapNativeCurrency is the inverse of WrapNativeCurrency.
func (s *Service) UnwrapNativeCurrency(ctx context.Context, signer onchain.Signer, amount decimal.Decimal) (types.Hash, error) {
	return s.submitAmount(ctx, signer, onchain.CallUnwrapNativeCurrency, amount)
}

func (s *Service) submitAmount(ctx context.Context, signer onchain.Signer, call string, amount decimal.Decimal) (types.Hash, error) {
	if s.submitter == nil {
		return types.Hash{}, ErrReadOnly
	}
	value, err := onchain.DecimalToU128(amount)
	if err != nil {
		return types.Hash{}, err
	}
	return s.submit(ctx, signer, call, value)
}

// Transfer sends amount of an outcome share from the signer to the SS58 address to.
func (s *Service) Transfer(ctx context.Context, signer onchain.Signer, id onchain.MarketID, index uint16, to string, amount decimal.Decimal) (types.Hash, error) {
	if s.submitter == nil {
		return types.Hash{}, ErrReadOnly
	}
	dest, err := onchain.AccountIDFromAddress(to)
	if err != nil {
		return types.Hash{}, err
	}
	value, err := onchain.DecimalToU128(amount)
	if err != nil {
		return types.Hash{}, err
	}
	share, err := s.chain.ShareID(ctx, id, index)
	if err != nil {
		return types.Hash{}, err
	}
	return s.submit(ctx, signer, onchain.CallShareTransfer, dest, share, value)
}

func (s *Service) submit(ctx context.Context, signer onchain.Signer, call string, args ...interface{}) (types.Hash, error) {
	hash, err := s.submitter.Submit(ctx, signer, call, args...)
	if err != nil {
		s.metrics.RecordExtrinsic(ctx, call, "error")
		return types.Hash{}, err
	}
	s.metrics.RecordExtrinsic(ctx, call, "submitted")
	return hash, nil
}
