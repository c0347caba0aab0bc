package markets

import (
	"context"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/stretchr/testify/mock"
	"github.com/zeitgeistpm/zeitgeist-go/internal/metadata"
	"github.com/zeitgeistpm/zeitgeist-go/internal/onchain"
)

type MockChain struct {
	mock.Mock
}

func (m *MockChain) MarketKeys(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if k := args.Get(0); k != nil {
		return k.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChain) Market(ctx context.Context, id onchain.MarketID) (*onchain.RawMarket, bool, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*onchain.RawMarket), args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

type MockMetadata struct {
	mock.Mock
}

func (m *MockMetadata) Resolve(ctx context.Context, locator string) metadata.Document {
	args := m.Called(ctx, locator)
	return args.Get(0).(metadata.Document)
}

func (m *MockMetadata) Publish(ctx context.Context, doc metadata.Document) (string, error) {
	args := m.Called(ctx, doc)
	return args.String(0), args.Error(1)
}

// scriptedSubmitter replays a fixed list of status updates to the watcher.
type scriptedSubmitter struct {
	updates []onchain.TxUpdate
	err     error

	call string
	args []interface{}
}

func (s *scriptedSubmitter) Submit(ctx context.Context, signer onchain.Signer, call string, args ...interface{}) (types.Hash, error) {
	s.call, s.args = call, args
	return types.Hash{0x01}, s.err
}

func (s *scriptedSubmitter) SubmitAndWatch(ctx context.Context, signer onchain.Signer, onStatus onchain.StatusFunc, call string, args ...interface{}) error {
	s.call, s.args = call, args
	if s.err != nil {
		return s.err
	}
	stopped := false
	for _, u := range s.updates {
		if stopped {
			break
		}
		onStatus(u, func() { stopped = true })
	}
	return nil
}

func categoricalMarket(n uint16, locator string) *onchain.RawMarket {
	return &onchain.RawMarket{
		Creator:    types.AccountID{0x01},
		Creation:   onchain.CreationPermissionless,
		Oracle:     types.AccountID{0x02},
		End:        onchain.BlockEnd(5000),
		Metadata:   types.Bytes(locator),
		MarketType: onchain.MarketType{Kind: onchain.MarketTypeCategorical, Categories: n},
		Status:     onchain.MarketStatus(1),
	}
}

func marketKey(id onchain.MarketID) string {
	// prefix bytes are irrelevant to decoding, only the suffix matters
	return "0x" + "26aa394eea5630e07c48ae0c9558cef7" + "b99d880ec681799c0cf30e8886371da9" +
		"0123456789abcdef0123456789abcdef" + onchain.EncodeMarketID(id)
}
