package onchain

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"

	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4"
	"github.com/centrifuge/go-substrate-rpc-client/v4/registry/retriever"
	regstate "github.com/centrifuge/go-substrate-rpc-client/v4/registry/state"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"go.uber.org/zap"
)

// MarketReader is the storage surface the market pipeline reads from.
type MarketReader interface {
	MarketKeys(ctx context.Context) ([]string, error)
	Market(ctx context.Context, id MarketID) (*RawMarket, bool, error)
}

// ShareReader is the storage and RPC surface the shares service reads from.
type ShareReader interface {
	ShareID(ctx context.Context, id MarketID, index uint16) (ShareID, error)
	ShareAccount(ctx context.Context, share ShareID, account types.AccountID) (*ShareAccount, error)
	ShareTotalSupply(ctx context.Context, share ShareID) (types.U128, error)
}

// ChainReader is everything the query surface needs from the node.
type ChainReader interface {
	MarketReader
	ShareReader
}

// keysPageSize bounds one state_getKeysPaged round trip.
const keysPageSize = 1000

// Client reads and writes Zeitgeist chain state through a substrate RPC connection.
type Client struct {
	api        *gsrpc.SubstrateAPI
	endpoint   string
	ss58Prefix uint16
	logger     *zap.SugaredLogger

	metaMu sync.Mutex
	meta   *types.Metadata

	events retriever.EventRetriever
}

// ClientOptions configures Dial.
type ClientOptions struct {
	SS58Prefix uint16
	Logger     *zap.SugaredLogger
}

// Dial connects to a Zeitgeist node over websocket or http.
func Dial(endpoint string, opts ClientOptions) (*Client, error) {
	api, err := gsrpc.NewSubstrateAPI(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}

	events, err := retriever.NewDefaultEventRetriever(regstate.NewEventProvider(api.RPC.State), api.RPC.State)
	if err != nil {
		return nil, fmt.Errorf("failed to create event retriever: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	prefix := opts.SS58Prefix
	if prefix == 0 {
		prefix = ZeitgeistSS58Prefix
	}

	logger.Debugw("Connected to chain", "endpoint", endpoint)

	return &Client{
		api:        api,
		endpoint:   endpoint,
		ss58Prefix: prefix,
		logger:     logger,
		events:     events,
	}, nil
}

func (c *Client) Endpoint() string   { return c.endpoint }
func (c *Client) SS58Prefix() uint16 { return c.ss58Prefix }

// Close releases the websocket connection if the transport has one.
func (c *Client) Close() {
	if closer, ok := c.api.Client.(interface{ Close() }); ok {
		closer.Close()
	}
}

// MarketKeys returns every PredictionMarkets.Markets storage key as 0x-prefixed hex.
func (c *Client) MarketKeys(ctx context.Context) ([]string, error) {
	prefix := "0x" + hex.EncodeToString(StoragePrefix(palletPredictionMarkets, storageMarkets))

	var (
		all   []string
		start string
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var page []string
		args := []interface{}{prefix, keysPageSize}
		if start != "" {
			args = append(args, start)
		}
		if err := c.api.Client.Call(&page, "state_getKeysPaged", args...); err != nil {
			return nil, fmt.Errorf("failed to list market keys: %w", err)
		}
		all = append(all, page...)
		if len(page) < keysPageSize {
			return all, nil
		}
		start = page[len(page)-1]
	}
}

// Market reads one market record. ok is false when no record exists at id.
func (c *Client) Market(ctx context.Context, id MarketID) (*RawMarket, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var raw RawMarket
	ok, err := c.api.RPC.State.GetStorageLatest(types.NewStorageKey(MarketStorageKey(id)), &raw)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read market %d: %w", id, err)
	}
	if !ok {
		return nil, false, nil
	}
	return &raw, true, nil
}

// ShareID asks the node for the share hash of an outcome of a market.
func (c *Client) ShareID(ctx context.Context, id MarketID, index uint16) (ShareID, error) {
	if err := ctx.Err(); err != nil {
		return ShareID{}, err
	}

	var res string
	if err := c.api.Client.Call(&res, "predictionMarkets_marketOutcomeShareId", uint64(id), index); err != nil {
		return ShareID{}, fmt.Errorf("failed to get share id for market %d outcome %d: %w", id, index, err)
	}
	b, err := codec.HexDecodeString(res)
	if err != nil {
		return ShareID{}, fmt.Errorf("failed to decode share id %q: %w", res, err)
	}
	return types.NewHash(b), nil
}

// ShareAccount reads the free and reserved balance of account in share.
// A missing entry is an all-zero account.
func (c *Client) ShareAccount(ctx context.Context, share ShareID, account types.AccountID) (*ShareAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := StoragePrefix(palletShares, storageAccounts)
	key = append(key, Blake2_128Concat(share[:])...)
	key = append(key, Blake2_128Concat(account[:])...)

	var acc ShareAccount
	ok, err := c.api.RPC.State.GetStorageLatest(types.NewStorageKey(key), &acc)
	if err != nil {
		return nil, fmt.Errorf("failed to read share account: %w", err)
	}
	if !ok {
		return &ShareAccount{Free: types.NewU128(big.Int{}), Reserved: types.NewU128(big.Int{})}, nil
	}
	return &acc, nil
}

// ShareTotalSupply reads the issued amount of share.
func (c *Client) ShareTotalSupply(ctx context.Context, share ShareID) (types.U128, error) {
	if err := ctx.Err(); err != nil {
		return types.U128{}, err
	}

	key := append(StoragePrefix(palletShares, storageTotalSupply), Blake2_128Concat(share[:])...)

	var supply types.U128
	ok, err := c.api.RPC.State.GetStorageLatest(types.NewStorageKey(key), &supply)
	if err != nil {
		return types.U128{}, fmt.Errorf("failed to read total supply: %w", err)
	}
	if !ok {
		return types.NewU128(big.Int{}), nil
	}
	return supply, nil
}

func (c *Client) metadata() (*types.Metadata, error) {
	c.metaMu.Lock()
	defer c.metaMu.Unlock()

	if c.meta != nil {
		return c.meta, nil
	}
	meta, err := c.api.RPC.State.GetMetadataLatest()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runtime metadata: %w", err)
	}
	c.meta = meta
	return meta, nil
}

var _ ChainReader = (*Client)(nil)
