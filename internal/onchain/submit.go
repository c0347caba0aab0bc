package onchain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// TxUpdate is one status change of a watched extrinsic. Events is filled once the
// extrinsic is in a block.
type TxUpdate struct {
	Status    types.ExtrinsicStatus
	Events    []Event
	EventsErr error
}

// StatusFunc receives every update of a watched extrinsic. Calling unsubscribe stops the watch.
type StatusFunc func(update TxUpdate, unsubscribe func())

// Submitter signs and sends extrinsics.
type Submitter interface {
	Submit(ctx context.Context, signer Signer, call string, args ...interface{}) (types.Hash, error)
	SubmitAndWatch(ctx context.Context, signer Signer, onStatus StatusFunc, call string, args ...interface{}) error
}

// Call names of the pallets this SDK drives.
const (
	CallWrapNativeCurrency      = "Shares.wrap_native_currency"
	CallUnwrapNativeCurrency    = "Shares.unwrap_native_currency"
	CallShareTransfer           = "Shares.transfer"
	CallCreateCategoricalMarket = "PredictionMarkets.create_categorical_market"
)

var ErrNilSigner = errors.New("signer is required")

// Submit signs call and sends it without waiting for inclusion. The returned hash is the
// extrinsic hash.
func (c *Client) Submit(ctx context.Context, signer Signer, call string, args ...interface{}) (types.Hash, error) {
	ext, err := c.signedExtrinsic(ctx, signer, call, args...)
	if err != nil {
		return types.Hash{}, err
	}

	hash, err := c.api.RPC.Author.SubmitExtrinsic(ext)
	if err != nil {
		return types.Hash{}, fmt.Errorf("failed to submit %s: %w", call, err)
	}

	c.logger.Infow("Extrinsic submitted", "call", call, "signer", signer.Address(), "hash", hash.Hex())
	return hash, nil
}

// SubmitAndWatch signs call, sends it and streams its status to onStatus until the
// extrinsic is finalized or dropped, onStatus unsubscribes, or ctx is done.
func (c *Client) SubmitAndWatch(ctx context.Context, signer Signer, onStatus StatusFunc, call string, args ...interface{}) error {
	ext, err := c.signedExtrinsic(ctx, signer, call, args...)
	if err != nil {
		return err
	}

	sub, err := c.api.RPC.Author.SubmitAndWatchExtrinsic(ext)
	if err != nil {
		return fmt.Errorf("failed to submit %s: %w", call, err)
	}

	var once sync.Once
	done := make(chan struct{})
	unsubscribe := func() {
		once.Do(func() {
			sub.Unsubscribe()
			close(done)
		})
	}
	defer unsubscribe()

	c.logger.Infow("Extrinsic submitted, watching status", "call", call, "signer", signer.Address())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			return nil
		case err := <-sub.Err():
			if err == nil {
				return nil
			}
			return fmt.Errorf("status subscription for %s failed: %w", call, err)
		case status := <-sub.Chan():
			update := TxUpdate{Status: status}
			if status.IsInBlock {
				c.logger.Infow("Transaction included", "call", call, "block", status.AsInBlock.Hex())
				update.Events, update.EventsErr = c.BlockEvents(status.AsInBlock)
				if update.EventsErr != nil {
					c.logger.Warnw("Failed to read block events", "block", status.AsInBlock.Hex(), "error", update.EventsErr)
				}
			}
			if onStatus != nil {
				onStatus(update, unsubscribe)
			}
			if terminal(status) {
				return nil
			}
		}
	}
}

func terminal(s types.ExtrinsicStatus) bool {
	return s.IsFinalized || s.IsDropped || s.IsInvalid || s.IsUsurped || s.IsFinalityTimeout
}

func (c *Client) signedExtrinsic(ctx context.Context, signer Signer, call string, args ...interface{}) (types.Extrinsic, error) {
	if signer == nil {
		return types.Extrinsic{}, ErrNilSigner
	}
	if err := ctx.Err(); err != nil {
		return types.Extrinsic{}, err
	}

	meta, err := c.metadata()
	if err != nil {
		return types.Extrinsic{}, err
	}
	cl, err := types.NewCall(meta, call, args...)
	if err != nil {
		return types.Extrinsic{}, fmt.Errorf("failed to build call %s: %w", call, err)
	}
	ext := types.NewExtrinsic(cl)

	genesis, err := c.api.RPC.Chain.GetBlockHash(0)
	if err != nil {
		return types.Extrinsic{}, fmt.Errorf("failed to get genesis hash: %w", err)
	}
	rv, err := c.api.RPC.State.GetRuntimeVersionLatest()
	if err != nil {
		return types.Extrinsic{}, fmt.Errorf("failed to get runtime version: %w", err)
	}

	var nonce uint64
	if err := c.api.Client.Call(&nonce, "system_accountNextIndex", signer.Address()); err != nil {
		return types.Extrinsic{}, fmt.Errorf("failed to get nonce of %s: %w", signer.Address(), err)
	}

	opts := types.SignatureOptions{
		BlockHash:          genesis,
		Era:                types.ExtrinsicEra{IsMortalEra: false},
		GenesisHash:        genesis,
		Nonce:              types.NewUCompactFromUInt(nonce),
		SpecVersion:        rv.SpecVersion,
		Tip:                types.NewUCompactFromUInt(0),
		TransactionVersion: rv.TransactionVersion,
	}
	if err := signer.Sign(&ext, opts); err != nil {
		return types.Extrinsic{}, fmt.Errorf("failed to sign %s: %w", call, err)
	}
	return ext, nil
}

var _ Submitter = (*Client)(nil)
