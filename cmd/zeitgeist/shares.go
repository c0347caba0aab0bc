package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/zeitgeistpm/zeitgeist-go/internal/onchain"
)

// parseAmount reads a raw on-chain amount in the smallest unit.
func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, errors.New("--amount is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive, got %s", s)
	}
	if !d.Equal(d.Truncate(0)) {
		return decimal.Zero, fmt.Errorf("amount must be a whole number of the smallest unit, got %s", s)
	}
	return d, nil
}

type shareRef struct {
	market string
	index  uint16
}

func (r *shareRef) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.market, "market", "", "market id")
	cmd.Flags().Uint16Var(&r.index, "index", 0, "outcome index (0 invalid, 1 yes, 2 no on binary markets)")
	_ = cmd.MarkFlagRequired("market")
}

func (r *shareRef) marketID() (onchain.MarketID, error) {
	return onchain.ParseMarketID(r.market)
}

func newWrapCmd(opts *globalOptions) *cobra.Command {
	var amount string
	cmd := &cobra.Command{
		Use:   "wrap-native-currency",
		Short: "Wrap native currency into the native share",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amt, err := parseAmount(amount)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				signer, err := a.signer()
				if err != nil {
					return err
				}
				hash, err := a.shares.WrapNativeCurrency(ctx, signer, amt)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), hash.Hex())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "amount to wrap in the smallest unit")
	return cmd
}

func newUnwrapCmd(opts *globalOptions) *cobra.Command {
	var amount string
	cmd := &cobra.Command{
		Use:   "unwrap-native-currency",
		Short: "Unwrap the native share back into native currency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amt, err := parseAmount(amount)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				signer, err := a.signer()
				if err != nil {
					return err
				}
				hash, err := a.shares.UnwrapNativeCurrency(ctx, signer, amt)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), hash.Hex())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "amount to unwrap in the smallest unit")
	return cmd
}

func newTransferCmd(opts *globalOptions) *cobra.Command {
	var (
		ref    shareRef
		to     string
		amount string
	)
	cmd := &cobra.Command{
		Use:   "transfer-share",
		Short: "Transfer outcome shares to another account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := ref.marketID()
			if err != nil {
				return err
			}
			amt, err := parseAmount(amount)
			if err != nil {
				return err
			}
			if _, _, err := onchain.DecodeAddress(to); err != nil {
				return fmt.Errorf("invalid destination: %w", err)
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				signer, err := a.signer()
				if err != nil {
					return err
				}
				hash, err := a.shares.Transfer(ctx, signer, id, ref.index, to, amt)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), hash.Hex())
				return nil
			})
		},
	}
	ref.bind(cmd)
	cmd.Flags().StringVar(&to, "to", "", "destination SS58 address")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in the smallest unit")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newBalanceCmd(opts *globalOptions) *cobra.Command {
	var (
		ref     shareRef
		account string
	)
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the free and reserved balance of an outcome share",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := ref.marketID()
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				who := account
				if who == "" {
					signer, err := a.signer()
					if err != nil {
						return fmt.Errorf("--account or a seed is required: %w", err)
					}
					who = signer.Address()
				}
				bal, err := a.shares.Balance(ctx, id, ref.index, who)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				printField(out, "account", who)
				printField(out, "free", bal.Free)
				printField(out, "reserved", bal.Reserved)
				return nil
			})
		},
	}
	ref.bind(cmd)
	cmd.Flags().StringVar(&account, "account", "", "SS58 address, defaults to the signer")
	return cmd
}

func newSupplyCmd(opts *globalOptions) *cobra.Command {
	var ref shareRef
	cmd := &cobra.Command{
		Use:   "supply",
		Short: "Show the total issuance of an outcome share",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := ref.marketID()
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				supply, err := a.shares.TotalSupply(ctx, id, ref.index)
				if err != nil {
					return err
				}
				printField(cmd.OutOrStdout(), "supply", supply)
				return nil
			})
		},
	}
	ref.bind(cmd)
	return cmd
}
