package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/spf13/cobra"
	"github.com/zeitgeistpm/zeitgeist-go/internal/markets"
	"github.com/zeitgeistpm/zeitgeist-go/internal/onchain"
)

func newMarketsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "markets",
		Short: "Read and create prediction markets",
	}
	cmd.AddCommand(
		newMarketIDsCmd(opts),
		newMarketListCmd(opts),
		newMarketGetCmd(opts),
		newMarketCreateCmd(opts),
	)
	return cmd
}

func newMarketIDsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ids",
		Short: "List every market id on chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				ids, err := a.markets.ListAllIDs(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
				return nil
			})
		},
	}
}

func newMarketListCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Fetch every market with its metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				list, err := a.markets.ListAll(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return printJSON(out, list)
				}
				for _, m := range list {
					printMarketSummary(out, m)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a summary")
	return cmd
}

func newMarketGetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <market-id>",
		Short: "Fetch one market with its metadata and outcome assets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := onchain.ParseMarketID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				m, err := a.markets.Assemble(ctx, id)
				if errors.Is(err, markets.ErrNotFound) {
					return fmt.Errorf("no market with id %s", id)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), m)
			})
		},
	}
}

func printMarketSummary(w io.Writer, m *markets.Market) {
	fmt.Fprintf(w, "%s %s\n", labelColor.Sprintf("#%s", m.MarketID), m.Title)
	fmt.Fprintf(w, "  %s, %s, ends %s %d, %d outcomes\n",
		m.Status, m.MarketType, m.End.Kind(), m.End.Value, len(m.OutcomeAssets))
}

type createOptions struct {
	title        string
	description  string
	oracle       string
	endBlock     uint64
	endTimestamp uint64
	creation     string
	categories   []string
}

func (o *createOptions) params() (markets.CreateMarketParams, error) {
	var p markets.CreateMarketParams
	switch {
	case o.endBlock != 0 && o.endTimestamp != 0:
		return p, errors.New("set only one of --end-block and --end-timestamp")
	case o.endBlock != 0:
		p.End = onchain.BlockEnd(o.endBlock)
	case o.endTimestamp != 0:
		p.End = onchain.TimestampEnd(o.endTimestamp)
	default:
		return p, errors.New("one of --end-block or --end-timestamp is required")
	}

	creation, err := onchain.ParseMarketCreation(o.creation)
	if err != nil {
		return p, err
	}

	p.Title = o.title
	p.Description = o.description
	p.Oracle = o.oracle
	p.Creation = creation
	p.Categories = o.categories
	return p, nil
}

func newMarketCreateCmd(opts *globalOptions) *cobra.Command {
	o := &createOptions{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish metadata and create a categorical market",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := o.params()
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				signer, err := a.signer()
				if err != nil {
					return err
				}
				if params.Oracle == "" {
					params.Oracle = signer.Address()
				}

				out := cmd.OutOrStdout()
				id, err := a.markets.CreateMarket(ctx, signer, params, func(u onchain.TxUpdate, _ func()) {
					printField(out, "status", describeStatus(u.Status))
				})
				if err != nil {
					return err
				}
				if id == "" {
					printWarn(out, "market creation failed on chain")
					return errors.New("extrinsic failed")
				}
				printOK(out, "created market %s", id)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.title, "title", "", "market title")
	f.StringVar(&o.description, "description", "", "market description")
	f.StringVar(&o.oracle, "oracle", "", "oracle SS58 address, defaults to the signer")
	f.Uint64Var(&o.endBlock, "end-block", 0, "block number the market ends at")
	f.Uint64Var(&o.endTimestamp, "end-timestamp", 0, "unix timestamp in milliseconds the market ends at")
	f.StringVar(&o.creation, "creation", "Permissionless", "Permissionless or Advised")
	f.StringSliceVar(&o.categories, "categories", nil, "outcome names, defaults to Yes,No")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func describeStatus(s types.ExtrinsicStatus) string {
	switch {
	case s.IsFuture:
		return "future"
	case s.IsReady:
		return "ready"
	case s.IsBroadcast:
		return "broadcast"
	case s.IsInBlock:
		return "in block " + s.AsInBlock.Hex()
	case s.IsRetracted:
		return "retracted"
	case s.IsFinalityTimeout:
		return "finality timeout"
	case s.IsFinalized:
		return "finalized " + s.AsFinalized.Hex()
	case s.IsUsurped:
		return "usurped"
	case s.IsDropped:
		return "dropped"
	case s.IsInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}
