package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zeitgeistpm/zeitgeist-go/internal/config"
	"github.com/zeitgeistpm/zeitgeist-go/internal/contentstore"
	"github.com/zeitgeistpm/zeitgeist-go/internal/log"
	"github.com/zeitgeistpm/zeitgeist-go/internal/markets"
	"github.com/zeitgeistpm/zeitgeist-go/internal/metadata"
	"github.com/zeitgeistpm/zeitgeist-go/internal/metrics"
	"github.com/zeitgeistpm/zeitgeist-go/internal/onchain"
	"github.com/zeitgeistpm/zeitgeist-go/internal/shares"
	"github.com/zeitgeistpm/zeitgeist-go/internal/store"
	"github.com/zeitgeistpm/zeitgeist-go/pkg/kv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ipfsTimeout bounds one metadata fetch or publish.
const ipfsTimeout = 30 * time.Second

// globalOptions are the persistent flags shared by every command. Empty values
// leave the ZTG_* configuration untouched.
type globalOptions struct {
	endpoint string
	seed     string
	env      string
	ipfsURL  string
	verbose  bool
}

func (o *globalOptions) apply(cfg *config.Config) error {
	if o.endpoint != "" {
		cfg.Chain.Endpoint = o.endpoint
	}
	if o.seed != "" {
		cfg.Chain.Seed = o.seed
	}
	if o.env != "" {
		cfg.Env = o.env
	}
	if o.ipfsURL != "" {
		cfg.Metadata.IPFSURL = o.ipfsURL
	}
	return cfg.Validate()
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "zeitgeist",
		Short:         "Query and drive Zeitgeist prediction markets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.endpoint, "endpoint", "", "node RPC endpoint (ws://, wss://, http:// or https://)")
	pf.StringVar(&opts.seed, "seed", "", "signing seed: hex, mnemonic or dev URI such as //Alice")
	pf.StringVar(&opts.env, "env", "", "environment name, dev or prod")
	pf.StringVar(&opts.ipfsURL, "ipfs", "", "IPFS HTTP API address")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log at info level instead of warn")

	root.AddCommand(
		newWrapCmd(opts),
		newUnwrapCmd(opts),
		newTransferCmd(opts),
		newBalanceCmd(opts),
		newSupplyCmd(opts),
		newMarketsCmd(opts),
		newServeCmd(opts),
	)
	return root
}

// app holds the clients and services one command invocation works with.
type app struct {
	cfg     *config.Config
	logger  *zap.SugaredLogger
	client  *onchain.Client
	cache   *store.Cache
	markets *markets.Service
	shares  *shares.Service
}

// newApp loads configuration, dials the node and wires the services. quiet keeps
// the logger at warn level so command output stays readable.
func newApp(opts *globalOptions, quiet bool, m *metrics.Metrics) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := opts.apply(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := log.NewSugar(cfg.Env, quiet && !opts.verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	client, err := onchain.Dial(cfg.Chain.Endpoint, onchain.ClientOptions{
		SS58Prefix: cfg.Chain.SS58Prefix,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, client: client}

	var content contentstore.Store = contentstore.NewIPFS(cfg.Metadata.IPFSURL, ipfsTimeout, logger)
	if cfg.CacheEnabled() {
		cache, err := store.NewCache(kv.Config{
			Backend:  kv.Backend(cfg.Cache.Backend),
			RedisURL: cfg.Cache.RedisURL,
		}, "ipfs", cfg.Cache.TTL, logger, m)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set up cache: %w", err)
		}
		a.cache = cache
		content = contentstore.NewCached(content, cache, logger)
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.Metadata.RPS), cfg.Metadata.Burst)
	resolver := metadata.NewResolver(content, limiter, logger, m)

	a.markets = markets.NewService(client, client, resolver, markets.Config{
		Concurrency: cfg.Markets.Concurrency,
		SS58Prefix:  cfg.Chain.SS58Prefix,
	}, logger, m)
	a.shares = shares.NewService(client, client, logger, m)
	return a, nil
}

func (a *app) signer() (onchain.Signer, error) {
	if a.cfg.Chain.Seed == "" {
		return nil, fmt.Errorf("a signing seed is required (--seed or ZTG_SEED)")
	}
	return onchain.SignerFromSeed(a.cfg.Chain.Seed, a.cfg.Chain.SS58Prefix)
}

func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warnw("Failed to close cache", "error", err)
		}
	}
	a.client.Close()
	_ = a.logger.Sync()
}

// withApp runs fn against a freshly wired app and tears it down afterwards.
func withApp(cmd *cobra.Command, opts *globalOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(opts, true, nil)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}
