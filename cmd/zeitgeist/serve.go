package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/zeitgeistpm/zeitgeist-go/internal/api"
	"github.com/zeitgeistpm/zeitgeist-go/internal/jobs"
	"github.com/zeitgeistpm/zeitgeist-go/internal/metrics"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the read-only HTTP gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides ZTG_HTTP_ADDR")
	return cmd
}

func runServe(ctx context.Context, opts *globalOptions, addr string) error {
	metricsObj, metricsHandler, err := metrics.Setup("zeitgeist-gateway")
	if err != nil {
		return err
	}

	a, err := newApp(opts, false, metricsObj)
	if err != nil {
		return err
	}
	defer a.Close()

	logger := a.logger
	cfg := a.cfg
	if addr == "" {
		addr = cfg.HTTP.Addr
	}

	logger.Infow("Starting Zeitgeist gateway",
		"env", cfg.Env,
		"addr", addr,
		"endpoint", cfg.Chain.Endpoint,
		"cache", cfg.Cache.Backend,
	)

	var cache api.Pinger
	if a.cache != nil {
		cache = a.cache
	}
	handler := api.NewHandler(a.markets, a.shares, cache, logger)
	middleware := api.NewMiddleware(logger, metricsObj)
	router := handler.Routes(middleware, cfg.HTTP.CORSAllowedOrigins, cfg.HTTP.RateLimitRPM, metricsHandler)

	logger.Infow("CORS configured", "allowed_origins", cfg.HTTP.CORSAllowedOrigins)

	if cfg.Markets.WarmInterval > 0 {
		warmer := jobs.NewMarketWarmer(a.markets, logger, jobs.MarketWarmerConfig{Interval: cfg.Markets.WarmInterval})
		go func() {
			if err := warmer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorw("Market warmer error", "error", err)
			}
		}()
		defer warmer.Stop()
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: api.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Infow("API server starting", "addr", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Errorw("Server startup failed", "error", err)
		return err
	case <-ctx.Done():
		logger.Infow("Shutdown signal received")

		// Give outstanding requests 30 seconds to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorw("Graceful shutdown failed", "error", err)
			server.Close()
		}

		logger.Infow("Server stopped")
		return nil
	}
}
