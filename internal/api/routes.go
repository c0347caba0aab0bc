package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RequestTimeout bounds a single gateway request. Listing every market is the slowest call.
const RequestTimeout = 30 * time.Second

func (h *Handler) Routes(m *Middleware, corsOrigins []string, rateLimitRPM int, metricsHandler http.Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(m.RequestID)
	r.Use(m.RequestLogger)
	r.Use(m.Recoverer)
	r.Use(m.SecurityHeaders)
	r.Use(middleware.Compress(5, "application/json"))
	r.Use(m.Timeout(RequestTimeout))
	r.Use(middleware.Heartbeat("/ping"))

	r.Use(m.CORS(corsOrigins))
	r.Use(m.RateLimit(rateLimitRPM))

	// Health endpoints
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/markets", func(r chi.Router) {
			r.Get("/", h.ListMarkets)
			r.Get("/ids", h.ListMarketIDs)
			r.Get("/{id}", h.GetMarket)
		})

		r.Route("/shares/{marketId}/{index}", func(r chi.Router) {
			r.Get("/supply", h.GetShareSupply)
			r.Get("/accounts/{account}", h.GetShareBalance)
		})
	})

	return r
}
