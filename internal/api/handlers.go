package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"github.com/zeitgeistpm/zeitgeist-go/internal/markets"
	"github.com/zeitgeistpm/zeitgeist-go/internal/onchain"
	"github.com/zeitgeistpm/zeitgeist-go/internal/shares"
	"go.uber.org/zap"
)

// MarketQuerier is the read side of markets.Service.
type MarketQuerier interface {
	ListAllIDs(ctx context.Context) ([]onchain.MarketID, error)
	ListAll(ctx context.Context) ([]*markets.Market, error)
	Assemble(ctx context.Context, id onchain.MarketID) (*markets.Market, error)
}

// ShareQuerier is the read side of shares.Service.
type ShareQuerier interface {
	TotalSupply(ctx context.Context, id onchain.MarketID, index uint16) (decimal.Decimal, error)
	Balance(ctx context.Context, id onchain.MarketID, index uint16, account string) (*shares.Balance, error)
}

// Pinger is a dependency whose reachability gates readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	marketsSvc MarketQuerier
	sharesSvc  ShareQuerier
	cache      Pinger
	logger     *zap.SugaredLogger
}

// NewHandler builds the gateway handlers. cache may be nil when caching is disabled.
func NewHandler(marketsSvc MarketQuerier, sharesSvc ShareQuerier, cache Pinger, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{
		marketsSvc: marketsSvc,
		sharesSvc:  sharesSvc,
		cache:      cache,
		logger:     logger,
	}
}

// Markets

func (h *Handler) ListMarketIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := h.marketsSvc.ListAllIDs(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	dto := MarketIDsDTO{IDs: make([]string, len(ids)), Count: len(ids)}
	for i, id := range ids {
		dto.IDs[i] = id.String()
	}
	h.writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	list, err := h.marketsSvc.ListAll(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []*markets.Market{}
	}
	h.writeJSON(w, http.StatusOK, MarketsDTO{Markets: list, Count: len(list)})
}

func (h *Handler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id, ok := h.marketIDParam(w, r, "id")
	if !ok {
		return
	}

	market, err := h.marketsSvc.Assemble(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, market)
}

// Shares

func (h *Handler) GetShareSupply(w http.ResponseWriter, r *http.Request) {
	id, ok := h.marketIDParam(w, r, "marketId")
	if !ok {
		return
	}
	index, ok := h.indexParam(w, r)
	if !ok {
		return
	}

	supply, err := h.sharesSvc.TotalSupply(r.Context(), id, index)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, SupplyDTO{
		MarketID: id.String(),
		Index:    index,
		Supply:   supply.String(),
	})
}

func (h *Handler) GetShareBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.marketIDParam(w, r, "marketId")
	if !ok {
		return
	}
	index, ok := h.indexParam(w, r)
	if !ok {
		return
	}
	account := chi.URLParam(r, "account")
	if _, _, err := onchain.DecodeAddress(account); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "INVALID_ACCOUNT", err.Error())
		return
	}

	bal, err := h.sharesSvc.Balance(r.Context(), id, index, account)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, AccountBalanceDTO{
		MarketID: id.String(),
		Index:    index,
		Account:  account,
		Free:     bal.Free.String(),
		Reserved: bal.Reserved.String(),
	})
}

// Health and ops endpoints

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			h.writeJSON(w, http.StatusServiceUnavailable, HealthDTO{
				Status:  "degraded",
				Reasons: []string{"CACHE_UNREACHABLE"},
			})
			return
		}
	}
	h.writeJSON(w, http.StatusOK, HealthDTO{Status: "ok"})
}

func (h *Handler) marketIDParam(w http.ResponseWriter, r *http.Request, name string) (onchain.MarketID, bool) {
	id, err := onchain.ParseMarketID(chi.URLParam(r, name))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "INVALID_MARKET_ID", err.Error())
		return 0, false
	}
	return id, true
}

func (h *Handler) indexParam(w http.ResponseWriter, r *http.Request) (uint16, bool) {
	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 16)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "INVALID_OUTCOME_INDEX", "outcome index must be an integer in [0, 65535]")
		return 0, false
	}
	return uint16(index), true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var unsupported *markets.UnsupportedMarketTypeError
	switch {
	case errors.Is(err, markets.ErrNotFound):
		h.writeError(w, r, http.StatusNotFound, "MARKET_NOT_FOUND", err.Error())
	case errors.As(err, &unsupported):
		h.writeError(w, r, http.StatusUnprocessableEntity, "UNSUPPORTED_MARKET_TYPE", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, r, http.StatusGatewayTimeout, "CHAIN_TIMEOUT", err.Error())
	default:
		h.writeError(w, r, http.StatusBadGateway, "CHAIN_ERROR", err.Error())
	}
}

// Utility methods
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Errorw("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	h.logger.Errorw("API error",
		"request_id", middleware.GetReqID(r.Context()),
		"code", code,
		"message", message,
		"status", status,
	)
	h.writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
