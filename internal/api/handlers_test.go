package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zeitgeistpm/zeitgeist-go/internal/markets"
	"github.com/zeitgeistpm/zeitgeist-go/internal/onchain"
	"github.com/zeitgeistpm/zeitgeist-go/internal/shares"
	"go.uber.org/zap"
)

type MockMarkets struct {
	mock.Mock
}

func (m *MockMarkets) ListAllIDs(ctx context.Context) ([]onchain.MarketID, error) {
	args := m.Called(ctx)
	if ids := args.Get(0); ids != nil {
		return ids.([]onchain.MarketID), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMarkets) ListAll(ctx context.Context) ([]*markets.Market, error) {
	args := m.Called(ctx)
	if list := args.Get(0); list != nil {
		return list.([]*markets.Market), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMarkets) Assemble(ctx context.Context, id onchain.MarketID) (*markets.Market, error) {
	args := m.Called(ctx, id)
	if mk := args.Get(0); mk != nil {
		return mk.(*markets.Market), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockShares struct {
	mock.Mock
}

func (m *MockShares) TotalSupply(ctx context.Context, id onchain.MarketID, index uint16) (decimal.Decimal, error) {
	args := m.Called(ctx, id, index)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockShares) Balance(ctx context.Context, id onchain.MarketID, index uint16, account string) (*shares.Balance, error) {
	args := m.Called(ctx, id, index, account)
	if b := args.Get(0); b != nil {
		return b.(*shares.Balance), args.Error(1)
	}
	return nil, args.Error(1)
}

type failingPinger struct{ err error }

func (p failingPinger) Ping(context.Context) error { return p.err }

func newTestRouter(t *testing.T, cache Pinger) (http.Handler, *MockMarkets, *MockShares) {
	t.Helper()
	mk := &MockMarkets{}
	sh := &MockShares{}
	logger := zap.NewNop().Sugar()

	h := NewHandler(mk, sh, cache, logger)
	router := h.Routes(NewMiddleware(logger, nil), []string{"http://localhost:3000"}, 0, nil)
	t.Cleanup(func() {
		mk.AssertExpectations(t)
		sh.AssertExpectations(t)
	})
	return router, mk, sh
}

func doGet(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestListMarketIDs(t *testing.T) {
	router, mk, _ := newTestRouter(t, nil)
	mk.On("ListAllIDs", mock.Anything).Return([]onchain.MarketID{0, 7, 42}, nil)

	rec := doGet(t, router, "/v1/markets/ids")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var dto MarketIDsDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, []string{"0", "7", "42"}, dto.IDs)
	assert.Equal(t, 3, dto.Count)
}

func TestListMarkets(t *testing.T) {
	t.Run("populated", func(t *testing.T) {
		router, mk, _ := newTestRouter(t, nil)
		mk.On("ListAll", mock.Anything).Return([]*markets.Market{
			{MarketID: 1, Title: "one"},
			{MarketID: 2, Title: "two"},
		}, nil)

		rec := doGet(t, router, "/v1/markets")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Markets []struct {
				MarketID uint64 `json:"marketId"`
				Title    string `json:"title"`
			} `json:"markets"`
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Markets, 2)
		assert.Equal(t, uint64(1), body.Markets[0].MarketID)
		assert.Equal(t, "two", body.Markets[1].Title)
		assert.Equal(t, 2, body.Count)
	})

	t.Run("empty renders an array", func(t *testing.T) {
		router, mk, _ := newTestRouter(t, nil)
		mk.On("ListAll", mock.Anything).Return(nil, nil)

		rec := doGet(t, router, "/v1/markets")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"markets":[],"count":0}`, rec.Body.String())
	})

	t.Run("chain failure", func(t *testing.T) {
		router, mk, _ := newTestRouter(t, nil)
		mk.On("ListAll", mock.Anything).Return(nil, errors.New("connection reset"))

		rec := doGet(t, router, "/v1/markets")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "CHAIN_ERROR", decodeError(t, rec).Code)
	})
}

func TestGetMarket(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		router, mk, _ := newTestRouter(t, nil)
		mk.On("Assemble", mock.Anything, onchain.MarketID(5)).Return(&markets.Market{
			MarketID:      5,
			Title:         "Will it rain?",
			Categories:    []string{"Yes", "No"},
			OutcomeAssets: []markets.AssetID{markets.CategoricalOutcome(5, 0), markets.CategoricalOutcome(5, 1)},
		}, nil)

		rec := doGet(t, router, "/v1/markets/5")
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Will it rain?", body["title"])
		assert.Len(t, body["outcomeAssets"], 2)
	})

	t.Run("not found", func(t *testing.T) {
		router, mk, _ := newTestRouter(t, nil)
		mk.On("Assemble", mock.Anything, onchain.MarketID(99)).
			Return(nil, fmt.Errorf("market 99: %w", markets.ErrNotFound))

		rec := doGet(t, router, "/v1/markets/99")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "MARKET_NOT_FOUND", decodeError(t, rec).Code)
	})

	t.Run("unsupported market type", func(t *testing.T) {
		router, mk, _ := newTestRouter(t, nil)
		mk.On("Assemble", mock.Anything, onchain.MarketID(3)).
			Return(nil, &markets.UnsupportedMarketTypeError{MarketID: 3})

		rec := doGet(t, router, "/v1/markets/3")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "UNSUPPORTED_MARKET_TYPE", decodeError(t, rec).Code)
	})

	for _, bad := range []string{"abc", "-1", "18446744073709551616"} {
		t.Run("bad id "+bad, func(t *testing.T) {
			router, _, _ := newTestRouter(t, nil)

			rec := doGet(t, router, "/v1/markets/"+bad)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "INVALID_MARKET_ID", decodeError(t, rec).Code)
		})
	}
}

func TestGetShareSupply(t *testing.T) {
	router, _, sh := newTestRouter(t, nil)
	sh.On("TotalSupply", mock.Anything, onchain.MarketID(4), uint16(1)).
		Return(decimal.RequireFromString("1500000000000"), nil)

	rec := doGet(t, router, "/v1/shares/4/1/supply")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"marketId":"4","index":1,"supply":"1500000000000"}`, rec.Body.String())
}

func TestGetShareSupplyBadIndex(t *testing.T) {
	router, _, _ := newTestRouter(t, nil)

	rec := doGet(t, router, "/v1/shares/4/70000/supply")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_OUTCOME_INDEX", decodeError(t, rec).Code)
}

func TestGetShareBalance(t *testing.T) {
	account := onchain.EncodeAddress(make([]byte, 32), 73)

	t.Run("ok", func(t *testing.T) {
		router, _, sh := newTestRouter(t, nil)
		sh.On("Balance", mock.Anything, onchain.MarketID(4), uint16(2), account).Return(&shares.Balance{
			Free:     decimal.NewFromInt(10),
			Reserved: decimal.NewFromInt(3),
		}, nil)

		rec := doGet(t, router, "/v1/shares/4/2/accounts/"+account)
		require.Equal(t, http.StatusOK, rec.Code)

		var dto AccountBalanceDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
		assert.Equal(t, "10", dto.Free)
		assert.Equal(t, "3", dto.Reserved)
		assert.Equal(t, account, dto.Account)
	})

	t.Run("bad account", func(t *testing.T) {
		router, _, _ := newTestRouter(t, nil)

		rec := doGet(t, router, "/v1/shares/4/2/accounts/not-an-address")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_ACCOUNT", decodeError(t, rec).Code)
	})

	t.Run("timeout", func(t *testing.T) {
		router, _, sh := newTestRouter(t, nil)
		sh.On("Balance", mock.Anything, onchain.MarketID(4), uint16(2), account).
			Return(nil, fmt.Errorf("rpc: %w", context.DeadlineExceeded))

		rec := doGet(t, router, "/v1/shares/4/2/accounts/"+account)
		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	router, _, _ := newTestRouter(t, nil)

	rec := doGet(t, router, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = doGet(t, router, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadyzCacheDown(t *testing.T) {
	router, _, _ := newTestRouter(t, failingPinger{err: errors.New("dial tcp: refused")})

	rec := doGet(t, router, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","reasons":["CACHE_UNREACHABLE"]}`, rec.Body.String())
}

func TestRequestIDHeader(t *testing.T) {
	router, _, _ := newTestRouter(t, nil)

	rec := doGet(t, router, "/healthz")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
}

func TestRateLimit(t *testing.T) {
	mw := NewMiddleware(nil, nil)
	h := mw.RateLimit(6)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	// burst is one request at 6 rpm
	rec := doGet(t, h, "/")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doGet(t, h, "/")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRecoverer(t *testing.T) {
	mw := NewMiddleware(nil, nil)
	h := mw.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := doGet(t, h, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
