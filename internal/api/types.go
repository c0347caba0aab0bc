package api

import (
	"github.com/zeitgeistpm/zeitgeist-go/internal/markets"
)

type MarketIDsDTO struct {
	IDs   []string `json:"ids"`
	Count int      `json:"count"`
}

type MarketsDTO struct {
	Markets []*markets.Market `json:"markets"`
	Count   int               `json:"count"`
}

type SupplyDTO struct {
	MarketID string `json:"marketId"`
	Index    uint16 `json:"index"`
	Supply   string `json:"supply"`
}

type AccountBalanceDTO struct {
	MarketID string `json:"marketId"`
	Index    uint16 `json:"index"`
	Account  string `json:"account"`
	Free     string `json:"free"`
	Reserved string `json:"reserved"`
}

type HealthDTO struct {
	Status  string   `json:"status"`
	Reasons []string `json:"reasons,omitempty"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
