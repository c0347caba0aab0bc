package markets

import (
	"github.com/zeitgeistpm/zeitgeist-go/internal/onchain"
)

// DeriveAssets lists the outcome assets of a market: one per category, in index
// order, for a categorical market and Long then Short for a scalar one.
func DeriveAssets(id onchain.MarketID, marketType onchain.MarketType) ([]AssetID, error) {
	switch {
	case marketType.IsCategorical():
		assets := make([]AssetID, 0, marketType.Categories)
		for i := uint16(0); i < marketType.Categories; i++ {
			assets = append(assets, CategoricalOutcome(id, i))
		}
		return assets, nil
	case marketType.IsScalar():
		return []AssetID{ScalarOutcome(id, Long), ScalarOutcome(id, Short)}, nil
	default:
		return nil, &UnsupportedMarketTypeError{MarketID: id, Type: marketType}
	}
}
