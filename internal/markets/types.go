package markets

import (
	"encoding/json"
	"fmt"

	"github.com/zeitgeistpm/zeitgeist-go/internal/onchain"
)

// Market is one prediction market as read from chain storage and its metadata
// document. It is a snapshot of the chain at fetch time.
type Market struct {
	MarketID   onchain.MarketID       `json:"marketId"`
	Creator    string                 `json:"creator"`
	Creation   onchain.MarketCreation `json:"creation"`
	CreatorFee uint8                  `json:"creatorFee"`
	Oracle     string                 `json:"oracle"`
	End        onchain.MarketEnd      `json:"end"`
	MarketType onchain.MarketType     `json:"marketType"`
	Status     onchain.MarketStatus   `json:"status"`

	MetadataString string   `json:"metadataString"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Categories     []string `json:"categories"`

	OutcomeAssets []AssetID `json:"outcomeAssets"`
}

// ScalarPosition is the side of a scalar market an outcome share pays out on.
type ScalarPosition string

const (
	Long  ScalarPosition = "Long"
	Short ScalarPosition = "Short"
)

type AssetKind uint8

const (
	AssetCategoricalOutcome AssetKind = iota
	AssetScalarOutcome
)

// AssetID identifies one outcome asset of a market.
type AssetID struct {
	Kind     AssetKind
	MarketID onchain.MarketID
	Index    uint16         // categorical only
	Position ScalarPosition // scalar only
}

func CategoricalOutcome(id onchain.MarketID, index uint16) AssetID {
	return AssetID{Kind: AssetCategoricalOutcome, MarketID: id, Index: index}
}

func ScalarOutcome(id onchain.MarketID, pos ScalarPosition) AssetID {
	return AssetID{Kind: AssetScalarOutcome, MarketID: id, Position: pos}
}

func (a AssetID) String() string {
	if a.Kind == AssetScalarOutcome {
		return fmt.Sprintf("ScalarOutcome(%d,%s)", a.MarketID, a.Position)
	}
	return fmt.Sprintf("CategoricalOutcome(%d,%d)", a.MarketID, a.Index)
}

// MarshalJSON uses the runtime's Asset enum shape, e.g. {"categoricalOutcome":[3,1]}.
func (a AssetID) MarshalJSON() ([]byte, error) {
	if a.Kind == AssetScalarOutcome {
		return json.Marshal(map[string][2]interface{}{
			"scalarOutcome": {uint64(a.MarketID), a.Position},
		})
	}
	return json.Marshal(map[string][2]interface{}{
		"categoricalOutcome": {uint64(a.MarketID), a.Index},
	})
}
