package markets

import (
	"errors"
	"fmt"

	"github.com/zeitgeistpm/zeitgeist-go/internal/onchain"
)

// ErrNotFound is returned when no market is stored under the requested id.
var ErrNotFound = errors.New("market not found")

// ErrReadOnly is returned by mutations on a service built without a submitter.
var ErrReadOnly = errors.New("market service has no extrinsic submitter")

// ErrNotIncluded is returned when a market creation left the pool without
// reaching a block.
var ErrNotIncluded = errors.New("extrinsic was not included in a block")

// UnsupportedMarketTypeError is returned for a market type this client cannot model.
type UnsupportedMarketTypeError struct {
	MarketID onchain.MarketID
	Type     onchain.MarketType
}

func (e *UnsupportedMarketTypeError) Error() string {
	return fmt.Sprintf("market %d has unsupported market type %s", e.MarketID, e.Type)
}
