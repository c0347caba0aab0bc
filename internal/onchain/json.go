package onchain

import (
	"encoding/json"
)

// MarshalJSON renders the end as {"block":n} or {"timestamp":n}.
func (e MarketEnd) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]uint64{e.Kind(): e.Value})
}

// MarshalJSON renders {"categorical":n} or {"scalar":["low","high"]}. Bounds are
// strings because they can exceed 2^53.
func (m MarketType) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case MarketTypeCategorical:
		return json.Marshal(map[string]uint16{"categorical": m.Categories})
	case MarketTypeScalar:
		return json.Marshal(map[string][2]string{
			"scalar": {u128String(m.Bounds[0]), u128String(m.Bounds[1])},
		})
	default:
		return json.Marshal(map[string]uint8{"unknown": uint8(m.Kind)})
	}
}

func (c MarketCreation) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (s MarketStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
