package onchain

import (
	"fmt"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// Event is a runtime event decoded against the chain's metadata.
type Event struct {
	Name   string // Pallet.Variant, e.g. PredictionMarkets.MarketCreated
	Fields []EventField
}

type EventField struct {
	Name  string
	Value interface{}
}

// Method returns the variant part of the event name.
func (e Event) Method() string {
	if i := strings.LastIndex(e.Name, "."); i >= 0 {
		return e.Name[i+1:]
	}
	return e.Name
}

// FieldString renders field i as text, or "" when the event has no such field.
func (e Event) FieldString(i int) string {
	if i < 0 || i >= len(e.Fields) {
		return ""
	}
	return fmt.Sprint(e.Fields[i].Value)
}

// Event names the SDK reacts to.
const (
	EventMarketCreated   = "MarketCreated"
	EventExtrinsicFailed = "ExtrinsicFailed"
)

// BlockEvents returns every event emitted in the block.
func (c *Client) BlockEvents(blockHash types.Hash) ([]Event, error) {
	raw, err := c.events.GetEvents(blockHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get events of block %s: %w", blockHash.Hex(), err)
	}

	events := make([]Event, 0, len(raw))
	for _, ev := range raw {
		e := Event{Name: ev.Name}
		for _, f := range ev.Fields {
			e.Fields = append(e.Fields, EventField{Name: f.Name, Value: f.Value})
		}
		events = append(events, e)
	}
	return events, nil
}
