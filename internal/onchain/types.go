package onchain

import (
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/shopspring/decimal"
)

const (
	palletPredictionMarkets = "PredictionMarkets"
	palletShares            = "Shares"
	storageMarkets          = "Markets"
	storageAccounts         = "Accounts"
	storageTotalSupply      = "TotalSupply"
)

// MarketTypeKind tags the market type enum.
type MarketTypeKind uint8

const (
	MarketTypeCategorical MarketTypeKind = 0
	MarketTypeScalar      MarketTypeKind = 1
)

// MarketType is Categorical(n) or Scalar(low..=high). Tags this SDK does not know are kept
// in Kind so the caller can reject them.
type MarketType struct {
	Kind       MarketTypeKind
	Categories uint16
	Bounds     [2]types.U128
}

func (m MarketType) IsCategorical() bool { return m.Kind == MarketTypeCategorical }
func (m MarketType) IsScalar() bool      { return m.Kind == MarketTypeScalar }

// Known reports whether the tag is one this SDK models.
func (m MarketType) Known() bool {
	return m.Kind == MarketTypeCategorical || m.Kind == MarketTypeScalar
}

func (m MarketType) String() string {
	switch m.Kind {
	case MarketTypeCategorical:
		return fmt.Sprintf("Categorical(%d)", m.Categories)
	case MarketTypeScalar:
		return fmt.Sprintf("Scalar(%s..=%s)", u128String(m.Bounds[0]), u128String(m.Bounds[1]))
	default:
		return fmt.Sprintf("Unknown(%d)", m.Kind)
	}
}

func (m *MarketType) Decode(decoder scale.Decoder) error {
	tag, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	m.Kind = MarketTypeKind(tag)
	switch m.Kind {
	case MarketTypeCategorical:
		var n types.U16
		if err := decoder.Decode(&n); err != nil {
			return err
		}
		m.Categories = uint16(n)
	case MarketTypeScalar:
		if err := decoder.Decode(&m.Bounds[0]); err != nil {
			return err
		}
		return decoder.Decode(&m.Bounds[1])
	}
	return nil
}

// MarketEnd is the block number or unix timestamp at which a market closes.
type MarketEnd struct {
	IsTimestamp bool
	Value       uint64
}

func BlockEnd(block uint64) MarketEnd { return MarketEnd{Value: block} }

func TimestampEnd(unix uint64) MarketEnd { return MarketEnd{IsTimestamp: true, Value: unix} }

func (e MarketEnd) Kind() string {
	if e.IsTimestamp {
		return "timestamp"
	}
	return "block"
}

func (e *MarketEnd) Decode(decoder scale.Decoder) error {
	tag, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	switch tag {
	case 0:
		e.IsTimestamp = false
	case 1:
		e.IsTimestamp = true
	default:
		return fmt.Errorf("unknown MarketEnd variant %d", tag)
	}
	var v types.U64
	if err := decoder.Decode(&v); err != nil {
		return err
	}
	e.Value = uint64(v)
	return nil
}

func (e MarketEnd) Encode(encoder scale.Encoder) error {
	tag := byte(0)
	if e.IsTimestamp {
		tag = 1
	}
	if err := encoder.PushByte(tag); err != nil {
		return err
	}
	return encoder.Encode(types.NewU64(e.Value))
}

// MarketCreation is how a market entered the chain.
type MarketCreation uint8

const (
	CreationPermissionless MarketCreation = 0
	CreationAdvised        MarketCreation = 1
)

// ParseMarketCreation accepts the names used by the node's RPC.
func ParseMarketCreation(s string) (MarketCreation, error) {
	switch s {
	case "Permissionless", "permissionless":
		return CreationPermissionless, nil
	case "Advised", "advised":
		return CreationAdvised, nil
	default:
		return 0, fmt.Errorf("unknown market creation %q (want Permissionless or Advised)", s)
	}
}

func (c MarketCreation) String() string {
	if c == CreationPermissionless {
		return "Permissionless"
	}
	return "Advised"
}

func (c *MarketCreation) Decode(decoder scale.Decoder) error {
	b, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	*c = MarketCreation(b)
	return nil
}

func (c MarketCreation) Encode(encoder scale.Encoder) error {
	return encoder.PushByte(byte(c))
}

// MarketStatus is the lifecycle state of a market.
type MarketStatus uint8

var marketStatusNames = []string{"Proposed", "Active", "Suspended", "Closed", "Reported", "Disputed", "Resolved"}

func (s MarketStatus) String() string {
	if int(s) < len(marketStatusNames) {
		return marketStatusNames[s]
	}
	return fmt.Sprintf("Unknown(%d)", uint8(s))
}

func (s *MarketStatus) Decode(decoder scale.Decoder) error {
	b, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	*s = MarketStatus(b)
	return nil
}

// RawMarket is a PredictionMarkets.Markets entry as stored on chain.
type RawMarket struct {
	Creator    types.AccountID
	Creation   MarketCreation
	CreatorFee uint8
	Oracle     types.AccountID
	End        MarketEnd
	Metadata   types.Bytes
	MarketType MarketType
	Status     MarketStatus
}

func (m *RawMarket) Decode(decoder scale.Decoder) error {
	if err := decoder.Decode(&m.Creator); err != nil {
		return fmt.Errorf("creator: %w", err)
	}
	if err := decoder.Decode(&m.Creation); err != nil {
		return fmt.Errorf("creation: %w", err)
	}
	fee, err := decoder.ReadOneByte()
	if err != nil {
		return fmt.Errorf("creator_fee: %w", err)
	}
	m.CreatorFee = fee
	if err := decoder.Decode(&m.Oracle); err != nil {
		return fmt.Errorf("oracle: %w", err)
	}
	if err := decoder.Decode(&m.End); err != nil {
		return fmt.Errorf("end: %w", err)
	}
	if err := decoder.Decode(&m.Metadata); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	if err := decoder.Decode(&m.MarketType); err != nil {
		return fmt.Errorf("market_type: %w", err)
	}
	// The payload of an unknown market type has unknown width, nothing after it can be read.
	if !m.MarketType.Known() {
		return nil
	}
	if err := decoder.Decode(&m.Status); err != nil {
		return fmt.Errorf("status: %w", err)
	}
	return nil
}

// MetadataLocator is the content-store reference stored in the market, as text.
func (m *RawMarket) MetadataLocator() string {
	return string(m.Metadata)
}

// ShareAccount is a Shares.Accounts entry.
type ShareAccount struct {
	Free     types.U128
	Reserved types.U128
}

// ShareID identifies an outcome share (or the native share) in the Shares pallet.
type ShareID = types.Hash

// NativeShareID is the share id of the wrapped native currency.
var NativeShareID = ShareID{}

// U128ToDecimal converts a chain balance into a decimal with no scaling applied.
func U128ToDecimal(v types.U128) decimal.Decimal {
	if v.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v.Int, 0)
}

// DecimalToU128 converts a non-negative integral amount into a chain balance.
func DecimalToU128(d decimal.Decimal) (types.U128, error) {
	if d.IsNegative() {
		return types.U128{}, fmt.Errorf("amount %s is negative", d)
	}
	if !d.Equal(d.Truncate(0)) {
		return types.U128{}, fmt.Errorf("amount %s is not an integer", d)
	}
	return types.NewU128(*d.BigInt()), nil
}

func u128String(v types.U128) string {
	if v.Int == nil {
		return "0"
	}
	return v.String()
}
