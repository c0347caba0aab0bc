package onchain

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rawMarketFixture struct {
	creator  byte
	oracle   byte
	end      MarketEnd
	metadata string
	typeTag  byte
	typeBody []byte
	status   byte
}

func (f rawMarketFixture) bytes() []byte {
	var buf bytes.Buffer
	buf.Write(bytes.Repeat([]byte{f.creator}, 32))
	buf.WriteByte(byte(CreationAdvised))
	buf.WriteByte(0) // creator fee
	buf.Write(bytes.Repeat([]byte{f.oracle}, 32))

	if f.end.IsTimestamp {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], f.end.Value)
	buf.Write(u64[:])

	buf.WriteByte(byte(len(f.metadata) << 2)) // compact length, short form
	buf.WriteString(f.metadata)

	buf.WriteByte(f.typeTag)
	buf.Write(f.typeBody)
	buf.WriteByte(f.status)
	return buf.Bytes()
}

func TestRawMarketDecode_Categorical(t *testing.T) {
	fixture := rawMarketFixture{
		creator:  0xaa,
		oracle:   0xbb,
		end:      BlockEnd(100000),
		metadata: "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG",
		typeTag:  0,
		typeBody: []byte{3, 0},
		status:   1,
	}

	var m RawMarket
	require.NoError(t, codec.Decode(fixture.bytes(), &m))

	assert.Equal(t, byte(0xaa), m.Creator[0])
	assert.Equal(t, byte(0xbb), m.Oracle[31])
	assert.Equal(t, CreationAdvised, m.Creation)
	assert.Equal(t, BlockEnd(100000), m.End)
	assert.Equal(t, fixture.metadata, m.MetadataLocator())
	assert.True(t, m.MarketType.IsCategorical())
	assert.Equal(t, uint16(3), m.MarketType.Categories)
	assert.Equal(t, "Active", m.Status.String())
	assert.Equal(t, "Categorical(3)", m.MarketType.String())
}

func TestRawMarketDecode_Scalar(t *testing.T) {
	body := make([]byte, 32)
	body[0] = 10  // low
	body[16] = 20 // high

	fixture := rawMarketFixture{
		end:      TimestampEnd(1700000000),
		typeTag:  1,
		typeBody: body,
		status:   6,
	}

	var m RawMarket
	require.NoError(t, codec.Decode(fixture.bytes(), &m))

	assert.True(t, m.MarketType.IsScalar())
	assert.Equal(t, "Scalar(10..=20)", m.MarketType.String())
	assert.Equal(t, "timestamp", m.End.Kind())
	assert.Equal(t, "", m.MetadataLocator())
	assert.Equal(t, "Resolved", m.Status.String())
}

func TestRawMarketDecode_UnknownMarketType(t *testing.T) {
	fixture := rawMarketFixture{
		end:      BlockEnd(1),
		metadata: "cid",
		typeTag:  7,
		typeBody: []byte{0xde, 0xad},
	}

	var m RawMarket
	require.NoError(t, codec.Decode(fixture.bytes(), &m))
	assert.False(t, m.MarketType.Known())
	assert.Equal(t, "Unknown(7)", m.MarketType.String())
}

func TestMarketEndEncode(t *testing.T) {
	b, err := codec.Encode(TimestampEnd(5))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 5, 0, 0, 0, 0, 0, 0, 0}, b)

	var end MarketEnd
	require.NoError(t, codec.Decode(b, &end))
	assert.Equal(t, TimestampEnd(5), end)
}

func TestParseMarketCreation(t *testing.T) {
	c, err := ParseMarketCreation("Permissionless")
	require.NoError(t, err)
	assert.Equal(t, CreationPermissionless, c)

	c, err = ParseMarketCreation("advised")
	require.NoError(t, err)
	assert.Equal(t, "Advised", c.String())

	_, err = ParseMarketCreation("Curated")
	assert.Error(t, err)
}

func TestDecimalU128Conversion(t *testing.T) {
	v, err := DecimalToU128(decimal.RequireFromString("10000000000"))
	require.NoError(t, err)
	assert.Equal(t, "10000000000", U128ToDecimal(v).String())

	_, err = DecimalToU128(decimal.RequireFromString("-1"))
	assert.Error(t, err)
	_, err = DecimalToU128(decimal.RequireFromString("1.5"))
	assert.Error(t, err)

	assert.True(t, U128ToDecimal(types.U128{}).IsZero())
	assert.Equal(t, "7", U128ToDecimal(types.NewU128(*big.NewInt(7))).String())
}

func TestEventHelpers(t *testing.T) {
	e := Event{
		Name:   "PredictionMarkets.MarketCreated",
		Fields: []EventField{{Name: "market_id", Value: types.NewU128(*big.NewInt(42))}},
	}
	assert.Equal(t, EventMarketCreated, e.Method())
	assert.Equal(t, "42", e.FieldString(0))
	assert.Equal(t, "", e.FieldString(1))

	assert.Equal(t, "Bare", Event{Name: "Bare"}.Method())
}

func TestJSONRendering(t *testing.T) {
	b, err := json.Marshal(BlockEnd(42))
	require.NoError(t, err)
	assert.JSONEq(t, `{"block":42}`, string(b))

	b, err = json.Marshal(MarketType{Kind: MarketTypeCategorical, Categories: 4})
	require.NoError(t, err)
	assert.JSONEq(t, `{"categorical":4}`, string(b))

	b, err = json.Marshal(MarketType{
		Kind:   MarketTypeScalar,
		Bounds: [2]types.U128{types.NewU128(*big.NewInt(1)), types.NewU128(*big.NewInt(9))},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"scalar":["1","9"]}`, string(b))

	b, err = json.Marshal(struct {
		C MarketCreation `json:"c"`
		S MarketStatus   `json:"s"`
	}{CreationPermissionless, MarketStatus(3)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"c":"Permissionless","s":"Closed"}`, string(b))
}
