package onchain

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/xxhash"
	"golang.org/x/crypto/blake2b"
)

// MarketID is the chain-assigned identifier of a prediction market.
type MarketID uint64

func (id MarketID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseMarketID parses a decimal market id as used on the command line and in URLs.
func ParseMarketID(s string) (MarketID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid market id %q: %w", s, err)
	}
	return MarketID(v), nil
}

// marketIDWidth is the SCALE width of the on-chain u128 market id.
const marketIDWidth = 16

// DecodeError reports a storage key suffix that is not a well-formed market id.
type DecodeError struct {
	Suffix string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode market id from key suffix %q: %v", e.Suffix, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// DecodeMarketID turns the trailing 32 hex characters of a PredictionMarkets.Markets key,
// which hold the id little-endian, into a MarketID.
func DecodeMarketID(suffix string) (MarketID, error) {
	raw := strings.TrimPrefix(suffix, "0x")
	if len(raw) != marketIDWidth*2 {
		return 0, &DecodeError{Suffix: suffix, Err: fmt.Errorf("want %d hex chars, got %d", marketIDWidth*2, len(raw))}
	}
	le, err := hex.DecodeString(raw)
	if err != nil {
		return 0, &DecodeError{Suffix: suffix, Err: err}
	}

	be := make([]byte, len(le))
	for i, b := range le {
		be[len(le)-1-i] = b
	}

	v, err := strconv.ParseUint(hex.EncodeToString(be), 16, 64)
	if err != nil {
		return 0, &DecodeError{Suffix: suffix, Err: err}
	}
	return MarketID(v), nil
}

// EncodeMarketID is the inverse of DecodeMarketID: the id as 16 little-endian bytes in hex.
func EncodeMarketID(id MarketID) string {
	return hex.EncodeToString(marketIDBytes(id))
}

func marketIDBytes(id MarketID) []byte {
	b := make([]byte, marketIDWidth)
	v := uint64(id)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

// MarketKeySuffix returns the part of a hex storage key that encodes the market id.
func MarketKeySuffix(key string) string {
	if len(key) <= marketIDWidth*2 {
		return key
	}
	return key[len(key)-marketIDWidth*2:]
}

// StoragePrefix is twox128(pallet) ++ twox128(item), the key prefix shared by every entry
// of a storage map.
func StoragePrefix(pallet, item string) []byte {
	prefix := xxhash.New128([]byte(pallet)).Sum(nil)
	return append(prefix, xxhash.New128([]byte(item)).Sum(nil)...)
}

// Blake2_128Concat hashes a map key the way the Markets and Shares maps do.
func Blake2_128Concat(data []byte) []byte {
	h, _ := blake2b.New(16, nil)
	h.Write(data)
	return append(h.Sum(nil), data...)
}

// MarketStorageKey builds the full PredictionMarkets.Markets key for id.
func MarketStorageKey(id MarketID) []byte {
	return append(StoragePrefix(palletPredictionMarkets, storageMarkets), Blake2_128Concat(marketIDBytes(id))...)
}
