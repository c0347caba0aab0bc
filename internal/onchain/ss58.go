package onchain

import (
	"errors"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/vedhavyas/go-subkey/v2"
)

// ZeitgeistSS58Prefix is the network prefix of Zeitgeist addresses.
const ZeitgeistSS58Prefix uint16 = 73

const accountIDLen = 32

var ErrInvalidAddress = errors.New("invalid ss58 address")

// EncodeAddress renders a 32-byte public key as an SS58 address for the given network.
func EncodeAddress(pub []byte, prefix uint16) string {
	return subkey.SS58Encode(pub, prefix)
}

// DecodeAddress returns the public key and network prefix of an SS58 address.
func DecodeAddress(address string) ([]byte, uint16, error) {
	prefix, pub, err := subkey.SS58Decode(address)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(pub) != accountIDLen {
		return nil, 0, fmt.Errorf("%w: want %d byte account, got %d", ErrInvalidAddress, accountIDLen, len(pub))
	}
	return pub, prefix, nil
}

// AccountIDFromAddress decodes an SS58 address into the on-chain account id.
func AccountIDFromAddress(address string) (types.AccountID, error) {
	pub, _, err := DecodeAddress(address)
	if err != nil {
		return types.AccountID{}, err
	}
	var id types.AccountID
	copy(id[:], pub)
	return id, nil
}
