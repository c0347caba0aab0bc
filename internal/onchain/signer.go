package onchain

import (
	"errors"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// Signer signs extrinsics on behalf of one account.
type Signer interface {
	Address() string
	PublicKey() []byte
	Sign(ext *types.Extrinsic, opts types.SignatureOptions) error
}

// KeyringSigner signs with a local sr25519 keypair.
type KeyringSigner struct {
	pair signature.KeyringPair
}

// SignerFromSeed builds a keypair signer from a hex seed, mnemonic or dev URI such as //Alice.
func SignerFromSeed(seed string, ss58Prefix uint16) (*KeyringSigner, error) {
	if seed == "" {
		return nil, errors.New("seed is required")
	}
	pair, err := signature.KeyringPairFromSecret(seed, ss58Prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to derive keypair: %w", err)
	}
	return &KeyringSigner{pair: pair}, nil
}

// NewKeyringSigner wraps an existing keypair.
func NewKeyringSigner(pair signature.KeyringPair) *KeyringSigner {
	return &KeyringSigner{pair: pair}
}

func (s *KeyringSigner) Address() string   { return s.pair.Address }
func (s *KeyringSigner) PublicKey() []byte { return s.pair.PublicKey }

func (s *KeyringSigner) Sign(ext *types.Extrinsic, opts types.SignatureOptions) error {
	return ext.Sign(s.pair, opts)
}

// SignFunc signs an extrinsic outside this process, for example in a wallet extension.
type SignFunc func(ext *types.Extrinsic, opts types.SignatureOptions) error

// ExternalSigner pairs an account with a signing function the SDK does not own.
type ExternalSigner struct {
	Addr     string
	Key      []byte
	SignFunc SignFunc
}

// NewExternalSigner resolves the public key of address and pairs it with fn.
func NewExternalSigner(address string, fn SignFunc) (*ExternalSigner, error) {
	if fn == nil {
		return nil, errors.New("sign function is required")
	}
	pub, _, err := DecodeAddress(address)
	if err != nil {
		return nil, err
	}
	return &ExternalSigner{Addr: address, Key: pub, SignFunc: fn}, nil
}

func (s *ExternalSigner) Address() string   { return s.Addr }
func (s *ExternalSigner) PublicKey() []byte { return s.Key }

func (s *ExternalSigner) Sign(ext *types.Extrinsic, opts types.SignatureOptions) error {
	return s.SignFunc(ext, opts)
}

var (
	_ Signer = (*KeyringSigner)(nil)
	_ Signer = (*ExternalSigner)(nil)
)
