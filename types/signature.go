package types

import (
	"crypto/ecdsa"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// SignatureBytesLength is the length of a serialized signature: R and S
	// components followed by the recovery id.
	SignatureBytesLength = 65

	// SignatureComponentSize is the size of the R and S components in bytes.
	SignatureComponentSize = 32

	// SignatureVOffset adjusts the recovery id between the 0/1 form secp256k1
	// uses and the 27/28 form Ethereum tooling expects.
	SignatureVOffset = 27
)

// Signature is an ECDSA signature over an operation identifier.
type Signature struct {
	R common.Hash `json:"r"`
	S common.Hash `json:"s"`
	V uint8       `json:"v"`
}

// NewSignatureFromBytes creates a Signature from the 65-byte concatenation of
// R, S and V.
func NewSignatureFromBytes(sig []byte) (Signature, error) {
	if len(sig) != SignatureBytesLength {
		return Signature{}, fmt.Errorf("invalid signature length: %d", len(sig))
	}

	return Signature{
		R: common.BytesToHash(sig[:SignatureComponentSize]),
		S: common.BytesToHash(sig[SignatureComponentSize:(SignatureBytesLength - 1)]),
		V: sig[SignatureBytesLength-1],
	}, nil
}

// ToBytes returns the 65-byte serialization of the signature.
func (s Signature) ToBytes() []byte {
	return slices.Concat(
		s.R.Bytes(),
		s.S.Bytes(),
		[]byte{s.V},
	)
}

// Recover returns the address recovered from the signature and message hash.
func (s Signature) Recover(hash common.Hash) (common.Address, error) {
	pubKey, err := s.RecoverPublicKey(hash)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}

	return crypto.PubkeyToAddress(*pubKey), nil
}

// RecoverPublicKey returns the public key recovered from the signature and
// message hash.
func (s Signature) RecoverPublicKey(hash common.Hash) (*ecdsa.PublicKey, error) {
	sig := s.ToBytes()

	// crypto.SigToPub expects a 0/1 recovery id.
	if sig[SignatureBytesLength-1] >= SignatureVOffset {
		sig[SignatureBytesLength-1] -= SignatureVOffset
	}

	pubKey, err := crypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return nil, fmt.Errorf("failed to recover public key: %w", err)
	}

	return pubKey, nil
}
