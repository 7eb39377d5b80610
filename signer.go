package arcpay

import (
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/arcadia-pay/arcpay/types"
)

// Signer signs operation identifiers so a backend can attest to the opId it
// computed. Signatures are EIP-191 personal-message signatures over the
// 32-byte identifier.
type Signer interface {
	// SignOperationID signs the identifier and returns the signature.
	SignOperationID(ctx context.Context, opID common.Hash) (types.Signature, error)

	// Address returns the signing address.
	Address() common.Address

	// ID returns a stable identifier for the signing key, suitable for
	// audit entries ("local:0xabc...", "kms:arn...").
	ID() string
}

var _ Signer = (*PrivateKeySigner)(nil)

// PrivateKeySigner signs operation identifiers with an in-memory secp256k1
// private key.
type PrivateKeySigner struct {
	pk *ecdsa.PrivateKey
}

// NewPrivateKeySigner creates a new PrivateKeySigner.
func NewPrivateKeySigner(pk *ecdsa.PrivateKey) *PrivateKeySigner {
	return &PrivateKeySigner{pk: pk}
}

// SignOperationID signs the EIP-191 hash of the identifier. The recovery id
// is returned in Ethereum's 27/28 form.
func (s *PrivateKeySigner) SignOperationID(_ context.Context, opID common.Hash) (types.Signature, error) {
	sig, err := crypto.Sign(accounts.TextHash(opID.Bytes()), s.pk)
	if err != nil {
		return types.Signature{}, err
	}
	sig[types.SignatureBytesLength-1] += types.SignatureVOffset

	return types.NewSignatureFromBytes(sig)
}

// Address returns the signing address.
func (s *PrivateKeySigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.pk.PublicKey)
}

// ID returns the signer identifier.
func (s *PrivateKeySigner) ID() string {
	return "local:" + s.Address().Hex()
}
