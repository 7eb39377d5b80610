package arcpay

import (
	"context"
	"crypto/ecdsa"
	"encoding/asn1"
	"fmt"
	"math/big"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/arcadia-pay/arcpay/types"
)

// KMSClient is the slice of the AWS KMS API the signer uses.
type KMSClient interface {
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
}

var _ Signer = (*KMSSigner)(nil)

// KMSSigner signs operation identifiers with a secp256k1 key held in AWS KMS.
// KMS returns DER-encoded (r, s) pairs with no recovery id; the signer
// normalizes s to the low half of the curve order and recovers v against the
// key's public address.
type KMSSigner struct {
	client  KMSClient
	keyID   string
	pubKey  *ecdsa.PublicKey
	address common.Address
}

// NewKMSSigner creates a KMSSigner for the given key, fetching and caching
// the key's public address up front.
func NewKMSSigner(ctx context.Context, client KMSClient, keyID string) (*KMSSigner, error) {
	out, err := client.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: aws.String(keyID)})
	if err != nil {
		return nil, fmt.Errorf("failed to get KMS public key: %w", err)
	}

	pubKey, err := parseSPKIPublicKey(out.PublicKey)
	if err != nil {
		return nil, err
	}

	return &KMSSigner{
		client:  client,
		keyID:   keyID,
		pubKey:  pubKey,
		address: crypto.PubkeyToAddress(*pubKey),
	}, nil
}

// SignOperationID signs the EIP-191 hash of the identifier through KMS.
func (s *KMSSigner) SignOperationID(ctx context.Context, opID common.Hash) (types.Signature, error) {
	digest := accounts.TextHash(opID.Bytes())

	out, err := s.client.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(s.keyID),
		Message:          digest,
		MessageType:      kmstypes.MessageTypeDigest,
		SigningAlgorithm: kmstypes.SigningAlgorithmSpecEcdsaSha256,
	})
	if err != nil {
		return types.Signature{}, fmt.Errorf("KMS sign failed: %w", err)
	}

	r, sv, err := parseDERSignature(out.Signature)
	if err != nil {
		return types.Signature{}, err
	}

	return s.assembleSignature(digest, r, sv)
}

// Address returns the address of the KMS key.
func (s *KMSSigner) Address() common.Address {
	return s.address
}

// ID returns the signer identifier.
func (s *KMSSigner) ID() string {
	return "kms:" + s.keyID
}

// assembleSignature finds the recovery id by recovering both candidates
// against the known key address.
func (s *KMSSigner) assembleSignature(digest []byte, r, sv *big.Int) (types.Signature, error) {
	sig := make([]byte, types.SignatureBytesLength)
	r.FillBytes(sig[:types.SignatureComponentSize])
	sv.FillBytes(sig[types.SignatureComponentSize : types.SignatureBytesLength-1])

	for _, recID := range []byte{0, 1} {
		sig[types.SignatureBytesLength-1] = recID
		pubKey, err := crypto.SigToPub(digest, sig)
		if err != nil {
			continue
		}
		if crypto.PubkeyToAddress(*pubKey) == s.address {
			sig[types.SignatureBytesLength-1] = recID + types.SignatureVOffset

			return types.NewSignatureFromBytes(sig)
		}
	}

	return types.Signature{}, fmt.Errorf("could not recover signature for KMS key %s", s.keyID)
}

type derSignature struct {
	R, S *big.Int
}

// parseDERSignature decodes a DER ECDSA signature and normalizes s to the
// low half of the curve order, as Ethereum requires.
func parseDERSignature(der []byte) (r, s *big.Int, err error) {
	var sig derSignature
	if _, err = asn1.Unmarshal(der, &sig); err != nil {
		return nil, nil, fmt.Errorf("failed to parse DER signature: %w", err)
	}

	n := crypto.S256().Params().N
	halfN := new(big.Int).Rsh(n, 1)
	if sig.S.Cmp(halfN) > 0 {
		sig.S = new(big.Int).Sub(n, sig.S)
	}

	return sig.R, sig.S, nil
}

type subjectPublicKeyInfo struct {
	Algorithm asn1.RawValue
	PublicKey asn1.BitString
}

// parseSPKIPublicKey extracts the uncompressed secp256k1 point from a DER
// SubjectPublicKeyInfo. The standard library's PKIX parser rejects the
// secp256k1 curve, so the bit string is unwrapped manually.
func parseSPKIPublicKey(der []byte) (*ecdsa.PublicKey, error) {
	var spki subjectPublicKeyInfo
	if _, err := asn1.Unmarshal(der, &spki); err != nil {
		return nil, fmt.Errorf("failed to parse KMS public key: %w", err)
	}

	pubKey, err := crypto.UnmarshalPubkey(spki.PublicKey.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal KMS public key point: %w", err)
	}

	return pubKey, nil
}
