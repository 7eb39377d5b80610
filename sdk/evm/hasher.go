// Package evm implements chain access for the Arcadia timelock contract:
// operation identifier hashing, salt derivation, calldata schemas, and bound
// contract reads/writes through go-ethereum.
package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/arcadia-pay/arcpay/internal/utils/abi"
)

// ZeroHash is the all-zero bytes32, used for absent predecessors.
var ZeroHash = common.Hash{}

// Argument layouts for the outer tuple hashes and salt derivations. Field
// order and typing must match the timelock contract's own abi.encode calls
// exactly; any divergence shows up as an operation identifier mismatch.
const (
	singleOpABI   = `[{"type":"address"},{"type":"uint256"},{"type":"bytes32"},{"type":"bytes32"},{"type":"bytes32"}]`
	singleSaltABI = `[{"type":"bytes"},{"type":"address"},{"type":"uint256"},{"type":"bytes32"}]`
	batchOpABI    = `[{"type":"address[]"},{"type":"uint256[]"},{"type":"bytes32"},{"type":"bytes32"},{"type":"bytes32"}]`
	batchSaltABI  = `[{"type":"address[]"},{"type":"uint256[]"},{"type":"bytes32"},{"type":"bytes32"}]`
)

// HashOperation computes the identifier of a single operation. The calldata
// payload is digested first; the outer tuple (target, value, innerHash,
// predecessor, salt) is abi-encoded and hashed.
func HashOperation(
	target common.Address, value *big.Int, data []byte, predecessor, salt common.Hash,
) (common.Hash, error) {
	innerHash := crypto.Keccak256Hash(data)
	encoded, err := abi.Encode(singleOpABI, target, value, innerHash, predecessor, salt)
	if err != nil {
		return common.Hash{}, err
	}

	return crypto.Keccak256Hash(encoded), nil
}

// HashOperationBatch computes the identifier of a batch operation. The inner
// digest covers the concatenation of all payloads in call order, so both the
// content and the assigned order of the batch matter.
func HashOperationBatch(
	targets []common.Address, values []*big.Int, datas [][]byte, predecessor, salt common.Hash,
) (common.Hash, error) {
	encoded, err := abi.Encode(batchOpABI, targets, values, hashConcat(datas), predecessor, salt)
	if err != nil {
		return common.Hash{}, err
	}

	return crypto.Keccak256Hash(encoded), nil
}

// DeriveSalt derives a deterministic salt for a single operation from its
// identifying fields. The raw payload is encoded as a dynamic field here, not
// pre-hashed; the field set deliberately differs from the outer tuple so the
// salt never depends on itself. Identical content always derives the same
// salt, which is what makes salt-omitted scheduling idempotent.
func DeriveSalt(
	target common.Address, value *big.Int, data []byte, predecessor common.Hash,
) (common.Hash, error) {
	encoded, err := abi.Encode(singleSaltABI, data, target, value, predecessor)
	if err != nil {
		return common.Hash{}, err
	}

	return crypto.Keccak256Hash(encoded), nil
}

// DeriveSaltBatch derives a deterministic salt for a batch operation. Unlike
// the single derivation this hashes the pre-digested inner hash rather than
// the raw payloads; the two rules are independently authoritative and each is
// pinned by golden fixtures.
func DeriveSaltBatch(
	targets []common.Address, values []*big.Int, datas [][]byte, predecessor common.Hash,
) (common.Hash, error) {
	encoded, err := abi.Encode(batchSaltABI, targets, values, hashConcat(datas), predecessor)
	if err != nil {
		return common.Hash{}, err
	}

	return crypto.Keccak256Hash(encoded), nil
}

func hashConcat(datas [][]byte) common.Hash {
	var packed []byte
	for _, data := range datas {
		packed = append(packed, data...)
	}

	return crypto.Keccak256Hash(packed)
}
