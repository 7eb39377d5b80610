// Package arcpay computes and verifies Arcadia timelock operation
// identifiers. An operation identifier (opId) is a content-addressed 32-byte
// digest of a pending administrative action, computed independently by this
// library and by the timelock contract; the two must agree bit-for-bit. The
// package also carries the operational surface around that computation:
// polling verification, opId signing, and the fixture cross-check that guards
// the encoding contract.
package arcpay

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/arcadia-pay/arcpay/sdk/evm"
	"github.com/arcadia-pay/arcpay/types"
)

// OpResult is the outcome of an operation identifier computation: the
// identifier and the salt that produced it (caller-supplied or derived).
type OpResult struct {
	OpID common.Hash `json:"opId"`
	Salt common.Hash `json:"salt"`
}

// ComputeSingleOpID computes the identifier for a single operation. When the
// operation carries no salt, one is derived from its content, so identical
// inputs always reproduce the identical identifier. Supplying distinct
// explicit salts is the mechanism for scheduling otherwise-identical
// operations as distinct trackable entries.
func ComputeSingleOpID(op types.Operation) (OpResult, error) {
	if err := op.Validate(); err != nil {
		return OpResult{}, err
	}

	predecessor := op.PredecessorOrZero()

	salt := types.ZeroHash
	if op.Salt != nil {
		salt = *op.Salt
	} else {
		derived, err := evm.DeriveSalt(op.Target, op.ValueOrZero(), op.Data, predecessor)
		if err != nil {
			return OpResult{}, err
		}
		salt = derived
	}

	opID, err := evm.HashOperation(op.Target, op.ValueOrZero(), op.Data, predecessor, salt)
	if err != nil {
		return OpResult{}, err
	}

	return OpResult{OpID: opID, Salt: salt}, nil
}

// ComputeBatchOpID computes the identifier for a batch operation. Both the
// content and the assigned order of the batch calls are significant.
func ComputeBatchOpID(bop types.BatchOperation) (OpResult, error) {
	if err := bop.Validate(); err != nil {
		return OpResult{}, err
	}

	predecessor := bop.PredecessorOrZero()
	targets, values, datas := bop.Targets(), bop.Values(), bop.Datas()

	salt := types.ZeroHash
	if bop.Salt != nil {
		salt = *bop.Salt
	} else {
		derived, err := evm.DeriveSaltBatch(targets, values, datas, predecessor)
		if err != nil {
			return OpResult{}, err
		}
		salt = derived
	}

	opID, err := evm.HashOperationBatch(targets, values, datas, predecessor, salt)
	if err != nil {
		return OpResult{}, err
	}

	return OpResult{OpID: opID, Salt: salt}, nil
}
