package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-playground/validator/v10"
)

// ZeroHash is the explicit "no value" sentinel for predecessors and salts. An
// operation with a nil Predecessor is encoded with ZeroHash, meaning it has no
// ordering dependency on a prior operation.
var ZeroHash = common.Hash{}

// Operation is a single timelocked call: one target, one value, one calldata
// payload. Predecessor and Salt are optional; a nil Predecessor encodes as
// ZeroHash and a nil Salt is derived from the operation's content, so repeated
// computations over identical inputs always yield the same identifier.
type Operation struct {
	Target      common.Address `json:"target" validate:"required"`
	Value       *big.Int       `json:"value"`
	Data        hexutil.Bytes  `json:"data"`
	Predecessor *common.Hash   `json:"predecessor,omitempty"`
	Salt        *common.Hash   `json:"salt,omitempty"`
}

// Validate checks the operation fields before any encoding is attempted.
func (o Operation) Validate() error {
	if err := validator.New().Struct(o); err != nil {
		return err
	}
	if o.Value != nil && o.Value.Sign() < 0 {
		return NewValidationError("value", "must not be negative")
	}

	return nil
}

// PredecessorOrZero returns the predecessor hash, or ZeroHash when unset.
func (o Operation) PredecessorOrZero() common.Hash {
	if o.Predecessor == nil {
		return ZeroHash
	}

	return *o.Predecessor
}

// ValueOrZero returns the call value, or zero when unset.
func (o Operation) ValueOrZero() *big.Int {
	if o.Value == nil {
		return big.NewInt(0)
	}

	return o.Value
}

// BatchCall is one element of a batch operation.
type BatchCall struct {
	Target common.Address `json:"target" validate:"required"`
	Value  *big.Int       `json:"value"`
	Data   hexutil.Bytes  `json:"data"`
}

// ValueOrZero returns the call value, or zero when unset.
func (c BatchCall) ValueOrZero() *big.Int {
	if c.Value == nil {
		return big.NewInt(0)
	}

	return c.Value
}

// BatchOperation is an ordered batch of calls scheduled and executed as a unit
// under a single operation identifier. Holding the calls as one slice makes
// target/value/data length coherence structural; surfaces that accept parallel
// arrays (CLI, HTTP API) must zip them with NewBatchOperation, which rejects
// mismatched lengths.
type BatchOperation struct {
	Calls       []BatchCall  `json:"calls" validate:"required,min=1,dive"`
	Predecessor *common.Hash `json:"predecessor,omitempty"`
	Salt        *common.Hash `json:"salt,omitempty"`
}

// NewBatchOperation zips parallel target/value/data arrays into a
// BatchOperation, failing when the array lengths disagree.
func NewBatchOperation(
	targets []common.Address, values []*big.Int, datas []hexutil.Bytes, predecessor, salt *common.Hash,
) (BatchOperation, error) {
	if len(values) != len(targets) || len(datas) != len(targets) {
		return BatchOperation{}, NewValidationError("calls", fmt.Sprintf(
			"mismatched batch lengths: %d targets, %d values, %d datas",
			len(targets), len(values), len(datas),
		))
	}

	calls := make([]BatchCall, len(targets))
	for i, target := range targets {
		calls[i] = BatchCall{Target: target, Value: values[i], Data: datas[i]}
	}

	return BatchOperation{Calls: calls, Predecessor: predecessor, Salt: salt}, nil
}

// Validate checks the batch fields before any encoding is attempted.
func (b BatchOperation) Validate() error {
	if err := validator.New().Struct(b); err != nil {
		return err
	}
	for i, call := range b.Calls {
		if call.Value != nil && call.Value.Sign() < 0 {
			return NewValidationError("calls", fmt.Sprintf("negative value at index %d", i))
		}
	}

	return nil
}

// PredecessorOrZero returns the predecessor hash, or ZeroHash when unset.
func (b BatchOperation) PredecessorOrZero() common.Hash {
	if b.Predecessor == nil {
		return ZeroHash
	}

	return *b.Predecessor
}

// Targets returns the batch targets in call order.
func (b BatchOperation) Targets() []common.Address {
	targets := make([]common.Address, len(b.Calls))
	for i, call := range b.Calls {
		targets[i] = call.Target
	}

	return targets
}

// Values returns the batch values in call order, with nils as zero.
func (b BatchOperation) Values() []*big.Int {
	values := make([]*big.Int, len(b.Calls))
	for i, call := range b.Calls {
		values[i] = call.ValueOrZero()
	}

	return values
}

// Datas returns the batch payloads in call order.
func (b BatchOperation) Datas() [][]byte {
	datas := make([][]byte, len(b.Calls))
	for i, call := range b.Calls {
		datas[i] = call.Data
	}

	return datas
}
