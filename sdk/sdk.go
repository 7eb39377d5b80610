// Package sdk defines the chain access interfaces consumed by the arcpay
// library. The evm subpackage provides the implementation for the Arcadia
// timelock contract; the interfaces exist so the verifier and services can be
// tested against fakes.
package sdk

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arcadia-pay/arcpay/types"
)

// TimelockInspector reads observable operation state from the timelock. All
// reads are keyed by operation identifier; the inspector has no authority to
// change state.
type TimelockInspector interface {
	IsOperation(ctx context.Context, opID common.Hash) (bool, error)
	IsOperationPending(ctx context.Context, opID common.Hash) (bool, error)
	IsOperationReady(ctx context.Context, opID common.Hash) (bool, error)
	IsOperationDone(ctx context.Context, opID common.Hash) (bool, error)
	GetMinDelay(ctx context.Context) (uint64, error)
}

// TimelockScheduler submits mutations to the timelock: scheduling, executing
// and cancelling operations. The timelock computes its own operation
// identifier internally; implementations return the client-side identifier so
// callers can cross-check the two.
type TimelockScheduler interface {
	TimelockInspector

	Schedule(ctx context.Context, op types.Operation, delay types.Duration) (common.Hash, error)
	ScheduleBatch(ctx context.Context, bop types.BatchOperation, delay types.Duration) (common.Hash, error)
	Execute(ctx context.Context, op types.Operation) (common.Hash, error)
	ExecuteBatch(ctx context.Context, bop types.BatchOperation) (common.Hash, error)
	Cancel(ctx context.Context, opID common.Hash) error
}

// Decoder structurally decodes a calldata payload against a declared function
// schema. Used by the fixture cross-check and for operator display.
type Decoder interface {
	Decode(data []byte, signature string) (DecodedCall, error)
}

// DecodedCall is the result of structurally decoding a calldata payload.
type DecodedCall struct {
	MethodName string
	InputArgs  []any
}
