package arcpay

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arcadia-pay/arcpay/types"
)

// TimeoutError is returned when the verifier's polling budget is exhausted
// before the operation reaches a terminal state. The caller decides whether
// to re-invoke with a fresh timeout.
type TimeoutError struct {
	OpID      common.Hash
	Timeout   time.Duration
	LastState types.OperationState
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(opID common.Hash, timeout time.Duration, lastState types.OperationState) *TimeoutError {
	return &TimeoutError{OpID: opID, Timeout: timeout, LastState: lastState}
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation %s not ready after %s (last state: %s)", e.OpID, e.Timeout, e.LastState)
}

// MismatchError is returned when a locally computed operation identifier
// differs from an externally recorded reference identifier. It signals an
// encoding-contract violation between two independent implementations and is
// always surfaced, never swallowed.
type MismatchError struct {
	Computed common.Hash
	Recorded common.Hash
}

// NewMismatchError creates a new MismatchError.
func NewMismatchError(computed, recorded common.Hash) *MismatchError {
	return &MismatchError{Computed: computed, Recorded: recorded}
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("operation identifier mismatch: computed %s, recorded %s", e.Computed, e.Recorded)
}

// OperationNotReadyError is returned when an operation's delay has not yet
// elapsed.
type OperationNotReadyError struct {
	OpID common.Hash
}

func (e *OperationNotReadyError) Error() string {
	return fmt.Sprintf("operation %s is not ready", e.OpID)
}

// OperationNotFoundError is returned when the timelock has no record of the
// identifier.
type OperationNotFoundError struct {
	OpID common.Hash
}

func (e *OperationNotFoundError) Error() string {
	return fmt.Sprintf("operation %s is not known to the timelock", e.OpID)
}
