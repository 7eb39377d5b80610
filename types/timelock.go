package types

// TimelockAction is the administrative action to perform against the timelock.
type TimelockAction string

const (
	TimelockActionSchedule TimelockAction = "schedule"
	TimelockActionExecute  TimelockAction = "execute"
	TimelockActionCancel   TimelockAction = "cancel"
)

// OperationState is the observed lifecycle state of a scheduled operation.
// State lives entirely in the timelock contract; this module only reads it.
type OperationState string

const (
	// OperationStateUnknown means the timelock has no record of the
	// identifier: never scheduled, cancelled, or already purged.
	OperationStateUnknown OperationState = "unknown"

	// OperationStatePending means the operation is scheduled but its delay
	// has not yet elapsed.
	OperationStatePending OperationState = "pending"

	// OperationStateReady means the delay has elapsed and the operation may
	// be executed.
	OperationStateReady OperationState = "ready"

	// OperationStateDone means the operation has been executed.
	OperationStateDone OperationState = "done"
)

// StateFromFlags maps the timelock's three boolean predicates to a state.
// Done wins over the pending flags since a done operation is no longer
// pending or ready on the contract.
func StateFromFlags(pending, ready, done bool) OperationState {
	switch {
	case done:
		return OperationStateDone
	case ready:
		return OperationStateReady
	case pending:
		return OperationStatePending
	default:
		return OperationStateUnknown
	}
}
