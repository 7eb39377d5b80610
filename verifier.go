package arcpay

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/juju/clock"
	"github.com/juju/retry"

	"github.com/arcadia-pay/arcpay/sdk"
	"github.com/arcadia-pay/arcpay/types"
)

const (
	// DefaultPollInterval is the delay between state polls.
	DefaultPollInterval = 5 * time.Second

	// DefaultVerifyTimeout is the total polling budget.
	DefaultVerifyTimeout = 10 * time.Minute

	// Transient read failures are retried within a single poll so one
	// failed RPC call does not burn the timeout budget.
	readAttempts   = 3
	readRetryDelay = 250 * time.Millisecond
)

// Verifier polls the timelock's observable state for an operation identifier
// until the operation is ready, already done, or the budget runs out. It only
// observes transitions, never drives them; concurrent verifiers against the
// same identifier are safe.
type Verifier struct {
	inspector sdk.TimelockInspector
	clock     clock.Clock
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithClock replaces the wall clock, letting tests substitute instantaneous
// ticks for real delay.
func WithClock(c clock.Clock) VerifierOption {
	return func(v *Verifier) {
		v.clock = c
	}
}

// NewVerifier creates a Verifier over the given inspector.
func NewVerifier(inspector sdk.TimelockInspector, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		inspector: inspector,
		clock:     clock.WallClock,
	}
	for _, opt := range opts {
		opt(v)
	}

	return v
}

// VerifyResult reports the terminal observation of a verification run.
type VerifyResult struct {
	OpID    common.Hash          `json:"opId"`
	State   types.OperationState `json:"state"`
	Pending bool                 `json:"pending"`
	Ready   bool                 `json:"ready"`
	Done    bool                 `json:"done"`
}

// Verify polls the timelock for opID every interval until it observes ready
// or done, the context is cancelled, or timeout elapses. Done is success, not
// an error: it means the ready window already passed and the action executed.
// Every poll re-reads fresh state. Non-positive interval/timeout fall back to
// the defaults.
func (v *Verifier) Verify(
	ctx context.Context, opID common.Hash, interval, timeout time.Duration,
) (VerifyResult, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultVerifyTimeout
	}

	start := v.clock.Now()
	lastState := types.OperationStateUnknown
	for {
		pending, ready, done, err := v.readState(ctx, opID)
		if err != nil {
			return VerifyResult{}, err
		}

		lastState = types.StateFromFlags(pending, ready, done)
		if ready || done {
			return VerifyResult{
				OpID:    opID,
				State:   lastState,
				Pending: pending,
				Ready:   ready,
				Done:    done,
			}, nil
		}

		if v.clock.Now().Sub(start) >= timeout {
			return VerifyResult{}, NewTimeoutError(opID, timeout, lastState)
		}

		select {
		case <-ctx.Done():
			return VerifyResult{}, ctx.Err()
		case <-v.clock.After(interval):
		}
	}
}

// readState reads the three state predicates, retrying each full read a
// bounded number of times on transport errors.
func (v *Verifier) readState(ctx context.Context, opID common.Hash) (pending, ready, done bool, err error) {
	err = retry.Call(retry.CallArgs{
		Func: func() error {
			var readErr error
			if pending, readErr = v.inspector.IsOperationPending(ctx, opID); readErr != nil {
				return readErr
			}
			if ready, readErr = v.inspector.IsOperationReady(ctx, opID); readErr != nil {
				return readErr
			}
			done, readErr = v.inspector.IsOperationDone(ctx, opID)

			return readErr
		},
		Attempts: readAttempts,
		Delay:    readRetryDelay,
		Clock:    v.clock,
		Stop:     ctx.Done(),
	})

	return pending, ready, done, err
}
