package evm

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/arcadia-pay/arcpay/sdk"
	"github.com/arcadia-pay/arcpay/types"
)

var _ sdk.TimelockScheduler = (*TimelockScheduler)(nil)

// TimelockScheduler submits schedule/execute/cancel transactions to the
// Arcadia timelock. The operation identifier is computed client-side with the
// same encoding rules the contract applies internally; the returned
// identifier is what callers poll and cross-check against.
type TimelockScheduler struct {
	*TimelockInspector

	contract *bind.BoundContract
	opts     *bind.TransactOpts
}

// NewTimelockScheduler binds a scheduler to the timelock at the given
// address. opts carries the transacting key; reads go through the embedded
// inspector.
func NewTimelockScheduler(
	address common.Address, backend ContractBackend, opts *bind.TransactOpts,
) (*TimelockScheduler, error) {
	inspector, err := NewTimelockInspector(address, backend)
	if err != nil {
		return nil, err
	}

	return &TimelockScheduler{
		TimelockInspector: inspector,
		contract:          inspector.contract,
		opts:              opts,
	}, nil
}

// Schedule schedules a single operation with the given delay and returns its
// identifier. A nil salt is derived from the operation content, so repeating
// the call with identical inputs targets the same identifier (which the
// contract will reject as already scheduled).
func (t *TimelockScheduler) Schedule(
	ctx context.Context, op types.Operation, delay types.Duration,
) (common.Hash, error) {
	if err := op.Validate(); err != nil {
		return common.Hash{}, err
	}

	predecessor := op.PredecessorOrZero()
	salt, err := saltFor(op)
	if err != nil {
		return common.Hash{}, err
	}

	opID, err := HashOperation(op.Target, op.ValueOrZero(), op.Data, predecessor, salt)
	if err != nil {
		return common.Hash{}, err
	}

	tx, err := t.contract.Transact(t.transactOpts(ctx), "schedule",
		op.Target, op.ValueOrZero(), []byte(op.Data), predecessor, salt, delay.BigSeconds())
	if err != nil {
		return common.Hash{}, err
	}
	sdk.LoggerFrom(ctx).Infof("scheduled operation %s in tx %s", opID, tx.Hash())

	return opID, nil
}

// ScheduleBatch schedules a batch operation with the given delay and returns
// its identifier.
func (t *TimelockScheduler) ScheduleBatch(
	ctx context.Context, bop types.BatchOperation, delay types.Duration,
) (common.Hash, error) {
	if err := bop.Validate(); err != nil {
		return common.Hash{}, err
	}

	predecessor := bop.PredecessorOrZero()
	salt, err := batchSaltFor(bop)
	if err != nil {
		return common.Hash{}, err
	}

	targets, values, datas := bop.Targets(), bop.Values(), bop.Datas()
	opID, err := HashOperationBatch(targets, values, datas, predecessor, salt)
	if err != nil {
		return common.Hash{}, err
	}

	tx, err := t.contract.Transact(t.transactOpts(ctx), "scheduleBatch",
		targets, values, datas, predecessor, salt, delay.BigSeconds())
	if err != nil {
		return common.Hash{}, err
	}
	sdk.LoggerFrom(ctx).Infof("scheduled batch operation %s in tx %s", opID, tx.Hash())

	return opID, nil
}

// Execute executes a ready single operation. The same predecessor and salt
// used at schedule time must be supplied so the contract resolves the same
// identifier.
func (t *TimelockScheduler) Execute(ctx context.Context, op types.Operation) (common.Hash, error) {
	if err := op.Validate(); err != nil {
		return common.Hash{}, err
	}

	predecessor := op.PredecessorOrZero()
	salt, err := saltFor(op)
	if err != nil {
		return common.Hash{}, err
	}

	opID, err := HashOperation(op.Target, op.ValueOrZero(), op.Data, predecessor, salt)
	if err != nil {
		return common.Hash{}, err
	}

	tx, err := t.contract.Transact(t.transactOpts(ctx), "execute",
		op.Target, op.ValueOrZero(), []byte(op.Data), predecessor, salt)
	if err != nil {
		return common.Hash{}, err
	}
	sdk.LoggerFrom(ctx).Infof("executed operation %s in tx %s", opID, tx.Hash())

	return opID, nil
}

// ExecuteBatch executes a ready batch operation.
func (t *TimelockScheduler) ExecuteBatch(ctx context.Context, bop types.BatchOperation) (common.Hash, error) {
	if err := bop.Validate(); err != nil {
		return common.Hash{}, err
	}

	predecessor := bop.PredecessorOrZero()
	salt, err := batchSaltFor(bop)
	if err != nil {
		return common.Hash{}, err
	}

	targets, values, datas := bop.Targets(), bop.Values(), bop.Datas()
	opID, err := HashOperationBatch(targets, values, datas, predecessor, salt)
	if err != nil {
		return common.Hash{}, err
	}

	tx, err := t.contract.Transact(t.transactOpts(ctx), "executeBatch",
		targets, values, datas, predecessor, salt)
	if err != nil {
		return common.Hash{}, err
	}
	sdk.LoggerFrom(ctx).Infof("executed batch operation %s in tx %s", opID, tx.Hash())

	return opID, nil
}

// Cancel cancels a pending operation by identifier.
func (t *TimelockScheduler) Cancel(ctx context.Context, opID common.Hash) error {
	tx, err := t.contract.Transact(t.transactOpts(ctx), "cancel", opID)
	if err != nil {
		return err
	}
	sdk.LoggerFrom(ctx).Infof("cancelled operation %s in tx %s", opID, tx.Hash())

	return nil
}

func (t *TimelockScheduler) transactOpts(ctx context.Context) *bind.TransactOpts {
	opts := *t.opts
	opts.Context = ctx

	return &opts
}

func saltFor(op types.Operation) (common.Hash, error) {
	if op.Salt != nil {
		return *op.Salt, nil
	}

	return DeriveSalt(op.Target, op.ValueOrZero(), op.Data, op.PredecessorOrZero())
}

func batchSaltFor(bop types.BatchOperation) (common.Hash, error) {
	if bop.Salt != nil {
		return *bop.Salt, nil
	}

	return DeriveSaltBatch(bop.Targets(), bop.Values(), bop.Datas(), bop.PredecessorOrZero())
}
