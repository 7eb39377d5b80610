package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/arcadia-pay/arcpay/sdk"
)

var _ sdk.TimelockInspector = (*TimelockInspector)(nil)

// TimelockInspector reads operation state from the Arcadia timelock contract.
// Each read is a fresh eth_call; nothing is cached between polls.
type TimelockInspector struct {
	address  common.Address
	contract *bind.BoundContract
}

// NewTimelockInspector binds an inspector to the timelock at the given
// address.
func NewTimelockInspector(address common.Address, backend ContractBackend) (*TimelockInspector, error) {
	contract, err := bindTimelock(address, backend)
	if err != nil {
		return nil, err
	}

	return &TimelockInspector{address: address, contract: contract}, nil
}

// Address returns the bound timelock address.
func (t *TimelockInspector) Address() common.Address {
	return t.address
}

func (t *TimelockInspector) IsOperation(ctx context.Context, opID common.Hash) (bool, error) {
	return t.callBool(ctx, "isOperation", opID)
}

func (t *TimelockInspector) IsOperationPending(ctx context.Context, opID common.Hash) (bool, error) {
	return t.callBool(ctx, "isOperationPending", opID)
}

func (t *TimelockInspector) IsOperationReady(ctx context.Context, opID common.Hash) (bool, error) {
	return t.callBool(ctx, "isOperationReady", opID)
}

func (t *TimelockInspector) IsOperationDone(ctx context.Context, opID common.Hash) (bool, error) {
	return t.callBool(ctx, "isOperationDone", opID)
}

// GetMinDelay returns the timelock's minimum schedule delay in seconds.
func (t *TimelockInspector) GetMinDelay(ctx context.Context) (uint64, error) {
	var out []any
	if err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getMinDelay"); err != nil {
		return 0, err
	}

	delay, ok := out[0].(*big.Int)
	if !ok || !delay.IsUint64() {
		return 0, fmt.Errorf("unexpected getMinDelay result %v", out[0])
	}

	return delay.Uint64(), nil
}

func (t *TimelockInspector) callBool(ctx context.Context, method string, opID common.Hash) (bool, error) {
	var out []any
	if err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, opID); err != nil {
		return false, err
	}

	result, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected %s result %v", method, out[0])
	}

	return result, nil
}
