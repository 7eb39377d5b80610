package evm

import (
	"strings"
	"sync"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// timelockABI is the subset of the Arcadia timelock interface this module
// touches. The contract computes operation identifiers with the same
// encoding rules as hasher.go; that equivalence is a hard compatibility
// contract checked by the fixture cross-check.
const timelockABI = `[
	{"type":"function","name":"isOperation","stateMutability":"view","inputs":[{"name":"id","type":"bytes32"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"isOperationPending","stateMutability":"view","inputs":[{"name":"id","type":"bytes32"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"isOperationReady","stateMutability":"view","inputs":[{"name":"id","type":"bytes32"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"isOperationDone","stateMutability":"view","inputs":[{"name":"id","type":"bytes32"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"getMinDelay","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"schedule","stateMutability":"nonpayable","inputs":[{"name":"target","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"},{"name":"predecessor","type":"bytes32"},{"name":"salt","type":"bytes32"},{"name":"delay","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"scheduleBatch","stateMutability":"nonpayable","inputs":[{"name":"targets","type":"address[]"},{"name":"values","type":"uint256[]"},{"name":"payloads","type":"bytes[]"},{"name":"predecessor","type":"bytes32"},{"name":"salt","type":"bytes32"},{"name":"delay","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"execute","stateMutability":"payable","inputs":[{"name":"target","type":"address"},{"name":"value","type":"uint256"},{"name":"payload","type":"bytes"},{"name":"predecessor","type":"bytes32"},{"name":"salt","type":"bytes32"}],"outputs":[]},
	{"type":"function","name":"executeBatch","stateMutability":"payable","inputs":[{"name":"targets","type":"address[]"},{"name":"values","type":"uint256[]"},{"name":"payloads","type":"bytes[]"},{"name":"predecessor","type":"bytes32"},{"name":"salt","type":"bytes32"}],"outputs":[]},
	{"type":"function","name":"cancel","stateMutability":"nonpayable","inputs":[{"name":"id","type":"bytes32"}],"outputs":[]}
]`

var (
	timelockABIOnce   sync.Once
	timelockABIParsed gethabi.ABI
	timelockABIErr    error
)

func parsedTimelockABI() (gethabi.ABI, error) {
	timelockABIOnce.Do(func() {
		timelockABIParsed, timelockABIErr = gethabi.JSON(strings.NewReader(timelockABI))
	})

	return timelockABIParsed, timelockABIErr
}

// ContractBackend is the slice of the geth client surface the timelock
// bindings need. *ethclient.Client satisfies it.
type ContractBackend interface {
	bind.ContractCaller
	bind.ContractTransactor
}

func bindTimelock(address common.Address, backend ContractBackend) (*bind.BoundContract, error) {
	parsed, err := parsedTimelockABI()
	if err != nil {
		return nil, err
	}

	return bind.NewBoundContract(address, parsed, backend, backend, nil), nil
}
