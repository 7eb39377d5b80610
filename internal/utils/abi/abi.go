// Package abi wraps go-ethereum's accounts/abi with helpers equivalent to
// Solidity's abi.encode / abi.decode over an inline argument list. Operation
// identifier hashing depends on these encodings matching the timelock
// contract's own abi.encode byte-for-byte.
package abi

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Encode is the equivalent of abi.encode. abiStr is a JSON array of argument
// descriptors, e.g. `[{"type":"address"},{"type":"uint256"}]`.
func Encode(abiStr string, values ...any) ([]byte, error) {
	// Wrap the arguments in a dummy method so the standard JSON ABI parser
	// can be used for packing.
	inDef := fmt.Sprintf(`[{ "name" : "method", "type": "function", "inputs": %s}]`, abiStr)
	inAbi, err := abi.JSON(strings.NewReader(inDef))
	if err != nil {
		return nil, err
	}

	res, err := inAbi.Pack("method", values...)
	if err != nil {
		return nil, err
	}

	return res[4:], nil
}

// Decode is the equivalent of abi.decode.
func Decode(abiStr string, data []byte) ([]any, error) {
	inDef := fmt.Sprintf(`[{ "name" : "method", "type": "function", "outputs": %s}]`, abiStr)
	inAbi, err := abi.JSON(strings.NewReader(inDef))
	if err != nil {
		return nil, err
	}

	return inAbi.Unpack("method", data)
}
