package evm

import (
	"encoding/json"
	"fmt"

	"github.com/arcadia-pay/arcpay/sdk"
)

// Decoder structurally decodes calldata payloads against declared function
// signatures.
type Decoder struct{}

var _ sdk.Decoder = (*Decoder)(nil)

// NewDecoder creates a new Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode checks that the payload's selector matches the declared signature
// and that the argument block decodes cleanly against it. The decoded values
// are returned for display; this is structural validation, not semantic.
func (d *Decoder) Decode(data []byte, signature string) (sdk.DecodedCall, error) {
	schema, err := ParseSignature(signature)
	if err != nil {
		return sdk.DecodedCall{}, err
	}

	args, err := schema.Unpack(data)
	if err != nil {
		return sdk.DecodedCall{}, err
	}

	return sdk.DecodedCall{MethodName: schema.name, InputArgs: args}, nil
}

// FormatCall renders a decoded call as an indented JSON object keyed by
// argument position, for operator display.
func FormatCall(call sdk.DecodedCall) (string, error) {
	inputs := make(map[string]any, len(call.InputArgs))
	for i, arg := range call.InputArgs {
		inputs[fmt.Sprintf("arg%d", i)] = arg
	}

	out, err := json.MarshalIndent(inputs, "", "  ")
	if err != nil {
		return "", err
	}

	return string(out), nil
}
