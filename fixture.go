package arcpay

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/arcadia-pay/arcpay/sdk"
	"github.com/arcadia-pay/arcpay/types"
)

// Fixture modes.
const (
	FixtureModeSingle = "single"
	FixtureModeBatch  = "batch"
)

// Fixture is a recorded operation with its expected identifier, used to
// cross-check this implementation's encoding rules against an independent
// one (the contract, or another client). A fixture that stops matching means
// the encoding contract was broken somewhere, which is a hard correctness
// bug, never something to ignore.
type Fixture struct {
	Mode string `json:"mode"`

	// Single mode fields.
	Signature   string        `json:"signature,omitempty"`
	Data        hexutil.Bytes `json:"data,omitempty"`
	Target      string        `json:"target,omitempty"`
	Value       json.Number   `json:"value,omitempty"`
	Predecessor *common.Hash  `json:"predecessor,omitempty"`
	SaltUsed    *common.Hash  `json:"salt_used,omitempty"`
	OpID        common.Hash   `json:"opId,omitempty"`

	// Batch mode fields.
	Samples []FixtureSample `json:"samples,omitempty"`
	Batch   *FixtureBatch   `json:"batch,omitempty"`
}

// FixtureSample is one recorded calldata payload with its declared function
// signature.
type FixtureSample struct {
	Signature string        `json:"signature"`
	Data      hexutil.Bytes `json:"data"`
	Target    string        `json:"target,omitempty"`
}

// FixtureBatch is the recorded batch tuple and its expected identifier.
type FixtureBatch struct {
	Targets     []string      `json:"targets"`
	Values      []json.Number `json:"values"`
	Predecessor *common.Hash  `json:"predecessor,omitempty"`
	Salt        common.Hash   `json:"salt"`
	OpID        common.Hash   `json:"opId"`
}

// LoadFixture reads a fixture document from the given path.
func LoadFixture(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadFixture(f)
}

// ReadFixture decodes a fixture document from the reader.
func ReadFixture(r io.Reader) (*Fixture, error) {
	var fixture Fixture
	if err := json.NewDecoder(r).Decode(&fixture); err != nil {
		return nil, types.NewEncodingError("malformed fixture document", err)
	}

	return &fixture, nil
}

// CheckFixture structurally decodes the fixture's calldata against its
// declared signatures and recomputes the operation identifier independently.
// Success requires exact equality with the recorded identifier; any deviation
// is a MismatchError.
func CheckFixture(fixture *Fixture, decoder sdk.Decoder) (OpResult, error) {
	switch fixture.Mode {
	case FixtureModeSingle:
		return checkSingleFixture(fixture, decoder)
	case FixtureModeBatch:
		return checkBatchFixture(fixture, decoder)
	default:
		return OpResult{}, types.NewValidationError("mode", fmt.Sprintf("unknown fixture mode %q", fixture.Mode))
	}
}

func checkSingleFixture(fixture *Fixture, decoder sdk.Decoder) (OpResult, error) {
	if fixture.Signature != "" {
		if _, err := decoder.Decode(fixture.Data, fixture.Signature); err != nil {
			return OpResult{}, err
		}
	}

	target, err := parseFixtureAddress(fixture.Target)
	if err != nil {
		return OpResult{}, err
	}
	value, err := parseFixtureValue(fixture.Value)
	if err != nil {
		return OpResult{}, err
	}

	result, err := ComputeSingleOpID(types.Operation{
		Target:      target,
		Value:       value,
		Data:        fixture.Data,
		Predecessor: fixture.Predecessor,
		Salt:        fixture.SaltUsed,
	})
	if err != nil {
		return OpResult{}, err
	}

	if result.OpID != fixture.OpID {
		return result, NewMismatchError(result.OpID, fixture.OpID)
	}

	return result, nil
}

func checkBatchFixture(fixture *Fixture, decoder sdk.Decoder) (OpResult, error) {
	if fixture.Batch == nil {
		return OpResult{}, types.NewValidationError("batch", "missing batch section")
	}
	if len(fixture.Samples) != len(fixture.Batch.Targets) {
		return OpResult{}, types.NewValidationError("samples", fmt.Sprintf(
			"%d samples for %d targets", len(fixture.Samples), len(fixture.Batch.Targets)))
	}

	datas := make([]hexutil.Bytes, len(fixture.Samples))
	for i, sample := range fixture.Samples {
		if sample.Signature != "" {
			if _, err := decoder.Decode(sample.Data, sample.Signature); err != nil {
				return OpResult{}, fmt.Errorf("sample %d: %w", i, err)
			}
		}
		datas[i] = sample.Data
	}

	targets := make([]common.Address, len(fixture.Batch.Targets))
	for i, raw := range fixture.Batch.Targets {
		target, err := parseFixtureAddress(raw)
		if err != nil {
			return OpResult{}, err
		}
		targets[i] = target
	}

	values := make([]*big.Int, len(fixture.Batch.Values))
	for i, raw := range fixture.Batch.Values {
		value, err := parseFixtureValue(raw)
		if err != nil {
			return OpResult{}, err
		}
		values[i] = value
	}

	salt := fixture.Batch.Salt
	bop, err := types.NewBatchOperation(targets, values, datas, fixture.Batch.Predecessor, &salt)
	if err != nil {
		return OpResult{}, err
	}

	result, err := ComputeBatchOpID(bop)
	if err != nil {
		return OpResult{}, err
	}

	if result.OpID != fixture.Batch.OpID {
		return result, NewMismatchError(result.OpID, fixture.Batch.OpID)
	}

	return result, nil
}

func parseFixtureAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, types.NewValidationError("target", fmt.Sprintf("invalid address %q", raw))
	}

	return common.HexToAddress(raw), nil
}

func parseFixtureValue(raw json.Number) (*big.Int, error) {
	if raw == "" {
		return big.NewInt(0), nil
	}

	value, ok := new(big.Int).SetString(raw.String(), 10)
	if !ok {
		return nil, types.NewValidationError("value", fmt.Sprintf("invalid integer %q", raw))
	}

	return value, nil
}
