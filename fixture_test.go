package arcpay

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadia-pay/arcpay/sdk/evm"
	"github.com/arcadia-pay/arcpay/types"
)

func TestCheckFixture_Single(t *testing.T) {
	t.Parallel()

	fixture, err := LoadFixture(filepath.Join("testdata", "fixtures", "single_set_fee.json"))
	require.NoError(t, err)

	result, err := CheckFixture(fixture, evm.NewDecoder())
	require.NoError(t, err)
	assert.Equal(t, fixture.OpID, result.OpID)
	assert.Equal(t, *fixture.SaltUsed, result.Salt)
}

func TestCheckFixture_SingleDerivedSalt(t *testing.T) {
	t.Parallel()

	fixture, err := LoadFixture(filepath.Join("testdata", "fixtures", "single_grant_role.json"))
	require.NoError(t, err)
	require.Nil(t, fixture.SaltUsed)

	result, err := CheckFixture(fixture, evm.NewDecoder())
	require.NoError(t, err)
	assert.Equal(t, fixture.OpID, result.OpID)
	assert.Equal(t,
		common.HexToHash("0xb5de028a51284825e088e40369a6f6a20eb71abff7bb74ff408a8ed05a071e4c"), result.Salt)
}

func TestCheckFixture_Batch(t *testing.T) {
	t.Parallel()

	fixture, err := LoadFixture(filepath.Join("testdata", "fixtures", "batch_settlement.json"))
	require.NoError(t, err)

	result, err := CheckFixture(fixture, evm.NewDecoder())
	require.NoError(t, err)
	assert.Equal(t, fixture.Batch.OpID, result.OpID)
	assert.Equal(t, fixture.Batch.Salt, result.Salt)
}

func TestCheckFixture_Mismatch(t *testing.T) {
	t.Parallel()

	fixture, err := LoadFixture(filepath.Join("testdata", "fixtures", "single_set_fee.json"))
	require.NoError(t, err)

	// Flip one byte of the recorded identifier.
	fixture.OpID[0] ^= 0xff

	_, err = CheckFixture(fixture, evm.NewDecoder())
	require.Error(t, err)

	var mismatchErr *MismatchError
	require.ErrorAs(t, err, &mismatchErr)
	assert.Equal(t, fixture.OpID, mismatchErr.Recorded)
	assert.NotEqual(t, mismatchErr.Recorded, mismatchErr.Computed)
}

func TestCheckFixture_DecodeFailure(t *testing.T) {
	t.Parallel()

	fixture, err := LoadFixture(filepath.Join("testdata", "fixtures", "single_set_fee.json"))
	require.NoError(t, err)

	// The declared signature no longer matches the recorded calldata.
	fixture.Signature = "transfer(address,uint256)"

	_, err = CheckFixture(fixture, evm.NewDecoder())
	require.Error(t, err)
}

func TestCheckFixture_BatchSampleCountMismatch(t *testing.T) {
	t.Parallel()

	fixture, err := LoadFixture(filepath.Join("testdata", "fixtures", "batch_settlement.json"))
	require.NoError(t, err)
	fixture.Samples = fixture.Samples[:1]

	_, err = CheckFixture(fixture, evm.NewDecoder())
	require.Error(t, err)

	var validationErr *types.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestCheckFixture_UnknownMode(t *testing.T) {
	t.Parallel()

	_, err := CheckFixture(&Fixture{Mode: "tuple"}, evm.NewDecoder())
	require.Error(t, err)
	assert.ErrorContains(t, err, "unknown fixture mode")
}

func TestReadFixture_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ReadFixture(strings.NewReader("{not json"))
	require.Error(t, err)

	var encErr *types.EncodingError
	require.ErrorAs(t, err, &encErr)
}
