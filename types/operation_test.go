package types

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	opTarget = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	opData   = hexutil.MustDecode("0x8456cb59")
)

func TestOperationValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		give    Operation
		wantErr bool
	}{
		{
			name: "success: minimal",
			give: Operation{Target: opTarget, Data: opData},
		},
		{
			name: "success: empty data",
			give: Operation{Target: opTarget},
		},
		{
			name:    "failure: zero target",
			give:    Operation{Data: opData},
			wantErr: true,
		},
		{
			name:    "failure: negative value",
			give:    Operation{Target: opTarget, Value: big.NewInt(-1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.give.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestOperationDefaults(t *testing.T) {
	t.Parallel()

	op := Operation{Target: opTarget}
	assert.Equal(t, ZeroHash, op.PredecessorOrZero())
	assert.Equal(t, big.NewInt(0), op.ValueOrZero())

	pred := common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000001")
	op.Predecessor = &pred
	op.Value = big.NewInt(5)
	assert.Equal(t, pred, op.PredecessorOrZero())
	assert.Equal(t, big.NewInt(5), op.ValueOrZero())
}

func TestBatchOperationValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		give    BatchOperation
		wantErr bool
	}{
		{
			name: "success: two calls",
			give: BatchOperation{Calls: []BatchCall{
				{Target: opTarget, Data: opData},
				{Target: opTarget, Data: opData},
			}},
		},
		{
			name:    "failure: empty batch",
			give:    BatchOperation{},
			wantErr: true,
		},
		{
			name: "failure: zero target in call",
			give: BatchOperation{Calls: []BatchCall{
				{Data: opData},
			}},
			wantErr: true,
		},
		{
			name: "failure: negative value in call",
			give: BatchOperation{Calls: []BatchCall{
				{Target: opTarget, Value: big.NewInt(-7)},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.give.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestBatchOperationAccessors(t *testing.T) {
	t.Parallel()

	other := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	bop := BatchOperation{Calls: []BatchCall{
		{Target: opTarget, Value: big.NewInt(1), Data: opData},
		{Target: other, Data: hexutil.MustDecode("0x1234")},
	}}

	assert.Equal(t, []common.Address{opTarget, other}, bop.Targets())
	assert.Equal(t, []*big.Int{big.NewInt(1), big.NewInt(0)}, bop.Values())
	require.Len(t, bop.Datas(), 2)
	assert.Equal(t, []byte(opData), bop.Datas()[0])
}

func TestOperationJSONRoundTrip(t *testing.T) {
	t.Parallel()

	salt := common.HexToHash("0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	op := Operation{
		Target: opTarget,
		Value:  big.NewInt(42),
		Data:   opData,
		Salt:   &salt,
	}

	raw, err := json.Marshal(op)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"data":"0x8456cb59"`)

	var decoded Operation
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, op.Target, decoded.Target)
	assert.Equal(t, op.Data, decoded.Data)
	require.NotNil(t, decoded.Salt)
	assert.Equal(t, salt, *decoded.Salt)
	assert.Nil(t, decoded.Predecessor)
}
