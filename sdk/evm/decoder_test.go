package evm

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderDecode(t *testing.T) {
	t.Parallel()

	grantRoleData := hexutil.MustDecode("0x2f2ff15db09aa5aeb3702cfd50b6b62bc4532604938f21248a27a1d5ca736082b6819cc1000000000000000000000000dddddddddddddddddddddddddddddddddddddddd")

	tests := []struct {
		name          string
		giveData      []byte
		giveSignature string
		wantMethod    string
		wantArgs      int
		wantErr       bool
	}{
		{
			name:          "success: grantRole",
			giveData:      grantRoleData,
			giveSignature: "grantRole(bytes32,address)",
			wantMethod:    "grantRole",
			wantArgs:      2,
		},
		{
			name:          "success: no-arg call",
			giveData:      hexutil.MustDecode("0x8456cb59"),
			giveSignature: "pause()",
			wantMethod:    "pause",
			wantArgs:      0,
		},
		{
			name:          "failure: wrong signature for payload",
			giveData:      grantRoleData,
			giveSignature: "transfer(address,uint256)",
			wantErr:       true,
		},
		{
			name:          "failure: truncated payload",
			giveData:      []byte{0x2f, 0x2f},
			giveSignature: "grantRole(bytes32,address)",
			wantErr:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			decoder := NewDecoder()
			decoded, err := decoder.Decode(tt.giveData, tt.giveSignature)
			if tt.wantErr {
				require.Error(t, err)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMethod, decoded.MethodName)
			assert.Len(t, decoded.InputArgs, tt.wantArgs)
		})
	}
}

func TestDecoderDecode_Values(t *testing.T) {
	t.Parallel()

	decoder := NewDecoder()
	data := hexutil.MustDecode("0xa9059cbb000000000000000000000000cccccccccccccccccccccccccccccccccccccccc00000000000000000000000000000000000000000000000000000000000003e8")

	decoded, err := decoder.Decode(data, "transfer(address,uint256)")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc"), decoded.InputArgs[0])

	formatted, err := FormatCall(decoded)
	require.NoError(t, err)
	assert.Contains(t, formatted, "arg0")
}
