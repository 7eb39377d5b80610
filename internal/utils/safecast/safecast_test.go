package safecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Uint64ToInt64(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		give      uint64
		want      int64
		wantError bool
	}{
		{name: "success: zero", give: 0, want: 0},
		{name: "success: max int64", give: math.MaxInt64, want: math.MaxInt64},
		{name: "failure: overflow", give: math.MaxInt64 + 1, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Uint64ToInt64(tt.give)
			if tt.wantError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func Test_IntToInt32(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		give      int
		want      int32
		wantError bool
	}{
		{name: "success: in range", give: 100, want: 100},
		{name: "success: negative", give: -100, want: -100},
		{name: "failure: overflow", give: math.MaxInt32 + 1, wantError: true},
		{name: "failure: underflow", give: math.MinInt32 - 1, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := IntToInt32(tt.give)
			if tt.wantError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
