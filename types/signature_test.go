package types

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSignatureFromBytes(t *testing.T) {
	t.Parallel()

	raw := bytes.Repeat([]byte{0x01}, SignatureBytesLength)
	raw[SignatureBytesLength-1] = 28

	sig, err := NewSignatureFromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, uint8(28), sig.V)
	assert.Equal(t, raw, sig.ToBytes())

	_, err = NewSignatureFromBytes(raw[:64])
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid signature length")
}
