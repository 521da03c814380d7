package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPRFDeterministic(t *testing.T) {
	key := []byte("group-key-material-0123456789ab")
	msg := []byte("ZIDS|SEED|row=0000|col=00")

	a, err := PRF(key, msg, 16)
	require.NoError(t, err)
	b, err := PRF(key, msg, 16)
	require.NoError(t, err)
	require.True(t, bytes.Equal(a, b))
}

func TestPRFVariesWithMessage(t *testing.T) {
	key := []byte("group-key-material-0123456789ab")

	a, err := PRF(key, []byte("row=0"), 32)
	require.NoError(t, err)
	b, err := PRF(key, []byte("row=1"), 32)
	require.NoError(t, err)
	require.False(t, bytes.Equal(a, b))
}

func TestPRFExpandsBeyondHashSize(t *testing.T) {
	out, err := PRF([]byte("k"), []byte("m"), 100)
	require.NoError(t, err)
	require.Len(t, out, 100)
}

func TestPRFRejectsEmptyKey(t *testing.T) {
	_, err := PRF(nil, []byte("m"), 16)
	require.ErrorIs(t, err, ErrEmptyKey)
}

func TestPRFRejectsBadLength(t *testing.T) {
	_, err := PRF([]byte("k"), []byte("m"), 0)
	require.ErrorIs(t, err, ErrInvalidLength)

	_, err = PRF([]byte("k"), []byte("m"), -1)
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestPRGDeterministicAndLabelSeparated(t *testing.T) {
	seed := []byte("0123456789abcdef")

	a, err := PRG(seed, "ZIDS|CELL", 24)
	require.NoError(t, err)
	b, err := PRG(seed, "ZIDS|CELL", 24)
	require.NoError(t, err)
	require.True(t, bytes.Equal(a, b))

	c, err := PRG(seed, "ZIDS|OTHER", 24)
	require.NoError(t, err)
	require.False(t, bytes.Equal(a, c))
}

func TestPRGRejectsEmptySeed(t *testing.T) {
	_, err := PRG(nil, "ZIDS|CELL", 16)
	require.ErrorIs(t, err, ErrEmptyKey)
}

func TestI2OSP(t *testing.T) {
	require.Equal(t, []byte{0, 0, 0, 5}, I2OSP(5, 4))
	require.Equal(t, []byte{0x01, 0x02}, I2OSP(0x0102, 2))
}
