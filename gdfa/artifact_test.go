package gdfa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validHeader() Header {
	return Header{
		AlphabetSize: 256,
		Outmax:       2,
		Cmax:         1,
		NumStates:    4,
		StartRow:     0,
		CellBytes:    2,
		RowBytes:     4,
		AidBits:      8,
	}
}

func TestNewArtifactValidatesSize(t *testing.T) {
	h := validHeader()
	_, err := New(h, make([]byte, 10), nil)
	require.Error(t, err)

	art, err := New(h, make([]byte, h.NumStates*h.RowBytes), nil)
	require.NoError(t, err)
	require.NotNil(t, art)
}

func TestHeaderRejectsBadAlphabetSize(t *testing.T) {
	h := validHeader()
	h.AlphabetSize = 128
	err := h.Validate()
	require.ErrorIs(t, err, ErrInvalidAlphabetSize)
}

func TestHeaderRejectsBadCmax(t *testing.T) {
	h := validHeader()
	h.Cmax = 2
	err := h.Validate()
	require.ErrorIs(t, err, ErrInvalidCmax)
}

func TestHeaderRejectsNonBijectivePermutation(t *testing.T) {
	h := validHeader()
	h.Permutation = []int{0, 0, 1, 2}
	err := h.Validate()
	require.ErrorIs(t, err, ErrInvalidPermutation)
}

func TestHeaderAcceptsValidPermutation(t *testing.T) {
	h := validHeader()
	h.Permutation = []int{3, 1, 0, 2}
	require.NoError(t, h.Validate())
}

func TestGetCellAndRowSliceBounds(t *testing.T) {
	h := validHeader()
	art, err := New(h, make([]byte, h.NumStates*h.RowBytes), nil)
	require.NoError(t, err)

	_, err = art.RowSlice(4)
	require.ErrorIs(t, err, ErrRowOutOfRange)

	_, err = art.GetCell(0, 5)
	require.ErrorIs(t, err, ErrColOutOfRange)

	cell, err := art.GetCell(0, 0)
	require.NoError(t, err)
	require.Len(t, cell, h.CellBytes)
}

func TestInvPermuteIdentityWhenNoPermutation(t *testing.T) {
	h := validHeader()
	art, err := New(h, make([]byte, h.NumStates*h.RowBytes), nil)
	require.NoError(t, err)

	old, err := art.InvPermute(2)
	require.NoError(t, err)
	require.Equal(t, 2, old)
}

func TestInvPermuteUsesStoredMapping(t *testing.T) {
	h := validHeader()
	h.Permutation = []int{3, 1, 0, 2} // new_row -> old_state
	art, err := New(h, make([]byte, h.NumStates*h.RowBytes), nil)
	require.NoError(t, err)

	old, err := art.InvPermute(0)
	require.NoError(t, err)
	require.Equal(t, 3, old)
}

func TestRowAidDefaultsToZeroWithoutTable(t *testing.T) {
	h := validHeader()
	art, err := New(h, make([]byte, h.NumStates*h.RowBytes), nil)
	require.NoError(t, err)

	aid, err := art.RowAid(1)
	require.NoError(t, err)
	require.EqualValues(t, 0, aid)
}

func TestRowAidFromTable(t *testing.T) {
	h := validHeader()
	aids := []uint32{0, 0, 7, 0}
	art, err := New(h, make([]byte, h.NumStates*h.RowBytes), aids)
	require.NoError(t, err)

	aid, err := art.RowAid(2)
	require.NoError(t, err)
	require.EqualValues(t, 7, aid)
}
