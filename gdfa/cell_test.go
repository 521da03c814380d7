package gdfa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlanCellRowBits(t *testing.T) {
	p := PlanCell(4, 16)
	require.EqualValues(t, 2, p.RowBits)

	p2 := PlanCell(5, 16)
	require.EqualValues(t, 3, p2.RowBits)

	p3 := PlanCell(1, 0)
	require.EqualValues(t, 1, p3.RowBits)
}

func TestPackUnpackRoundTripCanonical(t *testing.T) {
	p := PlanCell(100, 16)
	for _, tc := range []struct {
		nextRow int
		aid     uint32
	}{
		{0, 0}, {99, 1}, {42, 65535}, {1, 3},
	} {
		buf, err := p.Pack(tc.nextRow, tc.aid, LayoutCanonical)
		require.NoError(t, err)
		require.Len(t, buf, p.CellBytes)

		gotRow, gotAid, err := p.Unpack(buf, LayoutCanonical)
		require.NoError(t, err)
		require.Equal(t, tc.nextRow, gotRow)
		require.Equal(t, tc.aid, gotAid)
	}
}

func TestPackUnpackRoundTripLegacy(t *testing.T) {
	p := PlanCell(100, 16)
	buf, err := p.Pack(42, 7, LayoutLegacy)
	require.NoError(t, err)

	gotRow, gotAid, err := p.Unpack(buf, LayoutLegacy)
	require.NoError(t, err)
	require.Equal(t, 42, gotRow)
	require.EqualValues(t, 7, gotAid)
}

func TestPackRejectsOutOfRangeNextRow(t *testing.T) {
	p := PlanCell(4, 8)
	_, err := p.Pack(10, 0, LayoutCanonical)
	require.Error(t, err)
}

func TestPackRejectsAidBeyondBudget(t *testing.T) {
	p := PlanCell(4, 4) // aid_bits=4 -> max 15
	_, err := p.Pack(0, 16, LayoutCanonical)
	require.Error(t, err)
}

func TestCanonicalAndLegacyProduceDifferentBytesInGeneral(t *testing.T) {
	p := PlanCell(100, 16)
	c, err := p.Pack(42, 7, LayoutCanonical)
	require.NoError(t, err)
	l, err := p.Pack(42, 7, LayoutLegacy)
	require.NoError(t, err)
	require.NotEqual(t, c, l)
}
