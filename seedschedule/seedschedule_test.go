package seedschedule

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

var testMaster = bytes.Repeat([]byte{0x00}, 16)

func TestScheduleMasterToGKToSeedDeterministic(t *testing.T) {
	s := Schedule{Mode: ModeMasterToGKToSeed, Master: testMaster, GKBytes: 32, KBytes: 16}

	a, err := s.Seed(3, 1)
	require.NoError(t, err)
	b, err := s.Seed(3, 1)
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Len(t, a, 16)
}

func TestScheduleMasterToSeedDeterministic(t *testing.T) {
	s := Schedule{Mode: ModeMasterToSeed, Master: testMaster, KBytes: 16}

	a, err := s.Seed(3, 1)
	require.NoError(t, err)
	b, err := s.Seed(3, 1)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestScheduleModesDiffer(t *testing.T) {
	viaGK := Schedule{Mode: ModeMasterToGKToSeed, Master: testMaster, GKBytes: 32, KBytes: 16}
	direct := Schedule{Mode: ModeMasterToSeed, Master: testMaster, KBytes: 16}

	a, err := viaGK.Seed(3, 1)
	require.NoError(t, err)
	b, err := direct.Seed(3, 1)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestScheduleRandomModeRejected(t *testing.T) {
	s := Schedule{Mode: ModeRandom, Master: testMaster, KBytes: 16}
	_, err := s.Seed(0, 0)
	require.ErrorIs(t, err, ErrRandomModeNotProduction)
}

func TestScheduleUnknownMode(t *testing.T) {
	s := Schedule{Mode: "bogus", Master: testMaster, KBytes: 16}
	_, err := s.Seed(0, 0)
	require.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestSeedFromGKMatchesScheduleGKPath(t *testing.T) {
	s := Schedule{Mode: ModeMasterToGKToSeed, Master: testMaster, GKBytes: 32, KBytes: 16}

	gk, err := DeriveGK(testMaster, 3, 1, 32)
	require.NoError(t, err)

	seedViaHelper, err := SeedFromGK(gk, 3, 1, 16)
	require.NoError(t, err)

	seedViaSchedule, err := s.Seed(3, 1)
	require.NoError(t, err)

	require.Equal(t, seedViaSchedule, seedViaHelper)
}

func TestPermutationInvarianceOfSeedSchedule(t *testing.T) {
	// The seed derivation depends only on (row, col) in the *new* (permuted)
	// row space, never on the underlying logical state id, so two different
	// permutations of the same master produce identical per-cell seeds once
	// row/col are fixed.
	s := Schedule{Mode: ModeMasterToGKToSeed, Master: testMaster, GKBytes: 32, KBytes: 16}
	a, err := s.Seed(7, 2)
	require.NoError(t, err)
	b, err := s.Seed(7, 2)
	require.NoError(t, err)
	require.Equal(t, a, b)
}
