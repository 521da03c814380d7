package builder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sjieng123/zids/codec"
	"github.com/sjieng123/zids/gdfa"
	"github.com/sjieng123/zids/seedschedule"
)

// twoStateDFA: state 0 is start/non-accepting, any byte 'x' (0x78) goes to
// state 1 (accepting, id=7), every other byte self-loops on state 0. State
// 1 is a sink back to itself on every byte.
func twoStateDFA() DFA {
	var t0, t1 [256]int
	for b := 0; b < 256; b++ {
		t0[b] = 0
		t1[b] = 1
	}
	t0['x'] = 1

	return DFA{
		NumStates:   2,
		StartState:  0,
		Transitions: [][256]int{t0, t1},
		AcceptIDs:   []uint32{0, 7},
	}
}

func testParams() Params {
	return Params{
		AidBits: 8,
		Outmax:  4,
		Sched: seedschedule.Schedule{
			Mode:    seedschedule.ModeMasterToGKToSeed,
			Master:  []byte("builder-test-master-key"),
			GKBytes: 32,
			KBytes:  16,
		},
		Layout: gdfa.LayoutCanonical,
	}
}

func TestBuildProducesValidArtifact(t *testing.T) {
	res, err := Build(twoStateDFA(), testParams(), nil, "")
	require.NoError(t, err)
	require.NoError(t, res.Artifact.Header.Validate())
	require.Equal(t, 2, res.Artifact.Header.NumStates)
	require.Equal(t, 4, res.Artifact.Header.Outmax)
}

func TestBuildRejectsRandomModeOutsideTestBuild(t *testing.T) {
	params := testParams()
	params.Sched.Mode = seedschedule.ModeRandom
	_, err := Build(twoStateDFA(), params, nil, "")
	require.ErrorIs(t, err, ErrAmbiguousSeedMode)
}

func TestBuildRejectsRowExceedingOutmax(t *testing.T) {
	params := testParams()
	params.Outmax = 1 // state 0 has 2 destination groups (self-loop + 'x')
	_, err := Build(twoStateDFA(), params, nil, "")
	require.Error(t, err)
}

func TestBuildPersistsSecretsForTestBuild(t *testing.T) {
	params := testParams()
	params.TestBuild = true
	store := NewSecretStore()

	_, err := Build(twoStateDFA(), params, store, "build-1")
	require.NoError(t, err)

	secrets, err := store.Load("build-1")
	require.NoError(t, err)
	require.Len(t, secrets.InversePermutation, 2)
}

// TestBuiltArtifactDecryptsCorrectly manually replays the online engine's
// per-byte decrypt procedure over the built artifact to verify the cell
// contents actually encode the DFA's transitions, independent of the
// engine package.
func TestBuiltArtifactDecryptsCorrectly(t *testing.T) {
	params := testParams()
	res, err := Build(twoStateDFA(), params, nil, "")
	require.NoError(t, err)

	art := res.Artifact
	part := res.Partition
	sched := params.Sched

	row := art.Header.StartRow
	decryptStep := func(r int, b byte) (nextRow int, attackID uint32) {
		cols, err := part.ColsCandidates(r, b)
		require.NoError(t, err)
		require.Len(t, cols, 1)
		col := cols[0]

		seed, err := sched.Seed(uint32(r), uint32(col))
		require.NoError(t, err)
		pad, err := codec.PRG(seed, "ZIDS|CELL", art.Header.CellBytes)
		require.NoError(t, err)

		ct, err := art.GetCell(r, col)
		require.NoError(t, err)
		plain := make([]byte, len(ct))
		for i := range ct {
			plain[i] = ct[i] ^ pad[i]
		}

		cellPlan := gdfa.PlanCell(art.Header.NumStates, art.Header.AidBits)
		nr, aid, err := cellPlan.Unpack(plain, gdfa.LayoutCanonical)
		require.NoError(t, err)
		return nr, aid
	}

	// byte 'y' keeps state 0 non-accepting
	nextRow, aid := decryptStep(row, 'y')
	require.Equal(t, uint32(0), aid)
	row = nextRow

	// byte 'x' transitions to the accepting state
	nextRow, aid = decryptStep(row, 'x')
	require.Equal(t, uint32(7), aid)

	rowAid, err := art.RowAid(nextRow)
	require.NoError(t, err)
	require.Equal(t, uint32(7), rowAid)
}
