package chooser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sjieng123/zids/seedschedule"
	"github.com/sjieng123/zids/session"
)

func newTestSession(t *testing.T, colsPerRow []int) *session.Manager {
	t.Helper()
	m := session.NewManager()
	t.Cleanup(func() { m.Close() })
	return m
}

func TestLocalChooseOneDirectIndex(t *testing.T) {
	m := newTestSession(t, nil)
	sched := seedschedule.Schedule{Mode: seedschedule.ModeMasterToGKToSeed, Master: []byte("master-key-0123"), GKBytes: 32, KBytes: 16}
	sess, err := m.InitSession(sched, []int{3}, 16)
	require.NoError(t, err)

	_, payload, err := sess.RowPayload(0)
	require.NoError(t, err)

	c := &Local{Sess: sess}
	gk, err := c.ChooseOne(0, 1)
	require.NoError(t, err)
	require.Equal(t, payload[1], gk)
}

func TestLocalChooseOneColumnOutOfRange(t *testing.T) {
	m := newTestSession(t, nil)
	sched := seedschedule.Schedule{Mode: seedschedule.ModeMasterToGKToSeed, Master: []byte("master-key-0123"), GKBytes: 32, KBytes: 16}
	sess, err := m.InitSession(sched, []int{2}, 16)
	require.NoError(t, err)

	c := &Local{Sess: sess}
	_, err = c.ChooseOne(0, 9)
	require.Error(t, err)
}

func TestLocalChooseOneProbesPermutedSlots(t *testing.T) {
	// Scenario F: the server shuffles the physical payload order for a
	// row; the probing chooser must still resolve the correct GK for each
	// logical column by matching seeds.
	m := newTestSession(t, nil)
	sched := seedschedule.Schedule{Mode: seedschedule.ModeMasterToGKToSeed, Master: []byte("master-key-0123"), GKBytes: 32, KBytes: 16}
	sess, err := m.InitSession(sched, []int{3}, 16)
	require.NoError(t, err)

	// physical slot 0 <- logical col 2, physical 1 <- logical 0, physical 2 <- logical 1
	sess.SetRowSlotPermutation(0, []int{2, 0, 1})

	c := &Local{Sess: sess, Probe: true, KBytes: 16}

	for logicalCol := 0; logicalCol < 3; logicalCol++ {
		gk, err := c.ChooseOne(0, logicalCol)
		require.NoError(t, err)

		wantSeed, err := sess.DeriveSeed(0, logicalCol)
		require.NoError(t, err)
		gotSeed, err := seedschedule.SeedFromGK(gk, 0, uint32(logicalCol), 16)
		require.NoError(t, err)
		require.Equal(t, wantSeed, gotSeed)
	}
}

func TestLocalAcquireGKUnsupported(t *testing.T) {
	c := &Local{}
	_, err := c.AcquireGK(0, 1, 0, nil)
	require.ErrorIs(t, err, ErrNoMethodAvailable)
	require.False(t, c.SupportsAcquireGK())
}
