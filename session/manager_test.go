package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sjieng123/zids/seedschedule"
)

func testSchedule() seedschedule.Schedule {
	return seedschedule.Schedule{
		Mode:    seedschedule.ModeMasterToGKToSeed,
		Master:  []byte("0123456789abcdef"),
		GKBytes: 32,
		KBytes:  16,
	}
}

func TestInitSessionPopulatesGKTable(t *testing.T) {
	m := NewManager()
	defer m.Close()

	colsPerRow := []int{2, 3, 1}
	sess, err := m.InitSession(testSchedule(), colsPerRow, 16)
	require.NoError(t, err)
	require.NotEmpty(t, sess.GetID())

	n, err := sess.NumCols(1)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestGetSessionRoundTrip(t *testing.T) {
	m := NewManager()
	defer m.Close()

	sess, err := m.InitSession(testSchedule(), []int{1}, 16)
	require.NoError(t, err)

	got, err := m.GetSession(sess.GetID())
	require.NoError(t, err)
	require.Equal(t, sess.GetID(), got.GetID())
}

func TestGetSessionNotFound(t *testing.T) {
	m := NewManager()
	defer m.Close()

	_, err := m.GetSession("does-not-exist")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetSessionExpiredIsRemoved(t *testing.T) {
	m := NewManager()
	defer m.Close()
	m.SetDefaultConfig(Config{MaxAge: time.Millisecond, IdleTimeout: time.Hour})

	sess, err := m.InitSession(testSchedule(), []int{1}, 16)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = m.GetSession(sess.GetID())
	require.ErrorIs(t, err, ErrExpired)
	require.Equal(t, 0, m.Count())
}

func TestRemoveSessionClosesIt(t *testing.T) {
	m := NewManager()
	defer m.Close()

	sess, err := m.InitSession(testSchedule(), []int{1}, 16)
	require.NoError(t, err)

	m.RemoveSession(sess.GetID())
	_, _, err = sess.RowPayload(0)
	require.ErrorIs(t, err, ErrClosed)
}

func TestInitSessionDirectSharesMasterAcrossColumns(t *testing.T) {
	m := NewManager()
	defer m.Close()

	sched := seedschedule.Schedule{
		Mode:   seedschedule.ModeMasterToSeed,
		Master: []byte("0123456789abcdef"),
		KBytes: 16,
	}
	sess, err := m.InitSessionDirect(sched, []int{2}, 16)
	require.NoError(t, err)

	_, payload, err := sess.RowPayload(0)
	require.NoError(t, err)
	require.Len(t, payload, 2)
	require.Equal(t, sched.Master, payload[0])
	require.Equal(t, payload[0], payload[1])

	seed0, err := sess.DeriveSeed(0, 0)
	require.NoError(t, err)
	direct, err := seedschedule.DeriveSeedDirect(sched.Master, 0, 0, 16)
	require.NoError(t, err)
	require.Equal(t, direct, seed0)
}

func TestInitSessionRejectsWrongMode(t *testing.T) {
	m := NewManager()
	defer m.Close()

	sched := seedschedule.Schedule{Mode: seedschedule.ModeMasterToSeed, Master: []byte("0123456789abcdef"), KBytes: 16}
	_, err := m.InitSession(sched, []int{1}, 16)
	require.ErrorIs(t, err, ErrWrongSeedMode)
}

func TestInitSessionDirectRejectsWrongMode(t *testing.T) {
	m := NewManager()
	defer m.Close()

	_, err := m.InitSessionDirect(testSchedule(), []int{1}, 16)
	require.ErrorIs(t, err, ErrWrongSeedMode)
}

func TestStats(t *testing.T) {
	m := NewManager()
	defer m.Close()

	_, err := m.InitSession(testSchedule(), []int{1}, 16)
	require.NoError(t, err)

	st := m.Stats()
	require.Equal(t, 1, st.TotalSessions)
	require.Equal(t, 1, st.ActiveSessions)
	require.Equal(t, 0, st.ExpiredSessions)
}
