package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sjieng123/zids/codec"
	"github.com/sjieng123/zids/seedschedule"
)

func TestRowPayloadReturnsAADAndKeys(t *testing.T) {
	m := NewManager()
	defer m.Close()

	sess, err := m.InitSession(testSchedule(), []int{2}, 16)
	require.NoError(t, err)

	aad, payload, err := sess.RowPayload(0)
	require.NoError(t, err)
	require.Equal(t, codec.RowAAD(sess.GetID(), 0), aad)
	require.Len(t, payload, 2)
	require.NotEmpty(t, payload[0])
	require.NotEmpty(t, payload[1])
	require.NotEqual(t, payload[0], payload[1])
}

func TestRowPayloadRowOutOfRange(t *testing.T) {
	m := NewManager()
	defer m.Close()

	sess, err := m.InitSession(testSchedule(), []int{2}, 16)
	require.NoError(t, err)

	_, _, err = sess.RowPayload(5)
	require.ErrorIs(t, err, ErrRowOutOfRange)
}

func TestCheckAADMismatch(t *testing.T) {
	m := NewManager()
	defer m.Close()

	sess, err := m.InitSession(testSchedule(), []int{1}, 16)
	require.NoError(t, err)

	err = sess.CheckAAD(0, []byte("ZIDS|GK|sid=wrong|row=\x00\x00\x00\x00"))
	require.ErrorIs(t, err, ErrAADMismatch)
}

func TestCheckAADMatches(t *testing.T) {
	m := NewManager()
	defer m.Close()

	sess, err := m.InitSession(testSchedule(), []int{1}, 16)
	require.NoError(t, err)

	aad, _, err := sess.RowPayload(0)
	require.NoError(t, err)
	require.NoError(t, sess.CheckAAD(0, aad))
}

func TestDeriveSeedMatchesGKDerivedSeed(t *testing.T) {
	m := NewManager()
	defer m.Close()

	sched := testSchedule()
	sess, err := m.InitSession(sched, []int{1}, 16)
	require.NoError(t, err)

	_, payload, err := sess.RowPayload(0)
	require.NoError(t, err)

	fromSession, err := sess.DeriveSeed(0, 0)
	require.NoError(t, err)

	fromGK, err := seedschedule.SeedFromGK(payload[0], 0, 0, 16)
	require.NoError(t, err)

	require.Equal(t, fromGK, fromSession)
}

func TestCloseZeroesKeyMaterial(t *testing.T) {
	m := NewManager()
	defer m.Close()

	sess, err := m.InitSession(testSchedule(), []int{1}, 16)
	require.NoError(t, err)

	require.NoError(t, sess.Close())
	_, _, err = sess.RowPayload(0)
	require.ErrorIs(t, err, ErrClosed)
}
