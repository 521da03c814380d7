package ot

import (
	"crypto/ecdh"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sjieng123/zids/seedschedule"
	"github.com/sjieng123/zids/session"
)

func TestSealOpenEnvelopeRoundTrip(t *testing.T) {
	server, err := GenerateKeyPair()
	require.NoError(t, err)

	aad := []byte("ZIDS|GK|sid=abc|row=\x00\x00\x00\x01")
	plaintext := []byte("group-key-material")

	envelope, err := SealEnvelope(server.Public, plaintext, aad)
	require.NoError(t, err)

	opened, err := OpenEnvelope(server.Private, envelope, aad)
	require.NoError(t, err)
	require.Equal(t, plaintext, opened)
}

func TestOpenEnvelopeRejectsWrongAAD(t *testing.T) {
	server, err := GenerateKeyPair()
	require.NoError(t, err)

	envelope, err := SealEnvelope(server.Public, []byte("payload"), []byte("aad-a"))
	require.NoError(t, err)

	_, err = OpenEnvelope(server.Private, envelope, []byte("aad-b"))
	require.Error(t, err)
}

// directTransport wires a Remote chooser straight to a Responder without any
// real network, for end-to-end testing.
type directTransport struct {
	responder *Responder
	clientPub *ecdh.PublicKey
}

func (dt *directTransport) RoundTrip(envelope []byte) ([]byte, error) {
	return dt.responder.HandleEnvelope(dt.clientPub, envelope)
}

func TestRemoteAcquireGKEndToEnd(t *testing.T) {
	m := session.NewManager()
	t.Cleanup(func() { m.Close() })

	sched := seedschedule.Schedule{Mode: seedschedule.ModeMasterToGKToSeed, Master: []byte("master-key-0123"), GKBytes: 32, KBytes: 16}
	sess, err := m.InitSession(sched, []int{3}, 16)
	require.NoError(t, err)

	client, err := GenerateKeyPair()
	require.NoError(t, err)
	server, err := GenerateKeyPair()
	require.NoError(t, err)

	responder := &Responder{Self: server, Sess: sess}
	transport := &directTransport{responder: responder, clientPub: client.Public}

	remote := &Remote{
		SessionID: sess.GetID(),
		Self:      client,
		ServerPub: server.Public,
		Transport: transport,
	}

	require.True(t, remote.SupportsAcquireGK())
	require.False(t, remote.SupportsChooseOne())

	_, wantPayload, err := sess.RowPayload(0)
	require.NoError(t, err)

	gk, err := remote.AcquireGK(0, 3, 1, nil)
	require.NoError(t, err)
	require.Equal(t, wantPayload[1], gk)
}

func TestRemoteAcquireGKRejectsMismatchedAAD(t *testing.T) {
	m := session.NewManager()
	t.Cleanup(func() { m.Close() })

	sched := seedschedule.Schedule{Mode: seedschedule.ModeMasterToGKToSeed, Master: []byte("master-key-0123"), GKBytes: 32, KBytes: 16}
	sess, err := m.InitSession(sched, []int{2}, 16)
	require.NoError(t, err)

	client, err := GenerateKeyPair()
	require.NoError(t, err)
	server, err := GenerateKeyPair()
	require.NoError(t, err)

	remote := &Remote{
		SessionID: sess.GetID(),
		Self:      client,
		ServerPub: server.Public,
		Transport: &directTransport{responder: &Responder{Self: server, Sess: sess}, clientPub: client.Public},
	}

	_, err = remote.AcquireGK(0, 2, 0, []byte("not-the-real-aad"))
	require.Error(t, err)
}
