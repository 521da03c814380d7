package ot

import (
	"crypto/ecdh"
	"fmt"

	"github.com/sjieng123/zids/codec"
	"github.com/sjieng123/zids/session"
)

// Responder is the server side of the Remote transport: it reads the
// cleartext row prefix off an incoming envelope, opens the sealed request,
// looks the answer up in sess, and seals the response back to the
// requester's public key. It is the in-process counterpart a real
// zids-serve handler wraps with whatever network framing it uses (see
// SPEC_FULL.md §6.1); tests wire it directly through an in-memory
// Transport.
type Responder struct {
	Self *KeyPair
	Sess *session.Session
}

// HandleEnvelope processes one request produced by Remote.AcquireGK and
// returns the sealed response envelope.
func (r *Responder) HandleEnvelope(requesterPub *ecdh.PublicKey, envelope []byte) ([]byte, error) {
	row, sealed, err := decodeRowPrefix(envelope)
	if err != nil {
		return nil, fmt.Errorf("ot: responder: %w", err)
	}

	aad := codec.RowAAD(r.Sess.GetID(), row)

	plaintext, err := OpenEnvelope(r.Self.Private, sealed, aad)
	if err != nil {
		return nil, fmt.Errorf("ot: responder: open request: %w", err)
	}

	reqRow, _, col, err := decodeRequest(plaintext)
	if err != nil {
		return nil, fmt.Errorf("ot: responder: %w", err)
	}
	if reqRow != row {
		return nil, fmt.Errorf("ot: responder: request row does not match envelope prefix")
	}

	_, payload, err := r.Sess.RowPayload(row)
	if err != nil {
		return nil, fmt.Errorf("ot: responder: row payload: %w", err)
	}
	if col < 0 || col >= len(payload) {
		return nil, fmt.Errorf("ot: responder: column %d out of range (m=%d)", col, len(payload))
	}

	respEnvelope, err := SealEnvelope(requesterPub, payload[col], aad)
	if err != nil {
		return nil, fmt.Errorf("ot: responder: seal response: %w", err)
	}
	return respEnvelope, nil
}
