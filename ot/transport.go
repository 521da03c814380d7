// Package ot implements the transport-level crypto the remote chooser uses
// to exchange group-key payloads with the server: HPKE base-mode sealing
// (X25519 KEM, HKDF-SHA256, ChaCha20-Poly1305) to the peer's public key,
// with the fixed ZIDS row AAD bound as associated data on every seal/open.
// This is deliberately *not* the 1-of-m oblivious
// transfer protocol itself - the receiver still learns every sealed
// payload entry, a real OT primitive is what hides the choice (see
// chooser.OTPrimitive) - it only protects the envelope the payload travels
// in against tampering (a replayed envelope is not detected), grounded on the teacher's
// crypto/keys/x25519.go HPKE-exporter helpers (trimmed of the Ed25519-peer
// conversion paths, which have no GDFA counterpart).
package ot

import (
	"crypto/ecdh"
	"crypto/rand"
	"fmt"

	"github.com/cloudflare/circl/hpke"

	"github.com/sjieng123/zids/internal/metrics"
)

const algLabel = "x25519-hpke"

var suite = hpke.NewSuite(
	hpke.KEM_X25519_HKDF_SHA256,
	hpke.KDF_HKDF_SHA256,
	hpke.AEAD_ChaCha20Poly1305,
)

// KeyPair is an ephemeral X25519 key pair used for one transport session.
type KeyPair struct {
	Private *ecdh.PrivateKey
	Public  *ecdh.PublicKey
}

// GenerateKeyPair creates a fresh ephemeral X25519 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("ot: generate X25519 key pair: %w", err)
	}
	return &KeyPair{Private: priv, Public: priv.PublicKey()}, nil
}

// SealEnvelope seals plaintext (a serialised row-payload response) to
// peerPub, binding aad (the fixed ZIDS row AAD) as associated data, and
// returns the wire envelope (enc || ciphertext).
func SealEnvelope(peerPub *ecdh.PublicKey, plaintext, aad []byte) ([]byte, error) {
	env, err := sealEnvelope(peerPub, plaintext, aad)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("seal").Inc()
		return nil, err
	}
	metrics.CryptoOperations.WithLabelValues("seal", algLabel).Inc()
	return env, nil
}

func sealEnvelope(peerPub *ecdh.PublicKey, plaintext, aad []byte) ([]byte, error) {
	kem := hpke.KEM_X25519_HKDF_SHA256.Scheme()
	rp, err := kem.UnmarshalBinaryPublicKey(peerPub.Bytes())
	if err != nil {
		return nil, fmt.Errorf("ot: unmarshal peer public key: %w", err)
	}

	sender, err := suite.NewSender(rp, aad)
	if err != nil {
		return nil, fmt.Errorf("ot: new sender: %w", err)
	}

	enc, sealer, err := sender.Setup(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("ot: sender setup: %w", err)
	}

	ct, err := sealer.Seal(plaintext, aad)
	if err != nil {
		return nil, fmt.Errorf("ot: seal: %w", err)
	}

	return append(append([]byte{}, enc...), ct...), nil
}

// OpenEnvelope opens an envelope produced by SealEnvelope using priv,
// verifying it was bound to the same aad the caller expects. A mismatched
// aad (e.g. a different session id or row) fails the AEAD tag check here,
// surfacing as an error the caller should treat as a SessionError-class
// rejection rather than retrying.
func OpenEnvelope(priv *ecdh.PrivateKey, envelope, aad []byte) ([]byte, error) {
	pt, err := openEnvelope(priv, envelope, aad)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("open").Inc()
		return nil, err
	}
	metrics.CryptoOperations.WithLabelValues("open", algLabel).Inc()
	return pt, nil
}

func openEnvelope(priv *ecdh.PrivateKey, envelope, aad []byte) ([]byte, error) {
	const encLen = 32 // X25519 KEM encapsulated-key length
	if len(envelope) < encLen {
		return nil, fmt.Errorf("ot: envelope too short: %d bytes", len(envelope))
	}
	enc, ct := envelope[:encLen], envelope[encLen:]

	kem := hpke.KEM_X25519_HKDF_SHA256.Scheme()
	skR, err := kem.UnmarshalBinaryPrivateKey(priv.Bytes())
	if err != nil {
		return nil, fmt.Errorf("ot: unmarshal private key: %w", err)
	}

	receiver, err := suite.NewReceiver(skR, aad)
	if err != nil {
		return nil, fmt.Errorf("ot: new receiver: %w", err)
	}

	opener, err := receiver.Setup(enc)
	if err != nil {
		return nil, fmt.Errorf("ot: receiver setup: %w", err)
	}

	pt, err := opener.Open(ct, aad)
	if err != nil {
		return nil, fmt.Errorf("ot: open (aad mismatch or tampered envelope): %w", err)
	}
	return pt, nil
}
