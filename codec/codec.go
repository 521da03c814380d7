// Package codec implements the keyed pseudorandom primitives the rest of
// the GDFA stack is built on: a counter-mode PRF over HMAC-SHA256 and a
// seed-expanding PRG built from the same construction with a distinct
// domain-separation prefix.
package codec

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"errors"
)

// ErrEmptyKey is returned when PRF or PRG is called with an empty key/seed.
var ErrEmptyKey = errors.New("codec: key must not be empty")

// ErrInvalidLength is returned when a non-positive output length is requested.
var ErrInvalidLength = errors.New("codec: out_len must be positive")

const blockSize = sha256.Size

// PRF deterministically expands (key, msg) into exactly outLen bytes using
// HMAC-SHA256 in counter mode: block i = HMAC(key, msg || ctr(i)).
func PRF(key, msg []byte, outLen int) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	if outLen <= 0 {
		return nil, ErrInvalidLength
	}

	out := make([]byte, 0, outLen)
	var ctr [4]byte
	for i := uint32(0); len(out) < outLen; i++ {
		binary.BigEndian.PutUint32(ctr[:], i)
		mac := hmac.New(sha256.New, key)
		mac.Write(msg)
		mac.Write(ctr[:])
		out = append(out, mac.Sum(nil)...)
	}
	return out[:outLen], nil
}

// PRG expands seed into exactly outLen bytes under a fixed domain-separated
// label, reusing the PRF construction with a "PRG|" prefixed message that
// also folds in each counter block and the requested length.
func PRG(seed []byte, label string, outLen int) ([]byte, error) {
	if len(seed) == 0 {
		return nil, ErrEmptyKey
	}
	if outLen <= 0 {
		return nil, ErrInvalidLength
	}

	out := make([]byte, 0, outLen)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(outLen))

	for i := uint32(0); len(out) < outLen; i++ {
		var ctr [4]byte
		binary.BigEndian.PutUint32(ctr[:], i)

		mac := hmac.New(sha256.New, seed)
		mac.Write([]byte("PRG|"))
		mac.Write([]byte(label))
		mac.Write([]byte("|ctr="))
		mac.Write(ctr[:])
		mac.Write([]byte("|len="))
		mac.Write(lenBuf[:])
		out = append(out, mac.Sum(nil)...)
	}
	return out[:outLen], nil
}

// I2OSP encodes a non-negative integer as a big-endian byte string of the
// given length, matching the fixed-width encoding used throughout the GDFA
// label strings (row and column indices; RowAAD appends the session id as
// raw ASCII, not through I2OSP).
func I2OSP(x uint64, length int) []byte {
	out := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		out[i] = byte(x)
		x >>= 8
	}
	return out
}

// RowAAD returns the fixed associated-data string binding an OT exchange to
// a session and a row: "ZIDS|GK|sid=<session_id>|row=<I2OSP(row,4)>". Both
// the session boundary and every chooser implementation must compute this
// identically and reject on mismatch.
func RowAAD(sessionID string, row uint32) []byte {
	out := append([]byte("ZIDS|GK|sid="), []byte(sessionID)...)
	out = append(out, []byte("|row=")...)
	out = append(out, I2OSP(uint64(row), 4)...)
	return out
}
