package chooser

import (
	"fmt"

	"github.com/sjieng123/zids/session"
)

// OTPrimitive is the injectable 1-of-m selection primitive Pluggable
// delegates to. A real implementation would perform the receiver side of
// an oblivious-transfer protocol against payload; this package never
// ships one, since the OT protocol itself is out of scope (see
// SPEC_FULL.md §1) - only this seam is specified.
type OTPrimitive interface {
	Select(payload [][]byte, aad []byte, choice int) ([]byte, error)
}

// Pluggable is a local-session chooser that fetches the row payload
// in-process (like Local) but defers the final 1-of-m selection to an
// injected OTPrimitive, letting tests swap in anything from a trivial
// direct-index primitive to a real OT implementation without touching the
// engine.
type Pluggable struct {
	Sess *session.Session
	OT   OTPrimitive
}

var _ Chooser = (*Pluggable)(nil)

// EnsureRowCached is a no-op for Pluggable.
func (p *Pluggable) EnsureRowCached(row uint32) error { return nil }

// ChooseOne fetches the row payload and AAD, then asks OT to select column
// col out of it.
func (p *Pluggable) ChooseOne(row uint32, col int) ([]byte, error) {
	aad, payload, err := p.Sess.RowPayload(row)
	if err != nil {
		return nil, fmt.Errorf("chooser: pluggable choose_one: %w", err)
	}
	if p.OT == nil {
		return nil, fmt.Errorf("chooser: pluggable choose_one: %w", ErrNoMethodAvailable)
	}
	gk, err := p.OT.Select(payload, aad, col)
	if err != nil {
		return nil, fmt.Errorf("chooser: pluggable choose_one: OT select: %w", err)
	}
	return gk, nil
}

// AcquireGK is unsupported for Pluggable; it only implements ChooseOne.
func (p *Pluggable) AcquireGK(row uint32, m int, col int, aad []byte) ([]byte, error) {
	return nil, fmt.Errorf("chooser: pluggable acquire_gk: %w", ErrNoMethodAvailable)
}

// SupportsAcquireGK reports false.
func (p *Pluggable) SupportsAcquireGK() bool { return false }

// DirectIndexOT is a trivial OTPrimitive that performs no actual
// obliviousness - it indexes payload[choice] directly after checking that
// choice is in range; aad is not inspected. Useful for tests that want
// Pluggable's code path without
// writing a fake OT implementation.
type DirectIndexOT struct{}

// Select returns payload[choice].
func (DirectIndexOT) Select(payload [][]byte, aad []byte, choice int) ([]byte, error) {
	if choice < 0 || choice >= len(payload) {
		return nil, &ProtocolError{Reason: fmt.Sprintf("choice %d out of range (m=%d)", choice, len(payload))}
	}
	return payload[choice], nil
}
