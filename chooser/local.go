package chooser

import (
	"fmt"

	"github.com/sjieng123/zids/seedschedule"
	"github.com/sjieng123/zids/session"
)

// Local is the in-process chooser used for correctness testing: it holds a
// direct reference to the server-side session.Session and answers
// ChooseOne by looking the payload up and indexing it by logical column,
// entirely skipping any real oblivious-transfer round trip. This is what
// Scenarios A-E in the testable-properties section exercise end to end.
type Local struct {
	Sess *session.Session

	// Probe, when true, resolves the physical slot for a logical column by
	// matching seeds via Sess.DeriveSeed instead of indexing the payload
	// directly - tolerating a server that has permuted the per-row payload
	// order (Scenario F).
	Probe bool

	// KBytes is the configured seed length, required only in Probe mode to
	// re-derive candidate seeds from raw GK bytes.
	KBytes int
}

var _ Chooser = (*Local)(nil)

// EnsureRowCached is a no-op: Local always fetches RowPayload fresh.
func (l *Local) EnsureRowCached(row uint32) error { return nil }

// ChooseOne fetches the session's row payload and returns GK[row][col],
// either by direct indexing or, in Probe mode, by seed-matching against
// every slot in the payload.
func (l *Local) ChooseOne(row uint32, col int) ([]byte, error) {
	aad, payload, err := l.Sess.RowPayload(row)
	if err != nil {
		return nil, fmt.Errorf("chooser: local choose_one: %w", err)
	}
	if err := l.Sess.CheckAAD(row, aad); err != nil {
		return nil, fmt.Errorf("chooser: local choose_one: %w", err)
	}

	if col < 0 || col >= len(payload) {
		return nil, &ProtocolError{Reason: fmt.Sprintf("column %d out of range for row %d (m=%d)", col, row, len(payload))}
	}

	if !l.Probe {
		return payload[col], nil
	}

	wantSeed, err := l.Sess.DeriveSeed(row, col)
	if err != nil {
		return nil, fmt.Errorf("chooser: local probe: %w", err)
	}

	for _, candidate := range payload {
		gotSeed, err := seedschedule.SeedFromGK(candidate, row, uint32(col), l.KBytes)
		if err != nil {
			continue
		}
		if bytesEqual(gotSeed, wantSeed) {
			return candidate, nil
		}
	}
	return nil, &ProtocolError{Reason: fmt.Sprintf("no payload slot matched logical column %d in row %d", col, row)}
}

// AcquireGK is unsupported for Local: it only implements the ChooseOne
// calling convention.
func (l *Local) AcquireGK(row uint32, m int, col int, aad []byte) ([]byte, error) {
	return nil, fmt.Errorf("chooser: local acquire_gk: %w", ErrNoMethodAvailable)
}

// SupportsAcquireGK reports false: Local never implements AcquireGK.
func (l *Local) SupportsAcquireGK() bool { return false }

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
