// Package chooser defines the client-side abstraction the online engine
// uses to obliviously acquire a group key for one candidate column of a
// row, plus the local (in-process, testing-grade) implementations of it.
// The remote, network-backed OT implementation lives in package ot; the
// 1-of-m oblivious-transfer cryptography itself is out of scope here (see
// SPEC_FULL.md §1) — this package only fixes the interface every
// implementation must satisfy and the AAD every implementation must check.
package chooser

import (
	"errors"
	"fmt"

	"github.com/sjieng123/zids/codec"
)

// ProtocolError is returned when a chooser implementation misbehaves: wrong
// key length, or neither ChooseOne nor AcquireGK is usable.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "chooser: protocol error: " + e.Reason }

// ErrNoMethodAvailable is returned by the engine when a Chooser implements
// neither calling convention it needs.
var ErrNoMethodAvailable = errors.New("chooser: neither ChooseOne nor AcquireGK is usable")

// AAD is an alias for codec.RowAAD, kept here so callers that only import
// package chooser for the Chooser interface don't also need to reach into
// codec just to compute the AAD they must present.
func AAD(sessionID string, row uint32) []byte {
	return codec.RowAAD(sessionID, row)
}

// Chooser is the uniform interface the online engine drives. A concrete
// implementation should provide at least one of ChooseOne or AcquireGK;
// the engine prefers ChooseOne when both are present (see EngineMethod).
type Chooser interface {
	// EnsureRowCached lets the chooser prefetch/batch per-row material
	// before the oblivious selection; implementations that don't batch may
	// make this a no-op.
	EnsureRowCached(row uint32) error

	// ChooseOne performs the full 1-of-m selection in one call, for
	// choosers that already hold (or can synchronously fetch) the
	// candidate payload set. Returns ErrNoMethodAvailable if unsupported.
	ChooseOne(row uint32, col int) ([]byte, error)

	// AcquireGK performs the selection via an explicit (row, m, col, aad)
	// OT call, for choosers that need the full candidate-count context
	// (e.g. to size a real OT round). Returns ErrNoMethodAvailable if
	// unsupported.
	AcquireGK(row uint32, m int, col int, aad []byte) ([]byte, error)
}

// chooseOneCapable and acquireGKCapable are optional interfaces a Chooser
// may implement to advertise which calling conventions it supports;
// PreferredCall type-asserts against them rather than probing the methods.
type chooseOneCapable interface {
	SupportsChooseOne() bool
}

type acquireGKCapable interface {
	SupportsAcquireGK() bool
}

// PreferredCall resolves which of ChooseOne/AcquireGK the engine should use
// for impl, preferring ChooseOne when the implementation advertises support
// for it.
func PreferredCall(impl Chooser) (useChooseOne bool, err error) {
	choosesOne := true
	if c, ok := impl.(chooseOneCapable); ok {
		choosesOne = c.SupportsChooseOne()
	}
	if choosesOne {
		return true, nil
	}
	if c, ok := impl.(acquireGKCapable); ok && c.SupportsAcquireGK() {
		return false, nil
	}
	return false, fmt.Errorf("chooser: %w", ErrNoMethodAvailable)
}
