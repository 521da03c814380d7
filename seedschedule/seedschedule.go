// Package seedschedule implements the deterministic derivation of per-cell
// group keys and seeds from a master key, grounded on the same
// HKDF-extract-then-expand shape session.DeriveSessionSeed uses in the
// teacher repo, but specialised to the GDFA label strings.
package seedschedule

import (
	"errors"
	"fmt"

	"github.com/sjieng123/zids/codec"
)

// Mode names the supported seed derivation schemes. Only MasterToSeed and
// MasterToGKToSeed are permitted for production builds; ModeRandom exists
// solely so the builder can surface a clear configuration-error diagnostic
// (see seedregistry).
type Mode string

const (
	// ModeMasterToGKToSeed derives a group-key table from the master key
	// (held in memory by session.Session, never written to disk), then
	// derives the per-cell seed from the group key.
	ModeMasterToGKToSeed Mode = "master->GK->seed"
	// ModeMasterToSeed derives the per-cell seed directly from the master
	// key; no group-key table is persisted.
	ModeMasterToSeed Mode = "master->seed"
	// ModeRandom names independent random seeds per cell. Schedule.Seed
	// rejects it in every build and samples nothing: nothing could
	// reconstruct such a seed without persisting it alongside the artifact.
	ModeRandom Mode = "random"
)

// ErrUnsupportedMode is returned when a seed mode has no registered
// constructor.
var ErrUnsupportedMode = errors.New("seedschedule: unsupported seed mode")

// ErrRandomModeNotProduction is returned by Schedule.Seed whenever ModeRandom
// is requested, in test builds as well as production builds.
var ErrRandomModeNotProduction = errors.New("seedschedule: random seed mode is not supported for production builds")

const (
	gkLabelPrefix   = "ZIDS|GK|row="
	seedLabelPrefix = "ZIDS|SEED|row="
)

// GKLabel returns the PRF message used to derive GK[row][col] from the
// master key.
func GKLabel(row, col uint32) []byte {
	out := append([]byte(gkLabelPrefix), codec.I2OSP(uint64(row), 4)...)
	out = append(out, []byte("|col=")...)
	out = append(out, codec.I2OSP(uint64(col), 2)...)
	return out
}

// SeedLabel returns the PRF message used to derive seed(row,col) from a
// group key (or, in direct mode, from the master key itself).
func SeedLabel(row, col uint32) []byte {
	out := append([]byte(seedLabelPrefix), codec.I2OSP(uint64(row), 4)...)
	out = append(out, []byte("|col=")...)
	out = append(out, codec.I2OSP(uint64(col), 2)...)
	return out
}

// DeriveGK derives GK[row][col] from a master key. gkBytes is the configured
// group-key length (typically 32).
func DeriveGK(master []byte, row, col uint32, gkBytes int) ([]byte, error) {
	gk, err := codec.PRF(master, GKLabel(row, col), gkBytes)
	if err != nil {
		return nil, fmt.Errorf("seedschedule: derive GK(%d,%d): %w", row, col, err)
	}
	return gk, nil
}

// DeriveSeedFromGK derives seed(row,col) from a previously derived group
// key. kBytes is the configured seed length (typically 16).
func DeriveSeedFromGK(gk []byte, row, col uint32, kBytes int) ([]byte, error) {
	seed, err := codec.PRF(gk, SeedLabel(row, col), kBytes)
	if err != nil {
		return nil, fmt.Errorf("seedschedule: derive seed(%d,%d) from GK: %w", row, col, err)
	}
	return seed, nil
}

// DeriveSeedDirect derives seed(row,col) directly from the master key,
// skipping the group-key stage (ModeMasterToSeed).
func DeriveSeedDirect(master []byte, row, col uint32, kBytes int) ([]byte, error) {
	seed, err := codec.PRF(master, SeedLabel(row, col), kBytes)
	if err != nil {
		return nil, fmt.Errorf("seedschedule: derive seed(%d,%d) direct: %w", row, col, err)
	}
	return seed, nil
}

// Schedule bundles the parameters needed to reproduce a seed deterministically
// for a given (row, col), dispatching on Mode.
type Schedule struct {
	Mode    Mode
	Master  []byte
	GKBytes int
	KBytes  int
}

// Seed resolves the seed for (row, col) under the schedule's mode. For
// ModeMasterToGKToSeed it first derives the GK, then the seed; callers that
// need the GK itself (to populate a session's GK table) should call DeriveGK
// directly instead.
func (s Schedule) Seed(row, col uint32) ([]byte, error) {
	switch s.Mode {
	case ModeMasterToGKToSeed:
		gk, err := DeriveGK(s.Master, row, col, s.GKBytes)
		if err != nil {
			return nil, err
		}
		return DeriveSeedFromGK(gk, row, col, s.KBytes)
	case ModeMasterToSeed:
		return DeriveSeedDirect(s.Master, row, col, s.KBytes)
	case ModeRandom:
		return nil, ErrRandomModeNotProduction
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, s.Mode)
	}
}

// SeedFromGK resolves seed(row,col) from an already-acquired group key,
// the path the online engine uses after a chooser hands it a GK. This is
// independent of Mode: whichever mode produced gk, the seed derivation from
// a GK is the same PRF(gk, SeedLabel(row,col), kBytes) computation.
func SeedFromGK(gk []byte, row, col uint32, kBytes int) ([]byte, error) {
	return DeriveSeedFromGK(gk, row, col, kBytes)
}
