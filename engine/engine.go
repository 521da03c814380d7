// Package engine implements the online GDFA matching state machine: the
// per-byte loop of candidate-column resolution, oblivious key acquisition,
// seed/pad derivation, decryption, decoding and transition described in
// SPEC_FULL.md §4.6/§4.8.
package engine

import (
	"errors"
	"fmt"

	"github.com/sjieng123/zids/chooser"
	"github.com/sjieng123/zids/codec"
	"github.com/sjieng123/zids/gdfa"
	"github.com/sjieng123/zids/gdfa/rowalpha"
	"github.com/sjieng123/zids/internal/metrics"
	"github.com/sjieng123/zids/seedschedule"
)

// Engine drives one scan of an input stream against a GDFA artifact. It is
// not safe for concurrent use by multiple goroutines: per SPEC_FULL.md §5
// the per-byte loop is single-threaded cooperative, with sessions (not
// engine instances) providing the unit of parallelism.
type Engine struct {
	Artifact  *gdfa.Artifact
	Partition *rowalpha.Partition
	Chooser   chooser.Chooser
	SessionID string
	KBytes    int

	// AllowLegacyLayout opts into tolerating the [aid][next_row] cell layout
	// as a fallback when the canonical layout fails to decode. Defaults to
	// false: only artifacts explicitly built (or declared) legacy should
	// need it.
	AllowLegacyLayout bool

	// CacheGK, when true, remembers GK[row][col] once acquired for the
	// lifetime of this Engine and skips re-acquiring it on a repeat visit
	// to the same cell within one scan. Safe only in local testing mode; a
	// strict-oblivious remote chooser should leave this false so every
	// acquisition still goes through OT.
	CacheGK bool

	row      int
	hits     []uint32
	gkCache  map[cacheKey][]byte
	cellPlan gdfa.CellPlan
}

type cacheKey struct {
	row, col int
}

// New constructs an Engine positioned at the artifact's start row.
func New(art *gdfa.Artifact, part *rowalpha.Partition, ch chooser.Chooser, sessionID string, kBytes int) *Engine {
	return &Engine{
		Artifact:  art,
		Partition: part,
		Chooser:   ch,
		SessionID: sessionID,
		KBytes:    kBytes,
		row:       art.Header.StartRow,
		cellPlan:  gdfa.PlanCell(art.Header.NumStates, art.Header.AidBits),
	}
}

// Row returns the engine's current row.
func (e *Engine) Row() int { return e.row }

// Hits returns the accept ids collected so far, in the order their causing
// bytes appeared.
func (e *Engine) Hits() []uint32 { return e.hits }

// Scan feeds every byte of data through Step in order, stopping at the
// first error.
func (e *Engine) Scan(data []byte) error {
	for _, b := range data {
		if err := e.Step(b); err != nil {
			return err
		}
	}
	return nil
}

// Step advances the engine by one input byte, per the procedure in
// SPEC_FULL.md §4.6: resolve candidates, attempt each in order via the
// chooser, decrypt and decode the first that succeeds, transition, and run
// the accept check. Only decode failures move on to the next candidate; an
// error from the chooser aborts the step at once.
func (e *Engine) Step(b byte) error {
	cols, err := e.Partition.ColsCandidates(e.row, b)
	if err != nil {
		return fmt.Errorf("engine: step: %w", err)
	}
	if len(cols) == 0 {
		metrics.EngineSteps.WithLabelValues("no_candidates").Inc()
		return ErrNoCandidates
	}

	if err := e.Chooser.EnsureRowCached(uint32(e.row)); err != nil {
		return fmt.Errorf("engine: step: ensure row cached: %w", err)
	}

	numCols, err := e.Partition.NumCols(e.row)
	if err != nil {
		return fmt.Errorf("engine: step: %w", err)
	}

	var lastErr error
	for _, col := range cols {
		nextRow, attackID, err := e.attemptCandidate(e.row, col, numCols)
		if err != nil {
			var decErr *DecodeError
			if !errors.As(err, &decErr) {
				return fmt.Errorf("engine: step: %w", err)
			}
			lastErr = err
			metrics.EngineCandidateAttempts.WithLabelValues("failed").Inc()
			continue
		}
		metrics.EngineCandidateAttempts.WithLabelValues("decoded").Inc()
		e.row = nextRow
		e.recordAccept(nextRow, attackID)
		metrics.EngineSteps.WithLabelValues("ok").Inc()
		return nil
	}

	if lastErr != nil {
		metrics.EngineSteps.WithLabelValues("no_valid_candidate").Inc()
		return fmt.Errorf("%w: %v", ErrNoValidCandidate, lastErr)
	}
	metrics.EngineSteps.WithLabelValues("no_valid_candidate").Inc()
	return ErrNoValidCandidate
}

// attemptCandidate performs key acquisition, seed/pad derivation, decrypt
// and decode for one (row, col) candidate. A key-acquisition failure is
// returned as a plain wrapped error, every later failure as a DecodeError.
func (e *Engine) attemptCandidate(row, col, numCols int) (nextRow int, attackID uint32, err error) {
	gk, err := e.acquireGK(row, col, numCols)
	if err != nil {
		return 0, 0, fmt.Errorf("acquire gk at row=%d col=%d: %w", row, col, err)
	}

	seed, err := seedschedule.SeedFromGK(gk, uint32(row), uint32(col), e.KBytes)
	if err != nil {
		return 0, 0, &DecodeError{Row: row, Col: col, Reason: err}
	}

	pad, err := codec.PRG(seed, "ZIDS|CELL", e.cellPlan.CellBytes)
	if err != nil {
		return 0, 0, &DecodeError{Row: row, Col: col, Reason: err}
	}

	ct, err := e.Artifact.GetCell(row, col)
	if err != nil {
		return 0, 0, &DecodeError{Row: row, Col: col, Reason: err}
	}
	plain := make([]byte, len(ct))
	for i := range ct {
		plain[i] = ct[i] ^ pad[i]
	}

	nextRow, attackID, err = e.decode(row, col, plain)
	if err != nil {
		return 0, 0, err
	}
	return nextRow, attackID, nil
}

// decode parses plain under the canonical layout, falling back to the
// legacy layout only when AllowLegacyLayout is set and the canonical parse
// yields an out-of-range next_row.
func (e *Engine) decode(row, col int, plain []byte) (nextRow int, attackID uint32, err error) {
	nextRow, attackID, err = e.cellPlan.Unpack(plain, gdfa.LayoutCanonical)
	if err == nil && nextRow >= 0 && nextRow < e.Artifact.Header.NumStates {
		return nextRow, attackID, nil
	}

	if e.AllowLegacyLayout {
		legacyRow, legacyAid, legacyErr := e.cellPlan.Unpack(plain, gdfa.LayoutLegacy)
		if legacyErr == nil && legacyRow >= 0 && legacyRow < e.Artifact.Header.NumStates {
			return legacyRow, legacyAid, nil
		}
	}

	return 0, 0, &DecodeError{Row: row, Col: col, Reason: ErrNextRowOutOfRange}
}

// acquireGK fetches GK[row][col] via the engine's chooser, preferring
// ChooseOne over AcquireGK per chooser.PreferredCall, and consulting the
// optional per-scan cache first when CacheGK is enabled.
func (e *Engine) acquireGK(row, col, numCols int) ([]byte, error) {
	key := cacheKey{row, col}
	if e.CacheGK {
		if e.gkCache == nil {
			e.gkCache = make(map[cacheKey][]byte)
		}
		if gk, ok := e.gkCache[key]; ok {
			return gk, nil
		}
	}

	useChooseOne, err := chooser.PreferredCall(e.Chooser)
	if err != nil {
		return nil, err
	}

	var gk []byte
	if useChooseOne {
		gk, err = e.Chooser.ChooseOne(uint32(row), col)
	} else {
		aad := codec.RowAAD(e.SessionID, uint32(row))
		gk, err = e.Chooser.AcquireGK(uint32(row), numCols, col, aad)
	}
	if err != nil {
		return nil, err
	}

	if e.CacheGK {
		e.gkCache[key] = gk
	}
	return gk, nil
}

// recordAccept implements the accept-check step: row_aids[next_row] takes
// precedence over the cell's own attack id.
func (e *Engine) recordAccept(nextRow int, cellAid uint32) {
	rowAid, err := e.Artifact.RowAid(nextRow)
	if err == nil && rowAid > 0 {
		e.hits = append(e.hits, rowAid)
		metrics.EngineHits.Inc()
		return
	}
	if cellAid > 0 {
		e.hits = append(e.hits, cellAid)
		metrics.EngineHits.Inc()
	}
}
