package session

import (
	"sync"
	"time"

	"github.com/sjieng123/zids/codec"
	"github.com/sjieng123/zids/internal/metrics"
	"github.com/sjieng123/zids/seedschedule"
)

// Session is a server-side handle holding one engine run's group-key table.
// It is created by Manager.InitSession and destroyed on expiry or explicit
// Close. The GK table never leaves process memory: persistence (when
// enabled) only covers the bookkeeping record in package sessionstore, not
// the keys themselves.
type Session struct {
	mu sync.RWMutex

	id          string
	createdAt   time.Time
	lastUsedAt  time.Time
	ttl         time.Duration
	idleTimeout time.Duration

	gkTable    GKTable
	colsPerRow []int
	kBytes     int

	// slotPerm, when set for a row, reorders that row's physical payload
	// slots relative to logical column numbering: slotPerm[row][physical] =
	// logical. Exists only so tests can exercise a chooser that must
	// recover the logical column by seed-probing rather than direct
	// indexing (see chooser.Local's Probe mode); production sessions never
	// set it, since RowPayload already returns logical order.
	slotPerm map[uint32][]int

	closed bool
}

func newSession(id string, gkTable GKTable, colsPerRow []int, kBytes int, cfg Config) *Session {
	now := time.Now()
	return &Session{
		id:          id,
		createdAt:   now,
		lastUsedAt:  now,
		ttl:         cfg.MaxAge,
		idleTimeout: cfg.IdleTimeout,
		gkTable:     gkTable,
		colsPerRow:  colsPerRow,
		kBytes:      kBytes,
	}
}

// GetID returns the session identifier.
func (s *Session) GetID() string { return s.id }

// GetCreatedAt returns the session's creation time.
func (s *Session) GetCreatedAt() time.Time { return s.createdAt }

// GetLastUsedAt returns the last time the session served a row payload.
func (s *Session) GetLastUsedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUsedAt
}

// IsExpired reports whether the session has exceeded its absolute TTL or
// gone idle longer than its idle timeout.
func (s *Session) IsExpired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return true
	}
	now := time.Now()
	if s.ttl > 0 && now.Sub(s.createdAt) > s.ttl {
		return true
	}
	if s.idleTimeout > 0 && now.Sub(s.lastUsedAt) > s.idleTimeout {
		return true
	}
	return false
}

// UpdateLastUsed refreshes the idle-timeout clock.
func (s *Session) UpdateLastUsed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsedAt = time.Now()
}

// Close zeroes the session's group-key material and marks it closed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	for r := range s.gkTable {
		for c := range s.gkTable[r] {
			for i := range s.gkTable[r][c] {
				s.gkTable[r][c][i] = 0
			}
		}
	}
	s.closed = true
	return nil
}

// RowPayload implements ot_row_payload: it returns the fixed AAD for
// (session, row) plus the row's full group-key payload, payload[c] =
// GK[row][c] for c in [0, num_cols(row)).
func (s *Session) RowPayload(row uint32) (aad []byte, payload [][]byte, err error) {
	start := time.Now()
	defer func() {
		metrics.SessionDuration.WithLabelValues("row_payload").Observe(time.Since(start).Seconds())
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, nil, newSessionError("row payload", ErrClosed)
	}
	if int(row) >= len(s.gkTable) {
		return nil, nil, newSessionError("row payload", ErrRowOutOfRange)
	}

	s.lastUsedAt = time.Now()

	aad = codec.RowAAD(s.id, row)
	payload = make([][]byte, len(s.gkTable[row]))
	copy(payload, s.gkTable[row])

	if perm, ok := s.slotPerm[row]; ok {
		permuted := make([][]byte, len(payload))
		for physical, logical := range perm {
			permuted[physical] = payload[logical]
		}
		payload = permuted
	}

	var payloadBytes int
	for _, gk := range payload {
		payloadBytes += len(gk)
	}
	metrics.SessionRowPayloadSize.Observe(float64(payloadBytes))

	return aad, payload, nil
}

// SetRowSlotPermutation installs a test-only physical-slot permutation for
// row: perm[physical] = logical. Subsequent RowPayload calls for that row
// return the payload reordered accordingly; DeriveSeed is unaffected, since
// it always answers by logical column.
func (s *Session) SetRowSlotPermutation(row uint32, perm []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slotPerm == nil {
		s.slotPerm = make(map[uint32][]int)
	}
	s.slotPerm[row] = perm
}

// CheckAAD verifies that presented matches the AAD the server would compute
// for (session, row), returning ErrAADMismatch otherwise.
func (s *Session) CheckAAD(row uint32, presented []byte) error {
	want := codec.RowAAD(s.id, row)
	if len(want) != len(presented) {
		return newSessionError("check aad", ErrAADMismatch)
	}
	for i := range want {
		if want[i] != presented[i] {
			return newSessionError("check aad", ErrAADMismatch)
		}
	}
	return nil
}

// DeriveSeed is a test-only oracle recomputing the seed a client would
// derive for (row, col) from this session's group key, letting a local
// chooser discover the server's physical slot ordering when a payload has
// been permuted (see chooser's probing variant).
func (s *Session) DeriveSeed(row uint32, col int) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, newSessionError("derive seed", ErrClosed)
	}
	if int(row) >= len(s.gkTable) {
		return nil, newSessionError("derive seed", ErrRowOutOfRange)
	}
	if col < 0 || col >= len(s.gkTable[row]) {
		return nil, newSessionError("derive seed", ErrColOutOfRange)
	}

	gk := s.gkTable[row][col]
	return seedschedule.SeedFromGK(gk, row, uint32(col), s.kBytes)
}

// NumCols returns the configured column count for row.
func (s *Session) NumCols(row uint32) (int, error) {
	if int(row) >= len(s.colsPerRow) {
		return 0, newSessionError("num cols", ErrRowOutOfRange)
	}
	return s.colsPerRow[row], nil
}
