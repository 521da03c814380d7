package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sjieng123/zids/internal/logger"
	"github.com/sjieng123/zids/internal/metrics"
	"github.com/sjieng123/zids/seedschedule"
	"github.com/sjieng123/zids/sessionstore"
)

// Manager owns the set of live sessions, each with its own group-key table,
// and sweeps expired ones in the background - grounded on the teacher's
// session.Manager (map + mutex + cleanup ticker), with the AEAD/key-id
// binding/replay-guard machinery dropped since a GDFA session has no
// message-encryption concept.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	defaultConfig Config

	log logger.Logger

	// store, when set, receives a best-effort copy of each session's
	// bookkeeping record for audit/observability (SPEC_FULL.md §4.9). A
	// store failure is logged, never surfaced: the in-memory map above is
	// the source of truth the engine actually reads through.
	store          sessionstore.Store
	artifactDigest string
}

// NewManager creates a Manager with the teacher's defaults (1h MaxAge,
// 10m IdleTimeout) and starts the 30-second background cleanup sweep.
func NewManager() *Manager {
	m := &Manager{
		sessions:    make(map[string]*Session),
		stopCleanup: make(chan struct{}),
		defaultConfig: Config{
			MaxAge:      time.Hour,
			IdleTimeout: 10 * time.Minute,
		},
		log: logger.GetDefaultLogger(),
	}

	m.cleanupTicker = time.NewTicker(30 * time.Second)
	go m.runCleanup()

	return m
}

// SetLogger overrides the manager's logger (tests inject a capturing one).
func (m *Manager) SetLogger(l logger.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = l
}

// SetStore attaches an optional sessionstore.Store that receives a
// best-effort copy of each session's bookkeeping record. Pass nil to
// disable persistence (the default).
func (m *Manager) SetStore(s sessionstore.Store) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = s
}

// SetArtifactDigest records the artifact digest new sessions are stamped
// with in their bookkeeping record, so an auditor can tell which build a
// session was opened against.
func (m *Manager) SetArtifactDigest(digest string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifactDigest = digest
}

// InitSession allocates a new session id and a group-key table sized by
// colsPerRow, deriving GK[r][c] = DeriveGK(master,r,c,gk_bytes) for every
// (r,c) with c < colsPerRow[r]. sched.Mode must be ModeMasterToGKToSeed;
// ModeMasterToSeed has no per-cell GK to derive (the seed schedule skips
// straight from master to seed) - use InitSessionDirect for that mode.
func (m *Manager) InitSession(sched seedschedule.Schedule, colsPerRow []int, kBytes int) (*Session, error) {
	if sched.Mode != seedschedule.ModeMasterToGKToSeed {
		return nil, newSessionError("init session",
			fmt.Errorf("%w: mode %q has no GK to derive, use InitSessionDirect", ErrWrongSeedMode, sched.Mode))
	}

	gkTable := make(GKTable, len(colsPerRow))
	for r, cols := range colsPerRow {
		row := make([][]byte, cols)
		for c := 0; c < cols; c++ {
			gk, err := seedschedule.DeriveGK(sched.Master, uint32(r), uint32(c), sched.GKBytes)
			if err != nil {
				return nil, fmt.Errorf("session: init session: %w", err)
			}
			row[c] = gk
		}
		gkTable[r] = row
	}

	return m.registerSession(gkTable, colsPerRow, kBytes)
}

// InitSessionDirect allocates a session for ModeMasterToSeed. That mode's
// seed schedule is seed(r,c) = PRF(master, seed_info(r,c), k_bytes) - the
// same PRF(GK, seed_info(r,c), k_bytes) the engine always runs after
// acquiring a key, with GK = master. So every cell of this session's
// "group-key" table is simply the master key itself: the chooser still
// hides which column a client touched via OT, even though every column's
// payload happens to be identical, and the online engine's per-byte
// pipeline (§4.6) needs no special case for this mode.
func (m *Manager) InitSessionDirect(sched seedschedule.Schedule, colsPerRow []int, kBytes int) (*Session, error) {
	if sched.Mode != seedschedule.ModeMasterToSeed {
		return nil, newSessionError("init session direct",
			fmt.Errorf("%w: mode %q is not ModeMasterToSeed, use InitSession", ErrWrongSeedMode, sched.Mode))
	}

	gkTable := make(GKTable, len(colsPerRow))
	for r, cols := range colsPerRow {
		row := make([][]byte, cols)
		for c := 0; c < cols; c++ {
			row[c] = sched.Master
		}
		gkTable[r] = row
	}

	return m.registerSession(gkTable, colsPerRow, kBytes)
}

func (m *Manager) registerSession(gkTable GKTable, colsPerRow []int, kBytes int) (*Session, error) {
	id := uuid.NewString()

	m.mu.Lock()
	cfg := m.defaultConfig
	store := m.store
	digest := m.artifactDigest
	m.mu.Unlock()

	s := newSession(id, gkTable, colsPerRow, kBytes, cfg)

	m.mu.Lock()
	m.sessions[id] = s
	active := len(m.sessions)
	m.mu.Unlock()

	metrics.SessionsCreated.WithLabelValues("success").Inc()
	metrics.SessionsActive.Set(float64(active))

	if store != nil {
		rec := &sessionstore.Record{
			ID:             id,
			ArtifactDigest: digest,
			CreatedAt:      s.GetCreatedAt(),
			ExpiresAt:      s.GetCreatedAt().Add(cfg.MaxAge),
			LastActivity:   s.GetCreatedAt(),
		}
		if err := store.Create(context.Background(), rec); err != nil {
			m.log.Warn("session bookkeeping: create failed",
				logger.String("session_id", id), logger.Error(err))
		}
	}

	m.log.Info("session created", logger.String("session_id", id), logger.Int("rows", len(colsPerRow)))
	return s, nil
}

// GetSession retrieves a session by id, auto-removing it (and returning
// ErrExpired) if it has expired.
func (m *Manager) GetSession(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, newSessionError("get session", ErrNotFound)
	}
	if s.IsExpired() {
		m.RemoveSession(id)
		return nil, newSessionError("get session", ErrExpired)
	}
	return s, nil
}

// RemoveSession closes and removes a session.
func (m *Manager) RemoveSession(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		s.Close()
		delete(m.sessions, id)
	}
	store := m.store
	active := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return
	}

	metrics.SessionsClosed.Inc()
	metrics.SessionsActive.Set(float64(active))

	if store != nil {
		if err := store.Delete(context.Background(), id); err != nil && err != sessionstore.ErrNotFound {
			m.log.Warn("session bookkeeping: delete failed",
				logger.String("session_id", id), logger.Error(err))
		}
	}
}

// ListSessions returns every live session id.
func (m *Manager) ListSessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of sessions currently tracked (including any not
// yet swept past expiry).
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Stats reports total/active/expired counts over the current population.
func (m *Manager) Stats() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Status{TotalSessions: len(m.sessions)}
	for _, s := range m.sessions {
		if s.IsExpired() {
			st.ExpiredSessions++
		} else {
			st.ActiveSessions++
		}
	}
	return st
}

// SetDefaultConfig updates the TTL/idle-timeout policy applied to sessions
// created after the call.
func (m *Manager) SetDefaultConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = withDefaults(cfg)
}

// Close stops the cleanup goroutine and closes every live session.
func (m *Manager) Close() error {
	close(m.stopCleanup)
	if m.cleanupTicker != nil {
		m.cleanupTicker.Stop()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		s.Close()
	}
	m.sessions = make(map[string]*Session)
	return nil
}

func (m *Manager) runCleanup() {
	for {
		select {
		case <-m.cleanupTicker.C:
			m.cleanupExpiredSessions()
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *Manager) cleanupExpiredSessions() {
	m.mu.Lock()
	var expired []string
	for id, s := range m.sessions {
		if s.IsExpired() {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		m.sessions[id].Close()
		delete(m.sessions, id)
	}
	store := m.store
	active := len(m.sessions)
	m.mu.Unlock()

	if len(expired) == 0 {
		return
	}

	metrics.SessionsExpired.Add(float64(len(expired)))
	metrics.SessionsActive.Set(float64(active))
	m.log.Info("cleaned up expired sessions", logger.Int("count", len(expired)))

	if store != nil {
		if _, err := store.DeleteExpired(context.Background()); err != nil {
			m.log.Warn("session bookkeeping: delete expired failed", logger.Error(err))
		}
	}
}
