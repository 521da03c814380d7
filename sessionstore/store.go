// Package sessionstore persists the session bookkeeping record SPEC_FULL.md
// §3.1 describes: session id, creation/last-seen timestamps, TTL, the
// artifact digest a session was opened against, and step/hit counters.
// It never persists the group-key table itself - choosing not to persist GK
// tables is a deliberate security property, not an oversight (§4.9): a
// restarted server simply loses in-flight sessions and clients must
// re-init_session.
//
// Grounded on the teacher's pkg/storage.SessionStore interface and its
// in-memory/Postgres split, trimmed of the NonceStore and DIDStore
// interfaces: a GDFA session never encrypts a message (so there is no
// nonce-replay concept to guard) and this spec has no DID/blockchain
// identity layer, so neither has a home here.
package sessionstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned by Get/Update/Delete for an unknown session id.
var ErrNotFound = errors.New("sessionstore: session not found")

// Record is the bookkeeping record persisted for one session. It mirrors
// what session.Session tracks in memory, minus the GK table.
type Record struct {
	ID              string    `json:"id"`
	ArtifactDigest  string    `json:"artifact_digest"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	LastActivity    time.Time `json:"last_activity"`
	StepCount       int64     `json:"step_count"`
	HitCount        int64     `json:"hit_count"`
}

// Store is the swappable persistence interface for session bookkeeping
// records. The default implementation (session.Manager's own map) never
// goes through here; this interface exists for the optional
// audit/observability path described in §4.9.
type Store interface {
	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	Update(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
	List(ctx context.Context, limit, offset int) ([]*Record, error)
	UpdateActivity(ctx context.Context, id string, stepDelta, hitDelta int64) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

// InMemory is the default Store: a mutex-guarded map, suitable for a
// single-process deployment with no external audit requirement.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewInMemory returns an empty in-memory Store.
func NewInMemory() *InMemory {
	return &InMemory{records: make(map[string]*Record)}
}

func (s *InMemory) Create(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records[rec.ID] = &cp
	return nil
}

func (s *InMemory) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *InMemory) Update(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; !ok {
		return ErrNotFound
	}
	cp := *rec
	s.records[rec.ID] = &cp
	return nil
}

func (s *InMemory) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *InMemory) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var n int64
	for id, rec := range s.records {
		if rec.ExpiresAt.Before(now) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

func (s *InMemory) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if offset >= len(ids) {
		return nil, nil
	}
	end := len(ids)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	out := make([]*Record, 0, end-offset)
	for _, id := range ids[offset:end] {
		cp := *s.records[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemory) UpdateActivity(ctx context.Context, id string, stepDelta, hitDelta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.LastActivity = time.Now()
	rec.StepCount += stepDelta
	rec.HitCount += hitDelta
	return nil
}

func (s *InMemory) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

func (s *InMemory) Close() error { return nil }
