// Package session implements the server-side session boundary: a
// short-lived handle holding a per-row, per-column group-key table, the AAD
// prefix the chooser must bind to, and a TTL. Grounded on the teacher's
// session.Manager (lifecycle, TTL, background cleanup) but with the
// AEAD/message/replay-guard machinery removed: a GDFA session never
// encrypts or signs anything, it only answers row payload queries.
package session

import "time"

// GKTable is a session's group-key table, indexed [row][col].
type GKTable [][][]byte

// Config controls session lifetime policy.
type Config struct {
	MaxAge      time.Duration
	IdleTimeout time.Duration
}

// Status summarises the manager's session population.
type Status struct {
	TotalSessions   int
	ActiveSessions  int
	ExpiredSessions int
}

func withDefaults(c Config) Config {
	if c.MaxAge == 0 {
		c.MaxAge = time.Hour
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 10 * time.Minute
	}
	return c
}
