// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

// Package postgres implements sessionstore.Store against PostgreSQL via
// pgx/v5's pooled connections, grounded on the teacher's
// pkg/storage/postgres.SessionStore (parameterized SQL, context-scoped
// pgxpool calls) with the client_did/server_did/session_key columns
// dropped - a GDFA session record carries no identity or key material,
// only the bookkeeping fields of SPEC_FULL.md §3.1.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sjieng123/zids/sessionstore"
)

// Store implements sessionstore.Store for PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Config holds PostgreSQL connection configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// connString builds a libpq-style connection string from cfg.
func (cfg *Config) connString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)
}

// NewStore opens a pooled connection and verifies it with a ping.
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	pool, err := pgxpool.New(ctx, cfg.connString())
	if err != nil {
		return nil, fmt.Errorf("sessionstore/postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sessionstore/postgres: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewStoreFromDSN opens a pooled connection using a DSN string directly
// (config.StorageConfig.PostgresDSN), skipping Config's field-by-field
// assembly.
func NewStoreFromDSN(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("sessionstore/postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sessionstore/postgres: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Ping checks the database connection; used by health.HealthChecker.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Create(ctx context.Context, rec *sessionstore.Record) error {
	const query = `
		INSERT INTO session_records (id, artifact_digest, created_at, expires_at, last_activity, step_count, hit_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.ArtifactDigest, rec.CreatedAt, rec.ExpiresAt, rec.LastActivity, rec.StepCount, rec.HitCount,
	)
	if err != nil {
		return fmt.Errorf("sessionstore/postgres: create: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*sessionstore.Record, error) {
	const query = `
		SELECT id, artifact_digest, created_at, expires_at, last_activity, step_count, hit_count
		FROM session_records
		WHERE id = $1
	`
	var rec sessionstore.Record
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.ArtifactDigest, &rec.CreatedAt, &rec.ExpiresAt, &rec.LastActivity, &rec.StepCount, &rec.HitCount,
	)
	if err == pgx.ErrNoRows {
		return nil, sessionstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sessionstore/postgres: get: %w", err)
	}
	return &rec, nil
}

func (s *Store) Update(ctx context.Context, rec *sessionstore.Record) error {
	const query = `
		UPDATE session_records
		SET expires_at = $1, last_activity = $2, step_count = $3, hit_count = $4
		WHERE id = $5
	`
	result, err := s.pool.Exec(ctx, query, rec.ExpiresAt, rec.LastActivity, rec.StepCount, rec.HitCount, rec.ID)
	if err != nil {
		return fmt.Errorf("sessionstore/postgres: update: %w", err)
	}
	if result.RowsAffected() == 0 {
		return sessionstore.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM session_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("sessionstore/postgres: delete: %w", err)
	}
	if result.RowsAffected() == 0 {
		return sessionstore.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.pool.Exec(ctx, `DELETE FROM session_records WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("sessionstore/postgres: delete expired: %w", err)
	}
	return result.RowsAffected(), nil
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]*sessionstore.Record, error) {
	const query = `
		SELECT id, artifact_digest, created_at, expires_at, last_activity, step_count, hit_count
		FROM session_records
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("sessionstore/postgres: list: %w", err)
	}
	defer rows.Close()

	var out []*sessionstore.Record
	for rows.Next() {
		var rec sessionstore.Record
		if err := rows.Scan(
			&rec.ID, &rec.ArtifactDigest, &rec.CreatedAt, &rec.ExpiresAt, &rec.LastActivity, &rec.StepCount, &rec.HitCount,
		); err != nil {
			return nil, fmt.Errorf("sessionstore/postgres: scan: %w", err)
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sessionstore/postgres: rows: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateActivity(ctx context.Context, id string, stepDelta, hitDelta int64) error {
	const query = `
		UPDATE session_records
		SET last_activity = NOW(), step_count = step_count + $1, hit_count = hit_count + $2
		WHERE id = $3
	`
	result, err := s.pool.Exec(ctx, query, stepDelta, hitDelta, id)
	if err != nil {
		return fmt.Errorf("sessionstore/postgres: update activity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return sessionstore.ErrNotFound
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM session_records`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sessionstore/postgres: count: %w", err)
	}
	return count, nil
}
