/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend mirrors the local connection history into a Postgres
// database for users who want their configuration trail on shared storage.
// Mirroring is opt-in through an environment DSN and entirely inert without
// it. The mirror stores configuration rows only; it never talks to the
// inference endpoint those rows describe.
package backend

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	applog "atlas/internal/log"
	"atlas/internal/history"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// EnvDSN is the primary environment variable naming the Postgres DSN.
// DATABASE_URL works as a fallback for hosted environments.
const EnvDSN = "ATLAS_PG_DSN"

// FromEnv returns the configured DSN, or "" when mirroring is off.
func FromEnv() string {
	if v := os.Getenv(EnvDSN); v != "" {
		return v
	}
	return os.Getenv("DATABASE_URL")
}

// Mirror copies history entries into Postgres. It satisfies history.Mirror.
type Mirror struct {
	db  *sql.DB
	log *slog.Logger
}

// Open connects to dsn, verifies the connection, and ensures the snapshot
// table exists.
func Open(ctx context.Context, dsn string) (*Mirror, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := ensureSchema(pingCtx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	l := applog.WithComponent("backend")
	l.Info("postgres mirror ready")
	return &Mirror{db: db, log: l}, nil
}

// Record inserts one history entry. Replays of the same entry are ignored.
func (m *Mirror) Record(ctx context.Context, e history.Entry) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO atlas_snapshots (id, saved_at, model, host, port, payload)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (id) DO NOTHING`,
		e.ID, e.SavedAt, e.Model, e.Host, e.Port, e.Payload)
	if err != nil {
		return fmt.Errorf("insert mirror row: %w", err)
	}
	return nil
}

// Recent returns up to limit mirrored entries, newest first.
func (m *Mirror) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := m.db.QueryContext(ctx,
		`SELECT id, saved_at, model, host, port, payload FROM atlas_snapshots ORDER BY saved_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query mirror rows: %w", err)
	}
	defer rows.Close()

	var out []history.Entry
	for rows.Next() {
		var e history.Entry
		if err := rows.Scan(&e.ID, &e.SavedAt, &e.Model, &e.Host, &e.Port, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan mirror row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mirror rows: %w", err)
	}
	return out, nil
}

// Close releases the database handle.
func (m *Mirror) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS atlas_snapshots (
			id       TEXT PRIMARY KEY,
			saved_at TIMESTAMPTZ NOT NULL,
			model    TEXT NOT NULL,
			host     TEXT NOT NULL,
			port     TEXT NOT NULL,
			payload  JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_atlas_snapshots_saved_at ON atlas_snapshots(saved_at DESC)`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure mirror schema: %w", err)
		}
	}
	return nil
}
