/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package history keeps a local record of saved connection configurations in
// an embedded SQLite database. The store is optional everywhere: when it is
// disabled or fails to open, the application runs without it.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	applog "atlas/internal/log"
	"atlas/internal/settings"
	"atlas/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// FileName is the database file kept under the per-user Atlas dir.
	FileName = "history.sqlite"

	// schemaVersion tracks the local SQLite schema. Bump this when you
	// perform breaking schema changes and add migrations.
	schemaVersion = 2

	// keepLimit caps how many snapshots Record retains.
	keepLimit = 50
)

// Entry is one saved configuration.
type Entry struct {
	ID      string
	SavedAt time.Time
	Model   string
	Host    string
	Port    string
	Payload string
}

// Mirror receives a copy of every recorded entry. Mirror failures never
// affect the local record.
type Mirror interface {
	Record(ctx context.Context, e Entry) error
}

// Store wraps the embedded database.
type Store struct {
	db     *sql.DB
	log    *slog.Logger
	mirror Mirror
}

// Open ensures the database at path exists, enables WAL mode, creates the
// meta/version bookkeeping tables and the snapshots table, and runs
// migrations. The returned store is ready for use.
func Open(path string) (*Store, error) {
	l := applog.WithOperation(applog.WithComponent("history"), "open").With(
		slog.String("path", path),
	)
	if path == "" {
		return nil, errors.New("history path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create history dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	uriPath := filepath.ToSlash(path)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", uriPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Set reasonable connection pool limits for embedded usage.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}

	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureSnapshotSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure snapshot schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("history ready")
	return &Store{db: db, log: applog.WithComponent("history")}, nil
}

// SetMirror attaches an optional secondary sink for recorded entries.
func (s *Store) SetMirror(m Mirror) { s.mirror = m }

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends the connection part of st as a new snapshot and prunes the
// table to the newest entries. The full state record travels along as the
// payload column so a row can be inspected without the app.
func (s *Store) Record(ctx context.Context, st settings.State) (Entry, error) {
	payload, err := settings.Encode(st)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{
		ID:      uuid.NewString(),
		SavedAt: time.Now().UTC(),
		Model:   st.Connection.Model,
		Host:    st.Connection.Service.Host,
		Port:    st.Connection.Service.Port,
		Payload: string(payload),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, saved_at, model, host, port, payload) VALUES(?,?,?,?,?,?)`,
		e.ID, e.SavedAt.Format(time.RFC3339Nano), e.Model, e.Host, e.Port, e.Payload)
	if err != nil {
		return Entry{}, fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY saved_at DESC, id LIMIT ?)`,
		keepLimit); err != nil {
		return Entry{}, fmt.Errorf("prune snapshots: %w", err)
	}
	if s.mirror != nil {
		if err := s.mirror.Record(ctx, e); err != nil {
			s.log.Warn("mirror record failed", slog.Any("err", err))
		}
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > keepLimit {
		limit = keepLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, saved_at, model, host, port, payload FROM snapshots ORDER BY saved_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.Model, &e.Host, &e.Port, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse saved_at %q: %w", ts, err)
		}
		e.SavedAt = t
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return out, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	// Seed or update single-row version info
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureSnapshotSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id       TEXT PRIMARY KEY,
			saved_at TEXT NOT NULL,
			model    TEXT NOT NULL,
			host     TEXT NOT NULL,
			port     TEXT NOT NULL,
			payload  TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_saved_at ON snapshots(saved_at);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure snapshot schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// Do not downgrade; just continue
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		switch next {
		case 2:
			// Add the saved_at index used by Recent and the prune query
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			if _, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_snapshots_saved_at ON snapshots(saved_at);`); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
			if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d update version: %w", next, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("migration %d commit: %w", next, err)
			}
		default:
			// Unknown future step; break
		}
		cur = next
	}
	return nil
}
