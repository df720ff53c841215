/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"atlas/internal/history"
)

func TestFromEnvPrecedence(t *testing.T) {
	t.Setenv("ATLAS_PG_DSN", "")
	t.Setenv("DATABASE_URL", "")
	if got := FromEnv(); got != "" {
		t.Fatalf("no env should mean no DSN, got %q", got)
	}

	t.Setenv("DATABASE_URL", "postgres://fallback")
	if got := FromEnv(); got != "postgres://fallback" {
		t.Fatalf("DATABASE_URL fallback: %q", got)
	}

	t.Setenv("ATLAS_PG_DSN", "postgres://primary")
	if got := FromEnv(); got != "postgres://primary" {
		t.Fatalf("ATLAS_PG_DSN should win: %q", got)
	}
}

// openMirrorForTest connects to a locally running Postgres or skips.
func openMirrorForTest(t *testing.T) *Mirror {
	t.Helper()
	dsn := FromEnv()
	if dsn == "" {
		t.Skip("no ATLAS_PG_DSN or DATABASE_URL; skipping mirror integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m, err := Open(ctx, dsn)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	return m
}

func TestMirrorRecordAndRecent(t *testing.T) {
	m := openMirrorForTest(t)
	defer func() { _ = m.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	e := history.Entry{
		ID:      uuid.NewString(),
		SavedAt: time.Now().UTC(),
		Model:   "mistral",
		Host:    "localhost",
		Port:    "11434",
		Payload: `{"connection":{"model":"mistral","service":{"host":"localhost","port":"11434"}}}`,
	}
	if err := m.Record(ctx, e); err != nil {
		t.Fatalf("record: %v", err)
	}
	// Replay of the same entry must be a no-op, not an error.
	if err := m.Record(ctx, e); err != nil {
		t.Fatalf("record replay: %v", err)
	}

	got, err := m.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	seen := false
	for _, r := range got {
		if r.ID == e.ID {
			seen = true
			if r.Model != e.Model || r.Host != e.Host || r.Port != e.Port {
				t.Fatalf("mirrored row mismatch: %+v", r)
			}
		}
	}
	if !seen {
		t.Fatalf("recorded entry not returned by Recent")
	}
}
