/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package history

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"atlas/internal/settings"
)

func testState(model, host, port string) settings.State {
	s := settings.Defaults()
	s.Connection.Model = model
	s.Connection.Service.Host = host
	s.Connection.Service.Port = port
	return s
}

func TestOpenRecordRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	if _, err := st.Record(ctx, testState("mistral", "localhost", "11434")); err != nil {
		t.Fatalf("record: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := st.Record(ctx, testState("llama3", "gpu-box", "8080")); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := st.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Model != "llama3" || got[0].Host != "gpu-box" || got[0].Port != "8080" {
		t.Fatalf("newest first expected, got %+v", got[0])
	}
	if got[0].ID == "" || got[0].SavedAt.IsZero() {
		t.Fatalf("entry missing id or timestamp: %+v", got[0])
	}
	if !strings.Contains(got[0].Payload, `"model":"llama3"`) {
		t.Fatalf("payload should carry the record: %s", got[0].Payload)
	}
	if strings.Contains(got[0].Payload, "value") {
		t.Fatalf("payload must not carry the per-run value: %s", got[0].Payload)
	}
}

func TestRecordPrunes(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	total := keepLimit + 5
	for i := 0; i < total; i++ {
		if _, err := st.Record(ctx, testState("m", "h", "1")); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		time.Sleep(time.Millisecond)
	}
	got, err := st.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != keepLimit {
		t.Fatalf("expected prune to %d entries, got %d", keepLimit, len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].SavedAt.After(got[i-1].SavedAt) {
			t.Fatalf("entries not newest-first at %d", i)
		}
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := st.Record(context.Background(), testState("mistral", "localhost", "11434")); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	st2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st2.Close()
	got, err := st2.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent after reopen: %v", err)
	}
	if len(got) != 1 || got[0].Model != "mistral" {
		t.Fatalf("entries lost across reopen: %+v", got)
	}
}

type fakeMirror struct {
	mu      sync.Mutex
	entries []Entry
	fail    bool
}

func (m *fakeMirror) Record(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("mirror down")
	}
	m.entries = append(m.entries, e)
	return nil
}

func TestMirrorBestEffort(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()

	m := &fakeMirror{}
	st.SetMirror(m)
	ctx := context.Background()
	if _, err := st.Record(ctx, testState("mistral", "localhost", "11434")); err != nil {
		t.Fatalf("record: %v", err)
	}
	m.mu.Lock()
	n := len(m.entries)
	m.mu.Unlock()
	if n != 1 {
		t.Fatalf("mirror should have received 1 entry, got %d", n)
	}

	// A failing mirror must not fail the local record.
	m.fail = true
	if _, err := st.Record(ctx, testState("llama3", "gpu-box", "8080")); err != nil {
		t.Fatalf("record with failing mirror: %v", err)
	}
	got, err := st.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("local store should keep recording, got %d entries", len(got))
	}
}
