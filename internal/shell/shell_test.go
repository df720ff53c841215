/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package shell

import (
	"context"
	"path/filepath"
	"testing"

	"atlas/internal/history"
	"atlas/internal/settings"
)

type memStore struct{ m map[string]string }

func newMemStore() *memStore { return &memStore{m: map[string]string{}} }

func (s *memStore) StringWithFallback(key, fallback string) string {
	if v, ok := s.m[key]; ok {
		return v
	}
	return fallback
}

func (s *memStore) SetString(key, value string) { s.m[key] = value }

type countingApplier struct{ applied []settings.Theme }

func (a *countingApplier) ApplyTheme(t settings.Theme) { a.applied = append(a.applied, t) }

func newTestShell(t *testing.T) *Shell {
	t.Helper()
	return New(Options{Store: newMemStore()})
}

func TestNewWithEmptyStoreUsesDefaults(t *testing.T) {
	s := newTestShell(t)
	if s.Theme() != settings.ThemeDark {
		t.Fatalf("fresh shell should be dark")
	}
	if !s.SidePanelOpen() {
		t.Fatalf("fresh shell should show the side panel")
	}
	if s.SettingsOpen() {
		t.Fatalf("fresh shell should not show the settings dialog")
	}
	if got := s.ConnectionReadout(); got != "Host: localhost, Port: 11434" {
		t.Fatalf("readout: %q", got)
	}
}

func TestThemeToggleTwoStates(t *testing.T) {
	s := newTestShell(t)
	if s.ThemeToggleLabel() != "☀" {
		t.Fatalf("dark theme should offer the sun, got %q", s.ThemeToggleLabel())
	}
	s.ToggleTheme()
	if s.Theme() != settings.ThemeLight || s.ThemeToggleLabel() != "🌙" {
		t.Fatalf("after toggle: theme %v label %q", s.Theme(), s.ThemeToggleLabel())
	}
	s.ToggleTheme()
	if s.Theme() != settings.ThemeDark {
		t.Fatalf("second toggle should return to dark")
	}
}

func TestSyncThemeAppliesOnlyOnChange(t *testing.T) {
	s := newTestShell(t)
	a := &countingApplier{}

	if !s.SyncTheme(a) {
		t.Fatalf("first sync must apply")
	}
	for i := 0; i < 3; i++ {
		if s.SyncTheme(a) {
			t.Fatalf("sync without change must not reapply")
		}
	}
	if len(a.applied) != 1 || a.applied[0] != settings.ThemeDark {
		t.Fatalf("applied: %v", a.applied)
	}

	s.ToggleTheme()
	if !s.SyncTheme(a) {
		t.Fatalf("sync after toggle must apply")
	}
	if len(a.applied) != 2 || a.applied[1] != settings.ThemeLight {
		t.Fatalf("applied: %v", a.applied)
	}
}

func TestHandleKeyTogglesSidePanel(t *testing.T) {
	s := newTestShell(t)
	if !s.HandleKey(Chord{Key: "B", Control: true}) {
		t.Fatalf("control+B should be consumed")
	}
	if s.SidePanelOpen() {
		t.Fatalf("panel should have closed")
	}
	if !s.HandleKey(Chord{Key: "b", Control: true}) {
		t.Fatalf("binding should be case-insensitive")
	}
	if !s.SidePanelOpen() {
		t.Fatalf("panel should have reopened")
	}

	for _, c := range []Chord{
		{Key: "B"},
		{Key: "B", Control: true, Shift: true},
		{Key: "B", Control: true, Alt: true},
		{Key: "N", Control: true},
	} {
		if s.HandleKey(c) {
			t.Fatalf("chord %+v must not be consumed", c)
		}
	}
	if !s.SidePanelOpen() {
		t.Fatalf("unbound chords must not move the panel")
	}
}

func TestHandleKeyWorksWhileDialogOpen(t *testing.T) {
	s := newTestShell(t)
	s.OpenSettings()
	s.SetDraftHost("remote")

	if !s.HandleKey(Chord{Key: "B", Control: true}) {
		t.Fatalf("control+B should be consumed with the dialog open")
	}
	if s.SidePanelOpen() {
		t.Fatalf("panel should have closed")
	}
	if !s.SettingsOpen() {
		t.Fatalf("panel toggle must not close the settings dialog")
	}
	if got := s.Draft().Service.Host; got != "remote" {
		t.Fatalf("panel toggle must not touch the draft, got host %q", got)
	}
}

func TestSaveCommitsDraftAsWhole(t *testing.T) {
	s := newTestShell(t)
	s.OpenSettings()
	if !s.SettingsOpen() {
		t.Fatalf("dialog should be open")
	}
	s.SetDraftModel("llama3")
	s.SetDraftHost("gpu-box")
	s.SetDraftPort("8080")

	s.SaveSettings()
	if s.SettingsOpen() {
		t.Fatalf("save must close the dialog")
	}
	got := s.State().Connection
	if got.Model != "llama3" || got.Service.Host != "gpu-box" || got.Service.Port != "8080" {
		t.Fatalf("commit incomplete: %+v", got)
	}
	if r := s.ConnectionReadout(); r != "Host: gpu-box, Port: 8080" {
		t.Fatalf("readout after save: %q", r)
	}
}

func TestCancelDiscardsDraft(t *testing.T) {
	s := newTestShell(t)
	s.OpenSettings()
	s.SetDraftHost("elsewhere")
	s.CancelSettings()

	if s.SettingsOpen() {
		t.Fatalf("cancel must close the dialog")
	}
	if r := s.ConnectionReadout(); r != "Host: localhost, Port: 11434" {
		t.Fatalf("cancel must not commit: %q", r)
	}
}

func TestReadoutIgnoresDraftWhileEditing(t *testing.T) {
	s := newTestShell(t)
	s.OpenSettings()
	s.SetDraftHost("elsewhere")
	s.SetDraftPort("1")
	if r := s.ConnectionReadout(); r != "Host: localhost, Port: 11434" {
		t.Fatalf("readout must track committed, not draft: %q", r)
	}
}

func TestReopenDiscardsStaleDraft(t *testing.T) {
	s := newTestShell(t)
	s.OpenSettings()
	s.SetDraftModel("stale")
	s.CancelSettings()

	s.OpenSettings()
	if d := s.Draft(); d.Model != "mistral" {
		t.Fatalf("reopened draft should start from committed, got %+v", d)
	}
}

func TestSaveSettingsIgnoredWhileClosed(t *testing.T) {
	s := newTestShell(t)
	before := s.State().Connection
	s.SaveSettings()
	if s.State().Connection != before {
		t.Fatalf("save without an open dialog must not change committed state")
	}
}

func TestMenuModel(t *testing.T) {
	s := newTestShell(t)
	m := s.MenuModel()
	if m == nil || m.Title != "File" {
		t.Fatalf("expected a File menu, got %+v", m)
	}
	if len(m.Items) != 3 {
		t.Fatalf("expected 3 items, got %+v", m.Items)
	}
	if m.Items[0].Label != "Settings" || !m.Items[1].Separator || m.Items[2].Label != "Quit" {
		t.Fatalf("menu items: %+v", m.Items)
	}

	e := New(Options{Store: newMemStore(), Embedded: true})
	if e.MenuModel() != nil {
		t.Fatalf("embedded shells must carry no system menu")
	}
}

func TestPersistRoundTrip(t *testing.T) {
	st := newMemStore()
	s := New(Options{Store: st})
	s.ToggleTheme()
	s.ToggleSidePanel()
	s.OpenSettings()
	s.SetDraftPort("8080")
	s.SaveSettings()
	if err := s.Persist(); err != nil {
		t.Fatalf("persist: %v", err)
	}

	s2 := New(Options{Store: st})
	if s2.Theme() != settings.ThemeLight {
		t.Fatalf("theme lost across restart")
	}
	if s2.SidePanelOpen() {
		t.Fatalf("panel flag lost across restart")
	}
	if r := s2.ConnectionReadout(); r != "Host: localhost, Port: 8080" {
		t.Fatalf("connection lost across restart: %q", r)
	}
	if s2.State().Value != 2.7 {
		t.Fatalf("value must reset to default, got %v", s2.State().Value)
	}
}

func TestPersistedOpenDialogRestoresSession(t *testing.T) {
	st := newMemStore()
	s := New(Options{Store: st})
	s.OpenSettings()
	if err := s.Persist(); err != nil {
		t.Fatalf("persist: %v", err)
	}

	s2 := New(Options{Store: st})
	if !s2.SettingsOpen() {
		t.Fatalf("dialog open at shutdown should reopen on start")
	}
	if s2.Draft() != s2.State().Connection {
		t.Fatalf("restored draft should equal committed")
	}
}

func TestSaveSettingsRecordsHistory(t *testing.T) {
	hs, err := history.Open(filepath.Join(t.TempDir(), history.FileName))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer hs.Close()

	s := New(Options{Store: newMemStore(), History: hs})
	s.OpenSettings()
	s.SetDraftModel("llama3")
	s.SaveSettings()

	got, err := hs.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 || got[0].Model != "llama3" {
		t.Fatalf("save should land in history: %+v", got)
	}
}
