/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package shell is the headless application controller. It owns the loaded
// state, the settings edit session, and every decision the window chrome
// renders: menu model, theme, side panel, readout. The GUI layer stays a
// thin projection of this controller so behavior is testable without a
// display.
package shell

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"atlas/internal/history"
	applog "atlas/internal/log"
	"atlas/internal/settings"
	"atlas/internal/telemetry"
)

// ThemeApplier receives the effective theme. The GUI adapter maps it onto
// the toolkit; tests count calls.
type ThemeApplier interface {
	ApplyTheme(settings.Theme)
}

// MenuItem is one entry of the menu model.
type MenuItem struct {
	Label     string
	Separator bool
}

// Menu is a toolkit-independent menu description.
type Menu struct {
	Title string
	Items []MenuItem
}

// Options configures a Shell.
type Options struct {
	Store   settings.Store
	History *history.Store // optional
	// Embedded suppresses the system menu for hosts that bring their own
	// chrome.
	Embedded bool
}

// Shell drives the application state.
type Shell struct {
	store    settings.Store
	history  *history.Store
	embedded bool
	log      *slog.Logger

	state   settings.State
	session settings.EditSession

	themeApplied bool
	appliedTheme settings.Theme
}

// New loads the persisted state from opts.Store and restores the edit
// session when the settings dialog was open at last shutdown.
func New(opts Options) *Shell {
	s := &Shell{
		store:    opts.Store,
		history:  opts.History,
		embedded: opts.Embedded,
		log:      applog.WithComponent("shell"),
	}
	s.state = settings.Load(opts.Store)
	if s.state.SettingsWindowOpen {
		s.session.Open(s.state.Connection)
	}
	return s
}

// State returns a copy of the current state.
func (s *Shell) State() settings.State { return s.state }

// Theme returns the active theme.
func (s *Shell) Theme() settings.Theme { return s.state.Theme }

// SidePanelOpen reports whether the side panel shows.
func (s *Shell) SidePanelOpen() bool { return s.state.SidePanelOpen }

// SettingsOpen reports whether the settings dialog shows.
func (s *Shell) SettingsOpen() bool { return s.session.IsOpen() }

// Embedded reports whether the shell runs without a system menu.
func (s *Shell) Embedded() bool { return s.embedded }

// SyncTheme hands the effective theme to a. Calling it every frame is fine:
// the applier only runs when the effective theme actually changed. It
// reports whether an application happened.
func (s *Shell) SyncTheme(a ThemeApplier) bool {
	if s.themeApplied && s.appliedTheme == s.state.Theme {
		return false
	}
	a.ApplyTheme(s.state.Theme)
	s.appliedTheme = s.state.Theme
	s.themeApplied = true
	return true
}

// ToggleTheme flips between the two themes. There is no third state.
func (s *Shell) ToggleTheme() {
	if s.state.Theme == settings.ThemeDark {
		s.state.Theme = settings.ThemeLight
	} else {
		s.state.Theme = settings.ThemeDark
	}
}

// ThemeToggleLabel names the action of the theme button: the sun under the
// dark theme (switch to light), the moon under the light theme.
func (s *Shell) ThemeToggleLabel() string {
	if s.state.Theme == settings.ThemeDark {
		return "☀"
	}
	return "🌙"
}

// ToggleSidePanel flips the side panel flag.
func (s *Shell) ToggleSidePanel() { s.state.SidePanelOpen = !s.state.SidePanelOpen }

// ConnectionReadout renders the committed endpoint for the central panel.
// It never reflects an in-progress draft.
func (s *Shell) ConnectionReadout() string {
	svc := s.state.Connection.Service
	return fmt.Sprintf("Host: %s, Port: %s", svc.Host, svc.Port)
}

// MenuModel returns the single File menu, or nil when the shell runs
// embedded and the host owns the chrome.
func (s *Shell) MenuModel() *Menu {
	if s.embedded {
		return nil
	}
	return &Menu{
		Title: "File",
		Items: []MenuItem{
			{Label: "Settings"},
			{Separator: true},
			{Label: "Quit"},
		},
	}
}

// OpenSettings starts (or restarts) the edit session from the committed
// connection and raises the dialog flag.
func (s *Shell) OpenSettings() {
	s.session.Open(s.state.Connection)
	s.state.SettingsWindowOpen = true
}

// Draft returns the connection under edit for seeding dialog fields.
func (s *Shell) Draft() settings.Connection { return s.session.Draft() }

// SetDraftModel forwards a dialog edit to the session.
func (s *Shell) SetDraftModel(v string) { s.session.SetModel(v) }

// SetDraftHost forwards a dialog edit to the session.
func (s *Shell) SetDraftHost(v string) { s.session.SetHost(v) }

// SetDraftPort forwards a dialog edit to the session. The value is kept
// verbatim; nothing validates or dials it.
func (s *Shell) SetDraftPort(v string) { s.session.SetPort(v) }

// SaveSettings commits the draft as a whole, closes the dialog, and
// best-effort records the new configuration locally. The telemetry event
// carries no endpoint values.
func (s *Shell) SaveSettings() {
	if !s.session.IsOpen() {
		return
	}
	s.state.Connection = s.session.Save()
	s.state.SettingsWindowOpen = false

	if s.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := s.history.Record(ctx, s.state); err != nil {
			s.log.Warn("history record failed", slog.Any("err", err))
		}
	}
	telemetry.Event("settings_saved", nil)
}

// CancelSettings discards the draft and closes the dialog. The dialog's own
// dismiss affordance takes this path too.
func (s *Shell) CancelSettings() {
	s.session.Cancel(s.state.Connection)
	s.state.SettingsWindowOpen = false
}

// Persist writes the snapshot through the store. The GUI calls it exactly
// once, from the window close intercept.
func (s *Shell) Persist() error {
	return settings.Save(s.store, s.state)
}
