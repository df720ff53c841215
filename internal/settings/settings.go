/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package settings defines the state Atlas keeps between runs and the codec
// that moves it through the host preferences store. The record is a single
// JSON document under one key; decoding is forward compatible in both
// directions (missing fields fill from defaults, unknown fields are ignored)
// without a version number in the record.
package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	applog "atlas/internal/log"
)

// Theme selects one of the two built-in palettes.
type Theme int

const (
	ThemeLight Theme = iota
	ThemeDark
)

// String returns the wire name of the theme ("light" or "dark").
func (t Theme) String() string {
	if t == ThemeLight {
		return "light"
	}
	return "dark"
}

// ParseTheme maps a stored theme name to a Theme. Matching is
// case-insensitive; anything unrecognized falls back to the dark default so
// a stale record cannot wedge startup.
func ParseTheme(s string) Theme {
	if strings.EqualFold(strings.TrimSpace(s), "light") {
		return ThemeLight
	}
	return ThemeDark
}

// ServiceEndpoint locates the inference service. Port stays a string on
// purpose: it round-trips verbatim, and nothing in this program dials it.
type ServiceEndpoint struct {
	Host string
	Port string
}

// Connection is the model/service configuration edited in the settings
// dialog. It is configuration data only; no client is built from it here.
type Connection struct {
	Model   string
	Service ServiceEndpoint
}

// State is everything Atlas remembers between runs plus the per-run scratch
// fields of the original prototype screen. Value is recomputed each run and
// never persisted; Label is.
type State struct {
	Label string
	Value float64

	Theme              Theme
	SidePanelOpen      bool
	SettingsWindowOpen bool
	Connection         Connection
}

// Defaults returns the state of a fresh install.
func Defaults() State {
	return State{
		Label:         "Hello World!",
		Value:         2.7,
		Theme:         ThemeDark,
		SidePanelOpen: true,
		Connection: Connection{
			Model: "mistral",
			Service: ServiceEndpoint{
				Host: "localhost",
				Port: "11434",
			},
		},
	}
}

// StateKey is the preferences key the whole record lives under.
const StateKey = "atlas.state"

// Store is the slice of the preferences API the codec needs. fyne's
// Preferences satisfies it directly; tests use an in-memory map.
type Store interface {
	StringWithFallback(key, fallback string) string
	SetString(key, value string)
}

// Snapshot is the wire form of State. Pointer fields keep absent keys
// distinguishable from zero values so MergeWithDefaults can fill them.
type Snapshot struct {
	Label              *string             `json:"label,omitempty"`
	Theme              *string             `json:"theme,omitempty"`
	SidePanelOpen      *bool               `json:"sidePanelOpen,omitempty"`
	SettingsWindowOpen *bool               `json:"settingsWindowOpen,omitempty"`
	Connection         *ConnectionSnapshot `json:"connection,omitempty"`
}

// ConnectionSnapshot is the wire form of Connection.
type ConnectionSnapshot struct {
	Model   *string          `json:"model,omitempty"`
	Service *ServiceSnapshot `json:"service,omitempty"`
}

// ServiceSnapshot is the wire form of ServiceEndpoint.
type ServiceSnapshot struct {
	Host *string `json:"host,omitempty"`
	Port *string `json:"port,omitempty"`
}

// MergeWithDefaults overlays every field present in snap onto Defaults().
// It never fails; the zero Snapshot merges to exactly the defaults. A stored
// false survives the merge the same as a stored true.
func MergeWithDefaults(snap Snapshot) State {
	s := Defaults()
	if snap.Label != nil {
		s.Label = *snap.Label
	}
	if snap.Theme != nil {
		s.Theme = ParseTheme(*snap.Theme)
	}
	if snap.SidePanelOpen != nil {
		s.SidePanelOpen = *snap.SidePanelOpen
	}
	if snap.SettingsWindowOpen != nil {
		s.SettingsWindowOpen = *snap.SettingsWindowOpen
	}
	if c := snap.Connection; c != nil {
		if c.Model != nil {
			s.Connection.Model = *c.Model
		}
		if svc := c.Service; svc != nil {
			if svc.Host != nil {
				s.Connection.Service.Host = *svc.Host
			}
			if svc.Port != nil {
				s.Connection.Service.Port = *svc.Port
			}
		}
	}
	return s
}

// Load reads the record from st. An empty or undecodable record yields the
// defaults; load never fails the caller.
func Load(st Store) State {
	raw := st.StringWithFallback(StateKey, "")
	if raw == "" {
		return Defaults()
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		applog.WithComponent("settings").Warn("stored state unreadable, using defaults", slog.Any("err", err))
		return Defaults()
	}
	return MergeWithDefaults(snap)
}

// Encode renders s as the wire record. Value is deliberately absent; the
// settingsWindowOpen flag is written as-is, open or not.
func Encode(s State) ([]byte, error) {
	theme := s.Theme.String()
	snap := Snapshot{
		Label:              &s.Label,
		Theme:              &theme,
		SidePanelOpen:      &s.SidePanelOpen,
		SettingsWindowOpen: &s.SettingsWindowOpen,
		Connection: &ConnectionSnapshot{
			Model: &s.Connection.Model,
			Service: &ServiceSnapshot{
				Host: &s.Connection.Service.Host,
				Port: &s.Connection.Service.Port,
			},
		},
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return b, nil
}

// Save writes s under StateKey.
func Save(st Store, s State) error {
	b, err := Encode(s)
	if err != nil {
		return err
	}
	st.SetString(StateKey, string(b))
	return nil
}
