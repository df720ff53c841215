/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package settings

// EditSession owns the draft connection while the settings dialog is open.
// Widgets report new field values into the draft through the setters; the
// committed connection changes only when the caller applies the result of
// Save. Closing any other way discards the draft.
//
// The session is single-threaded: everything runs on the UI event loop.
type EditSession struct {
	open  bool
	draft Connection
}

// Open starts an edit from a fresh copy of committed. Opening while already
// open re-copies, so stale draft contents never survive an open.
func (s *EditSession) Open(committed Connection) {
	s.draft = committed
	s.open = true
}

// IsOpen reports whether an edit is in progress.
func (s *EditSession) IsOpen() bool { return s.open }

// Draft returns the connection under edit. Meaningful only while open.
func (s *EditSession) Draft() Connection { return s.draft }

// SetModel updates the draft model name. Ignored while closed.
func (s *EditSession) SetModel(v string) {
	if !s.open {
		return
	}
	s.draft.Model = v
}

// SetHost updates the draft service host. Ignored while closed.
func (s *EditSession) SetHost(v string) {
	if !s.open {
		return
	}
	s.draft.Service.Host = v
}

// SetPort updates the draft service port. The value is kept verbatim; no
// numeric validation happens here. Ignored while closed.
func (s *EditSession) SetPort(v string) {
	if !s.open {
		return
	}
	s.draft.Service.Port = v
}

// Save ends the edit and returns the draft, which the caller commits as a
// whole. Save always closes.
func (s *EditSession) Save() Connection {
	s.open = false
	return s.draft
}

// Cancel ends the edit and resets the draft to committed. Dismissing the
// dialog through the window chrome takes this path too: plain close never
// keeps edits.
func (s *EditSession) Cancel(committed Connection) {
	s.draft = committed
	s.open = false
}
