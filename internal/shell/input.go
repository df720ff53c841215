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

import "strings"

// Chord is a normalized key press. The GUI translates toolkit shortcut
// events into a Chord; tests construct them directly, so no widget or event
// loop is needed to drive the bindings.
type Chord struct {
	Key     string
	Control bool
	Shift   bool
	Alt     bool
}

// HandleKey runs the binding for c, if any, and reports whether the chord
// was consumed. Control+B toggles the side panel.
func (s *Shell) HandleKey(c Chord) bool {
	if c.Control && !c.Shift && !c.Alt && strings.EqualFold(c.Key, "B") {
		s.ToggleSidePanel()
		return true
	}
	return false
}
