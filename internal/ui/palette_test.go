/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"testing"

	"atlas/internal/settings"
)

func TestPaletteForThemes(t *testing.T) {
	if got := PaletteFor(settings.ThemeDark); got.Name != "macchiato" {
		t.Fatalf("dark theme should render macchiato, got %q", got.Name)
	}
	if got := PaletteFor(settings.ThemeLight); got.Name != "latte" {
		t.Fatalf("light theme should render latte, got %q", got.Name)
	}
}

func TestPalettesAreDistinctAndOpaque(t *testing.T) {
	la, ma := Latte(), Macchiato()
	if la.Base == ma.Base {
		t.Fatalf("palettes share a base color")
	}
	for _, p := range []Palette{la, ma} {
		if p.Base.A != 0xff || p.Text.A != 0xff || p.Blue.A != 0xff {
			t.Fatalf("%s palette has translucent core colors", p.Name)
		}
	}
}

func TestRGBUnpacksChannels(t *testing.T) {
	c := rgb(0x1e66f5)
	if c.R != 0x1e || c.G != 0x66 || c.B != 0xf5 || c.A != 0xff {
		t.Fatalf("rgb unpack: %+v", c)
	}
}
