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
	"image/color"

	"atlas/internal/settings"
)

// Palette is one of the two Catppuccin color sets the shell renders with.
// It carries plain colors so theme selection stays testable without a
// display; the toolkit adapter maps it onto widget color names.
type Palette struct {
	Name string

	Base   color.NRGBA
	Mantle color.NRGBA
	Crust  color.NRGBA

	Surface0 color.NRGBA
	Surface1 color.NRGBA
	Surface2 color.NRGBA
	Overlay0 color.NRGBA

	Text    color.NRGBA
	Subtext color.NRGBA

	Blue     color.NRGBA
	Lavender color.NRGBA
	Red      color.NRGBA
	Green    color.NRGBA
	Yellow   color.NRGBA
}

func rgb(v uint32) color.NRGBA {
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// Latte is the light palette.
func Latte() Palette {
	return Palette{
		Name:     "latte",
		Base:     rgb(0xeff1f5),
		Mantle:   rgb(0xe6e9ef),
		Crust:    rgb(0xdce0e8),
		Surface0: rgb(0xccd0da),
		Surface1: rgb(0xbcc0cc),
		Surface2: rgb(0xacb0be),
		Overlay0: rgb(0x9ca0b0),
		Text:     rgb(0x4c4f69),
		Subtext:  rgb(0x6c6f85),
		Blue:     rgb(0x1e66f5),
		Lavender: rgb(0x7287fd),
		Red:      rgb(0xd20f39),
		Green:    rgb(0x40a02b),
		Yellow:   rgb(0xdf8e1d),
	}
}

// Macchiato is the dark palette.
func Macchiato() Palette {
	return Palette{
		Name:     "macchiato",
		Base:     rgb(0x24273a),
		Mantle:   rgb(0x1e2030),
		Crust:    rgb(0x181926),
		Surface0: rgb(0x363a4f),
		Surface1: rgb(0x494d64),
		Surface2: rgb(0x5b6078),
		Overlay0: rgb(0x6e738d),
		Text:     rgb(0xcad3f5),
		Subtext:  rgb(0xa5adcb),
		Blue:     rgb(0x8aadf4),
		Lavender: rgb(0xb7bdf8),
		Red:      rgb(0xed8796),
		Green:    rgb(0xa6da95),
		Yellow:   rgb(0xeed49d),
	}
}

// PaletteFor maps the persisted theme to its palette.
func PaletteFor(t settings.Theme) Palette {
	if t == settings.ThemeLight {
		return Latte()
	}
	return Macchiato()
}
