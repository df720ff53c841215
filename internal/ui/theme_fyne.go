//go:build fyne && cgo

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

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"atlas/internal/settings"
)

// appTheme wraps the default theme and swaps its colors for a Palette. The
// variant is pinned so OS dark-mode changes cannot fight the stored theme.
type appTheme struct {
	fyne.Theme
	p       Palette
	variant fyne.ThemeVariant
}

func themeFor(t settings.Theme) fyne.Theme {
	v := theme.VariantDark
	if t == settings.ThemeLight {
		v = theme.VariantLight
	}
	return &appTheme{Theme: theme.DefaultTheme(), p: PaletteFor(t), variant: v}
}

func (t *appTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return t.p.Base
	case theme.ColorNameForeground:
		return t.p.Text
	case theme.ColorNameButton:
		return t.p.Surface0
	case theme.ColorNameInputBackground:
		return t.p.Mantle
	case theme.ColorNameInputBorder:
		return t.p.Surface2
	case theme.ColorNameMenuBackground, theme.ColorNameOverlayBackground:
		return t.p.Mantle
	case theme.ColorNameSeparator:
		return t.p.Surface1
	case theme.ColorNameScrollBar:
		return t.p.Surface2
	case theme.ColorNamePlaceHolder:
		return t.p.Subtext
	case theme.ColorNameDisabled:
		return t.p.Overlay0
	case theme.ColorNamePrimary, theme.ColorNameFocus:
		return t.p.Blue
	case theme.ColorNameHyperlink:
		return t.p.Lavender
	case theme.ColorNameError:
		return t.p.Red
	case theme.ColorNameSuccess:
		return t.p.Green
	case theme.ColorNameWarning:
		return t.p.Yellow
	case theme.ColorNameShadow:
		return t.p.Crust
	}
	return t.Theme.Color(name, t.variant)
}

// fyneThemeApplier satisfies shell.ThemeApplier for a running app.
type fyneThemeApplier struct{ app fyne.App }

func (a fyneThemeApplier) ApplyTheme(t settings.Theme) {
	a.app.Settings().SetTheme(themeFor(t))
}
