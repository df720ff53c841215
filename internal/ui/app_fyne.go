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
	"context"
	"log/slog"
	"net/url"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"atlas/internal/backend"
	"atlas/internal/config"
	"atlas/internal/crash"
	"atlas/internal/history"
	applog "atlas/internal/log"
	"atlas/internal/shell"
	"atlas/internal/telemetry"
)

const planText = "So here's the plan:\n\n" +
	"The purpose of this application is to serve as the frontend to a locally run AI agent. This agent will do the following:\n\n" +
	"1. Parse a codebase, or other information.\n" +
	"2. Map the data into a network graph with vector database.\n" +
	"3. Use the data in prompting along with multiple other elements to create a cohesive change to codebases."

// Run starts the Fyne-based desktop shell.
func Run() error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")
	defer crash.Recover()

	cfg, _, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
		cfg = config.Defaults()
	}
	if cfg.General.TelemetryOptIn && os.Getenv(config.EnvTelemetryOptIn) == "" {
		// The telemetry client gates on the environment; the config file
		// opt-in feeds the same switch.
		os.Setenv(config.EnvTelemetryOptIn, "1")
	}

	fyneApp := app.NewWithID("atlas")
	w := fyneApp.NewWindow("Atlas")
	prefs := fyneApp.Preferences()

	// Restore window size from preferences (with sane minimums)
	winW := prefs.IntWithFallback("window.width", 1024)
	winH := prefs.IntWithFallback("window.height", 768)
	if winW < 640 {
		winW = 640
	}
	if winH < 480 {
		winH = 480
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	// Connection history is optional; the shell runs fine without it.
	var hist *history.Store
	var mirror *backend.Mirror
	if !cfg.History.Disabled {
		if p, perr := cfg.HistoryPath(); perr != nil {
			l.Warn("history path unresolved", slog.Any("err", perr))
		} else if hs, herr := history.Open(p); herr != nil {
			l.Warn("history store unavailable", slog.Any("err", herr))
		} else {
			hist = hs
			if dsn := backend.FromEnv(); dsn != "" {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				m, merr := backend.Open(ctx, dsn)
				cancel()
				if merr != nil {
					l.Warn("postgres mirror unavailable", slog.Any("err", merr))
				} else {
					mirror = m
					hist.SetMirror(m)
				}
			}
		}
	}

	sh := shell.New(shell.Options{Store: prefs, History: hist, Embedded: cfg.General.Embedded})

	applier := fyneThemeApplier{app: fyneApp}
	sh.SyncTheme(applier)
	telemetry.Event("app_start", map[string]any{"theme": sh.Theme().String()})

	status := widget.NewLabel("Ready")
	readout := widget.NewLabel(sh.ConnectionReadout())

	// Central pane
	title := widget.NewLabelWithStyle("Project: Napkin Atlas", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	plan := widget.NewLabel(planText)
	plan.Wrapping = fyne.TextWrapWord
	center := container.NewVBox(title, plan, widget.NewSeparator(), readout)

	// Side panel placeholder
	side := container.NewVBox(
		widget.NewLabelWithStyle("Side Panel", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewSeparator(),
	)
	split := container.NewHSplit(side, center)
	split.Offset = 0.25

	// Bottom bar
	repoURL, _ := url.Parse("https://github.com/Z90-Studios")
	credit := widget.NewHyperlink("Created by Z90 Studios.", repoURL)
	bottom := container.NewHBox(status, layout.NewSpacer(), credit)

	content := container.NewMax()
	refreshLayout := func() {
		if sh.SidePanelOpen() {
			content.Objects = []fyne.CanvasObject{split}
		} else {
			content.Objects = []fyne.CanvasObject{center}
		}
		content.Refresh()
	}

	// Toolbar: theme toggle and side panel check
	var themeBtn *widget.Button
	themeBtn = widget.NewButton(sh.ThemeToggleLabel(), func() {
		sh.ToggleTheme()
		sh.SyncTheme(applier)
		themeBtn.SetText(sh.ThemeToggleLabel())
		l.Info("theme toggled", slog.String("theme", sh.Theme().String()))
	})
	var panelCheck *widget.Check
	panelCheck = widget.NewCheck("File Browser", func(v bool) {
		// SetChecked fires this callback too; only user edits move the state.
		if v == sh.SidePanelOpen() {
			return
		}
		sh.ToggleSidePanel()
		refreshLayout()
	})
	panelCheck.SetChecked(sh.SidePanelOpen())
	toolbar := container.NewHBox(themeBtn, panelCheck)

	root := container.NewBorder(toolbar, bottom, nil, nil, content)
	w.SetContent(root)
	refreshLayout()

	// Settings dialog bound to the edit session; the caller opens the
	// session before showing.
	showSettings := func() {
		d := sh.Draft()
		modelEntry := widget.NewEntry()
		modelEntry.SetText(d.Model)
		modelEntry.OnChanged = sh.SetDraftModel
		hostEntry := widget.NewEntry()
		hostEntry.SetText(d.Service.Host)
		hostEntry.OnChanged = sh.SetDraftHost
		portEntry := widget.NewEntry()
		portEntry.SetText(d.Service.Port)
		portEntry.OnChanged = sh.SetDraftPort

		form := dialog.NewForm("LLM Settings", "Save", "Cancel", []*widget.FormItem{
			widget.NewFormItem("Model", modelEntry),
			widget.NewFormItem("Host", hostEntry),
			widget.NewFormItem("Port", portEntry),
		}, func(ok bool) {
			if ok {
				sh.SaveSettings()
				status.SetText("Settings saved.")
			} else {
				sh.CancelSettings()
				status.SetText("Settings unchanged.")
			}
			readout.SetText(sh.ConnectionReadout())
		}, w)
		form.Show()
	}

	// Persist once, from the close path only.
	shutdown := func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		if err := sh.Persist(); err != nil {
			l.Error("persist state failed", slog.Any("err", err))
		}
		if mirror != nil {
			_ = mirror.Close()
		}
		if hist != nil {
			_ = hist.Close()
		}
		l.Info("shutting down")
		w.Close()
	}
	w.SetCloseIntercept(shutdown)

	// System menu from the shell's model; embedded hosts get none.
	if m := sh.MenuModel(); m != nil {
		items := make([]*fyne.MenuItem, 0, len(m.Items))
		for _, it := range m.Items {
			if it.Separator {
				items = append(items, fyne.NewMenuItemSeparator())
				continue
			}
			switch it.Label {
			case "Settings":
				items = append(items, fyne.NewMenuItem(it.Label, func() {
					sh.OpenSettings()
					showSettings()
				}))
			case "Quit":
				// IsQuit keeps Fyne from appending its own Quit item, whose
				// default action would skip the close intercept.
				q := fyne.NewMenuItem(it.Label, func() {
					shutdown()
				})
				q.IsQuit = true
				items = append(items, q)
			}
		}
		w.SetMainMenu(fyne.NewMainMenu(fyne.NewMenu(m.Title, items...)))
	}

	// Side panel shortcut; one code path with the tests via HandleKey.
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyB, Modifier: fyne.KeyModifierControl}, func(sc fyne.Shortcut) {
		if sh.HandleKey(shell.Chord{Key: "B", Control: true}) {
			refreshLayout()
			panelCheck.SetChecked(sh.SidePanelOpen())
		}
	})

	// A dialog left open at last shutdown reopens with the restored draft.
	if sh.SettingsOpen() {
		showSettings()
	}

	w.ShowAndRun()
	return nil
}
