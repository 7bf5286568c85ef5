//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	fynetheme "fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"soulsight/internal/backend"
	"soulsight/internal/config"
	"soulsight/internal/controls"
	"soulsight/internal/crash"
	applog "soulsight/internal/log"
	"soulsight/internal/notify"
	"soulsight/internal/page"
	"soulsight/internal/prefs"
	"soulsight/internal/quota"
	"soulsight/internal/speech"
	"soulsight/internal/telemetry"
	"soulsight/internal/version"
)

// flashRegionID is the page element the flash notifier renders into.
const flashRegionID = "flash-messages"

// Run starts the Fyne-based desktop shell around the accessibility page.
// contentPath may name a document to read; empty shows the built-in page.
func Run(contentPath string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	cfg, token, err := config.Load()
	if err != nil {
		l.Warn("config load failed, continuing with defaults", slog.Any("err", err))
	}

	tcfg := telemetry.FromEnv()
	if cfg.General.TelemetryOptIn {
		tcfg.OptIn = true
	}
	telemetry.NewDefault(tcfg)

	var ctl *controls.Controller
	defer crash.Recover(func() string { return stateDump(ctl) })

	fyneApp := app.NewWithID("soulsight")
	w := fyneApp.NewWindow("SoulSight AI")
	// Restore window size from preferences (with sane minimums)
	fprefs := fyneApp.Preferences()
	winW := fprefs.IntWithFallback("window.width", 1100)
	winH := fprefs.IntWithFallback("window.height", 760)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	secs, loadedPath := loadSections(contentPath, l)
	pg := buildPage(secs)

	// Preference store: sqlite in the config dir, memory when that fails.
	var store prefs.Store = prefs.NewMem()
	if path, perr := config.PrefsPath(); perr == nil {
		if db, derr := prefs.Open(path); derr == nil {
			store = db
			defer func() {
				if cerr := db.Close(); cerr != nil {
					l.Error("closing preference store failed", slog.Any("err", cerr))
				}
			}()
		} else {
			l.Warn("preference store unavailable, settings will not persist", slog.String("path", path), slog.Any("err", derr))
		}
	} else {
		l.Warn("no config dir, settings will not persist", slog.Any("err", perr))
	}

	flash := notify.NewFlash(pg, flashRegionID, 4*time.Second)

	engine, keeper, eerr := buildSpeechEngine(cfg, token, store)
	if eerr != nil {
		l.Warn("no speech engine, read aloud disabled", slog.Any("err", eerr))
	} else {
		l.Info("speech engine ready", slog.String("engine", engine.Name()))
	}

	defTheme := cfg.General.Theme
	if defTheme == "system" {
		defTheme = "light"
		if fyneApp.Settings().ThemeVariant() == fynetheme.VariantDark {
			defTheme = "dark"
		}
	}

	ctl = controls.New(pg, controls.Config{
		Store:    store,
		Notifier: flash,
		Engine:   engine,
		Speech: speech.Options{
			Lang:   cfg.Speech.EffectiveLang(cfg.General),
			Rate:   cfg.Speech.Rate,
			Volume: cfg.Speech.Volume,
		},
		DefaultTheme: defTheme,
	})

	status := widget.NewLabel("Ready")
	if loadedPath != "" {
		status.SetText("Reading " + filepath.Base(loadedPath))
	}

	reader := NewReaderView(secs)
	scroll := container.NewVScroll(reader)

	// syncing suppresses widget callbacks while refresh pushes page state
	// back into the widgets, so the two sides cannot feed each other.
	syncing := false
	var refresh func()

	dispatchClick := func(id string) {
		if el := pg.ByID(id); el != nil {
			pg.Click(el)
		}
	}

	// Top bar.
	navBtn := widget.NewButton(elementText(pg, controls.IDNavToggle), nil)
	title := widget.NewLabelWithStyle("SoulSight AI", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	themeBtn := widget.NewButton(elementText(pg, controls.IDThemeToggle), nil)
	a11yBtn := widget.NewButton("Accessibility", nil)
	userBtn := widget.NewButton("Account", nil)
	topBar := container.NewHBox(navBtn, title, layout.NewSpacer(), themeBtn, a11yBtn, userBtn)

	// Account dropdown body.
	quotaBtn := widget.NewButton("Narration quota", nil)
	quotaResetBtn := widget.NewButton("Reset quota counter", nil)
	historyBtn := widget.NewButton("History", nil)
	userPane := container.NewVBox(widget.NewSeparator(), historyBtn, quotaBtn, quotaResetBtn, widget.NewSeparator())
	userPane.Hide()

	// Navigation drawer.
	navHome := widget.NewButton("Home", nil)
	navHistory := widget.NewButton("History", nil)
	navAbout := widget.NewButton("About", nil)
	drawer := container.NewVBox(widget.NewLabel("Menu"), widget.NewSeparator(), navHome, navHistory, navAbout)
	drawer.Hide()

	// Accessibility panel.
	hcCheck := widget.NewCheck("High contrast", nil)
	ltCheck := widget.NewCheck("Large text", nil)
	rmCheck := widget.NewCheck("Reduce motion", nil)
	readBtn := widget.NewButton(elementText(pg, controls.IDReadAloud), nil)
	panelClose := widget.NewButton("Close", nil)
	panel := container.NewVBox(
		widget.NewLabelWithStyle("Accessibility", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewSeparator(),
		hcCheck, ltCheck, rmCheck,
		widget.NewSeparator(),
		readBtn, panelClose,
	)
	panel.Hide()

	// Table of contents.
	tocList := widget.NewList(
		func() int { return len(secs) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			t := secs[i].Title
			if t == "" {
				t = "(untitled)"
			}
			o.(*widget.Label).SetText(t)
		},
	)
	tocPane := container.NewBorder(widget.NewLabel("Contents"), nil, nil, nil, tocList)

	navBtn.OnTapped = func() { dispatchClick(controls.IDNavToggle); refresh() }
	themeBtn.OnTapped = func() {
		dispatchClick(controls.IDThemeToggle)
		telemetry.Event(telemetry.EventThemeToggle, map[string]any{"mode": ctl.Theme.Mode()})
		refresh()
	}
	a11yBtn.OnTapped = func() {
		dispatchClick(controls.IDPanelToggle)
		if ctl.Panel.IsOpen() {
			telemetry.Event(telemetry.EventPanelOpen, nil)
		}
		refresh()
	}
	userBtn.OnTapped = func() { dispatchClick(controls.IDUserToggle); refresh() }
	readBtn.OnTapped = func() {
		dispatchClick(controls.IDReadAloud)
		if ctl.ReadAloud.Reading() {
			telemetry.Event(telemetry.EventSpeechStart, map[string]any{"engine": engineName(engine)})
		}
		refresh()
	}
	panelClose.OnTapped = func() { dispatchClick(controls.IDPanelClose); refresh() }

	bindCheck := func(c *widget.Check, id string) {
		c.OnChanged = func(on bool) {
			if syncing {
				return
			}
			if el := pg.ByID(id); el != nil {
				pg.Dispatch(page.Event{Type: page.Change, Target: el, Checked: on})
			}
			refresh()
		}
	}
	bindCheck(hcCheck, controls.IDHighContrast)
	bindCheck(ltCheck, controls.IDLargeText)
	bindCheck(rmCheck, controls.IDReduceMotion)

	syncScrollFromPage := func() {
		syncing = true
		scroll.Offset = fyne.NewPos(0, float32(pg.ScrollY()))
		scroll.Refresh()
		syncing = false
	}

	scroll.OnScrolled = func(p fyne.Position) {
		if syncing {
			return
		}
		pg.ScrollTo(int(p.Y))
		refresh()
	}

	tocList.OnSelected = func(id widget.ListItemID) {
		if syncing {
			return
		}
		if id < 0 || int(id) >= len(secs) {
			return
		}
		dispatchClick("toc-" + secs[id].ID)
		syncScrollFromPage()
		refresh()
	}

	showHistory := func() {
		cli := backend.NewClient(cfg.Backend.BaseURL, token, cfg.Backend.Timeout())
		status.SetText("Fetching history…")
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
			defer cancel()
			h, ferr := cli.FetchHistory(ctx)
			fyne.Do(func() {
				status.SetText("Ready")
				if ferr != nil {
					l.Error("history fetch failed", slog.Any("err", ferr))
					dialog.ShowError(fmt.Errorf("history unavailable: %w", ferr), w)
					return
				}
				var b strings.Builder
				fmt.Fprintf(&b, "%d images, %d analyses\n", h.TotalImages, h.TotalAnalyses)
				n := len(h.Images)
				if n > 8 {
					n = 8
				}
				for _, img := range h.Images[:n] {
					fmt.Fprintf(&b, "\n%s (%s, %.2f MB)", img.Filename, img.Category, img.FileSizeMB)
				}
				dialog.ShowInformation("History", b.String(), w)
			})
		}()
	}

	navHome.OnTapped = func() {
		dispatchClick("nav-home")
		pg.ScrollTo(0)
		syncScrollFromPage()
		refresh()
	}
	navHistory.OnTapped = func() {
		dispatchClick("nav-history")
		refresh()
		showHistory()
	}
	navAbout.OnTapped = func() {
		dispatchClick("nav-about")
		refresh()
		dialog.ShowInformation("About SoulSight",
			"SoulSight AI "+version.String()+"\nSee the Soul in Every Image", w)
	}

	historyBtn.OnTapped = func() {
		ctl.User.Close()
		refresh()
		showHistory()
	}
	quotaBtn.OnTapped = func() {
		ctl.User.Close()
		refresh()
		if keeper == nil {
			dialog.ShowInformation("Narration quota", "Narration runs locally; no quota applies.", w)
			return
		}
		st := keeper.Status()
		msg := fmt.Sprintf("Used %d of %d narrations today.\n%d remaining.", st.Used, st.Limit, st.Remaining)
		if st.CooldownLeft > 0 {
			msg += fmt.Sprintf("\nNext narration in %s.", st.CooldownLeft.Round(time.Second))
		}
		dialog.ShowInformation("Narration quota", msg, w)
	}
	quotaResetBtn.OnTapped = func() {
		ctl.User.Close()
		if keeper == nil {
			refresh()
			return
		}
		keeper.Reset()
		flash.Show("Narration quota counter reset.", notify.Success)
		refresh()
	}

	refresh = func() {
		syncing = true
		defer func() { syncing = false }()

		root := pg.Root()
		dark := root.Attr("data-theme") == "dark"
		hc := root.HasClass("high-contrast")
		lt := root.HasClass("large-text")
		scale := float32(1)
		if lt {
			scale = 1.25
		}
		reader.SetAppearance(dark, hc, scale)

		navBtn.SetText(elementText(pg, controls.IDNavToggle))
		themeBtn.SetText(elementText(pg, controls.IDThemeToggle))
		readBtn.SetText(elementText(pg, controls.IDReadAloud))

		hcCheck.SetChecked(checkedAttr(pg, controls.IDHighContrast))
		ltCheck.SetChecked(checkedAttr(pg, controls.IDLargeText))
		rmCheck.SetChecked(checkedAttr(pg, controls.IDReduceMotion))

		setShown(drawer, ctl.Nav.NavOpen())
		setShown(panel, ctl.Panel.IsOpen())
		setShown(userPane, ctl.User.IsOpen())

		active := ctl.Toc.Active()
		sel := -1
		for i, s := range secs {
			if "sec-"+s.ID == active {
				sel = i
				break
			}
		}
		if sel >= 0 {
			tocList.Select(sel)
		} else {
			tocList.UnselectAll()
		}

		if msgs := flash.Messages(); len(msgs) > 0 {
			status.SetText(msgs[len(msgs)-1])
		} else if keeper != nil {
			st := keeper.Status()
			status.SetText(fmt.Sprintf("Narrations today: %d/%d", st.Used, st.Limit))
		}
	}

	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			pg.Keydown("Escape")
			refresh()
		}
	})
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyD, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) {
		themeBtn.OnTapped()
	})

	// Background state (session end, flash dismissal) reaches the widgets
	// through a polling loop; only a changed fingerprint triggers work.
	done := make(chan struct{})
	go func() {
		tick := time.NewTicker(400 * time.Millisecond)
		defer tick.Stop()
		last := ""
		for {
			select {
			case <-done:
				return
			case <-tick.C:
				fp := fmt.Sprintf("%s|%v|%v|%v|%s|%d|%v",
					ctl.Theme.Mode(), ctl.Panel.IsOpen(), ctl.Nav.NavOpen(), ctl.User.IsOpen(),
					ctl.Toc.Active(), len(flash.Messages()), ctl.ReadAloud.Reading())
				if fp == last {
					continue
				}
				last = fp
				fyne.Do(refresh)
			}
		}
	}()

	// Persist preferences on close, and let the page wind down narration.
	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		fprefs.SetInt("window.width", int(sz.Width))
		fprefs.SetInt("window.height", int(sz.Height))
		pg.CloseRequested()
		close(done)
		w.Close()
	})

	center := container.NewBorder(userPane, nil, nil, nil, scroll)
	right := container.NewVBox(panel)
	content := container.NewBorder(topBar, status, container.NewVBox(drawer, tocPane), right, center)
	w.SetContent(content)

	refresh()
	w.ShowAndRun()
	return nil
}

// buildPage assembles the page model the controllers bind to. Layout
// mirrors the web app: header controls, nav drawer, accessibility panel,
// the sectioned content with a table of contents, and a flash region.
func buildPage(secs []Section) *page.Page {
	pg := page.New()
	root := pg.Root()

	header := pg.NewElement("header", "header")
	root.Append(header)
	header.Append(pg.NewElement("button", controls.IDNavToggle))
	header.Append(pg.NewElement("button", controls.IDThemeToggle))
	header.Append(pg.NewElement("button", controls.IDPanelToggle))
	header.Append(pg.NewElement("button", controls.IDUserToggle))
	header.Append(pg.NewElement("div", controls.IDUserDropdown))

	nav := pg.NewElement("nav", controls.IDNav)
	root.Append(nav)
	for _, id := range []string{"nav-home", "nav-history", "nav-about"} {
		nav.Append(pg.NewElement("a", id))
	}
	root.Append(pg.NewElement("div", controls.IDNavOverlay))

	panel := pg.NewElement("aside", controls.IDPanel)
	root.Append(panel)
	panel.Append(pg.NewElement("input", controls.IDHighContrast))
	panel.Append(pg.NewElement("input", controls.IDLargeText))
	panel.Append(pg.NewElement("input", controls.IDReduceMotion))
	panel.Append(pg.NewElement("button", controls.IDReadAloud))
	panel.Append(pg.NewElement("button", controls.IDPanelClose))

	content := pg.NewElement("main", controls.IDContent)
	root.Append(content)
	toc := pg.NewElement("nav", controls.IDToc)
	// Section element ids get a "sec-" prefix; a plain slug like
	// "read-aloud" would shadow the control hooks.
	for _, s := range secs {
		sec := pg.NewElement("section", "sec-"+s.ID)
		text := s.Title
		if text != "" && s.Body != "" {
			text += ". "
		}
		sec.SetText(text + s.Body)
		sec.SetOffset(s.Offset)
		content.Append(sec)

		link := pg.NewElement("a", "toc-"+s.ID)
		link.SetText(s.Title)
		link.SetAttr("data-section", "sec-"+s.ID)
		toc.Append(link)
	}
	root.Append(toc)
	root.Append(pg.NewElement("div", flashRegionID))
	return pg
}

// loadSections reads and parses the document at path. Any failure falls
// back to the built-in page so the shell always has something to show.
func loadSections(path string, l *slog.Logger) ([]Section, string) {
	if path == "" {
		return DefaultSections(), ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		l.Warn("cannot read document, showing the built-in page", slog.String("path", path), slog.Any("err", err))
		return DefaultSections(), ""
	}
	secs := ParseSections(string(data))
	if len(secs) == 0 {
		l.Warn("document is empty, showing the built-in page", slog.String("path", path))
		return DefaultSections(), ""
	}
	if secs[0].Title == "" {
		secs[0].Title = filepath.Base(path)
	}
	l.Info("document loaded", slog.String("path", path), slog.Int("sections", len(secs)))
	return secs, path
}

// buildSpeechEngine assembles the narration engine from the config: the
// local TTS command when available, otherwise the hosted backend behind
// the quota keeper. Only hosted narration is metered.
func buildSpeechEngine(cfg config.AppConfig, token string, store prefs.Store) (speech.Engine, *quota.Keeper, error) {
	newCommand := func() (speech.Engine, error) {
		bin := cfg.Speech.Command
		if bin == "" {
			b, err := speech.DetectCommand()
			if err != nil {
				return nil, err
			}
			bin = b
		}
		eng, err := speech.NewCommandEngine(bin)
		if err != nil {
			return nil, err
		}
		return eng, nil
	}
	newRemote := func() (speech.Engine, *quota.Keeper, error) {
		player := cfg.Speech.Player
		if player == "" {
			p, err := speech.DetectPlayer()
			if err != nil {
				return nil, nil, err
			}
			player = p
		}
		eng, err := speech.NewRemoteEngine(cfg.Backend.BaseURL, cfg.Speech.RemotePath, token, player, cfg.Backend.Timeout(), cfg.Backend.TLSInsecure)
		if err != nil {
			return nil, nil, err
		}
		keeper := quota.New(quota.Config{DailyLimit: cfg.Quota.DailyLimit, Cooldown: cfg.Quota.Cooldown()}, store)
		return speech.NewMetered(eng, keeper), keeper, nil
	}

	switch cfg.Speech.Engine {
	case "command":
		eng, err := newCommand()
		if err != nil {
			return nil, nil, err
		}
		return eng, nil, nil
	case "remote":
		return newRemote()
	default:
		if eng, err := newCommand(); err == nil {
			return eng, nil, nil
		}
		return newRemote()
	}
}

// stateDump summarizes the controller state for crash reports. Nil-safe
// since the crash handler may run before the controllers exist.
func stateDump(ctl *controls.Controller) string {
	if ctl == nil {
		return ""
	}
	return fmt.Sprintf("theme=%s\npanel=%v\nnav=%v\nuser=%v\nreading=%v\nsection=%s",
		ctl.Theme.Mode(), ctl.Panel.IsOpen(), ctl.Nav.NavOpen(), ctl.User.IsOpen(),
		ctl.ReadAloud.Reading(), ctl.Toc.Active())
}

func elementText(pg *page.Page, id string) string {
	if el := pg.ByID(id); el != nil {
		return el.Text()
	}
	return ""
}

func checkedAttr(pg *page.Page, id string) bool {
	if el := pg.ByID(id); el != nil {
		return el.Attr("checked") == "true"
	}
	return false
}

func setShown(obj fyne.CanvasObject, shown bool) {
	if shown {
		obj.Show()
	} else {
		obj.Hide()
	}
}

func engineName(e speech.Engine) string {
	if e == nil {
		return "none"
	}
	return e.Name()
}
