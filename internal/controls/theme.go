/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package controls

import (
	"log/slog"
	"sync"

	"soulsight/internal/log"
	"soulsight/internal/notify"
	"soulsight/internal/page"
	"soulsight/internal/prefs"
)

const (
	themeLight = "light"
	themeDark  = "dark"

	glyphMoon = "🌙"
	glyphSun  = "☀️"
)

// Theme switches the page between light and dark mode. The mode is kept in
// the controller, rendered as the data-theme attribute on the page root and
// persisted under the "theme" preference key. The toggle button shows the
// mode a click would switch to.
type Theme struct {
	store prefs.Store
	notif notify.Notifier
	root  *page.Element
	btn   *page.Element
	l     *slog.Logger

	mu   sync.Mutex
	dark bool
}

// NewTheme restores the persisted mode, falling back to def for first
// runs, and binds the toggle button if the page has one. The data-theme
// attribute is always rendered, toggle or not, so styles resolve on pages
// without the button.
func NewTheme(pg *page.Page, store prefs.Store, notif notify.Notifier, def string) *Theme {
	t := &Theme{
		store: store,
		notif: notif,
		root:  pg.Root(),
		l:     log.WithComponent("theme"),
	}
	if def != themeDark {
		def = themeLight
	}
	t.dark = store.Get(prefTheme, def) == themeDark
	t.btn = pg.ByID(IDThemeToggle)
	t.render(t.dark)
	if t.btn != nil {
		t.btn.On(page.Click, func(page.Event) { t.Toggle() })
	}
	return t
}

// Toggle flips the mode, persists it and announces the switch. Two toggles
// in a row restore the original mode exactly.
func (t *Theme) Toggle() {
	t.mu.Lock()
	t.dark = !t.dark
	dark := t.dark
	t.mu.Unlock()

	t.render(dark)
	mode := themeLight
	if dark {
		mode = themeDark
	}
	t.store.Set(prefTheme, mode)
	t.l.Info("theme switched", slog.String("mode", mode))
	t.notif.Show("Switched to "+mode+" mode", notify.Success)
}

// Mode reports the current mode, "light" or "dark".
func (t *Theme) Mode() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dark {
		return themeDark
	}
	return themeLight
}

func (t *Theme) render(dark bool) {
	mode := themeLight
	glyph := glyphMoon
	if dark {
		mode = themeDark
		glyph = glyphSun
	}
	t.root.SetAttr("data-theme", mode)
	if t.btn != nil {
		t.btn.SetText(glyph)
	}
}
