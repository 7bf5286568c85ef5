/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package controls holds the interaction controllers that give the page its
// behavior: theme switching, the accessibility panel, read-aloud narration,
// navigation surfaces, table-of-contents tracking and tooltips.
//
// Every controller binds to page elements by well-known id. A missing hook
// produces an inert controller whose methods do nothing, so pages carry
// only the features they actually render. Controllers own their state;
// classes and attributes on the page are write-only renderings of it, never
// read back as a source of truth.
package controls

import (
	"sync"

	"soulsight/internal/notify"
	"soulsight/internal/page"
	"soulsight/internal/prefs"
	"soulsight/internal/speech"
)

// Well-known element ids the controllers bind to.
const (
	IDThemeToggle  = "theme-toggle"
	IDPanel        = "accessibility-panel"
	IDPanelToggle  = "accessibility-toggle"
	IDPanelClose   = "accessibility-close"
	IDHighContrast = "toggle-high-contrast"
	IDLargeText    = "toggle-large-text"
	IDReduceMotion = "toggle-reduce-motion"
	IDReadAloud    = "read-aloud"
	IDContent      = "content"
	IDNavToggle    = "mobile-nav-toggle"
	IDNav          = "mobile-nav"
	IDNavOverlay   = "nav-overlay"
	IDUserToggle   = "user-menu-toggle"
	IDUserDropdown = "user-menu-dropdown"
	IDToc          = "toc"
	IDTooltip      = "tooltip"
)

// Preference keys. Booleans are stored as "true"/"false".
const (
	prefTheme        = "theme"
	prefHighContrast = "highContrast"
	prefLargeText    = "largeText"
	prefReduceMotion = "reduceMotion"
)

// exclusiveGroup enforces "at most one open" among the transient surfaces
// that share it (the accessibility panel and the dropdowns). Members
// register a close callback; acquiring the group closes everyone else.
// State lives here, not in CSS classes.
type exclusiveGroup struct {
	mu      sync.Mutex
	closers map[string]func()
}

func newExclusiveGroup() *exclusiveGroup {
	return &exclusiveGroup{closers: make(map[string]func())}
}

func (g *exclusiveGroup) register(name string, closeFn func()) {
	g.mu.Lock()
	g.closers[name] = closeFn
	g.mu.Unlock()
}

// acquire closes every member except the named one. Callers must not hold
// their own state lock, since the callbacks take the members' locks.
func (g *exclusiveGroup) acquire(name string) {
	g.mu.Lock()
	var toClose []func()
	for n, c := range g.closers {
		if n != name {
			toClose = append(toClose, c)
		}
	}
	g.mu.Unlock()
	for _, c := range toClose {
		c()
	}
}

// Config carries the collaborators for New. Nil fields degrade: a missing
// store becomes in-memory, a missing notifier logs, a missing engine
// disables read-aloud.
type Config struct {
	Store    prefs.Store
	Notifier notify.Notifier
	Engine   speech.Engine
	Speech   speech.Options

	// DefaultTheme is the startup mode used when the store holds no theme
	// preference yet; anything but "dark" means light.
	DefaultTheme string
}

// Controller bundles all interaction controllers wired to one page.
type Controller struct {
	Theme     *Theme
	Panel     *Panel
	ReadAloud *ReadAloud
	Nav       *Nav
	User      *Dropdown
	Toc       *Toc
	Tooltip   *Tooltip
}

// New binds every controller to pg. Initialization order matters only in
// that persisted preferences are applied before any listener can run.
func New(pg *page.Page, cfg Config) *Controller {
	if cfg.Store == nil {
		cfg.Store = prefs.NewMem()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.NewLogger()
	}
	group := newExclusiveGroup()

	c := &Controller{
		Theme:     NewTheme(pg, cfg.Store, cfg.Notifier, cfg.DefaultTheme),
		Panel:     NewPanel(pg, cfg.Store, group),
		ReadAloud: NewReadAloud(pg, cfg.Engine, cfg.Speech, cfg.Notifier),
		Nav:       NewNav(pg, group),
		Toc:       NewToc(pg),
		Tooltip:   NewTooltip(pg),
	}
	c.User = c.Nav.AddDropdown("user-menu", IDUserToggle, IDUserDropdown)
	return c
}
