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
	"soulsight/internal/page"
)

const (
	glyphBurger = "☰"
	glyphCross  = "✕"

	classVisible = "visible"
)

// Nav controls the mobile navigation drawer and any number of dropdown
// menus. The drawer closes on its toggle, the overlay, a nav link or
// Escape; it ignores other outside clicks and never takes part in the
// exclusive group. Dropdowns close each other, close on outside clicks
// and Escape, and share the exclusive group with the accessibility panel.
type Nav struct {
	pg      *page.Page
	toggle  *page.Element
	nav     *page.Element
	overlay *page.Element
	group   *exclusiveGroup
	l       *slog.Logger

	mu        sync.Mutex
	open      bool
	dropdowns []*Dropdown
}

// Dropdown is one registered dropdown menu: a toggle button and the body
// it reveals. Openness lives here; aria-expanded on the toggle and the
// "open" class on the body are renderings of it.
type Dropdown struct {
	nav    *Nav
	name   string
	toggle *page.Element
	body   *page.Element
	open   bool
}

// NewNav binds the drawer if the page renders toggle and drawer elements;
// without them only dropdowns work. Document-level listeners are installed
// either way so dropdowns registered later dismiss correctly.
func NewNav(pg *page.Page, group *exclusiveGroup) *Nav {
	n := &Nav{
		pg:    pg,
		group: group,
		l:     log.WithComponent("nav"),
	}
	group.register("nav-dropdowns", n.closeDropdowns)

	n.toggle = pg.ByID(IDNavToggle)
	n.nav = pg.ByID(IDNav)
	if n.toggle != nil && n.nav != nil {
		n.overlay = pg.ByID(IDNavOverlay)
		n.renderNav(false)
		n.toggle.On(page.Click, func(page.Event) { n.ToggleNav() })
		if n.overlay != nil {
			n.overlay.On(page.Click, func(page.Event) { n.CloseNav() })
		}
	}

	pg.On(page.Click, func(ev page.Event) { n.onDocumentClick(ev) })
	pg.On(page.Keydown, func(ev page.Event) {
		if ev.Key != "Escape" {
			return
		}
		n.CloseNav()
		n.closeDropdowns()
	})
	return n
}

// AddDropdown registers a dropdown by its toggle and body ids. Missing
// elements yield an inert dropdown so callers can wire optional menus
// unconditionally.
func (n *Nav) AddDropdown(name, toggleID, bodyID string) *Dropdown {
	d := &Dropdown{
		nav:    n,
		name:   name,
		toggle: n.pg.ByID(toggleID),
		body:   n.pg.ByID(bodyID),
	}
	if d.toggle == nil || d.body == nil {
		return d
	}
	d.toggle.SetAttr("aria-expanded", "false")
	d.toggle.On(page.Click, func(page.Event) { d.Toggle() })

	n.mu.Lock()
	n.dropdowns = append(n.dropdowns, d)
	n.mu.Unlock()
	return d
}

// ToggleNav flips the drawer. Opening it leaves dropdowns and the
// accessibility panel alone.
func (n *Nav) ToggleNav() {
	n.mu.Lock()
	if n.toggle == nil || n.nav == nil {
		n.mu.Unlock()
		return
	}
	n.open = !n.open
	open := n.open
	n.mu.Unlock()

	n.renderNav(open)
	n.l.Debug("nav toggled", slog.Bool("open", open))
}

// CloseNav closes the drawer if it is open.
func (n *Nav) CloseNav() {
	n.mu.Lock()
	if !n.open {
		n.mu.Unlock()
		return
	}
	n.open = false
	n.mu.Unlock()

	n.renderNav(false)
}

// NavOpen reports whether the drawer is open.
func (n *Nav) NavOpen() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.open
}

// renderNav applies every rendering of the drawer state in one place so
// aria-expanded, the glyph, the drawer class and the overlay can never
// disagree.
func (n *Nav) renderNav(open bool) {
	if open {
		n.toggle.SetAttr("aria-expanded", "true")
		n.toggle.SetText(glyphCross)
		n.nav.AddClass(classOpen)
		if n.overlay != nil {
			n.overlay.AddClass(classVisible)
		}
		return
	}
	n.toggle.SetAttr("aria-expanded", "false")
	n.toggle.SetText(glyphBurger)
	n.nav.RemoveClass(classOpen)
	if n.overlay != nil {
		n.overlay.RemoveClass(classVisible)
	}
}

// onDocumentClick dismisses surfaces the click did not land on: an open
// drawer when a nav link inside it is followed, and any open dropdown the
// click landed outside of.
func (n *Nav) onDocumentClick(ev page.Event) {
	if ev.Target == nil {
		return
	}
	if n.nav != nil && n.NavOpen() && n.nav.Contains(ev.Target) && isNavLink(ev.Target) {
		n.CloseNav()
	}

	n.mu.Lock()
	dropdowns := make([]*Dropdown, len(n.dropdowns))
	copy(dropdowns, n.dropdowns)
	n.mu.Unlock()
	for _, d := range dropdowns {
		if d.IsOpen() && !d.toggle.Contains(ev.Target) && !d.body.Contains(ev.Target) {
			d.Close()
		}
	}
}

func isNavLink(el *page.Element) bool {
	return el.Tag() == "a" || el.Tag() == "button"
}

// closeDropdowns closes every open dropdown.
func (n *Nav) closeDropdowns() {
	n.mu.Lock()
	dropdowns := make([]*Dropdown, len(n.dropdowns))
	copy(dropdowns, n.dropdowns)
	n.mu.Unlock()
	for _, d := range dropdowns {
		d.Close()
	}
}

// Toggle opens the dropdown when closed and closes it when open. Opening
// closes sibling dropdowns and, through the exclusive group, the
// accessibility panel.
func (d *Dropdown) Toggle() {
	if d.IsOpen() {
		d.Close()
	} else {
		d.Open()
	}
}

// Open shows the dropdown body and marks the toggle expanded.
func (d *Dropdown) Open() {
	n := d.nav
	n.mu.Lock()
	if d.toggle == nil || d.open {
		n.mu.Unlock()
		return
	}
	var siblings []*Dropdown
	for _, other := range n.dropdowns {
		if other != d && other.open {
			siblings = append(siblings, other)
		}
	}
	d.open = true
	n.mu.Unlock()

	for _, other := range siblings {
		other.Close()
	}
	n.group.acquire("nav-dropdowns")
	d.toggle.SetAttr("aria-expanded", "true")
	d.body.AddClass(classOpen)
	n.l.Debug("dropdown opened", slog.String("name", d.name))
}

// Close hides the dropdown. Closing a closed dropdown is a no-op.
func (d *Dropdown) Close() {
	n := d.nav
	n.mu.Lock()
	if !d.open {
		n.mu.Unlock()
		return
	}
	d.open = false
	n.mu.Unlock()

	d.toggle.SetAttr("aria-expanded", "false")
	d.body.RemoveClass(classOpen)
}

// IsOpen reports whether the dropdown body is shown.
func (d *Dropdown) IsOpen() bool {
	d.nav.mu.Lock()
	defer d.nav.mu.Unlock()
	return d.open
}
