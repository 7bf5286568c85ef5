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
	"soulsight/internal/prefs"
)

const classOpen = "open"

// feature is one accessibility switch: a checkbox, a preference key and the
// marker class it drives on the page root.
type feature struct {
	el    *page.Element
	key   string
	class string
}

// Panel controls the accessibility panel: an open/closed surface holding
// independent feature switches for high contrast, large text and reduced
// motion. Each switch persists on change and renders as a marker class on
// the page root. Openness is coordinated with the dropdowns through the
// exclusive group so at most one such surface is visible.
type Panel struct {
	store    prefs.Store
	root     *page.Element
	panel    *page.Element
	toggle   *page.Element
	group    *exclusiveGroup
	features []feature
	l        *slog.Logger

	mu   sync.Mutex
	open bool
}

// NewPanel binds the panel if the page renders one. Persisted feature
// states are re-applied before any listener can fire, so a reload shows
// the same markers and checkbox states as before. Without the panel and
// toggle elements the controller is inert.
func NewPanel(pg *page.Page, store prefs.Store, group *exclusiveGroup) *Panel {
	p := &Panel{
		store: store,
		root:  pg.Root(),
		group: group,
		l:     log.WithComponent("accessibility"),
	}
	p.panel = pg.ByID(IDPanel)
	p.toggle = pg.ByID(IDPanelToggle)
	p.bindFeatures(pg)
	if p.panel == nil || p.toggle == nil {
		return p
	}

	group.register("panel", p.Close)
	p.toggle.On(page.Click, func(page.Event) {
		if p.IsOpen() {
			p.Close()
		} else {
			p.Open()
		}
	})
	if closeBtn := pg.ByID(IDPanelClose); closeBtn != nil {
		closeBtn.On(page.Click, func(page.Event) { p.Close() })
	}
	pg.On(page.Click, func(ev page.Event) {
		if ev.Target == nil || !p.IsOpen() {
			return
		}
		if p.panel.Contains(ev.Target) || p.toggle.Contains(ev.Target) {
			return
		}
		p.Close()
	})
	pg.On(page.Keydown, func(ev page.Event) {
		if ev.Key == "Escape" && p.IsOpen() {
			p.Close()
		}
	})
	return p
}

// bindFeatures wires whichever feature switches the page renders. Each one
// works on its own; a page may carry any subset.
func (p *Panel) bindFeatures(pg *page.Page) {
	for _, f := range []struct {
		id, key, class string
	}{
		{IDHighContrast, prefHighContrast, "high-contrast"},
		{IDLargeText, prefLargeText, "large-text"},
		{IDReduceMotion, prefReduceMotion, "reduce-motion"},
	} {
		el := pg.ByID(f.id)
		if el == nil {
			continue
		}
		ft := feature{el: el, key: f.key, class: f.class}
		p.features = append(p.features, ft)
		p.renderFeature(ft, prefs.GetBool(p.store, ft.key, false))
		el.On(page.Change, func(ev page.Event) {
			p.setFeature(ft, ev.Checked)
		})
	}
}

func (p *Panel) setFeature(ft feature, on bool) {
	p.renderFeature(ft, on)
	prefs.SetBool(p.store, ft.key, on)
	p.l.Info("feature switched", slog.String("key", ft.key), slog.Bool("on", on))
}

func (p *Panel) renderFeature(ft feature, on bool) {
	if on {
		p.root.AddClass(ft.class)
		ft.el.SetAttr("checked", "true")
	} else {
		p.root.RemoveClass(ft.class)
		ft.el.SetAttr("checked", "false")
	}
}

// Open shows the panel and closes any other exclusive surface.
func (p *Panel) Open() {
	p.mu.Lock()
	if p.open || p.panel == nil {
		p.mu.Unlock()
		return
	}
	p.open = true
	p.mu.Unlock()

	p.group.acquire("panel")
	p.panel.AddClass(classOpen)
}

// Close hides the panel. Closing a closed panel is a no-op.
func (p *Panel) Close() {
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return
	}
	p.open = false
	p.mu.Unlock()

	p.panel.RemoveClass(classOpen)
}

// IsOpen reports whether the panel is currently shown.
func (p *Panel) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}
