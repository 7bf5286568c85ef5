/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package controls

import (
	"sync"

	"soulsight/internal/page"
)

// Tooltip fills one shared tooltip element from the data-tooltip attribute
// of whatever carrier the pointer or focus lands on. Pointer and keyboard
// focus behave the same, Escape always hides. Leaving one carrier for
// another re-fills the tooltip rather than flickering it hidden.
type Tooltip struct {
	pg  *page.Page
	tip *page.Element

	mu      sync.Mutex
	carrier *page.Element
}

// NewTooltip binds the shared tooltip element if the page renders one.
func NewTooltip(pg *page.Page) *Tooltip {
	t := &Tooltip{pg: pg}
	t.tip = pg.ByID(IDTooltip)
	if t.tip == nil {
		return t
	}
	t.tip.SetHidden(true)

	show := func(ev page.Event) {
		if ev.Target == nil {
			return
		}
		if text := ev.Target.Attr("data-tooltip"); text != "" {
			t.show(ev.Target, text)
		}
	}
	hide := func(ev page.Event) {
		if ev.Target == nil {
			return
		}
		t.hideFor(ev.Target)
	}
	pg.On(page.PointerEnter, show)
	pg.On(page.Focus, show)
	pg.On(page.PointerLeave, hide)
	pg.On(page.Blur, hide)
	pg.On(page.Keydown, func(ev page.Event) {
		if ev.Key == "Escape" {
			t.Hide()
		}
	})
	return t
}

// Visible reports whether the tooltip is currently shown.
func (t *Tooltip) Visible() bool {
	if t.tip == nil {
		return false
	}
	return t.tip.HasClass(classVisible)
}

func (t *Tooltip) show(carrier *page.Element, text string) {
	t.mu.Lock()
	t.carrier = carrier
	t.mu.Unlock()

	t.tip.SetText(text)
	t.tip.SetOffset(carrier.Offset())
	t.tip.SetHidden(false)
	t.tip.AddClass(classVisible)
}

// hideFor hides only when leaving the carrier the tooltip belongs to, so
// moving from one carrier straight onto another keeps it visible.
func (t *Tooltip) hideFor(carrier *page.Element) {
	t.mu.Lock()
	current := t.carrier
	t.mu.Unlock()
	if current != carrier {
		return
	}
	t.Hide()
}

// Hide hides the tooltip unconditionally.
func (t *Tooltip) Hide() {
	if t.tip == nil {
		return
	}
	t.mu.Lock()
	t.carrier = nil
	t.mu.Unlock()

	t.tip.RemoveClass(classVisible)
	t.tip.SetHidden(true)
}
