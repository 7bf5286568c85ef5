/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package controls

import (
	"testing"

	"soulsight/internal/page"
)

func newNav(pg *page.Page) (*Nav, *Dropdown) {
	n := NewNav(pg, newExclusiveGroup())
	return n, n.AddDropdown("user-menu", IDUserToggle, IDUserDropdown)
}

// assertNavRendering checks that every rendering of the drawer state
// agrees with the controller.
func assertNavRendering(t *testing.T, pg *page.Page, open bool) {
	t.Helper()
	toggle := pg.ByID(IDNavToggle)
	wantAria, wantGlyph := "false", "☰"
	if open {
		wantAria, wantGlyph = "true", "✕"
	}
	if got := toggle.Attr("aria-expanded"); got != wantAria {
		t.Fatalf("aria-expanded = %q, want %q", got, wantAria)
	}
	if got := toggle.Text(); got != wantGlyph {
		t.Fatalf("toggle glyph = %q, want %q", got, wantGlyph)
	}
	if got := pg.ByID(IDNav).HasClass("open"); got != open {
		t.Fatalf("drawer open class = %v, want %v", got, open)
	}
	if got := pg.ByID(IDNavOverlay).HasClass("visible"); got != open {
		t.Fatalf("overlay visible class = %v, want %v", got, open)
	}
}

func TestNavToggleKeepsAriaAndGlyphInLockstep(t *testing.T) {
	pg := buildPage()
	n, _ := newNav(pg)

	assertNavRendering(t, pg, false)
	for i := 0; i < 3; i++ {
		pg.Click(pg.ByID(IDNavToggle))
		assertNavRendering(t, pg, true)
		if !n.NavOpen() {
			t.Fatalf("NavOpen() = false after opening toggle")
		}
		pg.Click(pg.ByID(IDNavToggle))
		assertNavRendering(t, pg, false)
		if n.NavOpen() {
			t.Fatalf("NavOpen() = true after closing toggle")
		}
	}
}

func TestNavOverlayClickCloses(t *testing.T) {
	pg := buildPage()
	n, _ := newNav(pg)

	pg.Click(pg.ByID(IDNavToggle))
	pg.Click(pg.ByID(IDNavOverlay))
	if n.NavOpen() {
		t.Fatalf("drawer still open after overlay click")
	}
	assertNavRendering(t, pg, false)
}

func TestNavLinkClickCloses(t *testing.T) {
	pg := buildPage()
	n, _ := newNav(pg)

	pg.Click(pg.ByID(IDNavToggle))
	pg.Click(pg.ByID("nav-home"))
	if n.NavOpen() {
		t.Fatalf("drawer still open after nav link click")
	}
}

func TestNavIgnoresPlainClicks(t *testing.T) {
	pg := buildPage()
	n, _ := newNav(pg)

	pg.Click(pg.ByID(IDNavToggle))
	pg.Click(pg.ByID("nav-plain"))
	if !n.NavOpen() {
		t.Fatalf("drawer closed by non-link click inside it")
	}
	pg.Click(pg.ByID("outside"))
	if !n.NavOpen() {
		t.Fatalf("drawer closed by outside click, want open")
	}
}

func TestNavEscapeCloses(t *testing.T) {
	pg := buildPage()
	n, _ := newNav(pg)

	pg.Click(pg.ByID(IDNavToggle))
	pg.Keydown("Escape")
	if n.NavOpen() {
		t.Fatalf("drawer still open after Escape")
	}
	assertNavRendering(t, pg, false)
}

func TestDropdownToggleOutsideClickAndEscape(t *testing.T) {
	pg := buildPage()
	_, user := newNav(pg)
	toggle := pg.ByID(IDUserToggle)
	body := pg.ByID(IDUserDropdown)

	pg.Click(toggle)
	if !user.IsOpen() {
		t.Fatalf("dropdown not open after toggle click")
	}
	if got := toggle.Attr("aria-expanded"); got != "true" {
		t.Fatalf("aria-expanded = %q, want %q", got, "true")
	}
	if !body.HasClass("open") {
		t.Fatalf("dropdown body missing open class")
	}

	pg.Click(toggle)
	if user.IsOpen() {
		t.Fatalf("dropdown still open after second toggle click")
	}
	if got := toggle.Attr("aria-expanded"); got != "false" {
		t.Fatalf("aria-expanded = %q, want %q", got, "false")
	}

	pg.Click(toggle)
	pg.Click(pg.ByID("outside"))
	if user.IsOpen() {
		t.Fatalf("dropdown still open after outside click")
	}

	pg.Click(toggle)
	pg.Keydown("Escape")
	if user.IsOpen() {
		t.Fatalf("dropdown still open after Escape")
	}
}

func TestDropdownStaysOpenOnInsideClick(t *testing.T) {
	pg := buildPage()
	_, user := newNav(pg)

	pg.Click(pg.ByID(IDUserToggle))
	pg.Click(pg.ByID("user-menu-history"))
	if !user.IsOpen() {
		t.Fatalf("dropdown closed by click inside its body")
	}
}

func TestDropdownsMutuallyExclusive(t *testing.T) {
	pg := buildPage()
	header := pg.ByID("header")
	header.Append(pg.NewElement("button", "lang-toggle"))
	header.Append(pg.NewElement("div", "lang-dropdown"))

	n, user := newNav(pg)
	lang := n.AddDropdown("language", "lang-toggle", "lang-dropdown")

	pg.Click(pg.ByID(IDUserToggle))
	pg.Click(pg.ByID("lang-toggle"))

	if user.IsOpen() {
		t.Fatalf("first dropdown still open after second opened")
	}
	if !lang.IsOpen() {
		t.Fatalf("second dropdown not open")
	}
}

func TestNavToggleClickClosesOpenDropdown(t *testing.T) {
	pg := buildPage()
	n, user := newNav(pg)

	pg.Click(pg.ByID(IDUserToggle))
	pg.Click(pg.ByID(IDNavToggle))

	if user.IsOpen() {
		t.Fatalf("dropdown still open after click landed outside it")
	}
	if !n.NavOpen() {
		t.Fatalf("drawer did not open")
	}
}

func TestDropdownMissingElementsIsInert(t *testing.T) {
	pg := buildPage()
	n, _ := newNav(pg)

	d := n.AddDropdown("ghost", "no-such-toggle", "no-such-body")
	d.Toggle()
	d.Open()
	d.Close()
	if d.IsOpen() {
		t.Fatalf("inert dropdown reports open")
	}
}
