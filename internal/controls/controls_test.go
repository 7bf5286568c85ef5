/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package controls

import (
	"context"
	"sync"
	"testing"
	"time"

	"soulsight/internal/notify"
	"soulsight/internal/page"
	"soulsight/internal/prefs"
	"soulsight/internal/speech"
)

// buildPage constructs the fixture the controller tests share: header
// controls, drawer with overlay, accessibility panel with switches and the
// read-aloud button, a content region, table of contents and tooltip.
func buildPage() *page.Page {
	pg := page.New()
	root := pg.Root()

	header := pg.NewElement("header", "header")
	root.Append(header)
	header.Append(pg.NewElement("button", IDThemeToggle))
	header.Append(pg.NewElement("button", IDNavToggle))
	header.Append(pg.NewElement("button", IDUserToggle))
	dropdown := pg.NewElement("div", IDUserDropdown)
	header.Append(dropdown)
	item := pg.NewElement("a", "user-menu-history")
	item.SetText("History")
	dropdown.Append(item)
	header.Append(pg.NewElement("button", IDPanelToggle))

	nav := pg.NewElement("nav", IDNav)
	root.Append(nav)
	link := pg.NewElement("a", "nav-home")
	link.SetText("Home")
	nav.Append(link)
	plain := pg.NewElement("div", "nav-plain")
	nav.Append(plain)
	root.Append(pg.NewElement("div", IDNavOverlay))

	panel := pg.NewElement("aside", IDPanel)
	root.Append(panel)
	panel.Append(pg.NewElement("input", IDHighContrast))
	panel.Append(pg.NewElement("input", IDLargeText))
	panel.Append(pg.NewElement("input", IDReduceMotion))
	panel.Append(pg.NewElement("button", IDReadAloud))
	panel.Append(pg.NewElement("button", IDPanelClose))

	content := pg.NewElement("main", IDContent)
	root.Append(content)
	intro := pg.NewElement("section", "intro")
	intro.SetText("SoulSight describes images for you.")
	intro.SetOffset(0)
	content.Append(intro)
	usage := pg.NewElement("section", "usage")
	usage.SetText("Upload a picture to hear what it shows.")
	usage.SetOffset(400)
	content.Append(usage)
	faq := pg.NewElement("section", "faq")
	faq.SetText("Answers to common questions.")
	faq.SetOffset(900)
	content.Append(faq)

	toc := pg.NewElement("nav", IDToc)
	root.Append(toc)
	for _, id := range []string{"intro", "usage", "faq"} {
		l := pg.NewElement("a", "toc-"+id)
		l.SetAttr("data-section", id)
		toc.Append(l)
	}

	root.Append(pg.NewElement("div", IDTooltip))
	outside := pg.NewElement("div", "outside")
	root.Append(outside)
	return pg
}

type shown struct {
	msg string
	sev notify.Severity
}

// recorder captures notifications for assertions.
type recorder struct {
	mu   sync.Mutex
	msgs []shown
}

func (r *recorder) Show(msg string, sev notify.Severity) {
	r.mu.Lock()
	r.msgs = append(r.msgs, shown{msg: msg, sev: sev})
	r.mu.Unlock()
}

func (r *recorder) all() []shown {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shown(nil), r.msgs...)
}

func (r *recorder) last() (shown, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return shown{}, false
	}
	return r.msgs[len(r.msgs)-1], true
}

// fakeEngine hands out sessions the test ends by hand and counts how often
// the stop hook ran.
type fakeEngine struct {
	mu       sync.Mutex
	calls    int
	stops    int
	lastText string
	session  *speech.Session
	startErr error
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Speak(_ context.Context, text string, _ speech.Options) (*speech.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastText = text
	if f.startErr != nil {
		return nil, f.startErr
	}
	s := speech.NewSession(func() {
		f.mu.Lock()
		f.stops++
		f.mu.Unlock()
	})
	f.session = s
	return s, nil
}

func (f *fakeEngine) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeEngine) lastSpoken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastText
}

func (f *fakeEngine) current() *speech.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

// waitFor polls until cond holds or the deadline passes. Session teardown
// reverts the button on a background goroutine, so tests wait instead of
// asserting immediately.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not reached: %s", msg)
}

func TestInitFromStoreRestoresPersistedState(t *testing.T) {
	store := prefs.NewMem()
	store.Set("theme", "dark")
	prefs.SetBool(store, "largeText", true)
	prefs.SetBool(store, "highContrast", false)

	pg := buildPage()
	c := New(pg, Config{Store: store})

	if got := pg.Root().Attr("data-theme"); got != "dark" {
		t.Fatalf("data-theme = %q, want %q", got, "dark")
	}
	if !pg.Root().HasClass("large-text") {
		t.Fatalf("large-text marker missing after init")
	}
	if pg.Root().HasClass("high-contrast") {
		t.Fatalf("high-contrast marker present, want absent")
	}
	if got := pg.ByID(IDLargeText).Attr("checked"); got != "true" {
		t.Fatalf("large-text checked = %q, want %q", got, "true")
	}
	if got := pg.ByID(IDHighContrast).Attr("checked"); got != "false" {
		t.Fatalf("high-contrast checked = %q, want %q", got, "false")
	}
	if c.Theme.Mode() != "dark" {
		t.Fatalf("Mode() = %q, want %q", c.Theme.Mode(), "dark")
	}
}

func TestPanelAndDropdownExclusive(t *testing.T) {
	pg := buildPage()
	c := New(pg, Config{Store: prefs.NewMem()})

	pg.Click(pg.ByID(IDUserToggle))
	if !c.User.IsOpen() {
		t.Fatalf("dropdown not open after toggle click")
	}

	c.Panel.Open()
	if c.User.IsOpen() {
		t.Fatalf("dropdown still open after panel opened")
	}
	if !c.Panel.IsOpen() {
		t.Fatalf("panel not open")
	}

	c.User.Open()
	if c.Panel.IsOpen() {
		t.Fatalf("panel still open after dropdown opened")
	}
	if !c.User.IsOpen() {
		t.Fatalf("dropdown not open")
	}
}

func TestNavIndependentOfPanelAndDropdown(t *testing.T) {
	pg := buildPage()
	c := New(pg, Config{Store: prefs.NewMem()})

	pg.Click(pg.ByID(IDNavToggle))
	if !c.Nav.NavOpen() {
		t.Fatalf("drawer not open")
	}

	c.Panel.Open()
	if !c.Nav.NavOpen() {
		t.Fatalf("drawer closed by panel open, want still open")
	}

	c.User.Open()
	if !c.Nav.NavOpen() {
		t.Fatalf("drawer closed by dropdown open, want still open")
	}
	if c.Panel.IsOpen() {
		t.Fatalf("panel open alongside dropdown")
	}
	if !c.User.IsOpen() {
		t.Fatalf("dropdown not open alongside drawer")
	}
}

func TestControllersInertWithoutHooks(t *testing.T) {
	pg := page.New()
	c := New(pg, Config{Store: prefs.NewMem()})

	c.Theme.Toggle()
	c.Panel.Open()
	c.Panel.Close()
	c.ReadAloud.Toggle()
	c.Nav.ToggleNav()
	c.Nav.CloseNav()
	c.User.Toggle()
	c.Tooltip.Hide()
	pg.Keydown("Escape")
	pg.CloseRequested()

	if c.Panel.IsOpen() || c.Nav.NavOpen() || c.User.IsOpen() {
		t.Fatalf("inert controllers report open state")
	}
	if got := pg.Root().Attr("data-theme"); got != "dark" {
		t.Fatalf("data-theme = %q, want %q", got, "dark")
	}
}
