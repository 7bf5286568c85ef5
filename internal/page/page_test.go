/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package page

import (
	"sync"
	"testing"
)

func TestDispatchOrderTargetThenDocument(t *testing.T) {
	p := New()
	btn := p.NewElement("button", "btn")
	p.Root().Append(btn)

	var got []string
	btn.On(Click, func(Event) { got = append(got, "target-1") })
	btn.On(Click, func(Event) { got = append(got, "target-2") })
	p.On(Click, func(Event) { got = append(got, "doc-1") })
	p.On(Click, func(Event) { got = append(got, "doc-2") })

	p.Click(btn)

	want := []string{"target-1", "target-2", "doc-1", "doc-2"}
	if len(got) != len(want) {
		t.Fatalf("listener calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("listener order = %v, want %v", got, want)
		}
	}
}

func TestByIDAndRemoveUnregisters(t *testing.T) {
	p := New()
	panel := p.NewElement("div", "panel")
	inner := p.NewElement("span", "panel-close")
	panel.Append(inner)
	p.Root().Append(panel)

	if p.ByID("panel") != panel || p.ByID("panel-close") != inner {
		t.Fatalf("ByID lookup failed after append")
	}
	if p.ByID("missing") != nil {
		t.Fatalf("ByID for unknown id should be nil")
	}

	panel.Remove()
	if p.ByID("panel") != nil || p.ByID("panel-close") != nil {
		t.Fatalf("Remove should unregister element and descendants")
	}
	if got := len(p.Root().Children()); got != 0 {
		t.Fatalf("root children after remove = %d, want 0", got)
	}
}

func TestContains(t *testing.T) {
	p := New()
	panel := p.NewElement("div", "panel")
	inner := p.NewElement("span", "")
	outside := p.NewElement("div", "elsewhere")
	panel.Append(inner)
	p.Root().Append(panel)
	p.Root().Append(outside)

	if !panel.Contains(panel) {
		t.Fatalf("element should contain itself")
	}
	if !panel.Contains(inner) {
		t.Fatalf("element should contain its descendant")
	}
	if panel.Contains(outside) {
		t.Fatalf("element must not contain a sibling")
	}
}

func TestVisibleTextSkipsHidden(t *testing.T) {
	p := New()
	main := p.NewElement("main", "content")
	a := p.NewElement("p", "")
	a.SetText("The image shows")
	b := p.NewElement("p", "")
	b.SetText("a mountain lake.")
	aside := p.NewElement("aside", "")
	aside.SetText("internal note")
	aside.SetHidden(true)
	main.Append(a)
	main.Append(aside)
	main.Append(b)
	p.Root().Append(main)

	if got, want := main.VisibleText(), "The image shows a mountain lake."; got != want {
		t.Fatalf("VisibleText = %q, want %q", got, want)
	}
}

func TestClassOps(t *testing.T) {
	p := New()
	e := p.NewElement("div", "x")
	e.AddClass("open")
	e.AddClass("open") // no duplicate
	e.AddClass("reading")
	if cs := e.Classes(); len(cs) != 2 || cs[0] != "open" || cs[1] != "reading" {
		t.Fatalf("Classes = %v", cs)
	}
	e.RemoveClass("open")
	if e.HasClass("open") || !e.HasClass("reading") {
		t.Fatalf("class removal broke state: %v", e.Classes())
	}
	e.RemoveClass("never-there") // no-op
}

func TestScrollToDispatchesAndRecords(t *testing.T) {
	p := New()
	var seen int
	p.On(Scroll, func(Event) { seen++ })
	p.ScrollTo(480)
	if p.ScrollY() != 480 {
		t.Fatalf("ScrollY = %d, want 480", p.ScrollY())
	}
	if seen != 1 {
		t.Fatalf("scroll listeners called %d times, want 1", seen)
	}
}

// TestReentrantDispatch guards against deadlock when a listener dispatches
// a further event, as the table-of-contents controller does when a link
// click triggers a scroll.
func TestReentrantDispatch(t *testing.T) {
	p := New()
	link := p.NewElement("a", "toc-1")
	p.Root().Append(link)
	var scrolled bool
	p.On(Scroll, func(Event) { scrolled = true })
	link.On(Click, func(Event) { p.ScrollTo(100) })
	p.Click(link)
	if !scrolled {
		t.Fatalf("nested dispatch did not reach scroll listener")
	}
}

func TestConcurrentMutation(t *testing.T) {
	p := New()
	label := p.NewElement("button", "read-aloud")
	p.Root().Append(label)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if n%2 == 0 {
					label.SetText("Stop Reading")
					label.AddClass("reading")
				} else {
					_ = label.Text()
					_ = label.HasClass("reading")
				}
			}
		}(i)
	}
	wg.Wait()
}
