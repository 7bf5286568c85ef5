/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package page models the rendered document the interaction controllers
// operate on: a tree of elements with identifiers, attributes, state
// classes and text, plus event subscription and dispatch.
//
// Dispatch is synchronous on the calling goroutine: target listeners run
// first, then document-level listeners, each set in registration order.
// Element state is guarded by a single page-wide mutex so completion
// callbacks from background goroutines (speech sessions, flash timers)
// may safely touch elements; listeners themselves always run unlocked,
// so they may freely mutate the page or dispatch further events.
package page

import (
	"strings"
	"sync"
)

// EventType identifies a user interaction or lifecycle event.
type EventType string

const (
	Click        EventType = "click"
	Change       EventType = "change"
	Keydown      EventType = "keydown"
	Scroll       EventType = "scroll"
	PointerEnter EventType = "pointerenter"
	PointerLeave EventType = "pointerleave"
	Focus        EventType = "focus"
	Blur         EventType = "blur"
	Unload       EventType = "unload"
)

// Event is delivered to listeners. Target is nil for page-level events
// such as scroll and unload.
type Event struct {
	Type    EventType
	Target  *Element
	Key     string // set for keydown
	Checked bool   // set for change on a toggle control
	Value   string // set for change on a value control
}

// Handler receives dispatched events.
type Handler func(Event)

// Page is the document root: element registry, viewport offset and
// document-level listeners.
type Page struct {
	mu      sync.RWMutex
	root    *Element
	byID    map[string]*Element
	docSubs map[EventType][]Handler
	scrollY int
}

// New returns a page with an empty root element.
func New() *Page {
	p := &Page{byID: make(map[string]*Element), docSubs: make(map[EventType][]Handler)}
	p.root = &Element{p: p, id: "root", tag: "root", attrs: make(map[string]string)}
	p.byID["root"] = p.root
	return p
}

// Root returns the root element. Document-wide markers (data-theme,
// high-contrast, large-text, reduce-motion) live here.
func (p *Page) Root() *Element { return p.root }

// NewElement creates a detached element and registers its id (when non-empty).
// Attach it with (*Element).Append.
func (p *Page) NewElement(tag, id string) *Element {
	e := &Element{p: p, id: id, tag: tag, attrs: make(map[string]string)}
	if id != "" {
		p.mu.Lock()
		p.byID[id] = e
		p.mu.Unlock()
	}
	return e
}

// ByID returns the element registered under id, or nil. Controllers use a
// nil result to degrade into inert no-ops.
func (p *Page) ByID(id string) *Element {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.byID[id]
}

// On registers a document-level listener. Document listeners see every
// dispatched event after the target's own listeners ran.
func (p *Page) On(t EventType, h Handler) {
	p.mu.Lock()
	p.docSubs[t] = append(p.docSubs[t], h)
	p.mu.Unlock()
}

// Dispatch delivers ev to the target's listeners and then to document
// listeners. Listeners run on the caller's goroutine, unlocked.
func (p *Page) Dispatch(ev Event) {
	var run []Handler
	p.mu.RLock()
	if ev.Target != nil {
		run = append(run, ev.Target.subs[ev.Type]...)
	}
	run = append(run, p.docSubs[ev.Type]...)
	p.mu.RUnlock()
	for _, h := range run {
		h(ev)
	}
}

// Click dispatches a click event targeting el.
func (p *Page) Click(el *Element) { p.Dispatch(Event{Type: Click, Target: el}) }

// Keydown dispatches a document-level key event.
func (p *Page) Keydown(key string) { p.Dispatch(Event{Type: Keydown, Key: key}) }

// ScrollTo records the viewport offset and dispatches a scroll event.
func (p *Page) ScrollTo(y int) {
	p.mu.Lock()
	p.scrollY = y
	p.mu.Unlock()
	p.Dispatch(Event{Type: Scroll})
}

// ScrollY returns the current viewport offset.
func (p *Page) ScrollY() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.scrollY
}

// CloseRequested dispatches the teardown event. Callers fire it when the
// hosting window goes away; listeners release held resources.
func (p *Page) CloseRequested() { p.Dispatch(Event{Type: Unload}) }

// Element is a node in the page tree.
type Element struct {
	p        *Page
	id       string
	tag      string
	parent   *Element
	children []*Element
	attrs    map[string]string
	classes  []string
	text     string
	hidden   bool
	offset   int
	subs     map[EventType][]Handler
}

// ID returns the element identifier ("" for anonymous elements).
func (e *Element) ID() string { return e.id }

// Tag returns the element kind it was created with.
func (e *Element) Tag() string { return e.tag }

// On registers a listener for events targeting this element.
func (e *Element) On(t EventType, h Handler) {
	e.p.mu.Lock()
	if e.subs == nil {
		e.subs = make(map[EventType][]Handler)
	}
	e.subs[t] = append(e.subs[t], h)
	e.p.mu.Unlock()
}

// SetAttr sets an attribute value.
func (e *Element) SetAttr(key, value string) {
	e.p.mu.Lock()
	e.attrs[key] = value
	e.p.mu.Unlock()
}

// Attr returns the attribute value, or "" when unset.
func (e *Element) Attr(key string) string {
	e.p.mu.RLock()
	defer e.p.mu.RUnlock()
	return e.attrs[key]
}

// RemoveAttr deletes an attribute.
func (e *Element) RemoveAttr(key string) {
	e.p.mu.Lock()
	delete(e.attrs, key)
	e.p.mu.Unlock()
}

// AddClass appends state classes not already present, preserving order.
func (e *Element) AddClass(names ...string) {
	e.p.mu.Lock()
	for _, n := range names {
		if !containsClass(e.classes, n) {
			e.classes = append(e.classes, n)
		}
	}
	e.p.mu.Unlock()
}

// RemoveClass removes state classes if present.
func (e *Element) RemoveClass(names ...string) {
	e.p.mu.Lock()
	for _, n := range names {
		for i, c := range e.classes {
			if c == n {
				e.classes = append(e.classes[:i], e.classes[i+1:]...)
				break
			}
		}
	}
	e.p.mu.Unlock()
}

// HasClass reports whether the state class is present.
func (e *Element) HasClass(name string) bool {
	e.p.mu.RLock()
	defer e.p.mu.RUnlock()
	return containsClass(e.classes, name)
}

// Classes returns a copy of the class list in insertion order.
func (e *Element) Classes() []string {
	e.p.mu.RLock()
	defer e.p.mu.RUnlock()
	return append([]string(nil), e.classes...)
}

func containsClass(cs []string, n string) bool {
	for _, c := range cs {
		if c == n {
			return true
		}
	}
	return false
}

// SetText replaces the element's own text.
func (e *Element) SetText(s string) {
	e.p.mu.Lock()
	e.text = s
	e.p.mu.Unlock()
}

// Text returns the element's own text, not including children.
func (e *Element) Text() string {
	e.p.mu.RLock()
	defer e.p.mu.RUnlock()
	return e.text
}

// SetHidden marks the subtree invisible; VisibleText skips it.
func (e *Element) SetHidden(h bool) {
	e.p.mu.Lock()
	e.hidden = h
	e.p.mu.Unlock()
}

// Hidden reports the element's own hidden flag.
func (e *Element) Hidden() bool {
	e.p.mu.RLock()
	defer e.p.mu.RUnlock()
	return e.hidden
}

// SetOffset records the element's vertical position; the layout layer
// feeds this, scroll tracking consumes it.
func (e *Element) SetOffset(y int) {
	e.p.mu.Lock()
	e.offset = y
	e.p.mu.Unlock()
}

// Offset returns the recorded vertical position.
func (e *Element) Offset() int {
	e.p.mu.RLock()
	defer e.p.mu.RUnlock()
	return e.offset
}

// Append attaches child to e, detaching it from a previous parent first.
func (e *Element) Append(child *Element) {
	e.p.mu.Lock()
	if child.parent != nil {
		child.parent.detach(child)
	}
	child.parent = e
	e.children = append(e.children, child)
	e.p.mu.Unlock()
}

// Remove detaches the element from its parent and unregisters its id and
// the ids of all descendants.
func (e *Element) Remove() {
	e.p.mu.Lock()
	if e.parent != nil {
		e.parent.detach(e)
		e.parent = nil
	}
	e.unregister()
	e.p.mu.Unlock()
}

// detach and unregister require e.p.mu held.
func (e *Element) detach(child *Element) {
	for i, c := range e.children {
		if c == child {
			e.children = append(e.children[:i], e.children[i+1:]...)
			return
		}
	}
}

func (e *Element) unregister() {
	if e.id != "" {
		if e.p.byID[e.id] == e {
			delete(e.p.byID, e.id)
		}
	}
	for _, c := range e.children {
		c.unregister()
	}
}

// Parent returns the containing element, or nil for detached elements
// and the root.
func (e *Element) Parent() *Element {
	e.p.mu.RLock()
	defer e.p.mu.RUnlock()
	return e.parent
}

// Children returns a copy of the child list.
func (e *Element) Children() []*Element {
	e.p.mu.RLock()
	defer e.p.mu.RUnlock()
	return append([]*Element(nil), e.children...)
}

// Contains reports whether other is e or a descendant of e. Dismissal
// logic uses it to decide whether a click landed inside a surface.
func (e *Element) Contains(other *Element) bool {
	e.p.mu.RLock()
	defer e.p.mu.RUnlock()
	for n := other; n != nil; n = n.parent {
		if n == e {
			return true
		}
	}
	return false
}

// VisibleText concatenates the element's text and that of all visible
// descendants, depth first, separated by single spaces. Hidden subtrees
// contribute nothing.
func (e *Element) VisibleText() string {
	e.p.mu.RLock()
	defer e.p.mu.RUnlock()
	var parts []string
	e.collectText(&parts)
	return strings.Join(parts, " ")
}

// collectText requires e.p.mu held (read).
func (e *Element) collectText(parts *[]string) {
	if e.hidden {
		return
	}
	if e.text != "" {
		*parts = append(*parts, e.text)
	}
	for _, c := range e.children {
		c.collectText(parts)
	}
}
