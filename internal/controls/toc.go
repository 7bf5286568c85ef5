/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package controls

import (
	"soulsight/internal/page"
)

const (
	classActive = "active"

	// scrollSlack counts a section as reached slightly before its top
	// edge crosses the viewport origin, so the highlight flips as the
	// heading comes into view rather than after it leaves.
	scrollSlack = 16
)

// tocLink is a table-of-contents entry bound to the section it targets.
type tocLink struct {
	link    *page.Element
	section *page.Element
}

// Toc highlights the table-of-contents entry for the section currently
// scrolled into view and scrolls to a section when its entry is clicked.
// Links carry the id of their section in a data-section attribute. At most
// one entry holds the "active" class; above the first section none does.
type Toc struct {
	pg    *page.Page
	links []tocLink
}

// NewToc binds the table of contents if the page renders one. Entries
// whose section id resolves to nothing are skipped.
func NewToc(pg *page.Page) *Toc {
	t := &Toc{pg: pg}
	list := pg.ByID(IDToc)
	if list == nil {
		return t
	}
	for _, link := range list.Children() {
		id := link.Attr("data-section")
		if id == "" {
			continue
		}
		section := pg.ByID(id)
		if section == nil {
			continue
		}
		entry := tocLink{link: link, section: section}
		t.links = append(t.links, entry)
		link.On(page.Click, func(page.Event) {
			pg.ScrollTo(entry.section.Offset())
		})
	}
	if len(t.links) == 0 {
		return t
	}
	pg.On(page.Scroll, func(page.Event) { t.refresh() })
	t.refresh()
	return t
}

// refresh marks the entry of the last section whose top edge is at or
// above the current scroll position.
func (t *Toc) refresh() {
	y := t.pg.ScrollY() + scrollSlack
	active := -1
	for i, e := range t.links {
		if e.section.Offset() <= y {
			active = i
		}
	}
	for i, e := range t.links {
		if i == active {
			e.link.AddClass(classActive)
		} else {
			e.link.RemoveClass(classActive)
		}
	}
}

// Active returns the id of the section whose entry is highlighted, or ""
// when none is.
func (t *Toc) Active() string {
	for _, e := range t.links {
		if e.link.HasClass(classActive) {
			return e.section.ID()
		}
	}
	return ""
}
