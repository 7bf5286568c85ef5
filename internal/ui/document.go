/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ui hosts the desktop shell. The document model in this file is
// shared by all build variants; the Fyne shell itself sits behind the
// fyne build tag so headless builds stay free of the GL dependency.
package ui

import (
	"fmt"
	"strings"
	"unicode"
)

// Reader layout constants in logical units. Section offsets in the page
// model and the rendered reader use the same unit, so scroll positions
// line up one to one.
const (
	bodyWrapWidth = 92
	sectionLead   = 90
	lineHeight    = 24
	tailPad       = 160
)

// Section is one titled block of the displayed document.
type Section struct {
	ID     string
	Title  string
	Body   string   // paragraphs separated by single newlines
	Lines  []string // body wrapped for display, empty string = paragraph gap
	Offset int      // top of the section in logical units
}

// ParseSections splits a plain text document into sections. A line
// starting with "# " opens a new section; text before the first heading
// becomes an untitled leading section. Consecutive non-blank lines join
// into one paragraph. Offsets are assigned cumulatively from the wrapped
// line counts.
func ParseSections(text string) []Section {
	var secs []Section
	cur := -1
	para := ""

	flushPara := func() {
		if para == "" {
			return
		}
		if secs[cur].Body != "" {
			secs[cur].Body += "\n"
		}
		secs[cur].Body += para
		para = ""
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.TrimRight(raw, "\r"))
		if strings.HasPrefix(line, "# ") {
			if cur >= 0 {
				flushPara()
			}
			secs = append(secs, Section{Title: strings.TrimSpace(line[2:])})
			cur = len(secs) - 1
			continue
		}
		if line == "" {
			if cur >= 0 {
				flushPara()
			}
			continue
		}
		if cur < 0 {
			secs = append(secs, Section{})
			cur = 0
		}
		if para != "" {
			para += " "
		}
		para += line
	}
	if cur >= 0 {
		flushPara()
	}

	seen := make(map[string]int)
	y := 0
	for i := range secs {
		s := &secs[i]
		base := slugify(s.Title)
		if base == "" {
			base = fmt.Sprintf("section-%d", i+1)
		}
		seen[base]++
		if n := seen[base]; n > 1 {
			base = fmt.Sprintf("%s-%d", base, n)
		}
		s.ID = base
		s.Lines = wrapBody(s.Body)
		s.Offset = y
		y += sectionLead + lineHeight*len(s.Lines)
	}
	return secs
}

// DocHeight returns the total logical height of the parsed document.
func DocHeight(secs []Section) int {
	if len(secs) == 0 {
		return tailPad
	}
	last := secs[len(secs)-1]
	return last.Offset + sectionLead + lineHeight*len(last.Lines) + tailPad
}

const defaultDocument = `# Welcome
SoulSight AI describes images in rich, human detail. Open a text file to
read it here, or explore the interaction controls on this page.

# Accessibility
Use the accessibility panel to switch high contrast, large text and
reduced motion. Your settings persist between sessions.

# Read aloud
Press Read Aloud to hear the page. Narration stops the moment you ask it
to, and the button always shows what a press will do next.

# Keyboard
Escape closes any open panel, drawer or menu. The table of contents
follows your position as you scroll.`

// DefaultSections is the built-in document shown when no file is opened.
func DefaultSections() []Section {
	return ParseSections(defaultDocument)
}

func wrapBody(body string) []string {
	if body == "" {
		return nil
	}
	var lines []string
	for i, para := range strings.Split(body, "\n") {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, wrapAt(para, bodyWrapWidth)...)
	}
	return lines
}

// wrapAt greedily wraps s into lines of at most width characters; a word
// longer than width gets its own line.
func wrapAt(s string, width int) []string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	var lines []string
	line := fields[0]
	for _, word := range fields[1:] {
		if len(line)+1+len(word) <= width {
			line += " " + word
			continue
		}
		lines = append(lines, line)
		line = word
	}
	return append(lines, line)
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
