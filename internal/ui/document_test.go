/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseSectionsHeadingsAndParagraphs(t *testing.T) {
	doc := "# First Part\nline one\nline two\n\nsecond paragraph\n\n# Second Part\nbody here\n"
	secs := ParseSections(doc)
	if len(secs) != 2 {
		t.Fatalf("sections = %d, want 2", len(secs))
	}
	if secs[0].Title != "First Part" || secs[0].ID != "first-part" {
		t.Fatalf("first section = %q/%q", secs[0].Title, secs[0].ID)
	}
	if secs[0].Body != "line one line two\nsecond paragraph" {
		t.Fatalf("first body = %q", secs[0].Body)
	}
	if secs[1].Title != "Second Part" || secs[1].Body != "body here" {
		t.Fatalf("second section = %q/%q", secs[1].Title, secs[1].Body)
	}
	if secs[0].Offset != 0 {
		t.Fatalf("first offset = %d, want 0", secs[0].Offset)
	}
	// two body lines plus the paragraph gap line
	wantSecond := sectionLead + 3*lineHeight
	if secs[1].Offset != wantSecond {
		t.Fatalf("second offset = %d, want %d", secs[1].Offset, wantSecond)
	}
}

func TestParseSectionsUntitledLead(t *testing.T) {
	secs := ParseSections("plain text without a heading\n\n# Later\nmore")
	if len(secs) != 2 {
		t.Fatalf("sections = %d, want 2", len(secs))
	}
	if secs[0].Title != "" || secs[0].ID != "section-1" {
		t.Fatalf("lead section = %q/%q", secs[0].Title, secs[0].ID)
	}
	if secs[0].Body != "plain text without a heading" {
		t.Fatalf("lead body = %q", secs[0].Body)
	}
}

func TestParseSectionsDuplicateTitles(t *testing.T) {
	secs := ParseSections("# FAQ\none\n# FAQ\ntwo")
	if len(secs) != 2 {
		t.Fatalf("sections = %d, want 2", len(secs))
	}
	if secs[0].ID != "faq" || secs[1].ID != "faq-2" {
		t.Fatalf("ids = %q, %q", secs[0].ID, secs[1].ID)
	}
}

func TestParseSectionsEmpty(t *testing.T) {
	if secs := ParseSections(""); len(secs) != 0 {
		t.Fatalf("expected no sections, got %d", len(secs))
	}
	if h := DocHeight(nil); h != tailPad {
		t.Fatalf("empty doc height = %d, want %d", h, tailPad)
	}
}

func TestDocHeightCoversLastSection(t *testing.T) {
	secs := ParseSections("# A\n" + strings.Repeat("word ", 200))
	h := DocHeight(secs)
	last := secs[len(secs)-1]
	if h <= last.Offset+sectionLead+lineHeight*len(last.Lines) {
		t.Fatalf("height %d does not cover last section", h)
	}
}

func TestDefaultSections(t *testing.T) {
	secs := DefaultSections()
	if len(secs) != 4 {
		t.Fatalf("default sections = %d, want 4", len(secs))
	}
	if secs[0].Title != "Welcome" {
		t.Fatalf("first title = %q", secs[0].Title)
	}
	for i := 1; i < len(secs); i++ {
		if secs[i].Offset <= secs[i-1].Offset {
			t.Fatalf("offsets not increasing at %d: %d then %d", i, secs[i-1].Offset, secs[i].Offset)
		}
	}
}

func TestWrapAt(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  []string
	}{
		{"short", 10, []string{"short"}},
		{"", 10, nil},
		{"aaaa bbbb cccc dddd", 9, []string{"aaaa bbbb", "cccc dddd"}},
		{"aa bbbbbbbbbbbb cc", 10, []string{"aa", "bbbbbbbbbbbb", "cc"}},
	}
	for _, tc := range cases {
		if got := wrapAt(tc.in, tc.width); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("wrapAt(%q, %d) = %v, want %v", tc.in, tc.width, got, tc.want)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"First Part":     "first-part",
		"Read aloud":     "read-aloud",
		"  Spaces  ":     "spaces",
		"Ünïcode Títle":  "ünïcode-títle",
		"!!!":            "",
		"A - B":          "a-b",
		"Trailing dash-": "trailing-dash",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Errorf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
