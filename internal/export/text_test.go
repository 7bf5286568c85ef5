/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteTextLayout(t *testing.T) {
	var b strings.Builder
	if err := WriteText(&b, sampleResult()); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	want := "SoulSight AI Result\n" +
		"===================\n\n" +
		"Mode: detailed_description\n" +
		"Confidence: 0.92\n" +
		"Language: en\n" +
		"Generated: 2025-06-01 09:30:00\n\n" +
		"A calm mountain lake at sunrise with mist over the water."
	if b.String() != want {
		t.Fatalf("text export mismatch\n got: %q\nwant: %q", b.String(), want)
	}
}

func TestExportResultWritesDownloadNaming(t *testing.T) {
	dir := t.TempDir()
	path, err := ExportResult(dir, 17, sampleResult(), FormatTXT)
	if err != nil {
		t.Fatalf("ExportResult: %v", err)
	}
	if filepath.Base(path) != "soulsight-17.txt" {
		t.Fatalf("file name = %q, want %q", filepath.Base(path), "soulsight-17.txt")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(data), "SoulSight AI Result\n") {
		t.Fatalf("content missing banner: %q", data[:32])
	}

	path, err = ExportResult(dir, 17, sampleResult(), FormatPDF)
	if err != nil {
		t.Fatalf("ExportResult pdf: %v", err)
	}
	if filepath.Base(path) != "soulsight-17.pdf" {
		t.Fatalf("file name = %q, want %q", filepath.Base(path), "soulsight-17.pdf")
	}
}

func TestExportResultUnknownFormat(t *testing.T) {
	_, err := ExportResult(t.TempDir(), 1, sampleResult(), "docx")
	if err == nil {
		t.Fatalf("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "docx") {
		t.Fatalf("error = %q, want format name", err)
	}
}

func TestWrapWords(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"short", "one two three", 70, []string{"one two three"}},
		{"empty", "", 70, nil},
		{"wraps", "aaaa bbbb cccc dddd", 10, []string{"aaaa bbbb", "cccc dddd"}},
		{"long word own line", "aa bbbbbbbbbbbb cc", 10, []string{"aa", "bbbbbbbbbbbb", "cc"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := wrapWords(tc.text, tc.width)
			if len(got) != len(tc.want) {
				t.Fatalf("lines = %d (%q), want %d", len(got), got, len(tc.want))
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("line %d = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestFormatGenerated(t *testing.T) {
	if got := formatGenerated("2025-06-01T09:30:00"); got != "2025-06-01 09:30:00" {
		t.Fatalf("formatGenerated = %q", got)
	}
	if got := formatGenerated("2025-06-01T09:30:00Z"); got != "2025-06-01 09:30:00" {
		t.Fatalf("formatGenerated RFC3339 = %q", got)
	}
	if got := formatGenerated("yesterday"); got != "yesterday" {
		t.Fatalf("formatGenerated passthrough = %q", got)
	}
}
