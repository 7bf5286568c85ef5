/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes analysis results to local files in the formats
// the SoulSight server offers for download, TXT and PDF.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"soulsight/internal/backend"
)

// Format names accepted by ExportResult.
const (
	FormatTXT = "txt"
	FormatPDF = "pdf"
)

// WriteText writes the result as plain text: banner, meta header, blank
// line, unwrapped body.
func WriteText(w io.Writer, r *backend.Result) error {
	if r == nil {
		return fmt.Errorf("result is nil")
	}
	var b strings.Builder
	b.WriteString("SoulSight AI Result\n")
	b.WriteString("===================\n\n")
	for _, line := range metaLines(r) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(r.Text)
	_, err := io.WriteString(w, b.String())
	return err
}

// ExportResult writes the result into dir under the server's download
// naming, soulsight-<id>.<format>, and returns the written path.
func ExportResult(dir string, id int64, r *backend.Result, format string) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("soulsight-%d.%s", id, format))
	switch format {
	case FormatTXT:
		f, err := createFile(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		if err := WriteText(f, r); err != nil {
			return "", err
		}
		return path, nil
	case FormatPDF:
		if err := WritePDF(path, id, r); err != nil {
			return "", err
		}
		return path, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
}

func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	return os.Create(path)
}

func metaLines(r *backend.Result) []string {
	return []string{
		fmt.Sprintf("Mode: %s", r.Mode),
		fmt.Sprintf("Confidence: %g", r.Confidence),
		fmt.Sprintf("Language: %s", r.Language),
		fmt.Sprintf("Generated: %s", formatGenerated(r.CreatedAt)),
	}
}

// formatGenerated renders the server's ISO timestamp the way the download
// header shows it. Unparseable input passes through untouched.
func formatGenerated(iso string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.Format("2006-01-02 15:04:05")
		}
	}
	return iso
}

// wrapWords splits text into lines of at most width characters using the
// same greedy word fill the server applies before drawing PDF body text.
func wrapWords(text string, width int) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		if len(line)+len(word) < width {
			line += word + " "
			continue
		}
		if line != "" {
			lines = append(lines, strings.TrimRight(line, " "))
		}
		line = word + " "
	}
	if line != "" {
		lines = append(lines, strings.TrimRight(line, " "))
	}
	return lines
}
