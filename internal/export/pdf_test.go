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

	"soulsight/internal/backend"
)

func sampleResult() *backend.Result {
	return &backend.Result{
		Text:       "A calm mountain lake at sunrise with mist over the water.",
		Confidence: 0.92,
		Mode:       "detailed_description",
		Language:   "en",
		CreatedAt:  "2025-06-01T09:30:00",
		ImageURL:   "/static/uploads/abc123.jpg",
	}
}

func TestWritePDF_CreatesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "exports", "soulsight-17.pdf")
	if err := WritePDF(out, 17, sampleResult()); err != nil {
		t.Fatalf("export: %v", err)
	}
	st, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Size() <= 0 {
		t.Fatalf("pdf file empty")
	}
	head := make([]byte, 5)
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if _, err := f.Read(head); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(head) != "%PDF-" {
		t.Fatalf("magic = %q, want %q", head, "%PDF-")
	}
}

func TestWritePDF_LongBodyDoesNotFail(t *testing.T) {
	r := sampleResult()
	r.Text = strings.Repeat("An unusually verbose description of the scene. ", 80)
	out := filepath.Join(t.TempDir(), "soulsight-1.pdf")
	if err := WritePDF(out, 1, r); err != nil {
		t.Fatalf("export: %v", err)
	}
}

func TestWritePDF_NilResult(t *testing.T) {
	if err := WritePDF(filepath.Join(t.TempDir(), "x.pdf"), 1, nil); err == nil {
		t.Fatalf("expected error for nil result")
	}
}
