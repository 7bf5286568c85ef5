/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"soulsight/internal/backend"
)

// Letter page metrics in points. The layout mirrors the server's PDF
// export so a locally exported result looks like a downloaded one.
const (
	letterWidth  = 612.0
	letterHeight = 792.0

	marginLeft = 50.0
	titleY     = 42.0  // baseline of the 16pt title
	metaTop    = 62.0  // first meta line
	metaStep   = 15.0  // meta line spacing
	bodyTop    = 142.0 // first body line
	bodyStep   = 14.0  // body leading

	bodyWrapWidth = 70 // characters per body line
	bodyMaxLines  = 30
)

// WritePDF renders the result to a single-page PDF at outPath. Built-in
// Helvetica keeps text vector without font embedding.
func WritePDF(outPath string, id int64, r *backend.Result) error {
	if r == nil {
		return fmt.Errorf("result is nil")
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: letterWidth, Ht: letterHeight},
		OrientationStr: "",
	})
	pdf.SetTitle(fmt.Sprintf("SoulSight AI Result - %d", id), false)
	pdf.SetAuthor("SoulSight AI", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(marginLeft, titleY, "SoulSight AI Result")

	pdf.SetFont("Helvetica", "", 10)
	y := metaTop
	for _, line := range metaLines(r) {
		pdf.Text(marginLeft, y, line)
		y += metaStep
	}

	pdf.SetFont("Helvetica", "", 12)
	y = bodyTop
	lines := wrapWords(r.Text, bodyWrapWidth)
	if len(lines) > bodyMaxLines {
		lines = lines[:bodyMaxLines]
	}
	for _, line := range lines {
		pdf.Text(marginLeft, y, line)
		y += bodyStep
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
