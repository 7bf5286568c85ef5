//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// ReaderView renders the parsed document as one tall column of text whose
// vertical geometry matches the section offsets of the page model. The
// scroll position reported by the surrounding scroller can therefore be fed
// to Page.ScrollTo unchanged, and vice versa.
type ReaderView struct {
	widget.BaseWidget

	mu           sync.Mutex
	sections     []Section
	dark         bool
	highContrast bool
	scale        float32
}

const (
	readerWidth  = 900
	readerPadX   = 28
	readerTitleY = 18 // heading baseline offset inside the section lead
)

// NewReaderView builds a view for secs. The document is fixed for the
// lifetime of the view; only the appearance changes afterwards.
func NewReaderView(secs []Section) *ReaderView {
	v := &ReaderView{sections: secs, scale: 1}
	v.ExtendBaseWidget(v)
	return v
}

// SetAppearance applies the rendered page state: dark or high-contrast
// palette plus the large-text scale factor. Line positions stay fixed so
// scroll offsets keep matching the page model even with large text on.
func (v *ReaderView) SetAppearance(dark, highContrast bool, scale float32) {
	v.mu.Lock()
	if scale <= 0 {
		scale = 1
	}
	changed := v.dark != dark || v.highContrast != highContrast || v.scale != scale
	v.dark = dark
	v.highContrast = highContrast
	v.scale = scale
	v.mu.Unlock()
	if changed {
		v.Refresh()
	}
}

func (v *ReaderView) appearance() (dark, highContrast bool, scale float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dark, v.highContrast, v.scale
}

// CreateRenderer builds one text object per rendered line up front. Blank
// wrap lines are paragraph gaps and get no object; their slot still counts
// toward the geometry.
func (v *ReaderView) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.White)

	var lines []readerLine
	for _, s := range v.sections {
		if s.Title != "" {
			lines = append(lines, readerLine{text: s.Title, y: float32(s.Offset + readerTitleY), heading: true})
		}
		for i, ln := range s.Lines {
			if ln == "" {
				continue
			}
			lines = append(lines, readerLine{text: ln, y: float32(s.Offset + sectionLead + i*lineHeight)})
		}
	}

	texts := make([]*canvas.Text, 0, len(lines))
	objs := []fyne.CanvasObject{bg}
	for _, ln := range lines {
		t := canvas.NewText(ln.text, color.Black)
		if ln.heading {
			t.TextStyle = fyne.TextStyle{Bold: true}
		}
		texts = append(texts, t)
		objs = append(objs, t)
	}

	return &readerRenderer{view: v, lines: lines, bg: bg, texts: texts, objects: objs}
}

// readerLine is one positioned line of the rendered document.
type readerLine struct {
	text    string
	y       float32
	heading bool
}

type readerRenderer struct {
	view    *ReaderView
	lines   []readerLine
	bg      *canvas.Rectangle
	texts   []*canvas.Text
	objects []fyne.CanvasObject
}

func (r *readerRenderer) Destroy()                     {}
func (r *readerRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *readerRenderer) Refresh()                     { r.Layout(r.view.Size()); canvas.Refresh(r.view) }

func (r *readerRenderer) MinSize() fyne.Size {
	return fyne.NewSize(readerWidth, float32(DocHeight(r.view.sections)))
}

func (r *readerRenderer) Layout(size fyne.Size) {
	dark, hc, scale := r.view.appearance()
	pal := readerPalette(dark, hc)

	height := float32(DocHeight(r.view.sections))
	if size.Height > height {
		height = size.Height
	}
	r.bg.FillColor = pal.bg
	r.bg.Resize(fyne.NewSize(size.Width, height))
	r.bg.Move(fyne.NewPos(0, 0))
	r.bg.Refresh()

	// Fixed boxes instead of measured ones keep Layout independent of a
	// text driver, so geometry is testable headless.
	lineW := size.Width - 2*readerPadX
	if lineW < 100 {
		lineW = 100
	}
	for i, t := range r.texts {
		ln := r.lines[i]
		if ln.heading {
			t.Color = pal.heading
			t.TextSize = 19 * scale
			t.Resize(fyne.NewSize(lineW, 30*scale))
		} else {
			t.Color = pal.body
			t.TextSize = 14 * scale
			t.Resize(fyne.NewSize(lineW, float32(lineHeight)*scale))
		}
		t.Move(fyne.NewPos(readerPadX, ln.y))
		t.Refresh()
	}
}

// readerColors is the palette of one appearance mode.
type readerColors struct {
	bg      color.Color
	heading color.Color
	body    color.Color
}

// readerPalette mirrors the web app stylesheet for each appearance mode.
func readerPalette(dark, highContrast bool) readerColors {
	switch {
	case highContrast:
		return readerColors{
			bg:      color.Black,
			heading: color.NRGBA{R: 255, G: 255, B: 0, A: 255},
			body:    color.White,
		}
	case dark:
		return readerColors{
			bg:      color.NRGBA{R: 26, G: 32, B: 44, A: 255},
			heading: color.NRGBA{R: 127, G: 156, B: 245, A: 255},
			body:    color.NRGBA{R: 226, G: 232, B: 240, A: 255},
		}
	default:
		return readerColors{
			bg:      color.NRGBA{R: 247, G: 250, B: 252, A: 255},
			heading: color.NRGBA{R: 102, G: 126, B: 234, A: 255},
			body:    color.NRGBA{R: 45, G: 55, B: 72, A: 255},
		}
	}
}
