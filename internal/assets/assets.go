/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package assets renders the SoulSight brand images and the web app
// manifest: the social sharing card, the favicon family and favicon.ico.
// Circles are drawn supersampled and scaled down so edges come out smooth
// without an anti-aliasing dependency.
package assets

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Brand palette from the site stylesheet.
var (
	brandPrimary   = color.RGBA{R: 102, G: 126, B: 234, A: 255} // #667eea
	brandSecondary = color.RGBA{R: 118, G: 75, B: 162, A: 255}  // #764ba2
	brandAccent    = color.RGBA{R: 246, G: 135, B: 179, A: 255} // #f687b3
	white          = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Social card text.
const (
	Title    = "SoulSight AI"
	Subtitle = "See the Soul in Every Image"
	Tagline  = "AI-powered image analysis with emotional intelligence"
	SiteURL  = "soulsight.ai"
)

const (
	ogWidth  = 1200
	ogHeight = 630
)

// OGImage renders the 1200x630 social sharing card: brand gradient,
// decorative circles, the eye mark and the centered text block.
func OGImage() *image.RGBA {
	const ss = 2
	base := image.NewRGBA(image.Rect(0, 0, ogWidth*ss, ogHeight*ss))
	drawGradient(base, brandPrimary, brandSecondary)

	for i := 0; i < 5; i++ {
		cx := (150 + i*200) * ss
		cy := (200 + i*30) * ss
		r := (80 + i*20) * ss / 2
		fillCircle(base, cx, cy, r+ss, color.NRGBA{R: 255, G: 255, B: 255, A: 60})
		fillCircle(base, cx, cy, r, color.NRGBA{R: 255, G: 255, B: 255, A: 30})
	}

	eyeX := ogWidth / 2 * ss
	eyeY := (ogHeight/2 - 50) * ss
	eyeR := 80 * ss
	fillCircle(base, eyeX, eyeY, eyeR, color.NRGBA{R: 255, G: 255, B: 255, A: 180})
	fillCircle(base, eyeX, eyeY, eyeR/2, brandPrimary)
	fillCircle(base, eyeX, eyeY, eyeR/4, brandAccent)

	img := image.NewRGBA(image.Rect(0, 0, ogWidth, ogHeight))
	xdraw.CatmullRom.Scale(img, img.Bounds(), base, base.Bounds(), xdraw.Src, nil)

	titleY := ogHeight/2 - 50 + 80 + 50
	drawCenteredText(img, Title, titleY, white, 3)
	drawCenteredText(img, Subtitle, titleY+80, color.NRGBA{R: 255, G: 255, B: 255, A: 220}, 2)
	drawCenteredText(img, Tagline, titleY+140, color.NRGBA{R: 255, G: 255, B: 255, A: 180}, 1)
	urlY := ogHeight - 60
	drawCenteredText(img, SiteURL, urlY, white, 1)

	// accent rule under the URL
	lineY := urlY + 35
	for y := lineY; y < lineY+3; y++ {
		for x := (ogWidth - 200) / 2; x < (ogWidth+200)/2; x++ {
			img.SetRGBA(x, y, brandAccent)
		}
	}
	return img
}

// disc is one filled circle of an icon design, in icon coordinates.
type disc struct {
	cx, cy, r int
	col       color.Color
}

// Favicon32 renders the 32x32 favicon: eye mark on the brand background.
func Favicon32() *image.RGBA {
	return renderIcon(32, []disc{
		{cx: 16, cy: 16, r: 10, col: white},
		{cx: 16, cy: 16, r: 4, col: brandPrimary},
		{cx: 16, cy: 16, r: 1, col: brandAccent},
	})
}

// Favicon16 renders the reduced 16x16 variant, a plain white disc.
func Favicon16() *image.RGBA {
	return renderIcon(16, []disc{
		{cx: 8, cy: 8, r: 5, col: white},
	})
}

// AppleTouchIcon renders the 180x180 home screen icon with the "SS"
// monogram under the mark.
func AppleTouchIcon() *image.RGBA {
	img := renderIcon(180, []disc{
		{cx: 90, cy: 90, r: 60, col: white},
		{cx: 90, cy: 90, r: 30, col: brandPrimary},
		{cx: 90, cy: 90, r: 5, col: brandAccent},
	})
	drawText(img, "SS", 45, 155, white)
	return img
}

// renderIcon draws the discs over the brand background, supersampled 4x.
func renderIcon(size int, discs []disc) *image.RGBA {
	const ss = 4
	big := image.NewRGBA(image.Rect(0, 0, size*ss, size*ss))
	draw.Draw(big, big.Bounds(), image.NewUniform(brandPrimary), image.Point{}, draw.Src)
	for _, d := range discs {
		fillCircle(big, d.cx*ss, d.cy*ss, d.r*ss, d.col)
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(img, img.Bounds(), big, big.Bounds(), xdraw.Src, nil)
	return img
}

// ManifestIcon is one icon reference in the web app manifest.
type ManifestIcon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes"`
	Type  string `json:"type"`
}

// Manifest mirrors the site.webmanifest the web app serves.
type Manifest struct {
	Name            string         `json:"name"`
	ShortName       string         `json:"short_name"`
	Description     string         `json:"description"`
	StartURL        string         `json:"start_url"`
	Display         string         `json:"display"`
	BackgroundColor string         `json:"background_color"`
	ThemeColor      string         `json:"theme_color"`
	Icons           []ManifestIcon `json:"icons"`
}

// WebManifest returns the manifest content for the brand asset set.
func WebManifest() Manifest {
	return Manifest{
		Name:            "SoulSight AI",
		ShortName:       "SoulSight",
		Description:     "See the soul in every image through AI",
		StartURL:        "/",
		Display:         "standalone",
		BackgroundColor: "#667eea",
		ThemeColor:      "#667eea",
		Icons: []ManifestIcon{
			{Src: "/static/images/favicon-32x32.png", Sizes: "32x32", Type: "image/png"},
			{Src: "/static/images/favicon-16x16.png", Sizes: "16x16", Type: "image/png"},
			{Src: "/static/images/apple-touch-icon.png", Sizes: "180x180", Type: "image/png"},
		},
	}
}

// WriteAll renders every brand asset into dir and returns the written
// paths in a stable order.
func WriteAll(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure asset dir: %w", err)
	}
	var paths []string
	pngs := []struct {
		name string
		img  *image.RGBA
	}{
		{"og-image.png", OGImage()},
		{"favicon-32x32.png", Favicon32()},
		{"favicon-16x16.png", Favicon16()},
		{"apple-touch-icon.png", AppleTouchIcon()},
	}
	for _, p := range pngs {
		path := filepath.Join(dir, p.name)
		if err := writePNG(path, p.img); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	icoPath := filepath.Join(dir, "favicon.ico")
	if err := WriteICO(icoPath, Favicon32()); err != nil {
		return nil, err
	}
	paths = append(paths, icoPath)

	data, err := json.MarshalIndent(WebManifest(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(dir, "site.webmanifest")
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	paths = append(paths, manifestPath)
	return paths, nil
}

func writePNG(path string, img *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

// drawGradient fills img with a vertical blend from top to bottom.
func drawGradient(img *image.RGBA, top, bottom color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		ratio := float64(y-b.Min.Y) / float64(b.Dy())
		c := color.RGBA{
			R: uint8(int(top.R) + int(float64(int(bottom.R)-int(top.R))*ratio)),
			G: uint8(int(top.G) + int(float64(int(bottom.G)-int(top.G))*ratio)),
			B: uint8(int(top.B) + int(float64(int(bottom.B)-int(top.B))*ratio)),
			A: 255,
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// circleMask is an alpha mask selecting a filled circle.
type circleMask struct {
	ctr image.Point
	r   int
}

func (c *circleMask) ColorModel() color.Model { return color.AlphaModel }

func (c *circleMask) Bounds() image.Rectangle {
	return image.Rect(c.ctr.X-c.r, c.ctr.Y-c.r, c.ctr.X+c.r, c.ctr.Y+c.r)
}

func (c *circleMask) At(x, y int) color.Color {
	dx, dy := x-c.ctr.X, y-c.ctr.Y
	if dx*dx+dy*dy <= c.r*c.r {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}

// fillCircle blends a disc of col over dst.
func fillCircle(dst draw.Image, cx, cy, r int, col color.Color) {
	mask := &circleMask{ctr: image.Point{X: cx, Y: cy}, r: r}
	draw.DrawMask(dst, mask.Bounds(), image.NewUniform(col), image.Point{},
		mask, mask.Bounds().Min, draw.Over)
}

// drawCenteredText draws s horizontally centered with its top edge at
// yTop, with a soft shadow offset by shadow pixels.
func drawCenteredText(img *image.RGBA, s string, yTop int, col color.Color, shadow int) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(col), Face: face}
	w := d.MeasureString(s).Ceil()
	x := (img.Bounds().Dx() - w) / 2
	y := yTop + face.Ascent
	if shadow > 0 {
		sd := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.NRGBA{A: 100}),
			Face: face,
			Dot:  fixed.P(x+shadow, y+shadow),
		}
		sd.DrawString(s)
	}
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

func drawText(img *image.RGBA, s string, x, y int, col color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y+face.Ascent),
	}
	d.DrawString(s)
}
