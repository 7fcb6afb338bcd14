/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"explainkit/internal/layout"
)

// SheetOptions controls contact sheet rendering.
// Cells are laid out left to right, top to bottom, Columns per row.
type SheetOptions struct {
	Columns    int // default 4
	CellWidth  int // pixels, default 180
	CellHeight int // pixels, default 320 (9:16)
	Padding    int // pixels between cells, default 12
}

func (o *SheetOptions) applyDefaults() {
	if o.Columns <= 0 {
		o.Columns = 4
	}
	if o.CellWidth <= 0 {
		o.CellWidth = 180
	}
	if o.CellHeight <= 0 {
		o.CellHeight = 320
	}
	if o.Padding <= 0 {
		o.Padding = 12
	}
}

var weightFill = map[layout.Weight]color.RGBA{
	layout.WeightLight:  {R: 245, G: 245, B: 245, A: 255},
	layout.WeightMedium: {R: 225, G: 225, B: 225, A: 255},
	layout.WeightHeavy:  {R: 195, G: 195, B: 195, A: 255},
}

// ExportSequenceSheet renders a layout sequence as a single PNG contact
// sheet: one cell per scene, shaded by visual weight and labelled with the
// scene number and pattern. Useful for reviewing pacing at a glance.
func ExportSequenceSheet(seq []layout.SequenceItem, outPath string, opt SheetOptions) error {
	if len(seq) == 0 {
		return fmt.Errorf("empty sequence")
	}
	opt.applyDefaults()

	cols := opt.Columns
	if len(seq) < cols {
		cols = len(seq)
	}
	rows := (len(seq) + cols - 1) / cols
	w := cols*opt.CellWidth + (cols+1)*opt.Padding
	h := rows*opt.CellHeight + (rows+1)*opt.Padding

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

	black := color.RGBA{A: 255}
	for i, it := range seq {
		col := i % cols
		row := i / cols
		x0 := opt.Padding + col*(opt.CellWidth+opt.Padding)
		y0 := opt.Padding + row*(opt.CellHeight+opt.Padding)
		x1 := x0 + opt.CellWidth - 1
		y1 := y0 + opt.CellHeight - 1

		fill, ok := weightFill[it.Weight]
		if !ok {
			fill = weightFill[layout.WeightMedium]
		}
		fillRect(img, x0, y0, x1, y1, fill)
		strokeRect(img, x0, y0, x1, y1, black)

		label(img, x0+6, y0+16, fmt.Sprintf("scene %d", it.SceneNumber), black)
		label(img, x0+6, y0+32, fmt.Sprintf("#%d %s", it.PatternID, it.Category), black)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
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

// label draws text at the given baseline using the fixed 7x13 face, which is
// deterministic across platforms.
func label(img *image.RGBA, x, y int, text string, col color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}
