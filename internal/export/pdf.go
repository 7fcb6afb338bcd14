/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders production artifacts from parsed scripts: narration
// sheets and storyboards as PDF, layout sequences as PNG contact sheets.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"explainkit/internal/layout"
	"explainkit/internal/script"
)

// PDFOptions controls PDF export behavior. Units are points (pt).
// Built-in Helvetica keeps text vector without font embedding.
type PDFOptions struct {
	PageWidth  float64 // default A4 portrait
	PageHeight float64
	Margin     float64 // default 48pt
	Scenes     []int   // if empty, export all scenes
}

const (
	a4Width  = 595.28
	a4Height = 841.89
)

func (o *PDFOptions) applyDefaults() {
	if o.PageWidth <= 0 {
		o.PageWidth = a4Width
	}
	if o.PageHeight <= 0 {
		o.PageHeight = a4Height
	}
	if o.Margin <= 0 {
		o.Margin = 48
	}
}

// ExportNarrationPDF writes a voice-over recording sheet: one block per
// narrated scene with number, title, duration and the spoken line. Scenes
// without narration are listed as silent so the narrator sees the gaps.
func ExportNarrationPDF(doc script.Document, outPath string, opt PDFOptions) error {
	opt.applyDefaults()
	scenes := sceneSubset(doc.Scenes, opt.Scenes)
	if len(scenes) == 0 {
		return fmt.Errorf("no scenes to export")
	}

	pdf := newPDF(doc.Title+" — Narration", opt)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: opt.PageWidth, Ht: opt.PageHeight})

	usable := opt.PageWidth - 2*opt.Margin
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetX(opt.Margin)
	pdf.MultiCell(usable, 20, doc.Title, "", "L", false)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetX(opt.Margin)
	pdf.MultiCell(usable, 14, fmt.Sprintf("Total %s s, format %s, %d scenes",
		formatSeconds(doc.TotalDuration), doc.Format, len(doc.Scenes)), "", "L", false)
	pdf.Ln(8)

	for _, s := range scenes {
		ensureRoom(pdf, opt, 60)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetX(opt.Margin)
		pdf.MultiCell(usable, 16, fmt.Sprintf("Scene %d: %s (%s s)", s.Number, s.Title, formatSeconds(s.Duration)), "", "L", false)
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetX(opt.Margin)
		switch {
		case s.Narration == nil:
			pdf.SetTextColor(128, 128, 128)
			pdf.MultiCell(usable, 14, "(silent scene)", "", "L", false)
			pdf.SetTextColor(0, 0, 0)
		case *s.Narration == "":
			pdf.SetTextColor(128, 128, 128)
			pdf.MultiCell(usable, 14, "(empty narration)", "", "L", false)
			pdf.SetTextColor(0, 0, 0)
		default:
			pdf.MultiCell(usable, 14, *s.Narration, "", "L", false)
		}
		pdf.Ln(6)
	}
	return writePDF(pdf, outPath)
}

// ExportStoryboardPDF writes one page per scene: a frame in the script's
// aspect ratio annotated with the layout pattern (when a sequence is given)
// and the scene's narration and prompt below it.
func ExportStoryboardPDF(doc script.Document, seq []layout.SequenceItem, outPath string, opt PDFOptions) error {
	opt.applyDefaults()
	scenes := sceneSubset(doc.Scenes, opt.Scenes)
	if len(scenes) == 0 {
		return fmt.Errorf("no scenes to export")
	}
	bySceneNumber := make(map[int]layout.SequenceItem, len(seq))
	for _, it := range seq {
		bySceneNumber[it.SceneNumber] = it
	}

	pdf := newPDF(doc.Title+" — Storyboard", opt)
	usable := opt.PageWidth - 2*opt.Margin
	aw, ah := aspect(doc.Format)

	for _, s := range scenes {
		pdf.AddPageFormat("", gofpdf.SizeType{Wd: opt.PageWidth, Ht: opt.PageHeight})
		pdf.SetFont("Helvetica", "B", 14)
		pdf.SetX(opt.Margin)
		pdf.MultiCell(usable, 18, fmt.Sprintf("Scene %d: %s (%s s)", s.Number, s.Title, formatSeconds(s.Duration)), "", "L", false)

		// Frame sized to the script's aspect ratio, capped at half the page height.
		frameH := usable * ah / aw
		maxH := opt.PageHeight/2 - opt.Margin
		frameW := usable
		if frameH > maxH {
			frameW = frameW * maxH / frameH
			frameH = maxH
		}
		fx := opt.Margin + (usable-frameW)/2
		fy := pdf.GetY() + 6
		pdf.SetDrawColor(0, 0, 0)
		pdf.SetLineWidth(1)
		pdf.Rect(fx, fy, frameW, frameH, "D")
		if it, ok := bySceneNumber[s.Number]; ok {
			pdf.SetFont("Helvetica", "I", 10)
			pdf.Text(fx+6, fy+frameH-8, fmt.Sprintf("Pattern %d: %s (%s, %s)", it.PatternID, it.Name, it.Category, it.Weight))
		}
		pdf.SetY(fy + frameH + 12)

		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetX(opt.Margin)
		pdf.MultiCell(usable, 14, "Narration", "", "L", false)
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetX(opt.Margin)
		if s.HasNarration() {
			pdf.MultiCell(usable, 14, *s.Narration, "", "L", false)
		} else {
			pdf.SetTextColor(128, 128, 128)
			pdf.MultiCell(usable, 14, "(silent)", "", "L", false)
			pdf.SetTextColor(0, 0, 0)
		}
		if p := s.InitialPrompt; p != nil && *p != "" {
			pdf.Ln(4)
			pdf.SetFont("Helvetica", "B", 11)
			pdf.SetX(opt.Margin)
			pdf.MultiCell(usable, 14, "Visual prompt", "", "L", false)
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetX(opt.Margin)
			pdf.MultiCell(usable, 13, *p, "", "L", false)
		}
	}
	return writePDF(pdf, outPath)
}

func newPDF(title string, opt PDFOptions) *gofpdf.Fpdf {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: opt.PageWidth, Ht: opt.PageHeight},
		OrientationStr: "",
	})
	pdf.SetTitle(title, true)
	pdf.SetAuthor("ExplainerKit", false)
	pdf.SetMargins(opt.Margin, opt.Margin, opt.Margin)
	pdf.SetAutoPageBreak(true, opt.Margin)
	pdf.SetFont("Helvetica", "", 12)
	return pdf
}

func ensureRoom(pdf *gofpdf.Fpdf, opt PDFOptions, need float64) {
	if pdf.GetY()+need > opt.PageHeight-opt.Margin {
		pdf.AddPageFormat("", gofpdf.SizeType{Wd: opt.PageWidth, Ht: opt.PageHeight})
	}
}

func writePDF(pdf *gofpdf.Fpdf, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func sceneSubset(scenes []script.Scene, numbers []int) []script.Scene {
	if len(numbers) == 0 {
		return scenes
	}
	want := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		want[n] = true
	}
	out := make([]script.Scene, 0, len(numbers))
	for _, s := range scenes {
		if want[s.Number] {
			out = append(out, s)
		}
	}
	return out
}

// aspect parses "W:H" format declarations; unknown strings fall back to 9:16.
func aspect(format string) (w, h float64) {
	var a, b float64
	if n, err := fmt.Sscanf(format, "%f:%f", &a, &b); err == nil && n == 2 && a > 0 && b > 0 {
		return a, b
	}
	return 9, 16
}

func formatSeconds(v float64) string {
	s := fmt.Sprintf("%g", v)
	return s
}
