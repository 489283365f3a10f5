// Package export renders finished strokes into a PDF document.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/grahamonica/gemini-build-day/internal/domain/stroke"
)

const (
	pageWidthMM  = 210.0 // A4 portrait
	pageHeightMM = 297.0
	pageMarginMM = 10.0
)

// PDF writes the strokes as vector polylines on a single A4 page. World
// coordinates are mapped uniformly so the canvas fits inside the page
// margins.
func PDF(w io.Writer, strokes []stroke.Stroke, canvasW, canvasH int) error {
	if canvasW <= 0 || canvasH <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", canvasW, canvasH)
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.AddPage()

	scaleX := (pageWidthMM - 2*pageMarginMM) / float64(canvasW)
	scaleY := (pageHeightMM - 2*pageMarginMM) / float64(canvasH)
	scale := scaleX
	if scaleY < scale {
		scale = scaleY
	}

	for _, st := range strokes {
		r, g, b := parseHexColor(st.Color)
		doc.SetDrawColor(r, g, b)
		doc.SetLineWidth(st.Width * scale)
		doc.SetLineCapStyle("round")
		doc.SetLineJoinStyle("round")

		if len(st.Points) == 1 {
			p := st.Points[0]
			doc.SetFillColor(r, g, b)
			doc.Circle(pageMarginMM+p.X*scale, pageMarginMM+p.Y*scale, st.Width*scale/2, "F")
			continue
		}
		for i := 1; i < len(st.Points); i++ {
			doc.Line(
				pageMarginMM+st.Points[i-1].X*scale, pageMarginMM+st.Points[i-1].Y*scale,
				pageMarginMM+st.Points[i].X*scale, pageMarginMM+st.Points[i].Y*scale,
			)
		}
	}

	return doc.Output(w)
}

// parseHexColor reads "#rrggbb" and falls back to black on anything else.
func parseHexColor(s string) (int, int, int) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
