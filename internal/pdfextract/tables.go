// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfextract

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	defaultFontSize = 10.0

	// A horizontal gap wider than cellGapEm font sizes starts a new cell;
	// one wider than wordGapEm inserts a space.
	cellGapEm = 1.5
	wordGapEm = 0.15

	// Glyphs whose baselines differ by less than rowTolEm font sizes share a
	// row.
	rowTolEm = 0.3
)

// glyph is one positioned run of text as reported by the PDF reader.
// W may be zero when the font has no width table.
type glyph struct {
	X, Y, W, Size float64
	S             string
}

func (g glyph) size() float64 {
	if g.Size > 0 {
		return g.Size
	}
	return defaultFontSize
}

func (g glyph) width() float64 {
	if g.W > 0 {
		return g.W
	}
	return 0.5 * g.size() * float64(utf8.RuneCountInString(g.S))
}

type cell struct {
	X0, X1 float64
	Text   string
}

type row struct {
	Y     float64
	Cells []cell
}

// pageLayout is a page reconstructed into rows of cells, top to bottom.
type pageLayout struct {
	Rows []row
}

// buildLayout groups glyphs into rows by baseline, orders each row left to
// right, and splits it into cells on wide horizontal gaps.
func buildLayout(glyphs []glyph) *pageLayout {
	gs := make([]glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S != "" {
			gs = append(gs, g)
		}
	}
	// PDF y grows upwards; the first row is the highest.
	sort.SliceStable(gs, func(i, j int) bool { return gs[i].Y > gs[j].Y })

	var groups [][]glyph
	for _, g := range gs {
		n := len(groups)
		if n > 0 && math.Abs(groups[n-1][0].Y-g.Y) < math.Max(1, rowTolEm*g.size()) {
			groups[n-1] = append(groups[n-1], g)
			continue
		}
		groups = append(groups, []glyph{g})
	}

	pl := &pageLayout{}
	for _, grp := range groups {
		sort.SliceStable(grp, func(i, j int) bool { return grp[i].X < grp[j].X })
		if cells := splitCells(grp); len(cells) > 0 {
			pl.Rows = append(pl.Rows, row{Y: grp[0].Y, Cells: cells})
		}
	}
	return pl
}

func splitCells(grp []glyph) []cell {
	var cells []cell
	var cur *cell
	var sb strings.Builder
	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = strings.Join(strings.Fields(sb.String()), " ")
		if cur.Text != "" {
			cells = append(cells, *cur)
		}
		cur = nil
		sb.Reset()
	}
	for _, g := range grp {
		if cur != nil {
			gap := g.X - cur.X1
			switch {
			case gap > cellGapEm*g.size():
				flush()
			case gap > wordGapEm*g.size():
				sb.WriteByte(' ')
			}
		}
		if cur == nil {
			cur = &cell{X0: g.X, X1: g.X}
		}
		sb.WriteString(g.S)
		cur.X1 = math.Max(cur.X1, g.X+g.width())
	}
	flush()
	return cells
}

// Text renders the page as lines of space-separated cells.
func (pl *pageLayout) Text() string {
	lines := make([]string, 0, len(pl.Rows))
	for _, r := range pl.Rows {
		parts := make([]string, len(r.Cells))
		for i, c := range r.Cells {
			parts[i] = c.Text
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n")
}

// Tables finds runs of at least two consecutive rows that each have two or
// more cells. Columns are anchored on the widest row of the run; cells of
// other rows go to the nearest anchor and missing cells are empty strings.
func (pl *pageLayout) Tables() [][][]string {
	var tables [][][]string
	var run []row
	emit := func() {
		if len(run) >= 2 {
			tables = append(tables, gridOf(run))
		}
		run = nil
	}
	for _, r := range pl.Rows {
		if len(r.Cells) >= 2 {
			run = append(run, r)
			continue
		}
		emit()
	}
	emit()
	return tables
}

func gridOf(rows []row) [][]string {
	widest := rows[0]
	for _, r := range rows[1:] {
		if len(r.Cells) > len(widest.Cells) {
			widest = r
		}
	}
	anchors := make([]float64, len(widest.Cells))
	for i, c := range widest.Cells {
		anchors[i] = c.X0
	}

	grid := make([][]string, 0, len(rows))
	for _, r := range rows {
		out := make([]string, len(anchors))
		for _, c := range r.Cells {
			col := nearest(anchors, c.X0)
			if out[col] != "" {
				out[col] += " " + c.Text
			} else {
				out[col] = c.Text
			}
		}
		grid = append(grid, out)
	}
	return grid
}

func nearest(anchors []float64, x float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, a := range anchors {
		if d := math.Abs(a - x); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
