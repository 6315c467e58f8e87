package extract

import (
	"math"
	"sort"
	"strings"

	"shipgraph/backend/internal/survey"
)

// Glyph is one positioned run of text on a line
type Glyph struct {
	X        float64
	W        float64
	FontSize float64
	Text     string
}

// Line is the text found at one vertical position of a page, left to right
type Line struct {
	Glyphs []Glyph
}

// Layout holds the gap thresholds, as multiples of the font size, used to
// split lines into words and cells
type Layout struct {
	// WordGap joins glyphs closer than this without a space
	WordGap float64
	// CellGap starts a new cell when glyphs are further apart than this
	CellGap float64
	// MinRows is the number of consecutive multi-cell lines that make a table
	MinRows int
}

// DefaultLayout suits the single-column survey forms this system reads
var DefaultLayout = Layout{WordGap: 0.15, CellGap: 1.5, MinRows: 2}

type cell struct {
	x    float64
	text string
}

// cells splits a line into cells by horizontal gaps
func (l Layout) cells(line Line) []cell {
	glyphs := append([]Glyph(nil), line.Glyphs...)
	sort.SliceStable(glyphs, func(i, j int) bool { return glyphs[i].X < glyphs[j].X })

	var out []cell
	var b strings.Builder
	start, end := 0.0, 0.0
	flush := func() {
		if text := strings.TrimSpace(b.String()); text != "" {
			out = append(out, cell{x: start, text: text})
		}
		b.Reset()
	}

	for i, g := range glyphs {
		size := g.FontSize
		if size <= 0 {
			size = 10
		}
		if i > 0 {
			gap := g.X - end
			switch {
			case gap > l.CellGap*size:
				flush()
				start = g.X
			case gap > l.WordGap*size:
				b.WriteByte(' ')
			}
		} else {
			start = g.X
		}
		b.WriteString(g.Text)
		end = math.Max(end, g.X+g.W)
	}
	flush()
	return out
}

// Tables groups the lines of one page into tables. A table is a run of at
// least MinRows consecutive lines that each split into two or more cells.
// Cells are aligned to the columns of the widest row; columns a row has no
// text for are left empty.
func (l Layout) Tables(page int, lines []Line) []survey.RawTable {
	var tables []survey.RawTable
	var run [][]cell

	emit := func() {
		if len(run) >= l.MinRows {
			tables = append(tables, survey.RawTable{
				Page:        page,
				TableNumber: len(tables) + 1,
				Table:       align(run),
			})
		}
		run = nil
	}

	for _, line := range lines {
		cs := l.cells(line)
		if len(cs) < 2 {
			emit()
			continue
		}
		run = append(run, cs)
	}
	emit()
	return tables
}

func align(run [][]cell) []survey.Row {
	widest := run[0]
	for _, cs := range run[1:] {
		if len(cs) > len(widest) {
			widest = cs
		}
	}
	anchors := make([]float64, len(widest))
	for i, c := range widest {
		anchors[i] = c.x
	}

	rows := make([]survey.Row, 0, len(run))
	for _, cs := range run {
		row := make(survey.Row, len(anchors))
		next := 0
		for _, c := range cs {
			col := nearest(anchors, c.x, next)
			if row[col] != "" {
				row[col] += " " + c.text
			} else {
				row[col] = c.text
			}
			next = col + 1
			if next >= len(anchors) {
				next = len(anchors) - 1
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// nearest returns the column at or after from whose anchor is closest to x
func nearest(anchors []float64, x float64, from int) int {
	best := from
	for i := from; i < len(anchors); i++ {
		if math.Abs(anchors[i]-x) < math.Abs(anchors[best]-x) {
			best = i
		}
	}
	return best
}
