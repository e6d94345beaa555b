package tui

import (
	"strings"

	"vibetab/internal/model"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

type cellStyle uint8

const (
	cellEmpty cellStyle = iota
	cellWidget
	cellLabel
	cellSelected
	cellLocked
	cellStyleCount
)

// canvas maps a cols x rows grid onto width x height terminal cells. Grid cells are usually
// smaller than terminal cells, so a widget covers at least one terminal cell in each axis.
type canvas struct {
	cols, rows    int
	width, height int
	runes         [][]rune
	styles        [][]cellStyle
}

func newCanvas(b model.Bounds, width, height int) *canvas {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	c := &canvas{cols: max(b.Columns, 1), rows: max(b.Rows, 1), width: width, height: height}
	c.runes = make([][]rune, height)
	c.styles = make([][]cellStyle, height)
	for y := range c.runes {
		c.runes[y] = []rune(strings.Repeat("·", width))
		c.styles[y] = make([]cellStyle, width)
	}
	return c
}

// span converts a grid interval [start, start+size) to inclusive terminal coordinates.
func span(start, size, gridLen, termLen int) (int, int) {
	lo := start * termLen / gridLen
	hi := (start+size)*termLen/gridLen - 1
	if hi < lo {
		hi = lo
	}
	if hi >= termLen {
		hi = termLen - 1
	}
	if lo >= termLen {
		lo = termLen - 1
	}
	return lo, hi
}

func (c *canvas) set(x, y int, r rune, st cellStyle) {
	if y < 0 || y >= c.height || x < 0 || x >= c.width {
		return
	}
	c.runes[y][x] = r
	c.styles[y][x] = st
}

// draw paints it as a box with its label. Widgets too small for a box are filled solid.
func (c *canvas) draw(it model.Item, label string, selected bool) {
	x0, x1 := span(it.X, it.W, c.cols, c.width)
	y0, y1 := span(it.Y, it.H, c.rows, c.height)

	border := cellWidget
	switch {
	case selected:
		border = cellSelected
	case it.Locked:
		border = cellLocked
	}

	if x1-x0 < 1 || y1-y0 < 1 {
		fill := '▪'
		if selected {
			fill = '■'
		}
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				c.set(x, y, fill, border)
			}
		}
		return
	}

	hz, vt := '─', '│'
	tl, tr, bl, br := '┌', '┐', '└', '┘'
	if selected {
		hz, vt = '━', '┃'
		tl, tr, bl, br = '┏', '┓', '┗', '┛'
	}
	for x := x0 + 1; x < x1; x++ {
		c.set(x, y0, hz, border)
		c.set(x, y1, hz, border)
	}
	for y := y0 + 1; y < y1; y++ {
		c.set(x0, y, vt, border)
		c.set(x1, y, vt, border)
		for x := x0 + 1; x < x1; x++ {
			c.set(x, y, ' ', cellLabel)
		}
	}
	c.set(x0, y0, tl, border)
	c.set(x1, y0, tr, border)
	c.set(x0, y1, bl, border)
	c.set(x1, y1, br, border)

	// Label on the top border when the box has no interior row.
	ly := y0 + 1
	if y1-y0 < 2 {
		ly = y0
	}
	room := x1 - x0 - 1
	for i, r := range []rune(label) {
		if i >= room {
			break
		}
		c.set(x0+1+i, ly, r, cellLabel)
	}
}

// render emits the canvas, styling runs of equal style together.
func (c *canvas) render(styles [cellStyleCount]lipgloss.Style) string {
	var b strings.Builder
	for y := range c.runes {
		if y > 0 {
			b.WriteByte('\n')
		}
		row, sts := c.runes[y], c.styles[y]
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && sts[x] == sts[start] {
				continue
			}
			b.WriteString(styles[sts[start]].Render(string(row[start:x])))
			start = x
		}
	}
	return b.String()
}

// normalizePane forces s to be exactly width columns wide (ANSI-aware) and height lines tall.
func normalizePane(s string, width, height int) string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}

	for i, ln := range lines {
		w := xansi.StringWidth(ln)
		if w > width {
			switch {
			case width <= 0:
				ln = ""
			case width == 1:
				ln = xansi.Cut(ln, 0, 1)
			default:
				ln = xansi.Cut(ln, 0, width-1) + "…"
			}
			w = xansi.StringWidth(ln)
		}
		if w < width {
			ln += strings.Repeat(" ", width-w)
		}
		lines[i] = ln
	}
	return strings.Join(lines, "\n")
}
