// Package gridconfig turns viewport pixels into a discrete grid extent and keeps a zoom factor
// that only moves when the viewport changes substantially on both axes.
package gridconfig

import (
	"math"

	"vibetab/internal/model"
)

const (
	DefaultBaseCellPx = 16
	DefaultGap        = 2

	MinBaseCellPx = 8
	MaxBaseCellPx = 48
)

type Dimensions struct {
	Cols        int `json:"cols"`
	Rows        int `json:"rows"`
	CellPx      int `json:"cellPx"`
	TotalWidth  int `json:"totalWidth"`
	TotalHeight int `json:"totalHeight"`
}

func (d Dimensions) Bounds() model.Bounds {
	return model.Bounds{Columns: d.Cols, Rows: d.Rows}
}

// ZoomState is the current zoom factor plus the viewport size it was last settled at.
type ZoomState struct {
	Factor       float64 `json:"factor"`
	StableWidth  int     `json:"stableWidth"`
	StableHeight int     `json:"stableHeight"`
}

type ZoomConfig struct {
	Threshold float64 `json:"threshold"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Step      float64 `json:"step"`
}

func DefaultZoomConfig() ZoomConfig {
	return ZoomConfig{Threshold: 0.1, Min: 0.7, Max: 1.0, Step: 0.05}
}

// withDefaults fills zero fields from DefaultZoomConfig.
func (c ZoomConfig) withDefaults() ZoomConfig {
	d := DefaultZoomConfig()
	if c.Threshold <= 0 {
		c.Threshold = d.Threshold
	}
	if c.Min <= 0 {
		c.Min = d.Min
	}
	if c.Max <= 0 {
		c.Max = d.Max
	}
	if c.Step <= 0 {
		c.Step = d.Step
	}
	if c.Min > c.Max {
		c.Min, c.Max = c.Max, c.Min
	}
	return c
}

// ComputeDimensions derives the grid extent for a viewport. The scaled cell never drops below 1px.
func ComputeDimensions(viewportW, viewportH, baseCellPx int, zoom float64, gap int) Dimensions {
	cellPx := int(math.Floor(float64(baseCellPx) * zoom))
	if cellPx < 1 {
		cellPx = 1
	}
	if gap < 0 {
		gap = 0
	}
	effective := cellPx + gap

	cols := max(1, floorDiv(viewportW+gap, effective))
	rows := max(1, floorDiv(viewportH+gap, effective))

	return Dimensions{
		Cols:        cols,
		Rows:        rows,
		CellPx:      cellPx,
		TotalWidth:  CellsToPx(cols, cellPx, gap),
		TotalHeight: CellsToPx(rows, cellPx, gap),
	}
}

// PxToCells converts a pixel distance to the nearest whole number of cells. Halves round up,
// matching how the browser front end snapped drags.
func PxToCells(px, cellPx, gap int) int {
	effective := cellPx + gap
	if effective <= 0 {
		return 0
	}
	return int(math.Floor(float64(px+gap)/float64(effective) + 0.5))
}

func CellsToPx(cells, cellPx, gap int) int {
	return cells*cellPx + (cells-1)*gap
}

// ComputeZoom advances the zoom hysteresis. The zoom steps down when the viewport has grown
// past the threshold on both axes since the last stable size, and steps up when it has shrunk
// on both axes. Single-axis changes (a sidebar opening) never move it.
// The previous viewport size is accepted for callers that track it but does not take part.
func ComputeZoom(prevW, prevH, curW, curH int, cur ZoomState, cfg ZoomConfig) ZoomState {
	cfg = cfg.withDefaults()

	if cur.StableWidth == 0 || cur.StableHeight == 0 {
		return ZoomState{Factor: cur.Factor, StableWidth: curW, StableHeight: curH}
	}

	widthDelta := float64(curW-cur.StableWidth) / float64(cur.StableWidth)
	heightDelta := float64(curH-cur.StableHeight) / float64(cur.StableHeight)

	switch {
	case widthDelta > cfg.Threshold && heightDelta > cfg.Threshold:
		return ZoomState{
			Factor:       roundZoom(math.Max(cfg.Min, cur.Factor-cfg.Step)),
			StableWidth:  curW,
			StableHeight: curH,
		}
	case widthDelta < -cfg.Threshold && heightDelta < -cfg.Threshold:
		return ZoomState{
			Factor:       roundZoom(math.Min(cfg.Max, cur.Factor+cfg.Step)),
			StableWidth:  curW,
			StableHeight: curH,
		}
	default:
		return cur
	}
}

// ClampItemBounds fits an item into a cols×rows extent, shrinking it first if it is larger
// than the extent and then pulling it inside.
func ClampItemBounds(it model.Item, cols, rows int) model.Rect {
	w := min(it.W, cols)
	h := min(it.H, rows)
	return model.Rect{
		X: max(0, min(it.X, cols-w)),
		Y: max(0, min(it.Y, rows-h)),
		W: w,
		H: h,
	}
}

func IsWithinBounds(x, y, w, h, cols, rows int) bool {
	return x >= 0 && y >= 0 && x+w <= cols && y+h <= rows
}

// ClampBaseCellPx keeps a user-chosen base cell size in the supported range.
func ClampBaseCellPx(px int) int {
	return max(MinBaseCellPx, min(MaxBaseCellPx, px))
}

// roundZoom strips float noise from repeated ±step arithmetic (0.95 - 0.05 = 0.8999...).
func roundZoom(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}

func floorDiv(a, b int) int {
	return int(math.Floor(float64(a) / float64(b)))
}
