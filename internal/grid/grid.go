// Package grid answers spatial questions about items on a cell grid: bounds, overlap,
// free-slot search and clamping. It holds only the grid extent, never the items.
package grid

import (
	"math"

	"vibetab/internal/model"
)

const (
	DefaultColumns = 12
	DefaultRows    = 100
)

type Manager struct {
	columns int
	rows    int
}

func New(columns, rows int) *Manager {
	return &Manager{columns: columns, rows: rows}
}

// SetDimensions changes the extent used by later queries. Existing items are not re-validated.
func (m *Manager) SetDimensions(columns, rows int) {
	m.columns = columns
	m.rows = rows
}

func (m *Manager) Columns() int { return m.columns }

func (m *Manager) Rows() int { return m.rows }

func (m *Manager) Bounds() model.Bounds {
	return model.Bounds{Columns: m.columns, Rows: m.rows}
}

// IsValidPosition reports whether the item lies fully inside the extent. Rows are a hard ceiling.
func (m *Manager) IsValidPosition(it model.Item) bool {
	return it.X >= 0 &&
		it.Y >= 0 &&
		it.X+it.W <= m.columns &&
		it.Y+it.H <= m.rows
}

// CheckCollision reports whether a and b overlap. Items sharing an ID never collide.
func CheckCollision(a, b model.Item) bool {
	if a.ID == b.ID {
		return false
	}
	return a.Rect().Overlaps(b.Rect())
}

// FindCollision returns the first item, in slice order, that overlaps target.
func (m *Manager) FindCollision(target model.Item, items []model.Item) (model.Item, bool) {
	for _, it := range items {
		if CheckCollision(target, it) {
			return it, true
		}
	}
	return model.Item{}, false
}

// FindEmptySlot returns the first w×h free area in row-major order (top row first, then
// left to right). When nothing fits inside the extent it returns the row just below the
// lowest item, which may lie outside the extent.
func (m *Manager) FindEmptySlot(items []model.Item, w, h int) model.Position {
	occ := newOccupancy(items)
	for y := 0; y < m.rows; y++ {
		for x := 0; x <= m.columns-w; x++ {
			if occ.areaEmpty(x, y, w, h) {
				return model.Position{X: x, Y: y}
			}
		}
	}
	return model.Position{X: 0, Y: LastRow(items) + 1}
}

// FindNearestEmptySlot searches rings of growing Chebyshev radius around the target and
// returns the free position closest (Euclidean) to it within the first ring that has one.
// excludeID removes an item from the occupancy map, so a moving item does not block itself.
// If no position fits, the target is returned unchanged and the caller must treat the
// placement as rejected.
func (m *Manager) FindNearestEmptySlot(items []model.Item, targetX, targetY, w, h int, excludeID string) model.Position {
	check := items
	if excludeID != "" {
		check = make([]model.Item, 0, len(items))
		for _, it := range items {
			if it.ID != excludeID {
				check = append(check, it)
			}
		}
	}
	occ := newOccupancy(check)

	best := model.Position{X: targetX, Y: targetY}
	minDist := math.Inf(1)

	radius := max(m.columns, m.rows)
	for dist := 0; dist <= radius; dist++ {
		for dy := -dist; dy <= dist; dy++ {
			for dx := -dist; dx <= dist; dx++ {
				if abs(dx) != dist && abs(dy) != dist {
					continue
				}
				x := targetX + dx
				y := targetY + dy
				if x < 0 || x+w > m.columns || y < 0 || y+h > m.rows {
					continue
				}
				if !occ.areaEmpty(x, y, w, h) {
					continue
				}
				d := math.Hypot(float64(dx), float64(dy))
				if d < minDist {
					minDist = d
					best = model.Position{X: x, Y: y}
				}
			}
		}
		if !math.IsInf(minDist, 1) {
			break
		}
	}
	return best
}

// ClampPosition pulls (x, y) into the extent for an item of size w×h.
func (m *Manager) ClampPosition(x, y, w, h int) model.Position {
	return model.Position{
		X: max(0, min(x, m.columns-w)),
		Y: max(0, min(y, m.rows-h)),
	}
}

// LastRow returns the first row below every item (0 for an empty layout).
func LastRow(items []model.Item) int {
	last := 0
	for _, it := range items {
		last = max(last, it.Y+it.H)
	}
	return last
}

type cell struct {
	x, y int
}

type occupancy map[cell]struct{}

func newOccupancy(items []model.Item) occupancy {
	occ := occupancy{}
	for _, it := range items {
		for dy := 0; dy < it.H; dy++ {
			for dx := 0; dx < it.W; dx++ {
				occ[cell{x: it.X + dx, y: it.Y + dy}] = struct{}{}
			}
		}
	}
	return occ
}

func (o occupancy) areaEmpty(x, y, w, h int) bool {
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			if _, ok := o[cell{x: x + dx, y: y + dy}]; ok {
				return false
			}
		}
	}
	return true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
