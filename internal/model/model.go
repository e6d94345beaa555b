package model

import (
	"encoding/json"
	"time"
)

// Item is a widget placed on the grid. Geometry is in whole cells, top-left origin.
type Item struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`

	// Optional size constraints. Zero means unconstrained (W and H never go below 1).
	MinW int `json:"minW,omitempty"`
	MinH int `json:"minH,omitempty"`
	MaxW int `json:"maxW,omitempty"`
	MaxH int `json:"maxH,omitempty"`

	Locked bool `json:"locked,omitempty"`
	ZIndex int  `json:"zIndex"`

	// Legacy field (migrated to Locked on load).
	LegacyIsLocked *bool `json:"isLocked,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Config is the per-kind payload. The layout engine never looks inside it.
	Config json.RawMessage `json:"config,omitempty"`
}

// Clone returns a copy of it that shares no memory with the original.
func (it Item) Clone() Item {
	out := it
	if it.Config != nil {
		out.Config = append(json.RawMessage(nil), it.Config...)
	}
	if it.LegacyIsLocked != nil {
		v := *it.LegacyIsLocked
		out.LegacyIsLocked = &v
	}
	return out
}

func (it Item) Position() Position { return Position{X: it.X, Y: it.Y} }

func (it Item) Size() Size { return Size{W: it.W, H: it.H} }

// Rect returns the item's geometry.
func (it Item) Rect() Rect { return Rect{X: it.X, Y: it.Y, W: it.W, H: it.H} }

// WithRect returns a copy of it with its geometry replaced by r.
func (it Item) WithRect(r Rect) Item {
	it.X, it.Y, it.W, it.H = r.X, r.Y, r.W, r.H
	return it
}

// CloneItems deep-copies a slice of items. A nil input yields an empty, non-nil slice.
func CloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	return out
}

// MigrateLegacy moves legacy fields into their current location. It reports whether anything changed.
func MigrateLegacy(items []Item) bool {
	changed := false
	for i := range items {
		it := &items[i]
		if it.LegacyIsLocked != nil {
			if *it.LegacyIsLocked {
				it.Locked = true
			}
			it.LegacyIsLocked = nil
			changed = true
		}
	}
	return changed
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Overlaps reports whether r and o share at least one cell.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && r.X+r.W > o.X && r.Y < o.Y+o.H && r.Y+r.H > o.Y
}

// Bounds is the addressable grid extent.
type Bounds struct {
	Columns int `json:"columns"`
	Rows    int `json:"rows"`
}

// Policy selects how a placement that overlaps another item is resolved.
type Policy string

const (
	// PolicyReject aborts the mutation. Used for direct drag moves.
	PolicyReject Policy = "reject"
	// PolicyDisplace relocates the placement to the nearest free slot.
	PolicyDisplace Policy = "displace"
)

func ParsePolicy(s string) (Policy, bool) {
	switch Policy(s) {
	case "", PolicyReject:
		return PolicyReject, true
	case PolicyDisplace:
		return PolicyDisplace, true
	default:
		return "", false
	}
}

// Anchor names an alignment target for PositionWidget.
type Anchor string

const (
	AnchorCenter      Anchor = "center"
	AnchorLeft        Anchor = "left"
	AnchorRight       Anchor = "right"
	AnchorTop         Anchor = "top"
	AnchorBottom      Anchor = "bottom"
	AnchorTopLeft     Anchor = "top-left"
	AnchorTopRight    Anchor = "top-right"
	AnchorBottomLeft  Anchor = "bottom-left"
	AnchorBottomRight Anchor = "bottom-right"
)

func Anchors() []Anchor {
	return []Anchor{
		AnchorCenter,
		AnchorLeft,
		AnchorRight,
		AnchorTop,
		AnchorBottom,
		AnchorTopLeft,
		AnchorTopRight,
		AnchorBottomLeft,
		AnchorBottomRight,
	}
}

func ParseAnchor(s string) (Anchor, bool) {
	for _, a := range Anchors() {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}
