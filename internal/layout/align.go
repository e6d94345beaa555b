package layout

import (
	"fmt"

	"vibetab/internal/model"
)

// AnchorPosition computes where an item of size w×h lands for anchor inside the extent.
// Centred axes use floor((extent-size)/2); edge axes use 0 or extent-size.
func AnchorPosition(anchor model.Anchor, w, h int, b model.Bounds) (model.Position, error) {
	left, right := 0, b.Columns-w
	top, bottom := 0, b.Rows-h
	midX, midY := floorHalf(b.Columns-w), floorHalf(b.Rows-h)

	var p model.Position
	switch anchor {
	case model.AnchorCenter:
		p = model.Position{X: midX, Y: midY}
	case model.AnchorLeft:
		p = model.Position{X: left, Y: midY}
	case model.AnchorRight:
		p = model.Position{X: right, Y: midY}
	case model.AnchorTop:
		p = model.Position{X: midX, Y: top}
	case model.AnchorBottom:
		p = model.Position{X: midX, Y: bottom}
	case model.AnchorTopLeft:
		p = model.Position{X: left, Y: top}
	case model.AnchorTopRight:
		p = model.Position{X: right, Y: top}
	case model.AnchorBottomLeft:
		p = model.Position{X: left, Y: bottom}
	case model.AnchorBottomRight:
		p = model.Position{X: right, Y: bottom}
	default:
		return model.Position{}, fmt.Errorf("%w: unknown anchor %q", ErrInvalid, anchor)
	}
	p.X = max(0, p.X)
	p.Y = max(0, p.Y)
	return p, nil
}

// PositionWidget moves an item to a named anchor. The placement is never displaced: if the
// anchor position is taken the item stays where it is and a collision error is returned.
func (e *Engine) PositionWidget(id string, anchor model.Anchor) (model.Item, error) {
	i := e.indexOf(id)
	if i < 0 {
		return model.Item{}, NotFoundError{Kind: "widget", ID: id}
	}
	it := e.items[i]
	w, h := min(it.W, e.grid.Columns()), min(it.H, e.grid.Rows())
	p, err := AnchorPosition(anchor, w, h, e.grid.Bounds())
	if err != nil {
		return model.Item{}, err
	}
	p = e.grid.ClampPosition(p.X, p.Y, w, h)
	return e.Update(id, Geometry{X: &p.X, Y: &p.Y}, model.PolicyReject)
}

func floorHalf(v int) int {
	if v < 0 {
		return -((-v + 1) / 2)
	}
	return v / 2
}
