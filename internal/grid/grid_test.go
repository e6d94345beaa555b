package grid

import (
	"math/rand"
	"testing"

	"vibetab/internal/model"
)

func item(id string, x, y, w, h int) model.Item {
	return model.Item{ID: id, X: x, Y: y, W: w, H: h}
}

func TestIsValidPosition(t *testing.T) {
	t.Parallel()

	m := New(12, 10)
	tests := []struct {
		name string
		it   model.Item
		want bool
	}{
		{name: "origin", it: item("a", 0, 0, 1, 1), want: true},
		{name: "fills extent", it: item("a", 0, 0, 12, 10), want: true},
		{name: "negative x", it: item("a", -1, 0, 2, 2), want: false},
		{name: "negative y", it: item("a", 0, -1, 2, 2), want: false},
		{name: "past right edge", it: item("a", 11, 0, 2, 1), want: false},
		{name: "past bottom edge", it: item("a", 0, 9, 1, 2), want: false},
		{name: "touches bottom-right corner", it: item("a", 10, 8, 2, 2), want: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := m.IsValidPosition(tt.it); got != tt.want {
				t.Fatalf("IsValidPosition(%+v) = %v, want %v", tt.it.Rect(), got, tt.want)
			}
		})
	}
}

func TestCheckCollision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b model.Item
		want bool
	}{
		{name: "overlap", a: item("a", 0, 0, 2, 2), b: item("b", 1, 1, 2, 2), want: true},
		{name: "edge adjacent horizontally", a: item("a", 0, 0, 2, 2), b: item("b", 2, 0, 2, 2), want: false},
		{name: "edge adjacent vertically", a: item("a", 0, 0, 2, 2), b: item("b", 0, 2, 2, 2), want: false},
		{name: "contained", a: item("a", 0, 0, 6, 6), b: item("b", 2, 2, 1, 1), want: true},
		{name: "same id never collides", a: item("a", 0, 0, 2, 2), b: item("a", 0, 0, 2, 2), want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CheckCollision(tt.a, tt.b); got != tt.want {
				t.Fatalf("CheckCollision = %v, want %v", got, tt.want)
			}
			if got := CheckCollision(tt.b, tt.a); got != tt.want {
				t.Fatalf("CheckCollision (swapped) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindCollision_ReturnsFirstInListOrder(t *testing.T) {
	t.Parallel()

	m := New(12, 100)
	items := []model.Item{
		item("far", 10, 10, 1, 1),
		item("first", 0, 0, 2, 2),
		item("second", 1, 1, 2, 2),
	}
	got, ok := m.FindCollision(item("new", 1, 0, 2, 2), items)
	if !ok || got.ID != "first" {
		t.Fatalf("expected collision with first, got %q ok=%v", got.ID, ok)
	}
	if _, ok := m.FindCollision(item("new", 5, 5, 1, 1), items); ok {
		t.Fatalf("expected no collision")
	}
}

func TestFindEmptySlot(t *testing.T) {
	t.Parallel()

	m := New(12, 100)

	if got := m.FindEmptySlot(nil, 3, 2); got != (model.Position{X: 0, Y: 0}) {
		t.Fatalf("empty layout: got %+v want {0 0}", got)
	}

	fullRow := []model.Item{item("clock", 0, 0, 12, 2)}
	if got := m.FindEmptySlot(fullRow, 3, 2); got != (model.Position{X: 0, Y: 2}) {
		t.Fatalf("full first rows: got %+v want {0 2}", got)
	}

	partial := []model.Item{item("a", 0, 0, 4, 2), item("b", 7, 0, 5, 1)}
	if got := m.FindEmptySlot(partial, 3, 2); got != (model.Position{X: 4, Y: 0}) {
		t.Fatalf("gap between items: got %+v want {4 0}", got)
	}
}

func TestFindEmptySlot_FallsBackBelowLastRow(t *testing.T) {
	t.Parallel()

	m := New(4, 4)
	items := []model.Item{item("a", 0, 0, 4, 3), item("b", 0, 3, 2, 1)}
	got := m.FindEmptySlot(items, 3, 1)
	if got != (model.Position{X: 0, Y: 5}) {
		t.Fatalf("got %+v want {0 5}", got)
	}
}

func TestFindEmptySlot_Deterministic(t *testing.T) {
	t.Parallel()

	m := New(12, 100)
	items := []model.Item{item("a", 0, 0, 5, 3), item("b", 6, 1, 3, 3)}
	first := m.FindEmptySlot(items, 2, 2)
	for i := 0; i < 20; i++ {
		if got := m.FindEmptySlot(items, 2, 2); got != first {
			t.Fatalf("call %d: got %+v want %+v", i, got, first)
		}
	}
}

func TestFindNearestEmptySlot(t *testing.T) {
	t.Parallel()

	m := New(12, 100)

	t.Run("free target is returned as-is", func(t *testing.T) {
		items := []model.Item{item("a", 0, 0, 6, 2)}
		if got := m.FindNearestEmptySlot(items, 7, 0, 3, 2, ""); got != (model.Position{X: 7, Y: 0}) {
			t.Fatalf("got %+v want {7 0}", got)
		}
	})

	t.Run("moving item does not block itself", func(t *testing.T) {
		items := []model.Item{item("a", 0, 0, 6, 2), item("moving", 0, 2, 6, 2)}
		got := m.FindNearestEmptySlot(items, 0, 0, 6, 2, "moving")
		if got != (model.Position{X: 0, Y: 2}) {
			t.Fatalf("got %+v want {0 2}", got)
		}
	})

	t.Run("prefers the nearest ring", func(t *testing.T) {
		items := []model.Item{
			item("a", 0, 0, 6, 2),
			item("wall", 0, 2, 12, 6),
			item("moving", 0, 8, 6, 2),
		}
		got := m.FindNearestEmptySlot(items, 0, 0, 6, 2, "moving")
		if got != (model.Position{X: 6, Y: 0}) {
			t.Fatalf("got %+v want {6 0}", got)
		}
	})

	t.Run("minimum euclidean distance within a ring", func(t *testing.T) {
		// Ring 2 around (2,2) offers (0,2) at distance 2 and corners at distance ~2.83.
		mm := New(5, 5)
		items := []model.Item{item("block", 1, 1, 3, 3)}
		got := mm.FindNearestEmptySlot(items, 2, 2, 1, 1, "")
		if got != (model.Position{X: 2, Y: 0}) {
			t.Fatalf("got %+v want {2 0}", got)
		}
	})

	t.Run("exhausted search returns target", func(t *testing.T) {
		mm := New(4, 4)
		items := []model.Item{item("all", 0, 0, 4, 4)}
		got := mm.FindNearestEmptySlot(items, 1, 1, 2, 2, "")
		if got != (model.Position{X: 1, Y: 1}) {
			t.Fatalf("got %+v want {1 1}", got)
		}
	})
}

func TestClampPosition(t *testing.T) {
	t.Parallel()

	m := New(12, 10)
	tests := []struct {
		x, y, w, h int
		want       model.Position
	}{
		{x: -3, y: -1, w: 2, h: 2, want: model.Position{X: 0, Y: 0}},
		{x: 11, y: 9, w: 2, h: 2, want: model.Position{X: 10, Y: 8}},
		{x: 4, y: 4, w: 2, h: 2, want: model.Position{X: 4, Y: 4}},
		{x: 5, y: 5, w: 20, h: 20, want: model.Position{X: 0, Y: 0}},
	}
	for _, tt := range tests {
		got := m.ClampPosition(tt.x, tt.y, tt.w, tt.h)
		if got != tt.want {
			t.Fatalf("ClampPosition(%d,%d,%d,%d) = %+v, want %+v", tt.x, tt.y, tt.w, tt.h, got, tt.want)
		}
	}
}

func TestClampPosition_Idempotent(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(7))
	m := New(12, 30)
	for i := 0; i < 500; i++ {
		x, y := r.Intn(60)-20, r.Intn(60)-20
		w, h := 1+r.Intn(14), 1+r.Intn(14)
		once := m.ClampPosition(x, y, w, h)
		twice := m.ClampPosition(once.X, once.Y, w, h)
		if once != twice {
			t.Fatalf("clamp not idempotent for (%d,%d,%d,%d): %+v then %+v", x, y, w, h, once, twice)
		}
	}
}

func TestSetDimensions(t *testing.T) {
	t.Parallel()

	m := New(DefaultColumns, DefaultRows)
	it := item("a", 10, 0, 4, 1)
	if m.IsValidPosition(it) {
		t.Fatalf("expected invalid on 12 columns")
	}
	m.SetDimensions(20, 5)
	if !m.IsValidPosition(it) {
		t.Fatalf("expected valid on 20 columns")
	}
	if b := m.Bounds(); b.Columns != 20 || b.Rows != 5 {
		t.Fatalf("unexpected bounds %+v", b)
	}
}
