package layout

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"vibetab/internal/model"
)

var testNow = time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC)

func item(id string, x, y, w, h int) model.Item {
	return model.Item{ID: id, Type: "clock", X: x, Y: y, W: w, H: h}
}

func newTestEngine(t *testing.T, b model.Bounds, items ...model.Item) *Engine {
	t.Helper()
	n := 0
	return New(items, Options{
		Bounds: b,
		Now:    func() time.Time { return testNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("gen-%d", n)
		},
	})
}

func mustPos(t *testing.T, e *Engine, id string, want model.Position) {
	t.Helper()
	it, err := e.Item(id)
	if err != nil {
		t.Fatalf("Item(%s): %v", id, err)
	}
	if it.Position() != want {
		t.Fatalf("%s at %+v, want %+v", id, it.Position(), want)
	}
}

func TestAdd(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, model.Bounds{Columns: 12, Rows: 100})

	got, err := e.Add(model.Item{Type: "clock", W: 6, H: 2}, model.PolicyReject)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got.ID != "gen-1" || !got.CreatedAt.Equal(testNow) || !got.UpdatedAt.Equal(testNow) {
		t.Fatalf("unexpected item %+v", got)
	}

	_, err = e.Add(item("b", 2, 1, 4, 2), model.PolicyReject)
	var ce *CollisionError
	if !errors.As(err, &ce) || !errors.Is(err, ErrCollision) {
		t.Fatalf("expected collision, got %v", err)
	}
	if ce.ItemID != "b" || ce.WithID != "gen-1" {
		t.Fatalf("collision = %+v", ce)
	}

	got, err = e.Add(item("b", 0, 0, 6, 2), model.PolicyDisplace)
	if err != nil {
		t.Fatalf("displaced add: %v", err)
	}
	if got.Position() != (model.Position{X: 0, Y: 2}) {
		t.Fatalf("displaced add landed at %+v", got.Position())
	}

	if _, err := e.Add(item("b", 0, 10, 1, 1), model.PolicyReject); !errors.Is(err, ErrInvalid) {
		t.Fatalf("duplicate id: got %v", err)
	}
	if _, err := e.Add(model.Item{ID: "c", W: 1, H: 1}, model.PolicyReject); !errors.Is(err, ErrInvalid) {
		t.Fatalf("missing type: got %v", err)
	}
	if _, err := e.Add(item("c", 10, 0, 4, 1), model.PolicyReject); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("out of bounds: got %v", err)
	}
	if len(e.Items()) != 2 {
		t.Fatalf("rejected adds must not change state: %d items", len(e.Items()))
	}
}

func TestAdd_ClampsToExtentAndConstraints(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, model.Bounds{Columns: 12, Rows: 10})
	got, err := e.Add(item("wide", 0, 0, 40, 0), model.PolicyReject)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got.W != 12 || got.H != 1 {
		t.Fatalf("size = %dx%d, want 12x1", got.W, got.H)
	}

	it := item("min", 0, 2, 1, 1)
	it.MinW, it.MinH, it.MaxW = 3, 2, 4
	got, err = e.Add(it, model.PolicyReject)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got.W != 3 || got.H != 2 {
		t.Fatalf("size = %dx%d, want 3x2", got.W, got.H)
	}
	got, err = e.Resize("min", 9, 2, model.PolicyReject)
	if err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if got.W != 4 {
		t.Fatalf("max width not applied: %d", got.W)
	}
}

func TestMove(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, model.Bounds{Columns: 12, Rows: 100},
		item("a", 0, 0, 6, 2),
		item("b", 0, 2, 6, 2),
	)

	if _, err := e.Move("b", 3, 0, model.PolicyReject); !errors.Is(err, ErrCollision) {
		t.Fatalf("expected collision, got %v", err)
	}
	mustPos(t, e, "b", model.Position{X: 0, Y: 2})
	if e.CanUndo() {
		t.Fatalf("rejected move must not record history")
	}

	if _, err := e.Move("b", 8, 0, model.PolicyReject); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected out of bounds, got %v", err)
	}
	if _, err := e.Move("nope", 0, 0, model.PolicyReject); !errors.As(err, new(NotFoundError)) {
		t.Fatalf("expected not found, got %v", err)
	}

	got, err := e.Move("b", 6, 0, model.PolicyReject)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if got.Position() != (model.Position{X: 6, Y: 0}) || !got.UpdatedAt.Equal(testNow) {
		t.Fatalf("moved item = %+v", got)
	}
	if !e.CanUndo() {
		t.Fatalf("committed move should be undoable")
	}
}

func TestMove_DisplaceToNearest(t *testing.T) {
	t.Parallel()

	t.Run("own slot is nearest", func(t *testing.T) {
		e := newTestEngine(t, model.Bounds{Columns: 12, Rows: 100},
			item("a", 0, 0, 6, 2),
			item("b", 0, 2, 6, 2),
		)
		if _, err := e.Move("b", 0, 0, model.PolicyDisplace); err != nil {
			t.Fatalf("Move: %v", err)
		}
		mustPos(t, e, "b", model.Position{X: 0, Y: 2})
		if e.CanUndo() {
			t.Fatalf("displacement back onto the current slot is a no-op")
		}
	})

	t.Run("beside the obstacle", func(t *testing.T) {
		e := newTestEngine(t, model.Bounds{Columns: 12, Rows: 100},
			item("a", 0, 0, 6, 2),
			item("wall", 0, 2, 12, 6),
			item("b", 0, 8, 6, 2),
		)
		if _, err := e.Move("b", 0, 0, model.PolicyDisplace); err != nil {
			t.Fatalf("Move: %v", err)
		}
		mustPos(t, e, "b", model.Position{X: 6, Y: 0})
	})

	t.Run("no room rejects", func(t *testing.T) {
		e := newTestEngine(t, model.Bounds{Columns: 4, Rows: 4},
			item("a", 0, 0, 4, 3),
			item("b", 0, 3, 2, 1),
		)
		_, err := e.Resize("b", 2, 2, model.PolicyDisplace)
		if !errors.Is(err, ErrOutOfBounds) && !errors.Is(err, ErrCollision) {
			t.Fatalf("expected rejection, got %v", err)
		}
		it, _ := e.Item("b")
		if it.Rect() != (model.Rect{X: 0, Y: 3, W: 2, H: 1}) {
			t.Fatalf("rejected resize changed geometry: %+v", it.Rect())
		}
	})
}

func TestNoOpMoveRecordsNoHistory(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, model.Bounds{Columns: 12, Rows: 100}, item("a", 1, 1, 2, 2))
	if _, err := e.MoveBy("a", 0, 0, model.PolicyReject); err != nil {
		t.Fatalf("MoveBy: %v", err)
	}
	if _, err := e.Update("a", Geometry{}, model.PolicyReject); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if e.CanUndo() {
		t.Fatalf("zero-delta operations must not create history entries")
	}
}

func TestLockedItems(t *testing.T) {
	t.Parallel()

	locked := item("clock", 0, 0, 4, 2)
	locked.Locked = true
	e := newTestEngine(t, model.Bounds{Columns: 12, Rows: 10}, locked, item("b", 0, 4, 2, 2))

	if _, err := e.Move("clock", 5, 5, model.PolicyReject); !errors.Is(err, ErrLocked) {
		t.Fatalf("move locked: %v", err)
	}
	if _, err := e.Resize("clock", 6, 2, model.PolicyReject); !errors.Is(err, ErrLocked) {
		t.Fatalf("resize locked: %v", err)
	}
	if _, err := e.PositionWidget("clock", model.AnchorCenter); !errors.Is(err, ErrLocked) {
		t.Fatalf("align locked: %v", err)
	}
	if _, err := e.Move("b", 1, 1, model.PolicyReject); !errors.Is(err, ErrCollision) {
		t.Fatalf("locked items still collide: %v", err)
	}

	if _, err := e.SetLocked("clock", false); err != nil {
		t.Fatalf("SetLocked: %v", err)
	}
	if _, err := e.Move("clock", 5, 5, model.PolicyReject); err != nil {
		t.Fatalf("move after unlock: %v", err)
	}
	if err := e.Remove("clock"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
}

func TestEdit_GeometryAndLockCommitTogether(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, model.Bounds{Columns: 12, Rows: 10}, item("a", 0, 0, 2, 2), item("b", 4, 0, 2, 2))
	yes, no := true, false
	x, w := 8, 9

	if _, err := e.Edit("a", Geometry{X: &x}, &yes, model.PolicyReject); err != nil {
		t.Fatalf("move then lock: %v", err)
	}
	it, _ := e.Item("a")
	if it.X != 8 || !it.Locked {
		t.Fatalf("after move+lock: %+v", it)
	}
	if past, _ := e.History().Len(); past != 1 {
		t.Fatalf("move+lock should be one history entry, got %d", past)
	}

	x = 0
	if _, err := e.Edit("a", Geometry{X: &x}, &yes, model.PolicyReject); !errors.Is(err, ErrLocked) {
		t.Fatalf("moving a locked item while keeping the lock: %v", err)
	}
	if _, err := e.Edit("a", Geometry{W: &w}, &no, model.PolicyReject); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("unlock with an invalid resize: %v", err)
	}
	it, _ = e.Item("a")
	if !it.Locked || it.X != 8 || it.W != 2 {
		t.Fatalf("rejected edits must not commit anything: %+v", it)
	}

	bx := 7
	if _, err := e.Edit("b", Geometry{X: &bx}, &yes, model.PolicyReject); !errors.Is(err, ErrCollision) {
		t.Fatalf("lock with a colliding move: %v", err)
	}
	if it, _ := e.Item("b"); it.Locked || it.X != 4 {
		t.Fatalf("rejected move must not leave the lock behind: %+v", it)
	}

	x = 2
	if _, err := e.Edit("a", Geometry{X: &x}, &no, model.PolicyReject); err != nil {
		t.Fatalf("unlock then move: %v", err)
	}
	if it, _ := e.Item("a"); it.Locked || it.X != 2 {
		t.Fatalf("after unlock+move: %+v", it)
	}
	if past, _ := e.History().Len(); past != 2 {
		t.Fatalf("history entries = %d, want 2", past)
	}
}

func TestLegacyLockMigration(t *testing.T) {
	t.Parallel()

	yes := true
	old := item("a", 0, 0, 2, 2)
	old.LegacyIsLocked = &yes
	e := newTestEngine(t, model.Bounds{Columns: 12, Rows: 10}, old)
	it, _ := e.Item("a")
	if !it.Locked || it.LegacyIsLocked != nil {
		t.Fatalf("legacy flag not migrated: %+v", it)
	}
}

func TestUndoRedo(t *testing.T) {
	t.Parallel()

	var changes int
	e := New([]model.Item{item("a", 0, 0, 2, 2)}, Options{
		Bounds:   model.Bounds{Columns: 12, Rows: 10},
		OnChange: func([]model.Item) { changes++ },
	})

	if e.Undo() || e.Redo() {
		t.Fatalf("undo/redo on empty history should report false")
	}
	if changes != 0 {
		t.Fatalf("no-op undo/redo must not notify")
	}

	before := e.Items()
	if _, err := e.Move("a", 4, 4, model.PolicyReject); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if _, err := e.Add(item("b", 0, 0, 1, 1), model.PolicyReject); err != nil {
		t.Fatalf("Add: %v", err)
	}
	after := e.Items()

	if !e.Undo() || !e.Undo() {
		t.Fatalf("expected two undo steps")
	}
	if got := e.Items(); len(got) != 1 || got[0].Rect() != before[0].Rect() {
		t.Fatalf("undo did not restore original state: %+v", got)
	}
	if e.CanUndo() || !e.CanRedo() {
		t.Fatalf("canUndo=%v canRedo=%v", e.CanUndo(), e.CanRedo())
	}
	if !e.Redo() || !e.Redo() {
		t.Fatalf("expected two redo steps")
	}
	got := e.Items()
	if len(got) != len(after) || got[0].Rect() != after[0].Rect() || got[1].ID != "b" {
		t.Fatalf("redo mismatch: %+v", got)
	}
	if changes != 6 {
		t.Fatalf("OnChange calls = %d, want 6", changes)
	}

	e.Undo()
	if _, err := e.Move("a", 0, 5, model.PolicyReject); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if e.CanRedo() {
		t.Fatalf("a new mutation must clear redo")
	}
}

func TestHistoryLimit(t *testing.T) {
	t.Parallel()

	e := New([]model.Item{item("a", 0, 0, 1, 1)}, Options{
		Bounds:       model.Bounds{Columns: 20, Rows: 2},
		HistoryLimit: 3,
	})
	for x := 1; x <= 8; x++ {
		if _, err := e.Move("a", x, 0, model.PolicyReject); err != nil {
			t.Fatalf("Move: %v", err)
		}
	}
	steps := 0
	for e.Undo() {
		steps++
	}
	if steps != 3 {
		t.Fatalf("undo steps = %d, want 3", steps)
	}
	mustPos(t, e, "a", model.Position{X: 5, Y: 0})
}

func TestItemsAreCopies(t *testing.T) {
	t.Parallel()

	it := item("a", 0, 0, 1, 1)
	it.Config = []byte(`{"k":1}`)
	e := newTestEngine(t, model.Bounds{Columns: 4, Rows: 4}, it)

	got := e.Items()
	got[0].X = 3
	got[0].Config[2] = 'z'
	again, _ := e.Item("a")
	if again.X != 0 || string(again.Config) != `{"k":1}` {
		t.Fatalf("engine state mutated through a returned copy: %+v", again)
	}
}

func TestAddAuto(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, model.Bounds{Columns: 12, Rows: 4}, item("a", 0, 0, 12, 2))

	first, err := e.AddAuto(model.Item{Type: "search", W: 6, H: 2})
	if err != nil {
		t.Fatalf("AddAuto: %v", err)
	}
	if first.Position() != (model.Position{X: 0, Y: 2}) {
		t.Fatalf("first auto slot = %+v", first.Position())
	}
	second, err := e.AddAuto(model.Item{Type: "search", W: 6, H: 2})
	if err != nil {
		t.Fatalf("AddAuto: %v", err)
	}
	if second.Position() != (model.Position{X: 6, Y: 2}) {
		t.Fatalf("second auto slot = %+v", second.Position())
	}
	if _, err := e.AddAuto(model.Item{Type: "search", W: 1, H: 1}); !errors.Is(err, ErrNoSpace) {
		t.Fatalf("expected ErrNoSpace, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, model.Bounds{Columns: 12, Rows: 10}, item("a", 0, 0, 1, 1), item("b", 1, 0, 1, 1), item("c", 2, 0, 1, 1))
	if err := e.Remove("b"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	got := e.Items()
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("order not preserved: %+v", got)
	}
	if err := e.Remove("b"); !errors.As(err, new(NotFoundError)) {
		t.Fatalf("expected not found, got %v", err)
	}
	e.Undo()
	if got := e.Items(); len(got) != 3 || got[1].ID != "b" {
		t.Fatalf("undo remove: %+v", got)
	}
}

func TestSetBoundsAndProjected(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, model.Bounds{Columns: 12, Rows: 10}, item("a", 10, 8, 2, 2))
	e.SetBounds(model.Bounds{Columns: 8, Rows: 6})
	if e.Bounds() != (model.Bounds{Columns: 8, Rows: 6}) {
		t.Fatalf("bounds = %+v", e.Bounds())
	}
	p := e.Projected()
	if p[0].Rect() != (model.Rect{X: 6, Y: 4, W: 2, H: 2}) {
		t.Fatalf("projected = %+v", p[0].Rect())
	}
	mustPos(t, e, "a", model.Position{X: 10, Y: 8})

	if _, err := e.Move("a", 9, 8, model.PolicyReject); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("moves validate against the new extent: %v", err)
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, model.Bounds{Columns: 12, Rows: 10}, item("a", 0, 0, 1, 1))
	if err := e.Reset([]model.Item{item("x", 0, 0, 2, 2), item("y", 1, 1, 2, 2)}); !errors.Is(err, ErrCollision) {
		t.Fatalf("overlapping reset: %v", err)
	}
	if err := e.Reset([]model.Item{item("x", 0, 0, 2, 2)}); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := e.Items(); len(got) != 1 || got[0].ID != "x" {
		t.Fatalf("reset items = %+v", got)
	}
	e.Undo()
	if got := e.Items(); got[0].ID != "a" {
		t.Fatalf("reset should be undoable: %+v", got)
	}
}

func TestPositionWidget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		anchor model.Anchor
		want   model.Position
	}{
		{model.AnchorCenter, model.Position{X: 4, Y: 4}},
		{model.AnchorLeft, model.Position{X: 0, Y: 4}},
		{model.AnchorRight, model.Position{X: 8, Y: 4}},
		{model.AnchorTop, model.Position{X: 4, Y: 0}},
		{model.AnchorBottom, model.Position{X: 4, Y: 8}},
		{model.AnchorTopLeft, model.Position{X: 0, Y: 0}},
		{model.AnchorTopRight, model.Position{X: 8, Y: 0}},
		{model.AnchorBottomLeft, model.Position{X: 0, Y: 8}},
		{model.AnchorBottomRight, model.Position{X: 8, Y: 8}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.anchor), func(t *testing.T) {
			t.Parallel()
			e := newTestEngine(t, model.Bounds{Columns: 12, Rows: 10}, item("a", 1, 1, 4, 2))
			got, err := e.PositionWidget("a", tt.anchor)
			if err != nil {
				t.Fatalf("PositionWidget: %v", err)
			}
			if got.Position() != tt.want {
				t.Fatalf("got %+v want %+v", got.Position(), tt.want)
			}
		})
	}
}

func TestPositionWidget_NeverDisplaces(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, model.Bounds{Columns: 12, Rows: 10},
		item("a", 0, 0, 4, 2),
		item("block", 5, 4, 2, 2),
	)
	_, err := e.PositionWidget("a", model.AnchorCenter)
	if !errors.Is(err, ErrCollision) {
		t.Fatalf("expected collision, got %v", err)
	}
	mustPos(t, e, "a", model.Position{X: 0, Y: 0})
	if e.CanUndo() {
		t.Fatalf("failed alignment must not record history")
	}
	if _, err := e.PositionWidget("a", model.Anchor("middle")); !errors.Is(err, ErrInvalid) {
		t.Fatalf("unknown anchor: %v", err)
	}
}

func TestAnchorPosition_OddRemainderFloors(t *testing.T) {
	t.Parallel()

	p, err := AnchorPosition(model.AnchorCenter, 4, 3, model.Bounds{Columns: 11, Rows: 10})
	if err != nil {
		t.Fatalf("AnchorPosition: %v", err)
	}
	if p != (model.Position{X: 3, Y: 3}) {
		t.Fatalf("got %+v", p)
	}
}

// Random mutation sequences must never leave overlapping or out-of-extent items behind.
func TestRandomMutationsKeepInvariants(t *testing.T) {
	t.Parallel()

	const cols, rows = 24, 20
	rng := rand.New(rand.NewSource(42))
	e := newTestEngine(t, model.Bounds{Columns: cols, Rows: rows})

	policies := []model.Policy{model.PolicyReject, model.PolicyDisplace}
	for step := 0; step < 2000; step++ {
		items := e.Items()
		policy := policies[rng.Intn(2)]
		var err error
		switch op := rng.Intn(6); {
		case op == 0 || len(items) == 0:
			_, err = e.Add(model.Item{
				Type: "todo",
				X:    rng.Intn(cols), Y: rng.Intn(rows),
				W: 1 + rng.Intn(6), H: 1 + rng.Intn(4),
			}, policy)
		case op == 1:
			_, err = e.AddAuto(model.Item{Type: "todo", W: 1 + rng.Intn(5), H: 1 + rng.Intn(3)})
		case op == 2:
			id := items[rng.Intn(len(items))].ID
			_, err = e.Move(id, rng.Intn(cols+4)-2, rng.Intn(rows+4)-2, policy)
		case op == 3:
			id := items[rng.Intn(len(items))].ID
			_, err = e.Resize(id, rng.Intn(8), rng.Intn(6), policy)
		case op == 4:
			if rng.Intn(4) == 0 {
				err = e.Remove(items[rng.Intn(len(items))].ID)
			} else {
				id := items[rng.Intn(len(items))].ID
				_, err = e.PositionWidget(id, model.Anchors()[rng.Intn(len(model.Anchors()))])
			}
		default:
			if rng.Intn(2) == 0 {
				e.Undo()
			} else {
				e.Redo()
			}
		}
		if err != nil && !IsRejection(err) {
			t.Fatalf("step %d: unexpected error kind %v", step, err)
		}

		got := e.Items()
		if err := Validate(got); err != nil {
			t.Fatalf("step %d: invariant broken: %v", step, err)
		}
		for _, it := range got {
			if it.X+it.W > cols || it.Y+it.H > rows {
				t.Fatalf("step %d: %s outside extent: %+v", step, it.ID, it.Rect())
			}
		}
	}
}
