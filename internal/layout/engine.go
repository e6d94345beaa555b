// Package layout owns the authoritative widget collection of one layout. Every mutation is
// validated against the grid before it is committed, and every commit is undoable.
package layout

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vibetab/internal/grid"
	"vibetab/internal/gridconfig"
	"vibetab/internal/history"
	"vibetab/internal/model"
)

const DefaultHistoryLimit = 20

type Options struct {
	// Bounds is the initial extent. Zero values fall back to grid.DefaultColumns/DefaultRows.
	Bounds model.Bounds

	HistoryLimit int

	Now   func() time.Time
	NewID func() string

	Logger *slog.Logger

	// OnChange receives a copy of the collection after every commit, undo and redo.
	OnChange func([]model.Item)
}

// Geometry is a partial geometry update. Nil fields keep their current value.
type Geometry struct {
	X *int `json:"x,omitempty"`
	Y *int `json:"y,omitempty"`
	W *int `json:"w,omitempty"`
	H *int `json:"h,omitempty"`
}

// Engine is not safe for concurrent use. Callers that mutate from several goroutines must
// serialise access themselves.
type Engine struct {
	items []model.Item
	grid  *grid.Manager
	hist  *history.History[[]model.Item]

	now      func() time.Time
	newID    func() string
	logger   *slog.Logger
	onChange func([]model.Item)
}

func New(items []model.Item, opts Options) *Engine {
	cols, rows := opts.Bounds.Columns, opts.Bounds.Rows
	if cols <= 0 {
		cols = grid.DefaultColumns
	}
	if rows <= 0 {
		rows = grid.DefaultRows
	}
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	e := &Engine{
		items:    model.CloneItems(items),
		grid:     grid.New(cols, rows),
		hist:     history.New(limit, model.CloneItems),
		now:      opts.Now,
		newID:    opts.NewID,
		logger:   opts.Logger,
		onChange: opts.OnChange,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	model.MigrateLegacy(e.items)
	return e
}

// Items returns a deep copy of the collection in its stable order.
func (e *Engine) Items() []model.Item {
	return model.CloneItems(e.items)
}

func (e *Engine) Item(id string) (model.Item, error) {
	i := e.indexOf(id)
	if i < 0 {
		return model.Item{}, NotFoundError{Kind: "widget", ID: id}
	}
	return e.items[i].Clone(), nil
}

func (e *Engine) Bounds() model.Bounds { return e.grid.Bounds() }

// SetBounds changes the extent for later validation. Committed items are left as they are;
// use Projected to view them fitted to the new extent.
func (e *Engine) SetBounds(b model.Bounds) {
	e.grid.SetDimensions(max(1, b.Columns), max(1, b.Rows))
	e.logger.Debug("layout bounds changed", "columns", e.grid.Columns(), "rows", e.grid.Rows())
}

// Projected returns the collection with every item clamped into the current extent.
// Nothing is committed.
func (e *Engine) Projected() []model.Item {
	out := model.CloneItems(e.items)
	for i := range out {
		r := gridconfig.ClampItemBounds(out[i], e.grid.Columns(), e.grid.Rows())
		out[i] = out[i].WithRect(r)
	}
	return out
}

// History exposes the undo timeline so callers can persist and restore it.
func (e *Engine) History() *history.History[[]model.Item] { return e.hist }

func (e *Engine) CanUndo() bool { return e.hist.CanUndo() }

func (e *Engine) CanRedo() bool { return e.hist.CanRedo() }

// Undo restores the previous collection. It reports false when there is nothing to undo.
func (e *Engine) Undo() bool {
	prev, ok := e.hist.Undo(e.items)
	if !ok {
		return false
	}
	e.items = prev
	e.changed("undo")
	return true
}

func (e *Engine) Redo() bool {
	next, ok := e.hist.Redo(e.items)
	if !ok {
		return false
	}
	e.items = next
	e.changed("redo")
	return true
}

// Add places a new item at its own coordinates. A missing ID is generated.
func (e *Engine) Add(it model.Item, policy model.Policy) (model.Item, error) {
	one := []model.Item{it.Clone()}
	model.MigrateLegacy(one)
	it = one[0]
	if it.ID == "" {
		it.ID = e.newID()
	}
	if it.Type == "" {
		return model.Item{}, fmt.Errorf("%w: missing type", ErrInvalid)
	}
	if e.indexOf(it.ID) >= 0 {
		return model.Item{}, fmt.Errorf("%w: duplicate id %q", ErrInvalid, it.ID)
	}
	now := e.now()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}

	placed, err := e.place(-1, it, policy)
	if err != nil {
		e.logger.Debug("add rejected", "id", it.ID, "err", err)
		return model.Item{}, err
	}
	placed.UpdatedAt = now

	e.hist.Push(e.items)
	e.items = append(e.items, placed)
	e.changed("add", "id", placed.ID)
	return placed.Clone(), nil
}

// AddAuto places a new item at the first free slot in row-major order. X and Y of it are
// ignored. It fails with ErrNoSpace when the only free area lies below the extent.
func (e *Engine) AddAuto(it model.Item) (model.Item, error) {
	w := max(1, min(it.W, e.grid.Columns()))
	h := max(1, min(it.H, e.grid.Rows()))
	pos := e.grid.FindEmptySlot(e.items, w, h)
	if pos.Y+h > e.grid.Rows() {
		return model.Item{}, fmt.Errorf("%w: %dx%d does not fit in %dx%d", ErrNoSpace, w, h, e.grid.Columns(), e.grid.Rows())
	}
	it.X, it.Y, it.W, it.H = pos.X, pos.Y, w, h
	return e.Add(it, model.PolicyReject)
}

func (e *Engine) Move(id string, x, y int, policy model.Policy) (model.Item, error) {
	return e.Update(id, Geometry{X: &x, Y: &y}, policy)
}

func (e *Engine) Resize(id string, w, h int, policy model.Policy) (model.Item, error) {
	return e.Update(id, Geometry{W: &w, H: &h}, policy)
}

// MoveBy shifts an item by a cell delta.
func (e *Engine) MoveBy(id string, dx, dy int, policy model.Policy) (model.Item, error) {
	i := e.indexOf(id)
	if i < 0 {
		return model.Item{}, NotFoundError{Kind: "widget", ID: id}
	}
	x, y := e.items[i].X+dx, e.items[i].Y+dy
	return e.Update(id, Geometry{X: &x, Y: &y}, policy)
}

// Update applies a partial geometry change. An update that leaves the geometry unchanged
// succeeds without recording history.
func (e *Engine) Update(id string, g Geometry, policy model.Policy) (model.Item, error) {
	return e.Edit(id, g, nil, policy)
}

// Edit applies a geometry change and an optional lock change as a single commit with one
// history entry. An unlock takes effect before the geometry is validated and a lock after it.
// When any part is rejected nothing is committed.
func (e *Engine) Edit(id string, g Geometry, locked *bool, policy model.Policy) (model.Item, error) {
	i := e.indexOf(id)
	if i < 0 {
		return model.Item{}, NotFoundError{Kind: "widget", ID: id}
	}
	cur := e.items[i]
	proposed := cur.Clone()
	if g.X != nil {
		proposed.X = *g.X
	}
	if g.Y != nil {
		proposed.Y = *g.Y
	}
	if g.W != nil {
		proposed.W = *g.W
	}
	if g.H != nil {
		proposed.H = *g.H
	}

	next := cur.Clone()
	if proposed.Rect() != cur.Rect() {
		if cur.Locked && (locked == nil || *locked) {
			return model.Item{}, fmt.Errorf("%w: %s", ErrLocked, id)
		}
		placed, err := e.place(i, proposed, policy)
		if err != nil {
			e.logger.Debug("update rejected", "id", id, "err", err)
			return model.Item{}, err
		}
		next = placed
	}
	if locked != nil {
		next.Locked = *locked
	}
	if next.Rect() == cur.Rect() && next.Locked == cur.Locked {
		return cur.Clone(), nil
	}
	next.UpdatedAt = e.now()

	e.hist.Push(e.items)
	e.items[i] = next
	e.changed("update", "id", id, "locked", next.Locked)
	return next.Clone(), nil
}

func (e *Engine) Remove(id string) error {
	i := e.indexOf(id)
	if i < 0 {
		return NotFoundError{Kind: "widget", ID: id}
	}
	e.hist.Push(e.items)
	e.items = append(e.items[:i:i], e.items[i+1:]...)
	e.changed("remove", "id", id)
	return nil
}

// SetLocked toggles the lock flag. Changing it is undoable.
func (e *Engine) SetLocked(id string, locked bool) (model.Item, error) {
	i := e.indexOf(id)
	if i < 0 {
		return model.Item{}, NotFoundError{Kind: "widget", ID: id}
	}
	if e.items[i].Locked == locked {
		return e.items[i].Clone(), nil
	}
	e.hist.Push(e.items)
	e.items[i].Locked = locked
	e.items[i].UpdatedAt = e.now()
	e.changed("lock", "id", id, "locked", locked)
	return e.items[i].Clone(), nil
}

// SetConfig replaces an item's opaque configuration payload.
func (e *Engine) SetConfig(id string, cfg []byte) (model.Item, error) {
	i := e.indexOf(id)
	if i < 0 {
		return model.Item{}, NotFoundError{Kind: "widget", ID: id}
	}
	e.hist.Push(e.items)
	e.items[i].Config = append([]byte(nil), cfg...)
	e.items[i].UpdatedAt = e.now()
	e.changed("config", "id", id)
	return e.items[i].Clone(), nil
}

// Reset replaces the whole collection. The previous collection stays reachable through Undo.
func (e *Engine) Reset(items []model.Item) error {
	next := model.CloneItems(items)
	model.MigrateLegacy(next)
	if err := Validate(next); err != nil {
		return err
	}
	e.hist.Push(e.items)
	e.items = next
	e.changed("reset", "count", len(next))
	return nil
}

// place runs the shared validation path for a proposed geometry. idx is the proposed item's
// index in the collection, or -1 for an item not yet added. The returned item is not committed.
func (e *Engine) place(idx int, it model.Item, policy model.Policy) (model.Item, error) {
	it = e.constrainSize(it)

	if !e.grid.IsValidPosition(it) {
		return model.Item{}, fmt.Errorf("%w: %s at (%d,%d) %dx%d outside %dx%d",
			ErrOutOfBounds, it.ID, it.X, it.Y, it.W, it.H, e.grid.Columns(), e.grid.Rows())
	}

	others := e.others(idx)
	hit, ok := e.grid.FindCollision(it, others)
	if !ok {
		return it, nil
	}
	if policy != model.PolicyDisplace {
		return model.Item{}, &CollisionError{ItemID: it.ID, WithID: hit.ID}
	}

	pos := e.grid.FindNearestEmptySlot(others, it.X, it.Y, it.W, it.H, it.ID)
	it.X, it.Y = pos.X, pos.Y
	if !e.grid.IsValidPosition(it) {
		return model.Item{}, fmt.Errorf("%w: %s", ErrOutOfBounds, it.ID)
	}
	if hit, ok := e.grid.FindCollision(it, others); ok {
		return model.Item{}, &CollisionError{ItemID: it.ID, WithID: hit.ID}
	}
	e.logger.Debug("placement displaced", "id", it.ID, "x", it.X, "y", it.Y)
	return it, nil
}

// constrainSize applies the item's own min/max constraints, then the extent ceiling.
func (e *Engine) constrainSize(it model.Item) model.Item {
	it.W = clampSpan(it.W, it.MinW, it.MaxW)
	it.H = clampSpan(it.H, it.MinH, it.MaxH)
	it.W = min(it.W, e.grid.Columns())
	it.H = min(it.H, e.grid.Rows())
	return it
}

func clampSpan(v, lo, hi int) int {
	v = max(v, max(1, lo))
	if hi > 0 {
		v = min(v, max(hi, 1))
	}
	return v
}

func (e *Engine) others(idx int) []model.Item {
	if idx < 0 {
		return e.items
	}
	out := make([]model.Item, 0, len(e.items)-1)
	out = append(out, e.items[:idx]...)
	return append(out, e.items[idx+1:]...)
}

func (e *Engine) indexOf(id string) int {
	for i := range e.items {
		if e.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) changed(op string, attrs ...any) {
	e.logger.Debug("layout "+op, attrs...)
	if e.onChange != nil {
		e.onChange(model.CloneItems(e.items))
	}
}
