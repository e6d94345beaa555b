// Package dashboard wires one layout's engine, the viewport/zoom service, the background saver
// and the widget registry into the single object every front end (CLI, HTTP, TUI) drives.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"vibetab/internal/applog"
	"vibetab/internal/gridconfig"
	"vibetab/internal/layout"
	"vibetab/internal/model"
	"vibetab/internal/store"
	"vibetab/internal/widget"
)

type Options struct {
	// Layout is the layout key. Empty uses UI.Layout, then layout.KeyWidgets.
	Layout string

	// Config supplies grid, zoom, history and debounce settings. Nil uses defaults.
	Config *store.Config
	// UI restores the zoom hysteresis and the last viewport.
	UI *store.UIState
	// Viewport overrides the restored viewport.
	Viewport *store.Viewport

	Kinds  *widget.Registry
	Logger *slog.Logger
	Now    func() time.Time
	NewID  func() string
}

// Dashboard is safe for concurrent use.
type Dashboard struct {
	mu sync.Mutex

	key    string
	kv     store.KV
	engine *layout.Engine
	grid   *gridconfig.Service
	saver  *store.Saver
	kinds  *widget.Registry
	unsub  func()

	now    func() time.Time
	logger *slog.Logger
}

// New loads the layout and its history from kv. Corrupt stored data is logged and replaced by
// the layout's defaults. The dashboard owns kv and closes it in Close.
func New(ctx context.Context, kv store.KV, opts Options) (*Dashboard, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = &store.Config{}
	}
	cfg.Defaults()
	ui := opts.UI
	if ui == nil {
		ui = &store.UIState{Version: 1}
	}
	logger := applog.OrDiscard(opts.Logger)
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	kinds := opts.Kinds
	if kinds == nil {
		kinds = widget.NewRegistry()
	}

	key := strings.TrimSpace(opts.Layout)
	if key == "" {
		key = strings.TrimSpace(ui.Layout)
	}
	if key == "" {
		key = layout.KeyWidgets
	}

	vp := cfg.Viewport
	if ui.Viewport != nil && ui.Viewport.Width > 0 && ui.Viewport.Height > 0 {
		vp = ui.Viewport
	}
	base := cfg.BaseCellPx
	if ui.BaseCellPx > 0 {
		base = ui.BaseCellPx
	}
	grid := gridconfig.NewService(gridconfig.Options{
		BaseCellPx:  base,
		Gap:         *cfg.Gap,
		Zoom:        *cfg.Zoom,
		InitialZoom: ui.Zoom,
		Width:       vp.Width,
		Height:      vp.Height,
		Logger:      logger,
	})
	if v := opts.Viewport; v != nil && v.Width > 0 && v.Height > 0 {
		grid.Resize(v.Width, v.Height)
	}

	// Load failures fall back to the defaults LoadJSON returns alongside the error.
	items, err := store.LoadLayout(ctx, kv, key, now())
	if err != nil {
		logger.Warn("stored layout unavailable, using defaults", "layout", key, "err", err)
	}
	hist, err := store.LoadHistory(ctx, kv, key)
	if err != nil {
		logger.Warn("stored history unavailable, starting empty", "layout", key, "err", err)
	}

	d := &Dashboard{
		key:    key,
		kv:     kv,
		grid:   grid,
		kinds:  kinds,
		now:    now,
		logger: logger.With("layout", key),
		saver: store.NewSaver(kv, store.SaverOpts{
			Debounce: time.Duration(cfg.SaveDebounceMs) * time.Millisecond,
			Logger:   logger,
		}),
	}
	d.engine = layout.New(items, layout.Options{
		Bounds:       grid.Dimensions().Bounds(),
		HistoryLimit: cfg.HistoryLimit,
		Now:          now,
		NewID:        opts.NewID,
		Logger:       d.logger,
		OnChange:     d.persist,
	})
	d.engine.History().Restore(hist)
	d.unsub = grid.Subscribe(func(dims gridconfig.Dimensions) {
		d.mu.Lock()
		d.engine.SetBounds(dims.Bounds())
		d.mu.Unlock()
	})
	return d, nil
}

// persist runs under d.mu from the engine's change hook.
func (d *Dashboard) persist(items []model.Item) {
	d.saver.Save(d.key, items)
	d.saver.Save(store.HistoryKey(d.key), d.engine.History().Export())
}

func (d *Dashboard) Layout() string { return d.key }

func (d *Dashboard) Kinds() *widget.Registry { return d.kinds }

func (d *Dashboard) Items() []model.Item {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.Items()
}

func (d *Dashboard) Item(id string) (model.Item, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.Item(id)
}

// Projected returns items clamped into the current extent for display.
func (d *Dashboard) Projected() []model.Item {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.Projected()
}

func (d *Dashboard) Bounds() model.Bounds {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.Bounds()
}

func (d *Dashboard) Summary(it model.Item) string {
	return d.kinds.Summary(it, d.now())
}

// NewWidget describes a widget to add. Missing size fields come from the kind or preset.
// A nil X or Y places the widget in the first free slot.
type NewWidget struct {
	ID     string          `json:"id,omitempty"`
	Type   string          `json:"type"`
	Preset string          `json:"preset,omitempty"`
	X      *int            `json:"x,omitempty"`
	Y      *int            `json:"y,omitempty"`
	W      *int            `json:"w,omitempty"`
	H      *int            `json:"h,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
	Policy model.Policy    `json:"policy,omitempty"`
}

func (d *Dashboard) Add(req NewWidget) (model.Item, error) {
	it, err := d.kinds.NewItem(strings.TrimSpace(req.Type), strings.TrimSpace(req.Preset))
	if err != nil {
		return model.Item{}, fmt.Errorf("%w: %w", layout.ErrInvalid, err)
	}
	it.ID = strings.TrimSpace(req.ID)
	if req.W != nil {
		it.W = *req.W
	}
	if req.H != nil {
		it.H = *req.H
	}
	if len(req.Config) > 0 {
		it.Config = append(json.RawMessage(nil), req.Config...)
		if err := d.kinds.ValidateConfig(it); err != nil {
			return model.Item{}, fmt.Errorf("%w: %w", layout.ErrInvalid, err)
		}
	}
	policy, ok := model.ParsePolicy(string(req.Policy))
	if !ok {
		return model.Item{}, fmt.Errorf("%w: unknown policy %q", layout.ErrInvalid, req.Policy)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if req.X == nil || req.Y == nil {
		return d.engine.AddAuto(it)
	}
	it.X, it.Y = *req.X, *req.Y
	return d.engine.Add(it, policy)
}

func (d *Dashboard) Move(id string, x, y int, policy model.Policy) (model.Item, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.Move(id, x, y, policy)
}

// MoveByPx converts a pixel drag delta into cells with the current cell size and moves the item.
func (d *Dashboard) MoveByPx(id string, dxPx, dyPx int, policy model.Policy) (model.Item, error) {
	dx, dy := d.pxToCells(dxPx), d.pxToCells(dyPx)
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.MoveBy(id, dx, dy, policy)
}

func (d *Dashboard) Resize(id string, w, h int, policy model.Policy) (model.Item, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.Resize(id, w, h, policy)
}

// ResizeByPx grows or shrinks an item by a pixel delta from a resize handle.
func (d *Dashboard) ResizeByPx(id string, dwPx, dhPx int, policy model.Policy) (model.Item, error) {
	dw, dh := d.pxToCells(dwPx), d.pxToCells(dhPx)
	d.mu.Lock()
	defer d.mu.Unlock()
	cur, err := d.engine.Item(id)
	if err != nil {
		return model.Item{}, err
	}
	return d.engine.Resize(id, cur.W+dw, cur.H+dh, policy)
}

func (d *Dashboard) Update(id string, g layout.Geometry, policy model.Policy) (model.Item, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.Update(id, g, policy)
}

// Change is a combined widget edit. Cell geometry and pixel deltas cannot be mixed.
type Change struct {
	layout.Geometry
	DxPx, DyPx, DwPx, DhPx *int

	Locked *bool
	Policy model.Policy
}

func (c Change) hasCells() bool {
	return c.X != nil || c.Y != nil || c.W != nil || c.H != nil
}

func (c Change) hasPx() bool {
	return c.DxPx != nil || c.DyPx != nil || c.DwPx != nil || c.DhPx != nil
}

// Apply commits every part of c or none of it.
func (d *Dashboard) Apply(id string, c Change) (model.Item, error) {
	if c.hasCells() && c.hasPx() {
		return model.Item{}, fmt.Errorf("%w: cell fields and pixel deltas cannot be mixed", layout.ErrInvalid)
	}
	var dx, dy, dw, dh int
	if c.hasPx() {
		dx, dy = d.pxToCells(deref(c.DxPx)), d.pxToCells(deref(c.DyPx))
		dw, dh = d.pxToCells(deref(c.DwPx)), d.pxToCells(deref(c.DhPx))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	g := c.Geometry
	if c.hasPx() {
		cur, err := d.engine.Item(id)
		if err != nil {
			return model.Item{}, err
		}
		if c.DxPx != nil || c.DyPx != nil {
			x, y := cur.X+dx, cur.Y+dy
			g.X, g.Y = &x, &y
		}
		if c.DwPx != nil || c.DhPx != nil {
			w, h := cur.W+dw, cur.H+dh
			g.W, g.H = &w, &h
		}
	}
	return d.engine.Edit(id, g, c.Locked, c.Policy)
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func (d *Dashboard) Align(id string, anchor model.Anchor) (model.Item, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.PositionWidget(id, anchor)
}

func (d *Dashboard) Remove(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.Remove(id)
}

func (d *Dashboard) SetLocked(id string, locked bool) (model.Item, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.SetLocked(id, locked)
}

// SetConfig validates cfg against the item's kind before storing it.
func (d *Dashboard) SetConfig(id string, cfg json.RawMessage) (model.Item, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cur, err := d.engine.Item(id)
	if err != nil {
		return model.Item{}, err
	}
	cur.Config = cfg
	if err := d.kinds.ValidateConfig(cur); err != nil {
		return model.Item{}, fmt.Errorf("%w: %w", layout.ErrInvalid, err)
	}
	return d.engine.SetConfig(id, cfg)
}

// ResetConfig restores the kind's default configuration.
func (d *Dashboard) ResetConfig(id string) (model.Item, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cur, err := d.engine.Item(id)
	if err != nil {
		return model.Item{}, err
	}
	return d.engine.SetConfig(id, d.kinds.Lookup(cur.Type).DefaultConfig())
}

// ResetLayout replaces the layout with its defaults. The previous layout stays undoable.
func (d *Dashboard) ResetLayout() error {
	items := layout.DefaultOrEmpty(d.key, d.now())
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.Reset(items)
}

// Import replaces the layout with items after validating geometry and every widget config.
func (d *Dashboard) Import(items []model.Item) error {
	var errs []error
	for _, it := range items {
		if err := d.kinds.ValidateConfig(it); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", layout.ErrInvalid, it.ID, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.Reset(items)
}

func (d *Dashboard) Undo() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.Undo()
}

func (d *Dashboard) Redo() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.Redo()
}

type HistoryInfo struct {
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
	Past    int  `json:"past"`
	Future  int  `json:"future"`
	Limit   int  `json:"limit"`
}

func (d *Dashboard) History() HistoryInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := d.engine.History()
	past, future := h.Len()
	return HistoryInfo{CanUndo: past > 0, CanRedo: future > 0, Past: past, Future: future, Limit: h.Limit()}
}

// Grid reports the grid extent and zoom for the current viewport.
type Grid struct {
	gridconfig.Dimensions
	Gap        int                  `json:"gap"`
	BaseCellPx int                  `json:"baseCellPx"`
	Viewport   store.Viewport       `json:"viewport"`
	Zoom       gridconfig.ZoomState `json:"zoom"`
}

func (d *Dashboard) Grid() Grid {
	w, h := d.grid.Viewport()
	return Grid{
		Dimensions: d.grid.Dimensions(),
		Gap:        d.grid.Gap(),
		BaseCellPx: d.grid.BaseCellPx(),
		Viewport:   store.Viewport{Width: w, Height: h},
		Zoom:       d.grid.Zoom(),
	}
}

// ResizeViewport applies a viewport size now.
func (d *Dashboard) ResizeViewport(width, height int) Grid {
	d.grid.Resize(width, height)
	return d.Grid()
}

// NotifyViewport applies a viewport size after resize events settle.
func (d *Dashboard) NotifyViewport(width, height int) {
	d.grid.Notify(width, height)
}

func (d *Dashboard) SetBaseCellPx(px int) Grid {
	d.grid.SetBaseCellPx(px)
	return d.Grid()
}

func (d *Dashboard) ResetZoom() Grid {
	d.grid.ResetZoom()
	return d.Grid()
}

// UIState captures what should be restored on the next launch.
func (d *Dashboard) UIState() *store.UIState {
	w, h := d.grid.Viewport()
	st := &store.UIState{
		Version:    1,
		Layout:     d.key,
		Zoom:       d.grid.Zoom(),
		BaseCellPx: d.grid.BaseCellPx(),
	}
	if w > 0 && h > 0 {
		st.Viewport = &store.Viewport{Width: w, Height: h}
	}
	return st
}

// Flush writes pending saves now.
func (d *Dashboard) Flush(ctx context.Context) error {
	return d.saver.Flush(ctx)
}

// Close flushes pending saves, stops the viewport service and closes the store.
func (d *Dashboard) Close(ctx context.Context) error {
	d.unsub()
	d.grid.Close()
	saveErr := d.saver.Close(ctx)
	if saveErr != nil {
		d.logger.Error("final save failed", "err", saveErr)
	}
	return errors.Join(saveErr, d.kv.Close())
}

func (d *Dashboard) pxToCells(px int) int {
	dims := d.grid.Dimensions()
	if dims.CellPx <= 0 {
		return 0
	}
	if px < 0 {
		return -gridconfig.PxToCells(-px, dims.CellPx, d.grid.Gap())
	}
	return gridconfig.PxToCells(px, dims.CellPx, d.grid.Gap())
}
