package gridconfig

import (
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"
)

const DefaultResizeDebounce = 100 * time.Millisecond

type Options struct {
	BaseCellPx int
	Gap        int
	Zoom       ZoomConfig

	// InitialZoom restores a previously persisted zoom state. A zero Factor starts at Zoom.Max.
	InitialZoom ZoomState

	// Width and Height seed the viewport. Zero leaves the grid uncomputed until the first Resize.
	Width  int
	Height int

	// Debounce is the quiescence window for Notify. Defaults to DefaultResizeDebounce.
	Debounce time.Duration

	Logger *slog.Logger
}

// Service owns the viewport, zoom and grid-extent state for one application instance.
// It is created at bootstrap and closed on shutdown. Safe for concurrent use.
type Service struct {
	mu sync.Mutex

	baseCellPx int
	gap        int
	zoomCfg    ZoomConfig
	zoom       ZoomState

	width, height         int
	prevWidth, prevHeight int
	dims                  Dimensions

	debounce time.Duration
	timer    *time.Timer
	pending  bool
	pendingW int
	pendingH int
	closed   bool

	subs    map[int]func(Dimensions)
	nextSub int

	logger *slog.Logger
}

func NewService(opts Options) *Service {
	zc := opts.Zoom.withDefaults()
	base := opts.BaseCellPx
	if base <= 0 {
		base = DefaultBaseCellPx
	}
	gap := opts.Gap
	if gap < 0 {
		gap = 0
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultResizeDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	zoom := opts.InitialZoom
	if zoom.Factor <= 0 {
		zoom.Factor = zc.Max
	}
	zoom.Factor = max(zc.Min, min(zc.Max, zoom.Factor))

	s := &Service{
		baseCellPx: ClampBaseCellPx(base),
		gap:        gap,
		zoomCfg:    zc,
		zoom:       zoom,
		debounce:   debounce,
		subs:       map[int]func(Dimensions){},
		logger:     logger,
	}
	if opts.Width > 0 && opts.Height > 0 {
		s.applyLocked(opts.Width, opts.Height)
	}
	return s
}

// Subscribe registers fn to receive the grid dimensions after every applied change.
// The returned function removes the subscription.
func (s *Service) Subscribe(fn func(Dimensions)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Resize applies a viewport size immediately and notifies subscribers.
func (s *Service) Resize(width, height int) Dimensions {
	s.mu.Lock()
	if s.closed {
		d := s.dims
		s.mu.Unlock()
		return d
	}
	d := s.applyLocked(width, height)
	subs := s.subscribersLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(d)
	}
	return d
}

// Notify records a viewport size and applies it once no further notification has arrived
// within the debounce window. Bursts of resize events collapse into one recomputation.
func (s *Service) Notify(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = true
	s.pendingW, s.pendingH = width, height
	if s.timer == nil {
		s.timer = time.AfterFunc(s.debounce, s.onTimer)
		return
	}
	s.timer.Reset(s.debounce)
}

// Flush applies a pending notification right away. It reports whether one was pending.
func (s *Service) Flush() bool {
	s.mu.Lock()
	if !s.pending || s.closed {
		s.mu.Unlock()
		return false
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	w, h := s.pendingW, s.pendingH
	s.pending = false
	s.mu.Unlock()

	s.Resize(w, h)
	return true
}

func (s *Service) onTimer() {
	s.mu.Lock()
	if !s.pending || s.closed {
		s.mu.Unlock()
		return
	}
	w, h := s.pendingW, s.pendingH
	s.pending = false
	s.mu.Unlock()

	s.Resize(w, h)
}

// Close stops the debounce timer. Later notifications and resizes are ignored.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.pending = false
	s.closed = true
	s.subs = map[int]func(Dimensions){}
}

func (s *Service) Dimensions() Dimensions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dims
}

func (s *Service) Zoom() ZoomState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

func (s *Service) Gap() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gap
}

func (s *Service) BaseCellPx() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCellPx
}

// Viewport returns the last applied viewport size.
func (s *Service) Viewport() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// SetBaseCellPx changes the unscaled cell size (clamped to [8, 48]) and recomputes the grid.
func (s *Service) SetBaseCellPx(px int) Dimensions {
	s.mu.Lock()
	s.baseCellPx = ClampBaseCellPx(px)
	d := s.recomputeLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(d)
	}
	return d
}

// ResetZoom returns to full zoom and treats the current viewport as the stable reference.
func (s *Service) ResetZoom() Dimensions {
	s.mu.Lock()
	s.zoom = ZoomState{Factor: s.zoomCfg.Max, StableWidth: s.width, StableHeight: s.height}
	d := s.recomputeLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(d)
	}
	return d
}

func (s *Service) applyLocked(width, height int) Dimensions {
	s.prevWidth, s.prevHeight = s.width, s.height
	s.width, s.height = width, height

	before := s.zoom.Factor
	s.zoom = ComputeZoom(s.prevWidth, s.prevHeight, width, height, s.zoom, s.zoomCfg)
	if s.zoom.Factor != before {
		s.logger.Debug("zoom changed", "from", before, "to", s.zoom.Factor, "width", width, "height", height)
	}
	return s.recomputeLocked()
}

func (s *Service) recomputeLocked() Dimensions {
	if s.width <= 0 || s.height <= 0 {
		return s.dims
	}
	s.dims = ComputeDimensions(s.width, s.height, s.baseCellPx, s.zoom.Factor, s.gap)
	s.logger.Debug("grid dimensions", "cols", s.dims.Cols, "rows", s.dims.Rows, "cellPx", s.dims.CellPx)
	return s.dims
}

func (s *Service) subscribersLocked() []func(Dimensions) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(Dimensions), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.subs[id])
	}
	return out
}
