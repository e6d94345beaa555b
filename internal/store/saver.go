package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Saver writes values to a KV in the background, coalescing bursts of saves per key into a
// single write after the debounce window. The last value saved for a key wins.
type Saver struct {
	kv       KV
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string][]byte
	closed  bool

	// writeMu orders batches so an older batch never lands after a newer one.
	writeMu sync.Mutex
}

type SaverOpts struct {
	Debounce time.Duration
	Logger   *slog.Logger
}

func NewSaver(kv KV, opts SaverOpts) *Saver {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultSaveDebounceMs * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Saver{
		kv:       kv,
		debounce: debounce,
		logger:   logger,
		pending:  map[string][]byte{},
	}
}

// Save schedules v to be written under key. v is encoded immediately, so later changes to
// it are not picked up.
func (s *Saver) Save(key string, v any) {
	if s == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode for save failed", "key", key, "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Warn("save after close dropped", "key", key)
		return
	}
	s.pending[key] = b
	if s.timer == nil {
		s.timer = time.AfterFunc(s.debounce, s.onTimer)
		return
	}
	s.timer.Reset(s.debounce)
}

// Pending reports how many keys are waiting to be written.
func (s *Saver) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Saver) onTimer() {
	if err := s.write(context.Background()); err != nil {
		// Fire-and-forget: the in-memory state stays authoritative.
		s.logger.Warn("background save failed", "err", err)
	}
}

// Flush writes every pending value now.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	return s.write(ctx)
}

// Close flushes pending values. Saves after Close are dropped.
func (s *Saver) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Flush(ctx)
}

func (s *Saver) write(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	batch := s.pending
	s.pending = map[string][]byte{}
	s.mu.Unlock()

	keys := make([]string, 0, len(batch))
	for k := range batch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		if err := s.kv.Put(ctx, k, batch[k]); err != nil {
			errs = append(errs, err)
			continue
		}
		s.logger.Debug("saved", "key", k, "bytes", len(batch[k]))
	}
	return errors.Join(errs...)
}
