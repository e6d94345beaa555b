// Package history keeps a bounded, linear undo/redo timeline of opaque snapshots.
package history

const DefaultLimit = 50

type History[T any] struct {
	past   []T
	future []T
	limit  int
	clone  func(T) T
}

// New returns a history holding at most limit undo entries. clone must return a deep copy;
// it is applied on the way in and on the way out so the caller can keep mutating its own
// state freely. A nil clone is only safe for immutable snapshot types.
func New[T any](limit int, clone func(T) T) *History[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &History[T]{limit: limit, clone: clone}
}

func (h *History[T]) Limit() int { return h.limit }

// Push records a snapshot. The oldest entry is evicted once the limit is reached, and any
// redo branch is discarded.
func (h *History[T]) Push(s T) {
	if len(h.past) >= h.limit {
		h.past = h.past[1:]
	}
	h.past = append(h.past, h.clone(s))
	h.future = nil
}

// Undo returns the previous snapshot and stores cur on the redo stack.
func (h *History[T]) Undo(cur T) (T, bool) {
	var zero T
	if len(h.past) == 0 {
		return zero, false
	}
	prev := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, h.clone(cur))
	return h.clone(prev), true
}

// Redo returns the next snapshot and stores cur on the undo stack.
func (h *History[T]) Redo(cur T) (T, bool) {
	var zero T
	if len(h.future) == 0 {
		return zero, false
	}
	next := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, h.clone(cur))
	return h.clone(next), true
}

func (h *History[T]) CanUndo() bool { return len(h.past) > 0 }

func (h *History[T]) CanRedo() bool { return len(h.future) > 0 }

// Len returns the sizes of the undo and redo stacks.
func (h *History[T]) Len() (past, future int) {
	return len(h.past), len(h.future)
}

func (h *History[T]) Clear() {
	h.past = nil
	h.future = nil
}

// Stacks is the serialisable form of a history, oldest entries first.
type Stacks[T any] struct {
	Past   []T `json:"past"`
	Future []T `json:"future"`
}

func (h *History[T]) Export() Stacks[T] {
	out := Stacks[T]{
		Past:   make([]T, 0, len(h.past)),
		Future: make([]T, 0, len(h.future)),
	}
	for _, s := range h.past {
		out.Past = append(out.Past, h.clone(s))
	}
	for _, s := range h.future {
		out.Future = append(out.Future, h.clone(s))
	}
	return out
}

// Restore replaces both stacks. Entries beyond the limit are dropped oldest-first.
func (h *History[T]) Restore(st Stacks[T]) {
	h.Clear()
	for _, s := range trimOldest(st.Past, h.limit) {
		h.past = append(h.past, h.clone(s))
	}
	for _, s := range trimOldest(st.Future, h.limit) {
		h.future = append(h.future, h.clone(s))
	}
}

func trimOldest[T any](xs []T, limit int) []T {
	if len(xs) > limit {
		return xs[len(xs)-limit:]
	}
	return xs
}
