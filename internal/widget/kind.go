// Package widget describes the kinds of widget that can sit on the grid: their default and
// minimum sizes, size presets and configuration payloads. The layout engine treats a widget
// as geometry plus an opaque config blob; this package gives that blob its meaning.
package widget

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"vibetab/internal/model"
)

// Kind is one widget type.
type Kind interface {
	Name() string
	DefaultSize() model.Size
	MinSize() model.Size
	Presets() []Preset
	DefaultConfig() json.RawMessage
	// ValidateConfig reports whether raw is an acceptable config payload. An empty payload is
	// always acceptable and means "use the defaults".
	ValidateConfig(raw json.RawMessage) error
	// Summary renders a one-line description of the widget for list views.
	Summary(it model.Item, now time.Time) string
}

// Preset is a named size for a kind.
type Preset struct {
	Name    string     `json:"name"`
	Size    model.Size `json:"size"`
	Default bool       `json:"default,omitempty"`
}

type UnknownKindError struct {
	Name string
}

func (e UnknownKindError) Error() string {
	return fmt.Sprintf("unknown widget kind: %s", e.Name)
}

type UnknownPresetError struct {
	Kind   string
	Preset string
}

func (e UnknownPresetError) Error() string {
	return fmt.Sprintf("unknown size preset %q for %s", e.Preset, e.Kind)
}

// Registry maps kind names to kinds. Lookups of unregistered names fall back to a generic
// kind so stored layouts with unfamiliar widgets still load.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]Kind
}

// NewRegistry returns a registry holding the built-in kinds.
func NewRegistry() *Registry {
	r := &Registry{kinds: map[string]Kind{}}
	for _, k := range Builtins() {
		r.kinds[k.Name()] = k
	}
	return r
}

// Register adds or replaces a kind.
func (r *Registry) Register(k Kind) error {
	if k == nil || k.Name() == "" {
		return fmt.Errorf("widget kind must have a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[k.Name()] = k
	return nil
}

// Get returns the registered kind for name.
func (r *Registry) Get(name string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[name]
	return k, ok
}

// Lookup is like Get but falls back to a generic kind for unregistered names.
func (r *Registry) Lookup(name string) Kind {
	if k, ok := r.Get(name); ok {
		return k
	}
	return generic{name: name}
}

// Names returns the registered kind names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NewItem builds an unplaced item of kind name. preset selects a size preset; an empty preset
// uses the kind's default size. The item has no ID and no position.
func (r *Registry) NewItem(name, preset string) (model.Item, error) {
	k, ok := r.Get(name)
	if !ok {
		return model.Item{}, UnknownKindError{Name: name}
	}
	size := k.DefaultSize()
	if preset != "" {
		found := false
		for _, p := range k.Presets() {
			if p.Name == preset {
				size = p.Size
				found = true
				break
			}
		}
		if !found {
			return model.Item{}, UnknownPresetError{Kind: name, Preset: preset}
		}
	}
	minSize := k.MinSize()
	return model.Item{
		Type:   name,
		W:      size.W,
		H:      size.H,
		MinW:   minSize.W,
		MinH:   minSize.H,
		Config: k.DefaultConfig(),
	}, nil
}

// ValidateConfig checks an item's config against its kind.
func (r *Registry) ValidateConfig(it model.Item) error {
	if err := r.Lookup(it.Type).ValidateConfig(it.Config); err != nil {
		return fmt.Errorf("%s config: %w", it.Type, err)
	}
	return nil
}

func (r *Registry) Summary(it model.Item, now time.Time) string {
	return r.Lookup(it.Type).Summary(it, now)
}

// generic serves any kind without dedicated support.
type generic struct {
	name string
}

func (g generic) Name() string { return g.name }

func (g generic) DefaultSize() model.Size { return model.Size{W: 6, H: 4} }

func (g generic) MinSize() model.Size { return model.Size{W: 1, H: 1} }

func (g generic) Presets() []Preset { return nil }

func (g generic) DefaultConfig() json.RawMessage { return json.RawMessage(`{}`) }

func (g generic) ValidateConfig(raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	var v map[string]any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("config must be a JSON object: %w", err)
	}
	return nil
}

func (g generic) Summary(it model.Item, _ time.Time) string {
	return fmt.Sprintf("%s %dx%d", g.name, it.W, it.H)
}
