package layout

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"vibetab/internal/model"
	"vibetab/internal/widget"
)

const (
	KeyWidgets  = "widgets"
	KeyPomodoro = "pomodoro"
)

// Keys returns the layout keys that ship with a default layout.
func Keys() []string {
	keys := make([]string, 0, len(defaultLayouts))
	for k := range defaultLayouts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var defaultLayouts = map[string]func() []model.Item{
	KeyWidgets: func() []model.Item {
		return []model.Item{
			{
				ID: "clock-1", Type: widget.KindClock,
				X: 0, Y: 0, W: 12, H: 2,
				Locked: true, ZIndex: 10,
				Config: withConfig(widget.KindClock, map[string]any{"showSeconds": true}),
			},
			{
				ID: "search-1", Type: widget.KindSearch,
				X: 2, Y: 2, W: 8, H: 1,
				ZIndex: 10,
				Config: widget.DefaultConfig(widget.KindSearch),
			},
		}
	},
	KeyPomodoro: func() []model.Item {
		return []model.Item{
			{
				ID: "clock", Type: widget.KindClock,
				X: 4, Y: 2, W: 16, H: 12, MinW: 12, MinH: 8,
				Config: widget.DefaultConfig(widget.KindClock),
			},
			{
				ID: "controls", Type: widget.KindControls,
				X: 4, Y: 14, W: 16, H: 6, MinW: 12, MinH: 4,
				Config: widget.DefaultConfig(widget.KindControls),
			},
		}
	},
}

// Default returns the default layout for key with timestamps set to now.
func Default(key string, now time.Time) ([]model.Item, error) {
	fn, ok := defaultLayouts[key]
	if !ok {
		return nil, NotFoundError{Kind: "layout", ID: key}
	}
	items := fn()
	for i := range items {
		items[i].CreatedAt = now
		items[i].UpdatedAt = now
	}
	return items, nil
}

// DefaultOrEmpty is Default with unknown keys mapping to an empty layout.
func DefaultOrEmpty(key string, now time.Time) []model.Item {
	items, err := Default(key, now)
	if err != nil {
		return []model.Item{}
	}
	return items
}

func withConfig(kind string, overrides map[string]any) json.RawMessage {
	var m map[string]any
	if err := json.Unmarshal(widget.DefaultConfig(kind), &m); err != nil {
		panic(fmt.Sprintf("default %s config: %v", kind, err))
	}
	for k, v := range overrides {
		m[k] = v
	}
	b, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	return b
}
