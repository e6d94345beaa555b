package store

import (
	"context"
	"time"

	"vibetab/internal/history"
	"vibetab/internal/layout"
	"vibetab/internal/model"
)

// HistoryKey is where the undo timeline of a layout is kept.
func HistoryKey(layoutKey string) string {
	return layoutKey + ".history"
}

// LoadLayout returns the stored layout for key, or its default layout when nothing usable is
// stored. Legacy item fields are migrated. A non-nil error means the default was substituted
// for a stored value and should be logged.
func LoadLayout(ctx context.Context, kv KV, key string, now time.Time) ([]model.Item, error) {
	def := layout.DefaultOrEmpty(key, now)
	items, err := LoadJSON(ctx, kv, key, def, func(items []model.Item) error {
		return layout.Validate(items)
	})
	if items == nil {
		items = []model.Item{}
	}
	model.MigrateLegacy(items)
	return items, err
}

func SaveLayout(ctx context.Context, kv KV, key string, items []model.Item) error {
	if items == nil {
		items = []model.Item{}
	}
	return SaveJSON(ctx, kv, key, items)
}

// LoadHistory returns the persisted undo timeline for a layout. Missing or unreadable history
// is empty.
func LoadHistory(ctx context.Context, kv KV, key string) (history.Stacks[[]model.Item], error) {
	return LoadJSON(ctx, kv, HistoryKey(key), history.Stacks[[]model.Item]{}, nil)
}

func SaveHistory(ctx context.Context, kv KV, key string, st history.Stacks[[]model.Item]) error {
	return SaveJSON(ctx, kv, HistoryKey(key), st)
}
