package layout

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"vibetab/internal/model"
)

func TestDefaultLayouts(t *testing.T) {
	t.Parallel()

	if got := Keys(); !reflect.DeepEqual(got, []string{KeyPomodoro, KeyWidgets}) {
		t.Fatalf("Keys = %v", got)
	}

	for _, key := range Keys() {
		items, err := Default(key, testNow)
		if err != nil {
			t.Fatalf("Default(%s): %v", key, err)
		}
		if err := Validate(items); err != nil {
			t.Fatalf("default %s layout is invalid: %v", key, err)
		}
		for _, it := range items {
			if !it.CreatedAt.Equal(testNow) || !it.UpdatedAt.Equal(testNow) {
				t.Fatalf("%s/%s timestamps not set", key, it.ID)
			}
		}
	}

	w, _ := Default(KeyWidgets, testNow)
	if w[0].ID != "clock-1" || !w[0].Locked || w[0].Rect() != (model.Rect{X: 0, Y: 0, W: 12, H: 2}) {
		t.Fatalf("widgets clock = %+v", w[0])
	}
	var clock map[string]any
	if err := json.Unmarshal(w[0].Config, &clock); err != nil {
		t.Fatalf("clock config: %v", err)
	}
	if clock["showSeconds"] != true || clock["style"] != "digital" {
		t.Fatalf("clock config = %v", clock)
	}
	if w[1].ID != "search-1" || w[1].Rect() != (model.Rect{X: 2, Y: 2, W: 8, H: 1}) {
		t.Fatalf("widgets search = %+v", w[1])
	}

	p, _ := Default(KeyPomodoro, testNow)
	if p[0].MinW != 12 || p[0].MinH != 8 || p[1].Rect() != (model.Rect{X: 4, Y: 14, W: 16, H: 6}) {
		t.Fatalf("pomodoro = %+v", p)
	}

	if _, err := Default("nope", testNow); !errors.As(err, new(NotFoundError)) {
		t.Fatalf("unknown key: %v", err)
	}
	if got := DefaultOrEmpty("nope", testNow); got == nil || len(got) != 0 {
		t.Fatalf("DefaultOrEmpty = %v", got)
	}

	// Each call returns fresh slices.
	a, _ := Default(KeyWidgets, testNow)
	a[0].X = 5
	b, _ := Default(KeyWidgets, testNow)
	if b[0].X != 0 {
		t.Fatalf("default layout shared between calls")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		items []model.Item
		is    error
	}{
		{"empty", nil, nil},
		{"ok", []model.Item{item("a", 0, 0, 2, 2), item("b", 2, 0, 2, 2)}, nil},
		{"missing id", []model.Item{item("", 0, 0, 1, 1)}, ErrInvalid},
		{"duplicate", []model.Item{item("a", 0, 0, 1, 1), item("a", 3, 3, 1, 1)}, ErrInvalid},
		{"zero span", []model.Item{item("a", 0, 0, 0, 1)}, ErrInvalid},
		{"negative", []model.Item{item("a", -1, 0, 1, 1)}, ErrInvalid},
		{"overlap", []model.Item{item("a", 0, 0, 2, 2), item("b", 1, 1, 2, 2)}, ErrCollision},
		{"beyond extent is fine", []model.Item{item("a", 500, 500, 2, 2)}, nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(tt.items)
			if tt.is == nil {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.is) {
				t.Fatalf("Validate = %v, want %v", err, tt.is)
			}
		})
	}
}
