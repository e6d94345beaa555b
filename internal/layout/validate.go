package layout

import (
	"errors"
	"fmt"

	"vibetab/internal/grid"
	"vibetab/internal/model"
)

// Validate checks a stored collection before it is adopted: IDs must be present and unique,
// spans positive, coordinates non-negative and no two items may overlap. Extent is not checked;
// stored layouts may exceed the current viewport.
func Validate(items []model.Item) error {
	var errs []error
	seen := map[string]bool{}
	for i, it := range items {
		switch {
		case it.ID == "":
			errs = append(errs, fmt.Errorf("%w: item %d has no id", ErrInvalid, i))
		case seen[it.ID]:
			errs = append(errs, fmt.Errorf("%w: duplicate id %q", ErrInvalid, it.ID))
		}
		seen[it.ID] = true
		if it.W < 1 || it.H < 1 {
			errs = append(errs, fmt.Errorf("%w: %s has size %dx%d", ErrInvalid, it.ID, it.W, it.H))
		}
		if it.X < 0 || it.Y < 0 {
			errs = append(errs, fmt.Errorf("%w: %s at negative position (%d,%d)", ErrInvalid, it.ID, it.X, it.Y))
		}
	}
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if grid.CheckCollision(items[i], items[j]) {
				errs = append(errs, &CollisionError{ItemID: items[i].ID, WithID: items[j].ID})
			}
		}
	}
	return errors.Join(errs...)
}
