package layout

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds = errors.New("out of bounds")
	ErrCollision   = errors.New("collision")
	ErrLocked      = errors.New("item is locked")
	ErrNoSpace     = errors.New("no free space")
	ErrInvalid     = errors.New("invalid item")
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// CollisionError names the item whose placement was refused and the item it would overlap.
type CollisionError struct {
	ItemID string
	WithID string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("%s collides with %s", e.ItemID, e.WithID)
}

func (e *CollisionError) Is(target error) bool { return target == ErrCollision }

// IsRejection reports whether err is one of the ordinary "did not move" outcomes.
func IsRejection(err error) bool {
	return errors.Is(err, ErrOutOfBounds) ||
		errors.Is(err, ErrCollision) ||
		errors.Is(err, ErrLocked) ||
		errors.Is(err, ErrNoSpace)
}
