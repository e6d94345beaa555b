package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorrupt marks a stored value that exists but cannot be used.
var ErrCorrupt = errors.New("corrupt stored value")

// LoadJSON decodes the value under key into a T. A missing key yields def with no error.
// A value that fails to decode or validate yields def and an error wrapping ErrCorrupt; a
// failed read yields def and the read error. Callers log the error and carry on with def.
func LoadJSON[T any](ctx context.Context, kv KV, key string, def T, validate func(T) error) (T, error) {
	b, ok, err := kv.Get(ctx, key)
	if err != nil {
		return def, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || len(b) == 0 {
		return def, nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return def, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	if validate != nil {
		if err := validate(v); err != nil {
			return def, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
		}
	}
	return v, nil
}

func SaveJSON(ctx context.Context, kv KV, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return kv.Put(ctx, key, b)
}
