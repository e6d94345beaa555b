package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryKV is an in-process KV, used by tests and by `serve --ephemeral`.
type MemoryKV struct {
	mu sync.Mutex
	m  map[string][]byte

	// FailPuts makes every Put return this error when set.
	FailPuts error
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{m: map[string][]byte{}}
}

func (k *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.m[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (k *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.FailPuts != nil {
		return k.FailPuts
	}
	k.m[key] = append([]byte(nil), value...)
	return nil
}

func (k *MemoryKV) Keys(_ context.Context) ([]string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]string, 0, len(k.m))
	for key := range k.m {
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}

func (k *MemoryKV) Close() error { return nil }
