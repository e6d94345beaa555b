package store

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func TestKVBackends(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backends := []struct {
		name string
		open func(t *testing.T) KV
	}{
		{"memory", func(t *testing.T) KV { return NewMemoryKV() }},
		{"json", func(t *testing.T) KV { return &FileKV{Dir: t.TempDir()} }},
		{"sqlite", func(t *testing.T) KV {
			kv, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "kv.sqlite"))
			if err != nil {
				t.Fatalf("OpenSQLite: %v", err)
			}
			return kv
		}},
	}
	for _, b := range backends {
		b := b
		t.Run(b.name, func(t *testing.T) {
			t.Parallel()
			kv := b.open(t)
			defer kv.Close()

			if _, ok, err := kv.Get(ctx, "widgets"); err != nil || ok {
				t.Fatalf("Get(missing): ok=%v err=%v", ok, err)
			}
			if err := kv.Put(ctx, "widgets", []byte(`[1]`)); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := kv.Put(ctx, "widgets", []byte(`[1,2]`)); err != nil {
				t.Fatalf("Put overwrite: %v", err)
			}
			if err := kv.Put(ctx, "pomodoro", []byte(`[]`)); err != nil {
				t.Fatalf("Put: %v", err)
			}
			got, ok, err := kv.Get(ctx, "widgets")
			if err != nil || !ok || string(got) != `[1,2]` {
				t.Fatalf("Get: %q ok=%v err=%v", got, ok, err)
			}
			keys, err := kv.Keys(ctx)
			if err != nil {
				t.Fatalf("Keys: %v", err)
			}
			if !reflect.DeepEqual(keys, []string{"pomodoro", "widgets"}) {
				t.Fatalf("Keys = %v", keys)
			}
		})
	}
}

func TestFileKV_RejectsPathKeys(t *testing.T) {
	t.Parallel()

	kv := &FileKV{Dir: t.TempDir()}
	for _, key := range []string{"", "../x", "a/b", `a\b`} {
		if err := kv.Put(context.Background(), key, []byte("{}")); err == nil {
			t.Fatalf("Put(%q) should fail", key)
		}
	}
}

func TestStoreOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := Store{Dir: filepath.Join(t.TempDir(), "data")}

	kv, err := s.Open(ctx, "")
	if err != nil {
		t.Fatalf("Open(default): %v", err)
	}
	if _, ok := kv.(*SQLiteKV); !ok {
		t.Fatalf("default backend = %T, want *SQLiteKV", kv)
	}
	if err := kv.Put(ctx, "widgets", []byte(`[]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_ = kv.Close()

	// Reopening sees the same data.
	kv, err = s.Open(ctx, BackendSQLite)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "widgets"); !ok {
		t.Fatalf("value lost across reopen")
	}
	_ = kv.Close()

	kv, err = s.Open(ctx, "JSON")
	if err != nil {
		t.Fatalf("Open(json): %v", err)
	}
	if _, ok := kv.(*FileKV); !ok {
		t.Fatalf("json backend = %T", kv)
	}

	if _, err := s.Open(ctx, "redis"); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	if _, err := (Store{}).Open(ctx, ""); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}
