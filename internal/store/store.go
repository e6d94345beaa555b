// Package store persists layouts, history and UI state in a small key-value store.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"

	sqliteFileName = "vibetab.sqlite"
)

// KV is the persistence collaborator. Values are opaque JSON documents.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	// Keys lists stored keys in ascending order.
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Store is a data directory.
type Store struct {
	Dir string
}

func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, ".vibetab")
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// DefaultDir prefers a .vibetab directory in the working directory or one of its parents,
// and otherwise uses the data directory under the global config dir.
func DefaultDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, ok := DiscoverDir(cwd); ok {
		return found, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) sqlitePath() string {
	return filepath.Join(s.Dir, sqliteFileName)
}

// Open opens the key-value backend named by backend ("sqlite" or "json") inside the directory.
func (s Store) Open(ctx context.Context, backend string) (KV, error) {
	if strings.TrimSpace(s.Dir) == "" {
		return nil, fmt.Errorf("store directory is not set")
	}
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendSQLite:
		return OpenSQLite(ctx, s.sqlitePath())
	case BackendJSON:
		return &FileKV{Dir: s.Dir}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want sqlite|json)", backend)
	}
}

// validKey rejects keys that could escape a directory when used as file names.
func validKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("empty key")
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}
