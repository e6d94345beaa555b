package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"vibetab/internal/gridconfig"
	"vibetab/internal/layout"
)

const (
	configFileName = "config.json"

	DefaultSaveDebounceMs = 300
	DefaultViewportWidth  = 1920
	DefaultViewportHeight = 1080
)

// Config is the global, per-user configuration.
type Config struct {
	// Storage selects the layout backend: "sqlite" (default) or "json".
	Storage string `json:"storage,omitempty"`

	// Viewport is used when no real viewport is known (CLI invocations).
	Viewport *Viewport `json:"viewport,omitempty"`

	BaseCellPx     int                    `json:"baseCellPx,omitempty"`
	Gap            *int                   `json:"gap,omitempty"`
	HistoryLimit   int                    `json:"historyLimit,omitempty"`
	SaveDebounceMs int                    `json:"saveDebounceMs,omitempty"`
	Zoom           *gridconfig.ZoomConfig `json:"zoom,omitempty"`
}

type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Defaults fills unset fields. It never overrides explicit values.
func (c *Config) Defaults() {
	if strings.TrimSpace(c.Storage) == "" {
		c.Storage = BackendSQLite
	}
	if c.Viewport == nil || c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		c.Viewport = &Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	if c.BaseCellPx <= 0 {
		c.BaseCellPx = gridconfig.DefaultBaseCellPx
	}
	c.BaseCellPx = gridconfig.ClampBaseCellPx(c.BaseCellPx)
	if c.Gap == nil || *c.Gap < 0 {
		g := gridconfig.DefaultGap
		c.Gap = &g
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = layout.DefaultHistoryLimit
	}
	if c.SaveDebounceMs <= 0 {
		c.SaveDebounceMs = DefaultSaveDebounceMs
	}
	if c.Zoom == nil {
		z := gridconfig.DefaultZoomConfig()
		c.Zoom = &z
	}
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.vibetab).
	if v := strings.TrimSpace(os.Getenv("VIBETAB_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".vibetab"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// LoadConfig reads the global config. A missing file yields an empty config; callers apply
// Defaults themselves so they can tell explicit values from defaults.
func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	// Keep a copy of the previous config. Failures here never block the save.
	if prev, err := os.ReadFile(path); err == nil && len(prev) > 0 {
		_ = atomicWriteFile(dir, "config.json.bak.*.tmp", path+".bak", prev, 0o644)
	}
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}
