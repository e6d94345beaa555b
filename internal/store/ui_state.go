package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"vibetab/internal/gridconfig"
)

const uiStateFileName = "ui_state.json"

// UIState is small per-directory state restored on the next launch: the zoom hysteresis
// state and the last layout and viewport used. Callers tolerate missing or invalid data.
type UIState struct {
	Version int `json:"version"`

	Layout   string               `json:"layout,omitempty"`
	Viewport *Viewport            `json:"viewport,omitempty"`
	Zoom     gridconfig.ZoomState `json:"zoom"`

	// BaseCellPx records a user-chosen cell size. Zero means "use the config value".
	BaseCellPx int `json:"baseCellPx,omitempty"`
}

func (s Store) uiStatePath() string {
	return filepath.Join(s.Dir, uiStateFileName)
}

func (s Store) LoadUIState() (*UIState, error) {
	if strings.TrimSpace(s.Dir) == "" {
		return &UIState{Version: 1}, nil
	}
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.uiStatePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &UIState{Version: 1}, nil
		}
		return nil, err
	}
	var st UIState
	if err := json.Unmarshal(b, &st); err != nil {
		// Corrupt state is treated as missing.
		return &UIState{Version: 1}, nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	return &st, nil
}

func (s Store) SaveUIState(st *UIState) error {
	if st == nil || strings.TrimSpace(s.Dir) == "" {
		return nil
	}
	if err := s.Ensure(); err != nil {
		return err
	}
	if st.Version == 0 {
		st.Version = 1
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(s.Dir, uiStateFileName+".*.tmp", s.uiStatePath(), b, 0o644)
}
