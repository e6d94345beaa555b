package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"vibetab/internal/applog"
	"vibetab/internal/dashboard"
	"vibetab/internal/store"

	"github.com/spf13/cobra"
)

// resolveDir picks the data directory: --dir, then the nearest .vibetab dir, then the data dir
// under the global config dir.
func resolveDir(app *App) (string, error) {
	if d := strings.TrimSpace(app.Dir); d != "" {
		return d, nil
	}
	d, err := store.DefaultDir()
	if err != nil {
		return "", err
	}
	app.Dir = d
	return d, nil
}

// parseViewport parses WIDTHxHEIGHT. An empty string yields nil.
func parseViewport(s string) (*store.Viewport, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil, nil
	}
	ws, hs, ok := strings.Cut(s, "x")
	if !ok {
		return nil, fmt.Errorf("invalid viewport %q (want WIDTHxHEIGHT)", s)
	}
	w, err1 := strconv.Atoi(strings.TrimSpace(ws))
	h, err2 := strconv.Atoi(strings.TrimSpace(hs))
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid viewport %q (want positive WIDTHxHEIGHT)", s)
	}
	return &store.Viewport{Width: w, Height: h}, nil
}

func loadConfig() (*store.Config, error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, err
	}
	cfg.Defaults()
	return cfg, nil
}

// openDashboard opens the data directory and restores the last session state. Callers must
// call closeDashboard.
func openDashboard(ctx context.Context, app *App) (*dashboard.Dashboard, store.Store, error) {
	dir, err := resolveDir(app)
	if err != nil {
		return nil, store.Store{}, err
	}
	s := store.Store{Dir: dir}
	vp, err := parseViewport(app.Viewport)
	if err != nil {
		return nil, s, err
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, s, err
	}
	ui, err := s.LoadUIState()
	if err != nil {
		return nil, s, err
	}
	kv, err := s.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, s, err
	}
	d, err := dashboard.New(ctx, kv, dashboard.Options{
		Layout:   app.Layout,
		Config:   cfg,
		UI:       ui,
		Viewport: vp,
		Logger:   applog.OrDiscard(app.logger),
		Now:      app.now,
	})
	if err != nil {
		_ = kv.Close()
		return nil, s, err
	}
	return d, s, nil
}

// closeDashboard flushes pending writes and remembers the session state for the next run.
func closeDashboard(ctx context.Context, d *dashboard.Dashboard, s store.Store) error {
	st := d.UIState()
	return errors.Join(d.Close(ctx), s.SaveUIState(st))
}

// runDashboard opens the dashboard, runs fn and prints its result in a data envelope.
func runDashboard(cmd *cobra.Command, app *App, fn func(d *dashboard.Dashboard) (any, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	d, s, err := openDashboard(ctx, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	out, runErr := fn(d)
	if err := closeDashboard(ctx, d, s); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return writeErr(cmd, runErr)
	}
	return writeData(cmd, app, out)
}
