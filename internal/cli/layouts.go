package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"vibetab/internal/dashboard"
	"vibetab/internal/format"
	"vibetab/internal/layout"
	"vibetab/internal/model"
	"vibetab/internal/store"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type layoutView struct {
	Layout  string                `json:"layout"`
	Grid    dashboard.Grid        `json:"grid"`
	History dashboard.HistoryInfo `json:"history"`
	Items   []model.Item          `json:"items"`
}

func newLayoutCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Show, reset, export and import layouts",
	}
	cmd.AddCommand(newLayoutShowCmd(app))
	cmd.AddCommand(newLayoutListCmd(app))
	cmd.AddCommand(newLayoutResetCmd(app))
	cmd.AddCommand(newLayoutExportCmd(app))
	cmd.AddCommand(newLayoutImportCmd(app))
	return cmd
}

func newLayoutShowCmd(app *App) *cobra.Command {
	var projected bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current layout with its grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, app, func(d *dashboard.Dashboard) (any, error) {
				items := d.Items()
				if projected {
					items = d.Projected()
				}
				return layoutView{Layout: d.Layout(), Grid: d.Grid(), History: d.History(), Items: items}, nil
			})
		},
	}
	cmd.Flags().BoolVar(&projected, "projected", false, "Clamp items into the visible grid, as renderers draw them")
	return cmd
}

func newLayoutListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored layouts and layouts with defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := listLayouts(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, map[string]any{"layouts": keys})
		},
	}
}

func listLayouts(ctx context.Context, app *App) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	dir, err := resolveDir(app)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	kv, err := store.Store{Dir: dir}.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	defer kv.Close()
	stored, err := kv.Keys(ctx)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	out := []string{}
	for _, k := range append(layout.Keys(), stored...) {
		if strings.HasSuffix(k, store.HistoryKey("")) || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func newLayoutResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Replace the layout with its defaults (undoable)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, app, func(d *dashboard.Dashboard) (any, error) {
				if err := d.ResetLayout(); err != nil {
					return nil, err
				}
				return d.Items(), nil
			})
		},
	}
}

func newLayoutExportCmd(app *App) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the layout's items (no envelope) in the selected format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			d, s, err := openDashboard(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			items := d.Items()
			if err := closeDashboard(ctx, d, s); err != nil {
				return writeErr(cmd, err)
			}

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return writeErr(cmd, err)
				}
				defer f.Close()
				w = f
			}
			if err := format.Write(w, items, app.Format, true); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	return cmd
}

func newLayoutImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the layout with items from a JSON or YAML file (undoable)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				defer f.Close()
				r = f
			}
			b, err := io.ReadAll(r)
			if err != nil {
				return writeErr(cmd, err)
			}
			items, err := decodeItems(b)
			if err != nil {
				return writeErr(cmd, err)
			}
			return runDashboard(cmd, app, func(d *dashboard.Dashboard) (any, error) {
				if err := d.Import(items); err != nil {
					return nil, err
				}
				return d.Items(), nil
			})
		},
	}
}

// decodeItems reads a list of items from JSON or YAML. YAML is converted through JSON so the
// item's json field names apply to both.
func decodeItems(b []byte) ([]model.Item, error) {
	var x any
	if err := yaml.Unmarshal(b, &x); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	if m, ok := x.(map[string]any); ok {
		// Accept the output of `layout show` too.
		if data, ok := m["data"].(map[string]any); ok {
			m = data
		}
		x = m["items"]
	}
	if _, ok := x.([]any); !ok {
		return nil, fmt.Errorf("parse layout: expected a list of items")
	}
	j, err := json.Marshal(x)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	var items []model.Item
	if err := json.Unmarshal(j, &items); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	return items, nil
}
