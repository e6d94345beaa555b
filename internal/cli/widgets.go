package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"vibetab/internal/dashboard"
	"vibetab/internal/layout"
	"vibetab/internal/model"
	"vibetab/internal/widget"

	"github.com/spf13/cobra"
)

type widgetView struct {
	model.Item
	Summary string `json:"summary"`
}

type kindView struct {
	Name        string          `json:"name"`
	DefaultSize model.Size      `json:"defaultSize"`
	MinSize     model.Size      `json:"minSize"`
	Presets     []widget.Preset `json:"presets"`
	Config      json.RawMessage `json:"config"`
}

func newWidgetsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "widgets",
		Aliases: []string{"widget", "w"},
		Short:   "Add, move, resize and configure widgets",
	}
	cmd.AddCommand(newWidgetsListCmd(app))
	cmd.AddCommand(newWidgetsShowCmd(app))
	cmd.AddCommand(newWidgetsKindsCmd(app))
	cmd.AddCommand(newWidgetsAddCmd(app))
	cmd.AddCommand(newWidgetsMoveCmd(app))
	cmd.AddCommand(newWidgetsResizeCmd(app))
	cmd.AddCommand(newWidgetsRemoveCmd(app))
	cmd.AddCommand(newWidgetsLockCmd(app, true))
	cmd.AddCommand(newWidgetsLockCmd(app, false))
	cmd.AddCommand(newWidgetsAlignCmd(app))
	cmd.AddCommand(newWidgetsConfigCmd(app))
	return cmd
}

func parsePolicyFlag(s string) (model.Policy, error) {
	p, ok := model.ParsePolicy(strings.ToLower(strings.TrimSpace(s)))
	if !ok {
		return "", fmt.Errorf("invalid --policy %q (want reject|displace)", s)
	}
	return p, nil
}

func newWidgetsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List widgets with a one-line summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, app, func(d *dashboard.Dashboard) (any, error) {
				items := d.Items()
				out := make([]widgetView, 0, len(items))
				for _, it := range items {
					out = append(out, widgetView{Item: it, Summary: d.Summary(it)})
				}
				return out, nil
			})
		},
	}
}

func newWidgetsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <widget-id>",
		Short: "Show one widget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, app, func(d *dashboard.Dashboard) (any, error) {
				it, err := d.Item(args[0])
				if err != nil {
					return nil, err
				}
				return widgetView{Item: it, Summary: d.Summary(it)}, nil
			})
		},
	}
}

func newWidgetsKindsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List widget kinds with sizes, presets and default config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := widget.NewRegistry()
			out := []kindView{}
			for _, name := range reg.Names() {
				k, _ := reg.Get(name)
				presets := k.Presets()
				if presets == nil {
					presets = []widget.Preset{}
				}
				out = append(out, kindView{
					Name:        name,
					DefaultSize: k.DefaultSize(),
					MinSize:     k.MinSize(),
					Presets:     presets,
					Config:      k.DefaultConfig(),
				})
			}
			return writeData(cmd, app, out)
		},
	}
}

func newWidgetsAddCmd(app *App) *cobra.Command {
	var req dashboard.NewWidget
	var x, y, w, h int
	var config, policy string

	cmd := &cobra.Command{
		Use:   "add <kind>",
		Short: "Add a widget (first free slot unless --x and --y are given)",
		Args:  cobra.ExactArgs(1),
		Example: strings.TrimSpace(`
vibetab widgets add clock --preset small
vibetab widgets add todo --x 0 --y 10 --policy displace
vibetab widgets add weather --config '{"unit":"f","city":"Oslo"}'
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Type = args[0]
			flags := cmd.Flags()
			if flags.Changed("x") != flags.Changed("y") {
				return writeErr(cmd, errors.New("--x and --y must be given together"))
			}
			if flags.Changed("x") {
				req.X, req.Y = &x, &y
			}
			if flags.Changed("w") {
				req.W = &w
			}
			if flags.Changed("h") {
				req.H = &h
			}
			if config != "" {
				if !json.Valid([]byte(config)) {
					return writeErr(cmd, fmt.Errorf("--config is not valid JSON"))
				}
				req.Config = json.RawMessage(config)
			}
			p, err := parsePolicyFlag(policy)
			if err != nil {
				return writeErr(cmd, err)
			}
			req.Policy = p
			return runDashboard(cmd, app, func(d *dashboard.Dashboard) (any, error) {
				return d.Add(req)
			})
		},
	}
	cmd.Flags().StringVar(&req.ID, "id", "", "Widget id (default: generated)")
	cmd.Flags().StringVar(&req.Preset, "preset", "", "Size preset (see `widgets kinds`)")
	cmd.Flags().IntVar(&x, "x", 0, "Column")
	cmd.Flags().IntVar(&y, "y", 0, "Row")
	cmd.Flags().IntVar(&w, "w", 0, "Width in cells (default: kind or preset size)")
	cmd.Flags().IntVar(&h, "h", 0, "Height in cells (default: kind or preset size)")
	cmd.Flags().StringVar(&config, "config", "", "Widget config as JSON")
	cmd.Flags().StringVar(&policy, "policy", "reject", "On overlap: reject|displace")
	return cmd
}

func newWidgetsMoveCmd(app *App) *cobra.Command {
	var x, y, dx, dy, dxPx, dyPx int
	var policy string

	cmd := &cobra.Command{
		Use:   "move <widget-id>",
		Short: "Move a widget to a cell, by cells, or by a pixel drag",
		Args:  cobra.ExactArgs(1),
		Example: strings.TrimSpace(`
vibetab widgets move search-1 --x 10 --y 4
vibetab widgets move search-1 --dx 2
vibetab widgets move search-1 --dx-px 36 --dy-px -18
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePolicyFlag(policy)
			if err != nil {
				return writeErr(cmd, err)
			}
			flags := cmd.Flags()
			abs := flags.Changed("x") || flags.Changed("y")
			rel := flags.Changed("dx") || flags.Changed("dy")
			px := flags.Changed("dx-px") || flags.Changed("dy-px")
			if n := countTrue(abs, rel, px); n != 1 {
				return writeErr(cmd, errors.New("give exactly one of --x/--y, --dx/--dy or --dx-px/--dy-px"))
			}
			id := args[0]
			return runDashboard(cmd, app, func(d *dashboard.Dashboard) (any, error) {
				switch {
				case px:
					return d.MoveByPx(id, dxPx, dyPx, p)
				case rel:
					cur, err := d.Item(id)
					if err != nil {
						return nil, err
					}
					return d.Move(id, cur.X+dx, cur.Y+dy, p)
				default:
					g := layout.Geometry{}
					if flags.Changed("x") {
						g.X = &x
					}
					if flags.Changed("y") {
						g.Y = &y
					}
					return d.Update(id, g, p)
				}
			})
		},
	}
	cmd.Flags().IntVar(&x, "x", 0, "Target column")
	cmd.Flags().IntVar(&y, "y", 0, "Target row")
	cmd.Flags().IntVar(&dx, "dx", 0, "Column delta")
	cmd.Flags().IntVar(&dy, "dy", 0, "Row delta")
	cmd.Flags().IntVar(&dxPx, "dx-px", 0, "Horizontal drag distance in pixels")
	cmd.Flags().IntVar(&dyPx, "dy-px", 0, "Vertical drag distance in pixels")
	cmd.Flags().StringVar(&policy, "policy", "reject", "On overlap: reject|displace")
	return cmd
}

func newWidgetsResizeCmd(app *App) *cobra.Command {
	var w, h, dwPx, dhPx int
	var policy string

	cmd := &cobra.Command{
		Use:   "resize <widget-id>",
		Short: "Resize a widget in cells or by a pixel drag of its handle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePolicyFlag(policy)
			if err != nil {
				return writeErr(cmd, err)
			}
			flags := cmd.Flags()
			cells := flags.Changed("w") || flags.Changed("h")
			px := flags.Changed("dw-px") || flags.Changed("dh-px")
			if countTrue(cells, px) != 1 {
				return writeErr(cmd, errors.New("give exactly one of --w/--h or --dw-px/--dh-px"))
			}
			id := args[0]
			return runDashboard(cmd, app, func(d *dashboard.Dashboard) (any, error) {
				if px {
					return d.ResizeByPx(id, dwPx, dhPx, p)
				}
				g := layout.Geometry{}
				if flags.Changed("w") {
					g.W = &w
				}
				if flags.Changed("h") {
					g.H = &h
				}
				return d.Update(id, g, p)
			})
		},
	}
	cmd.Flags().IntVar(&w, "w", 0, "Width in cells")
	cmd.Flags().IntVar(&h, "h", 0, "Height in cells")
	cmd.Flags().IntVar(&dwPx, "dw-px", 0, "Width change in pixels")
	cmd.Flags().IntVar(&dhPx, "dh-px", 0, "Height change in pixels")
	cmd.Flags().StringVar(&policy, "policy", "reject", "On overlap: reject|displace")
	return cmd
}

func newWidgetsRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <widget-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a widget (locked widgets too)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, app, func(d *dashboard.Dashboard) (any, error) {
				if err := d.Remove(args[0]); err != nil {
					return nil, err
				}
				return map[string]any{"removed": args[0]}, nil
			})
		},
	}
}

func newWidgetsLockCmd(app *App, locked bool) *cobra.Command {
	use, short := "lock", "Lock a widget in place"
	if !locked {
		use, short = "unlock", "Unlock a widget"
	}
	return &cobra.Command{
		Use:   use + " <widget-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, app, func(d *dashboard.Dashboard) (any, error) {
				return d.SetLocked(args[0], locked)
			})
		},
	}
}

func newWidgetsAlignCmd(app *App) *cobra.Command {
	anchors := make([]string, 0, len(model.Anchors()))
	for _, a := range model.Anchors() {
		anchors = append(anchors, string(a))
	}
	return &cobra.Command{
		Use:       "align <widget-id> <anchor>",
		Short:     "Snap a widget to an edge, corner or the center (" + strings.Join(anchors, "|") + ")",
		Args:      cobra.ExactArgs(2),
		ValidArgs: anchors,
		RunE: func(cmd *cobra.Command, args []string) error {
			anchor, ok := model.ParseAnchor(strings.ToLower(strings.TrimSpace(args[1])))
			if !ok {
				return writeErr(cmd, fmt.Errorf("invalid anchor %q (want %s)", args[1], strings.Join(anchors, "|")))
			}
			return runDashboard(cmd, app, func(d *dashboard.Dashboard) (any, error) {
				return d.Align(args[0], anchor)
			})
		},
	}
}

func newWidgetsConfigCmd(app *App) *cobra.Command {
	var set string
	var reset bool

	cmd := &cobra.Command{
		Use:   "config <widget-id>",
		Short: "Show, replace (--set) or reset (--reset) a widget's config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if set != "" && reset {
				return writeErr(cmd, errors.New("--set and --reset are mutually exclusive"))
			}
			if set != "" && !json.Valid([]byte(set)) {
				return writeErr(cmd, errors.New("--set is not valid JSON"))
			}
			id := args[0]
			return runDashboard(cmd, app, func(d *dashboard.Dashboard) (any, error) {
				var it model.Item
				var err error
				switch {
				case reset:
					it, err = d.ResetConfig(id)
				case set != "":
					it, err = d.SetConfig(id, json.RawMessage(set))
				default:
					it, err = d.Item(id)
				}
				if err != nil {
					return nil, err
				}
				cfg := it.Config
				if len(cfg) == 0 {
					cfg = d.Kinds().Lookup(it.Type).DefaultConfig()
				}
				return map[string]any{"id": it.ID, "type": it.Type, "config": cfg}, nil
			})
		},
	}
	cmd.Flags().StringVar(&set, "set", "", "Replace the config with this JSON object")
	cmd.Flags().BoolVar(&reset, "reset", false, "Restore the kind's default config")
	return cmd
}

func countTrue(bs ...bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}
