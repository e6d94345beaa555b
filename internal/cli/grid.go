package cli

import (
	"fmt"
	"strconv"

	"vibetab/internal/dashboard"
	"vibetab/internal/gridconfig"

	"github.com/spf13/cobra"
)

func newGridCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Inspect and tune the viewport grid and zoom",
		Long: `The grid extent is derived from the viewport (--viewport WxH, else the last one used).
Zoom moves in 0.05 steps when the viewport changes by more than 10% on both axes.`,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "dims",
		Short: "Show columns, rows and cell size for the viewport",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, app, func(d *dashboard.Dashboard) (any, error) {
				return d.Grid(), nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "zoom",
		Short: "Show the zoom factor and its stable viewport",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, app, func(d *dashboard.Dashboard) (any, error) {
				return d.Grid().Zoom, nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset-zoom",
		Short: "Return to full zoom at the current viewport",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, app, func(d *dashboard.Dashboard) (any, error) {
				return d.ResetZoom(), nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "cell-size <px>",
		Short: fmt.Sprintf("Set the base cell size (%d..%d px)", gridconfig.MinBaseCellPx, gridconfig.MaxBaseCellPx),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			px, err := strconv.Atoi(args[0])
			if err != nil {
				return writeErr(cmd, fmt.Errorf("invalid cell size %q", args[0]))
			}
			return runDashboard(cmd, app, func(d *dashboard.Dashboard) (any, error) {
				return d.SetBaseCellPx(px), nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "px-to-cells <px>",
		Short: "Convert a pixel distance to cells at the current cell size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			px, err := strconv.Atoi(args[0])
			if err != nil {
				return writeErr(cmd, fmt.Errorf("invalid pixel distance %q", args[0]))
			}
			return runDashboard(cmd, app, func(d *dashboard.Dashboard) (any, error) {
				g := d.Grid()
				return map[string]any{"px": px, "cells": gridconfig.PxToCells(px, g.CellPx, g.Gap)}, nil
			})
		},
	})
	return cmd
}
