package cli

import (
	"vibetab/internal/dashboard"
	"vibetab/internal/model"

	"github.com/spf13/cobra"
)

type historyStepView struct {
	Applied bool                  `json:"applied"`
	History dashboard.HistoryInfo `json:"history"`
	Items   []model.Item          `json:"items"`
}

func newUndoCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Undo the last layout change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, app, func(d *dashboard.Dashboard) (any, error) {
				ok := d.Undo()
				return historyStepView{Applied: ok, History: d.History(), Items: d.Items()}, nil
			})
		},
	}
}

func newRedoCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Redo the last undone layout change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, app, func(d *dashboard.Dashboard) (any, error) {
				ok := d.Redo()
				return historyStepView{Applied: ok, History: d.History(), Items: d.Items()}, nil
			})
		},
	}
}

func newHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show undo/redo availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, app, func(d *dashboard.Dashboard) (any, error) {
				return d.History(), nil
			})
		},
	}
}
