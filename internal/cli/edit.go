package cli

import (
	"context"

	"vibetab/internal/tui"

	"github.com/spf13/cobra"
)

func newEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit the layout in the terminal (default when no command is given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEditor(cmd, app)
		},
	}
}

func runEditor(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	d, s, err := openDashboard(ctx, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	runErr := tui.Run(d)
	if err := closeDashboard(ctx, d, s); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return writeErr(cmd, runErr)
	}
	return nil
}
