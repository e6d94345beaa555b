package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"vibetab/internal/applog"
	"vibetab/internal/format"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	Layout     string
	PrettyJSON bool
	Format     string
	Viewport   string
	LogLevel   string
	LogFormat  string

	logger *slog.Logger
	now    func() time.Time
}

func NewRootCmd() *cobra.Command {
	app := &App{now: time.Now}

	cmd := &cobra.Command{
		Use:           "vibetab",
		Short:         "Grid dashboard layouts: CLI, editor and HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Edit the current layout in the terminal
  vibetab

  # Scriptable commands
  vibetab widgets list
  vibetab widgets add weather
  vibetab --viewport 1150x920 grid dims

  # Work on another layout (shortcut for --layout pomodoro)
  vibetab @pomodoro layout show
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive editor.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runEditor(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if _, ok := format.Normalize(app.Format); !ok {
			return writeErr(cmd, fmt.Errorf("invalid --format %q (want %s)", app.Format, strings.Join(format.Formats(), "|")))
		}
		logger, err := applog.New(cmd.ErrOrStderr(), app.LogLevel, app.LogFormat)
		if err != nil {
			return writeErr(cmd, err)
		}
		app.logger = logger
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("VIBETAB_DIR", ""), "Path to data dir (default: nearest .vibetab dir, else ~/.vibetab/data)")
	cmd.PersistentFlags().StringVar(&app.Layout, "layout", envOr("VIBETAB_LAYOUT", ""), "Layout key (default: last used, else 'widgets')")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON/EDN output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("VIBETAB_FORMAT", "json"), "Output format (json|edn|yaml)")
	cmd.PersistentFlags().StringVar(&app.Viewport, "viewport", envOr("VIBETAB_VIEWPORT", ""), "Viewport size in pixels, WIDTHxHEIGHT (default: last used)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("VIBETAB_LOG_LEVEL", "warn"), "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&app.LogFormat, "log-format", envOr("VIBETAB_LOG_FORMAT", "text"), "Log format (text|json)")

	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newLayoutCmd(app))
	cmd.AddCommand(newWidgetsCmd(app))
	cmd.AddCommand(newUndoCmd(app))
	cmd.AddCommand(newRedoCmd(app))
	cmd.AddCommand(newHistoryCmd(app))
	cmd.AddCommand(newGridCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newServeCmd(app))

	return cmd
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeData(cmd *cobra.Command, app *App, v any) error {
	return writeOut(cmd, app, map[string]any{"data": v})
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return reportedError{err: err}
}
