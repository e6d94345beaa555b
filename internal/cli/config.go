package cli

import (
	"fmt"
	"strconv"
	"strings"

	"vibetab/internal/store"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the global config (~/.vibetab/config.json)",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			path, _ := store.ConfigPath()
			return writeData(cmd, app, map[string]any{"path": path, "config": cfg})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set storage|viewport|baseCellPx|gap|historyLimit|saveDebounceMs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			cfg.Defaults()
			return writeData(cmd, app, cfg)
		},
	})
	return cmd
}

func setConfigValue(cfg *store.Config, key, value string) error {
	value = strings.TrimSpace(value)
	atoi := func(lo int) (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil || n < lo {
			return 0, fmt.Errorf("invalid %s %q (want an integer >= %d)", key, value, lo)
		}
		return n, nil
	}

	switch key {
	case "storage":
		v := strings.ToLower(value)
		if v != store.BackendSQLite && v != store.BackendJSON {
			return fmt.Errorf("invalid storage %q (want sqlite|json)", value)
		}
		cfg.Storage = v
	case "viewport":
		vp, err := parseViewport(value)
		if err != nil || vp == nil {
			return fmt.Errorf("invalid viewport %q (want WIDTHxHEIGHT)", value)
		}
		cfg.Viewport = vp
	case "baseCellPx":
		n, err := atoi(1)
		if err != nil {
			return err
		}
		cfg.BaseCellPx = n
	case "gap":
		n, err := atoi(0)
		if err != nil {
			return err
		}
		cfg.Gap = &n
	case "historyLimit":
		n, err := atoi(1)
		if err != nil {
			return err
		}
		cfg.HistoryLimit = n
	case "saveDebounceMs":
		n, err := atoi(1)
		if err != nil {
			return err
		}
		cfg.SaveDebounceMs = n
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}
