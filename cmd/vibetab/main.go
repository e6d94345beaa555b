package main

import (
	"fmt"
	"os"
	"strings"

	"vibetab/internal/cli"
)

// layoutShortcut returns the layout key for an "@key" token.
func layoutShortcut(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "@") || len(s) == 1 {
		return "", false
	}
	return s[1:], true
}

// rewriteLayoutShortcutArgs turns `vibetab @pomodoro ...` into `vibetab --layout pomodoro ...`.
//
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten before parsing.
// Persistent flags often come first, so the first positional token is searched for, not argv[1].
func rewriteLayoutShortcutArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	// Unknown flags are skipped without consuming a value so the shortcut is never swallowed.
	valueFlags := map[string]bool{
		"--dir":        true,
		"--layout":     true,
		"--format":     true,
		"--viewport":   true,
		"--log-level":  true,
		"--log-format": true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
			}
			continue
		}

		key, ok := layoutShortcut(a)
		if !ok {
			return argv
		}
		out := make([]string, 0, len(argv)+1)
		out = append(out, argv[:i]...)
		out = append(out, "--layout", key)
		out = append(out, argv[i+1:]...)
		return out
	}
	return argv
}

func main() {
	os.Args = rewriteLayoutShortcutArgs(os.Args)

	cmd := cli.NewRootCmd()
	cmd.SetArgs(os.Args[1:])
	if err := cmd.Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		os.Exit(1)
	}
}
