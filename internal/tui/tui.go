// Package tui is the interactive terminal editor for a dashboard layout.
package tui

import (
	"vibetab/internal/dashboard"

	tea "github.com/charmbracelet/bubbletea"
)

func Run(d *dashboard.Dashboard) error {
	applyColorProfilePreference()
	applyThemePreference()
	m := newEditorModel(d)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
