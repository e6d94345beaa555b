package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"vibetab/internal/dashboard"
	"vibetab/internal/docs"
	"vibetab/internal/layout"
	"vibetab/internal/model"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// A terminal cell stands in for this many pixels when the window size is reported to the
// grid, so the zoom logic sees a plausible viewport.
const (
	pxPerCol = 8
	pxPerRow = 16

	resizeSettle  = 120 * time.Millisecond
	flashDuration = 3 * time.Second
)

type editorMode int

const (
	modeGrid editorMode = iota
	modePicker
	modeHelp
)

type resizeDoneMsg struct{ seq int }

type flashDoneMsg struct{ seq int }

type kindItem struct {
	name string
	size model.Size
}

func (k kindItem) Title() string       { return k.name }
func (k kindItem) Description() string { return fmt.Sprintf("%dx%d cells", k.size.W, k.size.H) }
func (k kindItem) FilterValue() string { return k.name }

type editorModel struct {
	d    *dashboard.Dashboard
	keys keyMap
	help help.Model

	width  int
	height int
	// The first WindowSizeMsg is initial sizing and applies immediately.
	seenWindowSize bool
	resizing       bool
	resizeSeq      int

	mode       editorMode
	picker     list.Model
	helpView   viewport.Model
	selectedID string
	policy     model.Policy

	flash      string
	flashError bool
	flashSeq   int
}

func newEditorModel(d *dashboard.Dashboard) editorModel {
	m := editorModel{
		d:      d,
		keys:   defaultKeyMap(),
		help:   help.New(),
		policy: model.PolicyReject,
	}
	var kinds []list.Item
	for _, name := range d.Kinds().Names() {
		k, _ := d.Kinds().Get(name)
		kinds = append(kinds, kindItem{name: name, size: k.DefaultSize()})
	}
	m.picker = list.New(kinds, list.NewDefaultDelegate(), 0, 0)
	m.picker.Title = "Add widget"
	m.picker.SetShowHelp(false)
	m.helpView = viewport.New(0, 0)
	if items := d.Items(); len(items) > 0 {
		m.selectedID = items[0].ID
	}
	return m
}

func (m editorModel) Init() tea.Cmd { return nil }

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizePanes()
		if !m.seenWindowSize {
			m.seenWindowSize = true
			m.applyViewport()
			return m, nil
		}
		m.resizing = true
		m.resizeSeq++
		seq := m.resizeSeq
		return m, tea.Tick(resizeSettle, func(time.Time) tea.Msg { return resizeDoneMsg{seq: seq} })

	case resizeDoneMsg:
		// Only the latest resize reaches the grid.
		if msg.seq == m.resizeSeq {
			m.resizing = false
			m.applyViewport()
		}
		return m, nil

	case flashDoneMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
			m.flashError = false
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modePicker:
			return m.updatePicker(msg)
		case modeHelp:
			return m.updateHelp(msg)
		default:
			return m.updateGrid(msg)
		}
	}
	return m, nil
}

func (m *editorModel) resizePanes() {
	m.help.Width = m.width
	m.picker.SetSize(max(m.width-4, 10), max(m.height-4, 5))
	m.helpView.Width = max(m.width-2, 10)
	m.helpView.Height = max(m.height-2, 3)
}

func (m *editorModel) applyViewport() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.d.ResizeViewport(m.width*pxPerCol, m.height*pxPerRow)
}

func (m editorModel) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.mode = modeHelp
		m.helpView.SetContent(docs.Render(mustTopic("keys"), m.helpView.Width))
		m.helpView.GotoTop()
		return m, nil
	case key.Matches(msg, k.Add):
		m.mode = modePicker
		m.picker.ResetFilter()
		return m, nil
	case key.Matches(msg, k.Next):
		m.cycle(1)
		return m, nil
	case key.Matches(msg, k.Prev):
		m.cycle(-1)
		return m, nil
	case key.Matches(msg, k.Displace):
		if m.policy == model.PolicyDisplace {
			m.policy = model.PolicyReject
		} else {
			m.policy = model.PolicyDisplace
		}
		cmd := m.setFlash("collisions: "+string(m.policy), false)
		return m, cmd
	case key.Matches(msg, k.Undo):
		if !m.d.Undo() {
			cmd := m.setFlash("nothing to undo", false)
			return m, cmd
		}
		m.keepSelection()
		return m, nil
	case key.Matches(msg, k.Redo):
		if !m.d.Redo() {
			cmd := m.setFlash("nothing to redo", false)
			return m, cmd
		}
		m.keepSelection()
		return m, nil
	}

	it, err := m.d.Item(m.selectedID)
	if err != nil {
		return m, nil
	}
	switch {
	case key.Matches(msg, k.Up):
		_, err = m.d.Move(it.ID, it.X, it.Y-1, m.policy)
	case key.Matches(msg, k.Down):
		_, err = m.d.Move(it.ID, it.X, it.Y+1, m.policy)
	case key.Matches(msg, k.Left):
		_, err = m.d.Move(it.ID, it.X-1, it.Y, m.policy)
	case key.Matches(msg, k.Right):
		_, err = m.d.Move(it.ID, it.X+1, it.Y, m.policy)
	case key.Matches(msg, k.ShrinkW):
		_, err = m.d.Resize(it.ID, it.W-1, it.H, m.policy)
	case key.Matches(msg, k.GrowW):
		_, err = m.d.Resize(it.ID, it.W+1, it.H, m.policy)
	case key.Matches(msg, k.ShrinkH):
		_, err = m.d.Resize(it.ID, it.W, it.H-1, m.policy)
	case key.Matches(msg, k.GrowH):
		_, err = m.d.Resize(it.ID, it.W, it.H+1, m.policy)
	case key.Matches(msg, k.Center):
		_, err = m.d.Align(it.ID, model.AnchorCenter)
	case key.Matches(msg, k.Lock):
		_, err = m.d.SetLocked(it.ID, !it.Locked)
	case key.Matches(msg, k.Remove):
		if err = m.d.Remove(it.ID); err == nil {
			m.keepSelection()
			cmd := m.setFlash("removed "+it.ID, false)
			return m, cmd
		}
	default:
		return m, nil
	}
	if err != nil {
		cmd := m.setFlash(describeError(err), true)
		return m, cmd
	}
	return m, nil
}

func (m editorModel) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.picker.FilterState() != list.Filtering {
		switch msg.String() {
		case "esc", "q":
			m.mode = modeGrid
			return m, nil
		case "enter":
			m.mode = modeGrid
			sel, ok := m.picker.SelectedItem().(kindItem)
			if !ok {
				return m, nil
			}
			it, err := m.d.Add(dashboard.NewWidget{Type: sel.name, Policy: m.policy})
			if err != nil {
				cmd := m.setFlash(describeError(err), true)
				return m, cmd
			}
			m.selectedID = it.ID
			cmd := m.setFlash("added "+it.ID, false)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m editorModel) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "?":
		m.mode = modeGrid
		return m, nil
	}
	var cmd tea.Cmd
	m.helpView, cmd = m.helpView.Update(msg)
	return m, cmd
}

// cycle moves the selection through the items in layout order.
func (m *editorModel) cycle(step int) {
	items := m.d.Items()
	if len(items) == 0 {
		m.selectedID = ""
		return
	}
	idx := 0
	for i, it := range items {
		if it.ID == m.selectedID {
			idx = (i + step + len(items)) % len(items)
			break
		}
	}
	m.selectedID = items[idx].ID
}

// keepSelection falls back to the first item when the selected one is gone.
func (m *editorModel) keepSelection() {
	if _, err := m.d.Item(m.selectedID); err == nil {
		return
	}
	m.selectedID = ""
	if items := m.d.Items(); len(items) > 0 {
		m.selectedID = items[0].ID
	}
}

func (m *editorModel) setFlash(s string, isErr bool) tea.Cmd {
	m.flash = s
	m.flashError = isErr
	m.flashSeq++
	seq := m.flashSeq
	return tea.Tick(flashDuration, func(time.Time) tea.Msg { return flashDoneMsg{seq: seq} })
}

func describeError(err error) string {
	var ce *layout.CollisionError
	switch {
	case errors.As(err, &ce):
		return fmt.Sprintf("blocked by %s", ce.WithID)
	case errors.Is(err, layout.ErrOutOfBounds):
		return "would leave the grid"
	case errors.Is(err, layout.ErrLocked):
		return "widget is locked"
	case errors.Is(err, layout.ErrNoSpace):
		return "no free space"
	default:
		return err.Error()
	}
}

func mustTopic(name string) string {
	md, _ := docs.Get(name)
	return md
}

func (m editorModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	switch m.mode {
	case modePicker:
		return normalizePane(lipgloss.NewStyle().Padding(1, 2).Render(m.picker.View()), m.width, m.height)
	case modeHelp:
		return normalizePane(lipgloss.NewStyle().Padding(0, 1).Render(m.helpView.View()), m.width, m.height)
	}

	header := normalizePane(m.headerLine(), m.width, 1)
	footer := normalizePane(m.footerLine(), m.width, 1)
	bodyH := max(m.height-2, 1)

	var body string
	if m.resizing {
		body = styleMuted().Render("Resizing…")
	} else {
		c := newCanvas(m.d.Bounds(), m.width, bodyH)
		for _, it := range m.d.Items() {
			if it.ID != m.selectedID {
				c.draw(it, it.ID, false)
			}
		}
		// Selected last so it stays visible on top.
		if it, err := m.d.Item(m.selectedID); err == nil {
			c.draw(it, it.ID, true)
		}
		body = c.render(cellStyles())
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, normalizePane(body, m.width, bodyH), footer)
}

func (m editorModel) headerLine() string {
	g := m.d.Grid()
	hist := m.d.History()
	parts := []string{
		m.d.Layout(),
		fmt.Sprintf("%dx%d @%dpx", g.Cols, g.Rows, g.CellPx),
		fmt.Sprintf("zoom %.2f", g.Zoom.Factor),
		fmt.Sprintf("undo %d/redo %d", hist.Past, hist.Future),
	}
	if m.policy == model.PolicyDisplace {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorAccent).Render("displace"))
	}
	return styleHeader().Width(m.width).Render(" " + strings.Join(parts, " · "))
}

func (m editorModel) footerLine() string {
	if m.flash != "" {
		if m.flashError {
			return styleError().Render(m.flash)
		}
		return m.flash
	}
	if it, err := m.d.Item(m.selectedID); err == nil {
		lock := ""
		if it.Locked {
			lock = " locked"
		}
		info := fmt.Sprintf("%s %s %dx%d @%d,%d%s", it.ID, it.Type, it.W, it.H, it.X, it.Y, lock)
		if s := m.d.Summary(it); s != "" {
			info += " · " + s
		}
		return info + "  " + styleMuted().Render(m.help.View(m.keys))
	}
	return m.help.View(m.keys)
}
