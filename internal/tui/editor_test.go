package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"vibetab/internal/dashboard"
	"vibetab/internal/model"
	"vibetab/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func newTestEditor(t *testing.T) editorModel {
	t.Helper()
	old := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.ANSI256)
	t.Cleanup(func() { lipgloss.SetColorProfile(old) })

	n := 0
	d, err := dashboard.New(context.Background(), store.NewMemoryKV(), dashboard.Options{
		Now: func() time.Time { return time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC) },
		NewID: func() string {
			n++
			return fmt.Sprintf("w-%d", n)
		},
	})
	if err != nil {
		t.Fatalf("dashboard.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close(context.Background()) })

	m := newEditorModel(d)
	mm, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return mm.(editorModel)
}

func press(t *testing.T, m editorModel, keys ...tea.KeyMsg) editorModel {
	t.Helper()
	for _, k := range keys {
		mm, _ := m.Update(k)
		m = mm.(editorModel)
	}
	return m
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func item(t *testing.T, m editorModel, id string) model.Item {
	t.Helper()
	it, err := m.d.Item(id)
	if err != nil {
		t.Fatalf("Item(%s): %v", id, err)
	}
	return it
}

func TestEditor_InitialSizingAppliesViewport(t *testing.T) {
	m := newTestEditor(t)

	if m.resizing || m.resizeSeq != 0 {
		t.Fatalf("initial sizing should not debounce: resizing=%v seq=%d", m.resizing, m.resizeSeq)
	}
	if vp := m.d.Grid().Viewport; vp != (store.Viewport{Width: 120 * pxPerCol, Height: 40 * pxPerRow}) {
		t.Fatalf("viewport = %+v", vp)
	}
	if m.selectedID != "clock-1" {
		t.Fatalf("selected = %q", m.selectedID)
	}
}

func TestEditor_ResizeIsDebounced(t *testing.T) {
	m := newTestEditor(t)

	mm, cmd := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = mm.(editorModel)
	if !m.resizing || m.resizeSeq != 1 || cmd == nil {
		t.Fatalf("expected a pending resize: resizing=%v seq=%d", m.resizing, m.resizeSeq)
	}
	if !strings.Contains(m.View(), "Resizing") {
		t.Fatalf("expected resize overlay")
	}

	mm, _ = m.Update(resizeDoneMsg{seq: 0})
	m = mm.(editorModel)
	if !m.resizing {
		t.Fatalf("stale resizeDoneMsg should not settle the resize")
	}
	if vp := m.d.Grid().Viewport; vp.Width != 120*pxPerCol {
		t.Fatalf("viewport changed before the resize settled: %+v", vp)
	}

	mm, _ = m.Update(resizeDoneMsg{seq: 1})
	m = mm.(editorModel)
	if m.resizing {
		t.Fatalf("latest resizeDoneMsg should settle the resize")
	}
	if vp := m.d.Grid().Viewport; vp != (store.Viewport{Width: 100 * pxPerCol, Height: 30 * pxPerRow}) {
		t.Fatalf("viewport = %+v", vp)
	}
}

func TestEditor_MoveLockAndHistory(t *testing.T) {
	m := newTestEditor(t)

	// clock-1 ships locked.
	m = press(t, m, runes("l"))
	if !m.flashError || m.flash != "widget is locked" {
		t.Fatalf("flash = %q error=%v", m.flash, m.flashError)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.selectedID != "search-1" {
		t.Fatalf("selected = %q", m.selectedID)
	}
	m = press(t, m, runes("l"), tea.KeyMsg{Type: tea.KeyDown})
	if it := item(t, m, "search-1"); it.X != 3 || it.Y != 3 {
		t.Fatalf("after move: %+v", it)
	}

	m = press(t, m, runes("L"), runes("J"))
	if it := item(t, m, "search-1"); it.W != 9 || it.H != 2 {
		t.Fatalf("after grow: %dx%d", it.W, it.H)
	}

	m = press(t, m, runes("u"), runes("u"))
	if it := item(t, m, "search-1"); it.W != 8 || it.H != 1 {
		t.Fatalf("after undo: %dx%d", it.W, it.H)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if it := item(t, m, "search-1"); it.W != 9 {
		t.Fatalf("after redo: w=%d", it.W)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if !item(t, m, "search-1").Locked {
		t.Fatalf("space should lock")
	}

	// Moving into the clock is refused.
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace}, tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyUp})
	if !m.flashError || !strings.Contains(m.flash, "clock-1") {
		t.Fatalf("flash = %q", m.flash)
	}

	mm, _ := m.Update(flashDoneMsg{seq: m.flashSeq})
	m = mm.(editorModel)
	if m.flash != "" {
		t.Fatalf("flash should clear, got %q", m.flash)
	}
}

func TestEditor_DisplaceToggle(t *testing.T) {
	m := newTestEditor(t)

	m = press(t, m, runes("d"))
	if m.policy != model.PolicyDisplace {
		t.Fatalf("policy = %q", m.policy)
	}
	if !strings.Contains(m.headerLine(), "displace") {
		t.Fatalf("header should show displace mode: %q", m.headerLine())
	}
	m = press(t, m, runes("d"))
	if m.policy != model.PolicyReject {
		t.Fatalf("policy = %q", m.policy)
	}
}

func TestEditor_AddAndRemove(t *testing.T) {
	m := newTestEditor(t)

	m = press(t, m, runes("a"))
	if m.mode != modePicker {
		t.Fatalf("mode = %v", m.mode)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeGrid || m.selectedID != "w-1" {
		t.Fatalf("after add: mode=%v selected=%q flash=%q", m.mode, m.selectedID, m.flash)
	}
	if n := len(m.d.Items()); n != 3 {
		t.Fatalf("items = %d", n)
	}
	if got := item(t, m, "w-1").Type; got != "bookmarks" {
		t.Fatalf("added kind = %q", got)
	}

	m = press(t, m, runes("x"))
	if n := len(m.d.Items()); n != 2 {
		t.Fatalf("items after remove = %d", n)
	}
	if m.selectedID != "clock-1" {
		t.Fatalf("selection should fall back, got %q", m.selectedID)
	}

	m = press(t, m, runes("a"), tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeGrid || len(m.d.Items()) != 2 {
		t.Fatalf("esc should cancel the picker")
	}
}

func TestEditor_HelpOverlay(t *testing.T) {
	t.Setenv("VIBETAB_MD_STYLE", "notty")
	m := newTestEditor(t)

	m = press(t, m, runes("?"))
	if m.mode != modeHelp {
		t.Fatalf("mode = %v", m.mode)
	}
	if !strings.Contains(m.View(), "Keys") {
		t.Fatalf("help should render the keys topic:\n%s", m.View())
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeGrid {
		t.Fatalf("esc should close help")
	}
}

func TestEditor_ViewFillsWindow(t *testing.T) {
	m := newTestEditor(t)

	v := m.View()
	if n := strings.Count(v, "\n") + 1; n != 40 {
		t.Fatalf("view has %d lines, want 40", n)
	}
	if !strings.Contains(v, "widgets") || !strings.Contains(v, "zoom") {
		t.Fatalf("header missing layout info")
	}
	if !strings.Contains(v, "■") {
		t.Fatalf("selected widget should be drawn")
	}
}

func TestEditor_QuitKey(t *testing.T) {
	m := newTestEditor(t)

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}
