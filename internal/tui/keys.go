package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	ShrinkW  key.Binding
	GrowW    key.Binding
	ShrinkH  key.Binding
	GrowH    key.Binding
	Add      key.Binding
	Center   key.Binding
	Remove   key.Binding
	Lock     key.Binding
	Undo     key.Binding
	Redo     key.Binding
	Displace key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next")),
		Prev:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		ShrinkW:  key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "narrower")),
		GrowW:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "wider")),
		ShrinkH:  key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "shorter")),
		GrowH:    key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "taller")),
		Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Center:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "center")),
		Remove:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove")),
		Lock:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "lock")),
		Undo:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		Redo:     key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "redo")),
		Displace: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "displace")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Right, k.GrowW, k.Add, k.Undo, k.Displace, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Up, k.Down, k.Left, k.Right},
		{k.ShrinkW, k.GrowW, k.ShrinkH, k.GrowH},
		{k.Add, k.Center, k.Remove, k.Lock},
		{k.Undo, k.Redo, k.Displace, k.Help, k.Quit},
	}
}
