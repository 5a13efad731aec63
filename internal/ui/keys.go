package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Down         key.Binding
	Up           key.Binding
	Top          key.Binding // pressed twice: gg
	Bottom       key.Binding
	Recenter     key.Binding // pressed twice: zz
	Play         key.Binding
	PlayPause    key.Binding
	Next         key.Binding
	Prev         key.Binding
	ScrubForward key.Binding
	ScrubBack    key.Binding
	Shuffle      key.Binding
	Loop         key.Binding
	Filter       key.Binding
	Meta         key.Binding
	Clear        key.Binding
	Quit         key.Binding
	ForceQuit    key.Binding

	// Filter entry.
	Accept     key.Binding
	FilterDown key.Binding
	FilterUp   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Down:         key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/k", "move")),
		Up:           key.NewBinding(key.WithKeys("k", "up")),
		Top:          key.NewBinding(key.WithKeys("g"), key.WithHelp("gg/G", "top/bottom")),
		Bottom:       key.NewBinding(key.WithKeys("G")),
		Recenter:     key.NewBinding(key.WithKeys("z"), key.WithHelp("zz", "playing")),
		Play:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		PlayPause:    key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "pause")),
		Next:         key.NewBinding(key.WithKeys("l"), key.WithHelp("h/l", "prev/next")),
		Prev:         key.NewBinding(key.WithKeys("h")),
		ScrubForward: key.NewBinding(key.WithKeys("L"), key.WithHelp("H/L", "seek")),
		ScrubBack:    key.NewBinding(key.WithKeys("H")),
		Shuffle:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		Loop:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "loop")),
		Filter:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Meta:         key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "info")),
		Clear:        key.NewBinding(key.WithKeys("esc")),
		Quit:         key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit:    key.NewBinding(key.WithKeys("ctrl+c")),
		Accept:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		FilterDown:   key.NewBinding(key.WithKeys("ctrl+j", "ctrl+n", "down"), key.WithHelp("ctrl+j/k", "move")),
		FilterUp:     key.NewBinding(key.WithKeys("ctrl+k", "ctrl+p", "up")),
	}
}

func (k keyMap) browseHelp() []key.Binding {
	return []key.Binding{k.Down, k.Top, k.Recenter, k.Play, k.PlayPause, k.Next, k.ScrubForward, k.Shuffle, k.Loop, k.Filter, k.Meta, k.Quit}
}

func (k keyMap) filterHelp() []key.Binding {
	return []key.Binding{k.FilterDown, k.Accept, key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear"))}
}

func helpText(bindings []key.Binding) string {
	s := ""
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		if s != "" {
			s += "  "
		}
		s += h.Key + " " + h.Desc
	}
	return s
}
