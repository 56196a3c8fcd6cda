package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"sciv/internal/command"
)

// keyMap holds the keys the host handles itself when no binding took the
// keystroke.
type keyMap struct {
	Next     key.Binding
	Previous key.Binding
	First    key.Binding
	Last     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("right", "down", "pgdown", "l", "j"),
			key.WithHelp("→/↓", "next"),
		),
		Previous: key.NewBinding(
			key.WithKeys("left", "up", "pgup", "h", "k"),
			key.WithHelp("←/↑", "previous"),
		),
		First: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "first"),
		),
		Last: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("end", "last"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Previous, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Previous},
		{k.First, k.Last},
		{k.Quit},
	}
}

// chordsFromKey translates a terminal key event into chords. A paste or a
// multi-rune event yields one chord per rune. Keys that have no chord form,
// such as arrows, yield nothing.
func chordsFromKey(msg tea.KeyMsg) []command.Chord {
	var mods command.Modifier
	if msg.Alt {
		mods = mods.With(command.ModOption)
	}

	switch msg.Type {
	case tea.KeyRunes:
		out := make([]command.Chord, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			out = append(out, command.Chord{Code: r, Mods: mods})
		}
		return out
	case tea.KeySpace:
		return []command.Chord{{Code: command.Space.Code, Mods: mods}}
	case tea.KeyEnter:
		return []command.Chord{{Code: command.Enter.Code, Mods: mods}}
	case tea.KeyTab:
		return []command.Chord{{Code: command.Tab.Code, Mods: mods}}
	case tea.KeyShiftTab:
		return []command.Chord{{Code: command.Tab.Code, Mods: mods.With(command.ModShift)}}
	case tea.KeyBackspace:
		return []command.Chord{{Code: command.Backspace.Code, Mods: mods}}
	case tea.KeyEsc:
		return []command.Chord{command.Escape}
	}

	// Control letters arrive as their C0 code.
	if msg.Type >= tea.KeyCtrlA && msg.Type <= tea.KeyCtrlZ {
		code := 'a' + rune(msg.Type-tea.KeyCtrlA)
		return []command.Chord{{Code: code, Mods: mods.With(command.ModControl)}}
	}
	return nil
}
