package tui

import (
	"github.com/charmbracelet/lipgloss"

	"sciv/internal/config"
)

// Styles are the lipgloss styles of one theme.
type Styles struct {
	Bar     lipgloss.Style
	Index   lipgloss.Style
	Name    lipgloss.Style
	Detail  lipgloss.Style
	Order   lipgloss.Style
	Pending lipgloss.Style
	Info    lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Help    lipgloss.Style
	HelpKey lipgloss.Style
	Frame   lipgloss.Style
}

// NewStyles builds the styles for the configured theme colours.
func NewStyles(cfg *config.Config) Styles {
	t := cfg.Theme
	return Styles{
		Bar: lipgloss.NewStyle().
			Padding(0, 1),
		Index: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Primary)),
		Name: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Emphasis)),
		Detail: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Info)),
		Order: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)),
		Pending: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Warning)),
		Info: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Info)).
			Padding(0, 1),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Error)),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Info)),
		HelpKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Primary)),
		Frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Border)).
			Padding(0, 1),
	}
}
