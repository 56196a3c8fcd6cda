package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"sciv/internal/viewer"
)

// NewKeysCmd prints the effective key bindings.
func NewKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Show the effective key bindings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			bindings, err := viewer.DescribeBindings(cfg)
			if err != nil {
				return err
			}

			header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(cfg.Theme.Primary))
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Border))).
				Headers("KEYS", "ACTION").
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return header.Padding(0, 1)
					}
					return lipgloss.NewStyle().Padding(0, 1)
				})
			for _, b := range bindings {
				t.Row(b.Keys, b.Action)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}
