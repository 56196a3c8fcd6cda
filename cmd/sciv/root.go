package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"sciv/internal/config"
	"sciv/internal/files"
	"sciv/internal/log"
	"sciv/internal/tui"
	"sciv/internal/viewer"
)

var (
	cfgFile string
	debug   bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var (
		order   string
		noWatch bool
	)

	rootCmd := &cobra.Command{
		Use:   "sciv [path]",
		Short: "A keyboard driven image viewer for the terminal",
		Long: `sciv pages through the images of one directory.

Keys accumulate into commands: "g g" jumps to the first image, "12G" to the
twelfth, "3 " moves three ahead. The directory is watched and the list
follows files being added, removed or renamed.`,
		Version:      version,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyOrderFlag(cmd, cfg, order); err != nil {
				return err
			}
			setupLogging(cfg, true)

			r := tui.NewRefresher()
			opts := []viewer.Option{viewer.WithNotify(r.Notify)}
			if noWatch {
				opts = append(opts, viewer.WithoutWatch())
			}
			v, err := viewer.New(targetPath(args), cfg, opts...)
			if err != nil {
				return err
			}
			defer v.Close()

			p := tea.NewProgram(tui.New(v, cfg, r), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running TUI: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/sciv/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level")
	rootCmd.Flags().StringVarP(&order, "order", "o", "", "initial order: none, name, name-desc, mtime, mtime-desc, random")
	rootCmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not follow changes on disk")

	rootCmd.AddCommand(NewListCmd())
	rootCmd.AddCommand(NewKeysCmd())
	rootCmd.AddCommand(NewConfigCmd())

	return rootCmd
}

// loadConfig reads --config or the default location. A missing file gives
// the defaults; a broken one is an error, since bindings would silently
// differ from what the user wrote.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadConfigFile(cfgFile)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func applyOrderFlag(cmd *cobra.Command, cfg *config.Config, order string) error {
	if !cmd.Flags().Changed("order") {
		return nil
	}
	if _, err := files.ParseOrderMode(order); err != nil {
		return err
	}
	cfg.Viewer.Order = order
	return nil
}

// setupLogging configures the package logger. Log lines go to the
// configured file, or else to stderr, or nowhere under the terminal UI.
func setupLogging(cfg *config.Config, interactive bool) {
	opts := []log.Option{log.WithLevel(cfg.Logging.Level)}
	if cfg.Logging.JSON {
		opts = append(opts, log.WithJSON())
	}
	switch {
	case cfg.Logging.File != "":
		opts = append(opts, log.WithFileOnly(cfg.Logging.File))
	case interactive:
		opts = append(opts, log.WithOutput(io.Discard))
	default:
		opts = append(opts, log.WithOutput(os.Stderr))
	}
	log.Configure(opts...)
	log.SetDebug(cfg.Logging.Level == "debug")
}

func targetPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
