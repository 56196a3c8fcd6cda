package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"

	"sciv/internal/viewer"
)

// NewListCmd prints the collection in viewing order.
func NewListCmd() *cobra.Command {
	var (
		order  string
		filter string
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "list [path]",
		Short: "Print the images of a directory in viewing order",
		Long: `Print the images sciv would show, one per line, with the current
image marked. --filter keeps the names that fuzzily match the given text.
With --follow the list is printed again after every change
on disk until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyOrderFlag(cmd, cfg, order); err != nil {
				return err
			}
			setupLogging(cfg, false)

			changed := make(chan struct{}, 1)
			opts := []viewer.Option{viewer.WithNotify(func() {
				select {
				case changed <- struct{}{}:
				default:
				}
			})}
			if !follow {
				opts = append(opts, viewer.WithoutWatch())
			}
			v, err := viewer.New(targetPath(args), cfg, opts...)
			if err != nil {
				return err
			}
			defer v.Close()

			out := cmd.OutOrStdout()
			printList(out, v, filter)
			if !follow {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return followList(ctx, out, v, filter, changed)
		},
	}

	cmd.Flags().StringVarP(&order, "order", "o", "", "order: none, name, name-desc, mtime, mtime-desc, random")
	cmd.Flags().StringVar(&filter, "filter", "", "only print images whose name fuzzily matches")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "print again after every change until interrupted")
	return cmd
}

func followList(ctx context.Context, out io.Writer, v *viewer.Viewer, filter string, changed <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			fmt.Fprintln(out)
			printList(out, v, filter)
		}
	}
}

// printList writes one line per image. Positions stay those of the full
// collection when a filter hides some of them.
func printList(out io.Writer, v *viewer.Viewer, filter string) {
	st := v.Status()
	for i, f := range v.Collection().Files() {
		if filter != "" && !fuzzy.MatchNormalizedFold(filter, f.Name()) {
			continue
		}
		mark := " "
		if i+1 == st.Index {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %4d  %s  %s\n", mark, i+1, f.ModTime.Format(time.RFC3339), f.Path)
	}
	fmt.Fprintf(out, "%d images, order %s\n", st.Count, st.Order)
}
