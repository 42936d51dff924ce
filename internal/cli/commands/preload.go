package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/metagraph/internal/cli/ui"
)

// NewPreloadCommand creates the preload command
func NewPreloadCommand(opts *globalOptions) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "preload [path...]",
		Short: "Initialize elements concurrently",
		Long: `Deserialize and initialize the given elements, or every element in the
store, using a bounded pool of workers. Reports the first failure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			s, err := openSession(ctx, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			l, err := s.newLoader(ctx, workers)
			if err != nil {
				return err
			}

			count := len(args)
			if count == 0 {
				count = len(l.Index().ConcreteElements())
			}
			start := time.Now()
			message := fmt.Sprintf("Preloading %d elements", count)
			if err := ui.WithSpinner(out, message, opts.noColor, func() error {
				return l.Preload(ctx, args)
			}); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d instances loaded in %s\n", l.Loaded(), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of concurrent workers (default from config)")

	return cmd
}
