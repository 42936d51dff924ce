package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/metagraph/internal/cli/ui"
)

// NewCacheCommand creates the cache command
func NewCacheCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the redis record cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := openSession(ctx, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			if s.cache == nil {
				return errors.New("redis cache is not enabled (set redis.enabled)")
			}
			if err := s.cache.Clear(ctx); err != nil {
				return err
			}
			ui.WriteSuccess(cmd.OutOrStdout(), "Cache cleared", opts.noColor)
			return nil
		},
	})

	return cmd
}
