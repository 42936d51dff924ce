package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/metagraph/internal/cli/ui"
	"github.com/conduit-lang/metagraph/internal/fixture"
	"github.com/conduit-lang/metagraph/internal/utils"
)

// NewImportCommand creates the import command
func NewImportCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <fixture.yaml|dir>...",
		Short: "Import YAML fixtures into the store",
		Long: `Parse YAML fixtures and write their elements and back references to the
configured store. Directories are searched recursively for .yaml and .yml
files. Each file is imported in one transaction; existing elements with the
same path are replaced.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			files, err := utils.ExpandFixturePaths(args)
			if err != nil {
				return err
			}

			s, err := openSession(ctx, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			total := 0
			for _, path := range files {
				f, err := fixture.Load(path)
				if err != nil {
					return err
				}
				src, err := f.Source()
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}

				var n int
				message := fmt.Sprintf("Importing %s", filepath.Base(path))
				if err := ui.WithSpinner(out, message, opts.noColor, func() error {
					n, err = s.store.Import(ctx, src)
					return err
				}); err != nil {
					return err
				}
				total += n
			}

			// Cached back references may now be stale.
			if s.cache != nil {
				if err := s.cache.Clear(ctx); err != nil {
					ui.WriteWarning(out, fmt.Sprintf("failed to clear cache: %v", err), opts.noColor)
				}
			}

			ui.WriteSuccess(out, fmt.Sprintf("Imported %d elements from %d files", total, len(files)), opts.noColor)
			return nil
		},
	}
}
