package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/metagraph/internal/cli/ui"
	"github.com/conduit-lang/metagraph/internal/compiler/metadata"
)

// NewChildrenCommand creates the children command
func NewChildrenCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "children [package]",
		Short: "List the children of a package",
		Long: `List the elements and packages directly inside a package. Without an
argument the children of Root are listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			path := metadata.Root
			if len(args) == 1 {
				path = args[0]
			}

			s, err := openSession(ctx, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			l, err := s.newLoader(ctx, 0)
			if err != nil {
				return err
			}
			pkg, err := resolve(out, l, path, opts.noColor)
			if err != nil {
				return err
			}
			children, err := pkg.ValueForMetaPropertyToMany("children")
			if err != nil {
				return err
			}

			table := ui.NewTable(out, opts.noColor, "Name", "Path", "Classifier")
			for _, c := range children {
				table.AddRow(c.Name(), describe(c), classifierPath(c))
			}
			table.Render()
			fmt.Fprintf(out, "\n%d children\n", table.Len())
			return nil
		},
	}
}
