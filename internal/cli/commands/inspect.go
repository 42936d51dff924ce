package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/metagraph/internal/cli/ui"
)

// NewInspectCommand creates the inspect command
func NewInspectCommand(opts *globalOptions) *cobra.Command {
	var properties []string

	cmd := &cobra.Command{
		Use:   "inspect <path-or-reference-id>",
		Short: "Show an element and its property values",
		Long: `Load an element, package or component instance and print its metadata
and property values.

Examples:
  metagraph inspect model::Person
  metagraph inspect model::Person#1 --property genericType`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			s, err := openSession(ctx, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			l, err := s.newLoader(ctx, 0)
			if err != nil {
				return err
			}
			inst, err := resolve(out, l, args[0], opts.noColor)
			if err != nil {
				return err
			}

			states, err := inst.CompileStates()
			if err != nil {
				return err
			}
			ui.Header(out, describe(inst), opts.noColor)
			kv := ui.NewKeyValueTable(out, opts.noColor)
			kv.AddRow("Name", inst.Name())
			kv.AddRow("Classifier", classifierPath(inst))
			if si := inst.SourceInformation(); si != nil {
				kv.AddRow("Source", si.String())
			}
			kv.AddRow("Compile states", renderCompileStates(states))
			kv.Render()
			fmt.Fprintln(out)

			if len(properties) == 0 {
				if properties, err = inst.KeyNames(); err != nil {
					return err
				}
			}
			table := ui.NewTable(out, opts.noColor, "Property", "Values")
			for _, p := range properties {
				values, err := inst.ValueForMetaPropertyToMany(p)
				if err != nil {
					table.AddRow(p, "error: "+err.Error())
					continue
				}
				table.AddRow(p, renderValues(values))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&properties, "property", "p", nil, "Only show these properties")

	return cmd
}
