package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"pcb-router/internal/board"
)

// PresetsCmd returns the presets command.
func PresetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the built-in board outlines",
		Long: `List the board outlines which scenario files can name with "preset".
Preset boards have a component and a solder layer with system fixed edge
contacts; dimensions are in inches and boards are built in mils.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE\tCONTACTS\tHOLES")
			for _, name := range board.ListSpecs() {
				spec := board.GetSpec(name)
				w, h := spec.Dimensions()
				contacts := "-"
				if cs := spec.ContactSpec(); cs != nil {
					contacts = fmt.Sprintf("2x%d on %s, %.3f\" pitch", cs.Count, cs.Edge, cs.PitchInches)
				}
				fmt.Fprintf(tw, "%s\t%gx%g\"\t%s\t%d\n", name, w, h, contacts, len(spec.Holes()))
			}
			return errors.Wrap(tw.Flush(), "write presets")
		},
	}
	cmd.AddCommand(presetSaveCmd())
	return cmd
}

func presetSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <name> <file.yaml>",
		Short: "Write a preset as a YAML board spec",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, ok := board.GetSpec(args[0]).(*board.BaseSpec)
			if !ok {
				return errors.Newf("unknown preset %q", args[0])
			}
			if err := spec.SaveToFile(args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s to %s\n", spec.Name(), args[1])
			return nil
		},
	}
}
