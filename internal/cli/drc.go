package cli

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"pcb-router/internal/netlist"
)

// DRCCmd returns the drc command.
func DRCCmd(opts *globalOptions) *cobra.Command {
	var run bool

	cmd := &cobra.Command{
		Use:   "drc <scenario.yaml>",
		Short: "List the clearance violations of a board",
		Long: `List the clearance violations of a board, then the nets whose items
fall apart into more than one connected set. Only clearance violations
make the command fail.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd, args[0])
			if err != nil {
				return err
			}
			if run {
				if _, err := s.file.Run(cmd.Context(), s.engine); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			violations := s.board.ClearanceViolations()
			for _, v := range violations {
				first, second := s.board.Item(v.First), s.board.Item(v.Second)
				fmt.Fprintf(out, "%s  %s %d  %s %d\n", layerName(s.board, v.Layer),
					first.Kind(), v.First, second.Kind(), v.Second)
			}
			for _, n := range netlist.Incomplete(netlist.Build(s.board)) {
				fmt.Fprintf(out, "net %s: %d connected sets\n", n.Name, len(n.Sets))
			}
			if len(violations) > 0 {
				return errors.Newf("%s clearance violations", failLabel(len(violations)))
			}
			fmt.Fprintln(out, okLabel("no clearance violations"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&run, "run", false, "run the scenario operations first")
	return cmd
}
