package cli

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"pcb-router/internal/scenario"
)

// CheckViaCmd returns the check-via command.
func CheckViaCmd(opts *globalOptions) *cobra.Command {
	var (
		at       string
		from, to string
		radius   float64
		width    float64
		net      string
		class    string
		insert   bool
	)

	cmd := &cobra.Command{
		Use:   "check-via <scenario.yaml>",
		Short: "Check whether a via can be shoved in at a location",
		Long: `Build the board of a scenario, ignore its operations and check a single
round via. With --insert the via is inserted and the outcome of the insert
is reported instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd, args[0])
			if err != nil {
				return err
			}
			p, err := parsePoint(at)
			if err != nil {
				return err
			}
			if from == "" && s.board.LayerCount() > 0 {
				from = s.board.Layers()[0].Name
			}
			if to == "" && s.board.LayerCount() > 0 {
				to = s.board.Layers()[s.board.LayerCount()-1].Name
			}
			op := scenario.Operation{
				Op:       scenario.OpCheckVia,
				At:       &scenario.Point{p.X, p.Y},
				Padstack: &scenario.PadstackDef{Name: "via", From: from, To: to, Radius: radius},
				Width:    width,
				Net:      net,
				Class:    class,
			}
			if insert {
				op.Op = scenario.OpInsertVia
			}
			single := &scenario.File{Operations: []scenario.Operation{op}}
			results, err := single.Run(cmd.Context(), s.engine)
			if err != nil {
				return err
			}
			printResults(cmd.OutOrStdout(), s.board, results)
			if !results[0].Outcome.OK {
				return errors.Newf("no via possible at %s", at)
			}
			if insert {
				fmt.Fprintf(cmd.OutOrStdout(), "%d items on the board\n", s.board.Len())
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&at, "at", "", "via location as x,y")
	f.StringVar(&from, "from", "", "first layer; the top layer when empty")
	f.StringVar(&to, "to", "", "last layer; the bottom layer when empty")
	f.Float64Var(&radius, "radius", 20, "pad radius")
	f.Float64Var(&width, "trace-width", 0, "width of the traces leaving the via; 0 for none")
	f.StringVar(&net, "net", "", "net of the via")
	f.StringVar(&class, "class", "", "clearance class; the net's class when empty")
	f.BoolVar(&insert, "insert", false, "insert the via instead of only checking")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}
