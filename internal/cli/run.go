package cli

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pcb-router/internal/board"
	"pcb-router/internal/item"
	"pcb-router/internal/metrics"
	"pcb-router/internal/scenario"
	"pcb-router/internal/shove"
)

var (
	okLabel    = color.New(color.FgGreen).Sprint
	failLabel  = color.New(color.FgRed).Sprint
	errorLabel = color.New(color.FgYellow).Sprint
)

// RunCmd returns the run command.
func RunCmd(opts *globalOptions) *cobra.Command {
	var exportPath string

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run the operations of a scenario",
		Long: `Build the board of a scenario file and run its operations in order.

Operations: check_pad, force_pad, check_via, insert_via, move_via,
check_trace, insert_trace, shovable_length, pull_tight, optimize_via,
optimize_changed_area and drc. An operation with "expect: ok" or
"expect: fail" makes the command fail when the outcome differs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd, args[0])
			if err != nil {
				return err
			}
			results, err := s.file.Run(cmd.Context(), s.engine)
			out := cmd.OutOrStdout()
			printResults(out, s.board, results)
			if err != nil {
				return err
			}

			failed, unexpected := scenario.Failed(results)
			fmt.Fprintf(out, "%d operations, %d failed\n", len(results), failed)
			if s.registry != nil {
				fmt.Fprintln(out)
				if err := metrics.WriteSummary(out, s.registry); err != nil {
					return err
				}
			}
			if exportPath != "" {
				if err := writeExportFile(exportPath, "", s.board, -1); err != nil {
					return err
				}
			}
			if unexpected > 0 {
				return errors.Newf("%d operations did not match their expectation", unexpected)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "print the engine metrics after the run")
	cmd.Flags().StringVarP(&exportPath, "export", "o", "", "write the resulting board to a .wkt or .geojson file")
	return cmd
}

func printResults(w io.Writer, b *board.RoutingBoard, results []scenario.Result) {
	for _, r := range results {
		status := okLabel("OK  ")
		switch {
		case r.Err != nil:
			status = errorLabel("ERR ")
		case !r.Outcome.OK:
			status = failLabel("FAIL")
		}
		line := fmt.Sprintf("#%-3d %-22s %s  %s", r.Index, r.Op, status, describe(b, r))
		if r.Unexpected {
			line += "  " + errorLabel("(unexpected)")
		}
		fmt.Fprintln(w, line)
	}
}

// describe summarises the outcome of one operation.
func describe(b *board.RoutingBoard, r scenario.Result) string {
	if r.Err != nil {
		return r.Err.Error()
	}
	switch r.Op {
	case scenario.OpDRC:
		return fmt.Sprintf("%d clearance violations", r.Count)
	case scenario.OpOptimizeChangedArea:
		return fmt.Sprintf("%d items improved", r.Count)
	case scenario.OpShovableLength:
		return fmt.Sprintf("shovable length %g", r.Length)
	}
	o := r.Outcome
	if !o.OK {
		return "blocked by " + obstacle(b, o.FailingObstacle, o.FailingLayer)
	}
	switch {
	case o.Created != 0:
		return fmt.Sprintf("item %d", o.Created)
	case o.Verdict != shove.NotDrillable:
		return o.Verdict.String()
	}
	return ""
}

func obstacle(b *board.RoutingBoard, id item.ID, layer int) string {
	switch id {
	case 0:
		return "unknown obstacle"
	case board.OutlineID:
		return "board outline on " + layerName(b, layer)
	}
	kind := "removed item"
	if it := b.Item(id); it != nil {
		kind = it.Kind().String()
	}
	return fmt.Sprintf("%s %d on %s", kind, id, layerName(b, layer))
}
