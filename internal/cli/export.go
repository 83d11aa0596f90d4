package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"pcb-router/internal/board"
	"pcb-router/internal/export"
)

// Export formats.
const (
	formatWKT     = "wkt"
	formatGeoJSON = "geojson"
)

// formatOf picks the format from an explicit name or the file extension.
func formatOf(format, path string) (string, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".geojson", ".json":
			return formatGeoJSON, nil
		default:
			return formatWKT, nil
		}
	}
	switch f := strings.ToLower(format); f {
	case formatWKT, formatGeoJSON:
		return f, nil
	}
	return "", errors.Newf("unknown export format %q", format)
}

func writeExport(w io.Writer, format string, b *board.RoutingBoard, layer int) error {
	shapes := export.Shapes(b, layer)
	if format == formatWKT {
		return export.WriteWKT(w, shapes)
	}
	data, err := export.GeoJSON(b, shapes)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return errors.Wrap(err, "write geojson")
}

func writeExportFile(path, format string, b *board.RoutingBoard, layer int) error {
	format, err := formatOf(format, path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create export file")
	}
	if err := writeExport(f, format, b, layer); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close export file")
}

// ExportCmd returns the export command.
func ExportCmd(opts *globalOptions) *cobra.Command {
	var (
		format    string
		layerFlag string
		outPath   string
		run       bool
	)

	cmd := &cobra.Command{
		Use:   "export <scenario.yaml>",
		Short: "Write the board of a scenario as WKT or GeoJSON",
		Args:  cobra.ExactArgs(1),
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
			layer := export.AllLayers
			if layerFlag != "" {
				if layer = s.board.LayerByName(layerFlag); layer < 0 {
					return errors.Newf("unknown layer %q", layerFlag)
				}
			}
			if outPath != "" {
				return writeExportFile(outPath, format, s.board, layer)
			}
			if format == "" {
				format = formatWKT
			}
			if format, err = formatOf(format, ""); err != nil {
				return err
			}
			return writeExport(cmd.OutOrStdout(), format, s.board, layer)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "wkt or geojson; taken from the output file extension when empty")
	cmd.Flags().StringVarP(&layerFlag, "layer", "l", "", "export only this layer")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file; stdout when empty")
	cmd.Flags().BoolVar(&run, "run", false, "run the scenario operations before exporting")
	return cmd
}
