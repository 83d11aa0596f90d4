// Package cli implements the pcb-router command line.
package cli

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"pcb-router/internal/board"
	"pcb-router/internal/config"
	"pcb-router/internal/logging"
	"pcb-router/internal/metrics"
	"pcb-router/internal/scenario"
	"pcb-router/internal/shove"
	"pcb-router/internal/version"
	"pcb-router/pkg/geometry"
)

// globalOptions holds the persistent flags shared by all commands.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	angle      string
	noColor    bool
	// metrics is set by commands which print the collectors.
	metrics bool
}

// NewRootCmd returns the pcb-router command with all subcommands.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:     "pcb-router",
		Short:   "Push and shove engine for printed circuit boards",
		Version: version.String(),
		Long: `pcb-router checks and inserts vias, pads and traces on a board by pushing
movable traces and vias aside. Boards and operations are read from scenario
files; see "pcb-router run --help".`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "engine config file (YAML); defaults are used when empty")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&opts.logFormat, "log-format", "", "log format: text or json")
	pf.StringVar(&opts.angle, "angle", "", "angle restriction for scenarios without one: none, 45 or 90")
	pf.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	root.AddCommand(RunCmd(opts))
	root.AddCommand(CheckViaCmd(opts))
	root.AddCommand(DRCCmd(opts))
	root.AddCommand(ExportCmd(opts))
	root.AddCommand(PresetsCmd())
	root.AddCommand(VersionCmd())
	return root
}

// loadConfig reads the config file and applies the flag overrides.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if o.angle != "" {
		cfg.Engine.Angle = o.angle
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session is a loaded scenario with its board and engine.
type session struct {
	cfg      *config.Config
	file     *scenario.File
	board    *board.RoutingBoard
	engine   *shove.Engine
	registry *prometheus.Registry
}

// open loads the config and the scenario at path and builds the engine.
// The config's angle restriction applies when the scenario sets none.
func (o *globalOptions) open(cmd *cobra.Command, path string) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	f, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}
	b, err := f.Build()
	if err != nil {
		return nil, errors.Wrapf(err, "build %s", path)
	}
	if f.Rules.Angle == "" {
		a, err := cfg.Engine.AngleRestriction()
		if err != nil {
			return nil, err
		}
		b.Rules().Angle = a
	}

	logCfg := cfg.Log
	logCfg.Output = cmd.ErrOrStderr()
	engineOpts := []shove.Option{shove.WithLogger(logging.New(logCfg))}

	s := &session{cfg: cfg, file: f, board: b}
	if cfg.Metrics.Enabled || o.metrics {
		s.registry = prometheus.NewRegistry()
		c, err := metrics.NewCollector(s.registry)
		if err != nil {
			return nil, err
		}
		engineOpts = append(engineOpts, shove.WithMetrics(c))
	}
	s.engine = shove.NewEngine(b, cfg.Engine, engineOpts...)
	return s, nil
}

// layerName returns the name of layer l for output.
func layerName(b *board.RoutingBoard, l int) string {
	if l >= 0 && l < b.LayerCount() {
		return b.Layers()[l].Name
	}
	return "-"
}

// parsePoint parses "x,y".
func parsePoint(s string) (geometry.Point2D, error) {
	x, y, ok := strings.Cut(s, ",")
	if !ok {
		return geometry.Point2D{}, errors.Newf("point %q is not x,y", s)
	}
	px, errX := strconv.ParseFloat(strings.TrimSpace(x), 64)
	py, errY := strconv.ParseFloat(strings.TrimSpace(y), 64)
	if errX != nil || errY != nil {
		return geometry.Point2D{}, errors.Newf("point %q is not x,y", s)
	}
	return geometry.Point2D{X: px, Y: py}, nil
}
