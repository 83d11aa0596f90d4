// Package scenario reads and writes scenario files: a board with its rules
// and items, followed by the shove operations to run on it.
package scenario

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"pcb-router/pkg/geometry"
)

// ErrInvalid is returned for scenarios which cannot be parsed or built.
var ErrInvalid = errors.New("invalid scenario")

// CurrentVersion is written by Save.
const CurrentVersion = 1

// File is a scenario file (.yaml).
type File struct {
	Version     int    `yaml:"version"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Preset names a built-in board outline. The preset supplies the board
	// size, the layers and the edge contacts; Board is ignored.
	Preset string   `yaml:"preset,omitempty"`
	Board  BoardDef `yaml:"board,omitempty"`

	Rules      RulesDef    `yaml:"rules"`
	Items      ItemsDef    `yaml:"items"`
	Operations []Operation `yaml:"operations"`
}

// Point is an x, y pair written as a two element list.
type Point [2]float64

func (p Point) geo() geometry.Point2D { return geometry.Point2D{X: p[0], Y: p[1]} }

func pointsOf(ps []Point) []geometry.Point2D {
	out := make([]geometry.Point2D, len(ps))
	for i, p := range ps {
		out[i] = p.geo()
	}
	return out
}

// BoardDef is the outline and layer stack of a board without preset.
type BoardDef struct {
	Width  float64  `yaml:"width"`
	Height float64  `yaml:"height"`
	Layers []string `yaml:"layers"`
}

// ClearanceDef sets the clearance between two classes, on one layer if
// Layer is given.
type ClearanceDef struct {
	A     string  `yaml:"a"`
	B     string  `yaml:"b"`
	Value float64 `yaml:"value"`
	Layer string  `yaml:"layer,omitempty"`
}

// NetDef declares a net and the clearance class of its items.
type NetDef struct {
	Name  string `yaml:"name"`
	Class string `yaml:"class,omitempty"`
}

// TraceCostDef weighs trace directions on one layer.
type TraceCostDef struct {
	Layer      string  `yaml:"layer"`
	Horizontal float64 `yaml:"horizontal"`
	Vertical   float64 `yaml:"vertical"`
}

// RulesDef holds the design rules.
type RulesDef struct {
	Angle      string         `yaml:"angle,omitempty"` // none, 45 or 90
	Classes    []string       `yaml:"classes,omitempty"`
	Clearances []ClearanceDef `yaml:"clearances,omitempty"`
	Nets       []NetDef       `yaml:"nets,omitempty"`
	TraceCosts []TraceCostDef `yaml:"trace_costs,omitempty"`
}

// PadstackDef describes a round pad when Radius is set, else a rectangle.
type PadstackDef struct {
	Name          string  `yaml:"name,omitempty"`
	From          string  `yaml:"from"`
	To            string  `yaml:"to"`
	Radius        float64 `yaml:"radius,omitempty"`
	Width         float64 `yaml:"width,omitempty"`
	Height        float64 `yaml:"height,omitempty"`
	AttachAllowed bool    `yaml:"attach_allowed,omitempty"`
}

// TraceDef is a trace item.
type TraceDef struct {
	Layer  string  `yaml:"layer"`
	Width  float64 `yaml:"width"`
	Net    string  `yaml:"net"`
	Class  string  `yaml:"class,omitempty"`
	Fixed  string  `yaml:"fixed,omitempty"`
	Points []Point `yaml:"points"`
}

// ViaDef is a via item.
type ViaDef struct {
	At       Point       `yaml:"at"`
	Padstack PadstackDef `yaml:"padstack"`
	Net      string      `yaml:"net"`
	Class    string      `yaml:"class,omitempty"`
	Fixed    string      `yaml:"fixed,omitempty"`
}

// PinDef is a component pin.
type PinDef struct {
	Component    string      `yaml:"component"`
	Name         string      `yaml:"name"`
	At           Point       `yaml:"at"`
	Padstack     PadstackDef `yaml:"padstack"`
	Net          string      `yaml:"net,omitempty"`
	Class        string      `yaml:"class,omitempty"`
	Fixed        string      `yaml:"fixed,omitempty"`
	DrillAllowed bool        `yaml:"drill_allowed,omitempty"`
}

// AreaDef is a keepout or conduction area.
type AreaDef struct {
	Kind     string  `yaml:"kind"` // keepout, via_keepout, component_keepout, conduction_area
	Name     string  `yaml:"name,omitempty"`
	Layer    string  `yaml:"layer"`
	Polygon  []Point `yaml:"polygon"`
	Net      string  `yaml:"net,omitempty"`
	Class    string  `yaml:"class,omitempty"`
	Fixed    string  `yaml:"fixed,omitempty"`
	Obstacle bool    `yaml:"obstacle,omitempty"`
}

// ItemsDef lists the items placed before the operations run.
type ItemsDef struct {
	Traces []TraceDef `yaml:"traces,omitempty"`
	Vias   []ViaDef   `yaml:"vias,omitempty"`
	Pins   []PinDef   `yaml:"pins,omitempty"`
	Areas  []AreaDef  `yaml:"areas,omitempty"`
}

// Operation is one engine call. The fields used depend on Op.
type Operation struct {
	Op       string       `yaml:"op"`
	Layer    string       `yaml:"layer,omitempty"`
	At       *Point       `yaml:"at,omitempty"`
	Delta    *Point       `yaml:"delta,omitempty"`
	Points   []Point      `yaml:"points,omitempty"`
	Width    float64      `yaml:"width,omitempty"`
	Padstack *PadstackDef `yaml:"padstack,omitempty"`
	Net      string       `yaml:"net,omitempty"`
	Class    string       `yaml:"class,omitempty"`
	Item     int          `yaml:"item,omitempty"`
	Left     bool         `yaml:"left,omitempty"`
	// Expect is "ok" or "fail"; empty accepts both.
	Expect string `yaml:"expect,omitempty"`
}

// Parse decodes a scenario.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "parse scenario"), ErrInvalid)
	}
	if f.Version > CurrentVersion {
		return nil, errors.Wrapf(ErrInvalid, "version %d is newer than %d", f.Version, CurrentVersion)
	}
	return &f, nil
}

// Load reads a scenario file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario")
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", filepath.Base(path))
	}
	return f, nil
}

// Save writes the scenario to path.
func (f *File) Save(path string) error {
	f.Version = CurrentVersion
	data, err := yaml.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "encode scenario")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write scenario %s", path)
}
