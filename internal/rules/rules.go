package rules

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// AngleRestriction limits the directions of trace segments.
type AngleRestriction int

const (
	// AngleNone allows any direction.
	AngleNone AngleRestriction = iota
	// Angle45 allows multiples of 45 degrees.
	Angle45
	// Angle90 allows only horizontal and vertical segments.
	Angle90
)

func (a AngleRestriction) String() string {
	switch a {
	case AngleNone:
		return "none"
	case Angle45:
		return "45"
	case Angle90:
		return "90"
	default:
		return "unknown"
	}
}

// ParseAngleRestriction parses "none", "45" or "90".
func ParseAngleRestriction(s string) (AngleRestriction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "any":
		return AngleNone, nil
	case "45":
		return Angle45, nil
	case "90":
		return Angle90, nil
	}
	return AngleNone, errors.Newf("invalid angle restriction %q", s)
}

// TraceCost weighs horizontal and vertical trace length on one layer. The via
// optimiser moves vias toward cheaper directions.
type TraceCost struct {
	Horizontal float64 `json:"horizontal" yaml:"horizontal"`
	Vertical   float64 `json:"vertical" yaml:"vertical"`
}

// Rules bundles the design rules of a board.
type Rules struct {
	Clearance  *ClearanceMatrix
	Nets       *NetTable
	Angle      AngleRestriction
	TraceCosts []TraceCost // per layer; missing layers cost 1 in both directions
}

// New creates rules for layerCount layers with default values.
func New(layerCount int) *Rules {
	return &Rules{
		Clearance: NewClearanceMatrix(layerCount),
		Nets:      NewNetTable(),
		Angle:     AngleNone,
	}
}

// TraceCostOn returns the trace cost of a layer.
func (r *Rules) TraceCostOn(layer int) TraceCost {
	if layer >= 0 && layer < len(r.TraceCosts) {
		return r.TraceCosts[layer]
	}
	return TraceCost{Horizontal: 1, Vertical: 1}
}
