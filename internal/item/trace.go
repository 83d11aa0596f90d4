package item

import (
	"pcb-router/pkg/geometry"
)

// Trace is a polyline of copper with constant half width on one layer.
type Trace struct {
	base
	polyline  geometry.Polyline
	layer     int
	halfWidth float64
}

// NewTrace creates a trace not yet placed on a board.
func NewTrace(poly geometry.Polyline, layer int, halfWidth float64, nets []int, clearanceClass int, fixed FixedState) *Trace {
	return &Trace{
		base:      newBase(nets, clearanceClass, fixed),
		polyline:  geometry.NewPolyline(poly.Corners...),
		layer:     layer,
		halfWidth: halfWidth,
	}
}

func (t *Trace) Kind() Kind      { return KindTrace }
func (t *Trace) FirstLayer() int { return t.layer }
func (t *Trace) LastLayer() int  { return t.layer }

// Layer returns the layer of the trace.
func (t *Trace) Layer() int { return t.layer }

// HalfWidth returns half the pen width.
func (t *Trace) HalfWidth() float64 { return t.halfWidth }

// Polyline returns the center line.
func (t *Trace) Polyline() geometry.Polyline { return t.polyline }

// FirstCorner returns the start of the center line.
func (t *Trace) FirstCorner() geometry.Point2D { return t.polyline.FirstCorner() }

// LastCorner returns the end of the center line.
func (t *Trace) LastCorner() geometry.Point2D { return t.polyline.LastCorner() }

// Length returns the length of the center line.
func (t *Trace) Length() float64 { return t.polyline.Length() }

// TileShapes returns one shape per segment.
func (t *Trace) TileShapes(layer int) []geometry.TileShape {
	if layer != t.layer {
		return nil
	}
	return t.polyline.SegmentTiles(t.halfWidth)
}

// Bounds returns the bounding rectangle including the pen width.
func (t *Trace) Bounds() geometry.Rect {
	return t.polyline.Bounds().Enlarge(t.halfWidth)
}

// WithID returns a copy carrying id.
func (t *Trace) WithID(id ID) Item {
	c := *t
	c.id = id
	return &c
}

// WithPolyline returns an unplaced copy of t with another center line.
func (t *Trace) WithPolyline(poly geometry.Polyline) *Trace {
	return NewTrace(poly, t.layer, t.halfWidth, t.nets, t.clearanceClass, t.fixed)
}

// WithFixedState returns a copy of t with another fixed state and the same id.
func (t *Trace) WithFixedState(fixed FixedState) *Trace {
	c := *t
	c.fixed = fixed
	return &c
}
