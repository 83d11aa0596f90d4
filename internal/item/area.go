package item

import (
	"github.com/cockroachdb/errors"

	"pcb-router/pkg/geometry"
)

// Area is a polygonal region on one layer: a keepout of some kind or a
// conduction area. It is stored as convex pieces.
type Area struct {
	base
	kind       Kind
	layer      int
	Name       string
	polygon    []geometry.Point2D
	pieces     []geometry.TileShape
	isObstacle bool
}

// NewArea creates an area of kind, which must be one of the keepout kinds or
// KindConductionArea. isObstacle only matters for conduction areas.
func NewArea(kind Kind, name string, layer int, polygon []geometry.Point2D, nets []int, clearanceClass int, fixed FixedState, isObstacle bool) (*Area, error) {
	switch kind {
	case KindKeepout, KindViaKeepout, KindComponentKeepout, KindConductionArea:
	default:
		return nil, errors.Newf("%s is not an area kind", kind)
	}
	parts := geometry.ConvexDecomposition(polygon)
	if len(parts) == 0 {
		return nil, errors.Newf("area %q has a degenerate outline", name)
	}
	pieces := make([]geometry.TileShape, 0, len(parts))
	for _, p := range parts {
		if s := geometry.NewSimplex(p); !s.IsEmpty() {
			pieces = append(pieces, s)
		}
	}
	poly := make([]geometry.Point2D, len(polygon))
	copy(poly, polygon)
	return &Area{
		base:       newBase(nets, clearanceClass, fixed),
		kind:       kind,
		layer:      layer,
		Name:       name,
		polygon:    poly,
		pieces:     pieces,
		isObstacle: isObstacle,
	}, nil
}

func (a *Area) Kind() Kind      { return a.kind }
func (a *Area) FirstLayer() int { return a.layer }
func (a *Area) LastLayer() int  { return a.layer }

// Polygon returns the outline of the area.
func (a *Area) Polygon() []geometry.Point2D { return a.polygon }

// IsObstacle reports whether a conduction area blocks foreign nets.
// Keepouts always block.
func (a *Area) IsObstacle() bool {
	return a.kind != KindConductionArea || a.isObstacle
}

func (a *Area) TileShapes(layer int) []geometry.TileShape {
	if layer != a.layer {
		return nil
	}
	return a.pieces
}

func (a *Area) Bounds() geometry.Rect {
	return geometry.BoundingBox(a.polygon)
}

// WithID returns a copy carrying id.
func (a *Area) WithID(id ID) Item {
	c := *a
	c.id = id
	return &c
}
