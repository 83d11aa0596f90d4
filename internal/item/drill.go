package item

import (
	"github.com/cockroachdb/errors"

	"pcb-router/pkg/geometry"
)

// ErrInvalidPadstack is returned for padstacks without copper.
var ErrInvalidPadstack = errors.New("invalid padstack")

// Padstack is a reusable drill footprint. Shapes are relative to the drill
// center, one per layer from FromLayer to ToLayer; an empty shape means no
// copper on that layer.
type Padstack struct {
	Name          string               `json:"name"`
	FromLayer     int                  `json:"from_layer"`
	ToLayer       int                  `json:"to_layer"`
	Shapes        []geometry.TileShape `json:"-"`
	AttachAllowed bool                 `json:"attach_allowed"` // vias of this padstack may sit on same-net SMD pads
}

// NewRoundPadstack returns a padstack with an octagonal pad of the given
// radius on every layer from from to to.
func NewRoundPadstack(name string, from, to int, radius float64) (*Padstack, error) {
	if to < from || radius <= 0 {
		return nil, errors.Wrapf(ErrInvalidPadstack, "%s: layers %d..%d radius %g", name, from, to, radius)
	}
	shapes := make([]geometry.TileShape, to-from+1)
	for i := range shapes {
		shapes[i] = geometry.RegularOctagon(geometry.Point2D{}, radius)
	}
	return &Padstack{Name: name, FromLayer: from, ToLayer: to, Shapes: shapes}, nil
}

// NewRectPadstack returns a padstack with a rectangular pad of the given
// size, typically for SMD pads and edge contacts.
func NewRectPadstack(name string, from, to int, width, height float64) (*Padstack, error) {
	if to < from || width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidPadstack, "%s: layers %d..%d size %gx%g", name, from, to, width, height)
	}
	shapes := make([]geometry.TileShape, to-from+1)
	for i := range shapes {
		shapes[i] = geometry.NewBox(geometry.NewRect(-width/2, -height/2, width, height))
	}
	return &Padstack{Name: name, FromLayer: from, ToLayer: to, Shapes: shapes}, nil
}

// ShapeOn returns the pad shape on layer relative to the drill center.
func (p *Padstack) ShapeOn(layer int) geometry.TileShape {
	if layer < p.FromLayer || layer > p.ToLayer {
		return geometry.TileShape{}
	}
	return p.Shapes[layer-p.FromLayer]
}

// DrillItem is a via or a pin.
type DrillItem interface {
	Item
	Center() geometry.Point2D
	Padstack() *Padstack
	// ShapeOn returns the placed pad shape on layer.
	ShapeOn(layer int) geometry.TileShape
	// MovedBy returns a copy translated by v keeping the id.
	MovedBy(v geometry.Point2D) DrillItem
}

type drill struct {
	base
	center   geometry.Point2D
	padstack *Padstack
}

func (d drill) Center() geometry.Point2D { return d.center }
func (d drill) Padstack() *Padstack      { return d.padstack }
func (d drill) FirstLayer() int          { return d.padstack.FromLayer }
func (d drill) LastLayer() int           { return d.padstack.ToLayer }

func (d drill) ShapeOn(layer int) geometry.TileShape {
	s := d.padstack.ShapeOn(layer)
	if s.IsEmpty() {
		return s
	}
	return s.Translate(d.center)
}

func (d drill) TileShapes(layer int) []geometry.TileShape {
	s := d.ShapeOn(layer)
	if s.IsEmpty() {
		return nil
	}
	return []geometry.TileShape{s}
}

func (d drill) Bounds() geometry.Rect {
	r := geometry.EmptyRect()
	for l := d.padstack.FromLayer; l <= d.padstack.ToLayer; l++ {
		if s := d.ShapeOn(l); !s.IsEmpty() {
			r = r.Union(s.Bounds())
		}
	}
	return r
}

// Via is a drill used for layer changes of traces.
type Via struct {
	drill
	attachAllowed bool
}

// NewVia creates a via not yet placed on a board.
func NewVia(center geometry.Point2D, padstack *Padstack, nets []int, clearanceClass int, fixed FixedState) *Via {
	return &Via{
		drill:         drill{base: newBase(nets, clearanceClass, fixed), center: center, padstack: padstack},
		attachAllowed: padstack.AttachAllowed,
	}
}

func (v *Via) Kind() Kind { return KindVia }

// AttachAllowed reports whether the via may share copper with same-net SMD pins.
func (v *Via) AttachAllowed() bool { return v.attachAllowed }

// WithID returns a copy carrying id.
func (v *Via) WithID(id ID) Item {
	c := *v
	c.id = id
	return &c
}

// MovedBy returns a copy translated by vec.
func (v *Via) MovedBy(vec geometry.Point2D) DrillItem {
	c := *v
	c.center = v.center.Add(vec)
	return &c
}

// Pin is a component pad.
type Pin struct {
	drill
	Component    string
	Name         string
	drillAllowed bool
}

// NewPin creates a pin not yet placed on a board. drillAllowed tells whether
// vias of the pin's net may be placed on it.
func NewPin(component, name string, center geometry.Point2D, padstack *Padstack, nets []int, clearanceClass int, fixed FixedState, drillAllowed bool) *Pin {
	return &Pin{
		drill:        drill{base: newBase(nets, clearanceClass, fixed), center: center, padstack: padstack},
		Component:    component,
		Name:         name,
		drillAllowed: drillAllowed,
	}
}

func (p *Pin) Kind() Kind { return KindPin }

// DrillAllowed reports whether a same-net via may be placed on the pin.
func (p *Pin) DrillAllowed() bool { return p.drillAllowed }

// WithID returns a copy carrying id.
func (p *Pin) WithID(id ID) Item {
	c := *p
	c.id = id
	return &c
}

// MovedBy returns a copy translated by vec.
func (p *Pin) MovedBy(vec geometry.Point2D) DrillItem {
	c := *p
	c.center = p.center.Add(vec)
	return &c
}
