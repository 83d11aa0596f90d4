package scenario

import (
	"strings"

	"github.com/cockroachdb/errors"

	"pcb-router/internal/board"
	"pcb-router/internal/item"
	"pcb-router/internal/rules"
	"pcb-router/pkg/geometry"
)

// resolver turns the names used in a scenario into board numbers.
type resolver struct {
	b *board.RoutingBoard
}

func (r resolver) layer(name string) (int, error) {
	if l := r.b.LayerByName(name); l >= 0 {
		return l, nil
	}
	return 0, errors.Wrapf(ErrInvalid, "unknown layer %q", name)
}

func (r resolver) nets(name string) ([]int, error) {
	if name == "" {
		return nil, nil
	}
	n, ok := r.b.Rules().Nets.ByName(name)
	if !ok {
		return nil, errors.Wrapf(ErrInvalid, "unknown net %q", name)
	}
	return []int{n.No}, nil
}

// class returns the named class, the class of the first net or the default
// class, in that order.
func (r resolver) class(name string, nets []int) (int, error) {
	if name != "" {
		no, err := r.b.Rules().Clearance.MustClassNo(name)
		return no, errors.Mark(err, ErrInvalid)
	}
	if len(nets) > 0 {
		if n, ok := r.b.Rules().Nets.Get(nets[0]); ok && n.ClearanceClass > 0 {
			return n.ClearanceClass, nil
		}
	}
	return 1, nil
}

func (r resolver) fixed(s string) (item.FixedState, error) {
	f, err := item.ParseFixedState(s)
	return f, errors.Mark(err, ErrInvalid)
}

func (r resolver) padstack(d PadstackDef) (*item.Padstack, error) {
	from, err := r.layer(d.From)
	if err != nil {
		return nil, err
	}
	to := from
	if d.To != "" {
		if to, err = r.layer(d.To); err != nil {
			return nil, err
		}
	}
	name := d.Name
	if name == "" {
		name = "pad"
	}
	var ps *item.Padstack
	if d.Radius > 0 {
		ps, err = item.NewRoundPadstack(name, from, to, d.Radius)
	} else {
		ps, err = item.NewRectPadstack(name, from, to, d.Width, d.Height)
	}
	if err != nil {
		return nil, errors.Mark(err, ErrInvalid)
	}
	ps.AttachAllowed = d.AttachAllowed
	return ps, nil
}

// netAndClass resolves the net and class names of an item.
func (r resolver) netAndClass(net, class string) ([]int, int, error) {
	nets, err := r.nets(net)
	if err != nil {
		return nil, 0, err
	}
	cl, err := r.class(class, nets)
	return nets, cl, err
}

// Build creates the board described by the scenario and places its items.
// Item ids follow the order traces, vias, pins, areas.
func (f *File) Build() (*board.RoutingBoard, error) {
	b, err := f.newBoard()
	if err != nil {
		return nil, err
	}
	if err := f.applyRules(b); err != nil {
		return nil, err
	}
	if err := f.placeItems(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (f *File) newBoard() (*board.RoutingBoard, error) {
	if f.Preset != "" {
		spec := board.GetSpec(f.Preset)
		if spec == nil {
			return nil, errors.Wrapf(ErrInvalid, "unknown preset %q", f.Preset)
		}
		b, err := board.FromSpec(spec, board.DefaultPresetOptions())
		return b, errors.Wrapf(err, "preset %s", f.Preset)
	}
	d := f.Board
	if d.Width <= 0 || d.Height <= 0 {
		return nil, errors.Wrapf(ErrInvalid, "board size %gx%g", d.Width, d.Height)
	}
	if len(d.Layers) == 0 {
		return nil, errors.Wrap(ErrInvalid, "board has no layers")
	}
	layers := make([]board.Layer, len(d.Layers))
	for i, name := range d.Layers {
		layers[i] = board.Layer{Name: strings.TrimSpace(name), IsSignal: true}
	}
	return board.New(geometry.NewRect(0, 0, d.Width, d.Height), layers, rules.New(len(layers))), nil
}

func (f *File) applyRules(b *board.RoutingBoard) error {
	rs := b.Rules()
	r := resolver{b}
	if f.Rules.Angle != "" {
		a, err := rules.ParseAngleRestriction(f.Rules.Angle)
		if err != nil {
			return errors.Mark(err, ErrInvalid)
		}
		rs.Angle = a
	}
	for _, name := range f.Rules.Classes {
		rs.Clearance.AddClass(name)
	}
	for _, c := range f.Rules.Clearances {
		a, err := r.class(c.A, nil)
		if err != nil {
			return err
		}
		cb, err := r.class(c.B, nil)
		if err != nil {
			return err
		}
		if c.Layer == "" {
			rs.Clearance.Set(a, cb, c.Value)
			continue
		}
		l, err := r.layer(c.Layer)
		if err != nil {
			return err
		}
		rs.Clearance.SetOnLayer(a, cb, l, c.Value)
	}
	for _, n := range f.Rules.Nets {
		if n.Name == "" {
			return errors.Wrap(ErrInvalid, "net without name")
		}
		cl, err := r.class(n.Class, nil)
		if err != nil {
			return err
		}
		rs.Nets.Add(n.Name, cl)
	}
	if len(f.Rules.TraceCosts) > 0 {
		costs := make([]rules.TraceCost, b.LayerCount())
		for i := range costs {
			costs[i] = rs.TraceCostOn(i)
		}
		for _, tc := range f.Rules.TraceCosts {
			l, err := r.layer(tc.Layer)
			if err != nil {
				return err
			}
			if tc.Horizontal <= 0 || tc.Vertical <= 0 {
				return errors.Wrapf(ErrInvalid, "trace cost on %s must be positive", tc.Layer)
			}
			costs[l] = rules.TraceCost{Horizontal: tc.Horizontal, Vertical: tc.Vertical}
		}
		rs.TraceCosts = costs
	}
	return nil
}

func (f *File) placeItems(b *board.RoutingBoard) error {
	r := resolver{b}
	for i, t := range f.Items.Traces {
		if err := r.placeTrace(t); err != nil {
			return errors.Wrapf(err, "trace %d", i)
		}
	}
	for i, v := range f.Items.Vias {
		if err := r.placeVia(v); err != nil {
			return errors.Wrapf(err, "via %d", i)
		}
	}
	for _, p := range f.Items.Pins {
		if err := r.placePin(p); err != nil {
			return errors.Wrapf(err, "pin %s-%s", p.Component, p.Name)
		}
	}
	for i, a := range f.Items.Areas {
		if err := r.placeArea(a); err != nil {
			return errors.Wrapf(err, "area %d", i)
		}
	}
	return nil
}

func (r resolver) placeTrace(t TraceDef) error {
	layer, err := r.layer(t.Layer)
	if err != nil {
		return err
	}
	nets, cl, err := r.netAndClass(t.Net, t.Class)
	if err != nil {
		return err
	}
	fixed, err := r.fixed(t.Fixed)
	if err != nil {
		return err
	}
	if t.Width <= 0 {
		return errors.Wrapf(ErrInvalid, "width %g", t.Width)
	}
	poly := geometry.NewPolyline(pointsOf(t.Points)...)
	if poly.SegmentCount() == 0 {
		return errors.Wrap(ErrInvalid, "trace needs two distinct points")
	}
	r.b.InsertTrace(poly, layer, t.Width/2, nets, cl, fixed)
	return nil
}

func (r resolver) placeVia(v ViaDef) error {
	ps, err := r.padstack(v.Padstack)
	if err != nil {
		return err
	}
	nets, cl, err := r.netAndClass(v.Net, v.Class)
	if err != nil {
		return err
	}
	fixed, err := r.fixed(v.Fixed)
	if err != nil {
		return err
	}
	r.b.InsertVia(v.At.geo(), ps, nets, cl, fixed)
	return nil
}

func (r resolver) placePin(p PinDef) error {
	ps, err := r.padstack(p.Padstack)
	if err != nil {
		return err
	}
	nets, cl, err := r.netAndClass(p.Net, p.Class)
	if err != nil {
		return err
	}
	fixed := item.SystemFixed
	if p.Fixed != "" {
		if fixed, err = r.fixed(p.Fixed); err != nil {
			return err
		}
	}
	r.b.Insert(item.NewPin(p.Component, p.Name, p.At.geo(), ps, nets, cl, fixed, p.DrillAllowed))
	return nil
}

func parseAreaKind(s string) (item.Kind, error) {
	for _, k := range []item.Kind{item.KindKeepout, item.KindViaKeepout, item.KindComponentKeepout, item.KindConductionArea} {
		if k.String() == strings.ToLower(strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalid, "unknown area kind %q", s)
}

func (r resolver) placeArea(a AreaDef) error {
	kind, err := parseAreaKind(a.Kind)
	if err != nil {
		return err
	}
	layer, err := r.layer(a.Layer)
	if err != nil {
		return err
	}
	nets, cl, err := r.netAndClass(a.Net, a.Class)
	if err != nil {
		return err
	}
	fixed, err := r.fixed(a.Fixed)
	if err != nil {
		return err
	}
	area, err := item.NewArea(kind, a.Name, layer, pointsOf(a.Polygon), nets, cl, fixed, a.Obstacle)
	if err != nil {
		return errors.Mark(err, ErrInvalid)
	}
	r.b.Insert(area)
	return nil
}
