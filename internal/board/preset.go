package board

import (
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/maruel/natural"

	"pcb-router/internal/item"
	"pcb-router/internal/rules"
	"pcb-router/pkg/geometry"
)

// PresetOptions controls how a Spec is turned into a routing board.
type PresetOptions struct {
	UnitsPerInch float64 // board units per inch, 1000 means mils
	Clearance    float64 // default clearance in board units
}

// DefaultPresetOptions works in mils with 8 mil clearance.
func DefaultPresetOptions() PresetOptions {
	return PresetOptions{UnitsPerInch: 1000, Clearance: 8}
}

// Component and solder side layer names of preset boards.
const (
	ComponentLayer = "component"
	SolderLayer    = "solder"
)

// FromSpec builds a two layer board with the outline of spec. Edge contacts
// become system fixed SMD pins on both sides, holes become keepouts.
func FromSpec(spec Spec, opts PresetOptions) (*RoutingBoard, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if opts.UnitsPerInch <= 0 {
		return nil, errors.Newf("units per inch must be positive, got %g", opts.UnitsPerInch)
	}
	u := opts.UnitsPerInch
	w, h := spec.Dimensions()
	r := rules.New(2)
	r.Clearance.Set(1, 1, opts.Clearance)
	layers := []Layer{{Name: ComponentLayer, IsSignal: true}, {Name: SolderLayer, IsSignal: true}}
	b := New(geometry.NewRect(0, 0, w*u, h*u), layers, r)

	cs := spec.ContactSpec()
	if cs != nil {
		pinCount := 2 * cs.Count
		signals := make([]string, 0, pinCount)
		for pin := 1; pin <= pinCount; pin++ {
			signals = append(signals, spec.SignalName(pin))
		}
		// net numbers follow the natural order of the signal names
		sorted := append([]string(nil), signals...)
		sort.Sort(natural.StringSlice(sorted))
		for _, s := range sorted {
			r.Nets.Add(s, 1)
		}
		for side := 0; side < 2; side++ {
			ps, err := item.NewRectPadstack("contact", side, side, cs.WidthInches*u, cs.Height()*u)
			if err != nil {
				return nil, err
			}
			for i := 0; i < cs.Count; i++ {
				pin := side*cs.Count + i + 1
				net, _ := r.Nets.ByName(signals[pin-1])
				center := contactCenter(cs, i, w*u, h*u, u)
				p := item.NewPin("J1", strconv.Itoa(pin), center, rotated(ps, cs.Edge), []int{net.No}, 1, item.SystemFixed, false)
				b.Insert(p)
			}
		}
	}

	for _, hole := range spec.Holes() {
		center := holeCenter(hole, cs, h*u, u)
		poly := geometry.OctagonCorners(center, hole.DiamInches*u/2)
		for l := range layers {
			a, err := item.NewArea(item.KindKeepout, hole.Name, l, poly, nil, 1, item.SystemFixed, true)
			if err != nil {
				return nil, errors.Wrapf(err, "hole %s", hole.Name)
			}
			b.Insert(a)
		}
	}
	return b, nil
}

// rotated returns the padstack with width and height swapped for contacts on
// the left or right edge.
func rotated(ps *item.Padstack, edge Edge) *item.Padstack {
	if edge != EdgeLeft && edge != EdgeRight {
		return ps
	}
	out := *ps
	out.Shapes = make([]geometry.TileShape, len(ps.Shapes))
	for i, s := range ps.Shapes {
		r := s.Bounds()
		out.Shapes[i] = geometry.NewBox(geometry.NewRect(-r.Height/2, -r.Width/2, r.Height, r.Width))
	}
	return &out
}

// contactCenter places contact i along edge; contacts reach the board edge.
func contactCenter(cs *ContactSpec, i int, w, h, u float64) geometry.Point2D {
	along := (cs.MarginInches + float64(i)*cs.PitchInches) * u
	half := cs.Height() * u / 2
	switch cs.Edge {
	case EdgeTop:
		return geometry.Point2D{X: along, Y: h - half}
	case EdgeLeft:
		return geometry.Point2D{X: half, Y: along}
	case EdgeRight:
		return geometry.Point2D{X: w - half, Y: along}
	default:
		return geometry.Point2D{X: along, Y: half}
	}
}

// holeCenter converts hole coordinates measured from the contact edge.
func holeCenter(hole HoleSpec, cs *ContactSpec, h, u float64) geometry.Point2D {
	x, y := hole.XInches*u, hole.YInches*u
	if cs != nil && cs.Edge == EdgeTop {
		return geometry.Point2D{X: x, Y: h - y}
	}
	return geometry.Point2D{X: x, Y: y}
}
