package shove

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"pcb-router/internal/item"
	"pcb-router/internal/rules"
	"pcb-router/pkg/geometry"
)

// viaLeg is a trace attached to a via with the corner next to the via.
type viaLeg struct {
	trace *item.Trace
	next  geometry.Point2D
	cost  rules.TraceCost
}

// weightedDistance measures the distance from a to b with the horizontal
// and vertical parts scaled by cost.
func weightedDistance(a, b geometry.Point2D, cost rules.TraceCost) float64 {
	dx := (b.X - a.X) * cost.Horizontal
	dy := (b.Y - a.Y) * cost.Vertical
	return math.Hypot(dx, dy)
}

func legsCost(p geometry.Point2D, legs []viaLeg) float64 {
	var sum float64
	for _, l := range legs {
		sum += weightedDistance(p, l.next, l.cost)
	}
	return sum
}

// viaLegs returns the traces attached to v. It fails if v carries other
// contacts than traces and conduction areas or a trace that is not a
// simple attachment.
func (s *Shover) viaLegs(v *item.Via) ([]viaLeg, bool) {
	var legs []viaLeg
	for _, c := range s.board.DrillContacts(v) {
		switch t := c.(type) {
		case *item.Trace:
			poly := t.Polyline()
			leg := viaLeg{trace: t, cost: s.board.Rules().TraceCostOn(t.Layer())}
			shape := v.ShapeOn(t.Layer())
			switch {
			case shape.Contains(t.FirstCorner()):
				leg.next = poly.Corners[1]
			case shape.Contains(t.LastCorner()):
				leg.next = poly.Corners[len(poly.Corners)-2]
			default:
				return nil, false
			}
			legs = append(legs, leg)
		case *item.Area:
		default:
			return nil, false
		}
	}
	return legs, true
}

// OptimizeVia moves a via with one or two attached traces toward the place
// where the attached traces are cheapest by their layer trace costs, then
// pulls the traces tight. It reports whether the via moved.
//
// A via whose two traces lie on the same layer is left alone: the traces
// already meet at its center without it, and moving it would only hang a
// single connector branch off that junction.
func (s *Shover) OptimizeVia(v *item.Via, depth, viaDepth int, tl *TimeLimit) bool {
	if item.IsShoveFixed(v) {
		return false
	}
	legs, ok := s.viaLegs(v)
	if !ok || len(legs) == 0 || len(legs) > 2 {
		return false
	}
	if len(legs) == 2 && legs[0].trace.Layer() == legs[1].trace.Layer() {
		return false
	}
	center := v.Center()
	oldCost := legsCost(center, legs)
	minLen := math.Inf(1)
	for _, l := range legs {
		minLen = math.Min(minLen, 0.3*l.trace.HalfWidth()+1)
	}

	targets := []geometry.Point2D{}
	for _, l := range legs {
		targets = append(targets, l.next)
	}
	if len(legs) == 2 {
		if p, ok := weightedProjection(center, legs[0].next, legs[1].next, legs); ok {
			targets = append([]geometry.Point2D{p}, targets...)
		}
	}
	for _, target := range targets {
		if tl.Exceeded() {
			return false
		}
		if legsCost(target, legs) >= oldCost-geometry.Epsilon {
			continue
		}
		for _, delta := range s.moveSteps(target.Sub(center)) {
			if moved, ok := s.repositionVia(v, delta, minLen, depth, viaDepth, oldCost, legs); ok {
				s.pullTightLegs(moved, tl)
				return true
			}
		}
	}
	return false
}

// moveSteps returns the moves toward delta allowed by the angle restriction:
// delta itself, or its decomposition into allowed directions.
func (s *Shover) moveSteps(delta geometry.Point2D) []geometry.Point2D {
	if s.directionAllowed(delta) {
		return []geometry.Point2D{delta}
	}
	x := geometry.Point2D{X: delta.X}
	y := geometry.Point2D{Y: delta.Y}
	if s.angle() == rules.Angle90 {
		if math.Abs(delta.X) >= math.Abs(delta.Y) {
			return []geometry.Point2D{x, y}
		}
		return []geometry.Point2D{y, x}
	}
	m := math.Min(math.Abs(delta.X), math.Abs(delta.Y))
	diag := geometry.Point2D{X: math.Copysign(m, delta.X), Y: math.Copysign(m, delta.Y)}
	rest := delta.Sub(diag)
	if diag.Length() >= rest.Length() {
		return []geometry.Point2D{diag, rest}
	}
	return []geometry.Point2D{rest, diag}
}

// repositionVia moves v by delta or, if that is blocked, by the longest
// fraction of delta found by bisection down to minLen.
func (s *Shover) repositionVia(v *item.Via, delta geometry.Point2D, minLen float64, depth, viaDepth int, oldCost float64, legs []viaLeg) (*item.Via, bool) {
	if delta.Length() < minLen {
		return nil, false
	}
	lo, hi := 0.0, 1.0
	var best float64
	if s.CheckMoveDrill(v, delta, 0, 0, nil, nil) {
		best = 1
	} else {
		for (hi-lo)*delta.Length() >= minLen {
			mid := 0.5 * (lo + hi)
			if s.CheckMoveDrill(v, delta.Scale(mid), 0, 0, nil, nil) {
				lo, best = mid, mid
			} else {
				hi = mid
			}
		}
	}
	step := delta.Scale(best)
	if best == 0 || step.Length() < minLen {
		return nil, false
	}
	if legsCost(v.Center().Add(step), legs) >= oldCost-geometry.Epsilon {
		return nil, false
	}
	if !s.MoveDrill(v, step, depth, viaDepth) {
		return nil, false
	}
	moved, ok := s.board.Item(v.ID()).(*item.Via)
	return moved, ok
}

func (s *Shover) pullTightLegs(v *item.Via, tl *TimeLimit) {
	for _, c := range s.board.DrillContacts(v) {
		if t, ok := c.(*item.Trace); ok {
			s.PullTight(t, geometry.EmptyRect(), tl)
		}
	}
}

// weightedProjection projects p onto the segment a-b in the metric of the
// averaged trace costs by solving the least squares problem
// min |W(a + t(b-a) - p)|.
func weightedProjection(p, a, b geometry.Point2D, legs []viaLeg) (geometry.Point2D, bool) {
	var h, v float64
	for _, l := range legs {
		h += l.cost.Horizontal
		v += l.cost.Vertical
	}
	h /= float64(len(legs))
	v /= float64(len(legs))
	d := b.Sub(a)
	if d.Length() < geometry.Epsilon {
		return geometry.Point2D{}, false
	}
	A := mat.NewDense(2, 1, []float64{h * d.X, v * d.Y})
	y := mat.NewVecDense(2, []float64{h * (p.X - a.X), v * (p.Y - a.Y)})
	var qr mat.QR
	qr.Factorize(A)
	var t mat.VecDense
	if err := qr.SolveVecTo(&t, false, y); err != nil {
		return geometry.Point2D{}, false
	}
	f := math.Max(0, math.Min(1, t.AtVec(0)))
	return a.Add(d.Scale(f)), true
}
