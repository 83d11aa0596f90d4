// Package shove implements push-and-shove routing. Pads, vias and trace
// segments are forced onto the board by moving the traces and vias in their
// way aside, recursively, within depth and time budgets.
//
// Check operations never modify the board. Insert operations modify it
// without cleanup on failure; callers wrap them in an undo transaction and
// roll back when they report false.
package shove

import (
	"pcb-router/internal/board"
	"pcb-router/internal/item"
	"pcb-router/internal/rules"
	"pcb-router/pkg/geometry"
)

// DefaultMinTraceHalfWidth is used to find the from side of forced pads
// when no smaller trace width is configured.
const DefaultMinTraceHalfWidth = 2.0

// Shover runs the shove algorithms on one board. It is not safe for
// concurrent use.
type Shover struct {
	board *board.RoutingBoard

	// MinTraceHalfWidth is the half width of the thinnest trace expected to
	// leave a forced via.
	MinTraceHalfWidth float64
	// PullTightPasses bounds the corner removal passes on one trace.
	PullTightPasses int
}

// New returns a Shover working on b.
func New(b *board.RoutingBoard) *Shover {
	return &Shover{board: b, MinTraceHalfWidth: DefaultMinTraceHalfWidth, PullTightPasses: DefaultPullTightPasses}
}

// Board returns the board the shover works on.
func (s *Shover) Board() *board.RoutingBoard { return s.board }

func (s *Shover) angle() rules.AngleRestriction {
	return s.board.Rules().Angle
}

// fail records it as failing obstacle on layer. A nil item leaves the
// previous record untouched.
func (s *Shover) fail(it item.Item, layer int) {
	if it == nil {
		return
	}
	s.board.SetFailingObstacle(it.ID(), layer)
}

// ignoreSet holds items excluded from obstacle queries.
type ignoreSet map[item.ID]bool

func (ig ignoreSet) with(it item.Item) ignoreSet {
	out := make(ignoreSet, len(ig)+1)
	for id := range ig {
		out[id] = true
	}
	out[it.ID()] = true
	return out
}

func withoutIgnored(items []item.Item, ig ignoreSet) []item.Item {
	if len(ig) == 0 {
		return items
	}
	out := items[:0:0]
	for _, it := range items {
		if !ig[it.ID()] {
			out = append(out, it)
		}
	}
	return out
}

// tiePinIgnore collects the items connected on layer to pins of nets under
// shape. Traces leaving such pins may be crossed by the shape.
func (s *Shover) tiePinIgnore(shape geometry.TileShape, layer int, nets []int) ignoreSet {
	ig := ignoreSet{}
	for _, hit := range s.board.OverlappingObjects(shape, layer) {
		pin, ok := hit.Item.(*item.Pin)
		if !ok || !item.SharesNet(pin, nets) {
			continue
		}
		for _, c := range s.board.DrillContacts(pin) {
			if item.IsOnLayer(c, layer) {
				ig[c.ID()] = true
			}
		}
	}
	return ig
}

// restrictTile returns the shape used for a drill tile under the angle
// restriction.
func (s *Shover) restrictTile(shape geometry.TileShape) geometry.TileShape {
	if s.angle() == rules.Angle90 {
		return shape.BoundingBox()
	}
	return shape.BoundingOctagon()
}

// removeNewTails removes the dangling trace chains of nets ending at the
// end corners of t and recombines the remaining traces.
func (s *Shover) removeNewTails(t *item.Trace, nets []int) {
	for _, p := range []geometry.Point2D{t.FirstCorner(), t.LastCorner()} {
		if s.board.RemoveTraceTail(p, t.Layer(), nets) {
			for _, n := range nets {
				s.board.CombineTraces(n)
			}
		}
	}
}

func (s *Shover) joinChanged(poly geometry.Polyline, layer int) {
	for _, c := range poly.Corners {
		s.board.JoinChangedArea(c, layer)
	}
}
