package shove

import (
	"pcb-router/internal/item"
	"pcb-router/internal/rules"
	"pcb-router/pkg/geometry"
)

// DefaultPullTightPasses is the pass limit of a new Shover.
const DefaultPullTightPasses = 256

// PullTight shortens t by removing corners while the new segments stay
// clear of obstacles. Only corners inside clip are touched; an empty clip
// allows all corners. End corners never move. It returns the resulting
// trace and whether it changed.
func (s *Shover) PullTight(t *item.Trace, clip geometry.Rect, tl *TimeLimit) (*item.Trace, bool) {
	if item.IsShoveFixed(t) || t.Polyline().SegmentCount() < 2 {
		return t, false
	}
	pins := s.contactPins(t)
	poly := t.Polyline()
	changed := false
	for pass := 0; pass < s.PullTightPasses && !tl.Exceeded(); pass++ {
		next, ok := s.pullTightPass(t, poly, clip, pins)
		if !ok {
			break
		}
		poly, changed = next, true
	}
	if !changed {
		return t, false
	}
	s.joinChanged(t.Polyline(), t.Layer())
	placed := s.board.Insert(t.WithPolyline(poly).WithID(t.ID())).(*item.Trace)
	s.board.NormalizeTrace(placed)
	if cur, ok := s.board.Item(placed.ID()).(*item.Trace); ok {
		placed = cur
	}
	return placed, true
}

// PullTightChangedArea pulls tight the unfixed traces crossing the changed
// area of every layer and returns the number of changed traces.
func (s *Shover) PullTightChangedArea(tl *TimeLimit) int {
	count := 0
	for layer := 0; layer < s.board.LayerCount(); layer++ {
		clip := s.board.ChangedArea(layer)
		if clip.IsEmpty() {
			continue
		}
		for _, t := range s.board.Traces() {
			if tl.Exceeded() {
				return count
			}
			if t.Layer() != layer || !t.Bounds().Intersects(clip) {
				continue
			}
			cur, ok := s.board.Item(t.ID()).(*item.Trace)
			if !ok {
				continue
			}
			if _, changed := s.PullTight(cur, clip, tl); changed {
				count++
			}
		}
	}
	return count
}

// pullTightPass applies the first possible shortening of poly.
func (s *Shover) pullTightPass(t *item.Trace, poly geometry.Polyline, clip geometry.Rect, pins map[item.ID]bool) (geometry.Polyline, bool) {
	c := poly.Corners
	inClip := func(p geometry.Point2D) bool {
		return clip.IsEmpty() || clip.Contains(p)
	}
	for i := 1; i < len(c)-1; i++ {
		if !inClip(c[i]) || !s.directionAllowed(c[i+1].Sub(c[i-1])) {
			continue
		}
		if s.segmentFree(t, c[i-1], c[i+1], pins) {
			corners := append(append([]geometry.Point2D{}, c[:i]...), c[i+1:]...)
			return geometry.NewPolyline(corners...).Simplify(), true
		}
	}
	for k := 1; k+2 < len(c); k++ {
		if !inClip(c[k]) && !inClip(c[k+1]) {
			continue
		}
		q, ok := geometry.LineIntersection(c[k-1], c[k], c[k+1], c[k+2])
		if !ok {
			continue
		}
		if q.Sub(c[k-1]).Dot(c[k].Sub(c[k-1])) <= 0 || c[k+2].Sub(q).Dot(c[k+2].Sub(c[k+1])) <= 0 {
			continue
		}
		oldLen := c[k-1].Distance(c[k]) + c[k].Distance(c[k+1]) + c[k+1].Distance(c[k+2])
		if c[k-1].Distance(q)+q.Distance(c[k+2]) >= oldLen-geometry.Epsilon {
			continue
		}
		if s.segmentFree(t, c[k-1], q, pins) && s.segmentFree(t, q, c[k+2], pins) {
			corners := append(append([]geometry.Point2D{}, c[:k]...), q)
			corners = append(corners, c[k+2:]...)
			return geometry.NewPolyline(corners...).Simplify(), true
		}
	}
	return poly, false
}

func (s *Shover) segmentFree(t *item.Trace, a, b geometry.Point2D, pins map[item.ID]bool) bool {
	tile := geometry.SegmentTile(a, b, t.HalfWidth())
	return s.board.CheckTraceShape(tile, t.Layer(), t.Nets(), t.ClearanceClass(), pins)
}

func (s *Shover) directionAllowed(d geometry.Point2D) bool {
	switch s.angle() {
	case rules.Angle90:
		return geometry.IsOrthogonal(d)
	case rules.Angle45:
		return geometry.IsMultipleOf45(d)
	}
	return true
}

// contactPins returns the pins at the ends of t. Other pins block the
// pulled trace even on its own net.
func (s *Shover) contactPins(t *item.Trace) map[item.ID]bool {
	pins := make(map[item.ID]bool)
	for _, c := range s.board.Contacts(t) {
		if c.Kind() == item.KindPin {
			pins[c.ID()] = true
		}
	}
	return pins
}
