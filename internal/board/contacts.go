package board

import (
	"pcb-router/internal/item"
	"pcb-router/pkg/geometry"
)

// ContactsAt returns the items of one of nets on layer touching p, except
// the item with id except. Traces touch p only with an end corner.
func (b *RoutingBoard) ContactsAt(p geometry.Point2D, layer int, nets []int, except item.ID) []item.Item {
	spot := geometry.NewBox(geometry.NewRect(p.X-1, p.Y-1, 2, 2))
	seen := make(map[item.ID]bool)
	var out []item.Item
	for _, hit := range b.OverlappingObjects(spot, layer) {
		it := hit.Item
		if it.ID() == except || seen[it.ID()] || !item.SharesNet(it, nets) {
			continue
		}
		touch := false
		switch v := it.(type) {
		case *item.Trace:
			touch = v.FirstCorner().Equal(p) || v.LastCorner().Equal(p)
		case item.DrillItem:
			touch = v.ShapeOn(layer).Contains(p)
		case *item.Area:
			touch = v.Kind() == item.KindConductionArea && hit.Shape.Contains(p)
		}
		if touch {
			seen[it.ID()] = true
			out = append(out, it)
		}
	}
	return out
}

// StartContacts returns the items touching the first corner of t.
func (b *RoutingBoard) StartContacts(t *item.Trace) []item.Item {
	return b.ContactsAt(t.FirstCorner(), t.Layer(), t.Nets(), t.ID())
}

// EndContacts returns the items touching the last corner of t.
func (b *RoutingBoard) EndContacts(t *item.Trace) []item.Item {
	return b.ContactsAt(t.LastCorner(), t.Layer(), t.Nets(), t.ID())
}

// DrillContacts returns the traces of the drill's nets ending inside its pad
// on any layer, and conduction areas under it.
func (b *RoutingBoard) DrillContacts(d item.DrillItem) []item.Item {
	seen := make(map[item.ID]bool)
	var out []item.Item
	for l := d.FirstLayer(); l <= d.LastLayer(); l++ {
		shape := d.ShapeOn(l)
		if shape.IsEmpty() {
			continue
		}
		for _, hit := range b.OverlappingObjects(shape, l) {
			it := hit.Item
			if it.ID() == d.ID() || seen[it.ID()] || !item.SharesNetWith(it, d) {
				continue
			}
			touch := false
			switch v := it.(type) {
			case *item.Trace:
				touch = shape.Contains(v.FirstCorner()) || shape.Contains(v.LastCorner())
			case *item.Area:
				touch = v.Kind() == item.KindConductionArea
			}
			if touch {
				seen[it.ID()] = true
				out = append(out, it)
			}
		}
	}
	return out
}

// Contacts returns the items connected to it.
func (b *RoutingBoard) Contacts(it item.Item) []item.Item {
	switch v := it.(type) {
	case *item.Trace:
		return append(b.StartContacts(v), b.EndContacts(v)...)
	case item.DrillItem:
		return b.DrillContacts(v)
	}
	return nil
}

// IsTail reports whether one end of t is not connected to anything.
func (b *RoutingBoard) IsTail(t *item.Trace) bool {
	return len(b.StartContacts(t)) == 0 || len(b.EndContacts(t)) == 0
}

// ContainsTraceTails reports whether items hold a dangling trace of nets
// other than exceptNets.
func (b *RoutingBoard) ContainsTraceTails(items []item.Item, exceptNets []int) bool {
	for _, it := range items {
		t, ok := it.(*item.Trace)
		if !ok || item.NetsEqual(t.Nets(), exceptNets) {
			continue
		}
		if cur, ok := b.Item(t.ID()).(*item.Trace); ok && b.IsTail(cur) {
			return true
		}
	}
	return false
}

// TraceTail returns a dangling trace of nets on layer with an end at p, or nil.
func (b *RoutingBoard) TraceTail(p geometry.Point2D, layer int, nets []int) *item.Trace {
	spot := geometry.NewBox(geometry.NewRect(p.X-1, p.Y-1, 2, 2))
	for _, hit := range b.OverlappingObjects(spot, layer) {
		t, ok := hit.Item.(*item.Trace)
		if !ok || !item.NetsEqual(t.Nets(), nets) {
			continue
		}
		if (t.FirstCorner().Equal(p) || t.LastCorner().Equal(p)) && b.IsTail(t) {
			return t
		}
	}
	return nil
}

// ConnectionItems returns t and the traces chained to it without branching.
// The walk stops at vias, pins, areas and at points where more than two
// traces meet.
func (b *RoutingBoard) ConnectionItems(t *item.Trace) []item.Item {
	visited := map[item.ID]bool{t.ID(): true}
	out := []item.Item{t}
	stack := []*item.Trace{t}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, contacts := range [][]item.Item{b.StartContacts(cur), b.EndContacts(cur)} {
			if len(contacts) != 1 {
				continue
			}
			next, ok := contacts[0].(*item.Trace)
			if !ok || visited[next.ID()] {
				continue
			}
			visited[next.ID()] = true
			out = append(out, next)
			stack = append(stack, next)
		}
	}
	return out
}

// RemoveTraceTail removes the dangling trace of nets ending at p together
// with its chain. It reports whether something was removed.
func (b *RoutingBoard) RemoveTraceTail(p geometry.Point2D, layer int, nets []int) bool {
	tail := b.TraceTail(p, layer, nets)
	if tail == nil {
		return false
	}
	return b.RemoveItems(b.ConnectionItems(tail))
}

func combinable(a, c *item.Trace) bool {
	return a.ID() != c.ID() && a.Layer() == c.Layer() &&
		item.NetsEqual(a.Nets(), c.Nets()) &&
		a.HalfWidth() == c.HalfWidth() &&
		a.ClearanceClass() == c.ClearanceClass() &&
		a.FixedState() == c.FixedState()
}

// combineTrace merges t with a trace continuing it at one of its ends.
func (b *RoutingBoard) combineTrace(t *item.Trace) bool {
	if cs := b.EndContacts(t); len(cs) == 1 {
		if o, ok := cs[0].(*item.Trace); ok && combinable(t, o) {
			other := o.Polyline()
			if o.LastCorner().Equal(t.LastCorner()) {
				other = other.Reverse()
			}
			if joined, ok := t.Polyline().Combine(other); ok {
				_ = b.Remove(o.ID())
				b.Insert(t.WithPolyline(joined).WithID(t.ID()))
				return true
			}
		}
	}
	if cs := b.StartContacts(t); len(cs) == 1 {
		if o, ok := cs[0].(*item.Trace); ok && combinable(t, o) {
			other := o.Polyline()
			if o.FirstCorner().Equal(t.FirstCorner()) {
				other = other.Reverse()
			}
			if joined, ok := other.Combine(t.Polyline()); ok {
				_ = b.Remove(o.ID())
				b.Insert(t.WithPolyline(joined).WithID(t.ID()))
				return true
			}
		}
	}
	return false
}

// CombineTraces merges the traces of net meeting end to end with equal
// layer, width, clearance class and fixed state until nothing changes.
// A negative net combines all traces.
func (b *RoutingBoard) CombineTraces(net int) bool {
	changed := false
	for again := true; again; {
		again = false
		for _, t := range b.Traces() {
			if net >= 0 && !item.SharesNet(t, []int{net}) {
				continue
			}
			cur, ok := b.Item(t.ID()).(*item.Trace)
			if !ok {
				continue
			}
			if b.combineTrace(cur) {
				again, changed = true, true
				break
			}
		}
	}
	return changed
}

// NormalizeTrace splits t where same-net traces end or drills sit on its
// interior and then combines the traces of its nets. Other items end up
// touching t only at its end corners.
func (b *RoutingBoard) NormalizeTrace(t *item.Trace) {
	b.splitAtContacts(t)
	for _, n := range t.Nets() {
		b.CombineTraces(n)
	}
}

func (b *RoutingBoard) splitAtContacts(t *item.Trace) {
	poly := t.Polyline()
	for i := 0; i < poly.SegmentCount(); i++ {
		seg := poly.Segment(i)
		at, ok := b.interiorContact(t, seg, i == poly.SegmentCount()-1)
		if !ok {
			continue
		}
		head, tail := poly.SplitAt(i, at)
		if head.IsEmpty() || tail.IsEmpty() {
			continue
		}
		first := b.Insert(t.WithPolyline(head).WithID(t.ID())).(*item.Trace)
		second := b.Insert(t.WithPolyline(tail)).(*item.Trace)
		b.splitAtContacts(first)
		b.splitAtContacts(second)
		return
	}
}

// interiorContact finds a point of seg, other than the ends of t, where a
// trace of t's nets ends or a drill of t's nets is centered.
func (b *RoutingBoard) interiorContact(t *item.Trace, seg geometry.Segment, last bool) (geometry.Point2D, bool) {
	tile := geometry.SegmentTile(seg.A, seg.B, t.HalfWidth())
	for _, hit := range b.OverlappingObjects(tile, t.Layer()) {
		if hit.Item.ID() == t.ID() || !item.SharesNetWith(hit.Item, t) {
			continue
		}
		var candidates []geometry.Point2D
		switch v := hit.Item.(type) {
		case *item.Trace:
			candidates = []geometry.Point2D{v.FirstCorner(), v.LastCorner()}
		case item.DrillItem:
			candidates = []geometry.Point2D{v.Center()}
		}
		for _, p := range candidates {
			if p.Equal(t.FirstCorner()) || p.Equal(t.LastCorner()) {
				continue
			}
			if seg.DistanceTo(p) > geometry.Epsilon*10 || p.Equal(seg.A) {
				continue
			}
			if last && p.Equal(seg.B) {
				continue
			}
			return p, true
		}
	}
	return geometry.Point2D{}, false
}
