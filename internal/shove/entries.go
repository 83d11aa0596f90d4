package shove

import (
	"pcb-router/internal/board"
	"pcb-router/internal/item"
	"pcb-router/pkg/geometry"
)

// offsetAdd keeps substitute traces strictly clear of the shape they avoid.
const offsetAdd = 1.0

const noEntry = -1

// entryPoint is a point where an obstacle trace crosses the offset border
// of the shape. a and b span the trace line at the crossing.
type entryPoint struct {
	trace *item.Trace
	a, b  geometry.Point2D
	isCap bool
	edge  int
	point geometry.Point2D
	level int
	next  int
}

// shapeTraceEntries collects the obstacles of a shape and orders the
// crossing traces around its border into stack levels. Entries live in a
// slice and are chained by index; the structure is built fresh for every
// check or insert.
type shapeTraceEntries struct {
	b       *board.RoutingBoard
	shape   geometry.TileShape
	layer   int
	nets    []int
	clClass int
	from    FromSide

	arena      []entryPoint
	anchor     int
	pieceCount int
	maxLevel   int

	containsTails bool
	found         item.Item
	shoveVias     []*item.Via
}

func newShapeTraceEntries(b *board.RoutingBoard, shape geometry.TileShape, layer int, nets []int, clClass int, from FromSide) *shapeTraceEntries {
	return &shapeTraceEntries{
		b:       b,
		shape:   shape,
		layer:   layer,
		nets:    nets,
		clClass: clClass,
		from:    from,
		anchor:  noEntry,
	}
}

// offsetFor returns the shape enlarged so that a trace like t running on its
// border keeps the clearance.
func (e *shapeTraceEntries) offsetFor(t *item.Trace) geometry.TileShape {
	return traceOffsetShape(e.b, e.shape, t, e.clClass, e.layer)
}

func traceOffsetShape(b *board.RoutingBoard, shape geometry.TileShape, t *item.Trace, clClass, layer int) geometry.TileShape {
	cl := b.Clearance(t.ClearanceClass(), clClass, layer)
	return shape.Offset(t.HalfWidth() + cl + offsetAdd)
}

// storeItems classifies the obstacles. It fails on fixed items of foreign
// nets, on copper that may not be shared and on trace orders which cannot
// be stacked. Vias are collected for shoving.
func (e *shapeTraceEntries) storeItems(items []item.Item, padCheck, copperSharing bool) bool {
	for _, it := range items {
		kind := it.Kind()
		if (!padCheck && kind == item.KindViaKeepout) || kind == item.KindComponentKeepout {
			continue
		}
		own := item.SharesNet(it, e.nets)
		if kind == item.KindConductionArea {
			if a, ok := it.(*item.Area); ok && (own || !a.IsObstacle()) {
				continue
			}
		}
		if item.IsShoveFixed(it) && !own {
			e.found = it
			return false
		}
		switch v := it.(type) {
		case *item.Via:
			if padCheck || !own {
				e.shoveVias = append(e.shoveVias, v)
			}
		case *item.Trace:
			if !e.storeTrace(v) {
				return false
			}
		default:
			if !own || !copperSharing {
				e.found = it
				return false
			}
			if padCheck {
				if pin, ok := it.(*item.Pin); !ok || !pin.DrillAllowed() {
					e.found = it
					return false
				}
			}
		}
	}
	e.searchFromSide()
	e.resort()
	return e.calculateStackLevels()
}

func (e *shapeTraceEntries) storeTrace(t *item.Trace) bool {
	off := e.offsetFor(t)
	poly := t.Polyline()
	for _, c := range off.EntrancePoints(poly) {
		s := poly.Segment(c.Segment)
		e.insertEntry(entryPoint{trace: t, a: s.A, b: s.B, edge: c.Edge, point: c.Point})
	}
	if item.SharesNet(t, e.nets) {
		e.found = t
		return true
	}
	if !item.NetsNormal(t) {
		e.found = t
		return false
	}
	ends := [2]geometry.Point2D{t.FirstCorner(), t.LastCorner()}
	for i, corner := range ends {
		if !off.Contains(corner) {
			continue
		}
		var contacts []item.Item
		if i == 0 {
			contacts = e.b.StartContacts(t)
		} else {
			contacts = e.b.EndContacts(t)
		}
		storeCorner := true
		for _, c := range contacts {
			if !item.IsRoute(c) {
				e.found = c
				return false
			}
			switch v := c.(type) {
			case *item.Trace:
				if item.IsShoveFixed(v) || v.HalfWidth() != t.HalfWidth() || v.ClearanceClass() != t.ClearanceClass() {
					if off.ContainsInside(corner) {
						e.found = c
						return false
					}
				}
			case *item.Via:
				diff := v.ShapeOn(e.layer).SmallestRadius() - t.HalfWidth()
				viaCl := e.b.Clearance(v.ClearanceClass(), e.clClass, e.layer)
				traceCl := e.b.Clearance(t.ClearanceClass(), e.clClass, e.layer)
				if traceCl > viaCl {
					diff += viaCl - traceCl
				}
				if diff < -geometry.Epsilon {
					e.found = c
					return false
				}
				if diff <= geometry.Epsilon && !off.ContainsInside(corner) {
					storeCorner = false
				}
			}
		}
		switch {
		case len(contacts) == 1 && storeCorner:
			proj, _ := off.NearestBorderPoint(corner)
			side := off.ContainsOnBorderLine(proj)
			if side >= 0 {
				a, b := capLine(poly, i == 0)
				e.insertEntry(entryPoint{trace: t, a: a, b: b, isCap: true, edge: side, point: proj})
			}
		case len(contacts) == 0 && off.ContainsInside(corner):
			e.containsTails = true
		}
	}
	e.found = t
	return true
}

// capLine returns the line through an end corner of poly perpendicular to
// the end segment.
func capLine(poly geometry.Polyline, atStart bool) (geometry.Point2D, geometry.Point2D) {
	if atStart {
		s := poly.Segment(0)
		return s.A, s.A.Add(s.B.Sub(s.A).Perp())
	}
	s := poly.Segment(poly.SegmentCount() - 1)
	return s.B, s.B.Add(s.B.Sub(s.A).Perp())
}

// insertEntry keeps the chain sorted by edge and, on one edge, by the
// position along the edge.
func (e *shapeTraceEntries) insertEntry(ep entryPoint) {
	ep.level = -1
	idx := len(e.arena)
	e.arena = append(e.arena, ep)
	prevCorner := e.shape.Corner(ep.edge)
	nextCorner := e.shape.Corner(ep.edge + 1)
	pos := prevCorner.ScalarProduct(ep.point, nextCorner)

	prev, cur := noEntry, e.anchor
	for cur != noEntry {
		c := &e.arena[cur]
		if c.edge > ep.edge {
			break
		}
		if c.edge == ep.edge && pos <= prevCorner.ScalarProduct(c.point, nextCorner) {
			break
		}
		prev, cur = cur, c.next
	}
	e.arena[idx].next = cur
	if prev != noEntry {
		e.arena[prev].next = idx
	} else {
		e.anchor = idx
	}
}

func (e *shapeTraceEntries) netsOf(i int) []int {
	return e.arena[i].trace.Nets()
}

// searchFromSide picks the edge of the first own net entry when the caller
// gave no from side.
func (e *shapeTraceEntries) searchFromSide() {
	if e.from.Calculated() {
		return
	}
	e.from = FromEdge(0)
	for i := e.anchor; i != noEntry; i = e.arena[i].next {
		if item.SharesNet(e.arena[i].trace, e.nets) {
			e.from = FromEdgeAt(e.arena[i].edge, e.arena[i].point)
			return
		}
	}
}

// resort rotates the chain to start behind the from side, merges runs of
// equal nets and strips own net entries at both ends.
func (e *shapeTraceEntries) resort() {
	n := e.shape.BorderLineCount()
	if e.from.No < 0 || e.from.No >= n {
		return
	}
	c1 := e.shape.Corner(e.from.No)
	c2 := e.shape.Corner(e.from.No + 1)
	var fromDist float64
	var fromProj geometry.Point2D
	if e.from.HasPoint {
		fromProj = e.shape.ProjectOnBorderLine(e.from.Point, e.from.No)
		fromDist = fromProj.DistanceSquare(c1)
		if fromDist >= c1.DistanceSquare(c2) {
			e.from = FromEdge(e.from.No)
		}
	}

	prev, cur := noEntry, e.anchor
	for cur != noEntry {
		c := &e.arena[cur]
		if c.edge > e.from.No {
			break
		}
		if c.edge == e.from.No {
			if e.from.HasPoint {
				proj := e.shape.ProjectOnBorderLine(c.point, e.from.No)
				if proj.DistanceSquare(c1) >= fromDist && proj.DistanceSquare(fromProj) <= proj.DistanceSquare(c1) {
					break
				}
			} else if c.point.DistanceSquare(c2) <= c.point.DistanceSquare(c1) {
				break
			}
		}
		prev, cur = cur, c.next
	}
	if cur != noEntry && cur != e.anchor {
		newAnchor := cur
		last := cur
		for e.arena[last].next != noEntry {
			last = e.arena[last].next
		}
		e.arena[last].next = e.anchor
		for c := e.anchor; c != newAnchor; c = e.arena[c].next {
			e.arena[c].edge += n
			prev = c
		}
		e.arena[prev].next = noEntry
		e.anchor = newAnchor
	}
	if e.anchor == noEntry {
		return
	}

	prev = e.anchor
	prevNets := e.netsOf(prev)
	cur = e.arena[prev].next
	var curNets []int
	next := noEntry
	if cur != noEntry {
		curNets = e.netsOf(cur)
		next = e.arena[cur].next
	}
	beforePrev := noEntry
	for next != noEntry {
		nextNets := e.netsOf(next)
		if item.NetsEqual(prevNets, curNets) && item.NetsEqual(curNets, nextNets) {
			e.arena[prev].next = next
		} else {
			beforePrev = prev
			prev = cur
			prevNets = curNets
		}
		curNets = nextNets
		cur = next
		next = e.arena[cur].next
	}
	if cur != noEntry && item.NetsEqual(curNets, e.nets) {
		e.arena[prev].next = noEntry
		if item.NetsEqual(prevNets, e.nets) {
			if beforePrev != noEntry {
				e.arena[beforePrev].next = noEntry
			} else {
				e.anchor = noEntry
			}
		}
	}
	for k := 0; k < 2 && e.anchor != noEntry && item.NetsEqual(e.netsOf(e.anchor), e.nets); k++ {
		e.anchor = e.arena[e.anchor].next
	}
}

// calculateStackLevels assigns each trace piece its nesting level. It fails
// if the nets interleave so that the pieces cannot be popped like a stack.
func (e *shapeTraceEntries) calculateStackLevels() bool {
	if e.anchor == noEntry {
		return true
	}
	cur := e.anchor
	curNets := e.netsOf(cur)
	level := 1
	if item.NetsEqual(curNets, e.nets) {
		level = 0
	}
	for cur != noEntry {
		c := &e.arena[cur]
		if c.level < 0 {
			e.pieceCount++
			c.level = level
			if level > e.maxLevel {
				if e.maxLevel > 1 {
					e.found = c.trace
				}
				e.maxLevel = level
			}
		}
		idx, firstForeignIdx, lastOwnIdx := 0, 0, 0
		firstForeign, lastOwn := noEntry, noEntry
		for check := c.next; check != noEntry; check = e.arena[check].next {
			idx++
			if item.NetsEqual(e.netsOf(check), curNets) {
				lastOwnIdx = idx
				lastOwn = check
				e.arena[check].level = c.level
			} else if firstForeignIdx == 0 {
				firstForeignIdx = idx
				firstForeign = check
			}
		}
		if idx == 0 {
			break
		}
		var next int
		switch {
		case firstForeignIdx != 0 && firstForeignIdx < lastOwnIdx:
			next = firstForeign
			if e.arena[next].level >= 0 {
				return false
			}
			level++
		case lastOwnIdx != 0:
			next = lastOwn
		default:
			next = firstForeign
			if e.arena[next].level >= 0 {
				level--
				if e.arena[next].level != level {
					return false
				}
			}
		}
		curNets = e.netsOf(next)
		c.next = next
		cur = next
	}
	return level == 1
}

// stackDepth returns the highest stack level still present.
func (e *shapeTraceEntries) stackDepth() int {
	return e.maxLevel
}

// popPiece removes the first run of entries on the highest level and
// returns its first and last entry. Own net runs are skipped.
func (e *shapeTraceEntries) popPiece() (int, int, bool) {
	for e.anchor != noEntry {
		prevFirst, first := noEntry, e.anchor
		for first != noEntry && e.arena[first].level != e.maxLevel {
			prevFirst, first = first, e.arena[first].next
		}
		if first == noEntry {
			return noEntry, noEntry, false
		}
		firstNets := e.netsOf(first)
		last := first
		after := e.arena[first].next
		for after != noEntry && e.arena[after].level == e.maxLevel && item.NetsEqual(e.netsOf(after), firstNets) {
			last = after
			after = e.arena[last].next
		}
		if prevFirst != noEntry {
			e.arena[prevFirst].next = after
		} else {
			e.anchor = after
		}
		e.maxLevel = 0
		for i := e.anchor; i != noEntry; i = e.arena[i].next {
			if e.arena[i].level > e.maxLevel {
				e.maxLevel = e.arena[i].level
			}
		}
		e.pieceCount--
		if !item.NetsEqual(firstNets, e.nets) {
			return first, last, true
		}
	}
	return noEntry, noEntry, false
}

// nextSubstitutePiece pops the next trace piece and returns an unplaced
// trace running around the offset border between its two entries, or nil.
func (e *shapeTraceEntries) nextSubstitutePiece() *item.Trace {
	for {
		first, last, ok := e.popPiece()
		if !ok {
			return nil
		}
		f, l := e.arena[first], e.arena[last]
		t := f.trace
		off := e.offsetFor(t)
		corners := []geometry.Point2D{borderPoint(f, off, f.edge)}
		for k := f.edge + 1; k <= l.edge; k++ {
			corners = append(corners, off.Corner(k))
		}
		corners = append(corners, borderPoint(l, off, l.edge))
		poly := geometry.NewPolyline(corners...)
		if poly.IsEmpty() {
			continue
		}
		return item.NewTrace(poly, e.layer, t.HalfWidth(), t.Nets(), t.ClearanceClass(), item.Unfixed)
	}
}

// borderPoint intersects the trace line of ep with border line edge of off.
func borderPoint(ep entryPoint, off geometry.TileShape, edge int) geometry.Point2D {
	if ep.isCap {
		return ep.point
	}
	a, b := off.BorderLine(edge)
	if p, ok := geometry.LineIntersection(ep.a, ep.b, a, b); ok {
		return p
	}
	return ep.point
}

// cutoutTraces removes the parts of foreign traces inside the offset shape.
func (e *shapeTraceEntries) cutoutTraces(items []item.Item) {
	for _, it := range items {
		if t, ok := it.(*item.Trace); ok && !item.SharesNet(t, e.nets) {
			cutoutTrace(e.b, t, e.shape, e.clClass)
		}
	}
}

// cutoutTrace replaces t by its pieces outside shape enlarged by the trace
// width and clearance. The pieces are unfixed.
func cutoutTrace(b *board.RoutingBoard, t *item.Trace, shape geometry.TileShape, clClass int) {
	cur, ok := b.Item(t.ID()).(*item.Trace)
	if !ok {
		return
	}
	off := traceOffsetShape(b, shape, cur, clClass, cur.Layer())
	pieces := off.Cutout(cur.Polyline())
	if len(pieces) == 1 && pieces[0].Equal(cur.Polyline()) {
		return
	}
	if err := b.Remove(cur.ID()); err != nil {
		return
	}
	for _, p := range pieces {
		b.InsertTrace(p, cur.Layer(), cur.HalfWidth(), cur.Nets(), cur.ClearanceClass(), item.Unfixed)
	}
}
