package shove

import (
	"math"

	"pcb-router/internal/board"
	"pcb-router/internal/item"
	"pcb-router/internal/rules"
	"pcb-router/pkg/geometry"
)

// traceShove is one trace segment shape to be forced onto a layer.
type traceShove struct {
	shape geometry.TileShape
	from  FromSide
	// dir restricts the recursion of checks to pieces running the same way.
	// The zero vector allows all pieces.
	dir        geometry.Point2D
	layer      int
	nets       []int
	clClass    int
	ignore     ignoreSet
	depth      int
	viaDepth   int
	springOver int
	timeLimit  *TimeLimit
}

// checkShoveTrace reports whether the obstacles in ts.shape can be shoved
// aside. The board is not changed.
func (s *Shover) checkShoveTrace(ts traceShove) bool {
	b := s.board
	if ts.timeLimit.Exceeded() {
		return false
	}
	if ts.shape.IsEmpty() {
		return true
	}
	if !b.InsideBounds(ts.shape) {
		b.SetFailingObstacle(board.OutlineID, ts.layer)
		return false
	}
	ignore := s.tiePinIgnore(ts.shape, ts.layer, ts.nets)
	for id := range ts.ignore {
		ignore[id] = true
	}
	entries := newShapeTraceEntries(b, ts.shape, ts.layer, ts.nets, ts.clClass, ts.from)
	obstacles := withoutIgnored(b.OverlappingItemsWithClearance(ts.shape, ts.layer, nil, ts.clClass), ignore)
	if !entries.storeItems(obstacles, false, true) {
		s.fail(entries.found, ts.layer)
		return false
	}
	if entries.stackDepth() > 1 {
		s.fail(entries.found, ts.layer)
		return false
	}
	r := ts.shape.Bounds()
	shapeRadius := 0.5 * math.Min(r.Width, r.Height)
	for _, via := range entries.shoveVias {
		if item.SharesNet(via, ts.nets) {
			continue
		}
		if ts.viaDepth <= 0 {
			s.fail(via, ts.layer)
			return false
		}
		radius := 0.5*maxWidth(via.ShapeOn(ts.layer)) + shapeRadius
		moved := false
		for i, p := range s.TryShoveViaPoints(ts.shape, ts.layer, via, ts.clClass, true) {
			if i > 0 && p.DistanceSquare(via.Center()) > radius*radius {
				continue
			}
			if s.CheckMoveDrill(via, p.Sub(via.Center()), ts.depth, ts.viaDepth-1, ts.ignore, ts.timeLimit) {
				moved = true
				break
			}
		}
		if !moved {
			s.fail(via, ts.layer)
			return false
		}
	}
	if entries.pieceCount == 0 {
		return true
	}
	if ts.depth <= 0 {
		s.fail(entries.found, ts.layer)
		return false
	}
	springOver := ts.springOver
	for piece := entries.nextSubstitutePiece(); piece != nil; piece = entries.nextSubstitutePiece() {
		if springOver > 0 {
			poly := s.springOver(piece.Polyline(), piece.HalfWidth(), ts.layer, piece.Nets(), piece.ClearanceClass(), false, springOver, nil)
			if poly.IsEmpty() {
				return false
			}
			if !poly.Equal(piece.Polyline()) {
				springOver--
				piece = piece.WithPolyline(poly)
			}
		}
		poly := piece.Polyline()
		for i := 0; i < poly.SegmentCount(); i++ {
			seg := poly.Segment(i)
			if !isZero(ts.dir) && !geometry.SameDirection(ts.dir, seg.Direction()) {
				continue
			}
			tile, from := shapeAndFromSide(piece, i, false, true)
			ok := s.checkShoveTrace(traceShove{
				shape:      tile,
				from:       from,
				dir:        seg.Direction(),
				layer:      ts.layer,
				nets:       piece.Nets(),
				clClass:    piece.ClearanceClass(),
				depth:      ts.depth - 1,
				viaDepth:   ts.viaDepth,
				springOver: springOver,
				timeLimit:  ts.timeLimit,
			})
			if !ok {
				return false
			}
		}
	}
	return true
}

// insertShoveTrace shoves the obstacles in ts.shape aside. The shape
// itself is not inserted.
func (s *Shover) insertShoveTrace(ts traceShove) bool {
	b := s.board
	if ts.shape.IsEmpty() {
		return true
	}
	if !b.InsideBounds(ts.shape) {
		b.SetFailingObstacle(board.OutlineID, ts.layer)
		return false
	}
	if !s.ShoveVias(ts.shape, ts.from, ts.layer, ts.nets, ts.clClass, ts.ignore, ts.depth, ts.viaDepth, true) {
		return false
	}
	ignore := s.tiePinIgnore(ts.shape, ts.layer, ts.nets)
	for id := range ts.ignore {
		ignore[id] = true
	}
	entries := newShapeTraceEntries(b, ts.shape, ts.layer, ts.nets, ts.clClass, ts.from)
	obstacles := withoutIgnored(b.OverlappingItemsWithClearance(ts.shape, ts.layer, nil, ts.clClass), ignore)
	if !entries.storeItems(obstacles, false, true) {
		s.fail(entries.found, ts.layer)
		return false
	}
	for _, via := range entries.shoveVias {
		if !item.SharesNet(via, ts.nets) {
			s.fail(via, ts.layer)
			return false
		}
	}
	if entries.pieceCount == 0 {
		return true
	}
	if ts.depth <= 0 {
		s.fail(entries.found, ts.layer)
		return false
	}
	tailsBefore := b.ContainsTraceTails(obstacles, ts.nets)
	entries.cutoutTraces(obstacles)
	springOver := ts.springOver
	for piece := entries.nextSubstitutePiece(); piece != nil; piece = entries.nextSubstitutePiece() {
		if piece.FirstCorner().Equal(piece.LastCorner()) {
			continue
		}
		if springOver > 0 {
			poly := s.springOver(piece.Polyline(), piece.HalfWidth(), ts.layer, piece.Nets(), piece.ClearanceClass(), false, springOver, nil)
			if poly.IsEmpty() {
				return false
			}
			if !poly.Equal(piece.Polyline()) {
				springOver--
				piece = piece.WithPolyline(poly)
			}
		}
		if !s.placeSubstitute(piece, false, ts.depth, ts.viaDepth, springOver, tailsBefore) {
			return false
		}
	}
	return true
}

// CheckTraceSegment reports whether a trace segment can be forced onto the
// board. The board is not changed.
func (s *Shover) CheckTraceSegment(seg geometry.Segment, layer int, halfWidth float64, nets []int, clClass, depth, viaDepth, springOver int, tl *TimeLimit) bool {
	t := item.NewTrace(geometry.NewPolyline(seg.A, seg.B), layer, halfWidth, nets, clClass, item.Unfixed)
	if t.Polyline().IsEmpty() {
		return true
	}
	tile, from := shapeAndFromSide(t, 0, false, true)
	return s.checkShoveTrace(traceShove{
		shape:      tile,
		from:       from,
		dir:        seg.Direction(),
		layer:      layer,
		nets:       nets,
		clClass:    clClass,
		depth:      depth,
		viaDepth:   viaDepth,
		springOver: springOver,
		timeLimit:  tl,
	})
}

// ShovableLength returns how far along seg a trace can be pushed through
// the obstacles, +Inf if all the way and 0 if not at all. The side of the
// segment the obstacles are pushed to is chosen by shoveLeft. Vias which
// cannot be moved and pieces which can only be pushed part of the way cut
// the length short by their distance from seg.A less the clearance.
func (s *Shover) ShovableLength(seg geometry.Segment, shoveLeft bool, layer int, halfWidth float64, nets []int, clClass, depth, viaDepth int) float64 {
	b := s.board
	if seg.IsDegenerate() {
		return math.Inf(1)
	}
	shape := geometry.SegmentTile(seg.A, seg.B, halfWidth)
	if !b.InsideBounds(shape) {
		b.SetFailingObstacle(board.OutlineID, layer)
		return 0
	}
	from := FromSideOfSegment(seg, shape, shoveLeft)
	entries := newShapeTraceEntries(b, shape, layer, nets, clClass, from)
	obstacles := withoutIgnored(b.OverlappingItemsWithClearance(shape, layer, nil, clClass), s.tiePinIgnore(shape, layer, nets))
	if !entries.storeItems(obstacles, false, true) || entries.containsTails {
		s.fail(entries.found, layer)
		return 0
	}
	if entries.stackDepth() > 1 {
		s.fail(entries.found, layer)
		return 0
	}
	result := math.Inf(1)
	dir := seg.Direction().Unit()
	for _, via := range entries.shoveVias {
		if item.SharesNet(via, nets) {
			continue
		}
		if viaDepth > 0 {
			points := s.TryShoveViaPoints(shape, layer, via, clClass, false)
			if len(points) == 0 {
				s.fail(via, layer)
				return 0
			}
			if s.CheckMoveDrill(via, points[0].Sub(via.Center()), depth, viaDepth-1, nil, nil) {
				continue
			}
		}
		proj := via.Center().Sub(seg.A).Dot(dir)
		limit := proj - 0.5*maxWidth(via.ShapeOn(layer)) - halfWidth - b.Clearance(clClass, via.ClearanceClass(), layer)
		if limit <= 0 {
			s.fail(via, layer)
			return 0
		}
		result = math.Min(result, limit)
	}
	if entries.pieceCount == 0 {
		return result
	}
	if depth <= 0 {
		s.fail(entries.found, layer)
		return 0
	}
	for piece := entries.nextSubstitutePiece(); piece != nil; piece = entries.nextSubstitutePiece() {
		poly := piece.Polyline()
		for i := 0; i < poly.SegmentCount(); i++ {
			ps := poly.Segment(i)
			if shoveLeft {
				ps = ps.Reverse()
			}
			if !geometry.SameDirection(ps.Direction(), seg.Direction()) {
				continue
			}
			// only the first segment in front of seg is followed
			sub := s.ShovableLength(ps, shoveLeft, layer, piece.HalfWidth(), piece.Nets(), piece.ClearanceClass(), depth-1, viaDepth)
			if math.IsInf(sub, 1) {
				break
			}
			if sub <= 0 {
				return 0
			}
			start := math.Min(ps.A.Sub(seg.A).Dot(dir), ps.B.Sub(seg.A).Dot(dir))
			ok := sub + start - halfWidth - piece.HalfWidth() - b.Clearance(clClass, piece.ClearanceClass(), layer)
			if ok <= 0 {
				s.fail(piece, layer)
				return 0
			}
			result = math.Min(result, ok)
			break
		}
	}
	return result
}

func isZero(p geometry.Point2D) bool {
	return p.X == 0 && p.Y == 0
}

// springOver routes poly around the first fixed obstacle in its way on the
// counter-clockwise side. It returns poly unchanged if nothing blocks and
// an empty polyline if the obstacle cannot be passed.
func (s *Shover) springOver(poly geometry.Polyline, hw float64, layer int, nets []int, clClass int, overConnectedPins bool, depth int, contactPins map[item.ID]bool) geometry.Polyline {
	b := s.board
	var found item.Item
	var checkNets []int
	if contactPins == nil {
		checkNets = nets
	}
	for i := 0; i < poly.SegmentCount(); i++ {
		seg := poly.Segment(i)
		tile := geometry.SegmentTile(seg.A, seg.B, hw)
		for _, it := range b.OverlappingItemsWithClearance(tile, layer, checkNets, clClass) {
			if !s.blocksSpring(it, nets, contactPins) {
				continue
			}
			if found == nil {
				found = it
				continue
			}
			if found.ID() == it.ID() {
				continue
			}
			fb, ib := found.Bounds(), it.Bounds()
			if !fb.Intersects(ib) {
				continue
			}
			if ib.ContainsRect(fb) {
				found = it
			} else if !fb.ContainsRect(ib) {
				s.fail(it, layer)
				return geometry.Polyline{}
			}
		}
		if found != nil {
			break
		}
	}
	if found == nil {
		return poly
	}
	if t, ok := found.(*item.Trace); depth <= 0 || (ok && !item.IsShoveFixed(t)) {
		s.fail(found, layer)
		return geometry.Polyline{}
	}
	if !overConnectedPins {
		for _, c := range b.Contacts(found) {
			if c.Kind() == item.KindTrace && item.IsOnLayer(c, layer) {
				s.fail(found, layer)
				return geometry.Polyline{}
			}
		}
	}
	var obstacle geometry.TileShape
	switch v := found.(type) {
	case item.DrillItem:
		obstacle = v.ShapeOn(layer)
	default:
		shapes := found.TileShapes(layer)
		if len(shapes) != 1 {
			s.fail(found, layer)
			return geometry.Polyline{}
		}
		obstacle = shapes[0]
	}
	cl := b.Clearance(clClass, found.ClearanceClass(), layer)
	off := obstacle.Offset(hw + 1 + 0.5*cl).Offset(0.5 * cl)
	switch s.angle() {
	case rules.Angle90:
		off = off.BoundingBox()
	case rules.Angle45:
		off = off.BoundingOctagon()
	}
	if off.ContainsInside(poly.FirstCorner()) || off.ContainsInside(poly.LastCorner()) {
		s.fail(found, layer)
		return geometry.Polyline{}
	}
	crossings := off.EntrancePoints(poly)
	if len(crossings) == 0 {
		return poly
	}
	if len(crossings) < 2 {
		s.fail(found, layer)
		return geometry.Polyline{}
	}
	first, last := crossings[0], crossings[len(crossings)-1]
	n := off.BorderLineCount()
	sideDiff := last.Edge - first.Edge
	if sideDiff < 0 {
		sideDiff += n
	} else if sideDiff == 0 {
		c := off.Corner(first.Edge)
		if c.Distance(last.Point) < c.Distance(first.Point) {
			sideDiff += n
		}
	}
	corners := []geometry.Point2D{first.Point}
	for k := 1; k <= sideDiff; k++ {
		corners = append(corners, off.Corner(first.Edge+k))
	}
	corners = append(corners, last.Point)
	result := geometry.NewPolyline(corners...)
	pieces := off.Cutout(poly)
	if len(pieces) > 0 && pieces[0].FirstCorner().Equal(poly.FirstCorner()) {
		joined, ok := pieces[0].Combine(result)
		if !ok {
			s.fail(found, layer)
			return geometry.Polyline{}
		}
		result = joined
	}
	if len(pieces) > 0 {
		if tail := pieces[len(pieces)-1]; tail.LastCorner().Equal(poly.LastCorner()) && !tail.FirstCorner().Equal(poly.FirstCorner()) {
			joined, ok := result.Combine(tail)
			if !ok {
				s.fail(found, layer)
				return geometry.Polyline{}
			}
			result = joined
		}
	}
	return s.springOver(result, hw, layer, nets, clClass, overConnectedPins, depth-1, contactPins)
}

// blocksSpring reports whether it has to be sprung over instead of shoved.
func (s *Shover) blocksSpring(it item.Item, nets []int, contactPins map[item.ID]bool) bool {
	if item.SharesNet(it, nets) {
		return it.Kind() == item.KindPin && contactPins != nil && !contactPins[it.ID()]
	}
	switch it.Kind() {
	case item.KindConductionArea:
		a, ok := it.(*item.Area)
		return ok && a.IsObstacle()
	case item.KindViaKeepout, item.KindComponentKeepout:
		return false
	case item.KindTrace:
		if !item.IsShoveFixed(it) {
			return false
		}
		for _, c := range s.board.Contacts(it) {
			if item.SharesNet(c, nets) {
				return false
			}
		}
		return true
	}
	return !item.IsRoute(it)
}

// maxSpringOverDepth bounds the obstacles passed by SpringOverObstacles.
const maxSpringOverDepth = 20

// SpringOverObstacles routes poly around the fixed obstacles in its way. It
// tries both the given and the reversed direction and returns the shorter
// result, or an empty polyline if neither works.
func (s *Shover) SpringOverObstacles(poly geometry.Polyline, hw float64, layer int, nets []int, clClass int, contactPins map[item.ID]bool) geometry.Polyline {
	ccw := s.springOver(poly, hw, layer, nets, clClass, true, maxSpringOverDepth, contactPins)
	cw := s.springOver(poly.Reverse(), hw, layer, nets, clClass, true, maxSpringOverDepth, contactPins)
	if !cw.IsEmpty() {
		cw = cw.Reverse()
	}
	switch {
	case ccw.IsEmpty():
		return cw
	case cw.IsEmpty():
		return ccw
	case cw.Length() < ccw.Length():
		return cw
	default:
		return ccw
	}
}
