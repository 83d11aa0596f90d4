package shove

import (
	"pcb-router/internal/board"
	"pcb-router/internal/item"
	"pcb-router/pkg/geometry"
)

// DrillVerdict is the result of checking a forced pad.
type DrillVerdict int

const (
	NotDrillable DrillVerdict = iota
	Drillable
	// DrillableWithAttachSmd means the pad may go in but overlaps a same-net
	// SMD pin.
	DrillableWithAttachSmd
)

func (v DrillVerdict) String() string {
	switch v {
	case NotDrillable:
		return "not_drillable"
	case Drillable:
		return "drillable"
	case DrillableWithAttachSmd:
		return "drillable_with_attach_smd"
	default:
		return "unknown"
	}
}

// PadRequest describes a pad shape to force onto one layer.
type PadRequest struct {
	Shape          geometry.TileShape
	From           FromSide
	Layer          int
	Nets           []int
	ClearanceClass int
	// CopperSharing allows overlapping same-net copper.
	CopperSharing bool
	// Ignore lists items which are not obstacles, usually the drill being moved.
	Ignore ignoreSet
	// Depth and ViaDepth are the recursion budgets for traces and vias.
	Depth    int
	ViaDepth int
	// CheckOnlyFront restricts the check to trace pieces in front of the
	// from side, used for moved vias.
	CheckOnlyFront bool
	TimeLimit      *TimeLimit
}

// CheckForcedPad reports whether req.Shape can be made free by shoving the
// traces and vias in its way. The board is not changed.
func (s *Shover) CheckForcedPad(req PadRequest) DrillVerdict {
	b := s.board
	if !b.InsideBounds(req.Shape) {
		b.SetFailingObstacle(board.OutlineID, req.Layer)
		return NotDrillable
	}
	entries := newShapeTraceEntries(b, req.Shape, req.Layer, req.Nets, req.ClearanceClass, req.From)
	obstacles := withoutIgnored(b.OverlappingItemsWithClearance(req.Shape, req.Layer, nil, req.ClearanceClass), req.Ignore)
	if !entries.storeItems(obstacles, true, req.CopperSharing) {
		s.fail(entries.found, req.Layer)
		return NotDrillable
	}
	for _, via := range entries.shoveVias {
		if req.ViaDepth <= 0 {
			s.fail(via, req.Layer)
			return NotDrillable
		}
		points := s.TryShoveViaPoints(req.Shape, req.Layer, via, req.ClearanceClass, false)
		if len(points) == 0 {
			s.fail(via, req.Layer)
			return NotDrillable
		}
		if !s.CheckMoveDrill(via, points[0].Sub(via.Center()), req.Depth, req.ViaDepth-1, req.Ignore, req.TimeLimit) {
			return NotDrillable
		}
	}
	verdict := Drillable
	if req.CopperSharing {
		for _, it := range obstacles {
			if it.Kind() == item.KindPin {
				verdict = DrillableWithAttachSmd
				break
			}
		}
	}
	if entries.pieceCount == 0 {
		return verdict
	}
	if req.Depth <= 0 || entries.stackDepth() > 1 {
		s.fail(entries.found, req.Layer)
		return NotDrillable
	}
	orthogonal := req.Shape.Kind() == geometry.KindBox
	for piece := entries.nextSubstitutePiece(); piece != nil; piece = entries.nextSubstitutePiece() {
		poly := piece.Polyline()
		for i := 0; i < poly.SegmentCount(); i++ {
			seg := poly.Segment(i)
			if req.CheckOnlyFront && !inFrontOfPad(seg, req.Shape, req.From.No, piece.HalfWidth(), true) {
				continue
			}
			tile, from := shapeAndFromSide(piece, i, orthogonal, true)
			ok := s.checkShoveTrace(traceShove{
				shape:      tile,
				from:       from,
				dir:        seg.Direction(),
				layer:      req.Layer,
				nets:       piece.Nets(),
				clClass:    piece.ClearanceClass(),
				depth:      req.Depth - 1,
				viaDepth:   req.ViaDepth,
				springOver: 0,
				timeLimit:  req.TimeLimit,
			})
			if !ok {
				return NotDrillable
			}
		}
	}
	return verdict
}

// ForcedPad makes req.Shape free by moving vias away and routing the traces
// in its way around it. It returns false if this is impossible; the board
// may then be partly changed, except when the crossing traces are nested,
// which fails before anything moves.
func (s *Shover) ForcedPad(req PadRequest) bool {
	b := s.board
	if req.Shape.IsEmpty() {
		return true
	}
	if !b.InsideBounds(req.Shape) {
		b.SetFailingObstacle(board.OutlineID, req.Layer)
		return false
	}
	if s.nestedTraces(req) {
		return false
	}
	if !s.ShoveVias(req.Shape, req.From, req.Layer, req.Nets, req.ClearanceClass, req.Ignore, req.Depth, req.ViaDepth, false) {
		return false
	}
	entries := newShapeTraceEntries(b, req.Shape, req.Layer, req.Nets, req.ClearanceClass, req.From)
	obstacles := withoutIgnored(b.OverlappingItemsWithClearance(req.Shape, req.Layer, nil, req.ClearanceClass), req.Ignore)
	if !entries.storeItems(obstacles, true, req.CopperSharing) {
		s.fail(entries.found, req.Layer)
		return false
	}
	if len(entries.shoveVias) > 0 {
		s.fail(entries.shoveVias[0], req.Layer)
		return false
	}
	if entries.pieceCount == 0 {
		return true
	}
	if req.Depth <= 0 || entries.stackDepth() > 1 {
		s.fail(entries.found, req.Layer)
		return false
	}
	tailsBefore := b.ContainsTraceTails(obstacles, req.Nets)
	entries.cutoutTraces(obstacles)
	orthogonal := req.Shape.Kind() == geometry.KindBox
	for piece := entries.nextSubstitutePiece(); piece != nil; piece = entries.nextSubstitutePiece() {
		if !s.placeSubstitute(piece, orthogonal, req.Depth, req.ViaDepth, 0, tailsBefore) {
			return false
		}
	}
	return true
}

// nestedTraces reports whether the traces crossing req.Shape are stacked
// more than one level deep, which no substitute routing can resolve.
func (s *Shover) nestedTraces(req PadRequest) bool {
	entries := newShapeTraceEntries(s.board, req.Shape, req.Layer, req.Nets, req.ClearanceClass, req.From)
	obstacles := withoutIgnored(s.board.OverlappingItemsWithClearance(req.Shape, req.Layer, nil, req.ClearanceClass), req.Ignore)
	if !entries.storeItems(obstacles, true, req.CopperSharing) || entries.stackDepth() <= 1 {
		return false
	}
	s.fail(entries.found, req.Layer)
	return true
}

// placeSubstitute shoves the obstacles of piece aside and inserts it.
func (s *Shover) placeSubstitute(piece *item.Trace, orthogonal bool, depth, viaDepth, springOver int, tailsBefore bool) bool {
	poly := piece.Polyline()
	if poly.FirstCorner().Equal(poly.LastCorner()) {
		return true
	}
	for i := 0; i < poly.SegmentCount(); i++ {
		tile, from := shapeAndFromSide(piece, i, orthogonal, false)
		ok := s.insertShoveTrace(traceShove{
			shape:      tile,
			from:       from,
			layer:      piece.Layer(),
			nets:       piece.Nets(),
			clClass:    piece.ClearanceClass(),
			depth:      depth - 1,
			viaDepth:   viaDepth,
			springOver: springOver,
		})
		if !ok {
			return false
		}
	}
	s.joinChanged(poly, piece.Layer())
	placed := s.board.Insert(piece).(*item.Trace)
	s.board.NormalizeTrace(placed)
	if !tailsBefore {
		s.removeNewTails(placed, placed.Nets())
	}
	return true
}

// calcFromSide returns the first edge of shape enlarged by offset which can
// be reached from center by a thin trace without obstacles, first with
// clearance class clClass and then without clearance.
func (s *Shover) calcFromSide(shape geometry.TileShape, center geometry.Point2D, layer int, offset float64, clClass int) FromSide {
	off := shape.Offset(offset)
	for _, cl := range []int{clClass, 0} {
		for i := 0; i < off.BorderLineCount(); i++ {
			proj := off.ProjectOnBorderLine(center, i)
			if proj.Equal(center) {
				continue
			}
			check := geometry.SegmentTile(center, proj, 1)
			if s.board.CheckTraceShape(check, layer, nil, cl, nil) {
				return FromEdge(i)
			}
		}
		if cl == 0 {
			break
		}
	}
	return Unknown()
}

// inFrontOfPad reports whether seg, widened by width, lies in front of the
// pad as seen from edge fromNo. Only octagon and box pads are evaluated;
// other shapes always count as in front.
func inFrontOfPad(seg geometry.Segment, pad geometry.TileShape, fromNo int, width float64, withSides bool) bool {
	if fromNo < 0 {
		return true
	}
	var f int
	switch pad.Kind() {
	case geometry.KindOctagon:
		f = fromNo
	case geometry.KindBox:
		f = 2 * fromNo
	default:
		return true
	}
	oct := pad.BoundingOctagon()
	beyond := func(p geometry.Point2D, k int) bool {
		return oct.BorderDistance(p, k%8) <= -width
	}
	both := func(k int) bool { return beyond(seg.A, k) && beyond(seg.B, k) }
	one := func(k int) bool { return beyond(seg.A, k) || beyond(seg.B, k) }
	if both(f+3) || both(f+4) || both(f+5) {
		return true
	}
	if !withSides {
		return false
	}
	return (both(f+6) && one(f+5)) || (both(f+2) && one(f+3))
}
