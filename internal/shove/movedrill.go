package shove

import (
	"math"
	"sort"

	"pcb-router/internal/item"
	"pcb-router/internal/rules"
	"pcb-router/pkg/geometry"
)

// CheckMoveDrill reports whether d can be moved by delta, shoving the items
// at the new place aside. Drills with contacts other than traces and
// conduction areas cannot be moved.
func (s *Shover) CheckMoveDrill(d item.DrillItem, delta geometry.Point2D, depth, viaDepth int, ignore ignoreSet, tl *TimeLimit) bool {
	if tl.Exceeded() {
		return false
	}
	if item.IsShoveFixed(d) {
		s.fail(d, d.FirstLayer())
		return false
	}
	for _, c := range s.board.DrillContacts(d) {
		if k := c.Kind(); k != item.KindTrace && k != item.KindConductionArea {
			s.fail(d, d.FirstLayer())
			return false
		}
	}
	ignore = ignore.with(d)
	attach := false
	if v, ok := d.(*item.Via); ok {
		attach = v.AttachAllowed()
	}
	for layer := d.FirstLayer(); layer <= d.LastLayer(); layer++ {
		shape := d.ShapeOn(layer)
		if shape.IsEmpty() {
			continue
		}
		tile := s.restrictTile(shape.Translate(delta))
		verdict := s.CheckForcedPad(PadRequest{
			Shape:          tile,
			From:           FromSideOfPoint(d.Center(), tile),
			Layer:          layer,
			Nets:           d.Nets(),
			ClearanceClass: d.ClearanceClass(),
			CopperSharing:  attach,
			Ignore:         ignore,
			Depth:          depth,
			ViaDepth:       viaDepth,
			CheckOnlyFront: true,
			TimeLimit:      tl,
		})
		if verdict == NotDrillable {
			return false
		}
	}
	return true
}

// MoveDrill moves d by delta after forcing its pads in at the new place.
// The traces ending at d are reconnected to the new center.
func (s *Shover) MoveDrill(d item.DrillItem, delta geometry.Point2D, depth, viaDepth int) bool {
	if item.IsShoveFixed(d) {
		s.fail(d, d.FirstLayer())
		return false
	}
	ignore := ignoreSet{}.with(d)
	attach := false
	if v, ok := d.(*item.Via); ok {
		attach = v.AttachAllowed()
	}
	for layer := d.FirstLayer(); layer <= d.LastLayer(); layer++ {
		shape := d.ShapeOn(layer)
		if shape.IsEmpty() {
			continue
		}
		tile := s.restrictTile(shape.Translate(delta))
		ok := s.ForcedPad(PadRequest{
			Shape:          tile,
			From:           FromSideOfPoint(d.Center(), tile),
			Layer:          layer,
			Nets:           d.Nets(),
			ClearanceClass: d.ClearanceClass(),
			CopperSharing:  attach,
			Ignore:         ignore,
			Depth:          depth,
			ViaDepth:       viaDepth,
		})
		if !ok {
			return false
		}
		for _, c := range shape.Corners() {
			s.board.JoinChangedArea(c, layer)
		}
	}
	cur, ok := s.board.Item(d.ID()).(item.DrillItem)
	if !ok {
		return false
	}
	s.moveDrill(cur, delta)
	return true
}

// connectorKey groups the traces at a drill that get one shared connector.
type connectorKey struct {
	layer     int
	halfWidth float64
	clClass   int
}

// moveDrill translates d and connects its old center to the new one with
// one trace per layer, width and clearance class of the traces ending at d.
func (s *Shover) moveDrill(d item.DrillItem, delta geometry.Point2D) {
	seen := make(map[connectorKey]bool)
	var keys []connectorKey
	for _, c := range s.board.DrillContacts(d) {
		t, ok := c.(*item.Trace)
		if !ok {
			continue
		}
		k := connectorKey{t.Layer(), t.HalfWidth(), t.ClearanceClass()}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.layer != b.layer {
			return a.layer < b.layer
		}
		if a.halfWidth != b.halfWidth {
			return a.halfWidth < b.halfWidth
		}
		return a.clClass < b.clClass
	})

	oldCenter := d.Center()
	s.board.Insert(d.MovedBy(delta))
	poly := s.connector(oldCenter, oldCenter.Add(delta))
	if poly.IsEmpty() {
		return
	}
	for _, k := range keys {
		if conn := s.board.InsertTrace(poly, k.layer, k.halfWidth, d.Nets(), k.clClass, item.Unfixed); conn != nil {
			s.joinChanged(poly, k.layer)
			s.board.NormalizeTrace(conn)
		}
	}
}

// connector returns a trace line from a to b obeying the angle restriction,
// with at most one bend.
func (s *Shover) connector(a, b geometry.Point2D) geometry.Polyline {
	d := b.Sub(a)
	switch s.angle() {
	case rules.Angle90:
		if !geometry.IsOrthogonal(d) {
			return geometry.NewPolyline(a, geometry.Point2D{X: b.X, Y: a.Y}, b)
		}
	case rules.Angle45:
		if !geometry.IsMultipleOf45(d) {
			m := math.Min(math.Abs(d.X), math.Abs(d.Y))
			bend := a.Add(geometry.Point2D{X: math.Copysign(m, d.X), Y: math.Copysign(m, d.Y)})
			return geometry.NewPolyline(a, bend, b)
		}
	}
	return geometry.NewPolyline(a, b)
}

// ShoveVias moves the foreign vias in shape out of it. It reports false
// only if a via move was started and failed; vias without a free place are
// left for the caller to fail on.
func (s *Shover) ShoveVias(shape geometry.TileShape, from FromSide, layer int, nets []int, clClass int, ignore ignoreSet, depth, viaDepth int, copperSharing bool) bool {
	b := s.board
	entries := newShapeTraceEntries(b, shape, layer, nets, clClass, from)
	obstacles := b.OverlappingItemsWithClearance(shape, layer, nil, clClass)
	if !entries.storeItems(obstacles, false, copperSharing) {
		return true
	}
	shapeRadius := 0.5 * math.Min(shape.Bounds().Width, shape.Bounds().Height)
	for _, via := range entries.shoveVias {
		if ignore[via.ID()] || item.SharesNet(via, nets) {
			continue
		}
		if viaDepth <= 0 {
			return true
		}
		radius := 0.5*maxWidth(via.ShapeOn(layer)) + shapeRadius
		var target *geometry.Point2D
		for i, p := range s.TryShoveViaPoints(shape, layer, via, clClass, true) {
			if i > 0 && p.DistanceSquare(via.Center()) > radius*radius {
				continue
			}
			if s.CheckMoveDrill(via, p.Sub(via.Center()), depth, viaDepth-1, ignore, nil) {
				target = &p
				break
			}
		}
		if target == nil {
			continue
		}
		cur, ok := b.Item(via.ID()).(*item.Via)
		if !ok {
			continue
		}
		if !s.MoveDrill(cur, target.Sub(cur.Center()), depth, viaDepth-1) {
			return false
		}
	}
	return true
}

// TryShoveViaPoints returns the new via centers that take via out of shape
// with clearance, nearest first. extended returns more than one candidate.
func (s *Shover) TryShoveViaPoints(shape geometry.TileShape, layer int, via *item.Via, clClass int, extended bool) []geometry.Point2D {
	viaShape := via.ShapeOn(layer)
	if viaShape.IsEmpty() {
		return nil
	}
	cl := s.board.Clearance(clClass, via.ClearanceClass(), layer)
	isOctagon := shape.Kind() == geometry.KindOctagon
	center := via.Center()
	switch {
	case s.angle() == rules.Angle90:
		count := 1
		if extended {
			count = 2
		}
		dist := 0.5*maxWidth(viaShape) + cl + 2
		return shape.BoundingBox().Offset(dist).NearestBorderProjections(center, count)
	case isOctagon:
		count := 1
		if extended {
			count = 4
		}
		dist := 0.5*maxWidth(viaShape) + cl + 2
		return shape.BoundingOctagon().Offset(dist).NearestBorderProjections(center, count)
	default:
		dist := 0.5*cl + 2
		count := 1
		if extended {
			count = 4
		}
		deltas := outsideDeltas(shape.Offset(dist), viaShape.Offset(0.5*cl), count)
		out := make([]geometry.Point2D, len(deltas))
		for i, d := range deltas {
			out[i] = center.Add(d)
		}
		return out
	}
}

// outsideDeltas returns the shortest moves along the edge normals of shape
// which put moving completely outside of it, nearest first.
func outsideDeltas(shape, moving geometry.TileShape, count int) []geometry.Point2D {
	type candidate struct {
		d    geometry.Point2D
		dist float64
	}
	var cands []candidate
	corners := moving.Corners()
	for i := 0; i < shape.BorderLineCount(); i++ {
		n := shape.Normal(i)
		if n.Length() < geometry.Epsilon {
			continue
		}
		lo := math.Inf(1)
		for _, c := range corners {
			lo = math.Min(lo, n.Dot(c))
		}
		edgeOff := n.Dot(shape.Corner(i))
		dist := edgeOff - lo
		if dist < 0 {
			dist = 0
		}
		cands = append(cands, candidate{n.Scale(dist), dist})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	if count > len(cands) {
		count = len(cands)
	}
	out := make([]geometry.Point2D, count)
	for i := range out {
		out[i] = cands[i].d
	}
	return out
}

func maxWidth(s geometry.TileShape) float64 {
	r := s.Bounds()
	return math.Max(r.Width, r.Height)
}
