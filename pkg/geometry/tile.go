package geometry

import (
	"fmt"
	"math"
	"sort"
)

// ShapeKind tells how the border lines of a TileShape are oriented.
type ShapeKind int

const (
	// KindSimplex is a convex polygon with arbitrary edge directions.
	KindSimplex ShapeKind = iota
	// KindBox is an axis-parallel rectangle. Edges: 0 bottom, 1 right, 2 top, 3 left.
	KindBox
	// KindOctagon has edge normals in 45 degree steps starting with the
	// bottom edge and continuing counter-clockwise. Edges may be degenerate.
	KindOctagon
)

func (k ShapeKind) String() string {
	switch k {
	case KindSimplex:
		return "simplex"
	case KindBox:
		return "box"
	case KindOctagon:
		return "octagon"
	default:
		return "unknown"
	}
}

var (
	boxNormals = []Point2D{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

	octNormals = func() []Point2D {
		s := math.Sqrt2 / 2
		return []Point2D{{0, -1}, {s, -s}, {1, 0}, {s, s}, {0, 1}, {-s, s}, {-1, 0}, {-s, -s}}
	}()

	tan22 = math.Tan(math.Pi / 8)
)

// TileShape is a convex polygon described by its border lines in
// counter-clockwise order. Edge i runs from corner i to corner i+1 and lies
// on the line n[i]·x = offset[i] with outward unit normal n[i].
// TileShape values are immutable.
type TileShape struct {
	kind    ShapeKind
	normals []Point2D
	offsets []float64
	corners []Point2D
}

// NewBox returns the box shape of r.
func NewBox(r Rect) TileShape {
	if r.IsEmpty() {
		return TileShape{}
	}
	return fromLines(KindBox, boxNormals, []float64{-r.Y, r.MaxX(), r.MaxY(), -r.X})
}

// NewOctagon returns the octagon bounded by the given line offsets, indexed
// like the edges. Offsets that do not touch the resulting polygon are tightened.
func NewOctagon(offsets [8]float64) TileShape {
	poly := NewBox(NewRect(-offsets[6], -offsets[0], offsets[2]+offsets[6], offsets[4]+offsets[0])).corners
	if len(poly) == 0 {
		return TileShape{}
	}
	for i, n := range octNormals {
		poly = clipHalfPlane(poly, n, offsets[i])
		if len(poly) < 3 {
			return TileShape{}
		}
	}
	return tightOctagon(poly)
}

// RegularOctagon returns the regular octagon circumscribing the circle of
// radius r around center.
func RegularOctagon(center Point2D, r float64) TileShape {
	offs := make([]float64, 8)
	for i, n := range octNormals {
		offs[i] = n.Dot(center) + r
	}
	return fromLines(KindOctagon, octNormals, offs)
}

// OctagonCorners returns the corners of the regular octagon with apothem r.
func OctagonCorners(center Point2D, r float64) []Point2D {
	a := r * tan22
	return []Point2D{
		{center.X - a, center.Y - r}, {center.X + a, center.Y - r},
		{center.X + r, center.Y - a}, {center.X + r, center.Y + a},
		{center.X + a, center.Y + r}, {center.X - a, center.Y + r},
		{center.X - r, center.Y + a}, {center.X - r, center.Y - a},
	}
}

// NewSimplex builds a shape from the corners of a convex polygon. Duplicate
// and collinear corners are removed and clockwise input is reversed.
func NewSimplex(points []Point2D) TileShape {
	pts := cleanPolygon(points)
	if len(pts) < 3 {
		return TileShape{}
	}
	if SignedArea(pts) < 0 {
		reversePoints(pts)
	}
	n := len(pts)
	normals := make([]Point2D, n)
	offsets := make([]float64, n)
	for i := range pts {
		d := pts[(i+1)%n].Sub(pts[i])
		normals[i] = Point2D{X: d.Y, Y: -d.X}.Unit()
		offsets[i] = normals[i].Dot(pts[i])
	}
	return TileShape{kind: KindSimplex, normals: normals, offsets: offsets, corners: pts}
}

// ConvexHullShape returns the convex hull of points as a simplex.
func ConvexHullShape(points []Point2D) TileShape {
	return NewSimplex(ConvexHull(points))
}

// SegmentTile returns the shape covered by a pen of half width hw moving
// from a to b: the convex hull of two regular octagons.
func SegmentTile(a, b Point2D, hw float64) TileShape {
	pts := append(OctagonCorners(a, hw), OctagonCorners(b, hw)...)
	if IsMultipleOf45(b.Sub(a)) {
		return tightOctagon(pts)
	}
	return ConvexHullShape(pts)
}

func fromLines(kind ShapeKind, normals []Point2D, offsets []float64) TileShape {
	n := len(normals)
	corners := make([]Point2D, n)
	for i := 0; i < n; i++ {
		prev := (i + n - 1) % n
		c, ok := intersectLines(normals[prev], offsets[prev], normals[i], offsets[i])
		if !ok {
			return TileShape{}
		}
		corners[i] = c
	}
	ns := make([]Point2D, n)
	copy(ns, normals)
	offs := make([]float64, n)
	copy(offs, offsets)
	return TileShape{kind: kind, normals: ns, offsets: offs, corners: corners}
}

func tightOctagon(poly []Point2D) TileShape {
	offs := make([]float64, 8)
	for i, n := range octNormals {
		offs[i] = math.Inf(-1)
		for _, c := range poly {
			offs[i] = math.Max(offs[i], n.Dot(c))
		}
	}
	return fromLines(KindOctagon, octNormals, offs)
}

func intersectLines(n1 Point2D, o1 float64, n2 Point2D, o2 float64) (Point2D, bool) {
	det := n1.X*n2.Y - n1.Y*n2.X
	if math.Abs(det) < 1e-12 {
		return Point2D{}, false
	}
	return Point2D{
		X: (o1*n2.Y - n1.Y*o2) / det,
		Y: (n1.X*o2 - o1*n2.X) / det,
	}, true
}

// Kind returns the border orientation class of the shape.
func (s TileShape) Kind() ShapeKind { return s.kind }

// IsEmpty reports whether the shape has no area.
func (s TileShape) IsEmpty() bool { return len(s.corners) < 3 }

// BorderLineCount returns the number of edges.
func (s TileShape) BorderLineCount() int { return len(s.corners) }

// Corner returns corner i, taken modulo the corner count.
func (s TileShape) Corner(i int) Point2D {
	n := len(s.corners)
	return s.corners[((i%n)+n)%n]
}

// Corners returns a copy of the corners in counter-clockwise order.
func (s TileShape) Corners() []Point2D {
	out := make([]Point2D, len(s.corners))
	copy(out, s.corners)
	return out
}

// Normal returns the outward unit normal of edge i.
func (s TileShape) Normal(i int) Point2D {
	n := len(s.normals)
	return s.normals[((i%n)+n)%n]
}

// Edge returns edge i as a segment from corner i to corner i+1.
func (s TileShape) Edge(i int) Segment {
	return Segment{A: s.Corner(i), B: s.Corner(i + 1)}
}

// BorderLine returns two distinct points on the line of edge i, oriented
// counter-clockwise around the shape. Degenerate edges still yield a line.
func (s TileShape) BorderLine(i int) (Point2D, Point2D) {
	c := s.Corner(i)
	return c, c.Add(s.Normal(i).Perp())
}

func (s TileShape) edgeDegenerate(i int) bool {
	if i < 0 {
		return true
	}
	return s.Edge(i).Length() < Epsilon
}

// BorderDistance returns the signed distance of p from the line of edge i,
// positive on the inner side.
func (s TileShape) BorderDistance(p Point2D, i int) float64 {
	n := len(s.normals)
	i = ((i % n) + n) % n
	return s.offsets[i] - s.normals[i].Dot(p)
}

// Offset returns the shape with every border line moved outward by d.
// The kind and the edge numbering are preserved.
func (s TileShape) Offset(d float64) TileShape {
	if s.IsEmpty() || d == 0 {
		return s
	}
	offs := make([]float64, len(s.offsets))
	for i, o := range s.offsets {
		offs[i] = o + d
	}
	if d < 0 && s.kind == KindOctagon {
		return NewOctagon([8]float64(offs))
	}
	return fromLines(s.kind, s.normals, offs)
}

// Translate returns the shape moved by v.
func (s TileShape) Translate(v Point2D) TileShape {
	if s.IsEmpty() {
		return s
	}
	out := TileShape{
		kind:    s.kind,
		normals: s.normals,
		offsets: make([]float64, len(s.offsets)),
		corners: make([]Point2D, len(s.corners)),
	}
	for i := range s.offsets {
		out.offsets[i] = s.offsets[i] + s.normals[i].Dot(v)
		out.corners[i] = s.corners[i].Add(v)
	}
	return out
}

// Bounds returns the axis-parallel bounding rectangle.
func (s TileShape) Bounds() Rect {
	return BoundingBox(s.corners)
}

// BoundingBox returns the bounding rectangle as a box shape.
func (s TileShape) BoundingBox() TileShape {
	if s.IsEmpty() {
		return s
	}
	return NewBox(s.Bounds())
}

// BoundingOctagon returns the smallest octagon containing the shape.
func (s TileShape) BoundingOctagon() TileShape {
	if s.IsEmpty() || s.kind == KindOctagon {
		return s
	}
	return tightOctagon(s.corners)
}

// Union returns the convex hull of both shapes.
func (s TileShape) Union(other TileShape) TileShape {
	if s.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return s
	}
	return ConvexHullShape(append(s.Corners(), other.corners...))
}

// Center returns the average of the corners.
func (s TileShape) Center() Point2D {
	return Centroid(dedupe(s.corners))
}

// Area returns the area of the shape.
func (s TileShape) Area() float64 {
	return math.Abs(SignedArea(s.corners))
}

// SmallestRadius returns the distance from the center to the nearest border line.
func (s TileShape) SmallestRadius() float64 {
	if s.IsEmpty() {
		return 0
	}
	c := s.Center()
	r := math.Inf(1)
	for i := range s.normals {
		r = math.Min(r, s.BorderDistance(c, i))
	}
	return r
}

// Contains reports whether p lies inside the shape or on its border.
func (s TileShape) Contains(p Point2D) bool {
	if s.IsEmpty() {
		return false
	}
	for i, n := range s.normals {
		if n.Dot(p) > s.offsets[i]+Epsilon {
			return false
		}
	}
	return true
}

// ContainsInside reports whether p lies strictly inside the shape.
func (s TileShape) ContainsInside(p Point2D) bool {
	if s.IsEmpty() {
		return false
	}
	for i, n := range s.normals {
		if n.Dot(p) >= s.offsets[i]-Epsilon {
			return false
		}
	}
	return true
}

// IsOutside reports whether p lies strictly outside the shape.
func (s TileShape) IsOutside(p Point2D) bool {
	return !s.Contains(p)
}

// ContainsShape reports whether other lies completely inside s.
func (s TileShape) ContainsShape(other TileShape) bool {
	for _, c := range other.corners {
		if !s.Contains(c) {
			return false
		}
	}
	return !other.IsEmpty()
}

// ContainsOnBorderLine returns the number of an edge whose line contains p,
// or -1. Non-degenerate edges are preferred.
func (s TileShape) ContainsOnBorderLine(p Point2D) int {
	if !s.Contains(p) {
		return -1
	}
	result := -1
	for i := range s.normals {
		if math.Abs(s.BorderDistance(p, i)) <= Epsilon*10 {
			if result < 0 || (s.edgeDegenerate(result) && !s.edgeDegenerate(i)) {
				result = i
			}
		}
	}
	return result
}

func (s TileShape) support(n Point2D) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, c := range s.corners {
		v := n.Dot(c)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// Overlaps reports whether both shapes share an area of positive size.
// Shapes that only touch along their borders do not overlap.
func (s TileShape) Overlaps(other TileShape) bool {
	if s.IsEmpty() || other.IsEmpty() {
		return false
	}
	if !s.Bounds().Enlarge(Epsilon).Intersects(other.Bounds()) {
		return false
	}
	for _, shape := range []TileShape{s, other} {
		for _, n := range shape.normals {
			lo1, hi1 := s.support(n)
			lo2, hi2 := other.support(n)
			if hi1 <= lo2+Epsilon || hi2 <= lo1+Epsilon {
				return false
			}
		}
	}
	return true
}

// Intersection returns the common part of two shapes as a simplex.
func (s TileShape) Intersection(other TileShape) TileShape {
	if s.IsEmpty() || other.IsEmpty() {
		return TileShape{}
	}
	return NewSimplex(IntersectPolygons(dedupe(s.corners), dedupe(other.corners)))
}

// NearestBorderPoint returns the point on the border nearest to p and the
// number of the edge containing it.
func (s TileShape) NearestBorderPoint(p Point2D) (Point2D, int) {
	best := -1
	var bestPoint Point2D
	bestDist := math.Inf(1)
	for i := range s.corners {
		q := s.Edge(i).NearestPoint(p)
		d := q.Distance(p)
		if d < bestDist-Epsilon || (d <= bestDist+Epsilon && s.edgeDegenerate(best) && !s.edgeDegenerate(i)) {
			best, bestPoint, bestDist = i, q, d
		}
	}
	return bestPoint, best
}

// Equal reports whether both shapes have the same kind and corners.
func (s TileShape) Equal(other TileShape) bool {
	if s.kind != other.kind || len(s.corners) != len(other.corners) {
		return false
	}
	for i := range s.corners {
		if !s.corners[i].Equal(other.corners[i]) {
			return false
		}
	}
	return true
}

func (s TileShape) String() string {
	return fmt.Sprintf("%s%v", s.kind, s.corners)
}

// Crossing is a point where a polyline crosses the border of a shape.
type Crossing struct {
	Segment  int     // segment of the polyline
	Edge     int     // border edge of the shape
	Point    Point2D // crossing point
	Entering bool    // true if the polyline enters the interior here
}

// clipSegment returns the parameter interval of the segment a→b inside the
// shape together with the edges bounding it (-1 if unbounded).
func (s TileShape) clipSegment(a, b Point2D) (tIn, tOut float64, eIn, eOut int, ok bool) {
	const tieTol = 1e-9
	d := b.Sub(a)
	tIn, tOut = math.Inf(-1), math.Inf(1)
	eIn, eOut = -1, -1
	for i, n := range s.normals {
		num := s.offsets[i] - n.Dot(a)
		den := n.Dot(d)
		if math.Abs(den) < 1e-12 {
			if num < -Epsilon {
				return 0, 0, -1, -1, false
			}
			continue
		}
		t := num / den
		if den < 0 {
			if t > tIn+tieTol || (t > tIn-tieTol && s.edgeDegenerate(eIn) && !s.edgeDegenerate(i)) {
				tIn, eIn = t, i
			}
		} else {
			if t < tOut-tieTol || (t < tOut+tieTol && s.edgeDegenerate(eOut) && !s.edgeDegenerate(i)) {
				tOut, eOut = t, i
			}
		}
	}
	return tIn, tOut, eIn, eOut, true
}

// EntrancePoints returns the points where p enters or leaves the interior of
// the shape, in the order of the polyline.
func (s TileShape) EntrancePoints(p Polyline) []Crossing {
	const tTol = 1e-9
	if s.IsEmpty() {
		return nil
	}
	var result []Crossing
	for seg := 0; seg < p.SegmentCount(); seg++ {
		a, b := p.Corners[seg], p.Corners[seg+1]
		length := a.Distance(b)
		if length < Epsilon {
			continue
		}
		tIn, tOut, eIn, eOut, ok := s.clipSegment(a, b)
		if !ok {
			continue
		}
		lo, hi := math.Max(tIn, 0), math.Min(tOut, 1)
		if (hi-lo)*length <= Epsilon {
			continue
		}
		d := b.Sub(a)
		if eIn >= 0 && tIn >= -tTol {
			result = appendCrossing(result, Crossing{Segment: seg, Edge: eIn, Point: a.Add(d.Scale(math.Max(tIn, 0))), Entering: true})
		}
		if eOut >= 0 && tOut <= 1+tTol {
			result = appendCrossing(result, Crossing{Segment: seg, Edge: eOut, Point: a.Add(d.Scale(math.Min(tOut, 1))), Entering: false})
		}
	}
	return result
}

func appendCrossing(list []Crossing, c Crossing) []Crossing {
	if n := len(list); n > 0 && list[n-1].Segment == c.Segment && list[n-1].Edge == c.Edge &&
		list[n-1].Point.Equal(c.Point) {
		return list
	}
	return append(list, c)
}

// Cutout removes the parts of p in the interior of the shape and returns
// the remaining pieces in polyline order.
func (s TileShape) Cutout(p Polyline) []Polyline {
	crossings := s.EntrancePoints(p)
	firstInside := s.ContainsInside(p.FirstCorner())
	if len(crossings) == 0 {
		if firstInside {
			return nil
		}
		return []Polyline{p}
	}
	var pieces []Polyline
	add := func(corners []Point2D) {
		piece := NewPolyline(corners...)
		if !piece.IsEmpty() {
			pieces = append(pieces, piece)
		}
	}
	idx := 0
	if !firstInside {
		c := crossings[0]
		if !p.FirstCorner().Equal(c.Point) {
			corners := append(append([]Point2D{}, p.Corners[:c.Segment+1]...), c.Point)
			add(corners)
		}
		idx++
	}
	for idx < len(crossings)-1 {
		cur, next := crossings[idx], crossings[idx+1]
		outside := false
		for i := cur.Segment + 1; i <= next.Segment; i++ {
			if s.IsOutside(p.Corners[i]) {
				outside = true
				break
			}
		}
		if outside {
			corners := []Point2D{cur.Point}
			corners = append(corners, p.Corners[cur.Segment+1:next.Segment+1]...)
			add(append(corners, next.Point))
		}
		idx += 2
	}
	if idx <= len(crossings)-1 {
		c := crossings[idx]
		corners := append([]Point2D{c.Point}, p.Corners[c.Segment+1:]...)
		add(corners)
	}
	return pieces
}

// CutOff returns the part of the shape with n·x <= offset as a simplex.
// n must be a unit vector.
func (s TileShape) CutOff(n Point2D, offset float64) TileShape {
	if s.IsEmpty() {
		return s
	}
	return NewSimplex(clipHalfPlane(dedupe(s.corners), n, offset))
}

// EdgeOnLine returns the edge lying on the line n·x = offset with outward
// normal n, or -1.
func (s TileShape) EdgeOnLine(n Point2D, offset float64) int {
	for i := range s.normals {
		if s.normals[i].Equal(n) && math.Abs(s.offsets[i]-offset) <= Epsilon*10 {
			return i
		}
	}
	return -1
}

// ProjectOnBorderLine returns the perpendicular projection of p onto the
// line of edge i.
func (s TileShape) ProjectOnBorderLine(p Point2D, i int) Point2D {
	return p.Add(s.Normal(i).Scale(s.BorderDistance(p, i)))
}

// NearestBorderProjections returns up to count projections of p onto the
// border lines, nearest first.
func (s TileShape) NearestBorderProjections(p Point2D, count int) []Point2D {
	type candidate struct {
		p    Point2D
		dist float64
	}
	var cands []candidate
	for i := range s.normals {
		if s.edgeDegenerate(i) {
			continue
		}
		q := s.ProjectOnBorderLine(p, i)
		cands = append(cands, candidate{q, q.DistanceSquare(p)})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	if count > len(cands) {
		count = len(cands)
	}
	out := make([]Point2D, count)
	for i := range out {
		out[i] = cands[i].p
	}
	return out
}
