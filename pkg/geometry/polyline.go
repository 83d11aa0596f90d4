package geometry

// Polyline is a sequence of corners joined by straight segments.
type Polyline struct {
	Corners []Point2D `json:"corners" yaml:"corners"`
}

// NewPolyline creates a polyline, dropping consecutive duplicate corners.
func NewPolyline(corners ...Point2D) Polyline {
	out := make([]Point2D, 0, len(corners))
	for _, c := range corners {
		if len(out) > 0 && out[len(out)-1].Equal(c) {
			continue
		}
		out = append(out, c)
	}
	return Polyline{Corners: out}
}

// IsEmpty reports whether the polyline has no segment.
func (p Polyline) IsEmpty() bool { return len(p.Corners) < 2 }

// SegmentCount returns the number of segments.
func (p Polyline) SegmentCount() int {
	if len(p.Corners) < 2 {
		return 0
	}
	return len(p.Corners) - 1
}

// Segment returns segment i from corner i to corner i+1.
func (p Polyline) Segment(i int) Segment {
	return Segment{A: p.Corners[i], B: p.Corners[i+1]}
}

// FirstCorner returns the start point.
func (p Polyline) FirstCorner() Point2D { return p.Corners[0] }

// LastCorner returns the end point.
func (p Polyline) LastCorner() Point2D { return p.Corners[len(p.Corners)-1] }

// Length returns the summed segment lengths.
func (p Polyline) Length() float64 {
	var l float64
	for i := 0; i < p.SegmentCount(); i++ {
		l += p.Segment(i).Length()
	}
	return l
}

// Bounds returns the bounding rectangle of the corners.
func (p Polyline) Bounds() Rect { return BoundingBox(p.Corners) }

// Reverse returns the polyline traversed from the last to the first corner.
func (p Polyline) Reverse() Polyline {
	out := make([]Point2D, len(p.Corners))
	for i, c := range p.Corners {
		out[len(out)-1-i] = c
	}
	return Polyline{Corners: out}
}

// Translate returns the polyline moved by v.
func (p Polyline) Translate(v Point2D) Polyline {
	out := make([]Point2D, len(p.Corners))
	for i, c := range p.Corners {
		out[i] = c.Add(v)
	}
	return Polyline{Corners: out}
}

// Combine appends other if it starts at the last corner of p.
func (p Polyline) Combine(other Polyline) (Polyline, bool) {
	if p.IsEmpty() || other.IsEmpty() || !p.LastCorner().Equal(other.FirstCorner()) {
		return p, false
	}
	corners := append(append([]Point2D{}, p.Corners...), other.Corners[1:]...)
	return NewPolyline(corners...).Simplify(), true
}

// Simplify removes corners where the polyline continues straight on.
func (p Polyline) Simplify() Polyline {
	if len(p.Corners) < 3 {
		return p
	}
	out := []Point2D{p.Corners[0]}
	for i := 1; i < len(p.Corners)-1; i++ {
		prev := out[len(out)-1]
		next := p.Corners[i+1]
		s := Segment{A: prev, B: next}
		if s.SideOf(p.Corners[i]) == Collinear && p.Corners[i].Sub(prev).Dot(next.Sub(p.Corners[i])) > 0 {
			continue
		}
		out = append(out, p.Corners[i])
	}
	out = append(out, p.LastCorner())
	return NewPolyline(out...)
}

// SplitAt divides the polyline at a point on segment i. Either piece may be
// empty if the point is an end corner.
func (p Polyline) SplitAt(i int, at Point2D) (Polyline, Polyline) {
	head := append(append([]Point2D{}, p.Corners[:i+1]...), at)
	tail := append([]Point2D{at}, p.Corners[i+1:]...)
	return NewPolyline(head...), NewPolyline(tail...)
}

// SegmentTiles returns the shapes covered by a pen of half width hw along
// every segment.
func (p Polyline) SegmentTiles(hw float64) []TileShape {
	tiles := make([]TileShape, 0, p.SegmentCount())
	for i := 0; i < p.SegmentCount(); i++ {
		s := p.Segment(i)
		tiles = append(tiles, SegmentTile(s.A, s.B, hw))
	}
	return tiles
}

// Equal reports whether both polylines have the same corners.
func (p Polyline) Equal(other Polyline) bool {
	if len(p.Corners) != len(other.Corners) {
		return false
	}
	for i := range p.Corners {
		if !p.Corners[i].Equal(other.Corners[i]) {
			return false
		}
	}
	return true
}
