package geometry

import "math"

// Side classifies a point relative to a directed line.
type Side int

const (
	OnTheLeft Side = iota
	OnTheRight
	Collinear
)

func (s Side) String() string {
	switch s {
	case OnTheLeft:
		return "left"
	case OnTheRight:
		return "right"
	case Collinear:
		return "collinear"
	default:
		return "unknown"
	}
}

// Segment is a directed line segment from A to B.
type Segment struct {
	A Point2D `json:"a"`
	B Point2D `json:"b"`
}

// NewSegment creates a segment from a to b.
func NewSegment(a, b Point2D) Segment {
	return Segment{A: a, B: b}
}

// Direction returns B - A.
func (s Segment) Direction() Point2D {
	return s.B.Sub(s.A)
}

// Length returns the length of the segment.
func (s Segment) Length() float64 {
	return s.A.Distance(s.B)
}

// IsDegenerate reports whether both ends coincide.
func (s Segment) IsDegenerate() bool {
	return s.A.Equal(s.B)
}

// Reverse returns the segment from B to A.
func (s Segment) Reverse() Segment {
	return Segment{A: s.B, B: s.A}
}

// SideOf returns on which side of the infinite line through s the point lies.
func (s Segment) SideOf(p Point2D) Side {
	d := s.Direction()
	c := d.Cross(p.Sub(s.A))
	tol := Epsilon * math.Max(1, d.Length())
	if c > tol {
		return OnTheLeft
	}
	if c < -tol {
		return OnTheRight
	}
	return Collinear
}

// Projection returns the orthogonal projection of p onto the infinite line through s.
func (s Segment) Projection(p Point2D) Point2D {
	d := s.Direction()
	l2 := d.Dot(d)
	if l2 == 0 {
		return s.A
	}
	t := p.Sub(s.A).Dot(d) / l2
	return s.A.Add(d.Scale(t))
}

// NearestPoint returns the point of the segment closest to p.
func (s Segment) NearestPoint(p Point2D) Point2D {
	d := s.Direction()
	l2 := d.Dot(d)
	if l2 == 0 {
		return s.A
	}
	t := p.Sub(s.A).Dot(d) / l2
	t = math.Max(0, math.Min(1, t))
	return s.A.Add(d.Scale(t))
}

// DistanceTo returns the distance from p to the segment.
func (s Segment) DistanceTo(p Point2D) float64 {
	return p.Distance(s.NearestPoint(p))
}

// LineIntersection computes the intersection point of the infinite lines
// through p1-p2 and e1-e2. Returns false for parallel lines.
func LineIntersection(p1, p2, e1, e2 Point2D) (Point2D, bool) {
	d1 := p2.Sub(p1)
	d2 := e2.Sub(e1)
	denom := d1.Cross(d2)
	if math.Abs(denom) < 1e-12*math.Max(1, d1.Length()*d2.Length()) {
		return Point2D{}, false
	}
	t := e1.Sub(p1).Cross(d2) / denom
	return p1.Add(d1.Scale(t)), true
}

// Intersects reports whether two segments share at least one point.
func (s Segment) Intersects(other Segment) bool {
	s1 := s.SideOf(other.A)
	s2 := s.SideOf(other.B)
	o1 := other.SideOf(s.A)
	o2 := other.SideOf(s.B)
	if s1 != s2 && o1 != o2 && s1 != Collinear && s2 != Collinear &&
		o1 != Collinear && o2 != Collinear {
		return true
	}
	if s1 == Collinear && s.containsCollinear(other.A) {
		return true
	}
	if s2 == Collinear && s.containsCollinear(other.B) {
		return true
	}
	if o1 == Collinear && other.containsCollinear(s.A) {
		return true
	}
	return o2 == Collinear && other.containsCollinear(s.B)
}

func (s Segment) containsCollinear(p Point2D) bool {
	return p.X >= math.Min(s.A.X, s.B.X)-Epsilon && p.X <= math.Max(s.A.X, s.B.X)+Epsilon &&
		p.Y >= math.Min(s.A.Y, s.B.Y)-Epsilon && p.Y <= math.Max(s.A.Y, s.B.Y)+Epsilon
}

// SameDirection reports whether two direction vectors point the same way.
func SameDirection(a, b Point2D) bool {
	if a.Length() == 0 || b.Length() == 0 {
		return false
	}
	return a.Unit().Equal(b.Unit())
}

// IsOrthogonal reports whether the direction is axis parallel.
func IsOrthogonal(d Point2D) bool {
	return math.Abs(d.X) < Epsilon || math.Abs(d.Y) < Epsilon
}

// IsMultipleOf45 reports whether the direction is axis parallel or diagonal.
func IsMultipleOf45(d Point2D) bool {
	return IsOrthogonal(d) || math.Abs(math.Abs(d.X)-math.Abs(d.Y)) < Epsilon
}
