// Package geometry provides the planar value types used by the router:
// points, rectangles, segments, polylines and convex tile shapes.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r2"
)

// Epsilon is the absolute tolerance for coordinate comparisons in board units.
const Epsilon = 1e-7

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NewPoint2D creates a new Point2D.
func NewPoint2D(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

func (p Point2D) vec() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

func fromVec(v r2.Vec) Point2D {
	return Point2D{X: v.X, Y: v.Y}
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	return r2.Norm(r2.Sub(p.vec(), other.vec()))
}

// DistanceSquare returns the squared distance to another point.
func (p Point2D) DistanceSquare(other Point2D) float64 {
	return r2.Norm2(r2.Sub(p.vec(), other.vec()))
}

// Add returns the sum of two points.
func (p Point2D) Add(other Point2D) Point2D {
	return fromVec(r2.Add(p.vec(), other.vec()))
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return fromVec(r2.Sub(p.vec(), other.vec()))
}

// Scale returns the point scaled by a factor.
func (p Point2D) Scale(factor float64) Point2D {
	return fromVec(r2.Scale(factor, p.vec()))
}

// Dot returns the scalar product of p and other taken as vectors.
func (p Point2D) Dot(other Point2D) float64 {
	return r2.Dot(p.vec(), other.vec())
}

// Cross returns the z component of the cross product of p and other.
func (p Point2D) Cross(other Point2D) float64 {
	return r2.Cross(p.vec(), other.vec())
}

// Length returns the length of p taken as a vector.
func (p Point2D) Length() float64 {
	return r2.Norm(p.vec())
}

// Unit returns p scaled to length 1. The zero vector is returned unchanged.
func (p Point2D) Unit() Point2D {
	if p.Length() == 0 {
		return p
	}
	return fromVec(r2.Unit(p.vec()))
}

// Perp returns p rotated by 90 degrees counter-clockwise.
func (p Point2D) Perp() Point2D {
	return Point2D{X: -p.Y, Y: p.X}
}

// Equal reports whether both coordinates agree within Epsilon.
func (p Point2D) Equal(other Point2D) bool {
	return scalar.EqualWithinAbs(p.X, other.X, Epsilon) &&
		scalar.EqualWithinAbs(p.Y, other.Y, Epsilon)
}

// ScalarProduct returns the scalar product of (a - p) and (b - p).
func (p Point2D) ScalarProduct(a, b Point2D) float64 {
	return a.Sub(p).Dot(b.Sub(p))
}

// Rect represents an axis-parallel rectangle with floating-point coordinates.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// NewRect creates a new Rect.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// RectFromCorners returns the rectangle spanned by two opposite corners.
func RectFromCorners(a, b Point2D) Rect {
	x := math.Min(a.X, b.X)
	y := math.Min(a.Y, b.Y)
	return Rect{X: x, Y: y, Width: math.Abs(a.X - b.X), Height: math.Abs(a.Y - b.Y)}
}

// MaxX returns the right border.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY returns the upper border.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Min returns the lower left corner.
func (r Rect) Min() Point2D { return Point2D{X: r.X, Y: r.Y} }

// Max returns the upper right corner.
func (r Rect) Max() Point2D { return Point2D{X: r.MaxX(), Y: r.MaxY()} }

// IsEmpty reports whether r has negative extent.
func (r Rect) IsEmpty() bool {
	return r.Width < 0 || r.Height < 0
}

// Contains returns true if the point is inside the rectangle or on its border.
func (r Rect) Contains(p Point2D) bool {
	return p.X >= r.X-Epsilon && p.X <= r.MaxX()+Epsilon &&
		p.Y >= r.Y-Epsilon && p.Y <= r.MaxY()+Epsilon
}

// ContainsRect returns true if other lies completely inside r.
func (r Rect) ContainsRect(other Rect) bool {
	return r.Contains(other.Min()) && r.Contains(other.Max())
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point2D {
	return Point2D{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Intersects returns true if this rectangle intersects with another.
// Rectangles that only touch do not intersect.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.MaxX() && r.MaxX() > other.X &&
		r.Y < other.MaxY() && r.MaxY() > other.Y
}

// Union returns the smallest rectangle containing both rectangles.
// An empty receiver is treated as the neutral element.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	x := math.Min(r.X, other.X)
	y := math.Min(r.Y, other.Y)
	x2 := math.Max(r.MaxX(), other.MaxX())
	y2 := math.Max(r.MaxY(), other.MaxY())
	return Rect{X: x, Y: y, Width: x2 - x, Height: y2 - y}
}

// Enlarge returns r grown by d on every side.
func (r Rect) Enlarge(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, Width: r.Width + 2*d, Height: r.Height + 2*d}
}

// EmptyRect returns the neutral element for Union.
func EmptyRect() Rect {
	return Rect{Width: -1, Height: -1}
}

// Centroid computes the centroid (average position) of a set of points.
func Centroid(points []Point2D) Point2D {
	if len(points) == 0 {
		return Point2D{}
	}
	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(points))
	return Point2D{X: sumX / n, Y: sumY / n}
}

// BoundingBox computes the axis-aligned bounding box of a set of points.
func BoundingBox(points []Point2D) Rect {
	if len(points) == 0 {
		return EmptyRect()
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
