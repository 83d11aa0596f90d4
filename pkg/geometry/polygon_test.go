package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvexHullDropsInteriorPoints(t *testing.T) {
	hull := ConvexHull([]Point2D{{0, 0}, {10, 0}, {5, 5}, {10, 10}, {0, 10}, {5, 0}})
	require.Len(t, hull, 4)
	assert.Greater(t, SignedArea(hull), 0.0)
	assert.True(t, IsConvex(hull))
}

func TestConvexDecompositionOfLShape(t *testing.T) {
	l := []Point2D{{0, 0}, {20, 0}, {20, 10}, {10, 10}, {10, 20}, {0, 20}}
	pieces := ConvexDecomposition(l)
	require.NotEmpty(t, pieces)
	require.Greater(t, len(pieces), 1)

	var area float64
	for _, p := range pieces {
		assert.True(t, IsConvex(p))
		area += SignedArea(p)
	}
	assert.InDelta(t, 300, area, 1e-6)
}

func TestConvexDecompositionKeepsConvexInput(t *testing.T) {
	sq := []Point2D{{0, 10}, {10, 10}, {10, 0}, {0, 0}}
	pieces := ConvexDecomposition(sq)
	require.Len(t, pieces, 1)
	assert.InDelta(t, 100, SignedArea(pieces[0]), 1e-9)
}

func TestIntersectPolygons(t *testing.T) {
	a := []Point2D{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	b := []Point2D{{5, 5}, {15, 5}, {15, 15}, {5, 15}}
	got := IntersectPolygons(a, b)
	require.NotNil(t, got)
	assert.InDelta(t, 25, SignedArea(got), 1e-9)
}

func TestPolylineSimplifyAndCombine(t *testing.T) {
	p := NewPolyline(NewPoint2D(0, 0), NewPoint2D(5, 0), NewPoint2D(10, 0), NewPoint2D(10, 5))
	s := p.Simplify()
	assert.Len(t, s.Corners, 3)

	q := NewPolyline(NewPoint2D(10, 5), NewPoint2D(10, 10))
	c, ok := s.Combine(q)
	require.True(t, ok)
	assert.Len(t, c.Corners, 3)
	assert.True(t, c.LastCorner().Equal(NewPoint2D(10, 10)))

	_, ok = q.Combine(s)
	assert.False(t, ok)
}

func TestPolylineSplitAt(t *testing.T) {
	p := NewPolyline(NewPoint2D(0, 0), NewPoint2D(10, 0), NewPoint2D(10, 10))
	head, tail := p.SplitAt(1, NewPoint2D(10, 4))
	assert.Len(t, head.Corners, 3)
	assert.Len(t, tail.Corners, 2)
	assert.InDelta(t, p.Length(), head.Length()+tail.Length(), 1e-9)
}

func TestSegmentIntersects(t *testing.T) {
	a := NewSegment(NewPoint2D(0, 0), NewPoint2D(10, 10))
	assert.True(t, a.Intersects(NewSegment(NewPoint2D(0, 10), NewPoint2D(10, 0))))
	assert.False(t, a.Intersects(NewSegment(NewPoint2D(20, 0), NewPoint2D(20, 10))))
	assert.True(t, a.Intersects(NewSegment(NewPoint2D(10, 10), NewPoint2D(20, 0))))
	assert.Equal(t, OnTheLeft, a.SideOf(NewPoint2D(0, 5)))
}
