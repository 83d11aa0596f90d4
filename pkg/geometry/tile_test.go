package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegularOctagonCorners(t *testing.T) {
	center := NewPoint2D(3, 4)
	oct := RegularOctagon(center, 10)
	require.Equal(t, KindOctagon, oct.Kind())
	require.Equal(t, 8, oct.BorderLineCount())

	want := OctagonCorners(center, 10)
	for i, c := range want {
		assert.True(t, oct.Corner(i).Equal(c), "corner %d: got %v want %v", i, oct.Corner(i), c)
	}
	assert.InDelta(t, 10, oct.SmallestRadius(), 1e-9)
	// edge 0 is the bottom edge
	assert.True(t, oct.Normal(0).Equal(NewPoint2D(0, -1)))
	assert.True(t, oct.Normal(2).Equal(NewPoint2D(1, 0)))
}

func TestBoxEdgeNumbering(t *testing.T) {
	box := NewBox(NewRect(0, 0, 10, 5))
	require.Equal(t, KindBox, box.Kind())
	assert.Equal(t, NewPoint2D(0, 0), box.Corner(0))
	assert.Equal(t, NewPoint2D(10, 0), box.Corner(1))
	assert.Equal(t, NewPoint2D(10, 5), box.Corner(2))
	assert.Equal(t, NewPoint2D(0, 5), box.Corner(3))
	assert.InDelta(t, 50, box.Area(), 1e-9)
}

func TestOffsetPreservesKind(t *testing.T) {
	tests := []struct {
		name  string
		shape TileShape
	}{
		{"box", NewBox(NewRect(0, 0, 4, 4))},
		{"octagon", RegularOctagon(NewPoint2D(0, 0), 5)},
		{"simplex", NewSimplex([]Point2D{{0, 0}, {10, 0}, {0, 10}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			off := tt.shape.Offset(2)
			assert.Equal(t, tt.shape.Kind(), off.Kind())
			assert.Equal(t, tt.shape.BorderLineCount(), off.BorderLineCount())
			for i := 0; i < off.BorderLineCount(); i++ {
				assert.InDelta(t, 2, off.BorderDistance(tt.shape.Corner(i), i), 1e-9)
			}
			assert.True(t, off.ContainsShape(tt.shape))
		})
	}
}

func TestNewSimplexReversesClockwise(t *testing.T) {
	s := NewSimplex([]Point2D{{0, 0}, {0, 10}, {10, 10}, {10, 0}})
	require.False(t, s.IsEmpty())
	assert.Greater(t, SignedArea(s.Corners()), 0.0)
	assert.True(t, s.Contains(NewPoint2D(5, 5)))
}

func TestOverlapsIsStrict(t *testing.T) {
	a := NewBox(NewRect(0, 0, 10, 10))
	touching := NewBox(NewRect(10, 0, 10, 10))
	overlapping := NewBox(NewRect(9, 9, 10, 10))
	apart := RegularOctagon(NewPoint2D(30, 30), 2)

	assert.False(t, a.Overlaps(touching))
	assert.True(t, a.Overlaps(overlapping))
	assert.False(t, a.Overlaps(apart))

	// the octagon corner cut makes the diagonal neighbour miss the box
	oct := RegularOctagon(NewPoint2D(12, 12), 2.5)
	assert.False(t, a.Overlaps(oct))
	assert.True(t, a.Overlaps(oct.Offset(1)))
}

func TestContainsAndInside(t *testing.T) {
	box := NewBox(NewRect(0, 0, 10, 10))
	assert.True(t, box.Contains(NewPoint2D(0, 5)))
	assert.False(t, box.ContainsInside(NewPoint2D(0, 5)))
	assert.True(t, box.ContainsInside(NewPoint2D(1, 5)))
	assert.True(t, box.IsOutside(NewPoint2D(-1, 5)))
	assert.Equal(t, 3, box.ContainsOnBorderLine(NewPoint2D(0, 5)))
	assert.Equal(t, -1, box.ContainsOnBorderLine(NewPoint2D(5, 5)))
}

func TestNearestBorderPoint(t *testing.T) {
	box := NewBox(NewRect(0, 0, 10, 10))
	p, edge := box.NearestBorderPoint(NewPoint2D(5, 1))
	assert.Equal(t, 0, edge)
	assert.True(t, p.Equal(NewPoint2D(5, 0)))

	p, edge = box.NearestBorderPoint(NewPoint2D(8, 5))
	assert.Equal(t, 1, edge)
	assert.True(t, p.Equal(NewPoint2D(10, 5)))
}

func TestEntrancePointsAndCutout(t *testing.T) {
	box := NewBox(NewRect(0, 0, 10, 10))
	line := NewPolyline(NewPoint2D(-5, 5), NewPoint2D(15, 5))

	crossings := box.EntrancePoints(line)
	require.Len(t, crossings, 2)
	assert.Equal(t, 3, crossings[0].Edge)
	assert.True(t, crossings[0].Entering)
	assert.True(t, crossings[0].Point.Equal(NewPoint2D(0, 5)))
	assert.Equal(t, 1, crossings[1].Edge)
	assert.False(t, crossings[1].Entering)
	assert.True(t, crossings[1].Point.Equal(NewPoint2D(10, 5)))

	pieces := box.Cutout(line)
	require.Len(t, pieces, 2)
	assert.True(t, pieces[0].LastCorner().Equal(NewPoint2D(0, 5)))
	assert.True(t, pieces[1].FirstCorner().Equal(NewPoint2D(10, 5)))
	assert.True(t, pieces[0].FirstCorner().Equal(NewPoint2D(-5, 5)))
	assert.True(t, pieces[1].LastCorner().Equal(NewPoint2D(15, 5)))
}

func TestCutoutBendingPolyline(t *testing.T) {
	box := NewBox(NewRect(0, 0, 10, 10))
	// enters through the bottom, leaves through the top, comes back in from the right
	line := NewPolyline(
		NewPoint2D(5, -5), NewPoint2D(5, 15), NewPoint2D(20, 15),
		NewPoint2D(20, 5), NewPoint2D(5, 5),
	)
	pieces := box.Cutout(line)
	require.Len(t, pieces, 2)
	assert.True(t, pieces[0].LastCorner().Equal(NewPoint2D(5, 0)))
	assert.True(t, pieces[1].FirstCorner().Equal(NewPoint2D(5, 10)))
	assert.True(t, pieces[1].LastCorner().Equal(NewPoint2D(10, 5)))
	assert.Len(t, pieces[1].Corners, 5)
}

func TestCutoutInsideAndOutside(t *testing.T) {
	box := NewBox(NewRect(0, 0, 10, 10))
	inside := NewPolyline(NewPoint2D(2, 2), NewPoint2D(8, 8))
	assert.Empty(t, box.Cutout(inside))

	outside := NewPolyline(NewPoint2D(-2, -2), NewPoint2D(-8, 8))
	pieces := box.Cutout(outside)
	require.Len(t, pieces, 1)
	assert.True(t, pieces[0].Equal(outside))
}

func TestSegmentTile(t *testing.T) {
	straight := SegmentTile(NewPoint2D(0, 0), NewPoint2D(10, 0), 1)
	assert.Equal(t, KindOctagon, straight.Kind())
	b := straight.Bounds()
	assert.InDelta(t, -1, b.X, 1e-9)
	assert.InDelta(t, 12, b.Width, 1e-9)
	assert.InDelta(t, 2, b.Height, 1e-9)

	skew := SegmentTile(NewPoint2D(0, 0), NewPoint2D(10, 3), 1)
	assert.Equal(t, KindSimplex, skew.Kind())
	assert.True(t, skew.Contains(NewPoint2D(5, 1.5)))
	assert.False(t, skew.Contains(NewPoint2D(5, 5)))
}

func TestBoundingOctagon(t *testing.T) {
	tri := NewSimplex([]Point2D{{0, 0}, {10, 0}, {0, 10}})
	oct := tri.BoundingOctagon()
	assert.Equal(t, KindOctagon, oct.Kind())
	for _, c := range tri.Corners() {
		assert.True(t, oct.Contains(c))
	}
	assert.InDelta(t, tri.Area(), oct.Area(), 1e-6)
}

func TestNewOctagonTightensLooseOffsets(t *testing.T) {
	big := math.Inf(1)
	oct := NewOctagon([8]float64{0, big, 10, big, 10, big, 0, big})
	require.False(t, oct.IsEmpty())
	assert.InDelta(t, 100, oct.Area(), 1e-6)
	assert.True(t, oct.Contains(NewPoint2D(10, 10)))
}

func TestTranslate(t *testing.T) {
	oct := RegularOctagon(NewPoint2D(0, 0), 3).Translate(NewPoint2D(5, 5))
	assert.True(t, oct.Equal(RegularOctagon(NewPoint2D(5, 5), 3)))
	assert.InDelta(t, 3, oct.BorderDistance(NewPoint2D(5, 5), 4), 1e-9)
}
