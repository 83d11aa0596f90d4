package shove

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcb-router/internal/item"
	"pcb-router/pkg/geometry"
)

func seg(a, b geometry.Point2D) geometry.Segment { return geometry.NewSegment(a, b) }

func TestFromSideConstructors(t *testing.T) {
	assert.False(t, Unknown().Calculated())
	f := FromEdgeAt(2, pt(1, 2))
	assert.True(t, f.Calculated())
	assert.True(t, f.HasPoint)
	assert.Equal(t, 2, f.No)
	assert.False(t, FromEdge(3).HasPoint)
}

func TestFromSideOfPoint(t *testing.T) {
	box := geometry.NewBox(geometry.NewRect(0, 0, 100, 100))
	f := FromSideOfPoint(pt(50, -20), box)
	require.True(t, f.Calculated())
	assert.Equal(t, 0, f.No)
	assert.True(t, f.Point.Equal(pt(50, 0)))

	f = FromSideOfPoint(pt(130, 40), box)
	assert.Equal(t, 1, f.No)
}

func TestFromSideOfPolyline(t *testing.T) {
	box := geometry.NewBox(geometry.NewRect(0, 0, 100, 100))
	// the first segment enters through the left edge
	poly := geometry.NewPolyline(pt(-50, 50), pt(50, 50), pt(50, 200))
	f := FromSideOfPolyline(poly, 1, box)
	require.True(t, f.Calculated())
	assert.Equal(t, 3, f.No)
	assert.True(t, f.Point.Equal(pt(0, 50)))
}

func TestShapeAndFromSideCutsAtStart(t *testing.T) {
	tr := item.NewTrace(geometry.NewPolyline(pt(100, 500), pt(300, 500)), 0, 5, []int{netPad}, clDef, item.Unfixed)
	shape, from := shapeAndFromSide(tr, 0, false, true)
	require.False(t, shape.IsEmpty())
	assert.InDelta(t, 100, shape.Bounds().X, 1e-6, "the pen must not reach behind the start")
	assert.InDelta(t, 300, shape.Bounds().MaxX(), 1e-6)
	require.True(t, from.Calculated())
	assert.True(t, from.Point.Equal(pt(100, 500)))

	box, from := shapeAndFromSide(tr, 0, true, true)
	assert.Equal(t, geometry.KindBox, box.Kind())
	assert.False(t, from.Calculated())
}
