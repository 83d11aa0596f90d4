package item

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcb-router/pkg/geometry"
)

func TestFixedStateOrder(t *testing.T) {
	assert.Less(t, Unfixed, ShoveFixed)
	assert.Less(t, ShoveFixed, UserFixed)
	assert.Less(t, UserFixed, SystemFixed)

	for _, f := range []FixedState{Unfixed, ShoveFixed, UserFixed, SystemFixed} {
		got, err := ParseFixedState(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
}

func TestNetHelpers(t *testing.T) {
	tr := NewTrace(geometry.NewPolyline(geometry.NewPoint2D(0, 0), geometry.NewPoint2D(10, 0)), 0, 1, []int{3}, 1, Unfixed)
	assert.True(t, SharesNet(tr, []int{1, 3}))
	assert.False(t, SharesNet(tr, []int{2}))
	assert.True(t, NetsEqual([]int{1, 2}, []int{2, 1}))
	assert.False(t, NetsEqual([]int{1}, []int{1, 2}))
	assert.True(t, IsRoute(tr))
	assert.False(t, IsShoveFixed(tr))
	assert.True(t, IsShoveFixed(tr.WithFixedState(ShoveFixed)))
}

func TestTraceTileShapes(t *testing.T) {
	poly := geometry.NewPolyline(geometry.NewPoint2D(0, 0), geometry.NewPoint2D(10, 0), geometry.NewPoint2D(10, 10))
	tr := NewTrace(poly, 1, 2, []int{1}, 1, Unfixed)
	assert.Len(t, tr.TileShapes(1), 2)
	assert.Nil(t, tr.TileShapes(0))
	assert.Equal(t, geometry.NewRect(-2, -2, 14, 14), tr.Bounds())

	placed := tr.WithID(7)
	assert.Equal(t, ID(7), placed.ID())
	assert.Equal(t, ID(0), tr.ID(), "WithID copies")
}

func TestViaMoveKeepsIdentity(t *testing.T) {
	ps, err := NewRoundPadstack("via", 0, 1, 5)
	require.NoError(t, err)
	v := NewVia(geometry.NewPoint2D(10, 10), ps, []int{1}, 1, Unfixed).WithID(4).(*Via)

	moved := v.MovedBy(geometry.NewPoint2D(3, 0))
	assert.Equal(t, ID(4), moved.ID())
	assert.Equal(t, geometry.NewPoint2D(13, 10), moved.Center())
	assert.Equal(t, geometry.NewPoint2D(10, 10), v.Center())
	assert.True(t, moved.ShapeOn(1).Contains(geometry.NewPoint2D(17, 10)))
	assert.True(t, moved.ShapeOn(2).IsEmpty())
}

func TestPadstackValidation(t *testing.T) {
	_, err := NewRoundPadstack("bad", 1, 0, 5)
	assert.Error(t, err)
	_, err = NewRectPadstack("bad", 0, 0, 0, 5)
	assert.Error(t, err)
}

func TestAreaDecomposition(t *testing.T) {
	l := []geometry.Point2D{{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 20}, {X: 0, Y: 20}}
	a, err := NewArea(KindKeepout, "l", 0, l, nil, 1, SystemFixed, false)
	require.NoError(t, err)
	assert.True(t, a.IsObstacle())
	var area float64
	for _, s := range a.TileShapes(0) {
		area += s.Area()
	}
	assert.InDelta(t, 300, area, 1e-6)

	c, err := NewArea(KindConductionArea, "plane", 0, l, []int{1}, 1, Unfixed, false)
	require.NoError(t, err)
	assert.False(t, c.IsObstacle())

	_, err = NewArea(KindTrace, "x", 0, l, nil, 1, Unfixed, false)
	assert.Error(t, err)
}
