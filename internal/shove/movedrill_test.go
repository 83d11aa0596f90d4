package shove

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcb-router/internal/item"
	"pcb-router/internal/rules"
	"pcb-router/pkg/geometry"
)

func TestMoveDrillReconnectsTraces(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	leg := insertTrace(t, b, 0, netPad, item.Unfixed, pt(100, 500), pt(500, 500))
	v := b.InsertVia(pt(500, 500), roundPadstack(t, 0, 0, 20), []int{netPad}, clDef, item.Unfixed)

	s := New(b)
	delta := pt(0, 100)
	require.True(t, s.CheckMoveDrill(v, delta, 3, 1, nil, nil))
	require.True(t, s.MoveDrill(v, delta, 3, 1))

	moved, ok := b.Item(v.ID()).(*item.Via)
	require.True(t, ok)
	assert.True(t, moved.Center().Equal(pt(500, 600)))

	traces := b.Traces()
	require.Len(t, traces, 1)
	assert.Equal(t, leg.ID(), traces[0].ID())
	want := geometry.NewPolyline(pt(100, 500), pt(500, 500), pt(500, 600))
	assert.True(t, want.Equal(traces[0].Polyline()), "got %v", traces[0].Polyline().Corners)
	assert.Empty(t, b.ClearanceViolations())
}

func TestMoveDrillFixedViaFails(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	v := b.InsertVia(pt(500, 500), roundPadstack(t, 0, 0, 20), []int{netPad}, clDef, item.ShoveFixed)

	s := New(b)
	assert.False(t, s.CheckMoveDrill(v, pt(0, 100), 3, 1, nil, nil))
	assert.False(t, s.MoveDrill(v, pt(0, 100), 3, 1))
	id, _ := b.FailingObstacle()
	assert.Equal(t, v.ID(), id)
}

func TestCheckMoveDrillOntoFixedTrace(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	v := b.InsertVia(pt(500, 500), roundPadstack(t, 0, 0, 20), []int{netPad}, clDef, item.Unfixed)
	fixed := insertTrace(t, b, 0, netOther, item.ShoveFixed, pt(100, 700), pt(900, 700))

	s := New(b)
	assert.True(t, s.CheckMoveDrill(v, pt(0, 100), 3, 1, nil, nil))
	assert.False(t, s.CheckMoveDrill(v, pt(0, 200), 3, 1, nil, nil))
	id, _ := b.FailingObstacle()
	assert.Equal(t, fixed.ID(), id)
}

func TestConnector(t *testing.T) {
	tests := []struct {
		angle rules.AngleRestriction
		want  geometry.Polyline
	}{
		{rules.AngleNone, geometry.NewPolyline(pt(0, 0), pt(30, 10))},
		{rules.Angle45, geometry.NewPolyline(pt(0, 0), pt(10, 10), pt(30, 10))},
		{rules.Angle90, geometry.NewPolyline(pt(0, 0), pt(30, 0), pt(30, 10))},
	}
	for _, tt := range tests {
		t.Run(tt.angle.String(), func(t *testing.T) {
			s := New(newTestBoard(t, tt.angle))
			got := s.connector(pt(0, 0), pt(30, 10))
			assert.True(t, tt.want.Equal(got), "got %v", got.Corners)
		})
	}
}

func TestOutsideDeltas(t *testing.T) {
	shape := geometry.NewBox(geometry.NewRect(0, 0, 100, 100))
	moving := geometry.NewBox(geometry.NewRect(10, 40, 20, 20))
	deltas := outsideDeltas(shape, moving, 2)
	require.Len(t, deltas, 2)
	assert.True(t, deltas[0].Equal(pt(-30, 0)))
	assert.True(t, deltas[1].Equal(pt(0, -60)))
}

func TestShoveViasMovesForeignVia(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	v := b.InsertVia(pt(500, 500), roundPadstack(t, 0, 0, 20), []int{netOther}, clDef, item.Unfixed)

	s := New(b)
	pad := geometry.RegularOctagon(pt(500, 520), 20)
	require.True(t, s.ShoveVias(pad, Unknown(), 0, []int{netPad}, clDef, nil, 3, 1, false))

	moved := b.Item(v.ID()).(*item.Via)
	assert.False(t, moved.Center().Equal(pt(500, 500)))
	assert.Empty(t, b.OverlappingItemsWithClearance(pad, 0, []int{netPad}, clDef))
}

func TestMoveDrillOneConnectorPerLayer(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	v := b.InsertVia(pt(500, 500), roundPadstack(t, 0, 1, 20), []int{netPad}, clDef, item.Unfixed)
	insertTrace(t, b, 0, netPad, item.Unfixed, pt(100, 500), pt(500, 500))
	insertTrace(t, b, 0, netPad, item.Unfixed, pt(500, 500), pt(500, 900))
	insertTrace(t, b, 1, netPad, item.Unfixed, pt(500, 500), pt(500, 100))

	s := New(b)
	require.True(t, s.MoveDrill(v, pt(100, 0), 3, 1))

	reaching := map[int]int{}
	for _, tr := range b.Traces() {
		if hasCorner(tr.Polyline(), pt(600, 500)) {
			reaching[tr.Layer()]++
		}
	}
	assert.Equal(t, map[int]int{0: 1, 1: 1}, reaching, "traces sharing a layer share the connector")
	assert.Empty(t, b.ClearanceViolations())
}

func TestShoveViasChecksMovesWithIgnoredItems(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	v := b.InsertVia(pt(500, 420), roundPadstack(t, 0, 0, 20), []int{netOther}, clDef, item.Unfixed)
	// blocks the nearest way out of the pad, upwards
	fixed := insertTrace(t, b, 0, netThird, item.ShoveFixed, pt(100, 360), pt(900, 360))

	s := New(b)
	require.True(t, s.ShoveVias(padBox(), Unknown(), 0, []int{netPad}, clDef, nil, 3, 1, false))
	assert.True(t, b.Item(v.ID()).(*item.Via).Center().Equal(pt(500, 420)), "no free place, left for the caller")

	// with the trace ignored the move passes its check and fails on the board
	assert.False(t, s.ShoveVias(padBox(), Unknown(), 0, []int{netPad}, clDef, ignoreSet{fixed.ID(): true}, 3, 1, false))
	id, _ := b.FailingObstacle()
	assert.Equal(t, fixed.ID(), id)
}
