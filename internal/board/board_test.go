package board

import (
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcb-router/internal/item"
	"pcb-router/internal/rules"
	"pcb-router/pkg/geometry"
)

func pt(x, y float64) geometry.Point2D { return geometry.Point2D{X: x, Y: y} }

func newTestBoard(t *testing.T) *RoutingBoard {
	t.Helper()
	r := rules.New(2)
	r.Clearance.Set(1, 1, 10)
	r.Nets.Add("A", 1)
	r.Nets.Add("B", 1)
	return New(geometry.NewRect(0, 0, 1000, 1000), []Layer{{Name: "top", IsSignal: true}, {Name: "bottom", IsSignal: true}}, r)
}

func viaPadstack(t *testing.T) *item.Padstack {
	t.Helper()
	ps, err := item.NewRoundPadstack("via", 0, 1, 20)
	require.NoError(t, err)
	return ps
}

func TestInsertAssignsIDs(t *testing.T) {
	b := newTestBoard(t)
	t1 := b.InsertTrace(geometry.NewPolyline(pt(100, 100), pt(200, 100)), 0, 5, []int{1}, 1, item.Unfixed)
	t2 := b.InsertTrace(geometry.NewPolyline(pt(100, 200), pt(200, 200)), 0, 5, []int{2}, 1, item.Unfixed)
	require.NotNil(t, t1)
	require.NotNil(t, t2)
	assert.Equal(t, item.ID(1), t1.ID())
	assert.Equal(t, item.ID(2), t2.ID())
	assert.Equal(t, 2, b.Len())
	assert.Same(t, t1, b.Item(1))
	assert.True(t, b.SearchTree().ValidateEntries(t1))

	assert.Nil(t, b.InsertTrace(geometry.NewPolyline(pt(1, 1)), 0, 5, nil, 1, item.Unfixed))
}

func TestRemoveUnknownItem(t *testing.T) {
	b := newTestBoard(t)
	err := b.Remove(42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrItemNotFound))
	_, err = b.Replace(42, item.NewTrace(geometry.NewPolyline(pt(0, 0), pt(1, 0)), 0, 1, nil, 1, item.Unfixed))
	assert.True(t, errors.Is(err, ErrItemNotFound))
}

func TestRemoveItemsSkipsUserFixed(t *testing.T) {
	b := newTestBoard(t)
	free := b.InsertTrace(geometry.NewPolyline(pt(100, 100), pt(200, 100)), 0, 5, []int{1}, 1, item.ShoveFixed)
	fixed := b.InsertTrace(geometry.NewPolyline(pt(100, 200), pt(200, 200)), 0, 5, []int{1}, 1, item.UserFixed)
	assert.False(t, b.RemoveItems([]item.Item{free, fixed}))
	assert.Nil(t, b.Item(free.ID()))
	assert.NotNil(t, b.Item(fixed.ID()))
}

func TestTransactionRollback(t *testing.T) {
	b := newTestBoard(t)
	keep := b.InsertTrace(geometry.NewPolyline(pt(100, 100), pt(200, 100)), 0, 5, []int{1}, 1, item.Unfixed)

	tx := b.BeginTransaction()
	require.NoError(t, b.Remove(keep.ID()))
	added := b.InsertTrace(geometry.NewPolyline(pt(300, 300), pt(400, 300)), 0, 5, []int{1}, 1, item.Unfixed)
	require.NoError(t, tx.Rollback())

	assert.Same(t, keep, b.Item(keep.ID()))
	assert.Nil(t, b.Item(added.ID()))
	assert.Equal(t, 1, b.Len())
	assert.True(t, b.SearchTree().ValidateEntries(keep))
	hits := b.OverlappingObjects(geometry.NewBox(geometry.NewRect(290, 290, 120, 20)), 0)
	assert.Empty(t, hits)
}

func TestChangedArea(t *testing.T) {
	b := newTestBoard(t)
	assert.True(t, b.ChangedArea(0).IsEmpty())
	b.JoinChangedArea(pt(10, 20), 0)
	b.JoinChangedArea(pt(30, 5), 0)
	assert.Equal(t, geometry.NewRect(10, 5, 20, 15), b.ChangedArea(0))
	assert.True(t, b.ChangedArea(1).IsEmpty())
	b.ResetChangedArea()
	assert.True(t, b.ChangedArea(0).IsEmpty())
}

func TestContactsAndTails(t *testing.T) {
	b := newTestBoard(t)
	via := b.InsertVia(pt(100, 100), viaPadstack(t), []int{1}, 1, item.Unfixed)
	a := b.InsertTrace(geometry.NewPolyline(pt(100, 100), pt(200, 100)), 0, 5, []int{1}, 1, item.Unfixed)
	c := b.InsertTrace(geometry.NewPolyline(pt(200, 100), pt(200, 200)), 0, 5, []int{1}, 1, item.Unfixed)
	foreign := b.InsertTrace(geometry.NewPolyline(pt(200, 200), pt(300, 200)), 0, 5, []int{2}, 1, item.Unfixed)

	start := b.StartContacts(a)
	require.Len(t, start, 1)
	assert.Equal(t, via.ID(), start[0].ID())
	end := b.EndContacts(a)
	require.Len(t, end, 1)
	assert.Equal(t, c.ID(), end[0].ID())
	assert.Empty(t, b.EndContacts(c), "foreign net does not connect")

	assert.False(t, b.IsTail(a))
	assert.True(t, b.IsTail(c))
	assert.Len(t, b.DrillContacts(via), 1)

	assert.True(t, b.ContainsTraceTails([]item.Item{a, c}, []int{2}))
	assert.False(t, b.ContainsTraceTails([]item.Item{a, c}, []int{1}))
	assert.True(t, b.ContainsTraceTails([]item.Item{foreign}, []int{1}))

	conn := b.ConnectionItems(c)
	assert.Len(t, conn, 2, "walk stops at the via")
	assert.True(t, b.RemoveTraceTail(pt(200, 200), 0, []int{1}))
	assert.Nil(t, b.Item(a.ID()))
	assert.Nil(t, b.Item(c.ID()))
	assert.NotNil(t, b.Item(via.ID()))
	assert.NotNil(t, b.Item(foreign.ID()))
}

func TestCombineTraces(t *testing.T) {
	b := newTestBoard(t)
	a := b.InsertTrace(geometry.NewPolyline(pt(100, 100), pt(200, 100)), 0, 5, []int{1}, 1, item.Unfixed)
	b.InsertTrace(geometry.NewPolyline(pt(300, 100), pt(200, 100)), 0, 5, []int{1}, 1, item.Unfixed)
	b.InsertTrace(geometry.NewPolyline(pt(300, 200), pt(300, 100)), 0, 5, []int{1}, 1, item.Unfixed)
	// different width stays apart
	b.InsertTrace(geometry.NewPolyline(pt(300, 200), pt(400, 200)), 0, 8, []int{1}, 1, item.Unfixed)

	assert.True(t, b.CombineTraces(1))
	traces := b.Traces()
	require.Len(t, traces, 2)
	combined := b.Item(a.ID()).(*item.Trace)
	assert.True(t, combined.Polyline().Equal(geometry.NewPolyline(pt(100, 100), pt(300, 100), pt(300, 200))))
	assert.False(t, b.CombineTraces(1))
}

func TestNormalizeTraceSplitsAtContacts(t *testing.T) {
	b := newTestBoard(t)
	long := b.InsertTrace(geometry.NewPolyline(pt(100, 100), pt(300, 100)), 0, 5, []int{1}, 1, item.Unfixed)
	b.InsertTrace(geometry.NewPolyline(pt(200, 100), pt(200, 200)), 0, 5, []int{1}, 1, item.Unfixed)

	b.NormalizeTrace(long)
	traces := b.Traces()
	require.Len(t, traces, 3)
	for _, tr := range traces {
		assert.Equal(t, 1, tr.Polyline().SegmentCount())
	}
	first := b.Item(long.ID()).(*item.Trace)
	assert.True(t, first.LastCorner().Equal(pt(200, 100)))
}

func TestCheckTraceShape(t *testing.T) {
	b := newTestBoard(t)
	b.InsertTrace(geometry.NewPolyline(pt(100, 100), pt(300, 100)), 0, 5, []int{2}, 1, item.Unfixed)
	ps, err := item.NewRectPadstack("smd", 0, 0, 40, 40)
	require.NoError(t, err)
	pin := b.Insert(item.NewPin("U1", "1", pt(500, 500), ps, []int{1}, 1, item.Unfixed, false))

	near := geometry.SegmentTile(pt(100, 118), pt(300, 118), 5)
	assert.False(t, b.CheckTraceShape(near, 0, []int{1}, 1, nil))
	assert.True(t, b.CheckTraceShape(near, 0, []int{2}, 1, nil), "own net is no obstacle")
	assert.True(t, b.CheckTraceShape(near, 1, []int{1}, 1, nil), "other layer")
	far := geometry.SegmentTile(pt(100, 125), pt(300, 125), 5)
	assert.True(t, b.CheckTraceShape(far, 0, []int{1}, 1, nil))

	outside := geometry.SegmentTile(pt(990, 10), pt(1100, 10), 5)
	assert.False(t, b.CheckTraceShape(outside, 0, []int{1}, 1, nil))

	onPin := geometry.SegmentTile(pt(450, 500), pt(500, 500), 5)
	assert.True(t, b.CheckTraceShape(onPin, 0, []int{1}, 1, nil))
	assert.False(t, b.CheckTraceShape(onPin, 0, []int{1}, 1, map[item.ID]bool{}))
	assert.True(t, b.CheckTraceShape(onPin, 0, []int{1}, 1, map[item.ID]bool{pin.ID(): true}))
}

func TestKeepoutKindsAsObstacles(t *testing.T) {
	square := []geometry.Point2D{pt(0, 0), pt(10, 0), pt(10, 10), pt(0, 10)}
	viaKeepout, err := item.NewArea(item.KindViaKeepout, "vk", 0, square, nil, 1, item.Unfixed, true)
	require.NoError(t, err)
	keepout, err := item.NewArea(item.KindKeepout, "k", 0, square, nil, 1, item.Unfixed, true)
	require.NoError(t, err)
	plane, err := item.NewArea(item.KindConductionArea, "gnd", 0, square, []int{3}, 1, item.Unfixed, false)
	require.NoError(t, err)

	assert.False(t, IsTraceObstacle(viaKeepout, []int{1}))
	assert.True(t, IsDrillObstacle(viaKeepout, []int{1}))
	assert.True(t, IsTraceObstacle(keepout, []int{1}))
	assert.False(t, IsTraceObstacle(plane, []int{1}))
	assert.True(t, IsTraceObstacle(keepout, nil))
}

func TestClearanceViolations(t *testing.T) {
	b := newTestBoard(t)
	a := b.InsertTrace(geometry.NewPolyline(pt(100, 100), pt(300, 100)), 0, 5, []int{1}, 1, item.Unfixed)
	c := b.InsertTrace(geometry.NewPolyline(pt(100, 115), pt(300, 115)), 0, 5, []int{2}, 1, item.Unfixed)
	b.InsertTrace(geometry.NewPolyline(pt(100, 130), pt(300, 130)), 0, 5, []int{2}, 1, item.Unfixed)
	b.InsertTrace(geometry.NewPolyline(pt(100, 115), pt(300, 115)), 1, 5, []int{1}, 1, item.Unfixed)

	v := b.ClearanceViolations()
	require.Len(t, v, 1)
	assert.Equal(t, Violation{First: a.ID(), Second: c.ID(), Layer: 0}, v[0])
}

func TestFailingObstacle(t *testing.T) {
	b := newTestBoard(t)
	id, layer := b.FailingObstacle()
	assert.Equal(t, item.ID(0), id)
	assert.Equal(t, -1, layer)
	b.SetFailingObstacle(OutlineID, 1)
	id, layer = b.FailingObstacle()
	assert.Equal(t, OutlineID, id)
	assert.Equal(t, 1, layer)
	b.ClearFailingObstacle()
	id, _ = b.FailingObstacle()
	assert.Equal(t, item.ID(0), id)
}

func TestFromSpecS100(t *testing.T) {
	b, err := FromSpec(S100Spec(), DefaultPresetOptions())
	require.NoError(t, err)
	assert.Equal(t, geometry.NewRect(0, 0, 10000, 5437.5), b.Bounds())
	assert.Equal(t, 0, b.LayerByName(ComponentLayer))
	assert.Equal(t, 1, b.LayerByName(SolderLayer))

	pins := b.DrillItems()
	require.Len(t, pins, 100)
	for _, p := range pins {
		assert.Equal(t, item.SystemFixed, p.FixedState())
		assert.True(t, b.InsideBounds(p.ShapeOn(p.FirstLayer())))
	}
	gnd, ok := b.Rules().Nets.ByName("GND")
	require.True(t, ok)
	first := pins[19].(*item.Pin)
	assert.Equal(t, "20", first.Name)
	assert.Equal(t, []int{gnd.No}, first.Nets())
	assert.InDelta(t, 2125+19*125, first.Center().X, 1e-9)

	assert.Empty(t, b.ClearanceViolations())
	assert.Equal(t, 104, b.Len(), "two ejector keepouts per layer")
}

func TestISA16Signals(t *testing.T) {
	spec := ISA16Spec()
	assert.Equal(t, "IOCHCK*", spec.SignalName(1))
	assert.Equal(t, "SBHE*", spec.SignalName(32))
	assert.Equal(t, "GND", spec.SignalName(50))
	assert.Equal(t, "MEMCS16*", spec.SignalName(81))
	assert.Equal(t, "GND", spec.SignalName(98))
	assert.Equal(t, "P2", STDBusSpec().SignalName(2))

	b, err := FromSpec(spec, DefaultPresetOptions())
	require.NoError(t, err)
	require.Len(t, b.DrillItems(), 98)
	gnd, ok := b.Rules().Nets.ByName("GND")
	require.True(t, ok)
	grounded := 0
	for _, p := range b.DrillItems() {
		if item.SharesNet(p, []int{gnd.No}) {
			grounded++
		}
	}
	assert.Equal(t, 4, grounded, "B1, B10, B31 and D18")
	assert.Empty(t, b.ClearanceViolations())
}

func TestListSpecsNaturalOrder(t *testing.T) {
	names := ListSpecs()
	require.Len(t, names, 7)
	assert.Equal(t, "8-bit ISA", names[0])
	assert.Equal(t, "16-bit ISA", names[1])
	assert.NotNil(t, GetSpec("STD Bus"))
	assert.Nil(t, GetSpec("VME"))
}

func TestSpecFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecb.yaml")
	require.NoError(t, ECBSpec().SaveToFile(path))
	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, ECBSpec(), loaded)

	bad := &BaseSpec{SpecName: "bad", WidthInches: 1, HeightInches: 1, Contacts: &ContactSpec{Count: 2, PitchInches: 0.1, WidthInches: 0.2}}
	assert.Error(t, bad.Validate())
}
