package shove

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcb-router/internal/board"
	"pcb-router/internal/config"
	"pcb-router/internal/item"
	"pcb-router/internal/metrics"
	"pcb-router/internal/rules"
	"pcb-router/pkg/geometry"
)

func newTestEngine(t *testing.T, b *board.RoutingBoard) (*Engine, *metrics.Collector) {
	t.Helper()
	c, err := metrics.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)
	return NewEngine(b, config.Default().Engine, WithMetrics(c)), c
}

func TestNewEngineAppliesConfig(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	cfg := config.Default().Engine
	cfg.MinTraceHalfWidth = 7
	cfg.PullTightPasses = 3
	e := NewEngine(b, cfg, WithLogger(nil))
	assert.Same(t, b, e.Board())
	assert.Equal(t, 7.0, e.Shover().MinTraceHalfWidth)
	assert.Equal(t, 3, e.Shover().PullTightPasses)
}

func TestEngineInsertVia(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	insertTrace(t, b, 0, netOther, item.Unfixed, pt(100, 500), pt(900, 500))
	e, c := newTestEngine(t, b)

	out := e.InsertVia(context.Background(), viaRequest(t, 0))
	require.True(t, out.OK)
	assert.NotZero(t, out.Created)
	assert.Equal(t, Drillable, out.Verdict)
	assert.Equal(t, -1, out.FailingLayer)
	_, isVia := b.Item(out.Created).(*item.Via)
	assert.True(t, isVia)
	assert.Empty(t, b.ClearanceViolations())
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Operations.WithLabelValues("insert_via", metrics.ResultOK)))
	assert.Zero(t, testutil.ToFloat64(c.Rollbacks))
}

func TestEngineInsertViaRollsBack(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	insertTrace(t, b, 0, netOther, item.Unfixed, pt(100, 500), pt(900, 500))
	fixed := insertTrace(t, b, 1, netThird, item.ShoveFixed, pt(500, 100), pt(500, 900))
	before := b.Items()
	areas := b.ChangedAreas()
	e, c := newTestEngine(t, b)

	out := e.InsertVia(context.Background(), viaRequest(t, 0))
	assert.False(t, out.OK)
	assert.Zero(t, out.Created)
	assert.Equal(t, fixed.ID(), out.FailingObstacle)
	assert.Equal(t, 1, out.FailingLayer)
	assert.Equal(t, before, b.Items())
	assert.Equal(t, areas, b.ChangedAreas(), "the shove on layer 0 is forgotten")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Rollbacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Failures.WithLabelValues("trace")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Operations.WithLabelValues("insert_via", metrics.ResultFailed)))
}

func TestEngineCheckViaLeavesBoard(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	insertTrace(t, b, 0, netOther, item.Unfixed, pt(100, 500), pt(900, 500))
	before := b.Items()
	e, c := newTestEngine(t, b)

	out := e.CheckVia(context.Background(), viaRequest(t, 0))
	assert.True(t, out.OK)
	assert.Equal(t, Drillable, out.Verdict)
	assert.Equal(t, before, b.Items())
	assert.Zero(t, testutil.ToFloat64(c.Rollbacks))
}

func TestEngineCancelledContext(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	before := b.Items()
	e, c := newTestEngine(t, b)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := e.InsertVia(ctx, viaRequest(t, 0))
	assert.False(t, out.OK)
	assert.Zero(t, out.Created)
	assert.Zero(t, out.FailingObstacle)
	assert.Equal(t, before, b.Items())
	assert.Zero(t, testutil.ToFloat64(c.Rollbacks), "nothing to roll back")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Operations.WithLabelValues("insert_via", metrics.ResultFailed)))
}

func TestEngineTimeLimitFollowsContext(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	e, _ := newTestEngine(t, b)
	assert.Nil(t, e.timeLimit(context.Background()), "no limit configured")

	d := time.Now().Add(time.Hour)
	ctx, cancel := context.WithDeadline(context.Background(), d)
	defer cancel()
	tl := e.timeLimit(ctx)
	require.NotNil(t, tl)
	assert.True(t, tl.deadline.Equal(d))

	e.cfg.TimeLimitMillis = 10
	tl = e.timeLimit(ctx)
	require.NotNil(t, tl)
	assert.True(t, tl.deadline.Before(d), "configured limit is sooner")
}

func TestEngineCheckPadOutsideBoard(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	e, c := newTestEngine(t, b)

	out := e.CheckPad(context.Background(), PadSpec{
		Shape:          geometry.NewBox(geometry.NewRect(990, 990, 20, 20)),
		Nets:           []int{netPad},
		ClearanceClass: clDef,
	})
	assert.False(t, out.OK)
	assert.Equal(t, NotDrillable, out.Verdict)
	assert.Equal(t, board.OutlineID, out.FailingObstacle)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Failures.WithLabelValues("outline")))
}

func TestEngineForcePad(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	insertTrace(t, b, 0, netOther, item.Unfixed, pt(100, 500), pt(900, 500))
	e, _ := newTestEngine(t, b)

	out := e.ForcePad(context.Background(), PadSpec{Shape: padBox(), Nets: []int{netPad}, ClearanceClass: clDef})
	require.True(t, out.OK)
	assert.Empty(t, b.OverlappingItemsWithClearance(padBox(), 0, []int{netPad}, clDef))
}

func TestEngineForcePadNestedTraces(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	insertTrace(t, b, 0, netOther, item.Unfixed, pt(100, 450), pt(900, 450))
	insertTrace(t, b, 0, netThird, item.Unfixed, pt(100, 550), pt(900, 550))
	before := b.Items()
	e, _ := newTestEngine(t, b)
	pad := PadSpec{Shape: padBox(), Nets: []int{netPad}, ClearanceClass: clDef}

	checked := e.CheckPad(context.Background(), pad)
	assert.False(t, checked.OK)
	assert.Equal(t, NotDrillable, checked.Verdict)

	forced := e.ForcePad(context.Background(), pad)
	assert.False(t, forced.OK)
	assert.Equal(t, NotDrillable, forced.Verdict)
	assert.Equal(t, before, b.Items())
}

func TestEngineInsertTraceAcrossUnfixedTrace(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	insertTrace(t, b, 0, netOther, item.Unfixed, pt(500, 100), pt(500, 900))
	e, _ := newTestEngine(t, b)

	out := e.InsertTrace(context.Background(), TraceSpec{
		Polyline:       geometry.NewPolyline(pt(100, 500), pt(900, 500)),
		HalfWidth:      5,
		Nets:           []int{netPad},
		ClearanceClass: clDef,
	})
	require.True(t, out.OK)
	assert.NotZero(t, out.Created)
	assert.Empty(t, b.ClearanceViolations())

	traces := b.Traces()
	require.Len(t, traces, 2)
	for _, tr := range traces {
		if tr.Nets()[0] == netOther {
			assert.True(t, endsAt(tr.Polyline(), pt(500, 100), pt(500, 900)), "got %v", tr.Polyline().Corners)
		}
	}
}

func TestEngineInsertEmptyTraceFails(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	e, c := newTestEngine(t, b)
	out := e.InsertTrace(context.Background(), TraceSpec{HalfWidth: 5, Nets: []int{netPad}, ClearanceClass: clDef})
	assert.False(t, out.OK)
	assert.Empty(t, b.Items())
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Failures.WithLabelValues("unknown")))
}

func TestEngineUnknownItems(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	tr := insertTrace(t, b, 0, netOther, item.Unfixed, pt(100, 100), pt(300, 100))
	e, _ := newTestEngine(t, b)
	ctx := context.Background()

	_, err := e.MoveVia(ctx, 999, pt(10, 0))
	assert.True(t, errors.Is(err, board.ErrItemNotFound))
	_, err = e.MoveVia(ctx, tr.ID(), pt(10, 0))
	assert.True(t, errors.Is(err, board.ErrItemNotFound), "a trace is not a via")
	_, err = e.PullTight(ctx, 999)
	assert.True(t, errors.Is(err, board.ErrItemNotFound))
	_, err = e.OptimizeVia(ctx, tr.ID())
	assert.True(t, errors.Is(err, board.ErrItemNotFound))
}

func TestEngineMoveVia(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	insertTrace(t, b, 0, netPad, item.Unfixed, pt(100, 500), pt(500, 500))
	v := b.InsertVia(pt(500, 500), roundPadstack(t, 0, 0, 20), []int{netPad}, clDef, item.Unfixed)
	e, _ := newTestEngine(t, b)

	out, err := e.MoveVia(context.Background(), v.ID(), pt(0, 100))
	require.NoError(t, err)
	require.True(t, out.OK)
	assert.True(t, b.Item(v.ID()).(*item.Via).Center().Equal(pt(500, 600)))
}

func TestEnginePullTight(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	tr := insertTrace(t, b, 0, netOther, item.Unfixed, pt(100, 100), pt(200, 100), pt(200, 200), pt(300, 200))
	e, _ := newTestEngine(t, b)

	out, err := e.PullTight(context.Background(), tr.ID())
	require.NoError(t, err)
	require.True(t, out.OK)
	placed := b.Item(out.Created).(*item.Trace)
	assert.Equal(t, 1, placed.Polyline().SegmentCount())
}

func TestEngineOptimizeChangedArea(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	insertTrace(t, b, 0, netOther, item.Unfixed, pt(100, 100), pt(200, 100), pt(200, 200))
	insertTrace(t, b, 0, netThird, item.Unfixed, pt(600, 600), pt(700, 600), pt(700, 700))
	e, _ := newTestEngine(t, b)
	ctx := context.Background()

	assert.Zero(t, e.OptimizeChangedArea(ctx))

	b.JoinChangedArea(pt(150, 50), 0)
	b.JoinChangedArea(pt(250, 150), 0)
	assert.Equal(t, 1, e.OptimizeChangedArea(ctx))
	assert.True(t, b.ChangedArea(0).IsEmpty())
}

func TestEngineShovableLength(t *testing.T) {
	b := newTestBoard(t, rules.AngleNone)
	insertTrace(t, b, 0, netThird, item.ShoveFixed, pt(700, 100), pt(700, 900))
	e, _ := newTestEngine(t, b)

	got := e.ShovableLength(context.Background(), seg(pt(100, 500), pt(900, 500)), true,
		TraceSpec{HalfWidth: 5, Nets: []int{netPad}, ClearanceClass: clDef})
	assert.Zero(t, got)
}
