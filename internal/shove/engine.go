package shove

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"pcb-router/internal/board"
	"pcb-router/internal/config"
	"pcb-router/internal/item"
	"pcb-router/internal/logging"
	"pcb-router/internal/metrics"
	"pcb-router/pkg/geometry"
)

// Outcome is the result of an engine operation.
type Outcome struct {
	OK      bool
	Verdict DrillVerdict
	// FailingObstacle is the item blocking a failed operation: zero if
	// unknown, board.OutlineID for the board outline.
	FailingObstacle item.ID
	FailingLayer    int
	// Created is the id of an inserted via or trace.
	Created item.ID
}

// Engine runs shove operations on one board inside undo transactions.
// Failed inserts are rolled back, so the board only ever sees complete
// operations. An Engine must not be used concurrently.
type Engine struct {
	board   *board.RoutingBoard
	shover  *Shover
	cfg     config.Engine
	log     logging.Logger
	metrics *metrics.Collector
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger; the default drops all logs.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine returns an engine for b using the budgets in cfg.
func NewEngine(b *board.RoutingBoard, cfg config.Engine, opts ...Option) *Engine {
	e := &Engine{
		board:  b,
		shover: New(b),
		cfg:    cfg,
		log:    logging.Noop(),
	}
	if cfg.MinTraceHalfWidth > 0 {
		e.shover.MinTraceHalfWidth = cfg.MinTraceHalfWidth
	}
	if cfg.PullTightPasses > 0 {
		e.shover.PullTightPasses = cfg.PullTightPasses
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Board returns the board the engine works on.
func (e *Engine) Board() *board.RoutingBoard { return e.board }

// Shover returns the underlying algorithms.
func (e *Engine) Shover() *Shover { return e.shover }

// timeLimit combines the configured limit with the deadline of ctx,
// whichever comes first.
func (e *Engine) timeLimit(ctx context.Context) *TimeLimit {
	tl := NewTimeLimit(e.cfg.TimeLimit())
	if d, ok := ctx.Deadline(); ok && (tl == nil || d.Before(tl.deadline)) {
		return Deadline(d)
	}
	return tl
}

func (e *Engine) outcome(ok bool) Outcome {
	out := Outcome{OK: ok, FailingLayer: -1}
	if !ok {
		out.FailingObstacle, out.FailingLayer = e.board.FailingObstacle()
	}
	return out
}

// run executes fn and records the result. With commit set fn runs inside
// a transaction which is rolled back when fn fails.
func (e *Engine) run(ctx context.Context, op string, commit bool, fn func(tl *TimeLimit) Outcome) Outcome {
	start := time.Now()
	ctx, log := logging.WithOperationLogger(ctx, e.log)
	log = log.With(logging.String("operation", op))
	e.board.ClearFailingObstacle()

	if err := ctx.Err(); err != nil {
		log.Info(ctx, "operation not started", logging.Err(err))
		e.metrics.ObserveOperation(op, false, 0)
		return e.outcome(false)
	}

	var out Outcome
	if commit {
		tx := e.board.BeginTransaction()
		areas := e.board.ChangedAreas()
		out = fn(e.timeLimit(ctx))
		if out.OK {
			if err := tx.Commit(); err != nil {
				log.Error(ctx, "commit failed", logging.Err(err))
				out.OK = false
			}
		} else {
			if err := tx.Rollback(); err != nil {
				log.Error(ctx, "rollback failed", logging.Err(err))
			}
			e.board.RestoreChangedAreas(areas)
			e.metrics.IncRollback()
		}
	} else {
		out = fn(e.timeLimit(ctx))
	}

	e.metrics.ObserveOperation(op, out.OK, time.Since(start).Seconds())
	if out.OK {
		log.Debug(ctx, "operation succeeded", logging.Any("duration", time.Since(start)))
		return out
	}
	kind := e.obstacleKind(out.FailingObstacle)
	e.metrics.IncFailure(kind)
	log.Info(ctx, "operation failed",
		logging.Int("failing_obstacle", int(out.FailingObstacle)),
		logging.String("obstacle_kind", kind),
		logging.Int("layer", out.FailingLayer))
	return out
}

func (e *Engine) obstacleKind(id item.ID) string {
	switch id {
	case 0:
		return "unknown"
	case board.OutlineID:
		return "outline"
	}
	if it := e.board.Item(id); it != nil {
		return it.Kind().String()
	}
	return "removed"
}

// PadSpec is a pad shape to check or force in on one layer.
type PadSpec struct {
	Shape          geometry.TileShape
	Layer          int
	Nets           []int
	ClearanceClass int
	CopperSharing  bool
}

func (e *Engine) padRequest(p PadSpec, tl *TimeLimit) PadRequest {
	return PadRequest{
		Shape:          p.Shape,
		From:           e.shover.calcFromSide(p.Shape, p.Shape.Center(), p.Layer, e.shover.MinTraceHalfWidth, p.ClearanceClass),
		Layer:          p.Layer,
		Nets:           p.Nets,
		ClearanceClass: p.ClearanceClass,
		CopperSharing:  p.CopperSharing,
		Depth:          e.cfg.MaxRecursionDepth,
		ViaDepth:       e.cfg.MaxViaRecursionDepth,
		TimeLimit:      tl,
	}
}

// CheckPad checks whether the pad can be forced in. The board is not changed.
func (e *Engine) CheckPad(ctx context.Context, p PadSpec) Outcome {
	return e.run(ctx, "check_pad", false, func(tl *TimeLimit) Outcome {
		v := e.shover.CheckForcedPad(e.padRequest(p, tl))
		out := e.outcome(v != NotDrillable)
		out.Verdict = v
		return out
	})
}

// ForcePad makes room for the pad by shoving obstacles aside. The pad
// itself is not inserted. A pad the check rejects is not tried.
func (e *Engine) ForcePad(ctx context.Context, p PadSpec) Outcome {
	return e.run(ctx, "force_pad", true, func(tl *TimeLimit) Outcome {
		req := e.padRequest(p, tl)
		v := e.shover.CheckForcedPad(req)
		if v == NotDrillable {
			out := e.outcome(false)
			out.Verdict = v
			return out
		}
		req.TimeLimit = nil
		out := e.outcome(e.shover.ForcedPad(req))
		if out.OK {
			out.Verdict = v
		}
		return out
	})
}

func (e *Engine) withBudgets(req ViaRequest) ViaRequest {
	req.Depth = e.cfg.MaxRecursionDepth
	req.ViaDepth = e.cfg.MaxViaRecursionDepth
	return req
}

// CheckVia checks whether a via can be placed. The board is not changed.
func (e *Engine) CheckVia(ctx context.Context, req ViaRequest) Outcome {
	return e.run(ctx, "check_via", false, func(*TimeLimit) Outcome {
		ok := e.shover.CheckVia(e.withBudgets(req))
		out := e.outcome(ok)
		if ok {
			out.Verdict = Drillable
		}
		return out
	})
}

// InsertVia shoves the obstacles aside and inserts the via.
func (e *Engine) InsertVia(ctx context.Context, req ViaRequest) Outcome {
	return e.run(ctx, "insert_via", true, func(*TimeLimit) Outcome {
		v := e.shover.InsertVia(e.withBudgets(req))
		out := e.outcome(v != nil)
		if v != nil {
			out.Created = v.ID()
			out.Verdict = Drillable
		}
		return out
	})
}

// MoveVia moves the via with id by delta.
func (e *Engine) MoveVia(ctx context.Context, id item.ID, delta geometry.Point2D) (Outcome, error) {
	v, ok := e.board.Item(id).(*item.Via)
	if !ok {
		return Outcome{}, errors.Wrapf(board.ErrItemNotFound, "via %d", id)
	}
	return e.run(ctx, "move_via", true, func(tl *TimeLimit) Outcome {
		if !e.shover.CheckMoveDrill(v, delta, e.cfg.MaxRecursionDepth, e.cfg.MaxViaRecursionDepth, nil, tl) {
			return e.outcome(false)
		}
		return e.outcome(e.shover.MoveDrill(v, delta, e.cfg.MaxRecursionDepth, e.cfg.MaxViaRecursionDepth))
	}), nil
}

// TraceSpec is a trace to check or route.
type TraceSpec struct {
	Polyline       geometry.Polyline
	Layer          int
	HalfWidth      float64
	Nets           []int
	ClearanceClass int
}

// CheckTrace checks whether every segment of the trace can be shoved in.
// The board is not changed.
func (e *Engine) CheckTrace(ctx context.Context, ts TraceSpec) Outcome {
	return e.run(ctx, "check_trace", false, func(tl *TimeLimit) Outcome {
		poly := ts.Polyline
		for i := 0; i < poly.SegmentCount(); i++ {
			ok := e.shover.CheckTraceSegment(poly.Segment(i), ts.Layer, ts.HalfWidth, ts.Nets, ts.ClearanceClass,
				e.cfg.MaxRecursionDepth, e.cfg.MaxViaRecursionDepth, e.cfg.SpringOverDepth, tl)
			if !ok {
				return e.outcome(false)
			}
		}
		return e.outcome(true)
	})
}

// InsertTrace routes the trace around fixed obstacles, shoves the other
// obstacles aside and inserts it.
func (e *Engine) InsertTrace(ctx context.Context, ts TraceSpec) Outcome {
	return e.run(ctx, "insert_trace", true, func(*TimeLimit) Outcome {
		poly := ts.Polyline
		if poly.IsEmpty() {
			return e.outcome(false)
		}
		if e.cfg.SpringOverDepth > 0 {
			if sprung := e.shover.SpringOverObstacles(poly, ts.HalfWidth, ts.Layer, ts.Nets, ts.ClearanceClass, nil); !sprung.IsEmpty() {
				poly = sprung
			}
		}
		t := item.NewTrace(poly, ts.Layer, ts.HalfWidth, ts.Nets, ts.ClearanceClass, item.Unfixed)
		for i := 0; i < poly.SegmentCount(); i++ {
			tile, from := shapeAndFromSide(t, i, false, false)
			ok := e.shover.insertShoveTrace(traceShove{
				shape:      tile,
				from:       from,
				layer:      ts.Layer,
				nets:       ts.Nets,
				clClass:    ts.ClearanceClass,
				depth:      e.cfg.MaxRecursionDepth,
				viaDepth:   e.cfg.MaxViaRecursionDepth,
				springOver: e.cfg.SpringOverDepth,
			})
			if !ok {
				return e.outcome(false)
			}
		}
		e.shover.joinChanged(poly, ts.Layer)
		placed := e.board.Insert(t).(*item.Trace)
		e.board.NormalizeTrace(placed)
		out := e.outcome(true)
		out.Created = placed.ID()
		return out
	})
}

// ShovableLength returns how far a trace can be pushed along seg; see
// Shover.ShovableLength.
func (e *Engine) ShovableLength(ctx context.Context, seg geometry.Segment, shoveLeft bool, ts TraceSpec) float64 {
	var length float64
	e.run(ctx, "shovable_length", false, func(*TimeLimit) Outcome {
		length = e.shover.ShovableLength(seg, shoveLeft, ts.Layer, ts.HalfWidth, ts.Nets, ts.ClearanceClass, e.cfg.MaxRecursionDepth, e.cfg.MaxViaRecursionDepth)
		return e.outcome(length > 0)
	})
	return length
}

// PullTight pulls the trace with id tight.
func (e *Engine) PullTight(ctx context.Context, id item.ID) (Outcome, error) {
	t, ok := e.board.Item(id).(*item.Trace)
	if !ok {
		return Outcome{}, errors.Wrapf(board.ErrItemNotFound, "trace %d", id)
	}
	return e.run(ctx, "pull_tight", true, func(tl *TimeLimit) Outcome {
		placed, _ := e.shover.PullTight(t, geometry.EmptyRect(), tl)
		out := e.outcome(true)
		out.Created = placed.ID()
		return out
	}), nil
}

// OptimizeVia moves the via with id to a cheaper place if there is one.
// The outcome is OK only if the via moved.
func (e *Engine) OptimizeVia(ctx context.Context, id item.ID) (Outcome, error) {
	v, ok := e.board.Item(id).(*item.Via)
	if !ok {
		return Outcome{}, errors.Wrapf(board.ErrItemNotFound, "via %d", id)
	}
	return e.run(ctx, "optimize_via", true, func(tl *TimeLimit) Outcome {
		return e.outcome(e.shover.OptimizeVia(v, e.cfg.MaxRecursionDepth, e.cfg.MaxViaRecursionDepth, tl))
	}), nil
}

// OptimizeChangedArea pulls tight the traces and optimises the vias in the
// changed area of every layer, then resets the changed area. It returns the
// number of changed items.
func (e *Engine) OptimizeChangedArea(ctx context.Context) int {
	count := 0
	e.run(ctx, "optimize_changed_area", true, func(tl *TimeLimit) Outcome {
		var areas []geometry.Rect
		for l := 0; l < e.board.LayerCount(); l++ {
			areas = append(areas, e.board.ChangedArea(l))
		}
		count = e.shover.PullTightChangedArea(tl)
		for _, d := range e.board.DrillItems() {
			v, ok := d.(*item.Via)
			if !ok || !touchesAny(v, areas) {
				continue
			}
			if cur, ok := e.board.Item(v.ID()).(*item.Via); ok && e.shover.OptimizeVia(cur, e.cfg.MaxRecursionDepth, e.cfg.MaxViaRecursionDepth, tl) {
				count++
			}
		}
		e.board.ResetChangedArea()
		return e.outcome(true)
	})
	return count
}

func touchesAny(v *item.Via, areas []geometry.Rect) bool {
	for l := v.FirstLayer(); l <= v.LastLayer() && l < len(areas); l++ {
		if !areas[l].IsEmpty() && areas[l].Intersects(v.Bounds()) {
			return true
		}
	}
	return false
}
