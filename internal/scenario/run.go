package scenario

import (
	"context"

	"github.com/cockroachdb/errors"

	"pcb-router/internal/board"
	"pcb-router/internal/item"
	"pcb-router/internal/shove"
	"pcb-router/pkg/geometry"
)

// Operation names.
const (
	OpCheckPad            = "check_pad"
	OpForcePad            = "force_pad"
	OpCheckVia            = "check_via"
	OpInsertVia           = "insert_via"
	OpMoveVia             = "move_via"
	OpCheckTrace          = "check_trace"
	OpInsertTrace         = "insert_trace"
	OpShovableLength      = "shovable_length"
	OpPullTight           = "pull_tight"
	OpOptimizeVia         = "optimize_via"
	OpOptimizeChangedArea = "optimize_changed_area"
	OpDRC                 = "drc"
)

// Expectations of an operation.
const (
	ExpectOK   = "ok"
	ExpectFail = "fail"
)

// Result is the outcome of one operation.
type Result struct {
	Index   int
	Op      string
	Outcome shove.Outcome
	// Count is the number of optimised items or clearance violations.
	Count      int
	Length     float64
	Violations []board.Violation
	// Err is set when the operation names an item which does not exist.
	Err error
	// Unexpected is set when the outcome contradicts the operation's Expect.
	Unexpected bool
}

// Run executes the operations in order on the engine's board. A malformed
// operation stops the run with an ErrInvalid error.
func (f *File) Run(ctx context.Context, e *shove.Engine) ([]Result, error) {
	results := make([]Result, 0, len(f.Operations))
	r := resolver{e.Board()}
	for i, op := range f.Operations {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := r.run(ctx, e, op)
		if err != nil {
			return results, errors.Wrapf(err, "operation %d (%s)", i, op.Op)
		}
		res.Index = i
		res.Op = op.Op
		switch op.Expect {
		case "":
		case ExpectOK:
			res.Unexpected = !res.Outcome.OK
		case ExpectFail:
			res.Unexpected = res.Outcome.OK
		default:
			return results, errors.Wrapf(ErrInvalid, "operation %d: expect %q", i, op.Expect)
		}
		results = append(results, res)
	}
	return results, nil
}

func (r resolver) run(ctx context.Context, e *shove.Engine, op Operation) (Result, error) {
	switch op.Op {
	case OpCheckPad, OpForcePad:
		spec, err := r.padSpec(op)
		if err != nil {
			return Result{}, err
		}
		if op.Op == OpCheckPad {
			return Result{Outcome: e.CheckPad(ctx, spec)}, nil
		}
		return Result{Outcome: e.ForcePad(ctx, spec)}, nil

	case OpCheckVia, OpInsertVia:
		req, err := r.viaRequest(op)
		if err != nil {
			return Result{}, err
		}
		if op.Op == OpCheckVia {
			return Result{Outcome: e.CheckVia(ctx, req)}, nil
		}
		return Result{Outcome: e.InsertVia(ctx, req)}, nil

	case OpMoveVia:
		if op.Delta == nil {
			return Result{}, errors.Wrap(ErrInvalid, "missing delta")
		}
		out, err := e.MoveVia(ctx, item.ID(op.Item), op.Delta.geo())
		return Result{Outcome: out, Err: err}, nil

	case OpCheckTrace, OpInsertTrace, OpShovableLength:
		ts, err := r.traceSpec(op)
		if err != nil {
			return Result{}, err
		}
		switch op.Op {
		case OpCheckTrace:
			return Result{Outcome: e.CheckTrace(ctx, ts)}, nil
		case OpInsertTrace:
			return Result{Outcome: e.InsertTrace(ctx, ts)}, nil
		}
		if ts.Polyline.SegmentCount() != 1 {
			return Result{}, errors.Wrap(ErrInvalid, "shovable length needs exactly two points")
		}
		length := e.ShovableLength(ctx, ts.Polyline.Segment(0), op.Left, ts)
		return Result{Outcome: shove.Outcome{OK: length > 0, FailingLayer: -1}, Length: length}, nil

	case OpPullTight:
		out, err := e.PullTight(ctx, item.ID(op.Item))
		return Result{Outcome: out, Err: err}, nil

	case OpOptimizeVia:
		out, err := e.OptimizeVia(ctx, item.ID(op.Item))
		return Result{Outcome: out, Err: err}, nil

	case OpOptimizeChangedArea:
		n := e.OptimizeChangedArea(ctx)
		return Result{Outcome: shove.Outcome{OK: true, FailingLayer: -1}, Count: n}, nil

	case OpDRC:
		v := e.Board().ClearanceViolations()
		return Result{Outcome: shove.Outcome{OK: len(v) == 0, FailingLayer: -1}, Count: len(v), Violations: v}, nil
	}
	return Result{}, errors.Wrapf(ErrInvalid, "unknown operation %q", op.Op)
}

func (r resolver) at(op Operation) (geometry.Point2D, error) {
	if op.At == nil {
		return geometry.Point2D{}, errors.Wrap(ErrInvalid, "missing location")
	}
	return op.At.geo(), nil
}

func (r resolver) padSpec(op Operation) (shove.PadSpec, error) {
	at, err := r.at(op)
	if err != nil {
		return shove.PadSpec{}, err
	}
	if op.Padstack == nil {
		return shove.PadSpec{}, errors.Wrap(ErrInvalid, "missing padstack")
	}
	def := *op.Padstack
	if def.From == "" {
		def.From = op.Layer
	}
	ps, err := r.padstack(def)
	if err != nil {
		return shove.PadSpec{}, err
	}
	layer, err := r.layer(op.Layer)
	if err != nil {
		return shove.PadSpec{}, err
	}
	shape := ps.ShapeOn(layer)
	if shape.IsEmpty() {
		return shove.PadSpec{}, errors.Wrapf(ErrInvalid, "padstack has no pad on %s", op.Layer)
	}
	nets, cl, err := r.netAndClass(op.Net, op.Class)
	if err != nil {
		return shove.PadSpec{}, err
	}
	return shove.PadSpec{
		Shape:          shape.Translate(at),
		Layer:          layer,
		Nets:           nets,
		ClearanceClass: cl,
		CopperSharing:  ps.AttachAllowed,
	}, nil
}

func (r resolver) viaRequest(op Operation) (shove.ViaRequest, error) {
	at, err := r.at(op)
	if err != nil {
		return shove.ViaRequest{}, err
	}
	if op.Padstack == nil {
		return shove.ViaRequest{}, errors.Wrap(ErrInvalid, "missing padstack")
	}
	ps, err := r.padstack(*op.Padstack)
	if err != nil {
		return shove.ViaRequest{}, err
	}
	nets, cl, err := r.netAndClass(op.Net, op.Class)
	if err != nil {
		return shove.ViaRequest{}, err
	}
	req := shove.ViaRequest{
		Padstack:            ps,
		Location:            at,
		Nets:                nets,
		ClearanceClass:      cl,
		AttachSmd:           ps.AttachAllowed,
		TraceClearanceClass: cl,
	}
	if op.Width > 0 {
		req.TraceHalfWidths = make([]float64, r.b.LayerCount())
		for l := ps.FromLayer; l <= ps.ToLayer; l++ {
			req.TraceHalfWidths[l] = op.Width / 2
		}
	}
	return req, nil
}

func (r resolver) traceSpec(op Operation) (shove.TraceSpec, error) {
	layer, err := r.layer(op.Layer)
	if err != nil {
		return shove.TraceSpec{}, err
	}
	if op.Width <= 0 {
		return shove.TraceSpec{}, errors.Wrapf(ErrInvalid, "width %g", op.Width)
	}
	poly := geometry.NewPolyline(pointsOf(op.Points)...)
	if poly.SegmentCount() == 0 {
		return shove.TraceSpec{}, errors.Wrap(ErrInvalid, "trace needs two distinct points")
	}
	nets, cl, err := r.netAndClass(op.Net, op.Class)
	if err != nil {
		return shove.TraceSpec{}, err
	}
	return shove.TraceSpec{
		Polyline:       poly,
		Layer:          layer,
		HalfWidth:      op.Width / 2,
		Nets:           nets,
		ClearanceClass: cl,
	}, nil
}

// Failed counts results which failed or contradicted their expectation.
func Failed(results []Result) (failed, unexpected int) {
	for _, r := range results {
		if !r.Outcome.OK || r.Err != nil {
			failed++
		}
		if r.Unexpected {
			unexpected++
		}
	}
	return failed, unexpected
}
