package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcb-router/internal/board"
	"pcb-router/internal/config"
	"pcb-router/internal/item"
	"pcb-router/internal/rules"
	"pcb-router/internal/shove"
)

const viaScenario = `
version: 1
name: via through a trace
board:
  width: 1000
  height: 1000
  layers: [top, bottom]
rules:
  angle: "45"
  clearances:
    - {a: default, b: default, value: 10}
  nets:
    - {name: GND}
    - {name: D10}
    - {name: D2}
  trace_costs:
    - {layer: bottom, horizontal: 2, vertical: 1}
items:
  traces:
    - layer: top
      width: 10
      net: D2
      points: [[100, 500], [900, 500]]
  areas:
    - kind: keepout
      layer: bottom
      polygon: [[0, 0], [50, 0], [50, 50], [0, 50]]
      fixed: system_fixed
operations:
  - op: check_via
    at: [500, 500]
    padstack: {from: top, to: bottom, radius: 20}
    net: GND
    expect: ok
  - op: insert_via
    at: [500, 500]
    padstack: {from: top, to: bottom, radius: 20}
    net: GND
    expect: ok
  - op: drc
    expect: ok
  - op: pull_tight
    item: 99
`

func buildAndRun(t *testing.T, src string) (*board.RoutingBoard, []Result, error) {
	t.Helper()
	f, err := Parse([]byte(src))
	require.NoError(t, err)
	b, err := f.Build()
	require.NoError(t, err)
	e := shove.NewEngine(b, config.Default().Engine)
	res, err := f.Run(context.Background(), e)
	return b, res, err
}

func TestBuildBoard(t *testing.T) {
	f, err := Parse([]byte(viaScenario))
	require.NoError(t, err)
	b, err := f.Build()
	require.NoError(t, err)

	assert.Equal(t, 2, b.LayerCount())
	assert.Equal(t, 1, b.LayerByName("bottom"))
	assert.Equal(t, rules.Angle45, b.Rules().Angle)
	assert.Equal(t, 10.0, b.Rules().Clearance.Value(1, 1, 0))
	assert.Equal(t, rules.TraceCost{Horizontal: 2, Vertical: 1}, b.Rules().TraceCostOn(1))
	assert.Equal(t, rules.TraceCost{Horizontal: 1, Vertical: 1}, b.Rules().TraceCostOn(0))

	items := b.Items()
	require.Len(t, items, 2)
	tr, ok := items[0].(*item.Trace)
	require.True(t, ok)
	d2, _ := b.Rules().Nets.ByName("D2")
	assert.Equal(t, []int{d2.No}, tr.Nets())
	assert.Equal(t, 5.0, tr.HalfWidth())
	assert.Equal(t, item.KindKeepout, items[1].Kind())
	assert.Equal(t, item.SystemFixed, items[1].FixedState())
}

func TestRunOperations(t *testing.T) {
	b, res, err := buildAndRun(t, viaScenario)
	require.NoError(t, err)
	require.Len(t, res, 4)

	assert.Equal(t, OpCheckVia, res[0].Op)
	assert.True(t, res[0].Outcome.OK)
	assert.Equal(t, shove.Drillable, res[0].Outcome.Verdict)

	assert.True(t, res[1].Outcome.OK)
	_, isVia := b.Item(res[1].Outcome.Created).(*item.Via)
	assert.True(t, isVia)

	assert.True(t, res[2].Outcome.OK)
	assert.Zero(t, res[2].Count)

	assert.True(t, errors.Is(res[3].Err, board.ErrItemNotFound))
	assert.Equal(t, 3, res[3].Index)

	failed, unexpected := Failed(res)
	assert.Equal(t, 1, failed)
	assert.Zero(t, unexpected)
}

func TestRunReportsUnexpected(t *testing.T) {
	src := `
board: {width: 1000, height: 1000, layers: [top]}
operations:
  - op: check_pad
    layer: top
    at: [1000, 1000]
    padstack: {width: 40, height: 40}
    expect: ok
`
	_, res, err := buildAndRun(t, src)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.False(t, res[0].Outcome.OK)
	assert.Equal(t, board.OutlineID, res[0].Outcome.FailingObstacle)
	assert.True(t, res[0].Unexpected)
}

func TestInvalidScenarios(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", "board: [1, 2"},
		{"newer version", "version: 9"},
		{"no layers", "board: {width: 10, height: 10}"},
		{"unknown preset", "preset: nubus"},
		{"unknown net", "board: {width: 10, height: 10, layers: [top]}\nitems:\n  traces:\n    - {layer: top, width: 1, net: X, points: [[1, 1], [5, 5]]}"},
		{"unknown layer", "board: {width: 10, height: 10, layers: [top]}\nitems:\n  traces:\n    - {layer: inner, width: 1, points: [[1, 1], [5, 5]]}"},
		{"unknown class", "board: {width: 10, height: 10, layers: [top]}\nrules:\n  nets: [{name: A, class: power}]"},
		{"bad fixed state", "board: {width: 10, height: 10, layers: [top]}\nitems:\n  traces:\n    - {layer: top, width: 1, fixed: glued, points: [[1, 1], [5, 5]]}"},
		{"area kind", "board: {width: 10, height: 10, layers: [top]}\nitems:\n  areas:\n    - {kind: copper, layer: top, polygon: [[0, 0], [5, 0], [5, 5]]}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.src))
			if err == nil {
				_, err = f.Build()
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}
}

func TestInvalidOperations(t *testing.T) {
	for _, op := range []string{
		"{op: teleport}",
		"{op: move_via, item: 1}",
		"{op: insert_via, padstack: {from: top, radius: 5}}",
		"{op: check_trace, layer: top, width: 2, points: [[1, 1]]}",
		"{op: drc, expect: maybe}",
	} {
		t.Run(op, func(t *testing.T) {
			_, _, err := buildAndRun(t, "board: {width: 100, height: 100, layers: [top]}\noperations: ["+op+"]")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}
}

func TestPresetScenario(t *testing.T) {
	f := &File{Name: "card", Preset: board.S100Spec().Name()}
	b, err := f.Build()
	require.NoError(t, err)
	assert.NotZero(t, b.Len())
	assert.Equal(t, board.ComponentLayer, b.Layers()[0].Name)
}

func TestSaveAndLoad(t *testing.T) {
	f, err := Parse([]byte(viaScenario))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "via.yaml")
	require.NoError(t, f.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, f, got)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
