package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcb-router/internal/board"
	"pcb-router/internal/item"
	"pcb-router/internal/rules"
	"pcb-router/pkg/geometry"
)

func pt(x, y float64) geometry.Point2D { return geometry.Point2D{X: x, Y: y} }

func testBoard(t *testing.T) *board.RoutingBoard {
	t.Helper()
	r := rules.New(2)
	vcc := r.Nets.Add("VCC", 1)
	b := board.New(geometry.NewRect(0, 0, 1000, 500),
		[]board.Layer{{Name: "top", IsSignal: true}, {Name: "bottom", IsSignal: true}}, r)
	require.NotNil(t, b.InsertTrace(geometry.NewPolyline(pt(100, 100), pt(400, 100)), 0, 5, []int{vcc.No}, 1, item.Unfixed))
	ps, err := item.NewRoundPadstack("via", 0, 1, 20)
	require.NoError(t, err)
	b.InsertVia(pt(400, 100), ps, []int{vcc.No}, 1, item.ShoveFixed)
	return b
}

func TestShapes(t *testing.T) {
	b := testBoard(t)

	all := Shapes(b, AllLayers)
	require.Len(t, all, 4, "outline, trace and the via on two layers")
	assert.Equal(t, KindOutline, all[0].Kind)
	assert.Equal(t, "trace", all[1].Kind)
	assert.Equal(t, []string{"VCC"}, all[1].Nets)
	assert.Equal(t, 5.0, all[1].HalfWidth)
	assert.Equal(t, "via", all[2].Kind)
	assert.Equal(t, 0, all[2].Layer)
	assert.Equal(t, 1, all[3].Layer)
	assert.Equal(t, "shove_fixed", all[3].Fixed)

	bottom := Shapes(b, 1)
	require.Len(t, bottom, 2)
	assert.Equal(t, "via", bottom[1].Kind)
}

func TestWriteWKT(t *testing.T) {
	b := testBoard(t)
	var buf bytes.Buffer
	require.NoError(t, WriteWKT(&buf, Shapes(b, 0)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "-1\toutline\t0\tPOLYGON (("), lines[0])
	fields := strings.Split(lines[1], "\t")
	require.Len(t, fields, 4)
	assert.Equal(t, "trace", fields[1])
	assert.True(t, strings.HasPrefix(fields[3], "LINESTRING ("), fields[3])
	assert.Contains(t, fields[3], "100 100")
	assert.Contains(t, fields[3], "400 100")
	assert.True(t, strings.HasPrefix(strings.Split(lines[2], "\t")[3], "POLYGON (("))
}

func TestGeoJSON(t *testing.T) {
	b := testBoard(t)
	data, err := GeoJSON(b, Shapes(b, 1))
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			ID         string         `json:"id"`
			Geometry   map[string]any `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)

	via := fc.Features[1]
	assert.Equal(t, "Polygon", via.Geometry["type"])
	assert.Equal(t, "via", via.Properties["kind"])
	assert.Equal(t, "bottom", via.Properties["layer_name"])
	assert.Equal(t, []any{"VCC"}, via.Properties["nets"])
	assert.Equal(t, "-1", fc.Features[0].ID)
}
