// Package export writes the copper of a routing board as WKT or GeoJSON, so
// shove results can be inspected in GIS viewers.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkt"

	"pcb-router/internal/board"
	"pcb-router/internal/item"
	"pcb-router/pkg/geometry"
)

// AllLayers selects every layer.
const AllLayers = -1

// KindOutline marks the board outline shape.
const KindOutline = "outline"

// Shape is one exported geometry.
type Shape struct {
	ID        item.ID
	Kind      string
	Layer     int
	Nets      []string
	Fixed     string
	HalfWidth float64 // traces only
	Geometry  geom.T
}

func ring(corners []geometry.Point2D) []float64 {
	flat := make([]float64, 0, 2*len(corners)+2)
	for _, c := range corners {
		flat = append(flat, c.X, c.Y)
	}
	if len(corners) > 0 {
		flat = append(flat, corners[0].X, corners[0].Y)
	}
	return flat
}

func polygon(corners []geometry.Point2D) *geom.Polygon {
	flat := ring(corners)
	return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})
}

func lineString(p geometry.Polyline) *geom.LineString {
	flat := make([]float64, 0, 2*len(p.Corners))
	for _, c := range p.Corners {
		flat = append(flat, c.X, c.Y)
	}
	return geom.NewLineStringFlat(geom.XY, flat)
}

// Shapes collects the outline and the item shapes on layer, or on all layers
// for AllLayers. Traces are exported as centre lines, everything else as
// polygons, one per layer.
func Shapes(b *board.RoutingBoard, layer int) []Shape {
	r := b.Bounds()
	out := []Shape{{
		ID:    board.OutlineID,
		Kind:  KindOutline,
		Layer: layer,
		Geometry: polygon([]geometry.Point2D{
			{X: r.X, Y: r.Y}, {X: r.MaxX(), Y: r.Y}, {X: r.MaxX(), Y: r.MaxY()}, {X: r.X, Y: r.MaxY()},
		}),
	}}

	nets := b.Rules().Nets
	for _, it := range b.Items() {
		names := make([]string, 0, len(it.Nets()))
		for _, n := range it.Nets() {
			names = append(names, nets.Name(n))
		}
		for l := it.FirstLayer(); l <= it.LastLayer(); l++ {
			if layer != AllLayers && l != layer {
				continue
			}
			s := Shape{ID: it.ID(), Kind: it.Kind().String(), Layer: l, Nets: names, Fixed: it.FixedState().String()}
			switch it := it.(type) {
			case *item.Trace:
				s.HalfWidth = it.HalfWidth()
				s.Geometry = lineString(it.Polyline())
			case item.DrillItem:
				shape := it.ShapeOn(l)
				if shape.IsEmpty() {
					continue
				}
				s.Geometry = polygon(shape.Corners())
			case *item.Area:
				s.Geometry = polygon(it.Polygon())
			default:
				continue
			}
			out = append(out, s)
		}
	}
	return out
}

// WriteWKT writes one tab separated line per shape: id, kind, layer and the
// WKT geometry.
func WriteWKT(w io.Writer, shapes []Shape) error {
	for _, s := range shapes {
		text, err := wkt.Marshal(s.Geometry)
		if err != nil {
			return errors.Wrapf(err, "encode %s %d", s.Kind, s.ID)
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", s.ID, s.Kind, s.Layer, text); err != nil {
			return errors.Wrap(err, "write wkt")
		}
	}
	return nil
}

// GeoJSON encodes the shapes as a feature collection. Layer names are taken
// from b.
func GeoJSON(b *board.RoutingBoard, shapes []Shape) ([]byte, error) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(shapes))}
	for _, s := range shapes {
		props := map[string]interface{}{
			"kind":  s.Kind,
			"layer": s.Layer,
		}
		if s.Layer >= 0 && s.Layer < b.LayerCount() {
			props["layer_name"] = b.Layers()[s.Layer].Name
		}
		if len(s.Nets) > 0 {
			props["nets"] = s.Nets
		}
		if s.Fixed != "" {
			props["fixed"] = s.Fixed
		}
		if s.HalfWidth > 0 {
			props["width"] = 2 * s.HalfWidth
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         strconv.Itoa(int(s.ID)),
			Geometry:   s.Geometry,
			Properties: props,
		})
	}
	data, err := json.Marshal(fc)
	return data, errors.Wrap(err, "encode geojson")
}
