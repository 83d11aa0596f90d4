package shove

import (
	"pcb-router/internal/item"
	"pcb-router/pkg/geometry"
)

// shapeAndFromSide returns the shape of segment index of t used to push
// obstacles out of the way, together with the side the push starts from.
// Near the trace ends the pen shape is cut off at the end corners so that
// it does not reach behind the trace. In orthogonal mode the bounding box
// of the segment is used unchanged.
func shapeAndFromSide(t *item.Trace, index int, orthogonal, inShoveCheck bool) (geometry.TileShape, FromSide) {
	poly := t.Polyline()
	seg := poly.Segment(index)
	hw := t.HalfWidth()
	shape := geometry.SegmentTile(seg.A, seg.B, hw)
	from := Unknown()
	if orthogonal {
		return shape.BoundingBox(), from
	}
	last := poly.SegmentCount() - 1

	endCut := false
	endDir := poly.Segment(last).Direction().Unit()
	endOff := endDir.Dot(poly.LastCorner())
	if index == last || poly.LastCorner().Distance(poly.Corners[index+1]) < hw {
		if cut := shape.CutOff(endDir, endOff); !cut.IsEmpty() && cut.Area() < shape.Area()-geometry.Epsilon {
			shape = cut
			endCut = true
		}
	}
	if index == 0 || poly.FirstCorner().Distance(poly.Corners[index]) < hw {
		n := poly.Segment(0).Direction().Unit().Scale(-1)
		off := n.Dot(poly.FirstCorner())
		if cut := shape.CutOff(n, off); !cut.IsEmpty() && cut.Area() < shape.Area()-geometry.Epsilon {
			shape = cut
			if no := shape.EdgeOnLine(n, off); no >= 0 {
				from = FromEdgeAt(no, poly.FirstCorner())
			}
		}
	}
	if !from.Calculated() && endCut {
		if no := shape.EdgeOnLine(endDir, endOff); no >= 0 {
			from = FromEdgeAt(no, poly.LastCorner())
		}
	}
	if !from.Calculated() && !inShoveCheck {
		from = FromSideOfPolyline(poly, index, shape)
	}
	return shape, from
}
