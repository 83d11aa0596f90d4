package shove

import (
	"math"

	"pcb-router/pkg/geometry"
)

// NotCalculated marks a FromSide without an edge.
const NotCalculated = -1

// FromSide is the border edge of a shape from which a shove starts, with an
// optional point on that edge. Obstacles are ordered around the shape
// starting behind this point.
type FromSide struct {
	No       int
	Point    geometry.Point2D
	HasPoint bool
}

// Unknown returns a FromSide that lets the entries pick the edge themselves.
func Unknown() FromSide {
	return FromSide{No: NotCalculated}
}

// FromEdge returns the from side edge no without a point.
func FromEdge(no int) FromSide {
	return FromSide{No: no}
}

// FromEdgeAt returns the from side edge no entered at p.
func FromEdgeAt(no int, p geometry.Point2D) FromSide {
	return FromSide{No: no, Point: p, HasPoint: true}
}

// Calculated reports whether an edge is set.
func (f FromSide) Calculated() bool {
	return f.No >= 0
}

// FromSideOfPolyline walks back from segment index of poly and returns the
// first edge of shape crossed by an earlier segment. Without a crossing the
// border line meeting the first segment's line nearest to the first corner
// is taken.
func FromSideOfPolyline(poly geometry.Polyline, index int, shape geometry.TileShape) FromSide {
	for seg := index - 1; seg >= 0; seg-- {
		s := poly.Segment(seg)
		crossings := shape.EntrancePoints(geometry.NewPolyline(s.A, s.B))
		if len(crossings) == 0 {
			continue
		}
		edge := crossings[0].Edge
		a, b := shape.BorderLine(edge)
		p, ok := geometry.LineIntersection(s.A, s.B, a, b)
		if !ok {
			p = crossings[0].Point
		}
		return FromEdgeAt(edge, p)
	}
	if poly.SegmentCount() == 0 {
		return Unknown()
	}
	from := poly.FirstCorner()
	first := poly.Segment(0)
	result := Unknown()
	minDist := math.Inf(1)
	for i := 0; i < shape.BorderLineCount(); i++ {
		a, b := shape.BorderLine(i)
		p, ok := geometry.LineIntersection(first.A, first.B, a, b)
		if !ok {
			continue
		}
		if d := p.Distance(from); d < minDist {
			result, minDist = FromEdgeAt(i, p), d
		}
	}
	return result
}

// FromSideOfPoint returns the edge of shape nearest to p.
func FromSideOfPoint(p geometry.Point2D, shape geometry.TileShape) FromSide {
	q, _ := shape.NearestBorderPoint(p)
	no := shape.ContainsOnBorderLine(q)
	if no < 0 {
		return Unknown()
	}
	return FromEdgeAt(no, q)
}

// FromSideOfSegment finds the edge of shape where seg starts and returns the
// edge two steps to the left or right of it, with the edge midpoint.
func FromSideOfSegment(seg geometry.Segment, shape geometry.TileShape, shoveLeft bool) FromSide {
	n := shape.BorderLineCount()
	if n == 0 {
		return Unknown()
	}
	prevSide := seg.SideOf(shape.Corner(0))
	front := -1
	for i := 1; i <= n; i++ {
		nextSide := seg.SideOf(shape.Corner(i))
		if prevSide != nextSide {
			a, b := shape.BorderLine(i - 1)
			p, ok := geometry.LineIntersection(a, b, seg.A, seg.B)
			if ok && p.DistanceSquare(seg.A) < p.DistanceSquare(seg.B) {
				front = i - 1
				break
			}
		}
		prevSide = nextSide
	}
	if front < 0 {
		return Unknown()
	}
	var no int
	if shoveLeft {
		no = (front + 2) % n
	} else {
		no = (front + n - 2) % n
	}
	mid := shape.Corner(no).Add(shape.Corner(no + 1)).Scale(0.5)
	return FromEdgeAt(no, mid)
}
