package geometry

import (
	"math"
	"sort"
)

// ConvexHull computes the convex hull of a set of points using Graham scan.
// Returns the points forming the convex hull in counter-clockwise order.
// Collinear points on the hull border are dropped.
func ConvexHull(points []Point2D) []Point2D {
	pts := dedupe(points)
	if len(pts) < 3 {
		return pts
	}

	// Find the point with lowest y (and leftmost if tied)
	lowest := 0
	for i := 1; i < len(pts); i++ {
		if pts[i].Y < pts[lowest].Y ||
			(pts[i].Y == pts[lowest].Y && pts[i].X < pts[lowest].X) {
			lowest = i
		}
	}
	pts[0], pts[lowest] = pts[lowest], pts[0]
	pivot := pts[0]

	sorted := pts[1:]
	sort.SliceStable(sorted, func(i, j int) bool {
		cross := crossProduct(pivot, sorted[i], sorted[j])
		if math.Abs(cross) > 1e-12 {
			return cross > 0
		}
		return distSq(pivot, sorted[i]) < distSq(pivot, sorted[j])
	})

	hull := []Point2D{pivot}
	for _, p := range sorted {
		for len(hull) > 1 && crossProduct(hull[len(hull)-2], hull[len(hull)-1], p) <= 1e-12 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull
}

// IsConvex returns true if the polygon vertices form a convex polygon.
// The polygon is assumed to be simple (non-self-intersecting).
func IsConvex(polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	n := len(polygon)
	var sign int

	for i := 0; i < n; i++ {
		cross := crossProduct(polygon[i], polygon[(i+1)%n], polygon[(i+2)%n])
		if math.Abs(cross) > 1e-12 {
			currentSign := 1
			if cross < 0 {
				currentSign = -1
			}
			if sign == 0 {
				sign = currentSign
			} else if currentSign != sign {
				return false
			}
		}
	}
	return true
}

// IntersectPolygons computes the intersection of two convex polygons using
// the Sutherland-Hodgman algorithm. Both input polygons must be convex and
// counter-clockwise. Returns nil if there is no intersection.
func IntersectPolygons(subject, clip []Point2D) []Point2D {
	if len(subject) < 3 || len(clip) < 3 {
		return nil
	}

	output := make([]Point2D, len(subject))
	copy(output, subject)

	for i := 0; i < len(clip); i++ {
		if len(output) == 0 {
			return nil
		}
		output = clipPolygonByEdge(output, clip[i], clip[(i+1)%len(clip)])
	}

	if len(output) < 3 {
		return nil
	}
	return output
}

// clipPolygonByEdge clips a polygon against a single edge using
// the Sutherland-Hodgman algorithm.
func clipPolygonByEdge(polygon []Point2D, edgeStart, edgeEnd Point2D) []Point2D {
	var clipped []Point2D

	for i := 0; i < len(polygon); i++ {
		current := polygon[i]
		next := polygon[(i+1)%len(polygon)]

		currentInside := isInsideEdge(current, edgeStart, edgeEnd)
		nextInside := isInsideEdge(next, edgeStart, edgeEnd)

		if currentInside {
			clipped = append(clipped, current)
			if !nextInside {
				if p, ok := LineIntersection(current, next, edgeStart, edgeEnd); ok {
					clipped = append(clipped, p)
				}
			}
		} else if nextInside {
			if p, ok := LineIntersection(current, next, edgeStart, edgeEnd); ok {
				clipped = append(clipped, p)
			}
		}
	}
	return clipped
}

// isInsideEdge checks if a point is on the inside (left side) of the directed edge.
func isInsideEdge(p, edgeStart, edgeEnd Point2D) bool {
	return crossProduct(edgeStart, edgeEnd, p) >= 0
}

// clipHalfPlane keeps the part of a convex polygon with n·x <= offset.
func clipHalfPlane(polygon []Point2D, n Point2D, offset float64) []Point2D {
	var clipped []Point2D
	for i := range polygon {
		cur := polygon[i]
		next := polygon[(i+1)%len(polygon)]
		dc := n.Dot(cur) - offset
		dn := n.Dot(next) - offset
		if dc <= 0 {
			clipped = append(clipped, cur)
		}
		if (dc < 0 && dn > 0) || (dc > 0 && dn < 0) {
			t := dc / (dc - dn)
			clipped = append(clipped, cur.Add(next.Sub(cur).Scale(t)))
		}
	}
	return dedupe(clipped)
}

// PointInPolygon tests if a point is inside a polygon using ray casting.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := polygon[i], polygon[j]
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}
	return inside
}

// SignedArea returns the area of the polygon, positive for counter-clockwise order.
func SignedArea(polygon []Point2D) float64 {
	var a float64
	n := len(polygon)
	for i := 0; i < n; i++ {
		a += polygon[i].Cross(polygon[(i+1)%n])
	}
	return a / 2
}

// ConvexDecomposition splits a simple polygon into convex pieces by ear
// clipping followed by merging neighbouring triangles while the union stays
// convex. Every piece is counter-clockwise.
func ConvexDecomposition(polygon []Point2D) [][]Point2D {
	pts := cleanPolygon(polygon)
	if len(pts) < 3 {
		return nil
	}
	if SignedArea(pts) < 0 {
		reversePoints(pts)
	}
	if IsConvex(pts) {
		return [][]Point2D{pts}
	}
	pieces := triangulate(pts)
	for merged := true; merged; {
		merged = false
	outer:
		for i := 0; i < len(pieces); i++ {
			for j := i + 1; j < len(pieces); j++ {
				if u, ok := mergeConvex(pieces[i], pieces[j]); ok {
					pieces[i] = u
					pieces = append(pieces[:j], pieces[j+1:]...)
					merged = true
					break outer
				}
			}
		}
	}
	return pieces
}

func triangulate(pts []Point2D) [][]Point2D {
	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}
	var tris [][]Point2D
	for guard := 0; len(idx) > 3 && guard < len(pts)*len(pts); guard++ {
		clipped := false
		for k := range idx {
			a := pts[idx[(k+len(idx)-1)%len(idx)]]
			b := pts[idx[k]]
			c := pts[idx[(k+1)%len(idx)]]
			if crossProduct(a, b, c) <= 1e-12 {
				continue
			}
			ear := true
			for _, m := range idx {
				p := pts[m]
				if p == a || p == b || p == c {
					continue
				}
				if crossProduct(a, b, p) >= 0 && crossProduct(b, c, p) >= 0 && crossProduct(c, a, p) >= 0 {
					ear = false
					break
				}
			}
			if ear {
				tris = append(tris, []Point2D{a, b, c})
				idx = append(idx[:k], idx[k+1:]...)
				clipped = true
				break
			}
		}
		if !clipped {
			break
		}
	}
	if len(idx) == 3 {
		tris = append(tris, []Point2D{pts[idx[0]], pts[idx[1]], pts[idx[2]]})
	}
	return tris
}

// mergeConvex joins two counter-clockwise polygons sharing an edge if the
// result is convex.
func mergeConvex(p, q []Point2D) ([]Point2D, bool) {
	for i := range p {
		a, b := p[i], p[(i+1)%len(p)]
		for j := range q {
			if !q[j].Equal(b) || !q[(j+1)%len(q)].Equal(a) {
				continue
			}
			// walk p from b around to a, then q from a around to b
			var out []Point2D
			for k := 0; k < len(p); k++ {
				out = append(out, p[(i+1+k)%len(p)])
			}
			for k := 2; k < len(q); k++ {
				out = append(out, q[(j+k)%len(q)])
			}
			out = cleanPolygon(out)
			if IsConvex(out) && SignedArea(out) > 0 {
				return out, true
			}
			return nil, false
		}
	}
	return nil, false
}

// cleanPolygon removes repeated and collinear corners.
func cleanPolygon(points []Point2D) []Point2D {
	pts := dedupe(points)
	for changed := true; changed && len(pts) >= 3; {
		changed = false
		for i := range pts {
			prev := pts[(i+len(pts)-1)%len(pts)]
			next := pts[(i+1)%len(pts)]
			if math.Abs(crossProduct(prev, pts[i], next)) <= 1e-9*math.Max(1, distSq(prev, next)) {
				pts = append(pts[:i], pts[i+1:]...)
				changed = true
				break
			}
		}
	}
	return pts
}

// dedupe copies points dropping consecutive duplicates, including a closing duplicate.
func dedupe(points []Point2D) []Point2D {
	out := make([]Point2D, 0, len(points))
	for _, p := range points {
		if len(out) > 0 && out[len(out)-1].Equal(p) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[0].Equal(out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

func reversePoints(pts []Point2D) {
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
}

// crossProduct computes the cross product of vectors OA and OB.
func crossProduct(o, a, b Point2D) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// distSq computes the squared distance between two points.
func distSq(a, b Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}
