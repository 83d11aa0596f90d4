package board

import (
	"sort"

	"pcb-router/internal/item"
	"pcb-router/pkg/geometry"
)

// IsTraceObstacle reports whether it blocks a trace of nets. Without nets
// every item is an obstacle.
func IsTraceObstacle(it item.Item, nets []int) bool {
	switch it.Kind() {
	case item.KindViaKeepout, item.KindComponentKeepout:
		return false
	case item.KindConductionArea:
		if a, ok := it.(*item.Area); ok && !a.IsObstacle() {
			return false
		}
	}
	if len(nets) == 0 {
		return true
	}
	return !item.SharesNet(it, nets)
}

// IsDrillObstacle reports whether it blocks a via of nets.
func IsDrillObstacle(it item.Item, nets []int) bool {
	switch it.Kind() {
	case item.KindComponentKeepout:
		return false
	case item.KindViaKeepout:
		return true
	case item.KindConductionArea:
		if a, ok := it.(*item.Area); ok && !a.IsObstacle() {
			return false
		}
	}
	if len(nets) == 0 {
		return true
	}
	return !item.SharesNet(it, nets)
}

// CheckTraceShape reports whether a trace piece of nets with clearance class
// clClass may occupy shape on layer. With contactPins set, those pins are
// ignored and every other pin blocks regardless of its net.
func (b *RoutingBoard) CheckTraceShape(shape geometry.TileShape, layer int, nets []int, clClass int, contactPins map[item.ID]bool) bool {
	if !b.InsideBounds(shape) {
		return false
	}
	for _, it := range b.OverlappingItemsWithClearance(shape, layer, nil, clClass) {
		if contactPins != nil {
			if contactPins[it.ID()] {
				continue
			}
			if it.Kind() == item.KindPin {
				return false
			}
		}
		if IsTraceObstacle(it, nets) {
			return false
		}
	}
	return true
}

// CheckTrace reports whether every segment of poly passes CheckTraceShape.
func (b *RoutingBoard) CheckTrace(poly geometry.Polyline, layer int, halfWidth float64, nets []int, clClass int, contactPins map[item.ID]bool) bool {
	for _, s := range poly.SegmentTiles(halfWidth) {
		if !b.CheckTraceShape(s, layer, nets, clClass, contactPins) {
			return false
		}
	}
	return true
}

// Violation is a pair of items closer to each other than their clearance.
type Violation struct {
	First  item.ID `json:"first" yaml:"first"`
	Second item.ID `json:"second" yaml:"second"`
	Layer  int     `json:"layer" yaml:"layer"`
}

func obstructs(a, c item.Item) bool {
	if item.SharesNetWith(a, c) {
		return false
	}
	_, aArea := a.(*item.Area)
	_, cArea := c.(*item.Area)
	if aArea && cArea {
		return false
	}
	for _, pair := range [][2]item.Item{{a, c}, {c, a}} {
		switch pair[0].Kind() {
		case item.KindComponentKeepout:
			return false
		case item.KindViaKeepout:
			return pair[1].Kind() == item.KindVia
		case item.KindConductionArea:
			if ar, ok := pair[0].(*item.Area); ok && !ar.IsObstacle() {
				return false
			}
		}
	}
	return true
}

// ClearanceViolations lists all item pairs violating the clearance matrix,
// ordered by layer and ids.
func (b *RoutingBoard) ClearanceViolations() []Violation {
	type key struct {
		a, c  item.ID
		layer int
	}
	seen := make(map[key]bool)
	var out []Violation
	tree := b.SearchTree()
	for _, it := range b.Items() {
		for l := it.FirstLayer(); l <= it.LastLayer(); l++ {
			for _, shape := range tree.TileShapes(it, l) {
				for _, hit := range tree.OverlappingHitsWithClearance(shape, l, it.ClearanceClass()) {
					other := hit.Item
					if other.ID() <= it.ID() || !obstructs(it, other) {
						continue
					}
					k := key{it.ID(), other.ID(), l}
					if seen[k] {
						continue
					}
					seen[k] = true
					out = append(out, Violation{First: it.ID(), Second: other.ID(), Layer: l})
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Layer != out[j].Layer {
			return out[i].Layer < out[j].Layer
		}
		if out[i].First != out[j].First {
			return out[i].First < out[j].First
		}
		return out[i].Second < out[j].Second
	})
	return out
}
