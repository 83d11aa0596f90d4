// Package searchtree indexes the tile shapes of board items in an R-tree and
// answers clearance-aware overlap queries.
//
// Clearance is applied at query time: stored tiles are the bare copper
// shapes and the query shape is enlarged by the clearance matrix value of
// each candidate pair.
package searchtree

import (
	"sort"

	"github.com/tidwall/rtree"

	"pcb-router/internal/item"
	"pcb-router/internal/rules"
	"pcb-router/pkg/geometry"
)

// entry is one tile shape of one item in the R-tree.
type entry struct {
	id    item.ID
	layer int
	index int
}

// Hit is a tile shape found by a query.
type Hit struct {
	Item  item.Item
	Layer int
	Index int
	Shape geometry.TileShape
}

// Tree is an R-tree over item tile shapes with a side table caching the
// shapes per item.
type Tree struct {
	no        int
	clearance *rules.ClearanceMatrix
	rt        rtree.RTreeG[entry]
	items     map[item.ID]item.Item
	cache     map[item.ID]map[int][]geometry.TileShape
}

// New creates an empty tree using the clearance matrix for queries.
func New(no int, clearance *rules.ClearanceMatrix) *Tree {
	return &Tree{
		no:        no,
		clearance: clearance,
		items:     make(map[item.ID]item.Item),
		cache:     make(map[item.ID]map[int][]geometry.TileShape),
	}
}

// No returns the identification number of the tree.
func (t *Tree) No() int { return t.no }

// Len returns the number of stored tile shapes.
func (t *Tree) Len() int { return t.rt.Len() }

func bounds(s geometry.TileShape) ([2]float64, [2]float64) {
	r := s.Bounds()
	return [2]float64{r.X, r.Y}, [2]float64{r.MaxX(), r.MaxY()}
}

// TileShapes returns the cached shapes of it on layer, deriving and caching
// them on first use.
func (t *Tree) TileShapes(it item.Item, layer int) []geometry.TileShape {
	perLayer, ok := t.cache[it.ID()]
	if !ok {
		perLayer = make(map[int][]geometry.TileShape)
		t.cache[it.ID()] = perLayer
	}
	shapes, ok := perLayer[layer]
	if !ok {
		shapes = it.TileShapes(layer)
		perLayer[layer] = shapes
	}
	return shapes
}

// Insert stores the tile shapes of it on all its layers.
func (t *Tree) Insert(it item.Item) {
	t.Invalidate(it.ID())
	t.items[it.ID()] = it
	for l := it.FirstLayer(); l <= it.LastLayer(); l++ {
		for i, s := range t.TileShapes(it, l) {
			if s.IsEmpty() {
				continue
			}
			min, max := bounds(s)
			t.rt.Insert(min, max, entry{id: it.ID(), layer: l, index: i})
		}
	}
}

// Remove deletes the tile shapes of the item with id.
func (t *Tree) Remove(id item.ID) {
	it, ok := t.items[id]
	if !ok {
		return
	}
	for l := it.FirstLayer(); l <= it.LastLayer(); l++ {
		for i, s := range t.TileShapes(it, l) {
			if s.IsEmpty() {
				continue
			}
			min, max := bounds(s)
			t.rt.Delete(min, max, entry{id: id, layer: l, index: i})
		}
	}
	delete(t.items, id)
	t.Invalidate(id)
}

// Invalidate drops the cached tile shapes of id.
func (t *Tree) Invalidate(id item.ID) {
	delete(t.cache, id)
}

// OverlappingObjects returns all tile shapes on layer overlapping shape.
// A negative layer matches every layer.
func (t *Tree) OverlappingObjects(shape geometry.TileShape, layer int) []Hit {
	return t.search(shape, layer, 0, func(hit Hit) bool {
		return hit.Shape.Overlaps(shape)
	})
}

// OverlappingItemsWithClearance returns the items on layer whose tile shapes
// come closer to shape than the clearance between clClass and their class.
// Items sharing a net with ignoreNets are skipped. The result is ordered by id.
func (t *Tree) OverlappingItemsWithClearance(shape geometry.TileShape, layer int, ignoreNets []int, clClass int) []item.Item {
	enlarged := make(map[float64]geometry.TileShape)
	margin := t.clearance.MaxValue(clClass, layer)
	hits := t.search(shape, layer, margin, func(hit Hit) bool {
		if len(ignoreNets) > 0 && item.SharesNet(hit.Item, ignoreNets) {
			return false
		}
		cl := t.clearance.Value(clClass, hit.Item.ClearanceClass(), hit.Layer)
		s, ok := enlarged[cl]
		if !ok {
			s = shape.Offset(cl)
			enlarged[cl] = s
		}
		return s.Overlaps(hit.Shape)
	})
	return uniqueItems(hits)
}

// OverlappingHitsWithClearance is like OverlappingItemsWithClearance but
// reports the individual tile shapes.
func (t *Tree) OverlappingHitsWithClearance(shape geometry.TileShape, layer int, clClass int) []Hit {
	margin := t.clearance.MaxValue(clClass, layer)
	return t.search(shape, layer, margin, func(hit Hit) bool {
		cl := t.clearance.Value(clClass, hit.Item.ClearanceClass(), hit.Layer)
		return shape.Offset(cl).Overlaps(hit.Shape)
	})
}

func (t *Tree) search(shape geometry.TileShape, layer int, margin float64, accept func(Hit) bool) []Hit {
	if shape.IsEmpty() {
		return nil
	}
	r := shape.Bounds().Enlarge(margin + geometry.Epsilon)
	var hits []Hit
	t.rt.Search([2]float64{r.X, r.Y}, [2]float64{r.MaxX(), r.MaxY()},
		func(_, _ [2]float64, e entry) bool {
			if layer >= 0 && e.layer != layer {
				return true
			}
			it := t.items[e.id]
			shapes := t.TileShapes(it, e.layer)
			if e.index >= len(shapes) {
				return true
			}
			hit := Hit{Item: it, Layer: e.layer, Index: e.index, Shape: shapes[e.index]}
			if accept(hit) {
				hits = append(hits, hit)
			}
			return true
		})
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Item.ID() != hits[j].Item.ID() {
			return hits[i].Item.ID() < hits[j].Item.ID()
		}
		if hits[i].Layer != hits[j].Layer {
			return hits[i].Layer < hits[j].Layer
		}
		return hits[i].Index < hits[j].Index
	})
	return hits
}

func uniqueItems(hits []Hit) []item.Item {
	var out []item.Item
	var last item.ID
	for _, h := range hits {
		if len(out) > 0 && h.Item.ID() == last {
			continue
		}
		out = append(out, h.Item)
		last = h.Item.ID()
	}
	return out
}

// ValidateEntries checks that the cached shapes of it match its geometry and
// that every shape is present in the R-tree.
func (t *Tree) ValidateEntries(it item.Item) bool {
	stored, ok := t.items[it.ID()]
	if !ok || stored != it {
		return false
	}
	for l := it.FirstLayer(); l <= it.LastLayer(); l++ {
		cached := t.TileShapes(it, l)
		fresh := it.TileShapes(l)
		if len(cached) != len(fresh) {
			return false
		}
		for i := range fresh {
			if !cached[i].Equal(fresh[i]) {
				return false
			}
			if fresh[i].IsEmpty() {
				continue
			}
			min, max := bounds(fresh[i])
			found := false
			want := entry{id: it.ID(), layer: l, index: i}
			t.rt.Search(min, max, func(_, _ [2]float64, e entry) bool {
				if e == want {
					found = true
					return false
				}
				return true
			})
			if !found {
				return false
			}
		}
	}
	return true
}
