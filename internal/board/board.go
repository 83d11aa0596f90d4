package board

import (
	"github.com/cockroachdb/errors"
	"github.com/google/btree"

	"pcb-router/internal/item"
	"pcb-router/internal/rules"
	"pcb-router/internal/searchtree"
	"pcb-router/internal/undo"
	"pcb-router/pkg/geometry"
)

var (
	// ErrItemNotFound is returned for ids not present on the board.
	ErrItemNotFound = errors.New("item not found")
	// ErrOutsideBoard is returned for items placed outside the board bounds.
	ErrOutsideBoard = errors.New("item outside board")
)

// OutlineID is reported as failing obstacle when a shape leaves the board.
const OutlineID item.ID = -1

// Layer is one copper layer of the board.
type Layer struct {
	Name     string `json:"name" yaml:"name"`
	IsSignal bool   `json:"is_signal" yaml:"is_signal"`
}

// RoutingBoard owns all items of a board. Items are kept in an id ordered
// arena and mirrored into the search trees. Every change is recorded in the
// undo log while a transaction is open.
type RoutingBoard struct {
	bounds geometry.Rect
	layers []Layer
	rules  *rules.Rules

	items  *btree.BTreeG[item.Item]
	nextID item.ID
	trees  *searchtree.Manager
	undo   *undo.Log

	changed      []geometry.Rect
	failingID    item.ID
	failingLayer int
}

// New creates an empty board.
func New(bounds geometry.Rect, layers []Layer, r *rules.Rules) *RoutingBoard {
	b := &RoutingBoard{
		bounds: bounds,
		layers: append([]Layer(nil), layers...),
		rules:  r,
		items: btree.NewG(32, func(a, b item.Item) bool {
			return a.ID() < b.ID()
		}),
		nextID:       1,
		trees:        searchtree.NewManager(r.Clearance),
		changed:      make([]geometry.Rect, len(layers)),
		failingLayer: -1,
	}
	b.undo = undo.NewLog(b)
	b.ResetChangedArea()
	return b
}

// idKey is a lookup key for the arena.
type idKey struct {
	item.Item
	id item.ID
}

func (p idKey) ID() item.ID { return p.id }

func (b *RoutingBoard) Bounds() geometry.Rect { return b.bounds }

func (b *RoutingBoard) Layers() []Layer { return b.layers }

func (b *RoutingBoard) LayerCount() int { return len(b.layers) }

func (b *RoutingBoard) Rules() *rules.Rules { return b.rules }

// SearchTree returns the default search tree.
func (b *RoutingBoard) SearchTree() *searchtree.Tree { return b.trees.DefaultTree() }

// TreeManager returns the manager keeping all search trees in sync.
func (b *RoutingBoard) TreeManager() *searchtree.Manager { return b.trees }

// LayerByName returns the number of the named layer or -1.
func (b *RoutingBoard) LayerByName(name string) int {
	for i, l := range b.layers {
		if l.Name == name {
			return i
		}
	}
	return -1
}

// Item returns the item with id or nil.
func (b *RoutingBoard) Item(id item.ID) item.Item {
	it, ok := b.items.Get(idKey{id: id})
	if !ok {
		return nil
	}
	return it
}

// Len returns the number of items.
func (b *RoutingBoard) Len() int { return b.items.Len() }

// Items returns all items ordered by id.
func (b *RoutingBoard) Items() []item.Item {
	out := make([]item.Item, 0, b.items.Len())
	b.items.Ascend(func(it item.Item) bool {
		out = append(out, it)
		return true
	})
	return out
}

// Traces returns all traces ordered by id.
func (b *RoutingBoard) Traces() []*item.Trace {
	var out []*item.Trace
	b.items.Ascend(func(it item.Item) bool {
		if t, ok := it.(*item.Trace); ok {
			out = append(out, t)
		}
		return true
	})
	return out
}

// DrillItems returns all vias and pins ordered by id.
func (b *RoutingBoard) DrillItems() []item.DrillItem {
	var out []item.DrillItem
	b.items.Ascend(func(it item.Item) bool {
		if d, ok := it.(item.DrillItem); ok {
			out = append(out, d)
		}
		return true
	})
	return out
}

// Insert places it on the board and returns the placed copy. An item with id
// zero gets a fresh id; an item with the id of a present item replaces it.
func (b *RoutingBoard) Insert(it item.Item) item.Item {
	if it.ID() == 0 {
		it = it.WithID(b.nextID)
		b.nextID++
	} else if it.ID() >= b.nextID {
		b.nextID = it.ID() + 1
	}
	prev := b.Item(it.ID())
	b.undo.Record(it.ID(), prev)
	if prev != nil {
		b.trees.Remove(prev.ID())
	}
	b.items.ReplaceOrInsert(it)
	b.trees.Insert(it)
	return it
}

// Replace swaps the item with id for it, keeping the id.
func (b *RoutingBoard) Replace(id item.ID, it item.Item) (item.Item, error) {
	if b.Item(id) == nil {
		return nil, errors.Wrapf(ErrItemNotFound, "replace %d", id)
	}
	return b.Insert(it.WithID(id)), nil
}

// Remove deletes the item with id.
func (b *RoutingBoard) Remove(id item.ID) error {
	prev := b.Item(id)
	if prev == nil {
		return errors.Wrapf(ErrItemNotFound, "remove %d", id)
	}
	b.undo.Record(id, prev)
	b.items.Delete(prev)
	b.trees.Remove(id)
	return nil
}

// RemoveItems deletes all given items that are not user or system fixed.
// It reports whether every item was removed.
func (b *RoutingBoard) RemoveItems(items []item.Item) bool {
	ok := true
	for _, it := range items {
		if it.FixedState() >= item.UserFixed {
			ok = false
			continue
		}
		if b.Item(it.ID()) == nil {
			continue
		}
		if err := b.Remove(it.ID()); err != nil {
			ok = false
		}
	}
	return ok
}

// Restore puts prev back under id without recording. It implements
// undo.Store.
func (b *RoutingBoard) Restore(id item.ID, prev item.Item) {
	if cur := b.Item(id); cur != nil {
		b.items.Delete(cur)
		b.trees.Remove(id)
	}
	if prev != nil {
		b.items.ReplaceOrInsert(prev)
		b.trees.Insert(prev)
	}
}

// BeginTransaction opens an undo scope. Nested scopes fold into the outer one
// on commit.
func (b *RoutingBoard) BeginTransaction() *undo.Transaction {
	return b.undo.Begin()
}

// InsertTrace places a new trace. Empty polylines are ignored and yield nil.
func (b *RoutingBoard) InsertTrace(poly geometry.Polyline, layer int, halfWidth float64, nets []int, clearanceClass int, fixed item.FixedState) *item.Trace {
	t := item.NewTrace(poly, layer, halfWidth, nets, clearanceClass, fixed)
	if t.Polyline().IsEmpty() {
		return nil
	}
	return b.Insert(t).(*item.Trace)
}

// InsertVia places a new via.
func (b *RoutingBoard) InsertVia(center geometry.Point2D, padstack *item.Padstack, nets []int, clearanceClass int, fixed item.FixedState) *item.Via {
	return b.Insert(item.NewVia(center, padstack, nets, clearanceClass, fixed)).(*item.Via)
}

// InsideBounds reports whether shape lies within the board.
func (b *RoutingBoard) InsideBounds(shape geometry.TileShape) bool {
	return !shape.IsEmpty() && b.bounds.ContainsRect(shape.Bounds())
}

// JoinChangedArea extends the changed region of layer by p.
func (b *RoutingBoard) JoinChangedArea(p geometry.Point2D, layer int) {
	if layer < 0 || layer >= len(b.changed) {
		return
	}
	b.changed[layer] = b.changed[layer].Union(geometry.RectFromCorners(p, p))
}

// ChangedArea returns the changed region of layer, empty if nothing changed.
func (b *RoutingBoard) ChangedArea(layer int) geometry.Rect {
	if layer < 0 || layer >= len(b.changed) {
		return geometry.EmptyRect()
	}
	return b.changed[layer]
}

// ResetChangedArea clears the changed regions of all layers.
func (b *RoutingBoard) ResetChangedArea() {
	for i := range b.changed {
		b.changed[i] = geometry.EmptyRect()
	}
}

// ChangedAreas returns a copy of the changed regions of all layers.
func (b *RoutingBoard) ChangedAreas() []geometry.Rect {
	return append([]geometry.Rect(nil), b.changed...)
}

// RestoreChangedAreas puts back regions saved by ChangedAreas.
func (b *RoutingBoard) RestoreChangedAreas(areas []geometry.Rect) {
	copy(b.changed, areas)
}

// SetFailingObstacle remembers the item which made the last operation fail.
func (b *RoutingBoard) SetFailingObstacle(id item.ID, layer int) {
	b.failingID = id
	b.failingLayer = layer
}

// FailingObstacle returns the item and layer of the last failure. Zero means
// none; OutlineID means the board outline.
func (b *RoutingBoard) FailingObstacle() (item.ID, int) {
	return b.failingID, b.failingLayer
}

// ClearFailingObstacle forgets the last failure.
func (b *RoutingBoard) ClearFailingObstacle() {
	b.failingID = 0
	b.failingLayer = -1
}

// OverlappingItemsWithClearance queries the default search tree.
func (b *RoutingBoard) OverlappingItemsWithClearance(shape geometry.TileShape, layer int, ignoreNets []int, clClass int) []item.Item {
	return b.trees.DefaultTree().OverlappingItemsWithClearance(shape, layer, ignoreNets, clClass)
}

// OverlappingObjects returns the tile shapes on layer overlapping shape.
func (b *RoutingBoard) OverlappingObjects(shape geometry.TileShape, layer int) []searchtree.Hit {
	return b.trees.DefaultTree().OverlappingObjects(shape, layer)
}

// Clearance returns the clearance between two classes on layer.
func (b *RoutingBoard) Clearance(a, c, layer int) float64 {
	return b.rules.Clearance.Value(a, c, layer)
}
