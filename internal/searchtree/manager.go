package searchtree

import (
	"pcb-router/internal/item"
	"pcb-router/internal/rules"
)

// Manager keeps every search tree of a board in sync. Tree 0 is the default tree.
type Manager struct {
	trees []*Tree
}

// NewManager creates a manager with the default tree.
func NewManager(clearance *rules.ClearanceMatrix) *Manager {
	return &Manager{trees: []*Tree{New(0, clearance)}}
}

// DefaultTree returns tree 0.
func (m *Manager) DefaultTree() *Tree { return m.trees[0] }

// AddTree creates an additional tree filled with items and returns it.
func (m *Manager) AddTree(clearance *rules.ClearanceMatrix, items []item.Item) *Tree {
	t := New(len(m.trees), clearance)
	for _, it := range items {
		t.Insert(it)
	}
	m.trees = append(m.trees, t)
	return t
}

// Insert adds it to every tree.
func (m *Manager) Insert(it item.Item) {
	for _, t := range m.trees {
		t.Insert(it)
	}
}

// Remove deletes the item with id from every tree.
func (m *Manager) Remove(id item.ID) {
	for _, t := range m.trees {
		t.Remove(id)
	}
}

// Invalidate drops cached shapes of id in every tree.
func (m *Manager) Invalidate(id item.ID) {
	for _, t := range m.trees {
		t.Invalidate(id)
	}
}
