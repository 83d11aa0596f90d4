// Package rules holds the design rules consulted by the router: clearance
// classes, nets, via rules and angle restrictions.
package rules

import (
	"math"

	"github.com/cockroachdb/errors"
)

// ErrUnknownClass is returned when a clearance class name is not defined.
var ErrUnknownClass = errors.New("unknown clearance class")

// ClearanceMatrix stores the symmetric minimum distance between every pair
// of clearance classes on every layer. Class 0 is the null class with no
// clearance to anything.
type ClearanceMatrix struct {
	names  []string
	layers int
	values [][][]float64 // [layer][classA][classB]
}

// NewClearanceMatrix creates a matrix for layerCount layers with the null
// class and a "default" class.
func NewClearanceMatrix(layerCount int) *ClearanceMatrix {
	m := &ClearanceMatrix{layers: layerCount}
	m.AddClass("null")
	m.AddClass("default")
	return m
}

// LayerCount returns the number of layers covered.
func (m *ClearanceMatrix) LayerCount() int { return m.layers }

// ClassCount returns the number of defined classes.
func (m *ClearanceMatrix) ClassCount() int { return len(m.names) }

// AddClass appends a class with zero clearance to all others and returns its number.
// Adding an existing name returns the existing number.
func (m *ClearanceMatrix) AddClass(name string) int {
	if no := m.ClassNo(name); no >= 0 {
		return no
	}
	m.names = append(m.names, name)
	n := len(m.names)
	if m.values == nil {
		m.values = make([][][]float64, m.layers)
	}
	for l := range m.values {
		rows := make([][]float64, n)
		for a := 0; a < n; a++ {
			rows[a] = make([]float64, n)
			if a < n-1 {
				copy(rows[a], m.values[l][a])
			}
		}
		m.values[l] = rows
	}
	return n - 1
}

// ClassNo returns the number of the named class or -1.
func (m *ClearanceMatrix) ClassNo(name string) int {
	for i, n := range m.names {
		if n == name {
			return i
		}
	}
	return -1
}

// MustClassNo is like ClassNo but returns ErrUnknownClass for missing names.
func (m *ClearanceMatrix) MustClassNo(name string) (int, error) {
	no := m.ClassNo(name)
	if no < 0 {
		return 0, errors.Wrapf(ErrUnknownClass, "class %q", name)
	}
	return no, nil
}

// ClassName returns the name of class no.
func (m *ClearanceMatrix) ClassName(no int) string {
	if no < 0 || no >= len(m.names) {
		return ""
	}
	return m.names[no]
}

// Set sets the clearance between two classes on all layers.
func (m *ClearanceMatrix) Set(a, b int, value float64) {
	for l := 0; l < m.layers; l++ {
		m.SetOnLayer(a, b, l, value)
	}
}

// SetOnLayer sets the clearance between two classes on one layer.
func (m *ClearanceMatrix) SetOnLayer(a, b, layer int, value float64) {
	if !m.valid(a, b, layer) || a == 0 || b == 0 {
		return
	}
	m.values[layer][a][b] = value
	m.values[layer][b][a] = value
}

// Value returns the required distance between items of classes a and b on a layer.
func (m *ClearanceMatrix) Value(a, b, layer int) float64 {
	if !m.valid(a, b, layer) {
		return 0
	}
	return m.values[layer][a][b]
}

// MaxValue returns the largest clearance of class a to any class on a layer.
func (m *ClearanceMatrix) MaxValue(a, layer int) float64 {
	if !m.valid(a, a, layer) {
		return 0
	}
	var max float64
	for _, v := range m.values[layer][a] {
		max = math.Max(max, v)
	}
	return max
}

func (m *ClearanceMatrix) valid(a, b, layer int) bool {
	return layer >= 0 && layer < m.layers && a >= 0 && b >= 0 && a < len(m.names) && b < len(m.names)
}
