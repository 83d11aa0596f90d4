package rules

import (
	"sort"

	"github.com/maruel/natural"
)

// Net is an electrical net. Net numbers start at 1; 0 means no net.
type Net struct {
	No             int    `json:"no" yaml:"no"`
	Name           string `json:"name" yaml:"name"`
	ClearanceClass int    `json:"clearance_class" yaml:"clearance_class"` // default class for new items of the net
}

// NetTable maps net numbers and names.
type NetTable struct {
	nets   []Net
	byName map[string]int
}

// NewNetTable creates an empty table.
func NewNetTable() *NetTable {
	return &NetTable{byName: make(map[string]int)}
}

// Add registers a net and returns it. Adding an existing name returns the existing net.
func (t *NetTable) Add(name string, clearanceClass int) Net {
	if no, ok := t.byName[name]; ok {
		return t.nets[no-1]
	}
	n := Net{No: len(t.nets) + 1, Name: name, ClearanceClass: clearanceClass}
	t.nets = append(t.nets, n)
	t.byName[name] = n.No
	return n
}

// Get returns the net with number no.
func (t *NetTable) Get(no int) (Net, bool) {
	if no < 1 || no > len(t.nets) {
		return Net{}, false
	}
	return t.nets[no-1], true
}

// ByName returns the net with the given name.
func (t *NetTable) ByName(name string) (Net, bool) {
	no, ok := t.byName[name]
	if !ok {
		return Net{}, false
	}
	return t.nets[no-1], true
}

// Name returns the name of net no or an empty string.
func (t *NetTable) Name(no int) string {
	n, _ := t.Get(no)
	return n.Name
}

// Len returns the number of nets.
func (t *NetTable) Len() int { return len(t.nets) }

// Sorted returns all nets in natural name order, so "D2" sorts before "D10".
func (t *NetTable) Sorted() []Net {
	out := make([]Net, len(t.nets))
	copy(out, t.nets)
	sort.SliceStable(out, func(i, j int) bool {
		return natural.Less(out[i].Name, out[j].Name)
	})
	return out
}
