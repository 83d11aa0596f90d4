// Package item defines the objects placed on a routing board. Items are
// immutable values; changes produce new items which the board swaps in.
package item

import (
	"strings"

	"github.com/cockroachdb/errors"

	"pcb-router/pkg/geometry"
)

// ID identifies an item on its board. Zero means not yet inserted.
type ID int

// FixedState is an item's protection level against automatic changes.
type FixedState int

const (
	// Unfixed items may be moved, split or removed by the router.
	Unfixed FixedState = iota
	// ShoveFixed items must not be shoved but may be deleted by the user.
	ShoveFixed
	// UserFixed items were fixed interactively.
	UserFixed
	// SystemFixed items belong to the board definition, like edge contacts.
	SystemFixed
)

func (f FixedState) String() string {
	switch f {
	case Unfixed:
		return "unfixed"
	case ShoveFixed:
		return "shove_fixed"
	case UserFixed:
		return "user_fixed"
	case SystemFixed:
		return "system_fixed"
	default:
		return "unknown"
	}
}

// ParseFixedState parses the names returned by FixedState.String.
func ParseFixedState(s string) (FixedState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unfixed":
		return Unfixed, nil
	case "shove_fixed":
		return ShoveFixed, nil
	case "user_fixed":
		return UserFixed, nil
	case "system_fixed":
		return SystemFixed, nil
	}
	return Unfixed, errors.Newf("invalid fixed state %q", s)
}

// Kind tells the concrete type of an item.
type Kind int

const (
	KindTrace Kind = iota
	KindVia
	KindPin
	KindKeepout
	KindViaKeepout
	KindComponentKeepout
	KindConductionArea
)

func (k Kind) String() string {
	switch k {
	case KindTrace:
		return "trace"
	case KindVia:
		return "via"
	case KindPin:
		return "pin"
	case KindKeepout:
		return "keepout"
	case KindViaKeepout:
		return "via_keepout"
	case KindComponentKeepout:
		return "component_keepout"
	case KindConductionArea:
		return "conduction_area"
	default:
		return "unknown"
	}
}

// Item is implemented by *Trace, *Via, *Pin and *Area.
type Item interface {
	ID() ID
	Kind() Kind
	Nets() []int
	ClearanceClass() int
	FixedState() FixedState
	FirstLayer() int
	LastLayer() int
	// TileShapes returns the convex pieces of the item's copper on layer.
	TileShapes(layer int) []geometry.TileShape
	Bounds() geometry.Rect
	// WithID returns a copy of the item carrying id.
	WithID(id ID) Item
}

type base struct {
	id             ID
	nets           []int
	clearanceClass int
	fixed          FixedState
}

func newBase(nets []int, clearanceClass int, fixed FixedState) base {
	n := make([]int, len(nets))
	copy(n, nets)
	return base{nets: n, clearanceClass: clearanceClass, fixed: fixed}
}

func (b base) ID() ID                 { return b.id }
func (b base) Nets() []int            { return b.nets }
func (b base) ClearanceClass() int    { return b.clearanceClass }
func (b base) FixedState() FixedState { return b.fixed }

// IsOnLayer reports whether it has copper on layer.
func IsOnLayer(it Item, layer int) bool {
	return layer >= it.FirstLayer() && layer <= it.LastLayer()
}

// SharesNet reports whether it belongs to one of nets.
func SharesNet(it Item, nets []int) bool {
	for _, a := range it.Nets() {
		for _, b := range nets {
			if a == b {
				return true
			}
		}
	}
	return false
}

// SharesNetWith reports whether two items have a common net.
func SharesNetWith(a, b Item) bool {
	return SharesNet(a, b.Nets())
}

// NetsEqual reports whether both lists hold the same nets.
func NetsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		found := false
		for _, y := range b {
			if x == y {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// IsShoveFixed reports whether the router must not move it.
func IsShoveFixed(it Item) bool {
	return it.FixedState() >= ShoveFixed
}

// IsRoute reports whether it is routing copper, a trace or a via.
func IsRoute(it Item) bool {
	k := it.Kind()
	return k == KindTrace || k == KindVia
}

// NetsNormal reports whether it belongs to at most one net.
func NetsNormal(it Item) bool {
	return len(it.Nets()) <= 1
}
