// Package netlist derives the electrical connectivity of a routing board
// from the contacts between its items.
package netlist

import (
	"sort"

	"pcb-router/internal/board"
	"pcb-router/internal/item"
)

// Net holds the items of one net partitioned into connected sets.
// Each set is sorted by id; sets are ordered by their smallest id.
type Net struct {
	No   int
	Name string
	Sets [][]item.ID
}

// Complete reports whether all items of the net are connected.
func (n Net) Complete() bool { return len(n.Sets) <= 1 }

// ItemCount returns the number of items on the net.
func (n Net) ItemCount() int {
	c := 0
	for _, s := range n.Sets {
		c += len(s)
	}
	return c
}

// graph is an undirected contact graph. Contacts found from one side
// only (a trace ending on a conduction area) are still linked both ways.
type graph map[item.ID]map[item.ID]bool

func (g graph) link(a, b item.ID) {
	if g[a] == nil {
		g[a] = make(map[item.ID]bool)
	}
	if g[b] == nil {
		g[b] = make(map[item.ID]bool)
	}
	g[a][b] = true
	g[b][a] = true
}

func contactGraph(b *board.RoutingBoard, items []item.Item) graph {
	g := make(graph, len(items))
	for _, it := range items {
		if g[it.ID()] == nil {
			g[it.ID()] = make(map[item.ID]bool)
		}
		for _, c := range b.Contacts(it) {
			g.link(it.ID(), c.ID())
		}
	}
	return g
}

// components runs a BFS from every unvisited node in id order, keeping
// only the ids accepted by keep.
func (g graph) components(order []item.ID, keep func(item.ID) bool) [][]item.ID {
	visited := make(map[item.ID]bool)
	var out [][]item.ID
	for _, start := range order {
		if visited[start] {
			continue
		}
		var comp []item.ID
		queue := []item.ID{start}
		visited[start] = true
		for len(queue) > 0 {
			curr := queue[0]
			queue = queue[1:]
			if keep(curr) {
				comp = append(comp, curr)
			}
			for next := range g[curr] {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
		if len(comp) == 0 {
			continue
		}
		sort.Slice(comp, func(i, j int) bool { return comp[i] < comp[j] })
		out = append(out, comp)
	}
	return out
}

// ConnectedSet returns the ids of the items reachable from start through
// contacts, start included, sorted by id. It returns nil for an unknown id.
func ConnectedSet(b *board.RoutingBoard, start item.ID) []item.ID {
	first := b.Item(start)
	if first == nil {
		return nil
	}
	visited := map[item.ID]bool{start: true}
	queue := []item.Item{first}
	out := []item.ID{start}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, c := range contactsOf(b, curr) {
			if !visited[c.ID()] {
				visited[c.ID()] = true
				out = append(out, c.ID())
				queue = append(queue, c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// contactsOf extends board contacts with the traces and drills touching a
// conduction area, which the board only reports from their side.
func contactsOf(b *board.RoutingBoard, it item.Item) []item.Item {
	area, ok := it.(*item.Area)
	if !ok {
		return b.Contacts(it)
	}
	var out []item.Item
	for _, other := range b.Items() {
		if other.ID() == area.ID() || !item.SharesNetWith(other, area) {
			continue
		}
		for _, c := range b.Contacts(other) {
			if c.ID() == area.ID() {
				out = append(out, other)
				break
			}
		}
	}
	return out
}

// Build partitions the items of every net of the board into connected sets.
// Nets come in natural name order; nets without items are left out.
func Build(b *board.RoutingBoard) []Net {
	byNet := make(map[int][]item.Item)
	for _, it := range b.Items() {
		for _, no := range it.Nets() {
			byNet[no] = append(byNet[no], it)
		}
	}

	var out []Net
	for _, n := range b.Rules().Nets.Sorted() {
		items := byNet[n.No]
		if len(items) == 0 {
			continue
		}
		g := contactGraph(b, items)
		order := make([]item.ID, len(items))
		onNet := make(map[item.ID]bool, len(items))
		for i, it := range items {
			order[i] = it.ID()
			onNet[it.ID()] = true
		}
		out = append(out, Net{
			No:   n.No,
			Name: n.Name,
			Sets: g.components(order, func(id item.ID) bool { return onNet[id] }),
		})
	}
	return out
}

// Incomplete returns the nets split into more than one connected set.
func Incomplete(nets []Net) []Net {
	var out []Net
	for _, n := range nets {
		if !n.Complete() {
			out = append(out, n)
		}
	}
	return out
}
