package hyper

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

var (
	// ErrCycle is matched by graph errors for responders that (indirectly) need themselves.
	ErrCycle = errors.New("hyper: dependency cycle")
	// ErrUnresolvedCapability is matched by graph errors for a capability no responder implements.
	ErrUnresolvedCapability = errors.New("hyper: unresolved capability")
)

// GraphError is returned when responders cannot be ordered.
type GraphError struct {
	Kind       error
	Unit       string
	Capability string
	Cycle      []string
}

func (e *GraphError) Error() string {
	if errors.Is(e.Kind, ErrCycle) {
		return fmt.Sprintf("%s: %s", e.Kind, strings.Join(e.Cycle, " -> "))
	}

	return fmt.Sprintf("%s: responder %q needs %q which no responder implements", e.Kind, e.Unit, e.Capability)
}

func (e *GraphError) Unwrap() error { return e.Kind }

// interner maps capability names to dense ids.
type interner map[string]int

func (in interner) id(name string) int {
	if id, ok := in[name]; ok {
		return id
	}

	id := len(in)
	in[name] = id

	return id
}

type node struct {
	name       string
	implements []int
	needs      []int
}

// graph has an edge from every provider of a capability to every unit that needs it.
type graph struct {
	nodes []node
	out   [][]int
	in    []int
}

func buildGraph(nodes []node, capNames []string) (*graph, error) {
	providers := make([][]int, len(capNames))
	for i, n := range nodes {
		for _, c := range n.implements {
			providers[c] = append(providers[c], i)
		}
	}

	g := &graph{
		nodes: nodes,
		out:   make([][]int, len(nodes)),
		in:    make([]int, len(nodes)),
	}

	for i, n := range nodes {
		for _, c := range n.needs {
			if len(providers[c]) == 0 {
				return nil, &GraphError{Kind: ErrUnresolvedCapability, Unit: n.name, Capability: capNames[c]}
			}

			for _, p := range providers[c] {
				if p == i {
					return nil, &GraphError{Kind: ErrCycle, Cycle: []string{n.name, n.name}}
				}

				if slices.Contains(g.out[p], i) {
					continue
				}

				g.out[p] = append(g.out[p], i)
				g.in[i]++
			}
		}
	}

	return g, nil
}

// sort is Kahn's algorithm. Of all units that are ready, the one registered first goes first, so the
// order only depends on the registration order.
func (g *graph) sort() ([]int, error) {
	indeg := slices.Clone(g.in)

	var ready []int
	for i, d := range indeg {
		if d == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, len(g.nodes))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, m := range g.out[next] {
			if indeg[m]--; indeg[m] == 0 {
				pos, _ := slices.BinarySearch(ready, m)
				ready = slices.Insert(ready, pos, m)
			}
		}
	}

	if len(order) < len(g.nodes) {
		return nil, &GraphError{Kind: ErrCycle, Cycle: g.findCycle(indeg)}
	}

	return order, nil
}

// findCycle walks the units that were left over by sort and returns the first cycle it finds, named by
// unit. Every left over unit has an unsorted predecessor so a cycle is guaranteed.
func (g *graph) findCycle(indeg []int) []string {
	left := lo.Filter(lo.Range(len(g.nodes)), func(i int, _ int) bool { return indeg[i] > 0 })

	const (
		unvisited = iota
		visiting
		visited
	)

	state := make([]int, len(g.nodes))
	var stack []int

	var visit func(i int) []int
	visit = func(i int) []int {
		state[i] = visiting
		stack = append(stack, i)

		for _, m := range g.out[i] {
			if indeg[m] == 0 {
				continue
			}

			switch state[m] {
			case visiting:
				start := slices.Index(stack, m)
				return append(slices.Clone(stack[start:]), m)
			case unvisited:
				if cycle := visit(m); cycle != nil {
					return cycle
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[i] = visited

		return nil
	}

	for _, i := range left {
		if state[i] != unvisited {
			continue
		}

		if cycle := visit(i); cycle != nil {
			return lo.Map(cycle, func(n int, _ int) string { return g.nodes[n].name })
		}
	}

	return lo.Map(left, func(n int, _ int) string { return g.nodes[n].name })
}
