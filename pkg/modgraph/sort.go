package modgraph

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/knightfall-dh/bannerman/pkg/modules"
)

// CycleError reports a dependency cycle discovered during sorting. It names
// one module on the cycle; the attempted sort is abandoned and any
// previously computed order stays untouched.
type CycleError struct {
	ID string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle involving module %s", e.ID)
}

// visitation states for the depth-first traversal.
const (
	unvisited = iota
	inProgress
	done
)

// SortInput carries everything the order resolver needs.
type SortInput struct {
	Graph *Graph

	// PriorityTier and DefaultTier fix the root visitation order: priority
	// members are sorted first, then default members, then every remaining
	// module in graph discovery order.
	PriorityTier []string
	DefaultTier  []string

	// External is an optional externally supplied ranking (the host's
	// enablement-list order). Ids not fixed by the tiers are re-interleaved
	// to follow it, with dependency-pass order as the tiebreak.
	External []string
}

// Sort produces the deterministic, constraint-satisfying load order.
//
// The traversal is a depth-first walk with three visitation states. A
// LoadAfterThis edge is a hard constraint: the target is placed before the
// edge's holder, and re-entering an in-progress module is a cycle. A
// LoadBeforeThis edge pulls its target earlier only if the target has not
// been visited yet, so an already placed target never forces a cycle.
// Optional edges are never traversed.
func Sort(in SortInput) ([]string, error) {
	g := in.Graph
	state := make(map[string]int, g.NodeCount())
	ordered := make([]string, 0, g.NodeCount())

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case done:
			return nil
		case inProgress:
			return &CycleError{ID: id}
		}
		state[id] = inProgress

		for _, e := range g.Out(id) {
			if e.Optional {
				continue
			}
			switch e.Kind {
			case modules.LoadAfterThis:
				if err := visit(e.To); err != nil {
					return err
				}
			case modules.LoadBeforeThis:
				if state[e.To] == unvisited {
					if err := visit(e.To); err != nil {
						return err
					}
				}
			}
		}

		state[id] = done
		ordered = append(ordered, id)
		return nil
	}

	for _, id := range rootOrder(g, in.PriorityTier, in.DefaultTier) {
		if err := visit(id); err != nil {
			return nil, err
		}
	}

	return interleave(ordered, in.External, in.PriorityTier, in.DefaultTier), nil
}

// rootOrder lists the traversal roots: priority tier, then default tier,
// then all remaining modules in discovery order. Tier members absent from
// the graph are skipped.
func rootOrder(g *Graph, priority, defaultTier []string) []string {
	seen := mapset.NewSet[string]()
	var roots []string

	add := func(id string) {
		if g.HasNode(id) && !seen.Contains(id) {
			seen.Add(id)
			roots = append(roots, id)
		}
	}

	for _, id := range priority {
		add(id)
	}
	for _, id := range defaultTier {
		add(id)
	}
	for _, id := range g.IDs() {
		add(id)
	}
	return roots
}

// interleave reorders the externally ranked ids among themselves while
// keeping every dependency-pass slot. Ids fixed by the priority or default
// tiers, and ids the external ranking does not mention, keep their
// dependency-pass positions exactly.
func interleave(ordered, external, priority, defaultTier []string) []string {
	if len(external) == 0 {
		return ordered
	}

	fixed := mapset.NewSet(priority...)
	fixed.Append(defaultTier...)

	present := mapset.NewSet(ordered...)
	var ranked []string
	rankedSet := mapset.NewSet[string]()
	for _, id := range external {
		if present.Contains(id) && !fixed.Contains(id) && !rankedSet.Contains(id) {
			ranked = append(ranked, id)
			rankedSet.Add(id)
		}
	}
	if len(ranked) == 0 {
		return ordered
	}

	out := make([]string, 0, len(ordered))
	next := 0
	for _, id := range ordered {
		if rankedSet.Contains(id) {
			out = append(out, ranked[next])
			next++
			continue
		}
		out = append(out, id)
	}
	return out
}
