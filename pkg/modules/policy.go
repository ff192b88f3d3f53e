package modules

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Pool holds the winning descriptor per module id after source-precedence
// resolution, preserving the order ids were first discovered in.
type Pool struct {
	order []string
	byID  map[string]Candidate
}

// BuildPool applies the source-precedence policy to a candidate list.
//
// Precedence, highest first: an override descriptor, then the descriptor in
// the highest-ranked enabled add-on (closest to the top of the effective
// stack), then the native descriptor. This models a layered override
// filesystem: later, higher-priority layers occlude earlier ones for the
// same id.
func BuildPool(candidates []Candidate) *Pool {
	p := &Pool{byID: make(map[string]Candidate, len(candidates))}
	for _, c := range candidates {
		id := c.Descriptor.ID
		cur, seen := p.byID[id]
		if !seen {
			p.order = append(p.order, id)
			p.byID[id] = c
			continue
		}
		if wins(c, cur) {
			p.byID[id] = c
		}
	}
	return p
}

// wins reports whether challenger takes precedence over incumbent for the
// same module id. Equal precedence keeps the incumbent, so the first
// candidate in scan order is a stable tie-break.
func wins(challenger, incumbent Candidate) bool {
	cs, is := challenger.Descriptor.Source, incumbent.Descriptor.Source
	if cs != is {
		return sourcePrecedence(cs) > sourcePrecedence(is)
	}
	if cs == SourceAddOn {
		return challenger.Rank > incumbent.Rank
	}
	return false
}

func sourcePrecedence(k SourceKind) int {
	switch k {
	case SourceOverride:
		return 2
	case SourceAddOn:
		return 1
	default:
		return 0
	}
}

// Resolve returns the winning candidate for a module id.
func (p *Pool) Resolve(id string) (Candidate, bool) {
	c, ok := p.byID[id]
	return c, ok
}

// Descriptor returns the winning descriptor for a module id.
func (p *Pool) Descriptor(id string) (*ModuleDescriptor, bool) {
	c, ok := p.byID[id]
	if !ok {
		return nil, false
	}
	return c.Descriptor, true
}

// IDs returns all module ids in discovery order.
func (p *Pool) IDs() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// IDSet returns the module ids as a set.
func (p *Pool) IDSet() mapset.Set[string] {
	return mapset.NewSet(p.order...)
}

// Len returns the number of resolved modules.
func (p *Pool) Len() int {
	return len(p.order)
}

// Descriptors returns the winning descriptors in discovery order.
func (p *Pool) Descriptors() []*ModuleDescriptor {
	out := make([]*ModuleDescriptor, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.byID[id].Descriptor)
	}
	return out
}
