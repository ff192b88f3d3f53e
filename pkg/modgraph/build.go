package modgraph

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/knightfall-dh/bannerman/pkg/modules"
)

// BuildInput carries everything the graph builder needs.
type BuildInput struct {
	// Pool holds the winning descriptor per module id.
	Pool *modules.Pool

	// Disabled lists ids known to be explicitly disabled (from the host's
	// enablement list). Used only to sharpen missing-dependency messages.
	Disabled mapset.Set[string]

	// PriorityTier members must precede every DefaultTier member, whether or
	// not descriptors declare it.
	PriorityTier []string

	// DefaultTier is the base-game module set.
	DefaultTier []string
}

// Build converts the resolved descriptor pool into a constraint graph and a
// list of advisory issues. Issues never abort the build: a module with a
// missing dependency still gets its remaining edges, and incompatibilities
// produce issues but no edges.
func Build(in BuildInput) (*Graph, []Issue) {
	g := New()
	var issues []Issue

	known := in.Pool.IDSet()
	disabled := in.Disabled
	if disabled == nil {
		disabled = mapset.NewSet[string]()
	}

	for _, d := range in.Pool.Descriptors() {
		// AddNode cannot fail here: pool ids are unique and validated.
		_ = g.AddNode(Node{ID: d.ID, Version: d.Version, Multiplayer: d.Multiplayer})
	}

	for _, d := range in.Pool.Descriptors() {
		for _, target := range d.Incompatibilities {
			if known.Contains(target) {
				issues = append(issues, Issue{
					Kind:     IssueIncompatibility,
					ModuleID: d.ID,
					TargetID: target,
					Message:  fmt.Sprintf("%s declares %s incompatible, but both are present", d.ID, target),
				})
			}
		}

		for _, dep := range d.Dependencies {
			if !known.Contains(dep.ID) {
				if !dep.Optional {
					msg := fmt.Sprintf("%s requires %s, which is missing entirely", d.ID, dep.ID)
					if disabled.Contains(dep.ID) {
						msg = fmt.Sprintf("%s requires %s, which is disabled", d.ID, dep.ID)
					}
					issues = append(issues, Issue{
						Kind:     IssueMissingDependency,
						ModuleID: d.ID,
						TargetID: dep.ID,
						Message:  msg,
					})
				}
				continue
			}

			if target, ok := in.Pool.Descriptor(dep.ID); ok {
				if !target.Version.SatisfiesConstraint(dep.VersionConstraint) {
					issues = append(issues, Issue{
						Kind:     IssueVersionMismatch,
						ModuleID: d.ID,
						TargetID: dep.ID,
						Message: fmt.Sprintf("%s requires %s %s, installed %s",
							d.ID, dep.ID, dep.VersionConstraint, target.Version),
					})
				}
			}

			_ = g.AddEdge(Edge{
				From:       d.ID,
				To:         dep.ID,
				Kind:       dep.Order,
				Optional:   dep.Optional,
				Constraint: dep.VersionConstraint,
			})
		}
	}

	injectTierEdges(g, in.PriorityTier, in.DefaultTier)

	return g, issues
}

// injectTierEdges forces every priority-tier module to precede every
// default-tier module, even when descriptors do not declare it. Framework
// modules must initialize before base-game modules.
func injectTierEdges(g *Graph, priority, defaultTier []string) {
	priSet := mapset.NewSet(priority...)
	for _, def := range defaultTier {
		if !g.HasNode(def) || priSet.Contains(def) {
			continue
		}
		for _, pri := range priority {
			if !g.HasNode(pri) || pri == def {
				continue
			}
			_ = g.AddEdge(Edge{
				From:      def,
				To:        pri,
				Kind:      modules.LoadBeforeThis,
				Synthetic: true,
			})
		}
	}
}
