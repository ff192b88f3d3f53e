package modgraph

import (
	"strings"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/knightfall-dh/bannerman/pkg/modules"
)

func desc(id, version string, deps ...modules.Dependency) *modules.ModuleDescriptor {
	return &modules.ModuleDescriptor{
		ID:           id,
		Name:         id,
		RawVersion:   version,
		Version:      modules.ParseVersionOrDefault(version),
		Dependencies: deps,
	}
}

func poolOf(descriptors ...*modules.ModuleDescriptor) *modules.Pool {
	cands := make([]modules.Candidate, 0, len(descriptors))
	for _, d := range descriptors {
		cands = append(cands, modules.Candidate{Descriptor: d})
	}
	return modules.BuildPool(cands)
}

func hardDep(id, constraint string) modules.Dependency {
	return modules.Dependency{ID: id, Order: modules.LoadAfterThis, VersionConstraint: constraint}
}

func optDep(id string) modules.Dependency {
	return modules.Dependency{ID: id, Order: modules.LoadAfterThis, Optional: true, VersionConstraint: "*"}
}

func TestBuildEdgesAndNodes(t *testing.T) {
	pool := poolOf(
		desc("Harmony", "v1.0.0.0"),
		desc("CoolMod", "v1.2.0.0", hardDep("Harmony", "*")),
	)

	g, issues := Build(BuildInput{Pool: pool})

	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Fatalf("counts = (%d, %d), want (2, 1)", g.NodeCount(), g.EdgeCount())
	}
	out := g.Out("CoolMod")
	if len(out) != 1 || out[0].To != "Harmony" || out[0].Kind != modules.LoadAfterThis {
		t.Errorf("Out(CoolMod) = %+v", out)
	}
}

func TestBuildMissingDependencyIssue(t *testing.T) {
	pool := poolOf(desc("CoolMod", "v1.0.0.0", hardDep("Harmony", "*")))

	g, issues := Build(BuildInput{Pool: pool})

	if g.EdgeCount() != 0 {
		t.Errorf("edges toward absent modules must not exist, got %d", g.EdgeCount())
	}
	if len(issues) != 1 || issues[0].Kind != IssueMissingDependency {
		t.Fatalf("issues = %v, want one missing-dependency", issues)
	}
	if !strings.Contains(issues[0].Message, "missing entirely") {
		t.Errorf("message = %q, want absent wording", issues[0].Message)
	}
}

func TestBuildDisabledDependencyMessage(t *testing.T) {
	pool := poolOf(desc("CoolMod", "v1.0.0.0", hardDep("Harmony", "*")))

	_, issues := Build(BuildInput{
		Pool:     pool,
		Disabled: mapset.NewSet("Harmony"),
	})

	if len(issues) != 1 || !strings.Contains(issues[0].Message, "disabled") {
		t.Fatalf("issues = %v, want disabled wording", issues)
	}
}

func TestBuildOptionalAbsentDependencySilent(t *testing.T) {
	pool := poolOf(desc("CoolMod", "v1.0.0.0", optDep("NiceToHave")))

	g, issues := Build(BuildInput{Pool: pool})

	if len(issues) != 0 {
		t.Errorf("optional absent dependency must not produce issues: %v", issues)
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount = %d, want 0", g.EdgeCount())
	}
}

func TestBuildVersionMismatchKeepsEdge(t *testing.T) {
	pool := poolOf(
		desc("Harmony", "v1.0.0.0"),
		desc("CoolMod", "v1.0.0.0", hardDep("Harmony", "1.1.0")),
	)

	g, issues := Build(BuildInput{Pool: pool})

	if len(issues) != 1 || issues[0].Kind != IssueVersionMismatch {
		t.Fatalf("issues = %v, want one version-mismatch", issues)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("mismatched dependency must still order, EdgeCount = %d", g.EdgeCount())
	}
}

func TestBuildIncompatibilityIssue(t *testing.T) {
	clash := desc("OldCombat", "v1.0.0.0")
	declaring := desc("NewCombat", "v1.0.0.0")
	declaring.Incompatibilities = []string{"OldCombat", "NeverInstalled"}

	g, issues := Build(BuildInput{Pool: poolOf(clash, declaring)})

	if len(issues) != 1 || issues[0].Kind != IssueIncompatibility {
		t.Fatalf("issues = %v, want one incompatibility for the present target", issues)
	}
	if issues[0].TargetID != "OldCombat" {
		t.Errorf("TargetID = %q, want OldCombat", issues[0].TargetID)
	}
	if g.EdgeCount() != 0 {
		t.Errorf("incompatibilities must not create edges, EdgeCount = %d", g.EdgeCount())
	}
}

func TestBuildInjectsTierEdges(t *testing.T) {
	pool := poolOf(
		desc("Native", "v1.2.0.0"),
		desc("Harmony", "v1.0.0.0"),
		desc("SandBox", "v1.2.0.0"),
	)

	g, _ := Build(BuildInput{
		Pool:         pool,
		PriorityTier: []string{"Harmony"},
		DefaultTier:  []string{"Native", "SandBox", "NotInstalled"},
	})

	var synthetic []Edge
	for _, e := range g.Edges() {
		if e.Synthetic {
			synthetic = append(synthetic, e)
		}
	}
	if len(synthetic) != 2 {
		t.Fatalf("synthetic edges = %d, want 2", len(synthetic))
	}
	for _, e := range synthetic {
		if e.To != "Harmony" || e.Kind != modules.LoadBeforeThis {
			t.Errorf("synthetic edge %+v, want default -> Harmony LoadBeforeThis", e)
		}
	}
}
