package modules

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func cand(id string, source SourceKind, origin string, rank int) Candidate {
	return Candidate{
		Descriptor: &ModuleDescriptor{
			ID:         id,
			Version:    DefaultVersion(),
			Source:     source,
			SourcePath: origin + "/" + id + "/SubModule.xml",
		},
		Origin: origin,
		Rank:   rank,
	}
}

func TestBuildPoolOverrideWins(t *testing.T) {
	// The same id present in native, an enabled add-on and the override
	// location: the override descriptor always wins.
	p := BuildPool([]Candidate{
		cand("Harmony", SourceNative, "native", 0),
		cand("Harmony", SourceAddOn, "Harmony Mod", 3),
		cand("Harmony", SourceOverride, "override", 0),
	})

	c, ok := p.Resolve("Harmony")
	if !ok {
		t.Fatal("Harmony not resolved")
	}
	if c.Descriptor.Source != SourceOverride {
		t.Errorf("winner source = %v, want override", c.Descriptor.Source)
	}
}

func TestBuildPoolHighestEnabledAddOnWins(t *testing.T) {
	// Without an override, the add-on closest to the top of the enabled
	// stack (highest rank) occludes lower ones and the native copy.
	p := BuildPool([]Candidate{
		cand("X", SourceNative, "native", 0),
		cand("X", SourceAddOn, "low", 0),
		cand("X", SourceAddOn, "high", 5),
		cand("X", SourceAddOn, "mid", 2),
	})

	c, _ := p.Resolve("X")
	if c.Origin != "high" {
		t.Errorf("winner origin = %q, want high", c.Origin)
	}
}

func TestBuildPoolNativeOnlyFallback(t *testing.T) {
	p := BuildPool([]Candidate{cand("Native", SourceNative, "native", 0)})
	c, ok := p.Resolve("Native")
	if !ok || c.Descriptor.Source != SourceNative {
		t.Errorf("native fallback not resolved: %+v", c)
	}
}

func TestBuildPoolEqualPrecedenceKeepsFirst(t *testing.T) {
	a := cand("Dup", SourceNative, "native", 0)
	b := cand("Dup", SourceNative, "native", 0)
	b.Descriptor.SourcePath = "second/Dup/SubModule.xml"

	p := BuildPool([]Candidate{a, b})
	c, _ := p.Resolve("Dup")
	if c.Descriptor.SourcePath != a.Descriptor.SourcePath {
		t.Errorf("winner path = %q, want first candidate", c.Descriptor.SourcePath)
	}
}

func TestPoolDiscoveryOrder(t *testing.T) {
	p := BuildPool([]Candidate{
		cand("Native", SourceNative, "native", 0),
		cand("Sandbox", SourceNative, "native", 0),
		cand("Native", SourceAddOn, "patch", 0), // wins, but keeps first-seen position
		cand("CoolMod", SourceAddOn, "patch", 0),
	})

	want := []string{"Native", "Sandbox", "CoolMod"}
	if diff := cmp.Diff(want, p.IDs()); diff != "" {
		t.Errorf("discovery order mismatch (-want +got):\n%s", diff)
	}

	if p.Len() != 3 {
		t.Errorf("Len = %d, want 3", p.Len())
	}
	if !p.IDSet().Contains("CoolMod") {
		t.Error("IDSet missing CoolMod")
	}

	// The winning Native descriptor is the add-on one.
	d, _ := p.Descriptor("Native")
	if d.Source != SourceAddOn {
		t.Errorf("Native winner source = %v, want add-on", d.Source)
	}
}
