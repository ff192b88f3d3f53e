package modules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// writeModule creates root/<dir>/SubModule.xml and returns its path.
func writeModule(t *testing.T, root, dir, id, version string) string {
	t.Helper()
	moduleDir := filepath.Join(root, dir)
	if err := os.MkdirAll(moduleDir, 0o755); err != nil {
		t.Fatal(err)
	}
	var idElem string
	if id != "" {
		idElem = fmt.Sprintf(`<Id value=%q/>`, id)
	}
	body := fmt.Sprintf(`<Module>%s<Version value=%q/></Module>`, idElem, version)
	path := filepath.Join(moduleDir, DescriptorFileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadUsesCacheUntilFileChanges(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	path := writeModule(t, root, "Native", "Native", "v1.2.12")

	s := NewStore(nil)

	d1, err := s.Load(ctx, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d2, err := s.Load(ctx, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d1 != d2 {
		t.Error("unchanged file was re-parsed instead of served from cache")
	}

	// Rewrite with a different mtime; the entry must be invalidated.
	if err := os.WriteFile(path, []byte(`<Module><Id value="Native"/><Version value="v1.3.0"/></Module>`), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	d3, err := s.Load(ctx, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := d3.Version.String(); got != "v1.3.0.0" {
		t.Errorf("Version after change = %s, want v1.3.0.0", got)
	}
}

func TestLoadMissingFileInvalidates(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	path := writeModule(t, root, "Gone", "Gone", "v1.0.0")

	s := NewStore(nil)
	if _, err := s.Load(ctx, path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.CachedCount() != 1 {
		t.Fatalf("CachedCount = %d, want 1", s.CachedCount())
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, path); err == nil {
		t.Fatal("Load succeeded on deleted file")
	}
	if s.CachedCount() != 0 {
		t.Errorf("CachedCount = %d after deletion, want 0", s.CachedCount())
	}
}

func TestInvalidateForcesReparse(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	path := writeModule(t, root, "Native", "Native", "v1.0.0")

	s := NewStore(nil)
	d1, err := s.Load(ctx, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	s.Invalidate(path)

	d2, err := s.Load(ctx, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d1 == d2 {
		t.Error("Invalidate did not force a re-parse")
	}
}

func TestScanMergesRootsDeterministically(t *testing.T) {
	ctx := context.Background()
	native := t.TempDir()
	mods := t.TempDir()

	writeModule(t, native, "Native", "Native", "v1.2.12")
	writeModule(t, native, "Sandbox", "Sandbox", "v1.2.12")
	writeModule(t, mods, "Cool Mod", "CoolMod", "v2.0.0")
	writeModule(t, mods, "Other Mod", "OtherMod", "v0.9.0")

	s := NewStore(nil)
	req := ScanRequest{
		NativeRoot:  native,
		ModsRoot:    mods,
		EnabledMods: []string{"Cool Mod", "Other Mod"},
	}

	var first []string
	for i := 0; i < 3; i++ {
		cands, err := s.Scan(ctx, req)
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		var ids []string
		for _, c := range cands {
			ids = append(ids, c.Descriptor.ID)
		}
		if first == nil {
			first = ids
			want := []string{"Native", "Sandbox", "CoolMod", "OtherMod"}
			if diff := cmp.Diff(want, ids); diff != "" {
				t.Fatalf("scan order mismatch (-want +got):\n%s", diff)
			}
			continue
		}
		if diff := cmp.Diff(first, ids); diff != "" {
			t.Errorf("scan %d order differs (-first +got):\n%s", i, diff)
		}
	}
}

func TestScanSkipsMalformedDescriptor(t *testing.T) {
	ctx := context.Background()
	native := t.TempDir()

	writeModule(t, native, "Native", "Native", "v1.2.12")
	broken := filepath.Join(native, "Broken")
	if err := os.MkdirAll(broken, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(broken, DescriptorFileName), []byte("<Module><bad"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(nil)
	cands, err := s.Scan(ctx, ScanRequest{NativeRoot: native})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(cands) != 1 || cands[0].Descriptor.ID != "Native" {
		t.Errorf("candidates = %+v, want only Native", cands)
	}
}

func TestScanMissingRootsYieldNothing(t *testing.T) {
	s := NewStore(nil)
	cands, err := s.Scan(context.Background(), ScanRequest{
		NativeRoot:  filepath.Join(t.TempDir(), "does-not-exist"),
		ModsRoot:    filepath.Join(t.TempDir(), "also-missing"),
		EnabledMods: []string{"SomeMod"},
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("candidates = %d, want 0", len(cands))
	}
}

func TestScanDisabledModsAreNotScanned(t *testing.T) {
	ctx := context.Background()
	mods := t.TempDir()
	writeModule(t, mods, "Enabled Mod", "EnabledMod", "v1.0.0")
	writeModule(t, mods, "Disabled Mod", "DisabledMod", "v1.0.0")

	s := NewStore(nil)
	cands, err := s.Scan(ctx, ScanRequest{ModsRoot: mods, EnabledMods: []string{"Enabled Mod"}})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(cands) != 1 || cands[0].Descriptor.ID != "EnabledMod" {
		t.Errorf("candidates = %+v, want only EnabledMod", cands)
	}
}

func TestDisabledIDsResolvesDirectoryNames(t *testing.T) {
	ctx := context.Background()
	mods := t.TempDir()
	writeModule(t, mods, "harmony-dev", "Bannerlord.Harmony", "v2.3.0")
	writeModule(t, mods, "CoolMod", "CoolMod", "v1.0.0")

	s := NewStore(nil)
	got := s.DisabledIDs(ctx, mods, []string{"harmony-dev", "CoolMod", "NoDescriptor"})

	want := []string{"Bannerlord.Harmony", "CoolMod", "NoDescriptor"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestScanFallbackIDFromDirectory(t *testing.T) {
	ctx := context.Background()
	native := t.TempDir()
	writeModule(t, native, "DirNameMod", "", "v1.0.0")

	s := NewStore(nil)
	cands, err := s.Scan(ctx, ScanRequest{NativeRoot: native})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(cands) != 1 || cands[0].Descriptor.ID != "DirNameMod" {
		t.Errorf("candidates = %+v, want DirNameMod from directory name", cands)
	}
}
