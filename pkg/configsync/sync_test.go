package configsync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func testOptions() Options {
	return Options{
		Extensions: []string{".xml", ".json", ".ini", ".txt"},
		Folders:    []string{"Configs", "Config", "Modules"},
		Protected:  []string{"LauncherData.xml", "BannerlordConfig.txt", "engine_config.txt"},
		Tolerance:  2 * time.Second,
	}
}

func newTestSyncer(t *testing.T) (*Syncer, string, string) {
	t.Helper()
	live := t.TempDir()
	shadow := t.TempDir()
	return New(live, shadow, testOptions(), nil), live, shadow
}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func touch(t *testing.T, path string, at time.Time) {
	t.Helper()
	if err := os.Chtimes(path, at, at); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoveryFilter(t *testing.T) {
	s, live, _ := newTestSyncer(t)

	writeFile(t, live, filepath.Join("Configs", "engine.ini"), "a=1")
	writeFile(t, live, filepath.Join("Configs", "LauncherData.xml"), "<UserData/>")
	writeFile(t, live, filepath.Join("Configs", "save.sav"), "binary")
	writeFile(t, live, filepath.Join("Unrelated", "notes.txt"), "hi")
	writeFile(t, live, filepath.Join("Modules", "CoolMod", "settings.xml"), "<s/>")

	got, err := s.discover(live)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	want := []string{
		filepath.Join("Configs", "engine.ini"),
		filepath.Join("Modules", "CoolMod", "settings.xml"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("discovery mismatch (-want +got):\n%s", diff)
	}
}

func TestSyncToProfileMaterializes(t *testing.T) {
	s, live, shadow := newTestSyncer(t)
	writeFile(t, live, filepath.Join("Configs", "engine.ini"), "a=1")

	copied, err := s.SyncToProfile(context.Background())
	if err != nil {
		t.Fatalf("SyncToProfile: %v", err)
	}
	if copied != 1 {
		t.Errorf("copied = %d, want 1", copied)
	}

	data, err := os.ReadFile(filepath.Join(shadow, "Configs", "engine.ini"))
	if err != nil {
		t.Fatalf("shadow copy missing: %v", err)
	}
	if string(data) != "a=1" {
		t.Errorf("shadow content = %q", data)
	}
}

func TestSyncToLiveNewerShadowWins(t *testing.T) {
	s, live, shadow := newTestSyncer(t)

	livePath := writeFile(t, live, filepath.Join("Configs", "engine.ini"), "old")
	shadowPath := writeFile(t, shadow, filepath.Join("Configs", "engine.ini"), "new")

	base := time.Now().Add(-time.Hour)
	touch(t, livePath, base)
	touch(t, shadowPath, base.Add(10*time.Second))

	copied, err := s.SyncToLive(context.Background(), false)
	if err != nil {
		t.Fatalf("SyncToLive: %v", err)
	}
	if copied != 1 {
		t.Errorf("copied = %d, want 1", copied)
	}
	data, _ := os.ReadFile(livePath)
	if string(data) != "new" {
		t.Errorf("live content = %q, want shadow copy", data)
	}
}

func TestSyncToLiveWithinToleranceNoCopy(t *testing.T) {
	s, live, shadow := newTestSyncer(t)

	livePath := writeFile(t, live, filepath.Join("Configs", "engine.ini"), "old")
	shadowPath := writeFile(t, shadow, filepath.Join("Configs", "engine.ini"), "new")

	base := time.Now().Add(-time.Hour)
	touch(t, livePath, base)
	touch(t, shadowPath, base.Add(time.Second))

	if _, err := s.SyncToLive(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(livePath)
	if string(data) != "old" {
		t.Error("copies within tolerance must count as equal")
	}
}

func TestSyncToLiveForceClearsStaleFiles(t *testing.T) {
	s, live, shadow := newTestSyncer(t)

	stale := writeFile(t, live, filepath.Join("Configs", "leftover.ini"), "stale")
	writeFile(t, shadow, filepath.Join("Configs", "engine.ini"), "fresh")

	copied, err := s.SyncToLive(context.Background(), true)
	if err != nil {
		t.Fatalf("SyncToLive force: %v", err)
	}
	if copied != 1 {
		t.Errorf("copied = %d, want 1", copied)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale live file must be cleared under force")
	}
	if _, err := os.Stat(filepath.Join(live, "Configs", "engine.ini")); err != nil {
		t.Errorf("forced copy missing: %v", err)
	}
}

func TestSyncToLiveInvalidShadowSkipped(t *testing.T) {
	s, live, shadow := newTestSyncer(t)

	livePath := writeFile(t, live, filepath.Join("Configs", "settings.json"), `{"ok":true}`)
	shadowPath := writeFile(t, shadow, filepath.Join("Configs", "settings.json"), `{"broken`)

	base := time.Now().Add(-time.Hour)
	touch(t, livePath, base)
	touch(t, shadowPath, base.Add(10*time.Second))

	if _, err := s.SyncToLive(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(livePath)
	if string(data) != `{"ok":true}` {
		t.Error("invalid shadow content must not overwrite live")
	}
}

func TestSyncToLiveIdempotent(t *testing.T) {
	s, live, shadow := newTestSyncer(t)

	writeFile(t, live, filepath.Join("Configs", "engine.ini"), "a=1")
	writeFile(t, shadow, filepath.Join("Configs", "other.ini"), "b=2")

	if _, err := s.SyncToLive(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	copied, err := s.SyncToLive(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if copied != 0 {
		t.Errorf("second pass copied %d files, want 0", copied)
	}
}

func TestSyncMissingDirectoriesNoop(t *testing.T) {
	s := New(
		filepath.Join(t.TempDir(), "does-not-exist"),
		filepath.Join(t.TempDir(), "also-missing"),
		testOptions(), nil)

	if _, err := s.SyncToLive(context.Background(), false); err != nil {
		t.Errorf("SyncToLive on missing dirs: %v", err)
	}
	if _, err := s.SyncToProfile(context.Background()); err != nil {
		t.Errorf("SyncToProfile on missing dirs: %v", err)
	}
	inSync, err := s.InSync()
	if err != nil || !inSync {
		t.Errorf("InSync = (%v, %v), want trivially true", inSync, err)
	}
}

func TestInSync(t *testing.T) {
	s, live, shadow := newTestSyncer(t)

	writeFile(t, live, filepath.Join("Configs", "engine.ini"), "same")
	writeFile(t, shadow, filepath.Join("Configs", "engine.ini"), "same")
	writeFile(t, shadow, filepath.Join("Configs", "only-shadow.ini"), "x")

	inSync, err := s.InSync()
	if err != nil {
		t.Fatal(err)
	}
	if !inSync {
		t.Error("identical overlapping files must be in sync")
	}

	writeFile(t, live, filepath.Join("Configs", "engine.ini"), "changed")
	inSync, err = s.InSync()
	if err != nil {
		t.Fatal(err)
	}
	if inSync {
		t.Error("differing content must not be in sync")
	}
}

func TestRestore(t *testing.T) {
	s, live, shadow := newTestSyncer(t)

	rel := filepath.Join("Configs", "engine.ini")
	writeFile(t, live, rel, "original")
	writeFile(t, shadow, rel, "edited")

	if err := s.Restore(rel); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(shadow, rel))
	if string(data) != "original" {
		t.Errorf("shadow content = %q, want live original", data)
	}
	data, _ = os.ReadFile(filepath.Join(live, rel))
	if string(data) != "original" {
		t.Errorf("live content = %q, Restore must not touch the live side", data)
	}

	if err := s.Restore(filepath.Join("Configs", "missing.ini")); err == nil {
		t.Error("Restore of a file with no live copy must fail")
	}
	if err := s.Restore(filepath.Join("..", "escape.ini")); err == nil {
		t.Error("Restore must reject traversal paths")
	}
}
