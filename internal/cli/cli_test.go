package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()

	want := map[string]bool{
		"refresh":    false,
		"sort":       false,
		"sync":       false,
		"hook":       false,
		"graph":      false,
		"watch":      false,
		"completion": false,
	}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %s not registered", name)
		}
	}
}

func TestLoadSettingsDefaultsWithoutConfig(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)

	cfg, err := c.loadSettings()
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	if len(cfg.Tiers.Priority) == 0 {
		t.Error("defaults must carry the priority tier")
	}
}

func TestLoadSettingsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bannerman.toml")
	if err := os.WriteFile(path, []byte("[paths]\ngame_root = \"/games/bannerlord\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, log.InfoLevel)
	c.configPath = path

	cfg, err := c.loadSettings()
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	if cfg.Paths.GameRoot != "/games/bannerlord" {
		t.Errorf("GameRoot = %q", cfg.Paths.GameRoot)
	}
}
