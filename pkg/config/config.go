// Package config holds the Bannerman settings.
//
// Settings are plain data: filesystem roots supplied by the host, the tier
// membership lists, the pinned module ids and the persistence policy. All of
// them ship with compiled-in Bannerlord defaults and can be overridden from a
// TOML file, so nothing about a particular game install is hardcoded into
// the resolver or the stores.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	apperrors "github.com/knightfall-dh/bannerman/pkg/errors"
)

// Duration wraps time.Duration so TOML values can be written as "1s" or "250ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Paths are the filesystem roots the manager operates on. The host (or the
// settings file) supplies them; nothing is discovered automatically.
type Paths struct {
	// GameRoot is the game installation directory. Native modules live in
	// GameRoot/Modules.
	GameRoot string `toml:"game_root"`

	// ModsRoot is the add-on root containing one directory per installed
	// mod, each with its own module tree.
	ModsRoot string `toml:"mods_root"`

	// OverrideRoot is an optional directory whose descriptors occlude all
	// other sources for the same module id.
	OverrideRoot string `toml:"override_root"`

	// ProfileDir is the current profile's private storage directory.
	ProfileDir string `toml:"profile_dir"`

	// DocumentsDir is the game's documents directory holding the live
	// configuration tree read directly by the game.
	DocumentsDir string `toml:"documents_dir"`
}

// Tiers lists the fixed module sets with ordering privileges.
type Tiers struct {
	// Priority modules must precede every default-tier module.
	Priority []string `toml:"priority"`

	// Default is the base-game module order.
	Default []string `toml:"default"`
}

// Launcher controls persistence of the order/state document.
type Launcher struct {
	// Pinned modules are always written as enabled, whatever the caller says.
	Pinned []string `toml:"pinned"`

	// Multiplayer is the fixed membership of the multiplayer mod list.
	Multiplayer []string `toml:"multiplayer"`

	// DLLCheck lists framework modules recorded in the DLLCheckData section.
	DLLCheck []string `toml:"dll_check"`

	// WriteCooldown is the minimum interval between two persisted writes;
	// faster changes are coalesced.
	WriteCooldown Duration `toml:"write_cooldown"`

	// MaxBackups caps the retained timestamped backups; oldest are deleted first.
	MaxBackups int `toml:"max_backups"`
}

// Sync controls live/shadow configuration mirroring.
type Sync struct {
	// Extensions is the allow-set of config file extensions (lowercase, with dot).
	Extensions []string `toml:"extensions"`

	// Folders are the directory names a config path must contain to be synced.
	Folders []string `toml:"folders"`

	// Protected are filenames that must never be shadowed.
	Protected []string `toml:"protected"`

	// Tolerance is the mtime slack below which two copies count as equal.
	Tolerance Duration `toml:"tolerance"`
}

// Settings is the full Bannerman configuration.
type Settings struct {
	Paths    Paths    `toml:"paths"`
	Tiers    Tiers    `toml:"tiers"`
	Launcher Launcher `toml:"launcher"`
	Sync     Sync     `toml:"sync"`
}

// Default returns the compiled-in Bannerlord settings. Paths are left empty;
// the host or the settings file must fill them in.
func Default() Settings {
	return Settings{
		Tiers: Tiers{
			Priority: []string{
				"Bannerlord.Harmony",
				"Bannerlord.ButterLib",
				"Bannerlord.UIExtenderEx",
				"Bannerlord.MBOptionScreen",
			},
			Default: []string{
				"Native",
				"SandBoxCore",
				"BirthAndDeath",
				"CustomBattle",
				"Sandbox",
				"StoryMode",
				"Multiplayer",
			},
		},
		Launcher: Launcher{
			Pinned:      []string{"Sandbox", "Multiplayer"},
			Multiplayer: []string{"Native", "Multiplayer", "Bannerlord.Harmony"},
			DLLCheck: []string{
				"Bannerlord.ButterLib",
				"Bannerlord.Harmony",
				"Bannerlord.MBOptionScreen",
				"Bannerlord.UIExtenderEx",
				"RBM",
			},
			WriteCooldown: Duration{time.Second},
			MaxBackups:    5,
		},
		Sync: Sync{
			Extensions: []string{".xml", ".json", ".ini", ".txt"},
			Folders:    []string{"Configs", "Config", "Modules"},
			Protected:  []string{"LauncherData.xml", "BannerlordConfig.txt", "engine_config.txt"},
			Tolerance:  Duration{2 * time.Second},
		},
	}
}

// Load reads a TOML settings file on top of the compiled-in defaults.
// A missing file is not an error: the defaults are returned unchanged.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, nil
	}

	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Settings{}, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "decode settings %s", path)
	}
	return s, nil
}

// NativeRoot returns the native module directory under the game root.
func (p Paths) NativeRoot() string {
	if p.GameRoot == "" {
		return ""
	}
	return filepath.Join(p.GameRoot, "Modules")
}

// LauncherDataPath returns the profile-scoped order/state document path.
func (p Paths) LauncherDataPath() string {
	return filepath.Join(p.ProfileDir, "LauncherData.xml")
}

// MirrorPath returns the well-known location the native launcher reads.
func (p Paths) MirrorPath() string {
	return filepath.Join(p.DocumentsDir, "Configs", "LauncherData.xml")
}

// ModlistPath returns the profile's plain-text enablement list.
func (p Paths) ModlistPath() string {
	return filepath.Join(p.ProfileDir, "modlist.txt")
}

// ShadowConfigDir returns the profile-scoped shadow configuration directory.
func (p Paths) ShadowConfigDir() string {
	return filepath.Join(p.ProfileDir, "mod_configs")
}
