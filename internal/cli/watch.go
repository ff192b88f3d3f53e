package cli

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/knightfall-dh/bannerman/pkg/manager"
	"github.com/knightfall-dh/bannerman/pkg/modules"
)

// watchDebounce is the quiet interval after the last filesystem event before
// a refresh runs. Editors and installers emit bursts of events per file.
const watchDebounce = 500 * time.Millisecond

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch module and config directories, re-resolving on changes",
		Long: `Watch the module roots and the profile shadow config directory.
Descriptor changes trigger a refresh and persist; shadow config changes are
pushed to the live tree. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd.Context())
		},
	}
}

func (c *CLI) runWatch(ctx context.Context) error {
	cfg, err := c.loadSettings()
	if err != nil {
		return err
	}
	m := manager.New(cfg, c.Logger)
	defer m.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	roots := []string{
		cfg.Paths.NativeRoot(),
		cfg.Paths.ModsRoot,
		cfg.Paths.OverrideRoot,
		cfg.Paths.ShadowConfigDir(),
	}
	for _, root := range roots {
		if root == "" {
			continue
		}
		if err := watchTree(watcher, root); err != nil {
			c.Logger.Warn("watch root unavailable", "path", root, "err", err)
		}
	}

	if err := m.Refresh(ctx); err != nil {
		c.Logger.Error("initial refresh failed", "err", err)
	}
	printInfo("Watching %d directories, press Ctrl+C to stop", len(watcher.WatchList()))

	var (
		timer       *time.Timer
		timerC      <-chan time.Time
		descriptors bool
		configs     bool
	)
	shadowDir := cfg.Paths.ShadowConfigDir()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watchTree(watcher, event.Name); err != nil {
						c.Logger.Debug("watch new directory failed", "path", event.Name, "err", err)
					}
				}
			}
			if filepath.Base(event.Name) == modules.DescriptorFileName {
				descriptors = true
			}
			if shadowDir != "" && isUnder(shadowDir, event.Name) {
				configs = true
			}
			if !descriptors && !configs {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				timer.Reset(watchDebounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.Logger.Warn("watch error", "err", err)

		case <-timerC:
			timer = nil
			timerC = nil

			if descriptors {
				descriptors = false
				if err := m.Refresh(ctx); err != nil {
					c.Logger.Error("refresh failed", "err", err)
				} else if err := m.OnOrderChanged(m.Order()); err != nil {
					c.Logger.Error("persist failed", "err", err)
				} else {
					c.Logger.Info("order refreshed", "modules", len(m.Order()))
				}
			}
			if configs {
				configs = false
				if copied, err := m.Syncer().SyncToLive(ctx, false); err != nil {
					c.Logger.Error("config sync failed", "err", err)
				} else if copied > 0 {
					c.Logger.Info("configs synced", "files", copied)
				}
			}
		}
	}
}

// watchTree registers root and every directory below it.
func watchTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

// isUnder reports whether path is inside dir.
func isUnder(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !filepath.IsAbs(rel) && !hasDotDotPrefix(rel)
}

func hasDotDotPrefix(rel string) bool {
	return rel == ".." || len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
