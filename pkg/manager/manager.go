// Package manager wires the stores, the resolver and the synchronizer into
// the lifecycle the host drives.
//
// The host delivers discrete triggers: a profile switch, an order or
// enablement change from its UI, "about to launch" and "run finished". The
// manager owns the in-memory module state between triggers and is not safe
// for concurrent trigger delivery from multiple goroutines beyond the
// documented guard flags.
package manager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/knightfall-dh/bannerman/pkg/config"
	"github.com/knightfall-dh/bannerman/pkg/configsync"
	"github.com/knightfall-dh/bannerman/pkg/launcherdata"
	"github.com/knightfall-dh/bannerman/pkg/modgraph"
	"github.com/knightfall-dh/bannerman/pkg/modules"
	"github.com/knightfall-dh/bannerman/pkg/observability"
)

// Manager owns the module list, its resolved order and the persisted state.
type Manager struct {
	cfg    config.Settings
	logger *log.Logger

	store     *modules.Store
	launcher  *launcherdata.Store
	debouncer *launcherdata.Debouncer
	syncer    *configsync.Syncer

	mu        sync.Mutex
	state     launcherdata.State
	order     []string
	issues    []modgraph.Issue
	graph     *modgraph.Graph
	firstLoad bool

	profileChanging atomic.Bool
}

// New assembles a manager from settings.
func New(cfg config.Settings, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}

	policy := launcherdata.Policy{
		Pinned:      cfg.Launcher.Pinned,
		Multiplayer: cfg.Launcher.Multiplayer,
		Known:       append(append([]string{}, cfg.Tiers.Priority...), cfg.Tiers.Default...),
		DLLCheck:    cfg.Launcher.DLLCheck,
	}
	launcher := launcherdata.NewStore(
		cfg.Paths.LauncherDataPath(), cfg.Paths.MirrorPath(),
		policy, cfg.Launcher.MaxBackups, logger)

	return &Manager{
		cfg:       cfg,
		logger:    logger,
		store:     modules.NewStore(logger),
		launcher:  launcher,
		debouncer: launcherdata.NewDebouncer(launcher, cfg.Launcher.WriteCooldown.Duration, logger),
		syncer: configsync.New(
			cfg.Paths.DocumentsDir, cfg.Paths.ShadowConfigDir(),
			configsync.Options{
				Extensions: cfg.Sync.Extensions,
				Folders:    cfg.Sync.Folders,
				Protected:  cfg.Sync.Protected,
				Tolerance:  cfg.Sync.Tolerance.Duration,
			}, logger),
		firstLoad: true,
	}
}

// Refresh rescans descriptors, rebuilds the constraint graph and resolves
// the load order.
//
// The externally supplied ranking for the resolver is the persisted document
// order on the first load and the current in-memory order afterwards, so a
// rescan never shuffles what the user arranged. A cycle leaves the previous
// order and state untouched and is returned to the caller.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	modlist, err := modules.LoadModlist(m.cfg.Paths.ModlistPath())
	if err != nil {
		return err
	}

	candidates, err := m.store.Scan(ctx, modules.ScanRequest{
		NativeRoot:   m.cfg.Paths.NativeRoot(),
		OverrideRoot: m.cfg.Paths.OverrideRoot,
		ModsRoot:     m.cfg.Paths.ModsRoot,
		EnabledMods:  modlist.Enabled,
	})
	if err != nil {
		return err
	}
	pool := modules.BuildPool(candidates)

	// The enablement list names mod directories, not module ids; resolve
	// disabled names through their descriptors before handing them to the
	// builder, which compares against dependency ids.
	disabled := m.store.DisabledIDs(ctx, m.cfg.Paths.ModsRoot, modlist.Disabled)

	graph, issues := modgraph.Build(modgraph.BuildInput{
		Pool:         pool,
		Disabled:     mapset.NewSet(disabled...),
		PriorityTier: m.cfg.Tiers.Priority,
		DefaultTier:  m.cfg.Tiers.Default,
	})
	for _, issue := range issues {
		m.logger.Warn("resolution issue", "kind", issue.Kind.String(), "detail", issue.Message)
	}

	persisted := m.launcher.Load()
	external := m.externalRanking(persisted)

	observability.Resolve().OnSortStart(ctx, graph.NodeCount())
	sortStart := time.Now()
	order, err := modgraph.Sort(modgraph.SortInput{
		Graph:        graph,
		PriorityTier: m.cfg.Tiers.Priority,
		DefaultTier:  m.cfg.Tiers.Default,
		External:     external,
	})
	observability.Resolve().OnSortComplete(ctx, len(order), time.Since(sortStart), err)
	if err != nil {
		var cycle *modgraph.CycleError
		if errors.As(err, &cycle) {
			m.logger.Error("sort aborted, keeping previous order", "module", cycle.ID)
		}
		return err
	}

	m.state = m.rebuildState(order, pool, persisted, modlist)
	m.order = order
	m.issues = issues
	m.graph = graph
	m.firstLoad = false
	m.debouncer.Reset(m.state)
	return nil
}

// externalRanking picks the ranking handed to the resolver: persisted order
// on first load, the in-memory order afterwards.
func (m *Manager) externalRanking(persisted launcherdata.State) []string {
	if !m.firstLoad && len(m.order) > 0 {
		return m.order
	}
	out := make([]string, 0, len(persisted.Entries))
	for _, e := range persisted.Entries {
		out = append(out, e.ID)
	}
	return out
}

// rebuildState assembles the post-refresh state in resolved order. Enabled
// flags carry over from the persisted document when known; new modules start
// from the enablement list, and unknown new modules default to enabled.
func (m *Manager) rebuildState(order []string, pool *modules.Pool, persisted launcherdata.State, modlist modules.Modlist) launcherdata.State {
	var s launcherdata.State
	for _, id := range order {
		d, ok := pool.Descriptor(id)
		if !ok {
			continue
		}
		enabled := !modlist.IsDisabled(id)
		if prev, ok := persisted.Entry(id); ok {
			enabled = prev.Enabled
		}
		s.Entries = append(s.Entries, launcherdata.Entry{
			ID:          id,
			Version:     d.Version,
			Enabled:     enabled,
			Multiplayer: d.Multiplayer,
		})
	}
	return s
}

// Order returns the current resolved order.
func (m *Manager) Order() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Issues returns the advisory issues from the last refresh.
func (m *Manager) Issues() []modgraph.Issue {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]modgraph.Issue, len(m.issues))
	copy(out, m.issues)
	return out
}

// Graph returns the constraint graph from the last refresh, or nil.
func (m *Manager) Graph() *modgraph.Graph {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.graph
}

// State returns a copy of the current module state.
func (m *Manager) State() launcherdata.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Syncer exposes the config synchronizer for direct host use.
func (m *Manager) Syncer() *configsync.Syncer { return m.syncer }

// OnOrderChanged accepts a manually rearranged order and persists it
// immediately. Ids not in the current state are ignored; current ids missing
// from the new order keep their relative position at the end.
func (m *Manager) OnOrderChanged(order []string) error {
	m.mu.Lock()

	rearranged := launcherdata.State{}
	seen := mapset.NewSet[string]()
	for _, id := range order {
		if e, ok := m.state.Entry(id); ok && !seen.Contains(id) {
			rearranged.Entries = append(rearranged.Entries, e)
			seen.Add(id)
		}
	}
	for _, e := range m.state.Entries {
		if !seen.Contains(e.ID) {
			rearranged.Entries = append(rearranged.Entries, e)
		}
	}

	m.state = rearranged
	m.order = make([]string, 0, len(rearranged.Entries))
	for _, e := range rearranged.Entries {
		m.order = append(m.order, e.ID)
	}
	m.debouncer.Reset(m.state)
	snapshot := m.state.Clone()
	m.mu.Unlock()

	return m.launcher.Save(snapshot)
}

// OnEnablementChanged queues a single toggle through the debounced writer.
func (m *Manager) OnEnablementChanged(id string, enabled bool) {
	m.mu.Lock()
	m.state.SetEnabled(id, enabled)
	m.mu.Unlock()

	m.debouncer.QueueChange(id, enabled)
}

// EnableAll marks every module enabled and persists once.
func (m *Manager) EnableAll() error {
	return m.setAll(true)
}

// DisableAll marks every module disabled, except the pinned ids, and
// persists once.
func (m *Manager) DisableAll() error {
	return m.setAll(false)
}

func (m *Manager) setAll(enabled bool) error {
	pinned := mapset.NewSet(m.cfg.Launcher.Pinned...)

	m.mu.Lock()
	for i := range m.state.Entries {
		id := m.state.Entries[i].ID
		m.state.Entries[i].Enabled = enabled || pinned.Contains(id)
	}
	m.debouncer.Reset(m.state)
	snapshot := m.state.Clone()
	m.mu.Unlock()

	return m.launcher.Save(snapshot)
}

// OnProfileChanged handles a profile switch: force-sync the new profile's
// shadow configs over the live tree, then refresh and persist. Re-entrant
// calls (a sync side effect can re-fire the trigger) are no-ops.
func (m *Manager) OnProfileChanged(ctx context.Context) error {
	if !m.profileChanging.CompareAndSwap(false, true) {
		m.logger.Debug("profile change already in progress, skipping")
		return nil
	}
	defer m.profileChanging.Store(false)

	if _, err := m.syncer.SyncToLive(ctx, true); err != nil {
		return err
	}
	if err := m.Refresh(ctx); err != nil {
		return err
	}
	return m.launcher.Save(m.State())
}

// OnAboutToLaunch flushes pending writes and pushes newer shadow configs to
// the live tree so the game starts from the profile's view.
func (m *Manager) OnAboutToLaunch(ctx context.Context) error {
	if err := m.debouncer.Flush(); err != nil {
		return err
	}
	_, err := m.syncer.SyncToLive(ctx, false)
	return err
}

// OnRunFinished pulls configs the game rewrote back into the profile shadow.
func (m *Manager) OnRunFinished(ctx context.Context) error {
	_, err := m.syncer.SyncToProfile(ctx)
	return err
}

// Close flushes pending writes and stops the debouncer.
func (m *Manager) Close() error {
	return m.debouncer.Close()
}
