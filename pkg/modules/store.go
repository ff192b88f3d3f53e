package modules

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/knightfall-dh/bannerman/pkg/errors"
	"github.com/knightfall-dh/bannerman/pkg/observability"
)

// DescriptorFileName is the per-module descriptor file.
const DescriptorFileName = "SubModule.xml"

// scanWorkers bounds the parallel descriptor parse fan-out.
const scanWorkers = 8

// Candidate is one descriptor found during a scan, before source-precedence
// resolution has picked a winner per module id.
type Candidate struct {
	Descriptor *ModuleDescriptor

	// Origin names where the candidate came from for reporting: "native",
	// "override", or the enabled add-on directory name.
	Origin string

	// Rank is the candidate's position in the enabled add-on list. Higher
	// ranks sit closer to the top of the effective stack and win within the
	// add-on source kind. Zero for native and override candidates.
	Rank int
}

// ScanRequest names the candidate roots for one scan pass.
type ScanRequest struct {
	// NativeRoot is the base game Modules directory (one subdirectory per module).
	NativeRoot string

	// OverrideRoot optionally holds descriptors that occlude all other
	// sources, laid out like NativeRoot. Empty disables the source.
	OverrideRoot string

	// ModsRoot is the add-on root containing one directory per installed mod.
	ModsRoot string

	// EnabledMods lists the enabled add-on directory names in stack order
	// (lowest priority first). Disabled add-ons are not scanned.
	EnabledMods []string
}

// Store locates and parses module descriptors, caching parsed results keyed
// by file path with a modification-time invalidation check.
//
// The cache is safe for the concurrent scan workers; everything else follows
// the single-control-thread model, so callers serialize Scan/Load calls.
type Store struct {
	cache  *descriptorCache
	logger *log.Logger
}

// NewStore creates a descriptor store. A nil logger falls back to log.Default().
func NewStore(logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{
		cache:  newDescriptorCache(),
		logger: logger,
	}
}

// Load parses the descriptor at path, serving an unchanged file from the
// cache. The fallback module id is the containing directory name.
func (s *Store) Load(ctx context.Context, path string) (*ModuleDescriptor, error) {
	return s.load(ctx, path, SourceNative)
}

func (s *Store) load(ctx context.Context, path string, source SourceKind) (*ModuleDescriptor, error) {
	info, err := os.Stat(path)
	if err != nil {
		s.cache.invalidate(ctx, path)
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "descriptor %s", path)
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeIO, err, "stat descriptor %s", path)
	}

	if d, ok := s.cache.get(ctx, path, info.ModTime(), info.Size()); ok {
		return d, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIO, err, "open descriptor %s", path)
	}
	defer f.Close()

	fallbackID := filepath.Base(filepath.Dir(path))
	d, err := DecodeDescriptor(f, fallbackID)
	if err != nil {
		return nil, err
	}
	d.Source = source
	d.SourcePath = path

	if d.RawVersion != "" {
		if _, verr := ParseVersion(d.RawVersion); verr != nil {
			s.logger.Warn("unparseable module version, using default",
				"module", d.ID, "version", d.RawVersion, "path", path)
		}
	}

	s.cache.set(path, info.ModTime(), info.Size(), d)
	return d, nil
}

// DisabledIDs resolves enablement-list directory names to the module ids
// their descriptors declare. Enablement lists name mod directories, while
// dependency declarations name module ids; the two only coincide when a mod
// directory is named after its id. A name whose directory holds no readable
// descriptor maps to itself.
func (s *Store) DisabledIDs(ctx context.Context, modsRoot string, names []string) []string {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		found := false
		if modsRoot != "" {
			for _, path := range findDescriptors(filepath.Join(modsRoot, name)) {
				d, err := s.load(ctx, path, SourceAddOn)
				if err != nil {
					continue
				}
				ids = append(ids, d.ID)
				found = true
			}
		}
		if !found {
			ids = append(ids, name)
		}
	}
	return ids
}

// Invalidate drops the cache entry for path, forcing a re-parse on next access.
func (s *Store) Invalidate(path string) {
	s.cache.invalidate(context.Background(), path)
}

// CachedCount returns the number of live cache entries.
func (s *Store) CachedCount() int {
	return s.cache.len()
}

// scanTarget is one descriptor file to parse, discovered sequentially so the
// merged result order never depends on parse timing.
type scanTarget struct {
	path   string
	source SourceKind
	origin string
	rank   int
}

// Scan gathers the full candidate pool from the request's roots. Descriptor
// parsing fans out over a bounded worker pool; results are merged back in
// discovery order, so output is deterministic for identical inputs.
//
// Malformed descriptors are logged and excluded; they never abort the scan.
// A root that does not exist contributes nothing.
func (s *Store) Scan(ctx context.Context, req ScanRequest) ([]Candidate, error) {
	start := time.Now()
	roots := 0
	for _, r := range []string{req.NativeRoot, req.OverrideRoot, req.ModsRoot} {
		if r != "" {
			roots++
		}
	}
	observability.Resolve().OnScanStart(ctx, roots)

	targets := s.discoverTargets(req)

	results := make([]*ModuleDescriptor, len(targets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(scanWorkers)
	for i, tgt := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := s.load(ctx, tgt.path, tgt.source)
			if err != nil {
				s.logger.Warn("skipping malformed descriptor", "path", tgt.path, "err", err)
				return nil
			}
			results[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		observability.Resolve().OnScanComplete(ctx, 0, time.Since(start), err)
		return nil, err
	}

	candidates := make([]Candidate, 0, len(targets))
	for i, d := range results {
		if d == nil {
			continue
		}
		candidates = append(candidates, Candidate{
			Descriptor: d,
			Origin:     targets[i].origin,
			Rank:       targets[i].rank,
		})
	}

	observability.Resolve().OnScanComplete(ctx, len(candidates), time.Since(start), nil)
	s.logger.Debug("descriptor scan complete",
		"targets", len(targets), "candidates", len(candidates),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return candidates, nil
}

// discoverTargets lists descriptor files in a fixed order: native modules
// (sorted by directory), enabled add-ons (enablement order, then path), then
// override entries (sorted by directory).
func (s *Store) discoverTargets(req ScanRequest) []scanTarget {
	var targets []scanTarget

	for _, dir := range sortedSubdirs(req.NativeRoot) {
		path := filepath.Join(req.NativeRoot, dir, DescriptorFileName)
		if fileExists(path) {
			targets = append(targets, scanTarget{path: path, source: SourceNative, origin: "native"})
		}
	}

	for rank, name := range req.EnabledMods {
		if req.ModsRoot == "" {
			break
		}
		modDir := filepath.Join(req.ModsRoot, name)
		for _, path := range findDescriptors(modDir) {
			targets = append(targets, scanTarget{path: path, source: SourceAddOn, origin: name, rank: rank})
		}
	}

	for _, dir := range sortedSubdirs(req.OverrideRoot) {
		path := filepath.Join(req.OverrideRoot, dir, DescriptorFileName)
		if fileExists(path) {
			targets = append(targets, scanTarget{path: path, source: SourceOverride, origin: "override"})
		}
	}

	return targets
}

// findDescriptors walks a mod directory for descriptor files. WalkDir visits
// entries in lexical order, keeping discovery deterministic.
func findDescriptors(root string) []string {
	var paths []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if !d.IsDir() && d.Name() == DescriptorFileName {
			paths = append(paths, path)
		}
		return nil
	})
	return paths
}

func sortedSubdirs(root string) []string {
	if root == "" {
		return nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)
	return dirs
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
