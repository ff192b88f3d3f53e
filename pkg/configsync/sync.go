// Package configsync mirrors live game configuration files into a
// profile-scoped shadow directory and back.
//
// The live directory is what the game reads and rewrites; the shadow is the
// per-profile copy owned by the manager. Synchronization is driven from the
// lifecycle points (profile switch, pre-launch, post-run) and compares
// modification times with a small tolerance, validating structured content
// before any copy.
package configsync

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	mapset "github.com/deckarep/golang-set/v2"

	apperrors "github.com/knightfall-dh/bannerman/pkg/errors"
	"github.com/knightfall-dh/bannerman/pkg/observability"
)

// Options fixes the discovery filter and timing rules.
type Options struct {
	// Extensions is the allow-set of file extensions, lowercase with dot.
	Extensions []string

	// Folders are directory names a path must contain to be considered a
	// config file.
	Folders []string

	// Protected filenames are never shadowed, whatever their location.
	Protected []string

	// Tolerance is the mtime slack below which neither side counts as newer.
	Tolerance time.Duration
}

// Syncer mirrors configuration files between the live and shadow trees.
//
// Each operation kind carries a re-entrancy guard: a sync triggered while the
// same kind is already running returns immediately. The guards exist because
// the lifecycle hooks can re-fire from the file changes a sync itself makes.
type Syncer struct {
	liveDir   string
	shadowDir string
	opts      Options
	logger    *log.Logger

	extensions mapset.Set[string]
	protected  mapset.Set[string]

	toLiveActive    atomic.Bool
	toProfileActive atomic.Bool
}

// New creates a syncer between liveDir and shadowDir.
func New(liveDir, shadowDir string, opts Options, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.Default()
	}
	ext := mapset.NewSet[string]()
	for _, e := range opts.Extensions {
		ext.Add(strings.ToLower(e))
	}
	prot := mapset.NewSet[string]()
	for _, p := range opts.Protected {
		prot.Add(strings.ToLower(p))
	}
	return &Syncer{
		liveDir:    liveDir,
		shadowDir:  shadowDir,
		opts:       opts,
		logger:     logger,
		extensions: ext,
		protected:  prot,
	}
}

// eligible reports whether a relative path passes the discovery filter.
func (s *Syncer) eligible(rel string) bool {
	name := filepath.Base(rel)
	if s.protected.Contains(strings.ToLower(name)) {
		return false
	}
	if !s.extensions.Contains(strings.ToLower(filepath.Ext(name))) {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/") {
		for _, folder := range s.opts.Folders {
			if strings.EqualFold(part, folder) {
				return true
			}
		}
	}
	return false
}

// discover lists eligible files under root, as slash-free relative paths in
// lexical walk order. A missing root is an empty list.
func (s *Syncer) discover(root string) ([]string, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if s.eligible(rel) {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIO, err, "walk %s", root)
	}
	return out, nil
}

// validate checks structured content before a copy. Formats outside the
// structured set always pass.
func validate(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := os.ReadFile(path)
		return err == nil && json.Valid(data)
	case ".xml":
		f, err := os.Open(path)
		if err != nil {
			return false
		}
		defer f.Close()
		dec := xml.NewDecoder(f)
		for {
			_, err := dec.Token()
			if err == io.EOF {
				return true
			}
			if err != nil {
				return false
			}
		}
	default:
		return true
	}
}

// SyncToLive copies shadow files over their live counterparts when the
// shadow is newer (or always, when force is set). With force, eligible live
// files are first cleared so leftovers from a previous profile disappear.
// Live files with no shadow yet are materialized into the shadow instead.
//
// Returns the number of files copied in either direction.
func (s *Syncer) SyncToLive(ctx context.Context, force bool) (int, error) {
	if !s.toLiveActive.CompareAndSwap(false, true) {
		s.logger.Debug("sync to live already running, skipping")
		return 0, nil
	}
	defer s.toLiveActive.Store(false)

	start := time.Now()
	shadowFiles, err := s.discover(s.shadowDir)
	if err != nil {
		observability.Sync().OnSyncComplete(ctx, "to-live", 0, time.Since(start), err)
		return 0, err
	}

	if force {
		if err := s.clearLive(); err != nil {
			return 0, err
		}
	}

	copied := 0
	for _, rel := range shadowFiles {
		src := filepath.Join(s.shadowDir, rel)
		dst := filepath.Join(s.liveDir, rel)

		if !force && !newerThan(src, dst, s.opts.Tolerance) {
			continue
		}
		if !validate(src) {
			s.logger.Warn("shadow file failed validation, keeping live copy", "file", rel)
			continue
		}
		if err := copyFile(src, dst); err != nil {
			s.logger.Error("copy to live failed", "file", rel, "err", err)
			continue
		}
		observability.Sync().OnCopy(ctx, "to-live", rel)
		copied++
	}

	n, err := s.materialize()
	copied += n
	observability.Sync().OnSyncComplete(ctx, "to-live", copied, time.Since(start), err)
	return copied, err
}

// SyncToProfile copies live files into the shadow when the live side is
// newer, materializing shadows for live files that have none yet.
func (s *Syncer) SyncToProfile(ctx context.Context) (int, error) {
	if !s.toProfileActive.CompareAndSwap(false, true) {
		s.logger.Debug("sync to profile already running, skipping")
		return 0, nil
	}
	defer s.toProfileActive.Store(false)

	start := time.Now()
	liveFiles, err := s.discover(s.liveDir)
	if err != nil {
		observability.Sync().OnSyncComplete(ctx, "to-profile", 0, time.Since(start), err)
		return 0, err
	}

	copied := 0
	for _, rel := range liveFiles {
		src := filepath.Join(s.liveDir, rel)
		dst := filepath.Join(s.shadowDir, rel)

		if _, err := os.Stat(dst); err == nil {
			if !newerThan(src, dst, s.opts.Tolerance) {
				continue
			}
		}
		if !validate(src) {
			s.logger.Warn("live file failed validation, not shadowed", "file", rel)
			continue
		}
		if err := copyFile(src, dst); err != nil {
			s.logger.Error("copy to shadow failed", "file", rel, "err", err)
			continue
		}
		observability.Sync().OnCopy(ctx, "to-profile", rel)
		copied++
	}

	observability.Sync().OnSyncComplete(ctx, "to-profile", copied, time.Since(start), nil)
	return copied, nil
}

// materialize creates shadow copies for live files that have none yet.
func (s *Syncer) materialize() (int, error) {
	liveFiles, err := s.discover(s.liveDir)
	if err != nil {
		return 0, err
	}

	copied := 0
	for _, rel := range liveFiles {
		src := filepath.Join(s.liveDir, rel)
		dst := filepath.Join(s.shadowDir, rel)

		if _, err := os.Stat(dst); err == nil {
			continue
		}
		if !validate(src) {
			s.logger.Warn("live file failed validation, not shadowed", "file", rel)
			continue
		}
		if err := copyFile(src, dst); err != nil {
			s.logger.Error("materialize shadow failed", "file", rel, "err", err)
			continue
		}
		copied++
	}
	return copied, nil
}

// clearLive deletes every eligible live file. Protected files and anything
// outside the filter are untouched.
func (s *Syncer) clearLive() error {
	liveFiles, err := s.discover(s.liveDir)
	if err != nil {
		return err
	}
	for _, rel := range liveFiles {
		if err := os.Remove(filepath.Join(s.liveDir, rel)); err != nil {
			s.logger.Warn("clear live file failed", "file", rel, "err", err)
		}
	}
	return nil
}

// InSync reports whether every file present on both sides has identical
// bytes. Sides with no overlapping files are trivially in sync.
func (s *Syncer) InSync() (bool, error) {
	shadowFiles, err := s.discover(s.shadowDir)
	if err != nil {
		return false, err
	}

	for _, rel := range shadowFiles {
		live := filepath.Join(s.liveDir, rel)
		if _, err := os.Stat(live); os.IsNotExist(err) {
			continue
		}
		same, err := sameContent(live, filepath.Join(s.shadowDir, rel))
		if err != nil {
			return false, err
		}
		if !same {
			return false, nil
		}
	}
	return true, nil
}

// Restore copies one live original over its profile shadow unconditionally,
// after validation, discarding any shadow edits.
func (s *Syncer) Restore(rel string) error {
	if err := apperrors.ValidateSubPath(rel); err != nil {
		return err
	}
	src := filepath.Join(s.liveDir, rel)
	if _, err := os.Stat(src); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "no live copy of %s", rel)
	}
	if !validate(src) {
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "live copy of %s failed validation", rel)
	}
	return copyFile(src, filepath.Join(s.shadowDir, rel))
}

// newerThan reports whether a's mtime exceeds b's by more than tolerance.
// A missing b counts as older.
func newerThan(a, b string, tolerance time.Duration) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return true
	}
	return ai.ModTime().Sub(bi.ModTime()) > tolerance
}

func sameContent(a, b string) (bool, error) {
	da, err := os.ReadFile(a)
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrCodeIO, err, "read %s", a)
	}
	db, err := os.ReadFile(b)
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrCodeIO, err, "read %s", b)
	}
	return bytes.Equal(da, db), nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIO, err, "read %s", src)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIO, err, "create %s", filepath.Dir(dst))
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIO, err, "write %s", dst)
	}
	return nil
}
