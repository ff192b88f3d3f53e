package launcherdata

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	apperrors "github.com/knightfall-dh/bannerman/pkg/errors"
)

const backupStampLayout = "20060102-150405.000"

// Store persists the launcher data document with timestamped backups, atomic
// replacement and a best-effort mirror copy.
type Store struct {
	path       string
	mirrorPath string
	policy     Policy
	maxBackups int
	logger     *log.Logger

	now func() time.Time
}

// NewStore creates a store writing to path. mirrorPath may be empty to skip
// mirroring. maxBackups values below one disable backups entirely.
func NewStore(path, mirrorPath string, policy Policy, maxBackups int, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{
		path:       path,
		mirrorPath: mirrorPath,
		policy:     policy,
		maxBackups: maxBackups,
		logger:     logger,
		now:        time.Now,
	}
}

// Path returns the primary document path.
func (s *Store) Path() string { return s.path }

// Load reads the persisted state. A missing or unparseable document is an
// empty state, never an error.
func (s *Store) Load() State {
	doc, ok := loadDocument(s.path)
	if !ok {
		if _, err := os.Stat(s.path); err == nil {
			s.logger.Warn("launcher data unreadable, starting empty", "path", s.path)
		}
		return State{}
	}
	return StateFromDocument(doc)
}

// Save persists the state: backup the existing document, write the new one
// atomically, then mirror it. Mirror failures are logged, not returned.
func (s *Store) Save(state State) error {
	doc := BuildDocument(state, s.policy)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIO, err, "create profile directory")
	}
	if err := s.backup(); err != nil {
		return err
	}
	if err := s.writeAtomic(s.path, doc); err != nil {
		return err
	}

	if s.mirrorPath != "" {
		if err := s.mirror(doc); err != nil {
			s.logger.Warn("mirror write failed", "path", s.mirrorPath, "err", err)
		}
	}
	return nil
}

// backup copies the current document aside under a timestamped name and
// prunes the oldest copies beyond the retention cap.
func (s *Store) backup() error {
	if s.maxBackups < 1 {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIO, err, "read current document")
	}

	name := fmt.Sprintf("%s.bak.%s", s.path, s.now().Format(backupStampLayout))
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIO, err, "write backup")
	}
	return s.pruneBackups()
}

func (s *Store) pruneBackups() error {
	backups, err := filepath.Glob(s.path + ".bak.*")
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIO, err, "list backups")
	}
	if len(backups) <= s.maxBackups {
		return nil
	}

	// The stamp format sorts lexicographically, oldest first.
	sort.Strings(backups)
	for _, old := range backups[:len(backups)-s.maxBackups] {
		if err := os.Remove(old); err != nil {
			s.logger.Warn("prune backup failed", "path", old, "err", err)
		}
	}
	return nil
}

// writeAtomic writes the document to a uniquely named temp file in the target
// directory, then renames it into place. A crash mid-write never leaves a
// truncated document behind.
func (s *Store) writeAtomic(path string, doc *Document) error {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))

	f, err := os.Create(tmp)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIO, err, "create temp document")
	}
	if err := EncodeDocument(doc, f); err != nil {
		f.Close()
		os.Remove(tmp)
		return apperrors.Wrap(apperrors.ErrCodeIO, err, "encode document")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return apperrors.Wrap(apperrors.ErrCodeIO, err, "close temp document")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return apperrors.Wrap(apperrors.ErrCodeIO, err, "replace document")
	}
	return nil
}

func (s *Store) mirror(doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(s.mirrorPath), 0o755); err != nil {
		return err
	}
	return s.writeAtomic(s.mirrorPath, doc)
}
