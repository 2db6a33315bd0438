package store

import (
	"bufio"
	"bytes"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mindlog/mindlog/internal/codec"
	"github.com/mindlog/mindlog/internal/errs"
	"github.com/mindlog/mindlog/internal/model"
)

// Header is the format version marker on the first line of every store file.
const Header = "#mindlog v1"

// DefaultMaxFileBytes is the size ceiling past which a store that fails the
// integrity probe is recreated rather than repaired.
const DefaultMaxFileBytes = 100 << 20

// maxRecordBytes bounds a single record line during reads. Records are
// capped well below this by the entry size invariants.
const maxRecordBytes = 1 << 20

// Options configures a file store.
type Options struct {
	// MaxFileBytes is the recreate-don't-repair ceiling (default 100MB).
	MaxFileBytes int64
}

// OpenInfo reports what Open found and did.
type OpenInfo struct {
	// Created is true when a fresh store was initialized at an empty path.
	Created bool
	// Recovered is true when an existing file failed validation and was
	// backed up and recreated. This is a signal, not an error.
	Recovered bool
	// BackupPath is where the invalid file went when Recovered is true.
	BackupPath string
}

// FileStore is the append-only single-file implementation of Store.
type FileStore struct {
	path string
	opts Options

	// appendFile is the long-lived O_APPEND handle for writes.
	appendFile *os.File
}

var _ Store = (*FileStore)(nil)

// Open opens or creates the store at path, creating parent directories as
// needed. An existing file that fails structural validation is renamed to a
// timestamped backup and replaced with a fresh store; that case is reported
// through OpenInfo.Recovered rather than an error.
func Open(path string, opts Options) (*FileStore, OpenInfo, error) {
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = DefaultMaxFileBytes
	}

	var info OpenInfo

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, info, errs.Wrapf(err, errs.CodeStorageUnwritable, "create store dir for %s", path)
	}

	switch _, err := os.Stat(path); {
	case os.IsNotExist(err):
		if err := initFile(path); err != nil {
			return nil, info, err
		}
		info.Created = true
	case err != nil:
		return nil, info, errs.Wrapf(err, errs.CodeStorageIOFailure, "stat %s", path)
	default:
		if verr := validateFile(path, opts.MaxFileBytes); verr != nil {
			backup, rerr := recoverFile(path)
			if rerr != nil {
				return nil, info, rerr
			}
			slog.Warn("memory store corrupt, recreated",
				"path", path, "backup", backup, "reason", verr)
			info.Recovered = true
			info.BackupPath = backup
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, info, errs.Wrapf(err, errs.CodeStorageUnwritable, "open %s for append", path)
	}

	return &FileStore{path: path, opts: opts, appendFile: f}, info, nil
}

// initFile creates an empty valid store file containing only the header.
func initFile(path string) error {
	if err := os.WriteFile(path, []byte(Header+"\n"), 0o644); err != nil {
		return errs.Wrapf(err, errs.CodeStorageUnwritable, "init store %s", path)
	}
	return nil
}

// Path returns the store file path.
func (s *FileStore) Path() string {
	return s.path
}

// Write appends one entry.
func (s *FileStore) Write(e model.Entry) error {
	return s.WriteMany([]model.Entry{e})
}

// WriteMany appends a batch of entries as a single write so a crash cannot
// interleave foreign bytes between records. A torn trailing record is
// detected by framing on the next read.
func (s *FileStore) WriteMany(entries []model.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	var buf bytes.Buffer
	if open, err := s.endsMidLine(); err != nil {
		return err
	} else if open {
		// A torn trailing record has no newline. Start the batch on a fresh
		// line so the torn bytes cannot swallow the first new record.
		buf.WriteByte('\n')
	}
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return errs.Wrapf(err, errs.CodeStorageIOFailure, "write entry %s", e.ID)
		}
		frame, err := codec.EncodeFrame(e)
		if err != nil {
			return err
		}
		buf.Write(frame)
	}

	if _, err := s.appendFile.Write(buf.Bytes()); err != nil {
		return errs.Wrapf(err, errs.CodeStorageIOFailure, "append to %s", s.path)
	}
	if err := s.appendFile.Sync(); err != nil {
		return errs.Wrapf(err, errs.CodeStorageIOFailure, "sync %s", s.path)
	}
	return nil
}

// endsMidLine reports whether the store file's last byte is not a newline,
// which happens only after a torn append.
func (s *FileStore) endsMidLine() (bool, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return false, errs.Wrapf(err, errs.CodeStorageIOFailure, "open %s", s.path)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return false, errs.Wrapf(err, errs.CodeStorageIOFailure, "stat %s", s.path)
	}
	if fi.Size() == 0 {
		return false, nil
	}

	var last [1]byte
	if _, err := f.ReadAt(last[:], fi.Size()-1); err != nil {
		return false, errs.Wrapf(err, errs.CodeStorageIOFailure, "read %s", s.path)
	}
	return last[0] != '\n', nil
}

// ReadAll returns all valid entries in insertion order. Malformed records
// (a torn trailing write, a flipped bit mid-file) are skipped and counted,
// never fatal.
func (s *FileStore) ReadAll() ([]model.Entry, error) {
	entries, skipped, err := s.readAll()
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		slog.Warn("skipped unreadable records", "path", s.path, "count", skipped)
	}
	return entries, nil
}

func (s *FileStore) readAll() ([]model.Entry, int, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, 0, errs.Wrapf(err, errs.CodeStorageIOFailure, "open %s", s.path)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxRecordBytes)

	if !sc.Scan() || sc.Text() != Header {
		return nil, 0, errs.Errorf(errs.CodeStorageCorrupt, "missing header in %s", s.path)
	}

	var entries []model.Entry
	skipped := 0
	for sc.Scan() {
		line := sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		e, err := codec.DecodeFrame(line)
		if err != nil {
			skipped++
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, 0, errs.Wrapf(err, errs.CodeStorageIOFailure, "read %s", s.path)
	}
	return entries, skipped, nil
}

// Get returns the entry with the given id.
func (s *FileStore) Get(id string) (model.Entry, error) {
	entries, err := s.ReadAll()
	if err != nil {
		return model.Entry{}, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return model.Entry{}, errs.Errorf(errs.CodeEntryNotFound, "entry not found: %s", id)
}

// Delete rewrites the store without the given ids.
func (s *FileStore) Delete(ids map[string]bool) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.Prune(func(e model.Entry) bool {
		return !ids[e.ID]
	})
}

// Prune rewrites the store keeping only entries for which keep returns true.
// The rewrite goes to a temp file in the same directory and replaces the
// live file with a rename, so a concurrent reader sees either the old store
// or the new one, never a partial file.
func (s *FileStore) Prune(keep func(model.Entry) bool) (int, error) {
	entries, err := s.ReadAll()
	if err != nil {
		return 0, err
	}

	survivors := entries[:0]
	for _, e := range entries {
		if keep(e) {
			survivors = append(survivors, e)
		}
	}
	removed := len(entries) - len(survivors)
	if removed == 0 {
		return 0, nil
	}

	if err := s.rewrite(survivors); err != nil {
		return 0, err
	}
	return removed, nil
}

// KeepNewest prunes all but the newest n entries by insertion order.
func (s *FileStore) KeepNewest(n int) (int, error) {
	if n < 0 {
		n = 0
	}
	entries, err := s.ReadAll()
	if err != nil {
		return 0, err
	}
	if len(entries) <= n {
		return 0, nil
	}

	if err := s.rewrite(entries[len(entries)-n:]); err != nil {
		return 0, err
	}
	return len(entries) - n, nil
}

// rewrite atomically replaces the store contents with the given entries and
// reopens the append handle against the new file.
func (s *FileStore) rewrite(entries []model.Entry) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return errs.Wrapf(err, errs.CodeStorageUnwritable, "create temp for %s", s.path)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after successful rename

	var buf bytes.Buffer
	buf.WriteString(Header + "\n")
	for _, e := range entries {
		frame, err := codec.EncodeFrame(e)
		if err != nil {
			tmp.Close()
			return err
		}
		buf.Write(frame)
	}

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return errs.Wrapf(err, errs.CodeStorageIOFailure, "write temp for %s", s.path)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errs.Wrapf(err, errs.CodeStorageIOFailure, "sync temp for %s", s.path)
	}
	if err := tmp.Close(); err != nil {
		return errs.Wrapf(err, errs.CodeStorageIOFailure, "close temp for %s", s.path)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return errs.Wrapf(err, errs.CodeStorageIOFailure, "replace %s", s.path)
	}

	// The append handle still points at the replaced inode.
	old := s.appendFile
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errs.Wrapf(err, errs.CodeStorageUnwritable, "reopen %s", s.path)
	}
	s.appendFile = f
	if old != nil {
		old.Close()
	}
	return nil
}

// Close releases the append handle.
func (s *FileStore) Close() error {
	if s.appendFile == nil {
		return nil
	}
	err := s.appendFile.Close()
	s.appendFile = nil
	if err != nil {
		return errs.Wrapf(err, errs.CodeStorageIOFailure, "close %s", s.path)
	}
	return nil
}
