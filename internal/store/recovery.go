package store

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/mindlog/mindlog/internal/codec"
	"github.com/mindlog/mindlog/internal/errs"
)

// validateFile decides deterministically whether an existing store file is
// structurally usable: the version header must be present, and a file over
// the size ceiling must additionally pass a quick probe of its first record.
// A torn *trailing* record is not corruption; reads handle that.
func validateFile(path string, maxBytes int64) error {
	f, err := os.Open(path)
	if err != nil {
		return errs.Wrapf(err, errs.CodeStorageIOFailure, "open %s", path)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return errs.Wrapf(err, errs.CodeStorageIOFailure, "stat %s", path)
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxRecordBytes)

	if !sc.Scan() {
		if fi.Size() > 0 {
			return errs.Errorf(errs.CodeStorageCorrupt, "unreadable header in %s", path)
		}
		// Zero-length file: treat as corrupt so it is recreated with a
		// proper header.
		return errs.Errorf(errs.CodeStorageCorrupt, "empty file at %s", path)
	}
	if sc.Text() != Header {
		return errs.Errorf(errs.CodeStorageCorrupt, "bad header in %s", path)
	}

	if fi.Size() > maxBytes {
		// Oversized store: repair cost exceeds value. Probe the first
		// record; if even that does not frame, recreate.
		if !sc.Scan() {
			return errs.Errorf(errs.CodeStorageCorrupt, "oversized store %s with no records", path)
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) > 0 {
			if _, err := codec.DecodeFrame(line); err != nil {
				return errs.Wrapf(err, errs.CodeStorageCorrupt, "oversized store %s failed probe", path)
			}
		}
	}

	return nil
}

// recoverFile moves an invalid store aside to a timestamped backup and
// creates a fresh empty store at the original path. The backup is never
// silently dropped.
func recoverFile(path string) (string, error) {
	backup := fmt.Sprintf("%s.backup-%d", path, time.Now().UnixMilli())
	if err := os.Rename(path, backup); err != nil {
		return "", errs.Wrapf(err, errs.CodeStorageIOFailure, "back up %s", path)
	}
	if err := initFile(path); err != nil {
		return backup, err
	}
	return backup, nil
}
