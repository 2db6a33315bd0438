package store

import (
	"bufio"
	"bytes"
	"io"

	"github.com/mindlog/mindlog/internal/codec"
	"github.com/mindlog/mindlog/internal/errs"
	"github.com/mindlog/mindlog/internal/model"
)

// ExportAll writes every entry to w as one JSON document per line, without
// the store's record framing. Returns the number of entries written.
func (s *FileStore) ExportAll(w io.Writer) (int, error) {
	entries, err := s.ReadAll()
	if err != nil {
		return 0, err
	}

	bw := bufio.NewWriter(w)
	for _, e := range entries {
		doc, err := codec.Encode(e)
		if err != nil {
			return 0, err
		}
		bw.Write(doc)
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return 0, errs.Wrap(err, errs.CodeStorageIOFailure, "export flush")
	}
	return len(entries), nil
}

// Import appends entries from a JSONL export, preserving their ids and
// timestamps. Entries whose id already exists in the store are skipped.
// Returns the number of entries imported.
func (s *FileStore) Import(r io.Reader) (int, error) {
	existing, err := s.ReadAll()
	if err != nil {
		return 0, err
	}
	have := make(map[string]bool, len(existing))
	for _, e := range existing {
		have[e.ID] = true
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxRecordBytes)

	var batch []model.Entry
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		e, err := codec.Decode(line)
		if err != nil {
			return 0, err
		}
		if have[e.ID] {
			continue
		}
		have[e.ID] = true
		batch = append(batch, e)
	}
	if err := sc.Err(); err != nil {
		return 0, errs.Wrap(err, errs.CodeStorageIOFailure, "import read")
	}

	if err := s.WriteMany(batch); err != nil {
		return 0, err
	}
	return len(batch), nil
}
