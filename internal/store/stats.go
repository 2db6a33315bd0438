package store

import (
	"os"

	"github.com/mindlog/mindlog/internal/errs"
	"github.com/mindlog/mindlog/internal/model"
)

// Stats returns store statistics: entry count, file size, timestamp range,
// and per-kind counts.
func (s *FileStore) Stats() (*Stats, error) {
	entries, err := s.ReadAll()
	if err != nil {
		return nil, err
	}

	st := &Stats{
		Path:              s.path,
		TotalObservations: len(entries),
		ByKind:            map[model.Kind]int{},
	}

	fi, err := os.Stat(s.path)
	if err != nil {
		return nil, errs.Wrapf(err, errs.CodeStorageIOFailure, "stat %s", s.path)
	}
	st.SizeBytes = fi.Size()

	for _, e := range entries {
		st.ByKind[e.Kind]++
		if st.OldestTimestamp == 0 || e.CreatedAt < st.OldestTimestamp {
			st.OldestTimestamp = e.CreatedAt
		}
		if e.CreatedAt > st.NewestTimestamp {
			st.NewestTimestamp = e.CreatedAt
		}
	}

	return st, nil
}
