package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mindlog/mindlog/internal/errs"
	"github.com/mindlog/mindlog/internal/lock"
	"github.com/mindlog/mindlog/internal/model"
)

func openTest(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mind.log")
	s, info, err := Open(path, Options{})
	require.NoError(t, err)
	require.True(t, info.Created)
	require.False(t, info.Recovered)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func capture(kind model.Kind, summary, content string) model.Entry {
	return NewEntry(CaptureParams{Kind: kind, Summary: summary, Content: content})
}

func TestOpen_CreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", ".mindlog", "mind.log")
	s, info, err := Open(path, Options{})
	require.NoError(t, err)
	defer s.Close()
	require.True(t, info.Created)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, Header+"\n", string(b))
}

func TestOpen_UnwritableParent(t *testing.T) {
	dir := t.TempDir()
	// A file where the parent directory should be.
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, _, err := Open(filepath.Join(blocker, "mind.log"), Options{})
	require.Error(t, err)
	require.True(t, errs.IsUnwritable(err))
}

func TestWriteReadAll(t *testing.T) {
	s, _ := openTest(t)

	e1 := capture(model.KindDecision, "chose React", "picked React over Vue")
	e2 := capture(model.KindBugfix, "fixed CORS", "allowed origin header on /api")
	require.NoError(t, s.Write(e1))
	require.NoError(t, s.Write(e2))

	got, err := s.ReadAll()
	require.NoError(t, err)
	require.Equal(t, []model.Entry{e1, e2}, got)
}

func TestWriteMany_InsertionOrder(t *testing.T) {
	s, _ := openTest(t)

	var batch []model.Entry
	for i := 0; i < 25; i++ {
		batch = append(batch, capture(model.KindDiscovery, fmt.Sprintf("obs %02d", i), ""))
	}
	require.NoError(t, s.WriteMany(batch))

	got, err := s.ReadAll()
	require.NoError(t, err)
	require.Equal(t, batch, got)
}

func TestWrite_RejectsInvalid(t *testing.T) {
	s, _ := openTest(t)

	e := capture(model.KindDecision, "ok", "")
	e.Kind = "opinion"
	require.Error(t, s.Write(e))

	got, err := s.ReadAll()
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestGet(t *testing.T) {
	s, _ := openTest(t)

	e := capture(model.KindPattern, "retry with backoff", "")
	require.NoError(t, s.Write(e))

	got, err := s.Get(e.ID)
	require.NoError(t, err)
	require.Equal(t, e, got)

	_, err = s.Get("nope")
	require.True(t, errs.IsNotFound(err))
}

func TestReadAll_SkipsTornTrailingWrite(t *testing.T) {
	s, path := openTest(t)

	e1 := capture(model.KindDecision, "kept one", "")
	e2 := capture(model.KindDecision, "kept two", "")
	require.NoError(t, s.WriteMany([]model.Entry{e1, e2}))

	// Simulate a crash mid-append: chop the file mid-record.
	fi, err := os.Stat(path)
	require.NoError(t, err)
	e3 := capture(model.KindDecision, "torn", "this record will be cut in half")
	require.NoError(t, s.Write(e3))
	fi2, err := os.Stat(path)
	require.NoError(t, err)
	cut := fi.Size() + (fi2.Size()-fi.Size())/2
	require.NoError(t, os.Truncate(path, cut))

	got, err := s.ReadAll()
	require.NoError(t, err)
	require.Equal(t, []model.Entry{e1, e2}, got)

	// The store remains appendable after the torn write... the next read
	// must still skip the torn bytes and pick up the fresh record.
	e4 := capture(model.KindSolution, "written after the tear", "")
	require.NoError(t, s.Write(e4))
	got, err = s.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, e4, got[2])
}

func TestDelete(t *testing.T) {
	s, _ := openTest(t)

	e1 := capture(model.KindDecision, "keep", "")
	e2 := capture(model.KindWarning, "drop", "")
	e3 := capture(model.KindSuccess, "keep too", "")
	require.NoError(t, s.WriteMany([]model.Entry{e1, e2, e3}))

	removed, err := s.Delete(map[string]bool{e2.ID: true})
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	got, err := s.ReadAll()
	require.NoError(t, err)
	require.Equal(t, []model.Entry{e1, e3}, got)

	_, err = s.Get(e2.ID)
	require.True(t, errs.IsNotFound(err))
}

func TestKeepNewest(t *testing.T) {
	s, _ := openTest(t)

	var all []model.Entry
	for i := 0; i < 10; i++ {
		e := capture(model.KindDiscovery, fmt.Sprintf("obs %d", i), "")
		all = append(all, e)
	}
	require.NoError(t, s.WriteMany(all))

	removed, err := s.KeepNewest(3)
	require.NoError(t, err)
	require.Equal(t, 7, removed)

	got, err := s.ReadAll()
	require.NoError(t, err)
	require.Equal(t, all[7:], got)

	// No-op when already within bounds.
	removed, err = s.KeepNewest(3)
	require.NoError(t, err)
	require.Zero(t, removed)
}

func TestPrune_Predicate(t *testing.T) {
	s, _ := openTest(t)

	e1 := capture(model.KindWarning, "flaky test", "")
	e2 := capture(model.KindDecision, "keep this", "")
	require.NoError(t, s.WriteMany([]model.Entry{e1, e2}))

	removed, err := s.Prune(func(e model.Entry) bool { return e.Kind != model.KindWarning })
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	got, err := s.ReadAll()
	require.NoError(t, err)
	require.Equal(t, []model.Entry{e2}, got)
}

func TestPrune_WritableAfterRewrite(t *testing.T) {
	s, _ := openTest(t)

	require.NoError(t, s.Write(capture(model.KindDecision, "old", "")))
	require.NoError(t, s.Write(capture(model.KindDecision, "new", "")))
	_, err := s.KeepNewest(1)
	require.NoError(t, err)

	// Appends must land in the replacement file, not the renamed-away one.
	e := capture(model.KindFeature, "post-prune", "")
	require.NoError(t, s.Write(e))

	got, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, e, got[1])
}

func TestStats(t *testing.T) {
	s, path := openTest(t)

	e1 := capture(model.KindDecision, "chose React", "...")
	e2 := capture(model.KindBugfix, "fixed CORS", "...")
	require.NoError(t, s.WriteMany([]model.Entry{e1, e2}))

	stats, err := s.Stats()
	require.NoError(t, err)
	require.Equal(t, path, stats.Path)
	require.Equal(t, 2, stats.TotalObservations)
	require.Positive(t, stats.SizeBytes)
	require.Equal(t, e1.CreatedAt, stats.OldestTimestamp)
	require.Equal(t, e2.CreatedAt, stats.NewestTimestamp)
	require.Equal(t, map[model.Kind]int{model.KindDecision: 1, model.KindBugfix: 1}, stats.ByKind)
}

func TestEndToEndScenario(t *testing.T) {
	s, _ := openTest(t)

	require.NoError(t, s.Write(capture(model.KindDecision, "chose React", "picked React over Vue for the dashboard")))
	require.NoError(t, s.Write(capture(model.KindBugfix, "fixed CORS", "added the right origin headers")))

	results, err := s.Search(SearchParams{Query: "react"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, model.KindDecision, results[0].Kind)
	require.Equal(t, "chose React", results[0].Summary)

	stats, err := s.Stats()
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalObservations)
	require.Equal(t, 1, stats.ByKind[model.KindDecision])
	require.Equal(t, 1, stats.ByKind[model.KindBugfix])
}

func TestConcurrentWriters(t *testing.T) {
	const writers = 4
	const perWriter = 10

	path := filepath.Join(t.TempDir(), "mind.log")

	// Seed the store so every writer opens an existing file.
	s0, _, err := Open(path, Options{})
	require.NoError(t, err)
	require.NoError(t, s0.Close())

	var wg sync.WaitGroup
	errCh := make(chan error, writers)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			// Each writer simulates an independent process: its own store
			// handle and its own guard on the shared lock file.
			guard := lock.NewGuard(path, lock.Options{})
			s, _, err := Open(path, Options{})
			if err != nil {
				errCh <- err
				return
			}
			defer s.Close()
			for i := 0; i < perWriter; i++ {
				e := capture(model.KindDiscovery, fmt.Sprintf("writer %d obs %d", w, i), "")
				if err := guard.WithLock(context.Background(), func() error {
					return s.Write(e)
				}); err != nil {
					errCh <- err
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	s, _, err := Open(path, Options{})
	require.NoError(t, err)
	defer s.Close()

	got, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, writers*perWriter)

	seen := map[string]bool{}
	for _, e := range got {
		require.False(t, seen[e.ID], "duplicate entry %s", e.ID)
		seen[e.ID] = true
	}
}

func TestClose_Idempotent(t *testing.T) {
	s, _ := openTest(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
