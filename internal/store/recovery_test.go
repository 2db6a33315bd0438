package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mindlog/mindlog/internal/model"
)

func TestOpen_RecoversMissingHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mind.log")
	require.NoError(t, os.WriteFile(path, []byte("this is not a store file\n"), 0o644))

	s, info, err := Open(path, Options{})
	require.NoError(t, err)
	defer s.Close()

	require.True(t, info.Recovered)
	require.NotEmpty(t, info.BackupPath)
	require.True(t, strings.HasPrefix(info.BackupPath, path+".backup-"))

	// The original bytes moved aside, never silently dropped.
	backup, err := os.ReadFile(info.BackupPath)
	require.NoError(t, err)
	require.Equal(t, "this is not a store file\n", string(backup))

	// The recreated store is fully usable.
	e := capture(model.KindDecision, "fresh start", "")
	require.NoError(t, s.Write(e))
	got, err := s.ReadAll()
	require.NoError(t, err)
	require.Equal(t, []model.Entry{e}, got)
}

func TestOpen_RecoversEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mind.log")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	s, info, err := Open(path, Options{})
	require.NoError(t, err)
	defer s.Close()
	require.True(t, info.Recovered)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, Header+"\n", string(b))
}

func TestOpen_MidFileCorruptionIsNotRecovery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mind.log")

	s, _, err := Open(path, Options{})
	require.NoError(t, err)
	e1 := capture(model.KindDecision, "before", "")
	e2 := capture(model.KindDecision, "after", "")
	require.NoError(t, s.Write(e1))
	require.NoError(t, s.Write(e2))
	require.NoError(t, s.Close())

	// Flip bytes in the middle record only.
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.SplitAfter(string(b), "\n")
	require.Len(t, lines, 4) // header, two records, trailing empty
	mangled := []byte(lines[1])
	mangled[len(mangled)/2] ^= 0xff
	lines[1] = string(mangled)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "")), 0o644))

	// Header intact, so reopen must not back the file up. The bad record
	// is skipped on read; the good ones survive.
	s, info, err := Open(path, Options{})
	require.NoError(t, err)
	defer s.Close()
	require.False(t, info.Recovered)

	got, err := s.ReadAll()
	require.NoError(t, err)
	require.Equal(t, []model.Entry{e2}, got)
}

func TestOpen_OversizedFailedProbeRecovers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mind.log")
	require.NoError(t, os.WriteFile(path, []byte(Header+"\ngarbage that does not frame\n"), 0o644))

	// A tiny ceiling makes the file count as oversized.
	s, info, err := Open(path, Options{MaxFileBytes: 8})
	require.NoError(t, err)
	defer s.Close()
	require.True(t, info.Recovered)
}

func TestOpen_OversizedHealthyStoreKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mind.log")

	s, _, err := Open(path, Options{})
	require.NoError(t, err)
	e := capture(model.KindDecision, "survives the size check", "")
	require.NoError(t, s.Write(e))
	require.NoError(t, s.Close())

	s, info, err := Open(path, Options{MaxFileBytes: 8})
	require.NoError(t, err)
	defer s.Close()
	require.False(t, info.Recovered)

	got, err := s.ReadAll()
	require.NoError(t, err)
	require.Equal(t, []model.Entry{e}, got)
}
