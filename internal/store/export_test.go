package store

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mindlog/mindlog/internal/model"
)

func TestExportImport_RoundTrip(t *testing.T) {
	src, _ := openTest(t)

	e1 := capture(model.KindDecision, "chose React", "picked React over Vue")
	e2 := capture(model.KindBugfix, "fixed CORS", "allowed origin header")
	require.NoError(t, src.WriteMany([]model.Entry{e1, e2}))

	var out bytes.Buffer
	n, err := src.ExportAll(&out)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	// Plain JSONL, no record framing.
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		require.True(t, strings.HasPrefix(line, "{"))
	}

	dst, _ := openTest(t)
	n, err = dst.Import(&out)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	got, err := dst.ReadAll()
	require.NoError(t, err)
	require.Equal(t, []model.Entry{e1, e2}, got)
}

func TestImport_SkipsExistingIDs(t *testing.T) {
	s, _ := openTest(t)

	e1 := capture(model.KindDecision, "already here", "")
	require.NoError(t, s.Write(e1))

	var out bytes.Buffer
	_, err := s.ExportAll(&out)
	require.NoError(t, err)

	n, err := s.Import(&out)
	require.NoError(t, err)
	require.Zero(t, n)

	got, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestImport_RejectsMalformedLine(t *testing.T) {
	s, _ := openTest(t)

	in := strings.NewReader(`{"id":"a","created_at":1,"kind":"decision","summary":"ok"}` + "\nnot json\n")
	_, err := s.Import(in)
	require.Error(t, err)

	// Nothing is appended when the input fails to parse.
	got, err := s.ReadAll()
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestImport_BlankLinesIgnored(t *testing.T) {
	s, _ := openTest(t)

	in := strings.NewReader("\n" + `{"id":"a","created_at":1,"kind":"decision","summary":"ok"}` + "\n\n")
	n, err := s.Import(in)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
