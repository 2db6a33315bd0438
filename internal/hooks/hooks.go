// Package hooks is the host-facing surface of the memory subsystem. It wires
// capture events through dedup and the event buffer into the store, and
// assembles the context payload at session start.
//
// Nothing in this package propagates an error to the host: a failing memory
// subsystem degrades to a no-op so it can never block the host's primary
// function.
package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/mindlog/mindlog/internal/buffer"
	"github.com/mindlog/mindlog/internal/config"
	"github.com/mindlog/mindlog/internal/dedup"
	"github.com/mindlog/mindlog/internal/lock"
	"github.com/mindlog/mindlog/internal/model"
	"github.com/mindlog/mindlog/internal/store"
)

// Event is a post-action capture signal from the host.
type Event struct {
	Tool    string            `json:"tool"`
	Kind    model.Kind        `json:"kind"`
	Summary string            `json:"summary"`
	Content string            `json:"content"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// Manager owns the capture pipeline and retrieval surface for one project
// store.
type Manager struct {
	cfg   *config.Config
	st    *store.FileStore
	guard *lock.Guard
	cache *dedup.Cache
	buf   *buffer.Buffer

	// disabled is set when auto-init is off and no store exists; every
	// operation becomes a no-op.
	disabled bool

	mu            sync.Mutex
	sessionCounts map[string]int
}

// NewManager opens the store described by cfg and starts the buffer. When
// auto-init is disabled and no store file exists, the manager comes up in
// disabled mode instead of creating one.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:           cfg,
		cache:         dedup.New(cfg.Dedup.Window),
		sessionCounts: map[string]int{},
	}

	if !cfg.AutoInit {
		if _, err := os.Stat(cfg.StorePath); os.IsNotExist(err) {
			m.disabled = true
			slog.Debug("memory disabled: no store and auto_init off", "path", cfg.StorePath)
			return m, nil
		}
	}

	m.guard = lock.NewGuard(cfg.StorePath, lock.Options{
		Timeout:    cfg.Lock.Timeout,
		StaleAfter: cfg.Lock.StaleAfter,
	})

	var (
		st   *store.FileStore
		info store.OpenInfo
	)
	err := m.guard.WithLock(context.Background(), func() error {
		var err error
		st, info, err = store.Open(cfg.StorePath, store.Options{MaxFileBytes: cfg.Store.MaxFileBytes})
		return err
	})
	if err != nil {
		return nil, err
	}
	if info.Recovered {
		slog.Warn("memory store was recovered; prior contents backed up",
			"backup", info.BackupPath)
	}
	m.st = st

	m.buf = buffer.New(m.persist, cfg.Buffer.MaxSize, cfg.Buffer.FlushInterval)
	m.buf.Start()
	return m, nil
}

// persist is the buffer sink: a locked batched append.
func (m *Manager) persist(entries []model.Entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Lock.Timeout*2)
	defer cancel()
	return m.guard.WithLock(ctx, func() error {
		return m.st.WriteMany(entries)
	})
}

// SessionStart assembles and renders the context injection payload. Any
// failure (including lock timeout) logs a warning and yields an empty
// payload.
func (m *Manager) SessionStart(ctx context.Context, query string) string {
	if m.disabled {
		return ""
	}

	var result *store.ContextResult
	err := m.guard.WithLock(ctx, func() error {
		var err error
		result, err = m.st.BuildContext(store.ContextParams{
			Query:         query,
			MaxTokens:     m.cfg.Context.MaxTokens,
			RecentCount:   m.cfg.Context.Recent,
			RelevantCount: m.cfg.Context.Relevant,
		})
		return err
	})
	if err != nil {
		slog.Warn("context assembly failed, injecting nothing", "error", err)
		return ""
	}
	return store.RenderContext(result)
}

// PostAction captures one observation. Duplicate captures within the dedup
// window are suppressed. Never returns an error to the host.
func (m *Manager) PostAction(ctx context.Context, ev Event) {
	if m.disabled {
		return
	}

	if !model.ValidKinds[ev.Kind] {
		ev.Kind = model.KindDiscovery
	}
	if ev.Summary == "" {
		ev.Summary = model.Truncate(ev.Content, 80)
	}
	if ev.Summary == "" {
		slog.Debug("dropping empty capture", "tool", ev.Tool)
		return
	}

	fp := dedup.Fingerprint(ev.Tool, ev.Kind, ev.Content)
	if !m.cache.ShouldCapture(fp) {
		slog.Debug("duplicate capture suppressed", "tool", ev.Tool)
		return
	}

	e := store.NewEntry(store.CaptureParams{
		Kind:    ev.Kind,
		Summary: model.Truncate(ev.Summary, model.MaxSummaryLen),
		Content: model.Truncate(ev.Content, model.MaxContentLen),
		Tool:    ev.Tool,
		Meta:    ev.Meta,
	})
	m.buf.Enqueue(e)

	if sid := ev.Meta["session_id"]; sid != "" {
		m.mu.Lock()
		m.sessionCounts[sid]++
		m.mu.Unlock()
	}
}

// SessionEnd flushes buffered captures and, when the session accumulated at
// least the configured threshold of observations, synthesizes a
// session-summary entry. Never returns an error to the host.
func (m *Manager) SessionEnd(ctx context.Context, sessionID string) {
	if m.disabled {
		return
	}

	m.buf.Flush()

	if sessionID == "" {
		return
	}

	m.mu.Lock()
	count := m.sessionCounts[sessionID]
	delete(m.sessionCounts, sessionID)
	m.mu.Unlock()

	// Hook processes are short-lived, so the in-memory count misses
	// observations captured by earlier invocations; fall back to the store.
	stored, hasSummary := m.persistedSessionCount(ctx, sessionID)
	if hasSummary {
		return
	}
	if stored > count {
		count = stored
	}
	if count < m.cfg.Session.SummaryThreshold {
		return
	}

	e := store.NewEntry(store.CaptureParams{
		Kind:    model.KindSessionSummary,
		Summary: sessionSummaryText(sessionID, count),
		Meta:    map[string]string{"session_id": sessionID},
	})
	if err := m.persist([]model.Entry{e}); err != nil {
		slog.Warn("session summary not persisted", "session", sessionID, "error", err)
	}
}

// Search runs a locked query. Lock timeout degrades to an empty result with
// a warning.
func (m *Manager) Search(ctx context.Context, query string, limit int) []store.Scored {
	if m.disabled {
		return nil
	}
	var results []store.Scored
	err := m.guard.WithLock(ctx, func() error {
		var err error
		results, err = m.st.Search(store.SearchParams{Query: query, Limit: limit})
		return err
	})
	if err != nil {
		slog.Warn("search failed, returning nothing", "error", err)
		return nil
	}
	return results
}

// persistedSessionCount counts stored non-summary observations tagged with
// the session id, and reports whether a summary for it already exists.
func (m *Manager) persistedSessionCount(ctx context.Context, sessionID string) (int, bool) {
	var entries []model.Entry
	err := m.guard.WithLock(ctx, func() error {
		var err error
		entries, err = m.st.ReadAll()
		return err
	})
	if err != nil {
		slog.Warn("session count unavailable", "session", sessionID, "error", err)
		return 0, false
	}
	n, hasSummary := 0, false
	for _, e := range entries {
		if e.Meta["session_id"] != sessionID {
			continue
		}
		if e.Kind == model.KindSessionSummary {
			hasSummary = true
			continue
		}
		n++
	}
	return n, hasSummary
}

func sessionSummaryText(sessionID string, count int) string {
	return fmt.Sprintf("Session %s recorded %d observations", model.Truncate(sessionID, 12), count)
}

// Close stops the buffer (flushing it) and closes the store.
func (m *Manager) Close() error {
	if m.disabled {
		return nil
	}
	m.buf.Stop()
	return m.st.Close()
}
