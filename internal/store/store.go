// Package store implements the single-file memory store: append-only writes
// with per-record framing, lexical search, token-budgeted context assembly,
// pruning, and corruption recovery.
package store

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mindlog/mindlog/internal/model"
)

// CaptureParams holds parameters for creating a new entry.
type CaptureParams struct {
	Kind    model.Kind
	Summary string
	Content string
	Tool    string
	Meta    map[string]string
}

// NewEntry builds an entry with a fresh ID and timestamp from capture
// parameters. The entry is not yet persisted.
func NewEntry(p CaptureParams) model.Entry {
	return model.Entry{
		ID:        ulid.Make().String(),
		CreatedAt: time.Now().UnixMilli(),
		Kind:      p.Kind,
		Summary:   p.Summary,
		Content:   p.Content,
		Tool:      p.Tool,
		Meta:      p.Meta,
	}
}

// SearchParams holds parameters for searching entries.
type SearchParams struct {
	Query string
	Limit int
}

// Scored wraps an entry with its lexical relevance score.
type Scored struct {
	model.Entry
	Score float64 `json:"score"`
}

// ContextParams holds parameters for context assembly.
type ContextParams struct {
	// Query optionally selects relevant entries in addition to recents.
	Query string
	// MaxTokens bounds the estimated token cost of the assembled context.
	MaxTokens int
	// RecentCount is how many trailing entries to consider (default 20).
	RecentCount int
	// RelevantCount is how many search hits to consider (default 10).
	RelevantCount int
}

// ContextResult is the assembled context bundle.
type ContextResult struct {
	Recent     []model.Entry `json:"recent"`
	Relevant   []Scored      `json:"relevant"`
	Truncated  bool          `json:"truncated"`
	UsedTokens int           `json:"used_tokens"`
	Budget     int           `json:"budget"`
}

// Stats holds store statistics.
type Stats struct {
	Path              string             `json:"path"`
	TotalObservations int                `json:"total_observations"`
	SizeBytes         int64              `json:"size_bytes"`
	OldestTimestamp   int64              `json:"oldest_timestamp,omitempty"`
	NewestTimestamp   int64              `json:"newest_timestamp,omitempty"`
	ByKind            map[model.Kind]int `json:"by_kind"`
}

// Store defines the storage engine interface.
type Store interface {
	// Write appends one entry.
	Write(e model.Entry) error

	// WriteMany appends a batch of entries with a single flush.
	WriteMany(entries []model.Entry) error

	// ReadAll returns all valid entries in insertion order. Malformed or
	// truncated records are skipped and logged, never fatal.
	ReadAll() ([]model.Entry, error)

	// Get returns the entry with the given id.
	Get(id string) (model.Entry, error)

	// Delete rewrites the store without the given ids. Returns the number
	// of entries removed.
	Delete(ids map[string]bool) (int, error)

	// Prune rewrites the store keeping only entries for which keep returns
	// true. Returns the number of entries removed.
	Prune(keep func(model.Entry) bool) (int, error)

	// KeepNewest prunes all but the newest n entries by insertion order.
	KeepNewest(n int) (int, error)

	// Stats returns store statistics.
	Stats() (*Stats, error)

	// Close releases the store's file handles.
	Close() error
}
