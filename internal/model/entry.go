// Package model defines the core memory entry types.
package model

import (
	"fmt"
	"time"
)

// Kind classifies an observation.
type Kind string

const (
	KindDiscovery      Kind = "discovery"
	KindDecision       Kind = "decision"
	KindProblem        Kind = "problem"
	KindSolution       Kind = "solution"
	KindPattern        Kind = "pattern"
	KindWarning        Kind = "warning"
	KindSuccess        Kind = "success"
	KindRefactor       Kind = "refactor"
	KindBugfix         Kind = "bugfix"
	KindFeature        Kind = "feature"
	KindSessionSummary Kind = "session-summary"
)

// ValidKinds are the allowed entry kinds.
var ValidKinds = map[Kind]bool{
	KindDiscovery:      true,
	KindDecision:       true,
	KindProblem:        true,
	KindSolution:       true,
	KindPattern:        true,
	KindWarning:        true,
	KindSuccess:        true,
	KindRefactor:       true,
	KindBugfix:         true,
	KindFeature:        true,
	KindSessionSummary: true,
}

const (
	// MaxSummaryLen bounds the human-readable summary.
	MaxSummaryLen = 200
	// MaxContentLen bounds the body text. Content is compressed by the host
	// before it reaches the store, so anything longer is a caller bug.
	MaxContentLen = 2000
)

// Entry represents one immutable persisted observation.
type Entry struct {
	ID        string            `json:"id"`
	CreatedAt int64             `json:"created_at"` // epoch milliseconds
	Kind      Kind              `json:"kind"`
	Summary   string            `json:"summary"`
	Content   string            `json:"content,omitempty"`
	Tool      string            `json:"tool,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// Created returns CreatedAt as a time.Time.
func (e Entry) Created() time.Time {
	return time.UnixMilli(e.CreatedAt)
}

// Validate checks structural invariants for an entry about to be persisted.
func (e Entry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("entry id is required")
	}
	if e.CreatedAt <= 0 {
		return fmt.Errorf("entry created_at is required")
	}
	if !ValidKinds[e.Kind] {
		return fmt.Errorf("invalid entry kind %q", e.Kind)
	}
	if e.Summary == "" {
		return fmt.Errorf("entry summary is required")
	}
	if len(e.Summary) > MaxSummaryLen {
		return fmt.Errorf("entry summary exceeds %d chars", MaxSummaryLen)
	}
	if len(e.Content) > MaxContentLen {
		return fmt.Errorf("entry content exceeds %d chars", MaxContentLen)
	}
	return nil
}

// Truncate returns s cut to at most n bytes with an ellipsis marker.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
