// Package dedup suppresses near-identical captures fired in quick
// succession, e.g. a host hook delivering the same tool event twice.
//
// The cache is process-local and in-memory only. Duplicates across process
// restarts are acceptable; this is a best-effort optimization, not a
// correctness guarantee.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/mindlog/mindlog/internal/model"
)

// DefaultWindow is the suppression window for repeated fingerprints.
const DefaultWindow = 60 * time.Second

// fingerprintContentLen bounds how much content feeds the fingerprint, so
// trailing noise (timestamps, counters) does not defeat dedup.
const fingerprintContentLen = 256

// Cache tracks recently seen capture fingerprints. Safe for concurrent use.
type Cache struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
	now    func() time.Time
}

// New creates a cache with the given suppression window. A non-positive
// window falls back to DefaultWindow.
func New(window time.Duration) *Cache {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Cache{
		window: window,
		seen:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// NewWithClock creates a cache with an injectable clock for tests.
func NewWithClock(window time.Duration, now func() time.Time) *Cache {
	c := New(window)
	c.now = now
	return c
}

// Fingerprint derives a stable hash identifying a capture by originating
// tool, entry kind, and truncated content.
func Fingerprint(tool string, kind model.Kind, content string) string {
	if len(content) > fingerprintContentLen {
		content = content[:fingerprintContentLen]
	}
	h := sha256.New()
	h.Write([]byte(tool))
	h.Write([]byte{0})
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// ShouldCapture reports whether a capture with the given fingerprint should
// proceed. It returns false when the fingerprint was seen within the window,
// otherwise records it and returns true. Expired entries are evicted lazily.
func (c *Cache) ShouldCapture(fingerprint string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for fp, at := range c.seen {
		if now.Sub(at) >= c.window {
			delete(c.seen, fp)
		}
	}

	if at, ok := c.seen[fingerprint]; ok && now.Sub(at) < c.window {
		return false
	}
	c.seen[fingerprint] = now
	return true
}

// Len returns the number of live fingerprints, for tests and stats.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
