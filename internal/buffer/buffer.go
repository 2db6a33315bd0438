// Package buffer batches captured entries in memory and flushes them to the
// store on a timer or size threshold, bounding write amplification on chatty
// hosts.
package buffer

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mindlog/mindlog/internal/model"
)

const (
	// DefaultMaxSize triggers an immediate flush when the pending list
	// reaches this length.
	DefaultMaxSize = 10
	// DefaultFlushInterval is the background flush period.
	DefaultFlushInterval = 2 * time.Second
)

// Sink persists a flushed batch, typically the storage engine's WriteMany
// wrapped in the concurrency guard.
type Sink func(entries []model.Entry) error

// Buffer accumulates entries until a flush. Safe for concurrent use.
type Buffer struct {
	sink          Sink
	maxSize       int
	flushInterval time.Duration

	mu      sync.Mutex
	pending []model.Entry

	stopCh    chan struct{}
	doneCh    chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
}

// New creates a buffer flushing into sink. Non-positive sizes and intervals
// fall back to the defaults.
func New(sink Sink, maxSize int, flushInterval time.Duration) *Buffer {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}
	return &Buffer{
		sink:          sink,
		maxSize:       maxSize,
		flushInterval: flushInterval,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start launches the background flush timer. Safe to call more than once.
func (b *Buffer) Start() {
	b.startOnce.Do(b.start)
}

func (b *Buffer) start() {
	b.started = true
	go func() {
		defer close(b.doneCh)
		ticker := time.NewTicker(b.flushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				b.Flush()
			case <-b.stopCh:
				return
			}
		}
	}()
}

// Stop halts the timer and performs a final flush so no buffered entries are
// lost on shutdown. The timer never fires after Stop returns. Safe to call
// more than once.
func (b *Buffer) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
		if b.started {
			<-b.doneCh
		}
		b.Flush()
	})
}

// Enqueue adds an entry to the pending list, flushing immediately when the
// list reaches the size threshold. It never blocks on storage beyond that
// flush and never returns an error: capture is best-effort.
func (b *Buffer) Enqueue(e model.Entry) {
	b.mu.Lock()
	b.pending = append(b.pending, e)
	full := len(b.pending) >= b.maxSize
	b.mu.Unlock()

	if full {
		b.Flush()
	}
}

// Pending returns the number of buffered entries.
func (b *Buffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Flush swaps the pending list for an empty one and hands the batch to the
// sink. A failed batch is retried once, then dropped with an error report;
// re-queueing forever would grow memory without bound on persistent failure.
func (b *Buffer) Flush() {
	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	err := b.sink(batch)
	if err == nil {
		return
	}
	slog.Warn("flush failed, retrying once", "entries", len(batch), "error", err)

	if err := b.sink(batch); err != nil {
		slog.Error("flush failed again, dropping batch", "entries", len(batch), "error", err)
	}
}
