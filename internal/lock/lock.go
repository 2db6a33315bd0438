// Package lock provides cross-process mutual exclusion for the memory store.
//
// The guard wraps an OS advisory lock (flock) on a marker file next to the
// store. Advisory locks are released automatically when the holding process
// dies, so a crash never wedges the store; the stale-file sweep below only
// handles leftover marker metadata, not the lock itself.
package lock

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/mindlog/mindlog/internal/errs"
)

// Suffix is appended to the store path to form the lock file path.
const Suffix = ".lock"

// Options configures lock acquisition behavior.
type Options struct {
	// Timeout bounds the total wait for acquisition.
	Timeout time.Duration
	// StaleAfter is the age past which an unowned lock file is cleared.
	StaleAfter time.Duration
	// RetryDelay is the initial backoff between acquisition attempts.
	RetryDelay time.Duration
}

// DefaultOptions returns the default acquisition parameters.
func DefaultOptions() Options {
	return Options{
		Timeout:    5 * time.Second,
		StaleAfter: 30 * time.Second,
		RetryDelay: 50 * time.Millisecond,
	}
}

// Guard serializes store access across processes. A Guard is stateless
// between acquisitions and safe for concurrent use.
type Guard struct {
	path string
	opts Options
}

// NewGuard creates a guard for the store at storePath. The lock file lives at
// storePath + Suffix.
func NewGuard(storePath string, opts Options) *Guard {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultOptions().StaleAfter
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultOptions().RetryDelay
	}
	return &Guard{path: storePath + Suffix, opts: opts}
}

// Path returns the lock file path.
func (g *Guard) Path() string {
	return g.path
}

// ownerInfo is written into the lock file for diagnostics and staleness
// checks. It is advisory metadata; the flock itself is authoritative.
type ownerInfo struct {
	PID        int    `json:"pid"`
	Token      string `json:"token"`
	AcquiredAt int64  `json:"acquired_at"`
}

// Acquire takes the lock, retrying with backoff until Timeout elapses or ctx
// is canceled. On success it returns a release function that must be called
// on every exit path.
func (g *Guard) Acquire(ctx context.Context) (func(), error) {
	deadline := time.Now().Add(g.opts.Timeout)
	delay := g.opts.RetryDelay
	clearedStale := false

	for {
		fl := flock.New(g.path)
		ok, err := fl.TryLock()
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, errs.Wrapf(err, errs.CodeStorageIOFailure, "lock %s", g.path)
		}
		if ok {
			g.writeOwner()
			return func() {
				_ = fl.Unlock()
			}, nil
		}

		// Held by someone else. A dead owner's flock is already released by
		// the OS, so a persistent failure with a dead recorded PID means the
		// marker file itself is wedged (e.g. copied store dir); clear it once.
		if !clearedStale && g.clearIfStale() {
			clearedStale = true
			continue
		}

		if time.Now().After(deadline) {
			return nil, errs.Errorf(errs.CodeLockTimeout, "lock %s: timed out after %s", g.path, g.opts.Timeout)
		}
		select {
		case <-ctx.Done():
			return nil, errs.Wrapf(ctx.Err(), errs.CodeLockTimeout, "lock %s", g.path)
		case <-time.After(delay):
		}
		if delay *= 2; delay > 500*time.Millisecond {
			delay = 500 * time.Millisecond
		}
	}
}

// WithLock runs fn while holding the lock, releasing it on every exit path
// including a panic inside fn.
func (g *Guard) WithLock(ctx context.Context, fn func() error) error {
	release, err := g.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// writeOwner records acquisition metadata in the lock file. Best effort.
func (g *Guard) writeOwner() {
	info := ownerInfo{
		PID:        os.Getpid(),
		Token:      uuid.NewString(),
		AcquiredAt: time.Now().UnixMilli(),
	}
	b, err := json.Marshal(info)
	if err != nil {
		return
	}
	_ = os.WriteFile(g.path, b, 0o644)
}

// clearIfStale removes the lock file if it is older than StaleAfter and its
// recorded owner process no longer exists. Returns true if it removed the
// file.
func (g *Guard) clearIfStale() bool {
	fi, err := os.Stat(g.path)
	if err != nil {
		return false
	}
	if time.Since(fi.ModTime()) < g.opts.StaleAfter {
		return false
	}
	b, err := os.ReadFile(g.path)
	if err != nil {
		return false
	}
	var info ownerInfo
	if err := json.Unmarshal(b, &info); err == nil && info.PID > 0 && processAlive(info.PID) {
		return false
	}
	return os.Remove(g.path) == nil
}

// processAlive reports whether a process with the given PID exists.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
