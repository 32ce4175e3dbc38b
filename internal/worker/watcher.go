package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"diarias/internal/core"
	"diarias/internal/storage"
)

// Reloader re-imports the stored snapshot.
type Reloader interface {
	Reload(ctx context.Context) (core.ImportReport, error)
}

// SnapshotWatcher polls a store for edits made by other processes and
// reloads the ledger when one is seen.
type SnapshotWatcher struct {
	detector storage.ChangeDetector
	reloader Reloader
	interval time.Duration

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSnapshotWatcher(detector storage.ChangeDetector, reloader Reloader, interval time.Duration) *SnapshotWatcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &SnapshotWatcher{
		detector: detector,
		reloader: reloader,
		interval: interval,
	}
}

// Start begins polling in the background. Returns an error if already running.
func (w *SnapshotWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("snapshot watcher is already running")
	}
	stop, done := make(chan struct{}), make(chan struct{})
	w.running = true
	w.stopCh = stop
	w.doneCh = done
	w.mu.Unlock()

	go func() {
		defer close(done)
		w.loop(ctx, stop)
	}()

	slog.InfoContext(ctx, "Snapshot watcher started", "interval", w.interval)
	return nil
}

// Stop stops polling and waits for the loop to exit. Concurrent calls are
// safe; only the first one closes the stop channel.
func (w *SnapshotWatcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	stop, done := w.stopCh, w.doneCh
	w.stopCh = nil
	w.mu.Unlock()

	if stop != nil {
		close(stop)
	}

	select {
	case <-done:
		slog.InfoContext(ctx, "Snapshot watcher stopped")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Snapshot watcher stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	return nil
}

// IsRunning returns whether the watcher is currently polling
func (w *SnapshotWatcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Run polls in the calling goroutine until ctx is done.
func (w *SnapshotWatcher) Run(ctx context.Context) error {
	w.loop(ctx, nil)
	return ctx.Err()
}

func (w *SnapshotWatcher) loop(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}

// Poll checks once and reloads if the snapshot changed. It reports whether a
// reload happened.
func (w *SnapshotWatcher) Poll(ctx context.Context) bool {
	changed, err := w.detector.Changed(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to check snapshot for changes", "error", err)
		return false
	}
	if !changed {
		return false
	}

	rep, err := w.reloader.Reload(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to reload edited snapshot", "error", err)
		return false
	}
	slog.InfoContext(ctx, "Reloaded edited snapshot",
		"working_days", rep.Entries,
		"deposits", rep.Deposits,
		"balance", rep.ComputedBalance.String())
	return true
}
