// Package watch reinvokes a deploy on every change to the source repository,
// debouncing bursts of fsnotify events into a single reconciliation run.
package watch

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce batches a burst of saves (editors often write + rename
// + chmod for one logical save) into a single reconciliation pass.
const defaultDebounce = 500 * time.Millisecond

// Run reinvokes deployFn once per debounced burst of changes anywhere
// under root (recursively watched), until stop is closed. A deploy
// already running when new events arrive is never interrupted; a burst
// that settles while it is still running is dropped (the busy flag below),
// matching the single-threaded deploy constraint.
func Run(root string, deployFn func(), stop <-chan struct{}, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addRecursive(watcher, root); err != nil {
		return err
	}

	d := &debouncer{delay: defaultDebounce, run: runOnceAtATime(deployFn, logger)}
	defer d.stop()

	for {
		select {
		case <-stop:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				// Best-effort: a newly created directory should also be
				// watched so future changes inside it are seen.
				_ = addRecursive(watcher, event.Name)
			}
			d.trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

// debouncer coalesces a burst of trigger() calls into one run() after delay
// has elapsed with no further calls, mirroring a file-watch debounce pattern.
type debouncer struct {
	mu      sync.Mutex
	timer   *time.Timer
	delay   time.Duration
	run     func()
	stopped bool
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.run)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}

// runOnceAtATime wraps fn so a reconciliation already in flight suppresses
// (rather than queues) a re-trigger that arrives while it's running; the
// next fsnotify burst after it finishes will run normally.
func runOnceAtATime(fn func(), logger *slog.Logger) func() {
	var mu sync.Mutex
	busy := false
	return func() {
		mu.Lock()
		if busy {
			mu.Unlock()
			if logger != nil {
				logger.Debug("skipping reconciliation, one is already running")
			}
			return
		}
		busy = true
		mu.Unlock()

		defer func() {
			mu.Lock()
			busy = false
			mu.Unlock()
		}()

		fn()
	}
}
