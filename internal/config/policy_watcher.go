package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/moolen/remedy/internal/logging"
)

// PolicyReloadCallback is called with every successfully loaded policy:
// once on Start and again after each valid file change. A callback error
// is logged and the watcher keeps watching.
type PolicyReloadCallback func(policy *PolicyFile) error

// PolicyWatcherConfig holds configuration for the PolicyWatcher.
type PolicyWatcherConfig struct {
	// FilePath is the path to the policy YAML file to watch
	FilePath string

	// DebounceMillis coalesces bursts of file events (editor save
	// sequences, atomic replaces) into a single reload. Default: 500ms.
	DebounceMillis int
}

// PolicyWatcher watches the policy file and pushes validated reloads to
// the callback. Invalid edits never propagate: the previous good policy
// stays in effect and the watcher keeps watching.
type PolicyWatcher struct {
	config   PolicyWatcherConfig
	callback PolicyReloadCallback
	cancel   context.CancelFunc
	stopped  chan struct{}
	ready    chan struct{}
	mu       sync.Mutex
	logger   *logging.Logger

	debounceTimer *time.Timer
}

// NewPolicyWatcher creates a watcher for the given policy file.
func NewPolicyWatcher(config PolicyWatcherConfig, callback PolicyReloadCallback) (*PolicyWatcher, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("FilePath cannot be empty")
	}
	if callback == nil {
		return nil, fmt.Errorf("callback cannot be nil")
	}
	if config.DebounceMillis == 0 {
		config.DebounceMillis = 500
	}

	return &PolicyWatcher{
		config:   config,
		callback: callback,
		stopped:  make(chan struct{}),
		ready:    make(chan struct{}),
		logger:   logging.GetLogger("config.watcher"),
	}, nil
}

// Start loads the initial policy, invokes the callback with it, and then
// watches for changes until Stop or context cancellation. Fails fast when
// the initial load or callback fails.
func (w *PolicyWatcher) Start(ctx context.Context) error {
	initial, err := LoadPolicyFile(w.config.FilePath)
	if err != nil {
		return fmt.Errorf("failed to load initial policy: %w", err)
	}

	if err := w.callback(initial); err != nil {
		return fmt.Errorf("initial policy callback failed: %w", err)
	}

	w.logger.Info("Loaded policy from %s", w.config.FilePath)

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	go w.watchLoop(watchCtx)

	// Wait until fsnotify is attached so edits right after Start are not
	// missed.
	select {
	case <-w.ready:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for policy watcher to initialize")
	}

	return nil
}

// Stop stops the watcher and waits for the watch loop to exit.
func (w *PolicyWatcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	<-w.stopped

	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.mu.Unlock()
}

func (w *PolicyWatcher) signalReady() {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.ready:
	default:
		close(w.ready)
	}
}

func (w *PolicyWatcher) watchLoop(ctx context.Context) {
	defer close(w.stopped)
	defer w.signalReady()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(w.config.FilePath); err != nil {
		w.logger.Error("Failed to watch %s: %v", w.config.FilePath, err)
		return
	}

	w.logger.Debug("Watching %s for changes (debounce: %dms)", w.config.FilePath, w.config.DebounceMillis)
	w.signalReady()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// Rename/Remove happen on atomic replaces: the watched inode
			// goes away and the watch must be re-attached to the new file.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if event.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				time.Sleep(50 * time.Millisecond)
				if err := watcher.Add(w.config.FilePath); err != nil {
					w.logger.Warn("Failed to re-add watch after %s: %v", event.Op, err)
				}
			}
			w.scheduleReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error: %v", err)
		}
	}
}

// scheduleReload debounces bursts of events into one reload.
func (w *PolicyWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(
		time.Duration(w.config.DebounceMillis)*time.Millisecond,
		w.reload,
	)
}

func (w *PolicyWatcher) reload() {
	policy, err := LoadPolicyFile(w.config.FilePath)
	if err != nil {
		w.logger.Warn("Policy reload failed, keeping previous policy: %v", err)
		return
	}

	if err := w.callback(policy); err != nil {
		w.logger.Warn("Policy reload callback failed: %v", err)
		return
	}

	w.logger.Info("Reloaded policy from %s", w.config.FilePath)
}
