package config

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sqlite-ai/rembed/pkg/provider"
)

// Watcher watches the config file and re-registers configured clients when
// it changes. Registry entries created through SQL are left alone; only
// names listed in the file are overwritten (last write wins).
type Watcher struct {
	root     string
	registry *provider.Registry
	watcher  *fsnotify.Watcher

	// Debouncing: editors fire several events per save.
	pendingMu    sync.Mutex
	pendingAt    time.Time
	debounceTime time.Duration
}

// NewWatcher creates a watcher for the config file under root.
func NewWatcher(root string, reg *provider.Registry) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		root:         root,
		registry:     reg,
		watcher:      watcher,
		debounceTime: 500 * time.Millisecond,
	}, nil
}

// Watch starts watching for config changes.
// It blocks until the context is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	// Watch the directory, not the file: editors replace files on save and
	// a watch on the old inode would go stale.
	if err := w.watcher.Add(ConfigDir(w.root)); err != nil {
		return err
	}

	slog.Info("watching config for changes", "path", ConfigPath(w.root))

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping config watcher")
			return w.watcher.Close()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if event.Name != ConfigPath(w.root) {
		return
	}

	w.pendingMu.Lock()
	w.pendingAt = time.Now()
	w.pendingMu.Unlock()

	slog.Debug("config changed", "path", event.Name, "op", event.Op.String())
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.reloadIfStable()
		}
	}
}

func (w *Watcher) reloadIfStable() {
	w.pendingMu.Lock()
	pending := !w.pendingAt.IsZero() && time.Since(w.pendingAt) >= w.debounceTime
	if pending {
		w.pendingAt = time.Time{}
	}
	w.pendingMu.Unlock()

	if !pending {
		return
	}

	cfg, _, err := Load(w.root)
	if err != nil {
		slog.Warn("failed to reload config", "error", err)
		return
	}
	if errs := Validate(cfg); len(errs) > 0 {
		for _, err := range errs {
			slog.Warn("invalid config after reload", "error", err)
		}
		return
	}

	RegisterClients(cfg, w.registry)
	slog.Info("config reloaded", "clients", len(cfg.Clients))
}

// Close closes the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
