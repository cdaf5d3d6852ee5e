package config

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/agentgate/logging"
)

// WatcherOptions holds configuration overrides passed to NewWatcher().
type WatcherOptions struct {
	// Logger receives watch diagnostics. Defaults to NoOp.
	Logger logging.Logger
	// Debounce batches rapid filesystem events (editor save storms, bulk
	// copies) into a single reload. Defaults to 250ms.
	Debounce time.Duration
}

// Watcher reloads a Store when definition files under its root change. It is
// an alternative to per-request auto-reload for deployments that want fresh
// configuration without paying a directory scan on every request.
type Watcher struct {
	store    *Store
	logger   logging.Logger
	debounce time.Duration
}

// NewWatcher creates a Watcher bound to the given store.
func NewWatcher(store *Store, optFns ...func(o *WatcherOptions)) *Watcher {
	opts := WatcherOptions{
		Logger:   logging.NoOpLogger{},
		Debounce: 250 * time.Millisecond,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Watcher{
		store:    store,
		logger:   opts.Logger,
		debounce: opts.Debounce,
	}
}

// Run watches the store's agents root until ctx is cancelled. Directories
// created while watching are added to the watch set, so definitions appearing
// in new subdirectories still trigger reloads. Returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addRecursive(fw, w.store.Dir()); err != nil {
		return err
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	w.logger.Info("watching agents directory", "agents_dir", w.store.Dir())

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := fw.Add(ev.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "dir", ev.Name, "error", err)
					}
				}
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("agents directory changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-timer.C:
			if err := w.store.Load(); err != nil {
				w.logger.Error("reload after change failed", "error", err)
			}
		}
	}
}

// relevant filters events down to definition files and directory changes.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op.Has(fsnotify.Chmod) && ev.Op&^fsnotify.Chmod == 0 {
		return false
	}
	if filepath.Ext(ev.Name) == ".json" {
		return true
	}
	fi, err := os.Stat(ev.Name)
	if err != nil {
		// Removed entries may have been directories full of definitions.
		return ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename)
	}
	return fi.IsDir()
}

func addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
}
