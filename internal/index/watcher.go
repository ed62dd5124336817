package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/rcsgrep/internal/storage"
)

// Event kinds passed to EventCallback.
const (
	EventIndexed = "indexed"
	EventRemoved = "removed"
)

// EventCallback is called after a watcher-driven index change.
type EventCallback func(kind string, path string)

// Watch starts an fsnotify watcher on the repository root and re-indexes
// ,v files as they change until ctx is cancelled. It calls cb (if non-nil)
// after each successful index mutation.
//
// New directories created at runtime are added to the watch list. Rename
// events trigger a debounced reconciliation pass, since RCS tools replace
// a ,v file by renaming a temporary one over it.
func Watch(ctx context.Context, db HistoryIndex, store storage.Provider, logger *slog.Logger, cb EventCallback) error {
	root := store.Root()
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					indexNewDir(db, store, absPath, logger, cb)
					continue
				}
			}

			if !storage.IsRCSFile(absPath) {
				continue
			}
			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if reindex(db, store, rel, logger) && cb != nil {
					cb(EventIndexed, rel)
				}

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				if delErr := db.DeleteFile(rel); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: removed", slog.String("path", rel))
					if cb != nil {
						cb(EventRemoved, rel)
					}
				}
				if ev.Op&fsnotify.Rename != 0 {
					scheduleReconcile()
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func reindex(db HistoryIndex, store storage.Provider, rel string, logger *slog.Logger) bool {
	data, err := store.Read(rel)
	if err != nil {
		logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return false
	}
	if err := IndexFile(db, rel, data); err != nil {
		logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return false
	}
	logger.Debug("watcher: indexed", slog.String("path", rel))
	return true
}

// reconcile removes index entries whose file is gone and indexes files whose
// checksum differs from the stored one.
func reconcile(db HistoryIndex, store storage.Provider, logger *slog.Logger, cb EventCallback) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := store.List("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if delErr := db.DeleteFile(p); delErr == nil && cb != nil {
				cb(EventRemoved, p)
			}
		}
	}
	for p, cs := range disk {
		if checksums[p] == cs {
			continue
		}
		if reindex(db, store, p, logger) && cb != nil {
			cb(EventIndexed, p)
		}
	}
}

// indexNewDir indexes any ,v files found in a newly created directory.
func indexNewDir(db HistoryIndex, store storage.Provider, dirPath string, logger *slog.Logger, cb EventCallback) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !storage.IsRCSFile(path) {
			return nil
		}
		rel, relErr := filepath.Rel(store.Root(), path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if reindex(db, store, rel, logger) && cb != nil {
			cb(EventIndexed, rel)
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
