package index

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/rcsgrep/internal/metrics"
	"github.com/starford/rcsgrep/internal/storage"
)

// SyncResult summarises one Sync pass.
type SyncResult struct {
	Indexed   int
	Unchanged int
	Failed    int
	Removed   int
}

// Sync walks the repository and brings the index up to date:
//   - new/changed files are parsed concurrently and upserted
//   - files removed from disk are deleted from the index
//
// A file that cannot be read or parsed is logged and left out; the index
// is a cache and one bad file does not block the rest.
func Sync(ctx context.Context, db *DB, store storage.Provider, logger *slog.Logger, workers int) (SyncResult, error) {
	var res SyncResult
	metas, err := store.List("")
	if err != nil {
		return res, err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return res, err
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	var docs []*Document
	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			res.Unchanged++
			metrics.FilesIndexed.WithLabelValues("unchanged").Inc()
			continue
		}

		path := m.Path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := store.Read(path)
			if err != nil {
				logger.Warn("sync: read failed", slog.String("path", path), slog.String("error", err.Error()))
				mu.Lock()
				res.Failed++
				mu.Unlock()
				return nil
			}
			doc, err := BuildDocument(path, data)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("sync: parse failed", slog.String("path", path), slog.String("error", err.Error()))
				res.Failed++
				return nil
			}
			docs = append(docs, doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	for _, doc := range docs {
		if err := db.UpsertFile(doc); err != nil {
			logger.Warn("sync: index failed", slog.String("path", doc.Path), slog.String("error", err.Error()))
			res.Failed++
			continue
		}
		res.Indexed++
		logger.Debug("sync: indexed", slog.String("path", doc.Path))
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteFile(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				res.Removed++
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	metrics.FilesIndexed.WithLabelValues("indexed").Add(float64(res.Indexed))
	metrics.FilesIndexed.WithLabelValues("failed").Add(float64(res.Failed))
	metrics.FilesIndexed.WithLabelValues("removed").Add(float64(res.Removed))
	return res, nil
}

// IndexFile parses data and upserts it into db.
func IndexFile(db HistoryIndex, path string, data []byte) error {
	doc, err := BuildDocument(path, data)
	if err != nil {
		return err
	}
	return db.UpsertFile(doc)
}
