package index

import (
	"errors"
	"log/slog"
	"time"

	"github.com/starford/techdocs/internal/apperr"
	"github.com/starford/techdocs/internal/checksum"
	"github.com/starford/techdocs/internal/storage"
	"github.com/starford/techdocs/internal/watcher"
)

// WatchHandler returns a watcher.Handler that keeps db in step with the
// filesystem. Unchanged content (same checksum) is not re-indexed, so events
// caused by the service's own writes are cheap.
func WatchHandler(db DocumentIndex, store storage.Provider, logger *slog.Logger) watcher.Handler {
	return func(ev watcher.Event) {
		switch ev.Op {
		case watcher.OpCreated, watcher.OpUpdated:
			data, err := store.Read(ev.Path)
			if err != nil {
				if !errors.Is(err, apperr.ErrNotFound) {
					logger.Warn("index: read failed", slog.String("path", ev.Path), slog.String("error", err.Error()))
				}
				return
			}
			if cs, _ := db.GetChecksum(ev.Path); cs != "" && cs == checksum.Sum(data) {
				return
			}
			if err := IndexDocument(db, ev.Path, data, time.Now()); err != nil {
				logger.Warn("index: upsert failed", slog.String("path", ev.Path), slog.String("error", err.Error()))
			}

		case watcher.OpDeleted:
			if err := db.DeleteDocument(ev.Path); err != nil {
				logger.Warn("index: delete failed", slog.String("path", ev.Path), slog.String("error", err.Error()))
			}

		case watcher.OpDirRemoved:
			if _, err := db.DeletePrefix(ev.Path); err != nil {
				logger.Warn("index: delete dir failed", slog.String("path", ev.Path), slog.String("error", err.Error()))
			}

		case watcher.OpResync:
			st, err := Sync(db, store, logger)
			if err != nil {
				logger.Warn("index: resync failed", slog.String("error", err.Error()))
				return
			}
			logger.Debug("index: resynced",
				slog.Int("indexed", st.Indexed),
				slog.Int("removed", st.Removed))
		}
	}
}
