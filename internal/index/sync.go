package index

import (
	"log/slog"
	"path"
	"time"

	"github.com/starford/techdocs/internal/checksum"
	"github.com/starford/techdocs/internal/parser"
	"github.com/starford/techdocs/internal/storage"
)

// Stats summarizes one Sync pass.
type Stats struct {
	Indexed int
	Removed int
	Failed  int
	Total   int // documents in the index after the pass
}

// Sync walks the document root and brings the index up to date:
//   - new/changed files are re-indexed
//   - files removed from disk are deleted from the index
func Sync(db DocumentIndex, store storage.Provider, logger *slog.Logger) (Stats, error) {
	var st Stats

	metas, err := store.List("")
	if err != nil {
		return st, err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return st, err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			st.Failed++
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexDocument(db, m.Path, data, time.UnixMilli(m.LastModified)); err != nil {
			st.Failed++
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		st.Indexed++
		logger.Debug("sync: indexed", slog.String("path", m.Path))
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteDocument(p); err != nil {
			st.Failed++
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		st.Removed++
		logger.Debug("sync: removed stale", slog.String("path", p))
	}

	total, err := db.Count()
	if err != nil {
		return st, err
	}
	st.Total = total
	return st, nil
}

// IndexDocument derives the title of data and upserts it under path.
func IndexDocument(db DocumentIndex, p string, data []byte, modified time.Time) error {
	content := string(data)
	return db.UpsertDocument(DocumentRow{
		Path:      p,
		Title:     parser.Title(content, parser.StripExt(path.Base(p))),
		Checksum:  checksum.Sum(data),
		UpdatedAt: modified,
	}, content)
}
