// Package docservice implements the document operations behind the HTTP and
// MCP surfaces: listing, reading, saving, moving and deleting Markdown files
// and directories under the document root.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/techdocs/internal/apperr"
	"github.com/starford/techdocs/internal/checksum"
	"github.com/starford/techdocs/internal/index"
	"github.com/starford/techdocs/internal/markdown"
	"github.com/starford/techdocs/internal/models"
	"github.com/starford/techdocs/internal/parser"
	"github.com/starford/techdocs/internal/storage"
	"github.com/starford/techdocs/internal/walker"
)

// SaveInput is the create-or-update request for one document.
type SaveInput struct {
	Path    string
	Content string
	// Title is echoed back in the result; the stored title is always
	// derived from the content.
	Title string
	// IfMatch, when set, must equal the checksum of the current content.
	IfMatch string
}

// SaveResult describes a saved document.
type SaveResult struct {
	Path     string `json:"path"`
	Title    string `json:"title"`
	Checksum string `json:"checksum"`
	Created  bool   `json:"created"`
}

// MoveResult describes a completed move.
type MoveResult struct {
	SourcePath string `json:"sourcePath"`
	TargetPath string `json:"targetPath"`
}

// Rendered is a document converted to HTML.
type Rendered struct {
	Path  string `json:"path"`
	Title string `json:"title"`
	HTML  string `json:"html"`
}

// Publisher receives document change notifications. kind is "created",
// "updated" or "deleted".
type Publisher interface {
	PublishDocumentEvent(kind, path string)
}

// Service coordinates storage, the walker, and the optional search index.
type Service struct {
	store     storage.Provider
	idx       index.DocumentIndex // nil when search is disabled
	renderer  *markdown.Renderer
	publisher Publisher // nil when the filesystem watcher reports changes
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithIndex enables search and keeps idx current on every mutation.
func WithIndex(idx index.DocumentIndex) Option {
	return func(s *Service) { s.idx = idx }
}

// WithRenderer sets the HTML renderer used by Render.
func WithRenderer(r *markdown.Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithPublisher announces every successful mutation to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLogger sets the logger for index maintenance warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a new document service.
func NewService(store storage.Provider, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.renderer == nil {
		s.renderer = markdown.NewRenderer(markdown.Options{})
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Tree returns the nested listing of the document root.
func (s *Service) Tree(ctx context.Context) ([]models.DocumentNode, error) {
	return walker.BuildTree(ctx, s.store.Root())
}

// Flat returns every document, most recently modified first.
func (s *Service) Flat(ctx context.Context) ([]models.DocumentNode, error) {
	return walker.BuildFlatList(ctx, s.store.Root())
}

// Get reads one document. Without a heading the title is the path minus
// its extension.
func (s *Service) Get(_ context.Context, p string) (*models.Document, error) {
	if err := requirePath(p, "path"); err != nil {
		return nil, err
	}
	info, err := s.store.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", apperr.ErrInvalidPath, p)
	}
	data, err := s.store.Read(p)
	if err != nil {
		return nil, err
	}
	content := string(data)
	return &models.Document{
		Path:         p,
		Title:        parser.Title(content, parser.StripExt(p)),
		Content:      content,
		Checksum:     checksum.Sum(data),
		LastModified: info.ModTime().UnixMilli(),
		Size:         info.Size(),
	}, nil
}

// Save creates or overwrites a document. With IfMatch set, the write is
// refused with ErrConflict unless the current content still has that
// checksum; without it, concurrent saves are last-writer-wins.
func (s *Service) Save(_ context.Context, in SaveInput) (*SaveResult, error) {
	if err := requirePath(in.Path, "path"); err != nil {
		return nil, err
	}
	if in.Content == "" {
		return nil, fmt.Errorf("%w: content is required", apperr.ErrInvalidPath)
	}

	existing, err := s.store.Read(in.Path)
	created := false
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		created = true
	case err != nil:
		return nil, err
	}

	if in.IfMatch != "" {
		if created {
			return nil, fmt.Errorf("%w: %s no longer exists", apperr.ErrConflict, in.Path)
		}
		if !checksum.Matches(existing, in.IfMatch) {
			return nil, fmt.Errorf("%w: %s was modified", apperr.ErrConflict, in.Path)
		}
	}

	data := []byte(in.Content)
	if err := s.store.Write(in.Path, data); err != nil {
		return nil, err
	}
	s.reindex(in.Path, data)
	if created {
		s.publish("created", in.Path)
	} else {
		s.publish("updated", in.Path)
	}

	title := in.Title
	if title == "" {
		title = parser.StripExt(in.Path)
	}
	return &SaveResult{
		Path:     in.Path,
		Title:    title,
		Checksum: checksum.Sum(data),
		Created:  created,
	}, nil
}

// Delete removes one document.
func (s *Service) Delete(_ context.Context, p string) error {
	if err := requirePath(p, "path"); err != nil {
		return err
	}
	if err := s.store.Delete(p); err != nil {
		return err
	}
	if s.idx != nil {
		if err := s.idx.DeleteDocument(p); err != nil {
			s.logger.Warn("index delete failed", slog.String("path", p), slog.String("error", err.Error()))
		}
	}
	s.publish("deleted", p)
	return nil
}

// Move relocates a document (or directory). The target must not exist.
func (s *Service) Move(_ context.Context, src, dst string) (*MoveResult, error) {
	if err := requirePath(src, "sourcePath"); err != nil {
		return nil, err
	}
	if err := requirePath(dst, "targetPath"); err != nil {
		return nil, err
	}
	if err := s.store.Move(src, dst); err != nil {
		return nil, err
	}
	s.reindexMoved(src, dst)
	s.publish("deleted", src)
	s.publish("created", dst)
	return &MoveResult{SourcePath: src, TargetPath: dst}, nil
}

// CreateDirectory creates an empty directory; it must not already exist.
func (s *Service) CreateDirectory(_ context.Context, p string) error {
	if err := requirePath(p, "path"); err != nil {
		return err
	}
	if err := s.store.Mkdir(p); err != nil {
		return err
	}
	s.publish("", p)
	return nil
}

// DeleteDirectory removes a directory; it must be empty.
func (s *Service) DeleteDirectory(_ context.Context, p string) error {
	if err := requirePath(p, "path"); err != nil {
		return err
	}
	if err := s.store.RemoveDir(p); err != nil {
		return err
	}
	s.publish("", p)
	return nil
}

// Search runs a full-text query against the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if s.idx == nil {
		return nil, fmt.Errorf("%w: search index is disabled", apperr.ErrUnavailable)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", apperr.ErrInvalidPath)
	}
	results, err := s.idx.Search(query, limit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	return results, nil
}

// Render returns the HTML form of a document.
func (s *Service) Render(ctx context.Context, p string) (*Rendered, error) {
	doc, err := s.Get(ctx, p)
	if err != nil {
		return nil, err
	}
	html, err := s.renderer.Render([]byte(doc.Content))
	if err != nil {
		return nil, err
	}
	return &Rendered{Path: doc.Path, Title: doc.Title, HTML: string(html)}, nil
}

// reindex updates the search entry for a document just written. Index
// failures are logged, not returned: the file on disk is authoritative and
// the watcher or the next sync repairs the index.
func (s *Service) reindex(p string, data []byte) {
	if s.idx == nil || !parser.IsMarkdown(p) {
		return
	}
	if err := index.IndexDocument(s.idx, p, data, time.Now()); err != nil {
		s.logger.Warn("index upsert failed", slog.String("path", p), slog.String("error", err.Error()))
	}
}

func (s *Service) reindexMoved(src, dst string) {
	if s.idx == nil {
		return
	}
	info, err := s.store.Stat(dst)
	if err != nil {
		return
	}
	if !info.IsDir() {
		if err := s.idx.DeleteDocument(src); err != nil {
			s.logger.Warn("index delete failed", slog.String("path", src), slog.String("error", err.Error()))
		}
		if data, err := s.store.Read(dst); err == nil {
			s.reindex(dst, data)
		}
		return
	}

	if _, err := s.idx.DeletePrefix(src); err != nil {
		s.logger.Warn("index delete failed", slog.String("path", src), slog.String("error", err.Error()))
	}
	metas, err := s.store.List(dst)
	if err != nil {
		s.logger.Warn("index list failed", slog.String("path", dst), slog.String("error", err.Error()))
		return
	}
	for _, m := range metas {
		if data, err := s.store.Read(m.Path); err == nil {
			s.reindex(m.Path, data)
		}
	}
}

// publish forwards a change to the publisher. An empty kind only refreshes
// the tree.
func (s *Service) publish(kind, p string) {
	if s.publisher != nil {
		s.publisher.PublishDocumentEvent(kind, p)
	}
}

// requirePath rejects missing paths before they reach storage.
func requirePath(p, field string) error {
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("%w: %s is required", apperr.ErrInvalidPath, field)
	}
	return nil
}
