package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/starford/techdocs/internal/apperr"
	"github.com/starford/techdocs/internal/checksum"
	"github.com/starford/techdocs/internal/models"
	"github.com/starford/techdocs/internal/parser"
	"github.com/starford/techdocs/internal/pathsafe"
)

const tmpPattern = ".techdocs-tmp-*"

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to the document root
}

var _ Provider = (*FS)(nil)

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute document root.
func (f *FS) Root() string {
	return f.root
}

// resolve runs rel through the path-safety gate.
func (f *FS) resolve(rel string) (string, error) {
	return pathsafe.Resolve(f.root, rel)
}

// resolveEntry is resolve for operations that may not target the root itself.
func (f *FS) resolveEntry(rel string) (string, error) {
	abs, err := f.resolve(rel)
	if err != nil {
		return "", err
	}
	if abs == f.root {
		return "", fmt.Errorf("%w: document root is not a valid target", apperr.ErrInvalidPath)
	}
	return abs, nil
}

// Stat returns file info for path.
func (f *FS) Stat(path string) (fs.FileInfo, error) {
	abs, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, classify("stat", path, err)
	}
	return info, nil
}

// Read returns the raw bytes of a document.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.resolveEntry(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, classify("read", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
// Concurrent writers to the same path resolve as last-writer-wins. An
// existing file keeps its permission bits.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.resolveEntry(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return classify("mkdir", path, err)
	}

	tmp, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(abs); err == nil && info.Mode().IsRegular() {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("storage: chmod temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return classify("rename", path, err)
	}
	success = true
	return nil
}

// Delete removes a file. Directories are rejected; use RemoveDir.
func (f *FS) Delete(path string) error {
	abs, err := f.resolveEntry(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return classify("delete", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", apperr.ErrInvalidPath, path)
	}
	if err := os.Remove(abs); err != nil {
		return classify("delete", path, err)
	}
	return nil
}

// Move renames a file or directory within the root. The destination's parent
// directories are created as needed; an existing destination is never
// replaced.
func (f *FS) Move(oldPath, newPath string) error {
	absOld, err := f.resolveEntry(oldPath)
	if err != nil {
		return err
	}
	absNew, err := f.resolveEntry(newPath)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(absOld); err != nil {
		return classify("move", oldPath, err)
	}
	if err := os.MkdirAll(filepath.Dir(absNew), 0o755); err != nil {
		return classify("mkdir for move", newPath, err)
	}
	if err := renameNoReplace(absOld, absNew); err != nil {
		return classify("move", newPath, err)
	}
	return nil
}

// Mkdir creates a directory, including missing parents. The final mkdir is
// exclusive, so two concurrent creates cannot both succeed.
func (f *FS) Mkdir(path string) error {
	abs, err := f.resolveEntry(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return classify("mkdir", path, err)
	}
	if err := os.Mkdir(abs, 0o755); err != nil {
		return classify("mkdir", path, err)
	}
	return nil
}

// RemoveDir removes an empty directory.
func (f *FS) RemoveDir(path string) error {
	abs, err := f.resolveEntry(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return classify("remove dir", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", apperr.ErrInvalidPath, path)
	}
	// rmdir itself refuses non-empty directories (ENOTEMPTY).
	if err := os.Remove(abs); err != nil {
		return classify("remove dir", path, err)
	}
	return nil
}

// List walks dir and returns metadata for every .md file.
func (f *FS) List(dir string) ([]models.DocumentMetadata, error) {
	base, err := f.resolve(dir)
	if err != nil {
		return nil, err
	}
	var out []models.DocumentMetadata
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !parser.IsMarkdown(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := pathsafe.Rel(f.root, p)
		if err != nil {
			return err
		}
		out = append(out, models.DocumentMetadata{
			Path:         rel,
			Checksum:     checksum.Sum(data),
			LastModified: info.ModTime().UnixMilli(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

// classify wraps a filesystem error with its apperr category. Categorized
// errors name only the root-relative path, so their text is safe to show to
// clients; the underlying os error is dropped.
func classify(op, path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s %s", apperr.ErrNotFound, op, path)
	case errors.Is(err, fs.ErrExist), errors.Is(err, syscall.ENOTEMPTY):
		return fmt.Errorf("%w: %s %s", apperr.ErrConflict, op, path)
	case errors.Is(err, syscall.ENOTDIR), errors.Is(err, syscall.EISDIR):
		return fmt.Errorf("%w: %s %s", apperr.ErrInvalidPath, op, path)
	default:
		return fmt.Errorf("storage: %s %s: %w", op, path, err)
	}
}
