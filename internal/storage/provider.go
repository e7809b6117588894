// Package storage defines the document-root file-system abstraction.
package storage

import (
	"io/fs"

	"github.com/starford/techdocs/internal/models"
)

// Provider is the interface for document file operations. Every path is
// relative to the document root and is checked by the path-safety gate
// before the filesystem is touched.
type Provider interface {
	// Root returns the absolute document root.
	Root() string
	// Stat returns file info for path.
	Stat(path string) (fs.FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath without replacing an existing newPath.
	Move(oldPath, newPath string) error
	// Mkdir creates the directory at path; it must not already exist.
	Mkdir(path string) error
	// RemoveDir removes the directory at path; it must be empty.
	RemoveDir(path string) error
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.DocumentMetadata, error)
}
