// Package models defines the domain types for techdocs.
package models

import "encoding/json"

// Kind distinguishes files from directories in a listing.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
)

// DocumentNode is one entry of a directory listing. It is built from the live
// filesystem on every request and never stored.
type DocumentNode struct {
	Name         string         `json:"name"`
	Path         string         `json:"path"` // root-relative, forward slashes
	Kind         Kind           `json:"type"`
	Title        string         `json:"title"`
	LastModified int64          `json:"lastModified"` // Unix milliseconds
	Size         int64          `json:"size"`
	Preview      string         `json:"preview"`
	Children     []DocumentNode `json:"children"`
}

// IsDir reports whether the node is a directory.
func (n DocumentNode) IsDir() bool {
	return n.Kind == KindDirectory
}

type nodeHeader struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	Kind         Kind   `json:"type"`
	Title        string `json:"title"`
	LastModified int64  `json:"lastModified"`
}

// MarshalJSON emits children for directories and size/preview for files,
// even when they are empty.
func (n DocumentNode) MarshalJSON() ([]byte, error) {
	h := nodeHeader{
		Name:         n.Name,
		Path:         n.Path,
		Kind:         n.Kind,
		Title:        n.Title,
		LastModified: n.LastModified,
	}
	if n.IsDir() {
		children := n.Children
		if children == nil {
			children = []DocumentNode{}
		}
		return json.Marshal(struct {
			nodeHeader
			Children []DocumentNode `json:"children"`
		}{h, children})
	}
	return json.Marshal(struct {
		nodeHeader
		Size    int64  `json:"size"`
		Preview string `json:"preview"`
	}{h, n.Size, n.Preview})
}

// Document is a stored Markdown file together with its filesystem metadata.
type Document struct {
	Path         string `json:"path"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	Checksum     string `json:"checksum"`
	LastModified int64  `json:"lastModified"`
	Size         int64  `json:"size"`
}

// DocumentMetadata is the lightweight form used to reconcile the search index.
type DocumentMetadata struct {
	Path         string
	Checksum     string
	LastModified int64
}
