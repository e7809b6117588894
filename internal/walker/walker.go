// Package walker materializes the document root as a tree or a flat list.
//
// Nothing is cached: every call reads the live filesystem, so two calls may
// observe different trees if documents changed in between.
package walker

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/starford/techdocs/internal/models"
	"github.com/starford/techdocs/internal/parser"
)

// maxDepth bounds recursion when symlinked directories form a cycle.
const maxDepth = 64

// BuildTree returns the nested listing of root. Non-Markdown files are left
// out. Within every directory, directories come first and each group is
// ordered by name. Any I/O error aborts the walk.
func BuildTree(ctx context.Context, root string) ([]models.DocumentNode, error) {
	w := &walk{ctx: ctx, root: root, coll: collate.New(language.Und)}
	nodes, err := w.dir(root, "", 0, true)
	if err != nil {
		return nil, fmt.Errorf("walker: build tree: %w", err)
	}
	return nodes, nil
}

// BuildFlatList returns every Markdown document under root as a single list
// ordered by modification time, newest first.
func BuildFlatList(ctx context.Context, root string) ([]models.DocumentNode, error) {
	w := &walk{ctx: ctx, root: root, coll: collate.New(language.Und)}
	nodes, err := w.dir(root, "", 0, false)
	if err != nil {
		return nil, fmt.Errorf("walker: build flat list: %w", err)
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].LastModified > nodes[j].LastModified
	})
	return nodes, nil
}

type walk struct {
	ctx  context.Context
	root string
	// collate.Collator is not safe for concurrent use; one per walk.
	coll *collate.Collator
}

// dir lists abs. With nested set, subdirectories become nodes holding their
// children; otherwise their documents are spliced into the result.
func (w *walk) dir(abs, rel string, depth int, nested bool) ([]models.DocumentNode, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("directory nesting exceeds %d levels at %s", maxDepth, rel)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, err
	}

	var out []models.DocumentNode
	for _, entry := range entries {
		if err := w.ctx.Err(); err != nil {
			return nil, err
		}

		name := entry.Name()
		full := filepath.Join(abs, name)
		relPath := path.Join(rel, name)

		// Stat follows symlinks, so linked files and directories are listed
		// like the real thing.
		info, err := os.Stat(full)
		if err != nil {
			return nil, err
		}

		switch {
		case info.IsDir():
			children, err := w.dir(full, relPath, depth+1, nested)
			if err != nil {
				return nil, err
			}
			if !nested {
				out = append(out, children...)
				continue
			}
			if children == nil {
				children = []models.DocumentNode{}
			}
			out = append(out, models.DocumentNode{
				Name:         name,
				Path:         relPath,
				Kind:         models.KindDirectory,
				Title:        name,
				LastModified: info.ModTime().UnixMilli(),
				Children:     children,
			})

		case parser.IsMarkdown(name):
			data, err := os.ReadFile(full)
			if err != nil {
				return nil, err
			}
			content := string(data)
			out = append(out, models.DocumentNode{
				Name:         name,
				Path:         relPath,
				Kind:         models.KindFile,
				Title:        parser.Title(content, parser.StripExt(name)),
				LastModified: info.ModTime().UnixMilli(),
				Size:         info.Size(),
				Preview:      parser.Preview(content),
			})
		}
	}

	if nested {
		w.sortListing(out)
	}
	return out, nil
}

// sortListing orders directories before files, then by locale-aware name.
func (w *walk) sortListing(nodes []models.DocumentNode) {
	slices.SortStableFunc(nodes, func(a, b models.DocumentNode) int {
		if a.IsDir() != b.IsDir() {
			if a.IsDir() {
				return -1
			}
			return 1
		}
		return w.coll.CompareString(a.Name, b.Name)
	})
}
