// Package pathsafe confines caller-supplied relative paths to a root directory.
package pathsafe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/techdocs/internal/apperr"
)

// Resolve joins rel onto root and rejects any result that escapes root.
//
// Join semantics apply: "." and ".." segments are resolved and a leading
// slash in rel is just another segment. The check is lexical, so a symbolic
// link inside root that points elsewhere is not detected.
//
// An empty rel resolves to root itself; callers decide whether the root is an
// acceptable target for their operation.
func Resolve(root, rel string) (string, error) {
	root = filepath.Clean(root)
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if !Within(root, abs) {
		return "", fmt.Errorf("%w: path traversal: %s", apperr.ErrInvalidPath, rel)
	}
	return abs, nil
}

// Within reports whether abs is root or lies underneath it.
func Within(root, abs string) bool {
	if abs == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}
	return strings.HasPrefix(abs, prefix)
}

// Rel returns abs relative to root using forward slashes.
func Rel(root, abs string) (string, error) {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}
