// Package parser derives display metadata from raw Markdown content.
package parser

import (
	"strings"
	"unicode/utf8"
)

const (
	// Ext is the only file extension treated as a document.
	Ext = ".md"

	// PreviewLength is the number of characters kept in a preview.
	PreviewLength = 200

	truncationMarker = "..."
	headingPrefix    = "# "
)

// IsMarkdown reports whether name carries the document extension.
func IsMarkdown(name string) bool {
	return strings.HasSuffix(name, Ext)
}

// StripExt removes a trailing ".md" from name.
func StripExt(name string) string {
	return strings.TrimSuffix(name, Ext)
}

// Title returns the text of the first line starting with "# ", trimmed.
// Indented headings and deeper levels ("## ") do not count. When no such
// line exists, fallback is returned.
func Title(content, fallback string) string {
	for line := range strings.SplitSeq(content, "\n") {
		if strings.HasPrefix(line, headingPrefix) {
			return strings.TrimSpace(line[len(headingPrefix):])
		}
	}
	return fallback
}

// Preview returns the first PreviewLength characters of content, with "..."
// appended when content is longer. The content is not rendered or stripped.
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= PreviewLength {
		return content
	}
	n := 0
	for i := range content {
		if n == PreviewLength {
			return content[:i] + truncationMarker
		}
		n++
	}
	return content
}
