package parser

import (
	"strings"
	"testing"
)

func TestTitle_FirstHeading(t *testing.T) {
	got := Title("intro\n# Hello World  \n# Second\n", "fallback")
	if got != "Hello World" {
		t.Errorf("title = %q, want %q", got, "Hello World")
	}
}

func TestTitle_CRLF(t *testing.T) {
	got := Title("# Windows\r\nbody\r\n", "fallback")
	if got != "Windows" {
		t.Errorf("title = %q, want %q", got, "Windows")
	}
}

func TestTitle_Fallback(t *testing.T) {
	cases := []string{
		"",
		"no heading here",
		"## Second level only",
		"  # indented heading",
		"#missing space",
	}
	for _, content := range cases {
		if got := Title(content, "notes"); got != "notes" {
			t.Errorf("Title(%q) = %q, want fallback", content, got)
		}
	}
}

func TestPreview_Short(t *testing.T) {
	content := "# Title\nBody text"
	if got := Preview(content); got != content {
		t.Errorf("preview = %q, want unchanged", got)
	}
}

func TestPreview_ExactLength(t *testing.T) {
	content := strings.Repeat("a", PreviewLength)
	if got := Preview(content); got != content {
		t.Errorf("content of exactly %d chars should not be truncated", PreviewLength)
	}
}

func TestPreview_Truncated(t *testing.T) {
	content := strings.Repeat("b", PreviewLength+50)
	got := Preview(content)
	want := strings.Repeat("b", PreviewLength) + "..."
	if got != want {
		t.Errorf("preview length = %d, want %d", len(got), len(want))
	}
}

func TestPreview_CountsCharactersNotBytes(t *testing.T) {
	content := strings.Repeat("文", PreviewLength+1)
	got := Preview(content)
	want := strings.Repeat("文", PreviewLength) + "..."
	if got != want {
		t.Errorf("multi-byte preview cut mid-rune or at wrong length: %q", got)
	}
}

func TestStripExt(t *testing.T) {
	if got := StripExt("guide.md"); got != "guide" {
		t.Errorf("StripExt = %q", got)
	}
	if got := StripExt("a/b.md"); got != "a/b" {
		t.Errorf("StripExt = %q", got)
	}
	if got := StripExt("readme.txt"); got != "readme.txt" {
		t.Errorf("StripExt = %q", got)
	}
}

func TestIsMarkdown(t *testing.T) {
	if !IsMarkdown("a.md") || IsMarkdown("a.txt") || IsMarkdown("md") {
		t.Error("IsMarkdown mismatch")
	}
}
