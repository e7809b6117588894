package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_HeadingsAndGFM(t *testing.T) {
	r := NewRenderer(Options{})
	out, err := r.Render([]byte("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n- [x] done\n\n~~gone~~\n"))
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, `<h1 id="title">Title</h1>`)
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, `type="checkbox"`)
	assert.Contains(t, html, "<del>gone</del>")
}

func TestRender_RawHTML(t *testing.T) {
	src := []byte("<script>alert(1)</script>\n\ntext\n")

	safe, err := NewRenderer(Options{}).Render(src)
	require.NoError(t, err)
	assert.NotContains(t, string(safe), "<script>")

	unsafe, err := NewRenderer(Options{UnsafeHTML: true}).Render(src)
	require.NoError(t, err)
	assert.Contains(t, string(unsafe), "<script>")
}

func TestRender_HardWraps(t *testing.T) {
	out, err := NewRenderer(Options{HardWraps: true}).Render([]byte("one\ntwo\n"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(out), "<br"))
}
