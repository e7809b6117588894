package mcpserver

// DocumentFormatGuide describes how techdocs reads Markdown files, so that
// LLM consumers write documents that list and search well.
const DocumentFormatGuide = `# techdocs Document Format

Documents are plain Markdown files under the document root.

## Rules

1. **Paths** are relative to the document root, use forward slashes and end
   with ` + "`" + `.md` + "`" + `. Other files are ignored by listings and search.
2. **Title** is the text of the first line starting with ` + "`" + `# ` + "`" + `. Without
   such a line the file name (minus ` + "`" + `.md` + "`" + `) is shown instead.
3. **Preview** is the first 200 characters of the file, so open with the
   heading and a one-paragraph summary.
4. **No frontmatter** is interpreted; it would appear verbatim in previews.
5. **Encoding** is UTF-8.

## Editing

- ` + "`" + `save_document` + "`" + ` creates or overwrites. Pass the checksum returned by
  ` + "`" + `read_document` + "`" + ` as ` + "`" + `if_match` + "`" + ` to refuse the write when someone else
  changed the file in between.
- ` + "`" + `move_document` + "`" + ` never overwrites: moving onto an existing path fails.
- Parent directories are created as needed.

## Example

` + "```" + `markdown
# Deploying the API

How to ship a new release to staging and production.

## Steps

1. Tag the release.
2. Run the pipeline.
` + "```" + `
`
