package report

import (
	"fmt"
	"strings"

	"docsim/internal/analysis"

	"github.com/charmbracelet/glamour"
)

// Markdown formats results as a markdown document.
func Markdown(query string, results []analysis.FileScore) string {
	if len(results) == 0 {
		return fmt.Sprintf("No documents matched %q.\n", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Similar documents for %q (%d files)\n\n", query, len(results))

	for i, r := range results {
		fmt.Fprintf(&sb, "### %d. `%s`\n\n", i+1, r.Path)
		fmt.Fprintf(&sb, "**Score:** %.4f  \n**Chunks:** %d\n\n", r.Score, len(r.TopChunks))
		for j, c := range r.TopChunks {
			snippet, _, truncated := Snippet(c.Chunk.Text, c.MatchedIndexes, SnippetLen)
			if truncated {
				snippet += "..."
			}
			fmt.Fprintf(&sb, "%d. score %.4f, bytes %d..%d\n\n", j+1, c.Score, c.Chunk.Start, c.Chunk.End)
			fmt.Fprintf(&sb, "```text\n%s\n```\n\n", strings.TrimRight(snippet, "\n"))
		}
	}
	return sb.String()
}

// RenderMarkdown renders md for a terminal of the given width.
func RenderMarkdown(md string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	return r.Render(md)
}
