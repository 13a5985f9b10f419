// Package report renders analysis results for people and machines: styled
// terminal text, markdown and json/yaml documents.
package report

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"docsim/internal/analysis"

	"github.com/charmbracelet/lipgloss"
)

const (
	// snippetLead is how many bytes of context precede the first match.
	snippetLead = 60
	// SnippetLen is the default snippet length in bytes.
	SnippetLen = 300
)

// Styles used by WriteText.
type Styles struct {
	Header     lipgloss.Style
	Duration   lipgloss.Style
	Score      lipgloss.Style
	Index      lipgloss.Style
	ChunkScore lipgloss.Style
	Dim        lipgloss.Style
	Match      lipgloss.Style
	Warn       lipgloss.Style
}

// DefaultStyles are the terminal colors of the report command.
func DefaultStyles() Styles {
	return Styles{
		Header:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51")),
		Duration:   lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("196")),
		Score:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("78")),
		Index:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		ChunkScore: lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		Dim:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Match:      lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("226")),
		Warn:       lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
}

// TextOptions tune WriteText.
type TextOptions struct {
	Styles Styles
	// Skips are listed after the results when non-empty.
	Skips []analysis.Skip
}

// WriteText prints every result with its top chunks and highlighted snippets.
func WriteText(w io.Writer, query string, results []analysis.FileScore, opts TextOptions) error {
	st := opts.Styles
	var sb strings.Builder

	if len(results) == 0 {
		fmt.Fprintf(&sb, "%s\n", st.Dim.Render(fmt.Sprintf("No documents matched %q.", query)))
	}

	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s\n", st.Header.Render("File: "+r.Path))
		fmt.Fprintf(&sb, "%s\n", st.Duration.Render("Analysis duration: "+r.Elapsed.Round(time.Microsecond).String()))
		fmt.Fprintf(&sb, "%s\n\n", st.Score.Render(fmt.Sprintf("Score: %.4f", r.Score)))

		sb.WriteString(lipgloss.NewStyle().Bold(true).Render("Top chunks:") + "\n")
		for j, c := range r.TopChunks {
			if j > 0 {
				fmt.Fprintf(&sb, "\n%s\n\n", st.Dim.Render(strings.Repeat("─", 80)))
			}
			fmt.Fprintf(&sb, "  %s score: %s %s\n",
				st.Index.Render(fmt.Sprintf("%d.", j+1)),
				st.ChunkScore.Render(fmt.Sprintf("%.4f", c.Score)),
				st.Dim.Render(fmt.Sprintf("[%d..%d]", c.Chunk.Start, c.Chunk.End)),
			)
			fmt.Fprintf(&sb, "     %s\n", HighlightSnippet(c.Chunk.Text, c.MatchedIndexes, SnippetLen, st.Match))
		}
	}

	if len(opts.Skips) > 0 {
		fmt.Fprintf(&sb, "\n%s\n", st.Warn.Render(fmt.Sprintf("Skipped %d file(s):", len(opts.Skips))))
		for _, s := range opts.Skips {
			fmt.Fprintf(&sb, "  %s %s\n", s.Path, st.Dim.Render("("+s.Reason+")"))
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// Snippet picks the part of text worth showing for a match: it starts up to
// snippetLead bytes before the first matched offset and runs for maxLen
// bytes, extended to cover the last matched offset. Without matches it is the
// first line, trimmed and cut at maxLen. start is the byte offset of the
// snippet in text. Boundaries always fall between runes.
func Snippet(text string, indexes []int, maxLen int) (snippet string, start int, truncated bool) {
	if len(indexes) == 0 {
		line, _, _ := strings.Cut(text, "\n")
		line = strings.TrimSpace(line)
		if len(line) <= maxLen {
			return line, strings.Index(text, line), false
		}
		end := runeFloor(line, maxLen)
		return line[:end], strings.Index(text, line), true
	}

	lo, hi := slices.Min(indexes), slices.Max(indexes)
	start = runeFloor(text, max(lo-snippetLead, 0))
	end := min(start+maxLen, len(text))
	end = min(max(end, hi+1), len(text))
	end = runeCeil(text, end)
	return text[start:end], start, false
}

// HighlightSnippet renders the Snippet of text with matched characters
// styled by match.
func HighlightSnippet(text string, indexes []int, maxLen int, match lipgloss.Style) string {
	snippet, start, truncated := Snippet(text, indexes, maxLen)
	local := make([]int, 0, len(indexes))
	for _, i := range indexes {
		if i >= start && i < start+len(snippet) {
			local = append(local, i-start)
		}
	}
	out := Highlight(snippet, local, match)
	if truncated {
		out += "..."
	}
	return out
}

// Highlight styles the runes of text that start at the given byte offsets.
// Consecutive matched runes are styled as one run.
func Highlight(text string, indexes []int, match lipgloss.Style) string {
	if len(indexes) == 0 {
		return text
	}
	marked := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		marked[i] = true
	}

	var (
		sb  strings.Builder
		run strings.Builder
	)
	flush := func() {
		if run.Len() > 0 {
			sb.WriteString(match.Render(run.String()))
			run.Reset()
		}
	}
	for i, r := range text {
		if marked[i] {
			run.WriteRune(r)
			continue
		}
		flush()
		sb.WriteRune(r)
	}
	flush()
	return sb.String()
}

// runeFloor moves i back to the start of the rune containing it.
func runeFloor(s string, i int) int {
	i = min(i, len(s))
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// runeCeil moves i forward to the next rune start.
func runeCeil(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}
