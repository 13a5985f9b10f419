package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"docsim/internal/state"
)

// resultsView renders the ranked list, keeping the selection on screen.
func resultsView(s state.ViewingResults, skipped int, status string, width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  Results") + " " +
		subtitleStyle.Render(fmt.Sprintf("for %q in %s", s.Config.Query, s.Config.SearchPath)) + "\n\n")

	if len(s.Results) == 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("  No file reached the %.2f threshold.", s.Config.Threshold)) + "\n")
	}

	rows := max(height-9, 3)
	first := 0
	if s.Selected >= rows {
		first = s.Selected - rows + 1
	}
	last := min(first+rows, len(s.Results))

	for i := first; i < last; i++ {
		r := s.Results[i]
		cursor := "  "
		style := listItemStyle
		if i == s.Selected {
			cursor = "▸ "
			style = selectedStyle
		}
		name := displayPath(s.Config.SearchPath, r.Path)
		fmt.Fprintf(&b, "  %s%s  %s %s\n", cursor,
			scoreStyle.Render(fmt.Sprintf("%.4f", r.Score)),
			style.Render(truncate(name, max(width-24, 20))),
			dimStyle.Render(fmt.Sprintf("(%d chunks)", len(r.TopChunks))),
		)
	}
	b.WriteString("\n")

	footer := fmt.Sprintf("%d files • sorted by %s • %s", len(s.Results), s.Sort, s.Elapsed.Round(time.Millisecond))
	if skipped > 0 {
		footer += fmt.Sprintf(" • %d skipped", skipped)
	}
	if status != "" {
		footer += " • " + status
	}
	b.WriteString(statusBarStyle.Render(footer) + "\n")
	b.WriteString(helpStyle.Render("  ↑/↓ select • Enter details • s sort • ctrl+o open folder • ctrl+r rerun • Esc edit • q quit") + "\n")
	return b.String()
}

// displayPath shows path relative to the search root when it lies inside it.
func displayPath(root, path string) string {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(absRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	if rel == "." {
		return filepath.Base(path)
	}
	return rel
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "…" + string(r[len(r)-n+1:])
}
