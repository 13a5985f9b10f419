package tui

import (
	"fmt"
	"strings"

	"docsim/internal/analysis"
	"docsim/internal/report"
	"docsim/internal/state"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// detailModel shows every top chunk of one file in a viewport. offsets holds
// the first content line of each chunk so scrolling moves chunk by chunk.
type detailModel struct {
	viewport viewport.Model
	offsets  []int
	file     analysis.FileScore
	width    int
}

func newDetailModel() detailModel {
	return detailModel{viewport: viewport.New(80, 20), width: 80}
}

func (d *detailModel) setSize(width, height int) {
	d.width = max(width, 20)
	d.viewport.Width = d.width
	d.viewport.Height = max(height-6, 3)
	if d.file.Path != "" {
		d.load(d.file)
	}
}

func (d *detailModel) load(file analysis.FileScore) {
	d.file = file
	d.offsets = d.offsets[:0]

	wrap := lipgloss.NewStyle().Width(max(d.width-6, 10))
	var b strings.Builder
	line := 0
	for i, c := range file.TopChunks {
		d.offsets = append(d.offsets, line)
		block := fmt.Sprintf("%s %s %s\n%s\n\n",
			labelStyle.Render(fmt.Sprintf("Chunk %d/%d", i+1, len(file.TopChunks))),
			scoreStyle.Render(fmt.Sprintf("%.4f", c.Score)),
			dimStyle.Render(fmt.Sprintf("bytes %d..%d", c.Chunk.Start, c.Chunk.End)),
			wrap.Render(report.Highlight(c.Chunk.Text, c.MatchedIndexes, matchStyle)),
		)
		b.WriteString(block)
		line += strings.Count(block, "\n")
	}
	d.viewport.SetContent(b.String())
	d.viewport.GotoTop()
}

// scrollTo puts chunk i at the top of the viewport.
func (d *detailModel) scrollTo(i int) {
	if i < 0 || i >= len(d.offsets) {
		d.viewport.GotoTop()
		return
	}
	d.viewport.SetYOffset(d.offsets[i])
}

func (d detailModel) View(s state.ViewingFileDetail, status string) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  "+displayPath(s.Previous.Config.SearchPath, s.File.Path)) + " " +
		scoreStyle.Render(fmt.Sprintf("%.4f", s.File.Score)) + "\n\n")
	b.WriteString(d.viewport.View() + "\n")

	footer := fmt.Sprintf("chunk %d of %d • scored in %s", min(s.Scroll+1, len(s.File.TopChunks)), len(s.File.TopChunks), s.File.Elapsed)
	if status != "" {
		footer += " • " + status
	}
	b.WriteString(statusBarStyle.Render(footer) + "\n")
	b.WriteString(helpStyle.Render("  ↑/↓ chunk • ctrl+o open folder • ctrl+r rerun • Esc back • q quit") + "\n")
	return b.String()
}
