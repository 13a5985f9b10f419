package tui

import (
	"fmt"
	"strings"

	"docsim/internal/state"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type analyzingModel struct {
	spinner  spinner.Model
	progress progress.Model
}

func newAnalyzingModel() analyzingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle
	return analyzingModel{
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (m analyzingModel) Update(msg tea.Msg) (analyzingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.Width = max(min(msg.Width-8, 60), 10)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m analyzingModel) View(s state.Analyzing) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  Analyzing") + "\n\n")

	if s.TotalFiles == 0 {
		fmt.Fprintf(&b, "  %s Discovering files under %s...\n", m.spinner.View(), s.Config.SearchPath)
	} else {
		fmt.Fprintf(&b, "  %s Scoring chunks against %q\n\n", m.spinner.View(), s.Config.Query)
		pct := float64(s.FilesProcessed) / float64(s.TotalFiles)
		fmt.Fprintf(&b, "  %s\n", m.progress.ViewAs(pct))
		fmt.Fprintf(&b, "  %d / %d files processed\n", s.FilesProcessed, s.TotalFiles)
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("  Esc cancel • ctrl+r restart • q quit") + "\n")
	return b.String()
}
