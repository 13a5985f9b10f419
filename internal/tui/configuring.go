package tui

import (
	"fmt"
	"strings"

	"docsim/internal/config"
	"docsim/internal/state"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type field int

const (
	fieldQuery field = iota
	fieldPath
	fieldExtensions
	fieldCount
)

var fieldLabels = [fieldCount]string{"Query", "Path", "Extensions"}

// formModel holds the text inputs of the configuring screen. The inputs are
// only an editing surface: every change is sent to the state machine, which
// owns the configuration.
type formModel struct {
	inputs [fieldCount]textinput.Model
	focus  field
}

func newFormModel(cfg config.Config) formModel {
	var f formModel
	placeholders := [fieldCount]string{
		"text to look for...",
		"directory or file to search",
		strings.Join(config.DefaultExtensions, ","),
	}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 1000
		ti.Prompt = ""
		f.inputs[i] = ti
	}
	f.load(cfg)
	f.setFocus(fieldQuery)
	return f
}

// load copies cfg into the inputs.
func (f *formModel) load(cfg config.Config) {
	f.inputs[fieldQuery].SetValue(cfg.Query)
	f.inputs[fieldPath].SetValue(cfg.SearchPath)
	f.inputs[fieldExtensions].SetValue(strings.Join(cfg.Extensions, ","))
}

func (f *formModel) setFocus(to field) {
	f.focus = to
	for i := range f.inputs {
		if field(i) == to {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
}

func (f *formModel) setWidth(width int) {
	for i := range f.inputs {
		f.inputs[i].Width = max(width-20, 10)
	}
}

// Update edits the focused input and returns the event describing the edit,
// if the value changed.
func (f formModel) Update(msg tea.Msg) (formModel, state.Event, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			f.setFocus((f.focus + 1) % fieldCount)
			return f, nil, nil
		case "shift+tab", "up":
			f.setFocus((f.focus + fieldCount - 1) % fieldCount)
			return f, nil, nil
		}
	}

	before := f.inputs[f.focus].Value()
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	after := f.inputs[f.focus].Value()
	if after == before {
		return f, nil, cmd
	}

	switch f.focus {
	case fieldQuery:
		return f, state.UpdateQuery{Text: after}, cmd
	case fieldPath:
		return f, state.UpdatePath{Text: after}, cmd
	default:
		return f, state.UpdateExtensions{Extensions: []string{after}}, cmd
	}
}

func (f formModel) View(s state.Configuring, width int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  docsim") + "\n")
	b.WriteString(subtitleStyle.Render("  Find the documents most similar to a piece of text") + "\n\n")

	for i, in := range f.inputs {
		cursor := "  "
		label := labelStyle
		if field(i) == f.focus {
			cursor = "▸ "
			label = selectedStyle
		}
		fmt.Fprintf(&b, "  %s%s %s\n", cursor, label.Render(fmt.Sprintf("%-11s", fieldLabels[i]+":")), in.View())
	}
	b.WriteString("\n")

	cfg := s.Config
	b.WriteString(dimStyle.Render(fmt.Sprintf("  top %d • threshold %.2f • window %d (max %d, overlap %d) • depth %d",
		cfg.TopN, cfg.Threshold, cfg.WindowSize, cfg.MaxWindowSize, cfg.Overlap, cfg.MaxDepth)) + "\n")

	if s.Preview != nil {
		n := len(s.Preview.Files)
		style := successStyle
		if n == 0 {
			style = warnStyle
		}
		b.WriteString(style.Render(fmt.Sprintf("  %d candidate file(s), up to depth %d", n, s.Preview.MaxDepth)) + "\n")
	} else {
		b.WriteString(dimStyle.Render("  Scanning...") + "\n")
	}

	if len(s.Errors) > 0 {
		b.WriteString("\n")
		for _, e := range s.Errors {
			b.WriteString(errorStyle.Render("  ✗ "+e) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("  Tab next field • Enter analyse • ctrl+c quit") + "\n")
	return b.String()
}
