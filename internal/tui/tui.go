package tui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"docsim/internal/analysis"
	"docsim/internal/config"
	"docsim/internal/logger"
	"docsim/internal/state"
	"docsim/internal/task"
	"docsim/internal/walker"
	"docsim/internal/watch"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/browser"
)

const (
	// tickInterval is how often background events are drained.
	tickInterval = 100 * time.Millisecond
	// previewDelay lets path edits settle before a discovery preview runs.
	previewDelay = 300 * time.Millisecond
)

// Config holds configuration passed from the CLI layer.
type Config struct {
	App    config.Config
	Watch  bool
	Logger logger.Logger
}

// tickMsg drives the background poll.
type tickMsg time.Time

// statusMsg is a one-line notice for the status bar.
type statusMsg string

// changeSource reports settled document changes, see watch.Watcher.
type changeSource interface {
	Poll() bool
	Close() error
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the top-level Bubble Tea model. The state machine decides which
// screen is shown; the sub-models only hold widget state for those screens.
type Model struct {
	machine *state.Machine
	coord   *task.Coordinator
	log     logger.Logger

	watchEnabled bool
	watcher      changeSource
	watchKey     string
	openFolder   func(string) error

	width  int
	height int

	form      formModel
	analyzing analyzingModel
	detail    detailModel

	skipped    int
	status     string
	previewDue time.Time
}

// New creates a TUI model analysing with the real walker and engine.
func New(cfg Config) Model {
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	engine := analysis.New(analysis.Options{Logger: log})
	coord := task.New(task.Options{
		Discover: walker.Discover,
		Analyse:  engine.Analyse,
		Logger:   log,
	})
	return newModel(cfg, coord)
}

func newModel(cfg Config, coord *task.Coordinator) Model {
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	return Model{
		machine:      state.NewMachine(state.Initial(cfg.App.Clone())),
		coord:        coord,
		log:          log,
		watchEnabled: cfg.Watch,
		openFolder:   browser.OpenFile,
		form:         newFormModel(cfg.App),
		analyzing:    newAnalyzingModel(),
		detail:       newDetailModel(),
		previewDue:   time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.analyzing.spinner.Tick, tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.form.setWidth(msg.Width)
		m.analyzing, _ = m.analyzing.Update(msg)
		m.detail.setSize(msg.Width, msg.Height)
		if d, ok := m.machine.Current().(state.ViewingFileDetail); ok {
			m.detail.scrollTo(d.Scroll)
		}
		return m, nil

	case tickMsg:
		cmd := m.onTick(time.Time(msg))
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.analyzing, cmd = m.analyzing.Update(msg)
		return m, cmd

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if _, ok := m.machine.Current().(state.Configuring); ok {
		var (
			e   state.Event
			cmd tea.Cmd
		)
		m.form, e, cmd = m.form.Update(msg)
		if e != nil {
			applied := m.apply(e)
			return m, tea.Batch(cmd, applied)
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cur := m.machine.Current()
	key := msg.String()

	if key == "ctrl+o" {
		if path := selectedPath(cur); path != "" {
			return m, m.openFolderCmd(path)
		}
		return m, nil
	}

	if events := eventsForKey(cur, key); len(events) > 0 {
		var cmds []tea.Cmd
		for _, e := range events {
			cmds = append(cmds, m.apply(e))
		}
		return m, tea.Batch(cmds...)
	}

	if _, ok := cur.(state.Configuring); ok {
		var (
			e   state.Event
			cmd tea.Cmd
		)
		m.form, e, cmd = m.form.Update(msg)
		if e != nil {
			applied := m.apply(e)
			return m, tea.Batch(cmd, applied)
		}
		return m, cmd
	}
	return m, nil
}

// apply feeds e to the machine and performs the side effects of the
// transition: dispatching or cancelling analyses, scheduling previews and
// syncing widgets with the new state.
func (m *Model) apply(e state.Event) tea.Cmd {
	prev := m.machine.Current()
	if _, ok := e.(state.StartAnalysis); ok {
		if err := config.CheckPath(state.ConfigOf(prev).SearchPath); err != nil {
			e = state.StartAnalysis{Problems: []string{err.Error()}}
		}
	}

	next := m.machine.Apply(e)
	m.log.Debug("transition", "event", fmt.Sprintf("%T", e), "from", state.Name(prev), "to", state.Name(next))

	switch e.(type) {
	case state.UpdatePath, state.UpdateExtensions:
		m.previewDue = time.Now().Add(previewDelay)
	}

	if state.Dispatches(prev, e, next) {
		cfg := next.(state.Analyzing).Config
		m.skipped = 0
		m.status = ""
		m.rewatch(cfg)
		if m.watcher != nil {
			// The new run reads the files as they are now.
			m.watcher.Poll()
		}
		m.coord.Start(cfg)
	}

	if _, was := prev.(state.Analyzing); was {
		switch next.(type) {
		case state.Configuring, state.Exiting:
			m.coord.Cancel()
		}
	}

	switch n := next.(type) {
	case state.Configuring:
		if _, was := prev.(state.Configuring); !was {
			m.form.load(n.Config)
			m.previewDue = time.Now()
		}
	case state.ViewingFileDetail:
		if _, was := prev.(state.ViewingFileDetail); !was {
			m.detail.load(n.File)
		}
		m.detail.scrollTo(n.Scroll)
	}

	if m.machine.Done() {
		return tea.Quit
	}
	return nil
}

func (m *Model) onTick(now time.Time) tea.Cmd {
	var cmds []tea.Cmd
	for _, e := range m.coord.Poll() {
		cmds = append(cmds, m.apply(e))
	}
	m.skipped += len(m.coord.Skips())

	if !m.previewDue.IsZero() && !now.Before(m.previewDue) {
		if c, ok := m.machine.Current().(state.Configuring); ok {
			m.coord.Preview(c.Config)
		}
		m.previewDue = time.Time{}
	}

	// A change seen while analysing stays queued in the watcher until the
	// results are on screen.
	if m.watcher != nil {
		switch m.machine.Current().(type) {
		case state.ViewingResults, state.ViewingFileDetail:
			if m.watcher.Poll() {
				m.log.Info("documents changed, re-analysing")
				cmds = append(cmds, m.apply(state.Reanalyze{}))
			}
		}
	}

	if !m.machine.Done() {
		cmds = append(cmds, tick())
	}
	return tea.Batch(cmds...)
}

// rewatch points the watcher at cfg's tree when watching is enabled.
func (m *Model) rewatch(cfg config.Config) {
	if !m.watchEnabled {
		return
	}
	key := fmt.Sprintf("%s|%s|%d", cfg.SearchPath, strings.Join(cfg.Extensions, ","), cfg.MaxDepth)
	if m.watcher != nil && key == m.watchKey {
		return
	}
	if m.watcher != nil {
		m.watcher.Close()
		m.watcher = nil
	}
	w, err := watch.New(cfg.SearchPath, cfg.Extensions, cfg.MaxDepth, watch.DefaultDebounce, m.log)
	if err != nil {
		m.log.Warn("watching disabled", "path", cfg.SearchPath, "error", err)
		return
	}
	m.watcher = w
	m.watchKey = key
}

func (m Model) openFolderCmd(path string) tea.Cmd {
	open := m.openFolder
	return func() tea.Msg {
		dir := filepath.Dir(path)
		if err := open(dir); err != nil {
			return statusMsg("open failed: " + err.Error())
		}
		return statusMsg("opened " + dir)
	}
}

func selectedPath(s state.State) string {
	switch s := s.(type) {
	case state.ViewingResults:
		if s.Selected >= 0 && s.Selected < len(s.Results) {
			return s.Results[s.Selected].Path
		}
	case state.ViewingFileDetail:
		return s.File.Path
	}
	return ""
}

// Close stops background work.
func (m Model) Close() {
	m.coord.Close()
	if m.watcher != nil {
		m.watcher.Close()
	}
}

func (m Model) View() string {
	switch s := m.machine.Current().(type) {
	case state.Configuring:
		return m.form.View(s, m.width)
	case state.Analyzing:
		return m.analyzing.View(s)
	case state.ViewingResults:
		return resultsView(s, m.skipped, m.status, m.width, m.height)
	case state.ViewingFileDetail:
		return m.detail.View(s, m.status)
	case state.Error:
		return errorView(s)
	case state.Exiting:
	}
	return ""
}

func errorView(s state.Error) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  Analysis failed") + "\n\n")
	b.WriteString(errorStyle.Render("  Error: "+s.Message) + "\n\n")
	b.WriteString(dimStyle.Render("  Press Enter or Esc to go back, q to quit.") + "\n")
	return b.String()
}

// Run starts the TUI program.
func Run(cfg Config) error {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard

	model := New(cfg)
	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.Close()
	} else {
		model.Close()
	}
	return err
}
