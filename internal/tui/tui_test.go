package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	"docsim/internal/analysis"
	"docsim/internal/chunker"
	"docsim/internal/config"
	"docsim/internal/state"
	"docsim/internal/task"
	"docsim/internal/walker"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeResults(paths ...string) []analysis.FileScore {
	var out []analysis.FileScore
	for i, p := range paths {
		out = append(out, analysis.FileScore{
			Path:  p,
			Score: 1 - float64(i)/10,
			TopChunks: []analysis.ScoredChunk{
				{Chunk: chunker.Chunk{Text: "zebra one", Start: 0, End: 9}, Score: 1, MatchedIndexes: []int{0, 1, 2, 3, 4}},
				{Chunk: chunker.Chunk{Text: "zebra two", Start: 20, End: 29}, Score: 0.8, MatchedIndexes: []int{0, 1, 2, 3, 4}},
			},
		})
	}
	return out
}

func newTestModel(t *testing.T, files []string, results []analysis.FileScore) Model {
	t.Helper()
	coord := task.New(task.Options{
		Discover: func(string, []string, int) (walker.Result, error) {
			return walker.Result{Files: files, MaxDepth: 1}, nil
		},
		Analyse: func(context.Context, []string, config.Config, ...analysis.CallOption) ([]analysis.FileScore, error) {
			return results, nil
		},
	})
	t.Cleanup(coord.Close)

	cfg := config.Defaults()
	cfg.SearchPath = t.TempDir()
	m := newModel(Config{App: cfg}, coord)
	m.openFolder = func(string) error { return nil }
	return m
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func typeText(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

// waitFor ticks the model until its state satisfies ok.
func waitFor(t *testing.T, m Model, ok func(state.State) bool) Model {
	t.Helper()
	require.Eventually(t, func() bool {
		m = send(t, m, tickMsg(time.Now()))
		return ok(m.machine.Current())
	}, 2*time.Second, 10*time.Millisecond)
	return m
}

func isResults(s state.State) bool {
	_, ok := s.(state.ViewingResults)
	return ok
}

func TestModel_TypingEditsTheConfiguration(t *testing.T) {
	m := newTestModel(t, nil, nil)
	m = send(t, m, typeText("zebra"))

	assert.Equal(t, "zebra", state.ConfigOf(m.machine.Current()).Query)

	m = send(t, m, key(tea.KeyTab))
	assert.Equal(t, fieldPath, m.form.focus)
}

func TestModel_EnterWithEmptyQueryShowsErrors(t *testing.T) {
	m := newTestModel(t, nil, nil)
	m = send(t, m, key(tea.KeyEnter))

	c, ok := m.machine.Current().(state.Configuring)
	require.True(t, ok)
	assert.Contains(t, c.Errors, "query must not be empty")
	assert.Contains(t, m.View(), "query must not be empty")
}

func TestModel_MissingPathIsRejected(t *testing.T) {
	m := newTestModel(t, nil, nil)
	m = send(t, m, typeText("zebra"), key(tea.KeyTab))
	m.form.inputs[fieldPath].SetValue("")
	m = send(t, m, typeText("/definitely/not/here"), key(tea.KeyEnter))

	c, ok := m.machine.Current().(state.Configuring)
	require.True(t, ok, "got %T", m.machine.Current())
	require.Len(t, c.Errors, 1)
	assert.Contains(t, c.Errors[0], "does not exist")
}

func TestModel_AnalyseBrowseAndGoBack(t *testing.T) {
	results := fakeResults("/docs/a.txt", "/docs/b.txt")
	m := newTestModel(t, []string{"/docs/a.txt", "/docs/b.txt"}, results)

	m = send(t, m, typeText("zebra"), key(tea.KeyEnter))
	assert.IsType(t, state.Analyzing{}, m.machine.Current())
	assert.Contains(t, m.View(), "Analyzing")

	m = waitFor(t, m, isResults)
	v := m.machine.Current().(state.ViewingResults)
	assert.Equal(t, results, v.Results)
	assert.Contains(t, m.View(), "a.txt")

	m = send(t, m, key(tea.KeyDown))
	assert.Equal(t, 1, m.machine.Current().(state.ViewingResults).Selected)

	m = send(t, m, key(tea.KeyEnter))
	d, ok := m.machine.Current().(state.ViewingFileDetail)
	require.True(t, ok, "got %T", m.machine.Current())
	assert.Equal(t, "/docs/b.txt", d.File.Path)
	assert.Contains(t, m.View(), "Chunk 1/2")

	m = send(t, m, key(tea.KeyDown))
	assert.Equal(t, 1, m.machine.Current().(state.ViewingFileDetail).Scroll)

	m = send(t, m, key(tea.KeyEsc))
	assert.IsType(t, state.ViewingResults{}, m.machine.Current())

	m = send(t, m, key(tea.KeyEsc))
	c, ok := m.machine.Current().(state.Configuring)
	require.True(t, ok, "got %T", m.machine.Current())
	assert.Equal(t, "zebra", c.Config.Query)
	assert.Equal(t, "zebra", m.form.inputs[fieldQuery].Value())
}

func TestModel_NoFilesLeadsToErrorAndBack(t *testing.T) {
	m := newTestModel(t, nil, nil)
	m = send(t, m, typeText("zebra"), key(tea.KeyEnter))

	m = waitFor(t, m, func(s state.State) bool {
		_, ok := s.(state.Error)
		return ok
	})
	assert.Contains(t, m.View(), "no matching files")

	m = send(t, m, key(tea.KeyEsc))
	c, ok := m.machine.Current().(state.Configuring)
	require.True(t, ok, "got %T", m.machine.Current())
	assert.Equal(t, "zebra", c.Config.Query)
}

func TestModel_ReanalyzeFromResults(t *testing.T) {
	m := newTestModel(t, []string{"/docs/a.txt"}, fakeResults("/docs/a.txt"))
	m = send(t, m, typeText("zebra"), key(tea.KeyEnter))
	m = waitFor(t, m, isResults)
	gen := m.coord.Generation()

	m = send(t, m, key(tea.KeyCtrlR))
	assert.IsType(t, state.Analyzing{}, m.machine.Current())
	assert.Greater(t, m.coord.Generation(), gen)

	waitFor(t, m, isResults)
}

func TestModel_GoBackWhileAnalyzingCancels(t *testing.T) {
	m := newTestModel(t, []string{"/docs/a.txt"}, fakeResults("/docs/a.txt"))
	m = send(t, m, typeText("zebra"), key(tea.KeyEnter))
	gen := m.coord.Generation()

	m = send(t, m, key(tea.KeyEsc))
	assert.IsType(t, state.Configuring{}, m.machine.Current())
	assert.Greater(t, m.coord.Generation(), gen)

	time.Sleep(50 * time.Millisecond)
	m = send(t, m, tickMsg(time.Now()))
	assert.IsType(t, state.Configuring{}, m.machine.Current())
}

func TestModel_OpenFolder(t *testing.T) {
	m := newTestModel(t, []string{"/docs/a.txt"}, fakeResults("/docs/sub/a.txt"))
	var opened string
	m.openFolder = func(dir string) error {
		opened = dir
		return nil
	}
	m = send(t, m, typeText("zebra"), key(tea.KeyEnter))
	m = waitFor(t, m, isResults)

	_, cmd := m.Update(key(tea.KeyCtrlO))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, "/docs/sub", opened)
	assert.Equal(t, statusMsg("opened /docs/sub"), msg)

	m = send(t, m, msg)
	assert.Contains(t, m.View(), "opened /docs/sub")
}

func TestModel_CtrlCQuits(t *testing.T) {
	m := newTestModel(t, nil, nil)
	next, cmd := m.Update(key(tea.KeyCtrlC))
	assert.NotNil(t, cmd)
	assert.True(t, next.(Model).machine.Done())
	assert.Empty(t, next.(Model).View())
}

func TestModel_PreviewArrivesOnTick(t *testing.T) {
	m := newTestModel(t, []string{"/docs/a.txt", "/docs/b.txt"}, nil)
	m = waitFor(t, m, func(s state.State) bool {
		c, ok := s.(state.Configuring)
		return ok && c.Preview != nil
	})
	assert.Contains(t, m.View(), "2 candidate file(s)")
}

// fakeChanges stands in for the filesystem watcher.
type fakeChanges struct {
	mu      sync.Mutex
	pending int
}

func (f *fakeChanges) signal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = 1
}

func (f *fakeChanges) Poll() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == 0 {
		return false
	}
	f.pending = 0
	return true
}

func (f *fakeChanges) Close() error { return nil }

func TestModel_ChangeDuringAnalysisReanalysesOnceResultsArrive(t *testing.T) {
	m := newTestModel(t, []string{"/docs/a.txt"}, fakeResults("/docs/a.txt"))
	changes := &fakeChanges{}
	m.watcher = changes

	m = send(t, m, typeText("zebra"), key(tea.KeyEnter))
	require.IsType(t, state.Analyzing{}, m.machine.Current())
	first := m.coord.Generation()
	changes.signal()

	m = waitFor(t, m, func(s state.State) bool {
		return isResults(s) && m.coord.Generation() > first
	})
	assert.False(t, changes.Poll(), "the change was consumed by the rerun")
}

func TestModel_ChangeBeforeStartIsNotReplayed(t *testing.T) {
	m := newTestModel(t, []string{"/docs/a.txt"}, fakeResults("/docs/a.txt"))
	changes := &fakeChanges{}
	m.watcher = changes

	m = send(t, m, typeText("zebra"))
	changes.signal()
	m = send(t, m, key(tea.KeyEnter))
	gen := m.coord.Generation()

	m = waitFor(t, m, isResults)
	m = send(t, m, tickMsg(time.Now()))
	assert.Equal(t, gen, m.coord.Generation())
	assert.IsType(t, state.ViewingResults{}, m.machine.Current())
}
