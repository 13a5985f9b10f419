package state

import (
	"testing"
	"time"

	"docsim/internal/analysis"
	"docsim/internal/chunker"
	"docsim/internal/config"
	"docsim/internal/walker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() config.Config {
	cfg := config.Defaults()
	cfg.Query = "zebra"
	return cfg
}

func sampleResults() []analysis.FileScore {
	chunks := []analysis.ScoredChunk{
		{Chunk: chunker.Chunk{Text: "zebra", Start: 0, End: 5}, Score: 0.9},
		{Chunk: chunker.Chunk{Text: "zebr", Start: 10, End: 14}, Score: 0.7},
		{Chunk: chunker.Chunk{Text: "zeb", Start: 20, End: 23}, Score: 0.6},
	}
	return []analysis.FileScore{
		{Path: "/docs/b/zoo.txt", Score: 0.9, TopChunks: chunks},
		{Path: "/docs/a/yard.md", Score: 0.8, TopChunks: chunks[1:]},
		{Path: "/docs/c/alpha.txt", Score: 0.6, TopChunks: chunks[2:]},
	}
}

func viewing() ViewingResults {
	return ViewingResults{Config: validConfig(), Results: sampleResults(), Elapsed: time.Second}
}

func TestTransition_StartAnalysisValid(t *testing.T) {
	next := Transition(Configuring{Config: validConfig()}, StartAnalysis{})

	a, ok := next.(Analyzing)
	require.True(t, ok, "got %T", next)
	assert.Zero(t, a.FilesProcessed)
	assert.Zero(t, a.TotalFiles)
	assert.Equal(t, "zebra", a.Config.Query)
}

func TestTransition_StartAnalysisInvalid(t *testing.T) {
	cfg := validConfig()
	cfg.Query = "  "
	start := Configuring{Config: cfg}

	next := Transition(start, StartAnalysis{Problems: []string{`search path "/nope" does not exist`}})

	c, ok := next.(Configuring)
	require.True(t, ok, "got %T", next)
	assert.Equal(t, cfg, c.Config)
	assert.Equal(t, []string{"query must not be empty", `search path "/nope" does not exist`}, c.Errors)
}

func TestTransition_PathProblemAloneRejects(t *testing.T) {
	next := Transition(Configuring{Config: validConfig()}, StartAnalysis{Problems: []string{"missing"}})
	assert.IsType(t, Configuring{}, next)
}

func TestTransition_Editing(t *testing.T) {
	preview := &walker.Result{Files: []string{"/a.txt"}}
	s := State(Configuring{Config: validConfig(), Preview: preview})

	s = Transition(s, UpdateQuery{Text: "giraffe"})
	c := s.(Configuring)
	assert.Equal(t, "giraffe", c.Config.Query)
	assert.NotNil(t, c.Preview, "query edits keep the preview")

	s = Transition(s, UpdatePath{Text: "/elsewhere"})
	c = s.(Configuring)
	assert.Equal(t, "/elsewhere", c.Config.SearchPath)
	assert.Nil(t, c.Preview)

	s = Transition(s, FilesDiscovered{Result: walker.Result{Files: []string{"/elsewhere/x.md"}, MaxDepth: 1}})
	c = s.(Configuring)
	require.NotNil(t, c.Preview)
	assert.Equal(t, []string{"/elsewhere/x.md"}, c.Preview.Files)

	s = Transition(s, UpdateExtensions{Extensions: []string{"MD, txt"}})
	c = s.(Configuring)
	assert.Equal(t, []string{".md", ".txt"}, c.Config.Extensions)
	assert.Nil(t, c.Preview)
}

func TestTransition_AnalyzingProgressAndCompletion(t *testing.T) {
	s := State(Analyzing{Config: validConfig()})

	s = Transition(s, AnalysisProgress{Done: 3, Total: 10})
	a := s.(Analyzing)
	assert.Equal(t, 3, a.FilesProcessed)
	assert.Equal(t, 10, a.TotalFiles)

	results := sampleResults()
	s = Transition(s, AnalysisComplete{Results: results, Elapsed: 2 * time.Second})
	v, ok := s.(ViewingResults)
	require.True(t, ok, "got %T", s)
	assert.Equal(t, results, v.Results)
	assert.Zero(t, v.Selected)
	assert.Equal(t, 2*time.Second, v.Elapsed)
	assert.Equal(t, SortByScore, v.Sort)
}

func TestTransition_AnalysisErrorKeepsConfig(t *testing.T) {
	cfg := validConfig()
	next := Transition(Analyzing{Config: cfg, FilesProcessed: 2, TotalFiles: 4}, AnalysisError{Reason: "boom"})

	e, ok := next.(Error)
	require.True(t, ok, "got %T", next)
	assert.Equal(t, "boom", e.Message)
	assert.Equal(t, Configuring{Config: cfg}, e.Previous)

	back := Transition(e, Acknowledge{})
	assert.Equal(t, Configuring{Config: cfg}, back)
}

func TestTransition_AcknowledgeWithoutPrevious(t *testing.T) {
	next := Transition(Error{Message: "x"}, Acknowledge{})
	assert.Equal(t, Configuring{Config: config.Defaults()}, next)
}

func TestTransition_ErrorIgnoresOtherEvents(t *testing.T) {
	e := Error{Message: "x"}
	assert.Equal(t, e, Transition(e, GoBack{}))
	assert.Equal(t, e, Transition(e, Reanalyze{}))
}

func TestTransition_AnalyzingReanalyzeAndBack(t *testing.T) {
	cfg := validConfig()
	s := Analyzing{Config: cfg, FilesProcessed: 5, TotalFiles: 9}

	assert.Equal(t, Analyzing{Config: cfg}, Transition(s, Reanalyze{}))
	assert.Equal(t, Configuring{Config: cfg}, Transition(s, GoBack{}))
}

func TestTransition_SelectFile(t *testing.T) {
	v := viewing()

	next := Transition(v, SelectFile{Index: 2}).(ViewingResults)
	assert.Equal(t, 2, next.Selected)

	assert.Equal(t, 2, Transition(next, SelectFile{Index: 3}).(ViewingResults).Selected)
	assert.Equal(t, 2, Transition(next, SelectFile{Index: -1}).(ViewingResults).Selected)
}

func TestTransition_ChangeSortCycles(t *testing.T) {
	v := viewing()
	v.Selected = 2

	byName := Transition(v, ChangeSort{}).(ViewingResults)
	assert.Equal(t, SortByName, byName.Sort)
	assert.Zero(t, byName.Selected)
	assert.Equal(t, "/docs/c/alpha.txt", byName.Results[0].Path)
	assert.Equal(t, "/docs/b/zoo.txt", v.Results[0].Path, "sorting must not touch the previous state")

	byPath := Transition(byName, ChangeSort{}).(ViewingResults)
	assert.Equal(t, SortByPath, byPath.Sort)
	assert.Equal(t, "/docs/a/yard.md", byPath.Results[0].Path)

	byScore := Transition(byPath, ChangeSort{}).(ViewingResults)
	assert.Equal(t, SortByScore, byScore.Sort)
	assert.Equal(t, sampleResults(), byScore.Results)
}

func TestTransition_OpenDetailAndBack(t *testing.T) {
	v := viewing()
	v.Selected = 1

	next := Transition(v, OpenSelectedFile{})
	d, ok := next.(ViewingFileDetail)
	require.True(t, ok, "got %T", next)
	assert.Equal(t, v.Results[1], d.File)
	assert.Zero(t, d.Scroll)
	assert.Equal(t, v, d.Previous)

	assert.Equal(t, v, Transition(d, GoBack{}))
}

func TestTransition_OpenWithNoResultsIsNoop(t *testing.T) {
	v := ViewingResults{Config: validConfig()}
	assert.Equal(t, v, Transition(v, OpenSelectedFile{}))
}

func TestTransition_DetailScrollIsBounded(t *testing.T) {
	d := State(ViewingFileDetail{File: sampleResults()[0], Previous: viewing()})

	d = Transition(d, ScrollUp{})
	assert.Zero(t, d.(ViewingFileDetail).Scroll)

	for range 10 {
		d = Transition(d, ScrollDown{})
	}
	assert.Equal(t, 2, d.(ViewingFileDetail).Scroll)

	d = Transition(d, ScrollUp{})
	assert.Equal(t, 1, d.(ViewingFileDetail).Scroll)

	empty := ViewingFileDetail{Previous: viewing()}
	assert.Zero(t, Transition(empty, ScrollDown{}).(ViewingFileDetail).Scroll)
}

func TestTransition_ReanalyzeFromResultsAndDetail(t *testing.T) {
	v := viewing()
	assert.Equal(t, Analyzing{Config: v.Config}, Transition(v, Reanalyze{}))

	d := ViewingFileDetail{File: v.Results[0], Previous: v}
	assert.Equal(t, Analyzing{Config: v.Config}, Transition(d, Reanalyze{}))
}

func TestTransition_ResultsGoBack(t *testing.T) {
	v := viewing()
	assert.Equal(t, Configuring{Config: v.Config}, Transition(v, GoBack{}))
}

func TestTransition_QuitFromAnywhere(t *testing.T) {
	states := []State{
		Configuring{Config: validConfig()},
		Analyzing{Config: validConfig()},
		viewing(),
		ViewingFileDetail{Previous: viewing()},
		Error{Message: "x"},
	}
	for _, s := range states {
		assert.Equal(t, Exiting{}, Transition(s, Quit{}), Name(s))
	}
}

func TestTransition_ExitingAbsorbsEverything(t *testing.T) {
	events := []Event{
		UpdateQuery{Text: "q"}, UpdatePath{Text: "p"}, UpdateExtensions{}, FilesDiscovered{},
		StartAnalysis{}, Reanalyze{}, AnalysisProgress{Done: 1, Total: 2}, AnalysisComplete{},
		AnalysisError{Reason: "r"}, SelectFile{Index: 1}, ChangeSort{}, OpenSelectedFile{},
		ScrollUp{}, ScrollDown{}, GoBack{}, Acknowledge{}, Quit{},
	}
	for _, e := range events {
		assert.Equal(t, Exiting{}, Transition(Exiting{}, e))
	}
}

func TestTransition_UnlistedPairsAreNoops(t *testing.T) {
	c := Configuring{Config: validConfig()}
	assert.Equal(t, c, Transition(c, AnalysisComplete{Results: sampleResults()}))
	assert.Equal(t, c, Transition(c, GoBack{}))

	a := Analyzing{Config: validConfig()}
	assert.Equal(t, a, Transition(a, SelectFile{Index: 0}))
	assert.Equal(t, a, Transition(a, StartAnalysis{}))

	v := viewing()
	assert.Equal(t, v, Transition(v, AnalysisComplete{}))
	assert.Equal(t, v, Transition(v, ScrollDown{}))
}

func TestTransition_SupersededCompletionAfterReanalyzeRestartsCounters(t *testing.T) {
	s := State(Analyzing{Config: validConfig(), FilesProcessed: 4, TotalFiles: 8})
	s = Transition(s, Reanalyze{})
	assert.Equal(t, Analyzing{Config: validConfig()}, s)
}
