package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMachine_Apply(t *testing.T) {
	m := NewMachine(Initial(validConfig()))
	assert.IsType(t, Configuring{}, m.Current())
	assert.False(t, m.Done())

	next := m.Apply(StartAnalysis{})
	assert.IsType(t, Analyzing{}, next)
	assert.Equal(t, next, m.Current())

	m.Apply(Quit{})
	assert.True(t, m.Done())
	m.Apply(Reanalyze{})
	assert.True(t, m.Done())
}

func TestDispatches(t *testing.T) {
	fresh := Analyzing{Config: validConfig()}

	editing := Configuring{Config: validConfig()}

	assert.True(t, Dispatches(editing, StartAnalysis{}, fresh))
	assert.True(t, Dispatches(fresh, Reanalyze{}, fresh))
	assert.True(t, Dispatches(ViewingResults{}, Reanalyze{}, fresh))
	assert.False(t, Dispatches(fresh, AnalysisProgress{}, fresh))
	assert.False(t, Dispatches(editing, StartAnalysis{}, Configuring{}))
	assert.False(t, Dispatches(fresh, Reanalyze{}, Analyzing{FilesProcessed: 1, TotalFiles: 2}))
}

func TestDispatches_StartAnalysisWhileAnalyzingIsIgnored(t *testing.T) {
	m := NewMachine(Analyzing{Config: validConfig()})
	prev := m.Current()
	next := m.Apply(StartAnalysis{})

	assert.Equal(t, prev, next)
	assert.False(t, Dispatches(prev, StartAnalysis{}, next))
}

func TestConfigOf(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, cfg, ConfigOf(Configuring{Config: cfg}))
	assert.Equal(t, cfg, ConfigOf(ViewingFileDetail{Previous: ViewingResults{Config: cfg}}))
	assert.Equal(t, cfg, ConfigOf(Error{Previous: Analyzing{Config: cfg}}))
	assert.Equal(t, Initial(cfg), Configuring{Config: cfg})
}

func TestSortModeString(t *testing.T) {
	assert.Equal(t, "score", SortByScore.String())
	assert.Equal(t, "name", SortByName.String())
	assert.Equal(t, "path", SortByPath.String())
	assert.Equal(t, SortByScore, SortByPath.Next())
}
