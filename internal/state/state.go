// Package state holds the application's screens as a closed set of states and
// the pure function that moves between them.
//
// Nothing in this package performs I/O or blocks. Work such as discovery and
// analysis happens elsewhere and arrives here as precomputed events.
package state

import (
	"time"

	"docsim/internal/analysis"
	"docsim/internal/config"
	"docsim/internal/walker"
)

// State is one of Configuring, Analyzing, ViewingResults, ViewingFileDetail,
// Error or Exiting.
type State interface {
	isState()
}

// Configuring is the editing screen.
type Configuring struct {
	Config config.Config
	// Errors are the validation messages of the last rejected StartAnalysis.
	Errors []string
	// Preview is the latest discovery result for the current path and
	// extensions, nil until one arrives.
	Preview *walker.Result
}

// Analyzing is shown while a background analysis runs.
type Analyzing struct {
	Config         config.Config
	FilesProcessed int
	TotalFiles     int
}

// ViewingResults lists ranked files.
type ViewingResults struct {
	Config   config.Config
	Results  []analysis.FileScore
	Selected int
	Sort     SortMode
	Elapsed  time.Duration
}

// ViewingFileDetail shows the top chunks of one file. Scroll is the index of
// the chunk at the top of the view.
type ViewingFileDetail struct {
	File     analysis.FileScore
	Scroll   int
	Previous ViewingResults
}

// Error reports a failure. Previous is where Acknowledge returns to.
type Error struct {
	Message  string
	Previous State
}

// Exiting is terminal.
type Exiting struct{}

func (Configuring) isState()       {}
func (Analyzing) isState()         {}
func (ViewingResults) isState()    {}
func (ViewingFileDetail) isState() {}
func (Error) isState()             {}
func (Exiting) isState()           {}

// Initial is the state a session starts in.
func Initial(cfg config.Config) State {
	return Configuring{Config: cfg}
}

// ConfigOf returns the configuration a state was built around, falling back
// to the defaults for states that carry none.
func ConfigOf(s State) config.Config {
	switch s := s.(type) {
	case Configuring:
		return s.Config
	case Analyzing:
		return s.Config
	case ViewingResults:
		return s.Config
	case ViewingFileDetail:
		return s.Previous.Config
	case Error:
		if s.Previous != nil {
			return ConfigOf(s.Previous)
		}
	case Exiting:
	}
	return config.Defaults()
}

// Name is a short label for logs and the status bar.
func Name(s State) string {
	switch s.(type) {
	case Configuring:
		return "configuring"
	case Analyzing:
		return "analyzing"
	case ViewingResults:
		return "results"
	case ViewingFileDetail:
		return "detail"
	case Error:
		return "error"
	case Exiting:
		return "exiting"
	}
	return "unknown"
}
