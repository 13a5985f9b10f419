package state

import (
	"time"

	"docsim/internal/analysis"
	"docsim/internal/walker"
)

// Event is anything that can move the machine.
type Event interface {
	isEvent()
}

// UpdateQuery replaces the query being edited.
type UpdateQuery struct{ Text string }

// UpdatePath replaces the search path being edited.
type UpdatePath struct{ Text string }

// UpdateExtensions replaces the extension allowlist being edited.
type UpdateExtensions struct{ Extensions []string }

// FilesDiscovered carries a preview discovery of the configured path.
type FilesDiscovered struct{ Result walker.Result }

// StartAnalysis asks to analyse the edited configuration. Problems holds
// checks that need the filesystem (such as the path existing), done by the
// sender so the transition stays pure.
type StartAnalysis struct{ Problems []string }

// Reanalyze reruns the current configuration.
type Reanalyze struct{}

// AnalysisProgress reports how many files have been scored.
type AnalysisProgress struct{ Done, Total int }

// AnalysisComplete carries the ranked results of a finished analysis.
type AnalysisComplete struct {
	Results []analysis.FileScore
	Elapsed time.Duration
}

// AnalysisError reports a failed analysis.
type AnalysisError struct{ Reason string }

// SelectFile moves the result cursor.
type SelectFile struct{ Index int }

// ChangeSort cycles the result ordering.
type ChangeSort struct{}

// OpenSelectedFile shows the detail of the selected result.
type OpenSelectedFile struct{}

// ScrollUp moves the detail view one chunk up.
type ScrollUp struct{}

// ScrollDown moves the detail view one chunk down.
type ScrollDown struct{}

// GoBack returns to the previous screen.
type GoBack struct{}

// Acknowledge dismisses an error.
type Acknowledge struct{}

// Quit ends the session.
type Quit struct{}

func (UpdateQuery) isEvent()      {}
func (UpdatePath) isEvent()       {}
func (UpdateExtensions) isEvent() {}
func (FilesDiscovered) isEvent()  {}
func (StartAnalysis) isEvent()    {}
func (Reanalyze) isEvent()        {}
func (AnalysisProgress) isEvent() {}
func (AnalysisComplete) isEvent() {}
func (AnalysisError) isEvent()    {}
func (SelectFile) isEvent()       {}
func (ChangeSort) isEvent()       {}
func (OpenSelectedFile) isEvent() {}
func (ScrollUp) isEvent()         {}
func (ScrollDown) isEvent()       {}
func (GoBack) isEvent()           {}
func (Acknowledge) isEvent()      {}
func (Quit) isEvent()             {}
