package state

import (
	"slices"

	"docsim/internal/config"
)

// Transition returns the state that follows s on e. Pairs without a listed
// transition return s unchanged.
func Transition(s State, e Event) State {
	if _, ok := s.(Exiting); ok {
		return s
	}
	if _, ok := e.(Quit); ok {
		return Exiting{}
	}

	switch s := s.(type) {
	case Configuring:
		return configuring(s, e)
	case Analyzing:
		return analyzing(s, e)
	case ViewingResults:
		return viewingResults(s, e)
	case ViewingFileDetail:
		return viewingFileDetail(s, e)
	case Error:
		return failed(s, e)
	}
	return s
}

func configuring(s Configuring, e Event) State {
	switch e := e.(type) {
	case UpdateQuery:
		s.Config.Query = e.Text
		return s
	case UpdatePath:
		s.Config.SearchPath = e.Text
		s.Preview = nil
		return s
	case UpdateExtensions:
		s.Config.Extensions = config.NormalizeExtensions(e.Extensions)
		s.Preview = nil
		return s
	case FilesDiscovered:
		res := e.Result
		res.Files = slices.Clone(res.Files)
		s.Preview = &res
		return s
	case StartAnalysis:
		problems := append(s.Config.Validate(), e.Problems...)
		if len(problems) > 0 {
			s.Errors = problems
			return s
		}
		return Analyzing{Config: s.Config.Clone()}
	}
	return s
}

func analyzing(s Analyzing, e Event) State {
	switch e := e.(type) {
	case AnalysisProgress:
		s.FilesProcessed = e.Done
		s.TotalFiles = e.Total
		return s
	case AnalysisComplete:
		return ViewingResults{
			Config:  s.Config,
			Results: e.Results,
			Elapsed: e.Elapsed,
		}
	case AnalysisError:
		return Error{
			Message:  e.Reason,
			Previous: Configuring{Config: s.Config},
		}
	case Reanalyze:
		return Analyzing{Config: s.Config}
	case GoBack:
		return Configuring{Config: s.Config}
	}
	return s
}

func viewingResults(s ViewingResults, e Event) State {
	switch e := e.(type) {
	case SelectFile:
		if e.Index >= 0 && e.Index < len(s.Results) {
			s.Selected = e.Index
		}
		return s
	case ChangeSort:
		s.Sort = s.Sort.Next()
		s.Results = Sorted(s.Results, s.Sort)
		s.Selected = 0
		return s
	case OpenSelectedFile:
		if s.Selected < 0 || s.Selected >= len(s.Results) {
			return s
		}
		return ViewingFileDetail{File: s.Results[s.Selected], Previous: s}
	case Reanalyze:
		return Analyzing{Config: s.Config.Clone()}
	case GoBack:
		return Configuring{Config: s.Config}
	}
	return s
}

func viewingFileDetail(s ViewingFileDetail, e Event) State {
	switch e.(type) {
	case ScrollUp:
		s.Scroll = max(s.Scroll-1, 0)
		return s
	case ScrollDown:
		s.Scroll = max(min(s.Scroll+1, len(s.File.TopChunks)-1), 0)
		return s
	case GoBack:
		return s.Previous
	case Reanalyze:
		return Analyzing{Config: s.Previous.Config.Clone()}
	}
	return s
}

func failed(s Error, e Event) State {
	if _, ok := e.(Acknowledge); !ok {
		return s
	}
	if s.Previous == nil {
		return Configuring{Config: config.Defaults()}
	}
	return s.Previous
}
