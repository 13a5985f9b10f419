package tui

import (
	"docsim/internal/state"
)

// pageSize is how far PgUp/PgDn move the result cursor.
const pageSize = 10

// eventsForKey maps a key press to the events it means in s. Keys that edit
// the configuration form are not handled here.
func eventsForKey(s state.State, key string) []state.Event {
	if key == "ctrl+c" {
		return []state.Event{state.Quit{}}
	}

	switch s := s.(type) {
	case state.Configuring:
		if key == "enter" {
			return []state.Event{state.StartAnalysis{}}
		}

	case state.Analyzing:
		switch key {
		case "esc":
			return []state.Event{state.GoBack{}}
		case "ctrl+r":
			return []state.Event{state.Reanalyze{}}
		case "q":
			return []state.Event{state.Quit{}}
		}

	case state.ViewingResults:
		last := len(s.Results) - 1
		switch key {
		case "up", "k":
			return selectIfMoved(s.Selected, s.Selected-1)
		case "down", "j":
			return selectIfMoved(s.Selected, min(s.Selected+1, last))
		case "home", "g":
			return selectIfMoved(s.Selected, 0)
		case "end", "G":
			return selectIfMoved(s.Selected, last)
		case "pgup":
			return selectIfMoved(s.Selected, max(s.Selected-pageSize, 0))
		case "pgdown":
			return selectIfMoved(s.Selected, min(s.Selected+pageSize, last))
		case "enter":
			return []state.Event{state.OpenSelectedFile{}}
		case "s":
			return []state.Event{state.ChangeSort{}}
		case "ctrl+r":
			return []state.Event{state.Reanalyze{}}
		case "esc":
			return []state.Event{state.GoBack{}}
		case "q":
			return []state.Event{state.Quit{}}
		}

	case state.ViewingFileDetail:
		n := len(s.File.TopChunks)
		switch key {
		case "up", "k":
			return []state.Event{state.ScrollUp{}}
		case "down", "j":
			return []state.Event{state.ScrollDown{}}
		case "home", "g":
			return repeat(state.ScrollUp{}, s.Scroll)
		case "end", "G":
			return repeat(state.ScrollDown{}, n-1-s.Scroll)
		case "pgup":
			return repeat(state.ScrollUp{}, min(pageSize, s.Scroll))
		case "pgdown":
			return repeat(state.ScrollDown{}, min(pageSize, n-1-s.Scroll))
		case "ctrl+r":
			return []state.Event{state.Reanalyze{}}
		case "esc", "backspace":
			return []state.Event{state.GoBack{}}
		case "q":
			return []state.Event{state.Quit{}}
		}

	case state.Error:
		switch key {
		case "esc", "enter":
			return []state.Event{state.Acknowledge{}}
		case "q":
			return []state.Event{state.Quit{}}
		}

	case state.Exiting:
	}
	return nil
}

func selectIfMoved(from, to int) []state.Event {
	if to < 0 || to == from {
		return nil
	}
	return []state.Event{state.SelectFile{Index: to}}
}

func repeat(e state.Event, n int) []state.Event {
	if n <= 0 {
		return nil
	}
	out := make([]state.Event, n)
	for i := range out {
		out[i] = e
	}
	return out
}
