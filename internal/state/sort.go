package state

import (
	"cmp"
	"path/filepath"
	"slices"

	"docsim/internal/analysis"
)

// SortMode orders the result list.
type SortMode int

const (
	SortByScore SortMode = iota
	SortByName
	SortByPath
)

func (m SortMode) String() string {
	switch m {
	case SortByName:
		return "name"
	case SortByPath:
		return "path"
	}
	return "score"
}

// Next cycles score → name → path → score.
func (m SortMode) Next() SortMode {
	switch m {
	case SortByScore:
		return SortByName
	case SortByName:
		return SortByPath
	}
	return SortByScore
}

// Sorted returns a copy of results in the given order. Name and path orders
// break ties by score, best first.
func Sorted(results []analysis.FileScore, mode SortMode) []analysis.FileScore {
	out := slices.Clone(results)
	switch mode {
	case SortByName:
		slices.SortStableFunc(out, func(a, b analysis.FileScore) int {
			return cmp.Or(
				cmp.Compare(filepath.Base(a.Path), filepath.Base(b.Path)),
				cmp.Compare(a.Path, b.Path),
				cmp.Compare(b.Score, a.Score),
			)
		})
	case SortByPath:
		slices.SortStableFunc(out, func(a, b analysis.FileScore) int {
			return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(b.Score, a.Score))
		})
	default:
		analysis.SortByScore(out)
	}
	return out
}
