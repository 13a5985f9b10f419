package chunker

import (
	"iter"
	"slices"
	"unicode/utf8"
)

// Chunk is a contiguous span of a file's text. Start and End are byte
// offsets into the file, End exclusive.
type Chunk struct {
	Text  string `json:"text" yaml:"text"`
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
}

// Window describes the sliding window, both sizes counted in characters.
type Window struct {
	Size    int
	Overlap int
}

// normalized clamps the window so the stride is always at least one character.
func (w Window) normalized() Window {
	if w.Size < 1 {
		w.Size = 1
	}
	if w.Overlap < 0 {
		w.Overlap = 0
	}
	if w.Overlap >= w.Size {
		w.Overlap = w.Size - 1
	}
	return w
}

// Stride is the distance in characters between consecutive chunk starts.
func (w Window) Stride() int {
	w = w.normalized()
	return w.Size - w.Overlap
}

// Resolve picks the effective window for a query of queryLen characters.
// The window grows to at least three times the query so a match always fits
// with some context, but never beyond maxSize (maxSize <= 0 means no cap).
func Resolve(queryLen, size, maxSize, overlap int) Window {
	ws := max(size, 3*queryLen)
	if maxSize > 0 {
		ws = min(ws, maxSize)
	}
	return Window{Size: ws, Overlap: overlap}.normalized()
}

// Windows lazily splits text into overlapping chunks. The sequence can be
// ranged over any number of times and always yields the same chunks. Text
// shorter than the window produces a single chunk; the last chunk is
// truncated at the end of the text. Chunk boundaries always fall on rune
// boundaries.
func Windows(text string, w Window) iter.Seq[Chunk] {
	w = w.normalized()
	stride := w.Size - w.Overlap
	return func(yield func(Chunk) bool) {
		start := 0
		for start < len(text) {
			end := advance(text, start, w.Size)
			if !yield(Chunk{Text: text[start:end], Start: start, End: end}) {
				return
			}
			if end == len(text) {
				return
			}
			start = advance(text, start, stride)
		}
	}
}

// Split collects Windows into a slice.
func Split(text string, w Window) []Chunk {
	return slices.Collect(Windows(text, w))
}

// advance returns the byte offset n runes after from, capped at len(text).
func advance(text string, from, n int) int {
	i := from
	for ; n > 0 && i < len(text); n-- {
		if text[i] < utf8.RuneSelf {
			i++
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return i
}
