package analysis

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"docsim/internal/chunker"
	"docsim/internal/config"
	"docsim/internal/scorer"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrBinaryFile marks a file that looks like binary content.
	ErrBinaryFile = errors.New("file appears to be binary")
	// ErrInvalidEncoding marks a file that is not valid UTF-8.
	ErrInvalidEncoding = errors.New("file is not valid UTF-8")
)

const (
	// sniffLen is how much of a file is inspected to classify it.
	sniffLen = 1024
	// maxControlRatio is the share of control bytes above which a file is binary.
	maxControlRatio = 0.3
	// minChunkBatch is the smallest number of chunks scored by one worker.
	minChunkBatch = 50
)

var binaryExtensions = map[string]bool{
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".bin": true, ".obj": true, ".o": true,
	".zip": true, ".tar": true, ".gz": true, ".7z": true, ".rar": true, ".bz2": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".ico": true, ".webp": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mkv": true, ".mov": true, ".flac": true, ".wav": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
}

// fileJob holds everything shared by the per-file work of one Analyse call.
// It is read-only once built.
type fileJob struct {
	cfg     config.Config
	window  chunker.Window
	scorer  *scorer.Scorer
	workers int
	cache   *textCache

	// batchWorkers bounds the chunk batches of one file in flight.
	batchWorkers int
}

// score returns nil, nil when the file is readable but nothing in it reaches
// the threshold.
func (j *fileJob) score(ctx context.Context, path string) (*FileScore, error) {
	start := time.Now()

	text, err := readText(path, j.cache)
	if err != nil {
		return nil, err
	}

	chunks := chunker.Split(text, j.window)
	scored, err := j.scoreChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	kept := scored[:0]
	for _, sc := range scored {
		if sc.Score >= j.cfg.Threshold && sc.MatchedIndexes != nil {
			kept = append(kept, sc)
		}
	}
	if len(kept) == 0 {
		return nil, nil
	}

	// Stable: equal scores keep emission order, so the earlier offset wins.
	slices.SortStableFunc(kept, func(a, b ScoredChunk) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(kept) > j.cfg.TopN {
		kept = kept[:j.cfg.TopN]
	}

	return &FileScore{
		Path:      path,
		Score:     kept[0].Score,
		TopChunks: slices.Clip(kept),
		Elapsed:   time.Since(start),
	}, nil
}

// scoreChunks scores chunks in emission order, splitting large files into
// batches of at least minChunkBatch that are scored in parallel.
func (j *fileJob) scoreChunks(ctx context.Context, chunks []chunker.Chunk) ([]ScoredChunk, error) {
	out := make([]ScoredChunk, len(chunks))
	scoreRange := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			s, idx := j.scorer.Score(chunks[i].Text)
			out[i] = ScoredChunk{Chunk: chunks[i], Score: s, MatchedIndexes: idx}
		}
	}

	if len(chunks) < 2*minChunkBatch || j.batchWorkers < 2 {
		scoreRange(0, len(chunks))
		return out, nil
	}

	batch := max(minChunkBatch, (len(chunks)+j.batchWorkers-1)/j.batchWorkers)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.batchWorkers)
	for lo := 0; lo < len(chunks); lo += batch {
		hi := min(lo+batch, len(chunks))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scoreRange(lo, hi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// readText loads a file as UTF-8 text, rejecting binary content up front.
func readText(path string, cache *textCache) (string, error) {
	if binaryExtensions[strings.ToLower(filepath.Ext(path))] {
		return "", ErrBinaryFile
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if text, ok := cache.get(path, info); ok {
		return text, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	head = head[:n]
	if looksBinary(head) {
		return "", ErrBinaryFile
	}

	rest, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	data := append(head, rest...)
	if !utf8.Valid(data) {
		return "", ErrInvalidEncoding
	}

	text := string(data)
	cache.add(path, info, text)
	return text, nil
}

// looksBinary reports whether a leading sample of a file contains NUL bytes
// or mostly control characters.
func looksBinary(sample []byte) bool {
	if len(sample) == 0 {
		return false
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}
	control := 0
	for _, b := range sample {
		if b < 32 && b != '\n' && b != '\r' && b != '\t' {
			control++
		}
	}
	return float64(control)/float64(len(sample)) > maxControlRatio
}

// reason is the short human-readable cause shown for a skipped file.
func reason(err error) string {
	switch {
	case errors.Is(err, ErrBinaryFile):
		return "binary content"
	case errors.Is(err, ErrInvalidEncoding):
		return "invalid UTF-8"
	case errors.Is(err, os.ErrPermission):
		return "permission denied"
	case errors.Is(err, os.ErrNotExist):
		return "file not found"
	}
	return err.Error()
}
