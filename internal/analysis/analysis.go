package analysis

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"
	"unicode/utf8"

	"docsim/internal/chunker"
	"docsim/internal/config"
	"docsim/internal/logger"
	"docsim/internal/scorer"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoFiles is returned when Analyse is called with an empty file list.
	ErrNoFiles = errors.New("no files to analyse")
	// ErrAllFilesFailed is returned when not a single file could be read.
	ErrAllFilesFailed = errors.New("every file failed to analyse")
)

// minFilesForFanOut is the smallest file count worth spreading over workers.
const minFilesForFanOut = 2

// ScoredChunk is a chunk with its normalized score and the byte offsets (into
// Chunk.Text) of the characters that matched the query.
type ScoredChunk struct {
	Chunk          chunker.Chunk `json:"chunk" yaml:"chunk"`
	Score          float64       `json:"score" yaml:"score"`
	MatchedIndexes []int         `json:"matched_indexes,omitempty" yaml:"matched_indexes,omitempty"`
}

// FileScore is the ranked evidence for one file. Score is the score of
// TopChunks[0].
type FileScore struct {
	Path      string        `json:"path" yaml:"path"`
	Score     float64       `json:"score" yaml:"score"`
	TopChunks []ScoredChunk `json:"top_chunks" yaml:"top_chunks"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Skip records a file left out of the results and why.
type Skip struct {
	Path   string
	Reason string
	Err    error
}

// Options configure an Engine.
type Options struct {
	Logger logger.Logger
	// CacheSize bounds the decoded-text cache; 0 uses the default, negative disables it.
	CacheSize int
}

// Engine scores files against a query. It is safe for concurrent use; each
// Analyse call works on its own copy of the configuration.
type Engine struct {
	log   logger.Logger
	cache *textCache
}

// New creates an Engine.
func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Engine{
		log:   log,
		cache: newTextCache(opts.CacheSize),
	}
}

// Hooks are the callbacks of a single Analyse call.
type Hooks struct {
	Progress func(done, total int)
	Skip     func(Skip)
}

// CallOption customizes a single Analyse call.
type CallOption func(*Hooks)

// WithProgress registers fn to be called after every file. Calls are
// serialized and done increases by one each time.
func WithProgress(fn func(done, total int)) CallOption {
	return func(h *Hooks) { h.Progress = fn }
}

// WithSkips registers fn to receive every skipped or failed file.
func WithSkips(fn func(Skip)) CallOption {
	return func(h *Hooks) { h.Skip = fn }
}

// ApplyOptions collects opts into Hooks.
func ApplyOptions(opts ...CallOption) Hooks {
	var h Hooks
	for _, opt := range opts {
		opt(&h)
	}
	return h
}

type fileOutcome struct {
	score *FileScore
	err   error
}

// Analyse scores every file against cfg.Query and returns the files whose
// best chunk reaches cfg.Threshold, best first with ties broken by path.
// Binary, badly encoded and unreadable files are skipped and logged; the
// call only fails when files is empty, when no file at all could be read, or
// when ctx is cancelled (checked between files).
func (e *Engine) Analyse(ctx context.Context, files []string, cfg config.Config, opts ...CallOption) ([]FileScore, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	hooks := ApplyOptions(opts...)

	cfg = cfg.Clone()
	job := &fileJob{
		cfg:     cfg,
		window:  chunker.Resolve(utf8.RuneCountInString(cfg.Query), cfg.WindowSize, cfg.MaxWindowSize, cfg.Overlap),
		scorer:  scorer.New(cfg.Query),
		workers: workerCount(cfg.Threads),
		cache:   e.cache,
	}

	limit := job.workers
	if len(files) < minFilesForFanOut {
		limit = 1
	}
	job.batchWorkers = batchWorkers(job.workers, min(limit, len(files)))

	var (
		progressMu sync.Mutex
		done       int
	)
	report := func() {
		if hooks.Progress == nil {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		done++
		hooks.Progress(done, len(files))
	}

	outcomes := make([]fileOutcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fs, err := job.score(gctx, path)
			outcomes[i] = fileOutcome{score: fs, err: err}
			report()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		results  []FileScore
		readable int
		firstErr error
	)
	for i, out := range outcomes {
		if out.err != nil {
			if firstErr == nil {
				firstErr = out.err
			}
			skip := Skip{Path: files[i], Reason: reason(out.err), Err: out.err}
			e.log.Warn("skipping file", "path", skip.Path, "reason", skip.Reason)
			if hooks.Skip != nil {
				hooks.Skip(skip)
			}
			continue
		}
		readable++
		if out.score != nil {
			results = append(results, *out.score)
		}
	}

	if readable == 0 {
		return nil, fmt.Errorf("%w (%d files): %w", ErrAllFilesFailed, len(files), firstErr)
	}

	SortByScore(results)
	e.log.Debug("analysis finished", "files", len(files), "matched", len(results), "skipped", len(files)-readable)
	return results, nil
}

// SortByScore orders results by score descending, ties by path ascending.
func SortByScore(results []FileScore) {
	slices.SortStableFunc(results, func(a, b FileScore) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Path, b.Path)
	})
}

// batchWorkers splits the worker budget between the files scored at once, so
// files times chunk batches never exceeds workers.
func batchWorkers(workers, activeFiles int) int {
	if activeFiles < 1 {
		activeFiles = 1
	}
	return max(1, workers/activeFiles)
}

func workerCount(threads int) int {
	if threads > 0 {
		return threads
	}
	return runtime.NumCPU()
}
