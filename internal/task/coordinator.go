// Package task runs discovery and analysis off the UI goroutine and hands the
// outcome back as state events.
//
// Every dispatched task is tagged with a generation number. Starting or
// cancelling bumps the generation, and Poll drops anything produced under an
// older one, so a superseded task can never touch the state it no longer owns.
package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"docsim/internal/analysis"
	"docsim/internal/config"
	"docsim/internal/logger"
	"docsim/internal/state"
	"docsim/internal/walker"

	"golang.org/x/time/rate"
)

// DiscoverFunc lists candidate files, see walker.Discover.
type DiscoverFunc func(root string, exts []string, maxDepth int) (walker.Result, error)

// AnalyseFunc scores files, see analysis.Engine.Analyse.
type AnalyseFunc func(ctx context.Context, files []string, cfg config.Config, opts ...analysis.CallOption) ([]analysis.FileScore, error)

const (
	defaultBuffer       = 64
	defaultProgressRate = rate.Limit(20)
)

// Options configure a Coordinator. Discover and Analyse are required.
type Options struct {
	Discover DiscoverFunc
	Analyse  AnalyseFunc
	Logger   logger.Logger
	// ProgressRate caps progress events per second; 0 uses 20.
	ProgressRate rate.Limit
	// Buffer is the capacity of the event queue; 0 uses 64.
	Buffer int
}

type kind int

const (
	kindAnalysis kind = iota
	kindPreview
)

type message struct {
	kind  kind
	gen   uint64
	event state.Event
}

// Coordinator owns at most one analysis and one preview at a time. Start,
// Preview, Cancel and Close may be called from any goroutine; Poll and Skips
// are meant for the single consumer that feeds the state machine.
type Coordinator struct {
	discover     DiscoverFunc
	analyse      AnalyseFunc
	log          logger.Logger
	progressRate rate.Limit

	msgs   chan message
	ctx    context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc

	previewGen    uint64
	previewCancel context.CancelFunc

	skips []analysis.Skip
}

// New creates a Coordinator.
func New(opts Options) *Coordinator {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	limit := opts.ProgressRate
	if limit <= 0 {
		limit = defaultProgressRate
	}
	buf := opts.Buffer
	if buf <= 0 {
		buf = defaultBuffer
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Coordinator{
		discover:     opts.Discover,
		analyse:      opts.Analyse,
		log:          log,
		progressRate: limit,
		msgs:         make(chan message, buf),
		ctx:          ctx,
		stop:         stop,
	}
}

// Start supersedes any running analysis and launches a new one for cfg.
// It returns the generation of the new task.
func (c *Coordinator) Start(cfg config.Config) uint64 {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancel = cancel
	c.skips = nil
	c.mu.Unlock()

	cfg = cfg.Clone()
	c.log.Debug("analysis dispatched", "generation", gen, "path", cfg.SearchPath, "query", cfg.Query)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		c.run(ctx, gen, cfg)
	}()
	return gen
}

// Cancel supersedes the running analysis without starting another.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	c.skips = nil
}

// Generation returns the generation of the current analysis.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Preview runs discovery alone for cfg and reports it as FilesDiscovered.
// Discovery failures are logged and produce no event.
func (c *Coordinator) Preview(cfg config.Config) {
	c.mu.Lock()
	if c.previewCancel != nil {
		c.previewCancel()
	}
	c.previewGen++
	gen := c.previewGen
	ctx, cancel := context.WithCancel(c.ctx)
	c.previewCancel = cancel
	c.mu.Unlock()

	cfg = cfg.Clone()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		res, err := c.discover(cfg.SearchPath, cfg.Extensions, cfg.MaxDepth)
		if err != nil {
			c.log.Debug("preview discovery failed", "path", cfg.SearchPath, "error", err)
			return
		}
		c.send(ctx, message{kind: kindPreview, gen: gen, event: state.FilesDiscovered{Result: res}})
	}()
}

// Poll returns every queued event of the current generations without
// blocking. Events from superseded tasks are dropped.
func (c *Coordinator) Poll() []state.Event {
	var events []state.Event
	for {
		select {
		case m := <-c.msgs:
			if c.current(m) {
				events = append(events, m.event)
			}
		default:
			return events
		}
	}
}

// Skips returns and clears the files the current analysis left out.
func (c *Coordinator) Skips() []analysis.Skip {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.skips
	c.skips = nil
	return out
}

// Close cancels all work and waits for the background goroutines to exit.
func (c *Coordinator) Close() {
	c.stop()
	c.wg.Wait()
}

func (c *Coordinator) current(m message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m.kind == kindPreview {
		return m.gen == c.previewGen
	}
	return m.gen == c.gen
}

func (c *Coordinator) run(ctx context.Context, gen uint64, cfg config.Config) {
	start := time.Now()
	emit := func(e state.Event) {
		c.send(ctx, message{kind: kindAnalysis, gen: gen, event: e})
	}

	res, err := c.discover(cfg.SearchPath, cfg.Extensions, cfg.MaxDepth)
	if err != nil {
		emit(state.AnalysisError{Reason: fmt.Sprintf("discovery failed: %v", err)})
		return
	}
	total := len(res.Files)
	if total == 0 {
		emit(state.AnalysisError{Reason: walker.NoFilesError(cfg.SearchPath, cfg.Extensions).Error()})
		return
	}
	emit(state.AnalysisProgress{Done: 0, Total: total})

	limiter := rate.NewLimiter(c.progressRate, 1)
	results, err := c.analyse(ctx, res.Files, cfg,
		analysis.WithProgress(func(done, total int) {
			if done == total || limiter.Allow() {
				c.trySend(message{kind: kindAnalysis, gen: gen, event: state.AnalysisProgress{Done: done, Total: total}})
			}
		}),
		analysis.WithSkips(func(s analysis.Skip) {
			c.recordSkip(gen, s)
		}),
	)
	if ctx.Err() != nil {
		c.log.Debug("analysis superseded", "generation", gen)
		return
	}
	if err != nil {
		emit(state.AnalysisError{Reason: err.Error()})
		return
	}

	elapsed := time.Since(start)
	c.log.Info("analysis complete", "generation", gen, "files", total, "matched", len(results), "elapsed", elapsed)
	emit(state.AnalysisComplete{Results: results, Elapsed: elapsed})
}

// send blocks until the consumer has room or ctx ends.
func (c *Coordinator) send(ctx context.Context, m message) {
	select {
	case c.msgs <- m:
	case <-ctx.Done():
	}
}

// trySend drops m when the queue is full; progress is advisory.
func (c *Coordinator) trySend(m message) {
	select {
	case c.msgs <- m:
	default:
	}
}

func (c *Coordinator) recordSkip(gen uint64, s analysis.Skip) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.gen {
		c.skips = append(c.skips, s)
	}
}
