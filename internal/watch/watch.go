// Package watch reports when documents under a search root change.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"docsim/internal/logger"
	"docsim/internal/walker"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period that ends a burst of events.
const DefaultDebounce = 500 * time.Millisecond

// Watcher coalesces filesystem events for files with the configured
// extensions into a single "changed" signal per quiet period.
type Watcher struct {
	fs       *fsnotify.Watcher
	exts     map[string]bool
	debounce time.Duration
	log      logger.Logger

	changed chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New watches root and its subdirectories down to maxDepth.
func New(root string, exts []string, maxDepth int, debounce time.Duration, log logger.Logger) (*Watcher, error) {
	if log == nil {
		log = logger.Discard()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	dirs, err := walker.Dirs(root, maxDepth)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if err := fw.Add(d); err != nil {
			log.Warn("watch directory failed", "dir", d, "error", err)
		}
	}

	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		allowed[strings.ToLower(e)] = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		fs:       fw,
		exts:     allowed,
		debounce: debounce,
		log:      log,
		changed:  make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Poll reports whether anything relevant changed since the last call. It
// never blocks.
func (w *Watcher) Poll() bool {
	select {
	case <-w.changed:
		return true
	default:
		return false
	}
}

// Changed is signalled once per settled burst of changes.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 {
				w.follow(event.Name)
			}
			if !w.relevant(event) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.signal)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", "error", err)
		}
	}
}

// follow starts watching directories created after New.
func (w *Watcher) follow(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.fs.Add(path); err != nil {
		w.log.Debug("watch new directory failed", "dir", path, "error", err)
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return w.exts[strings.ToLower(filepath.Ext(event.Name))]
}

func (w *Watcher) signal() {
	select {
	case w.changed <- struct{}{}:
	default:
	}
}
