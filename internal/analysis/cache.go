package analysis

import (
	"io/fs"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 512

type cacheEntry struct {
	size    int64
	modTime time.Time
	text    string
}

// textCache keeps decoded file text between runs of the same process so a
// re-analysis of unchanged files skips the read and the binary sniffing.
// Entries are keyed by path and only served while size and mtime match.
type textCache struct {
	entries *lru.Cache[string, cacheEntry]
}

func newTextCache(size int) *textCache {
	if size < 0 {
		return &textCache{}
	}
	if size == 0 {
		size = defaultCacheSize
	}
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		// Only reachable with a non-positive size, excluded above.
		return &textCache{}
	}
	return &textCache{entries: entries}
}

func (c *textCache) get(path string, info fs.FileInfo) (string, bool) {
	if c == nil || c.entries == nil {
		return "", false
	}
	e, ok := c.entries.Get(path)
	if !ok || e.size != info.Size() || !e.modTime.Equal(info.ModTime()) {
		return "", false
	}
	return e.text, true
}

func (c *textCache) add(path string, info fs.FileInfo, text string) {
	if c == nil || c.entries == nil {
		return
	}
	c.entries.Add(path, cacheEntry{size: info.Size(), modTime: info.ModTime(), text: text})
}

func (c *textCache) count() int {
	if c == nil || c.entries == nil {
		return 0
	}
	return c.entries.Len()
}
