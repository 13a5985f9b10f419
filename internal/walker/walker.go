package walker

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Result is the outcome of one discovery pass.
type Result struct {
	// Files are absolute paths, sorted.
	Files []string
	// MaxDepth is the deepest file found, counting the root's children as 1.
	MaxDepth int
}

// ErrNoFiles reports a discovery pass that matched nothing.
var ErrNoFiles = errors.New("no matching files")

// NoFilesError names the root and extension set of an empty discovery.
func NoFilesError(root string, exts []string) error {
	return fmt.Errorf("%w under %s with extensions %s", ErrNoFiles, root, strings.Join(exts, ", "))
}

// maxFileSize is the largest file we'll consider (1 MB).
const maxFileSize = 1 << 20

// IgnoreFile is read from the search root when present.
const IgnoreFile = ".docsimignore"

// defaultIgnores are used when no ignore file exists.
var defaultIgnores = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	"vendor",
	"__pycache__",
	".idea",
	".vscode",
	"dist",
	"build",
	"target",
}

// Discover traverses the tree rooted at root and returns every regular file
// whose extension is in exts. Directories deeper than maxDepth are not
// entered; maxDepth <= 0 means unlimited. Unreadable subdirectories are
// skipped, but an unreadable root is an error.
func Discover(root string, exts []string, maxDepth int) (Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Result{}, err
	}

	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		allowed[strings.ToLower(e)] = true
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return Result{}, fmt.Errorf("stat %s: %w", absRoot, err)
	}
	if !info.IsDir() {
		// A single file is its own result set.
		var res Result
		if allowed[strings.ToLower(filepath.Ext(absRoot))] {
			res.Files = []string{absRoot}
		}
		return res, nil
	}

	ignores := loadIgnorePatterns(absRoot)

	var res Result
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			return nil // skip errors, keep walking
		}

		rel, _ := filepath.Rel(absRoot, path)
		depth := 0
		if rel != "." {
			depth = strings.Count(filepath.ToSlash(rel), "/") + 1
		}

		if d.IsDir() {
			if path == absRoot {
				return nil
			}
			if matchesIgnore(d.Name(), filepath.ToSlash(rel), ignores) {
				return filepath.SkipDir
			}
			if maxDepth > 0 && depth >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip symlinks and other non-regular files.
		if !d.Type().IsRegular() {
			return nil
		}

		if !allowed[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		// Skip large or empty files.
		if info.Size() > maxFileSize || info.Size() == 0 {
			return nil
		}

		res.Files = append(res.Files, path)
		if depth > res.MaxDepth {
			res.MaxDepth = depth
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("walk %s: %w", absRoot, err)
	}

	sort.Strings(res.Files)
	return res, nil
}

// loadIgnorePatterns reads the ignore file from the search root, falling back
// to the built-in list.
func loadIgnorePatterns(root string) []string {
	f, err := os.Open(filepath.Join(root, IgnoreFile))
	if err != nil {
		return defaultIgnores
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if len(patterns) == 0 {
		return defaultIgnores
	}
	return patterns
}

// matchesIgnore checks if a directory name or relative path matches any ignore pattern.
func matchesIgnore(name, relPath string, patterns []string) bool {
	for _, p := range patterns {
		// Exact directory name match (e.g. "node_modules", ".git").
		if name == p {
			return true
		}
		// Path prefix match (e.g. "third_party/vendor").
		if strings.HasPrefix(relPath, p+"/") || relPath == p {
			return true
		}
		if matched, _ := filepath.Match(p, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(p, name); matched {
			return true
		}
	}
	return false
}

// Dirs returns root and every directory below it that Discover would enter.
func Dirs(root string, maxDepth int) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", absRoot, err)
	}
	if !info.IsDir() {
		return []string{filepath.Dir(absRoot)}, nil
	}

	ignores := loadIgnorePatterns(absRoot)
	var dirs []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != absRoot {
			rel, _ := filepath.Rel(absRoot, path)
			rel = filepath.ToSlash(rel)
			if matchesIgnore(d.Name(), rel, ignores) {
				return filepath.SkipDir
			}
			if maxDepth > 0 && strings.Count(rel, "/")+1 >= maxDepth {
				return filepath.SkipDir
			}
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", absRoot, err)
	}
	return dirs, nil
}
