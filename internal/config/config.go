package config

import (
	"slices"
	"strings"
)

// Config is the parameter bag for one analysis run. It is built once per edit
// cycle and cloned into every run.
type Config struct {
	Query         string   `json:"query" yaml:"query" validate:"valid_query"`
	SearchPath    string   `json:"search_path" yaml:"search_path"`
	Extensions    []string `json:"extensions" yaml:"extensions" validate:"min=1,valid_exts"`
	MaxDepth      int      `json:"max_depth" yaml:"max_depth" validate:"min=1"`
	WindowSize    int      `json:"window_size" yaml:"window_size" validate:"min=1,ltefield=MaxWindowSize"`
	MaxWindowSize int      `json:"max_window_size" yaml:"max_window_size" validate:"min=1"`
	Overlap       int      `json:"overlap" yaml:"overlap" validate:"min=0"`
	Threshold     float64  `json:"threshold" yaml:"threshold" validate:"min=0,max=1"`
	TopN          int      `json:"top_n" yaml:"top_n" validate:"min=1"`
	Threads       int      `json:"threads" yaml:"threads" validate:"min=0"`
}

// Defaults used when neither flags, environment nor config file say otherwise.
const (
	DefaultMaxDepth      = 5
	DefaultWindowSize    = 500
	DefaultMaxWindowSize = 5000
	DefaultOverlap       = 50
	DefaultThreshold     = 0.5
	DefaultTopN          = 5
)

// DefaultExtensions is the plain-text/markdown allowlist.
var DefaultExtensions = []string{".txt", ".md"}

// SupportedExtensions lists every extension that may appear in the allowlist.
var SupportedExtensions = []string{
	".txt", ".md", ".rst", ".log", ".csv",
	".rs", ".py", ".java", ".c", ".cpp", ".js", ".ts", ".go",
	".html", ".css", ".json", ".yaml", ".yml", ".toml", ".xml",
}

// Defaults returns a Config searching the working directory.
func Defaults() Config {
	return Config{
		SearchPath:    ".",
		Extensions:    slices.Clone(DefaultExtensions),
		MaxDepth:      DefaultMaxDepth,
		WindowSize:    DefaultWindowSize,
		MaxWindowSize: DefaultMaxWindowSize,
		Overlap:       DefaultOverlap,
		Threshold:     DefaultThreshold,
		TopN:          DefaultTopN,
	}
}

// Clone returns a deep copy so concurrent runs never share the extension slice.
func (c Config) Clone() Config {
	c.Extensions = slices.Clone(c.Extensions)
	return c
}

// NormalizeExtensions lowercases, dot-prefixes, splits comma lists and
// de-duplicates extensions while keeping their first-seen order.
func NormalizeExtensions(exts []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, raw := range exts {
		for _, e := range strings.Split(raw, ",") {
			e = strings.ToLower(strings.TrimSpace(e))
			if e == "" || e == "." {
				continue
			}
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			if seen[e] {
				continue
			}
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}
