package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docsim/internal/analysis"
	"docsim/internal/config"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for output files that are neither json
// nor yaml.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Document is the machine-readable record of one run.
type Document struct {
	RunID       string               `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time            `json:"generated_at" yaml:"generated_at"`
	Query       string               `json:"query" yaml:"query"`
	Config      config.Config        `json:"config" yaml:"config"`
	Results     []analysis.FileScore `json:"results" yaml:"results"`
	Skipped     []SkippedFile        `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// SkippedFile is a file left out of a run.
type SkippedFile struct {
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
}

// NewDocument stamps a run with a fresh id and the current time.
func NewDocument(cfg config.Config, results []analysis.FileScore, skips []analysis.Skip) Document {
	doc := Document{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Query:       cfg.Query,
		Config:      cfg.Clone(),
		Results:     results,
	}
	if doc.Results == nil {
		doc.Results = []analysis.FileScore{}
	}
	for _, s := range skips {
		doc.Skipped = append(doc.Skipped, SkippedFile{Path: s.Path, Reason: s.Reason})
	}
	return doc
}

// FormatFor maps an output file name to "json" or "yaml".
func FormatFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	}
	return "", fmt.Errorf("%w: %q (use .json, .yaml or .yml)", ErrUnsupportedFormat, filepath.Ext(path))
}

// Encode writes doc to w in the given format.
func Encode(w io.Writer, format string, doc Document) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// WriteFile writes doc to path, choosing the format from its extension.
func WriteFile(path string, doc Document) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, format, doc); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
