// Package extractor pulls Next.js hydration data out of server-rendered
// HTML.
//
// Parse scans a document for self.__next_f.push calls, reassembles the
// payload of every chunk id in document order and recovers structured
// values from each payload, even when it is not strict JSON or was cut
// short. Malformed chunks become error records instead of failing the
// document.
//
//	records := extractor.Parse(html)
//	for _, m := range extractor.FindDataByPattern(records, "product") {
//		fmt.Println(m.Path, m.Value)
//	}
package extractor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dgallion1/nexthydra/hydration"
	"github.com/dgallion1/nexthydra/internal/chunker"
	"github.com/dgallion1/nexthydra/internal/parser"
	"github.com/dgallion1/nexthydra/internal/scan"
	"github.com/dgallion1/nexthydra/internal/search"
)

// ErrNilInput is returned by ParseReader when given a nil reader.
var ErrNilInput = errors.New("extractor: nil input")

// DefaultKeyDepth is the usual depth passed to GetAllKeys.
const DefaultKeyDepth = search.DefaultKeyDepth

type config struct {
	workers     int
	scriptsOnly bool
	maxDepth    int
	logger      *slog.Logger
}

// Option configures Parse and ParseReader.
type Option func(*config)

// WithWorkers parses up to n chunk payloads concurrently. Output order does
// not depend on n.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithScriptsOnly restricts scanning to inline <script> elements.
func WithScriptsOnly() Option {
	return func(c *config) { c.scriptsOnly = true }
}

// WithMaxDepth limits container nesting inside a payload. Deeper structures
// are treated as unparsable.
func WithMaxDepth(n int) Option {
	return func(c *config) { c.maxDepth = n }
}

// WithLogger receives debug logs about chunks that failed to parse.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Parse extracts one record per distinct chunk id in html, in the order
// each id first appears.
func Parse(html string, opts ...Option) []hydration.ChunkRecord {
	cfg := config{workers: 1, maxDepth: parser.DefaultMaxDepth}
	for _, o := range opts {
		o(&cfg)
	}

	frags := scan.Fragments(html)
	if cfg.scriptsOnly {
		frags = scan.ScriptFragments(html)
	}
	return chunker.Assemble(frags, chunker.Config{
		Workers: cfg.workers,
		Parser:  parser.Options{MaxDepth: cfg.maxDepth},
		Logger:  cfg.logger,
	})
}

// ParseReader reads a whole document from r and parses it.
func ParseReader(r io.Reader, opts ...Option) ([]hydration.ChunkRecord, error) {
	if r == nil {
		return nil, ErrNilInput
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	return Parse(string(data), opts...), nil
}

type searchConfig struct {
	caseSensitive bool
}

// SearchOption configures FindDataByPattern.
type SearchOption func(*searchConfig)

// CaseSensitive disables case folding.
func CaseSensitive() SearchOption {
	return func(c *searchConfig) { c.caseSensitive = true }
}

// FindDataByPattern returns every mapping key or string value containing
// pattern, case-insensitively by default. A key match carries the key's
// value.
func FindDataByPattern(records []hydration.ChunkRecord, pattern string, opts ...SearchOption) []hydration.PatternMatch {
	var cfg searchConfig
	for _, o := range opts {
		o(&cfg)
	}
	return search.FindByPattern(records, pattern, cfg.caseSensitive)
}

// GetAllKeys counts mapping keys up to maxDepth levels below each item's
// root.
func GetAllKeys(records []hydration.ChunkRecord, maxDepth int) map[string]int {
	return search.CollectKeys(records, maxDepth)
}

// Summarize reports aggregate statistics for records.
func Summarize(records []hydration.ChunkRecord) hydration.Summary {
	return hydration.Summarize(records)
}
