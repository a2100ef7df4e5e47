// Package chunker reassembles push-call fragments into per-chunk payloads
// and parses each payload into a ChunkRecord.
package chunker

import (
	"iter"
	"log/slog"
	"strings"
	"sync"

	"github.com/dgallion1/nexthydra/hydration"
	"github.com/dgallion1/nexthydra/internal/parser"
)

// Config controls assembly behavior.
type Config struct {
	Workers int            // Payloads parsed concurrently; <= 1 parses inline.
	Parser  parser.Options // Passed through to the recovery parser.
	Logger  *slog.Logger   // Receives debug logs for failed chunks.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers: 1,
		Parser:  parser.Options{MaxDepth: parser.DefaultMaxDepth},
	}
}

// group collects the fragments of one chunk id.
type group struct {
	id        int
	payload   strings.Builder
	positions []int
}

// Assemble groups fragments by chunk id, concatenates each group's payloads
// in fragment order and parses the result. Records come back in the order
// each id was first seen, regardless of Workers.
func Assemble(frags iter.Seq[hydration.RawFragment], cfg Config) []hydration.ChunkRecord {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	groups := groupFragments(frags)
	records := make([]hydration.ChunkRecord, len(groups))

	if cfg.Workers <= 1 || len(groups) < 2 {
		for i, g := range groups {
			records[i] = build(g, cfg.Parser, logger)
		}
		return records
	}

	sem := make(chan struct{}, cfg.Workers)
	var wg sync.WaitGroup
	for i, g := range groups {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			records[i] = build(g, cfg.Parser, logger)
		}()
	}
	wg.Wait()
	return records
}

// groupFragments makes a single pass over frags. The order slice records
// first-seen id order; the map finds an id's group.
func groupFragments(frags iter.Seq[hydration.RawFragment]) []*group {
	var order []*group
	byID := make(map[int]*group)
	for f := range frags {
		g, ok := byID[f.ChunkID]
		if !ok {
			g = &group{id: f.ChunkID}
			byID[f.ChunkID] = g
			order = append(order, g)
		}
		g.payload.WriteString(f.Payload)
		g.positions = append(g.positions, f.Position)
	}
	return order
}

func build(g *group, opts parser.Options, logger *slog.Logger) hydration.ChunkRecord {
	payload := g.payload.String()
	res := parser.ParsePayload(payload, opts)

	rec := hydration.ChunkRecord{
		ChunkID:       g.id,
		SourceID:      g.id,
		FragmentCount: len(g.positions),
		Positions:     g.positions,
		Items:         res.Items,
		Error:         res.Err,
	}
	if res.Err == nil {
		return rec
	}

	if len(res.Items) == 0 {
		rec.ChunkID = hydration.ErrorChunkID
		rec.Raw = payload
		logger.Debug("chunk unparsable",
			"chunk_id", g.id,
			"kind", res.Err.Kind,
			"offset", res.Err.Offset,
			"error", res.Err.Message,
			"payload_bytes", len(payload),
		)
		return rec
	}

	logger.Debug("chunk partially recovered",
		"chunk_id", g.id,
		"items", len(res.Items),
		"kind", res.Err.Kind,
		"error", res.Err.Message,
	)
	return rec
}
