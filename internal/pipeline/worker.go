package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/nexthydra/extractor"
	"github.com/dgallion1/nexthydra/hydration"
	"github.com/dgallion1/nexthydra/internal/fetch"
	"github.com/dgallion1/nexthydra/internal/page"
	"github.com/dgallion1/nexthydra/internal/parser"
)

// Fetcher downloads a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
}

// ExtractConfig holds the extraction settings shared by jobs and direct
// uploads.
type ExtractConfig struct {
	Workers     int
	MaxDepth    int
	ScriptsOnly bool
}

// Result is the output of extracting one document.
type Result struct {
	Records []hydration.ChunkRecord `json:"records"`
	Summary hydration.Summary       `json:"summary"`
	Page    page.Info               `json:"page"`
}

// Extract runs the page inspector and the hydration extractor over html.
func Extract(html string, cfg ExtractConfig, log *slog.Logger) Result {
	opts := []extractor.Option{
		extractor.WithWorkers(cfg.Workers),
		extractor.WithMaxDepth(cfg.MaxDepth),
		extractor.WithLogger(log),
	}
	if cfg.ScriptsOnly {
		opts = append(opts, extractor.WithScriptsOnly())
	}

	info, err := page.Inspect(html, parser.Options{MaxDepth: cfg.MaxDepth})
	if err != nil {
		log.Warn("page inspection failed", "error", err)
	}
	records := extractor.Parse(html, opts...)
	return Result{
		Records: records,
		Summary: extractor.Summarize(records),
		Page:    info,
	}
}

// Worker processes a single page job.
type Worker struct {
	fetcher Fetcher
	log     *slog.Logger
	cfg     ExtractConfig
	stats   *Stats

	maxRetries int
	backoff    func(attempt int, err error) time.Duration
}

func NewWorker(fetcher Fetcher, log *slog.Logger, cfg ExtractConfig, stats *Stats, maxRetries int) *Worker {
	if maxRetries <= 0 {
		maxRetries = MaxRetries
	}
	return &Worker{
		fetcher:    fetcher,
		log:        log,
		cfg:        cfg,
		stats:      stats,
		maxRetries: maxRetries,
		backoff:    RetryDelay,
	}
}

// Process fetches the job's page and extracts its hydration data.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "url", job.URL)

	// Phase 1: Fetch
	job.SetStatus(StatusFetching, "fetching")
	var pg *fetch.Page
	var err error
	for attempt := range w.maxRetries {
		job.IncrFetchAttempts()
		start := time.Now()
		pg, err = w.fetcher.Fetch(ctx, job.URL)
		w.stats.Fetch.Since(start)
		if err == nil || !IsRetryable(err) {
			break
		}
		if attempt == w.maxRetries-1 {
			break
		}
		log.Warn("retryable fetch error", "attempt", attempt, "error", err)
		select {
		case <-time.After(w.backoff(attempt, err)):
		case <-ctx.Done():
			err = ctx.Err()
		}
		if ctx.Err() != nil {
			break
		}
	}
	if err != nil {
		log.Error("fetch failed", "error", err)
		job.AddError(fmt.Sprintf("fetch: %s", err))
		job.SetStatus(StatusFailed, "fetching")
		return
	}
	job.SetFetched(pg.FinalURL, pg.Body)
	log.Info("fetched page", "status", pg.StatusCode, "bytes", len(pg.Body))

	// Phase 2: Extract
	job.SetStatus(StatusParsing, "parsing")
	start := time.Now()
	res := Extract(string(pg.Body), w.cfg, log)
	w.stats.Parse.Since(start)
	job.SetResult(res.Records, res.Page)

	s := res.Summary
	log.Info("extraction complete",
		"chunks", s.Chunks,
		"items", s.Items,
		"error_chunks", s.ErrorChunks,
		"partial_chunks", s.PartialChunks,
		"next_data", res.Page.HasNextData,
	)

	switch {
	case s.Chunks == 0 && !res.Page.HasNextData:
		job.AddError("no hydration data found")
		job.SetStatus(StatusFailed, "parsing")
	case s.ErrorChunks > 0 || s.PartialChunks > 0:
		for _, r := range res.Records {
			if r.Error != nil {
				job.AddError(fmt.Sprintf("chunk %d: %s", r.SourceID, r.Error))
			}
		}
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}
