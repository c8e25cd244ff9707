package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgallion1/ocrserve/internal/document"
	"github.com/dgallion1/ocrserve/internal/inference"
	"github.com/dgallion1/ocrserve/internal/pageload"
)

// LoadFunc converts a file into page images. It matches pageload.Load and is
// a field so tests can substitute a fake loader.
type LoadFunc func(path string, opts pageload.Options) ([]pageload.PageImage, error)

// Runner executes the full OCR pipeline for one request: load pages, run
// inference, aggregate. It owns no per-request state; concurrent calls are
// independent.
type Runner struct {
	Load       LoadFunc
	Engines    *inference.Holder
	Stats      *inference.EngineStats
	Log        *slog.Logger
	PromptType string
	LoadOpts   pageload.Options
}

// NewRunner wires the production pipeline.
func NewRunner(engines *inference.Holder, stats *inference.EngineStats, log *slog.Logger, promptType string, loadOpts pageload.Options) *Runner {
	return &Runner{
		Load:       pageload.Load,
		Engines:    engines,
		Stats:      stats,
		Log:        log,
		PromptType: promptType,
		LoadOpts:   loadOpts,
	}
}

// Run produces the document result for one uploaded file. Partial inference
// failures come back as data inside the result; the returned error is
// reserved for transport-level faults (unreadable file, engine setup or
// whole-batch failure), which the HTTP layer maps to a 500.
func (r *Runner) Run(ctx context.Context, path, pageRange string) (document.DocumentResult, error) {
	opts := r.LoadOpts
	opts.PageRange = pageRange

	images, err := r.Load(path, opts)
	if err != nil {
		return document.DocumentResult{}, err
	}
	if len(images) == 0 {
		r.Log.Warn("no pages loaded", "path", path, "page_range", pageRange)
		return document.Aggregate(nil), nil
	}

	engine, err := r.Engines.Get()
	if err != nil {
		return document.DocumentResult{}, err
	}

	batch := make([]inference.BatchItem, 0, len(images))
	for _, img := range images {
		batch = append(batch, inference.BatchItem{
			Image:      img,
			PromptType: r.PromptType,
		})
	}

	start := time.Now()
	results, err := r.generateWithRetry(ctx, engine, batch)
	if err != nil {
		return document.DocumentResult{}, err
	}
	if r.Stats != nil {
		r.Stats.Record(time.Since(start).Milliseconds())
	}

	r.Log.Info("inference complete",
		"engine", engine.Name(),
		"pages", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return document.Aggregate(results), nil
}

// generateWithRetry retries whole-batch transient failures from remote
// engines. Per-page errors are data and never retried here.
func (r *Runner) generateWithRetry(ctx context.Context, engine inference.Engine, batch []inference.BatchItem) ([]document.PageResult, error) {
	var results []document.PageResult
	var lastErr error
	for attempt := range MaxRetries {
		results, lastErr = engine.Generate(ctx, batch)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		r.Log.Warn("retryable inference error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return results, lastErr
}
