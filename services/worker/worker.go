package worker

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"sjsage522/alkotekaworker/helpers"
	"sjsage522/alkotekaworker/internal/engine"
	"sjsage522/alkotekaworker/internal/item"
	apperrors "sjsage522/alkotekaworker/pkg/errors"
)

// Crawler runs one traversal and hands every product to emit
type Crawler interface {
	Crawl(ctx context.Context, emit func(item.Product)) (engine.Stats, error)
}

// Sink receives products. Flush is called once at the end of every crawl.
type Sink interface {
	Name() string
	Write(ctx context.Context, p item.Product) error
	Flush(ctx context.Context) error
	Close() error
}

// Worker handles the crawling and fan-out to sinks
type Worker struct {
	ctx           context.Context
	crawler       Crawler
	sinks         []Sink
	logger        helpers.LoggerInterface
	crawlInterval time.Duration
}

// NewWorker creates a new worker. A zero crawlInterval runs a single crawl.
func NewWorker(
	ctx context.Context,
	crawler Crawler,
	sinks []Sink,
	logger helpers.LoggerInterface,
	crawlInterval time.Duration,
) *Worker {
	return &Worker{
		ctx:           ctx,
		crawler:       crawler,
		sinks:         sinks,
		logger:        logger,
		crawlInterval: crawlInterval,
	}
}

// Start runs crawls until the context is cancelled, a fatal error occurs or,
// without an interval, after the first crawl.
func (w *Worker) Start() error {
	for {
		start := time.Now()
		stats, err := w.RunOnce()
		if os.Getenv("ALKOTEKA_ENVIRONMENT") != "production" {
			w.logger.LogInfo("Crawl took %s: %d items, %d skipped, %d failed requests",
				time.Since(start), stats.Items, stats.Skipped, stats.Failed)
		}

		if err != nil {
			if w.crawlInterval == 0 || apperrors.IsFatal(err) {
				return err
			}
			if w.ctx.Err() != nil {
				return w.ctx.Err()
			}
			w.logger.LogError("crawl", err)
		}
		if w.crawlInterval == 0 {
			return nil
		}

		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		case <-time.After(w.crawlInterval):
		}
	}
}

// RunOnce performs one crawl, writes every product to every sink and
// flushes the sinks, even when the crawl stopped early.
func (w *Worker) RunOnce() (engine.Stats, error) {
	first := true
	stats, err := w.crawler.Crawl(w.ctx, func(p item.Product) {
		if first {
			first = false
			w.logSample(p)
		}
		w.publish(p)
	})

	// sinks still get flushed after a cancelled crawl
	flushCtx := context.WithoutCancel(w.ctx)
	for _, s := range w.sinks {
		if ferr := s.Flush(flushCtx); ferr != nil {
			w.logger.LogError(s.Name(), ferr)
		}
	}
	return stats, err
}

// Close closes every sink
func (w *Worker) Close() {
	for _, s := range w.sinks {
		if err := s.Close(); err != nil {
			w.logger.LogError(s.Name(), err)
		}
	}
}

func (w *Worker) publish(p item.Product) {
	for _, s := range w.sinks {
		if err := s.Write(w.ctx, p); err != nil {
			w.logger.LogError(s.Name(), err)
		}
	}
}

// logSample logs the first product of a crawl outside production
func (w *Worker) logSample(p item.Product) {
	if os.Getenv("ALKOTEKA_ENVIRONMENT") == "production" {
		return
	}
	loggable := p
	if loggable.Metadata.Description != "" {
		loggable.Metadata.Description = "OK"
	}
	data, err := json.Marshal(loggable)
	if err != nil {
		w.logger.LogError("sample", err)
		return
	}
	w.logger.LogInfo("Crawled data: %s", string(data))
}
