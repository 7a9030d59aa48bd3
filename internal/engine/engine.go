// Package engine drives a spider: it fetches queued requests on a worker pool,
// hands responses to the spider callbacks and forwards the resulting items.
package engine

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"sjsage522/alkotekaworker/internal/item"
	"sjsage522/alkotekaworker/internal/observability"
	"sjsage522/alkotekaworker/internal/spider"
	"sjsage522/alkotekaworker/logger"
	apperrors "sjsage522/alkotekaworker/pkg/errors"
)

// Spider is the traversal driven by the engine
type Spider interface {
	Start() []spider.Request
	Handle(resp spider.Response) (spider.Result, error)
}

// Config tunes the engine
type Config struct {
	Concurrency  int
	RequestDelay time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
}

// Stats summarises one run
type Stats struct {
	Requests    int
	Failed      int
	Duplicates  int
	Retries     int
	RateLimited int
	Items       int
	Skipped     int
	Duration    time.Duration
}

// Engine runs spiders
type Engine struct {
	cfg     Config
	fetcher Fetcher
	gate    *Gate
	log     *logger.Logger
}

// New creates an engine. A nil gate never blocks.
func New(cfg Config, fetcher Fetcher, gate *Gate) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if gate == nil {
		gate = NewGate(nil, 0)
	}
	return &Engine{
		cfg:     cfg,
		fetcher: fetcher,
		gate:    gate,
		log:     logger.ForEngine(),
	}
}

// Crawler binds a spider to an engine
type Crawler struct {
	engine *Engine
	spider Spider
}

// With returns a Crawler running sp on e
func (e *Engine) With(sp Spider) *Crawler {
	return &Crawler{engine: e, spider: sp}
}

// Crawl runs one full traversal
func (c *Crawler) Crawl(ctx context.Context, emit func(item.Product)) (Stats, error) {
	return c.engine.Run(ctx, c.spider, emit)
}

type outcome struct {
	req         spider.Request
	result      spider.Result
	fetchErr    error
	handleErr   error
	retries     int
	rateLimited int
}

// Run crawls until the spider stops issuing requests, ctx is cancelled or a
// callback returns a fatal error. emit is called from a single goroutine.
func (e *Engine) Run(ctx context.Context, sp Spider, emit func(item.Product)) (Stats, error) {
	started := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		stats    Stats
		runErr   error
		pending  []spider.Request
		inflight int
		stopping bool
		seen     = newDupeFilter()
		work     = make(chan spider.Request)
		results  = make(chan outcome)
		done     = ctx.Done()
		wg       sync.WaitGroup
	)

	enqueue := func(reqs []spider.Request) {
		for _, r := range reqs {
			if seen.Seen(r) {
				stats.Duplicates++
				observability.RequestsTotal.WithLabelValues(string(r.Context.Stage), observability.OutcomeDuplicate).Inc()
				continue
			}
			pending = append(pending, r)
		}
	}

	for i := 0; i < e.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range work {
				results <- e.process(ctx, sp, req)
			}
		}()
	}

	enqueue(sp.Start())

	for len(pending) > 0 || inflight > 0 {
		observability.QueueLength.Set(float64(len(pending)))

		var (
			out  chan spider.Request
			next spider.Request
		)
		if len(pending) > 0 {
			// newest first keeps detail fetches close behind their page
			out, next = work, pending[len(pending)-1]
		}

		select {
		case out <- next:
			pending = pending[:len(pending)-1]
			inflight++

		case o := <-results:
			inflight--
			stats.Retries += o.retries
			stats.RateLimited += o.rateLimited
			if stopping {
				continue
			}

			if err := e.settle(o, &stats, emit, enqueue); err != nil {
				runErr = err
				e.log.Error().Err(err).Msg("Fatal error, stopping crawl")
				stopping = true
				pending = nil
				cancel()
			}

		case <-done:
			done = nil
			stopping = true
			pending = nil
		}
	}

	close(work)
	wg.Wait()
	observability.QueueLength.Set(0)

	stats.Duration = time.Since(started)
	if runErr == nil && ctx.Err() != nil {
		runErr = ctx.Err()
	}
	return stats, runErr
}

// settle applies one outcome to the run and returns a non-nil error only when
// the run must stop.
func (e *Engine) settle(o outcome, stats *Stats, emit func(item.Product), enqueue func([]spider.Request)) error {
	ctx := o.req.Context

	if o.fetchErr != nil {
		stats.Failed++
		observability.ErrorsTotal.WithLabelValues(string(apperrors.TypeOf(o.fetchErr))).Inc()
		if ctx.Stage == spider.StageCityLookup {
			return fmt.Errorf("fetch city list: %w", o.fetchErr)
		}
		e.log.Warn().
			Err(o.fetchErr).
			Str("stage", string(ctx.Stage)).
			Str("category", ctx.CategorySlug).
			Int("page", ctx.Page).
			Str("product", ctx.ProductSlug).
			Msg("Request failed")
		return nil
	}
	stats.Requests++

	if o.handleErr != nil {
		observability.ErrorsTotal.WithLabelValues(string(apperrors.TypeOf(o.handleErr))).Inc()
		if apperrors.IsFatal(o.handleErr) {
			return o.handleErr
		}
		if ctx.Stage == spider.StageDetail {
			stats.Skipped++
			observability.ItemsTotal.WithLabelValues(observability.OutcomeSkipped).Inc()
			e.log.Warn().Err(o.handleErr).Str("product", ctx.ProductSlug).Msg("Skipping item")
		} else {
			e.log.Warn().Err(o.handleErr).Str("category", ctx.CategorySlug).Int("page", ctx.Page).Msg("Skipping response")
		}
		return nil
	}

	e.log.Debug().
		Str("stage", string(ctx.Stage)).
		Str("url", o.req.URL).
		Int("follow_ups", len(o.result.Requests)).
		Int("items", len(o.result.Items)).
		Msg("Response handled")

	for _, it := range o.result.Items {
		stats.Items++
		observability.ItemsTotal.WithLabelValues(observability.OutcomeEmitted).Inc()
		if emit != nil {
			emit(it)
		}
	}
	enqueue(o.result.Requests)
	return nil
}

// process fetches req, retrying network failures and waiting out rate
// limits, then runs the spider callback on the body.
func (e *Engine) process(ctx context.Context, sp Spider, req spider.Request) outcome {
	o := outcome{req: req}
	stage := string(req.Context.Stage)
	host := hostOf(req.URL)
	started := time.Now()

	for attempt := 0; ; attempt++ {
		if err := e.gate.Wait(ctx, host); err != nil {
			o.fetchErr = err
			break
		}
		if e.cfg.RequestDelay > 0 {
			if err := sleep(ctx, e.cfg.RequestDelay); err != nil {
				o.fetchErr = err
				break
			}
		}

		body, err := e.fetcher.Fetch(ctx, req.URL)
		if err == nil {
			o.fetchErr = nil
			observability.ObserveFetch(stage, observability.OutcomeOK, time.Since(started))
			o.result, o.handleErr = sp.Handle(spider.Response{Request: req, Body: body})
			return o
		}
		o.fetchErr = err

		wait, limited := apperrors.RetryAfter(err)
		if limited {
			o.rateLimited++
			e.gate.Block(host, wait)
		}
		if ctx.Err() != nil || attempt >= e.cfg.MaxRetries {
			break
		}
		if !limited {
			if !apperrors.IsRetryable(err) || sleep(ctx, e.cfg.RetryDelay) != nil {
				break
			}
		}
		o.retries++
		e.log.Debug().Err(err).Str("url", req.URL).Int("attempt", attempt+1).Msg("Retrying request")
	}

	observability.ObserveFetch(stage, observability.OutcomeFailed, time.Since(started))
	return o
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
