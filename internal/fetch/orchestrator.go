// Package fetch fans one request out to every configured exchange adapter
// and joins the results under a shared deadline.
package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"unibook/internal/book"
	"unibook/internal/exchange/common"
	"unibook/internal/infra/metrics"
)

// ErrAllFailed is returned when no adapter produced a book for the request.
// Individual adapter failures never surface through Collect; they are logged
// and counted here.
var ErrAllFailed = errors.New("all upstreams failed")

type Orchestrator struct {
	adapters []common.Adapter
	timeout  time.Duration
	logger   zerolog.Logger
}

func New(adapters []common.Adapter, timeout time.Duration, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{adapters: adapters, timeout: timeout, logger: logger}
}

type result struct {
	source book.Source
	raw    book.RawBook
	err    error
}

// Collect fetches the symbol's book from every adapter concurrently, so the
// request costs roughly the slowest venue rather than the sum of all of
// them. Venues that fail or miss the deadline are dropped; partial reports
// whether that happened. Only when every venue fails does Collect fail.
func (o *Orchestrator) Collect(ctx context.Context, symbol string) (books map[book.Source]book.RawBook, partial bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	// Buffered so adapters finishing after the deadline never block.
	results := make(chan result, len(o.adapters))
	for _, ad := range o.adapters {
		go func(ad common.Adapter) {
			start := time.Now()
			raw, err := ad.FetchBook(ctx, symbol)
			if err == nil {
				metrics.FetchLatency.WithLabelValues(string(ad.Name())).Observe(time.Since(start).Seconds())
			}
			results <- result{source: ad.Name(), raw: raw, err: err}
		}(ad)
	}

	books = make(map[book.Source]book.RawBook, len(o.adapters))
	failed := 0
	received := 0
join:
	for received < len(o.adapters) {
		select {
		case res := <-results:
			received++
			if res.err != nil {
				failed++
				kind := common.Kind(res.err)
				metrics.UpstreamErrorsTotal.WithLabelValues(string(res.source), kind).Inc()
				o.logger.Warn().
					Str("source", string(res.source)).
					Str("symbol", symbol).
					Str("kind", kind).
					Err(res.err).
					Msg("upstream fetch failed")
				continue
			}
			books[res.source] = res.raw
		case <-ctx.Done():
			// Deadline hit with adapters still in flight; whatever they
			// eventually produce is discarded.
			stragglers := len(o.adapters) - received
			failed += stragglers
			o.logger.Warn().
				Str("symbol", symbol).
				Int("pending", stragglers).
				Msg("fetch deadline elapsed, abandoning in-flight upstreams")
			break join
		}
	}

	if len(books) == 0 {
		metrics.RequestsFailedTotal.Inc()
		return nil, false, ErrAllFailed
	}
	if failed > 0 {
		metrics.PartialResultsTotal.Inc()
		return books, true, nil
	}
	return books, false, nil
}
