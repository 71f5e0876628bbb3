// Package rest serves the consolidated order book over HTTP: a polling JSON
// endpoint and a websocket push stream with the same payload shape.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"unibook/internal/book"
	"unibook/internal/fetch"
	"unibook/internal/infra/metrics"
)

// Collector is the fan-out side of the pipeline; *fetch.Orchestrator is the
// production implementation.
type Collector interface {
	Collect(ctx context.Context, symbol string) (map[book.Source]book.RawBook, bool, error)
}

type Server struct {
	collector Collector
	sources   []book.Source // fixed output field order
	logger    zerolog.Logger
	mux       *http.ServeMux
	streamInt time.Duration
}

func New(collector Collector, sources []book.Source, streamInterval time.Duration, logger zerolog.Logger) *Server {
	s := &Server{
		collector: collector,
		sources:   sources,
		logger:    logger,
		mux:       http.NewServeMux(),
		streamInt: streamInterval,
	}
	s.mux.HandleFunc("/api", s.handleBook)
	s.mux.HandleFunc("/ws", s.handleStream)
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	// The symbol is forwarded as-is; an unknown or empty currency surfaces
	// as upstream failures, which is the contract the display client
	// already handles.
	currency := r.URL.Query().Get("currency")

	merged, err := s.mergedBook(r.Context(), currency)
	if err != nil {
		s.writeError(w, currency, err)
		return
	}

	body, err := renderBook(merged, s.sources)
	if err != nil {
		s.logger.Error().Err(err).Str("currency", currency).Msg("render failed")
		writeJSON(w, http.StatusInternalServerError, []byte(`{"error":"internal"}`))
		return
	}
	metrics.RequestsTotal.Inc()
	metrics.RequestLatency.Observe(time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, body)
}

// mergedBook runs one collect+merge cycle and records the merge-shape
// metrics.
func (s *Server) mergedBook(ctx context.Context, currency string) (book.Book, error) {
	books, partial, err := s.collector.Collect(ctx, currency)
	if err != nil {
		return book.Book{}, err
	}
	merged := book.Merge(books)
	merged.Partial = partial

	if (len(merged.Bids) == 0) != (len(merged.Asks) == 0) {
		s.logger.Debug().Str("currency", currency).Msg("one-sided merged book, no crossed levels computable")
	}

	metrics.MergedLevels.WithLabelValues("bids").Observe(float64(len(merged.Bids)))
	metrics.MergedLevels.WithLabelValues("asks").Observe(float64(len(merged.Asks)))
	for _, lvl := range merged.Bids {
		if lvl.Crossed {
			metrics.CrossedLevelsTotal.Inc()
		}
	}
	for _, lvl := range merged.Asks {
		if lvl.Crossed {
			metrics.CrossedLevelsTotal.Inc()
		}
	}
	return merged, nil
}

func (s *Server) writeError(w http.ResponseWriter, currency string, err error) {
	if errors.Is(err, fetch.ErrAllFailed) {
		s.logger.Error().Str("currency", currency).Msg("no upstream produced a book")
		writeJSON(w, http.StatusBadGateway, []byte(`{"error":"all_upstreams_failed"}`))
		return
	}
	s.logger.Error().Err(err).Str("currency", currency).Msg("book request failed")
	writeJSON(w, http.StatusInternalServerError, []byte(`{"error":"internal"}`))
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
