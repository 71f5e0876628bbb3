// Package common defines the contract every exchange adapter satisfies and
// the failure taxonomy the orchestrator sorts adapter errors into.
package common

import (
	"context"
	"errors"

	"unibook/internal/book"
)

// Adapter failure classes. Adapters wrap one of these with %w so callers can
// classify with errors.Is regardless of venue.
var (
	// ErrUnavailable: the venue could not be reached or refused the request.
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrTimeout: no complete response before the request deadline.
	ErrTimeout = errors.New("upstream timeout")
	// ErrMalformed: a response arrived but did not parse into the expected
	// shape.
	ErrMalformed = errors.New("upstream malformed")
)

// Adapter fetches one venue's order book for a symbol. Implementations are
// stateless beyond fixed configuration, perform exactly one outbound request
// per call, and never retry; retry and deadline policy belong to the caller.
type Adapter interface {
	Name() book.Source
	FetchBook(ctx context.Context, symbol string) (book.RawBook, error)
}

// Kind maps an adapter error onto its taxonomy label for logs and metrics.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "unknown"
	}
}
