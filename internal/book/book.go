// Package book holds the order book data model shared by the exchange
// adapters, the fetch orchestrator and the aggregator.
//
// All prices and quantities are decimal.Decimal end-to-end. The upstream
// venues quote numeric-like strings, and repeated summation of float64
// approximations drifts; decimals keep merge totals and cumulative depth
// exact.
package book

import "github.com/shopspring/decimal"

// Source identifies one configured upstream exchange. It is used only as a
// map key and as the per-venue field name in the API output.
type Source string

const (
	Bittrex  Source = "bittrex"
	Poloniex Source = "poloniex"
	Binance  Source = "binance"
)

// PricePoint is one normalized (price, quantity) pair from a single venue.
type PricePoint struct {
	Price decimal.Decimal
	Qty   decimal.Decimal
}

// RawBook is a venue's order book as returned by one adapter fetch, already
// normalized to PricePoints but not yet merged. It lives for the duration of
// a single request.
type RawBook struct {
	Bids []PricePoint
	Asks []PricePoint
}

// Empty reports whether the book carries no levels on either side.
func (b RawBook) Empty() bool { return len(b.Bids) == 0 && len(b.Asks) == 0 }

// Level is one merged price level: every venue that quoted this exact price,
// the summed quantity, cumulative depth from the best level down to this one,
// and whether the level crosses the opposing side of the merged book.
type Level struct {
	Price    decimal.Decimal
	BySource map[Source]decimal.Decimal
	Total    decimal.Decimal
	Depth    decimal.Decimal
	Crossed  bool
}

// Side is an ordered sequence of merged levels, unique by price. Bids are
// sorted descending, asks ascending, so the best price is first on both
// sides and Depth is non-decreasing along the slice.
type Side []Level

// Book is the consolidated view returned for one request. Partial is set
// when at least one configured venue failed and the book was merged from the
// survivors.
type Book struct {
	Bids    Side
	Asks    Side
	Partial bool
}
