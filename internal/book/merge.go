package book

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DepthScale is the number of fractional digits kept on the running depth
// total, the smallest unit of the traded asset.
const DepthScale = 8

// Merge consolidates the per-venue books into one Book. It is pure: no I/O,
// deterministic for a given input.
//
// Levels merge on exact price equality only. Numerically equal decimals can
// carry different exponents ("0.025" vs "0.02500"), so the accumulation map
// is keyed by the canonical string form, never by the Decimal struct itself.
//
// Depth is accumulated on the running total and rounded to DepthScale at
// every step, so the depth at level k is the rounded sum of all totals up to
// and including k. Rounding individual contributions instead would let the
// error compound.
func Merge(books map[Source]RawBook) Book {
	bids := mergeSide(books, func(b RawBook) []PricePoint { return b.Bids }, true)
	asks := mergeSide(books, func(b RawBook) []PricePoint { return b.Asks }, false)

	// A bid above the best merged ask (or an ask below the best merged bid)
	// is executable across venues: the arbitrage signal. With an empty
	// opposing side there is no reference price and nothing is flagged.
	if len(bids) > 0 && len(asks) > 0 {
		bestBid := bids[0].Price
		bestAsk := asks[0].Price
		for i := range bids {
			if bids[i].Price.GreaterThan(bestAsk) {
				bids[i].Crossed = true
			}
		}
		for i := range asks {
			if asks[i].Price.LessThan(bestBid) {
				asks[i].Crossed = true
			}
		}
	}

	return Book{Bids: bids, Asks: asks}
}

func mergeSide(books map[Source]RawBook, pick func(RawBook) []PricePoint, descending bool) Side {
	byPrice := map[string]*Level{}
	for src, raw := range books {
		for _, pp := range pick(raw) {
			key := pp.Price.String()
			lvl, ok := byPrice[key]
			if !ok {
				lvl = &Level{Price: pp.Price, BySource: map[Source]decimal.Decimal{}}
				byPrice[key] = lvl
			}
			// Add, not assign: a venue repeating a price within one
			// snapshot still yields a single level.
			lvl.BySource[src] = lvl.BySource[src].Add(pp.Qty)
			lvl.Total = lvl.Total.Add(pp.Qty)
		}
	}

	side := make(Side, 0, len(byPrice))
	for _, lvl := range byPrice {
		side = append(side, *lvl)
	}
	sort.Slice(side, func(i, j int) bool {
		if descending {
			return side[i].Price.GreaterThan(side[j].Price)
		}
		return side[i].Price.LessThan(side[j].Price)
	})

	depth := decimal.Zero
	for i := range side {
		depth = depth.Add(side[i].Total).Round(DepthScale)
		side[i].Depth = depth
	}
	return side
}
