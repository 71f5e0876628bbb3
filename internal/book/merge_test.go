package book

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pp(price, qty string) PricePoint {
	return PricePoint{Price: decimal.RequireFromString(price), Qty: decimal.RequireFromString(qty)}
}

func TestMergeThreeVenues(t *testing.T) {
	// A quotes a bid at 100; B the same bid plus an ask at 101; C an ask at
	// 99 that undercuts A's and B's bid.
	books := map[Source]RawBook{
		"a": {Bids: []PricePoint{pp("100", "2")}},
		"b": {Bids: []PricePoint{pp("100", "3")}, Asks: []PricePoint{pp("101", "1")}},
		"c": {Asks: []PricePoint{pp("99", "5")}},
	}

	merged := Merge(books)

	require.Len(t, merged.Bids, 1)
	bid := merged.Bids[0]
	assert.True(t, bid.Price.Equal(decimal.RequireFromString("100")))
	assert.True(t, bid.Total.Equal(decimal.RequireFromString("5")))
	assert.True(t, bid.Depth.Equal(decimal.RequireFromString("5")))
	assert.True(t, bid.BySource["a"].Equal(decimal.RequireFromString("2")))
	assert.True(t, bid.BySource["b"].Equal(decimal.RequireFromString("3")))
	assert.True(t, bid.Crossed, "bid at 100 crosses the best ask at 99")

	require.Len(t, merged.Asks, 2)
	assert.True(t, merged.Asks[0].Price.Equal(decimal.RequireFromString("99")), "asks sorted ascending")
	assert.True(t, merged.Asks[0].Crossed, "ask at 99 crosses the best bid at 100")
	assert.True(t, merged.Asks[0].Depth.Equal(decimal.RequireFromString("5")))
	assert.True(t, merged.Asks[1].Price.Equal(decimal.RequireFromString("101")))
	assert.False(t, merged.Asks[1].Crossed)
	assert.True(t, merged.Asks[1].Depth.Equal(decimal.RequireFromString("6")))
}

func TestMergeEqualPricesWithDifferentExponents(t *testing.T) {
	// "0.025" and "0.02500" are the same price and must land on one level.
	books := map[Source]RawBook{
		"a": {Bids: []PricePoint{pp("0.025", "1")}},
		"b": {Bids: []PricePoint{pp("0.02500", "2")}},
	}

	merged := Merge(books)

	require.Len(t, merged.Bids, 1)
	assert.True(t, merged.Bids[0].Total.Equal(decimal.RequireFromString("3")))
}

func TestMergeCrossedFlagsFlipWithSides(t *testing.T) {
	bids := []PricePoint{pp("100", "1")}
	asks := []PricePoint{pp("99", "1")}

	merged := Merge(map[Source]RawBook{"a": {Bids: bids}, "b": {Asks: asks}})
	require.Len(t, merged.Bids, 1)
	require.Len(t, merged.Asks, 1)
	assert.True(t, merged.Bids[0].Crossed)
	assert.True(t, merged.Asks[0].Crossed)

	// Swapping the sides removes the cross entirely: bid 99 under ask 100.
	flipped := Merge(map[Source]RawBook{"a": {Bids: asks}, "b": {Asks: bids}})
	assert.False(t, flipped.Bids[0].Crossed)
	assert.False(t, flipped.Asks[0].Crossed)
}

func TestMergeEqualBestPricesNotCrossed(t *testing.T) {
	// Crossing is strict: a bid equal to the best ask is not an arbitrage.
	merged := Merge(map[Source]RawBook{
		"a": {Bids: []PricePoint{pp("100", "1")}},
		"b": {Asks: []PricePoint{pp("100", "1")}},
	})
	assert.False(t, merged.Bids[0].Crossed)
	assert.False(t, merged.Asks[0].Crossed)
}

func TestMergeEmptySides(t *testing.T) {
	merged := Merge(map[Source]RawBook{
		"a": {Bids: []PricePoint{pp("100", "1"), pp("101", "2")}},
		"b": {},
	})
	require.Len(t, merged.Bids, 2)
	assert.Empty(t, merged.Asks)
	for _, lvl := range merged.Bids {
		assert.False(t, lvl.Crossed, "no opposing side, nothing can cross")
	}

	empty := Merge(map[Source]RawBook{})
	assert.Empty(t, empty.Bids)
	assert.Empty(t, empty.Asks)
}

func TestMergeRandomizedStaysExact(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		sources := []Source{"a", "b", "c"}
		books := map[Source]RawBook{}
		// Exact per-price sums computed independently of Merge.
		wantTotals := map[string]decimal.Decimal{}

		for _, src := range sources {
			n := rng.Intn(40)
			bids := make([]PricePoint, 0, n)
			for i := 0; i < n; i++ {
				// Prices from a small pool force cross-venue collisions;
				// up to 8 fractional digits like the real venues.
				price := decimal.New(int64(rng.Intn(500)+1), -int32(rng.Intn(9)))
				qty := decimal.New(int64(rng.Intn(1_000_000)+1), -8)
				bids = append(bids, PricePoint{Price: price, Qty: qty})
				key := price.String()
				wantTotals[key] = wantTotals[key].Add(qty)
			}
			books[src] = RawBook{Bids: bids}
		}

		merged := Merge(books)

		assert.Len(t, merged.Bids, len(wantTotals), "one level per distinct price")
		runningSum := decimal.Zero
		for i, lvl := range merged.Bids {
			want, ok := wantTotals[lvl.Price.String()]
			require.True(t, ok, "unexpected merged price %s", lvl.Price)
			assert.True(t, lvl.Total.Equal(want),
				"total at %s: got %s want %s", lvl.Price, lvl.Total, want)

			if i > 0 {
				prev := merged.Bids[i-1]
				assert.True(t, prev.Price.GreaterThan(lvl.Price), "bids strictly descending")
				assert.True(t, lvl.Depth.GreaterThanOrEqual(prev.Depth), "depth non-decreasing")
			}
			runningSum = runningSum.Add(lvl.Total).Round(DepthScale)
			assert.True(t, lvl.Depth.Equal(runningSum),
				fmt.Sprintf("depth at level %d: got %s want %s", i, lvl.Depth, runningSum))
		}
	}
}

func TestMergeSameSourceRepeatsPrice(t *testing.T) {
	// A venue repeating a price within one snapshot collapses into one level.
	merged := Merge(map[Source]RawBook{
		"a": {Asks: []PricePoint{pp("10", "1"), pp("10", "2")}},
	})
	require.Len(t, merged.Asks, 1)
	assert.True(t, merged.Asks[0].Total.Equal(decimal.RequireFromString("3")))
	assert.True(t, merged.Asks[0].BySource["a"].Equal(decimal.RequireFromString("3")))
}
