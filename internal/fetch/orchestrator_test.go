package fetch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unibook/internal/book"
	"unibook/internal/exchange/common"
)

type fakeAdapter struct {
	name  book.Source
	raw   book.RawBook
	err   error
	delay time.Duration
}

func (f *fakeAdapter) Name() book.Source { return f.name }

func (f *fakeAdapter) FetchBook(ctx context.Context, symbol string) (book.RawBook, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return book.RawBook{}, fmt.Errorf("%w: %v", common.ErrTimeout, ctx.Err())
		}
	}
	if f.err != nil {
		return book.RawBook{}, f.err
	}
	return f.raw, nil
}

func oneBid(price string) book.RawBook {
	return book.RawBook{Bids: []book.PricePoint{{
		Price: decimal.RequireFromString(price),
		Qty:   decimal.RequireFromString("1"),
	}}}
}

func TestCollectAllSucceed(t *testing.T) {
	orch := New([]common.Adapter{
		&fakeAdapter{name: "a", raw: oneBid("1")},
		&fakeAdapter{name: "b", raw: oneBid("2")},
		&fakeAdapter{name: "c", raw: oneBid("3")},
	}, time.Second, zerolog.Nop())

	books, partial, err := orch.Collect(context.Background(), "ETH")
	require.NoError(t, err)
	assert.False(t, partial)
	assert.Len(t, books, 3)
}

func TestCollectToleratesPartialFailure(t *testing.T) {
	orch := New([]common.Adapter{
		&fakeAdapter{name: "a", raw: oneBid("1")},
		&fakeAdapter{name: "b", err: fmt.Errorf("%w: connection refused", common.ErrUnavailable)},
		&fakeAdapter{name: "c", raw: oneBid("3")},
	}, time.Second, zerolog.Nop())

	books, partial, err := orch.Collect(context.Background(), "ETH")
	require.NoError(t, err, "one dead venue must not fail the request")
	assert.True(t, partial)
	assert.Len(t, books, 2)
	assert.Contains(t, books, book.Source("a"))
	assert.Contains(t, books, book.Source("c"))
	assert.NotContains(t, books, book.Source("b"))
}

func TestCollectAllFailed(t *testing.T) {
	orch := New([]common.Adapter{
		&fakeAdapter{name: "a", err: fmt.Errorf("%w: refused", common.ErrUnavailable)},
		&fakeAdapter{name: "b", err: fmt.Errorf("%w: bad json", common.ErrMalformed)},
		&fakeAdapter{name: "c", err: fmt.Errorf("%w: deadline", common.ErrTimeout)},
	}, time.Second, zerolog.Nop())

	books, partial, err := orch.Collect(context.Background(), "ETH")
	require.ErrorIs(t, err, ErrAllFailed)
	assert.False(t, partial)
	assert.Nil(t, books)
}

func TestCollectDeadlineDropsSlowVenue(t *testing.T) {
	orch := New([]common.Adapter{
		&fakeAdapter{name: "fast", raw: oneBid("1")},
		&fakeAdapter{name: "slow", raw: oneBid("2"), delay: 2 * time.Second},
	}, 50*time.Millisecond, zerolog.Nop())

	start := time.Now()
	books, partial, err := orch.Collect(context.Background(), "ETH")
	require.NoError(t, err)
	assert.True(t, partial)
	assert.Len(t, books, 1)
	assert.Contains(t, books, book.Source("fast"))
	assert.Less(t, time.Since(start), time.Second, "slow venue must not stall the join")
}

func TestCollectRunsConcurrently(t *testing.T) {
	// Three venues at ~40ms each: a sequential orchestrator would need
	// ~120ms, the fan-out roughly the slowest one.
	adapters := []common.Adapter{
		&fakeAdapter{name: "a", raw: oneBid("1"), delay: 40 * time.Millisecond},
		&fakeAdapter{name: "b", raw: oneBid("2"), delay: 40 * time.Millisecond},
		&fakeAdapter{name: "c", raw: oneBid("3"), delay: 40 * time.Millisecond},
	}
	orch := New(adapters, time.Second, zerolog.Nop())

	start := time.Now()
	books, _, err := orch.Collect(context.Background(), "ETH")
	require.NoError(t, err)
	assert.Len(t, books, 3)
	assert.Less(t, time.Since(start), 110*time.Millisecond)
}
