package poloniex

import (
	"context"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"

	"unibook/internal/book"
	"unibook/internal/config"
	"unibook/internal/exchange/common"
	"unibook/internal/infra/network"
)

type Adapter struct {
	cfg  config.Exchange
	http *http.Client
}

func New(cfg config.Exchange) *Adapter { return &Adapter{cfg: cfg, http: network.NewHTTPClient()} }

func (a *Adapter) Name() book.Source { return book.Poloniex }

// Poloniex quotes levels as [price, quantity] tuples with string prices and
// number quantities, and signals failures (unknown pair included) with an
// error field in an otherwise 200 response.
type response struct {
	Error string         `json:"error"`
	Bids  []common.Tuple `json:"bids"`
	Asks  []common.Tuple `json:"asks"`
}

func (a *Adapter) FetchBook(ctx context.Context, symbol string) (book.RawBook, error) {
	url := common.BuildURL(a.cfg.Scheme, a.cfg.Host, a.cfg.Path, symbol)
	body, err := common.Get(ctx, a.http, url)
	if err != nil {
		return book.RawBook{}, err
	}
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return book.RawBook{}, fmt.Errorf("%w: decode: %v", common.ErrMalformed, err)
	}
	if r.Error != "" {
		return book.RawBook{}, fmt.Errorf("%w: %s", common.ErrMalformed, r.Error)
	}
	bids, err := common.Points(r.Bids)
	if err != nil {
		return book.RawBook{}, fmt.Errorf("%w: bids: %v", common.ErrMalformed, err)
	}
	asks, err := common.Points(r.Asks)
	if err != nil {
		return book.RawBook{}, fmt.Errorf("%w: asks: %v", common.ErrMalformed, err)
	}
	return book.RawBook{Bids: bids, Asks: asks}, nil
}
