package bittrex

import (
	"context"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

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

func (a *Adapter) Name() book.Source { return book.Bittrex }

// Bittrex wraps both sides in a success envelope and quotes levels as
// objects with capitalized field names and bare-number values.
type entry struct {
	Quantity json.Number `json:"Quantity"`
	Rate     json.Number `json:"Rate"`
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Result  *struct {
		Buy  []entry `json:"buy"`
		Sell []entry `json:"sell"`
	} `json:"result"`
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
	if !r.Success || r.Result == nil {
		return book.RawBook{}, fmt.Errorf("%w: success=%v message=%q", common.ErrMalformed, r.Success, r.Message)
	}
	bids, err := points(r.Result.Buy)
	if err != nil {
		return book.RawBook{}, fmt.Errorf("%w: buy: %v", common.ErrMalformed, err)
	}
	asks, err := points(r.Result.Sell)
	if err != nil {
		return book.RawBook{}, fmt.Errorf("%w: sell: %v", common.ErrMalformed, err)
	}
	return book.RawBook{Bids: bids, Asks: asks}, nil
}

func points(entries []entry) ([]book.PricePoint, error) {
	out := make([]book.PricePoint, 0, len(entries))
	for _, e := range entries {
		price, err := decimal.NewFromString(e.Rate.String())
		if err != nil {
			return nil, fmt.Errorf("bad rate %q", e.Rate)
		}
		qty, err := decimal.NewFromString(e.Quantity.String())
		if err != nil {
			return nil, fmt.Errorf("bad quantity %q", e.Quantity)
		}
		out = append(out, book.PricePoint{Price: price, Qty: qty})
	}
	return out, nil
}
