package binance

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

func (a *Adapter) Name() book.Source { return book.Binance }

// Binance quotes levels as ["price", "quantity"] string tuples. Errors
// come back as {"code": ..., "msg": ...} with a non-200 status, so a decoded
// body without sides is treated as malformed.
type response struct {
	Bids []common.Tuple `json:"bids"`
	Asks []common.Tuple `json:"asks"`
	Code int            `json:"code"`
	Msg  string         `json:"msg"`
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
	if r.Code != 0 {
		return book.RawBook{}, fmt.Errorf("%w: code %d: %s", common.ErrMalformed, r.Code, r.Msg)
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
