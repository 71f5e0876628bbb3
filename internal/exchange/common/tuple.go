package common

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"unibook/internal/book"
)

// Tuple is one [price, quantity] array entry as several venues encode their
// levels. Elements arrive either as JSON strings or bare numbers depending on
// the venue, so they are kept raw until parsed.
type Tuple [2]json.RawMessage

// Points converts tuple-encoded levels into normalized price points,
// preserving the exact decimal text of every cell.
func Points(tuples []Tuple) ([]book.PricePoint, error) {
	out := make([]book.PricePoint, 0, len(tuples))
	for _, t := range tuples {
		price, err := cellDecimal(t[0])
		if err != nil {
			return nil, fmt.Errorf("price: %w", err)
		}
		qty, err := cellDecimal(t[1])
		if err != nil {
			return nil, fmt.Errorf("quantity: %w", err)
		}
		out = append(out, book.PricePoint{Price: price, Qty: qty})
	}
	return out, nil
}

// cellDecimal parses one tuple cell, accepting both "0.025" and 0.025
// encodings.
func cellDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return decimal.Decimal{}, fmt.Errorf("unexpected cell %s", raw)
		}
		s = n.String()
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("bad decimal %q", s)
	}
	return d, nil
}
