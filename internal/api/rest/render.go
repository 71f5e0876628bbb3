package rest

import (
	"bytes"
	"strconv"

	"unibook/internal/book"
)

// renderBook serializes a merged book into the wire shape the display client
// depends on:
//
//	{"bids":[{"rate":"<price>","bittrex":"<qty|0>",...,"total":N,"depth":N,"arbitrage":"true"?},...],
//	 "asks":[...],"partial":true?}
//
// Field names and order are a contract: rate first, then one field per
// configured source (the string "0" when that venue did not quote the
// level), then total and depth as JSON numbers, then the arbitrage marker
// only on crossed levels. Hand-rolled because the source fields are dynamic
// and total/depth must be emitted as unquoted decimal text.
func renderBook(b book.Book, sources []book.Source) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"bids":`)
	renderSide(&buf, b.Bids, sources)
	buf.WriteString(`,"asks":`)
	renderSide(&buf, b.Asks, sources)
	if b.Partial {
		buf.WriteString(`,"partial":true`)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func renderSide(buf *bytes.Buffer, side book.Side, sources []book.Source) {
	buf.WriteByte('[')
	for i, lvl := range side {
		if i > 0 {
			buf.WriteByte(',')
		}
		renderLevel(buf, lvl, sources)
	}
	buf.WriteByte(']')
}

func renderLevel(buf *bytes.Buffer, lvl book.Level, sources []book.Source) {
	buf.WriteString(`{"rate":`)
	buf.WriteString(strconv.Quote(lvl.Price.String()))
	for _, src := range sources {
		qty := "0"
		if q, ok := lvl.BySource[src]; ok {
			qty = q.String()
		}
		buf.WriteByte(',')
		buf.WriteString(strconv.Quote(string(src)))
		buf.WriteByte(':')
		buf.WriteString(strconv.Quote(qty))
	}
	buf.WriteString(`,"total":`)
	buf.WriteString(lvl.Total.String())
	buf.WriteString(`,"depth":`)
	buf.WriteString(lvl.Depth.String())
	if lvl.Crossed {
		buf.WriteString(`,"arbitrage":"true"`)
	}
	buf.WriteByte('}')
}
