package performance

import (
	"context"

	"github.com/etnz/performance/date"
)

// ValuePoint is the portfolio value on a given day.
type ValuePoint struct {
	Date  date.Date `json:"date"`
	Value Money     `json:"value"`
}

// position walks a holding's transactions day after day.
type position struct {
	txs    []Transaction // sorted
	next   int           // index of the first transaction not yet applied
	raw    Quantity      // buys minus sells, unclamped
	symbol string
}

// advance applies every transaction dated on or before d.
func (p *position) advance(d date.Date) {
	for ; p.next < len(p.txs) && !p.txs[p.next].Day().After(d); p.next++ {
		tx := p.txs[p.next]
		switch tx.Kind {
		case Buy:
			p.raw = p.raw.Add(tx.Quantity)
		case Sell:
			p.raw = p.raw.Sub(tx.Quantity)
		}
	}
}

// Reconstruct returns one point per day of window: the sum over holdings of
// the position held at the end of that day, valued at prices[symbol].
//
// A negative position counts as zero on that day; the running position
// itself is not clamped, so a day's quantity is exactly what a fold of all
// the transactions up to that day gives. A missing price counts as zero.
//
// The context is checked between days.
func Reconstruct(ctx context.Context, window date.Range, holdings []Holding, prices map[string]Money) ([]ValuePoint, error) {
	positions := make([]*position, len(holdings))
	for i, h := range holdings {
		positions[i] = &position{txs: SortTransactions(h.Transactions), symbol: h.Symbol}
	}

	series := make([]ValuePoint, 0, window.Len())
	for d := range window.Days() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var value Money
		for _, p := range positions {
			p.advance(d)
			value = value.Add(prices[p.symbol].Mul(p.raw.Floor()))
		}
		series = append(series, ValuePoint{Date: d, Value: value})
	}
	return series, nil
}
