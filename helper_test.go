package performance

import (
	"context"
	"fmt"
	"time"

	"github.com/etnz/performance/date"
	"github.com/google/go-cmp/cmp"
)

// valueComparers compares decimal based values and dates by value.
var valueComparers = cmp.Options{
	cmp.Comparer(func(a, b date.Date) bool { return a == b }),
	cmp.Comparer(func(a, b Money) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b Quantity) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b Percent) bool { return a.Equal(b) }),
}

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// NO is a helper for test to create money from const with no currency set
func NO(v float64) Money { return M(v, "") }

// day returns noon UTC of a "2006-01-02" day.
func day(s string) time.Time { return date.MustParse(s).Time().Add(12 * time.Hour) }

var txSeq int

func buy(on string, q, price float64) Transaction {
	txSeq++
	return NewTransaction(fmt.Sprint("tx", txSeq), "", day(on), Buy, Q(q), NO(price))
}

func sell(on string, q, price float64) Transaction {
	txSeq++
	return NewTransaction(fmt.Sprint("tx", txSeq), "", day(on), Sell, Q(q), NO(price))
}

func holding(id, symbol string, txs ...Transaction) Holding {
	for i := range txs {
		txs[i].HoldingID = id
	}
	return Holding{ID: id, PortfolioID: "p1", Symbol: symbol, DisplayName: symbol + " Inc.", Kind: Stock, Transactions: txs}
}

// fakeRepo is a read-only Repository over fixed data.
type fakeRepo struct {
	portfolios map[string]Portfolio
	holdings   []Holding // with their transactions
}

func (r *fakeRepo) GetPortfolio(ctx context.Context, id string) (Portfolio, error) {
	p, ok := r.portfolios[id]
	if !ok {
		return Portfolio{}, fmt.Errorf("portfolio %q: %w", id, ErrNotFound)
	}
	return p, nil
}

func (r *fakeRepo) ListHoldings(ctx context.Context, portfolioID string) ([]Holding, error) {
	var list []Holding
	for _, h := range r.holdings {
		if h.PortfolioID == portfolioID {
			h.Transactions = nil
			list = append(list, h)
		}
	}
	return list, nil
}

func (r *fakeRepo) ListTransactions(ctx context.Context, holdingID string) ([]Transaction, error) {
	for _, h := range r.holdings {
		if h.ID == holdingID {
			return h.Transactions, nil
		}
	}
	return nil, fmt.Errorf("holding %q: %w", holdingID, ErrNotFound)
}

// fixedPrices is an oracle that never fluctuates.
func fixedPrices(prices map[string]float64) PriceOracle {
	return OracleFunc(func(ctx context.Context, symbol string) (Money, error) {
		p, ok := prices[symbol]
		if !ok {
			return Money{}, fmt.Errorf("%w: %q", ErrPriceUnavailable, symbol)
		}
		return NO(p), nil
	})
}
