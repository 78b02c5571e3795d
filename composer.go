package performance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/etnz/performance/date"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Window is a requested reporting window. Zero dates select the defaults:
// the portfolio creation day for Start, today (UTC) for End.
type Window struct {
	Start, End date.Date
}

// Composer assembles performance reports.
type Composer struct {
	Repo     Repository
	Oracle   PriceOracle
	Currency string // currency of every amount in the report
	Workers  int    // max concurrent oracle calls and holding evaluations, 0 means unlimited
	MaxDays  int    // longest window accepted, 0 means unlimited
	Log      zerolog.Logger

	now func() time.Time
}

// DefaultMaxDays bounds the windows of a NewComposer to a century.
const DefaultMaxDays = 36600

// NewComposer returns a Composer with a silent logger, 8 workers and windows
// of at most DefaultMaxDays.
func NewComposer(repo Repository, oracle PriceOracle, currency string) *Composer {
	return &Composer{
		Repo:     repo,
		Oracle:   oracle,
		Currency: currency,
		Workers:  8,
		MaxDays:  DefaultMaxDays,
		Log:      zerolog.Nop(),
		now:      time.Now,
	}
}

func (c *Composer) today() date.Date {
	if c.now == nil {
		return date.Today()
	}
	return date.FromTime(c.now())
}

// ResolveWindow returns the effective day range of w for portfolio p.
func (c *Composer) ResolveWindow(p Portfolio, w Window) date.Range {
	r := date.Range{From: w.Start, To: w.End}
	if r.From.IsZero() {
		r.From = date.FromTime(p.CreatedDate)
	}
	if r.To.IsZero() {
		r.To = c.today()
	}
	return r
}

// Report loads the portfolio id and composes its report.
//
// ok is false when the portfolio does not exist; nothing is computed then.
func (c *Composer) Report(ctx context.Context, id string, w Window) (report *PerformanceReport, ok bool, err error) {
	p, holdings, err := Load(ctx, c.Repo, id)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	report, err = c.Compose(ctx, p, holdings, w)
	if err != nil {
		return nil, true, err
	}
	return report, true, nil
}

// Compose computes the report of portfolio p from its fully loaded holdings.
//
// Each distinct symbol is priced once, the same price values the totals and
// every day of the series.
func (c *Composer) Compose(ctx context.Context, p Portfolio, holdings []Holding, w Window) (*PerformanceReport, error) {
	start := time.Now()
	window := c.ResolveWindow(p, w)
	if c.MaxDays > 0 && window.Len() > c.MaxDays {
		return nil, fmt.Errorf("%w: window %s is longer than %d days", ErrInvalid, window, c.MaxDays)
	}
	log := c.Log.With().Str("portfolio", p.ID).Logger()

	symbols := make([]string, len(holdings))
	for i, h := range holdings {
		symbols[i] = h.Symbol
	}
	prices, err := FetchPrices(ctx, c.Oracle, symbols, c.Workers)
	if err != nil {
		return nil, err
	}
	for s, price := range prices {
		prices[s] = price.In(c.Currency)
	}

	perfs, err := c.evaluate(ctx, holdings, prices)
	if err != nil {
		return nil, err
	}

	report := &PerformanceReport{
		PortfolioID:     p.ID,
		Name:            p.Name,
		Currency:        c.Currency,
		Start:           window.From,
		End:             window.To,
		TotalValue:      M(0, c.Currency),
		TotalRealized:   M(0, c.Currency),
		TotalUnrealized: M(0, c.Currency),
		Allocation:      make(map[string]Percent),
		Holdings:        perfs,
	}
	bySymbol := make(map[string]Money)
	for _, hp := range perfs {
		if hp.Unmatched.IsPositive() {
			log.Warn().Str("holding", hp.HoldingID).Str("symbol", hp.Symbol).Stringer("unmatched", hp.Unmatched).Msg("sells exceed the quantity bought, excess ignored")
		}
		report.TotalValue = report.TotalValue.Add(hp.CurrentValue)
		report.TotalRealized = report.TotalRealized.Add(hp.Realized)
		report.TotalUnrealized = report.TotalUnrealized.Add(hp.Unrealized)
		bySymbol[hp.Symbol] = bySymbol[hp.Symbol].Add(hp.CurrentValue)
	}
	if report.TotalValue.IsPositive() {
		for s, v := range bySymbol {
			report.Allocation[s] = PercentOf(v, report.TotalValue)
		}
	}

	series, err := Reconstruct(ctx, window, holdings, prices)
	if err != nil {
		return nil, err
	}
	for i := range series {
		series[i].Value = series[i].Value.In(c.Currency)
	}
	report.Series = series

	log.Debug().Int("holdings", len(holdings)).Int("days", len(series)).Dur("elapsed", time.Since(start)).Msg("report composed")
	return report, nil
}

// evaluate runs the ledger of every holding concurrently. Results keep the
// order of holdings.
func (c *Composer) evaluate(ctx context.Context, holdings []Holding, prices map[string]Money) ([]HoldingPerformance, error) {
	perfs := make([]HoldingPerformance, len(holdings))
	g, ctx := errgroup.WithContext(ctx)
	if c.Workers > 0 {
		g.SetLimit(c.Workers)
	}
	for i, h := range holdings {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			price, ok := prices[h.Symbol]
			if !ok {
				return fmt.Errorf("no price for %q", h.Symbol)
			}
			perfs[i] = Evaluate(h, Replay(h.Transactions), price)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return perfs, nil
}
