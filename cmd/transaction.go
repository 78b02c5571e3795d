package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/performance"
	"github.com/etnz/performance/date"
	"github.com/etnz/performance/renderer"
	"github.com/etnz/performance/store"
	"github.com/google/subcommands"
)

// txCmd records a buy or a sell, depending on kind.
type txCmd struct {
	kind      performance.Kind
	portfolio string
	date      string
}

func (c *txCmd) Name() string { return string(c.kind) }
func (c *txCmd) Synopsis() string {
	return fmt.Sprintf("record a %s transaction of a holding", c.kind)
}
func (c *txCmd) Usage() string {
	return fmt.Sprintf(`pcs %s [-p <portfolio>] [-d <date>] <holding> <quantity> <unit price>

  Records a %s of <quantity> units of the holding, designated by its ID or
  symbol, at <unit price>. The date is a day (YYYY-MM-DD) or an RFC 3339
  instant, now by default.
`, c.kind, c.kind)
}
func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Portfolio ID or name. Defaults to the only portfolio if one exists.")
	f.StringVar(&c.date, "d", "", "Transaction date. Defaults to now.")
}

func (c *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 3 {
		fmt.Fprintln(os.Stderr, "Error: a holding, a quantity and a unit price are required.")
		return subcommands.ExitUsageError
	}
	on, err := parseInstant(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	quantity, err := performance.ParseQuantity(f.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing quantity: %v\n", err)
		return subcommands.ExitUsageError
	}

	e, status := open()
	if e == nil {
		return status
	}
	defer e.Close()

	price, err := performance.ParseMoney(f.Arg(2), e.Currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing unit price: %v\n", err)
		return subcommands.ExitUsageError
	}
	p, err := e.portfolio(ctx, c.portfolio)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	h, err := store.FindHolding(ctx, e.store, p.ID, f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	tx, err := e.store.AddTransaction(ctx, p.ID, h.ID, performance.Transaction{Date: on, Quantity: quantity, UnitPrice: price, Kind: c.kind})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error recording transaction: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Recorded %s of %s %s at %s on %s\n", tx.Kind, tx.Quantity, h.Symbol, tx.UnitPrice, tx.Day())
	return subcommands.ExitSuccess
}

// parseInstant parses a day or an RFC 3339 instant, now when empty. Days are midnight UTC.
func parseInstant(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := date.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time(), nil
}

type listTxCmd struct {
	portfolio string
}

func (*listTxCmd) Name() string     { return "tx" }
func (*listTxCmd) Synopsis() string { return "list the transactions of holdings" }
func (*listTxCmd) Usage() string {
	return `pcs tx [-p <portfolio>] [<holding>...]

  Lists the transactions of the holdings, designated by their ID or symbol, in
  date order. All holdings of the portfolio by default.
`
}
func (c *listTxCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Portfolio ID or name. Defaults to the only portfolio if one exists.")
}

func (c *listTxCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, status := open()
	if e == nil {
		return status
	}
	defer e.Close()

	p, err := e.portfolio(ctx, c.portfolio)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	var holdings []performance.Holding
	if f.NArg() == 0 {
		if holdings, err = e.store.ListHoldings(ctx, p.ID); err != nil {
			fmt.Fprintf(os.Stderr, "Error listing holdings: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	for _, ref := range f.Args() {
		h, err := store.FindHolding(ctx, e.store, p.ID, ref)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		holdings = append(holdings, h)
	}

	var md string
	for _, h := range holdings {
		if h.Transactions, err = e.store.ListTransactions(ctx, h.ID); err != nil {
			fmt.Fprintf(os.Stderr, "Error listing transactions: %v\n", err)
			return subcommands.ExitFailure
		}
		md += renderer.Transactions(h) + "\n\n"
	}
	printMarkdown(md)
	return subcommands.ExitSuccess
}
