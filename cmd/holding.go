package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/performance"
	"github.com/etnz/performance/eodhd"
	"github.com/etnz/performance/renderer"
	"github.com/etnz/performance/store"
	"github.com/google/subcommands"
)

// portfolio resolves ref, by ID or name. An empty ref designates the only portfolio, if there is one.
func (e *env) portfolio(ctx context.Context, ref string) (performance.Portfolio, error) {
	if ref != "" {
		return store.FindPortfolio(ctx, e.store, ref)
	}
	list, err := e.store.ListPortfolios(ctx)
	if err != nil {
		return performance.Portfolio{}, err
	}
	if len(list) != 1 {
		return performance.Portfolio{}, fmt.Errorf("%d portfolios, select one with -p", len(list))
	}
	return list[0], nil
}

type addHoldingCmd struct {
	portfolio string
	kind      string
}

func (*addHoldingCmd) Name() string     { return "add-holding" }
func (*addHoldingCmd) Synopsis() string { return "add a holding to a portfolio" }
func (*addHoldingCmd) Usage() string {
	return `pcs add-holding [-p <portfolio>] [-kind <kind>] <symbol> <name>

  Adds a holding of <symbol> to the portfolio. Kind is one of stock, bond,
  etf, crypto, fund, cash or other.
`
}
func (c *addHoldingCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Portfolio ID or name. Defaults to the only portfolio if one exists.")
	f.StringVar(&c.kind, "kind", string(performance.Stock), "Kind of asset.")
}

func (c *addHoldingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Error: a symbol and a name are required.")
		return subcommands.ExitUsageError
	}
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
	h := performance.Holding{
		Symbol:      f.Arg(0),
		DisplayName: strings.Join(f.Args()[1:], " "),
		Kind:        performance.AssetKind(c.kind),
	}
	h, err = e.store.AddHolding(ctx, p.ID, h)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding holding: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Added %s %q to %q (%s)\n", h.Symbol, h.DisplayName, p.Name, h.ID)
	return subcommands.ExitSuccess
}

type updateHoldingCmd struct {
	portfolio string
	symbol    string
	name      string
	kind      string
}

func (*updateHoldingCmd) Name() string     { return "update-holding" }
func (*updateHoldingCmd) Synopsis() string { return "update the symbol, name or kind of a holding" }
func (*updateHoldingCmd) Usage() string {
	return `pcs update-holding [-p <portfolio>] [-symbol <symbol>] [-name <name>] [-kind <kind>] <holding>

  Updates a holding, designated by its ID or symbol. Unset flags keep their value.
`
}
func (c *updateHoldingCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Portfolio ID or name. Defaults to the only portfolio if one exists.")
	f.StringVar(&c.symbol, "symbol", "", "New symbol.")
	f.StringVar(&c.name, "name", "", "New display name.")
	f.StringVar(&c.kind, "kind", "", "New kind of asset.")
}

func (c *updateHoldingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one holding is required.")
		return subcommands.ExitUsageError
	}
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
	h, err := store.FindHolding(ctx, e.store, p.ID, f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if c.symbol != "" {
		h.Symbol = c.symbol
	}
	if c.name != "" {
		h.DisplayName = c.name
	}
	if c.kind != "" {
		h.Kind = performance.AssetKind(c.kind)
	}
	h, err = e.store.UpdateHolding(ctx, p.ID, h.ID, h)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error updating holding: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Updated %s %q (%s)\n", h.Symbol, h.DisplayName, h.Kind)
	return subcommands.ExitSuccess
}

type removeHoldingCmd struct {
	portfolio string
	yes       bool
}

func (*removeHoldingCmd) Name() string     { return "remove-holding" }
func (*removeHoldingCmd) Synopsis() string { return "remove a holding with all its transactions" }
func (*removeHoldingCmd) Usage() string {
	return `pcs remove-holding [-p <portfolio>] -y <holding>

  Removes a holding, designated by its ID or symbol, with all its transactions.
`
}
func (c *removeHoldingCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Portfolio ID or name. Defaults to the only portfolio if one exists.")
	f.BoolVar(&c.yes, "y", false, "Confirm the removal.")
}

func (c *removeHoldingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one holding is required.")
		return subcommands.ExitUsageError
	}
	if !c.yes {
		fmt.Fprintln(os.Stderr, "Error: removal cannot be undone, confirm with -y.")
		return subcommands.ExitUsageError
	}
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
	h, err := store.FindHolding(ctx, e.store, p.ID, f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if err := e.store.RemoveHolding(ctx, p.ID, h.ID); err != nil {
		fmt.Fprintf(os.Stderr, "Error removing holding: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Removed %s from %q\n", h.Symbol, p.Name)
	return subcommands.ExitSuccess
}

type searchCmd struct{}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search symbols on EODHD" }
func (*searchCmd) Usage() string {
	return `pcs search <term>...

  Searches securities by ticker, name or ISIN with the EODHD API.
  Requires $` + eodhd.EnvAPIKey + `.
`
}
func (*searchCmd) SetFlags(f *flag.FlagSet) {}

func (*searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a search term is required.")
		return subcommands.ExitUsageError
	}
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error in configuration: %v\n", err)
		return subcommands.ExitUsageError
	}
	if cfg.EODHDKey == "" {
		fmt.Fprintf(os.Stderr, "Error: $%s is not set.\n", eodhd.EnvAPIKey)
		return subcommands.ExitUsageError
	}
	results, err := cfg.EODHD(cfg.Logger()).Search(ctx, strings.Join(f.Args(), " "))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.SearchResults(results))
	return subcommands.ExitSuccess
}
