package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/performance/renderer"
	"github.com/etnz/performance/store"
	"github.com/google/subcommands"
)

type createCmd struct{}

func (*createCmd) Name() string     { return "create" }
func (*createCmd) Synopsis() string { return "create a new portfolio" }
func (*createCmd) Usage() string {
	return `pcs create <name>

  Creates an empty portfolio. The name must be at least 3 characters long.
`
}
func (*createCmd) SetFlags(f *flag.FlagSet) {}

func (*createCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a portfolio name is required.")
		return subcommands.ExitUsageError
	}
	e, status := open()
	if e == nil {
		return status
	}
	defer e.Close()

	p, err := e.store.CreatePortfolio(ctx, strings.Join(f.Args(), " "))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Created portfolio %q (%s)\n", p.Name, p.ID)
	return subcommands.ExitSuccess
}

type listCmd struct{}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list all portfolios" }
func (*listCmd) Usage() string {
	return `pcs list

  Lists all portfolios in creation order.
`
}
func (*listCmd) SetFlags(f *flag.FlagSet) {}

func (*listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, status := open()
	if e == nil {
		return status
	}
	defer e.Close()

	list, err := e.store.ListPortfolios(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing portfolios: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.PortfolioList(list))
	return subcommands.ExitSuccess
}

type showCmd struct{}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "show a portfolio and its holdings" }
func (*showCmd) Usage() string {
	return `pcs show <portfolio>

  Shows a portfolio, designated by its ID or name, with its holdings.
`
}
func (*showCmd) SetFlags(f *flag.FlagSet) {}

func (*showCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one portfolio is required.")
		return subcommands.ExitUsageError
	}
	e, status := open()
	if e == nil {
		return status
	}
	defer e.Close()

	p, err := store.FindPortfolio(ctx, e.store, f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	holdings, err := e.store.ListHoldings(ctx, p.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing holdings: %v\n", err)
		return subcommands.ExitFailure
	}
	for i := range holdings {
		if holdings[i].Transactions, err = e.store.ListTransactions(ctx, holdings[i].ID); err != nil {
			fmt.Fprintf(os.Stderr, "Error listing transactions: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	printMarkdown(renderer.PortfolioDetail(p, holdings))
	return subcommands.ExitSuccess
}

type renameCmd struct{}

func (*renameCmd) Name() string     { return "rename" }
func (*renameCmd) Synopsis() string { return "rename a portfolio" }
func (*renameCmd) Usage() string {
	return `pcs rename <portfolio> <new name>

  Renames a portfolio, designated by its ID or name.
`
}
func (*renameCmd) SetFlags(f *flag.FlagSet) {}

func (*renameCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Error: a portfolio and a new name are required.")
		return subcommands.ExitUsageError
	}
	e, status := open()
	if e == nil {
		return status
	}
	defer e.Close()

	p, err := store.FindPortfolio(ctx, e.store, f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	p, err = e.store.RenamePortfolio(ctx, p.ID, strings.Join(f.Args()[1:], " "))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error renaming portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Renamed portfolio %s to %q\n", p.ID, p.Name)
	return subcommands.ExitSuccess
}

type deleteCmd struct {
	yes bool
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete a portfolio with all its holdings" }
func (*deleteCmd) Usage() string {
	return `pcs delete -y <portfolio>

  Deletes a portfolio, designated by its ID or name, with all its holdings and
  their transactions.
`
}
func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "y", false, "Confirm the deletion.")
}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one portfolio is required.")
		return subcommands.ExitUsageError
	}
	if !c.yes {
		fmt.Fprintln(os.Stderr, "Error: deletion cannot be undone, confirm with -y.")
		return subcommands.ExitUsageError
	}
	e, status := open()
	if e == nil {
		return status
	}
	defer e.Close()

	p, err := store.FindPortfolio(ctx, e.store, f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if err := e.store.DeletePortfolio(ctx, p.ID); err != nil {
		fmt.Fprintf(os.Stderr, "Error deleting portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Deleted portfolio %q\n", p.Name)
	return subcommands.ExitSuccess
}
