package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/etnz/performance"
	"github.com/etnz/performance/date"
	"github.com/etnz/performance/renderer"
	"github.com/google/subcommands"
)

// Formats lists the output formats of perf.
var Formats = []string{"terminal", "markdown", "json", "html"}

type perfCmd struct {
	start        string
	end          string
	period       string
	format       string
	skipHoldings bool
	skipSeries   bool
}

func (*perfCmd) Name() string     { return "perf" }
func (*perfCmd) Synopsis() string { return "report the performance of a portfolio" }
func (*perfCmd) Usage() string {
	return `pcs perf [-s <start_date> | -period <period>] [-e <end_date>] [-format <format>] [<portfolio>]

  Reports the current value, realized and unrealized gains, allocation and the
  daily value of the portfolio over a window. The window starts at the
  portfolio creation by default and ends today.

  Past days are valued at current prices: the daily value shows how past
  positions would be worth today, not their historical value.
`
}

func (c *perfCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "", "First day of the window. Defaults to the portfolio creation day.")
	f.StringVar(&c.end, "e", "", "Last day of the window. Defaults to today.")
	f.StringVar(&c.period, "period", "", "Window of the period (day, week, month, quarter, year) to date. Overrides -s.")
	f.StringVar(&c.format, "format", "terminal", "Output format: terminal, markdown, json or html.")
	f.BoolVar(&c.skipHoldings, "skip-holdings", false, "Do not report the holdings details.")
	f.BoolVar(&c.skipSeries, "skip-series", false, "Do not report the daily value.")
}

// window resolves the flags, zero dates are resolved by the Composer.
func (c *perfCmd) window() (performance.Window, error) {
	var w performance.Window
	var err error
	if c.end != "" {
		if w.End, err = date.Parse(c.end); err != nil {
			return w, fmt.Errorf("end date: %w", err)
		}
	}
	switch {
	case c.period != "":
		period, err := date.ParsePeriod(c.period)
		if err != nil {
			return w, err
		}
		end := w.End
		if end.IsZero() {
			end = date.Today()
		}
		w.Start = end.StartOf(period)
	case c.start != "":
		if w.Start, err = date.Parse(c.start); err != nil {
			return w, fmt.Errorf("start date: %w", err)
		}
	}
	return w, nil
}

func (c *perfCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "Error: at most one portfolio is expected.")
		return subcommands.ExitUsageError
	}
	if !slices.Contains(Formats, c.format) {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q, want one of %v\n", c.format, Formats)
		return subcommands.ExitUsageError
	}
	w, err := c.window()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing window: %v\n", err)
		return subcommands.ExitUsageError
	}

	e, status := open()
	if e == nil {
		return status
	}
	defer e.Close()

	p, err := e.portfolio(ctx, f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	report, ok, err := e.NewComposer(e.store, e.log).Report(ctx, p.ID, w)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing performance: %v\n", err)
		return subcommands.ExitFailure
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: portfolio %q not found\n", p.Name)
		return subcommands.ExitFailure
	}

	if err := c.print(report); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *perfCmd) print(report *performance.PerformanceReport) error {
	opts := renderer.RenderOptions{SkipHoldings: c.skipHoldings, SkipSeries: c.skipSeries}
	switch c.format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "markdown":
		fmt.Print(renderer.RenderPerformance(report, opts))
	case "html":
		html, err := renderer.HTML(renderer.RenderPerformance(report, opts))
		if err != nil {
			return err
		}
		fmt.Print(html)
	case "terminal":
		printMarkdown(renderer.RenderPerformance(report, opts))
	default:
		return fmt.Errorf("unknown format %q", c.format)
	}
	return nil
}
