package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/performance/agent"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

type assistCmd struct {
	raw bool
}

func (*assistCmd) Name() string { return "assist" }
func (*assistCmd) Synopsis() string {
	return "start an interactive session with the AI assistant"
}
func (*assistCmd) Usage() string {
	return `pcs assist [-raw] [<prompt>]

  Starts an interactive session with an assistant that can read the portfolios
  and compute their performance reports. It needs a Gemini API key in
  $GEMINI_API_KEY or $GOOGLE_API_KEY.
`
}
func (c *assistCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.raw, "raw", false, "Print answers as raw markdown.")
}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, status := open()
	if e == nil {
		return status
	}
	defer e.Close()

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}

	analyst := agent.NewAnalyst(e.store, e.NewComposer(e.store, e.log))
	trader := agent.NewTrader()
	for _, x := range []*agent.Expert{analyst, trader} {
		x.Log = e.log
	}
	a := agent.New(os.Stdout, os.Stdin, analyst, trader)
	a.Facilitator.Log = e.log
	if !c.raw {
		a.Width = terminalWidth()
	}

	if err := a.Run(ctx, client, strings.Join(f.Args(), " ")); err != nil {
		fmt.Fprintln(os.Stderr, "Agent failed:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
