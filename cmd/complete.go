package cmd

import (
	"context"
	"flag"
	"time"

	"github.com/etnz/performance"
	"github.com/etnz/performance/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
	"github.com/rs/zerolog"
)

// Complete runs the shell completion of the pcs commands when the shell
// asks for it, and returns otherwise.
//
// Install it with COMP_INSTALL=1 pcs.
func Complete(name string) {
	CompletionTree().Complete(name)
}

// CompletionTree returns the completion of every command, global flags included.
func CompletionTree() *complete.Command {
	root := &complete.Command{
		Sub: map[string]*complete.Command{},
		Flags: map[string]complete.Predictor{
			"store":          predict.Files("*.jsonl"),
			"currency":       predict.Set{"USD", "EUR", "GBP", "CHF", "JPY"},
			"oracle":         predict.Set{"mock", "http", "eodhd"},
			"exchange":       predict.Set{"US", "LSE", "XETRA", "PA", "AS", "F"},
			"price-url":      predict.Something,
			"price-path":     predict.Something,
			"fallback-price": predict.Something,
			"workers":        predict.Something,
			"v":              predict.Nothing,
		},
	}
	for _, g := range Groups() {
		for _, c := range g.Commands {
			root.Sub[c.Name()] = commandCompletion(c)
		}
	}
	for _, name := range []string{"help", "flags", "commands"} {
		root.Sub[name] = &complete.Command{}
	}
	return root
}

// commandCompletion predicts the flags declared by c.
func commandCompletion(c subcommands.Command) *complete.Command {
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(fs)

	cc := &complete.Command{Flags: map[string]complete.Predictor{}}
	fs.VisitAll(func(f *flag.Flag) {
		cc.Flags[f.Name] = flagPredictor(f)
	})
	switch c.Name() {
	case "show", "rename", "delete", "perf":
		cc.Args = portfolios
	case "topic":
		if topics, err := docs.GetAllTopics(); err == nil {
			cc.Args = predict.Set(append(topics, "*"))
		}
	}
	return cc
}

func flagPredictor(f *flag.Flag) complete.Predictor {
	if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return predict.Nothing
	}
	switch f.Name {
	case "p":
		return portfolios
	case "format":
		return predict.Set(Formats)
	case "period":
		return predict.Set{"day", "week", "month", "quarter", "year"}
	case "kind":
		kinds := make(predict.Set, 0, len(performance.AssetKinds))
		for _, k := range performance.AssetKinds {
			kinds = append(kinds, string(k))
		}
		return kinds
	case "s", "e", "d":
		return predict.Set{time.Now().UTC().Format("2006-01-02")}
	}
	return predict.Something
}

// portfolios predicts the portfolio names of the configured store.
var portfolios = complete.PredictFunc(func(prefix string) []string {
	cfg, err := LoadConfig()
	if err != nil {
		return nil
	}
	s, err := cfg.OpenStore(zerolog.Nop())
	if err != nil {
		return nil
	}
	defer s.Close()
	list, err := s.ListPortfolios(context.Background())
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(list))
	for _, p := range list {
		names = append(names, p.Name)
	}
	return names
})
