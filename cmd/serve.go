package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/etnz/performance/server"
	"github.com/google/subcommands"
)

type serveCmd struct {
	addr    string
	origins string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the portfolios over a REST API" }
func (*serveCmd) Usage() string {
	return `pcs serve [-addr <address>] [-origins <origins>]

  Serves portfolios, holdings, transactions and performance reports as JSON:

    GET, POST         /api/portfolios
    GET, PUT, DELETE  /api/portfolios/{id}
    GET, POST         /api/portfolios/{id}/holdings
    GET, PUT, DELETE  /api/portfolios/{id}/holdings/{hid}
    GET, POST         /api/portfolios/{id}/holdings/{hid}/transactions
    GET               /api/portfolios/{id}/performance?startDate=&endDate=
`
}
func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", ":8080", "Address to listen on.")
	f.StringVar(&c.origins, "origins", "", "Comma separated origins allowed by CORS. All by default.")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, status := open()
	if e == nil {
		return status
	}
	defer e.Close()

	var origins []string
	if c.origins != "" {
		origins = strings.Split(c.origins, ",")
	}
	srv := server.New(server.Config{
		Addr:     c.addr,
		Log:      e.log,
		Store:    e.store,
		Composer: e.NewComposer(e.store, e.log),
		Origins:  origins,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() { errs <- srv.Start() }()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Error serving: %v\n", err)
			return subcommands.ExitFailure
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			e.log.Error().Err(err).Msg("server forced to shutdown")
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
