// Package cmd implements the pcs CLI application to manage portfolios and
// report their performance.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/etnz/performance"
	"github.com/etnz/performance/eodhd"
	"github.com/etnz/performance/store"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	EnvStore         = "PCS_STORE"
	EnvCurrency      = "PCS_CURRENCY"
	EnvOracle        = "PCS_ORACLE"
	EnvPriceURL      = "PCS_PRICE_URL"
	EnvPricePath     = "PCS_PRICE_PATH"
	EnvFallbackPrice = "PCS_FALLBACK_PRICE"
	EnvVerbose       = "PCS_VERBOSE"
	EnvWorkers       = "PCS_WORKERS"
	EnvExchange      = "PCS_EXCHANGE"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	storeFlag         = flag.String("store", "", "Store of the portfolios: a JSONL journal path, 'sqlite:<path>' or 'memory:'. Defaults to $"+EnvStore+" or portfolios.jsonl")
	currencyFlag      = flag.String("currency", "", "Reporting currency code. Defaults to $"+EnvCurrency+" or USD")
	oracleFlag        = flag.String("oracle", "", "Price oracle: 'mock', 'http' or 'eodhd'. Defaults to $"+EnvOracle+" or mock")
	exchangeFlag      = flag.String("exchange", "", "EODHD exchange of symbols without one. Defaults to $"+EnvExchange+" or US")
	priceURLFlag      = flag.String("price-url", "", "URL of the http oracle, {symbol} is replaced by the symbol. Defaults to $"+EnvPriceURL)
	pricePathFlag     = flag.String("price-path", "", "JSONPath of the price in the http oracle response. Defaults to $"+EnvPricePath+" or $.close")
	fallbackPriceFlag = flag.String("fallback-price", "", "Price of symbols unknown to the oracle. Defaults to $"+EnvFallbackPrice+" or 100")
	workersFlag       = flag.Int("workers", 0, "Maximum concurrent price requests. Defaults to $"+EnvWorkers+" or 8")
	verboseFlag       = flag.Bool("v", false, "Verbose logging, also enabled by $"+EnvVerbose)
)

// Group is a set of related commands.
type Group struct {
	Name     string
	Commands []subcommands.Command
}

// Groups returns every pcs command by group, in display order.
func Groups() []Group {
	return []Group{
		{"portfolios", []subcommands.Command{&createCmd{}, &listCmd{}, &showCmd{}, &renameCmd{}, &deleteCmd{}}},
		{"holdings", []subcommands.Command{&addHoldingCmd{}, &updateHoldingCmd{}, &removeHoldingCmd{}, &searchCmd{}}},
		{"transactions", []subcommands.Command{&txCmd{kind: performance.Buy}, &txCmd{kind: performance.Sell}, &listTxCmd{}}},
		{"reports", []subcommands.Command{&perfCmd{}}},
		{"services", []subcommands.Command{&serveCmd{}, &assistCmd{}}},
		{"documentation", []subcommands.Command{&topicCmd{}}},
	}
}

// Register the subcommands.
func Register(c *subcommands.Commander) {
	for _, g := range Groups() {
		for _, cmd := range g.Commands {
			c.Register(cmd, g.Name)
		}
	}
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")
}

// Config is the application configuration, resolved from flags, then the
// environment, then defaults.
type Config struct {
	Store         string
	Currency      string
	Oracle        string
	PriceURL      string
	PricePath     string
	Exchange      string
	EODHDKey      string
	FallbackPrice performance.Money
	Workers       int
	Verbose       bool
}

// LoadConfig resolves the configuration. Flags must have been parsed.
func LoadConfig() (Config, error) {
	cfg := Config{
		Store:     setting(*storeFlag, EnvStore, "portfolios.jsonl"),
		Currency:  strings.ToUpper(setting(*currencyFlag, EnvCurrency, "USD")),
		Oracle:    strings.ToLower(setting(*oracleFlag, EnvOracle, "mock")),
		PriceURL:  setting(*priceURLFlag, EnvPriceURL, ""),
		PricePath: setting(*pricePathFlag, EnvPricePath, "$.close"),
		Exchange:  strings.ToUpper(setting(*exchangeFlag, EnvExchange, "US")),
		EODHDKey:  os.Getenv(eodhd.EnvAPIKey),
		Workers:   *workersFlag,
		Verbose:   *verboseFlag,
	}
	if money.GetCurrency(cfg.Currency) == nil {
		return cfg, fmt.Errorf("unknown currency %q", cfg.Currency)
	}

	fallback, err := decimal.NewFromString(setting(*fallbackPriceFlag, EnvFallbackPrice, "100"))
	if err != nil || !fallback.IsPositive() {
		return cfg, fmt.Errorf("fallback price must be a positive number")
	}
	cfg.FallbackPrice = performance.M(fallback, "")

	if cfg.Workers == 0 {
		cfg.Workers = 8
		if v := os.Getenv(EnvWorkers); v != "" {
			if cfg.Workers, err = strconv.Atoi(v); err != nil {
				return cfg, fmt.Errorf("invalid %s: %w", EnvWorkers, err)
			}
		}
	}
	if cfg.Workers < 1 {
		return cfg, fmt.Errorf("workers must be at least 1")
	}

	if !cfg.Verbose {
		cfg.Verbose, _ = strconv.ParseBool(os.Getenv(EnvVerbose))
	}

	switch cfg.Oracle {
	case "mock":
	case "http":
		if !strings.Contains(cfg.PriceURL, "{symbol}") {
			return cfg, fmt.Errorf("the http oracle needs a price url containing {symbol}")
		}
	case "eodhd":
		if cfg.EODHDKey == "" {
			return cfg, fmt.Errorf("the eodhd oracle needs $%s", eodhd.EnvAPIKey)
		}
	default:
		return cfg, fmt.Errorf("unknown oracle %q", cfg.Oracle)
	}
	return cfg, nil
}

// setting returns the flag value if set, the environment variable otherwise, def as a last resort.
func setting(flagValue, env, def string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

// Logger returns the application logger on stderr.
func (c Config) Logger() zerolog.Logger {
	return NewLogger(c.Verbose, true)
}

// OpenStore opens the configured store.
func (c Config) OpenStore(log zerolog.Logger) (store.Store, error) {
	return store.Open(c.Store, log)
}

// NewOracle returns the configured price oracle, unknown symbols are priced at the fallback price.
func (c Config) NewOracle(log zerolog.Logger) performance.PriceOracle {
	var oracle performance.PriceOracle
	switch c.Oracle {
	case "http":
		oracle = &performance.QuoteOracle{
			URL:    c.PriceURL,
			Path:   c.PricePath,
			Client: performance.DailyClient(log),
		}
	case "eodhd":
		oracle = c.EODHD(log)
	default:
		oracle = performance.NewMockOracle(5, uint64(os.Getpid()))
	}
	return performance.FallbackOracle{Oracle: oracle, Default: c.FallbackPrice, Log: log}
}

// EODHD returns the EODHD client, with daily cached responses.
func (c Config) EODHD(log zerolog.Logger) *eodhd.Oracle {
	return &eodhd.Oracle{APIKey: c.EODHDKey, Exchange: c.Exchange, Client: performance.DailyClient(log)}
}

// NewComposer returns a Composer over s, with the configured oracle and currency.
func (c Config) NewComposer(s store.Store, log zerolog.Logger) *performance.Composer {
	composer := performance.NewComposer(s, c.NewOracle(log), c.Currency)
	composer.Workers = c.Workers
	composer.Log = log
	return composer
}

// env bundles what a command needs, and is closed once done.
type env struct {
	Config
	log   zerolog.Logger
	store store.Store
}

// open loads the configuration and opens the store, errors are reported on stderr.
func open() (*env, subcommands.ExitStatus) {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error in configuration: %v\n", err)
		return nil, subcommands.ExitUsageError
	}
	log := cfg.Logger()
	s, err := cfg.OpenStore(log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store %q: %v\n", cfg.Store, err)
		return nil, subcommands.ExitFailure
	}
	return &env{Config: cfg, log: log, store: s}, subcommands.ExitSuccess
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.log.Error().Err(err).Msg("could not close store")
	}
}
