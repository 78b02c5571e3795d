// Package eodhd reads prices and searches symbols with the EOD Historical Data API.
//
// See https://eodhd.com/financial-apis/ for the API documentation.
package eodhd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/etnz/performance"
)

// EnvAPIKey is the environment variable holding the EODHD API key.
const EnvAPIKey = "EODHD_API_KEY"

// DefaultBaseURL is the root of the EODHD API.
const DefaultBaseURL = "https://eodhd.com/api"

// Oracle is a performance.PriceOracle reading EODHD real-time quotes.
//
// EODHD tickers are "SYMBOL.EXCHANGE", symbols without an exchange are
// completed with Exchange.
type Oracle struct {
	APIKey   string
	Exchange string // defaults to "US"
	BaseURL  string // defaults to DefaultBaseURL
	Client   *http.Client
}

// Ticker returns the EODHD ticker of symbol.
func (o *Oracle) Ticker(symbol string) string {
	if strings.Contains(symbol, ".") {
		return strings.ToUpper(symbol)
	}
	exchange := o.Exchange
	if exchange == "" {
		exchange = "US"
	}
	return strings.ToUpper(symbol) + "." + strings.ToUpper(exchange)
}

func (o *Oracle) base() string {
	if o.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimSuffix(o.BaseURL, "/")
}

func (o *Oracle) CurrentPrice(ctx context.Context, symbol string) (performance.Money, error) {
	// {"code":"AAPL.US","timestamp":1712347200,"gmtoffset":0,"open":169.59,"high":170.39,"low":168.95,"close":169.58,...}
	// close is "NA" when there was no trade at all
	q := performance.QuoteOracle{
		URL:    o.base() + "/real-time/{symbol}?fmt=json&api_token=" + url.QueryEscape(o.APIKey),
		Path:   "$.close",
		Client: o.Client,
	}
	price, err := q.CurrentPrice(ctx, o.Ticker(symbol))
	if err != nil {
		return performance.Money{}, fmt.Errorf("eodhd: %w", err)
	}
	return price, nil
}

// SearchResult is a single item of the EODHD search API response.
type SearchResult struct {
	Code          string  `json:"Code"`
	Exchange      string  `json:"Exchange"`
	Name          string  `json:"Name"`
	Type          string  `json:"Type"`
	Country       string  `json:"Country"`
	Currency      string  `json:"Currency"`
	ISIN          string  `json:"ISIN"`
	PreviousClose float64 `json:"previousClose"`
}

// Ticker returns the EODHD ticker of the result.
func (r SearchResult) Ticker() string { return r.Code + "." + r.Exchange }

// Kind maps the EODHD security type to a holding kind.
func (r SearchResult) Kind() performance.AssetKind {
	switch strings.ToLower(r.Type) {
	case "etf":
		return performance.ETF
	case "fund":
		return performance.Fund
	case "bond":
		return performance.Bond
	case "currency":
		return performance.Crypto
	case "common stock", "preferred stock":
		return performance.Stock
	default:
		return performance.Other
	}
}

// Search returns the securities matching term, by ticker, name or ISIN.
func (o *Oracle) Search(ctx context.Context, term string) ([]SearchResult, error) {
	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	addr := fmt.Sprintf("%s/search/%s?fmt=json&api_token=%s", o.base(), url.PathEscape(term), url.QueryEscape(o.APIKey))

	var results []SearchResult
	if err := performance.GetJSON(ctx, client, addr, &results); err != nil {
		return nil, fmt.Errorf("eodhd: cannot search %q: %w", term, err)
	}
	return results, nil
}
