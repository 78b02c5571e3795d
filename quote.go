package performance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// QuoteOracle reads current prices from a JSON quote endpoint.
//
// For instance, with EODHD real-time quotes:
//
//	URL:  "https://eodhd.com/api/real-time/{symbol}?fmt=json&api_token=XXX"
//	Path: "$.close"
type QuoteOracle struct {
	URL    string // {symbol} is replaced by the escaped symbol
	Path   string // JSONPath of the price in the response
	Client *http.Client
}

func (o *QuoteOracle) CurrentPrice(ctx context.Context, symbol string) (Money, error) {
	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	addr := strings.ReplaceAll(o.URL, "{symbol}", url.PathEscape(symbol))

	var jobj any
	if err := GetJSON(ctx, client, addr, &jobj); err != nil {
		if errors.Is(err, ErrHTTPNotFound) {
			return Money{}, fmt.Errorf("%w: no quote for %q: %v", ErrPriceUnavailable, symbol, err)
		}
		return Money{}, fmt.Errorf("error retrieving quote for %q: %w", symbol, err)
	}
	jval, err := jsonpath.Get(o.Path, jobj)
	if err != nil {
		return Money{}, fmt.Errorf("%w: error parsing quote for %q at %q: %v", ErrPriceUnavailable, symbol, o.Path, err)
	}
	// because jsonpath is never clear about whether it returns a list of 1 answer, or a single answer:
	// by this call I keep the first one if any
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}

	price, err := quoteValue(jval)
	if err != nil {
		return Money{}, fmt.Errorf("%w: quote for %q: %v", ErrPriceUnavailable, symbol, err)
	}
	if !price.IsPositive() {
		// some feeds report 0 when there was no trade
		return Money{}, fmt.Errorf("%w: empty quote for %q", ErrPriceUnavailable, symbol)
	}
	return M(price, ""), nil
}

// quoteValue reads a number that can be either a JSON number or a string.
func quoteValue(jval any) (decimal.Decimal, error) {
	switch v := jval.(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		// sometimes APIs return the value as a localized string
		s := strings.ReplaceAll(v, ",", ".")
		s = strings.ReplaceAll(s, " ", "")
		return decimal.NewFromString(s)
	default:
		return decimal.Zero, fmt.Errorf("not a number: %v (%T)", jval, jval)
	}
}
