package performance

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ErrPriceUnavailable is returned by a PriceOracle that has no price for a symbol.
var ErrPriceUnavailable = errors.New("price unavailable")

// PriceOracle returns the current unit price of a symbol.
//
// Successive calls for the same symbol may return different prices.
type PriceOracle interface {
	CurrentPrice(ctx context.Context, symbol string) (Money, error)
}

// OracleFunc adapts a function to the PriceOracle interface.
type OracleFunc func(ctx context.Context, symbol string) (Money, error)

func (f OracleFunc) CurrentPrice(ctx context.Context, symbol string) (Money, error) {
	return f(ctx, symbol)
}

// MockOracle serves prices from a fixed table, optionally perturbed by a
// uniform random jitter in [-Jitter, +Jitter].
type MockOracle struct {
	Prices map[string]Money // keyed by upper case symbol
	Jitter decimal.Decimal

	mu  sync.Mutex
	rnd *rand.Rand
}

// DefaultMockPrices is the table served by NewMockOracle.
func DefaultMockPrices() map[string]Money {
	return map[string]Money{
		"AAPL":  M(decimal.RequireFromString("170.50"), ""),
		"MSFT":  M(decimal.RequireFromString("320.75"), ""),
		"GOOGL": M(decimal.RequireFromString("135.20"), ""),
		"TSLA":  M(decimal.RequireFromString("250.00"), ""),
		"AMZN":  M(decimal.RequireFromString("140.00"), ""),
	}
}

// NewMockOracle returns a MockOracle over DefaultMockPrices, jitter is seeded for reproducibility.
func NewMockOracle(jitter float64, seed uint64) *MockOracle {
	return &MockOracle{
		Prices: DefaultMockPrices(),
		Jitter: decimal.NewFromFloat(jitter),
		rnd:    rand.New(rand.NewPCG(seed, seed)),
	}
}

func (o *MockOracle) CurrentPrice(ctx context.Context, symbol string) (Money, error) {
	if err := ctx.Err(); err != nil {
		return Money{}, err
	}
	price, ok := o.Prices[strings.ToUpper(symbol)]
	if !ok {
		return Money{}, fmt.Errorf("%w: unknown symbol %q", ErrPriceUnavailable, symbol)
	}
	if o.Jitter.IsZero() || o.rnd == nil {
		return price, nil
	}
	o.mu.Lock()
	r := o.rnd.Float64()
	o.mu.Unlock()
	// r in [0,1) mapped to [-jitter, +jitter)
	delta := o.Jitter.Mul(decimal.NewFromFloat(r*2 - 1)).Round(4)
	return price.Add(M(delta, "")), nil
}

// FallbackOracle substitutes Default when the wrapped oracle has no price for
// a symbol. Other errors are returned unchanged.
type FallbackOracle struct {
	Oracle  PriceOracle
	Default Money
	Log     zerolog.Logger
}

func (o FallbackOracle) CurrentPrice(ctx context.Context, symbol string) (Money, error) {
	price, err := o.Oracle.CurrentPrice(ctx, symbol)
	if errors.Is(err, ErrPriceUnavailable) {
		o.Log.Warn().Str("symbol", symbol).Str("fallback", o.Default.Decimal().String()).Msg("no price available, using fallback")
		return o.Default, nil
	}
	return price, err
}

// FetchPrices queries the oracle once for every distinct symbol, with at most
// workers concurrent calls. The first error cancels the remaining calls.
func FetchPrices(ctx context.Context, oracle PriceOracle, symbols []string, workers int) (map[string]Money, error) {
	unique := slices.Clone(symbols)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	prices := make([]Money, len(unique))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, symbol := range unique {
		g.Go(func() error {
			price, err := oracle.CurrentPrice(ctx, symbol)
			if err != nil {
				return fmt.Errorf("could not get the price of %q: %w", symbol, err)
			}
			prices[i] = price
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make(map[string]Money, len(unique))
	for i, symbol := range unique {
		result[symbol] = prices[i]
	}
	return result, nil
}
