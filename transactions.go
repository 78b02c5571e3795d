package performance

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/etnz/performance/date"
)

// Kind tells whether a Transaction adds to or removes from a position.
type Kind string

const (
	Buy  Kind = "buy"
	Sell Kind = "sell"
)

// ParseKind parses "buy" or "sell", case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	default:
		return "", fmt.Errorf("%w: unknown transaction kind %q", ErrInvalid, s)
	}
}

// Transaction is an immutable buy or sell event of a holding.
type Transaction struct {
	ID        string    `json:"id"`
	HoldingID string    `json:"holdingId"`
	Date      time.Time `json:"date"` // UTC instant
	Quantity  Quantity  `json:"quantity"`
	UnitPrice Money     `json:"unitPrice"`
	Kind      Kind      `json:"kind"`
}

// NewTransaction creates a Transaction normalizing its date to UTC.
func NewTransaction(id, holdingID string, on time.Time, kind Kind, quantity Quantity, unitPrice Money) Transaction {
	return Transaction{
		ID:        id,
		HoldingID: holdingID,
		Date:      on.UTC(),
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Kind:      kind,
	}
}

// Day returns the UTC day of the transaction.
func (t Transaction) Day() date.Date { return date.FromTime(t.Date) }

// Validate checks that quantity and unit price are positive and that the kind
// is known. All failures are reported at once.
func (t Transaction) Validate() error {
	var errs []error
	if !t.Quantity.IsPositive() {
		errs = append(errs, fmt.Errorf("%w: quantity must be greater than 0, got %s", ErrInvalid, t.Quantity))
	}
	if !t.UnitPrice.IsPositive() {
		errs = append(errs, fmt.Errorf("%w: price must be greater than 0, got %s", ErrInvalid, t.UnitPrice.Decimal()))
	}
	if t.Kind != Buy && t.Kind != Sell {
		errs = append(errs, fmt.Errorf("%w: unknown transaction kind %q", ErrInvalid, t.Kind))
	}
	if t.Date.IsZero() {
		errs = append(errs, fmt.Errorf("%w: transaction date is required", ErrInvalid))
	}
	return errors.Join(errs...)
}

// SortTransactions returns a copy of txs in ascending date order.
//
// The sort is stable: transactions on the same instant keep their recording order.
func SortTransactions(txs []Transaction) []Transaction {
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b Transaction) int { return a.Date.Compare(b.Date) })
	return sorted
}
