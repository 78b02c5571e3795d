package performance

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// AssetKind classifies what a holding is.
type AssetKind string

const (
	Stock  AssetKind = "stock"
	Bond   AssetKind = "bond"
	ETF    AssetKind = "etf"
	Crypto AssetKind = "crypto"
	Fund   AssetKind = "fund"
	Cash   AssetKind = "cash"
	Other  AssetKind = "other"
)

// AssetKinds lists all known kinds, in display order.
var AssetKinds = []AssetKind{Stock, Bond, ETF, Crypto, Fund, Cash, Other}

// ParseAssetKind parses a kind name, case-insensitively.
func ParseAssetKind(s string) (AssetKind, error) {
	k := AssetKind(strings.ToLower(s))
	for _, known := range AssetKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown asset kind %q", ErrInvalid, s)
}

// Portfolio groups holdings.
type Portfolio struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CreatedDate time.Time `json:"createdDate"`
}

// Validate checks the portfolio name.
func (p Portfolio) Validate() error {
	return ValidatePortfolioName(p.Name)
}

// ValidatePortfolioName checks that a portfolio name has at least 3 characters.
func ValidatePortfolioName(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < 3 {
		return fmt.Errorf("%w: portfolio name must be at least 3 characters long", ErrInvalid)
	}
	return nil
}

// Holding is a position in a single symbol within a portfolio.
//
// Transactions are only set when the holding has been fully loaded.
type Holding struct {
	ID           string        `json:"id"`
	PortfolioID  string        `json:"portfolioId"`
	Symbol       string        `json:"symbol"`
	DisplayName  string        `json:"name"`
	Kind         AssetKind     `json:"kind"`
	Transactions []Transaction `json:"transactions,omitempty"`
}

// Validate checks the holding's own fields, not its transactions.
func (h Holding) Validate() error {
	var errs []error
	if utf8.RuneCountInString(strings.TrimSpace(h.Symbol)) < 1 {
		errs = append(errs, fmt.Errorf("%w: holding symbol is required", ErrInvalid))
	}
	if utf8.RuneCountInString(strings.TrimSpace(h.DisplayName)) < 3 {
		errs = append(errs, fmt.Errorf("%w: holding name must be at least 3 characters long", ErrInvalid))
	}
	if _, err := ParseAssetKind(string(h.Kind)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
