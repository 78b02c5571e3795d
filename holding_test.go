package performance

import (
	"errors"
	"testing"
	"time"
)

func TestHolding_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		holding Holding
		wantErr bool
	}{
		{name: "valid", holding: Holding{Symbol: "AAPL", DisplayName: "Apple", Kind: Stock}},
		{name: "kind is case insensitive", holding: Holding{Symbol: "BTC", DisplayName: "Bitcoin", Kind: "Crypto"}},
		{name: "empty symbol", holding: Holding{Symbol: " ", DisplayName: "Apple", Kind: Stock}, wantErr: true},
		{name: "short name", holding: Holding{Symbol: "AAPL", DisplayName: "Ap", Kind: Stock}, wantErr: true},
		{name: "unknown kind", holding: Holding{Symbol: "AAPL", DisplayName: "Apple", Kind: "option"}, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.holding.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error = %v, want it to wrap %v", err, ErrInvalid)
			}
		})
	}
}

func TestValidatePortfolioName(t *testing.T) {
	for name, wantErr := range map[string]bool{"Main": false, "abc": false, "ab": true, "  ab  ": true, "": true, "été": false} {
		if err := ValidatePortfolioName(name); (err != nil) != wantErr {
			t.Errorf("ValidatePortfolioName(%q) error = %v, wantErr %v", name, err, wantErr)
		}
	}
}

func TestTransaction_Validate(t *testing.T) {
	on := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := NewTransaction("t1", "h1", on, Buy, Q(1), NO(1)).Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	// every failure is reported at once
	err := NewTransaction("t1", "h1", time.Time{}, "gift", Q(0), NO(-1)).Validate()
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("Validate() error = %v, want %v", err, ErrInvalid)
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok || len(joined.Unwrap()) != 4 {
		t.Errorf("Validate() error = %v, want 4 joined errors", err)
	}
}

func TestNewTransaction_UTC(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	tx := NewTransaction("t1", "h1", time.Date(2025, 1, 2, 0, 30, 0, 0, paris), Buy, Q(1), NO(1))
	if tx.Date.Location() != time.UTC {
		t.Errorf("Date location = %v, want UTC", tx.Date.Location())
	}
	if got := tx.Day().String(); got != "2025-01-01" {
		t.Errorf("Day() = %v, want 2025-01-01", got)
	}
}

func TestParseKind(t *testing.T) {
	for s, want := range map[string]Kind{"buy": Buy, "SELL": Sell, "Buy": Buy} {
		if got, err := ParseKind(s); err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v, want %v", s, got, err, want)
		}
	}
	if _, err := ParseKind("gift"); !errors.Is(err, ErrInvalid) {
		t.Errorf("ParseKind(gift) error = %v, want %v", err, ErrInvalid)
	}
}
