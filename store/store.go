// Package store provides the repositories holding portfolios, holdings and
// their transactions.
//
// Three implementations share the same semantics: Memory keeps everything in
// memory, Journal persists every mutation as a JSONL command (a git friendly
// file replayed on open) and SQLite stores them in a database file.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/etnz/performance"
	"github.com/rs/zerolog"
)

// Store is a repository with entity management.
//
// Holdings are scoped by portfolio: a holding of another portfolio is
// reported as performance.ErrNotFound. Deleting a portfolio or a holding
// deletes everything it contains.
type Store interface {
	performance.Repository

	CreatePortfolio(ctx context.Context, name string) (performance.Portfolio, error)
	ListPortfolios(ctx context.Context) ([]performance.Portfolio, error)
	RenamePortfolio(ctx context.Context, id, name string) (performance.Portfolio, error)
	DeletePortfolio(ctx context.Context, id string) error

	// AddHolding creates a holding from h's Symbol, DisplayName and Kind.
	AddHolding(ctx context.Context, portfolioID string, h performance.Holding) (performance.Holding, error)
	GetHolding(ctx context.Context, portfolioID, holdingID string) (performance.Holding, error)
	// UpdateHolding replaces the Symbol, DisplayName and Kind of the holding.
	UpdateHolding(ctx context.Context, portfolioID, holdingID string, h performance.Holding) (performance.Holding, error)
	RemoveHolding(ctx context.Context, portfolioID, holdingID string) error

	// AddTransaction records tx for the holding. Its ID and HoldingID are
	// assigned, its date is normalized to UTC.
	AddTransaction(ctx context.Context, portfolioID, holdingID string, tx performance.Transaction) (performance.Transaction, error)

	Close() error
}

// Open opens the store described by addr:
//
//	memory:        an empty in-memory store
//	sqlite:<path>  a SQLite database
//	<path>         a JSONL journal
func Open(addr string, log zerolog.Logger) (Store, error) {
	switch {
	case addr == "memory:":
		return NewMemory(), nil
	case strings.HasPrefix(addr, "sqlite:"):
		return OpenSQLite(strings.TrimPrefix(addr, "sqlite:"), log)
	case addr == "":
		return nil, fmt.Errorf("no store configured")
	default:
		return OpenJournal(addr, log)
	}
}

// FindHolding returns the holding of the portfolio whose ID or symbol is ref.
// Symbols are compared case-insensitively, the first matching holding wins.
func FindHolding(ctx context.Context, s performance.Repository, portfolioID, ref string) (performance.Holding, error) {
	holdings, err := s.ListHoldings(ctx, portfolioID)
	if err != nil {
		return performance.Holding{}, err
	}
	for _, h := range holdings {
		if h.ID == ref {
			return h, nil
		}
	}
	for _, h := range holdings {
		if strings.EqualFold(h.Symbol, ref) {
			return h, nil
		}
	}
	return performance.Holding{}, fmt.Errorf("holding %q: %w", ref, performance.ErrNotFound)
}

// FindPortfolio returns the portfolio whose ID or name is ref.
func FindPortfolio(ctx context.Context, s Store, ref string) (performance.Portfolio, error) {
	list, err := s.ListPortfolios(ctx)
	if err != nil {
		return performance.Portfolio{}, err
	}
	for _, p := range list {
		if p.ID == ref {
			return p, nil
		}
	}
	for _, p := range list {
		if strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	return performance.Portfolio{}, fmt.Errorf("portfolio %q: %w", ref, performance.ErrNotFound)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, performance.ErrNotFound)
}

// holdingFields validates and normalizes the editable fields of h.
func holdingFields(h performance.Holding) (performance.Holding, error) {
	h.Symbol = strings.TrimSpace(h.Symbol)
	h.DisplayName = strings.TrimSpace(h.DisplayName)
	h.Kind = performance.AssetKind(strings.ToLower(string(h.Kind)))
	if err := h.Validate(); err != nil {
		return performance.Holding{}, err
	}
	return performance.Holding{Symbol: h.Symbol, DisplayName: h.DisplayName, Kind: h.Kind}, nil
}
