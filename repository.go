package performance

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by repositories when an entity does not exist,
	// or does not belong to the requested parent.
	ErrNotFound = errors.New("not found")
	// ErrInvalid wraps every validation failure.
	ErrInvalid = errors.New("invalid")
)

// Repository is the read side of the storage the engine depends on.
type Repository interface {
	// GetPortfolio returns ErrNotFound if the portfolio does not exist.
	GetPortfolio(ctx context.Context, id string) (Portfolio, error)
	ListHoldings(ctx context.Context, portfolioID string) ([]Holding, error)
	// ListTransactions returns the transactions of a holding in recording order.
	ListTransactions(ctx context.Context, holdingID string) ([]Transaction, error)
}

// Load fetches a portfolio with all its holdings, each with its transactions attached.
//
// It returns ErrNotFound if the portfolio does not exist.
func Load(ctx context.Context, repo Repository, portfolioID string) (Portfolio, []Holding, error) {
	p, err := repo.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return Portfolio{}, nil, err
	}
	holdings, err := repo.ListHoldings(ctx, portfolioID)
	if err != nil {
		return p, nil, fmt.Errorf("could not list holdings of portfolio %q: %w", portfolioID, err)
	}
	for i := range holdings {
		txs, err := repo.ListTransactions(ctx, holdings[i].ID)
		if err != nil {
			return p, nil, fmt.Errorf("could not list transactions of holding %q: %w", holdings[i].Symbol, err)
		}
		holdings[i].Transactions = txs
	}
	return p, holdings, nil
}
