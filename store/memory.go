package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/etnz/performance"
	"github.com/google/uuid"
)

// Memory is an in-memory Store. It is safe for concurrent use.
type Memory struct {
	mu           sync.RWMutex
	portfolios   []performance.Portfolio              // in creation order
	holdings     []performance.Holding                // in creation order, without transactions
	transactions map[string][]performance.Transaction // by holding ID, in recording order

	newID func() string
	now   func() time.Time
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		transactions: make(map[string][]performance.Transaction),
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

func (m *Memory) Close() error { return nil }

// memoryState is a copy of a Memory content.
type memoryState struct {
	portfolios   []performance.Portfolio
	holdings     []performance.Holding
	transactions map[string][]performance.Transaction
}

// save copies the content of m, m.mu must be held.
func (m *Memory) save() memoryState {
	s := memoryState{
		portfolios:   slices.Clone(m.portfolios),
		holdings:     slices.Clone(m.holdings),
		transactions: make(map[string][]performance.Transaction, len(m.transactions)),
	}
	for id, txs := range m.transactions {
		s.transactions[id] = slices.Clone(txs)
	}
	return s
}

// restore replaces the content of m by s, m.mu must be held.
func (m *Memory) restore(s memoryState) {
	m.portfolios, m.holdings, m.transactions = s.portfolios, s.holdings, s.transactions
}

func (m *Memory) portfolioIndex(id string) int {
	return slices.IndexFunc(m.portfolios, func(p performance.Portfolio) bool { return p.ID == id })
}

func (m *Memory) holdingIndex(portfolioID, holdingID string) int {
	return slices.IndexFunc(m.holdings, func(h performance.Holding) bool {
		return h.ID == holdingID && h.PortfolioID == portfolioID
	})
}

func (m *Memory) GetPortfolio(ctx context.Context, id string) (performance.Portfolio, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.portfolioIndex(id)
	if i < 0 {
		return performance.Portfolio{}, notFound("portfolio", id)
	}
	return m.portfolios[i], nil
}

func (m *Memory) ListPortfolios(ctx context.Context) ([]performance.Portfolio, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.portfolios), nil
}

func (m *Memory) CreatePortfolio(ctx context.Context, name string) (performance.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createPortfolio(m.newID(), name, m.now())
}

func (m *Memory) createPortfolio(id, name string, at time.Time) (performance.Portfolio, error) {
	if err := performance.ValidatePortfolioName(name); err != nil {
		return performance.Portfolio{}, err
	}
	p := performance.Portfolio{ID: id, Name: strings.TrimSpace(name), CreatedDate: at.UTC()}
	m.portfolios = append(m.portfolios, p)
	return p, nil
}

func (m *Memory) RenamePortfolio(ctx context.Context, id, name string) (performance.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renamePortfolio(id, name)
}

func (m *Memory) renamePortfolio(id, name string) (performance.Portfolio, error) {
	i := m.portfolioIndex(id)
	if i < 0 {
		return performance.Portfolio{}, notFound("portfolio", id)
	}
	if err := performance.ValidatePortfolioName(name); err != nil {
		return performance.Portfolio{}, err
	}
	m.portfolios[i].Name = strings.TrimSpace(name)
	return m.portfolios[i], nil
}

func (m *Memory) DeletePortfolio(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletePortfolio(id)
}

func (m *Memory) deletePortfolio(id string) error {
	i := m.portfolioIndex(id)
	if i < 0 {
		return notFound("portfolio", id)
	}
	m.portfolios = slices.Delete(m.portfolios, i, i+1)
	m.holdings = slices.DeleteFunc(m.holdings, func(h performance.Holding) bool {
		if h.PortfolioID != id {
			return false
		}
		delete(m.transactions, h.ID)
		return true
	})
	return nil
}

func (m *Memory) ListHoldings(ctx context.Context, portfolioID string) ([]performance.Holding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.portfolioIndex(portfolioID) < 0 {
		return nil, notFound("portfolio", portfolioID)
	}
	var list []performance.Holding
	for _, h := range m.holdings {
		if h.PortfolioID == portfolioID {
			list = append(list, h)
		}
	}
	return list, nil
}

func (m *Memory) AddHolding(ctx context.Context, portfolioID string, h performance.Holding) (performance.Holding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addHolding(m.newID(), portfolioID, h)
}

func (m *Memory) addHolding(id, portfolioID string, h performance.Holding) (performance.Holding, error) {
	if m.portfolioIndex(portfolioID) < 0 {
		return performance.Holding{}, notFound("portfolio", portfolioID)
	}
	h, err := holdingFields(h)
	if err != nil {
		return performance.Holding{}, err
	}
	h.ID, h.PortfolioID = id, portfolioID
	m.holdings = append(m.holdings, h)
	return h, nil
}

// GetHolding returns the holding with its transactions sorted by date.
func (m *Memory) GetHolding(ctx context.Context, portfolioID, holdingID string) (performance.Holding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.holdingIndex(portfolioID, holdingID)
	if i < 0 {
		return performance.Holding{}, notFound("holding", holdingID)
	}
	h := m.holdings[i]
	h.Transactions = performance.SortTransactions(m.transactions[h.ID])
	return h, nil
}

func (m *Memory) UpdateHolding(ctx context.Context, portfolioID, holdingID string, h performance.Holding) (performance.Holding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateHolding(portfolioID, holdingID, h)
}

func (m *Memory) updateHolding(portfolioID, holdingID string, h performance.Holding) (performance.Holding, error) {
	i := m.holdingIndex(portfolioID, holdingID)
	if i < 0 {
		return performance.Holding{}, notFound("holding", holdingID)
	}
	h, err := holdingFields(h)
	if err != nil {
		return performance.Holding{}, err
	}
	h.ID, h.PortfolioID = holdingID, portfolioID
	m.holdings[i] = h
	return h, nil
}

func (m *Memory) RemoveHolding(ctx context.Context, portfolioID, holdingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeHolding(portfolioID, holdingID)
}

func (m *Memory) removeHolding(portfolioID, holdingID string) error {
	i := m.holdingIndex(portfolioID, holdingID)
	if i < 0 {
		return notFound("holding", holdingID)
	}
	m.holdings = slices.Delete(m.holdings, i, i+1)
	delete(m.transactions, holdingID)
	return nil
}

// ListTransactions returns the holding's transactions sorted by date.
func (m *Memory) ListTransactions(ctx context.Context, holdingID string) ([]performance.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !slices.ContainsFunc(m.holdings, func(h performance.Holding) bool { return h.ID == holdingID }) {
		return nil, notFound("holding", holdingID)
	}
	return performance.SortTransactions(m.transactions[holdingID]), nil
}

func (m *Memory) AddTransaction(ctx context.Context, portfolioID, holdingID string, tx performance.Transaction) (performance.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx.ID = m.newID()
	return m.addTransaction(portfolioID, holdingID, tx)
}

func (m *Memory) addTransaction(portfolioID, holdingID string, tx performance.Transaction) (performance.Transaction, error) {
	if m.holdingIndex(portfolioID, holdingID) < 0 {
		return performance.Transaction{}, notFound("holding", holdingID)
	}
	tx = performance.NewTransaction(tx.ID, holdingID, tx.Date, tx.Kind, tx.Quantity, tx.UnitPrice)
	if err := tx.Validate(); err != nil {
		return performance.Transaction{}, err
	}
	m.transactions[holdingID] = append(m.transactions[holdingID], tx)
	return tx, nil
}
