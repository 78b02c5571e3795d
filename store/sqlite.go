package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/etnz/performance"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS portfolios (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS holdings (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT NOT NULL UNIQUE,
	portfolio_id TEXT NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
	symbol       TEXT NOT NULL,
	name         TEXT NOT NULL,
	kind         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS holdings_portfolio ON holdings(portfolio_id);
CREATE TABLE IF NOT EXISTS transactions (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	holding_id TEXT NOT NULL REFERENCES holdings(id) ON DELETE CASCADE,
	date       INTEGER NOT NULL,
	quantity   TEXT NOT NULL,
	unit_price TEXT NOT NULL,
	kind       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS transactions_holding ON transactions(holding_id, date, seq);
`

// SQLite is a Store in a SQLite database.
//
// Dates are stored as unix nanoseconds, decimals as their exact string.
type SQLite struct {
	db  *sql.DB
	log zerolog.Logger

	newID func() string
	now   func() time.Time
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string, log zerolog.Logger) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	log.Debug().Str("path", path).Msg("sqlite store opened")
	return &SQLite{db: db, log: log, newID: uuid.NewString, now: time.Now}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) GetPortfolio(ctx context.Context, id string) (performance.Portfolio, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM portfolios WHERE id = ?`, id)
	p, err := scanPortfolio(row)
	if errors.Is(err, sql.ErrNoRows) {
		return p, notFound("portfolio", id)
	}
	return p, err
}

func (s *SQLite) ListPortfolios(ctx context.Context) ([]performance.Portfolio, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM portfolios ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []performance.Portfolio
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (s *SQLite) CreatePortfolio(ctx context.Context, name string) (performance.Portfolio, error) {
	if err := performance.ValidatePortfolioName(name); err != nil {
		return performance.Portfolio{}, err
	}
	p := performance.Portfolio{ID: s.newID(), Name: strings.TrimSpace(name), CreatedDate: s.now().UTC()}
	_, err := s.db.ExecContext(ctx, `INSERT INTO portfolios (id, name, created_at) VALUES (?, ?, ?)`, p.ID, p.Name, p.CreatedDate.UnixNano())
	if err != nil {
		return performance.Portfolio{}, fmt.Errorf("could not create portfolio: %w", err)
	}
	return p, nil
}

func (s *SQLite) RenamePortfolio(ctx context.Context, id, name string) (performance.Portfolio, error) {
	if err := performance.ValidatePortfolioName(name); err != nil {
		return performance.Portfolio{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE portfolios SET name = ? WHERE id = ?`, strings.TrimSpace(name), id)
	if err := affected(res, err, "portfolio", id); err != nil {
		return performance.Portfolio{}, err
	}
	return s.GetPortfolio(ctx, id)
}

func (s *SQLite) DeletePortfolio(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM portfolios WHERE id = ?`, id)
	return affected(res, err, "portfolio", id)
}

func (s *SQLite) ListHoldings(ctx context.Context, portfolioID string) ([]performance.Holding, error) {
	if _, err := s.GetPortfolio(ctx, portfolioID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, portfolio_id, symbol, name, kind FROM holdings WHERE portfolio_id = ? ORDER BY seq`, portfolioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []performance.Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, h)
	}
	return list, rows.Err()
}

func (s *SQLite) AddHolding(ctx context.Context, portfolioID string, h performance.Holding) (performance.Holding, error) {
	if _, err := s.GetPortfolio(ctx, portfolioID); err != nil {
		return performance.Holding{}, err
	}
	h, err := holdingFields(h)
	if err != nil {
		return performance.Holding{}, err
	}
	h.ID, h.PortfolioID = s.newID(), portfolioID
	_, err = s.db.ExecContext(ctx, `INSERT INTO holdings (id, portfolio_id, symbol, name, kind) VALUES (?, ?, ?, ?, ?)`,
		h.ID, h.PortfolioID, h.Symbol, h.DisplayName, string(h.Kind))
	if err != nil {
		return performance.Holding{}, fmt.Errorf("could not add holding: %w", err)
	}
	return h, nil
}

// GetHolding returns the holding with its transactions sorted by date.
func (s *SQLite) GetHolding(ctx context.Context, portfolioID, holdingID string) (performance.Holding, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, portfolio_id, symbol, name, kind FROM holdings WHERE id = ? AND portfolio_id = ?`, holdingID, portfolioID)
	h, err := scanHolding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return h, notFound("holding", holdingID)
	}
	if err != nil {
		return h, err
	}
	h.Transactions, err = s.ListTransactions(ctx, holdingID)
	return h, err
}

func (s *SQLite) UpdateHolding(ctx context.Context, portfolioID, holdingID string, h performance.Holding) (performance.Holding, error) {
	h, err := holdingFields(h)
	if err != nil {
		return performance.Holding{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE holdings SET symbol = ?, name = ?, kind = ? WHERE id = ? AND portfolio_id = ?`,
		h.Symbol, h.DisplayName, string(h.Kind), holdingID, portfolioID)
	if err := affected(res, err, "holding", holdingID); err != nil {
		return performance.Holding{}, err
	}
	h.ID, h.PortfolioID = holdingID, portfolioID
	return h, nil
}

func (s *SQLite) RemoveHolding(ctx context.Context, portfolioID, holdingID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM holdings WHERE id = ? AND portfolio_id = ?`, holdingID, portfolioID)
	return affected(res, err, "holding", holdingID)
}

// ListTransactions returns the holding's transactions sorted by date, then by recording order.
func (s *SQLite) ListTransactions(ctx context.Context, holdingID string) ([]performance.Transaction, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM holdings WHERE id = ?`, holdingID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, notFound("holding", holdingID)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, holding_id, date, quantity, unit_price, kind FROM transactions WHERE holding_id = ? ORDER BY date, seq`, holdingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []performance.Transaction
	for rows.Next() {
		var (
			tx                  performance.Transaction
			nanos               int64
			quantity, unitPrice string
			kind                string
		)
		if err := rows.Scan(&tx.ID, &tx.HoldingID, &nanos, &quantity, &unitPrice, &kind); err != nil {
			return nil, err
		}
		tx.Date = time.Unix(0, nanos).UTC()
		tx.Kind = performance.Kind(kind)
		if tx.Quantity, err = performance.ParseQuantity(quantity); err != nil {
			return nil, fmt.Errorf("transaction %q: invalid quantity %q: %w", tx.ID, quantity, err)
		}
		if tx.UnitPrice, err = performance.ParseMoney(unitPrice, ""); err != nil {
			return nil, fmt.Errorf("transaction %q: invalid price %q: %w", tx.ID, unitPrice, err)
		}
		list = append(list, tx)
	}
	return list, rows.Err()
}

func (s *SQLite) AddTransaction(ctx context.Context, portfolioID, holdingID string, tx performance.Transaction) (performance.Transaction, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM holdings WHERE id = ? AND portfolio_id = ?`, holdingID, portfolioID).Scan(&exists)
	if err != nil {
		return performance.Transaction{}, err
	}
	if exists == 0 {
		return performance.Transaction{}, notFound("holding", holdingID)
	}
	tx = performance.NewTransaction(s.newID(), holdingID, tx.Date, tx.Kind, tx.Quantity, tx.UnitPrice)
	if err := tx.Validate(); err != nil {
		return performance.Transaction{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO transactions (id, holding_id, date, quantity, unit_price, kind) VALUES (?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.HoldingID, tx.Date.UnixNano(), tx.Quantity.String(), tx.UnitPrice.Decimal().String(), string(tx.Kind))
	if err != nil {
		return performance.Transaction{}, fmt.Errorf("could not add transaction: %w", err)
	}
	return tx, nil
}

// scanner is either a *sql.Row or *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPortfolio(row scanner) (performance.Portfolio, error) {
	var (
		p     performance.Portfolio
		nanos int64
	)
	if err := row.Scan(&p.ID, &p.Name, &nanos); err != nil {
		return performance.Portfolio{}, err
	}
	p.CreatedDate = time.Unix(0, nanos).UTC()
	return p, nil
}

func scanHolding(row scanner) (performance.Holding, error) {
	var (
		h    performance.Holding
		kind string
	)
	if err := row.Scan(&h.ID, &h.PortfolioID, &h.Symbol, &h.DisplayName, &kind); err != nil {
		return performance.Holding{}, err
	}
	h.Kind = performance.AssetKind(kind)
	return h, nil
}

// affected turns an update of zero rows into a not found error.
func affected(res sql.Result, err error, kind, id string) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(kind, id)
	}
	return nil
}
