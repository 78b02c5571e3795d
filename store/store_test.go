package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/etnz/performance"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

var valueComparers = cmp.Options{
	cmp.Comparer(func(a, b performance.Money) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b performance.Quantity) bool { return a.Equal(b) }),
}

// openers open a fresh store of every kind.
var openers = map[string]func(t *testing.T) Store{
	"memory": func(t *testing.T) Store { return NewMemory() },
	"journal": func(t *testing.T) Store {
		j, err := OpenJournal(filepath.Join(t.TempDir(), "portfolios.jsonl"), zerolog.Nop())
		if err != nil {
			t.Fatalf("OpenJournal() error = %v", err)
		}
		return j
	},
	"sqlite": func(t *testing.T) Store {
		s, err := OpenSQLite(filepath.Join(t.TempDir(), "portfolios.db"), zerolog.Nop())
		if err != nil {
			t.Fatalf("OpenSQLite() error = %v", err)
		}
		return s
	},
}

func tx(on string, kind performance.Kind, q, price float64) performance.Transaction {
	d, err := time.Parse(time.DateOnly, on)
	if err != nil {
		panic(err)
	}
	return performance.Transaction{Date: d, Kind: kind, Quantity: performance.Q(q), UnitPrice: performance.M(price, "")}
}

func TestStore_Portfolios(t *testing.T) {
	ctx := context.Background()
	for name, open := range openers {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()

			if _, err := s.CreatePortfolio(ctx, "ab"); !errors.Is(err, performance.ErrInvalid) {
				t.Errorf("CreatePortfolio(ab) error = %v, want %v", err, performance.ErrInvalid)
			}
			main, err := s.CreatePortfolio(ctx, " Main ")
			if err != nil {
				t.Fatalf("CreatePortfolio() error = %v", err)
			}
			if main.ID == "" || main.Name != "Main" || main.CreatedDate.IsZero() || main.CreatedDate.Location() != time.UTC {
				t.Errorf("CreatePortfolio() = %+v", main)
			}
			other, err := s.CreatePortfolio(ctx, "Other")
			if err != nil {
				t.Fatalf("CreatePortfolio() error = %v", err)
			}

			list, err := s.ListPortfolios(ctx)
			if err != nil {
				t.Fatalf("ListPortfolios() error = %v", err)
			}
			if len(list) != 2 || list[0].ID != main.ID || list[1].ID != other.ID {
				t.Errorf("ListPortfolios() = %+v, want [Main Other]", list)
			}

			renamed, err := s.RenamePortfolio(ctx, main.ID, "Renamed")
			if err != nil || renamed.Name != "Renamed" {
				t.Errorf("RenamePortfolio() = %+v, %v", renamed, err)
			}
			if _, err := s.RenamePortfolio(ctx, "missing", "Renamed"); !errors.Is(err, performance.ErrNotFound) {
				t.Errorf("RenamePortfolio(missing) error = %v, want %v", err, performance.ErrNotFound)
			}

			if err := s.DeletePortfolio(ctx, other.ID); err != nil {
				t.Fatalf("DeletePortfolio() error = %v", err)
			}
			if _, err := s.GetPortfolio(ctx, other.ID); !errors.Is(err, performance.ErrNotFound) {
				t.Errorf("GetPortfolio(deleted) error = %v, want %v", err, performance.ErrNotFound)
			}
			if err := s.DeletePortfolio(ctx, other.ID); !errors.Is(err, performance.ErrNotFound) {
				t.Errorf("DeletePortfolio(deleted) error = %v, want %v", err, performance.ErrNotFound)
			}
			got, err := s.GetPortfolio(ctx, main.ID)
			if err != nil || got.Name != "Renamed" {
				t.Errorf("GetPortfolio() = %+v, %v", got, err)
			}
		})
	}
}

func TestStore_Holdings(t *testing.T) {
	ctx := context.Background()
	for name, open := range openers {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()

			p1, _ := s.CreatePortfolio(ctx, "First")
			p2, _ := s.CreatePortfolio(ctx, "Second")

			if _, err := s.AddHolding(ctx, p1.ID, performance.Holding{Symbol: "", DisplayName: "x", Kind: "option"}); !errors.Is(err, performance.ErrInvalid) {
				t.Errorf("AddHolding(invalid) error = %v, want %v", err, performance.ErrInvalid)
			}
			if _, err := s.AddHolding(ctx, "missing", performance.Holding{Symbol: "AAPL", DisplayName: "Apple", Kind: performance.Stock}); !errors.Is(err, performance.ErrNotFound) {
				t.Errorf("AddHolding(missing portfolio) error = %v, want %v", err, performance.ErrNotFound)
			}

			aapl, err := s.AddHolding(ctx, p1.ID, performance.Holding{Symbol: "AAPL", DisplayName: "Apple", Kind: "Stock"})
			if err != nil {
				t.Fatalf("AddHolding() error = %v", err)
			}
			if aapl.ID == "" || aapl.PortfolioID != p1.ID || aapl.Kind != performance.Stock {
				t.Errorf("AddHolding() = %+v", aapl)
			}
			msft, _ := s.AddHolding(ctx, p1.ID, performance.Holding{Symbol: "MSFT", DisplayName: "Microsoft", Kind: performance.Stock})
			btc, _ := s.AddHolding(ctx, p2.ID, performance.Holding{Symbol: "BTC", DisplayName: "Bitcoin", Kind: performance.Crypto})

			list, err := s.ListHoldings(ctx, p1.ID)
			if err != nil {
				t.Fatalf("ListHoldings() error = %v", err)
			}
			if len(list) != 2 || list[0].ID != aapl.ID || list[1].ID != msft.ID {
				t.Errorf("ListHoldings() = %+v, want [AAPL MSFT]", list)
			}

			// scoped by portfolio
			if _, err := s.GetHolding(ctx, p1.ID, btc.ID); !errors.Is(err, performance.ErrNotFound) {
				t.Errorf("GetHolding(other portfolio) error = %v, want %v", err, performance.ErrNotFound)
			}
			if err := s.RemoveHolding(ctx, p1.ID, btc.ID); !errors.Is(err, performance.ErrNotFound) {
				t.Errorf("RemoveHolding(other portfolio) error = %v, want %v", err, performance.ErrNotFound)
			}

			updated, err := s.UpdateHolding(ctx, p1.ID, msft.ID, performance.Holding{Symbol: "MSFT", DisplayName: "Microsoft Corp", Kind: performance.ETF})
			if err != nil || updated.DisplayName != "Microsoft Corp" || updated.Kind != performance.ETF || updated.ID != msft.ID {
				t.Errorf("UpdateHolding() = %+v, %v", updated, err)
			}
			if _, err := s.UpdateHolding(ctx, p1.ID, msft.ID, performance.Holding{Symbol: "MSFT", DisplayName: "M", Kind: performance.ETF}); !errors.Is(err, performance.ErrInvalid) {
				t.Errorf("UpdateHolding(invalid) error = %v, want %v", err, performance.ErrInvalid)
			}

			if err := s.RemoveHolding(ctx, p1.ID, aapl.ID); err != nil {
				t.Fatalf("RemoveHolding() error = %v", err)
			}
			list, _ = s.ListHoldings(ctx, p1.ID)
			if len(list) != 1 || list[0].ID != msft.ID {
				t.Errorf("ListHoldings() after remove = %+v", list)
			}

			found, err := FindHolding(ctx, s, p1.ID, "msft")
			if err != nil || found.ID != msft.ID {
				t.Errorf("FindHolding(msft) = %+v, %v", found, err)
			}
			if _, err := FindHolding(ctx, s, p1.ID, "AAPL"); !errors.Is(err, performance.ErrNotFound) {
				t.Errorf("FindHolding(removed) error = %v, want %v", err, performance.ErrNotFound)
			}
			fp, err := FindPortfolio(ctx, s, "second")
			if err != nil || fp.ID != p2.ID {
				t.Errorf("FindPortfolio(second) = %+v, %v", fp, err)
			}
		})
	}
}

func TestStore_Transactions(t *testing.T) {
	ctx := context.Background()
	for name, open := range openers {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()

			p, _ := s.CreatePortfolio(ctx, "Main")
			h, _ := s.AddHolding(ctx, p.ID, performance.Holding{Symbol: "AAPL", DisplayName: "Apple", Kind: performance.Stock})
			other, _ := s.CreatePortfolio(ctx, "Other")

			inputs := []performance.Transaction{
				tx("2025-01-03", performance.Sell, 2, 120),
				tx("2025-01-01", performance.Buy, 10, 100.5),
				tx("2025-01-03", performance.Buy, 1, 110), // same instant as the sell, recorded after
			}
			var added []performance.Transaction
			for _, in := range inputs {
				got, err := s.AddTransaction(ctx, p.ID, h.ID, in)
				if err != nil {
					t.Fatalf("AddTransaction() error = %v", err)
				}
				if got.ID == "" || got.HoldingID != h.ID {
					t.Errorf("AddTransaction() = %+v", got)
				}
				added = append(added, got)
			}

			if _, err := s.AddTransaction(ctx, other.ID, h.ID, inputs[0]); !errors.Is(err, performance.ErrNotFound) {
				t.Errorf("AddTransaction(other portfolio) error = %v, want %v", err, performance.ErrNotFound)
			}
			if _, err := s.AddTransaction(ctx, p.ID, h.ID, tx("2025-01-01", performance.Buy, 0, -1)); !errors.Is(err, performance.ErrInvalid) {
				t.Errorf("AddTransaction(invalid) error = %v, want %v", err, performance.ErrInvalid)
			}

			want := []performance.Transaction{added[1], added[0], added[2]}
			got, err := s.ListTransactions(ctx, h.ID)
			if err != nil {
				t.Fatalf("ListTransactions() error = %v", err)
			}
			if diff := cmp.Diff(want, got, valueComparers); diff != "" {
				t.Errorf("ListTransactions() mismatch (-want +got):\n%s", diff)
			}

			detail, err := s.GetHolding(ctx, p.ID, h.ID)
			if err != nil {
				t.Fatalf("GetHolding() error = %v", err)
			}
			if diff := cmp.Diff(want, detail.Transactions, valueComparers); diff != "" {
				t.Errorf("GetHolding().Transactions mismatch (-want +got):\n%s", diff)
			}

			// cascade
			if err := s.DeletePortfolio(ctx, p.ID); err != nil {
				t.Fatalf("DeletePortfolio() error = %v", err)
			}
			if _, err := s.ListTransactions(ctx, h.ID); !errors.Is(err, performance.ErrNotFound) {
				t.Errorf("ListTransactions(deleted) error = %v, want %v", err, performance.ErrNotFound)
			}
		})
	}
}

func TestStore_Report(t *testing.T) {
	ctx := context.Background()
	for name, open := range openers {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()

			p, _ := s.CreatePortfolio(ctx, "Main")
			h, _ := s.AddHolding(ctx, p.ID, performance.Holding{Symbol: "AAPL", DisplayName: "Apple", Kind: performance.Stock})
			for _, in := range []performance.Transaction{
				tx("2025-01-01", performance.Buy, 10, 100),
				tx("2025-01-02", performance.Buy, 5, 110),
				tx("2025-01-03", performance.Sell, 8, 120),
				tx("2025-01-04", performance.Sell, 4, 130),
			} {
				if _, err := s.AddTransaction(ctx, p.ID, h.ID, in); err != nil {
					t.Fatalf("AddTransaction() error = %v", err)
				}
			}

			oracle := performance.OracleFunc(func(ctx context.Context, symbol string) (performance.Money, error) {
				return performance.M(140, ""), nil
			})
			report, ok, err := performance.NewComposer(s, oracle, "USD").Report(ctx, p.ID, performance.Window{})
			if err != nil || !ok {
				t.Fatalf("Report() = _, %v, %v", ok, err)
			}
			if !report.TotalRealized.Equal(performance.M(260, "USD")) || !report.TotalUnrealized.Equal(performance.M(90, "USD")) {
				t.Errorf("Report() realized %v unrealized %v, want 260 and 90", report.TotalRealized, report.TotalUnrealized)
			}
		})
	}
}

func TestJournal_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "portfolios.jsonl")
	j, err := OpenJournal(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenJournal() error = %v", err)
	}
	p, _ := j.CreatePortfolio(ctx, "Main")
	gone, _ := j.CreatePortfolio(ctx, "Gone")
	h, _ := j.AddHolding(ctx, p.ID, performance.Holding{Symbol: "AAPL", DisplayName: "Apple", Kind: performance.Stock})
	j.UpdateHolding(ctx, p.ID, h.ID, performance.Holding{Symbol: "AAPL", DisplayName: "Apple Inc.", Kind: performance.Stock})
	removed, _ := j.AddHolding(ctx, p.ID, performance.Holding{Symbol: "MSFT", DisplayName: "Microsoft", Kind: performance.Stock})
	j.AddTransaction(ctx, p.ID, h.ID, tx("2025-01-01", performance.Buy, 10, 100.25))
	j.AddTransaction(ctx, p.ID, h.ID, tx("2025-01-02", performance.Sell, 3, 101))
	j.RemoveHolding(ctx, p.ID, removed.ID)
	j.RenamePortfolio(ctx, p.ID, "Main Renamed")
	j.DeletePortfolio(ctx, gone.ID)
	before, _ := j.GetHolding(ctx, p.ID, h.ID)
	if err := j.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenJournal(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenJournal() error = %v", err)
	}
	defer reopened.Close()

	list, _ := reopened.ListPortfolios(ctx)
	if len(list) != 1 || list[0].Name != "Main Renamed" || !list[0].CreatedDate.Equal(p.CreatedDate) {
		t.Errorf("ListPortfolios() = %+v", list)
	}
	after, err := reopened.GetHolding(ctx, p.ID, h.ID)
	if err != nil {
		t.Fatalf("GetHolding() error = %v", err)
	}
	if diff := cmp.Diff(before, after, valueComparers); diff != "" {
		t.Errorf("holding mismatch after reopen (-before +after):\n%s", diff)
	}
	holdings, _ := reopened.ListHoldings(ctx, p.ID)
	if len(holdings) != 1 {
		t.Errorf("ListHoldings() = %+v, want only AAPL", holdings)
	}
}

func TestJournal_WriteFailure(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "portfolios.jsonl")
	j, err := OpenJournal(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenJournal() error = %v", err)
	}
	p, _ := j.CreatePortfolio(ctx, "Main")
	h, _ := j.AddHolding(ctx, p.ID, performance.Holding{Symbol: "AAPL", DisplayName: "Apple", Kind: performance.Stock})
	j.AddTransaction(ctx, p.ID, h.ID, tx("2025-01-01", performance.Buy, 10, 100))

	// every later append fails
	if err := j.file.Close(); err != nil {
		t.Fatal(err)
	}
	before := j.mem.save()

	mutations := map[string]func() error{
		"create": func() error { _, err := j.CreatePortfolio(ctx, "Other"); return err },
		"rename": func() error { _, err := j.RenamePortfolio(ctx, p.ID, "Renamed"); return err },
		"delete": func() error { return j.DeletePortfolio(ctx, p.ID) },
		"add holding": func() error {
			_, err := j.AddHolding(ctx, p.ID, performance.Holding{Symbol: "MSFT", DisplayName: "Microsoft", Kind: performance.Stock})
			return err
		},
		"update holding": func() error {
			_, err := j.UpdateHolding(ctx, p.ID, h.ID, performance.Holding{Symbol: "AAPL", DisplayName: "Apple Inc.", Kind: performance.ETF})
			return err
		},
		"remove holding":  func() error { return j.RemoveHolding(ctx, p.ID, h.ID) },
		"add transaction": func() error { _, err := j.AddTransaction(ctx, p.ID, h.ID, tx("2025-01-02", performance.Sell, 4, 120)); return err },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			if err := mutate(); err == nil {
				t.Fatal("mutation succeeded on a closed journal")
			}
			after := j.mem.save()
			if diff := cmp.Diff(before, after, cmp.AllowUnexported(memoryState{}), valueComparers); diff != "" {
				t.Errorf("memory changed after a failed write (-before +after):\n%s", diff)
			}
		})
	}

	list, _ := j.ListPortfolios(ctx)
	if len(list) != 1 || list[0].Name != "Main" {
		t.Errorf("ListPortfolios() = %+v, want only Main", list)
	}
	txs, _ := j.ListTransactions(ctx, h.ID)
	if len(txs) != 1 {
		t.Errorf("ListTransactions() = %+v, want the single buy", txs)
	}
}

func TestJournal_Corrupted(t *testing.T) {
	for name, content := range map[string]string{
		"not json":        "{\"command\":\n",
		"unknown command": `{"command":"dividend","id":"x"}` + "\n",
		"unknown holding": `{"command":"buy","id":"t","portfolio":"p","holding":"h","date":"2025-01-01T00:00:00Z","quantity":1,"price":1}` + "\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.jsonl")
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := OpenJournal(path, zerolog.Nop()); err == nil {
				t.Errorf("OpenJournal() succeeded on %q", content)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	testCases := []struct {
		addr    string
		want    string
		wantErr bool
	}{
		{addr: "memory:", want: "*store.Memory"},
		{addr: "sqlite:" + filepath.Join(dir, "a.db"), want: "*store.SQLite"},
		{addr: filepath.Join(dir, "a.jsonl"), want: "*store.Journal"},
		{addr: "", wantErr: true},
	}
	for _, tc := range testCases {
		s, err := Open(tc.addr, zerolog.Nop())
		if (err != nil) != tc.wantErr {
			t.Errorf("Open(%q) error = %v, wantErr %v", tc.addr, err, tc.wantErr)
			continue
		}
		if err != nil {
			continue
		}
		if got := fmt.Sprintf("%T", s); got != tc.want {
			t.Errorf("Open(%q) = %s, want %s", tc.addr, got, tc.want)
		}
		s.Close()
	}
}
