package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/etnz/performance"
	"github.com/rs/zerolog"
)

// commandType identifies a journal line.
type commandType string

const (
	cmdCreatePortfolio commandType = "create-portfolio"
	cmdRenamePortfolio commandType = "rename-portfolio"
	cmdDeletePortfolio commandType = "delete-portfolio"
	cmdAddHolding      commandType = "add-holding"
	cmdUpdateHolding   commandType = "update-holding"
	cmdRemoveHolding   commandType = "remove-holding"
	cmdBuy             commandType = "buy"
	cmdSell            commandType = "sell"
)

// command is one line of the journal. Only the fields relevant to the
// command are set.
type command struct {
	Command   commandType           `json:"command"`
	ID        string                `json:"id"`
	Portfolio string                `json:"portfolio,omitempty"`
	Holding   string                `json:"holding,omitempty"`
	Date      time.Time             `json:"date,omitzero"`
	Name      string                `json:"name,omitempty"`
	Symbol    string                `json:"symbol,omitempty"`
	Kind      performance.AssetKind `json:"kind,omitempty"`
	Quantity  *performance.Quantity `json:"quantity,omitempty"`
	Price     *performance.Money    `json:"price,omitempty"`
}

// Journal is a Store persisted as a JSONL file of commands.
//
// The file is replayed into memory when opened, every successful mutation
// appends its command to the file. Lines are never rewritten, the file can
// be edited by hand and versioned.
type Journal struct {
	mu   sync.Mutex
	mem  *Memory
	file *os.File
	log  zerolog.Logger
}

// OpenJournal opens the journal at path, creating it if needed.
func OpenJournal(path string, log zerolog.Logger) (*Journal, error) {
	mem := NewMemory()
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("could not open journal: %w", err)
	}
	n, err := replay(f, mem)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("could not read journal %q: %w", path, err)
	}
	// later writes append
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, err
	}
	log.Debug().Str("path", path).Int("commands", n).Int("portfolios", len(mem.portfolios)).Msg("journal replayed")
	return &Journal{mem: mem, file: f, log: log}, nil
}

// replay applies every command of r to mem, and returns the count of commands.
func replay(r io.Reader, mem *Memory) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n, line := 0, 0
	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}
		var cmd command
		if err := json.Unmarshal(lineBytes, &cmd); err != nil {
			return n, fmt.Errorf("line %d: could not decode command %q: %w", line, string(lineBytes), err)
		}
		if err := mem.apply(cmd); err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("error reading from input: %w", err)
	}
	return n, nil
}

// apply executes cmd as recorded, with its recorded IDs and dates.
func (m *Memory) apply(cmd command) error {
	var err error
	switch cmd.Command {
	case cmdCreatePortfolio:
		_, err = m.createPortfolio(cmd.ID, cmd.Name, cmd.Date)
	case cmdRenamePortfolio:
		_, err = m.renamePortfolio(cmd.ID, cmd.Name)
	case cmdDeletePortfolio:
		err = m.deletePortfolio(cmd.ID)
	case cmdAddHolding:
		_, err = m.addHolding(cmd.ID, cmd.Portfolio, performance.Holding{Symbol: cmd.Symbol, DisplayName: cmd.Name, Kind: cmd.Kind})
	case cmdUpdateHolding:
		_, err = m.updateHolding(cmd.Portfolio, cmd.ID, performance.Holding{Symbol: cmd.Symbol, DisplayName: cmd.Name, Kind: cmd.Kind})
	case cmdRemoveHolding:
		err = m.removeHolding(cmd.Portfolio, cmd.ID)
	case cmdBuy, cmdSell:
		if cmd.Quantity == nil || cmd.Price == nil {
			return fmt.Errorf("%w: %s command without quantity or price", performance.ErrInvalid, cmd.Command)
		}
		tx := performance.Transaction{ID: cmd.ID, Date: cmd.Date, Quantity: *cmd.Quantity, UnitPrice: *cmd.Price, Kind: performance.Kind(cmd.Command)}
		_, err = m.addTransaction(cmd.Portfolio, cmd.Holding, tx)
	default:
		err = fmt.Errorf("unknown journal command: %q", cmd.Command)
	}
	return err
}

// append writes cmd at the end of the file.
func (j *Journal) append(cmd command) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}
	if _, err := j.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write command: %w", err)
	}
	return nil
}

// mutate runs op on the memory, then records the command it returns.
//
// The memory is restored when the command cannot be recorded.
func (j *Journal) mutate(op func(m *Memory) (command, error)) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.mem.mu.Lock()
	defer j.mem.mu.Unlock()
	saved := j.mem.save()
	cmd, err := op(j.mem)
	if err != nil {
		j.mem.restore(saved)
		return err
	}
	if err := j.append(cmd); err != nil {
		j.mem.restore(saved)
		j.log.Error().Err(err).Str("command", string(cmd.Command)).Str("id", cmd.ID).Msg("command not recorded, rolled back")
		return err
	}
	return nil
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return errors.Join(j.file.Sync(), j.file.Close())
}

func (j *Journal) GetPortfolio(ctx context.Context, id string) (performance.Portfolio, error) {
	return j.mem.GetPortfolio(ctx, id)
}

func (j *Journal) ListPortfolios(ctx context.Context) ([]performance.Portfolio, error) {
	return j.mem.ListPortfolios(ctx)
}

func (j *Journal) ListHoldings(ctx context.Context, portfolioID string) ([]performance.Holding, error) {
	return j.mem.ListHoldings(ctx, portfolioID)
}

func (j *Journal) GetHolding(ctx context.Context, portfolioID, holdingID string) (performance.Holding, error) {
	return j.mem.GetHolding(ctx, portfolioID, holdingID)
}

func (j *Journal) ListTransactions(ctx context.Context, holdingID string) ([]performance.Transaction, error) {
	return j.mem.ListTransactions(ctx, holdingID)
}

func (j *Journal) CreatePortfolio(ctx context.Context, name string) (p performance.Portfolio, err error) {
	err = j.mutate(func(m *Memory) (command, error) {
		p, err = m.createPortfolio(m.newID(), name, m.now())
		return command{Command: cmdCreatePortfolio, ID: p.ID, Name: p.Name, Date: p.CreatedDate}, err
	})
	return p, err
}

func (j *Journal) RenamePortfolio(ctx context.Context, id, name string) (p performance.Portfolio, err error) {
	err = j.mutate(func(m *Memory) (command, error) {
		p, err = m.renamePortfolio(id, name)
		return command{Command: cmdRenamePortfolio, ID: id, Name: p.Name}, err
	})
	return p, err
}

func (j *Journal) DeletePortfolio(ctx context.Context, id string) error {
	return j.mutate(func(m *Memory) (command, error) {
		return command{Command: cmdDeletePortfolio, ID: id}, m.deletePortfolio(id)
	})
}

func (j *Journal) AddHolding(ctx context.Context, portfolioID string, h performance.Holding) (added performance.Holding, err error) {
	err = j.mutate(func(m *Memory) (command, error) {
		added, err = m.addHolding(m.newID(), portfolioID, h)
		return holdingCommand(cmdAddHolding, added), err
	})
	return added, err
}

func (j *Journal) UpdateHolding(ctx context.Context, portfolioID, holdingID string, h performance.Holding) (updated performance.Holding, err error) {
	err = j.mutate(func(m *Memory) (command, error) {
		updated, err = m.updateHolding(portfolioID, holdingID, h)
		return holdingCommand(cmdUpdateHolding, updated), err
	})
	return updated, err
}

func (j *Journal) RemoveHolding(ctx context.Context, portfolioID, holdingID string) error {
	return j.mutate(func(m *Memory) (command, error) {
		return command{Command: cmdRemoveHolding, ID: holdingID, Portfolio: portfolioID}, m.removeHolding(portfolioID, holdingID)
	})
}

func (j *Journal) AddTransaction(ctx context.Context, portfolioID, holdingID string, tx performance.Transaction) (added performance.Transaction, err error) {
	err = j.mutate(func(m *Memory) (command, error) {
		tx.ID = m.newID()
		added, err = m.addTransaction(portfolioID, holdingID, tx)
		return command{
			Command:   commandType(added.Kind),
			ID:        added.ID,
			Portfolio: portfolioID,
			Holding:   holdingID,
			Date:      added.Date,
			Quantity:  &added.Quantity,
			Price:     &added.UnitPrice,
		}, err
	})
	return added, err
}

func holdingCommand(c commandType, h performance.Holding) command {
	return command{Command: c, ID: h.ID, Portfolio: h.PortfolioID, Symbol: h.Symbol, Name: h.DisplayName, Kind: h.Kind}
}
