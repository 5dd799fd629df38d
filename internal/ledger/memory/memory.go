package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fincoach/internal/core"
	"fincoach/internal/ledger"
)

var (
	_ ledger.TransactionSource = (*Store)(nil)
	_ ledger.TransactionWriter = (*Store)(nil)
)

type demoEntry struct {
	daysAgo     int
	description string
	amount      string
	category    core.Category
}

// demoLedger is the sandbox account every new session sees by default.
var demoLedger = []demoEntry{
	{3, "Starbucks", "-12.50", core.CategoryFoodDining},
	{4, "Whole Foods", "-87.30", core.CategoryGroceries},
	{5, "Netflix", "-15.99", core.CategoryEntertainment},
	{6, "Uber", "-22.10", core.CategoryTransport},
	{7, "Salary", "3200.00", core.CategoryIncome},
	{11, "Target", "-145.60", core.CategoryShopping},
	{13, "Chipotle", "-28.40", core.CategoryFoodDining},
}

// DemoTransactions returns the sandbox ledger dated relative to now.
func DemoTransactions(now time.Time) []core.Transaction {
	out := make([]core.Transaction, 0, len(demoLedger))
	for _, e := range demoLedger {
		out = append(out, core.Transaction{
			Date:        core.Date{Time: now.AddDate(0, 0, -e.daysAgo)},
			Description: e.description,
			Amount:      decimal.RequireFromString(e.amount),
			Category:    e.category,
		})
	}
	return out
}

// Store is an in-memory ledger. A demo store regenerates the sandbox
// transactions relative to the requested time; appended rows are fixed.
type Store struct {
	mu    sync.Mutex
	demo  bool
	items []core.Transaction
}

func New(txs []core.Transaction) *Store {
	return &Store{items: append([]core.Transaction(nil), txs...)}
}

// NewDemo returns a store seeded with the sandbox ledger.
func NewDemo() *Store {
	return &Store{demo: true}
}

// NewFromCSV loads "date,description,amount,category" rows. A header row
// is skipped if present.
func NewFromCSV(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger csv: %w", err)
	}
	defer f.Close()

	txs, err := readCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read ledger csv %s: %w", path, err)
	}
	return New(txs), nil
}

func readCSV(r io.Reader) ([]core.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var out []core.Transaction
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "date") {
			continue
		}
		date, err := core.ParseDate(rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		amount, err := core.ParseAmount(rec[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid amount %q", line, rec[2])
		}
		tx := core.Transaction{
			Date:        date,
			Description: strings.TrimSpace(rec[1]),
			Amount:      amount,
			Category:    core.Category(strings.TrimSpace(rec[3])),
		}
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, tx)
	}
	return out, nil
}

// Transactions returns a copy of the ledger as seen at now.
func (s *Store) Transactions(_ context.Context, now time.Time) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	if s.demo {
		out = DemoTransactions(now)
	}
	return append(out, s.items...), nil
}

// AppendTransactions validates and stores txs, returning how many were added.
func (s *Store) AppendTransactions(_ context.Context, txs []core.Transaction) (int, error) {
	for i, tx := range txs {
		if err := tx.Validate(); err != nil {
			return 0, fmt.Errorf("transaction %d: %w", i, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, txs...)
	return len(txs), nil
}
