package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fincoach/internal/core"
)

func TestDemoTransactions_RelativeDates(t *testing.T) {
	now := time.Date(2025, 12, 5, 15, 30, 0, 0, time.UTC)
	txs := DemoTransactions(now)

	if len(txs) != 7 {
		t.Fatalf("expected 7 demo transactions, got %d", len(txs))
	}
	if txs[0].Description != "Starbucks" || !txs[0].Date.Equal(now.AddDate(0, 0, -3)) {
		t.Fatalf("unexpected first row: %+v", txs[0])
	}
	if txs[4].Category != core.CategoryIncome || !txs[4].Amount.Equal(decimal.NewFromInt(3200)) {
		t.Fatalf("salary row wrong: %+v", txs[4])
	}
	for i, tx := range txs {
		if err := tx.Validate(); err != nil {
			t.Fatalf("demo row %d invalid: %v", i, err)
		}
	}
}

func TestStore_DemoAndAppend(t *testing.T) {
	ctx := context.Background()
	s := NewDemo()
	extra := core.Transaction{
		Date:        core.NewDate(2025, 12, 1),
		Description: "Gym",
		Amount:      decimal.RequireFromString("-40"),
		Category:    "Health",
	}
	if n, err := s.AppendTransactions(ctx, []core.Transaction{extra}); err != nil || n != 1 {
		t.Fatalf("AppendTransactions = %d, %v", n, err)
	}
	if _, err := s.AppendTransactions(ctx, []core.Transaction{{Description: "bad"}}); err == nil {
		t.Fatal("expected validation error")
	}

	txs, err := s.Transactions(ctx, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 8 || txs[7].Description != "Gym" {
		t.Fatalf("unexpected ledger: %+v", txs)
	}

	// callers get a copy
	txs[7].Description = "changed"
	again, _ := s.Transactions(ctx, time.Now())
	if again[7].Description != "Gym" {
		t.Fatal("store leaked its backing slice")
	}
}

func TestReadCSV(t *testing.T) {
	in := `date,description,amount,category
# comment
2025-11-03,Starbucks,-12.50,Food & Dining
2025-11-04, Whole Foods ,"-87.30",Groceries
2025-11-07,Salary,"$3,200",Income
`
	txs, err := readCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("readCSV: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(txs))
	}
	if txs[1].Description != "Whole Foods" || !txs[1].Amount.Equal(decimal.RequireFromString("-87.3")) {
		t.Fatalf("row 2 wrong: %+v", txs[1])
	}
	if !txs[2].Amount.Equal(decimal.NewFromInt(3200)) {
		t.Fatalf("salary amount wrong: %s", txs[2].Amount)
	}

	if _, err := readCSV(strings.NewReader("2025-13-01,x,-1,Food\n")); err == nil {
		t.Fatal("expected error for invalid date")
	}
}

func TestNewFromCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	if err := os.WriteFile(path, []byte("2025-11-03,Uber,-22.10,Transport\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := NewFromCSV(path)
	if err != nil {
		t.Fatalf("NewFromCSV: %v", err)
	}
	txs, _ := s.Transactions(context.Background(), time.Now())
	if len(txs) != 1 || txs[0].Category != core.CategoryTransport {
		t.Fatalf("unexpected rows: %+v", txs)
	}

	if _, err := NewFromCSV(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
