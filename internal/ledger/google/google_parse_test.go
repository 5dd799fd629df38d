package google

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"fincoach/internal/core"
)

// Matrix as returned with UNFORMATTED_VALUE: amounts are numbers, dates are
// formatted strings.
func TestParseLedger_SandboxExport(t *testing.T) {
	values := [][]interface{}{
		{"Date", "Description", "Amount", "Category", "Notes"},
		{"2025-11-28", "Starbucks", -12.5, "Food & Dining"},
		{"2025-11-27", "Whole Foods", -87.3, "Groceries", "weekly shop"},
		{"11/26/2025", "Netflix", "-15.99", "Entertainment"},
		{},
		{"2025-11-24", "Salary", 3200.0, "Income"},
		{"not a date", "Broken", -1.0, "Shopping"},
		{"2025-11-20", "No amount", "", "Shopping"},
		{"2025-11-18", "", -4.0, "Shopping"},
	}
	txs, skipped, err := parseLedger(values)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if len(txs) != 4 {
		t.Fatalf("expected 4 transactions, got %d: %+v", len(txs), txs)
	}
	if skipped != 3 {
		t.Fatalf("expected 3 skipped rows, got %d", skipped)
	}
	if !txs[0].Amount.Equal(decimal.RequireFromString("-12.5")) || txs[0].Category != core.CategoryFoodDining {
		t.Fatalf("first row wrong: %+v", txs[0])
	}
	if got := txs[2].Date.String(); got != "2025-11-26" {
		t.Fatalf("US date parsed as %s", got)
	}
	if !txs[3].Amount.Equal(decimal.NewFromInt(3200)) {
		t.Fatalf("salary parsed as %s", txs[3].Amount)
	}
}

func TestParseLedger_ReorderedColumns(t *testing.T) {
	values := [][]interface{}{
		{"category", "amount", "description", "date"},
		{"Transport", -22.1, "Uber", "2025-11-25"},
	}
	txs, _, err := parseLedger(values)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if len(txs) != 1 || txs[0].Description != "Uber" || txs[0].Category != core.CategoryTransport {
		t.Fatalf("unexpected result: %+v", txs)
	}
}

func TestParseLedger_MissingHeader(t *testing.T) {
	values := [][]interface{}{
		{"Date", "Description", "Value"},
		{"2025-11-25", "Uber", -22.1},
	}
	_, _, err := parseLedger(values)
	if err == nil {
		t.Fatal("expected header error")
	}
	if !strings.Contains(err.Error(), "missing Amount,Category") {
		t.Fatalf("error should list missing columns, got %v", err)
	}
}

func TestParseLedger_Empty(t *testing.T) {
	txs, skipped, err := parseLedger(nil)
	if err != nil || len(txs) != 0 || skipped != 0 {
		t.Fatalf("parseLedger(nil) = %v, %d, %v", txs, skipped, err)
	}
}
