package adapters

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fincoach/internal/ledger/memory"
	"fincoach/internal/storage"
)

func TestSQLiteLedger_SeedIfEmpty(t *testing.T) {
	ctx := context.Background()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()

	l := NewSQLiteLedger(repo, "sandbox")
	now := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	seed := memory.DemoTransactions(now)

	seeded, err := l.SeedIfEmpty(ctx, seed)
	if err != nil || !seeded {
		t.Fatalf("first SeedIfEmpty = %v, %v", seeded, err)
	}
	seeded, err = l.SeedIfEmpty(ctx, seed)
	if err != nil || seeded {
		t.Fatalf("second SeedIfEmpty = %v, %v; want false", seeded, err)
	}

	txs, err := l.Transactions(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != len(seed) {
		t.Fatalf("expected %d rows, got %d", len(seed), len(txs))
	}
	// newest first
	if txs[0].Description != "Starbucks" {
		t.Fatalf("first row = %s, want Starbucks", txs[0].Description)
	}

	other := NewSQLiteLedger(repo, "empty")
	if txs, _ := other.Transactions(ctx, now); len(txs) != 0 {
		t.Fatalf("accounts must be isolated, got %d rows", len(txs))
	}
}
