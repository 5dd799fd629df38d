package adapters

import (
	"context"
	"fmt"
	"time"

	"fincoach/internal/core"
	"fincoach/internal/ledger"
	"fincoach/internal/storage"
)

var (
	_ ledger.TransactionSource = (*SQLiteLedger)(nil)
	_ ledger.TransactionWriter = (*SQLiteLedger)(nil)
)

// SQLiteLedger exposes one account of SQLiteRepository through the ledger
// ports so sessions can be seeded from it.
type SQLiteLedger struct {
	storage *storage.SQLiteRepository
	account string
}

func NewSQLiteLedger(storage *storage.SQLiteRepository, account string) *SQLiteLedger {
	return &SQLiteLedger{
		storage: storage,
		account: account,
	}
}

// Transactions implements ledger.TransactionSource
func (a *SQLiteLedger) Transactions(ctx context.Context, _ time.Time) ([]core.Transaction, error) {
	return a.storage.ListTransactions(ctx, a.account)
}

// AppendTransactions implements ledger.TransactionWriter
func (a *SQLiteLedger) AppendTransactions(ctx context.Context, txs []core.Transaction) (int, error) {
	return a.storage.AppendTransactions(ctx, a.account, txs)
}

// SeedIfEmpty writes seed into the account when it has no rows yet and
// reports whether anything was written.
func (a *SQLiteLedger) SeedIfEmpty(ctx context.Context, seed []core.Transaction) (bool, error) {
	n, err := a.storage.CountTransactions(ctx, a.account)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if _, err := a.storage.AppendTransactions(ctx, a.account, seed); err != nil {
		return false, fmt.Errorf("seed account %s: %w", a.account, err)
	}
	return true, nil
}
