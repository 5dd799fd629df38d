// Package ledger defines where a session's transactions come from.
package ledger

import (
	"context"
	"time"

	"fincoach/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionSource yields the transaction snapshot a new session starts
	// from. now anchors sources whose dates are relative.
	TransactionSource interface {
		Transactions(ctx context.Context, now time.Time) ([]core.Transaction, error)
	}

	// TransactionWriter persists imported transactions.
	TransactionWriter interface {
		AppendTransactions(ctx context.Context, txs []core.Transaction) (int, error)
	}
)

// SourceFunc adapts a plain function to TransactionSource.
type SourceFunc func(ctx context.Context, now time.Time) ([]core.Transaction, error)

func (f SourceFunc) Transactions(ctx context.Context, now time.Time) ([]core.Transaction, error) {
	return f(ctx, now)
}
