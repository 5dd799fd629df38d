package backend

import (
	"context"

	"fincoach/internal/ledger"
	"fincoach/internal/services"
)

// Backend is the ledger a session store is seeded from. Every backend can
// also take new rows so the import command can fill it.
type Backend interface {
	ledger.TransactionSource
	ledger.TransactionWriter
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	// Ping reports backend health for readiness probes. Nil means always ready.
	Ping func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a ledger backend based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateAuditPublisher returns nil when no AMQP URL is configured
	CreateAuditPublisher(config Config) (services.AuditPublisher, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	Account      string
	SeedDemo     bool

	// AMQP audit journal
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleLedgerRange        string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Memory backend specific
	CSVPath string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
