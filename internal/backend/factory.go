package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fincoach/internal/adapters"
	"fincoach/internal/amqp"
	"fincoach/internal/ledger/google"
	"fincoach/internal/ledger/memory"
	"fincoach/internal/services"
	"fincoach/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// CreateAuditPublisher implements Factory.CreateAuditPublisher
func (f *DefaultFactory) CreateAuditPublisher(config Config) (services.AuditPublisher, error) {
	if config.AMQPURL == "" {
		f.logger.Info("AMQP not configured, advice audit journal disabled")
		return nil, nil
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
	}

	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	adapter := adapters.NewSQLiteLedger(sqliteRepo, config.Account)

	if config.SeedDemo {
		seeded, err := adapter.SeedIfEmpty(ctx, memory.DemoTransactions(time.Now()))
		if err != nil {
			sqliteRepo.Close()
			return nil, fmt.Errorf("failed to seed demo ledger: %w", err)
		}
		if seeded {
			f.logger.Info("Seeded empty account with demo transactions", "account", config.Account)
		}
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"account", config.Account)

	return &BackendResult{
		Backend: adapter,
		Ping:    sqliteRepo.Ping,
		Cleanup: sqliteRepo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := google.New(ctx, google.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		Range:           config.GoogleLedgerRange,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)

	return &BackendResult{
		Backend: cli,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	if config.CSVPath == "" {
		f.logger.Info("Initialized memory backend with demo ledger")
		return &BackendResult{Backend: memory.NewDemo()}, nil
	}

	store, err := memory.NewFromCSV(config.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger CSV: %w", err)
	}

	f.logger.Info("Initialized memory backend", "csv_path", config.CSVPath)

	return &BackendResult{
		Backend: store,
	}, nil
}
